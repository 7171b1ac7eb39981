// Package asset provides non-blocking asset loading for the viewer.
//
// A load runs on its own goroutine and publishes a single Result. The
// owner polls it from the render loop, so the scene is only ever mutated
// from one goroutine. Loads are never retried, never time out and are
// never cancelled.
package asset

import "fmt"

// State is the lifecycle of a load.
type State int

const (
	Pending State = iota // Still in flight
	Loaded               // Finished with a value
	Failed               // Finished with an error
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the three-way outcome of a load.
type Result[T any] struct {
	State State
	Value T
	Err   error
}

// Future holds the eventual result of a load started with Go.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn on a new goroutine and returns immediately.
// A panic in fn is reported as a Failed result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("load panicked: %v", r)
			}
		}()
		f.value, f.err = fn()
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Poll returns the current state without blocking.
func (f *Future[T]) Poll() Result[T] {
	select {
	case <-f.done:
		return f.result()
	default:
		return Result[T]{State: Pending}
	}
}

// Wait blocks until the load finishes.
func (f *Future[T]) Wait() Result[T] {
	<-f.done
	return f.result()
}

func (f *Future[T]) result() Result[T] {
	if f.err != nil {
		return Result[T]{State: Failed, Err: f.err}
	}
	return Result[T]{State: Loaded, Value: f.value}
}
