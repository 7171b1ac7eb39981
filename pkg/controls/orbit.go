// Package controls moves a camera around a target in response to user input.
package controls

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/stlview/pkg/render"
)

// polarEpsilon keeps the polar angle away from the poles so LookAt stays
// well defined.
const polarEpsilon = 1e-6

// dampedAxis holds input that has not been applied yet. A critically damped
// spring drains the remainder toward zero; the drained part is applied.
type dampedAxis struct {
	pending  float64
	velocity float64
	spring   harmonica.Spring
}

func newDampedAxis(fps int, frequency float64) dampedAxis {
	return dampedAxis{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, 1.0)}
}

func (a *dampedAxis) add(delta float64) {
	a.pending += delta
}

// step returns the amount to apply this frame.
func (a *dampedAxis) step(damped bool) float64 {
	if !damped {
		d := a.pending
		a.pending, a.velocity = 0, 0
		return d
	}
	prev := a.pending
	a.pending, a.velocity = a.spring.Update(a.pending, a.velocity, 0)
	if math.Abs(a.pending) < 1e-9 && math.Abs(a.velocity) < 1e-9 {
		a.pending, a.velocity = 0, 0
	}
	return prev - a.pending
}

func (a *dampedAxis) idle() bool {
	return a.pending == 0 && a.velocity == 0
}

// OrbitControls orbits a camera around Target, keeping Up as "up".
// Rotation, dolly and pan requests accumulate and are applied by Update.
type OrbitControls struct {
	Camera *render.Camera
	Target mgl64.Vec3

	EnableDamping bool
	DampingFactor float64 // Spring frequency; higher settles faster

	MinDistance, MaxDistance     float64
	MinPolarAngle, MaxPolarAngle float64

	theta, phi, dolly, panX, panY dampedAxis
	fps                           int

	saved struct {
		target, position mgl64.Vec3
	}
}

// NewOrbitControls creates controls for cam updated at fps frames per second.
// The current camera position is saved for Reset.
func NewOrbitControls(cam *render.Camera, fps int) *OrbitControls {
	o := &OrbitControls{
		Camera:        cam,
		DampingFactor: 6,
		MaxDistance:   math.Inf(1),
		MaxPolarAngle: math.Pi,
		fps:           max(fps, 1),
	}
	o.resetAxes()
	o.SaveState()
	return o
}

func (o *OrbitControls) resetAxes() {
	for _, a := range o.axes() {
		*a = newDampedAxis(o.fps, o.DampingFactor)
	}
}

func (o *OrbitControls) axes() [5]*dampedAxis {
	return [5]*dampedAxis{&o.theta, &o.phi, &o.dolly, &o.panX, &o.panY}
}

// SaveState records the current target and camera position for Reset.
func (o *OrbitControls) SaveState() {
	o.saved.target = o.Target
	o.saved.position = o.Camera.Position
}

// Reset restores the last saved state and drops pending motion.
func (o *OrbitControls) Reset() {
	o.Target = o.saved.target
	o.Camera.SetPosition(o.saved.position)
	o.Camera.LookAt(o.Target)
	o.resetAxes()
}

// RotateLeft orbits around the up axis by angle radians.
func (o *OrbitControls) RotateLeft(angle float64) {
	o.theta.add(-angle)
}

// RotateUp tilts toward the top pole by angle radians.
func (o *OrbitControls) RotateUp(angle float64) {
	o.phi.add(-angle)
}

// Dolly moves toward the target when amount > 0. The distance scales by
// e^-amount, so equal amounts give equal relative steps.
func (o *OrbitControls) Dolly(amount float64) {
	o.dolly.add(-amount)
}

// Pan shifts the target in the view plane. dx and dy are fractions of the
// viewport height. Positive dx drags the scene right, positive dy drags it up.
func (o *OrbitControls) Pan(dx, dy float64) {
	o.panX.add(dx)
	o.panY.add(dy)
}

// Idle reports whether no motion is pending.
func (o *OrbitControls) Idle() bool {
	for _, a := range o.axes() {
		if !a.idle() {
			return false
		}
	}
	return true
}

// Update applies pending motion and aims the camera at Target.
// It reports whether the camera moved; with nothing pending the camera is
// left untouched.
func (o *OrbitControls) Update() bool {
	if o.Idle() {
		return false
	}
	cam := o.Camera
	before := cam.Position
	damped := o.EnableDamping

	offset := cam.Position.Sub(o.Target)
	radius := offset.Len()
	theta, phi := 0.0, math.Pi/2
	if radius > 0 {
		theta = math.Atan2(offset[0], offset[2])
		phi = math.Acos(mgl64.Clamp(offset[1]/radius, -1, 1))
	}

	theta += o.theta.step(damped)
	phi += o.phi.step(damped)
	phi = mgl64.Clamp(phi, math.Max(o.MinPolarAngle, polarEpsilon), math.Min(o.MaxPolarAngle, math.Pi-polarEpsilon))

	radius *= math.Exp(o.dolly.step(damped))
	radius = mgl64.Clamp(radius, o.MinDistance, o.MaxDistance)

	// Pan is scaled so one viewport height moves the target by the visible
	// height at the target distance.
	visible := 2 * radius * math.Tan(mgl64.DegToRad(cam.FOV)/2)
	panX, panY := o.panX.step(damped), o.panY.step(damped)
	o.Target = o.Target.
		Sub(cam.Right().Mul(panX * visible)).
		Sub(cam.CameraUp().Mul(panY * visible))

	sinPhi := math.Sin(phi)
	offset = mgl64.Vec3{
		radius * sinPhi * math.Sin(theta),
		radius * math.Cos(phi),
		radius * sinPhi * math.Cos(theta),
	}
	cam.SetPosition(o.Target.Add(offset))
	cam.LookAt(o.Target)

	return cam.Position.Sub(before).Len() > 1e-9
}
