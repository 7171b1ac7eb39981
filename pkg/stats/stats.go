// Package stats is a frame-rate overlay: an FPS panel and a frame-time
// panel, each with a running min/max and a small history graph.
package stats

import (
	"fmt"
	"image/color"
	"math"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/taigrr/stlview/pkg/render"
)

// GraphWidth is the number of samples kept per panel, one cell each.
const GraphWidth = 16

var bars = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// Panel tracks one measured value.
type Panel struct {
	Name     string
	Value    float64
	Min, Max float64

	fg, bg  colorful.Color
	history []float64
	scale   float64 // Graph full height
}

// Panel colors: cyan on navy for FPS, green on dark green for MS.
var (
	fpsFg = colorful.Color{R: 0, G: 1, B: 1}
	fpsBg = colorful.Color{R: 0, G: 0, B: 0x22 / 255.0}
	msFg  = colorful.Color{R: 0, G: 1, B: 0}
	msBg  = colorful.Color{R: 0, G: 0x22 / 255.0, B: 0}
)

func newPanel(name string, fg, bg colorful.Color, scale float64) Panel {
	return Panel{
		Name:  name,
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
		fg:    fg,
		bg:    bg,
		scale: scale,
	}
}

func (p *Panel) update(v float64) {
	p.Value = v
	p.Min = math.Min(p.Min, v)
	p.Max = math.Max(p.Max, v)
	p.history = append(p.history, v)
	if len(p.history) > GraphWidth {
		p.history = p.history[1:]
	}
}

// Label is the panel's text line, e.g. "60 FPS (58-61)".
func (p *Panel) Label() string {
	if math.IsInf(p.Min, 1) {
		return fmt.Sprintf("-- %s", p.Name)
	}
	return fmt.Sprintf("%.0f %s (%.0f-%.0f)", p.Value, p.Name, p.Min, p.Max)
}

// History returns the recorded samples, oldest first.
func (p *Panel) History() []float64 {
	return p.history
}

// Mode selects which panel Draw shows.
type Mode int

const (
	ModeFPS Mode = iota
	ModeMS
	ModeHidden
)

// Stats measures frame timing. Call Update once per rendered frame.
type Stats struct {
	FPS  Panel
	MS   Panel
	Mode Mode

	now       func() time.Time
	prevTime  time.Time // Start of the current FPS window
	lastFrame time.Time
	frames    int
}

// New creates a Stats using the wall clock.
func New() *Stats {
	return NewWithClock(time.Now)
}

// NewWithClock creates a Stats that reads time from now.
func NewWithClock(now func() time.Time) *Stats {
	t := now()
	return &Stats{
		FPS:       newPanel("FPS", fpsFg, fpsBg, 100),
		MS:        newPanel("MS", msFg, msBg, 200),
		now:       now,
		prevTime:  t,
		lastFrame: t,
	}
}

// Update records a frame. The MS panel gets the time since the previous
// frame; the FPS panel is refreshed once per second.
func (s *Stats) Update() {
	t := s.now()
	s.frames++
	s.MS.update(float64(t.Sub(s.lastFrame)) / float64(time.Millisecond))
	s.lastFrame = t

	if elapsed := t.Sub(s.prevTime); elapsed >= time.Second {
		s.FPS.update(float64(s.frames) / elapsed.Seconds())
		s.prevTime = t
		s.frames = 0
	}
}

// Next cycles FPS -> MS -> hidden -> FPS.
func (s *Stats) Next() {
	s.Mode = (s.Mode + 1) % (ModeHidden + 1)
}

// Bounds returns the overlay area in cells.
func (s *Stats) Bounds() uv.Rectangle {
	if s.Mode == ModeHidden {
		return uv.Rectangle{}
	}
	r := uv.Rectangle{}
	r.Max.X, r.Max.Y = GraphWidth, 2
	return r
}

// Draw writes the active panel at the top-left of c: a label row and a
// graph row.
func (s *Stats) Draw(c render.Canvas) {
	var p *Panel
	switch s.Mode {
	case ModeFPS:
		p = &s.FPS
	case ModeMS:
		p = &s.MS
	default:
		return
	}
	fg, bg := toRGBA(p.fg), toRGBA(p.bg)

	label := []rune(p.Label())
	for x := range GraphWidth {
		ch := " "
		if x < len(label) {
			ch = string(label[x])
		}
		c.SetCell(x, 0, &uv.Cell{Content: ch, Width: 1, Style: uv.Style{Fg: fg, Bg: bg}})
	}

	offset := GraphWidth - len(p.history)
	for x := range GraphWidth {
		ch := " "
		if i := x - offset; i >= 0 {
			level := int(math.Round(p.history[i] / p.scale * float64(len(bars)-1)))
			ch = bars[min(max(level, 0), len(bars)-1)]
		}
		c.SetCell(x, 1, &uv.Cell{Content: ch, Width: 1, Style: uv.Style{Fg: fg, Bg: bg}})
	}
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return render.RGB(r, g, b)
}
