// Package viewer wires the scene, camera, renderer, controls and overlay
// into a single-model STL viewer and drives its frame loop.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"math"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/taigrr/stlview/pkg/asset"
	"github.com/taigrr/stlview/pkg/controls"
	"github.com/taigrr/stlview/pkg/models"
	"github.com/taigrr/stlview/pkg/render"
	"github.com/taigrr/stlview/pkg/scene"
	"github.com/taigrr/stlview/pkg/stats"
)

// ErrQuit is returned by HandleEvent when the user asks to exit.
var ErrQuit = errors.New("viewer: quit")

const (
	fov          = 50.0
	axesSize     = 5.0
	materialHex  = 0xb2ffc8
	dollyStep    = 0.0513 // ln(1/0.95), one wheel notch
	keyPanStep   = 0.05   // Fraction of the viewport height
	keyOrbitStep = math.Pi / 36
)

var lightPosition = mgl64.Vec3{20, 20, 20}

// Options configures a Viewer.
type Options struct {
	FS            fs.FS  // Asset root
	Search        string // Location query, e.g. "?stanford_bunny"
	AssetOverride string // Model path in FS used instead of the selector's file
	Cols, Rows    int    // Terminal size in cells
	FPS           int
	Background    color.RGBA
	Logger        *zap.Logger

	Canvas   render.Canvas              // Where frames are drawn
	Present  func() error               // Flushes the canvas to the display; may be nil
	OnResize func(cols, rows int) error // Resizes the canvas itself; may be nil

	Now func() time.Time // Clock for the stats overlay; defaults to time.Now
}

// Viewer owns everything needed to show one model. It is driven from a
// single goroutine: Run, or direct calls to Frame, Resize and HandleEvent.
type Viewer struct {
	Config   Config
	Scene    *scene.Scene
	Camera   *render.Camera
	Renderer *render.Renderer
	Controls *controls.OrbitControls
	Stats    *stats.Stats
	Light    *scene.SpotLight
	Material *scene.PhysicalMaterial
	EnvMap   *scene.CubeTexture

	log      *zap.Logger
	canvas   render.Canvas
	present  func() error
	onResize func(cols, rows int) error
	cols     int
	rows     int

	model *asset.Future[*models.Geometry]
	env   *asset.Future[[6]image.Image]
	mesh  *scene.Mesh

	drag struct {
		active bool
		button uv.MouseButton
		x, y   int
	}
}

// New builds the scene and starts loading the model and environment map.
// It returns before either load finishes.
func New(opts Options) *Viewer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = 60
	}

	cfg := Resolve(opts.Search)
	v := &Viewer{
		Config:   cfg,
		Scene:    scene.New(),
		Stats:    stats.NewWithClock(now),
		log:      log,
		canvas:   opts.Canvas,
		present:  opts.Present,
		onResize: opts.OnResize,
	}

	v.Scene.Add(scene.NewAxesHelper(axesSize))

	v.Light = scene.NewSpotLight()
	v.Light.Position = lightPosition
	v.Scene.Add(v.Light)

	v.cols, v.rows = max(opts.Cols, 1), max(opts.Rows, 1)
	width, height := render.CellSize(v.cols, v.rows)

	v.Camera = render.NewPerspectiveCamera(fov, float64(width)/float64(height), cfg.Camera.Near, cfg.Camera.Far)
	v.Camera.SetPosition(cfg.Camera.Position)
	v.Camera.LookAt(mgl64.Vec3{})

	v.Renderer = render.NewRenderer(width, height)
	v.Renderer.OutputEncoding = render.SRGBEncoding
	v.Renderer.ClearColor = opts.Background

	v.Controls = controls.NewOrbitControls(v.Camera, fps)
	v.Controls.EnableDamping = true

	v.EnvMap = scene.NewCubeTexture()
	v.EnvMap.Mapping = scene.CubeReflectionMapping

	v.Material = scene.NewPhysicalMaterial(materialHex)
	v.Material.EnvMap = v.EnvMap
	v.Material.Metalness = 0.25
	v.Material.Roughness = 0.1
	v.Material.Opacity = 1.0
	v.Material.Transparent = true
	v.Material.Transmission = 0.99
	v.Material.Clearcoat = 1.0
	v.Material.ClearcoatRoughness = 0.25

	fsys := opts.FS
	envPaths := scene.CubePaths(EnvMapDir, EnvMapSuffix)
	v.env = asset.Go(func() ([6]image.Image, error) {
		return scene.LoadCubeFaces(fsys, envPaths)
	})

	modelPath := cfg.AssetPath
	if opts.AssetOverride != "" {
		modelPath = opts.AssetOverride
	}
	loader := &models.Loader{
		FS: fsys,
		OnProgress: func(loaded, total int64) {
			log.Info("loading model",
				zap.String("path", modelPath),
				zap.Float64("percent", asset.Percent(loaded, total)))
		},
	}
	v.model = loader.Load(modelPath)

	log.Info("viewer started",
		zap.String("selector", string(cfg.Selector)),
		zap.String("model", modelPath),
		zap.Int("width", width),
		zap.Int("height", height))
	return v
}

// Mesh returns the model mesh, or nil until it has loaded.
func (v *Viewer) Mesh() *scene.Mesh {
	return v.mesh
}

// Loading reports whether the model or environment map is still in flight.
func (v *Viewer) Loading() bool {
	return v.model != nil || v.env != nil
}

// pollLoads applies finished loads to the scene. Each result is consumed
// once; the future is dropped afterwards.
func (v *Viewer) pollLoads() {
	if v.model != nil {
		switch r := v.model.Poll(); r.State {
		case asset.Loaded:
			v.mesh = scene.NewMesh(r.Value, v.Material)
			v.Scene.Add(v.mesh)
			v.model = nil
			v.log.Info("model loaded",
				zap.String("name", r.Value.Name),
				zap.Int("triangles", r.Value.TriangleCount()),
				zap.Int("vertices", r.Value.VertexCount()))
		case asset.Failed:
			v.model = nil
			v.log.Error("model load failed", zap.Error(r.Err))
		}
	}

	if v.env != nil {
		switch r := v.env.Poll(); r.State {
		case asset.Loaded:
			v.EnvMap.SetFaces(r.Value)
			v.env = nil
			v.log.Info("environment map loaded")
		case asset.Failed:
			v.env = nil
			v.log.Warn("environment map load failed", zap.Error(r.Err))
		}
	}
}

// WaitLoads blocks until both loads finish or ctx ends, then applies them.
func (v *Viewer) WaitLoads(ctx context.Context) error {
	if v.model != nil {
		select {
		case <-v.model.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if v.env != nil {
		select {
		case <-v.env.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	v.pollLoads()
	return nil
}

// Resize adapts the canvas, camera and framebuffer to a cols x rows
// terminal and redraws immediately.
func (v *Viewer) Resize(cols, rows int) error {
	v.cols, v.rows = max(cols, 1), max(rows, 1)
	width, height := render.CellSize(v.cols, v.rows)

	if v.onResize != nil {
		if err := v.onResize(v.cols, v.rows); err != nil {
			return fmt.Errorf("resize canvas: %w", err)
		}
	}

	v.Camera.Aspect = float64(width) / float64(height)
	v.Camera.UpdateProjectionMatrix()
	v.Renderer.SetSize(width, height)

	v.log.Debug("resized", zap.Int("cols", v.cols), zap.Int("rows", v.rows))
	return v.Draw()
}

// Frame advances one tick: apply finished loads, step the controls, draw,
// then record the frame in the overlay.
func (v *Viewer) Frame() error {
	v.pollLoads()
	v.Controls.Update()
	if err := v.Draw(); err != nil {
		return err
	}
	v.Stats.Update()
	return nil
}

// Draw renders the scene, blits it with the overlay and presents it.
func (v *Viewer) Draw() error {
	v.Renderer.Render(v.Scene, v.Camera)
	if v.canvas != nil {
		v.Renderer.Framebuffer().Draw(v.canvas, uv.Rectangle(image.Rect(0, 0, v.cols, v.rows)))
		v.Stats.Draw(v.canvas)
	}
	if v.present == nil {
		return nil
	}
	if err := v.present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// Run drives the viewer until ctx ends or the user quits. frames is the
// display clock; events carries terminal input. Everything happens on the
// calling goroutine, so no two frames overlap and input is never handled
// mid-frame.
func (v *Viewer) Run(ctx context.Context, frames <-chan time.Time, events <-chan uv.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-frames:
			if err := v.Frame(); err != nil {
				return err
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := v.HandleEvent(ev); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				return err
			}
		}
	}
}

// HandleEvent applies one terminal event. It returns ErrQuit on Esc or
// Ctrl+C.
//
//	Left drag / WASD  - orbit
//	Right drag / arrows - pan
//	Wheel / + -       - dolly
//	R                 - reset view
//	Tab or click stats - cycle overlay panel
func (v *Viewer) HandleEvent(ev uv.Event) error {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		return v.Resize(ev.Width, ev.Height)

	case uv.KeyPressEvent:
		return v.handleKey(ev)

	case uv.MouseClickEvent:
		if ev.Button == uv.MouseLeft && image.Pt(ev.X, ev.Y).In(image.Rectangle(v.Stats.Bounds())) {
			v.Stats.Next()
			return nil
		}
		v.drag.active = true
		v.drag.button = ev.Button
		v.drag.x, v.drag.y = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		v.drag.active = false

	case uv.MouseMotionEvent:
		if !v.drag.active {
			return nil
		}
		v.dragTo(ev.X, ev.Y)

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			v.Controls.Dolly(dollyStep)
		case uv.MouseWheelDown:
			v.Controls.Dolly(-dollyStep)
		}
	}
	return nil
}

func (v *Viewer) handleKey(ev uv.KeyPressEvent) error {
	switch {
	case ev.MatchString("esc", "escape", "ctrl+c"):
		return ErrQuit
	case ev.MatchString("up"):
		v.Controls.Pan(0, keyPanStep)
	case ev.MatchString("down"):
		v.Controls.Pan(0, -keyPanStep)
	case ev.MatchString("left"):
		v.Controls.Pan(keyPanStep, 0)
	case ev.MatchString("right"):
		v.Controls.Pan(-keyPanStep, 0)
	case ev.MatchString("a"):
		v.Controls.RotateLeft(keyOrbitStep)
	case ev.MatchString("d"):
		v.Controls.RotateLeft(-keyOrbitStep)
	case ev.MatchString("w"):
		v.Controls.RotateUp(keyOrbitStep)
	case ev.MatchString("s"):
		v.Controls.RotateUp(-keyOrbitStep)
	case ev.MatchString("+", "="):
		v.Controls.Dolly(dollyStep)
	case ev.MatchString("-", "_"):
		v.Controls.Dolly(-dollyStep)
	case ev.MatchString("r"):
		v.Controls.Reset()
	case ev.MatchString("tab"):
		v.Stats.Next()
	}
	return nil
}

// dragTo converts cell motion to pixel motion (cells are two pixels tall)
// and feeds it to the controls relative to the viewport height.
func (v *Viewer) dragTo(x, y int) {
	_, height := v.Renderer.Size()
	dx := float64(x - v.drag.x)
	dy := float64(2 * (y - v.drag.y))
	v.drag.x, v.drag.y = x, y
	h := float64(max(height, 1))

	switch v.drag.button {
	case uv.MouseLeft:
		v.Controls.RotateLeft(2 * math.Pi * dx / h)
		v.Controls.RotateUp(2 * math.Pi * dy / h)
	case uv.MouseRight, uv.MouseMiddle:
		v.Controls.Pan(dx/h, -dy/h)
	}
}
