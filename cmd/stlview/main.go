// stlview - Terminal STL Viewer
// Shows one bundled model, picked by a location query, with orbit controls
// and a frame-rate overlay.
//
// Controls:
//
//	Left drag / W A S D  - Orbit
//	Right drag / arrows  - Pan
//	Scroll / + -         - Dolly in/out
//	R                    - Reset view
//	Tab / click overlay  - Cycle FPS / MS / hidden overlay
//	Esc / Ctrl+C         - Quit
package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/stlview/pkg/models"
	"github.com/taigrr/stlview/pkg/render"
	"github.com/taigrr/stlview/pkg/viewer"
)

var (
	assetRoot     string
	assetOverride string
	targetFPS     int
	bgColor       string
	logFile       string
)

func main() {
	cmd := &cobra.Command{
		Use:   "stlview [location]",
		Short: "Terminal STL viewer",
		Long: `stlview - Terminal STL Viewer

The location picks the model: "?stanford_bunny", "stanford_bunny" or a full
URL such as "http://localhost:8080/?eiffel_tower". Anything unrecognized shows
models/stl/base.stl.

Controls:
  Left drag / WASD   - Orbit
  Right drag / arrows - Pan
  Scroll / + -       - Dolly
  R                  - Reset view
  Tab                - Cycle overlay
  Esc                - Quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), location(args))
		},
	}

	cmd.PersistentFlags().StringVar(&assetRoot, "root", ".", "Asset root containing models/ and img/")
	cmd.PersistentFlags().StringVar(&assetOverride, "asset", "", "Model to show instead of the selected one (.stl or .glb, relative to --root)")
	cmd.PersistentFlags().StringVar(&bgColor, "bg", "0,0,0", "Background color (R,G,B)")
	cmd.Flags().IntVar(&targetFPS, "fps", 60, "Target FPS")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write diagnostics to this file instead of stderr on exit")

	cmd.AddCommand(infoCommand(), snapshotCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, cmd); err != nil {
		os.Exit(1)
	}
}

func location(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info [location]",
		Short: "Show the resolved model, camera and asset path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(location(args))
		},
	}
}

func snapshotCommand() *cobra.Command {
	var out string
	var width, height int
	cmd := &cobra.Command{
		Use:   "snapshot [location]",
		Short: "Render one frame to a PNG without a terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), location(args), out, width, height)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "stlview.png", "Output PNG path")
	cmd.Flags().IntVar(&width, "width", 320, "Image width in pixels")
	cmd.Flags().IntVar(&height, "height", 240, "Image height in pixels")
	return cmd
}

func parseRGB(s string) (color.RGBA, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d,%d,%d", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("parse --bg %q: %w", s, err)
	}
	return render.RGB(r, g, b), nil
}

// modelPath returns the --asset override as a path inside the asset root.
func modelPath() string {
	if assetOverride == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(assetOverride))
}

func runInfo(loc string) error {
	search := viewer.SearchFromLocation(loc)
	cfg := viewer.Resolve(search)
	path := cfg.AssetPath
	if p := modelPath(); p != "" {
		path = p
	}

	fmt.Printf("Search:     %q\n", search)
	fmt.Printf("Selector:   %s\n", cfg.Selector)
	fmt.Printf("File:       %s\n", cfg.Filename)
	fmt.Printf("Asset:      %s\n", filepath.Join(assetRoot, filepath.FromSlash(path)))
	fmt.Printf("Camera:     (%g, %g, %g)\n", cfg.Camera.Position[0], cfg.Camera.Position[1], cfg.Camera.Position[2])
	fmt.Printf("Clipping:   near %g, far %g\n", cfg.Camera.Near, cfg.Camera.Far)

	loader := &models.Loader{FS: os.DirFS(assetRoot)}
	res := loader.Load(path).Wait()
	if res.Err != nil {
		fmt.Printf("Model:      unavailable (%v)\n", res.Err)
		return nil
	}
	geo := res.Value
	size := geo.Size()
	center := geo.Center()
	fmt.Println()
	fmt.Printf("Vertices:   %d\n", geo.VertexCount())
	fmt.Printf("Triangles:  %d\n", geo.TriangleCount())
	fmt.Printf("Bounds:     %.2f x %.2f x %.2f\n", size[0], size[1], size[2])
	fmt.Printf("Center:     (%.2f, %.2f, %.2f)\n", center[0], center[1], center[2])
	return nil
}

func runSnapshot(ctx context.Context, loc, out string, width, height int) error {
	bg, err := parseRGB(bgColor)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr)
	defer logger.Sync()

	v := viewer.New(viewer.Options{
		FS:            os.DirFS(assetRoot),
		Search:        viewer.SearchFromLocation(loc),
		AssetOverride: modelPath(),
		Cols:          width,
		Rows:          (height + 1) / 2,
		Background:    bg,
		Logger:        logger,
	})
	if err := v.WaitLoads(ctx); err != nil {
		return fmt.Errorf("wait for assets: %w", err)
	}
	if v.Mesh() == nil {
		logger.Warn("rendering without a model")
	}
	v.Controls.EnableDamping = false
	v.Controls.Update()
	if err := v.Draw(); err != nil {
		return err
	}
	if err := saveSnapshot(v.Renderer.Framebuffer(), out, width, height); err != nil {
		return fmt.Errorf("save %s: %w", out, err)
	}
	logger.Info("snapshot written", zap.String("path", out))
	return nil
}

// saveSnapshot writes the top-left width x height pixels of fb as a PNG.
// Rows come in cell pairs, so an odd height leaves one extra row to drop.
func saveSnapshot(fb *render.Framebuffer, path string, width, height int) error {
	img := fb.ToImage().SubImage(image.Rect(0, 0, width, height))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

func run(ctx context.Context, loc string) error {
	bg, err := parseRGB(bgColor)
	if err != nil {
		return err
	}
	if targetFPS <= 0 {
		return fmt.Errorf("--fps must be positive, got %d", targetFPS)
	}

	sink, err := newLogSink(logFile)
	if err != nil {
		return err
	}
	defer sink.Close()
	logger := newLogger(sink)
	defer logger.Sync()

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1002h") // Button-event mouse tracking (drag)
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1002l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	v := viewer.New(viewer.Options{
		FS:            os.DirFS(assetRoot),
		Search:        viewer.SearchFromLocation(loc),
		AssetOverride: modelPath(),
		Cols:          width,
		Rows:          height,
		FPS:           targetFPS,
		Background:    bg,
		Logger:        logger,
		Canvas:        term,
		Present:       term.Display,
		OnResize: func(cols, rows int) error {
			term.Erase()
			return term.Resize(cols, rows)
		},
	})

	ticker := time.NewTicker(time.Second / time.Duration(targetFPS))
	defer ticker.Stop()

	return v.Run(ctx, ticker.C, term.Events())
}
