package render

import (
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/taigrr/stlview/pkg/scene"
)

// triangles is a minimal scene.Geometry made of unshared vertices.
type triangles struct {
	pos    []mgl64.Vec3
	normal []mgl64.Vec3
}

func (g *triangles) add(a, b, c mgl64.Vec3) {
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	g.pos = append(g.pos, a, b, c)
	g.normal = append(g.normal, n, n, n)
}

func (g *triangles) TriangleCount() int { return len(g.pos) / 3 }
func (g *triangles) VertexCount() int   { return len(g.pos) }
func (g *triangles) GetFace(i int) [3]int {
	return [3]int{3 * i, 3*i + 1, 3*i + 2}
}

func (g *triangles) GetVertex(i int) (pos, normal mgl64.Vec3) {
	return g.pos[i], g.normal[i]
}

func (g *triangles) GetBounds() (lo, hi mgl64.Vec3) {
	lo = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = lo.Mul(-1)
	for _, p := range g.pos {
		for k := range 3 {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	return lo, hi
}

// facingTriangle is counter-clockwise when seen from +Z.
func facingTriangle() *triangles {
	g := &triangles{}
	g.add(mgl64.Vec3{-2, -2, 0}, mgl64.Vec3{2, -2, 0}, mgl64.Vec3{0, 2, 0})
	return g
}

func testScene(geo scene.Geometry) (*scene.Scene, *Camera) {
	s := scene.New()
	light := scene.NewSpotLight()
	light.Position = mgl64.Vec3{0, 0, 20}
	s.Add(light, scene.NewMesh(geo, scene.NewPhysicalMaterial(0xffffff)))

	cam := NewPerspectiveCamera(50, 1, 0.1, 100)
	cam.SetPosition(mgl64.Vec3{0, 0, 10})
	cam.LookAt(mgl64.Vec3{})
	return s, cam
}

func TestRendererEmptyScene(t *testing.T) {
	r := NewRenderer(8, 8)
	r.ClearColor = RGB(30, 30, 40)
	r.Render(scene.New(), NewPerspectiveCamera(50, 1, 0.1, 100))

	for i, p := range r.Framebuffer().Pixels {
		if !near(p, r.ClearColor) {
			t.Fatalf("pixel %d = %v, want clear color %v", i, p, r.ClearColor)
		}
	}
	if info := r.Info(); info != (Info{}) {
		t.Errorf("Info = %+v, want zero", info)
	}
}

func TestRendererDrawsTriangle(t *testing.T) {
	r := NewRenderer(40, 40)
	s, cam := testScene(facingTriangle())
	r.Render(s, cam)

	if got := r.Info().Triangles; got != 1 {
		t.Errorf("Triangles = %d, want 1", got)
	}
	center := r.Framebuffer().GetPixel(20, 20)
	if center == RGB(0, 0, 0) {
		t.Error("center pixel is still the clear color")
	}
	if corner := r.Framebuffer().GetPixel(0, 0); corner != RGB(0, 0, 0) {
		t.Errorf("corner pixel = %v, want clear color", corner)
	}
}

func TestRendererBackfaceCulling(t *testing.T) {
	back := &triangles{}
	back.add(mgl64.Vec3{-2, -2, 0}, mgl64.Vec3{0, 2, 0}, mgl64.Vec3{2, -2, 0})

	tests := []struct {
		name  string
		geo   *triangles
		cull  bool
		drawn bool
	}{
		{"front, culling on", facingTriangle(), true, true},
		{"back, culling on", back, true, false},
		{"back, culling off", back, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRenderer(40, 40)
			r.CullBackfaces = tc.cull
			s, cam := testScene(tc.geo)
			r.Render(s, cam)

			drawn := r.Framebuffer().GetPixel(20, 20) != RGB(0, 0, 0)
			if drawn != tc.drawn {
				t.Errorf("drawn = %v, want %v", drawn, tc.drawn)
			}
		})
	}
}

func TestRendererDepthTest(t *testing.T) {
	g := &triangles{}
	// Far triangle first, then a nearer one covering the center.
	g.add(mgl64.Vec3{-3, -3, -2}, mgl64.Vec3{3, -3, -2}, mgl64.Vec3{0, 3, -2})
	g.add(mgl64.Vec3{-1, -1, 1}, mgl64.Vec3{1, -1, 1}, mgl64.Vec3{0, 1, 1})

	r := NewRenderer(40, 40)
	s, cam := testScene(g)
	r.Render(s, cam)

	idx := 20*40 + 20
	if r.depth[idx] >= 1 || math.IsInf(r.depth[idx], 1) {
		t.Fatalf("center depth = %v, want a surface", r.depth[idx])
	}
	_, _, nearZ, _ := cam.Project(mgl64.Vec3{0, 0, 1}, 40, 40)
	if math.Abs(r.depth[idx]-nearZ) > 1e-3 {
		t.Errorf("center depth = %v, want nearer surface %v", r.depth[idx], nearZ)
	}
}

func TestRendererFrustumCulling(t *testing.T) {
	r := NewRenderer(20, 20)
	s, cam := testScene(facingTriangle())
	s.Meshes()[0].Matrix = mgl64.Translate3D(1000, 0, 0)
	r.Render(s, cam)

	info := r.Info()
	if info.MeshesCulled != 1 || info.Triangles != 0 {
		t.Errorf("Info = %+v, want 1 culled mesh and no triangles", info)
	}
}

func TestRendererAxesHelper(t *testing.T) {
	r := NewRenderer(80, 80)
	s := scene.New()
	s.Add(scene.NewAxesHelper(5))
	cam := NewPerspectiveCamera(50, 1, 0.1, 100)
	cam.SetPosition(mgl64.Vec3{0, 0, 10})
	cam.LookAt(mgl64.Vec3{})
	r.Render(s, cam)

	if got := r.Info().Lines; got != 3 {
		t.Errorf("Lines = %d, want 3", got)
	}
	// The X axis runs right from the center along the middle row.
	if got := r.Framebuffer().GetPixel(60, 40); got != RGB(255, 0, 0) {
		t.Errorf("x axis pixel = %v, want red", got)
	}
	if got := r.Framebuffer().GetPixel(40, 20); got != RGB(0, 255, 0) {
		t.Errorf("y axis pixel = %v, want green", got)
	}
}

func TestRendererEncoding(t *testing.T) {
	tests := []struct {
		name     string
		encoding Encoding
		in       float64
		want     uint8
	}{
		{"linear half", LinearEncoding, 0.5, 128},
		{"srgb half", SRGBEncoding, 0.5, 188},
		{"srgb black", SRGBEncoding, 0, 0},
		{"srgb overexposed", SRGBEncoding, 4, 255},
		{"linear negative", LinearEncoding, -1, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &Renderer{OutputEncoding: tc.encoding}
			got := r.encode(mgl64.Vec3{tc.in, tc.in, tc.in})
			if diff := int(got.R) - int(tc.want); diff < -1 || diff > 1 {
				t.Errorf("encode(%v) = %d, want %d", tc.in, got.R, tc.want)
			}
		})
	}
}

func TestRendererBlend(t *testing.T) {
	r := NewRenderer(1, 1)
	r.color[0] = mgl64.Vec3{1, 1, 1}
	r.blend(0, mgl64.Vec3{0, 0, 0}, 0.25)

	if got := r.color[0][0]; math.Abs(got-0.75) > 1e-9 {
		t.Errorf("blended = %v, want 0.75", got)
	}
}

func TestRendererSetSize(t *testing.T) {
	r := NewRenderer(4, 4)
	r.SetSize(10, 6)
	if w, h := r.Size(); w != 10 || h != 6 {
		t.Errorf("Size = %d, %d, want 10, 6", w, h)
	}
	if len(r.depth) != 60 || len(r.Framebuffer().Pixels) != 60 {
		t.Error("buffers not resized")
	}
}

func near(a, b color.RGBA) bool {
	d := func(x, y uint8) int { return abs(int(x) - int(y)) }
	return d(a.R, b.R) <= 1 && d(a.G, b.G) <= 1 && d(a.B, b.B) <= 1
}

func BenchmarkRender(b *testing.B) {
	g := &triangles{}
	const n = 32
	for i := range n {
		for j := range n {
			x0, y0 := float64(i)/n*4-2, float64(j)/n*4-2
			x1, y1 := x0+4.0/n, y0+4.0/n
			g.add(mgl64.Vec3{x0, y0, 0}, mgl64.Vec3{x1, y0, 0}, mgl64.Vec3{x1, y1, 0})
			g.add(mgl64.Vec3{x0, y0, 0}, mgl64.Vec3{x1, y1, 0}, mgl64.Vec3{x0, y1, 0})
		}
	}
	r := NewRenderer(160, 96)
	s, cam := testScene(g)

	for b.Loop() {
		r.Render(s, cam)
	}
}
