package render

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/taigrr/stlview/pkg/scene"
)

// Encoding selects how linear shading results are written to the framebuffer.
type Encoding int

const (
	LinearEncoding Encoding = iota
	SRGBEncoding
)

func (e Encoding) String() string {
	if e == SRGBEncoding {
		return "sRGB"
	}
	return "linear"
}

// Info describes the last rendered frame.
type Info struct {
	Triangles    int // Triangles submitted after mesh culling
	Lines        int // Helper segments drawn
	MeshesCulled int
}

// Renderer rasterizes a scene with a depth buffer and per-vertex shading.
// Colors are accumulated in linear space and encoded once per frame.
type Renderer struct {
	OutputEncoding Encoding
	ClearColor     color.RGBA // Display color, as it should appear on screen
	CullBackfaces  bool

	fb    *Framebuffer
	color []mgl64.Vec3
	depth []float64
	info  Info
}

// NewRenderer creates a renderer with a width x height pixel framebuffer.
func NewRenderer(width, height int) *Renderer {
	r := &Renderer{
		OutputEncoding: SRGBEncoding,
		ClearColor:     RGB(0, 0, 0),
		fb:             NewFramebuffer(0, 0),
	}
	r.SetSize(width, height)
	return r
}

// SetSize resizes the framebuffer and depth buffer.
func (r *Renderer) SetSize(width, height int) {
	r.fb.Resize(width, height)
	n := r.fb.Width * r.fb.Height
	r.color = make([]mgl64.Vec3, n)
	r.depth = make([]float64, n)
}

// Size returns the framebuffer dimensions in pixels.
func (r *Renderer) Size() (width, height int) {
	return r.fb.Width, r.fb.Height
}

// Framebuffer returns the encoded output of the last Render.
func (r *Renderer) Framebuffer() *Framebuffer {
	return r.fb
}

// Info returns statistics for the last Render.
func (r *Renderer) Info() Info {
	return r.info
}

// Render draws s as seen by cam into the framebuffer.
func (r *Renderer) Render(s *scene.Scene, cam *Camera) {
	r.info = Info{}
	bg := r.decode(r.ClearColor)
	for i := range r.color {
		r.color[i] = bg
		r.depth[i] = math.Inf(1)
	}

	viewProj := cam.ViewProjection()
	frustum := NewFrustumFromMatrix(viewProj)
	lights := s.Lights()

	for _, mesh := range s.Meshes() {
		lo, hi := mesh.Geometry.GetBounds()
		if !frustum.IntersectAABB(AABB{Min: lo, Max: hi}.Transform(mesh.Matrix)) {
			r.info.MeshesCulled++
			continue
		}
		r.drawMesh(mesh, viewProj, cam.Position, lights)
	}

	for _, helper := range s.Helpers() {
		for _, seg := range helper.Segments() {
			if r.drawSegment(seg, viewProj) {
				r.info.Lines++
			}
		}
	}

	for i, c := range r.color {
		r.fb.Pixels[i] = r.encode(c)
	}
}

// vertexCounter lets the renderer shade each shared vertex once.
type vertexCounter interface {
	VertexCount() int
}

type shadedVertex struct {
	clip  mgl64.Vec4
	color mgl64.Vec3
	alpha float64
	done  bool
}

func (r *Renderer) drawMesh(mesh *scene.Mesh, viewProj mgl64.Mat4, eye mgl64.Vec3, lights []*scene.SpotLight) {
	geo := mesh.Geometry
	mvp := viewProj.Mul4(mesh.Matrix)
	normalMatrix := mesh.Matrix.Mat3().Inv().Transpose()

	shade := func(idx int) shadedVertex {
		pos, normal := geo.GetVertex(idx)
		world := mgl64.TransformCoordinate(pos, mesh.Matrix)
		c, a := mesh.Material.Shade(scene.ShadeInput{
			Position: world,
			Normal:   normalMatrix.Mul3x1(normal),
			Eye:      eye,
			Lights:   lights,
		})
		return shadedVertex{clip: mvp.Mul4x1(pos.Vec4(1)), color: c, alpha: a, done: true}
	}

	var cache []shadedVertex
	if vc, ok := geo.(vertexCounter); ok {
		cache = make([]shadedVertex, vc.VertexCount())
	}
	vertex := func(idx int) shadedVertex {
		if idx < 0 || idx >= len(cache) {
			return shade(idx)
		}
		if !cache[idx].done {
			cache[idx] = shade(idx)
		}
		return cache[idx]
	}

	for i := range geo.TriangleCount() {
		face := geo.GetFace(i)
		r.info.Triangles++
		r.drawTriangle([3]shadedVertex{vertex(face[0]), vertex(face[1]), vertex(face[2])})
	}
}

type screenVertex struct {
	x, y, z float64
	color   mgl64.Vec3
}

func (r *Renderer) toScreen(clip mgl64.Vec4) (x, y, z float64) {
	invW := 1 / clip[3]
	x = (clip[0]*invW + 1) * 0.5 * float64(r.fb.Width)
	y = (1 - clip[1]*invW) * 0.5 * float64(r.fb.Height)
	return x, y, clip[2] * invW
}

func (r *Renderer) drawTriangle(v [3]shadedVertex) {
	var sv [3]screenVertex
	for i := range 3 {
		// Triangles crossing the camera plane are dropped, not clipped.
		if v[i].clip[3] <= 0 {
			return
		}
		sv[i].x, sv[i].y, sv[i].z = r.toScreen(v[i].clip)
		sv[i].color = v[i].color
	}
	alpha := v[0].alpha

	area2 := (sv[1].x-sv[0].x)*(sv[2].y-sv[0].y) - (sv[1].y-sv[0].y)*(sv[2].x-sv[0].x)
	if area2 == 0 || math.IsNaN(area2) {
		return
	}
	// Counter-clockwise in NDC is clockwise on screen (y flipped).
	if r.CullBackfaces && area2 > 0 {
		return
	}
	if area2 < 0 {
		sv[1], sv[2] = sv[2], sv[1]
		area2 = -area2
	}

	width, height := r.fb.Width, r.fb.Height
	minX := int(math.Max(0, math.Floor(min(sv[0].x, sv[1].x, sv[2].x))))
	maxX := int(math.Min(float64(width-1), math.Ceil(max(sv[0].x, sv[1].x, sv[2].x))))
	minY := int(math.Max(0, math.Floor(min(sv[0].y, sv[1].y, sv[2].y))))
	maxY := int(math.Min(float64(height-1), math.Ceil(max(sv[0].y, sv[1].y, sv[2].y))))
	if minX > maxX || minY > maxY {
		return
	}

	// Edge 0: v1 -> v2, Edge 1: v2 -> v0, Edge 2: v0 -> v1
	a0, b0, c0 := edgeCoeffs(sv[1].x, sv[1].y, sv[2].x, sv[2].y)
	a1, b1, c1 := edgeCoeffs(sv[2].x, sv[2].y, sv[0].x, sv[0].y)
	a2, b2, c2 := edgeCoeffs(sv[0].x, sv[0].y, sv[1].x, sv[1].y)
	invArea := 1 / area2

	px, py := float64(minX)+0.5, float64(minY)+0.5
	w0Row := a0*px + b0*py + c0
	w1Row := a1*px + b1*py + c1
	w2Row := a2*px + b2*py + c2

	for y := minY; y <= maxY; y++ {
		w0, w1, w2 := w0Row, w1Row, w2Row
		row := y * width
		for x := minX; x <= maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				bc0, bc1, bc2 := w0*invArea, w1*invArea, w2*invArea
				z := bc0*sv[0].z + bc1*sv[1].z + bc2*sv[2].z
				idx := row + x
				if z >= -1 && z <= 1 && z < r.depth[idx] {
					c := sv[0].color.Mul(bc0).Add(sv[1].color.Mul(bc1)).Add(sv[2].color.Mul(bc2))
					r.depth[idx] = z
					r.blend(idx, c, alpha)
				}
			}
			w0 += a0
			w1 += a1
			w2 += a2
		}
		w0Row += b0
		w1Row += b1
		w2Row += b2
	}
}

// edgeCoeffs returns A, B, C for edge(x, y) = A*x + B*y + C, which is
// positive to the left of the edge from (x0, y0) to (x1, y1).
func edgeCoeffs(x0, y0, x1, y1 float64) (a, b, c float64) {
	return y0 - y1, x1 - x0, x0*y1 - x1*y0
}

func (r *Renderer) blend(idx int, c mgl64.Vec3, alpha float64) {
	if alpha >= 1 {
		r.color[idx] = c
		return
	}
	r.color[idx] = c.Mul(alpha).Add(r.color[idx].Mul(1 - alpha))
}

// lineDepthBias keeps helper lines visible on surfaces they lie on.
const lineDepthBias = 1e-4

// drawSegment clips seg against the view volume and draws what remains.
// It reports whether anything was drawn.
func (r *Renderer) drawSegment(seg scene.Segment, viewProj mgl64.Mat4) bool {
	c0 := viewProj.Mul4x1(seg.From.Vec4(1))
	c1 := viewProj.Mul4x1(seg.To.Vec4(1))

	// Liang-Barsky in homogeneous clip space.
	t0, t1 := 0.0, 1.0
	for _, plane := range [6]mgl64.Vec4{
		{1, 0, 0, 1}, {-1, 0, 0, 1},
		{0, 1, 0, 1}, {0, -1, 0, 1},
		{0, 0, 1, 1}, {0, 0, -1, 1},
	} {
		d0, d1 := plane.Dot(c0), plane.Dot(c1)
		switch {
		case d0 < 0 && d1 < 0:
			return false
		case d0 < 0:
			t0 = math.Max(t0, d0/(d0-d1))
		case d1 < 0:
			t1 = math.Min(t1, d0/(d0-d1))
		}
	}
	if t0 > t1 {
		return false
	}
	a := c0.Add(c1.Sub(c0).Mul(t0))
	b := c0.Add(c1.Sub(c0).Mul(t1))

	ax, ay, az := r.toScreen(a)
	bx, by, bz := r.toScreen(b)
	x0, y0 := min(int(ax), r.fb.Width-1), min(int(ay), r.fb.Height-1)
	x1, y1 := min(int(bx), r.fb.Width-1), min(int(by), r.fb.Height-1)

	bresenham(x0, y0, x1, y1, func(x, y, step, steps int) {
		if x < 0 || x >= r.fb.Width || y < 0 || y >= r.fb.Height {
			return
		}
		t := 0.0
		if steps > 0 {
			t = float64(step) / float64(steps)
		}
		z := az + (bz-az)*t
		idx := y*r.fb.Width + x
		if z-lineDepthBias < r.depth[idx] {
			r.depth[idx] = z
			r.color[idx] = seg.Color
		}
	})
	return true
}

func (r *Renderer) encode(c mgl64.Vec3) color.RGBA {
	for i := range c {
		if math.IsNaN(c[i]) {
			c[i] = 0
		}
	}
	var out colorful.Color
	if r.OutputEncoding == SRGBEncoding {
		out = colorful.LinearRgb(c[0], c[1], c[2])
	} else {
		out = colorful.Color{R: c[0], G: c[1], B: c[2]}
	}
	red, green, blue := out.Clamped().RGB255()
	return color.RGBA{red, green, blue, 255}
}

func (r *Renderer) decode(c color.RGBA) mgl64.Vec3 {
	col := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	if r.OutputEncoding == SRGBEncoding {
		red, green, blue := col.LinearRgb()
		return mgl64.Vec3{red, green, blue}
	}
	return mgl64.Vec3{col.R, col.G, col.B}
}
