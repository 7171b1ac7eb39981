package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl64"
)

type triGeometry struct{}

func (triGeometry) TriangleCount() int { return 1 }
func (triGeometry) GetFace(int) [3]int { return [3]int{0, 1, 2} }
func (triGeometry) GetBounds() (lo, hi mgl64.Vec3) {
	return mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 0}
}
func (triGeometry) GetVertex(i int) (pos, normal mgl64.Vec3) {
	pts := [3]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	return pts[i], mgl64.Vec3{0, 0, 1}
}

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.Set(x, y, c)
		}
	}
	return img
}

// faceColors gives every cube face a distinct primary channel so lookups
// can be identified.
func faceColors() [6]image.Image {
	return [6]image.Image{
		solid(color.RGBA{255, 0, 0, 255}), // px
		solid(color.RGBA{128, 0, 0, 255}), // nx
		solid(color.RGBA{0, 255, 0, 255}), // py
		solid(color.RGBA{0, 128, 0, 255}), // ny
		solid(color.RGBA{0, 0, 255, 255}), // pz
		solid(color.RGBA{0, 0, 128, 255}), // nz
	}
}

func TestSceneAddAndQuery(t *testing.T) {
	s := New()
	axes := NewAxesHelper(5)
	light := NewSpotLight()
	s.Add(axes, light)

	if len(s.Meshes()) != 0 {
		t.Fatalf("new scene should have no meshes")
	}

	mesh := NewMesh(triGeometry{}, NewPhysicalMaterial(0xffffff))
	s.Add(mesh)

	if got := len(s.Nodes()); got != 3 {
		t.Errorf("Nodes() = %d, want 3", got)
	}
	if got := s.Meshes(); len(got) != 1 || got[0] != mesh {
		t.Errorf("Meshes() = %v, want [mesh]", got)
	}
	if got := s.Lights(); len(got) != 1 || got[0] != light {
		t.Errorf("Lights() = %v, want [light]", got)
	}
	if got := s.Helpers(); len(got) != 1 || got[0] != axes {
		t.Errorf("Helpers() = %v, want [axes]", got)
	}
	if mesh.Matrix != mgl64.Ident4() {
		t.Errorf("mesh matrix should start as identity")
	}
}

func TestAxesHelperSegments(t *testing.T) {
	segs := NewAxesHelper(5).Segments()
	wantTo := [3]mgl64.Vec3{{5, 0, 0}, {0, 5, 0}, {0, 0, 5}}
	wantColor := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, s := range segs {
		if s.From != (mgl64.Vec3{}) || s.To != wantTo[i] || s.Color != wantColor[i] {
			t.Errorf("segment %d = %+v", i, s)
		}
	}
}

func TestSpotLightAttenuation(t *testing.T) {
	l := NewSpotLight()
	l.Position = mgl64.Vec3{20, 20, 20}

	tests := []struct {
		name string
		p    mgl64.Vec3
		want float64
	}{
		{"on axis", mgl64.Vec3{0, 0, 0}, 1},
		{"inside cone", mgl64.Vec3{1, -1, 0}, 1},
		{"behind light", mgl64.Vec3{40, 40, 40}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := l.Attenuation(tc.p); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Attenuation(%v) = %v, want %v", tc.p, got, tc.want)
			}
		})
	}

	l.Penumbra = 1
	if got := l.Attenuation(mgl64.Vec3{0, 0, 0}); got < 0.999 {
		t.Errorf("on-axis attenuation with penumbra = %v, want ~1", got)
	}
}

func TestCubeTextureSample(t *testing.T) {
	c := NewCubeTexture()
	if c.Ready() {
		t.Fatal("empty cube should not be ready")
	}
	if got := c.Sample(mgl64.Vec3{0, 1, 0}); got != (mgl64.Vec3{}) {
		t.Errorf("empty cube should sample black, got %v", got)
	}

	c.SetFaces(faceColors())
	if !c.Ready() {
		t.Fatal("cube should be ready after SetFaces")
	}

	tests := []struct {
		name    string
		dir     mgl64.Vec3
		channel int
		bright  bool
	}{
		// X is mirrored: +X lookups land on the nx face
		{"+x", mgl64.Vec3{1, 0, 0}, 0, false},
		{"-x", mgl64.Vec3{-1, 0, 0}, 0, true},
		{"+y", mgl64.Vec3{0, 1, 0}, 1, true},
		{"-y", mgl64.Vec3{0, -1, 0}, 1, false},
		{"+z", mgl64.Vec3{0, 0, 1}, 2, true},
		{"-z", mgl64.Vec3{0, 0, -1}, 2, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Sample(tc.dir)
			if got[tc.channel] <= 0 {
				t.Fatalf("Sample(%v) = %v, want channel %d lit", tc.dir, got, tc.channel)
			}
			isBright := got[tc.channel] > 0.9
			if isBright != tc.bright {
				t.Errorf("Sample(%v) = %v, bright = %v, want %v", tc.dir, got, isBright, tc.bright)
			}
		})
	}
}

func TestCubePaths(t *testing.T) {
	paths := CubePaths("img", "_50.png")
	want := [6]string{
		"img/px_50.png", "img/nx_50.png",
		"img/py_50.png", "img/ny_50.png",
		"img/pz_50.png", "img/nz_50.png",
	}
	if paths != want {
		t.Errorf("CubePaths = %v, want %v", paths, want)
	}
}

func TestLoadCubeFaces(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(color.RGBA{10, 20, 30, 255})); err != nil {
		t.Fatal(err)
	}

	fsys := fstest.MapFS{}
	paths := CubePaths("img", "_50.png")
	for _, p := range paths {
		fsys[p] = &fstest.MapFile{Data: buf.Bytes()}
	}

	images, err := LoadCubeFaces(fsys, paths)
	if err != nil {
		t.Fatalf("LoadCubeFaces: %v", err)
	}
	for i, img := range images {
		if img.Bounds().Dx() != 4 {
			t.Errorf("face %d width = %d, want 4", i, img.Bounds().Dx())
		}
	}

	delete(fsys, paths[3])
	if _, err := LoadCubeFaces(fsys, paths); err == nil {
		t.Error("expected error when a face is missing")
	}
}

func TestHexToLinear(t *testing.T) {
	white := HexToLinear(0xffffff)
	if math.Abs(white[0]-1) > 1e-9 || math.Abs(white[1]-1) > 1e-9 || math.Abs(white[2]-1) > 1e-9 {
		t.Errorf("white = %v, want (1,1,1)", white)
	}
	// sRGB 0x80 is about 0.216 in linear space
	gray := HexToLinear(0x808080)
	if math.Abs(gray[0]-0.2158) > 0.001 {
		t.Errorf("gray = %v, want ~0.216", gray)
	}
}

func TestPhysicalMaterialShade(t *testing.T) {
	light := NewSpotLight()
	light.Position = mgl64.Vec3{0, 0, 10}

	mat := NewPhysicalMaterial(0xffffff)
	mat.Roughness = 0.5

	in := ShadeInput{
		Position: mgl64.Vec3{0, 0, 0},
		Normal:   mgl64.Vec3{0, 0, 1},
		Eye:      mgl64.Vec3{0, 0, 5},
		Lights:   []*SpotLight{light},
	}

	lit, alpha := mat.Shade(in)
	if alpha != 1 {
		t.Errorf("opaque alpha = %v, want 1", alpha)
	}
	if lit[0] <= 0 {
		t.Fatalf("facing the light should be lit, got %v", lit)
	}

	// A back face is lit like its flipped twin
	in.Normal = mgl64.Vec3{0, 0, -1}
	back, _ := mat.Shade(in)
	if math.Abs(back[0]-lit[0]) > 1e-9 {
		t.Errorf("back face = %v, want %v", back, lit)
	}

	// No lights and no env map leaves the surface black
	in.Lights = nil
	dark, _ := mat.Shade(in)
	if dark != (mgl64.Vec3{}) {
		t.Errorf("unlit = %v, want black", dark)
	}
}

func TestPhysicalMaterialTransmission(t *testing.T) {
	env := NewCubeTexture()
	env.SetFaces(faceColors())

	mat := NewPhysicalMaterial(0xffffff)
	mat.EnvMap = env
	mat.Transmission = 1
	mat.Transparent = true
	mat.Opacity = 0.5

	// Looking down -Z through the surface sees the nz face (dim blue)
	out, alpha := mat.Shade(ShadeInput{
		Position: mgl64.Vec3{0, 0, 0},
		Normal:   mgl64.Vec3{0, 0, 1},
		Eye:      mgl64.Vec3{0, 0, 5},
	})
	if alpha != 0.5 {
		t.Errorf("alpha = %v, want 0.5", alpha)
	}
	if out[2] <= 0 {
		t.Errorf("transmitted color = %v, want blue component", out)
	}
}
