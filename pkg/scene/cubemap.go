package scene

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io/fs"
	"math"
	"path"

	"github.com/go-gl/mathgl/mgl64"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Mapping selects how a cube texture is looked up.
type Mapping int

const (
	CubeReflectionMapping Mapping = iota // Sample along the reflected view ray
	CubeRefractionMapping                // Sample along the refracted view ray
)

// CubeFaceOrder is the face order of a cube texture: +X, -X, +Y, -Y, +Z, -Z.
var CubeFaceOrder = [6]string{"px", "nx", "py", "ny", "pz", "nz"}

// CubePaths builds the six face paths "<dir>/<face><suffix>".
func CubePaths(dir, suffix string) [6]string {
	var paths [6]string
	for i, face := range CubeFaceOrder {
		paths[i] = path.Join(dir, face+suffix)
	}
	return paths
}

// cubeFace is a decoded face in linear RGB.
type cubeFace struct {
	width, height int
	pixels        []mgl64.Vec3
}

// CubeTexture is an environment map made of six square images.
// It samples black until its faces are set.
type CubeTexture struct {
	Mapping Mapping
	faces   [6]*cubeFace
}

// NewCubeTexture creates an empty cube texture.
func NewCubeTexture() *CubeTexture {
	return &CubeTexture{Mapping: CubeReflectionMapping}
}

// SetFaces decodes the six images (in CubeFaceOrder) into linear RGB.
func (c *CubeTexture) SetFaces(images [6]image.Image) {
	for i, img := range images {
		c.faces[i] = decodeFace(img)
	}
}

// Ready reports whether all six faces are present.
func (c *CubeTexture) Ready() bool {
	for _, f := range c.faces {
		if f == nil {
			return false
		}
	}
	return true
}

func decodeFace(img image.Image) *cubeFace {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	face := &cubeFace{
		width:  b.Dx(),
		height: b.Dy(),
		pixels: make([]mgl64.Vec3, b.Dx()*b.Dy()),
	}
	for y := range face.height {
		for x := range face.width {
			col, ok := colorful.MakeColor(img.At(b.Min.X+x, b.Min.Y+y))
			if !ok {
				// Fully transparent pixel
				continue
			}
			r, g, bl := col.LinearRgb()
			face.pixels[y*face.width+x] = mgl64.Vec3{r, g, bl}
		}
	}
	return face
}

// Sample returns the linear color seen along dir.
// Lookups mirror X the way WebGL cube textures are conventionally flipped.
func (c *CubeTexture) Sample(dir mgl64.Vec3) mgl64.Vec3 {
	if c == nil {
		return mgl64.Vec3{}
	}
	x, y, z := -dir[0], dir[1], dir[2]
	ax, ay, az := math.Abs(x), math.Abs(y), math.Abs(z)

	var face int
	var sc, tc, ma float64
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if x > 0 {
			face, sc, tc = 0, -z, -y
		} else {
			face, sc, tc = 1, z, -y
		}
	case ay >= az:
		ma = ay
		if y > 0 {
			face, sc, tc = 2, x, z
		} else {
			face, sc, tc = 3, x, -z
		}
	default:
		ma = az
		if z > 0 {
			face, sc, tc = 4, x, -y
		} else {
			face, sc, tc = 5, -x, -y
		}
	}

	f := c.faces[face]
	if f == nil || ma == 0 || f.width == 0 || f.height == 0 {
		return mgl64.Vec3{}
	}

	u := (sc/ma + 1) / 2
	v := (tc/ma + 1) / 2
	px := min(int(u*float64(f.width)), f.width-1)
	py := min(int(v*float64(f.height)), f.height-1)
	return f.pixels[max(py, 0)*f.width+max(px, 0)]
}

// LoadCubeFaces decodes the six face images from fsys.
// All faces must decode for the load to succeed.
func LoadCubeFaces(fsys fs.FS, paths [6]string) ([6]image.Image, error) {
	var images [6]image.Image
	for i, p := range paths {
		f, err := fsys.Open(p)
		if err != nil {
			return images, fmt.Errorf("open cube face %s: %w", p, err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return images, fmt.Errorf("decode cube face %s: %w", p, err)
		}
		images[i] = img
	}
	return images, nil
}
