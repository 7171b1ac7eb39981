package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// PhysicalMaterial is a metal/roughness material with clearcoat and
// transmission layers. Colors are stored in linear RGB.
type PhysicalMaterial struct {
	Color              mgl64.Vec3
	EnvMap             *CubeTexture
	EnvMapIntensity    float64
	Metalness          float64
	Roughness          float64
	Opacity            float64
	Transparent        bool
	Transmission       float64
	Clearcoat          float64
	ClearcoatRoughness float64
}

// NewPhysicalMaterial creates an opaque dielectric with the given sRGB
// color (0xRRGGBB).
func NewPhysicalMaterial(hex uint32) *PhysicalMaterial {
	return &PhysicalMaterial{
		Color:           HexToLinear(hex),
		EnvMapIntensity: 1,
		Roughness:       1,
		Opacity:         1,
	}
}

// HexToLinear converts an sRGB 0xRRGGBB value to linear RGB.
func HexToLinear(hex uint32) mgl64.Vec3 {
	c := colorful.Color{
		R: float64(hex>>16&0xff) / 255,
		G: float64(hex>>8&0xff) / 255,
		B: float64(hex&0xff) / 255,
	}
	r, g, b := c.LinearRgb()
	return mgl64.Vec3{r, g, b}
}

// ShadeInput is a single surface point to be lit.
type ShadeInput struct {
	Position mgl64.Vec3 // World space
	Normal   mgl64.Vec3 // World space, need not be unit length
	Eye      mgl64.Vec3 // Camera position
	Lights   []*SpotLight
}

// Shade returns the outgoing linear color and alpha at a surface point.
// Back faces are lit as if their normal were flipped.
func (m *PhysicalMaterial) Shade(in ShadeInput) (mgl64.Vec3, float64) {
	n := normalize(in.Normal)
	v := normalize(in.Eye.Sub(in.Position))
	if n.Dot(v) < 0 {
		n = n.Mul(-1)
	}
	nDotV := math.Max(n.Dot(v), 0)

	f0 := mix(mgl64.Vec3{0.04, 0.04, 0.04}, m.Color, m.Metalness)
	fresnel := schlick(f0, nDotV)
	diffuse := m.Color.Mul((1 - m.Metalness) * (1 - m.Transmission))
	shininess := specularPower(m.Roughness)

	var out mgl64.Vec3
	var coatSpec float64
	for _, light := range in.Lights {
		radiance := light.Radiance(in.Position)
		if radiance == (mgl64.Vec3{}) {
			continue
		}
		l := light.Direction(in.Position)
		nDotL := math.Max(n.Dot(l), 0)
		if nDotL == 0 {
			continue
		}
		h := normalize(l.Add(v))
		nDotH := math.Max(n.Dot(h), 0)

		spec := math.Pow(nDotH, shininess) * (shininess + 8) / (8 * math.Pi)
		lit := diffuse.Add(mulv(schlick(f0, nDotV), mgl64.Vec3{spec, spec, spec}))
		out = out.Add(mulv(lit, radiance).Mul(nDotL))

		coatSpec += math.Pow(nDotH, specularPower(m.ClearcoatRoughness)) * nDotL * light.Intensity * light.Attenuation(in.Position)
	}

	if m.EnvMap != nil {
		intensity := m.EnvMapIntensity
		reflected := reflect(v.Mul(-1), n)
		env := m.EnvMap.Sample(reflected).Mul(intensity * (1 - m.Roughness))
		out = out.Add(mulv(env, fresnel))

		// Light seen through the surface, tinted by the base color
		behind := m.EnvMap.Sample(v.Mul(-1)).Mul(intensity)
		throughput := (1 - m.Metalness) * m.Transmission
		out = out.Add(mulv(mulv(behind, m.Color), oneMinus(fresnel)).Mul(throughput))
	}

	if m.Clearcoat > 0 {
		fc := 0.04 + 0.96*math.Pow(1-nDotV, 5)
		out = out.Mul(1 - m.Clearcoat*fc)

		var coat mgl64.Vec3
		if m.EnvMap != nil {
			coat = m.EnvMap.Sample(reflect(v.Mul(-1), n)).Mul(m.EnvMapIntensity * (1 - m.ClearcoatRoughness))
		}
		coat = coat.Add(mgl64.Vec3{coatSpec, coatSpec, coatSpec})
		out = out.Add(coat.Mul(m.Clearcoat * fc))
	}

	alpha := 1.0
	if m.Transparent {
		alpha = m.Opacity
	}
	return out, alpha
}

// specularPower maps roughness to a Blinn-Phong exponent. Vertex lighting
// cannot resolve very tight highlights, so the exponent is capped.
func specularPower(roughness float64) float64 {
	alpha := math.Max(roughness*roughness, 0.002)
	return math.Min(2/(alpha*alpha)-2, 256)
}

func schlick(f0 mgl64.Vec3, cosTheta float64) mgl64.Vec3 {
	k := math.Pow(1-cosTheta, 5)
	return f0.Add(oneMinus(f0).Mul(k))
}

func reflect(d, n mgl64.Vec3) mgl64.Vec3 {
	return d.Sub(n.Mul(2 * d.Dot(n)))
}

func mix(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

func mulv(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func oneMinus(a mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{1 - a[0], 1 - a[1], 1 - a[2]}
}
