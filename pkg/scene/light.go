package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SpotLight emits a cone of light from Position toward Target.
// There is no distance falloff.
type SpotLight struct {
	Position  mgl64.Vec3
	Target    mgl64.Vec3
	Color     mgl64.Vec3 // Linear RGB
	Intensity float64
	Angle     float64 // Half-angle of the cone in radians
	Penumbra  float64 // 0..1 fraction of the cone that fades out
}

// NewSpotLight creates a white spot light aimed at the origin.
func NewSpotLight() *SpotLight {
	return &SpotLight{
		Position:  mgl64.Vec3{0, 1, 0},
		Color:     mgl64.Vec3{1, 1, 1},
		Intensity: 1,
		Angle:     math.Pi / 3,
	}
}

func (*SpotLight) isNode() {}

// Direction returns the unit vector from the point p toward the light.
func (l *SpotLight) Direction(p mgl64.Vec3) mgl64.Vec3 {
	return normalize(l.Position.Sub(p))
}

// Attenuation returns the cone factor in [0,1] for the point p.
func (l *SpotLight) Attenuation(p mgl64.Vec3) float64 {
	axis := normalize(l.Target.Sub(l.Position))
	toPoint := normalize(p.Sub(l.Position))
	cosTheta := axis.Dot(toPoint)

	cosOuter := math.Cos(l.Angle)
	cosInner := math.Cos(l.Angle * (1 - l.Penumbra))
	if cosTheta <= cosOuter {
		return 0
	}
	if cosTheta >= cosInner || cosInner == cosOuter {
		return 1
	}
	return smoothstep(cosOuter, cosInner, cosTheta)
}

// Radiance returns the light color scaled by intensity and cone attenuation.
func (l *SpotLight) Radiance(p mgl64.Vec3) mgl64.Vec3 {
	return l.Color.Mul(l.Intensity * l.Attenuation(p))
}

func smoothstep(lo, hi, x float64) float64 {
	t := math.Max(0, math.Min(1, (x-lo)/(hi-lo)))
	return t * t * (3 - 2*t)
}

func normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}
