package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane is Ax + By + Cz + D = 0 with (A, B, C) = Normal.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

// Normalize scales the plane so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Mul(1 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = in front (same side as normal), negative = behind.
func (p Plane) DistanceToPoint(point mgl64.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum holds six inward-facing planes: Left, Right, Bottom, Top, Near, Far.
type Frustum struct {
	Planes [6]Plane
}

const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustumFromMatrix extracts frustum planes from a view-projection matrix
// (Gribb/Hartmann). For the column-major m, row i element j is m[i+j*4].
func NewFrustumFromMatrix(m mgl64.Mat4) Frustum {
	row := func(i int) (float64, float64, float64, float64) {
		return m[i], m[i+4], m[i+8], m[i+12]
	}
	r0x, r0y, r0z, r0w := row(0)
	r1x, r1y, r1z, r1w := row(1)
	r2x, r2y, r2z, r2w := row(2)
	r3x, r3y, r3z, r3w := row(3)

	var f Frustum
	f.Planes[FrustumLeft] = Plane{mgl64.Vec3{r3x + r0x, r3y + r0y, r3z + r0z}, r3w + r0w}
	f.Planes[FrustumRight] = Plane{mgl64.Vec3{r3x - r0x, r3y - r0y, r3z - r0z}, r3w - r0w}
	f.Planes[FrustumBottom] = Plane{mgl64.Vec3{r3x + r1x, r3y + r1y, r3z + r1z}, r3w + r1w}
	f.Planes[FrustumTop] = Plane{mgl64.Vec3{r3x - r1x, r3y - r1y, r3z - r1z}, r3w - r1w}
	f.Planes[FrustumNear] = Plane{mgl64.Vec3{r3x + r2x, r3y + r2y, r3z + r2z}, r3w + r2w}
	f.Planes[FrustumFar] = Plane{mgl64.Vec3{r3x - r2x, r3y - r2y, r3z - r2z}, r3w - r2w}

	for i := range f.Planes {
		f.Planes[i].Normalize()
	}
	return f
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Transform returns the box bounding all eight corners after m.
func (b AABB) Transform(m mgl64.Mat4) AABB {
	var out AABB
	for i := range 8 {
		corner := mgl64.Vec3{
			pick(i&1 != 0, b.Max[0], b.Min[0]),
			pick(i&2 != 0, b.Max[1], b.Min[1]),
			pick(i&4 != 0, b.Max[2], b.Min[2]),
		}
		p := mgl64.TransformCoordinate(corner, m)
		if i == 0 {
			out = AABB{Min: p, Max: p}
			continue
		}
		for k := range 3 {
			out.Min[k] = math.Min(out.Min[k], p[k])
			out.Max[k] = math.Max(out.Max[k], p[k])
		}
	}
	return out
}

// IntersectAABB reports whether any part of box may be inside the frustum.
// Uses the positive-vertex test, so it can report false positives near corners.
func (f Frustum) IntersectAABB(box AABB) bool {
	for _, plane := range f.Planes {
		p := mgl64.Vec3{
			pick(plane.Normal[0] >= 0, box.Max[0], box.Min[0]),
			pick(plane.Normal[1] >= 0, box.Max[1], box.Min[1]),
			pick(plane.Normal[2] >= 0, box.Max[2], box.Min[2]),
		}
		if plane.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint tests if a point is inside the frustum.
func (f Frustum) ContainsPoint(p mgl64.Vec3) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
