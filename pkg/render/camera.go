package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera.
//
// Projection parameters take effect only after UpdateProjectionMatrix, so
// callers can change several of them and pay for one rebuild.
type Camera struct {
	FOV    float64 // Vertical field of view in degrees
	Aspect float64 // Width / Height
	Near   float64 // Near clipping plane
	Far    float64 // Far clipping plane

	Position mgl64.Vec3
	Up       mgl64.Vec3
	Target   mgl64.Vec3 // Last point passed to LookAt

	// Orthonormal basis; z points from the target back toward the camera.
	x, y, z mgl64.Vec3

	projMatrix mgl64.Mat4
}

// NewPerspectiveCamera creates a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far float64) *Camera {
	c := &Camera{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     mgl64.Vec3{0, 1, 0},
		x:      mgl64.Vec3{1, 0, 0},
		y:      mgl64.Vec3{0, 1, 0},
		z:      mgl64.Vec3{0, 0, 1},
	}
	c.UpdateProjectionMatrix()
	return c
}

// SetPosition moves the camera without changing its orientation.
func (c *Camera) SetPosition(p mgl64.Vec3) {
	c.Position = p
}

// UpdateProjectionMatrix rebuilds the projection from FOV, Aspect, Near and Far.
func (c *Camera) UpdateProjectionMatrix() {
	c.projMatrix = mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ProjectionMatrix returns the projection as of the last UpdateProjectionMatrix.
func (c *Camera) ProjectionMatrix() mgl64.Mat4 {
	return c.projMatrix
}

// LookAt turns the camera toward target.
// When the view direction is parallel to Up the direction is nudged so the
// basis stays well defined.
func (c *Camera) LookAt(target mgl64.Vec3) {
	c.Target = target
	z := c.Position.Sub(target)
	if z.Len() == 0 {
		z[2] = 1
	}
	z = z.Normalize()

	x := c.Up.Cross(z)
	if x.Len() == 0 {
		if math.Abs(c.Up[2]) == 1 {
			z[0] += 0.0001
		} else {
			z[2] += 0.0001
		}
		z = z.Normalize()
		x = c.Up.Cross(z)
	}
	x = x.Normalize()

	c.x, c.y, c.z = x, z.Cross(x), z
}

// Forward returns the unit view direction.
func (c *Camera) Forward() mgl64.Vec3 {
	return c.z.Mul(-1)
}

// Right returns the camera's unit right vector.
func (c *Camera) Right() mgl64.Vec3 {
	return c.x
}

// CameraUp returns the camera's unit up vector (not the Up hint).
func (c *Camera) CameraUp() mgl64.Vec3 {
	return c.y
}

// ViewMatrix returns the world-to-camera transform.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	x, y, z, e := c.x, c.y, c.z, c.Position
	return mgl64.Mat4{
		x[0], y[0], z[0], 0,
		x[1], y[1], z[1], 0,
		x[2], y[2], z[2], 0,
		-x.Dot(e), -y.Dot(e), -z.Dot(e), 1,
	}
}

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() mgl64.Mat4 {
	return c.projMatrix.Mul4(c.ViewMatrix())
}

// Frustum returns the current view frustum.
func (c *Camera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjection())
}

// Project transforms a world point to screen coordinates.
// Returns (screenX, screenY, depth, visible).
func (c *Camera) Project(p mgl64.Vec3, width, height int) (x, y, depth float64, visible bool) {
	clip := c.ViewProjection().Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, 0, false
	}

	ndc := clip.Vec3().Mul(1 / clip[3])
	if ndc[0] < -1 || ndc[0] > 1 || ndc[1] < -1 || ndc[1] > 1 || ndc[2] < -1 || ndc[2] > 1 {
		return 0, 0, 0, false
	}

	x = (ndc[0] + 1) * 0.5 * float64(width)
	y = (1 - ndc[1]) * 0.5 * float64(height) // Y is flipped
	return x, y, ndc[2], true
}
