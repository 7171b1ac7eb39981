// Package scene holds the scene graph the viewer renders: helpers, lights,
// meshes, the physical material and the environment cube map.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Node is anything that can be added to a Scene.
type Node interface {
	isNode()
}

// Geometry is the triangle data a Mesh draws.
// *models.Geometry implements it.
type Geometry interface {
	TriangleCount() int
	GetFace(i int) [3]int
	GetVertex(i int) (pos, normal mgl64.Vec3)
	GetBounds() (lo, hi mgl64.Vec3)
}

// Scene is an ordered list of nodes. It is not safe for concurrent use;
// the viewer mutates it only from its render goroutine.
type Scene struct {
	nodes []Node
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// Add appends nodes in order.
func (s *Scene) Add(nodes ...Node) {
	s.nodes = append(s.nodes, nodes...)
}

// Nodes returns all nodes in insertion order.
func (s *Scene) Nodes() []Node {
	return s.nodes
}

// Meshes returns the mesh nodes.
func (s *Scene) Meshes() []*Mesh {
	return collect[*Mesh](s.nodes)
}

// Lights returns the spot lights.
func (s *Scene) Lights() []*SpotLight {
	return collect[*SpotLight](s.nodes)
}

// Helpers returns the axes helpers.
func (s *Scene) Helpers() []*AxesHelper {
	return collect[*AxesHelper](s.nodes)
}

func collect[T Node](nodes []Node) []T {
	var out []T
	for _, n := range nodes {
		if t, ok := n.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// Mesh pairs a geometry with a material.
type Mesh struct {
	Geometry Geometry
	Material *PhysicalMaterial
	Matrix   mgl64.Mat4 // Model transform
}

// NewMesh creates a mesh with an identity transform.
func NewMesh(geo Geometry, mat *PhysicalMaterial) *Mesh {
	return &Mesh{
		Geometry: geo,
		Material: mat,
		Matrix:   mgl64.Ident4(),
	}
}

func (*Mesh) isNode() {}

// AxesHelper draws the X (red), Y (green) and Z (blue) axes from the origin.
type AxesHelper struct {
	Size float64
}

// NewAxesHelper creates an axes helper with the given axis length.
func NewAxesHelper(size float64) *AxesHelper {
	return &AxesHelper{Size: size}
}

// Segment is a colored line in world space. Colors are linear RGB.
type Segment struct {
	From, To mgl64.Vec3
	Color    mgl64.Vec3
}

// Segments returns the three axis lines.
func (a *AxesHelper) Segments() [3]Segment {
	o := mgl64.Vec3{}
	return [3]Segment{
		{From: o, To: mgl64.Vec3{a.Size, 0, 0}, Color: mgl64.Vec3{1, 0, 0}},
		{From: o, To: mgl64.Vec3{0, a.Size, 0}, Color: mgl64.Vec3{0, 1, 0}},
		{From: o, To: mgl64.Vec3{0, 0, a.Size}, Color: mgl64.Vec3{0, 0, 1}},
	}
}

func (*AxesHelper) isNode() {}
