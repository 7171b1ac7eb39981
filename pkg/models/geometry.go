// Package models provides mesh geometry and the decoders that produce it.
package models

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Geometry is a triangle surface without material information.
type Geometry struct {
	Name     string
	Vertices []Vertex
	Faces    [][3]int // Indices into Vertices

	// Bounding box (calculated on load)
	BoundsMin mgl64.Vec3
	BoundsMax mgl64.Vec3
}

// Vertex holds the attributes the rasterizer consumes.
type Vertex struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
}

// NewGeometry creates an empty geometry.
func NewGeometry(name string) *Geometry {
	return &Geometry{
		Name:     name,
		Vertices: make([]Vertex, 0),
		Faces:    make([][3]int, 0),
	}
}

// AddTriangle appends a triangle with its own three vertices.
// A zero normal is replaced by the geometric face normal.
func (g *Geometry) AddTriangle(a, b, c, normal mgl64.Vec3) {
	if normal.Len() < 1e-12 {
		normal = faceNormal(a, b, c)
	}
	base := len(g.Vertices)
	g.Vertices = append(g.Vertices,
		Vertex{Position: a, Normal: normal},
		Vertex{Position: b, Normal: normal},
		Vertex{Position: c, Normal: normal},
	)
	g.Faces = append(g.Faces, [3]int{base, base + 1, base + 2})
}

// CalculateBounds computes the axis-aligned bounding box.
func (g *Geometry) CalculateBounds() {
	if len(g.Vertices) == 0 {
		g.BoundsMin, g.BoundsMax = mgl64.Vec3{}, mgl64.Vec3{}
		return
	}

	g.BoundsMin = g.Vertices[0].Position
	g.BoundsMax = g.Vertices[0].Position

	for _, v := range g.Vertices[1:] {
		for i := range 3 {
			g.BoundsMin[i] = math.Min(g.BoundsMin[i], v.Position[i])
			g.BoundsMax[i] = math.Max(g.BoundsMax[i], v.Position[i])
		}
	}
}

// Center returns the center of the bounding box.
func (g *Geometry) Center() mgl64.Vec3 {
	return g.BoundsMin.Add(g.BoundsMax).Mul(0.5)
}

// Size returns the dimensions of the bounding box.
func (g *Geometry) Size() mgl64.Vec3 {
	return g.BoundsMax.Sub(g.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (g *Geometry) TriangleCount() int {
	return len(g.Faces)
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Vertices)
}

// CalculateFlatNormals assigns every vertex the normal of the last face using it.
func (g *Geometry) CalculateFlatNormals() {
	for _, f := range g.Faces {
		n := faceNormal(g.Vertices[f[0]].Position, g.Vertices[f[1]].Position, g.Vertices[f[2]].Position)
		g.Vertices[f[0]].Normal = n
		g.Vertices[f[1]].Normal = n
		g.Vertices[f[2]].Normal = n
	}
}

// CalculateSmoothNormals averages area-weighted face normals per vertex.
func (g *Geometry) CalculateSmoothNormals() {
	for i := range g.Vertices {
		g.Vertices[i].Normal = mgl64.Vec3{}
	}

	for _, f := range g.Faces {
		v0 := g.Vertices[f[0]].Position
		v1 := g.Vertices[f[1]].Position
		v2 := g.Vertices[f[2]].Position

		// Unnormalized, so larger faces weigh more
		n := v1.Sub(v0).Cross(v2.Sub(v0))

		g.Vertices[f[0]].Normal = g.Vertices[f[0]].Normal.Add(n)
		g.Vertices[f[1]].Normal = g.Vertices[f[1]].Normal.Add(n)
		g.Vertices[f[2]].Normal = g.Vertices[f[2]].Normal.Add(n)
	}

	for i := range g.Vertices {
		g.Vertices[i].Normal = normalize(g.Vertices[i].Normal)
	}
}

// HasNormals reports whether any vertex carries a usable normal.
func (g *Geometry) HasNormals() bool {
	for _, v := range g.Vertices {
		if v.Normal.Len() > 0.001 {
			return true
		}
	}
	return false
}

// GetVertex returns the position and normal for vertex i.
// Implements render.Mesh.
func (g *Geometry) GetVertex(i int) (pos, normal mgl64.Vec3) {
	v := g.Vertices[i]
	return v.Position, v.Normal
}

// GetFace returns the vertex indices for face i.
// Implements render.Mesh.
func (g *Geometry) GetFace(i int) [3]int {
	return g.Faces[i]
}

// GetBounds returns the axis-aligned bounding box.
func (g *Geometry) GetBounds() (lo, hi mgl64.Vec3) {
	return g.BoundsMin, g.BoundsMax
}

func faceNormal(a, b, c mgl64.Vec3) mgl64.Vec3 {
	return normalize(b.Sub(a).Cross(c.Sub(a)))
}

func normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}
