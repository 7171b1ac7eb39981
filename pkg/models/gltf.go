package models

import (
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// DecodeGLB reads a binary glTF stream with embedded buffers.
// Only triangle primitives are kept; materials and textures are ignored
// because the viewer supplies its own material.
func DecodeGLB(r io.Reader, name string) (*Geometry, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode glb: %w", err)
	}

	geo := NewGeometry(name)
	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if err := appendPrimitive(doc, prim, geo); err != nil {
				return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
			}
		}
	}

	if geo.TriangleCount() == 0 {
		return nil, fmt.Errorf("decode glb: no triangle primitives")
	}

	if !geo.HasNormals() {
		geo.CalculateSmoothNormals()
	}
	geo.CalculateBounds()

	return geo, nil
}

func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, geo *Geometry) error {
	if prim.Mode != gltf.PrimitiveTriangles {
		// Lines and points carry no surface
		return nil
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err = modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
		if err != nil {
			return fmt.Errorf("read normals: %w", err)
		}
	}

	base := len(geo.Vertices)
	for i, p := range positions {
		v := Vertex{Position: mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}}
		if i < len(normals) {
			n := normals[i]
			v.Normal = mgl64.Vec3{float64(n[0]), float64(n[1]), float64(n[2])}
		}
		geo.Vertices = append(geo.Vertices, v)
	}

	if prim.Indices == nil {
		for i := 0; i+2 < len(positions); i += 3 {
			geo.Faces = append(geo.Faces, [3]int{base + i, base + i + 1, base + i + 2})
		}
		return nil
	}

	indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
	if err != nil {
		return fmt.Errorf("read indices: %w", err)
	}
	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return fmt.Errorf("read indices: index %d out of range for %d vertices", idx, len(positions))
		}
	}
	for i := 0; i+2 < len(indices); i += 3 {
		geo.Faces = append(geo.Faces, [3]int{
			base + int(indices[i]),
			base + int(indices[i+1]),
			base + int(indices[i+2]),
		})
	}
	return nil
}
