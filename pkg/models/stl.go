package models

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hschendel/stl"
)

// DecodeSTL reads a binary or ASCII STL stream.
// Facet normals stored in the file are kept; zero normals are recomputed
// from the winding.
//
// The decoder needs to seek, so r is read to the end first.
func DecodeSTL(r io.Reader, name string) (*Geometry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stl: %w", err)
	}
	solid, err := stl.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode stl: %w", err)
	}

	geo := NewGeometry(name)
	for _, t := range solid.Triangles {
		geo.AddTriangle(
			vec3(t.Vertices[0]),
			vec3(t.Vertices[1]),
			vec3(t.Vertices[2]),
			vec3(t.Normal),
		)
	}
	geo.CalculateBounds()

	return geo, nil
}

func vec3(v stl.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}
