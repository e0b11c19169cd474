// Package mesh describes the triangle meshes a cloth is built from and
// extracts their spring topology.
package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Triangle names three vertex indices, wound consistently across the mesh.
type Triangle struct {
	V1, V2, V3 int
}

// SewingLine is a logical seam between two vertices that do not share a
// triangle edge.
type SewingLine struct {
	V1, V2 int
}

// Mesh is read once when a cloth is constructed. After that the cloth
// particles hold the authoritative positions.
type Mesh struct {
	Vertices    []mgl64.Vec3
	Triangles   []Triangle
	SewingLines []SewingLine
}

// Validate checks that every index is in range and that no triangle or
// sewing line repeats a vertex.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	inRange := func(v int) bool { return v >= 0 && v < n }

	for i, t := range m.Triangles {
		if !inRange(t.V1) || !inRange(t.V2) || !inRange(t.V3) {
			return fmt.Errorf("triangle %d (%d, %d, %d): vertex index out of range [0, %d)", i, t.V1, t.V2, t.V3, n)
		}
		if t.V1 == t.V2 || t.V2 == t.V3 || t.V3 == t.V1 {
			return fmt.Errorf("triangle %d (%d, %d, %d): repeated vertex", i, t.V1, t.V2, t.V3)
		}
	}

	for i, s := range m.SewingLines {
		if !inRange(s.V1) || !inRange(s.V2) {
			return fmt.Errorf("sewing line %d (%d, %d): vertex index out of range [0, %d)", i, s.V1, s.V2, n)
		}
		if s.V1 == s.V2 {
			return fmt.Errorf("sewing line %d (%d, %d): repeated vertex", i, s.V1, s.V2)
		}
	}

	return nil
}

// TriangleArea returns the area of triangle i.
func (m *Mesh) TriangleArea(i int) float64 {
	t := m.Triangles[i]
	return Area(m.Vertices[t.V1], m.Vertices[t.V2], m.Vertices[t.V3])
}

// SurfaceArea returns the summed area of every triangle.
func (m *Mesh) SurfaceArea() float64 {
	var area float64
	for i := range m.Triangles {
		area += m.TriangleArea(i)
	}
	return area
}

// Area returns the area of the triangle (a, b, c).
func Area(a, b, c mgl64.Vec3) float64 {
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Len()
}

// NewGrid builds a width x height quad grid in the XZ plane, two triangles
// per cell, wound consistently so every interior edge is shared in opposite
// directions. Vertex (i, j) has index j*(width+1) + i.
func NewGrid(width, height int, spacing float64, origin mgl64.Vec3) *Mesh {
	if width < 1 || height < 1 {
		panic(fmt.Sprintf("mesh: grid needs at least one cell, got %dx%d", width, height))
	}

	m := &Mesh{
		Vertices:  make([]mgl64.Vec3, 0, (width+1)*(height+1)),
		Triangles: make([]Triangle, 0, 2*width*height),
	}

	for j := 0; j <= height; j++ {
		for i := 0; i <= width; i++ {
			m.Vertices = append(m.Vertices, origin.Add(mgl64.Vec3{float64(i) * spacing, 0, float64(j) * spacing}))
		}
	}

	index := func(i, j int) int { return j*(width+1) + i }

	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			v00 := index(i, j)
			v10 := index(i+1, j)
			v11 := index(i+1, j+1)
			v01 := index(i, j+1)

			m.Triangles = append(m.Triangles,
				Triangle{V1: v00, V2: v10, V3: v11},
				Triangle{V1: v00, V2: v11, V3: v01},
			)
		}
	}

	return m
}
