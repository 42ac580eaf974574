// Package geometry holds the triangle mesh buffer shared by the terrain
// generators and the scatter kernels, plus the per-triangle helpers they use.
package geometry

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned by Validate for inconsistent buffers.
var ErrMalformed = errors.New("malformed mesh buffer")

// MeshBuffer is an indexed triangle mesh. Positions and Normals hold three
// floats per vertex. Indices hold three vertex indices per triangle, and
// Areas, when present, holds one world-space area per triangle.
type MeshBuffer struct {
	Positions []float32
	Normals   []float32
	Indices   []uint32
	Areas     []float32
}

// NewMeshBuffer allocates a buffer sized for vertexCount vertices and
// triangleCount triangles.
func NewMeshBuffer(vertexCount, triangleCount int) *MeshBuffer {
	return &MeshBuffer{
		Positions: make([]float32, 0, vertexCount*3),
		Normals:   make([]float32, 0, vertexCount*3),
		Indices:   make([]uint32, 0, triangleCount*3),
		Areas:     make([]float32, 0, triangleCount),
	}
}

// VertexCount returns the number of vertices.
func (m *MeshBuffer) VertexCount() int { return len(m.Positions) / 3 }

// TriangleCount returns the number of triangles.
func (m *MeshBuffer) TriangleCount() int { return len(m.Indices) / 3 }

// TotalArea sums the per-triangle areas.
func (m *MeshBuffer) TotalArea() float64 {
	var sum float64
	for _, a := range m.Areas {
		sum += float64(a)
	}
	return sum
}

// Validate checks buffer lengths and index bounds.
func (m *MeshBuffer) Validate() error {
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("%w: %d position floats", ErrMalformed, len(m.Positions))
	}
	if len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: %d normals for %d positions", ErrMalformed, len(m.Normals), len(m.Positions))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrMalformed, len(m.Indices))
	}
	if len(m.Areas) != 0 && len(m.Areas) != m.TriangleCount() {
		return fmt.Errorf("%w: %d areas for %d triangles", ErrMalformed, len(m.Areas), m.TriangleCount())
	}
	n := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("%w: index %d at %d out of range [0,%d)", ErrMalformed, idx, i, n)
		}
	}
	return nil
}
