package terrain

import (
	"fmt"

	"github.com/Faultbox/verdant/internal/geometry"
)

// TriangleFunc receives each triangle as soon as it is emitted, together with
// its area. Returning an error aborts the tessellation.
type TriangleFunc func(mesh *geometry.MeshBuffer, i1, i2, i3 uint32, area float32) error

// Tessellate builds the grid mesh of surface and streams every triangle to
// visit in the same pass. visit may be nil.
//
// Vertex (x, y) has index x*N+y. Each cell contributes two triangles that
// share the (x-1,y-1)-(x,y) diagonal, wound counter-clockwise when seen from
// the outward normal.
func Tessellate(grid Grid, surface Surface, visit TriangleFunc) (*geometry.MeshBuffer, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if err := surface.Validate(); err != nil {
		return nil, err
	}

	n := grid.Resolution
	mesh := geometry.NewMeshBuffer(grid.VertexCount(), grid.TriangleCount())
	emit := func(i1, i2, i3 uint32) error {
		area := geometry.TriangleAreaAt(mesh.Positions, i1, i2, i3)
		mesh.Indices = append(mesh.Indices, i1, i2, i3)
		mesh.Areas = append(mesh.Areas, area)
		if visit == nil {
			return nil
		}
		return visit(mesh, i1, i2, i3, area)
	}

	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			u, v := grid.Local(x, y)
			pos, normal := surface.Vertex(u, v)
			mesh.Positions = append(mesh.Positions, pos.X, pos.Y, pos.Z)
			mesh.Normals = append(mesh.Normals, normal.X, normal.Y, normal.Z)

			if x == 0 || y == 0 {
				continue
			}
			for _, tri := range CellTriangles(n, x, y) {
				if err := emit(tri[0], tri[1], tri[2]); err != nil {
					return nil, fmt.Errorf("cell (%d,%d): %w", x, y, err)
				}
			}
		}
	}
	return mesh, nil
}

// CellTriangles returns the two triangles of cell (x, y), x,y >= 1, in the
// order Tessellate emits them.
func CellTriangles(n, x, y int) [2][3]uint32 {
	i := uint32(x*n + y)
	nn := uint32(n)
	return [2][3]uint32{
		{i - 1, i - nn - 1, i},
		{i, i - nn - 1, i - nn},
	}
}
