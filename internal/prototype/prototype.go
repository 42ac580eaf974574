// Package prototype builds the small procedural meshes that scatter patches
// instantiate.
package prototype

import (
	"github.com/Faultbox/verdant/internal/geometry"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

// GrassBlade returns a unit-height blade made of stacks rows of two vertices
// that taper to a single tip vertex. It faces +Z. stacks below one is raised
// to one.
func GrassBlade(stacks int) *geometry.MeshBuffer {
	stacks = max(stacks, 1)
	mesh := geometry.NewMeshBuffer(2*stacks+1, 2*(stacks-1)+1)
	step := 1 / float32(stacks)

	for i := 0; i < stacks; i++ {
		half := 0.05 + 0.05*float32(stacks-i)*step
		y := float32(i) * step
		mesh.Positions = append(mesh.Positions, -half, y, 0, half, y, 0)
		mesh.Normals = append(mesh.Normals, 0, 0, 1, 0, 0, 1)
		if i == 0 {
			continue
		}
		lo, hi := uint32(2*(i-1)), uint32(2*i)
		mesh.Indices = append(mesh.Indices,
			lo, lo+1, hi,
			hi, lo+1, hi+1,
		)
	}

	mesh.Positions = append(mesh.Positions, 0, 1, 0)
	mesh.Normals = append(mesh.Normals, 0, 0, 1)
	top := uint32(2 * (stacks - 1))
	mesh.Indices = append(mesh.Indices, top, top+1, uint32(2*stacks))
	return mesh
}

// Butterfly returns two unit quads side by side on the XZ plane, facing +Y.
//
//	0--1
//	| /|
//	2--3
//	| /|
//	4--5
func Butterfly() *geometry.MeshBuffer {
	return &geometry.MeshBuffer{
		Positions: []float32{
			0, 0, -1, 1, 0, -1,
			0, 0, 0, 1, 0, 0,
			0, 0, 1, 1, 0, 1,
		},
		Normals: []float32{
			0, 1, 0, 0, 1, 0,
			0, 1, 0, 0, 1, 0,
			0, 1, 0, 0, 1, 0,
		},
		Indices: []uint32{
			0, 2, 1,
			1, 2, 3,
			2, 4, 3,
			3, 4, 5,
		},
	}
}

// Crate returns an axis-aligned cube of edge size resting on y = 0, with flat
// shaded faces.
func Crate(size float32) *geometry.MeshBuffer {
	h := size / 2
	type face struct {
		normal, u, v vmath.Vec3
	}
	faces := [...]face{
		{vmath.UnitX, vmath.Vec3{Z: -1}, vmath.UnitY},
		{vmath.Vec3{X: -1}, vmath.UnitZ, vmath.UnitY},
		{vmath.UnitY, vmath.UnitX, vmath.Vec3{Z: -1}},
		{vmath.Vec3{Y: -1}, vmath.UnitX, vmath.UnitZ},
		{vmath.UnitZ, vmath.UnitX, vmath.UnitY},
		{vmath.Vec3{Z: -1}, vmath.Vec3{X: -1}, vmath.UnitY},
	}

	mesh := geometry.NewMeshBuffer(24, 12)
	center := vmath.Vec3{Y: h}
	for fi, f := range faces {
		c := center.Add(f.normal.Scale(h))
		for _, s := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := c.Add(f.u.Scale(s[0] * h)).Add(f.v.Scale(s[1] * h))
			mesh.Positions = append(mesh.Positions, p.X, p.Y, p.Z)
			mesh.Normals = append(mesh.Normals, f.normal.X, f.normal.Y, f.normal.Z)
		}
		b := uint32(fi * 4)
		mesh.Indices = append(mesh.Indices, b, b+1, b+2, b, b+2, b+3)
	}
	return mesh
}
