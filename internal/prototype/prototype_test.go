package prototype

import (
	"testing"

	"github.com/Faultbox/verdant/internal/geometry"
)

func checkWinding(t *testing.T, name string, mesh *geometry.MeshBuffer) {
	t.Helper()
	if err := mesh.Validate(); err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	for tri := 0; tri < mesh.TriangleCount(); tri++ {
		i1, i2, i3 := mesh.Indices[3*tri], mesh.Indices[3*tri+1], mesh.Indices[3*tri+2]
		a := geometry.Vertex(mesh.Positions, i1)
		face := geometry.Vertex(mesh.Positions, i2).Sub(a).Cross(geometry.Vertex(mesh.Positions, i3).Sub(a))
		if face.Dot(geometry.Vertex(mesh.Normals, i1)) <= 0 {
			t.Errorf("%s: triangle %d winds against its normal", name, tri)
		}
	}
}

func TestGrassBlade(t *testing.T) {
	for _, stacks := range []int{1, 2, 4, 8} {
		mesh := GrassBlade(stacks)
		if got, want := mesh.VertexCount(), 2*stacks+1; got != want {
			t.Errorf("stacks=%d: %d vertices, want %d", stacks, got, want)
		}
		if got, want := mesh.TriangleCount(), 2*(stacks-1)+1; got != want {
			t.Errorf("stacks=%d: %d triangles, want %d", stacks, got, want)
		}
		checkWinding(t, "grass", mesh)
		tip := geometry.Vertex(mesh.Positions, uint32(2*stacks))
		if tip.Y != 1 || tip.X != 0 {
			t.Errorf("stacks=%d: tip at %v", stacks, tip)
		}
	}
}

func TestButterfly(t *testing.T) {
	mesh := Butterfly()
	if mesh.VertexCount() != 6 || mesh.TriangleCount() != 4 {
		t.Errorf("butterfly has %d vertices, %d triangles", mesh.VertexCount(), mesh.TriangleCount())
	}
	checkWinding(t, "butterfly", mesh)
}

func TestCrate(t *testing.T) {
	mesh := Crate(2)
	if mesh.VertexCount() != 24 || mesh.TriangleCount() != 12 {
		t.Errorf("crate has %d vertices, %d triangles", mesh.VertexCount(), mesh.TriangleCount())
	}
	checkWinding(t, "crate", mesh)
	for i := 0; i < mesh.VertexCount(); i++ {
		p := geometry.Vertex(mesh.Positions, uint32(i))
		if p.Y < 0 || p.Y > 2 || p.X < -1 || p.X > 1 {
			t.Fatalf("vertex %d at %v outside the crate", i, p)
		}
	}
}
