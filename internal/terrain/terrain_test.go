package terrain

import (
	"errors"
	"math"
	"testing"

	"github.com/Faultbox/verdant/internal/geometry"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

func TestTessellateIndices(t *testing.T) {
	for _, n := range []int{2, 3, 10, 16, 33} {
		mesh, err := Tessellate(Grid{Resolution: n, Size: 10}, FlatSurface{Field: Flat{}}, nil)
		if err != nil {
			t.Fatalf("N=%d: %v", n, err)
		}
		if want := 6 * (n - 1) * (n - 1); len(mesh.Indices) != want {
			t.Errorf("N=%d: %d indices, want %d", n, len(mesh.Indices), want)
		}
		if mesh.VertexCount() != n*n {
			t.Errorf("N=%d: %d vertices, want %d", n, mesh.VertexCount(), n*n)
		}
		for _, idx := range mesh.Indices {
			if int(idx) >= n*n {
				t.Fatalf("N=%d: index %d out of range", n, idx)
			}
		}
		if err := mesh.Validate(); err != nil {
			t.Errorf("N=%d: Validate() = %v", n, err)
		}
	}
}

func TestTessellateFlatArea(t *testing.T) {
	mesh, err := Tessellate(Grid{Resolution: 11, Size: 10}, FlatSurface{Field: Flat{}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := mesh.TotalArea(); math.Abs(got-100) > 1e-3 {
		t.Errorf("TotalArea() = %v, want 100", got)
	}
}

func TestTessellateFlatLayout(t *testing.T) {
	mesh, err := Tessellate(Grid{Resolution: 3, Size: 4}, FlatSurface{Field: Flat{}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// x outer, y inner: vertex 1 is (x=0, y=1)
	got := geometry.Vertex(mesh.Positions, 1)
	if want := (vmath.Vec3{X: -2, Y: 0, Z: 0}); got != want {
		t.Errorf("vertex 1 = %v, want %v", got, want)
	}
	if got := geometry.Vertex(mesh.Positions, 8); got != (vmath.Vec3{X: 2, Z: 2}) {
		t.Errorf("vertex 8 = %v, want (2,0,2)", got)
	}
}

// windingAgrees checks that every face normal points the same way as the
// averaged vertex normals.
func windingAgrees(t *testing.T, mesh *geometry.MeshBuffer) {
	t.Helper()
	for tri := 0; tri < mesh.TriangleCount(); tri++ {
		i1, i2, i3 := mesh.Indices[3*tri], mesh.Indices[3*tri+1], mesh.Indices[3*tri+2]
		a := geometry.Vertex(mesh.Positions, i1)
		b := geometry.Vertex(mesh.Positions, i2)
		c := geometry.Vertex(mesh.Positions, i3)
		face := b.Sub(a).Cross(c.Sub(a))
		avg := geometry.Vertex(mesh.Normals, i1).
			Add(geometry.Vertex(mesh.Normals, i2)).
			Add(geometry.Vertex(mesh.Normals, i3))
		if face.Dot(avg) <= 0 {
			t.Fatalf("triangle %d winds against its normal: face %v, normal %v", tri, face, avg)
		}
	}
}

func TestTessellateWinding(t *testing.T) {
	flat, err := Tessellate(Grid{Resolution: 8, Size: 20},
		FlatSurface{Field: Waves{Amplitude: 0.5, Frequency: 0.3}, Position: vmath.Vec3{X: 40, Z: -20}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	windingAgrees(t, flat)

	for _, face := range Faces {
		s := CubeFaceSurface{Field: SphereWaves{Amplitude: 0.1, Frequency: 3}, Face: face, Radius: 10}
		mesh, err := Tessellate(s.Grid(9), s, nil)
		if err != nil {
			t.Fatalf("%v: %v", face, err)
		}
		windingAgrees(t, mesh)
	}
}

func TestFlatNormal(t *testing.T) {
	field := Field2DFunc(func(x, z float32) (float32, float32, float32) { return x, 1, 0 })
	_, n := FlatSurface{Field: field}.Vertex(0, 0)
	want := vmath.Vec3{X: -1, Y: 1}.Normalize()
	if !n.ApproxEqual(want, 1e-6) {
		t.Errorf("normal = %v, want %v", n, want)
	}
}

func TestChunkedFlatContinuity(t *testing.T) {
	field := Waves{Amplitude: 2, Frequency: 0.17}
	grid := Grid{Resolution: 5, Size: 20}
	left, err := Tessellate(grid, FlatSurface{Field: field, Position: vmath.Vec3{}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	right, err := Tessellate(grid, FlatSurface{Field: field, Position: vmath.Vec3{X: 20}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// last column of the left chunk is the first column of the right one
	n := grid.Resolution
	for y := 0; y < n; y++ {
		a := geometry.Vertex(left.Positions, uint32((n-1)*n+y))
		b := geometry.Vertex(right.Positions, uint32(y))
		if math.Abs(float64(a.Y-b.Y)) > 1e-5 {
			t.Errorf("row %d: heights %v and %v differ across the border", y, a.Y, b.Y)
		}
	}
}

func TestCubeFaceRadius(t *testing.T) {
	const radius = 10
	for _, face := range Faces {
		s := CubeFaceSurface{Field: FlatSphere{}, Face: face, Radius: radius}
		mesh, err := Tessellate(s.Grid(16), s, nil)
		if err != nil {
			t.Fatalf("%v: %v", face, err)
		}
		origin := s.Origin()
		for i := 0; i < mesh.VertexCount(); i++ {
			p := geometry.Vertex(mesh.Positions, uint32(i)).Add(origin)
			if d := p.Length(); math.Abs(float64(d-radius)) > 1e-4 {
				t.Fatalf("%v vertex %d at distance %v, want %v", face, i, d, radius)
			}
			n := geometry.Vertex(mesh.Normals, uint32(i))
			if !n.ApproxEqual(p.Normalize(), 1e-5) {
				t.Fatalf("%v vertex %d normal %v is not radial", face, i, n)
			}
		}
	}
}

func TestFaceAxes(t *testing.T) {
	want := map[Face]vmath.Vec3{
		Front:  {Z: -1},
		Back:   {Z: 1},
		Left:   {X: -1},
		Right:  {X: 1},
		Top:    {Y: 1},
		Bottom: {Y: -1},
	}
	for face, axis := range want {
		if got := face.Axis(); !got.ApproxEqual(axis, 1e-6) {
			t.Errorf("%v.Axis() = %v, want %v", face, got, axis)
		}
	}
}

func TestTessellateVisitor(t *testing.T) {
	var calls int
	var area float64
	visit := func(mesh *geometry.MeshBuffer, i1, i2, i3 uint32, a float32) error {
		// every index is already backed by a vertex
		if max(i1, i2, i3) >= uint32(mesh.VertexCount()) {
			t.Fatalf("triangle references unwritten vertex")
		}
		calls++
		area += float64(a)
		return nil
	}
	mesh, err := Tessellate(Grid{Resolution: 6, Size: 5}, FlatSurface{Field: Flat{}}, visit)
	if err != nil {
		t.Fatal(err)
	}
	if calls != mesh.TriangleCount() {
		t.Errorf("visitor called %d times, want %d", calls, mesh.TriangleCount())
	}
	if math.Abs(area-25) > 1e-3 {
		t.Errorf("visited area %v, want 25", area)
	}

	boom := errors.New("boom")
	_, err = Tessellate(Grid{Resolution: 6, Size: 5}, FlatSurface{Field: Flat{}},
		func(*geometry.MeshBuffer, uint32, uint32, uint32, float32) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("visitor error not propagated: %v", err)
	}
}

func TestTessellateInvalid(t *testing.T) {
	if _, err := Tessellate(Grid{Resolution: 1, Size: 5}, FlatSurface{Field: Flat{}}, nil); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("resolution 1: got %v, want ErrInvalidGrid", err)
	}
	if _, err := Tessellate(Grid{Resolution: 4, Size: 5}, FlatSurface{}, nil); !errors.Is(err, ErrNoField) {
		t.Errorf("nil field: got %v, want ErrNoField", err)
	}
}
