package terrain

import (
	"errors"
	"fmt"

	vmath "github.com/Faultbox/verdant/pkg/math"
)

var (
	// ErrNoField is returned when a surface has no height field.
	ErrNoField = errors.New("terrain: no height field")
	// ErrInvalidGrid is returned for grids that cannot be tessellated.
	ErrInvalidGrid = errors.New("terrain: invalid grid")
)

// Grid is a square N x N vertex lattice of the given world size.
type Grid struct {
	Resolution int
	Size       float32
}

// Validate checks the grid dimensions.
func (g Grid) Validate() error {
	if g.Resolution < 2 {
		return fmt.Errorf("%w: resolution %d < 2", ErrInvalidGrid, g.Resolution)
	}
	if !(g.Size > 0) {
		return fmt.Errorf("%w: size %v", ErrInvalidGrid, g.Size)
	}
	return nil
}

// Step is the distance between adjacent vertices.
func (g Grid) Step() float32 {
	return g.Size / float32(g.Resolution-1)
}

// VertexCount returns N*N.
func (g Grid) VertexCount() int { return g.Resolution * g.Resolution }

// TriangleCount returns 2*(N-1)^2.
func (g Grid) TriangleCount() int { return 2 * (g.Resolution - 1) * (g.Resolution - 1) }

// Local returns the centred lattice coordinates of vertex (x, y).
func (g Grid) Local(x, y int) (u, v float32) {
	step := g.Step()
	half := g.Size / 2
	return float32(x)*step - half, float32(y)*step - half
}

// Surface places lattice points in space. Positions are relative to Origin.
type Surface interface {
	// Origin is the world-space position all vertices are relative to.
	Origin() vmath.Vec3
	// Vertex maps centred lattice coordinates to a position and unit normal.
	Vertex(u, v float32) (pos, normal vmath.Vec3)
	// Validate reports missing inputs.
	Validate() error
}

// FlatSurface displaces the XZ plane by a 2D height field. A non-zero
// Position makes it a chunk: the field is sampled in world space so features
// continue across chunk borders.
type FlatSurface struct {
	Field    Field2D
	Position vmath.Vec3
}

// Origin implements Surface.
func (s FlatSurface) Origin() vmath.Vec3 { return s.Position }

// Vertex implements Surface.
func (s FlatSurface) Vertex(u, v float32) (vmath.Vec3, vmath.Vec3) {
	h, gx, gz := s.Field.Sample(s.Position.X+u, s.Position.Z+v)
	pos := vmath.Vec3{X: u, Y: h, Z: v}
	normal := vmath.Vec3{X: -gx, Y: 1, Z: -gz}.Normalize()
	return pos, normal
}

// Validate implements Surface.
func (s FlatSurface) Validate() error {
	if s.Field == nil {
		return ErrNoField
	}
	return nil
}

// CubeFaceSurface projects one face of a cube onto a sphere of Radius and
// pushes it out by a 3D height field.
type CubeFaceSurface struct {
	Field  Field3D
	Face   Face
	Radius float32
}

// Grid returns the lattice that spans the whole face.
func (s CubeFaceSurface) Grid(resolution int) Grid {
	return Grid{Resolution: resolution, Size: 2 * s.Radius}
}

// Rotation returns the face-to-world rotation.
func (s CubeFaceSurface) Rotation() vmath.Quat { return RotationForFace(s.Face) }

// Origin implements Surface. It is the centre of the unprojected face.
func (s CubeFaceSurface) Origin() vmath.Vec3 {
	return s.Rotation().Rotate(vmath.Vec3{Z: -s.Radius})
}

// Vertex implements Surface.
func (s CubeFaceSurface) Vertex(u, v float32) (vmath.Vec3, vmath.Vec3) {
	rot := s.Rotation()
	dir := rot.Rotate(vmath.Vec3{X: u, Y: v, Z: -s.Radius}).Normalize()
	h, grad := s.Field.Sample(dir)

	world := dir.Scale(s.Radius + h)
	tangential := grad.Sub(dir.Scale(grad.Dot(dir)))
	normal := dir.Sub(tangential).Normalize()
	return world.Sub(rot.Rotate(vmath.Vec3{Z: -s.Radius})), normal
}

// Validate implements Surface.
func (s CubeFaceSurface) Validate() error {
	if s.Field == nil {
		return ErrNoField
	}
	if !(s.Radius > 0) {
		return fmt.Errorf("%w: planet radius %v", ErrInvalidGrid, s.Radius)
	}
	if s.Face < Front || s.Face > Bottom {
		return fmt.Errorf("%w: %v", ErrInvalidGrid, s.Face)
	}
	return nil
}
