package geometry

import (
	"math/rand/v2"

	"github.com/chewxy/math32"

	vmath "github.com/Faultbox/verdant/pkg/math"
)

// Vertex reads vertex i of a flat xyz buffer.
func Vertex(buf []float32, i uint32) vmath.Vec3 {
	o := int(i) * 3
	return vmath.Vec3{X: buf[o], Y: buf[o+1], Z: buf[o+2]}
}

// TriangleArea returns half the length of the cross product of two edges.
// Degenerate triangles give zero.
func TriangleArea(a, b, c vmath.Vec3) float32 {
	return b.Sub(a).Cross(c.Sub(a)).Length() / 2
}

// TriangleAreaAt computes the area of the triangle (i1, i2, i3) of positions.
func TriangleAreaAt(positions []float32, i1, i2, i3 uint32) float32 {
	return TriangleArea(Vertex(positions, i1), Vertex(positions, i2), Vertex(positions, i3))
}

// RandomPointInTriangle samples a point uniformly inside triangle
// (i1, i2, i3) and interpolates the vertex normals with the same weights.
// The returned normal is not renormalized.
func RandomPointInTriangle(positions, normals []float32, i1, i2, i3 uint32, rng *rand.Rand) (point, normal vmath.Vec3) {
	r1 := math32.Sqrt(rng.Float32())
	r2 := rng.Float32()
	w1 := 1 - r1
	w2 := r1 * (1 - r2)
	w3 := r1 * r2

	point = Vertex(positions, i1).Scale(w1).
		Add(Vertex(positions, i2).Scale(w2)).
		Add(Vertex(positions, i3).Scale(w3))
	normal = Vertex(normals, i1).Scale(w1).
		Add(Vertex(normals, i2).Scale(w2)).
		Add(Vertex(normals, i3).Scale(w3))
	return point, normal
}

// AlignmentQuaternion returns the rotation taking up onto normal. Both vectors
// are normalized first.
func AlignmentQuaternion(up, normal vmath.Vec3) vmath.Quat {
	return vmath.AlignQuat(up.Normalize(), normal.Normalize())
}
