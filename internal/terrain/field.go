// Package terrain tessellates height fields into grid meshes over flat,
// chunked and cube-sphere domains.
package terrain

import (
	"github.com/chewxy/math32"

	vmath "github.com/Faultbox/verdant/pkg/math"
)

// Field2D is a deterministic height field over the horizontal plane.
// Sample returns the height at (x, z) and its partial derivatives.
type Field2D interface {
	Sample(x, z float32) (h, gradX, gradZ float32)
}

// Field2DFunc adapts a function to Field2D.
type Field2DFunc func(x, z float32) (h, gradX, gradZ float32)

// Sample implements Field2D.
func (f Field2DFunc) Sample(x, z float32) (float32, float32, float32) { return f(x, z) }

// Field3D is a deterministic height field over directions on the unit sphere.
type Field3D interface {
	Sample(dir vmath.Vec3) (h float32, grad vmath.Vec3)
}

// Field3DFunc adapts a function to Field3D.
type Field3DFunc func(dir vmath.Vec3) (float32, vmath.Vec3)

// Sample implements Field3D.
func (f Field3DFunc) Sample(dir vmath.Vec3) (float32, vmath.Vec3) { return f(dir) }

// Flat is the zero height field. It satisfies both Field2D and Field3D.
type Flat struct{}

// Sample implements Field2D.
func (Flat) Sample(x, z float32) (float32, float32, float32) { return 0, 0, 0 }

// FlatSphere is the zero field on the sphere.
type FlatSphere struct{}

// Sample implements Field3D.
func (FlatSphere) Sample(vmath.Vec3) (float32, vmath.Vec3) { return 0, vmath.Vec3{} }

// Waves is a sum of two perpendicular sine waves.
//
//	h = A * (sin(f*x) + cos(f*z))
type Waves struct {
	Amplitude float32
	Frequency float32
}

// Sample implements Field2D.
func (w Waves) Sample(x, z float32) (float32, float32, float32) {
	a, f := w.Amplitude, w.Frequency
	h := a * (math32.Sin(f*x) + math32.Cos(f*z))
	return h, a * f * math32.Cos(f*x), -a * f * math32.Sin(f*z)
}

// SphereWaves is a trigonometric product field for planets.
//
//	h = A * cos(f*x) * sin(f*y) * cos(f*z)
type SphereWaves struct {
	Amplitude float32
	Frequency float32
}

// Sample implements Field3D.
func (w SphereWaves) Sample(p vmath.Vec3) (float32, vmath.Vec3) {
	a, f := w.Amplitude, w.Frequency
	cx, sx := math32.Cos(f*p.X), math32.Sin(f*p.X)
	cy, sy := math32.Cos(f*p.Y), math32.Sin(f*p.Y)
	cz, sz := math32.Cos(f*p.Z), math32.Sin(f*p.Z)
	return a * cx * sy * cz, vmath.Vec3{
		X: -a * f * sx * sy * cz,
		Y: a * f * cx * cy * cz,
		Z: -a * f * cx * sy * sz,
	}
}
