// Package scatter places object instances over triangle meshes in proportion
// to triangle area.
package scatter

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Faultbox/verdant/internal/geometry"
	"github.com/Faultbox/verdant/internal/transform"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

// ErrCapacity is returned when a triangle would bring the count to
// MaxInstances.
var ErrCapacity = errors.New("scatter: instance capacity exceeded")

// Default instance scale range.
const (
	DefaultScaleMin = 0.9
	DefaultScaleMax = 1.1
)

// VerticalFunc returns the reference up direction at a world position.
type VerticalFunc func(world vmath.Vec3) vmath.Vec3

// ConstantVertical is the VerticalFunc of flat terrain.
func ConstantVertical(up vmath.Vec3) VerticalFunc {
	up = up.Normalize()
	return func(vmath.Vec3) vmath.Vec3 { return up }
}

// Radial is the VerticalFunc of a planet centred at center.
func Radial(center vmath.Vec3) VerticalFunc {
	return func(world vmath.Vec3) vmath.Vec3 { return world.Sub(center).Normalize() }
}

// Options configures a scatter pass.
type Options struct {
	// Density is the target number of instances per unit area.
	Density float32
	// MaxInstances caps the output. Zero means unlimited.
	MaxInstances int
	// Origin is added to mesh positions to get world translations.
	Origin vmath.Vec3
	// Vertical gives the upright reference. Nil means +Y everywhere.
	Vertical VerticalFunc
	// ScaleMin and ScaleMax bound the uniform instance scale. Both zero
	// selects the default range.
	ScaleMin, ScaleMax float32
}

// WithDefaults fills in the vertical reference and scale range.
func (o Options) WithDefaults() Options {
	if o.Vertical == nil {
		o.Vertical = ConstantVertical(vmath.UnitY)
	}
	if o.ScaleMin == 0 && o.ScaleMax == 0 {
		o.ScaleMin, o.ScaleMax = DefaultScaleMin, DefaultScaleMax
	}
	return o
}

// MaxInstances sizes the output buffers for a domain of the given area with
// a factor of two headroom. It never returns 0, which would disable the
// capacity check.
func MaxInstances(domainArea, density float64) int {
	return max(1, int(math.Floor(2*domainArea*density)))
}

// Split turns a triangle area into a whole instance count and the fractional
// carry passed to the next triangle.
func Split(area, density float32, carry float64) (int, float64) {
	raw := float64(area)*float64(density) + carry
	n := math.Floor(raw)
	return int(n), raw - n
}

// Sample draws one instance inside triangle (i1, i2, i3) and returns its
// upright and surface-aligned transforms. The two share position, scale and
// yaw and differ only in the up reference. opts must already carry defaults.
func Sample(mesh *geometry.MeshBuffer, i1, i2, i3 uint32, opts Options, rng *rand.Rand) (vertical, aligned transform.Transform) {
	point, normal := geometry.RandomPointInTriangle(mesh.Positions, mesh.Normals, i1, i2, i3, rng)
	world := point.Add(opts.Origin)

	scale := opts.ScaleMin + rng.Float32()*(opts.ScaleMax-opts.ScaleMin)
	yaw := vmath.QuatRotationY(rng.Float32() * 2 * math.Pi)

	toNormal := geometry.AlignmentQuaternion(vmath.UnitY, normal)
	toVertical := geometry.AlignmentQuaternion(vmath.UnitY, opts.Vertical(world))

	vertical = transform.Uniform(scale, toVertical.Mul(yaw), world)
	aligned = transform.Uniform(scale, toNormal.Mul(yaw), world)
	return vertical, aligned
}

// Generator accumulates instances triangle by triangle. A single carry runs
// across the whole pass so the total converges to sum(area)*density.
type Generator struct {
	opts     Options
	rng      *rand.Rand
	carry    float64
	vertical transform.Buffer
	aligned  transform.Buffer
	count    int
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	if o.Density < 0 || math.IsNaN(float64(o.Density)) {
		return fmt.Errorf("scatter: density %v", o.Density)
	}
	if o.MaxInstances < 0 {
		return fmt.Errorf("scatter: max instances %d", o.MaxInstances)
	}
	o = o.WithDefaults()
	if o.ScaleMax < o.ScaleMin || o.ScaleMin <= 0 {
		return fmt.Errorf("scatter: scale range [%v,%v]", o.ScaleMin, o.ScaleMax)
	}
	return nil
}

// NewGenerator validates opts and preallocates the output buffers.
func NewGenerator(opts Options, rng *rand.Rand) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("scatter: nil random source")
	}
	opts = opts.WithDefaults()
	g := &Generator{opts: opts, rng: rng}
	if opts.MaxInstances > 0 {
		g.vertical = make(transform.Buffer, 0, opts.MaxInstances*transform.Stride)
		g.aligned = make(transform.Buffer, 0, opts.MaxInstances*transform.Stride)
	}
	return g, nil
}

// Triangle scatters instances over one triangle. It has the signature of a
// tessellation visitor. The capacity check happens before anything is
// written, so a failing triangle leaves the buffers untouched.
func (g *Generator) Triangle(mesh *geometry.MeshBuffer, i1, i2, i3 uint32, area float32) error {
	n, carry := Split(area, g.opts.Density, g.carry)
	if n == 0 {
		g.carry = carry
		return nil
	}
	if g.opts.MaxInstances > 0 && g.count+n >= g.opts.MaxInstances {
		return fmt.Errorf("%w: %d + %d reaches %d", ErrCapacity, g.count, n, g.opts.MaxInstances)
	}
	g.carry = carry
	for k := 0; k < n; k++ {
		v, a := Sample(mesh, i1, i2, i3, g.opts, g.rng)
		g.vertical = g.vertical.Append(v)
		g.aligned = g.aligned.Append(a)
	}
	g.count += n
	return nil
}

// Count returns the number of instances emitted so far.
func (g *Generator) Count() int { return g.count }

// Carry returns the current fractional remainder.
func (g *Generator) Carry() float64 { return g.carry }

// Result returns the upright and surface-aligned buffers.
func (g *Generator) Result() (vertical, aligned transform.Buffer) {
	return g.vertical, g.aligned
}

// Mesh scatters over every triangle of an existing mesh.
func Mesh(mesh *geometry.MeshBuffer, opts Options, rng *rand.Rand) (vertical, aligned transform.Buffer, err error) {
	g, err := NewGenerator(opts, rng)
	if err != nil {
		return nil, nil, err
	}
	areas := mesh.Areas
	for tri := 0; tri < mesh.TriangleCount(); tri++ {
		i1, i2, i3 := mesh.Indices[3*tri], mesh.Indices[3*tri+1], mesh.Indices[3*tri+2]
		var area float32
		if len(areas) > tri {
			area = areas[tri]
		} else {
			area = geometry.TriangleAreaAt(mesh.Positions, i1, i2, i3)
		}
		if err := g.Triangle(mesh, i1, i2, i3, area); err != nil {
			return nil, nil, fmt.Errorf("triangle %d: %w", tri, err)
		}
	}
	vertical, aligned = g.Result()
	return vertical, aligned, nil
}
