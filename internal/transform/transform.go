// Package transform packs instance transforms into flat float buffers.
//
// Each instance occupies 16 consecutive floats laid out as a Mat4, so a
// Buffer can be uploaded unchanged as a per-instance attribute stream.
package transform

import (
	"fmt"
	"math/rand/v2"

	vmath "github.com/Faultbox/verdant/pkg/math"
)

// Stride is the number of floats per instance.
const Stride = 16

// Transform is a scale, rotation and translation triple.
type Transform struct {
	Scale       vmath.Vec3
	Rotation    vmath.Quat
	Translation vmath.Vec3
}

// Uniform returns a transform with the same scale on every axis.
func Uniform(scale float32, rotation vmath.Quat, translation vmath.Vec3) Transform {
	return Transform{
		Scale:       vmath.Vec3{X: scale, Y: scale, Z: scale},
		Rotation:    rotation,
		Translation: translation,
	}
}

// Matrix composes the transform.
func (t Transform) Matrix() vmath.Mat4 {
	return vmath.Compose(t.Scale, t.Rotation, t.Translation)
}

// Encode writes the composed matrix of t into dst, which must hold 16 floats.
func Encode(dst []float32, t Transform) {
	m := t.Matrix()
	copy(dst[:Stride], m[:])
}

// Decode reads a matrix from src and splits it into a Transform.
func Decode(src []float32) Transform {
	var m vmath.Mat4
	copy(m[:], src[:Stride])
	s, r, tr := m.Decompose()
	return Transform{Scale: s, Rotation: r, Translation: tr}
}

// Buffer is a contiguous list of packed instance matrices.
type Buffer []float32

// NewBuffer allocates a zeroed buffer for n instances.
func NewBuffer(n int) Buffer {
	return make(Buffer, n*Stride)
}

// Len returns the number of complete instances in the buffer.
func (b Buffer) Len() int { return len(b) / Stride }

// Slot returns the 16 floats of instance i.
func (b Buffer) Slot(i int) []float32 {
	return b[i*Stride : (i+1)*Stride]
}

// At decodes instance i.
func (b Buffer) At(i int) Transform { return Decode(b.Slot(i)) }

// Set encodes t into instance i.
func (b Buffer) Set(i int, t Transform) { Encode(b.Slot(i), t) }

// Translation returns the translation of instance i without decoding the rest.
func (b Buffer) Translation(i int) vmath.Vec3 {
	o := i * Stride
	return vmath.Vec3{X: b[o+12], Y: b[o+13], Z: b[o+14]}
}

// Append encodes t at the end of the buffer.
func (b Buffer) Append(t Transform) Buffer {
	m := t.Matrix()
	return append(b, m[:]...)
}

// Truncate returns the first n instances.
func (b Buffer) Truncate(n int) Buffer {
	return b[:n*Stride]
}

// Concat joins several buffers into a new one.
func Concat(bufs ...Buffer) Buffer {
	total := 0
	for _, b := range bufs {
		total += len(b)
	}
	out := make(Buffer, 0, total)
	for _, b := range bufs {
		out = append(out, b...)
	}
	return out
}

// DownSample keeps every stride-th instance in order, dropping the remainder.
func DownSample(b Buffer, stride int) (Buffer, error) {
	if stride < 1 {
		return nil, fmt.Errorf("down sample stride %d: must be >= 1", stride)
	}
	n := b.Len() / stride
	out := NewBuffer(n)
	for i := 0; i < n; i++ {
		copy(out.Slot(i), b.Slot(i*stride))
	}
	return out, nil
}

// RandomDownSample produces the same count as DownSample but picks one random
// member from each group of stride instances.
func RandomDownSample(b Buffer, stride int, rng *rand.Rand) (Buffer, error) {
	if stride < 1 {
		return nil, fmt.Errorf("random down sample stride %d: must be >= 1", stride)
	}
	n := b.Len() / stride
	out := NewBuffer(n)
	for i := 0; i < n; i++ {
		copy(out.Slot(i), b.Slot(i*stride+rng.IntN(stride)))
	}
	return out, nil
}
