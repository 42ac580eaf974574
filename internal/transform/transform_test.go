package transform

import (
	"math"
	"math/rand/v2"
	"testing"

	vmath "github.com/Faultbox/verdant/pkg/math"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1))
	buf := NewBuffer(1)

	for i := 0; i < 500; i++ {
		axis := vmath.Vec3{
			X: rng.Float32()*2 - 1,
			Y: rng.Float32()*2 - 1,
			Z: rng.Float32()*2 - 1,
		}.Normalize()
		if axis.LengthSq() == 0 {
			continue
		}
		want := Uniform(
			0.5+rng.Float32()*2,
			vmath.QuatFromAxisAngle(axis, rng.Float32()*2*math.Pi),
			vmath.Vec3{X: rng.Float32()*200 - 100, Y: rng.Float32()*20 - 10, Z: rng.Float32()*200 - 100},
		)
		buf.Set(0, want)
		got := buf.At(0)

		if !got.Scale.ApproxEqual(want.Scale, 1e-5) {
			t.Fatalf("case %d: scale = %v, want %v", i, got.Scale, want.Scale)
		}
		if !got.Translation.ApproxEqual(want.Translation, 1e-5) {
			t.Fatalf("case %d: translation = %v, want %v", i, got.Translation, want.Translation)
		}
		if !got.Rotation.SameRotation(want.Rotation, 1e-5) {
			t.Fatalf("case %d: rotation = %v, want %v", i, got.Rotation, want.Rotation)
		}
	}
}

func TestTranslationLayout(t *testing.T) {
	var b Buffer
	b = b.Append(Uniform(1, vmath.QuatIdentity(), vmath.Vec3{X: 1, Y: 2, Z: 3}))
	b = b.Append(Uniform(2, vmath.QuatRotationY(1), vmath.Vec3{X: 4, Y: 5, Z: 6}))

	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
	if got := b.Translation(1); got != (vmath.Vec3{X: 4, Y: 5, Z: 6}) {
		t.Errorf("Translation(1) = %v", got)
	}
	if b[12] != 1 || b[13] != 2 || b[14] != 3 {
		t.Errorf("first translation at [12..14] = %v", b[12:15])
	}
}

func markedBuffer(k int) Buffer {
	b := NewBuffer(k)
	for i := 0; i < k; i++ {
		b.Set(i, Uniform(1, vmath.QuatIdentity(), vmath.Vec3{X: float32(i)}))
	}
	return b
}

func TestDownSample(t *testing.T) {
	tests := []struct {
		k, stride int
	}{
		{10, 1}, {10, 3}, {9, 3}, {2, 5}, {0, 4}, {100, 7},
	}
	for _, tt := range tests {
		b := markedBuffer(tt.k)
		out, err := DownSample(b, tt.stride)
		if err != nil {
			t.Fatalf("DownSample(%d, %d): %v", tt.k, tt.stride, err)
		}
		if want := tt.k / tt.stride; out.Len() != want {
			t.Errorf("DownSample(%d, %d).Len() = %d, want %d", tt.k, tt.stride, out.Len(), want)
		}
		if len(out)%Stride != 0 {
			t.Errorf("DownSample(%d, %d) has %d floats", tt.k, tt.stride, len(out))
		}
		for i := 0; i < out.Len(); i++ {
			src := b.Slot(i * tt.stride)
			dst := out.Slot(i)
			for j := range dst {
				if dst[j] != src[j] {
					t.Fatalf("DownSample(%d, %d)[%d] differs from input %d", tt.k, tt.stride, i, i*tt.stride)
				}
			}
		}
	}
}

func TestDownSampleInvalidStride(t *testing.T) {
	if _, err := DownSample(markedBuffer(4), 0); err == nil {
		t.Error("DownSample with stride 0 should fail")
	}
}

func TestRandomDownSample(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	b := markedBuffer(50)
	out, err := RandomDownSample(b, 4, rng)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 12 {
		t.Fatalf("Len() = %d, want 12", out.Len())
	}
	for i := 0; i < out.Len(); i++ {
		x := int(out.Translation(i).X)
		if x < i*4 || x >= i*4+4 {
			t.Errorf("instance %d came from %d, outside its group", i, x)
		}
	}
}

func TestConcat(t *testing.T) {
	out := Concat(markedBuffer(2), markedBuffer(3))
	if out.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", out.Len())
	}
	if out.Translation(4).X != 2 {
		t.Errorf("last instance x = %v, want 2", out.Translation(4).X)
	}
}
