package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	for i := 0; i < 16; i++ {
		want := float32(0)
		if i%5 == 0 {
			want = 1
		}
		if m[i] != want {
			t.Errorf("Identity()[%d] = %v, want %v", i, m[i], want)
		}
	}
}

func TestComposeTranslationLayout(t *testing.T) {
	m := Compose(Vec3{1, 1, 1}, QuatIdentity(), Vec3{3, 4, 5})
	if m[12] != 3 || m[13] != 4 || m[14] != 5 || m[15] != 1 {
		t.Errorf("translation should be in [12..14], got %v", m)
	}
	p := m.TransformVec3(Vec3{1, 1, 1})
	if !p.ApproxEqual(Vec3{4, 5, 6}, 1e-6) {
		t.Errorf("TransformVec3 = %v, want (4,5,6)", p)
	}
}

func TestComposeOrder(t *testing.T) {
	// scale first, then rotate, then translate
	q := QuatRotationY(float32(math.Pi / 2))
	m := Compose(Vec3{2, 2, 2}, q, Vec3{0, 1, 0})
	got := m.TransformVec3(Vec3{1, 0, 0})
	want := Vec3{0, 1, -2}
	if !got.ApproxEqual(want, 1e-5) {
		t.Errorf("Compose transform = %v, want %v", got, want)
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		scale Vec3
		rot   Quat
		trans Vec3
	}{
		{"identity", Vec3{1, 1, 1}, QuatIdentity(), Vec3{}},
		{"uniform", Vec3{1.05, 1.05, 1.05}, QuatRotationY(2.3), Vec3{10, -2, 7}},
		{"tilted", Vec3{0.9, 0.9, 0.9}, QuatFromAxisAngle(Vec3{1, 1, 0}.Normalize(), 0.7), Vec3{-3, 0.5, 1}},
		{"half turn", Vec3{1.1, 1.1, 1.1}, QuatFromAxisAngle(UnitX, float32(math.Pi)), Vec3{1, 2, 3}},
		{"non uniform", Vec3{1, 2, 3}, QuatFromAxisAngle(UnitZ, -1.2), Vec3{0, 0, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compose(tt.scale, tt.rot, tt.trans)
			s, r, tr := m.Decompose()
			if !s.ApproxEqual(tt.scale, 1e-5) {
				t.Errorf("scale = %v, want %v", s, tt.scale)
			}
			if !tr.ApproxEqual(tt.trans, 1e-5) {
				t.Errorf("translation = %v, want %v", tr, tt.trans)
			}
			if !r.SameRotation(tt.rot.Normalize(), 1e-5) {
				t.Errorf("rotation = %v, want %v (up to sign)", r, tt.rot)
			}
		})
	}
}

func TestMulIdentity(t *testing.T) {
	m := Compose(Vec3{2, 2, 2}, QuatRotationY(0.3), Vec3{1, 2, 3})
	if got := m.Mul(Identity()); got != m {
		t.Errorf("m * I = %v, want %v", got, m)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(float32(math.Pi/4), 1, 0.1, 100)
	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}

func TestLookAtEyeToOrigin(t *testing.T) {
	eye := Vec3{0, 3, 5}
	m := LookAt(eye, Vec3{}, UnitY)
	if p := m.TransformVec3(eye); !p.ApproxEqual(Vec3{}, 1e-5) {
		t.Errorf("LookAt should map eye to origin, got %v", p)
	}
}
