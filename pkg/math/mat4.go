package math

import (
	stdmath "math"

	"github.com/chewxy/math32"
)

// Mat4 is a 4x4 matrix in column-major order (OpenGL compatible).
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
//
// The translation lives in elements 12, 13 and 14, which is also the layout of
// a row-major matrix that multiplies row vectors.
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Perspective returns a perspective projection matrix.
// fovY is in radians, aspect is width/height.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	nf := 1 / (near - far)

	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

// LookAt returns a view matrix looking from eye to center with up direction.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// Compose builds translation * rotation * scale.
func Compose(scale Vec3, rotation Quat, translation Vec3) Mat4 {
	m := rotation.ToMat4()
	for i := 0; i < 3; i++ {
		m[i] *= scale.X
		m[4+i] *= scale.Y
		m[8+i] *= scale.Z
	}
	m[12], m[13], m[14] = translation.X, translation.Y, translation.Z
	return m
}

// Decompose splits an affine matrix built by Compose back into scale,
// rotation and translation. A negative determinant flips the X scale.
func (m Mat4) Decompose() (scale Vec3, rotation Quat, translation Vec3) {
	translation = Vec3{m[12], m[13], m[14]}

	var cols [3][3]float64
	for c := 0; c < 3; c++ {
		for r := 0; r < 3; r++ {
			cols[c][r] = float64(m[c*4+r])
		}
	}
	sx := stdmath.Sqrt(cols[0][0]*cols[0][0] + cols[0][1]*cols[0][1] + cols[0][2]*cols[0][2])
	sy := stdmath.Sqrt(cols[1][0]*cols[1][0] + cols[1][1]*cols[1][1] + cols[1][2]*cols[1][2])
	sz := stdmath.Sqrt(cols[2][0]*cols[2][0] + cols[2][1]*cols[2][1] + cols[2][2]*cols[2][2])

	det := cols[0][0]*(cols[1][1]*cols[2][2]-cols[2][1]*cols[1][2]) -
		cols[1][0]*(cols[0][1]*cols[2][2]-cols[2][1]*cols[0][2]) +
		cols[2][0]*(cols[0][1]*cols[1][2]-cols[1][1]*cols[0][2])
	if det < 0 {
		sx = -sx
	}
	scale = Vec3{float32(sx), float32(sy), float32(sz)}
	if sx == 0 || sy == 0 || sz == 0 {
		return scale, QuatIdentity(), translation
	}

	var r [3][3]float64
	s := [3]float64{sx, sy, sz}
	for c := 0; c < 3; c++ {
		for row := 0; row < 3; row++ {
			r[row][c] = cols[c][row] / s[c]
		}
	}
	return scale, quatFromBasis(r), translation
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[col*4+row] =
				m[0*4+row]*other[col*4+0] +
					m[1*4+row]*other[col*4+1] +
					m[2*4+row]*other[col*4+2] +
					m[3*4+row]*other[col*4+3]
		}
	}
	return result
}

// TransformVec3 transforms a point by this affine matrix.
func (m Mat4) TransformVec3(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12],
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13],
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14],
	}
}

// TransformDirection transforms a direction vector (ignores translation).
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return Vec3{
		m[0]*d.X + m[4]*d.Y + m[8]*d.Z,
		m[1]*d.X + m[5]*d.Y + m[9]*d.Z,
		m[2]*d.X + m[6]*d.Y + m[10]*d.Z,
	}
}

// Ptr returns a pointer to the first element (for OpenGL uniform calls).
func (m *Mat4) Ptr() *float32 {
	return &m[0]
}
