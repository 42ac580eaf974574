package terrain

import (
	"fmt"
	"math"

	vmath "github.com/Faultbox/verdant/pkg/math"
)

// Face identifies one of the six faces of a cube-sphere.
type Face int

// Cube faces. Front looks down -Z.
const (
	Front Face = iota
	Back
	Left
	Right
	Top
	Bottom
)

// Faces lists every face in build order.
var Faces = [...]Face{Front, Back, Left, Right, Top, Bottom}

var faceNames = [...]string{"front", "back", "left", "right", "top", "bottom"}

func (f Face) String() string {
	if f < Front || f > Bottom {
		return fmt.Sprintf("Face(%d)", int(f))
	}
	return faceNames[f]
}

// RotationForFace returns the rotation taking the front face onto f.
func RotationForFace(f Face) vmath.Quat {
	const half = math.Pi / 2
	switch f {
	case Back:
		return vmath.QuatFromAxisAngle(vmath.UnitY, math.Pi)
	case Left:
		return vmath.QuatFromAxisAngle(vmath.UnitY, half)
	case Right:
		return vmath.QuatFromAxisAngle(vmath.UnitY, -half)
	case Top:
		return vmath.QuatFromAxisAngle(vmath.UnitX, half)
	case Bottom:
		return vmath.QuatFromAxisAngle(vmath.UnitX, -half)
	default:
		return vmath.QuatIdentity()
	}
}

// Axis returns the outward unit normal of the face.
func (f Face) Axis() vmath.Vec3 {
	return RotationForFace(f).Rotate(vmath.Vec3{Z: -1})
}
