// Package lighting provides lighting utilities for 3D rendering.
package lighting

import (
	"math"

	"github.com/chewxy/math32"

	vmath "github.com/Faultbox/verdant/pkg/math"
)

const degToRad = math.Pi / 180

// SunDirection converts azimuth/elevation angles in degrees to a unit vector
// pointing towards the sun. Azimuth rotates around Y starting at +Z,
// elevation is measured up from the horizon.
func SunDirection(azimuth, elevation float32) vmath.Vec3 {
	lon := azimuth * degToRad
	lat := elevation * degToRad

	return vmath.Vec3{
		X: math32.Cos(lat) * math32.Sin(lon),
		Y: math32.Sin(lat),
		Z: math32.Cos(lat) * math32.Cos(lon),
	}
}
