package scatter

import (
	"math"
	"math/rand/v2"

	"github.com/Faultbox/verdant/internal/transform"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

// Square scale range.
const (
	SquareScaleMin = 0.7
	SquareScaleMax = 1.3
)

// Square fills a size x size square centred on position with one instance per
// cell of a resolution x resolution grid, jittered inside its cell. Instances
// sit at y = 0 with a random yaw.
func Square(position vmath.Vec3, size float32, resolution int, rng *rand.Rand) transform.Buffer {
	if resolution <= 0 {
		return nil
	}
	cell := size / float32(resolution)
	half := size / 2
	buf := transform.NewBuffer(resolution * resolution)
	i := 0
	for x := 0; x < resolution; x++ {
		for z := 0; z < resolution; z++ {
			px := position.X + float32(x)*cell - half + rng.Float32()*cell
			pz := position.Z + float32(z)*cell - half + rng.Float32()*cell
			scale := SquareScaleMin + rng.Float32()*(SquareScaleMax-SquareScaleMin)
			yaw := vmath.QuatRotationY(rng.Float32() * 2 * math.Pi)
			buf.Set(i, transform.Uniform(scale, yaw, vmath.Vec3{X: px, Z: pz}))
			i++
		}
	}
	return buf
}
