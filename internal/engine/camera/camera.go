// Package camera provides camera implementations for 3D rendering.
package camera

import (
	"github.com/chewxy/math32"

	vmath "github.com/Faultbox/verdant/pkg/math"
)

// OrbitCamera orbits around a target point, usually the viewer.
type OrbitCamera struct {
	Target vmath.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // vertical angle, radians
	Yaw      float32 // horizontal angle, radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	FovY      float32
	Near, Far float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        12,
		Pitch:           0.45,
		MinDistance:     2,
		MaxDistance:     400,
		MinPitch:        0.05,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FovY:            1.0,
		Near:            0.1,
		Far:             1000,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() vmath.Vec3 {
	horiz := c.Distance * math32.Cos(c.Pitch)
	return vmath.Vec3{
		X: c.Target.X + horiz*math32.Sin(c.Yaw),
		Y: c.Target.Y + c.Distance*math32.Sin(c.Pitch),
		Z: c.Target.Z + horiz*math32.Cos(c.Yaw),
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() vmath.Mat4 {
	return vmath.LookAt(c.Position(), c.Target, vmath.UnitY)
}

// ProjectionMatrix returns the perspective projection for a viewport.
func (c *OrbitCamera) ProjectionMatrix(width, height int) vmath.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return vmath.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection(width, height int) vmath.Mat4 {
	return c.ProjectionMatrix(width, height).Mul(c.ViewMatrix())
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// Forward returns the horizontal direction the camera looks along.
func (c *OrbitCamera) Forward() vmath.Vec3 {
	return vmath.Vec3{X: -math32.Sin(c.Yaw), Z: -math32.Cos(c.Yaw)}
}

// Right returns the horizontal direction to the right of Forward.
func (c *OrbitCamera) Right() vmath.Vec3 {
	return vmath.Vec3{X: math32.Cos(c.Yaw), Z: -math32.Sin(c.Yaw)}
}

// Move translates the target by forward/right amounts on the XZ plane.
func (c *OrbitCamera) Move(forward, right float32) {
	c.Target = c.Target.Add(c.Forward().Scale(forward)).Add(c.Right().Scale(right))
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
