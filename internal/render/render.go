// Package render defines the narrow renderer contract the terrain and
// instancing code draws through, plus an in-memory implementation.
package render

import (
	"errors"

	vmath "github.com/Faultbox/verdant/pkg/math"
)

// ErrUnknownHandle is returned for handles that were never issued or were
// already disposed.
var ErrUnknownHandle = errors.New("render: unknown handle")

// MeshHandle identifies uploaded mesh geometry.
type MeshHandle uint32

// BatchHandle identifies an instanced draw of a mesh.
type BatchHandle uint32

// MeshData is the geometry handed to ApplyMeshBuffer.
type MeshData struct {
	Origin    vmath.Vec3
	Positions []float32
	Normals   []float32
	Indices   []uint32
}

// Renderer uploads meshes and instance batches.
type Renderer interface {
	// ApplyMeshBuffer uploads geometry and returns a visible mesh.
	ApplyMeshBuffer(data MeshData) (MeshHandle, error)
	SetMeshVisible(h MeshHandle, visible bool) error
	// CreateInstanceBatch draws mesh once per 16-float matrix in transforms.
	// The renderer keeps its own copy of the geometry binding, so several
	// batches can share one mesh.
	CreateInstanceBatch(mesh MeshHandle, transforms []float32) (BatchHandle, error)
	SetInstanceBuffer(b BatchHandle, transforms []float32) error
	DisposeMesh(h MeshHandle) error
	DisposeBatch(b BatchHandle) error
}

// Viewer reports the position that streaming and LOD are measured from.
type Viewer interface {
	ViewerPosition() vmath.Vec3
}

// ViewerFunc adapts a function to Viewer.
type ViewerFunc func() vmath.Vec3

// ViewerPosition implements Viewer.
func (f ViewerFunc) ViewerPosition() vmath.Vec3 { return f() }

// FrameFunc runs once per frame with the elapsed seconds.
type FrameFunc func(dt float32)

// FrameLoop accepts per-frame callbacks.
type FrameLoop interface {
	RegisterPerFrameCallback(fn FrameFunc)
}
