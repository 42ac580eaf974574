// Package world streams terrain chunks around a viewer and builds cube-sphere
// planets. Each chunk owns its mesh and instance transform buffers.
package world

import (
	"context"
	"errors"
	"fmt"

	"github.com/Faultbox/verdant/internal/compute"
	"github.com/Faultbox/verdant/internal/geometry"
	"github.com/Faultbox/verdant/internal/render"
	"github.com/Faultbox/verdant/internal/terrain"
	"github.com/Faultbox/verdant/internal/transform"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

var (
	// ErrNoRenderer is returned when a manager is built without a renderer.
	ErrNoRenderer = errors.New("world: no renderer")
	// ErrChunkDisposed is returned when finalizing a disposed chunk.
	ErrChunkDisposed = errors.New("world: chunk disposed")
)

// GridCoord is an integer chunk coordinate on the horizontal plane.
type GridCoord struct {
	X, Z int
}

func (g GridCoord) String() string { return fmt.Sprintf("(%d,%d)", g.X, g.Z) }

// DistSq returns the squared grid distance to o.
func (g GridCoord) DistSq(o GridCoord) int {
	dx, dz := g.X-o.X, g.Z-o.Z
	return dx*dx + dz*dz
}

// Collider receives the static collision shape of every finished chunk.
type Collider interface {
	// RegisterStaticCollider returns a function that removes the shape.
	RegisterStaticCollider(origin vmath.Vec3, positions []float32, indices []uint32) (release func())
}

// NopCollider ignores every shape.
type NopCollider struct{}

// RegisterStaticCollider implements Collider.
func (NopCollider) RegisterStaticCollider(vmath.Vec3, []float32, []uint32) func() { return func() {} }

// Chunk is one tessellated and scattered piece of terrain.
type Chunk struct {
	// Coord is set for streamed chunks.
	Coord GridCoord
	// Face is set for planet chunks.
	Face   terrain.Face
	OnFace bool

	Origin   vmath.Vec3
	Rotation vmath.Quat
	// Vertical is the up reference at Origin.
	Vertical   vmath.Vec3
	Size       float32
	Resolution int
	Density    float32

	Mesh *geometry.MeshBuffer
	// Transforms are upright instances, AlignedTransforms follow the surface.
	Transforms        transform.Buffer
	AlignedTransforms transform.Buffer

	renderer render.Renderer
	handle   render.MeshHandle
	hasMesh  bool
	release  func()

	pending   *compute.Future[*compute.Result]
	observers []func(*Chunk)
	disposed  bool
}

// Ready reports whether the mesh and buffers are available.
func (c *Chunk) Ready() bool { return c.Mesh != nil && !c.disposed }

// Disposed reports whether Dispose has run.
func (c *Chunk) Disposed() bool { return c.disposed }

// MeshHandle returns the uploaded terrain mesh.
func (c *Chunk) MeshHandle() (render.MeshHandle, bool) { return c.handle, c.hasMesh }

// OnDispose registers fn to run once when the chunk is disposed. Registering
// on a disposed chunk runs fn at once.
func (c *Chunk) OnDispose(fn func(*Chunk)) {
	if c.disposed {
		fn(c)
		return
	}
	c.observers = append(c.observers, fn)
}

func (c *Chunk) start(ctx context.Context, backend compute.Backend, req compute.Request) {
	c.pending = backend.Build(ctx, req)
}

// finalize stores a build result, uploads the mesh and registers the
// collider.
func (c *Chunk) finalize(res *compute.Result, r render.Renderer, collider Collider) error {
	c.pending = nil
	if c.disposed {
		return ErrChunkDisposed
	}
	h, err := r.ApplyMeshBuffer(render.MeshData{
		Origin:    c.Origin,
		Positions: res.Mesh.Positions,
		Normals:   res.Mesh.Normals,
		Indices:   res.Mesh.Indices,
	})
	if err != nil {
		return fmt.Errorf("upload mesh: %w", err)
	}
	c.renderer, c.handle, c.hasMesh = r, h, true
	c.Mesh = res.Mesh
	c.Transforms = res.Vertical
	c.AlignedTransforms = res.Aligned
	c.release = collider.RegisterStaticCollider(c.Origin, res.Mesh.Positions, res.Mesh.Indices)
	return nil
}

// Dispose waits for an in-flight build, releases the mesh and collider, and
// notifies observers. Later calls do nothing. When ctx ends first the build
// result is abandoned and ctx's error is returned after disposal completes.
func (c *Chunk) Dispose(ctx context.Context) error {
	if c.disposed {
		return nil
	}
	var errs []error
	if c.pending != nil {
		if _, err := c.pending.Wait(ctx); err != nil && ctx.Err() != nil {
			errs = append(errs, err)
		}
		c.pending = nil
	}
	c.disposed = true

	if c.hasMesh {
		if err := c.renderer.DisposeMesh(c.handle); err != nil {
			errs = append(errs, err)
		}
		c.hasMesh = false
	}
	if c.release != nil {
		c.release()
		c.release = nil
	}
	observers := c.observers
	c.observers = nil
	for _, fn := range observers {
		fn(c)
	}
	c.Mesh = nil
	c.Transforms = nil
	c.AlignedTransforms = nil
	return errors.Join(errs...)
}
