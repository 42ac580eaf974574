// Package instancing binds transform buffers to prototype meshes as instanced
// batches and swaps prototypes by level of detail.
package instancing

import (
	"errors"
	"fmt"

	"github.com/Faultbox/verdant/internal/geometry"
	"github.com/Faultbox/verdant/internal/render"
	"github.com/Faultbox/verdant/internal/transform"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

// ErrDisposed is returned when materializing a disposed patch.
var ErrDisposed = errors.New("instancing: patch disposed")

// Prototype is a source mesh that patches instantiate.
type Prototype struct {
	Name        string
	Mesh        render.MeshHandle
	VertexCount int
}

// UploadPrototype uploads mesh and hides it, so only its instances draw.
func UploadPrototype(r render.Renderer, name string, mesh *geometry.MeshBuffer) (Prototype, error) {
	if err := mesh.Validate(); err != nil {
		return Prototype{}, fmt.Errorf("prototype %s: %w", name, err)
	}
	h, err := r.ApplyMeshBuffer(render.MeshData{
		Positions: mesh.Positions,
		Normals:   mesh.Normals,
		Indices:   mesh.Indices,
	})
	if err != nil {
		return Prototype{}, fmt.Errorf("prototype %s: %w", name, err)
	}
	if err := r.SetMeshVisible(h, false); err != nil {
		return Prototype{}, fmt.Errorf("prototype %s: %w", name, err)
	}
	return Prototype{Name: name, Mesh: h, VertexCount: mesh.VertexCount()}, nil
}

// State is the lifecycle stage of a Patch.
type State int

// Patch states.
const (
	Empty State = iota
	Materialized
	Disposed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Materialized:
		return "materialized"
	case Disposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Patch is one transform buffer drawn with at most one prototype at a time.
// The buffer is borrowed and never modified.
type Patch struct {
	renderer render.Renderer
	position vmath.Vec3
	buffer   transform.Buffer

	state     State
	batch     render.BatchHandle
	prototype Prototype
}

// NewPatch returns an empty patch. position is used for LOD scoring.
func NewPatch(r render.Renderer, position vmath.Vec3, buffer transform.Buffer) *Patch {
	return &Patch{renderer: r, position: position, buffer: buffer}
}

// Position returns the scoring position.
func (p *Patch) Position() vmath.Vec3 { return p.position }

// Buffer returns the borrowed transform buffer.
func (p *Patch) Buffer() transform.Buffer { return p.buffer }

// State returns the lifecycle stage.
func (p *Patch) State() State { return p.state }

// Prototype returns the bound prototype while materialized.
func (p *Patch) Prototype() (Prototype, bool) {
	return p.prototype, p.state == Materialized
}

// CreateInstances binds the buffer to proto, releasing any previous batch
// first.
func (p *Patch) CreateInstances(proto Prototype) error {
	if p.state == Disposed {
		return ErrDisposed
	}
	if err := p.release(); err != nil {
		return err
	}
	b, err := p.renderer.CreateInstanceBatch(proto.Mesh, p.buffer)
	if err != nil {
		return fmt.Errorf("create instances of %s: %w", proto.Name, err)
	}
	p.batch = b
	p.prototype = proto
	p.state = Materialized
	return nil
}

func (p *Patch) release() error {
	if p.state != Materialized {
		return nil
	}
	p.state = Empty
	p.prototype = Prototype{}
	if err := p.renderer.DisposeBatch(p.batch); err != nil {
		return fmt.Errorf("release batch: %w", err)
	}
	return nil
}

// InstanceCount returns the number of drawn instances, zero unless
// materialized.
func (p *Patch) InstanceCount() int {
	if p.state != Materialized {
		return 0
	}
	return p.buffer.Len()
}

// Dispose releases the batch. Calling it again is a no-op.
func (p *Patch) Dispose() error {
	if p.state == Disposed {
		return nil
	}
	err := p.release()
	p.state = Disposed
	return err
}
