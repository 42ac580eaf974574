package render

import (
	"fmt"
	"sync"
)

// HeadlessMesh is the recorded state of one mesh.
type HeadlessMesh struct {
	Data    MeshData
	Visible bool
}

// HeadlessBatch is the recorded state of one batch.
type HeadlessBatch struct {
	Mesh       MeshHandle
	Transforms []float32
}

// Headless records every call in memory. It backs tests and the benchmark
// command, where no GPU is available.
type Headless struct {
	mu      sync.Mutex
	next    uint32
	meshes  map[MeshHandle]*HeadlessMesh
	batches map[BatchHandle]*HeadlessBatch
	frames  []FrameFunc
}

// NewHeadless returns an empty renderer.
func NewHeadless() *Headless {
	return &Headless{
		meshes:  make(map[MeshHandle]*HeadlessMesh),
		batches: make(map[BatchHandle]*HeadlessBatch),
	}
}

func (h *Headless) id() uint32 {
	h.next++
	return h.next
}

// ApplyMeshBuffer implements Renderer.
func (h *Headless) ApplyMeshBuffer(data MeshData) (MeshHandle, error) {
	if len(data.Positions) != len(data.Normals) || len(data.Positions)%3 != 0 {
		return 0, fmt.Errorf("render: %d positions, %d normals", len(data.Positions), len(data.Normals))
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	m := MeshHandle(h.id())
	h.meshes[m] = &HeadlessMesh{Data: data, Visible: true}
	return m, nil
}

// SetMeshVisible implements Renderer.
func (h *Headless) SetMeshVisible(m MeshHandle, visible bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	mesh, ok := h.meshes[m]
	if !ok {
		return fmt.Errorf("%w: mesh %d", ErrUnknownHandle, m)
	}
	mesh.Visible = visible
	return nil
}

// CreateInstanceBatch implements Renderer.
func (h *Headless) CreateInstanceBatch(m MeshHandle, transforms []float32) (BatchHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.meshes[m]; !ok {
		return 0, fmt.Errorf("%w: mesh %d", ErrUnknownHandle, m)
	}
	b := BatchHandle(h.id())
	h.batches[b] = &HeadlessBatch{Mesh: m, Transforms: transforms}
	return b, nil
}

// SetInstanceBuffer implements Renderer.
func (h *Headless) SetInstanceBuffer(b BatchHandle, transforms []float32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	batch, ok := h.batches[b]
	if !ok {
		return fmt.Errorf("%w: batch %d", ErrUnknownHandle, b)
	}
	batch.Transforms = transforms
	return nil
}

// DisposeMesh implements Renderer.
func (h *Headless) DisposeMesh(m MeshHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.meshes[m]; !ok {
		return fmt.Errorf("%w: mesh %d", ErrUnknownHandle, m)
	}
	delete(h.meshes, m)
	return nil
}

// DisposeBatch implements Renderer.
func (h *Headless) DisposeBatch(b BatchHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.batches[b]; !ok {
		return fmt.Errorf("%w: batch %d", ErrUnknownHandle, b)
	}
	delete(h.batches, b)
	return nil
}

// RegisterPerFrameCallback implements FrameLoop.
func (h *Headless) RegisterPerFrameCallback(fn FrameFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, fn)
}

// Step runs every registered frame callback once.
func (h *Headless) Step(dt float32) {
	h.mu.Lock()
	frames := append([]FrameFunc(nil), h.frames...)
	h.mu.Unlock()
	for _, fn := range frames {
		fn(dt)
	}
}

// Mesh returns the recorded mesh, if live.
func (h *Headless) Mesh(m MeshHandle) (HeadlessMesh, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	mesh, ok := h.meshes[m]
	if !ok {
		return HeadlessMesh{}, false
	}
	return *mesh, true
}

// Batch returns the recorded batch, if live.
func (h *Headless) Batch(b BatchHandle) (HeadlessBatch, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	batch, ok := h.batches[b]
	if !ok {
		return HeadlessBatch{}, false
	}
	return *batch, true
}

// Batches returns a snapshot of every live batch.
func (h *Headless) Batches() []HeadlessBatch {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HeadlessBatch, 0, len(h.batches))
	for _, b := range h.batches {
		out = append(out, *b)
	}
	return out
}

// Counts returns the number of live meshes and batches.
func (h *Headless) Counts() (meshes, batches int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.meshes), len(h.batches)
}

// Instances sums the instance counts of every live batch.
func (h *Headless) Instances() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, b := range h.batches {
		n += len(b.Transforms) / 16
	}
	return n
}
