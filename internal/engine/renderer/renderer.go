// Package renderer provides the OpenGL implementation of render.Renderer.
package renderer

import (
	"fmt"
	"sort"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/engine/shader"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/render"
	"github.com/Faultbox/verdant/internal/transform"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Color is a linear RGB colour.
type Color [3]float32

var (
	DefaultMeshColor     = Color{0.36, 0.42, 0.22}
	DefaultInstanceColor = Color{0.32, 0.62, 0.18}
)

type glMesh struct {
	vao, vbo, nbo, ebo uint32
	count              int32
	origin             vmath.Vec3
	visible            bool
	color              Color
}

type glBatch struct {
	mesh      render.MeshHandle
	vao, ibo  uint32
	instances int32
}

// Renderer uploads meshes and instance batches to the GPU and draws them.
type Renderer struct {
	config Config

	meshProgram     *shader.Program
	instanceProgram *shader.Program

	meshes  map[render.MeshHandle]*glMesh
	batches map[render.BatchHandle]*glBatch
	next    uint32

	log *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:  cfg,
		meshes:  make(map[render.MeshHandle]*glMesh),
		batches: make(map[render.BatchHandle]*glBatch),
		log:     logger.Named("render"),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(0.55, 0.7, 0.85, 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	var err error
	if r.meshProgram, err = shader.New(meshVertexShader, litFragmentShader); err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	if r.instanceProgram, err = shader.New(instanceVertexShader, litFragmentShader); err != nil {
		r.meshProgram.Delete()
		return nil, fmt.Errorf("instance shader: %w", err)
	}

	return r, nil
}

func (r *Renderer) handle() uint32 {
	r.next++
	return r.next
}

// ApplyMeshBuffer uploads positions, normals and indices into a new VAO.
func (r *Renderer) ApplyMeshBuffer(data render.MeshData) (render.MeshHandle, error) {
	if len(data.Positions) != len(data.Normals) || len(data.Positions)%3 != 0 {
		return 0, fmt.Errorf("mesh buffer: %d positions, %d normals", len(data.Positions), len(data.Normals))
	}
	if len(data.Indices) == 0 {
		return 0, fmt.Errorf("mesh buffer: no indices")
	}

	m := &glMesh{
		count:   int32(len(data.Indices)),
		origin:  data.Origin,
		visible: true,
		color:   DefaultMeshColor,
	}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	m.vbo = uploadAttribute(0, data.Positions)
	m.nbo = uploadAttribute(1, data.Normals)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, gl.Ptr(data.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	h := render.MeshHandle(r.handle())
	r.meshes[h] = m
	r.log.Debug("mesh uploaded",
		zap.Uint32("handle", uint32(h)),
		zap.Int("vertices", len(data.Positions)/3),
		zap.Int32("indices", m.count),
	)
	return h, nil
}

func uploadAttribute(location uint32, values []float32) uint32 {
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	gl.BufferData(gl.ARRAY_BUFFER, len(values)*4, gl.Ptr(values), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(location, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(location)
	return buf
}

// SetMeshVisible toggles whether the mesh itself is drawn. Instance batches
// of the mesh are unaffected.
func (r *Renderer) SetMeshVisible(h render.MeshHandle, visible bool) error {
	m, ok := r.meshes[h]
	if !ok {
		return fmt.Errorf("mesh %d: %w", h, render.ErrUnknownHandle)
	}
	m.visible = visible
	return nil
}

// SetMeshColor sets the colour used for the mesh and its instances.
func (r *Renderer) SetMeshColor(h render.MeshHandle, c Color) error {
	m, ok := r.meshes[h]
	if !ok {
		return fmt.Errorf("mesh %d: %w", h, render.ErrUnknownHandle)
	}
	m.color = c
	return nil
}

// CreateInstanceBatch binds the mesh geometry and a per-instance matrix
// buffer into a new VAO.
func (r *Renderer) CreateInstanceBatch(h render.MeshHandle, transforms []float32) (render.BatchHandle, error) {
	m, ok := r.meshes[h]
	if !ok {
		return 0, fmt.Errorf("mesh %d: %w", h, render.ErrUnknownHandle)
	}

	b := &glBatch{mesh: h}
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.nbo)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(1)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)

	// One mat4 per instance occupies locations 2..5.
	gl.GenBuffers(1, &b.ibo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.ibo)
	for col := uint32(0); col < 4; col++ {
		loc := 2 + col
		gl.VertexAttribPointerWithOffset(loc, 4, gl.FLOAT, false, transform.Stride*4, uintptr(col*16))
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribDivisor(loc, 1)
	}
	gl.BindVertexArray(0)

	r.fill(b, transforms)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	bh := render.BatchHandle(r.handle())
	r.batches[bh] = b
	return bh, nil
}

func (r *Renderer) fill(b *glBatch, transforms []float32) {
	b.instances = int32(len(transforms) / transform.Stride)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.ibo)
	if len(transforms) == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.DYNAMIC_DRAW)
		return
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(transforms)*4, gl.Ptr(transforms), gl.DYNAMIC_DRAW)
}

// SetInstanceBuffer replaces the instance matrices of a batch.
func (r *Renderer) SetInstanceBuffer(h render.BatchHandle, transforms []float32) error {
	b, ok := r.batches[h]
	if !ok {
		return fmt.Errorf("batch %d: %w", h, render.ErrUnknownHandle)
	}
	r.fill(b, transforms)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return nil
}

// DisposeMesh deletes the mesh buffers. Batches still referencing the mesh
// stop drawing.
func (r *Renderer) DisposeMesh(h render.MeshHandle) error {
	m, ok := r.meshes[h]
	if !ok {
		return fmt.Errorf("mesh %d: %w", h, render.ErrUnknownHandle)
	}
	gl.DeleteVertexArrays(1, &m.vao)
	buffers := []uint32{m.vbo, m.nbo, m.ebo}
	gl.DeleteBuffers(int32(len(buffers)), &buffers[0])
	delete(r.meshes, h)
	return nil
}

// DisposeBatch deletes the batch VAO and instance buffer.
func (r *Renderer) DisposeBatch(h render.BatchHandle) error {
	b, ok := r.batches[h]
	if !ok {
		return fmt.Errorf("batch %d: %w", h, render.ErrUnknownHandle)
	}
	gl.DeleteVertexArrays(1, &b.vao)
	gl.DeleteBuffers(1, &b.ibo)
	delete(r.batches, h)
	return nil
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Size returns the current viewport size.
func (r *Renderer) Size() (int, int) { return r.config.Width, r.config.Height }

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

// Stats reports resident meshes, batches and instances.
type Stats struct {
	Meshes    int
	Batches   int
	Instances int
}

// Stats returns current resource counts.
func (r *Renderer) Stats() Stats {
	s := Stats{Meshes: len(r.meshes), Batches: len(r.batches)}
	for _, b := range r.batches {
		s.Instances += int(b.instances)
	}
	return s
}

// Draw renders every visible mesh and every batch.
func (r *Renderer) Draw(viewProj vmath.Mat4, lightDir vmath.Vec3) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.meshProgram.Use()
	r.meshProgram.SetMat4("uViewProj", viewProj)
	r.meshProgram.SetVec3("uLightDir", lightDir)
	for _, h := range sortedMeshes(r.meshes) {
		m := r.meshes[h]
		if !m.visible {
			continue
		}
		r.meshProgram.SetVec3("uOrigin", m.origin)
		r.meshProgram.SetVec3("uColor", vmath.Vec3{X: m.color[0], Y: m.color[1], Z: m.color[2]})
		gl.BindVertexArray(m.vao)
		gl.DrawElements(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, nil)
	}

	r.instanceProgram.Use()
	r.instanceProgram.SetMat4("uViewProj", viewProj)
	r.instanceProgram.SetVec3("uLightDir", lightDir)
	for _, b := range r.batches {
		m, ok := r.meshes[b.mesh]
		if !ok || b.instances == 0 {
			continue
		}
		c := m.color
		if c == DefaultMeshColor {
			c = DefaultInstanceColor
		}
		r.instanceProgram.SetVec3("uColor", vmath.Vec3{X: c[0], Y: c[1], Z: c[2]})
		gl.BindVertexArray(b.vao)
		gl.DrawElementsInstanced(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, nil, b.instances)
	}
	gl.BindVertexArray(0)
}

func sortedMeshes(m map[render.MeshHandle]*glMesh) []render.MeshHandle {
	keys := make([]render.MeshHandle, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer", zap.Int("meshes", len(r.meshes)), zap.Int("batches", len(r.batches)))
	for h := range r.batches {
		_ = r.DisposeBatch(h)
	}
	for h := range r.meshes {
		_ = r.DisposeMesh(h)
	}
	r.meshProgram.Delete()
	r.instanceProgram.Delete()
}
