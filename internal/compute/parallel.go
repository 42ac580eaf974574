package compute

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/Faultbox/verdant/internal/geometry"
	"github.com/Faultbox/verdant/internal/scatter"
	"github.com/Faultbox/verdant/internal/terrain"
	"github.com/Faultbox/verdant/internal/transform"
)

// Parallel spreads a build over a pool of goroutines. Vertices and triangles
// are written by grid row into preallocated slices. Instance counts come from
// one sequential carry pass, after which every triangle owns a fixed range of
// the output buffers and rows are sampled independently.
type Parallel struct {
	workers int
}

// NewParallel returns a backend with the given pool size. Zero or less uses
// one worker per CPU.
func NewParallel(workers int) *Parallel {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Parallel{workers: workers}
}

// Name implements Backend.
func (p *Parallel) Name() string { return fmt.Sprintf("parallel(%d)", p.workers) }

// Supported implements Backend. A single worker gains nothing over CPU.
func (p *Parallel) Supported() bool { return p.workers > 1 }

// forEach runs fn for 0..n-1 on the pool and stops early when ctx ends.
func (p *Parallel) forEach(ctx context.Context, n int, fn func(i int)) error {
	work := make(chan int, n)
	for i := 0; i < n; i++ {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	wg.Add(p.workers)
	for w := 0; w < p.workers; w++ {
		go func() {
			defer wg.Done()
			for i := range work {
				if ctx.Err() != nil {
					return
				}
				fn(i)
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (p *Parallel) tessellate(ctx context.Context, grid terrain.Grid, surface terrain.Surface) (*geometry.MeshBuffer, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if err := surface.Validate(); err != nil {
		return nil, err
	}
	n := grid.Resolution
	mesh := &geometry.MeshBuffer{
		Positions: make([]float32, grid.VertexCount()*3),
		Normals:   make([]float32, grid.VertexCount()*3),
		Indices:   make([]uint32, grid.TriangleCount()*3),
		Areas:     make([]float32, grid.TriangleCount()),
	}

	err := p.forEach(ctx, n, func(x int) {
		for y := 0; y < n; y++ {
			u, v := grid.Local(x, y)
			pos, normal := surface.Vertex(u, v)
			o := (x*n + y) * 3
			mesh.Positions[o], mesh.Positions[o+1], mesh.Positions[o+2] = pos.X, pos.Y, pos.Z
			mesh.Normals[o], mesh.Normals[o+1], mesh.Normals[o+2] = normal.X, normal.Y, normal.Z
		}
	})
	if err != nil {
		return nil, err
	}

	// same triangle order as terrain.Tessellate
	err = p.forEach(ctx, n-1, func(row int) {
		x := row + 1
		for y := 1; y < n; y++ {
			tri := ((x-1)*(n-1) + (y - 1)) * 2
			for k, t := range terrain.CellTriangles(n, x, y) {
				copy(mesh.Indices[(tri+k)*3:], t[:])
				mesh.Areas[tri+k] = geometry.TriangleAreaAt(mesh.Positions, t[0], t[1], t[2])
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return mesh, nil
}

func (p *Parallel) scatter(ctx context.Context, mesh *geometry.MeshBuffer, params ScatterParams) (Instances, error) {
	if err := params.Options.Validate(); err != nil {
		return Instances{}, err
	}
	opts := params.Options.WithDefaults()

	tris := mesh.TriangleCount()
	offsets := make([]int, tris+1)
	var carry float64
	for t := 0; t < tris; t++ {
		area := triangleArea(mesh, t)
		var n int
		n, carry = scatter.Split(area, opts.Density, carry)
		offsets[t+1] = offsets[t] + n
	}
	total := offsets[tris]
	if opts.MaxInstances > 0 && total >= opts.MaxInstances {
		return Instances{}, fmt.Errorf("%w: %d reaches %d", scatter.ErrCapacity, total, opts.MaxInstances)
	}

	out := Instances{
		Vertical: transform.NewBuffer(total),
		Aligned:  transform.NewBuffer(total),
	}
	const block = 256
	blocks := (tris + block - 1) / block
	err := p.forEach(ctx, blocks, func(b int) {
		rng := rand.New(rand.NewPCG(seedPair(params.Seed, uint64(b)+1)))
		end := min((b+1)*block, tris)
		for t := b * block; t < end; t++ {
			i1, i2, i3 := mesh.Indices[3*t], mesh.Indices[3*t+1], mesh.Indices[3*t+2]
			for slot := offsets[t]; slot < offsets[t+1]; slot++ {
				v, a := scatter.Sample(mesh, i1, i2, i3, opts, rng)
				out.Vertical.Set(slot, v)
				out.Aligned.Set(slot, a)
			}
		}
	})
	if err != nil {
		return Instances{}, err
	}
	return out, nil
}

func triangleArea(mesh *geometry.MeshBuffer, t int) float32 {
	if t < len(mesh.Areas) {
		return mesh.Areas[t]
	}
	return geometry.TriangleAreaAt(mesh.Positions, mesh.Indices[3*t], mesh.Indices[3*t+1], mesh.Indices[3*t+2])
}

// Tessellate implements Backend.
func (p *Parallel) Tessellate(ctx context.Context, grid terrain.Grid, surface terrain.Surface) *Future[*geometry.MeshBuffer] {
	f := newFuture[*geometry.MeshBuffer]()
	go func() { f.resolve(p.tessellate(ctx, grid, surface)) }()
	return f
}

// Scatter implements Backend.
func (p *Parallel) Scatter(ctx context.Context, mesh *geometry.MeshBuffer, params ScatterParams) *Future[Instances] {
	f := newFuture[Instances]()
	go func() { f.resolve(p.scatter(ctx, mesh, params)) }()
	return f
}

// Build implements Backend. Scattering is chained after tessellation.
func (p *Parallel) Build(ctx context.Context, req Request) *Future[*Result] {
	return Then(p.Tessellate(ctx, req.Grid, req.Surface), func(mesh *geometry.MeshBuffer) (*Result, error) {
		inst, err := p.scatter(ctx, mesh, req.Scatter)
		if err != nil {
			return nil, err
		}
		return &Result{Mesh: mesh, Instances: inst}, nil
	})
}
