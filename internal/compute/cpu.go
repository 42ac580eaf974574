package compute

import (
	"context"
	"math/rand/v2"

	"github.com/Faultbox/verdant/internal/geometry"
	"github.com/Faultbox/verdant/internal/scatter"
	"github.com/Faultbox/verdant/internal/terrain"
)

// CPU runs everything synchronously on the calling goroutine and returns
// futures that are already resolved.
type CPU struct{}

// Name implements Backend.
func (CPU) Name() string { return "cpu" }

// Supported implements Backend.
func (CPU) Supported() bool { return true }

// Tessellate implements Backend.
func (CPU) Tessellate(ctx context.Context, grid terrain.Grid, surface terrain.Surface) *Future[*geometry.MeshBuffer] {
	if err := ctx.Err(); err != nil {
		return Resolved[*geometry.MeshBuffer](nil, err)
	}
	mesh, err := terrain.Tessellate(grid, surface, nil)
	return Resolved(mesh, err)
}

// Scatter implements Backend.
func (CPU) Scatter(ctx context.Context, mesh *geometry.MeshBuffer, params ScatterParams) *Future[Instances] {
	if err := ctx.Err(); err != nil {
		return Resolved(Instances{}, err)
	}
	v, a, err := scatter.Mesh(mesh, params.Options, rand.New(rand.NewPCG(seedPair(params.Seed, 0))))
	return Resolved(Instances{Vertical: v, Aligned: a}, err)
}

// Build implements Backend. Scatter runs inside the tessellation pass.
func (CPU) Build(ctx context.Context, req Request) *Future[*Result] {
	if err := ctx.Err(); err != nil {
		return Resolved[*Result](nil, err)
	}
	gen, err := scatter.NewGenerator(req.Scatter.Options, rand.New(rand.NewPCG(seedPair(req.Scatter.Seed, 0))))
	if err != nil {
		return Resolved[*Result](nil, err)
	}
	mesh, err := terrain.Tessellate(req.Grid, req.Surface, gen.Triangle)
	if err != nil {
		return Resolved[*Result](nil, err)
	}
	v, a := gen.Result()
	return Resolved(&Result{Mesh: mesh, Instances: Instances{Vertical: v, Aligned: a}}, nil)
}
