// Package compute runs chunk tessellation and scatter on interchangeable
// backends. Callers get the same mesh and buffer contracts whichever backend
// did the work.
package compute

import (
	"context"
	"runtime"

	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/geometry"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/scatter"
	"github.com/Faultbox/verdant/internal/terrain"
	"github.com/Faultbox/verdant/internal/transform"
)

// ScatterParams configures the scatter half of a build.
type ScatterParams struct {
	Options scatter.Options
	Seed    uint64
}

// Request describes one chunk build.
type Request struct {
	Grid    terrain.Grid
	Surface terrain.Surface
	Scatter ScatterParams
}

// Instances holds the two transform buffers of a scatter pass.
type Instances struct {
	Vertical transform.Buffer
	Aligned  transform.Buffer
}

// Result is a finished chunk build.
type Result struct {
	Mesh *geometry.MeshBuffer
	Instances
}

// Backend executes builds. Tessellate and Scatter can be dispatched on their
// own. Build runs both with the mesh finished before scatter starts.
type Backend interface {
	Name() string
	Supported() bool
	Tessellate(ctx context.Context, grid terrain.Grid, surface terrain.Surface) *Future[*geometry.MeshBuffer]
	Scatter(ctx context.Context, mesh *geometry.MeshBuffer, params ScatterParams) *Future[Instances]
	Build(ctx context.Context, req Request) *Future[*Result]
}

// Config selects a backend.
type Config struct {
	Accelerate bool
	Workers    int
}

// New returns the parallel backend when requested and supported, and the
// CPU backend otherwise.
func New(cfg Config) Backend {
	log := logger.Named("compute")
	if cfg.Accelerate {
		p := NewParallel(cfg.Workers)
		if p.Supported() {
			log.Info("compute backend selected", zap.String("backend", p.Name()), zap.Int("workers", p.workers))
			return p
		}
		log.Info("accelerated backend unsupported, using CPU", zap.Int("cpus", runtime.NumCPU()))
	}
	cpu := CPU{}
	log.Info("compute backend selected", zap.String("backend", cpu.Name()))
	return cpu
}

// seedPair expands a chunk seed into the two words of a PCG source.
func seedPair(seed uint64, stream uint64) (uint64, uint64) {
	return seed, seed ^ (0x9e3779b97f4a7c15 * (stream + 1))
}
