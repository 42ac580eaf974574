package world

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/compute"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/render"
	"github.com/Faultbox/verdant/internal/scatter"
	"github.com/Faultbox/verdant/internal/terrain"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

// TerrainConfig describes streamed flat terrain.
type TerrainConfig struct {
	ChunkSize  float32
	Resolution int
	Density    float32
	// Hysteresis widens the eviction radius, in chunks.
	Hysteresis float32
	ScaleMin   float32
	ScaleMax   float32
	Seed       uint64
}

// Validate checks the configuration.
func (c TerrainConfig) Validate() error {
	if !(c.ChunkSize > 0) {
		return fmt.Errorf("chunk size %v", c.ChunkSize)
	}
	if err := (terrain.Grid{Resolution: c.Resolution, Size: c.ChunkSize}).Validate(); err != nil {
		return err
	}
	if c.Density < 0 {
		return fmt.Errorf("density %v", c.Density)
	}
	if c.Hysteresis < 0 {
		return fmt.Errorf("hysteresis %v", c.Hysteresis)
	}
	return nil
}

// UpdateStats summarizes one streaming step.
type UpdateStats struct {
	Queued  int
	Built   int
	Evicted int
	Failed  int
}

// Terrain streams chunks of a flat height field around a viewer.
//
// Cells in range but not yet built hold a nil placeholder in the chunk map so
// they are queued once. Builds that fail are remembered and not retried until
// the cell leaves range.
type Terrain struct {
	cfg      TerrainConfig
	field    terrain.Field2D
	renderer render.Renderer
	deps     deps

	chunks   map[GridCoord]*Chunk
	queue    []GridCoord
	building []*Chunk
	failed   map[GridCoord]struct{}

	onCreated []func(*Chunk)
	log       *zap.Logger
}

// NewTerrain validates cfg and returns an empty streaming terrain.
func NewTerrain(cfg TerrainConfig, field terrain.Field2D, r render.Renderer, opts ...Option) (*Terrain, error) {
	if field == nil {
		return nil, terrain.ErrNoField
	}
	if r == nil {
		return nil, ErrNoRenderer
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("terrain config: %w", err)
	}
	return &Terrain{
		cfg:      cfg,
		field:    field,
		renderer: r,
		deps:     resolveDeps(opts),
		chunks:   make(map[GridCoord]*Chunk),
		failed:   make(map[GridCoord]struct{}),
		log:      logger.Named("terrain"),
	}, nil
}

// OnChunkCreated registers fn to run for every finished chunk.
func (t *Terrain) OnChunkCreated(fn func(*Chunk)) {
	t.onCreated = append(t.onCreated, fn)
}

// GridPosition returns the cell containing a world position. Positions on a
// cell border round towards positive infinity on both axes.
func (t *Terrain) GridPosition(pos vmath.Vec3) GridCoord {
	return GridCoord{
		X: roundHalfUp(pos.X / t.cfg.ChunkSize),
		Z: roundHalfUp(pos.Z / t.cfg.ChunkSize),
	}
}

func roundHalfUp(v float32) int {
	return int(math.Floor(float64(v) + 0.5))
}

// Init schedules every cell within radius of viewer and builds all of them
// before returning.
func (t *Terrain) Init(ctx context.Context, viewer vmath.Vec3, radius float32) (UpdateStats, error) {
	stats := t.schedule(ctx, viewer, radius)
	for len(t.queue) > 0 {
		t.startNext(ctx)
	}
	for _, c := range t.building {
		if _, err := c.pending.Wait(ctx); err != nil && ctx.Err() != nil {
			return stats, err
		}
	}
	t.collect(&stats)
	t.log.Info("terrain initialized",
		zap.Int("chunks", stats.Built),
		zap.Int("failed", stats.Failed),
		zap.String("backend", t.deps.backend.Name()))
	return stats, nil
}

// Update evicts chunks out of range, queues new cells, collects finished
// builds and starts at most creationRate queued builds. A failing chunk is
// logged and skipped without affecting the others.
func (t *Terrain) Update(ctx context.Context, viewer vmath.Vec3, radius float32, creationRate int) UpdateStats {
	stats := t.schedule(ctx, viewer, radius)
	t.collect(&stats)
	for i := 0; i < creationRate && len(t.queue) > 0; i++ {
		t.startNext(ctx)
	}
	t.collect(&stats)
	return stats
}

// schedule evicts out-of-range chunks and queues in-range cells.
func (t *Terrain) schedule(ctx context.Context, viewer vmath.Vec3, radius float32) UpdateStats {
	var stats UpdateStats
	center := t.GridPosition(viewer)
	keep := radius + t.cfg.Hysteresis
	keepSq := float64(keep) * float64(keep)

	for coord, c := range t.chunks {
		if float64(coord.DistSq(center)) <= keepSq {
			continue
		}
		delete(t.chunks, coord)
		if c == nil {
			t.dequeue(coord)
			continue
		}
		if err := c.Dispose(ctx); err != nil {
			t.log.Warn("chunk dispose failed", zap.Stringer("coord", coord), zap.Error(err))
		}
		t.dropBuilding(c)
		stats.Evicted++
		t.log.Debug("chunk evicted", zap.Stringer("coord", coord))
	}
	for coord := range t.failed {
		if float64(coord.DistSq(center)) > keepSq {
			delete(t.failed, coord)
		}
	}

	r := int(math.Ceil(float64(radius)))
	rSq := float64(radius) * float64(radius)
	for x := -r; x <= r; x++ {
		for z := -r; z <= r; z++ {
			if float64(x*x+z*z) > rSq {
				continue
			}
			coord := GridCoord{X: center.X + x, Z: center.Z + z}
			if _, ok := t.chunks[coord]; ok {
				continue
			}
			if _, ok := t.failed[coord]; ok {
				continue
			}
			t.chunks[coord] = nil
			t.queue = append(t.queue, coord)
			stats.Queued++
		}
	}
	return stats
}

func (t *Terrain) dequeue(coord GridCoord) {
	for i, q := range t.queue {
		if q == coord {
			t.queue = append(t.queue[:i], t.queue[i+1:]...)
			return
		}
	}
}

func (t *Terrain) dropBuilding(c *Chunk) {
	for i, b := range t.building {
		if b == c {
			t.building = append(t.building[:i], t.building[i+1:]...)
			return
		}
	}
}

// startNext pops the queue head and dispatches its build.
func (t *Terrain) startNext(ctx context.Context) {
	coord := t.queue[0]
	t.queue = t.queue[1:]

	origin := vmath.Vec3{X: float32(coord.X) * t.cfg.ChunkSize, Z: float32(coord.Z) * t.cfg.ChunkSize}
	c := &Chunk{
		Coord:      coord,
		Origin:     origin,
		Rotation:   vmath.QuatIdentity(),
		Vertical:   vmath.UnitY,
		Size:       t.cfg.ChunkSize,
		Resolution: t.cfg.Resolution,
		Density:    t.cfg.Density,
	}
	grid := terrain.Grid{Resolution: t.cfg.Resolution, Size: t.cfg.ChunkSize}
	c.start(ctx, t.deps.backend, compute.Request{
		Grid:    grid,
		Surface: terrain.FlatSurface{Field: t.field, Position: origin},
		Scatter: compute.ScatterParams{
			Options: scatter.Options{
				Density:      t.cfg.Density,
				MaxInstances: scatter.MaxInstances(float64(grid.Size)*float64(grid.Size), float64(t.cfg.Density)),
				Origin:       origin,
				ScaleMin:     t.cfg.ScaleMin,
				ScaleMax:     t.cfg.ScaleMax,
			},
			Seed: chunkSeed(t.cfg.Seed, coord.X, coord.Z),
		},
	})
	t.chunks[coord] = c
	t.building = append(t.building, c)
}

// collect finalizes every build whose result is ready.
func (t *Terrain) collect(stats *UpdateStats) {
	pending := t.building[:0]
	for _, c := range t.building {
		if !c.pending.Ready() {
			pending = append(pending, c)
			continue
		}
		res, err := c.pending.Result()
		if err == nil {
			err = c.finalize(res, t.renderer, t.deps.collider)
		}
		if err != nil {
			t.fail(c, err)
			stats.Failed++
			continue
		}
		stats.Built++
		t.log.Debug("chunk built",
			zap.Stringer("coord", c.Coord),
			zap.Int("instances", c.Transforms.Len()))
		for _, fn := range t.onCreated {
			fn(c)
		}
	}
	t.building = pending
}

func (t *Terrain) fail(c *Chunk, err error) {
	t.log.Warn("chunk build failed", zap.Stringer("coord", c.Coord), zap.Error(err))
	delete(t.chunks, c.Coord)
	t.failed[c.Coord] = struct{}{}
	if derr := c.Dispose(context.Background()); derr != nil {
		t.log.Warn("chunk dispose failed", zap.Stringer("coord", c.Coord), zap.Error(derr))
	}
}

// Chunk returns the finished chunk at coord.
func (t *Terrain) Chunk(coord GridCoord) (*Chunk, bool) {
	c, ok := t.chunks[coord]
	if !ok || c == nil || !c.Ready() {
		return nil, false
	}
	return c, true
}

// Resident returns the coordinates of every finished chunk.
func (t *Terrain) Resident() []GridCoord {
	var out []GridCoord
	for coord, c := range t.chunks {
		if c != nil && c.Ready() {
			out = append(out, coord)
		}
	}
	return out
}

// Pending returns the number of queued cells.
func (t *Terrain) Pending() int { return len(t.queue) }

// InFlight returns the number of dispatched builds not yet collected.
func (t *Terrain) InFlight() int { return len(t.building) }

// Failed reports whether coord is blocked after a failed build.
func (t *Terrain) Failed(coord GridCoord) bool {
	_, ok := t.failed[coord]
	return ok
}

// Dispose disposes every chunk and clears the queue.
func (t *Terrain) Dispose(ctx context.Context) error {
	var errs []error
	for coord, c := range t.chunks {
		if c != nil {
			if err := c.Dispose(ctx); err != nil {
				errs = append(errs, fmt.Errorf("chunk %v: %w", coord, err))
			}
		}
		delete(t.chunks, coord)
	}
	t.queue = nil
	t.building = nil
	return errors.Join(errs...)
}
