// Package scene assembles streamed terrain or a planet with its instanced
// vegetation on top of a render.Renderer.
package scene

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/compute"
	"github.com/Faultbox/verdant/internal/config"
	"github.com/Faultbox/verdant/internal/instancing"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/prototype"
	"github.com/Faultbox/verdant/internal/render"
	"github.com/Faultbox/verdant/internal/terrain"
	"github.com/Faultbox/verdant/internal/transform"
	"github.com/Faultbox/verdant/internal/world"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

const (
	crateSize        = 0.5
	butterflyStride  = 16
	butterflyHeight  = 0.6
	meadowResolution = 12
)

// Stats is a snapshot for overlays and logs.
type Stats struct {
	Chunks       int
	Pending      int
	InFlight     int
	GrassPatches int
	Instances    int
	Vertices     int
	LODPending   int
	Backend      string
}

// Scene owns the world and every instancing manager built on it.
type Scene struct {
	cfg      *config.Config
	renderer render.Renderer
	backend  compute.Backend

	terrain *world.Terrain
	planet  *world.Planet
	field   terrain.Field2D

	grass    *instancing.Manager
	crates   *instancing.Manager
	flutters *instancing.Manager
	meadow   []*instancing.Patch

	rng *rand.Rand
	log *zap.Logger
}

// Field2D returns the height field selected by cfg.
func Field2D(cfg config.TerrainConfig) terrain.Field2D {
	if cfg.Field == "flat" {
		return terrain.Flat{}
	}
	return terrain.Waves{Amplitude: cfg.Amplitude, Frequency: cfg.Frequency}
}

// Field3D returns the planet field selected by cfg.
func Field3D(cfg config.PlanetConfig) terrain.Field3D {
	if cfg.Amplitude == 0 {
		return terrain.FlatSphere{}
	}
	return terrain.SphereWaves{Amplitude: cfg.Amplitude, Frequency: cfg.Frequency}
}

// New builds the scene described by cfg. Options are passed through to the
// world after the backend chosen from cfg.Compute.
func New(cfg *config.Config, r render.Renderer, opts ...world.Option) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scene{
		cfg:      cfg,
		renderer: r,
		backend:  compute.New(compute.Config{Accelerate: cfg.Compute.Accelerate, Workers: cfg.Compute.Workers}),
		rng:      rand.New(rand.NewPCG(cfg.Terrain.Seed, 0x5ce9e)),
		log:      logger.Named("scene"),
	}
	opts = append([]world.Option{world.WithBackend(s.backend)}, opts...)

	if err := s.createManagers(); err != nil {
		return nil, err
	}

	var err error
	if cfg.Planet.Enabled {
		s.planet, err = world.NewPlanet(world.PlanetConfig{
			Radius:     cfg.Planet.Radius,
			Resolution: cfg.Planet.Resolution,
			Density:    cfg.Planet.Density,
			ScaleMin:   cfg.Scatter.ScaleMin,
			ScaleMax:   cfg.Scatter.ScaleMax,
			Seed:       cfg.Terrain.Seed,
		}, Field3D(cfg.Planet), r, opts...)
		if err != nil {
			return nil, fmt.Errorf("planet: %w", err)
		}
		s.planet.OnChunkCreated(s.populate)
		return s, nil
	}

	s.field = Field2D(cfg.Terrain)
	s.terrain, err = world.NewTerrain(world.TerrainConfig{
		ChunkSize:  cfg.Terrain.ChunkSize,
		Resolution: cfg.Terrain.Resolution,
		Density:    cfg.Terrain.Density,
		Hysteresis: cfg.Terrain.Hysteresis,
		ScaleMin:   cfg.Scatter.ScaleMin,
		ScaleMax:   cfg.Scatter.ScaleMax,
		Seed:       cfg.Terrain.Seed,
	}, s.field, r, opts...)
	if err != nil {
		return nil, fmt.Errorf("terrain: %w", err)
	}
	s.terrain.OnChunkCreated(s.populate)
	return s, nil
}

func (s *Scene) createManagers() error {
	low, err := instancing.UploadPrototype(s.renderer, "grass-low", prototype.GrassBlade(s.cfg.LOD.LowStacks))
	if err != nil {
		return err
	}
	high, err := instancing.UploadPrototype(s.renderer, "grass-high", prototype.GrassBlade(s.cfg.LOD.HighStacks))
	if err != nil {
		return err
	}
	if s.grass, err = instancing.NewManager([]instancing.Prototype{low, high}, instancing.DistanceLOD(s.cfg.LOD.NearDistance)); err != nil {
		return err
	}
	s.grass.SetCadence(s.cfg.LOD.Cadence)

	crate, err := instancing.UploadPrototype(s.renderer, "crate", prototype.Crate(crateSize))
	if err != nil {
		return err
	}
	if s.crates, err = instancing.NewManager([]instancing.Prototype{crate}, nil); err != nil {
		return err
	}

	butterfly, err := instancing.UploadPrototype(s.renderer, "butterfly", prototype.Butterfly())
	if err != nil {
		return err
	}
	s.flutters, err = instancing.NewManager([]instancing.Prototype{butterfly}, nil)
	return err
}

// Prototypes lists every uploaded prototype mesh, for renderers that colour
// them.
func (s *Scene) Prototypes() map[string]render.MeshHandle {
	out := make(map[string]render.MeshHandle)
	for _, m := range []*instancing.Manager{s.grass, s.crates, s.flutters} {
		for _, p := range m.Prototypes() {
			out[p.Name] = p.Mesh
		}
	}
	return out
}

// populate attaches instanced content to a freshly built chunk and detaches
// it again when the chunk is disposed.
func (s *Scene) populate(c *world.Chunk) {
	var attached []struct {
		m *instancing.Manager
		p *instancing.Patch
	}
	attach := func(m *instancing.Manager, buf transform.Buffer) {
		if buf.Len() == 0 {
			return
		}
		p := instancing.NewPatch(s.renderer, c.Origin, buf)
		if err := m.AddPatch(p); err != nil {
			s.log.Warn("patch creation failed", zap.Error(err))
			return
		}
		attached = append(attached, struct {
			m *instancing.Manager
			p *instancing.Patch
		}{m, p})
	}

	attach(s.grass, c.AlignedTransforms)
	if c.OnFace {
		if flutters, err := transform.RandomDownSample(c.Transforms, butterflyStride, s.rng); err == nil {
			attach(s.flutters, lift(flutters, vmath.Vec3{}, butterflyHeight))
		}
	} else if s.cfg.Scatter.CrateStride > 0 {
		if crates, err := transform.DownSample(c.Transforms, s.cfg.Scatter.CrateStride); err == nil {
			attach(s.crates, crates)
		}
	}

	c.OnDispose(func(*world.Chunk) {
		for _, a := range attached {
			a.m.RemovePatch(a.p)
			if err := a.p.Dispose(); err != nil {
				s.log.Warn("patch dispose failed", zap.Error(err))
			}
		}
	})
}

// lift moves every instance away from center by height.
func lift(b transform.Buffer, center vmath.Vec3, height float32) transform.Buffer {
	for i := 0; i < b.Len(); i++ {
		pos := b.Translation(i)
		pos = pos.Add(pos.Sub(center).Normalize().Scale(height))
		slot := b.Slot(i)
		slot[12], slot[13], slot[14] = pos.X, pos.Y, pos.Z
	}
	return b
}

// Init builds everything around viewer before the first frame.
func (s *Scene) Init(ctx context.Context, viewer vmath.Vec3) error {
	var errs []error
	if s.planet != nil {
		if err := s.planet.Init(ctx); err != nil {
			if ctx.Err() != nil {
				return err
			}
			errs = append(errs, err)
		}
	} else {
		if _, err := s.terrain.Init(ctx, viewer, s.cfg.Terrain.RenderDistance); err != nil {
			return err
		}
		if s.cfg.Terrain.Field == "flat" && s.cfg.LOD.FieldRadius > 0 {
			s.meadow = instancing.CirclePatches(s.renderer, s.cfg.LOD.FieldRadius, s.cfg.LOD.PatchSize, s.cfg.LOD.PatchGrid, s.rng)
			if err := s.grass.AddPatches(s.meadow...); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := s.grass.InitInstances(viewer); err != nil {
		errs = append(errs, err)
	}

	st := s.Stats()
	s.log.Info("scene initialized",
		zap.Int("chunks", st.Chunks),
		zap.Int("instances", st.Instances),
		zap.Int("vertices", st.Vertices),
		zap.String("backend", st.Backend))
	return errors.Join(errs...)
}

// Update streams terrain and advances LOD rebuilds for one frame.
func (s *Scene) Update(ctx context.Context, viewer vmath.Vec3) {
	if s.terrain != nil {
		st := s.terrain.Update(ctx, viewer, s.cfg.Terrain.RenderDistance, s.cfg.Terrain.CreationRate)
		if st.Built > 0 || st.Evicted > 0 || st.Failed > 0 {
			s.log.Debug("terrain streamed",
				zap.Int("queued", st.Queued),
				zap.Int("built", st.Built),
				zap.Int("evicted", st.Evicted),
				zap.Int("failed", st.Failed))
		}
	}
	s.grass.Update(viewer)
	s.crates.Update(viewer)
	s.flutters.Update(viewer)
}

// Ground returns the terrain height under x, z. Planets report zero.
func (s *Scene) Ground(x, z float32) float32 {
	if s.field == nil {
		return 0
	}
	h, _, _ := s.field.Sample(x, z)
	return h
}

// Planet reports whether the scene shows a planet.
func (s *Scene) Planet() bool { return s.planet != nil }

// Stats returns current counts.
func (s *Scene) Stats() Stats {
	st := Stats{
		GrassPatches: s.grass.Len(),
		LODPending:   s.grass.Pending(),
		Backend:      s.backend.Name(),
	}
	if s.terrain != nil {
		st.Chunks = len(s.terrain.Resident())
		st.Pending = s.terrain.Pending()
		st.InFlight = s.terrain.InFlight()
	} else {
		st.Chunks = len(s.planet.Chunks())
	}
	for _, m := range []*instancing.Manager{s.grass, s.crates, s.flutters} {
		st.Instances += m.InstanceCount()
		st.Vertices += m.VertexCount()
	}
	return st
}

// Dispose releases the world and every patch.
func (s *Scene) Dispose(ctx context.Context) error {
	var errs []error
	if s.terrain != nil {
		errs = append(errs, s.terrain.Dispose(ctx))
	}
	if s.planet != nil {
		errs = append(errs, s.planet.Dispose(ctx))
	}
	for _, m := range []*instancing.Manager{s.grass, s.crates, s.flutters} {
		errs = append(errs, m.Dispose())
	}
	return errors.Join(errs...)
}
