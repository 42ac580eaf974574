package world

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/compute"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/render"
	"github.com/Faultbox/verdant/internal/scatter"
	"github.com/Faultbox/verdant/internal/terrain"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

// PlanetConfig describes a cube-sphere planet.
type PlanetConfig struct {
	Center     vmath.Vec3
	Radius     float32
	Resolution int
	Density    float32
	ScaleMin   float32
	ScaleMax   float32
	Seed       uint64
}

// Validate checks the configuration.
func (c PlanetConfig) Validate() error {
	if !(c.Radius > 0) {
		return fmt.Errorf("radius %v", c.Radius)
	}
	if c.Resolution < 2 {
		return fmt.Errorf("resolution %d", c.Resolution)
	}
	if c.Density < 0 {
		return fmt.Errorf("density %v", c.Density)
	}
	return nil
}

// Planet is six cube-face chunks projected onto a sphere.
type Planet struct {
	cfg      PlanetConfig
	field    terrain.Field3D
	renderer render.Renderer
	deps     deps

	faces     [len(terrain.Faces)]*Chunk
	onCreated []func(*Chunk)
	log       *zap.Logger
}

// NewPlanet validates cfg and returns an unbuilt planet.
func NewPlanet(cfg PlanetConfig, field terrain.Field3D, r render.Renderer, opts ...Option) (*Planet, error) {
	if field == nil {
		return nil, terrain.ErrNoField
	}
	if r == nil {
		return nil, ErrNoRenderer
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("planet config: %w", err)
	}
	return &Planet{
		cfg:      cfg,
		field:    field,
		renderer: r,
		deps:     resolveDeps(opts),
		log:      logger.Named("planet"),
	}, nil
}

// OnChunkCreated registers fn to run for every finished face.
func (p *Planet) OnChunkCreated(fn func(*Chunk)) {
	p.onCreated = append(p.onCreated, fn)
}

// Init builds all six faces and waits for them. A face that fails is logged
// and left empty; the joined failures are returned.
func (p *Planet) Init(ctx context.Context) error {
	for _, face := range terrain.Faces {
		surface := terrain.CubeFaceSurface{Field: p.field, Face: face, Radius: p.cfg.Radius}
		grid := surface.Grid(p.cfg.Resolution)
		origin := p.cfg.Center.Add(surface.Origin())
		c := &Chunk{
			Face:       face,
			OnFace:     true,
			Origin:     origin,
			Rotation:   surface.Rotation(),
			Vertical:   face.Axis(),
			Size:       grid.Size,
			Resolution: p.cfg.Resolution,
			Density:    p.cfg.Density,
		}
		c.start(ctx, p.deps.backend, compute.Request{
			Grid:    grid,
			Surface: surface,
			Scatter: compute.ScatterParams{
				Options: scatter.Options{
					Density:      p.cfg.Density,
					MaxInstances: scatter.MaxInstances(float64(grid.Size)*float64(grid.Size), float64(p.cfg.Density)),
					Origin:       origin,
					Vertical:     scatter.Radial(p.cfg.Center),
					ScaleMin:     p.cfg.ScaleMin,
					ScaleMax:     p.cfg.ScaleMax,
				},
				Seed: chunkSeed(p.cfg.Seed, int(face), -1),
			},
		})
		p.faces[face] = c
	}

	var errs []error
	for _, c := range p.faces {
		res, err := c.pending.Wait(ctx)
		if err == nil {
			err = c.finalize(res, p.renderer, p.deps.collider)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn("planet face failed", zap.Stringer("face", c.Face), zap.Error(err))
			errs = append(errs, fmt.Errorf("face %v: %w", c.Face, err))
			if derr := c.Dispose(ctx); derr != nil {
				p.log.Warn("planet face dispose failed", zap.Stringer("face", c.Face), zap.Error(derr))
			}
			p.faces[c.Face] = nil
			continue
		}
		for _, fn := range p.onCreated {
			fn(c)
		}
	}
	p.log.Info("planet initialized",
		zap.Float32("radius", p.cfg.Radius),
		zap.Int("faces", len(p.Chunks())),
		zap.Int("instances", p.InstanceCount()))
	return errors.Join(errs...)
}

// Chunks returns the built faces.
func (p *Planet) Chunks() []*Chunk {
	var out []*Chunk
	for _, c := range p.faces {
		if c != nil && c.Ready() {
			out = append(out, c)
		}
	}
	return out
}

// Face returns the chunk of one face.
func (p *Planet) Face(f terrain.Face) (*Chunk, bool) {
	if f < terrain.Front || f > terrain.Bottom {
		return nil, false
	}
	c := p.faces[f]
	return c, c != nil && c.Ready()
}

// InstanceCount sums the scattered instances of every face.
func (p *Planet) InstanceCount() int {
	n := 0
	for _, c := range p.Chunks() {
		n += c.Transforms.Len()
	}
	return n
}

// Dispose disposes every face.
func (p *Planet) Dispose(ctx context.Context) error {
	var errs []error
	for i, c := range p.faces {
		if c == nil {
			continue
		}
		if err := c.Dispose(ctx); err != nil {
			errs = append(errs, err)
		}
		p.faces[i] = nil
	}
	return errors.Join(errs...)
}
