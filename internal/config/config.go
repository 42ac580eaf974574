// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Terrain TerrainConfig `yaml:"terrain"`
	Planet  PlanetConfig  `yaml:"planet"`
	Scatter ScatterConfig `yaml:"scatter"`
	LOD     LODConfig     `yaml:"lod"`
	Compute ComputeConfig `yaml:"compute"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Samples    int  `yaml:"samples"` // MSAA, 0 disables
	ShowStats  bool `yaml:"show_stats"`
}

// TerrainConfig holds chunked terrain streaming settings.
type TerrainConfig struct {
	ChunkSize      float32 `yaml:"chunk_size"`
	Resolution     int     `yaml:"resolution"`
	Density        float32 `yaml:"density"`
	RenderDistance float32 `yaml:"render_distance"` // in chunks
	CreationRate   int     `yaml:"creation_rate"`   // chunk builds started per frame
	Hysteresis     float32 `yaml:"hysteresis"`
	Field          string  `yaml:"field"` // "flat" or "waves"
	Amplitude      float32 `yaml:"amplitude"`
	Frequency      float32 `yaml:"frequency"`
	Seed           uint64  `yaml:"seed"`
}

// PlanetConfig holds cube-sphere planet settings.
type PlanetConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Radius     float32 `yaml:"radius"`
	Resolution int     `yaml:"resolution"`
	Density    float32 `yaml:"density"`
	Amplitude  float32 `yaml:"amplitude"`
	Frequency  float32 `yaml:"frequency"`
}

// ScatterConfig holds instance placement settings.
type ScatterConfig struct {
	ScaleMin    float32 `yaml:"scale_min"`
	ScaleMax    float32 `yaml:"scale_max"`
	CrateStride int     `yaml:"crate_stride"` // 0 disables crates
}

// LODConfig holds grass level-of-detail settings.
type LODConfig struct {
	Cadence      int     `yaml:"cadence"`
	NearDistance float32 `yaml:"near_distance"`
	HighStacks   int     `yaml:"high_stacks"`
	LowStacks    int     `yaml:"low_stacks"`
	FieldRadius  int     `yaml:"field_radius"` // in patches
	PatchSize    float32 `yaml:"patch_size"`
	PatchGrid    int     `yaml:"patch_grid"`
}

// ComputeConfig holds build backend settings.
type ComputeConfig struct {
	Accelerate bool `yaml:"accelerate"`
	Workers    int  `yaml:"workers"` // 0 uses GOMAXPROCS
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:   1280,
			Height:  720,
			VSync:   true,
			Samples: 4,
		},
		Terrain: TerrainConfig{
			ChunkSize:      20,
			Resolution:     16,
			Density:        0.2,
			RenderDistance: 3,
			CreationRate:   1,
			Hysteresis:     1,
			Field:          "waves",
			Amplitude:      0.5,
			Frequency:      0.1,
			Seed:           1,
		},
		Planet: PlanetConfig{
			Radius:     10,
			Resolution: 64,
			Density:    0.5,
			Amplitude:  0.2,
			Frequency:  2,
		},
		Scatter: ScatterConfig{
			ScaleMin:    0.9,
			ScaleMax:    1.1,
			CrateStride: 64,
		},
		LOD: LODConfig{
			Cadence:      1,
			NearDistance: 15,
			HighStacks:   5,
			LowStacks:    1,
			FieldRadius:  4,
			PatchSize:    5,
			PatchGrid:    12,
		},
		Compute: ComputeConfig{
			Accelerate: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first invalid value, wrapping ErrInvalid.
func (c *Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Window.Samples < 0 || c.Window.Samples > 16:
		return fmt.Errorf("%w: window.samples %d", ErrInvalid, c.Window.Samples)
	case c.Terrain.ChunkSize <= 0:
		return fmt.Errorf("%w: terrain.chunk_size %v", ErrInvalid, c.Terrain.ChunkSize)
	case c.Terrain.Resolution < 2:
		return fmt.Errorf("%w: terrain.resolution %d", ErrInvalid, c.Terrain.Resolution)
	case c.Terrain.Density < 0:
		return fmt.Errorf("%w: terrain.density %v", ErrInvalid, c.Terrain.Density)
	case c.Terrain.RenderDistance < 0:
		return fmt.Errorf("%w: terrain.render_distance %v", ErrInvalid, c.Terrain.RenderDistance)
	case c.Terrain.CreationRate < 1:
		return fmt.Errorf("%w: terrain.creation_rate %d", ErrInvalid, c.Terrain.CreationRate)
	case c.Terrain.Hysteresis < 0:
		return fmt.Errorf("%w: terrain.hysteresis %v", ErrInvalid, c.Terrain.Hysteresis)
	case c.Terrain.Field != "flat" && c.Terrain.Field != "waves":
		return fmt.Errorf("%w: terrain.field %q", ErrInvalid, c.Terrain.Field)
	case c.Planet.Radius <= 0:
		return fmt.Errorf("%w: planet.radius %v", ErrInvalid, c.Planet.Radius)
	case c.Planet.Resolution < 2:
		return fmt.Errorf("%w: planet.resolution %d", ErrInvalid, c.Planet.Resolution)
	case c.Planet.Density < 0:
		return fmt.Errorf("%w: planet.density %v", ErrInvalid, c.Planet.Density)
	case c.Scatter.ScaleMin <= 0 || c.Scatter.ScaleMax < c.Scatter.ScaleMin:
		return fmt.Errorf("%w: scatter scale range [%v, %v]", ErrInvalid, c.Scatter.ScaleMin, c.Scatter.ScaleMax)
	case c.Scatter.CrateStride < 0:
		return fmt.Errorf("%w: scatter.crate_stride %d", ErrInvalid, c.Scatter.CrateStride)
	case c.LOD.Cadence < 1:
		return fmt.Errorf("%w: lod.cadence %d", ErrInvalid, c.LOD.Cadence)
	case c.LOD.HighStacks < 1 || c.LOD.LowStacks < 1:
		return fmt.Errorf("%w: lod stacks %d/%d", ErrInvalid, c.LOD.HighStacks, c.LOD.LowStacks)
	case c.LOD.PatchSize <= 0 || c.LOD.PatchGrid < 1 || c.LOD.FieldRadius < 0:
		return fmt.Errorf("%w: lod patch field", ErrInvalid)
	case c.Compute.Workers < 0:
		return fmt.Errorf("%w: compute.workers %d", ErrInvalid, c.Compute.Workers)
	}
	return nil
}
