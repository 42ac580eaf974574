package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Samples != 4 {
		t.Errorf("expected 4 MSAA samples, got %d", cfg.Window.Samples)
	}
	if cfg.Terrain.ChunkSize != 20 {
		t.Errorf("expected chunk size 20, got %v", cfg.Terrain.ChunkSize)
	}
	if cfg.Terrain.Resolution != 16 {
		t.Errorf("expected resolution 16, got %d", cfg.Terrain.Resolution)
	}
	if cfg.Terrain.CreationRate != 1 {
		t.Errorf("expected creation rate 1, got %d", cfg.Terrain.CreationRate)
	}
	if cfg.Planet.Radius != 10 || cfg.Planet.Resolution != 64 {
		t.Errorf("unexpected planet defaults %+v", cfg.Planet)
	}
	if cfg.Planet.Enabled {
		t.Error("expected planet to be disabled by default")
	}
	if cfg.LOD.Cadence != 1 {
		t.Errorf("expected cadence 1, got %d", cfg.LOD.Cadence)
	}
	if !cfg.Compute.Accelerate {
		t.Error("expected acceleration to be requested by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"msaa samples", func(c *Config) { c.Window.Samples = 32 }},
		{"chunk size", func(c *Config) { c.Terrain.ChunkSize = 0 }},
		{"terrain resolution", func(c *Config) { c.Terrain.Resolution = 1 }},
		{"negative density", func(c *Config) { c.Terrain.Density = -1 }},
		{"creation rate", func(c *Config) { c.Terrain.CreationRate = 0 }},
		{"negative hysteresis", func(c *Config) { c.Terrain.Hysteresis = -0.5 }},
		{"unknown field", func(c *Config) { c.Terrain.Field = "mountains" }},
		{"planet radius", func(c *Config) { c.Planet.Radius = -2 }},
		{"planet resolution", func(c *Config) { c.Planet.Resolution = 0 }},
		{"scale range", func(c *Config) { c.Scatter.ScaleMin, c.Scatter.ScaleMax = 1.2, 0.8 }},
		{"crate stride", func(c *Config) { c.Scatter.CrateStride = -1 }},
		{"cadence", func(c *Config) { c.LOD.Cadence = 0 }},
		{"stacks", func(c *Config) { c.LOD.LowStacks = 0 }},
		{"workers", func(c *Config) { c.Compute.Workers = -4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

terrain:
  chunk_size: 32
  resolution: 24
  density: 0.75
  render_distance: 5
  creation_rate: 2
  field: "flat"
  seed: 42

planet:
  enabled: true
  radius: 50

lod:
  cadence: 4
  near_distance: 30

compute:
  accelerate: false
  workers: 3

logging:
  level: "debug"
  log_file: "verdant.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if !cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Terrain.ChunkSize != 32 || cfg.Terrain.Resolution != 24 {
		t.Errorf("unexpected terrain grid %v/%d", cfg.Terrain.ChunkSize, cfg.Terrain.Resolution)
	}
	if cfg.Terrain.Density != 0.75 {
		t.Errorf("expected density 0.75, got %v", cfg.Terrain.Density)
	}
	if cfg.Terrain.Field != "flat" || cfg.Terrain.Seed != 42 {
		t.Errorf("unexpected field/seed %q/%d", cfg.Terrain.Field, cfg.Terrain.Seed)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Terrain.Hysteresis != 1 {
		t.Errorf("expected default hysteresis 1, got %v", cfg.Terrain.Hysteresis)
	}
	if !cfg.Planet.Enabled || cfg.Planet.Radius != 50 || cfg.Planet.Resolution != 64 {
		t.Errorf("unexpected planet %+v", cfg.Planet)
	}
	if cfg.LOD.Cadence != 4 || cfg.LOD.NearDistance != 30 {
		t.Errorf("unexpected lod %+v", cfg.LOD)
	}
	if cfg.Compute.Accelerate || cfg.Compute.Workers != 3 {
		t.Errorf("unexpected compute %+v", cfg.Compute)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "verdant.log" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
terrain:
  resolution: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Terrain.Seed = 7
	cfg.Planet.Enabled = true
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if loaded.Terrain.Seed != 7 || !loaded.Planet.Enabled {
		t.Errorf("saved values not restored: %+v", loaded.Terrain)
	}
}

func TestSaveToRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Terrain.Resolution = 0
	if err := cfg.SaveTo(path); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid config should not be written")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
				if !cfg.Window.ShowStats {
					t.Error("expected stats overlay with debug flag")
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "windowed flag",
			setup: func() { *flagWindowed = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() { *flagWindowed = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "render distance flag",
			setup: func() { *flagRenderDistance = 6 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.RenderDistance != 6 {
					t.Errorf("expected render distance 6, got %v", cfg.Terrain.RenderDistance)
				}
			},
			teardown: func() { *flagRenderDistance = 0 },
		},
		{
			name:  "cpu flag",
			setup: func() { *flagCPU = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Compute.Accelerate {
					t.Error("expected acceleration off with cpu flag")
				}
			},
			teardown: func() { *flagCPU = false },
		},
		{
			name:  "seed and planet flags",
			setup: func() { *flagSeed = 99; *flagPlanet = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.Seed != 99 {
					t.Errorf("expected seed 99, got %d", cfg.Terrain.Seed)
				}
				if !cfg.Planet.Enabled {
					t.Error("expected planet enabled")
				}
			},
			teardown: func() { *flagSeed = 0; *flagPlanet = false },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	// Height should be from file (900) since no flag override
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("terrain:\n  resolution: 1\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadFromFileUnknownKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("terrain:\n  chunk_sise: 4\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error for unknown key, got nil")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("empty file should load: %v", err)
	}
	if cfg.Terrain.ChunkSize != 20 {
		t.Errorf("defaults lost: chunk size %v", cfg.Terrain.ChunkSize)
	}
}
