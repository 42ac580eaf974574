// Package main is the entry point for the interactive terrain viewer.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/app"
	"github.com/Faultbox/verdant/internal/config"
	"github.com/Faultbox/verdant/internal/engine/renderer"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/scene"
)

var prototypeColors = map[string]renderer.Color{
	"grass-low":  {0.30, 0.58, 0.16},
	"grass-high": {0.34, 0.66, 0.20},
	"crate":      {0.55, 0.38, 0.20},
	"butterfly":  {0.92, 0.62, 0.15},
}

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Verdant terrain viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	a, err := app.New(cfg, "Verdant")
	if err != nil {
		return err
	}
	defer a.Close()

	sc, err := scene.New(cfg, a.Renderer())
	if err != nil {
		return err
	}
	defer func() {
		if err := sc.Dispose(ctx); err != nil {
			logger.Warn("scene dispose", zap.Error(err))
		}
	}()

	for name, mesh := range sc.Prototypes() {
		if c, ok := prototypeColors[name]; ok {
			_ = a.Renderer().SetMeshColor(mesh, c)
		}
	}

	if sc.Planet() {
		a.Camera().Distance = cfg.Planet.Radius * 3
		a.Camera().MaxDistance = cfg.Planet.Radius * 10
	} else {
		a.SetGround(sc.Ground)
	}

	if err := sc.Init(ctx, a.ViewerPosition()); err != nil {
		logger.Warn("scene initialized with errors", zap.Error(err))
	}

	a.RegisterPerFrameCallback(func(float32) {
		sc.Update(ctx, a.ViewerPosition())
	})
	a.SetTitleFunc(func() string {
		st := sc.Stats()
		return fmt.Sprintf("Verdant | %s | chunks %d (+%d) | instances %d | vertices %d",
			st.Backend, st.Chunks, st.Pending+st.InFlight, st.Instances, st.Vertices)
	})

	return a.Run()
}
