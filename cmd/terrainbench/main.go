// Package main streams terrain headlessly along a straight path and reports
// build and instancing statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/config"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/render"
	"github.com/Faultbox/verdant/internal/scene"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

var (
	flagFrames = flag.Int("frames", 600, "Number of frames to simulate")
	flagSpeed  = flag.Float64("speed", 8, "Viewer speed in units per second")
	flagFPS    = flag.Int("fps", 60, "Simulated frame rate")
)

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

	if *flagFrames < 1 || *flagFPS < 1 {
		logger.Error("frames and fps must be positive", zap.Int("frames", *flagFrames), zap.Int("fps", *flagFPS))
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		logger.Error("bench error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()
	r := render.NewHeadless()

	sc, err := scene.New(cfg, r)
	if err != nil {
		return err
	}

	var viewer vmath.Vec3
	start := time.Now()
	if err := sc.Init(ctx, viewer); err != nil {
		logger.Warn("scene initialized with errors", zap.Error(err))
	}
	initTime := time.Since(start)

	dt := float32(1) / float32(*flagFPS)
	r.RegisterPerFrameCallback(func(dt float32) {
		viewer.X += float32(*flagSpeed) * dt
		viewer.Y = sc.Ground(viewer.X, viewer.Z)
		sc.Update(ctx, viewer)
	})

	start = time.Now()
	for frame := 1; frame <= *flagFrames; frame++ {
		r.Step(dt)
		if frame%*flagFPS == 0 {
			logStats("progress", sc.Stats(), r, zap.Int("frame", frame), zap.Float32("x", viewer.X))
		}
	}
	streamTime := time.Since(start)

	logStats("done", sc.Stats(), r,
		zap.Duration("init", initTime),
		zap.Duration("stream", streamTime),
		zap.Duration("per_frame", streamTime/time.Duration(*flagFrames)),
	)
	return sc.Dispose(ctx)
}

func logStats(msg string, st scene.Stats, r *render.Headless, fields ...zap.Field) {
	meshes, batches := r.Counts()
	logger.Info(msg, append(fields,
		zap.String("backend", st.Backend),
		zap.Int("chunks", st.Chunks),
		zap.Int("pending", st.Pending),
		zap.Int("in_flight", st.InFlight),
		zap.Int("grass_patches", st.GrassPatches),
		zap.Int("lod_pending", st.LODPending),
		zap.Int("instances", st.Instances),
		zap.Int("vertices", st.Vertices),
		zap.Int("meshes", meshes),
		zap.Int("batches", batches),
	)...)
}
