// Package app implements the interactive frame loop.
package app

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/config"
	"github.com/Faultbox/verdant/internal/engine/camera"
	"github.com/Faultbox/verdant/internal/engine/debug"
	"github.com/Faultbox/verdant/internal/engine/input"
	"github.com/Faultbox/verdant/internal/engine/lighting"
	"github.com/Faultbox/verdant/internal/engine/renderer"
	"github.com/Faultbox/verdant/internal/engine/window"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/render"
	vmath "github.com/Faultbox/verdant/pkg/math"
)

// moveSpeed is the viewer speed in world units per second.
const moveSpeed = 8

// App owns the window, renderer and viewer, and runs per-frame callbacks.
type App struct {
	config   *config.Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera

	screenshots *debug.Screenshots
	capture     bool

	frames []render.FrameFunc
	ground func(x, z float32) float32
	title  func() string
	light  vmath.Vec3

	log *zap.Logger
}

var (
	_ render.FrameLoop = (*App)(nil)
	_ render.Viewer    = (*App)(nil)
)

// New creates the window and renderer.
func New(cfg *config.Config, title string) (*App, error) {
	a := &App{
		config:      cfg,
		camera:      camera.NewOrbitCamera(),
		screenshots: debug.NewScreenshots("screenshots", "verdant"),
		light:       lighting.SunDirection(35, 50),
		log:         logger.Named("app"),
	}
	a.log.Info("initializing",
		zap.String("title", title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	// Window first, it creates the OpenGL context.
	var err error
	a.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    cfg.Window.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	width, height := a.window.GetSize()
	a.renderer, err = renderer.New(renderer.Config{Width: width, Height: height})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.input = input.New()
	return a, nil
}

// Renderer returns the GPU renderer.
func (a *App) Renderer() *renderer.Renderer { return a.renderer }

// Camera returns the orbit camera following the viewer.
func (a *App) Camera() *camera.OrbitCamera { return a.camera }

// RegisterPerFrameCallback implements render.FrameLoop.
func (a *App) RegisterPerFrameCallback(fn render.FrameFunc) {
	a.frames = append(a.frames, fn)
}

// ViewerPosition implements render.Viewer.
func (a *App) ViewerPosition() vmath.Vec3 { return a.camera.Target }

// SetGround keeps the viewer on a height function while it moves.
func (a *App) SetGround(fn func(x, z float32) float32) { a.ground = fn }

// SetTitleFunc sets the window title source, refreshed once per second.
func (a *App) SetTitleFunc(fn func() string) { a.title = fn }

// Run starts the main loop and returns when the window closes.
func (a *App) Run() error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting frame loop")

	for a.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if a.input.Update() {
			a.running = false
			break
		}
		a.handleEvents()
		a.moveViewer(dt)

		for _, fn := range a.frames {
			fn(dt)
		}

		width, height := a.renderer.Size()
		a.renderer.Draw(a.camera.ViewProjection(width, height), a.light)
		if a.capture {
			a.capture = false
			a.saveScreenshot()
		}
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			st := a.renderer.Stats()
			a.log.Debug("frame stats",
				zap.Int("fps", frameCount),
				zap.Int("meshes", st.Meshes),
				zap.Int("batches", st.Batches),
				zap.Int("instances", st.Instances),
			)
			if a.title != nil && a.config.Window.ShowStats {
				a.window.SetTitle(fmt.Sprintf("%s | %d fps", a.title(), frameCount))
			}
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (a *App) handleEvents() {
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			width, height := a.window.GetSize()
			a.renderer.Resize(width, height)
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				a.running = false
			case sdl.SCANCODE_F11:
				if err := a.window.ToggleFullscreen(); err != nil {
					a.log.Warn("fullscreen toggle failed", zap.Error(err))
				}
			case sdl.SCANCODE_F12:
				a.capture = true
			}
		case input.EventMouseMove:
			if a.input.Dragging() {
				a.camera.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
			}
		case input.EventMouseWheel:
			a.camera.HandleZoom(event.Wheel)
		}
	}
}

func (a *App) saveScreenshot() {
	pixels, width, height := a.renderer.ReadPixels()
	path, err := a.screenshots.Capture(pixels, width, height)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

// moveViewer applies WASD movement on the XZ plane.
func (a *App) moveViewer(dt float32) {
	forward := a.input.Axis(sdl.SCANCODE_S, sdl.SCANCODE_W)
	right := a.input.Axis(sdl.SCANCODE_A, sdl.SCANCODE_D)
	if forward == 0 && right == 0 {
		return
	}
	speed := float32(moveSpeed)
	if a.input.IsKeyHeld(sdl.SCANCODE_LSHIFT) {
		speed *= 4
	}
	a.camera.Move(forward*speed*dt, right*speed*dt)
	if a.ground != nil {
		a.camera.Target.Y = a.ground(a.camera.Target.X, a.camera.Target.Z)
	}
}

// Close releases the renderer and window.
func (a *App) Close() {
	a.log.Info("closing")

	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
