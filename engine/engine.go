// Package engine drives the main loop: fixed-rate logic ticks followed by one rendered frame per
// iteration.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine/component"
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/profiler"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer"
	"github.com/Carmen-Shannon/oxy-core/engine/system"
	"github.com/Carmen-Shannon/oxy-core/engine/window"
	"go.uber.org/zap"
)

// maxTicksPerFrame bounds the logic catch-up after a stall.
const maxTicksPerFrame = 5

// Engine is the main entry point. It owns the loop that advances the logic systems and renders
// the registry through the renderer.
type Engine interface {
	// Registry returns the registry the logic systems and passes operate on.
	Registry() *ecs.Registry

	// Renderer returns the frame orchestrator.
	Renderer() renderer.Renderer

	// Runner returns the logic system runner.
	Runner() *system.Runner

	// Window returns the window the engine presents into, or nil when running headless.
	Window() window.Window

	// SetTickRate sets the logic tick rate in ticks per second.
	//
	// Parameters:
	//   - hz: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(hz float64)

	// SetFrameLimit caps the render rate. Zero uncaps it.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetFrameLimit(fps float64)

	// SetTickCallback registers a function called after the logic systems on every tick.
	//
	// Parameters:
	//   - callback: function receiving the fixed tick length in seconds
	SetTickCallback(callback func(dt float32))

	// SetFrameCallback registers a function called after every rendered frame.
	//
	// Parameters:
	//   - callback: function receiving the stats of the frame
	SetFrameCallback(callback func(stats renderer.FrameStats))

	// Step runs one loop iteration: due logic ticks, then one frame.
	//
	// Returns:
	//   - renderer.FrameStats: the stats of the rendered frame
	//   - error: the first logic or frame error
	Step() (renderer.FrameStats, error)

	// Run steps until ctx is done, the window closes, Quit is called or a step fails. Run must be
	// called from the goroutine that created the window.
	//
	// Parameters:
	//   - ctx: cancels the loop
	//
	// Returns:
	//   - error: the step error that stopped the loop, nil otherwise
	Run(ctx context.Context) error

	// Quit stops Run after the current iteration. Safe to call multiple times and from any
	// goroutine.
	Quit()
}

// engine implements the Engine interface.
type engine struct {
	registry *ecs.Registry
	renderer renderer.Renderer
	runner   *system.Runner
	window   window.Window
	logger   *zap.Logger
	profiler *profiler.Profiler
	now      func() time.Time

	tickRate   time.Duration
	frameLimit time.Duration
	onTick     func(dt float32)
	onFrame    func(stats renderer.FrameStats)

	last        time.Time
	accumulator time.Duration

	quit     chan struct{}
	quitOnce sync.Once
}

var _ Engine = &engine{}

// NewEngine creates an Engine rendering reg through r.
//
// Parameters:
//   - reg: the registry
//   - r: the renderer, built over reg
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the engine
func NewEngine(reg *ecs.Registry, r renderer.Renderer, options ...EngineBuilderOption) Engine {
	if reg == nil || r == nil {
		panic("engine: registry and renderer are required")
	}
	e := &engine{
		registry: reg,
		renderer: r,
		logger:   zap.NewNop(),
		now:      time.Now,
		tickRate: time.Second / 60,
		quit:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	e.runner = system.NewRunner(reg, system.WithRunnerLogger(e.logger))

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
	}
	return e
}

func (e *engine) Registry() *ecs.Registry {
	return e.registry
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Runner() *system.Runner {
	return e.runner
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) SetTickRate(hz float64) {
	e.tickRate = tickInterval(hz)
}

func (e *engine) SetFrameLimit(fps float64) {
	e.frameLimit = frameInterval(fps)
}

func (e *engine) SetTickCallback(callback func(dt float32)) {
	e.onTick = callback
}

func (e *engine) SetFrameCallback(callback func(stats renderer.FrameStats)) {
	e.onFrame = callback
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quit)
	})
}

func (e *engine) Step() (renderer.FrameStats, error) {
	now := e.now()
	if e.last.IsZero() {
		// The first iteration runs one tick.
		e.last = now.Add(-e.tickRate)
	}
	frameTime := now.Sub(e.last)
	e.last = now

	e.accumulator += frameTime
	if limit := maxTicksPerFrame * e.tickRate; e.accumulator > limit {
		e.logger.Debug("dropping logic ticks", zap.Duration("behind", e.accumulator-limit))
		e.accumulator = limit
	}
	tick := float32(e.tickRate.Seconds())
	for e.accumulator >= e.tickRate {
		if err := e.runner.Update(tick); err != nil {
			return renderer.FrameStats{}, fmt.Errorf("engine: logic tick: %w", err)
		}
		if e.onTick != nil {
			e.onTick(tick)
		}
		e.accumulator -= e.tickRate
	}

	stats, err := e.renderer.RenderFrame(float32(frameTime.Seconds()))
	if err != nil {
		return stats, err
	}
	if e.onFrame != nil {
		e.onFrame(stats)
	}
	if e.profiler != nil {
		e.profiler.Tick(profiler.Sample{FrameTime: frameTime, Draws: stats.Draws()})
	}
	return stats, nil
}

func (e *engine) Run(ctx context.Context) error {
	var runErr error
	iterate := func() bool {
		select {
		case <-ctx.Done():
			return false
		case <-e.quit:
			return false
		default:
		}
		start := e.now()
		if _, err := e.Step(); err != nil {
			runErr = err
			return false
		}
		if e.frameLimit > 0 {
			if remaining := e.frameLimit - e.now().Sub(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
		return true
	}

	if e.window == nil {
		for iterate() {
		}
	} else {
		e.window.SetUpdateCallback(func() {
			if !iterate() {
				e.window.RequestClose()
			}
		})
		e.window.ProcessMessages()
		e.window.SetUpdateCallback(nil)
	}

	if runErr != nil {
		var fe *renderer.FrameError
		if errors.As(runErr, &fe) {
			e.logger.Error("frame failed",
				zap.String("pass", fe.Pass),
				zap.String("phase", fe.Phase),
				zap.Error(fe.Err),
			)
		} else {
			e.logger.Error("engine stopped", zap.Error(runErr))
		}
	}
	return runErr
}

// resize follows the window framebuffer: the renderer targets and every camera's aspect.
func (e *engine) resize(width, height int) {
	if err := e.renderer.Resize(width, height); err != nil {
		e.logger.Warn("resize failed", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
		return
	}
	aspect := float32(width) / float32(height)
	for _, ent := range e.registry.Entities() {
		if c, ok := ecs.Get[component.Camera](e.registry, ent); ok {
			c.Aspect = aspect
		}
	}
}

func tickInterval(hz float64) time.Duration {
	if hz <= 0 {
		hz = 60
	}
	return time.Duration(float64(time.Second) / hz)
}

func frameInterval(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
