package renderer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture_library"
	"github.com/Carmen-Shannon/oxy-core/engine/system"
	"go.uber.org/zap"
)

// Resizer is implemented by passes that own screen sized resources.
type Resizer interface {
	// Resize recreates the pass's size dependent resources.
	//
	// Parameters:
	//   - ctx: the render context, with the new size in Frame
	//
	// Returns:
	//   - error: error if a resource could not be recreated
	Resize(ctx *system.RenderContext) error
}

// Forgetter is implemented by passes that keep GPU objects per entity.
type Forgetter interface {
	// OnForget runs once when e stops satisfying the pass filter, including when e is destroyed.
	// The entity's components may already be gone, so resources must be looked up by entity.
	//
	// Parameters:
	//   - ctx: the render context
	//   - e: the entity that left the filter
	OnForget(ctx *system.RenderContext, e ecs.Entity)
}

// Releaser is implemented by passes that own GPU objects beyond their entities' components.
type Releaser interface {
	Release()
}

// passEntry is one registered pass together with its per-entity lifecycle.
type passEntry struct {
	pass      system.Pass
	lifecycle *system.Lifecycle
	created   bool
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	device   gpu.Device
	guard    *guardedDevice
	surface  gpu.Surface
	registry *ecs.Registry
	textures *texture_library.Library
	logger   *zap.Logger

	passes []*passEntry
	byName map[string]*passEntry

	width, height int
	frameIndex    uint64
	lastStats     FrameStats
}

// Renderer is the frame orchestrator. It owns an ordered list of passes and drives one command
// encoder through all of them once per frame: create once per pass, create per new entity,
// prepare every entity, then render every entity, pass by pass in registration order. The
// single command buffer is submitted and presented after the last pass.
type Renderer interface {
	// AddPass appends a pass. Passes run in the order they were added.
	//
	// Parameters:
	//   - p: a system.RenderSystem or system.ComputeSystem
	//
	// Returns:
	//   - error: error if the name is taken or p is neither a render nor a compute system
	AddPass(p system.Pass) error

	// Passes returns the pass names in execution order.
	//
	// Returns:
	//   - []string: the ordered pass names
	Passes() []string

	// Pass retrieves a registered pass by name.
	//
	// Parameters:
	//   - name: the pass name
	//
	// Returns:
	//   - system.Pass: the pass
	//   - bool: false if no pass has that name
	Pass(name string) (system.Pass, bool)

	// RenderFrame records, submits and presents one frame.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - FrameStats: per pass entity and draw counts of the frame
	//   - error: a *FrameError naming the failing pass and phase. A failed frame is discarded, so the
	//     next call acquires a fresh surface image
	RenderFrame(dt float32) (FrameStats, error)

	// Resize reconfigures the surface, resizes screen sized textures and notifies passes
	// implementing Resizer.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: error if the surface or a pass could not be resized
	Resize(width, height int) error

	// Size returns the current surface size in pixels.
	Size() (width, height int)

	// Stats returns the statistics of the last rendered frame.
	Stats() FrameStats

	// Device returns the device passes create their objects on.
	Device() gpu.Device

	// Textures returns the shared texture library.
	Textures() *texture_library.Library

	// Release releases every pass implementing Releaser and the texture library.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing to surface. The surface is configured at the initial
// size given with WithSize.
//
// Parameters:
//   - device: the GPU device
//   - surface: the presentable surface
//   - registry: the entity registry passes filter
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: error if the surface could not be configured or a pass was rejected
func NewRenderer(device gpu.Device, surface gpu.Surface, registry *ecs.Registry, options ...RendererBuilderOption) (Renderer, error) {
	if device == nil || surface == nil || registry == nil {
		panic("renderer: device, surface and registry are required")
	}
	r := &renderer{
		mu:       &sync.Mutex{},
		device:   device,
		guard:    &guardedDevice{Device: device},
		surface:  surface,
		registry: registry,
		logger:   zap.NewNop(),
		byName:   make(map[string]*passEntry),
		width:    1280,
		height:   720,
	}

	cfg := &rendererConfig{}
	for _, opt := range options {
		opt(r, cfg)
	}
	if r.textures == nil {
		r.textures = texture_library.NewLibrary(r.guard, texture_library.WithLogger(r.logger))
	}

	if err := surface.Configure(r.width, r.height); err != nil {
		return nil, fmt.Errorf("renderer: configure surface: %w", err)
	}
	for _, p := range cfg.passes {
		if err := r.AddPass(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *renderer) AddPass(p system.Pass) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch p.(type) {
	case system.RenderSystem, system.ComputeSystem:
	default:
		return fmt.Errorf("renderer: pass %q is neither a render nor a compute system", p.Name())
	}
	if _, ok := r.byName[p.Name()]; ok {
		return fmt.Errorf("renderer: pass %q already registered", p.Name())
	}
	entry := &passEntry{pass: p, lifecycle: system.NewLifecycle()}
	r.passes = append(r.passes, entry)
	r.byName[p.Name()] = entry
	r.logger.Debug("pass added", zap.String("pass", p.Name()), zap.Int("position", len(r.passes)-1))
	return nil
}

func (r *renderer) Passes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.passes))
	for i, e := range r.passes {
		names[i] = e.pass.Name()
	}
	return names
}

func (r *renderer) Pass(name string) (system.Pass, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return e.pass, true
}

func (r *renderer) context(dt float32, view gpu.TextureView) *system.RenderContext {
	return &system.RenderContext{
		Device:   r.guard,
		Registry: r.registry,
		Textures: r.textures,
		Logger:   r.logger,
		Frame: system.FrameInfo{
			Index:         r.frameIndex,
			DeltaTime:     dt,
			Width:         r.width,
			Height:        r.height,
			SurfaceView:   view,
			SurfaceFormat: r.surface.Format(),
		},
	}
}

func (r *renderer) RenderFrame(dt float32) (FrameStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	stats := FrameStats{Index: r.frameIndex}

	view, err := r.surface.AcquireView()
	if err != nil {
		return stats, &FrameError{Phase: PhaseAcquire, Err: err}
	}
	presented := false
	defer func() {
		if !presented {
			r.surface.Discard()
		}
	}()
	encoder, err := r.device.CreateCommandEncoder(fmt.Sprintf("frame %d", r.frameIndex))
	if err != nil {
		return stats, &FrameError{Phase: PhaseAcquire, Err: err}
	}
	defer encoder.Release()

	ctx := r.context(dt, view)
	entities := r.registry.Entities()

	for _, entry := range r.passes {
		ps, err := r.runPass(ctx, entry, encoder, entities)
		stats.Passes = append(stats.Passes, ps)
		if err != nil {
			return stats, err
		}
	}

	cmd, err := encoder.Finish()
	if err != nil {
		return stats, &FrameError{Phase: PhaseSubmit, Err: err}
	}
	r.device.Queue().Submit(cmd)
	cmd.Release()
	r.surface.Present()
	presented = true

	stats.Duration = time.Since(start)
	r.lastStats = stats
	r.frameIndex++
	return stats, nil
}

// runPass drives one pass through its create, prepare and render phases.
func (r *renderer) runPass(ctx *system.RenderContext, entry *passEntry, encoder gpu.CommandEncoder, entities []ecs.Entity) (PassStats, error) {
	p := entry.pass
	name := p.Name()
	ps := PassStats{Name: name}
	start := time.Now()

	if !entry.created {
		if err := p.Create(ctx); err != nil {
			return ps, &FrameError{Pass: name, Phase: PhaseCreate, Err: err}
		}
		entry.created = true
		r.logger.Debug("pass created", zap.String("pass", name))
	}

	matched := p.FilterEntities(r.registry, entities)
	ps.Entities = len(matched)

	pending, dropped := entry.lifecycle.Sync(matched)
	if f, ok := p.(Forgetter); ok {
		for _, e := range dropped {
			f.OnForget(ctx, e)
		}
	}
	ps.Forgotten = len(dropped)

	for _, e := range pending {
		c, ok := p.ExtractComponents(r.registry, e)
		if !ok {
			continue
		}
		if err := p.OnCreate(ctx, e, c); err != nil {
			return ps, &FrameError{Pass: name, Phase: PhaseCreate, Err: &system.CreateError{System: name, Entity: e, Err: err}}
		}
		entry.lifecycle.Set(e, system.StateCreated)
		ps.Created++
	}

	tuples := make([]system.Tuple, len(matched))
	for i, e := range matched {
		c, ok := p.ExtractComponents(r.registry, e)
		if !ok {
			continue
		}
		tuples[i] = c
		if err := p.OnPrepare(ctx, e, c); err != nil {
			return ps, &FrameError{Pass: name, Phase: PhasePrepare, Entity: e, Err: err}
		}
		entry.lifecycle.Set(e, system.StatePrepared)
	}

	r.guard.lock(name)
	defer r.guard.unlock()

	switch sys := p.(type) {
	case system.RenderSystem:
		rp, err := sys.BeginPass(ctx, encoder)
		if err != nil {
			return ps, &FrameError{Pass: name, Phase: PhaseRender, Err: err}
		}
		counted := &countingRenderPass{RenderPassEncoder: rp}
		for i, e := range matched {
			if tuples[i] == nil {
				continue
			}
			if err := sys.OnRender(counted, e, tuples[i]); err != nil {
				_ = rp.End()
				return ps, &FrameError{Pass: name, Phase: PhaseRender, Entity: e, Err: err}
			}
			entry.lifecycle.Set(e, system.StateRendered)
		}
		if err := rp.End(); err != nil {
			return ps, &FrameError{Pass: name, Phase: PhaseRender, Err: err}
		}
		ps.Draws = counted.draws

	case system.ComputeSystem:
		cp := encoder.BeginComputePass(name)
		counted := &countingComputePass{ComputePassEncoder: cp}
		for i, e := range matched {
			if tuples[i] == nil {
				continue
			}
			if err := sys.OnDispatch(counted, e, tuples[i]); err != nil {
				_ = cp.End()
				return ps, &FrameError{Pass: name, Phase: PhaseRender, Entity: e, Err: err}
			}
			entry.lifecycle.Set(e, system.StateRendered)
		}
		if err := cp.End(); err != nil {
			return ps, &FrameError{Pass: name, Phase: PhaseRender, Err: err}
		}
		ps.Dispatches = counted.dispatches
	}

	if err := r.guard.violation(); err != nil {
		return ps, &FrameError{Pass: name, Phase: PhaseRender, Err: err}
	}
	ps.Duration = time.Since(start)
	return ps, nil
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("renderer: invalid size %dx%d", width, height)
	}
	if err := r.surface.Configure(width, height); err != nil {
		return fmt.Errorf("renderer: configure surface: %w", err)
	}
	r.width, r.height = width, height
	if err := r.textures.Resize(uint32(width), uint32(height)); err != nil {
		return fmt.Errorf("renderer: resize textures: %w", err)
	}

	ctx := r.context(0, nil)
	var errs []error
	for _, entry := range r.passes {
		rs, ok := entry.pass.(Resizer)
		if !ok || !entry.created {
			continue
		}
		if err := rs.Resize(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pass %q: %w", entry.pass.Name(), err))
		}
	}
	r.logger.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
	return errors.Join(errs...)
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastStats
}

func (r *renderer) Device() gpu.Device {
	return r.guard
}

func (r *renderer) Textures() *texture_library.Library {
	return r.textures
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.passes) - 1; i >= 0; i-- {
		if rel, ok := r.passes[i].pass.(Releaser); ok {
			rel.Release()
		}
	}
	r.textures.Release()
}
