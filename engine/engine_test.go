package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine"
	"github.com/Carmen-Shannon/oxy-core/engine/component"
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/system"
	"github.com/Carmen-Shannon/oxy-core/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spin rotates every Transform a fixed step per tick.
type spin struct {
	system.Base
	ticks int
}

func (s *spin) OnCreate(*ecs.Registry, ecs.Entity, system.Tuple) error { return nil }

func (s *spin) OnUpdate(_ *ecs.Registry, dt float32, _ ecs.Entity, c system.Tuple) error {
	s.ticks++
	system.At[component.Transform](c, 0).Position[0] += dt
	return nil
}

// drawPass draws one triangle per Transform.
type drawPass struct {
	system.Base
	fail error
}

func (p *drawPass) Create(*system.RenderContext) error { return nil }

func (p *drawPass) OnCreate(*system.RenderContext, ecs.Entity, system.Tuple) error { return nil }

func (p *drawPass) OnPrepare(*system.RenderContext, ecs.Entity, system.Tuple) error { return p.fail }

func (p *drawPass) BeginPass(_ *system.RenderContext, encoder gpu.CommandEncoder) (gpu.RenderPassEncoder, error) {
	return encoder.BeginRenderPass(&gpu.RenderPassDescriptor{Label: p.Name()}), nil
}

func (p *drawPass) OnRender(pass gpu.RenderPassEncoder, _ ecs.Entity, _ system.Tuple) error {
	pass.Draw(3, 1, 0, 0)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *clock                   { return &clock{t: time.Unix(100, 0)} }
func tick60() time.Duration              { return time.Duration(float64(time.Second) / 60) }

func newPass(fail error) *drawPass {
	return &drawPass{Base: system.NewBase("draw", system.Require[component.Transform]()), fail: fail}
}

func newSpin() *spin {
	return &spin{Base: system.NewBase("spin", system.Require[component.Transform]())}
}

type fixture struct {
	registry *ecs.Registry
	renderer renderer.Renderer
	entity   ecs.Entity
}

func newFixture(t *testing.T, p system.Pass) *fixture {
	t.Helper()
	reg := ecs.NewRegistry()
	e := reg.CreateEntity()
	_, err := ecs.Add(reg, e, component.NewTransform(mgl32.Vec3{}))
	require.NoError(t, err)

	device := gpu.NewRecordingDevice()
	r, err := renderer.NewRenderer(device, gpu.NewRecordingSurface(device, gpu.TextureFormatBGRA8Unorm), reg,
		renderer.WithSize(64, 64),
		renderer.WithPass(p),
	)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return &fixture{registry: reg, renderer: r, entity: e}
}

func TestStepTicks(t *testing.T) {
	f := newFixture(t, newPass(nil))
	c := newClock()
	s := newSpin()
	eng := engine.NewEngine(f.registry, f.renderer, engine.WithClock(c.now))
	eng.Runner().Register(s)

	var ticks []float32
	eng.SetTickCallback(func(dt float32) { ticks = append(ticks, dt) })

	stats, err := eng.Step()
	require.NoError(t, err)
	assert.Equal(t, 1, s.ticks, "the first step runs one tick")
	assert.Equal(t, 1, stats.Draws())

	t.Run("one tick per interval", func(t *testing.T) {
		c.advance(tick60())
		_, err := eng.Step()
		require.NoError(t, err)
		assert.Equal(t, 2, s.ticks)
	})

	t.Run("no tick before the interval", func(t *testing.T) {
		c.advance(tick60() / 2)
		_, err := eng.Step()
		require.NoError(t, err)
		assert.Equal(t, 2, s.ticks)
	})

	t.Run("catch up is bounded", func(t *testing.T) {
		c.advance(time.Second)
		_, err := eng.Step()
		require.NoError(t, err)
		assert.Equal(t, 7, s.ticks)
	})

	require.Len(t, ticks, 7)
	assert.InDelta(t, 1.0/60, ticks[0], 1e-6)
	tr, _ := ecs.Get[component.Transform](f.registry, f.entity)
	assert.InDelta(t, 7.0/60, tr.Position[0], 1e-5)
}

func TestSetTickRate(t *testing.T) {
	f := newFixture(t, newPass(nil))
	c := newClock()
	s := newSpin()
	eng := engine.NewEngine(f.registry, f.renderer, engine.WithClock(c.now), engine.WithTickRate(10))
	eng.Runner().Register(s)

	_, err := eng.Step()
	require.NoError(t, err)
	c.advance(tick60())
	_, err = eng.Step()
	require.NoError(t, err)
	assert.Equal(t, 1, s.ticks)

	// The pending 1/60s and this step's 1/60s both run at the new rate.
	eng.SetTickRate(60)
	c.advance(tick60())
	_, err = eng.Step()
	require.NoError(t, err)
	assert.Equal(t, 3, s.ticks)
}

func TestRunHeadless(t *testing.T) {
	t.Run("context cancel", func(t *testing.T) {
		f := newFixture(t, newPass(nil))
		eng := engine.NewEngine(f.registry, f.renderer)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		frames := 0
		eng.SetFrameCallback(func(stats renderer.FrameStats) {
			frames++
			if frames == 3 {
				cancel()
			}
		})
		require.NoError(t, eng.Run(ctx))
		assert.Equal(t, 3, frames)
		assert.Equal(t, uint64(2), f.renderer.Stats().Index)
	})

	t.Run("quit", func(t *testing.T) {
		f := newFixture(t, newPass(nil))
		eng := engine.NewEngine(f.registry, f.renderer)
		eng.SetFrameCallback(func(renderer.FrameStats) {
			eng.Quit()
			eng.Quit()
		})
		require.NoError(t, eng.Run(context.Background()))
	})

	t.Run("frame error", func(t *testing.T) {
		boom := errors.New("boom")
		f := newFixture(t, newPass(boom))
		eng := engine.NewEngine(f.registry, f.renderer)
		err := eng.Run(context.Background())
		require.ErrorIs(t, err, boom)
		var fe *renderer.FrameError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "draw", fe.Pass)
		assert.Equal(t, renderer.PhasePrepare, fe.Phase)
	})
}

// fakeWindow runs the update callback until asked to close.
type fakeWindow struct {
	update  func()
	resize  func(width, height int)
	closing bool
	width   int
	height  int
}

var _ window.Window = &fakeWindow{}

func (w *fakeWindow) SetUpdateCallback(cb func())                    { w.update = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int))   { w.resize = cb }
func (w *fakeWindow) SetKeyCallback(func(window.Key, window.Action)) {}
func (w *fakeWindow) SetCursorCallback(func(x, y float64))           {}
func (w *fakeWindow) SetScrollCallback(func(delta float32))          {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor     { return nil }
func (w *fakeWindow) IsRunning() bool                                { return !w.closing }
func (w *fakeWindow) RequestClose()                                  { w.closing = true }
func (w *fakeWindow) Close() error                                   { return nil }
func (w *fakeWindow) Size() (int, int)                               { return w.width, w.height }

func (w *fakeWindow) SetMouseButtonCallback(func(window.MouseButton, bool, float64, float64)) {}

func (w *fakeWindow) ProcessMessages() {
	for !w.closing {
		if w.update != nil {
			w.update()
		}
	}
}

func TestRunWithWindow(t *testing.T) {
	f := newFixture(t, newPass(nil))
	cam := f.registry.CreateEntity()
	_, err := ecs.Add(f.registry, cam, component.NewCamera(mgl32.Vec3{0, 0, 5}, 1))
	require.NoError(t, err)

	w := &fakeWindow{width: 64, height: 64}
	eng := engine.NewEngine(f.registry, f.renderer, engine.WithWindow(w))
	require.NotNil(t, w.resize)

	frames := 0
	eng.SetFrameCallback(func(renderer.FrameStats) {
		frames++
		if frames == 1 {
			w.resize(200, 100)
		}
		if frames == 2 {
			eng.Quit()
		}
	})
	require.NoError(t, eng.Run(context.Background()))
	assert.Equal(t, 2, frames)
	assert.True(t, w.closing)

	width, height := f.renderer.Size()
	assert.Equal(t, 200, width)
	assert.Equal(t, 100, height)
	c, _ := ecs.Get[component.Camera](f.registry, cam)
	assert.InDelta(t, 2.0, c.Aspect, 1e-6)
}

func TestNewEngineRequiresRenderer(t *testing.T) {
	assert.Panics(t, func() { engine.NewEngine(ecs.NewRegistry(), nil) })
}
