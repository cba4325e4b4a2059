package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/component"
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/system"
	"go.uber.org/zap"
)

// DefaultShadowShader is the shader library key the shadow pass draws with unless configured.
const DefaultShadowShader = "shadow"

// ShadowPass renders the depth of every shadow casting entity from the first shadow casting
// directional light into TargetShadowMap. Without such a light the pass clears the map and draws
// nothing.
//
// Tuple layout: Transform, Mesh, ShadowAffection.
type ShadowPass struct {
	system.Base
	shaders   *shader.Library
	shaderKey string
	settings  ShadowSettings
	logger    *zap.Logger

	pipeline pipeline.Pipeline
	entities tracked

	frame   uint64
	primed  bool
	enabled bool
	uniform []byte
	res     owned
}

var _ system.RenderSystem = &ShadowPass{}

// NewShadowPass creates the shadow pass.
//
// Parameters:
//   - options: functional options; WithShadowShaderLibrary is required
//
// Returns:
//   - *ShadowPass: the pass
func NewShadowPass(options ...ShadowPassBuilderOption) *ShadowPass {
	p := &ShadowPass{
		Base: system.NewBase("shadow",
			system.Require[component.Transform](),
			system.Require[component.Mesh](),
			system.Require[component.ShadowAffection](),
			system.WithPredicate(func(reg *ecs.Registry, e ecs.Entity) bool {
				sa, ok := ecs.Get[component.ShadowAffection](reg, e)
				return ok && sa.Cast
			}),
		),
		shaderKey: DefaultShadowShader,
		settings:  DefaultShadowSettings(),
		logger:    zap.NewNop(),
		entities:  make(tracked),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.shaders == nil {
		panic("pass: shadow has no shader library")
	}
	return p
}

// Settings returns the light-space projection the pass renders with.
func (p *ShadowPass) Settings() ShadowSettings {
	return p.settings
}

func (p *ShadowPass) Create(ctx *system.RenderContext) error {
	if err := ensureSamplers(ctx); err != nil {
		return err
	}
	size := p.settings.Resolution
	if err := ctx.Textures.CreateRenderTarget(TargetShadowMap, gpu.TextureFormatDepth32Float, size, size, false); err != nil {
		return err
	}

	sh, ok := p.shaders.Get(p.shaderKey)
	if !ok {
		return fmt.Errorf("shader %q is not loaded", p.shaderKey)
	}
	state := pipeline.NewState(
		pipeline.WithDepthBias(2, 2.0),
		pipeline.WithCullMode(gpu.CullModeBack),
	)
	pl, err := pipeline.NewRenderPipeline(ctx.Device, p.Name()+"/"+p.shaderKey, sh, nil, state, pipeline.Targets{
		Depth:       gpu.TextureFormatDepth32Float,
		SampleCount: 1,
	})
	if err != nil {
		return err
	}
	p.pipeline = pl
	p.res.add(pl)
	p.logger.Debug("shadow map created", zap.Uint32("resolution", size))
	return nil
}

func (p *ShadowPass) OnCreate(ctx *system.RenderContext, e ecs.Entity, c system.Tuple) error {
	mesh := system.At[component.Mesh](c, 1)
	if err := mesh.Upload(ctx.Device); err != nil {
		return err
	}
	res := p.entities.get(e)
	res.setMesh(mesh)

	if res.set != nil {
		res.set.Release()
	}
	set, err := p.pipeline.NewBindings(ctx.Device, fmt.Sprintf("%s/%d", p.Name(), e.Index()))
	if err != nil {
		return err
	}
	res.set = set
	return nil
}

// OnForget releases the binding set of e and, once e is destroyed or loses its mesh, the mesh
// buffers.
func (p *ShadowPass) OnForget(ctx *system.RenderContext, e ecs.Entity) {
	n := p.entities.forget(ctx.Registry, e, &p.res)
	p.logger.Debug("entity forgotten", zap.Uint32("entity", e.Index()), zap.Int("released", n))
}

// binding returns the set created for e.
func (p *ShadowPass) binding(e ecs.Entity) (*bind_group_provider.Set, error) {
	res, ok := p.entities[e]
	if !ok || res.set == nil {
		return nil, fmt.Errorf("entity %d was not created", e.Index())
	}
	return res.set, nil
}

func (p *ShadowPass) OnPrepare(ctx *system.RenderContext, e ecs.Entity, c system.Tuple) error {
	if !p.primed || p.frame != ctx.Frame.Index {
		p.frame, p.primed = ctx.Frame.Index, true
		u := ShadowUniform(ctx.Registry, p.settings)
		p.enabled = u.Enabled == 1
		p.uniform = u.Marshal()
	}

	set, err := p.binding(e)
	if err != nil {
		return err
	}
	tr := system.At[component.Transform](c, 0)
	if set.Has(VarModel) {
		model := component.GPUModelUniform{Model: tr.Matrix(), Normal: tr.NormalMatrix()}
		if err := set.WriteBinding(VarModel, model.Marshal()); err != nil {
			return err
		}
	}
	if set.Has(VarShadow) {
		if err := set.WriteBinding(VarShadow, p.uniform); err != nil {
			return err
		}
	}
	_, err = set.Prepare(ctx.Textures)
	return err
}

func (p *ShadowPass) BeginPass(ctx *system.RenderContext, encoder gpu.CommandEncoder) (gpu.RenderPassEncoder, error) {
	v, err := view(ctx, TargetShadowMap)
	if err != nil {
		return nil, err
	}
	return encoder.BeginRenderPass(&gpu.RenderPassDescriptor{
		Label: p.Name(),
		DepthStencilAttachment: &gpu.DepthStencilAttachment{
			View:            v,
			DepthLoadOp:     gpu.LoadOpClear,
			DepthStoreOp:    gpu.StoreOpStore,
			DepthClearValue: 1,
		},
	}), nil
}

func (p *ShadowPass) OnRender(pass gpu.RenderPassEncoder, e ecs.Entity, c system.Tuple) error {
	if !p.enabled {
		return nil
	}
	set, err := p.binding(e)
	if err != nil {
		return err
	}
	pass.SetPipeline(p.pipeline.RenderPipeline())
	set.Bind(pass)
	system.At[component.Mesh](c, 1).Draw(pass, 1)
	return nil
}

func (p *ShadowPass) Release() {
	p.entities.release()
	p.res.release()
	p.pipeline = nil
}
