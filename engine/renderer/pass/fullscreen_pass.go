package pass

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-core/engine/component"
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/system"
	"go.uber.org/zap"
)

// ParamsWriter uploads the pass specific uniforms of a fullscreen pass during prepare.
type ParamsWriter func(ctx *system.RenderContext, set *bind_group_provider.Set) error

// FullscreenPass draws one screen covering triangle per frame, sampling named textures and
// writing a single color target. It runs for the first active camera; the vertex stage must
// derive positions from the vertex index.
//
// Tuple layout: Camera.
type FullscreenPass struct {
	system.Base
	shaders   *shader.Library
	shaderKey string
	logger    *zap.Logger

	output     ColorTarget
	clear      bool
	clearColor gpu.Color
	blend      bool
	textures   map[string]string
	samplers   map[string]string
	params     ParamsWriter
	maxLights  int
	shadow     ShadowSettings

	pipeline pipeline.Pipeline
	bindings *bind_group_provider.Set
	scene    sceneData
	drawn    bool
	res      owned
}

var _ system.RenderSystem = &FullscreenPass{}

// NewFullscreenPass creates a fullscreen pass named name drawing with the shader stored under
// shaderKey.
//
// Parameters:
//   - name: the pass name
//   - shaderKey: the shader library key
//   - options: functional options; WithFullscreenShaderLibrary is required
//
// Returns:
//   - *FullscreenPass: the pass
func NewFullscreenPass(name, shaderKey string, options ...FullscreenPassBuilderOption) *FullscreenPass {
	p := &FullscreenPass{
		Base: system.NewBase(name,
			system.Require[component.Camera](),
			system.WithPredicate(func(reg *ecs.Registry, e ecs.Entity) bool {
				c, ok := ecs.Get[component.Camera](reg, e)
				return ok && c.Active
			}),
		),
		shaderKey: shaderKey,
		logger:    zap.NewNop(),
		output:    ColorTarget{Name: TargetSurface},
		textures:  make(map[string]string),
		samplers:  make(map[string]string),
		maxLights: DefaultMaxLights,
		shadow:    DefaultShadowSettings(),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.shaders == nil {
		panic(fmt.Sprintf("pass: %s has no shader library", name))
	}
	return p
}

// NewSSAOPass estimates ambient occlusion from the geometry buffer into TargetSSAO.
func NewSSAOPass(options ...FullscreenPassBuilderOption) *FullscreenPass {
	defaults := []FullscreenPassBuilderOption{
		WithOutput(TargetSSAO, gpu.TextureFormatR8Unorm),
		WithInput("gNormal", TargetGBufferNormal),
		WithInput("gPosition", TargetGBufferPosition),
		WithInputSampler("gSampler", SamplerNearest),
		WithClearColor(gpu.Color{R: 1, G: 1, B: 1, A: 1}),
	}
	return NewFullscreenPass("ssao", "ssao", append(defaults, options...)...)
}

// NewBlurPass smooths TargetSSAO into TargetSSAOBlur.
func NewBlurPass(options ...FullscreenPassBuilderOption) *FullscreenPass {
	defaults := []FullscreenPassBuilderOption{
		WithOutput(TargetSSAOBlur, gpu.TextureFormatR8Unorm),
		WithInput("source", TargetSSAO),
		WithInputSampler("sourceSampler", SamplerLinear),
		WithParams(texelSizeParams),
	}
	return NewFullscreenPass("blur", "blur", append(defaults, options...)...)
}

// NewLightingPass shades the geometry buffer with the scene lights, the shadow map and the
// blurred occlusion into TargetHDR.
func NewLightingPass(options ...FullscreenPassBuilderOption) *FullscreenPass {
	defaults := []FullscreenPassBuilderOption{
		WithOutput(TargetHDR, gpu.TextureFormatRGBA16Float),
		WithInput("gAlbedo", TargetGBufferAlbedo),
		WithInput("gNormal", TargetGBufferNormal),
		WithInput("gPosition", TargetGBufferPosition),
		WithInput("occlusion", TargetSSAOBlur),
		WithInput(VarShadowMap, TargetShadowMap),
		WithInputSampler("gSampler", SamplerNearest),
		WithInputSampler(VarShadowSampler, SamplerShadow),
		WithClearColor(gpu.Color{A: 1}),
	}
	return NewFullscreenPass("lighting", "lighting", append(defaults, options...)...)
}

// NewAntiAliasPass applies FXAA to TargetHDR, tone mapped into TargetLDR.
func NewAntiAliasPass(options ...FullscreenPassBuilderOption) *FullscreenPass {
	defaults := []FullscreenPassBuilderOption{
		WithOutput(TargetLDR, gpu.TextureFormatRGBA8Unorm),
		WithInput("source", TargetHDR),
		WithInputSampler("sourceSampler", SamplerLinear),
		WithParams(texelSizeParams),
	}
	return NewFullscreenPass("fxaa", "fxaa", append(defaults, options...)...)
}

// NewBlitPass copies source onto the swapchain image.
func NewBlitPass(source string, options ...FullscreenPassBuilderOption) *FullscreenPass {
	defaults := []FullscreenPassBuilderOption{
		WithInput("source", source),
		WithInputSampler("sourceSampler", SamplerLinear),
		WithClearColor(gpu.Color{A: 1}),
	}
	return NewFullscreenPass("blit", "blit", append(defaults, options...)...)
}

// texelSizeParams writes params.texelSize as the reciprocal of the frame size.
func texelSizeParams(ctx *system.RenderContext, set *bind_group_provider.Set) error {
	if !set.Has(VarParams) {
		return nil
	}
	w, h := max(ctx.Frame.Width, 1), max(ctx.Frame.Height, 1)
	return set.WriteMember(VarParams, "texelSize", component.Float32Bytes(1/float32(w), 1/float32(h)))
}

// Bindings returns the pass's binding set, nil before Create.
func (p *FullscreenPass) Bindings() *bind_group_provider.Set {
	return p.bindings
}

// Output returns the target the pass writes, TargetSurface for the swapchain image.
func (p *FullscreenPass) Output() ColorTarget {
	return p.output
}

func (p *FullscreenPass) Create(ctx *system.RenderContext) error {
	if err := ensureSamplers(ctx); err != nil {
		return err
	}
	format := p.output.Format
	if p.output.Name == TargetSurface {
		format = ctx.Frame.SurfaceFormat
	} else if err := ensureTarget(ctx, p.output.Name, format); err != nil {
		return err
	}

	sh, ok := p.shaders.Get(p.shaderKey)
	if !ok {
		return fmt.Errorf("shader %q is not loaded", p.shaderKey)
	}
	state := pipeline.NewState(
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithBlendEnabled(p.blend),
	)
	pl, err := pipeline.NewRenderPipeline(ctx.Device, p.Name()+"/"+p.shaderKey, sh, sh, state, pipeline.Targets{
		Colors:      []gpu.TextureFormat{format},
		SampleCount: 1,
	})
	if err != nil {
		return err
	}
	p.pipeline = pl
	p.res.add(pl)

	opts := []bind_group_provider.BindGroupProviderOption{
		bind_group_provider.WithRuntimeArrayLength(VarLights, uint64(p.maxLights)),
	}
	for _, v := range slices.Sorted(maps.Keys(p.textures)) {
		if err := ensureInput(ctx, pl.Descriptor(), v, p.textures[v]); err != nil {
			return fmt.Errorf("input %q: %w", v, err)
		}
		opts = append(opts, bind_group_provider.WithTexture(v, p.textures[v]))
	}
	for v, name := range p.samplers {
		opts = append(opts, bind_group_provider.WithSampler(v, name))
	}
	set, err := pl.NewBindings(ctx.Device, p.Name(), opts...)
	if err != nil {
		return err
	}
	p.bindings = set
	p.res.add(set)
	p.logger.Debug("pass created",
		zap.String("pass", p.Name()),
		zap.String("shader", p.shaderKey),
		zap.String("output", p.output.Name),
	)
	return nil
}

func (p *FullscreenPass) OnCreate(*system.RenderContext, ecs.Entity, system.Tuple) error {
	return nil
}

func (p *FullscreenPass) OnPrepare(ctx *system.RenderContext, _ ecs.Entity, _ system.Tuple) error {
	if p.scene.valid && p.scene.frame == ctx.Frame.Index {
		return nil
	}
	p.scene.capture(ctx, p.maxLights, p.shadow)
	if err := p.scene.write(p.bindings); err != nil {
		return err
	}
	if p.params != nil {
		if err := p.params(ctx, p.bindings); err != nil {
			return err
		}
	}
	_, err := p.bindings.Prepare(ctx.Textures)
	return err
}

func (p *FullscreenPass) BeginPass(ctx *system.RenderContext, encoder gpu.CommandEncoder) (gpu.RenderPassEncoder, error) {
	v, err := view(ctx, p.output.Name)
	if err != nil {
		return nil, err
	}
	load := gpu.LoadOpLoad
	if p.clear {
		load = gpu.LoadOpClear
	}
	p.drawn = false
	return encoder.BeginRenderPass(&gpu.RenderPassDescriptor{
		Label: p.Name(),
		ColorAttachments: []gpu.ColorAttachment{{
			View:       v,
			LoadOp:     load,
			StoreOp:    gpu.StoreOpStore,
			ClearValue: p.clearColor,
		}},
	}), nil
}

func (p *FullscreenPass) OnRender(pass gpu.RenderPassEncoder, _ ecs.Entity, _ system.Tuple) error {
	if p.drawn {
		return nil
	}
	pass.SetPipeline(p.pipeline.RenderPipeline())
	p.bindings.Bind(pass)
	pass.Draw(3, 1, 0, 0)
	p.drawn = true
	return nil
}

func (p *FullscreenPass) Release() {
	p.res.release()
	p.bindings = nil
	p.pipeline = nil
	p.scene = sceneData{}
}
