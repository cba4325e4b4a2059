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

// Variables a skybox shader declares. params is a uniform with members invViewProj: mat4x4f and
// intensity: f32.
const (
	VarSkybox        = "skybox"
	VarSkyboxSampler = "skyboxSampler"
)

// SkyboxPass draws each Skybox entity as a fullscreen triangle at the far plane of the HDR target.
// Pixels already covered by geometry fail the depth test against TargetDepth.
//
// Tuple layout: Skybox.
type SkyboxPass struct {
	system.Base
	shaders *shader.Library
	logger  *zap.Logger
	output  ColorTarget
	depth   string

	pipelines map[string]pipeline.Pipeline
	hasCamera bool
	entities  tracked
	res       owned
}

var _ system.RenderSystem = &SkyboxPass{}

// NewSkyboxPass creates the skybox pass.
//
// Parameters:
//   - options: functional options; WithSkyboxShaderLibrary is required
//
// Returns:
//   - *SkyboxPass: the pass
func NewSkyboxPass(options ...SkyboxPassBuilderOption) *SkyboxPass {
	p := &SkyboxPass{
		Base:      system.NewBase("skybox", system.Require[component.Skybox]()),
		logger:    zap.NewNop(),
		output:    ColorTarget{Name: TargetHDR, Format: gpu.TextureFormatRGBA16Float},
		depth:     TargetDepth,
		pipelines: make(map[string]pipeline.Pipeline),
		entities:  make(tracked),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.shaders == nil {
		panic("pass: skybox has no shader library")
	}
	return p
}

func (p *SkyboxPass) Create(ctx *system.RenderContext) error {
	if err := ensureSamplers(ctx); err != nil {
		return err
	}
	if err := ensureTarget(ctx, p.output.Name, p.output.Format); err != nil {
		return err
	}
	return ensureTarget(ctx, p.depth, gpu.TextureFormatDepth32Float)
}

func (p *SkyboxPass) pipelineFor(device gpu.Device, key string) (pipeline.Pipeline, error) {
	if pl, ok := p.pipelines[key]; ok {
		return pl, nil
	}
	sh, ok := p.shaders.Get(key)
	if !ok {
		return nil, fmt.Errorf("shader %q is not loaded", key)
	}
	state := pipeline.NewState(
		pipeline.WithDepthWriteEnabled(false),
		pipeline.WithDepthCompare(gpu.CompareFunctionLessEqual),
	)
	pl, err := pipeline.NewRenderPipeline(device, p.Name()+"/"+key, sh, sh, state, pipeline.Targets{
		Colors:      []gpu.TextureFormat{p.output.Format},
		Depth:       gpu.TextureFormatDepth32Float,
		SampleCount: 1,
	})
	if err != nil {
		return nil, err
	}
	p.pipelines[key] = pl
	p.res.add(pl)
	return pl, nil
}

func (p *SkyboxPass) OnCreate(ctx *system.RenderContext, e ecs.Entity, c system.Tuple) error {
	sky := system.At[component.Skybox](c, 0)
	pl, err := p.pipelineFor(ctx.Device, sky.Key)
	if err != nil {
		return err
	}
	sampler := sky.Sampler
	if sampler == "" {
		sampler = SamplerLinear
	}

	sky.Release()
	set, err := pl.NewBindings(ctx.Device, fmt.Sprintf("%s/%d", p.Name(), e.Index()),
		bind_group_provider.WithTexture(VarSkybox, sky.Texture),
		bind_group_provider.WithSampler(VarSkyboxSampler, sampler),
	)
	if err != nil {
		return err
	}
	sky.Shader = pl.Shader(gpu.ShaderStageFragment)
	sky.Bindings = set
	p.entities.get(e).set = set
	return nil
}

// OnForget releases the binding set of e. Pipelines are shared by every sky using the same shader.
func (p *SkyboxPass) OnForget(ctx *system.RenderContext, e ecs.Entity) {
	p.entities.forget(ctx.Registry, e, &p.res)
}

func (p *SkyboxPass) OnPrepare(ctx *system.RenderContext, _ ecs.Entity, c system.Tuple) error {
	sky := system.At[component.Skybox](c, 0)
	set := sky.Bindings
	cam, ok := ActiveCamera(ctx.Registry)
	p.hasCamera = ok
	if !ok {
		return nil
	}

	if set.Has(VarParams) {
		rot := cam.View()
		// Drop the translation so the sky stays at infinity.
		rot[12], rot[13], rot[14] = 0, 0, 0
		invViewProj := cam.Projection().Mul4(rot).Inv()
		if err := set.WriteMember(VarParams, "invViewProj", component.Mat4Bytes(invViewProj)); err != nil {
			return err
		}
		intensity := sky.Intensity
		if intensity == 0 {
			intensity = 1
		}
		if err := set.WriteMember(VarParams, "intensity", component.Float32Bytes(intensity)); err != nil {
			return err
		}
	}
	_, err := set.Prepare(ctx.Textures)
	return err
}

func (p *SkyboxPass) BeginPass(ctx *system.RenderContext, encoder gpu.CommandEncoder) (gpu.RenderPassEncoder, error) {
	color, err := view(ctx, p.output.Name)
	if err != nil {
		return nil, err
	}
	depth, err := view(ctx, p.depth)
	if err != nil {
		return nil, err
	}
	return encoder.BeginRenderPass(&gpu.RenderPassDescriptor{
		Label: p.Name(),
		ColorAttachments: []gpu.ColorAttachment{{
			View:    color,
			LoadOp:  gpu.LoadOpLoad,
			StoreOp: gpu.StoreOpStore,
		}},
		DepthStencilAttachment: &gpu.DepthStencilAttachment{
			View:         depth,
			DepthLoadOp:  gpu.LoadOpLoad,
			DepthStoreOp: gpu.StoreOpStore,
		},
	}), nil
}

func (p *SkyboxPass) OnRender(pass gpu.RenderPassEncoder, _ ecs.Entity, c system.Tuple) error {
	if !p.hasCamera {
		return nil
	}
	sky := system.At[component.Skybox](c, 0)
	pl, ok := p.pipelines[sky.Key]
	if !ok || sky.Bindings == nil {
		return fmt.Errorf("skybox %q was not created", sky.Key)
	}
	pass.SetPipeline(pl.RenderPipeline())
	sky.Bindings.Bind(pass)
	pass.Draw(3, 1, 0, 0)
	return nil
}

func (p *SkyboxPass) Release() {
	p.entities.release()
	p.res.release()
	clear(p.pipelines)
	p.hasCamera = false
}
