package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/component"
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/system"
	"go.uber.org/zap"
)

// ColorTarget is one color attachment of a pass.
type ColorTarget struct {
	Name   string
	Format gpu.TextureFormat
}

// MeshPass draws every entity with a Transform, Mesh, Material and the pass's shader component.
// Entities are culled against the active camera's frustum and skipped when a RenderExclusive
// component does not list the pass.
//
// Tuple layout: Transform, Mesh, Material, shader component.
type MeshPass struct {
	system.Base
	shaders *shader.Library
	binding func(c system.Tuple) *component.ShaderBinding
	logger  *zap.Logger

	colors      []ColorTarget
	depth       string
	depthFormat gpu.TextureFormat
	clear       bool
	clearColor  gpu.Color
	maxLights   int
	shadow      ShadowSettings
	culling     bool

	scene    sceneData
	frustum  common.Frustum
	visible  map[ecs.Entity]bool
	entities tracked
	res      owned
}

var _ system.RenderSystem = &MeshPass{}

const (
	tupleTransform = iota
	tupleMesh
	tupleMaterial
	tupleShader
)

func newMeshPass(name string, base system.Base, binding func(system.Tuple) *component.ShaderBinding, options []MeshPassBuilderOption) *MeshPass {
	p := &MeshPass{
		Base:        base,
		binding:     binding,
		logger:      zap.NewNop(),
		depth:       TargetDepth,
		depthFormat: gpu.TextureFormatDepth32Float,
		maxLights:   DefaultMaxLights,
		shadow:      DefaultShadowSettings(),
		culling:     true,
		visible:     make(map[ecs.Entity]bool),
		entities:    make(tracked),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.shaders == nil {
		panic(fmt.Sprintf("pass: %s has no shader library", name))
	}
	if len(p.colors) == 0 {
		panic(fmt.Sprintf("pass: %s has no color targets", name))
	}
	return p
}

// NewForwardPass draws ForwardShader entities into the HDR target on top of what earlier passes
// left there.
//
// Parameters:
//   - options: functional options; WithShaderLibrary is required
//
// Returns:
//   - *MeshPass: the pass
func NewForwardPass(options ...MeshPassBuilderOption) *MeshPass {
	base := system.NewBase("forward",
		system.Require[component.Transform](),
		system.Require[component.Mesh](),
		system.Require[component.Material](),
		system.Require[component.ForwardShader](),
	)
	defaults := []MeshPassBuilderOption{
		WithColorTargets(ColorTarget{Name: TargetHDR, Format: gpu.TextureFormatRGBA16Float}),
	}
	return newMeshPass("forward", base, func(c system.Tuple) *component.ShaderBinding {
		return &system.At[component.ForwardShader](c, tupleShader).ShaderBinding
	}, append(defaults, options...))
}

// NewGeometryPass draws DeferredShader entities into the geometry buffer: albedo, normal and
// position targets plus depth, all cleared at the start of the frame.
//
// Parameters:
//   - options: functional options; WithShaderLibrary is required
//
// Returns:
//   - *MeshPass: the pass
func NewGeometryPass(options ...MeshPassBuilderOption) *MeshPass {
	base := system.NewBase("geometry",
		system.Require[component.Transform](),
		system.Require[component.Mesh](),
		system.Require[component.Material](),
		system.Require[component.DeferredShader](),
	)
	defaults := []MeshPassBuilderOption{
		WithColorTargets(
			ColorTarget{Name: TargetGBufferAlbedo, Format: gpu.TextureFormatRGBA8Unorm},
			ColorTarget{Name: TargetGBufferNormal, Format: gpu.TextureFormatRGBA16Float},
			ColorTarget{Name: TargetGBufferPosition, Format: gpu.TextureFormatRGBA16Float},
		),
		WithClear(gpu.Color{}),
	}
	return newMeshPass("geometry", base, func(c system.Tuple) *component.ShaderBinding {
		return &system.At[component.DeferredShader](c, tupleShader).ShaderBinding
	}, append(defaults, options...))
}

// Targets returns the attachment formats the pass's pipelines are compiled against.
func (p *MeshPass) Targets() pipeline.Targets {
	t := pipeline.Targets{SampleCount: 1}
	for _, c := range p.colors {
		t.Colors = append(t.Colors, c.Format)
	}
	if p.depth != "" {
		t.Depth = p.depthFormat
	}
	return t
}

func (p *MeshPass) Create(ctx *system.RenderContext) error {
	if err := ensureSamplers(ctx); err != nil {
		return err
	}
	for _, c := range p.colors {
		if err := ensureTarget(ctx, c.Name, c.Format); err != nil {
			return err
		}
	}
	if p.depth != "" {
		if err := ensureTarget(ctx, p.depth, p.depthFormat); err != nil {
			return err
		}
	}
	p.logger.Debug("pass created", zap.String("pass", p.Name()), zap.Int("targets", len(p.colors)))
	return nil
}

func (p *MeshPass) OnCreate(ctx *system.RenderContext, e ecs.Entity, c system.Tuple) error {
	mesh := system.At[component.Mesh](c, tupleMesh)
	mat := system.At[component.Material](c, tupleMaterial)
	sb := p.binding(c)
	res := p.entities.get(e)

	if err := mesh.Upload(ctx.Device); err != nil {
		return err
	}
	res.setMesh(mesh)

	sh, ok := p.shaders.Get(sb.Key)
	if !ok {
		return fmt.Errorf("shader %q is not loaded", sb.Key)
	}
	if mat.Pipeline == nil {
		pl, err := pipeline.NewRenderPipeline(ctx.Device, p.Name()+"/"+mat.Name+"/"+sb.Key, sh, sh, mat.State, p.Targets())
		if err != nil {
			return err
		}
		mat.Pipeline = pl
	}
	res.pipeline = mat.Pipeline

	sb.Release()
	opts := append(mat.BindingOptions(), bind_group_provider.WithRuntimeArrayLength(VarLights, uint64(p.maxLights)))
	set, err := mat.Pipeline.NewBindings(ctx.Device, fmt.Sprintf("%s/%d", p.Name(), e.Index()), opts...)
	if err != nil {
		return err
	}
	if err := bindShadowMap(set, mat.Textures); err != nil {
		set.Release()
		return err
	}
	if set.Has(VarShadowMap) {
		if err := ensureInput(ctx, mat.Pipeline.Descriptor(), VarShadowMap, TargetShadowMap); err != nil {
			set.Release()
			return err
		}
	}
	sb.Shader = sh
	sb.Bindings = set
	res.set = set
	return nil
}

// OnForget releases the binding set of e and, once e's mesh or material is gone, the buffers and
// pipeline created for them.
func (p *MeshPass) OnForget(ctx *system.RenderContext, e ecs.Entity) {
	n := p.entities.forget(ctx.Registry, e, &p.res)
	delete(p.visible, e)
	p.logger.Debug("entity forgotten", zap.String("pass", p.Name()), zap.Uint32("entity", e.Index()), zap.Int("released", n))
}

func (p *MeshPass) OnPrepare(ctx *system.RenderContext, e ecs.Entity, c system.Tuple) error {
	if !p.scene.valid || p.scene.frame != ctx.Frame.Index {
		p.scene.capture(ctx, p.maxLights, p.shadow)
		if p.scene.hasCamera {
			p.frustum = common.ExtractFrustum(p.scene.camera.ViewProjection())
		}
		clear(p.visible)
	}

	tr := system.At[component.Transform](c, tupleTransform)
	mesh := system.At[component.Mesh](c, tupleMesh)
	mat := system.At[component.Material](c, tupleMaterial)
	set := p.binding(c).Bindings

	if set.Has(VarModel) {
		model := component.GPUModelUniform{Model: tr.Matrix(), Normal: tr.NormalMatrix(), Color: mat.Color}
		if err := set.WriteBinding(VarModel, model.Marshal()); err != nil {
			return err
		}
	}
	if err := p.scene.write(set); err != nil {
		return err
	}
	if _, err := set.Prepare(ctx.Textures); err != nil {
		return err
	}

	p.visible[e] = p.allows(ctx.Registry, e) && p.inFrustum(tr, mesh)
	return nil
}

func (p *MeshPass) allows(reg *ecs.Registry, e ecs.Entity) bool {
	if ex, ok := ecs.Get[component.RenderExclusive](reg, e); ok {
		return ex.Allows(p.Name())
	}
	return true
}

func (p *MeshPass) inFrustum(tr *component.Transform, mesh *component.Mesh) bool {
	if !p.culling || !p.scene.hasCamera {
		return true
	}
	scale := tr.Scale
	if scale.Len() == 0 {
		return true
	}
	radius := mesh.BoundingRadius() * max(abs(scale.X()), abs(scale.Y()), abs(scale.Z()))
	return p.frustum.SphereVisible(tr.Position, radius)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func (p *MeshPass) BeginPass(ctx *system.RenderContext, encoder gpu.CommandEncoder) (gpu.RenderPassEncoder, error) {
	load := gpu.LoadOpLoad
	if p.clear {
		load = gpu.LoadOpClear
	}
	desc := &gpu.RenderPassDescriptor{Label: p.Name()}
	for _, c := range p.colors {
		v, err := view(ctx, c.Name)
		if err != nil {
			return nil, err
		}
		desc.ColorAttachments = append(desc.ColorAttachments, gpu.ColorAttachment{
			View:       v,
			LoadOp:     load,
			StoreOp:    gpu.StoreOpStore,
			ClearValue: p.clearColor,
		})
	}
	if p.depth != "" {
		v, err := view(ctx, p.depth)
		if err != nil {
			return nil, err
		}
		desc.DepthStencilAttachment = &gpu.DepthStencilAttachment{
			View:            v,
			DepthLoadOp:     load,
			DepthStoreOp:    gpu.StoreOpStore,
			DepthClearValue: 1,
		}
	}
	return encoder.BeginRenderPass(desc), nil
}

func (p *MeshPass) OnRender(pass gpu.RenderPassEncoder, e ecs.Entity, c system.Tuple) error {
	if !p.visible[e] {
		return nil
	}
	mesh := system.At[component.Mesh](c, tupleMesh)
	mat := system.At[component.Material](c, tupleMaterial)
	sb := p.binding(c)
	if mat.Pipeline == nil || sb.Bindings == nil {
		return fmt.Errorf("entity %d was not created", e.Index())
	}

	pass.SetPipeline(mat.Pipeline.RenderPipeline())
	sb.Bindings.Bind(pass)
	mesh.Draw(pass, 1)
	return nil
}

// Visible reports whether e survived culling in the last prepare phase.
func (p *MeshPass) Visible(e ecs.Entity) bool {
	return p.visible[e]
}

// Release frees every pipeline, binding set and mesh buffer the pass created.
func (p *MeshPass) Release() {
	p.entities.release()
	p.res.release()
	clear(p.visible)
}
