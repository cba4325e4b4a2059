package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

func (t PipelineType) String() string {
	if t == PipelineTypeCompute {
		return "compute"
	}
	return "render"
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineType PipelineType
	pipelineKey  string

	vertexShader, fragmentShader, computeShader shader.Shader

	// desc is the union of every stage's reflected bindings.
	desc  *shader.Descriptor
	state State

	bindGroupLayouts []gpu.BindGroupLayout
	layout           gpu.PipelineLayout
	renderPipeline   gpu.RenderPipeline
	computePipeline  gpu.ComputePipeline
}

// Pipeline is a compiled render or compute pipeline together with the bind group layouts
// derived from its shaders. It satisfies bind_group_provider.LayoutSource.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader bound to the given stage, nil if none is.
	//
	// Parameters:
	//   - stage: the shader stage
	//
	// Returns:
	//   - shader.Shader: the shader for that stage
	Shader(stage gpu.ShaderStage) shader.Shader

	// Descriptor returns the merged reflection of every stage.
	//
	// Returns:
	//   - *shader.Descriptor: the merged descriptor
	Descriptor() *shader.Descriptor

	// State returns the fixed-function state the pipeline was compiled with.
	//
	// Returns:
	//   - State: the fixed-function state
	State() State

	// BindGroupLayout returns the layout of group, nil when the index is past the last group.
	// Groups the shaders skip get an empty layout.
	//
	// Parameters:
	//   - group: the group index
	//
	// Returns:
	//   - gpu.BindGroupLayout: the layout
	BindGroupLayout(group uint32) gpu.BindGroupLayout

	// RenderPipeline returns the compiled render pipeline, nil for compute pipelines.
	RenderPipeline() gpu.RenderPipeline

	// ComputePipeline returns the compiled compute pipeline, nil for render pipelines.
	ComputePipeline() gpu.ComputePipeline

	// NewBindings creates and initializes a provider set for the pipeline's groups.
	//
	// Parameters:
	//   - device: the allocating device
	//   - label: debug label prefix for the providers
	//   - options: provider options
	//
	// Returns:
	//   - *bind_group_provider.Set: the initialized providers
	//   - error: error if a buffer could not be allocated
	NewBindings(device gpu.Device, label string, options ...bind_group_provider.BindGroupProviderOption) (*bind_group_provider.Set, error)

	// Release frees the pipeline, its layout and its bind group layouts. Shaders are not released.
	Release()
}

var _ Pipeline = &pipeline{}
var _ bind_group_provider.LayoutSource = &pipeline{}

// NewRenderPipeline compiles a render pipeline. vertex must declare a vertex entry point; fragment
// may be nil for depth-only passes and may be the same shader as vertex. The vertex buffer layout
// comes from the vertex entry point's @location inputs.
//
// Parameters:
//   - device: the device that compiles the pipeline
//   - key: the unique pipeline key
//   - vertex: the shader with the vertex entry point
//   - fragment: the shader with the fragment entry point, or nil
//   - state: the fixed-function state
//   - targets: the attachment formats
//
// Returns:
//   - Pipeline: the compiled pipeline
//   - error: error if the shaders disagree on a binding or a GPU object could not be created
func NewRenderPipeline(device gpu.Device, key string, vertex, fragment shader.Shader, state State, targets Targets) (Pipeline, error) {
	if key == "" {
		panic("pipeline: empty pipeline key")
	}
	if vertex == nil {
		panic("pipeline: render pipeline without vertex shader")
	}
	if vertex.EntryPoint(gpu.ShaderStageVertex) == "" {
		return nil, fmt.Errorf("pipeline %q: shader %q has no vertex entry point", key, vertex.Key())
	}
	if fragment != nil && fragment.EntryPoint(gpu.ShaderStageFragment) == "" {
		return nil, fmt.Errorf("pipeline %q: shader %q has no fragment entry point", key, fragment.Key())
	}

	p := &pipeline{
		pipelineType:   PipelineTypeRender,
		pipelineKey:    key,
		vertexShader:   vertex,
		fragmentShader: fragment,
		state:          state,
	}
	if err := p.buildLayouts(device, vertex, fragment); err != nil {
		p.Release()
		return nil, err
	}

	vm, err := vertex.Module(device)
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("pipeline %q: %w", key, err)
	}

	desc := &gpu.RenderPipelineDescriptor{
		Label:  key,
		Layout: p.layout,
		Vertex: gpu.VertexState{
			Module:     vm,
			EntryPoint: vertex.EntryPoint(gpu.ShaderStageVertex),
		},
		Primitive:    state.primitive(),
		DepthStencil: state.depthStencil(targets.Depth),
		SampleCount:  max(targets.SampleCount, 1),
	}
	if vbl, ok := vertex.Descriptor().VertexBufferLayout(); ok {
		desc.Vertex.Buffers = []gpu.VertexBufferLayout{vbl}
	}
	if fragment != nil {
		fm, err := fragment.Module(device)
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("pipeline %q: %w", key, err)
		}
		desc.Fragment = &gpu.FragmentState{
			Module:     fm,
			EntryPoint: fragment.EntryPoint(gpu.ShaderStageFragment),
			Targets:    state.colorTargets(targets.Colors),
		}
	}

	rp, err := device.CreateRenderPipeline(desc)
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("pipeline %q: create render pipeline: %w", key, err)
	}
	p.renderPipeline = rp
	return p, nil
}

// NewComputePipeline compiles a compute pipeline from a shader with a compute entry point.
//
// Parameters:
//   - device: the device that compiles the pipeline
//   - key: the unique pipeline key
//   - compute: the shader with the compute entry point
//
// Returns:
//   - Pipeline: the compiled pipeline
//   - error: error if a GPU object could not be created
func NewComputePipeline(device gpu.Device, key string, compute shader.Shader) (Pipeline, error) {
	if key == "" {
		panic("pipeline: empty pipeline key")
	}
	if compute == nil {
		panic("pipeline: compute pipeline without shader")
	}
	entry := compute.EntryPoint(gpu.ShaderStageCompute)
	if entry == "" {
		return nil, fmt.Errorf("pipeline %q: shader %q has no compute entry point", key, compute.Key())
	}

	p := &pipeline{
		pipelineType:  PipelineTypeCompute,
		pipelineKey:   key,
		computeShader: compute,
		state:         DefaultState(),
	}
	if err := p.buildLayouts(device, compute); err != nil {
		p.Release()
		return nil, err
	}

	cm, err := compute.Module(device)
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("pipeline %q: %w", key, err)
	}
	cp, err := device.CreateComputePipeline(&gpu.ComputePipelineDescriptor{
		Label:      key,
		Layout:     p.layout,
		Module:     cm,
		EntryPoint: entry,
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("pipeline %q: create compute pipeline: %w", key, err)
	}
	p.computePipeline = cp
	return p, nil
}

// buildLayouts merges the stages' reflections and creates one bind group layout per group index
// up to the highest declared group, followed by the pipeline layout.
func (p *pipeline) buildLayouts(device gpu.Device, shaders ...shader.Shader) error {
	var descs []*shader.Descriptor
	seen := make(map[shader.Shader]struct{}, len(shaders))
	for _, s := range shaders {
		if s == nil {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		descs = append(descs, s.Descriptor())
	}

	merged, err := shader.Merge(descs...)
	if err != nil {
		return fmt.Errorf("pipeline %q: %w", p.pipelineKey, err)
	}
	p.desc = merged

	count := 0
	if n := len(merged.Groups); n > 0 {
		count = int(merged.Groups[n-1].Index) + 1
	}
	p.bindGroupLayouts = make([]gpu.BindGroupLayout, 0, count)
	for i := range count {
		bgl, err := device.CreateBindGroupLayout(&gpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s/g%d", p.pipelineKey, i),
			Entries: merged.LayoutEntries(uint32(i)),
		})
		if err != nil {
			return fmt.Errorf("pipeline %q: create bind group layout %d: %w", p.pipelineKey, i, err)
		}
		p.bindGroupLayouts = append(p.bindGroupLayouts, bgl)
	}

	layout, err := device.CreatePipelineLayout(&gpu.PipelineLayoutDescriptor{
		Label:            p.pipelineKey,
		BindGroupLayouts: p.bindGroupLayouts,
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: create pipeline layout: %w", p.pipelineKey, err)
	}
	p.layout = layout
	return nil
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(stage gpu.ShaderStage) shader.Shader {
	switch stage {
	case gpu.ShaderStageVertex:
		return p.vertexShader
	case gpu.ShaderStageFragment:
		return p.fragmentShader
	case gpu.ShaderStageCompute:
		return p.computeShader
	default:
		return nil
	}
}

func (p *pipeline) Descriptor() *shader.Descriptor {
	return p.desc
}

func (p *pipeline) State() State {
	return p.state
}

func (p *pipeline) BindGroupLayout(group uint32) gpu.BindGroupLayout {
	if int(group) >= len(p.bindGroupLayouts) {
		return nil
	}
	return p.bindGroupLayouts[group]
}

func (p *pipeline) RenderPipeline() gpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) ComputePipeline() gpu.ComputePipeline {
	return p.computePipeline
}

func (p *pipeline) NewBindings(device gpu.Device, label string, options ...bind_group_provider.BindGroupProviderOption) (*bind_group_provider.Set, error) {
	set := bind_group_provider.NewSet(label, p.desc, options...)
	if err := set.Init(device, p); err != nil {
		set.Release()
		return nil, fmt.Errorf("pipeline %q: %w", p.pipelineKey, err)
	}
	return set, nil
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	for _, bgl := range p.bindGroupLayouts {
		bgl.Release()
	}
	p.bindGroupLayouts = nil
}
