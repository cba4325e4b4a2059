package pipeline_test

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vertexSource = `
struct Camera { viewProj: mat4x4f }
struct Model { transform: mat4x4f }

@group(0) @binding(0) var<uniform> camera: Camera;
@group(2) @binding(0) var<uniform> model: Model;

@vertex
fn vs_main(@location(0) position: vec3f, @location(1) uv: vec2f) -> @builtin(position) vec4f {
	return camera.viewProj * model.transform * vec4f(position, 1.0);
}
`

const fragmentSource = `
struct Camera { viewProj: mat4x4f }

@group(0) @binding(0) var<uniform> camera: Camera;
@group(1) @binding(0) var albedo: texture_2d<f32>;
@group(1) @binding(1) var albedoSampler: sampler;

@fragment
fn fs_main() -> @location(0) vec4f {
	return vec4f(1.0);
}
`

const computeSource = `
struct Particle { position: vec4f, velocity: vec4f }

@group(0) @binding(0) var<storage, read_write> particles: array<Particle>;

@compute @workgroup_size(64)
fn cs_main(@builtin(global_invocation_id) id: vec3u) {
}
`

func mustShader(t *testing.T, key, source string) shader.Shader {
	t.Helper()
	s, err := shader.NewShader(key, source)
	require.NoError(t, err)
	return s
}

func lastDesc[T any](t *testing.T, obj any) T {
	t.Helper()
	ro, ok := obj.(*gpu.RecordedObject)
	require.True(t, ok)
	desc, ok := ro.Desc.(T)
	require.True(t, ok)
	return desc
}

func TestNewStateDefaults(t *testing.T) {
	s := pipeline.NewState()
	assert.True(t, s.DepthTestEnabled)
	assert.True(t, s.DepthWriteEnabled)
	assert.False(t, s.BlendEnabled)
	assert.Equal(t, gpu.CullModeNone, s.CullMode)
	assert.Equal(t, gpu.PrimitiveTopologyTriangleList, s.Topology)
	assert.Equal(t, gpu.FrontFaceCCW, s.FrontFace)
	assert.Equal(t, gpu.ColorWriteMaskAll, s.WriteMask)
	assert.Equal(t, gpu.BlendFactorSrcAlpha, s.BlendState.Color.SrcFactor)

	s = pipeline.NewState(
		pipeline.WithCullMode(gpu.CullModeBack),
		pipeline.WithTopology(gpu.PrimitiveTopologyLineList),
		pipeline.WithFrontFace(gpu.FrontFaceCW),
		pipeline.WithDepthBias(2, 1.5),
		pipeline.WithWriteMask(gpu.ColorWriteMaskRed),
		pipeline.WithBlendEnabled(true),
	)
	assert.Equal(t, gpu.CullModeBack, s.CullMode)
	assert.Equal(t, gpu.PrimitiveTopologyLineList, s.Topology)
	assert.Equal(t, gpu.FrontFaceCW, s.FrontFace)
	assert.Equal(t, int32(2), s.DepthBias)
	assert.Equal(t, float32(1.5), s.DepthBiasSlopeScale)
	assert.Equal(t, gpu.ColorWriteMaskRed, s.WriteMask)
	assert.True(t, s.BlendEnabled)
}

func TestNewRenderPipeline(t *testing.T) {
	device := gpu.NewRecordingDevice()
	vs := mustShader(t, "vs", vertexSource)
	fs := mustShader(t, "fs", fragmentSource)

	p, err := pipeline.NewRenderPipeline(device, "forward", vs, fs,
		pipeline.NewState(pipeline.WithCullMode(gpu.CullModeBack)),
		pipeline.Targets{Colors: []gpu.TextureFormat{gpu.TextureFormatBGRA8Unorm}, Depth: gpu.TextureFormatDepth24Plus},
	)
	require.NoError(t, err)

	assert.Equal(t, pipeline.PipelineTypeRender, p.Type())
	assert.Equal(t, "forward", p.PipelineKey())
	assert.Same(t, vs, p.Shader(gpu.ShaderStageVertex))
	assert.Same(t, fs, p.Shader(gpu.ShaderStageFragment))
	assert.Nil(t, p.Shader(gpu.ShaderStageCompute))
	assert.Nil(t, p.ComputePipeline())
	require.NotNil(t, p.RenderPipeline())

	t.Run("one layout per group index", func(t *testing.T) {
		assert.Equal(t, 3, device.Count(gpu.OpCreateBindGroupLayout))
		assert.Equal(t, 1, device.Count(gpu.OpCreatePipelineLayout))
		assert.Equal(t, 2, device.Count(gpu.OpCreateShaderModule))
		assert.Nil(t, p.BindGroupLayout(3))

		g0 := lastDesc[gpu.BindGroupLayoutDescriptor](t, p.BindGroupLayout(0))
		require.Len(t, g0.Entries, 1)
		assert.Equal(t, gpu.ShaderStageVertex|gpu.ShaderStageFragment, g0.Entries[0].Visibility)
		assert.Equal(t, uint64(64), g0.Entries[0].MinBindingSize)

		g1 := lastDesc[gpu.BindGroupLayoutDescriptor](t, p.BindGroupLayout(1))
		require.Len(t, g1.Entries, 2)
		assert.Equal(t, gpu.ShaderStageFragment, g1.Entries[0].Visibility)

		g2 := lastDesc[gpu.BindGroupLayoutDescriptor](t, p.BindGroupLayout(2))
		require.Len(t, g2.Entries, 1)
		assert.Equal(t, gpu.ShaderStageVertex, g2.Entries[0].Visibility)
	})

	t.Run("render pipeline descriptor", func(t *testing.T) {
		desc := lastDesc[gpu.RenderPipelineDescriptor](t, p.RenderPipeline())
		assert.Equal(t, "vs_main", desc.Vertex.EntryPoint)
		require.Len(t, desc.Vertex.Buffers, 1)
		assert.Equal(t, uint64(20), desc.Vertex.Buffers[0].ArrayStride)
		require.NotNil(t, desc.Fragment)
		assert.Equal(t, "fs_main", desc.Fragment.EntryPoint)
		require.Len(t, desc.Fragment.Targets, 1)
		assert.Nil(t, desc.Fragment.Targets[0].Blend)
		assert.Equal(t, gpu.CullModeBack, desc.Primitive.CullMode)
		require.NotNil(t, desc.DepthStencil)
		assert.True(t, desc.DepthStencil.DepthWriteEnabled)
		assert.Equal(t, gpu.CompareFunctionLess, desc.DepthStencil.DepthCompare)
		assert.Equal(t, uint32(1), desc.SampleCount)
	})

	t.Run("bindings", func(t *testing.T) {
		set, err := p.NewBindings(device, "mesh")
		require.NoError(t, err)
		assert.Len(t, set.Providers(), 3)
		assert.True(t, set.Has("model"))
		assert.True(t, set.Has("albedo"))
		require.NoError(t, set.WriteMember("camera", "viewProj", make([]byte, 64)))
	})

	p.Release()
	assert.Nil(t, p.RenderPipeline())
	assert.Nil(t, p.BindGroupLayout(0))
}

func TestNewRenderPipelineWithoutFragment(t *testing.T) {
	device := gpu.NewRecordingDevice()
	vs := mustShader(t, "shadow", vertexSource)

	p, err := pipeline.NewRenderPipeline(device, "shadow", vs, nil,
		pipeline.NewState(pipeline.WithDepthBias(4, 2)),
		pipeline.Targets{Depth: gpu.TextureFormatDepth32Float},
	)
	require.NoError(t, err)

	desc := lastDesc[gpu.RenderPipelineDescriptor](t, p.RenderPipeline())
	assert.Nil(t, desc.Fragment)
	require.NotNil(t, desc.DepthStencil)
	assert.Equal(t, int32(4), desc.DepthStencil.DepthBias)
	assert.Equal(t, gpu.TextureFormatDepth32Float, desc.DepthStencil.Format)
}

func TestNewRenderPipelineSingleModule(t *testing.T) {
	device := gpu.NewRecordingDevice()
	s := mustShader(t, "blit", `
@group(0) @binding(0) var source: texture_2d<f32>;
@group(0) @binding(1) var sourceSampler: sampler;

@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4f {
	return vec4f(0.0);
}

@fragment
fn fs_main() -> @location(0) vec4f {
	return vec4f(1.0);
}
`)

	p, err := pipeline.NewRenderPipeline(device, "blit", s, s,
		pipeline.NewState(pipeline.WithDepthTestEnabled(false), pipeline.WithBlendEnabled(true)),
		pipeline.Targets{Colors: []gpu.TextureFormat{gpu.TextureFormatBGRA8Unorm}},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, device.Count(gpu.OpCreateShaderModule))

	desc := lastDesc[gpu.RenderPipelineDescriptor](t, p.RenderPipeline())
	assert.Empty(t, desc.Vertex.Buffers)
	assert.Nil(t, desc.DepthStencil)
	require.NotNil(t, desc.Fragment.Targets[0].Blend)
	assert.Equal(t, gpu.BlendFactorOneMinusSrcAlpha, desc.Fragment.Targets[0].Blend.Color.DstFactor)
}

func TestNewRenderPipelineErrors(t *testing.T) {
	t.Run("missing vertex entry point", func(t *testing.T) {
		device := gpu.NewRecordingDevice()
		fs := mustShader(t, "fs", fragmentSource)
		_, err := pipeline.NewRenderPipeline(device, "bad", fs, fs, pipeline.DefaultState(), pipeline.Targets{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no vertex entry point")
		assert.Zero(t, device.Count(gpu.OpCreateRenderPipeline))
	})

	t.Run("conflicting bindings", func(t *testing.T) {
		device := gpu.NewRecordingDevice()
		vs := mustShader(t, "vs", vertexSource)
		fs := mustShader(t, "fs", `
struct Light { color: vec4f }
@group(0) @binding(0) var<uniform> light: Light;

@fragment
fn fs_main() -> @location(0) vec4f {
	return light.color;
}
`)
		_, err := pipeline.NewRenderPipeline(device, "bad", vs, fs, pipeline.DefaultState(), pipeline.Targets{})
		assert.ErrorIs(t, err, shader.ErrBindingConflict)
		assert.Contains(t, err.Error(), `pipeline "bad"`)
	})

	t.Run("device failure", func(t *testing.T) {
		device := gpu.NewRecordingDevice()
		device.FailOn(gpu.OpCreateRenderPipeline, errors.New("out of memory"))
		vs := mustShader(t, "vs", vertexSource)
		_, err := pipeline.NewRenderPipeline(device, "oom", vs, nil, pipeline.DefaultState(), pipeline.Targets{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of memory")
	})

	t.Run("empty key panics", func(t *testing.T) {
		vs := mustShader(t, "vs", vertexSource)
		assert.Panics(t, func() {
			_, _ = pipeline.NewRenderPipeline(gpu.NewRecordingDevice(), "", vs, nil, pipeline.DefaultState(), pipeline.Targets{})
		})
	})
}

func TestNewComputePipeline(t *testing.T) {
	device := gpu.NewRecordingDevice()
	cs := mustShader(t, "particles", computeSource)

	p, err := pipeline.NewComputePipeline(device, "particles", cs)
	require.NoError(t, err)
	assert.Equal(t, pipeline.PipelineTypeCompute, p.Type())
	assert.Nil(t, p.RenderPipeline())
	require.NotNil(t, p.ComputePipeline())

	desc := lastDesc[gpu.ComputePipelineDescriptor](t, p.ComputePipeline())
	assert.Equal(t, "cs_main", desc.EntryPoint)

	g0 := lastDesc[gpu.BindGroupLayoutDescriptor](t, p.BindGroupLayout(0))
	require.Len(t, g0.Entries, 1)
	assert.Equal(t, gpu.ShaderStageCompute, g0.Entries[0].Visibility)

	set, err := p.NewBindings(device, "particles")
	require.NoError(t, err)
	assert.True(t, set.Has("particles"))

	_, err = pipeline.NewComputePipeline(device, "nope", mustShader(t, "vs", vertexSource))
	assert.Error(t, err)
}
