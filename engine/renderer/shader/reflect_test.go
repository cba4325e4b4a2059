package shader_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReflectUniformScenario(t *testing.T) {
	src := `
struct Uniforms {
	proj: mat4x4f,
	view: mat4x4f,
}
@group(0) @binding(0) var<uniform> U: Uniforms;
`
	desc, err := shader.Reflect(src)
	require.NoError(t, err)
	require.Len(t, desc.Bindings, 1)

	u, ok := desc.Binding("U")
	require.True(t, ok)
	assert.Equal(t, gpu.BindingTypeUniformBuffer, u.Type)
	assert.Equal(t, uint64(128), u.Size)
	require.Len(t, u.Members, 2)
	assert.Equal(t, shader.Member{Name: "proj", Type: "mat4x4f", Offset: 0, Size: 64, Align: 16}, u.Members[0])
	assert.Equal(t, shader.Member{Name: "view", Type: "mat4x4f", Offset: 64, Size: 64, Align: 16}, u.Members[1])
	assert.Equal(t, gpu.ShaderStageVertex|gpu.ShaderStageFragment, u.Visibility)
}

func TestReflectHostShareableOffsets(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		size    uint64
		offsets map[string]uint64
	}{
		{
			name:    "vec3 followed by scalar packs into the padding",
			src:     "struct S { a: vec3f, b: f32, c: mat4x4f }",
			size:    80,
			offsets: map[string]uint64{"a": 0, "b": 12, "c": 16},
		},
		{
			name:    "long form types",
			src:     "struct S { a: f32, b: vec4<f32>, c: vec2<f32> }",
			size:    48,
			offsets: map[string]uint64{"a": 0, "b": 16, "c": 32},
		},
		{
			name:    "mat3x3 columns are padded",
			src:     "struct S { m: mat3x3f, s: f32 }",
			size:    64,
			offsets: map[string]uint64{"m": 0, "s": 48},
		},
		{
			name:    "fixed array stride rounds to element alignment",
			src:     "struct S { v: array<vec3f, 2>, s: u32 }",
			size:    48,
			offsets: map[string]uint64{"v": 0, "s": 32},
		},
		{
			name:    "explicit size and align attributes",
			src:     "struct S { @size(32) a: f32, @align(16) b: f32 }",
			size:    48,
			offsets: map[string]uint64{"a": 0, "b": 32},
		},
		{
			name:    "nested struct uses its own alignment",
			src:     "struct Inner { x: f32, y: vec3f }\nstruct S { a: f32, inner: Inner }",
			size:    48,
			offsets: map[string]uint64{"a": 0, "inner": 16},
		},
		{
			name:    "f16 vectors",
			src:     "struct S { a: f16, b: vec3h, c: vec2<f16> }",
			size:    24,
			offsets: map[string]uint64{"a": 0, "b": 8, "c": 16},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := shader.Reflect(tt.src + "\n@group(0) @binding(0) var<uniform> s: S;")
			require.NoError(t, err)
			b, ok := desc.Binding("s")
			require.True(t, ok)
			assert.Equal(t, tt.size, b.Size)
			for name, want := range tt.offsets {
				m, ok := b.Member(name)
				require.True(t, ok, name)
				assert.Equal(t, want, m.Offset, name)
			}
		})
	}
}

func TestReflectRoundTripThroughBuffer(t *testing.T) {
	desc, err := shader.Reflect(`
struct S { a: vec3f, b: f32, c: mat4x4f }
@group(0) @binding(0) var<uniform> s: S;
`)
	require.NoError(t, err)
	b, _ := desc.Binding("s")

	device := gpu.NewRecordingDevice()
	buf, err := device.CreateBuffer(&gpu.BufferDescriptor{Label: "s", Size: b.Size, Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst})
	require.NoError(t, err)

	values := map[string][]byte{}
	for i, m := range b.Members {
		data := make([]byte, m.Size)
		for off := 0; off < len(data); off += 4 {
			binary.LittleEndian.PutUint32(data[off:], math.Float32bits(float32(i*100+off)))
		}
		values[m.Name] = data
		require.NoError(t, device.Queue().WriteBuffer(buf, m.Offset, data))
	}

	raw := buf.(*gpu.RecordedBuffer).Bytes()
	for _, m := range b.Members {
		assert.Equal(t, values[m.Name], raw[m.Offset:m.Offset+m.Size], m.Name)
	}
}

func TestReflectResourceClasses(t *testing.T) {
	src := `
struct Camera { viewProj: mat4x4f }
struct Light { position: vec4f, color: vec4f }
struct Lights { count: u32, items: array<Light> }

@group(0) @binding(0) var<uniform> camera: Camera;
@group(1) @binding(1) var shadowSampler: sampler_comparison;
@group(1) @binding(0) var shadowMap: texture_depth_2d;
@binding(2) @group(1) var albedo: texture_2d<f32>;
@group(1) @binding(3) var albedoSampler: sampler;
@group(2) @binding(0) var<storage, read> lights: Lights;
@group(2) @binding(1) var<storage, read_write> counters: array<atomic<u32>>;
@group(2) @binding(2) var outImage: texture_storage_2d<rgba8unorm, write>;
@group(2) @binding(3) var sky: texture_cube<f32>;
@group(2) @binding(4) var msaa: texture_multisampled_2d<f32>;

@vertex
fn vs_main(@location(0) position: vec3f) -> @builtin(position) vec4f {
	return camera.viewProj * vec4f(position, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4f {
	return vec4f(1.0);
}
`
	desc, err := shader.Reflect(src)
	require.NoError(t, err)

	types := map[string]gpu.BindingType{}
	for name, b := range desc.Bindings {
		types[name] = b.Type
	}
	assert.Equal(t, map[string]gpu.BindingType{
		"camera":        gpu.BindingTypeUniformBuffer,
		"shadowSampler": gpu.BindingTypeComparisonSampler,
		"shadowMap":     gpu.BindingTypeDepthTexture,
		"albedo":        gpu.BindingTypeTexture,
		"albedoSampler": gpu.BindingTypeSampler,
		"lights":        gpu.BindingTypeReadOnlyStorageBuffer,
		"counters":      gpu.BindingTypeStorageBuffer,
		"outImage":      gpu.BindingTypeStorageTexture,
		"sky":           gpu.BindingTypeTexture,
		"msaa":          gpu.BindingTypeTexture,
	}, types)

	require.Len(t, desc.Groups, 3)
	var order []string
	for _, b := range desc.Groups[1].Bindings {
		order = append(order, b.Name)
	}
	assert.Equal(t, []string{"shadowMap", "shadowSampler", "albedo", "albedoSampler"}, order)

	lights := desc.Bindings["lights"]
	assert.Equal(t, uint64(48), lights.Size)
	assert.Equal(t, uint64(32), lights.ElementStride)
	items, ok := lights.Member("items")
	require.True(t, ok)
	assert.Equal(t, uint64(16), items.Offset)

	counters := desc.Bindings["counters"]
	assert.Equal(t, uint64(4), counters.ElementStride)
	assert.Equal(t, gpu.ShaderStageFragment, counters.Visibility)

	out := desc.Bindings["outImage"]
	assert.Equal(t, gpu.TextureFormatRGBA8Unorm, out.StorageFormat)
	assert.Equal(t, gpu.StorageTextureAccessWriteOnly, out.StorageAccess)
	assert.Equal(t, gpu.ShaderStageFragment, out.Visibility)

	assert.Equal(t, gpu.TextureViewDimensionCube, desc.Bindings["sky"].ViewDimension)
	assert.True(t, desc.Bindings["msaa"].Multisampled)
	assert.Equal(t, gpu.TextureSampleTypeUnfilterableFloat, desc.Bindings["msaa"].SampleType)
	assert.Equal(t, gpu.TextureSampleTypeDepth, desc.Bindings["shadowMap"].SampleType)

	assert.Equal(t, gpu.ShaderStageVertex|gpu.ShaderStageFragment, desc.Bindings["camera"].Visibility)
	assert.Equal(t, "vs_main", desc.EntryPoints[gpu.ShaderStageVertex])
	assert.Equal(t, "fs_main", desc.EntryPoints[gpu.ShaderStageFragment])
}

func TestReflectEmptyAndComments(t *testing.T) {
	desc, err := shader.Reflect(`
// @group(0) @binding(0) var<uniform> hidden: Missing;
/* @group(0) @binding(1) var tex: texture_2d<f32>; /* nested */ */
@fragment fn main() -> @location(0) vec4f { return vec4f(0.0); }
`)
	require.NoError(t, err)
	assert.Empty(t, desc.Bindings)
	assert.Empty(t, desc.Groups)
	assert.Empty(t, desc.Attributes)
}

func TestReflectMissingStruct(t *testing.T) {
	tests := map[string]string{
		"direct":        "@group(0) @binding(0) var<uniform> u: Missing;",
		"array element": "@group(0) @binding(0) var<storage, read> u: array<Missing>;",
		"nested member": "struct Outer { inner: Missing }\n@group(0) @binding(0) var<uniform> u: Outer;",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := shader.Reflect(src)
			require.ErrorIs(t, err, shader.ErrMissingStruct)

			var re *shader.ReflectionError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, "u", re.Binding)
			assert.Contains(t, err.Error(), "Missing")
		})
	}
}

func TestReflectDuplicateBinding(t *testing.T) {
	_, err := shader.Reflect(`
@group(0) @binding(0) var a: sampler;
@group(0) @binding(0) var b: sampler;
`)
	assert.ErrorIs(t, err, shader.ErrDuplicateBinding)
}

func TestReflectVertexAttributes(t *testing.T) {
	src := `
struct VertexInput {
	@location(2) uv: vec2f,
	@location(0) position: vec3f,
	@location(1) normal: vec3<f32>,
	@builtin(instance_index) instance: u32,
}
struct VertexOutput {
	@builtin(position) clip: vec4f,
	@location(0) uv: vec2f,
}
@vertex
fn vs(in: VertexInput, @location(3) color: vec4f) -> VertexOutput {
	var out: VertexOutput;
	return out;
}
`
	desc, err := shader.Reflect(src)
	require.NoError(t, err)
	require.Len(t, desc.Attributes, 4)

	want := []shader.Attribute{
		{Name: "position", Type: "vec3f", Location: 0, Format: gpu.VertexFormatFloat32x3, Offset: 0, Size: 12},
		{Name: "normal", Type: "vec3<f32>", Location: 1, Format: gpu.VertexFormatFloat32x3, Offset: 12, Size: 12},
		{Name: "uv", Type: "vec2f", Location: 2, Format: gpu.VertexFormatFloat32x2, Offset: 24, Size: 8},
		{Name: "color", Type: "vec4f", Location: 3, Format: gpu.VertexFormatFloat32x4, Offset: 32, Size: 16},
	}
	assert.Equal(t, want, desc.Attributes)
	assert.Equal(t, uint64(48), desc.VertexStride)

	layout, ok := desc.VertexBufferLayout()
	require.True(t, ok)
	assert.Equal(t, uint64(48), layout.ArrayStride)
	assert.Equal(t, uint32(2), layout.Attributes[2].ShaderLocation)
}

func TestReflectCompute(t *testing.T) {
	desc, err := shader.Reflect(`
@group(0) @binding(0) var<storage, read_write> data: array<f32>;
@compute @workgroup_size(8, 4)
fn cs(@builtin(global_invocation_id) id: vec3u) {
	data[id.x] = 1.0;
}
`)
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{8, 4, 1}, desc.WorkgroupSize)
	assert.Equal(t, gpu.ShaderStageCompute, desc.Stages())
	assert.Equal(t, gpu.ShaderStageCompute, desc.Bindings["data"].Visibility)
	assert.Empty(t, desc.Attributes)
}

func TestLayoutEntries(t *testing.T) {
	desc, err := shader.Reflect(`
struct U { m: mat4x4f }
@group(0) @binding(1) var t: texture_2d<f32>;
@group(0) @binding(0) var<uniform> u: U;
`)
	require.NoError(t, err)

	entries := desc.LayoutEntries(0)
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Equal(t, uint64(64), entries[0].MinBindingSize)
	assert.Equal(t, gpu.BindingTypeTexture, entries[1].Type)
	assert.Equal(t, gpu.TextureViewDimension2D, entries[1].ViewDimension)
	assert.Nil(t, desc.LayoutEntries(3))
}
