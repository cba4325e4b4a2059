package bind_group_provider_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture_library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const materialShader = `
struct Uniforms { proj: mat4x4f, view: mat4x4f }
struct Light { position: vec4f, color: vec4f }
struct Lights { count: u32, items: array<Light> }

@group(0) @binding(0) var<uniform> uniforms: Uniforms;
@group(0) @binding(1) var<storage, read> lights: Lights;
@group(1) @binding(0) var albedo: texture_2d<f32>;
@group(1) @binding(1) var albedoSampler: sampler;

@vertex fn vs(@location(0) p: vec3f) -> @builtin(position) vec4f { return uniforms.proj * vec4f(p, 1.0); }
@fragment fn fs() -> @location(0) vec4f { return vec4f(1.0); }
`

type layouts map[uint32]gpu.BindGroupLayout

func (l layouts) BindGroupLayout(group uint32) gpu.BindGroupLayout { return l[group] }

func setup(t *testing.T, opts ...bind_group_provider.BindGroupProviderOption) (*gpu.RecordingDevice, *shader.Descriptor, *bind_group_provider.Set) {
	t.Helper()
	desc, err := shader.Reflect(materialShader)
	require.NoError(t, err)

	device := gpu.NewRecordingDevice()
	ls := layouts{}
	for _, g := range desc.Groups {
		l, err := device.CreateBindGroupLayout(&gpu.BindGroupLayoutDescriptor{Entries: desc.LayoutEntries(g.Index)})
		require.NoError(t, err)
		ls[g.Index] = l
	}

	set := bind_group_provider.NewSet("material", desc, opts...)
	require.NoError(t, set.Init(device, ls))
	return device, desc, set
}

func floats(n int, base float32) []byte {
	out := make([]byte, n*4)
	for i := range n {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(base+float32(i)))
	}
	return out
}

func TestInitAllocatesExactSizes(t *testing.T) {
	device, _, set := setup(t, bind_group_provider.WithRuntimeArrayLength("lights", 4))

	p, ok := set.Lookup("uniforms")
	require.True(t, ok)
	assert.Equal(t, uint64(128), p.Buffer("uniforms").Size())
	assert.Equal(t, uint64(48+3*32), p.Buffer("lights").Size())
	assert.Equal(t, 2, device.Count(gpu.OpCreateBuffer))

	uniformUsage := p.Buffer("uniforms").(*gpu.RecordedBuffer).Usage()
	assert.NotZero(t, uniformUsage&gpu.BufferUsageUniform)
	assert.NotZero(t, p.Buffer("lights").(*gpu.RecordedBuffer).Usage()&gpu.BufferUsageStorage)

	tex, ok := set.Provider(1)
	require.True(t, ok)
	assert.Nil(t, tex.Buffer("albedo"))
}

func TestWriteMemberChecksSize(t *testing.T) {
	_, _, set := setup(t)

	view := floats(16, 1)
	require.NoError(t, set.WriteMember("uniforms", "view", view))

	p, _ := set.Lookup("uniforms")
	raw := p.Buffer("uniforms").(*gpu.RecordedBuffer).Bytes()
	assert.Equal(t, view, raw[64:128])
	assert.Equal(t, make([]byte, 64), raw[:64])

	err := set.WriteMember("uniforms", "proj", floats(12, 0))
	require.ErrorIs(t, err, bind_group_provider.ErrSizeMismatch)
	var we *bind_group_provider.WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "uniforms", we.Binding)
	assert.Equal(t, "proj", we.Member)
	assert.Equal(t, uint64(64), we.Want)
	assert.Equal(t, uint64(48), we.Got)
	assert.Contains(t, err.Error(), "uniforms.proj")

	assert.ErrorIs(t, set.WriteMember("uniforms", "model", floats(16, 0)), bind_group_provider.ErrUnknownBinding)
	assert.ErrorIs(t, set.WriteMember("missing", "x", nil), bind_group_provider.ErrUnknownBinding)
	assert.ErrorIs(t, set.WriteMember("albedo", "x", nil), bind_group_provider.ErrUnknownBinding)
}

func TestWriteRuntimeArray(t *testing.T) {
	_, _, set := setup(t, bind_group_provider.WithRuntimeArrayLength("lights", 2))

	require.NoError(t, set.WriteMember("lights", "items", floats(16, 0)))
	assert.ErrorIs(t, set.WriteMember("lights", "items", floats(24, 0)), bind_group_provider.ErrSizeMismatch)
	assert.ErrorIs(t, set.WriteMember("lights", "items", floats(6, 0)), bind_group_provider.ErrSizeMismatch)

	count := make([]byte, 4)
	binary.LittleEndian.PutUint32(count, 2)
	require.NoError(t, set.WriteMember("lights", "count", count))

	require.NoError(t, set.WriteBinding("lights", floats(20, 0)))
	assert.ErrorIs(t, set.WriteBinding("lights", floats(21, 0)), bind_group_provider.ErrSizeMismatch)
	assert.ErrorIs(t, set.WriteBinding("uniforms", floats(31, 0)), bind_group_provider.ErrSizeMismatch)
	require.NoError(t, set.WriteBinding("uniforms", floats(32, 0)))
}

func TestWriteBeforeInit(t *testing.T) {
	desc, err := shader.Reflect(materialShader)
	require.NoError(t, err)
	g, _ := desc.Group(0)
	p := bind_group_provider.NewBindGroupProvider("early", g)

	assert.ErrorIs(t, p.WriteBinding("uniforms", floats(32, 0)), bind_group_provider.ErrNotInitialized)
	_, err = p.Prepare(nil)
	assert.ErrorIs(t, err, bind_group_provider.ErrNotInitialized)

	assert.Panics(t, func() { bind_group_provider.NewBindGroupProvider("empty", shader.Group{}) })
}

func TestPrepareRebuildsLazily(t *testing.T) {
	device, _, set := setup(t,
		bind_group_provider.WithTexture("albedo", "brick"),
		bind_group_provider.WithSampler("albedoSampler", "linear"),
	)
	lib := texture_library.NewLibrary(device)
	_, err := lib.LoadPixels("brick", 1, 1, gpu.TextureFormatRGBA8Unorm, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = lib.LoadPixels("stone", 1, 1, gpu.TextureFormatRGBA8Unorm, []byte{5, 6, 7, 8})
	require.NoError(t, err)
	require.NoError(t, lib.AddSampler("linear", gpu.SamplerDescriptor{}))

	rebuilt, err := set.Prepare(lib)
	require.NoError(t, err)
	assert.Equal(t, 2, rebuilt)
	assert.Equal(t, 2, device.Count(gpu.OpCreateBindGroup))

	rebuilt, err = set.Prepare(lib)
	require.NoError(t, err)
	assert.Zero(t, rebuilt)

	// Uniform writes never rebuild.
	require.NoError(t, set.WriteMember("uniforms", "proj", floats(16, 0)))
	rebuilt, err = set.Prepare(lib)
	require.NoError(t, err)
	assert.Zero(t, rebuilt)

	require.NoError(t, set.BindTexture("albedo", "stone"))
	rebuilt, err = set.Prepare(lib)
	require.NoError(t, err)
	assert.Equal(t, 1, rebuilt)

	_, err = lib.LoadPixels("stone", 1, 1, gpu.TextureFormatRGBA8Unorm, []byte{9, 9, 9, 9})
	require.NoError(t, err)
	rebuilt, err = set.Prepare(lib)
	require.NoError(t, err)
	assert.Equal(t, 1, rebuilt)

	require.NoError(t, lib.AddSampler("linear", gpu.SamplerDescriptor{MagFilter: gpu.FilterModeLinear}))
	rebuilt, err = set.Prepare(lib)
	require.NoError(t, err)
	assert.Equal(t, 1, rebuilt)
	assert.Equal(t, 5, device.Count(gpu.OpCreateBindGroup))

	p, _ := set.Provider(1)
	entries := p.BindGroup().(*gpu.RecordedObject).Desc.(gpu.BindGroupDescriptor).Entries
	require.Len(t, entries, 2)
	assert.NotNil(t, entries[0].TextureView)
	assert.NotNil(t, entries[1].Sampler)
	assert.Nil(t, entries[1].TextureView)
	assert.Nil(t, entries[0].Sampler)
}

func TestPrepareReportsMissingResources(t *testing.T) {
	device, _, set := setup(t)
	lib := texture_library.NewLibrary(device)

	_, err := set.Prepare(lib)
	assert.ErrorIs(t, err, bind_group_provider.ErrUnbound)

	require.NoError(t, set.BindTexture("albedo", "nope"))
	require.NoError(t, set.BindSampler("albedoSampler", "nope"))
	_, err = set.Prepare(lib)
	assert.ErrorIs(t, err, texture_library.ErrNotRegistered)
	assert.Contains(t, err.Error(), "albedo")

	assert.ErrorIs(t, set.BindTexture("albedoSampler", "x"), bind_group_provider.ErrUnknownBinding)
}

func TestBindSetsGroupsOnPass(t *testing.T) {
	device, _, set := setup(t,
		bind_group_provider.WithTexture("albedo", "brick"),
		bind_group_provider.WithSampler("albedoSampler", "linear"),
	)
	lib := texture_library.NewLibrary(device)
	_, err := lib.LoadPixels("brick", 1, 1, gpu.TextureFormatRGBA8Unorm, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, lib.AddSampler("linear", gpu.SamplerDescriptor{}))
	_, err = set.Prepare(lib)
	require.NoError(t, err)

	enc, err := device.CreateCommandEncoder("frame")
	require.NoError(t, err)
	pass := enc.BeginRenderPass(&gpu.RenderPassDescriptor{Label: "forward"})
	set.Bind(pass)
	require.NoError(t, pass.End())
	assert.Equal(t, 2, device.Count(gpu.OpSetBindGroup))
}

func TestExternalBufferAndRelease(t *testing.T) {
	desc, err := shader.Reflect(materialShader)
	require.NoError(t, err)
	device := gpu.NewRecordingDevice()
	shared, err := device.CreateBuffer(&gpu.BufferDescriptor{Label: "camera", Size: 128})
	require.NoError(t, err)
	small, err := device.CreateBuffer(&gpu.BufferDescriptor{Label: "small", Size: 64})
	require.NoError(t, err)

	g, _ := desc.Group(0)
	p := bind_group_provider.NewBindGroupProvider("shared", g)
	assert.ErrorIs(t, p.BindBuffer("uniforms", small), bind_group_provider.ErrSizeMismatch)
	require.NoError(t, p.BindBuffer("uniforms", shared))

	layout, err := device.CreateBindGroupLayout(&gpu.BindGroupLayoutDescriptor{Entries: desc.LayoutEntries(0)})
	require.NoError(t, err)
	require.NoError(t, p.Init(device, layout))
	assert.Same(t, shared, p.Buffer("uniforms"))
	assert.Equal(t, 3, device.Count(gpu.OpCreateBuffer))

	own := p.Buffer("lights").(*gpu.RecordedBuffer)
	p.Release()
	assert.True(t, own.Released)
	assert.False(t, shared.(*gpu.RecordedBuffer).Released)
}

func TestWriteAll(t *testing.T) {
	_, _, set := setup(t)
	p, _ := set.Lookup("uniforms")

	err := bind_group_provider.WriteAll([]bind_group_provider.BufferWrite{
		{Provider: p, Binding: "uniforms", Member: "proj", Data: floats(16, 0)},
		{Provider: p, Binding: "uniforms", Member: "view", Data: floats(2, 0)},
		{Provider: p, Binding: "uniforms", Data: floats(32, 0)},
	})
	require.ErrorIs(t, err, bind_group_provider.ErrSizeMismatch)
	assert.Contains(t, err.Error(), "uniforms.view")
}
