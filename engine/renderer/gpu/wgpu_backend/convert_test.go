package wgpu_backend_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu/wgpu_backend"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestTextureFormatRoundTrip(t *testing.T) {
	for f := gpu.TextureFormatR8Unorm; f <= gpu.TextureFormatDepth32Float; f++ {
		w := wgpu_backend.TextureFormat(f)
		assert.NotEqual(t, wgpu.TextureFormatUndefined, w, "format %d", f)
		assert.Equal(t, f, wgpu_backend.FromTextureFormat(w))
	}
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, wgpu_backend.TextureFormat(gpu.TextureFormatBGRA8Unorm))
	assert.Equal(t, gpu.TextureFormatUndefined, wgpu_backend.FromTextureFormat(wgpu.TextureFormatUndefined))
}

func TestShaderStage(t *testing.T) {
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment,
		wgpu_backend.ShaderStage(gpu.ShaderStageVertex|gpu.ShaderStageFragment))
	assert.Equal(t, wgpu.ShaderStageCompute, wgpu_backend.ShaderStage(gpu.ShaderStageCompute))
	assert.Equal(t, wgpu.ShaderStageNone, wgpu_backend.ShaderStage(gpu.ShaderStageNone))
}

func TestLayoutEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry gpu.BindGroupLayoutEntry
		check func(t *testing.T, e wgpu.BindGroupLayoutEntry)
	}{
		{
			name:  "uniform",
			entry: gpu.BindGroupLayoutEntry{Binding: 0, Visibility: gpu.ShaderStageVertex, Type: gpu.BindingTypeUniformBuffer, MinBindingSize: 144},
			check: func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
				assert.Equal(t, wgpu.BufferBindingTypeUniform, e.Buffer.Type)
				assert.Equal(t, uint64(144), e.Buffer.MinBindingSize)
				assert.Equal(t, wgpu.ShaderStageVertex, e.Visibility)
			},
		},
		{
			name:  "read-only storage",
			entry: gpu.BindGroupLayoutEntry{Binding: 1, Type: gpu.BindingTypeReadOnlyStorageBuffer, MinBindingSize: 64},
			check: func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
				assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, e.Buffer.Type)
				assert.Equal(t, uint32(1), e.Binding)
			},
		},
		{
			name:  "cube texture",
			entry: gpu.BindGroupLayoutEntry{Type: gpu.BindingTypeTexture, ViewDimension: gpu.TextureViewDimensionCube, SampleType: gpu.TextureSampleTypeFloat},
			check: func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
				assert.Equal(t, wgpu.TextureViewDimensionCube, e.Texture.ViewDimension)
				assert.Equal(t, wgpu.TextureSampleTypeFloat, e.Texture.SampleType)
				assert.Equal(t, wgpu.BufferBindingTypeUndefined, e.Buffer.Type)
			},
		},
		{
			name:  "depth texture",
			entry: gpu.BindGroupLayoutEntry{Type: gpu.BindingTypeDepthTexture, ViewDimension: gpu.TextureViewDimension2D},
			check: func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
				assert.Equal(t, wgpu.TextureSampleTypeDepth, e.Texture.SampleType)
				assert.Equal(t, wgpu.TextureViewDimension2D, e.Texture.ViewDimension)
			},
		},
		{
			name: "storage texture",
			entry: gpu.BindGroupLayoutEntry{
				Type: gpu.BindingTypeStorageTexture, ViewDimension: gpu.TextureViewDimension2D,
				StorageFormat: gpu.TextureFormatRGBA8Unorm, StorageAccess: gpu.StorageTextureAccessWriteOnly,
			},
			check: func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
				assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, e.StorageTexture.Access)
				assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, e.StorageTexture.Format)
				assert.Equal(t, wgpu.TextureSampleTypeUndefined, e.Texture.SampleType)
			},
		},
		{
			name:  "comparison sampler",
			entry: gpu.BindGroupLayoutEntry{Type: gpu.BindingTypeComparisonSampler, Visibility: gpu.ShaderStageFragment},
			check: func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
				assert.Equal(t, wgpu.SamplerBindingTypeComparison, e.Sampler.Type)
			},
		},
		{
			name:  "sampler",
			entry: gpu.BindGroupLayoutEntry{Type: gpu.BindingTypeSampler},
			check: func(t *testing.T, e wgpu.BindGroupLayoutEntry) {
				assert.Equal(t, wgpu.SamplerBindingTypeFiltering, e.Sampler.Type)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, wgpu_backend.LayoutEntry(tt.entry))
		})
	}
}

func TestVertexBufferLayout(t *testing.T) {
	l := wgpu_backend.VertexBufferLayout(gpu.VertexBufferLayout{
		ArrayStride: 32,
		StepMode:    gpu.VertexStepModeVertex,
		Attributes: []gpu.VertexAttribute{
			{Format: gpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: gpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: gpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	})
	assert.Equal(t, uint64(32), l.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, l.StepMode)
	assert.Equal(t, []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
	}, l.Attributes)
}

func TestCompareFunction(t *testing.T) {
	assert.Equal(t, wgpu.CompareFunctionLess, wgpu_backend.CompareFunction(gpu.CompareFunctionLess))
	assert.Equal(t, wgpu.CompareFunctionLessEqual, wgpu_backend.CompareFunction(gpu.CompareFunctionLessEqual))
	assert.Equal(t, wgpu.CompareFunctionUndefined, wgpu_backend.CompareFunction(gpu.CompareFunctionUndefined))
}

func TestParsePresentMode(t *testing.T) {
	m, err := wgpu_backend.ParsePresentMode("uncapped")
	assert.NoError(t, err)
	assert.Equal(t, wgpu_backend.PresentModeUncapped, m)

	m, err = wgpu_backend.ParsePresentMode("")
	assert.NoError(t, err)
	assert.Equal(t, wgpu_backend.PresentModeVSync, m)

	_, err = wgpu_backend.ParsePresentMode("triple")
	assert.Error(t, err)
}
