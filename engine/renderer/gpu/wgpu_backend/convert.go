package wgpu_backend

import (
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

var textureFormats = map[gpu.TextureFormat]wgpu.TextureFormat{
	gpu.TextureFormatR8Unorm:        wgpu.TextureFormatR8Unorm,
	gpu.TextureFormatR32Float:       wgpu.TextureFormatR32Float,
	gpu.TextureFormatR32Uint:        wgpu.TextureFormatR32Uint,
	gpu.TextureFormatR32Sint:        wgpu.TextureFormatR32Sint,
	gpu.TextureFormatRG32Float:      wgpu.TextureFormatRG32Float,
	gpu.TextureFormatRG32Uint:       wgpu.TextureFormatRG32Uint,
	gpu.TextureFormatRG32Sint:       wgpu.TextureFormatRG32Sint,
	gpu.TextureFormatRGBA8Unorm:     wgpu.TextureFormatRGBA8Unorm,
	gpu.TextureFormatRGBA8UnormSrgb: wgpu.TextureFormatRGBA8UnormSrgb,
	gpu.TextureFormatRGBA8Snorm:     wgpu.TextureFormatRGBA8Snorm,
	gpu.TextureFormatRGBA8Uint:      wgpu.TextureFormatRGBA8Uint,
	gpu.TextureFormatRGBA8Sint:      wgpu.TextureFormatRGBA8Sint,
	gpu.TextureFormatBGRA8Unorm:     wgpu.TextureFormatBGRA8Unorm,
	gpu.TextureFormatBGRA8UnormSrgb: wgpu.TextureFormatBGRA8UnormSrgb,
	gpu.TextureFormatRGBA16Float:    wgpu.TextureFormatRGBA16Float,
	gpu.TextureFormatRGBA16Uint:     wgpu.TextureFormatRGBA16Uint,
	gpu.TextureFormatRGBA16Sint:     wgpu.TextureFormatRGBA16Sint,
	gpu.TextureFormatRGBA32Float:    wgpu.TextureFormatRGBA32Float,
	gpu.TextureFormatRGBA32Uint:     wgpu.TextureFormatRGBA32Uint,
	gpu.TextureFormatRGBA32Sint:     wgpu.TextureFormatRGBA32Sint,
	gpu.TextureFormatDepth24Plus:    wgpu.TextureFormatDepth24Plus,
	gpu.TextureFormatDepth32Float:   wgpu.TextureFormatDepth32Float,
}

// TextureFormat converts a texture format, TextureFormatUndefined when it has no wgpu counterpart.
func TextureFormat(f gpu.TextureFormat) wgpu.TextureFormat {
	return textureFormats[f]
}

// FromTextureFormat converts a wgpu texture format back, gpu.TextureFormatUndefined when unknown.
func FromTextureFormat(f wgpu.TextureFormat) gpu.TextureFormat {
	for k, v := range textureFormats {
		if v == f {
			return k
		}
	}
	return gpu.TextureFormatUndefined
}

func bufferUsage(u gpu.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	pairs := []struct {
		from gpu.BufferUsage
		to   wgpu.BufferUsage
	}{
		{gpu.BufferUsageCopySrc, wgpu.BufferUsageCopySrc},
		{gpu.BufferUsageCopyDst, wgpu.BufferUsageCopyDst},
		{gpu.BufferUsageIndex, wgpu.BufferUsageIndex},
		{gpu.BufferUsageVertex, wgpu.BufferUsageVertex},
		{gpu.BufferUsageUniform, wgpu.BufferUsageUniform},
		{gpu.BufferUsageStorage, wgpu.BufferUsageStorage},
		{gpu.BufferUsageIndirect, wgpu.BufferUsageIndirect},
	}
	for _, p := range pairs {
		if u&p.from != 0 {
			out |= p.to
		}
	}
	return out
}

func textureUsage(u gpu.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&gpu.TextureUsageCopySrc != 0 {
		out |= wgpu.TextureUsageCopySrc
	}
	if u&gpu.TextureUsageCopyDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	if u&gpu.TextureUsageTextureBinding != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&gpu.TextureUsageStorageBinding != 0 {
		out |= wgpu.TextureUsageStorageBinding
	}
	if u&gpu.TextureUsageRenderAttachment != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	return out
}

// ShaderStage converts a stage bit set.
func ShaderStage(s gpu.ShaderStage) wgpu.ShaderStage {
	out := wgpu.ShaderStageNone
	if s&gpu.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&gpu.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	if s&gpu.ShaderStageCompute != 0 {
		out |= wgpu.ShaderStageCompute
	}
	return out
}

func viewDimension(d gpu.TextureViewDimension) wgpu.TextureViewDimension {
	switch d {
	case gpu.TextureViewDimension1D:
		return wgpu.TextureViewDimension1D
	case gpu.TextureViewDimension2DArray:
		return wgpu.TextureViewDimension2DArray
	case gpu.TextureViewDimensionCube:
		return wgpu.TextureViewDimensionCube
	case gpu.TextureViewDimensionCubeArray:
		return wgpu.TextureViewDimensionCubeArray
	case gpu.TextureViewDimension3D:
		return wgpu.TextureViewDimension3D
	default:
		return wgpu.TextureViewDimension2D
	}
}

func sampleType(t gpu.TextureSampleType) wgpu.TextureSampleType {
	switch t {
	case gpu.TextureSampleTypeUnfilterableFloat:
		return wgpu.TextureSampleTypeUnfilterableFloat
	case gpu.TextureSampleTypeDepth:
		return wgpu.TextureSampleTypeDepth
	case gpu.TextureSampleTypeSint:
		return wgpu.TextureSampleTypeSint
	case gpu.TextureSampleTypeUint:
		return wgpu.TextureSampleTypeUint
	default:
		return wgpu.TextureSampleTypeFloat
	}
}

func storageAccess(a gpu.StorageTextureAccess) wgpu.StorageTextureAccess {
	switch a {
	case gpu.StorageTextureAccessReadOnly:
		return wgpu.StorageTextureAccessReadOnly
	case gpu.StorageTextureAccessReadWrite:
		return wgpu.StorageTextureAccessReadWrite
	default:
		return wgpu.StorageTextureAccessWriteOnly
	}
}

// LayoutEntry converts one reflected bind group layout entry.
//
// Parameters:
//   - e: the backend independent entry
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the entry with exactly one of its binding layouts populated
func LayoutEntry(e gpu.BindGroupLayoutEntry) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    e.Binding,
		Visibility: ShaderStage(e.Visibility),
	}

	switch e.Type {
	case gpu.BindingTypeUniformBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = e.MinBindingSize
	case gpu.BindingTypeStorageBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		entry.Buffer.MinBindingSize = e.MinBindingSize
	case gpu.BindingTypeReadOnlyStorageBuffer:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		entry.Buffer.MinBindingSize = e.MinBindingSize
	case gpu.BindingTypeTexture:
		entry.Texture.SampleType = sampleType(e.SampleType)
		entry.Texture.ViewDimension = viewDimension(e.ViewDimension)
		entry.Texture.Multisampled = e.Multisampled
	case gpu.BindingTypeDepthTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = viewDimension(e.ViewDimension)
		entry.Texture.Multisampled = e.Multisampled
	case gpu.BindingTypeStorageTexture:
		entry.StorageTexture.Access = storageAccess(e.StorageAccess)
		entry.StorageTexture.Format = TextureFormat(e.StorageFormat)
		entry.StorageTexture.ViewDimension = viewDimension(e.ViewDimension)
	case gpu.BindingTypeSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case gpu.BindingTypeComparisonSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	}
	return entry
}

var vertexFormats = map[gpu.VertexFormat]wgpu.VertexFormat{
	gpu.VertexFormatFloat32:   wgpu.VertexFormatFloat32,
	gpu.VertexFormatFloat32x2: wgpu.VertexFormatFloat32x2,
	gpu.VertexFormatFloat32x3: wgpu.VertexFormatFloat32x3,
	gpu.VertexFormatFloat32x4: wgpu.VertexFormatFloat32x4,
	gpu.VertexFormatSint32:    wgpu.VertexFormatSint32,
	gpu.VertexFormatSint32x2:  wgpu.VertexFormatSint32x2,
	gpu.VertexFormatSint32x3:  wgpu.VertexFormatSint32x3,
	gpu.VertexFormatSint32x4:  wgpu.VertexFormatSint32x4,
	gpu.VertexFormatUint32:    wgpu.VertexFormatUint32,
	gpu.VertexFormatUint32x2:  wgpu.VertexFormatUint32x2,
	gpu.VertexFormatUint32x3:  wgpu.VertexFormatUint32x3,
	gpu.VertexFormatUint32x4:  wgpu.VertexFormatUint32x4,
	gpu.VertexFormatFloat16x2: wgpu.VertexFormatFloat16x2,
	gpu.VertexFormatFloat16x4: wgpu.VertexFormatFloat16x4,
}

// VertexBufferLayout converts a reflected vertex buffer layout.
func VertexBufferLayout(l gpu.VertexBufferLayout) wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = wgpu.VertexAttribute{
			Format:         vertexFormats[a.Format],
			Offset:         a.Offset,
			ShaderLocation: a.ShaderLocation,
		}
	}
	step := wgpu.VertexStepModeVertex
	if l.StepMode == gpu.VertexStepModeInstance {
		step = wgpu.VertexStepModeInstance
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: l.ArrayStride,
		StepMode:    step,
		Attributes:  attrs,
	}
}

func indexFormat(f gpu.IndexFormat) wgpu.IndexFormat {
	if f == gpu.IndexFormatUint16 {
		return wgpu.IndexFormatUint16
	}
	return wgpu.IndexFormatUint32
}

func topology(t gpu.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case gpu.PrimitiveTopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case gpu.PrimitiveTopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case gpu.PrimitiveTopologyLineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case gpu.PrimitiveTopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func cullMode(c gpu.CullMode) wgpu.CullMode {
	switch c {
	case gpu.CullModeFront:
		return wgpu.CullModeFront
	case gpu.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func frontFace(f gpu.FrontFace) wgpu.FrontFace {
	if f == gpu.FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

// CompareFunction converts a depth or sampler comparison.
func CompareFunction(c gpu.CompareFunction) wgpu.CompareFunction {
	switch c {
	case gpu.CompareFunctionNever:
		return wgpu.CompareFunctionNever
	case gpu.CompareFunctionLess:
		return wgpu.CompareFunctionLess
	case gpu.CompareFunctionLessEqual:
		return wgpu.CompareFunctionLessEqual
	case gpu.CompareFunctionEqual:
		return wgpu.CompareFunctionEqual
	case gpu.CompareFunctionGreater:
		return wgpu.CompareFunctionGreater
	case gpu.CompareFunctionGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual
	case gpu.CompareFunctionNotEqual:
		return wgpu.CompareFunctionNotEqual
	case gpu.CompareFunctionAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionUndefined
	}
}

func blendFactor(f gpu.BlendFactor) wgpu.BlendFactor {
	switch f {
	case gpu.BlendFactorOne:
		return wgpu.BlendFactorOne
	case gpu.BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case gpu.BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	case gpu.BlendFactorDstAlpha:
		return wgpu.BlendFactorDstAlpha
	case gpu.BlendFactorOneMinusDstAlpha:
		return wgpu.BlendFactorOneMinusDstAlpha
	default:
		return wgpu.BlendFactorZero
	}
}

func blendOperation(o gpu.BlendOperation) wgpu.BlendOperation {
	switch o {
	case gpu.BlendOperationSubtract:
		return wgpu.BlendOperationSubtract
	case gpu.BlendOperationMin:
		return wgpu.BlendOperationMin
	case gpu.BlendOperationMax:
		return wgpu.BlendOperationMax
	default:
		return wgpu.BlendOperationAdd
	}
}

func blendState(b *gpu.BlendState) *wgpu.BlendState {
	if b == nil {
		return nil
	}
	component := func(c gpu.BlendComponent) wgpu.BlendComponent {
		return wgpu.BlendComponent{
			Operation: blendOperation(c.Operation),
			SrcFactor: blendFactor(c.SrcFactor),
			DstFactor: blendFactor(c.DstFactor),
		}
	}
	return &wgpu.BlendState{Color: component(b.Color), Alpha: component(b.Alpha)}
}

func writeMask(m gpu.ColorWriteMask) wgpu.ColorWriteMask {
	var out wgpu.ColorWriteMask
	if m&gpu.ColorWriteMaskRed != 0 {
		out |= wgpu.ColorWriteMaskRed
	}
	if m&gpu.ColorWriteMaskGreen != 0 {
		out |= wgpu.ColorWriteMaskGreen
	}
	if m&gpu.ColorWriteMaskBlue != 0 {
		out |= wgpu.ColorWriteMaskBlue
	}
	if m&gpu.ColorWriteMaskAlpha != 0 {
		out |= wgpu.ColorWriteMaskAlpha
	}
	return out
}

func addressMode(a gpu.AddressMode) wgpu.AddressMode {
	switch a {
	case gpu.AddressModeMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	case gpu.AddressModeClampToEdge:
		return wgpu.AddressModeClampToEdge
	default:
		return wgpu.AddressModeRepeat
	}
}

func filterMode(f gpu.FilterMode) wgpu.FilterMode {
	if f == gpu.FilterModeNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func loadOp(op gpu.LoadOp) wgpu.LoadOp {
	if op == gpu.LoadOpLoad {
		return wgpu.LoadOpLoad
	}
	return wgpu.LoadOpClear
}

func storeOp(op gpu.StoreOp) wgpu.StoreOp {
	if op == gpu.StoreOpDiscard {
		return wgpu.StoreOpDiscard
	}
	return wgpu.StoreOpStore
}
