package gpu

// BufferUsage is a bit set describing how a buffer may be used.
type BufferUsage uint32

const (
	BufferUsageCopySrc BufferUsage = 1 << iota
	BufferUsageCopyDst
	BufferUsageIndex
	BufferUsageVertex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageIndirect
)

// TextureUsage is a bit set describing how a texture may be used.
type TextureUsage uint32

const (
	TextureUsageCopySrc TextureUsage = 1 << iota
	TextureUsageCopyDst
	TextureUsageTextureBinding
	TextureUsageStorageBinding
	TextureUsageRenderAttachment
)

// ShaderStage is a bit set of programmable stages a binding is visible to.
type ShaderStage uint32

const (
	ShaderStageNone   ShaderStage = 0
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
	ShaderStageCompute
)

// TextureFormat identifies a texel format.
type TextureFormat int

const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatR8Unorm
	TextureFormatR32Float
	TextureFormatR32Uint
	TextureFormatR32Sint
	TextureFormatRG32Float
	TextureFormatRG32Uint
	TextureFormatRG32Sint
	TextureFormatRGBA8Unorm
	TextureFormatRGBA8UnormSrgb
	TextureFormatRGBA8Snorm
	TextureFormatRGBA8Uint
	TextureFormatRGBA8Sint
	TextureFormatBGRA8Unorm
	TextureFormatBGRA8UnormSrgb
	TextureFormatRGBA16Float
	TextureFormatRGBA16Uint
	TextureFormatRGBA16Sint
	TextureFormatRGBA32Float
	TextureFormatRGBA32Uint
	TextureFormatRGBA32Sint
	TextureFormatDepth24Plus
	TextureFormatDepth32Float
)

// IsDepth reports whether the format is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == TextureFormatDepth24Plus || f == TextureFormatDepth32Float
}

// BytesPerTexel returns the byte size of one texel for color formats, 0 when unknown.
func (f TextureFormat) BytesPerTexel() uint32 {
	switch f {
	case TextureFormatR8Unorm:
		return 1
	case TextureFormatR32Float, TextureFormatR32Uint, TextureFormatR32Sint,
		TextureFormatRGBA8Unorm, TextureFormatRGBA8UnormSrgb, TextureFormatRGBA8Snorm,
		TextureFormatRGBA8Uint, TextureFormatRGBA8Sint, TextureFormatBGRA8Unorm,
		TextureFormatBGRA8UnormSrgb, TextureFormatDepth32Float:
		return 4
	case TextureFormatRG32Float, TextureFormatRG32Uint, TextureFormatRG32Sint,
		TextureFormatRGBA16Float, TextureFormatRGBA16Uint, TextureFormatRGBA16Sint:
		return 8
	case TextureFormatRGBA32Float, TextureFormatRGBA32Uint, TextureFormatRGBA32Sint:
		return 16
	}
	return 0
}

// TextureViewDimension is the dimensionality a texture is viewed with.
type TextureViewDimension int

const (
	TextureViewDimensionUndefined TextureViewDimension = iota
	TextureViewDimension1D
	TextureViewDimension2D
	TextureViewDimension2DArray
	TextureViewDimensionCube
	TextureViewDimensionCubeArray
	TextureViewDimension3D
)

// TextureSampleType is the scalar type a sampled texture returns.
type TextureSampleType int

const (
	TextureSampleTypeUndefined TextureSampleType = iota
	TextureSampleTypeFloat
	TextureSampleTypeUnfilterableFloat
	TextureSampleTypeDepth
	TextureSampleTypeSint
	TextureSampleTypeUint
)

// StorageTextureAccess is the access mode of a storage texture binding.
type StorageTextureAccess int

const (
	StorageTextureAccessUndefined StorageTextureAccess = iota
	StorageTextureAccessWriteOnly
	StorageTextureAccessReadOnly
	StorageTextureAccessReadWrite
)

// BindingType is the resource class of a single bind group layout entry.
type BindingType int

const (
	BindingTypeUndefined BindingType = iota
	BindingTypeUniformBuffer
	BindingTypeStorageBuffer
	BindingTypeReadOnlyStorageBuffer
	BindingTypeTexture
	BindingTypeDepthTexture
	BindingTypeStorageTexture
	BindingTypeSampler
	BindingTypeComparisonSampler
)

// String returns a short human readable name of the binding type.
func (t BindingType) String() string {
	switch t {
	case BindingTypeUniformBuffer:
		return "uniform"
	case BindingTypeStorageBuffer:
		return "storage"
	case BindingTypeReadOnlyStorageBuffer:
		return "read-only-storage"
	case BindingTypeTexture:
		return "texture"
	case BindingTypeDepthTexture:
		return "depth-texture"
	case BindingTypeStorageTexture:
		return "storage-texture"
	case BindingTypeSampler:
		return "sampler"
	case BindingTypeComparisonSampler:
		return "comparison-sampler"
	}
	return "undefined"
}

// IsBuffer reports whether the binding is backed by a buffer.
func (t BindingType) IsBuffer() bool {
	return t == BindingTypeUniformBuffer || t == BindingTypeStorageBuffer || t == BindingTypeReadOnlyStorageBuffer
}

// IsTexture reports whether the binding is backed by a texture view.
func (t BindingType) IsTexture() bool {
	return t == BindingTypeTexture || t == BindingTypeDepthTexture || t == BindingTypeStorageTexture
}

// IsSampler reports whether the binding is backed by a sampler.
func (t BindingType) IsSampler() bool {
	return t == BindingTypeSampler || t == BindingTypeComparisonSampler
}

// VertexFormat is the format of a single vertex attribute.
type VertexFormat int

const (
	VertexFormatUndefined VertexFormat = iota
	VertexFormatFloat32
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatSint32
	VertexFormatSint32x2
	VertexFormatSint32x3
	VertexFormatSint32x4
	VertexFormatUint32
	VertexFormatUint32x2
	VertexFormatUint32x3
	VertexFormatUint32x4
	VertexFormatFloat16x2
	VertexFormatFloat16x4
)

// VertexStepMode selects per-vertex or per-instance attribute stepping.
type VertexStepMode int

const (
	VertexStepModeVertex VertexStepMode = iota
	VertexStepModeInstance
)

// IndexFormat is the integer width of an index buffer.
type IndexFormat int

const (
	IndexFormatUint32 IndexFormat = iota
	IndexFormatUint16
)

type PrimitiveTopology int

const (
	PrimitiveTopologyTriangleList PrimitiveTopology = iota
	PrimitiveTopologyTriangleStrip
	PrimitiveTopologyLineList
	PrimitiveTopologyLineStrip
	PrimitiveTopologyPointList
)

type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

type FrontFace int

const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

type CompareFunction int

const (
	CompareFunctionUndefined CompareFunction = iota
	CompareFunctionNever
	CompareFunctionLess
	CompareFunctionLessEqual
	CompareFunctionEqual
	CompareFunctionGreater
	CompareFunctionGreaterEqual
	CompareFunctionNotEqual
	CompareFunctionAlways
)

type BlendFactor int

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDstAlpha
	BlendFactorOneMinusDstAlpha
)

type BlendOperation int

const (
	BlendOperationAdd BlendOperation = iota
	BlendOperationSubtract
	BlendOperationMin
	BlendOperationMax
)

// ColorWriteMask is a bit set of color channels written by a target.
type ColorWriteMask uint32

const (
	ColorWriteMaskRed ColorWriteMask = 1 << iota
	ColorWriteMaskGreen
	ColorWriteMaskBlue
	ColorWriteMaskAlpha
	ColorWriteMaskNone ColorWriteMask = 0
	ColorWriteMaskAll                 = ColorWriteMaskRed | ColorWriteMaskGreen | ColorWriteMaskBlue | ColorWriteMaskAlpha
)

type AddressMode int

const (
	AddressModeRepeat AddressMode = iota
	AddressModeMirrorRepeat
	AddressModeClampToEdge
)

type FilterMode int

const (
	FilterModeNearest FilterMode = iota
	FilterModeLinear
)

type LoadOp int

const (
	LoadOpClear LoadOp = iota
	LoadOpLoad
)

type StoreOp int

const (
	StoreOpStore StoreOp = iota
	StoreOpDiscard
)

// Color is an RGBA clear color.
type Color struct {
	R, G, B, A float64
}

type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

type TextureDescriptor struct {
	Label              string
	Width              uint32
	Height             uint32
	DepthOrArrayLayers uint32
	Format             TextureFormat
	Usage              TextureUsage
	SampleCount        uint32
	MipLevelCount      uint32
	Cube               bool
}

type SamplerDescriptor struct {
	Label        string
	AddressModeU AddressMode
	AddressModeV AddressMode
	AddressModeW AddressMode
	MagFilter    FilterMode
	MinFilter    FilterMode
	Compare      CompareFunction
}

type ShaderModuleDescriptor struct {
	Label string
	Code  string
}

// BindGroupLayoutEntry describes one binding slot inside a bind group layout.
type BindGroupLayoutEntry struct {
	Binding        uint32
	Visibility     ShaderStage
	Type           BindingType
	MinBindingSize uint64
	ViewDimension  TextureViewDimension
	SampleType     TextureSampleType
	Multisampled   bool
	StorageFormat  TextureFormat
	StorageAccess  StorageTextureAccess
}

type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupEntry binds exactly one of Buffer, TextureView or Sampler to a slot.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	Offset      uint64
	Size        uint64
	TextureView TextureView
	Sampler     Sampler
}

type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

type PipelineLayoutDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
}

type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

type VertexBufferLayout struct {
	ArrayStride uint64
	StepMode    VertexStepMode
	Attributes  []VertexAttribute
}

type VertexState struct {
	Module     ShaderModule
	EntryPoint string
	Buffers    []VertexBufferLayout
}

type BlendComponent struct {
	SrcFactor BlendFactor
	DstFactor BlendFactor
	Operation BlendOperation
}

type BlendState struct {
	Color BlendComponent
	Alpha BlendComponent
}

type ColorTargetState struct {
	Format    TextureFormat
	Blend     *BlendState
	WriteMask ColorWriteMask
}

type FragmentState struct {
	Module     ShaderModule
	EntryPoint string
	Targets    []ColorTargetState
}

type PrimitiveState struct {
	Topology  PrimitiveTopology
	FrontFace FrontFace
	CullMode  CullMode
}

type DepthStencilState struct {
	Format              TextureFormat
	DepthWriteEnabled   bool
	DepthCompare        CompareFunction
	DepthBias           int32
	DepthBiasSlopeScale float32
}

type RenderPipelineDescriptor struct {
	Label        string
	Layout       PipelineLayout
	Vertex       VertexState
	Fragment     *FragmentState
	Primitive    PrimitiveState
	DepthStencil *DepthStencilState
	SampleCount  uint32
}

type ComputePipelineDescriptor struct {
	Label      string
	Layout     PipelineLayout
	Module     ShaderModule
	EntryPoint string
}

type ColorAttachment struct {
	View          TextureView
	ResolveTarget TextureView
	LoadOp        LoadOp
	StoreOp       StoreOp
	ClearValue    Color
}

type DepthStencilAttachment struct {
	View            TextureView
	DepthLoadOp     LoadOp
	DepthStoreOp    StoreOp
	DepthClearValue float32
}

type RenderPassDescriptor struct {
	Label                  string
	ColorAttachments       []ColorAttachment
	DepthStencilAttachment *DepthStencilAttachment
}
