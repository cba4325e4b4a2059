// Package gpu defines the narrow GPU surface the engine core depends on. Backends translate these
// descriptors to a concrete API; nothing above this package imports a GPU binding directly.
package gpu

// Releaser is implemented by every GPU handle.
type Releaser interface {
	// Release frees the GPU object. Releasing twice is a no-op.
	Release()
}

// Buffer is a linear block of GPU memory.
type Buffer interface {
	Releaser

	// Label returns the debug label the buffer was created with.
	Label() string

	// Size returns the size of the buffer in bytes.
	Size() uint64
}

// Texture is an image allocated on the GPU. Passes sample or render to it through views.
type Texture interface {
	Releaser

	Label() string
	Width() uint32
	Height() uint32
	Format() TextureFormat

	// CreateView creates a view over the whole texture.
	//
	// Returns:
	//   - TextureView: the new view
	//   - error: error if the backend fails to create the view
	CreateView() (TextureView, error)
}

// TextureView selects the texels of a texture or swapchain image that a binding or attachment sees.
type TextureView interface {
	Releaser

	// ViewFormat returns the texel format the view is read or written with.
	//
	// Returns:
	//   - TextureFormat: the format of the viewed texture
	ViewFormat() TextureFormat
}

// Sampler controls filtering and addressing when a shader reads a texture.
type Sampler interface {
	Releaser

	// CompareFunction returns the depth comparison of a comparison sampler.
	//
	// Returns:
	//   - CompareFunction: the comparison, CompareFunctionUndefined for a filtering sampler
	CompareFunction() CompareFunction
}

// ShaderModule is compiled WGSL source.
type ShaderModule interface {
	Releaser
}

// BindGroupLayout describes the binding slots of one bind group.
type BindGroupLayout interface {
	Releaser
}

// BindGroup binds concrete buffers, views and samplers to a BindGroupLayout.
type BindGroup interface {
	Releaser
}

// PipelineLayout is the ordered list of bind group layouts a pipeline uses.
type PipelineLayout interface {
	Releaser
}

// RenderPipeline is a compiled vertex and fragment pipeline.
type RenderPipeline interface {
	Releaser
}

// ComputePipeline is a compiled compute pipeline.
type ComputePipeline interface {
	Releaser
}

// CommandBuffer is finished work ready to be submitted to a Queue.
type CommandBuffer interface {
	Releaser
}

// Device creates GPU objects. Creation calls are synchronous from the caller's point of view.
type Device interface {
	// CreateBuffer allocates a buffer of the described size and usage.
	//
	// Parameters:
	//   - desc: the buffer descriptor
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: error if the allocation fails
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)

	// CreateTexture allocates a texture.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - Texture: the created texture
	//   - error: error if the allocation fails
	CreateTexture(desc *TextureDescriptor) (Texture, error)

	// CreateSampler creates a sampler object.
	//
	// Parameters:
	//   - desc: the sampler descriptor
	//
	// Returns:
	//   - Sampler: the created sampler
	//   - error: error if creation fails
	CreateSampler(desc *SamplerDescriptor) (Sampler, error)

	// CreateShaderModule compiles shader source text into a module.
	//
	// Parameters:
	//   - desc: the module descriptor holding WGSL source
	//
	// Returns:
	//   - ShaderModule: the created module
	//   - error: error if compilation fails
	CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error)

	// CreateBindGroupLayout creates a bind group layout from its entries.
	//
	// Parameters:
	//   - desc: the layout descriptor
	//
	// Returns:
	//   - BindGroupLayout: the created layout
	//   - error: error if creation fails
	CreateBindGroupLayout(desc *BindGroupLayoutDescriptor) (BindGroupLayout, error)

	// CreateBindGroup binds concrete resources to a layout.
	//
	// Parameters:
	//   - desc: the bind group descriptor
	//
	// Returns:
	//   - BindGroup: the created bind group
	//   - error: error if creation fails
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)

	// CreatePipelineLayout creates a pipeline layout from an ordered list of bind group layouts.
	//
	// Parameters:
	//   - desc: the pipeline layout descriptor
	//
	// Returns:
	//   - PipelineLayout: the created layout
	//   - error: error if creation fails
	CreatePipelineLayout(desc *PipelineLayoutDescriptor) (PipelineLayout, error)

	// CreateRenderPipeline compiles a render pipeline.
	//
	// Parameters:
	//   - desc: the render pipeline descriptor
	//
	// Returns:
	//   - RenderPipeline: the created pipeline
	//   - error: error if creation fails
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)

	// CreateComputePipeline compiles a compute pipeline.
	//
	// Parameters:
	//   - desc: the compute pipeline descriptor
	//
	// Returns:
	//   - ComputePipeline: the created pipeline
	//   - error: error if creation fails
	CreateComputePipeline(desc *ComputePipelineDescriptor) (ComputePipeline, error)

	// CreateCommandEncoder starts recording a new command buffer.
	//
	// Parameters:
	//   - label: debug label for the encoder
	//
	// Returns:
	//   - CommandEncoder: the encoder
	//   - error: error if the encoder cannot be created
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Queue returns the device's submission queue.
	Queue() Queue
}

// Queue uploads data and submits recorded work. Writes are ordered before any later submission.
type Queue interface {
	// WriteBuffer copies data into buf at offset.
	//
	// Parameters:
	//   - buf: destination buffer
	//   - offset: destination byte offset
	//   - data: bytes to copy
	//
	// Returns:
	//   - error: error if the write is out of range or the backend rejects it
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// WriteTexture uploads tightly packed texel rows into the first mip level of tex.
	//
	// Parameters:
	//   - tex: destination texture
	//   - data: texel bytes
	//   - bytesPerRow: row pitch in bytes
	//
	// Returns:
	//   - error: error if the upload fails
	WriteTexture(tex Texture, data []byte, bytesPerRow uint32) error

	// Submit hands finished command buffers to the GPU.
	Submit(buffers ...CommandBuffer)
}

// CommandEncoder records passes into a single command buffer.
type CommandEncoder interface {
	Releaser

	BeginRenderPass(desc *RenderPassDescriptor) RenderPassEncoder
	BeginComputePass(label string) ComputePassEncoder

	// Finish ends recording.
	//
	// Returns:
	//   - CommandBuffer: the recorded commands
	//   - error: error if recording failed
	Finish() (CommandBuffer, error)
}

// RenderPassEncoder records draw calls. It exposes no way to create GPU objects.
type RenderPassEncoder interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, bg BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format IndexFormat)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	End() error
}

// ComputePassEncoder records dispatches.
type ComputePassEncoder interface {
	SetPipeline(p ComputePipeline)
	SetBindGroup(index uint32, bg BindGroup)
	DispatchWorkgroups(x, y, z uint32)
	End() error
}

// Surface is the presentable swapchain of a window.
type Surface interface {
	// Configure (re)creates the swapchain at the given size.
	//
	// Parameters:
	//   - width: width in pixels
	//   - height: height in pixels
	//
	// Returns:
	//   - error: error if the surface cannot be configured
	Configure(width, height int) error

	// Format returns the texel format of swapchain images.
	Format() TextureFormat

	// AcquireView acquires the next swapchain image.
	//
	// Returns:
	//   - TextureView: a view of the acquired image, valid until Present
	//   - error: error if no image could be acquired
	AcquireView() (TextureView, error)

	// Present shows the acquired image and releases it.
	Present()

	// Discard releases the acquired image without showing it, so a failed frame does not block
	// the next AcquireView. It is a no-op when no image is held.
	Discard()
}
