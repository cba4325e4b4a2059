// Package wgpu_backend implements the gpu interfaces on top of WebGPU through cogentcore/webgpu.
package wgpu_backend

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// PresentMode controls how frames are delivered to the display.
type PresentMode int

const (
	// PresentModeVSync waits for vertical blank, capping frame rate to the display refresh rate.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents as fast as possible and may tear.
	PresentModeUncapped
)

func (m PresentMode) wgpu() wgpu.PresentMode {
	if m == PresentModeUncapped {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// ParsePresentMode parses "vsync" or "uncapped".
func ParsePresentMode(s string) (PresentMode, error) {
	switch s {
	case "", "vsync":
		return PresentModeVSync, nil
	case "uncapped":
		return PresentModeUncapped, nil
	}
	return PresentModeVSync, fmt.Errorf("wgpu: unknown present mode %q", s)
}

// Backend owns the WebGPU instance, adapter, device and window surface.
type Backend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	presentMode          PresentMode
	forceFallbackAdapter bool
	maxBindGroups        uint32
	logger               *zap.Logger

	dev  *Device
	surf *Surface
}

// BackendOption is a functional option applied to a Backend during construction via NewBackend.
type BackendOption func(*Backend)

// WithPresentMode sets the surface present mode. The default is PresentModeVSync.
func WithPresentMode(mode PresentMode) BackendOption {
	return func(b *Backend) {
		b.presentMode = mode
	}
}

// WithForceSoftwareRenderer forces a CPU fallback adapter. This requires a software Vulkan ICD to be
// installed on the system (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter
//
// Returns:
//   - BackendOption: a function that applies the option to a Backend
func WithForceSoftwareRenderer(force bool) BackendOption {
	return func(b *Backend) {
		b.forceFallbackAdapter = force
	}
}

// WithMaxBindGroups raises the device's bind group limit above the WebGPU default of 4.
func WithMaxBindGroups(n uint32) BackendOption {
	return func(b *Backend) {
		b.maxBindGroups = n
	}
}

// WithLogger sets the backend logger.
func WithLogger(logger *zap.Logger) BackendOption {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger.Named("wgpu")
		}
	}
}

// NewBackend creates a WebGPU device able to present to the surface described by surfaceDescriptor.
// The calling goroutine is locked to its OS thread.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor of the window
//   - options: variadic list of BackendOption functions to configure the Backend
//
// Returns:
//   - *Backend: the backend
//   - error: error if no adapter or device is available
func NewBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...BackendOption) (*Backend, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("wgpu: nil surface descriptor")
	}
	runtime.LockOSThread()

	b := &Backend{
		mu:            &sync.Mutex{},
		instance:      wgpu.CreateInstance(nil),
		maxBindGroups: 4,
		logger:        zap.NewNop(),
	}
	for _, opt := range options {
		opt(b)
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("wgpu: request adapter: %w", err)
	}
	b.adapter = a

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = max(limits.MaxBindGroups, b.maxBindGroups)

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("wgpu: request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	b.dev = &Device{raw: d, queue: &queue{raw: b.queue}}
	b.surf = &Surface{backend: b}
	b.logger.Info("device ready",
		zap.Bool("fallback", b.forceFallbackAdapter),
		zap.Uint32("maxBindGroups", limits.MaxBindGroups),
	)
	return b, nil
}

// Device returns the gpu.Device of the backend.
func (b *Backend) Device() gpu.Device {
	return b.dev
}

// Surface returns the presentable surface of the backend.
func (b *Backend) Surface() gpu.Surface {
	return b.surf
}

// Release frees the device, surface, adapter and instance.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surf != nil {
		b.surf.releaseFrame()
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Device creates WebGPU objects from backend independent descriptors.
type Device struct {
	raw   *wgpu.Device
	queue *queue
}

var _ gpu.Device = &Device{}

func (d *Device) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	b, err := d.raw.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: bufferUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create buffer %q: %w", desc.Label, err)
	}
	return &buffer{raw: b, label: desc.Label, size: desc.Size}, nil
}

func (d *Device) CreateTexture(desc *gpu.TextureDescriptor) (gpu.Texture, error) {
	layers := max(desc.DepthOrArrayLayers, 1)
	if desc.Cube {
		layers = 6
	}
	t, err := d.raw.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: max(desc.MipLevelCount, 1),
		SampleCount:   max(desc.SampleCount, 1),
		Dimension:     wgpu.TextureDimension2D,
		Format:        TextureFormat(desc.Format),
		Usage:         textureUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture %q: %w", desc.Label, err)
	}
	td := *desc
	td.DepthOrArrayLayers = layers
	return &texture{raw: t, desc: td}, nil
}

func (d *Device) CreateSampler(desc *gpu.SamplerDescriptor) (gpu.Sampler, error) {
	s, err := d.raw.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  addressMode(desc.AddressModeU),
		AddressModeV:  addressMode(desc.AddressModeV),
		AddressModeW:  addressMode(desc.AddressModeW),
		MagFilter:     filterMode(desc.MagFilter),
		MinFilter:     filterMode(desc.MinFilter),
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
		Compare:       CompareFunction(desc.Compare),
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create sampler %q: %w", desc.Label, err)
	}
	return &sampler{handle: handle[*wgpu.Sampler]{raw: s}, compare: desc.Compare}, nil
}

func (d *Device) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	m, err := d.raw.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Code,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module %q: %w", desc.Label, err)
	}
	return &shaderModule{raw: m}, nil
}

func (d *Device) CreateBindGroupLayout(desc *gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entries[i] = LayoutEntry(e)
	}
	l, err := d.raw.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create bind group layout %q: %w", desc.Label, err)
	}
	return &bindGroupLayout{raw: l}, nil
}

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			entry.Buffer = rawBuffer(e.Buffer)
			entry.Offset = e.Offset
			entry.Size = e.Size
			if entry.Size == 0 {
				entry.Size = wgpu.WholeSize
			}
		case e.TextureView != nil:
			entry.TextureView = rawView(e.TextureView)
		case e.Sampler != nil:
			entry.Sampler = rawSampler(e.Sampler)
		}
		entries[i] = entry
	}
	g, err := d.raw.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  unwrap[*wgpu.BindGroupLayout](desc.Layout),
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create bind group %q: %w", desc.Label, err)
	}
	return &bindGroup{raw: g}, nil
}

func (d *Device) CreatePipelineLayout(desc *gpu.PipelineLayoutDescriptor) (gpu.PipelineLayout, error) {
	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, l := range desc.BindGroupLayouts {
		layouts[i] = unwrap[*wgpu.BindGroupLayout](l)
	}
	l, err := d.raw.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline layout %q: %w", desc.Label, err)
	}
	return &pipelineLayout{raw: l}, nil
}

func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	buffers := make([]wgpu.VertexBufferLayout, len(desc.Vertex.Buffers))
	for i, b := range desc.Vertex.Buffers {
		buffers[i] = VertexBufferLayout(b)
	}

	rd := &wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: unwrap[*wgpu.PipelineLayout](desc.Layout),
		Vertex: wgpu.VertexState{
			Module:     unwrap[*wgpu.ShaderModule](desc.Vertex.Module),
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    buffers,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology(desc.Primitive.Topology),
			FrontFace: frontFace(desc.Primitive.FrontFace),
			CullMode:  cullMode(desc.Primitive.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: max(desc.SampleCount, 1),
			Mask:  0xFFFFFFFF,
		},
	}
	if f := desc.Fragment; f != nil {
		targets := make([]wgpu.ColorTargetState, len(f.Targets))
		for i, t := range f.Targets {
			targets[i] = wgpu.ColorTargetState{
				Format:    TextureFormat(t.Format),
				Blend:     blendState(t.Blend),
				WriteMask: writeMask(t.WriteMask),
			}
		}
		rd.Fragment = &wgpu.FragmentState{
			Module:     unwrap[*wgpu.ShaderModule](f.Module),
			EntryPoint: f.EntryPoint,
			Targets:    targets,
		}
	}
	if ds := desc.DepthStencil; ds != nil {
		rd.DepthStencil = &wgpu.DepthStencilState{
			Format:              TextureFormat(ds.Format),
			DepthWriteEnabled:   ds.DepthWriteEnabled,
			DepthCompare:        CompareFunction(ds.DepthCompare),
			DepthBias:           ds.DepthBias,
			DepthBiasSlopeScale: ds.DepthBiasSlopeScale,
			StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	p, err := d.raw.CreateRenderPipeline(rd)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create render pipeline %q: %w", desc.Label, err)
	}
	return &renderPipeline{raw: p}, nil
}

func (d *Device) CreateComputePipeline(desc *gpu.ComputePipelineDescriptor) (gpu.ComputePipeline, error) {
	p, err := d.raw.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: unwrap[*wgpu.PipelineLayout](desc.Layout),
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     unwrap[*wgpu.ShaderModule](desc.Module),
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create compute pipeline %q: %w", desc.Label, err)
	}
	return &computePipeline{raw: p}, nil
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	e, err := d.raw.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder %q: %w", label, err)
	}
	return &commandEncoder{raw: e}, nil
}

func (d *Device) Queue() gpu.Queue {
	return d.queue
}

type queue struct {
	raw *wgpu.Queue
}

func (q *queue) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	raw := rawBuffer(buf)
	if raw == nil {
		return errors.New("wgpu: write to a released or foreign buffer")
	}
	if offset+uint64(len(data)) > buf.Size() {
		return fmt.Errorf("wgpu: write of %d bytes at %d overflows buffer %q of %d bytes", len(data), offset, buf.Label(), buf.Size())
	}
	return q.raw.WriteBuffer(raw, offset, data)
}

func (q *queue) WriteTexture(tex gpu.Texture, data []byte, bytesPerRow uint32) error {
	t, ok := tex.(*texture)
	if !ok || t.raw == nil {
		return errors.New("wgpu: write to a released or foreign texture")
	}
	height := t.desc.Height
	layers := uint32(1)
	if per := bytesPerRow * height; per > 0 && uint32(len(data)) >= per {
		layers = min(uint32(len(data))/per, t.desc.DepthOrArrayLayers)
	}
	return q.raw.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.raw,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  bytesPerRow,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              t.desc.Width,
			Height:             height,
			DepthOrArrayLayers: max(layers, 1),
		},
	)
}

func (q *queue) Submit(buffers ...gpu.CommandBuffer) {
	raw := make([]*wgpu.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		if cb := unwrap[*wgpu.CommandBuffer](b); cb != nil {
			raw = append(raw, cb)
		}
	}
	q.raw.Submit(raw...)
}

type commandEncoder struct {
	raw *wgpu.CommandEncoder
}

func (e *commandEncoder) BeginRenderPass(desc *gpu.RenderPassDescriptor) gpu.RenderPassEncoder {
	rd := &wgpu.RenderPassDescriptor{Label: desc.Label}
	for _, c := range desc.ColorAttachments {
		rd.ColorAttachments = append(rd.ColorAttachments, wgpu.RenderPassColorAttachment{
			View:          rawView(c.View),
			ResolveTarget: rawView(c.ResolveTarget),
			LoadOp:        loadOp(c.LoadOp),
			StoreOp:       storeOp(c.StoreOp),
			ClearValue: wgpu.Color{
				R: c.ClearValue.R, G: c.ClearValue.G, B: c.ClearValue.B, A: c.ClearValue.A,
			},
		})
	}
	if ds := desc.DepthStencilAttachment; ds != nil {
		rd.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            rawView(ds.View),
			DepthLoadOp:     loadOp(ds.DepthLoadOp),
			DepthStoreOp:    storeOp(ds.DepthStoreOp),
			DepthClearValue: ds.DepthClearValue,
		}
	}
	return &renderPass{raw: e.raw.BeginRenderPass(rd)}
}

func (e *commandEncoder) BeginComputePass(label string) gpu.ComputePassEncoder {
	return &computePass{raw: e.raw.BeginComputePass(&wgpu.ComputePassDescriptor{Label: label})}
}

func (e *commandEncoder) Finish() (gpu.CommandBuffer, error) {
	cb, err := e.raw.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpu: finish command encoder: %w", err)
	}
	return &commandBuffer{raw: cb}, nil
}

func (e *commandEncoder) Release() {
	if e.raw != nil {
		e.raw.Release()
		e.raw = nil
	}
}

type renderPass struct {
	raw *wgpu.RenderPassEncoder
}

func (p *renderPass) SetPipeline(rp gpu.RenderPipeline) {
	p.raw.SetPipeline(unwrap[*wgpu.RenderPipeline](rp))
}

func (p *renderPass) SetBindGroup(index uint32, bg gpu.BindGroup) {
	p.raw.SetBindGroup(index, unwrap[*wgpu.BindGroup](bg), nil)
}

func (p *renderPass) SetVertexBuffer(slot uint32, buf gpu.Buffer) {
	p.raw.SetVertexBuffer(slot, rawBuffer(buf), 0, wgpu.WholeSize)
}

func (p *renderPass) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat) {
	p.raw.SetIndexBuffer(rawBuffer(buf), indexFormat(format), 0, wgpu.WholeSize)
}

func (p *renderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.raw.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *renderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.raw.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *renderPass) End() error {
	err := p.raw.End()
	p.raw.Release()
	return err
}

type computePass struct {
	raw *wgpu.ComputePassEncoder
}

func (p *computePass) SetPipeline(cp gpu.ComputePipeline) {
	p.raw.SetPipeline(unwrap[*wgpu.ComputePipeline](cp))
}

func (p *computePass) SetBindGroup(index uint32, bg gpu.BindGroup) {
	p.raw.SetBindGroup(index, unwrap[*wgpu.BindGroup](bg), nil)
}

func (p *computePass) DispatchWorkgroups(x, y, z uint32) {
	p.raw.DispatchWorkgroups(x, y, z)
}

func (p *computePass) End() error {
	err := p.raw.End()
	p.raw.Release()
	return err
}

// surfaceView is the view of the acquired swapchain image. Present releases it.
type surfaceView struct {
	raw    *wgpu.TextureView
	format gpu.TextureFormat
}

func (v *surfaceView) Release()                      {}
func (v *surfaceView) ViewFormat() gpu.TextureFormat { return v.format }

// Surface is the swapchain of the backend's window.
type Surface struct {
	backend *Backend
	format  wgpu.TextureFormat

	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ gpu.Surface = &Surface{}

func (s *Surface) Configure(width, height int) error {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu: invalid surface size %dx%d", width, height)
	}
	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("wgpu: surface reports no formats")
	}
	s.format = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      s.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode.wgpu(),
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.logger.Debug("surface configured", zap.Int("width", width), zap.Int("height", height))
	return nil
}

func (s *Surface) Format() gpu.TextureFormat {
	return FromTextureFormat(s.format)
}

func (s *Surface) AcquireView() (gpu.TextureView, error) {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.frameTexture != nil {
		return nil, errors.New("wgpu: previous frame surface not yet presented")
	}
	tex, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("wgpu: acquire surface texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("wgpu: create surface view: %w", err)
	}
	s.frameTexture, s.frameView = tex, view
	return &surfaceView{raw: view, format: s.Format()}, nil
}

func (s *Surface) Present() {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.frameTexture == nil {
		return
	}
	b.surface.Present()
	s.releaseFrame()
}

func (s *Surface) Discard() {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	s.releaseFrame()
}

func (s *Surface) releaseFrame() {
	if s.frameView != nil {
		s.frameView.Release()
		s.frameView = nil
	}
	if s.frameTexture != nil {
		s.frameTexture.Release()
		s.frameTexture = nil
	}
}
