package gpu

import (
	"fmt"
	"sync"
)

// Operation names recorded by RecordingDevice.
const (
	OpCreateBuffer          = "CreateBuffer"
	OpCreateTexture         = "CreateTexture"
	OpCreateTextureView     = "CreateTextureView"
	OpCreateSampler         = "CreateSampler"
	OpCreateShaderModule    = "CreateShaderModule"
	OpCreateBindGroupLayout = "CreateBindGroupLayout"
	OpCreateBindGroup       = "CreateBindGroup"
	OpCreatePipelineLayout  = "CreatePipelineLayout"
	OpCreateRenderPipeline  = "CreateRenderPipeline"
	OpCreateComputePipeline = "CreateComputePipeline"
	OpCreateCommandEncoder  = "CreateCommandEncoder"
	OpWriteBuffer           = "WriteBuffer"
	OpWriteTexture          = "WriteTexture"
	OpSubmit                = "Submit"
	OpBeginRenderPass       = "BeginRenderPass"
	OpBeginComputePass      = "BeginComputePass"
	OpSetPipeline           = "SetPipeline"
	OpSetBindGroup          = "SetBindGroup"
	OpSetVertexBuffer       = "SetVertexBuffer"
	OpSetIndexBuffer        = "SetIndexBuffer"
	OpDraw                  = "Draw"
	OpDrawIndexed           = "DrawIndexed"
	OpDispatch              = "DispatchWorkgroups"
	OpEndPass               = "EndPass"
	OpFinish                = "Finish"
	OpConfigureSurface      = "ConfigureSurface"
	OpAcquireView           = "AcquireView"
	OpPresent               = "Present"
	OpDiscard               = "Discard"
)

// Call is one recorded device, queue, encoder or surface operation.
type Call struct {
	Op    string
	Label string
}

// RecordingDevice is an in-memory Device that records every call in order. Buffers keep their
// contents so uploads can be read back. It backs headless runs and tests.
type RecordingDevice struct {
	mu       sync.Mutex
	calls    []Call
	failures map[string]error
	queue    *recordingQueue
}

var _ Device = &RecordingDevice{}

// NewRecordingDevice creates an empty RecordingDevice.
func NewRecordingDevice() *RecordingDevice {
	d := &RecordingDevice{failures: make(map[string]error)}
	d.queue = &recordingQueue{device: d}
	return d
}

// FailOn makes every later call of op return err. A nil err clears the failure.
func (d *RecordingDevice) FailOn(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, op)
		return
	}
	d.failures[op] = err
}

// Calls returns a copy of the recorded calls.
func (d *RecordingDevice) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// Ops returns the recorded operation names in order.
func (d *RecordingDevice) Ops() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	for i, c := range d.calls {
		out[i] = c.Op
	}
	return out
}

// Count returns how many times op was recorded.
func (d *RecordingDevice) Count(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets the recorded calls. Created objects stay valid.
func (d *RecordingDevice) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = d.calls[:0]
}

func (d *RecordingDevice) record(op, label string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failures[op]; ok {
		return err
	}
	d.calls = append(d.calls, Call{Op: op, Label: label})
	return nil
}

func (d *RecordingDevice) CreateBuffer(desc *BufferDescriptor) (Buffer, error) {
	if err := d.record(OpCreateBuffer, desc.Label); err != nil {
		return nil, err
	}
	return &RecordedBuffer{label: desc.Label, usage: desc.Usage, data: make([]byte, desc.Size)}, nil
}

func (d *RecordingDevice) CreateTexture(desc *TextureDescriptor) (Texture, error) {
	if err := d.record(OpCreateTexture, desc.Label); err != nil {
		return nil, err
	}
	return &RecordedTexture{device: d, Desc: *desc}, nil
}

func (d *RecordingDevice) CreateSampler(desc *SamplerDescriptor) (Sampler, error) {
	if err := d.record(OpCreateSampler, desc.Label); err != nil {
		return nil, err
	}
	return &RecordedSampler{Label: desc.Label, Desc: *desc}, nil
}

func (d *RecordingDevice) CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error) {
	if err := d.record(OpCreateShaderModule, desc.Label); err != nil {
		return nil, err
	}
	return &RecordedObject{Kind: OpCreateShaderModule, Label: desc.Label, Desc: *desc}, nil
}

func (d *RecordingDevice) CreateBindGroupLayout(desc *BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	if err := d.record(OpCreateBindGroupLayout, desc.Label); err != nil {
		return nil, err
	}
	return &RecordedObject{Kind: OpCreateBindGroupLayout, Label: desc.Label, Desc: *desc}, nil
}

func (d *RecordingDevice) CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error) {
	if err := d.record(OpCreateBindGroup, desc.Label); err != nil {
		return nil, err
	}
	if desc.Layout == nil {
		return nil, fmt.Errorf("bind group %q has no layout", desc.Label)
	}
	return &RecordedObject{Kind: OpCreateBindGroup, Label: desc.Label, Desc: *desc}, nil
}

func (d *RecordingDevice) CreatePipelineLayout(desc *PipelineLayoutDescriptor) (PipelineLayout, error) {
	if err := d.record(OpCreatePipelineLayout, desc.Label); err != nil {
		return nil, err
	}
	return &RecordedObject{Kind: OpCreatePipelineLayout, Label: desc.Label, Desc: *desc}, nil
}

func (d *RecordingDevice) CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error) {
	if err := d.record(OpCreateRenderPipeline, desc.Label); err != nil {
		return nil, err
	}
	return &RecordedObject{Kind: OpCreateRenderPipeline, Label: desc.Label, Desc: *desc}, nil
}

func (d *RecordingDevice) CreateComputePipeline(desc *ComputePipelineDescriptor) (ComputePipeline, error) {
	if err := d.record(OpCreateComputePipeline, desc.Label); err != nil {
		return nil, err
	}
	return &RecordedObject{Kind: OpCreateComputePipeline, Label: desc.Label, Desc: *desc}, nil
}

func (d *RecordingDevice) CreateCommandEncoder(label string) (CommandEncoder, error) {
	if err := d.record(OpCreateCommandEncoder, label); err != nil {
		return nil, err
	}
	return &recordingEncoder{device: d, label: label}, nil
}

func (d *RecordingDevice) Queue() Queue {
	return d.queue
}

// RecordedObject is the handle type for every object without observable contents.
type RecordedObject struct {
	Kind     string
	Label    string
	Desc     any
	Released bool
}

func (o *RecordedObject) Release() { o.Released = true }

// RecordedSampler keeps the descriptor it was created from.
type RecordedSampler struct {
	Label    string
	Desc     SamplerDescriptor
	Released bool
}

func (s *RecordedSampler) Release()                         { s.Released = true }
func (s *RecordedSampler) CompareFunction() CompareFunction { return s.Desc.Compare }

// RecordedBuffer keeps the bytes written to it.
type RecordedBuffer struct {
	label    string
	usage    BufferUsage
	data     []byte
	Released bool
}

func (b *RecordedBuffer) Release()           { b.Released = true }
func (b *RecordedBuffer) Label() string      { return b.label }
func (b *RecordedBuffer) Size() uint64       { return uint64(len(b.data)) }
func (b *RecordedBuffer) Usage() BufferUsage { return b.usage }

// Bytes returns a copy of the buffer contents.
func (b *RecordedBuffer) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// RecordedTexture records its descriptor and last upload.
type RecordedTexture struct {
	device   *RecordingDevice
	Desc     TextureDescriptor
	Data     []byte
	Released bool
}

func (t *RecordedTexture) Release()              { t.Released = true }
func (t *RecordedTexture) Label() string         { return t.Desc.Label }
func (t *RecordedTexture) Width() uint32         { return t.Desc.Width }
func (t *RecordedTexture) Height() uint32        { return t.Desc.Height }
func (t *RecordedTexture) Format() TextureFormat { return t.Desc.Format }

func (t *RecordedTexture) CreateView() (TextureView, error) {
	if err := t.device.record(OpCreateTextureView, t.Desc.Label); err != nil {
		return nil, err
	}
	return &RecordedTextureView{Texture: t, Format: t.Desc.Format}, nil
}

// RecordedTextureView points back at its texture. Texture is nil for surface views.
type RecordedTextureView struct {
	Texture  *RecordedTexture
	Format   TextureFormat
	Released bool
}

func (v *RecordedTextureView) Release()                  { v.Released = true }
func (v *RecordedTextureView) ViewFormat() TextureFormat { return v.Format }

type recordingQueue struct {
	device *RecordingDevice
}

func (q *recordingQueue) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	rb, ok := buf.(*RecordedBuffer)
	if !ok {
		return fmt.Errorf("write to foreign buffer %T", buf)
	}
	if err := q.device.record(OpWriteBuffer, rb.label); err != nil {
		return err
	}
	if offset+uint64(len(data)) > uint64(len(rb.data)) {
		return fmt.Errorf("write of %d bytes at offset %d overflows buffer %q of %d bytes", len(data), offset, rb.label, len(rb.data))
	}
	copy(rb.data[offset:], data)
	return nil
}

func (q *recordingQueue) WriteTexture(tex Texture, data []byte, bytesPerRow uint32) error {
	rt, ok := tex.(*RecordedTexture)
	if !ok {
		return fmt.Errorf("write to foreign texture %T", tex)
	}
	if err := q.device.record(OpWriteTexture, rt.Desc.Label); err != nil {
		return err
	}
	rt.Data = append(rt.Data[:0], data...)
	return nil
}

func (q *recordingQueue) Submit(buffers ...CommandBuffer) {
	for _, b := range buffers {
		label := ""
		if o, ok := b.(*RecordedObject); ok {
			label = o.Label
		}
		_ = q.device.record(OpSubmit, label)
	}
}

type recordingEncoder struct {
	device   *RecordingDevice
	label    string
	released bool
}

func (e *recordingEncoder) Release() { e.released = true }

func (e *recordingEncoder) BeginRenderPass(desc *RenderPassDescriptor) RenderPassEncoder {
	_ = e.device.record(OpBeginRenderPass, desc.Label)
	return &recordingPass{device: e.device, label: desc.Label}
}

func (e *recordingEncoder) BeginComputePass(label string) ComputePassEncoder {
	_ = e.device.record(OpBeginComputePass, label)
	return recordingComputePass{&recordingPass{device: e.device, label: label}}
}

func (e *recordingEncoder) Finish() (CommandBuffer, error) {
	if err := e.device.record(OpFinish, e.label); err != nil {
		return nil, err
	}
	return &RecordedObject{Kind: OpFinish, Label: e.label}, nil
}

// recordingPass serves both render and compute passes.
type recordingPass struct {
	device *RecordingDevice
	label  string
}

func (p *recordingPass) SetPipeline(_ RenderPipeline) { _ = p.device.record(OpSetPipeline, p.label) }

func (p *recordingPass) SetBindGroup(_ uint32, _ BindGroup) {
	_ = p.device.record(OpSetBindGroup, p.label)
}

func (p *recordingPass) SetVertexBuffer(_ uint32, _ Buffer) {
	_ = p.device.record(OpSetVertexBuffer, p.label)
}

func (p *recordingPass) SetIndexBuffer(_ Buffer, _ IndexFormat) {
	_ = p.device.record(OpSetIndexBuffer, p.label)
}

func (p *recordingPass) Draw(_, _, _, _ uint32) { _ = p.device.record(OpDraw, p.label) }

func (p *recordingPass) DrawIndexed(_, _, _ uint32, _ int32, _ uint32) {
	_ = p.device.record(OpDrawIndexed, p.label)
}

func (p *recordingPass) DispatchWorkgroups(_, _, _ uint32) { _ = p.device.record(OpDispatch, p.label) }

func (p *recordingPass) End() error { return p.device.record(OpEndPass, p.label) }

type recordingComputePass struct {
	*recordingPass
}

func (p recordingComputePass) SetPipeline(_ ComputePipeline) {
	_ = p.device.record(OpSetPipeline, p.label)
}

// RecordingSurface is a Surface whose images are RecordedTextureViews.
type RecordingSurface struct {
	device *RecordingDevice
	format TextureFormat
	Width  int
	Height int
}

var _ Surface = &RecordingSurface{}

// NewRecordingSurface creates a surface that records into device.
func NewRecordingSurface(device *RecordingDevice, format TextureFormat) *RecordingSurface {
	return &RecordingSurface{device: device, format: format}
}

func (s *RecordingSurface) Configure(width, height int) error {
	if err := s.device.record(OpConfigureSurface, ""); err != nil {
		return err
	}
	s.Width, s.Height = width, height
	return nil
}

func (s *RecordingSurface) Format() TextureFormat { return s.format }

func (s *RecordingSurface) AcquireView() (TextureView, error) {
	if err := s.device.record(OpAcquireView, ""); err != nil {
		return nil, err
	}
	return &RecordedTextureView{Format: s.format}, nil
}

func (s *RecordingSurface) Present() { _ = s.device.record(OpPresent, "") }
func (s *RecordingSurface) Discard() { _ = s.device.record(OpDiscard, "") }
