package bind_group_provider

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture_library"
)

var (
	// ErrSizeMismatch is returned when uploaded bytes do not match the reflected size of their slot.
	ErrSizeMismatch = errors.New("bind_group_provider: size mismatch")

	// ErrUnknownBinding is returned for variable or member names the shader does not declare.
	ErrUnknownBinding = errors.New("bind_group_provider: unknown binding")

	// ErrUnbound is returned by Prepare when a texture or sampler binding has no resource name.
	ErrUnbound = errors.New("bind_group_provider: binding has no resource")

	// ErrNotInitialized is returned for writes before Init.
	ErrNotInitialized = errors.New("bind_group_provider: not initialized")
)

// WriteError names the provider, binding and member a rejected upload was aimed at.
type WriteError struct {
	Provider string
	Binding  string
	Member   string
	Want     uint64
	Got      uint64
	Err      error
}

func (e *WriteError) Error() string {
	target := e.Binding
	if e.Member != "" {
		target += "." + e.Member
	}
	if e.Err == ErrSizeMismatch {
		return fmt.Sprintf("provider %q: %s: %v: want %d bytes, got %d", e.Provider, target, e.Err, e.Want, e.Got)
	}
	return fmt.Sprintf("provider %q: %s: %v", e.Provider, target, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// slot is the live state of one binding.
type slot struct {
	binding shader.Binding

	buffer     gpu.Buffer
	bufferSize uint64
	// external buffers are owned by someone else and never released here.
	external bool

	resource string
	// bound is the view or sampler the current bind group was built with.
	bound        any
	boundVersion uint64
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string
	group uint32

	// slots are in ascending binding order.
	slots  []*slot
	byName map[string]*slot

	runtimeLengths map[string]uint64
	extraUsage     gpu.BufferUsage

	// The following fields are GPU allocated resources and must be released when no longer needed.
	device          gpu.Device
	bindGroupLayout gpu.BindGroupLayout
	bindGroup       gpu.BindGroup
	// dirty forces the next Prepare to rebuild the bind group.
	dirty bool
}

// BindGroupProvider owns the GPU resources of one bind group of one shader: exactly sized buffers
// for every buffer binding and the bind group itself. Texture and sampler bindings are resolved by
// name through the texture library.
//
// Usage pattern:
//  1. Create the provider from a reflected shader.Group
//  2. Init it once with the device and the group's layout (create phase)
//  3. Write uniform members and call Prepare every frame (prepare phase)
//  4. Set BindGroup on the pass (render phase)
type BindGroupProvider interface {
	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Group returns the bind group index the provider serves.
	//
	// Returns:
	//   - uint32: the group index
	Group() uint32

	// Bindings returns the reflected bindings of the group in binding order.
	//
	// Returns:
	//   - []shader.Binding: the bindings
	Bindings() []shader.Binding

	// Init allocates one buffer per buffer binding, sized exactly to the reflected block.
	// Calling Init again is a no-op.
	//
	// Parameters:
	//   - device: the device that allocates the buffers
	//   - layout: the bind group layout created for this group
	//
	// Returns:
	//   - error: error if a buffer could not be allocated
	Init(device gpu.Device, layout gpu.BindGroupLayout) error

	// BindTexture selects the texture library entry sampled by a texture binding.
	//
	// Parameters:
	//   - varName: the WGSL variable name of the texture binding
	//   - textureName: the texture library name
	//
	// Returns:
	//   - error: ErrUnknownBinding if varName is not a texture binding of this group
	BindTexture(varName, textureName string) error

	// BindSampler selects the texture library sampler used by a sampler binding.
	//
	// Parameters:
	//   - varName: the WGSL variable name of the sampler binding
	//   - samplerName: the texture library sampler name
	//
	// Returns:
	//   - error: ErrUnknownBinding if varName is not a sampler binding of this group
	BindSampler(varName, samplerName string) error

	// BindBuffer binds a buffer owned elsewhere to a buffer binding instead of allocating one.
	// It must be called before Init.
	//
	// Parameters:
	//   - varName: the WGSL variable name of the buffer binding
	//   - buf: the shared buffer, at least the reflected size
	//
	// Returns:
	//   - error: ErrUnknownBinding or ErrSizeMismatch
	BindBuffer(varName string, buf gpu.Buffer) error

	// WriteMember uploads data into one member of a buffer binding. The data length must equal
	// the reflected member size; a trailing runtime array accepts any whole number of elements
	// that fits the buffer.
	//
	// Parameters:
	//   - varName: the WGSL variable name of the buffer binding
	//   - member: the struct member name
	//   - data: the bytes to upload
	//
	// Returns:
	//   - error: *WriteError wrapping ErrSizeMismatch, ErrUnknownBinding or ErrNotInitialized
	WriteMember(varName, member string, data []byte) error

	// WriteBinding uploads a whole buffer binding. The data length must equal the buffer size,
	// except runtime-sized arrays which accept any length up to the buffer size.
	//
	// Parameters:
	//   - varName: the WGSL variable name of the buffer binding
	//   - data: the bytes to upload
	//
	// Returns:
	//   - error: *WriteError wrapping ErrSizeMismatch, ErrUnknownBinding or ErrNotInitialized
	WriteBinding(varName string, data []byte) error

	// Prepare resolves texture and sampler names and rebuilds the bind group only when one of
	// them changed since the last build.
	//
	// Parameters:
	//   - textures: the library holding the named resources, may be nil for buffer-only groups
	//
	// Returns:
	//   - bool: true if the bind group was (re)created
	//   - error: error if a name is unbound or unregistered or the device failed
	Prepare(textures *texture_library.Library) (bool, error)

	// BindGroup returns the bind group built by the last Prepare, or nil.
	//
	// Returns:
	//   - gpu.BindGroup: the bind group or nil
	BindGroup() gpu.BindGroup

	// BindGroupLayout returns the layout passed to Init, or nil.
	//
	// Returns:
	//   - gpu.BindGroupLayout: the layout or nil
	BindGroupLayout() gpu.BindGroupLayout

	// Buffer returns the buffer backing varName, or nil.
	//
	// Parameters:
	//   - varName: the WGSL variable name
	//
	// Returns:
	//   - gpu.Buffer: the buffer or nil
	Buffer(varName string) gpu.Buffer

	// Release releases the buffers the provider allocated and its bind group. The layout belongs
	// to the pipeline and is not released.
	Release()
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a provider for one reflected group.
//
// Parameters:
//   - label: debug label, used as the prefix of every GPU object label
//   - group: the reflected group
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, group shader.Group, options ...BindGroupProviderOption) BindGroupProvider {
	if len(group.Bindings) == 0 {
		panic(fmt.Sprintf("bind_group_provider: %s group %d has no bindings", label, group.Index))
	}
	p := &bindGroupProvider{
		label:          label,
		group:          group.Index,
		byName:         make(map[string]*slot, len(group.Bindings)),
		runtimeLengths: make(map[string]uint64),
		dirty:          true,
	}
	for _, b := range group.Bindings {
		s := &slot{binding: b}
		p.slots = append(p.slots, s)
		p.byName[b.Name] = s
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() uint32 {
	return p.group
}

func (p *bindGroupProvider) Bindings() []shader.Binding {
	out := make([]shader.Binding, len(p.slots))
	for i, s := range p.slots {
		out[i] = s.binding
	}
	return out
}

// bufferSize is the allocation size of a buffer binding. Runtime arrays are sized for the
// configured element count.
func (p *bindGroupProvider) bufferSize(b shader.Binding) uint64 {
	n, ok := p.runtimeLengths[b.Name]
	if !ok || n <= 1 || !b.RuntimeSized() {
		return b.Size
	}
	return b.Size + (n-1)*b.ElementStride
}

func (p *bindGroupProvider) Init(device gpu.Device, layout gpu.BindGroupLayout) error {
	if p.device != nil {
		return nil
	}
	if device == nil || layout == nil {
		return fmt.Errorf("provider %q: device and layout are required", p.label)
	}

	for _, s := range p.slots {
		b := s.binding
		if !b.Type.IsBuffer() || s.external {
			continue
		}
		usage := gpu.BufferUsageCopyDst | p.extraUsage
		if b.Type == gpu.BindingTypeUniformBuffer {
			usage |= gpu.BufferUsageUniform
		} else {
			usage |= gpu.BufferUsageStorage
		}
		size := p.bufferSize(b)
		buf, err := device.CreateBuffer(&gpu.BufferDescriptor{
			Label: fmt.Sprintf("%s/%s", p.label, b.Name),
			Size:  size,
			Usage: usage,
		})
		if err != nil {
			p.releaseBuffers()
			return fmt.Errorf("provider %q: binding %q: create buffer: %w", p.label, b.Name, err)
		}
		s.buffer = buf
		s.bufferSize = size
	}

	p.device = device
	p.bindGroupLayout = layout
	p.dirty = true
	return nil
}

func (p *bindGroupProvider) lookup(varName string, want func(gpu.BindingType) bool) (*slot, error) {
	s, ok := p.byName[varName]
	if !ok || !want(s.binding.Type) {
		return nil, &WriteError{Provider: p.label, Binding: varName, Err: ErrUnknownBinding}
	}
	return s, nil
}

func (p *bindGroupProvider) BindTexture(varName, textureName string) error {
	s, err := p.lookup(varName, gpu.BindingType.IsTexture)
	if err != nil {
		return err
	}
	if s.resource != textureName {
		s.resource = textureName
		p.dirty = true
	}
	return nil
}

func (p *bindGroupProvider) BindSampler(varName, samplerName string) error {
	s, err := p.lookup(varName, gpu.BindingType.IsSampler)
	if err != nil {
		return err
	}
	if s.resource != samplerName {
		s.resource = samplerName
		p.dirty = true
	}
	return nil
}

func (p *bindGroupProvider) BindBuffer(varName string, buf gpu.Buffer) error {
	s, err := p.lookup(varName, gpu.BindingType.IsBuffer)
	if err != nil {
		return err
	}
	if buf.Size() < s.binding.Size {
		return &WriteError{Provider: p.label, Binding: varName, Want: s.binding.Size, Got: buf.Size(), Err: ErrSizeMismatch}
	}
	if s.buffer != nil && !s.external {
		s.buffer.Release()
	}
	s.buffer = buf
	s.bufferSize = buf.Size()
	s.external = true
	p.dirty = true
	return nil
}

func (p *bindGroupProvider) writableSlot(varName, member string) (*slot, error) {
	s, ok := p.byName[varName]
	if !ok || !s.binding.Type.IsBuffer() {
		return nil, &WriteError{Provider: p.label, Binding: varName, Member: member, Err: ErrUnknownBinding}
	}
	if s.buffer == nil || p.device == nil {
		return nil, &WriteError{Provider: p.label, Binding: varName, Member: member, Err: ErrNotInitialized}
	}
	return s, nil
}

func (p *bindGroupProvider) WriteMember(varName, member string, data []byte) error {
	s, err := p.writableSlot(varName, member)
	if err != nil {
		return err
	}
	m, ok := s.binding.Member(member)
	if !ok {
		return &WriteError{Provider: p.label, Binding: varName, Member: member, Err: ErrUnknownBinding}
	}

	got := uint64(len(data))
	if m.RuntimeSized() {
		if got == 0 || got%m.Size != 0 || m.Offset+got > s.bufferSize {
			return &WriteError{Provider: p.label, Binding: varName, Member: member, Want: s.bufferSize - m.Offset, Got: got, Err: ErrSizeMismatch}
		}
	} else if got != m.Size {
		return &WriteError{Provider: p.label, Binding: varName, Member: member, Want: m.Size, Got: got, Err: ErrSizeMismatch}
	}

	if err := p.device.Queue().WriteBuffer(s.buffer, m.Offset, data); err != nil {
		return fmt.Errorf("provider %q: write %s.%s: %w", p.label, varName, member, err)
	}
	return nil
}

func (p *bindGroupProvider) WriteBinding(varName string, data []byte) error {
	s, err := p.writableSlot(varName, "")
	if err != nil {
		return err
	}

	got := uint64(len(data))
	if s.binding.RuntimeSized() {
		if got == 0 || got > s.bufferSize {
			return &WriteError{Provider: p.label, Binding: varName, Want: s.bufferSize, Got: got, Err: ErrSizeMismatch}
		}
	} else if got != s.binding.Size {
		return &WriteError{Provider: p.label, Binding: varName, Want: s.binding.Size, Got: got, Err: ErrSizeMismatch}
	}

	if err := p.device.Queue().WriteBuffer(s.buffer, 0, data); err != nil {
		return fmt.Errorf("provider %q: write %s: %w", p.label, varName, err)
	}
	return nil
}

// resolve looks up the current handle of a texture or sampler slot.
func (p *bindGroupProvider) resolve(s *slot, textures *texture_library.Library) (any, uint64, error) {
	if s.resource == "" {
		return nil, 0, fmt.Errorf("provider %q: binding %q: %w", p.label, s.binding.Name, ErrUnbound)
	}
	if textures == nil {
		return nil, 0, fmt.Errorf("provider %q: binding %q needs a texture library", p.label, s.binding.Name)
	}
	if s.binding.Type.IsSampler() {
		smp, err := textures.Sampler(s.resource)
		if err != nil {
			return nil, 0, fmt.Errorf("provider %q: binding %q: %w", p.label, s.binding.Name, err)
		}
		return smp, 0, nil
	}
	view, version, err := textures.View(s.resource)
	if err != nil {
		return nil, 0, fmt.Errorf("provider %q: binding %q: %w", p.label, s.binding.Name, err)
	}
	return view, version, nil
}

func (p *bindGroupProvider) Prepare(textures *texture_library.Library) (bool, error) {
	if p.device == nil {
		return false, fmt.Errorf("provider %q: %w", p.label, ErrNotInitialized)
	}

	handles := make([]any, len(p.slots))
	versions := make([]uint64, len(p.slots))
	changed := p.dirty || p.bindGroup == nil
	for i, s := range p.slots {
		if s.binding.Type.IsBuffer() {
			continue
		}
		h, v, err := p.resolve(s, textures)
		if err != nil {
			return false, err
		}
		handles[i], versions[i] = h, v
		if h != s.bound || v != s.boundVersion {
			changed = true
		}
	}
	if !changed {
		return false, nil
	}

	entries := make([]gpu.BindGroupEntry, len(p.slots))
	for i, s := range p.slots {
		entry := gpu.BindGroupEntry{Binding: s.binding.Binding}
		switch {
		case s.binding.Type.IsBuffer():
			entry.Buffer = s.buffer
			entry.Size = s.bufferSize
		case s.binding.Type.IsSampler():
			entry.Sampler, _ = handles[i].(gpu.Sampler)
		default:
			entry.TextureView, _ = handles[i].(gpu.TextureView)
		}
		entries[i] = entry
	}

	bg, err := p.device.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:   p.label,
		Layout:  p.bindGroupLayout,
		Entries: entries,
	})
	if err != nil {
		return false, fmt.Errorf("provider %q: create bind group: %w", p.label, err)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	for i, s := range p.slots {
		s.bound, s.boundVersion = handles[i], versions[i]
	}
	p.dirty = false
	return true, nil
}

func (p *bindGroupProvider) BindGroup() gpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() gpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(varName string) gpu.Buffer {
	if s, ok := p.byName[varName]; ok {
		return s.buffer
	}
	return nil
}

func (p *bindGroupProvider) releaseBuffers() {
	for _, s := range p.slots {
		if s.buffer != nil && !s.external {
			s.buffer.Release()
			s.buffer = nil
		}
	}
}

func (p *bindGroupProvider) Release() {
	p.releaseBuffers()
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for _, s := range p.slots {
		s.bound = nil
	}
	p.bindGroupLayout = nil
	p.device = nil
	p.dirty = true
}
