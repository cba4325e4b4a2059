package shader

import (
	"fmt"
	"maps"
	"sort"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
)

// Member is one field of a reflected buffer struct.
type Member struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
	Align  uint64
}

// Binding is one reflected @group/@binding resource declaration.
type Binding struct {
	// Name is the WGSL variable name.
	Name    string
	Group   uint32
	Binding uint32
	Type    gpu.BindingType
	// TypeName is the declared WGSL type with whitespace removed.
	TypeName string

	// Size is the exact buffer size for buffer bindings. For a runtime-sized array it is the size
	// with one element, which is also the minimum binding size.
	Size uint64
	// Members holds the struct members of a buffer binding in declaration order, or of the element
	// struct of an array binding.
	Members []Member
	// ElementStride is the array element stride of an array binding or a trailing runtime array.
	ElementStride uint64

	ViewDimension gpu.TextureViewDimension
	SampleType    gpu.TextureSampleType
	Multisampled  bool
	StorageFormat gpu.TextureFormat
	StorageAccess gpu.StorageTextureAccess

	Visibility gpu.ShaderStage
}

// RuntimeSized reports whether m is a runtime-sized array.
func (m Member) RuntimeSized() bool {
	_, count, ok := splitArrayType(m.Type)
	return ok && count == 0
}

// RuntimeSized reports whether the binding is a runtime-sized array or a struct ending in one.
func (b Binding) RuntimeSized() bool {
	if _, count, ok := splitArrayType(b.TypeName); ok {
		return count == 0
	}
	return len(b.Members) > 0 && b.Members[len(b.Members)-1].RuntimeSized()
}

// Member returns the member called name.
func (b Binding) Member(name string) (Member, bool) {
	for _, m := range b.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// LayoutEntry converts b into a bind group layout entry.
func (b Binding) LayoutEntry() gpu.BindGroupLayoutEntry {
	entry := gpu.BindGroupLayoutEntry{
		Binding:       b.Binding,
		Visibility:    b.Visibility,
		Type:          b.Type,
		ViewDimension: b.ViewDimension,
		SampleType:    b.SampleType,
		Multisampled:  b.Multisampled,
		StorageFormat: b.StorageFormat,
		StorageAccess: b.StorageAccess,
	}
	if b.Type.IsBuffer() {
		entry.MinBindingSize = b.Size
	}
	return entry
}

// Group is the ordered binding list of one bind group.
type Group struct {
	Index    uint32
	Bindings []Binding
}

// Attribute is one reflected vertex input.
type Attribute struct {
	Name     string
	Type     string
	Location uint32
	Format   gpu.VertexFormat
	Offset   uint64
	Size     uint64
}

// Descriptor is the typed reflection result of one WGSL source.
type Descriptor struct {
	// Bindings maps variable name to binding.
	Bindings map[string]Binding
	// Groups lists bind groups by ascending index, bindings by ascending binding index.
	Groups []Group
	// Attributes lists vertex inputs by ascending location.
	Attributes   []Attribute
	VertexStride uint64
	EntryPoints  map[gpu.ShaderStage]string
	// WorkgroupSize is [1,1,1] for shaders without a compute entry point.
	WorkgroupSize [3]uint32
}

// Binding returns the binding declared as name.
func (d *Descriptor) Binding(name string) (Binding, bool) {
	b, ok := d.Bindings[name]
	return b, ok
}

// Group returns the bind group with index i.
func (d *Descriptor) Group(i uint32) (Group, bool) {
	for _, g := range d.Groups {
		if g.Index == i {
			return g, true
		}
	}
	return Group{}, false
}

// Stages returns the union of stages that have an entry point.
func (d *Descriptor) Stages() gpu.ShaderStage {
	var s gpu.ShaderStage
	for stage := range d.EntryPoints {
		s |= stage
	}
	return s
}

// VertexBufferLayout returns the packed per-vertex buffer layout of the vertex inputs, and false
// when the shader has none.
func (d *Descriptor) VertexBufferLayout() (gpu.VertexBufferLayout, bool) {
	if len(d.Attributes) == 0 {
		return gpu.VertexBufferLayout{}, false
	}
	attrs := make([]gpu.VertexAttribute, len(d.Attributes))
	for i, a := range d.Attributes {
		attrs[i] = gpu.VertexAttribute{Format: a.Format, Offset: a.Offset, ShaderLocation: a.Location}
	}
	return gpu.VertexBufferLayout{
		ArrayStride: d.VertexStride,
		StepMode:    gpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

// LayoutEntries returns the layout entries of group i in binding order.
func (d *Descriptor) LayoutEntries(i uint32) []gpu.BindGroupLayoutEntry {
	g, ok := d.Group(i)
	if !ok {
		return nil
	}
	entries := make([]gpu.BindGroupLayoutEntry, len(g.Bindings))
	for j, b := range g.Bindings {
		entries[j] = b.LayoutEntry()
	}
	return entries
}

// groupBindings builds the ordered group list from a set of bindings.
func groupBindings(bindings map[string]Binding) []Group {
	byIndex := make(map[uint32][]Binding)
	for _, b := range bindings {
		byIndex[b.Group] = append(byIndex[b.Group], b)
	}

	groups := make([]Group, 0, len(byIndex))
	for idx, bs := range byIndex {
		sort.Slice(bs, func(i, j int) bool { return bs[i].Binding < bs[j].Binding })
		groups = append(groups, Group{Index: idx, Bindings: bs})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Index < groups[j].Index })
	return groups
}

// Merge combines the bindings of several stages into one descriptor. A binding declared by more
// than one descriptor must agree on name, group, binding and type; its visibility is the union.
// Attributes and the vertex stride come from the first descriptor that has them.
//
// Parameters:
//   - descs: the descriptors to combine, nil entries are skipped
//
// Returns:
//   - *Descriptor: the merged descriptor
//   - error: error wrapping ErrBindingConflict when two declarations disagree
func Merge(descs ...*Descriptor) (*Descriptor, error) {
	out := &Descriptor{
		Bindings:      make(map[string]Binding),
		EntryPoints:   make(map[gpu.ShaderStage]string),
		WorkgroupSize: [3]uint32{1, 1, 1},
	}
	slots := make(map[[2]uint32]string)

	for _, d := range descs {
		if d == nil {
			continue
		}
		for name, b := range d.Bindings {
			slot := [2]uint32{b.Group, b.Binding}
			if other, ok := slots[slot]; ok && other != name {
				return nil, fmt.Errorf("%w: @group(%d) @binding(%d) is %q and %q", ErrBindingConflict, b.Group, b.Binding, other, name)
			}
			existing, ok := out.Bindings[name]
			if !ok {
				slots[slot] = name
				out.Bindings[name] = b
				continue
			}
			if existing.Group != b.Group || existing.Binding != b.Binding || existing.Type != b.Type || existing.Size != b.Size {
				return nil, fmt.Errorf("%w: %q declared differently", ErrBindingConflict, name)
			}
			existing.Visibility |= b.Visibility
			out.Bindings[name] = existing
		}
		maps.Copy(out.EntryPoints, d.EntryPoints)
		if len(out.Attributes) == 0 && len(d.Attributes) > 0 {
			out.Attributes = d.Attributes
			out.VertexStride = d.VertexStride
		}
		if _, ok := d.EntryPoints[gpu.ShaderStageCompute]; ok {
			out.WorkgroupSize = d.WorkgroupSize
		}
	}

	out.Groups = groupBindings(out.Bindings)
	return out, nil
}
