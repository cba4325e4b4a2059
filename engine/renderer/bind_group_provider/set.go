package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture_library"
)

// LayoutSource hands out the bind group layouts a pipeline was built with.
type LayoutSource interface {
	BindGroupLayout(group uint32) gpu.BindGroupLayout
}

// Binder is the part of a render or compute pass encoder that binds groups.
type Binder interface {
	SetBindGroup(index uint32, bg gpu.BindGroup)
}

// Set holds one provider per reflected group of a shader and routes variable names to them.
type Set struct {
	label     string
	providers []BindGroupProvider
	byVar     map[string]BindGroupProvider
}

// NewSet creates a provider for every group in desc. The options are applied to every provider;
// options naming a variable of another group have no effect on it.
//
// Parameters:
//   - label: debug label prefix
//   - desc: the reflected shader
//   - options: provider options
//
// Returns:
//   - *Set: the provider set
func NewSet(label string, desc *shader.Descriptor, options ...BindGroupProviderOption) *Set {
	s := &Set{label: label, byVar: make(map[string]BindGroupProvider)}
	for _, g := range desc.Groups {
		p := NewBindGroupProvider(fmt.Sprintf("%s/g%d", label, g.Index), g, options...)
		s.providers = append(s.providers, p)
		for _, b := range g.Bindings {
			s.byVar[b.Name] = p
		}
	}
	return s
}

// Providers returns the providers in ascending group order.
func (s *Set) Providers() []BindGroupProvider {
	return s.providers
}

// Provider returns the provider of group.
func (s *Set) Provider(group uint32) (BindGroupProvider, bool) {
	for _, p := range s.providers {
		if p.Group() == group {
			return p, true
		}
	}
	return nil, false
}

// Lookup returns the provider owning varName.
func (s *Set) Lookup(varName string) (BindGroupProvider, bool) {
	p, ok := s.byVar[varName]
	return p, ok
}

func (s *Set) owner(varName, member string) (BindGroupProvider, error) {
	p, ok := s.byVar[varName]
	if !ok {
		return nil, &WriteError{Provider: s.label, Binding: varName, Member: member, Err: ErrUnknownBinding}
	}
	return p, nil
}

// Init initializes every provider with the matching layout.
//
// Parameters:
//   - device: the allocating device
//   - layouts: the pipeline's bind group layouts
//
// Returns:
//   - error: error if a layout is missing or a buffer could not be allocated
func (s *Set) Init(device gpu.Device, layouts LayoutSource) error {
	for _, p := range s.providers {
		layout := layouts.BindGroupLayout(p.Group())
		if layout == nil {
			return fmt.Errorf("set %q: no layout for group %d", s.label, p.Group())
		}
		if err := p.Init(device, layout); err != nil {
			return err
		}
	}
	return nil
}

// Prepare prepares every provider and returns how many bind groups were rebuilt.
func (s *Set) Prepare(textures *texture_library.Library) (int, error) {
	rebuilt := 0
	for _, p := range s.providers {
		ok, err := p.Prepare(textures)
		if err != nil {
			return rebuilt, err
		}
		if ok {
			rebuilt++
		}
	}
	return rebuilt, nil
}

// Bind sets every prepared bind group on the pass at its group index.
func (s *Set) Bind(pass Binder) {
	for _, p := range s.providers {
		if bg := p.BindGroup(); bg != nil {
			pass.SetBindGroup(p.Group(), bg)
		}
	}
}

// WriteMember writes one member of the buffer binding varName.
func (s *Set) WriteMember(varName, member string, data []byte) error {
	p, err := s.owner(varName, member)
	if err != nil {
		return err
	}
	return p.WriteMember(varName, member, data)
}

// WriteBinding writes the whole buffer binding varName.
func (s *Set) WriteBinding(varName string, data []byte) error {
	p, err := s.owner(varName, "")
	if err != nil {
		return err
	}
	return p.WriteBinding(varName, data)
}

// BindTexture selects the texture library entry for the texture binding varName.
func (s *Set) BindTexture(varName, textureName string) error {
	p, err := s.owner(varName, "")
	if err != nil {
		return err
	}
	return p.BindTexture(varName, textureName)
}

// BindSampler selects the sampler for the sampler binding varName.
func (s *Set) BindSampler(varName, samplerName string) error {
	p, err := s.owner(varName, "")
	if err != nil {
		return err
	}
	return p.BindSampler(varName, samplerName)
}

// Has reports whether the shader declares varName.
func (s *Set) Has(varName string) bool {
	_, ok := s.byVar[varName]
	return ok
}

// Release releases every provider.
func (s *Set) Release() {
	for _, p := range s.providers {
		p.Release()
	}
}
