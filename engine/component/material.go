package component

import (
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// Material owns the fixed-function state and the compiled pipeline of the entities using it.
// Pipeline is nil until the first pass drawing the entity compiles it.
type Material struct {
	Name  string
	State pipeline.State
	Color mgl32.Vec4
	// Textures maps WGSL texture variables to texture library names.
	Textures map[string]string
	// Samplers maps WGSL sampler variables to texture library sampler names.
	Samplers    map[string]string
	Transparent bool

	Pipeline pipeline.Pipeline
}

// NewMaterial returns an opaque white material with the given state options.
func NewMaterial(name string, options ...pipeline.StateOption) Material {
	return Material{
		Name:     name,
		State:    pipeline.NewState(options...),
		Color:    mgl32.Vec4{1, 1, 1, 1},
		Textures: make(map[string]string),
		Samplers: make(map[string]string),
	}
}

// BindingOptions turns the texture and sampler maps into provider options.
func (m *Material) BindingOptions() []bind_group_provider.BindGroupProviderOption {
	opts := make([]bind_group_provider.BindGroupProviderOption, 0, len(m.Textures)+len(m.Samplers))
	for v, name := range m.Textures {
		opts = append(opts, bind_group_provider.WithTexture(v, name))
	}
	for v, name := range m.Samplers {
		opts = append(opts, bind_group_provider.WithSampler(v, name))
	}
	return opts
}

// Release frees the compiled pipeline. The material can be compiled again afterwards.
func (m *Material) Release() {
	if m.Pipeline != nil {
		m.Pipeline.Release()
		m.Pipeline = nil
	}
}
