package bind_group_provider

import "github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithRuntimeArrayLength sizes the runtime-sized array of a storage binding for n elements.
//
// Parameters:
//   - varName: the WGSL variable name of the storage binding
//   - n: the element count the buffer must hold
//
// Returns:
//   - BindGroupProviderOption: a function that records the element count
func WithRuntimeArrayLength(varName string, n uint64) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.runtimeLengths[varName] = n
	}
}

// WithTexture binds a texture library name to a texture binding.
//
// Parameters:
//   - varName: the WGSL variable name of the texture binding
//   - textureName: the texture library name
//
// Returns:
//   - BindGroupProviderOption: a function that binds the texture
func WithTexture(varName, textureName string) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		if s, ok := p.byName[varName]; ok && s.binding.Type.IsTexture() {
			s.resource = textureName
		}
	}
}

// WithSampler binds a texture library sampler name to a sampler binding.
//
// Parameters:
//   - varName: the WGSL variable name of the sampler binding
//   - samplerName: the texture library sampler name
//
// Returns:
//   - BindGroupProviderOption: a function that binds the sampler
func WithSampler(varName, samplerName string) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		if s, ok := p.byName[varName]; ok && s.binding.Type.IsSampler() {
			s.resource = samplerName
		}
	}
}

// WithBufferUsage adds usage flags to every buffer the provider allocates, e.g. CopySrc for
// read back or Indirect for draw arguments.
//
// Parameters:
//   - usage: the additional usage bits
//
// Returns:
//   - BindGroupProviderOption: a function that adds the usage bits
func WithBufferUsage(usage gpu.BufferUsage) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.extraUsage |= usage
	}
}
