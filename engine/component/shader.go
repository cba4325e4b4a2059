package component

import (
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

// ShaderBinding names a shader library entry and owns the buffers and bind groups derived from
// its reflection. Shader and Bindings are filled in by the pass that creates the entity.
type ShaderBinding struct {
	Key      string
	Shader   shader.Shader
	Bindings *bind_group_provider.Set
}

// Created reports whether the bindings exist.
func (s *ShaderBinding) Created() bool {
	return s.Bindings != nil
}

// Release frees the owned buffers and bind groups. The shader belongs to the library.
func (s *ShaderBinding) Release() {
	if s.Bindings != nil {
		s.Bindings.Release()
		s.Bindings = nil
	}
}

// ForwardShader draws an entity in the forward pass.
type ForwardShader struct {
	ShaderBinding
}

// DeferredShader draws an entity into the geometry buffer.
type DeferredShader struct {
	ShaderBinding
}

// Skybox draws a cube texture behind the scene.
type Skybox struct {
	ShaderBinding
	Texture   string
	Sampler   string
	Intensity float32
}
