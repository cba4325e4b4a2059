package pass

import (
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"go.uber.org/zap"
)

// MeshPassBuilderOption is a functional option used to configure a MeshPass during construction.
type MeshPassBuilderOption func(*MeshPass)

// WithShaderLibrary sets the library the pass looks shader components up in.
//
// Parameters:
//   - lib: the shader library
//
// Returns:
//   - MeshPassBuilderOption: a function that sets the library
func WithShaderLibrary(lib *shader.Library) MeshPassBuilderOption {
	return func(p *MeshPass) {
		p.shaders = lib
	}
}

// WithColorTargets replaces the color attachments of the pass.
//
// Parameters:
//   - targets: the attachments in attachment order
//
// Returns:
//   - MeshPassBuilderOption: a function that sets the attachments
func WithColorTargets(targets ...ColorTarget) MeshPassBuilderOption {
	return func(p *MeshPass) {
		p.colors = append([]ColorTarget(nil), targets...)
	}
}

// WithDepthTarget sets the depth attachment, "" for none.
//
// Parameters:
//   - name: the texture library name of the depth target
//   - format: the depth format
//
// Returns:
//   - MeshPassBuilderOption: a function that sets the depth attachment
func WithDepthTarget(name string, format gpu.TextureFormat) MeshPassBuilderOption {
	return func(p *MeshPass) {
		p.depth = name
		p.depthFormat = format
	}
}

// WithClear makes the pass clear its attachments to color and depth 1 instead of loading them.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - MeshPassBuilderOption: a function that enables clearing
func WithClear(color gpu.Color) MeshPassBuilderOption {
	return func(p *MeshPass) {
		p.clear = true
		p.clearColor = color
	}
}

// WithMaxLights sets the light buffer capacity.
func WithMaxLights(n int) MeshPassBuilderOption {
	return func(p *MeshPass) {
		if n > 0 {
			p.maxLights = n
		}
	}
}

// WithShadowSettings sets the projection the shadow uniform is computed with. It must match the
// shadow pass.
func WithShadowSettings(s ShadowSettings) MeshPassBuilderOption {
	return func(p *MeshPass) {
		p.shadow = s
	}
}

// WithFrustumCulling toggles culling against the active camera.
func WithFrustumCulling(enabled bool) MeshPassBuilderOption {
	return func(p *MeshPass) {
		p.culling = enabled
	}
}

// WithMeshPassLogger sets the pass logger.
func WithMeshPassLogger(logger *zap.Logger) MeshPassBuilderOption {
	return func(p *MeshPass) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// ShadowPassBuilderOption is a functional option used to configure a ShadowPass during construction.
type ShadowPassBuilderOption func(*ShadowPass)

// WithShadowShaderLibrary sets the library the depth-only shader is looked up in.
func WithShadowShaderLibrary(lib *shader.Library) ShadowPassBuilderOption {
	return func(p *ShadowPass) {
		p.shaders = lib
	}
}

// WithShadowShader overrides DefaultShadowShader.
func WithShadowShader(key string) ShadowPassBuilderOption {
	return func(p *ShadowPass) {
		if key != "" {
			p.shaderKey = key
		}
	}
}

// WithShadowMapSettings sets the shadow map resolution and light-space projection.
//
// Parameters:
//   - s: the settings; a zero Resolution keeps the default
//
// Returns:
//   - ShadowPassBuilderOption: a function that sets the projection
func WithShadowMapSettings(s ShadowSettings) ShadowPassBuilderOption {
	return func(p *ShadowPass) {
		if s.Resolution == 0 {
			s.Resolution = p.settings.Resolution
		}
		p.settings = s
	}
}

// WithShadowPassLogger sets the pass logger.
func WithShadowPassLogger(logger *zap.Logger) ShadowPassBuilderOption {
	return func(p *ShadowPass) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// FullscreenPassBuilderOption is a functional option used to configure a FullscreenPass during
// construction.
type FullscreenPassBuilderOption func(*FullscreenPass)

// WithFullscreenShaderLibrary sets the library the pass shader is looked up in.
func WithFullscreenShaderLibrary(lib *shader.Library) FullscreenPassBuilderOption {
	return func(p *FullscreenPass) {
		p.shaders = lib
	}
}

// WithOutput sets the color target the pass writes. TargetSurface writes the swapchain image in
// the surface format.
//
// Parameters:
//   - name: the texture library name, or TargetSurface
//   - format: the target format, ignored for TargetSurface
//
// Returns:
//   - FullscreenPassBuilderOption: a function that sets the output
func WithOutput(name string, format gpu.TextureFormat) FullscreenPassBuilderOption {
	return func(p *FullscreenPass) {
		p.output = ColorTarget{Name: name, Format: format}
	}
}

// WithInput binds a texture library name to a texture variable of the pass shader.
//
// Parameters:
//   - varName: the WGSL variable
//   - texture: the texture library name
//
// Returns:
//   - FullscreenPassBuilderOption: a function that binds the texture
func WithInput(varName, texture string) FullscreenPassBuilderOption {
	return func(p *FullscreenPass) {
		p.textures[varName] = texture
	}
}

// WithInputSampler binds a texture library sampler to a sampler variable of the pass shader.
func WithInputSampler(varName, sampler string) FullscreenPassBuilderOption {
	return func(p *FullscreenPass) {
		p.samplers[varName] = sampler
	}
}

// WithoutInput removes a default input, for shaders that do not declare it.
func WithoutInput(varName string) FullscreenPassBuilderOption {
	return func(p *FullscreenPass) {
		delete(p.textures, varName)
		delete(p.samplers, varName)
	}
}

// WithParams sets the hook writing pass specific uniforms during prepare.
func WithParams(fn ParamsWriter) FullscreenPassBuilderOption {
	return func(p *FullscreenPass) {
		p.params = fn
	}
}

// WithClearColor makes the pass clear its output instead of loading it.
func WithClearColor(color gpu.Color) FullscreenPassBuilderOption {
	return func(p *FullscreenPass) {
		p.clear = true
		p.clearColor = color
	}
}

// WithBlend enables alpha blending onto the loaded output.
func WithBlend(enabled bool) FullscreenPassBuilderOption {
	return func(p *FullscreenPass) {
		p.blend = enabled
	}
}

// WithFullscreenMaxLights sets the light buffer capacity.
func WithFullscreenMaxLights(n int) FullscreenPassBuilderOption {
	return func(p *FullscreenPass) {
		if n > 0 {
			p.maxLights = n
		}
	}
}

// WithFullscreenShadowSettings sets the projection the shadow uniform is computed with.
func WithFullscreenShadowSettings(s ShadowSettings) FullscreenPassBuilderOption {
	return func(p *FullscreenPass) {
		p.shadow = s
	}
}

// WithFullscreenPassLogger sets the pass logger.
func WithFullscreenPassLogger(logger *zap.Logger) FullscreenPassBuilderOption {
	return func(p *FullscreenPass) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// SkyboxPassBuilderOption is a functional option used to configure a SkyboxPass during construction.
type SkyboxPassBuilderOption func(*SkyboxPass)

// WithSkyboxShaderLibrary sets the library Skybox shader keys are looked up in.
func WithSkyboxShaderLibrary(lib *shader.Library) SkyboxPassBuilderOption {
	return func(p *SkyboxPass) {
		p.shaders = lib
	}
}

// WithSkyboxTargets sets the color and depth targets the sky is drawn behind.
func WithSkyboxTargets(color ColorTarget, depth string) SkyboxPassBuilderOption {
	return func(p *SkyboxPass) {
		p.output = color
		p.depth = depth
	}
}

// WithSkyboxPassLogger sets the pass logger.
func WithSkyboxPassLogger(logger *zap.Logger) SkyboxPassBuilderOption {
	return func(p *SkyboxPass) {
		if logger != nil {
			p.logger = logger
		}
	}
}
