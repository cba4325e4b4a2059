package renderer

import (
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture_library"
	"github.com/Carmen-Shannon/oxy-core/engine/system"
	"go.uber.org/zap"
)

// rendererConfig holds construction-only settings that are applied after the renderer exists.
type rendererConfig struct {
	passes []system.Pass
}

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer, *rendererConfig)

// WithPass appends a single pass to the renderer's pass order.
//
// Parameters:
//   - p: the render or compute pass
//
// Returns:
//   - RendererBuilderOption: a function that applies the pass option to a renderer
func WithPass(p system.Pass) RendererBuilderOption {
	return func(_ *renderer, cfg *rendererConfig) {
		cfg.passes = append(cfg.passes, p)
	}
}

// WithPasses appends passes in the given order.
//
// Parameters:
//   - passes: the ordered passes
//
// Returns:
//   - RendererBuilderOption: a function that applies the passes option to a renderer
func WithPasses(passes ...system.Pass) RendererBuilderOption {
	return func(_ *renderer, cfg *rendererConfig) {
		cfg.passes = append(cfg.passes, passes...)
	}
}

// WithSize sets the initial surface size in pixels. The default is 1280x720.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithSize(width, height int) RendererBuilderOption {
	return func(r *renderer, _ *rendererConfig) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

// WithLogger sets the logger handed to passes through the render context.
func WithLogger(logger *zap.Logger) RendererBuilderOption {
	return func(r *renderer, _ *rendererConfig) {
		if logger != nil {
			r.logger = logger.Named("renderer")
		}
	}
}

// WithTextureLibrary shares an existing texture library instead of creating one. The library must
// be bound to the same device as the renderer.
//
// Parameters:
//   - lib: the texture library
//
// Returns:
//   - RendererBuilderOption: a function that applies the texture library option to a renderer
func WithTextureLibrary(lib *texture_library.Library) RendererBuilderOption {
	return func(r *renderer, _ *rendererConfig) {
		r.textures = lib
	}
}
