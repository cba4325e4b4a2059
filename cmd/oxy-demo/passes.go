package main

import (
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/system"
	"github.com/Carmen-Shannon/oxy-core/internal/config"
	"go.uber.org/zap"
)

// buildPasses assembles the frame: shadow map, geometry buffer, optional occlusion, deferred
// lighting, optional sky, forward geometry and the final resolve onto the surface.
func buildPasses(cfg config.RendererConfig, lib *shader.Library, logger *zap.Logger) []system.Pass {
	shadow := pass.DefaultShadowSettings()
	shadow.Resolution = cfg.ShadowMapSize
	shadow.HalfExtent = cfg.ShadowHalfExtent

	clearColor := gpu.Color{
		R: cfg.ClearColor[0],
		G: cfg.ClearColor[1],
		B: cfg.ClearColor[2],
		A: cfg.ClearColor[3],
	}
	fullscreen := func(name string, options ...pass.FullscreenPassBuilderOption) []pass.FullscreenPassBuilderOption {
		return append([]pass.FullscreenPassBuilderOption{
			pass.WithFullscreenShaderLibrary(lib),
			pass.WithFullscreenMaxLights(cfg.MaxLights),
			pass.WithFullscreenShadowSettings(shadow),
			pass.WithFullscreenPassLogger(logger.Named(name)),
		}, options...)
	}

	passes := []system.Pass{
		pass.NewShadowPass(
			pass.WithShadowShaderLibrary(lib),
			pass.WithShadowMapSettings(shadow),
			pass.WithShadowPassLogger(logger.Named("shadow")),
		),
		pass.NewGeometryPass(
			pass.WithShaderLibrary(lib),
			pass.WithClear(gpu.Color{}),
			pass.WithFrustumCulling(cfg.FrustumCulling),
			pass.WithMeshPassLogger(logger.Named("geometry")),
		),
	}
	if cfg.SSAOEnabled {
		passes = append(passes,
			pass.NewSSAOPass(fullscreen("ssao")...),
			pass.NewBlurPass(fullscreen("blur")...),
		)
	}
	passes = append(passes, pass.NewLightingPass(fullscreen("lighting", pass.WithClearColor(clearColor))...))
	if cfg.SkyboxEnabled {
		passes = append(passes, pass.NewSkyboxPass(
			pass.WithSkyboxShaderLibrary(lib),
			pass.WithSkyboxPassLogger(logger.Named("skybox")),
		))
	}
	passes = append(passes, pass.NewForwardPass(
		pass.WithShaderLibrary(lib),
		pass.WithMaxLights(cfg.MaxLights),
		pass.WithShadowSettings(shadow),
		pass.WithFrustumCulling(cfg.FrustumCulling),
		pass.WithMeshPassLogger(logger.Named("forward")),
	))

	if cfg.FXAAEnabled {
		return append(passes,
			pass.NewAntiAliasPass(fullscreen("fxaa")...),
			pass.NewBlitPass(pass.TargetLDR, fullscreen("blit")...),
		)
	}
	// Without FXAA the HDR target is tone mapped straight onto the surface.
	return append(passes, pass.NewFullscreenPass("blit", "tonemap", fullscreen("blit",
		pass.WithInput("source", pass.TargetHDR),
		pass.WithInputSampler("sourceSampler", pass.SamplerLinear),
		pass.WithClearColor(gpu.Color{A: 1}),
	)...))
}
