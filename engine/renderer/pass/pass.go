// Package pass holds the render passes the demo renderer is assembled from: mesh passes that draw
// every entity matching their filter and fullscreen passes that draw one triangle per frame.
//
// Passes share nothing but the texture library. A pass names the targets it renders into and the
// textures it samples; the order the passes are added to the renderer decides which pass produces a
// target before another samples it.
package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/component"
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/system"
	"github.com/go-gl/mathgl/mgl32"
)

// Texture library names of the targets the built-in passes produce.
const (
	TargetShadowMap       = "shadow_map"
	TargetGBufferAlbedo   = "gbuffer_albedo"
	TargetGBufferNormal   = "gbuffer_normal"
	TargetGBufferPosition = "gbuffer_position"
	TargetDepth           = "depth"
	TargetSSAO            = "ssao"
	TargetSSAOBlur        = "ssao_blur"
	TargetHDR             = "hdr"
	TargetLDR             = "ldr"

	// TargetSurface stands for the swapchain image of the frame.
	TargetSurface = ""
)

// Sampler names registered by every pass on Create.
const (
	SamplerLinear  = "linear"
	SamplerNearest = "nearest"
	SamplerShadow  = "shadow"
)

// WGSL variable names the passes fill in when a shader declares them.
const (
	VarCamera        = "camera"
	VarModel         = "model"
	VarLights        = "lights"
	VarShadow        = "shadow"
	VarShadowMap     = "shadowMap"
	VarShadowSampler = "shadowSampler"
	VarParams        = "params"
)

// Include names RegisterIncludes registers, one per uniform layout the passes upload.
const (
	IncludeCamera = "camera"
	IncludeModel  = "model"
	IncludeLights = "lights"
	IncludeShadow = "shadow"
	IncludeVertex = "vertex"
)

// LightBufferSource is the storage layout of VarLights.
const LightBufferSource = `struct LightBuffer {
	header: LightHeader,
	items: array<Light>,
}`

// RegisterIncludes registers the WGSL definitions of every uniform the passes upload, so pass
// shaders can #include them instead of repeating the layouts.
//
// Parameters:
//   - pp: the pre-processor of the shader library the passes draw with
func RegisterIncludes(pp shader.PreProcessor) {
	pp.Register(IncludeCamera, component.GPUCameraUniformSource)
	pp.Register(IncludeModel, component.GPUModelUniformSource)
	pp.Register(IncludeLights, component.GPULightSource+"\n\n"+LightBufferSource)
	pp.Register(IncludeShadow, component.GPUShadowUniformSource)
	pp.Register(IncludeVertex, component.GPUVertexSource)
}

const (
	// DefaultMaxLights is the light buffer capacity of passes that upload lights.
	DefaultMaxLights = 16

	memberHeader = "header"
	memberItems  = "items"
)

var defaultSamplers = map[string]gpu.SamplerDescriptor{
	SamplerLinear: {
		Label:        SamplerLinear,
		AddressModeU: gpu.AddressModeClampToEdge,
		AddressModeV: gpu.AddressModeClampToEdge,
		AddressModeW: gpu.AddressModeClampToEdge,
		MagFilter:    gpu.FilterModeLinear,
		MinFilter:    gpu.FilterModeLinear,
	},
	SamplerNearest: {
		Label:        SamplerNearest,
		AddressModeU: gpu.AddressModeClampToEdge,
		AddressModeV: gpu.AddressModeClampToEdge,
		AddressModeW: gpu.AddressModeClampToEdge,
		MagFilter:    gpu.FilterModeNearest,
		MinFilter:    gpu.FilterModeNearest,
	},
	SamplerShadow: {
		Label:        SamplerShadow,
		AddressModeU: gpu.AddressModeClampToEdge,
		AddressModeV: gpu.AddressModeClampToEdge,
		AddressModeW: gpu.AddressModeClampToEdge,
		MagFilter:    gpu.FilterModeLinear,
		MinFilter:    gpu.FilterModeLinear,
		Compare:      gpu.CompareFunctionLessEqual,
	},
}

// ensureSamplers registers the default samplers that are not registered yet.
func ensureSamplers(ctx *system.RenderContext) error {
	for _, name := range []string{SamplerLinear, SamplerNearest, SamplerShadow} {
		if _, err := ctx.Textures.Sampler(name); err == nil {
			continue
		}
		if err := ctx.Textures.AddSampler(name, defaultSamplers[name]); err != nil {
			return err
		}
	}
	return nil
}

// ensureTarget creates a screen-sized render target unless name is already registered.
func ensureTarget(ctx *system.RenderContext, name string, format gpu.TextureFormat) error {
	if name == TargetSurface || ctx.Textures.Has(name) {
		return nil
	}
	return ctx.Textures.CreateRenderTarget(name, format, uint32(ctx.Frame.Width), uint32(ctx.Frame.Height), true)
}

// ensureInput registers a 1x1 placeholder for a sampled texture no pass produces, so a disabled
// producer leaves a neutral input behind: white for color, far depth for depth.
func ensureInput(ctx *system.RenderContext, desc *shader.Descriptor, varName, texture string) error {
	if ctx.Textures.Has(texture) {
		return nil
	}
	b, ok := desc.Binding(varName)
	if !ok {
		return fmt.Errorf("texture variable %q is not declared", varName)
	}
	if b.Type == gpu.BindingTypeDepthTexture {
		return ctx.Textures.CreateRenderTarget(texture, gpu.TextureFormatDepth32Float, 1, 1, false)
	}
	_, err := ctx.Textures.LoadPixels(texture, 1, 1, gpu.TextureFormatRGBA8Unorm, []byte{255, 255, 255, 255})
	return err
}

// view resolves a target name, TargetSurface being the frame's swapchain image.
func view(ctx *system.RenderContext, name string) (gpu.TextureView, error) {
	if name == TargetSurface {
		if ctx.Frame.SurfaceView == nil {
			return nil, fmt.Errorf("no surface view")
		}
		return ctx.Frame.SurfaceView, nil
	}
	v, _, err := ctx.Textures.View(name)
	return v, err
}

// ActiveCamera returns the first active camera in entity creation order.
//
// Parameters:
//   - reg: the registry to search
//
// Returns:
//   - *component.Camera: the camera, valid until the next change to the Camera table
//   - bool: whether an active camera exists
func ActiveCamera(reg *ecs.Registry) (*component.Camera, bool) {
	for _, e := range reg.Entities() {
		if c, ok := ecs.Get[component.Camera](reg, e); ok && c.Active {
			return c, true
		}
	}
	return nil, false
}

// CollectLights packs up to limit lights in entity creation order. Point and spot lights take
// their position from the entity's Transform.
//
// Parameters:
//   - reg: the registry to search
//   - limit: the maximum number of lights, zero for no limit
//
// Returns:
//   - []component.GPULight: the packed lights
func CollectLights(reg *ecs.Registry, limit int) []component.GPULight {
	var out []component.GPULight
	for _, e := range reg.Entities() {
		l, ok := ecs.Get[component.Light](reg, e)
		if !ok {
			continue
		}
		var pos mgl32.Vec3
		if t, ok := ecs.Get[component.Transform](reg, e); ok {
			pos = t.Position
		}
		out = append(out, l.GPU(pos))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// ShadowCaster returns the first directional light with CastsShadows set.
func ShadowCaster(reg *ecs.Registry) (component.Light, bool) {
	for _, e := range reg.Entities() {
		l, ok := ecs.Get[component.Light](reg, e)
		if ok && l.CastsShadows && l.Type == component.LightTypeDirectional {
			return *l, true
		}
	}
	return component.Light{}, false
}

// ShadowSettings is the light-space projection shared by the shadow pass and the passes
// sampling its map.
type ShadowSettings struct {
	Resolution uint32
	HalfExtent float32
	Near       float32
	Far        float32
	Bias       float32
}

// DefaultShadowSettings returns the component package's shadow defaults.
func DefaultShadowSettings() ShadowSettings {
	return ShadowSettings{
		Resolution: component.ShadowMapResolution,
		HalfExtent: component.DefaultShadowHalfExtent,
		Near:       component.DefaultShadowNear,
		Far:        component.DefaultShadowFar,
		Bias:       component.DefaultShadowBias,
	}
}

// ShadowUniform returns the shadow uniform of the scene, disabled when no light casts shadows.
// The projection is centered on the active camera's target.
//
// Parameters:
//   - reg: the registry to search
//   - s: the projection settings
//
// Returns:
//   - component.GPUShadowUniform: the uniform
func ShadowUniform(reg *ecs.Registry, s ShadowSettings) component.GPUShadowUniform {
	light, ok := ShadowCaster(reg)
	if !ok {
		return component.GPUShadowUniform{LightViewProj: mgl32.Ident4()}
	}
	var center mgl32.Vec3
	if cam, ok := ActiveCamera(reg); ok {
		center = cam.Target
	}
	texel := float32(1) / float32(max(s.Resolution, 1))
	return component.GPUShadowUniform{
		LightViewProj: light.ShadowViewProjection(center, s.HalfExtent, s.Near, s.Far),
		Bias:          s.Bias,
		NormalBias:    texel * component.DefaultShadowNormalBiasScale,
		TexelSize:     texel,
		Enabled:       1,
	}
}

// sceneData is the per-frame state every entity of a pass uploads, serialized once per frame.
type sceneData struct {
	frame uint64
	valid bool

	camera    component.Camera
	hasCamera bool

	cameraBytes []byte
	lightHeader []byte
	lightItems  []byte
	shadowBytes []byte
}

// ambient is the light added to every surface regardless of the scene lights.
var ambient = mgl32.Vec3{0.03, 0.03, 0.03}

// capture serializes the scene uniforms of ctx's frame. Repeated calls within one frame are free.
func (s *sceneData) capture(ctx *system.RenderContext, maxLights int, shadow ShadowSettings) {
	if s.valid && s.frame == ctx.Frame.Index {
		return
	}
	s.frame, s.valid = ctx.Frame.Index, true

	s.hasCamera = false
	s.cameraBytes = nil
	if cam, ok := ActiveCamera(ctx.Registry); ok {
		s.camera, s.hasCamera = *cam, true
		s.cameraBytes = cam.Uniform().Marshal()
	}

	lights := CollectLights(ctx.Registry, maxLights)
	s.lightHeader = component.GPULightHeader{Ambient: ambient, Count: uint32(len(lights))}.Marshal()
	s.lightItems = component.MarshalLights(lights)
	s.shadowBytes = ShadowUniform(ctx.Registry, shadow).Marshal()
}

// write uploads the scene uniforms set declares. A missing camera skips the camera upload.
func (s *sceneData) write(set *bind_group_provider.Set) error {
	if set.Has(VarCamera) && s.cameraBytes != nil {
		if err := set.WriteBinding(VarCamera, s.cameraBytes); err != nil {
			return err
		}
	}
	if set.Has(VarLights) {
		if err := set.WriteMember(VarLights, memberHeader, s.lightHeader); err != nil {
			return err
		}
		if len(s.lightItems) > 0 {
			if err := set.WriteMember(VarLights, memberItems, s.lightItems); err != nil {
				return err
			}
		}
	}
	if set.Has(VarShadow) {
		if err := set.WriteBinding(VarShadow, s.shadowBytes); err != nil {
			return err
		}
	}
	return nil
}

// bindShadowMap points the shadow map variables of set at the shadow pass outputs, unless
// they are already bound.
func bindShadowMap(set *bind_group_provider.Set, bound map[string]string) error {
	if set.Has(VarShadowMap) && bound[VarShadowMap] == "" {
		if err := set.BindTexture(VarShadowMap, TargetShadowMap); err != nil {
			return err
		}
	}
	if set.Has(VarShadowSampler) && bound[VarShadowSampler] == "" {
		if err := set.BindSampler(VarShadowSampler, SamplerShadow); err != nil {
			return err
		}
	}
	return nil
}

type releaser interface {
	Release()
}

// owned collects the GPU objects a pass created and releases them in reverse order.
type owned []releaser

func (o *owned) add(r releaser) {
	*o = append(*o, r)
}

func (o *owned) release() {
	for i := len(*o) - 1; i >= 0; i-- {
		(*o)[i].Release()
	}
	*o = nil
}
