package system

import (
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture_library"
	"go.uber.org/zap"
)

// FrameInfo describes the frame being recorded.
type FrameInfo struct {
	Index         uint64
	DeltaTime     float32
	Width         int
	Height        int
	SurfaceView   gpu.TextureView
	SurfaceFormat gpu.TextureFormat
}

// RenderContext is handed to the create and prepare hooks of every pass. It is the only route
// to the device; the render hook receives a pass encoder instead.
type RenderContext struct {
	Device   gpu.Device
	Registry *ecs.Registry
	Textures *texture_library.Library
	Logger   *zap.Logger
	Frame    FrameInfo
}

// Pass is the lifecycle shared by render and compute passes.
type Pass interface {
	System

	// Create runs once per pass lifetime before any entity hook. Pipelines and render targets
	// that do not depend on a single entity are built here.
	//
	// Parameters:
	//   - ctx: the render context
	//
	// Returns:
	//   - error: error if a GPU object could not be created
	Create(ctx *RenderContext) error

	// OnCreate runs once when e first satisfies the filter.
	//
	// Parameters:
	//   - ctx: the render context
	//   - e: the entity
	//   - c: e's components in filter order
	//
	// Returns:
	//   - error: error if per-entity GPU objects could not be created
	OnCreate(ctx *RenderContext, e ecs.Entity, c Tuple) error

	// OnPrepare runs every frame for every filtered entity before any OnRender of the pass.
	// Uniform uploads and bind group rebuilds belong here.
	//
	// Parameters:
	//   - ctx: the render context
	//   - e: the entity
	//   - c: e's components in filter order
	//
	// Returns:
	//   - error: error if an upload or rebuild failed
	OnPrepare(ctx *RenderContext, e ecs.Entity, c Tuple) error
}

// RenderSystem records draw calls into a render pass.
type RenderSystem interface {
	Pass

	// BeginPass opens this pass's render pass on the frame encoder.
	//
	// Parameters:
	//   - ctx: the render context
	//   - encoder: the frame's single command encoder
	//
	// Returns:
	//   - gpu.RenderPassEncoder: the open pass
	//   - error: error if an attachment is missing
	BeginPass(ctx *RenderContext, encoder gpu.CommandEncoder) (gpu.RenderPassEncoder, error)

	// OnRender issues bind and draw calls for e. It must not create GPU objects.
	//
	// Parameters:
	//   - pass: the open render pass
	//   - e: the entity
	//   - c: e's components in filter order
	//
	// Returns:
	//   - error: error if e cannot be drawn
	OnRender(pass gpu.RenderPassEncoder, e ecs.Entity, c Tuple) error
}

// ComputeSystem records dispatches into a compute pass.
type ComputeSystem interface {
	Pass

	// OnDispatch issues bind and dispatch calls for e. It must not create GPU objects.
	//
	// Parameters:
	//   - pass: the open compute pass
	//   - e: the entity
	//   - c: e's components in filter order
	//
	// Returns:
	//   - error: error if e cannot be dispatched
	OnDispatch(pass gpu.ComputePassEncoder, e ecs.Entity, c Tuple) error
}
