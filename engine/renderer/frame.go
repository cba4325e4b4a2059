package renderer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
)

// Frame phases reported by FrameError.
const (
	PhaseAcquire = "acquire"
	PhaseCreate  = "create"
	PhasePrepare = "prepare"
	PhaseRender  = "render"
	PhaseSubmit  = "submit"
)

// ErrCreateDuringRender is reported when a pass creates a GPU object from its render hook.
var ErrCreateDuringRender = errors.New("renderer: GPU object created during render")

// FrameError identifies the pass, phase and, when known, the entity a frame failed in.
type FrameError struct {
	Pass   string
	Phase  string
	Entity ecs.Entity
	Err    error
}

func (e *FrameError) Error() string {
	switch {
	case e.Pass == "":
		return fmt.Sprintf("frame %s: %v", e.Phase, e.Err)
	case e.Entity != 0:
		return fmt.Sprintf("pass %q %s entity %v: %v", e.Pass, e.Phase, e.Entity, e.Err)
	default:
		return fmt.Sprintf("pass %q %s: %v", e.Pass, e.Phase, e.Err)
	}
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// PassStats counts the work one pass did in a frame.
type PassStats struct {
	Name       string
	Entities   int
	Created    int
	Forgotten  int
	Draws      int
	Dispatches int
	Duration   time.Duration
}

// FrameStats collects the per pass statistics of one frame in execution order.
type FrameStats struct {
	Index    uint64
	Passes   []PassStats
	Duration time.Duration
}

// Draws returns the total draw calls of the frame.
func (s FrameStats) Draws() int {
	n := 0
	for _, p := range s.Passes {
		n += p.Draws
	}
	return n
}

// guardedDevice rejects object creation while a pass records its render hook.
type guardedDevice struct {
	gpu.Device

	mu        sync.Mutex
	rendering string
	err       error
}

var _ gpu.Device = &guardedDevice{}

func (g *guardedDevice) lock(pass string) {
	g.mu.Lock()
	g.rendering = pass
	g.err = nil
	g.mu.Unlock()
}

func (g *guardedDevice) unlock() {
	g.mu.Lock()
	g.rendering = ""
	g.mu.Unlock()
}

func (g *guardedDevice) violation() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *guardedDevice) check(what string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rendering == "" {
		return nil
	}
	g.err = fmt.Errorf("%w: %s", ErrCreateDuringRender, what)
	return g.err
}

func (g *guardedDevice) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	if err := g.check("buffer " + desc.Label); err != nil {
		return nil, err
	}
	return g.Device.CreateBuffer(desc)
}

func (g *guardedDevice) CreateTexture(desc *gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := g.check("texture " + desc.Label); err != nil {
		return nil, err
	}
	return g.Device.CreateTexture(desc)
}

func (g *guardedDevice) CreateSampler(desc *gpu.SamplerDescriptor) (gpu.Sampler, error) {
	if err := g.check("sampler " + desc.Label); err != nil {
		return nil, err
	}
	return g.Device.CreateSampler(desc)
}

func (g *guardedDevice) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	if err := g.check("shader module " + desc.Label); err != nil {
		return nil, err
	}
	return g.Device.CreateShaderModule(desc)
}

func (g *guardedDevice) CreateBindGroupLayout(desc *gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	if err := g.check("bind group layout " + desc.Label); err != nil {
		return nil, err
	}
	return g.Device.CreateBindGroupLayout(desc)
}

func (g *guardedDevice) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if err := g.check("bind group " + desc.Label); err != nil {
		return nil, err
	}
	return g.Device.CreateBindGroup(desc)
}

func (g *guardedDevice) CreatePipelineLayout(desc *gpu.PipelineLayoutDescriptor) (gpu.PipelineLayout, error) {
	if err := g.check("pipeline layout " + desc.Label); err != nil {
		return nil, err
	}
	return g.Device.CreatePipelineLayout(desc)
}

func (g *guardedDevice) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if err := g.check("render pipeline " + desc.Label); err != nil {
		return nil, err
	}
	return g.Device.CreateRenderPipeline(desc)
}

func (g *guardedDevice) CreateComputePipeline(desc *gpu.ComputePipelineDescriptor) (gpu.ComputePipeline, error) {
	if err := g.check("compute pipeline " + desc.Label); err != nil {
		return nil, err
	}
	return g.Device.CreateComputePipeline(desc)
}

// countingRenderPass counts draw calls issued through it.
type countingRenderPass struct {
	gpu.RenderPassEncoder
	draws int
}

func (p *countingRenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.draws++
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *countingRenderPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.draws++
	p.RenderPassEncoder.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

type countingComputePass struct {
	gpu.ComputePassEncoder
	dispatches int
}

func (p *countingComputePass) DispatchWorkgroups(x, y, z uint32) {
	p.dispatches++
	p.ComputePassEncoder.DispatchWorkgroups(x, y, z)
}
