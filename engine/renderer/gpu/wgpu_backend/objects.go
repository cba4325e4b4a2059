package wgpu_backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

type buffer struct {
	raw   *wgpu.Buffer
	label string
	size  uint64
}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Size() uint64  { return b.size }

func (b *buffer) Release() {
	if b.raw != nil {
		b.raw.Release()
		b.raw = nil
	}
}

type texture struct {
	raw  *wgpu.Texture
	desc gpu.TextureDescriptor
}

func (t *texture) Label() string             { return t.desc.Label }
func (t *texture) Width() uint32             { return t.desc.Width }
func (t *texture) Height() uint32            { return t.desc.Height }
func (t *texture) Format() gpu.TextureFormat { return t.desc.Format }

func (t *texture) CreateView() (gpu.TextureView, error) {
	var desc *wgpu.TextureViewDescriptor
	if t.desc.Cube {
		desc = &wgpu.TextureViewDescriptor{
			Label:           t.desc.Label + " cube view",
			Format:          TextureFormat(t.desc.Format),
			Dimension:       wgpu.TextureViewDimensionCube,
			BaseMipLevel:    0,
			MipLevelCount:   max(t.desc.MipLevelCount, 1),
			BaseArrayLayer:  0,
			ArrayLayerCount: 6,
			Aspect:          wgpu.TextureAspectAll,
		}
	}
	v, err := t.raw.CreateView(desc)
	if err != nil {
		return nil, fmt.Errorf("wgpu: create view of %q: %w", t.desc.Label, err)
	}
	return &textureView{raw: v, format: t.desc.Format}, nil
}

func (t *texture) Release() {
	if t.raw != nil {
		t.raw.Release()
		t.raw = nil
	}
}

type textureView struct {
	raw    *wgpu.TextureView
	format gpu.TextureFormat
}

func (v *textureView) ViewFormat() gpu.TextureFormat { return v.format }

func (v *textureView) Release() {
	if v.raw != nil {
		v.raw.Release()
		v.raw = nil
	}
}

// handle wraps every GPU object that only needs releasing.
type handle[T interface{ Release() }] struct {
	raw      T
	released bool
}

func (h *handle[T]) Release() {
	if !h.released {
		h.raw.Release()
		h.released = true
	}
}

type sampler struct {
	handle[*wgpu.Sampler]
	compare gpu.CompareFunction
}

func (s *sampler) CompareFunction() gpu.CompareFunction { return s.compare }

type (
	shaderModule    = handle[*wgpu.ShaderModule]
	bindGroupLayout = handle[*wgpu.BindGroupLayout]
	bindGroup       = handle[*wgpu.BindGroup]
	pipelineLayout  = handle[*wgpu.PipelineLayout]
	renderPipeline  = handle[*wgpu.RenderPipeline]
	computePipeline = handle[*wgpu.ComputePipeline]
	commandBuffer   = handle[*wgpu.CommandBuffer]
)

// unwrap returns the wgpu object behind a handle created by this backend, the zero value for nil
// or foreign handles.
func unwrap[T interface{ Release() }](v any) T {
	var zero T
	h, ok := v.(*handle[T])
	if !ok || h == nil {
		return zero
	}
	return h.raw
}

func rawBuffer(b gpu.Buffer) *wgpu.Buffer {
	if wb, ok := b.(*buffer); ok && wb != nil {
		return wb.raw
	}
	return nil
}

func rawSampler(s gpu.Sampler) *wgpu.Sampler {
	if ws, ok := s.(*sampler); ok && ws != nil && !ws.released {
		return ws.raw
	}
	return nil
}

func rawView(v gpu.TextureView) *wgpu.TextureView {
	switch tv := v.(type) {
	case *textureView:
		if tv != nil {
			return tv.raw
		}
	case *surfaceView:
		if tv != nil {
			return tv.raw
		}
	}
	return nil
}
