package component

import (
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is indexed triangle geometry. The GPU buffers are owned by the component and created by
// the first pass that draws it.
type Mesh struct {
	Name     string
	Vertices []GPUVertex
	Indices  []uint32

	VertexBuffer gpu.Buffer
	IndexBuffer  gpu.Buffer
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Uploaded reports whether the GPU buffers exist.
func (m *Mesh) Uploaded() bool {
	return m.VertexBuffer != nil
}

// Upload creates and fills the vertex and index buffers. It is a no-op once uploaded.
//
// Parameters:
//   - device: the allocating device
//
// Returns:
//   - error: error if the mesh is empty or a buffer could not be created or written
func (m *Mesh) Upload(device gpu.Device) error {
	if m.Uploaded() {
		return nil
	}
	if len(m.Vertices) == 0 {
		return fmt.Errorf("mesh %q: no vertices", m.Name)
	}

	data := make([]byte, 0, len(m.Vertices)*GPUVertexSize)
	for _, v := range m.Vertices {
		data = append(data, v.Marshal()...)
	}
	vb, err := device.CreateBuffer(&gpu.BufferDescriptor{
		Label: m.Name + "/vertices",
		Size:  uint64(len(data)),
		Usage: gpu.BufferUsageVertex | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("mesh %q: create vertex buffer: %w", m.Name, err)
	}
	if err := device.Queue().WriteBuffer(vb, 0, data); err != nil {
		vb.Release()
		return fmt.Errorf("mesh %q: write vertex buffer: %w", m.Name, err)
	}

	if len(m.Indices) > 0 {
		idx := make([]byte, len(m.Indices)*4)
		for i, v := range m.Indices {
			binary.LittleEndian.PutUint32(idx[i*4:], v)
		}
		ib, err := device.CreateBuffer(&gpu.BufferDescriptor{
			Label: m.Name + "/indices",
			Size:  uint64(len(idx)),
			Usage: gpu.BufferUsageIndex | gpu.BufferUsageCopyDst,
		})
		if err != nil {
			vb.Release()
			return fmt.Errorf("mesh %q: create index buffer: %w", m.Name, err)
		}
		if err := device.Queue().WriteBuffer(ib, 0, idx); err != nil {
			vb.Release()
			ib.Release()
			return fmt.Errorf("mesh %q: write index buffer: %w", m.Name, err)
		}
		m.IndexBuffer = ib
	}
	m.VertexBuffer = vb
	return nil
}

// Draw binds the buffers at slot 0 and issues one indexed or non-indexed draw.
func (m *Mesh) Draw(pass gpu.RenderPassEncoder, instances uint32) {
	pass.SetVertexBuffer(0, m.VertexBuffer)
	if m.IndexBuffer != nil {
		pass.SetIndexBuffer(m.IndexBuffer, gpu.IndexFormatUint32)
		pass.DrawIndexed(uint32(len(m.Indices)), instances, 0, 0, 0)
		return
	}
	pass.Draw(uint32(len(m.Vertices)), instances, 0, 0)
}

// BoundingRadius returns the distance of the farthest vertex from the local origin.
func (m *Mesh) BoundingRadius() float32 {
	var maxLen float32
	for _, v := range m.Vertices {
		if l := v.Position.Len(); l > maxLen {
			maxLen = l
		}
	}
	return maxLen
}

// Release frees the GPU buffers.
func (m *Mesh) Release() {
	if m.VertexBuffer != nil {
		m.VertexBuffer.Release()
		m.VertexBuffer = nil
	}
	if m.IndexBuffer != nil {
		m.IndexBuffer.Release()
		m.IndexBuffer = nil
	}
}

// NewTriangle returns a single counter-clockwise triangle in the XY plane.
func NewTriangle(name string) Mesh {
	n := mgl32.Vec3{0, 0, 1}
	return Mesh{
		Name: name,
		Vertices: []GPUVertex{
			{Position: mgl32.Vec3{-0.5, -0.5, 0}, Normal: n, TexCoord: mgl32.Vec2{0, 1}},
			{Position: mgl32.Vec3{0.5, -0.5, 0}, Normal: n, TexCoord: mgl32.Vec2{1, 1}},
			{Position: mgl32.Vec3{0, 0.5, 0}, Normal: n, TexCoord: mgl32.Vec2{0.5, 0}},
		},
	}
}

// NewPlane returns a size x size quad in the XZ plane facing +Y.
func NewPlane(name string, size float32) Mesh {
	h := size / 2
	n := mgl32.Vec3{0, 1, 0}
	return Mesh{
		Name: name,
		Vertices: []GPUVertex{
			{Position: mgl32.Vec3{-h, 0, -h}, Normal: n, TexCoord: mgl32.Vec2{0, 0}},
			{Position: mgl32.Vec3{-h, 0, h}, Normal: n, TexCoord: mgl32.Vec2{0, 1}},
			{Position: mgl32.Vec3{h, 0, h}, Normal: n, TexCoord: mgl32.Vec2{1, 1}},
			{Position: mgl32.Vec3{h, 0, -h}, Normal: n, TexCoord: mgl32.Vec2{1, 0}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// NewCube returns a cube of edge length size centered on the origin with per-face normals.
func NewCube(name string, size float32) Mesh {
	h := size / 2
	faces := []struct {
		normal, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}

	m := Mesh{Name: name}
	for _, f := range faces {
		base := uint32(len(m.Vertices))
		center := f.normal.Mul(h)
		corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
		for _, c := range corners {
			pos := center.Add(f.u.Mul(c[0] * h)).Add(f.v.Mul(c[1] * h))
			m.Vertices = append(m.Vertices, GPUVertex{
				Position: pos,
				Normal:   f.normal,
				TexCoord: mgl32.Vec2{(c[0] + 1) / 2, 1 - (c[1]+1)/2},
			})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}
