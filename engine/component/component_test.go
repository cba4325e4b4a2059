package component_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/engine/component"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestTransformMatrix(t *testing.T) {
	tr := component.NewTransform(mgl32.Vec3{1, 2, 3})
	tr.Scale = mgl32.Vec3{2, 2, 2}

	p := tr.Matrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 3, p.X(), 1e-5)
	assert.InDelta(t, 2, p.Y(), 1e-5)
	assert.InDelta(t, 3, p.Z(), 1e-5)

	var zero component.Transform
	assert.Equal(t, mgl32.Ident4(), zero.Matrix())

	tr = component.NewTransform(mgl32.Vec3{})
	tr.Rotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	p = tr.Matrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 0, p.X(), 1e-5)
	assert.InDelta(t, -1, p.Z(), 1e-5)
}

func TestCameraProjectsTargetToCenter(t *testing.T) {
	cam := component.NewCamera(mgl32.Vec3{0, 0, 5}, 16.0/9.0)
	clip := cam.ViewProjection().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())

	assert.InDelta(t, 0, ndc.X(), 1e-5)
	assert.InDelta(t, 0, ndc.Y(), 1e-5)
	assert.Greater(t, ndc.Z(), float32(0))
	assert.Less(t, ndc.Z(), float32(1))

	near := cam.ViewProjection().Mul4x1(mgl32.Vec4{0, 0, 5 - cam.Near, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-4)
}

// Every GPU struct must match the layout the reflector derives from its WGSL definition.
func TestGPUTypesMatchReflectedLayout(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		typ     string
		marshal []byte
		members map[string]uint64
	}{
		{
			name:    "camera",
			source:  component.GPUCameraUniformSource,
			typ:     "CameraUniform",
			marshal: component.GPUCameraUniform{}.Marshal(),
			members: map[string]uint64{"viewProj": 0, "invProj": 64, "position": 128, "far": 140},
		},
		{
			name:    "model",
			source:  component.GPUModelUniformSource,
			typ:     "ModelUniform",
			marshal: component.GPUModelUniform{}.Marshal(),
			members: map[string]uint64{"model": 0, "normal": 64, "color": 128},
		},
		{
			name:    "light",
			source:  component.GPULightSource,
			typ:     "Light",
			marshal: component.GPULight{}.Marshal(),
			members: map[string]uint64{"kind": 12, "color": 16, "direction": 32, "castsShadows": 56},
		},
		{
			name:    "light header",
			source:  component.GPULightSource,
			typ:     "LightHeader",
			marshal: component.GPULightHeader{}.Marshal(),
			members: map[string]uint64{"ambient": 0, "count": 12},
		},
		{
			name:    "shadow",
			source:  component.GPUShadowUniformSource,
			typ:     "ShadowUniform",
			marshal: component.GPUShadowUniform{}.Marshal(),
			members: map[string]uint64{"lightViewProj": 0, "bias": 64, "enabled": 76},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.source + "\n@group(0) @binding(0) var<uniform> u: " + tt.typ + ";\n"
			desc, err := shader.Reflect(src)
			require.NoError(t, err)
			b, ok := desc.Binding("u")
			require.True(t, ok)
			assert.Equal(t, uint64(len(tt.marshal)), b.Size)
			for name, off := range tt.members {
				m, ok := b.Member(name)
				require.True(t, ok, name)
				assert.Equal(t, off, m.Offset, name)
			}
		})
	}
}

func TestGPUVertexMatchesReflectedAttributes(t *testing.T) {
	src := component.GPUVertexSource + `
@vertex
fn vs_main(in: VertexInput) -> @builtin(position) vec4f {
	return vec4f(in.position, 1.0);
}
`
	desc, err := shader.Reflect(src)
	require.NoError(t, err)
	assert.Equal(t, uint64(component.GPUVertexSize), desc.VertexStride)
	require.Len(t, desc.Attributes, 3)
	assert.Equal(t, uint64(24), desc.Attributes[2].Offset)
}

func TestCameraUniformMarshal(t *testing.T) {
	cam := component.NewCamera(mgl32.Vec3{1, 2, 3}, 1)
	buf := cam.Uniform().Marshal()
	require.Len(t, buf, 144)
	assert.Equal(t, float32(1), f32At(buf, 128))
	assert.Equal(t, float32(3), f32At(buf, 136))
	assert.Equal(t, cam.Far, f32At(buf, 140))
	assert.Equal(t, cam.ViewProjection()[5], f32At(buf, 20))
}

func TestMeshUploadAndDraw(t *testing.T) {
	device := gpu.NewRecordingDevice()
	cube := component.NewCube("cube", 2)
	require.Equal(t, 24, cube.VertexCount())
	require.Len(t, cube.Indices, 36)
	assert.InDelta(t, math.Sqrt(3), cube.BoundingRadius(), 1e-5)

	require.NoError(t, cube.Upload(device))
	require.NoError(t, cube.Upload(device))
	assert.Equal(t, 2, device.Count(gpu.OpCreateBuffer))

	vb := cube.VertexBuffer.(*gpu.RecordedBuffer)
	assert.Len(t, vb.Bytes(), 24*component.GPUVertexSize)
	assert.NotZero(t, vb.Usage()&gpu.BufferUsageVertex)

	enc, err := device.CreateCommandEncoder("frame")
	require.NoError(t, err)
	pass := enc.BeginRenderPass(&gpu.RenderPassDescriptor{Label: "main"})
	cube.Draw(pass, 1)
	tri := component.NewTriangle("tri")
	require.NoError(t, tri.Upload(device))
	tri.Draw(pass, 1)
	require.NoError(t, pass.End())

	assert.Equal(t, 1, device.Count(gpu.OpDrawIndexed))
	assert.Equal(t, 1, device.Count(gpu.OpDraw))
	assert.Nil(t, tri.IndexBuffer)

	cube.Release()
	assert.True(t, vb.Released)
	assert.False(t, cube.Uploaded())

	empty := component.Mesh{Name: "empty"}
	assert.Error(t, empty.Upload(device))
}

func TestLightGPU(t *testing.T) {
	l := component.Light{
		Type:         component.LightTypeSpot,
		Color:        mgl32.Vec3{1, 0.5, 0},
		Intensity:    2,
		Direction:    mgl32.Vec3{0, -2, 0},
		InnerCone:    0,
		OuterCone:    math.Pi / 3,
		CastsShadows: true,
	}
	g := l.GPU(mgl32.Vec3{0, 5, 0})
	assert.Equal(t, uint32(2), g.LightType)
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, g.Direction)
	assert.InDelta(t, 1, g.InnerCone, 1e-6)
	assert.InDelta(t, 0.5, g.OuterCone, 1e-6)
	assert.Equal(t, uint32(1), g.CastsShadows)
	assert.Len(t, component.MarshalLights([]component.GPULight{g, g}), 128)

	sun := component.Light{Type: component.LightTypeDirectional, Direction: mgl32.Vec3{0, -1, 0}}
	vp := sun.ShadowViewProjection(mgl32.Vec3{}, 10, 0.1, 100)
	c := vp.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, c.X(), 1e-5)
	assert.Greater(t, c.Z(), float32(0))
	assert.Less(t, c.Z(), float32(1))
}

func TestMaterialBindingOptions(t *testing.T) {
	m := component.NewMaterial("brick")
	m.Textures["albedo"] = "brick.png"
	m.Samplers["albedoSampler"] = "linear"
	assert.Len(t, m.BindingOptions(), 2)
	assert.True(t, m.State.DepthTestEnabled)
	m.Release()
}

func TestInfoAndRenderExclusive(t *testing.T) {
	info := component.Info{Name: "crate", Tags: []string{"static"}}
	assert.True(t, info.HasTag("static"))
	assert.False(t, info.HasTag("dynamic"))

	ex := component.RenderExclusive{Passes: []string{"forward"}}
	assert.True(t, ex.Allows("forward"))
	assert.False(t, ex.Allows("shadow"))
}
