package component

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniformSource is the WGSL definition matching GPUCameraUniform.
const GPUCameraUniformSource = `struct CameraUniform {
	viewProj: mat4x4f,
	invProj: mat4x4f,
	position: vec3f,
	far: f32,
}`

// GPUCameraUniform is the GPU layout of the camera uniform.
// Size: 144 bytes.
type GPUCameraUniform struct {
	ViewProj         mgl32.Mat4 // offset   0
	InverseProj      mgl32.Mat4 // offset  64
	CameraPosition   mgl32.Vec3 // offset 128
	ViewportDistance float32    // offset 140: far plane
}

// Marshal serializes the uniform for upload.
func (g GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, 144)
	putMat4(buf[0:], g.ViewProj)
	putMat4(buf[64:], g.InverseProj)
	putVec3(buf[128:], g.CameraPosition)
	putF32(buf[140:], g.ViewportDistance)
	return buf
}

// GPUModelUniformSource is the WGSL definition matching GPUModelUniform.
const GPUModelUniformSource = `struct ModelUniform {
	model: mat4x4f,
	normal: mat4x4f,
	color: vec4f,
}`

// GPUModelUniform is the per-entity model uniform.
// Size: 144 bytes.
type GPUModelUniform struct {
	Model  mgl32.Mat4 // offset   0
	Normal mgl32.Mat4 // offset  64
	Color  mgl32.Vec4 // offset 128
}

// Marshal serializes the uniform for upload.
func (g GPUModelUniform) Marshal() []byte {
	buf := make([]byte, 144)
	putMat4(buf[0:], g.Model)
	putMat4(buf[64:], g.Normal)
	for i := range 4 {
		putF32(buf[128+i*4:], g.Color[i])
	}
	return buf
}

// GPULightSource is the WGSL definition matching GPULight and GPULightHeader.
const GPULightSource = `struct Light {
	position: vec3f,
	kind: u32,
	color: vec3f,
	intensity: f32,
	direction: vec3f,
	lightRange: f32,
	innerCone: f32,
	outerCone: f32,
	castsShadows: u32,
	_pad: u32,
}

struct LightHeader {
	ambient: vec3f,
	count: u32,
}`

// GPULight is one entry of the light storage buffer.
// Size: 64 bytes.
type GPULight struct {
	Position     mgl32.Vec3 // offset  0
	LightType    uint32     // offset 12
	Color        mgl32.Vec3 // offset 16
	Intensity    float32    // offset 28
	Direction    mgl32.Vec3 // offset 32
	LightRange   float32    // offset 44
	InnerCone    float32    // offset 48: cos(inner half-angle)
	OuterCone    float32    // offset 52: cos(outer half-angle)
	CastsShadows uint32     // offset 56
	_pad         uint32     // offset 60
}

// Marshal serializes the light for upload.
func (g GPULight) Marshal() []byte {
	buf := make([]byte, 64)
	putVec3(buf[0:], g.Position)
	binary.LittleEndian.PutUint32(buf[12:], g.LightType)
	putVec3(buf[16:], g.Color)
	putF32(buf[28:], g.Intensity)
	putVec3(buf[32:], g.Direction)
	putF32(buf[44:], g.LightRange)
	putF32(buf[48:], g.InnerCone)
	putF32(buf[52:], g.OuterCone)
	binary.LittleEndian.PutUint32(buf[56:], g.CastsShadows)
	return buf
}

// GPULightHeader precedes the light array.
// Size: 16 bytes.
type GPULightHeader struct {
	Ambient mgl32.Vec3 // offset  0
	Count   uint32     // offset 12
}

// Marshal serializes the header for upload.
func (g GPULightHeader) Marshal() []byte {
	buf := make([]byte, 16)
	putVec3(buf[0:], g.Ambient)
	binary.LittleEndian.PutUint32(buf[12:], g.Count)
	return buf
}

// MarshalLights serializes a light array, one 64 byte entry per light.
func MarshalLights(lights []GPULight) []byte {
	buf := make([]byte, 0, len(lights)*64)
	for _, l := range lights {
		buf = append(buf, l.Marshal()...)
	}
	return buf
}

// GPUShadowUniformSource is the WGSL definition matching GPUShadowUniform.
const GPUShadowUniformSource = `struct ShadowUniform {
	lightViewProj: mat4x4f,
	bias: f32,
	normalBias: f32,
	texelSize: f32,
	enabled: u32,
}`

// GPUShadowUniform carries the shadow caster's projection into lighting shaders.
// Size: 80 bytes.
type GPUShadowUniform struct {
	LightViewProj mgl32.Mat4 // offset  0
	Bias          float32    // offset 64
	NormalBias    float32    // offset 68
	TexelSize     float32    // offset 72
	Enabled       uint32     // offset 76
}

// Marshal serializes the uniform for upload.
func (g GPUShadowUniform) Marshal() []byte {
	buf := make([]byte, 80)
	putMat4(buf[0:], g.LightViewProj)
	putF32(buf[64:], g.Bias)
	putF32(buf[68:], g.NormalBias)
	putF32(buf[72:], g.TexelSize)
	binary.LittleEndian.PutUint32(buf[76:], g.Enabled)
	return buf
}

// GPUVertexSource is the WGSL vertex input matching GPUVertex.
const GPUVertexSource = `struct VertexInput {
	@location(0) position: vec3f,
	@location(1) normal: vec3f,
	@location(2) uv: vec2f,
}`

// GPUVertex is one interleaved vertex.
// Size: 32 bytes, tightly packed.
type GPUVertex struct {
	Position mgl32.Vec3 // offset  0
	Normal   mgl32.Vec3 // offset 12
	TexCoord mgl32.Vec2 // offset 24
}

// GPUVertexSize is the stride of GPUVertex in a vertex buffer.
const GPUVertexSize = 32

// Marshal serializes the vertex for upload.
func (g GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexSize)
	putVec3(buf[0:], g.Position)
	putVec3(buf[12:], g.Normal)
	putF32(buf[24:], g.TexCoord[0])
	putF32(buf[28:], g.TexCoord[1])
	return buf
}

// Float32Bytes serializes values little endian.
func Float32Bytes(values ...float32) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		putF32(buf[i*4:], v)
	}
	return buf
}

// Mat4Bytes serializes a column-major matrix.
func Mat4Bytes(m mgl32.Mat4) []byte {
	buf := make([]byte, 64)
	putMat4(buf, m)
	return buf
}

func putF32(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}

func putVec3(buf []byte, v mgl32.Vec3) {
	for i := range 3 {
		putF32(buf[i*4:], v[i])
	}
}

func putMat4(buf []byte, m mgl32.Mat4) {
	for i := range 16 {
		putF32(buf[i*4:], m[i])
	}
}
