package component

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional has a direction and no position. It is not attenuated.
	LightTypeDirectional LightType = iota

	// LightTypePoint emits in all directions and attenuates up to Range.
	LightTypePoint

	// LightTypeSpot emits in a cone around Direction between InnerCone and OuterCone.
	LightTypeSpot
)

func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	}
	return "directional"
}

const (
	ShadowMapResolution                  = 2048
	DefaultShadowHalfExtent      float32 = 40.0
	DefaultShadowNear            float32 = 0.1
	DefaultShadowFar             float32 = 200.0
	DefaultShadowBias            float32 = 0.001
	DefaultShadowNormalBiasScale float32 = 3.0
)

// Light is a light source. Point and spot lights take their position from the entity's Transform.
type Light struct {
	Type      LightType
	Color     mgl32.Vec3
	Intensity float32
	Range     float32
	Direction mgl32.Vec3
	// InnerCone and OuterCone are half-angles in radians.
	InnerCone    float32
	OuterCone    float32
	CastsShadows bool
}

// GPU packs the light for the light storage buffer.
func (l Light) GPU(position mgl32.Vec3) GPULight {
	dir := l.Direction
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	g := GPULight{
		Position:   position,
		LightType:  uint32(l.Type),
		Color:      l.Color,
		Intensity:  l.Intensity,
		Direction:  dir,
		LightRange: l.Range,
		InnerCone:  float32(math.Cos(float64(l.InnerCone))),
		OuterCone:  float32(math.Cos(float64(l.OuterCone))),
	}
	if l.CastsShadows {
		g.CastsShadows = 1
	}
	return g
}

// ShadowViewProjection returns the orthographic light space projection of a directional light
// centered on center.
func (l Light) ShadowViewProjection(center mgl32.Vec3, halfExtent, near, far float32) mgl32.Mat4 {
	dir := l.Direction
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, -1, 0}
	}
	dir = dir.Normalize()
	up := mgl32.Vec3{0, 1, 0}
	if math.Abs(float64(dir.Dot(up))) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	eye := center.Sub(dir.Mul(far / 2))
	view := mgl32.LookAtV(eye, center, up)

	// Orthographic projection with a 0..1 depth range.
	var proj mgl32.Mat4
	proj[0] = 1 / halfExtent
	proj[5] = 1 / halfExtent
	proj[10] = -1 / (far - near)
	proj[14] = -near / (far - near)
	proj[15] = 1
	return proj.Mul4(view)
}

// ShadowAffection controls the entity's participation in shadow mapping.
type ShadowAffection struct {
	Cast    bool
	Receive bool
}

// LightAffection marks an entity as shaded by scene lights.
type LightAffection struct {
	// MaxLights caps how many lights are evaluated for the entity. Zero means all.
	MaxLights int
}
