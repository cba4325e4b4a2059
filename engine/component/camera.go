package component

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera. The entity's Transform is not consulted; Position and Target
// are written by the camera controlling system.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	// FovY is the vertical field of view in radians.
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32
	// Active marks the camera passes render from. The first active camera wins.
	Active bool
}

// NewCamera returns an active camera with a 60 degree field of view looking at the origin.
func NewCamera(position mgl32.Vec3, aspect float32) Camera {
	return Camera{
		Position: position,
		Up:       mgl32.Vec3{0, 1, 0},
		FovY:     mgl32.DegToRad(60),
		Aspect:   aspect,
		Near:     0.1,
		Far:      500,
		Active:   true,
	}
}

// View returns the world to view matrix.
func (c Camera) View() mgl32.Mat4 {
	up := c.Up
	if up == (mgl32.Vec3{}) {
		up = mgl32.Vec3{0, 1, 0}
	}
	return mgl32.LookAtV(c.Position, c.Target, up)
}

// Projection returns a right handed perspective projection with a 0..1 depth range.
func (c Camera) Projection() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	f := float32(1 / math.Tan(float64(c.FovY)/2))
	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = c.Far / (c.Near - c.Far)
	m[11] = -1
	m[14] = (c.Near * c.Far) / (c.Near - c.Far)
	return m
}

// ViewProjection returns Projection * View.
func (c Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Uniform packs the camera for the CameraUniform WGSL struct.
func (c Camera) Uniform() GPUCameraUniform {
	return GPUCameraUniform{
		ViewProj:         c.ViewProjection(),
		InverseProj:      c.Projection().Inv(),
		CameraPosition:   c.Position,
		ViewportDistance: c.Far,
	}
}
