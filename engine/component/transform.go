// Package component holds the plain data components the engine's systems and passes filter on.
// Components carry no behavior beyond small derived-value helpers.
package component

import "github.com/go-gl/mathgl/mgl32"

// Transform places an entity in world space. Upstream systems write it; passes only read it.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// NewTransform returns a transform at position with no rotation and unit scale.
func NewTransform(position mgl32.Vec3) Transform {
	return Transform{
		Position: position,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix returns translation * rotation * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	scale := t.Scale
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	rot := t.Rotation
	if rot == (mgl32.Quat{}) {
		rot = mgl32.QuatIdent()
	}
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

// NormalMatrix returns the inverse transpose of Matrix, used to transform normals.
func (t Transform) NormalMatrix() mgl32.Mat4 {
	return t.Matrix().Inv().Transpose()
}

// Rotate applies an additional rotation of angle radians around axis.
func (t *Transform) Rotate(angle float32, axis mgl32.Vec3) {
	rot := t.Rotation
	if rot == (mgl32.Quat{}) {
		rot = mgl32.QuatIdent()
	}
	t.Rotation = mgl32.QuatRotate(angle, axis.Normalize()).Mul(rot).Normalize()
}
