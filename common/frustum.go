package common

import "github.com/go-gl/mathgl/mgl32"

// Plane is ax + by + cz + d = 0 with (a, b, c) the normal and d the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// Frustum holds the six planes of a view frustum, oriented so the positive half-space is inside.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// ExtractFrustum extracts normalized frustum planes from a view-projection matrix with a 0..1
// depth range using the Gribb/Hartmann method.
//
// Parameters:
//   - viewProj: the combined projection * view matrix
//
// Returns:
//   - Frustum: the extracted frustum
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	row := func(i int) mgl32.Vec4 { return viewProj.Row(i) }
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	f.Planes[FrustumLeft] = planeOf(r3.Add(r0))
	f.Planes[FrustumRight] = planeOf(r3.Sub(r0))
	f.Planes[FrustumBottom] = planeOf(r3.Add(r1))
	f.Planes[FrustumTop] = planeOf(r3.Sub(r1))
	// The near plane is row2 alone for a 0..1 depth range.
	f.Planes[FrustumNear] = planeOf(r2)
	f.Planes[FrustumFar] = planeOf(r3.Sub(r2))
	return f
}

func planeOf(v mgl32.Vec4) Plane {
	p := Plane{Normal: v.Vec3(), Distance: v.W()}
	if l := p.Normal.Len(); l > 0 {
		p.Normal = p.Normal.Mul(1 / l)
		p.Distance /= l
	}
	return p
}

// SphereVisible reports whether a sphere intersects the frustum.
//
// Parameters:
//   - center: the sphere center in world space
//   - radius: the sphere radius
//
// Returns:
//   - bool: false only when the sphere is entirely outside one plane
func (f *Frustum) SphereVisible(center mgl32.Vec3, radius float32) bool {
	for _, p := range f.Planes {
		if p.Normal.Dot(center)+p.Distance < -radius {
			return false
		}
	}
	return true
}
