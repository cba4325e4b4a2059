// Package camera drives the active Camera component from user input.
package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-core/engine/component"
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/system"
	"github.com/Carmen-Shannon/oxy-core/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// OrbitController is a logic system that orbits the active camera around a pivot using
// spherical coordinates (radius, azimuth, elevation). Input handlers may be called from the
// window callbacks; the accumulated input is applied to the camera on the next tick.
//
// Tuple layout: Camera.
type OrbitController struct {
	system.Base
	mu *sync.Mutex

	target    mgl32.Vec3
	radius    float32
	azimuth   float32 // around +Y, 0 looks down -Z from +Z
	elevation float32 // above the horizontal plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed       float32 // radians per second while a key is held
	mouseSensitivity float32 // radians per pixel of drag
	zoomSpeed        float32
	panSpeed         float32 // world units per second

	fromCamera bool
	held       map[window.Key]bool
	dragging   bool
	lastX      float64
	lastY      float64
	dAzimuth   float32
	dElevation float32
	dZoom      float32
}

var _ system.LogicSystem = &OrbitController{}

// NewOrbitController creates an orbit controller. Unless WithRadius, WithAzimuth,
// WithElevation or WithTarget is passed, the orbit is derived from the camera's own position
// and target when the camera is first seen.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - *OrbitController: the controller
func NewOrbitController(options ...OrbitControllerOption) *OrbitController {
	cc := &OrbitController{
		Base: system.NewBase("orbit_camera",
			system.Require[component.Camera](),
			system.WithPredicate(func(reg *ecs.Registry, e ecs.Entity) bool {
				c, ok := ecs.Get[component.Camera](reg, e)
				return ok && c.Active
			}),
		),
		mu: &sync.Mutex{},

		radius:    10,
		elevation: float32(math.Pi / 6),

		minRadius:    1,
		maxRadius:    200,
		minElevation: -float32(math.Pi/2 - 0.1),
		maxElevation: float32(math.Pi/2 - 0.1),

		orbitSpeed:       1.5,
		mouseSensitivity: 0.005,
		zoomSpeed:        1,
		panSpeed:         5,

		fromCamera: true,
		held:       make(map[window.Key]bool),
	}
	for _, option := range options {
		option(cc)
	}
	cc.clamp()
	return cc
}

// Attach routes the window's keyboard, mouse and scroll callbacks to the controller.
func (cc *OrbitController) Attach(w window.Window) {
	w.SetKeyCallback(cc.HandleKey)
	w.SetMouseButtonCallback(cc.HandleMouseButton)
	w.SetCursorCallback(cc.HandleCursor)
	w.SetScrollCallback(cc.HandleScroll)
}

// HandleKey records held keys. Arrow keys orbit, WASD pans the pivot and Q/E move it vertically.
func (cc *OrbitController) HandleKey(key window.Key, action window.Action) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	switch action {
	case window.ActionPress:
		cc.held[key] = true
	case window.ActionRelease:
		delete(cc.held, key)
	}
}

// HandleMouseButton starts and stops a left button drag.
func (cc *OrbitController) HandleMouseButton(button window.MouseButton, pressed bool, x, y float64) {
	if button != window.MouseButtonLeft {
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.dragging = pressed
	cc.lastX, cc.lastY = x, y
}

// HandleCursor turns cursor movement during a drag into orbit input.
func (cc *OrbitController) HandleCursor(x, y float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.dragging {
		cc.dAzimuth -= float32(x-cc.lastX) * cc.mouseSensitivity
		cc.dElevation += float32(y-cc.lastY) * cc.mouseSensitivity
	}
	cc.lastX, cc.lastY = x, y
}

// HandleScroll zooms; positive delta moves toward the pivot.
func (cc *OrbitController) HandleScroll(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.dZoom += delta
}

// Orbit rotates the camera around the pivot.
func (cc *OrbitController) Orbit(dAzimuth, dElevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += dAzimuth
	cc.elevation += dElevation
	cc.clamp()
}

// Zoom moves the camera toward the pivot by delta scaled by the zoom speed, clamped to the radius
// bounds.
func (cc *OrbitController) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius -= delta * cc.zoomSpeed
	cc.clamp()
}

// Pan moves the pivot along the camera's horizontal right and forward axes and world up.
func (cc *OrbitController) Pan(right, up, forward float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pan(right, up, forward)
}

// SetTarget moves the pivot.
func (cc *OrbitController) SetTarget(target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.fromCamera = false
}

// Target returns the pivot.
func (cc *OrbitController) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

// Radius returns the distance between the camera and the pivot.
func (cc *OrbitController) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

// Angles returns the azimuth and elevation in radians.
func (cc *OrbitController) Angles() (azimuth, elevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth, cc.elevation
}

// Position returns the camera position the orbit currently describes.
func (cc *OrbitController) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position()
}

// OnCreate adopts the camera's placement as the initial orbit unless one was configured.
func (cc *OrbitController) OnCreate(_ *ecs.Registry, _ ecs.Entity, c system.Tuple) error {
	cam := system.At[component.Camera](c, 0)
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.fromCamera {
		return nil
	}
	offset := cam.Position.Sub(cam.Target)
	r := offset.Len()
	if r < 1e-6 {
		return nil
	}
	cc.target = cam.Target
	cc.radius = r
	cc.azimuth = float32(math.Atan2(float64(offset.X()), float64(offset.Z())))
	cc.elevation = float32(math.Asin(float64(offset.Y() / r)))
	cc.fromCamera = false
	cc.clamp()
	return nil
}

// OnUpdate applies the input gathered since the last tick and writes the camera placement.
func (cc *OrbitController) OnUpdate(_ *ecs.Registry, dt float32, _ ecs.Entity, c system.Tuple) error {
	cam := system.At[component.Camera](c, 0)
	cc.mu.Lock()
	defer cc.mu.Unlock()

	step := cc.orbitSpeed * dt
	cc.azimuth += cc.dAzimuth + cc.axis(window.KeyLeft, window.KeyRight)*step
	cc.elevation += cc.dElevation + cc.axis(window.KeyDown, window.KeyUp)*step
	cc.radius -= cc.dZoom * cc.zoomSpeed
	cc.dAzimuth, cc.dElevation, cc.dZoom = 0, 0, 0
	cc.clamp()

	move := cc.panSpeed * dt
	cc.pan(cc.axis(window.KeyA, window.KeyD)*move, cc.axis(window.KeyQ, window.KeyE)*move, cc.axis(window.KeyS, window.KeyW)*move)

	cam.Target = cc.target
	cam.Position = cc.position()
	return nil
}

// axis returns -1, 0 or 1 for a pair of held keys. Caller must hold the mutex.
func (cc *OrbitController) axis(negative, positive window.Key) float32 {
	var v float32
	if cc.held[negative] {
		v--
	}
	if cc.held[positive] {
		v++
	}
	return v
}

// position computes the camera position from the spherical coordinates. Caller must hold the mutex.
func (cc *OrbitController) position() mgl32.Vec3 {
	cosElev := float32(math.Cos(float64(cc.elevation)))
	sinElev := float32(math.Sin(float64(cc.elevation)))
	cosAzim := float32(math.Cos(float64(cc.azimuth)))
	sinAzim := float32(math.Sin(float64(cc.azimuth)))
	return cc.target.Add(mgl32.Vec3{
		cc.radius * cosElev * sinAzim,
		cc.radius * sinElev,
		cc.radius * cosElev * cosAzim,
	})
}

// pan translates the pivot. Caller must hold the mutex.
func (cc *OrbitController) pan(right, up, forward float32) {
	if right == 0 && up == 0 && forward == 0 {
		return
	}
	sinAzim := float32(math.Sin(float64(cc.azimuth)))
	cosAzim := float32(math.Cos(float64(cc.azimuth)))
	// Horizontal axes only, so panning never changes the pivot height.
	fwd := mgl32.Vec3{-sinAzim, 0, -cosAzim}
	rgt := mgl32.Vec3{cosAzim, 0, -sinAzim}
	cc.target = cc.target.Add(rgt.Mul(right)).Add(mgl32.Vec3{0, up, 0}).Add(fwd.Mul(forward))
}

// clamp keeps radius and elevation inside their bounds. Caller must hold the mutex.
func (cc *OrbitController) clamp() {
	cc.radius = mgl32.Clamp(cc.radius, cc.minRadius, cc.maxRadius)
	cc.elevation = mgl32.Clamp(cc.elevation, cc.minElevation, cc.maxElevation)
}
