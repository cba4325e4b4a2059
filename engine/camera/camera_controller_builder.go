package camera

import "github.com/go-gl/mathgl/mgl32"

// OrbitControllerOption is a functional option for configuring an OrbitController.
type OrbitControllerOption func(*OrbitController)

// WithRadius sets the initial orbit radius (distance from target).
//
// Parameters:
//   - radius: distance from the orbit target
//
// Returns:
//   - OrbitControllerOption: functional option to set the radius
func WithRadius(radius float32) OrbitControllerOption {
	return func(cc *OrbitController) {
		cc.radius = radius
		cc.fromCamera = false
	}
}

// WithAzimuth sets the initial horizontal angle around the Y axis.
//
// Parameters:
//   - azimuth: horizontal angle in radians (0 = +Z axis)
//
// Returns:
//   - OrbitControllerOption: functional option to set the azimuth
func WithAzimuth(azimuth float32) OrbitControllerOption {
	return func(cc *OrbitController) {
		cc.azimuth = azimuth
		cc.fromCamera = false
	}
}

// WithElevation sets the initial vertical angle from the horizontal plane.
//
// Parameters:
//   - elevation: vertical angle in radians (0 = horizontal)
//
// Returns:
//   - OrbitControllerOption: functional option to set the elevation
func WithElevation(elevation float32) OrbitControllerOption {
	return func(cc *OrbitController) {
		cc.elevation = elevation
		cc.fromCamera = false
	}
}

// WithTarget sets the look-at/pivot point.
//
// Parameters:
//   - target: world-space pivot
//
// Returns:
//   - OrbitControllerOption: functional option to set the target position
func WithTarget(target mgl32.Vec3) OrbitControllerOption {
	return func(cc *OrbitController) {
		cc.target = target
		cc.fromCamera = false
	}
}

// WithRadiusBounds sets the minimum and maximum orbit radius.
//
// Parameters:
//   - min: closest distance to the target
//   - max: farthest distance from the target
//
// Returns:
//   - OrbitControllerOption: functional option to set the radius bounds
func WithRadiusBounds(min, max float32) OrbitControllerOption {
	return func(cc *OrbitController) {
		cc.minRadius = min
		cc.maxRadius = max
	}
}

// WithElevationBounds sets the minimum and maximum elevation angle in radians.
func WithElevationBounds(min, max float32) OrbitControllerOption {
	return func(cc *OrbitController) {
		cc.minElevation = min
		cc.maxElevation = max
	}
}

// WithOrbitSpeed sets the angular speed in radians per second while an arrow key is held.
func WithOrbitSpeed(speed float32) OrbitControllerOption {
	return func(cc *OrbitController) {
		cc.orbitSpeed = speed
	}
}

// WithMouseSensitivity sets the radians per pixel of left button drag.
func WithMouseSensitivity(sensitivity float32) OrbitControllerOption {
	return func(cc *OrbitController) {
		cc.mouseSensitivity = sensitivity
	}
}

// WithZoomSpeed sets the radius change per scroll unit.
func WithZoomSpeed(speed float32) OrbitControllerOption {
	return func(cc *OrbitController) {
		cc.zoomSpeed = speed
	}
}

// WithPanSpeed sets the pivot speed in world units per second while a pan key is held.
func WithPanSpeed(speed float32) OrbitControllerOption {
	return func(cc *OrbitController) {
		cc.panSpeed = speed
	}
}
