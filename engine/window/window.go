// Package window opens the native window the renderer presents into and forwards its input.
package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// Window provides platform windowing and input event handling.
// All methods must be called from the goroutine that created the window.
type Window interface {
	// SetUpdateCallback sets the function called once per message loop iteration, after events
	// have been dispatched.
	//
	// Parameters:
	//   - callback: function to call, or nil to disable
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyCallback sets the function called for key presses, repeats and releases.
	//
	// Parameters:
	//   - callback: function receiving the key and the action
	SetKeyCallback(callback func(key Key, action Action))

	// SetMouseButtonCallback sets the function called when a mouse button is pressed or released.
	//
	// Parameters:
	//   - callback: function receiving the button, whether it is down and the cursor position
	SetMouseButtonCallback(callback func(button MouseButton, pressed bool, x, y float64))

	// SetCursorCallback sets the function called when the cursor moves.
	SetCursorCallback(callback func(x, y float64))

	// SetScrollCallback sets the callback for mouse wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical scroll delta, positive away from the user
	SetScrollCallback(callback func(delta float32))

	// SurfaceDescriptor returns a descriptor suitable for creating a WebGPU surface on this
	// window, or nil once the window is closed.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform surface descriptor
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// RequestClose asks the message loop to stop after the current iteration.
	RequestClose()

	// ProcessMessages runs the message loop until the window is closed.
	ProcessMessages()

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was never opened
	Close() error

	// Size returns the framebuffer size in pixels.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Size() (int, int)
}

// window is the implementation of the Window interface.
type window struct {
	title         string
	width         int
	height        int
	minWidth      int
	minHeight     int
	maxWidth      int
	maxHeight     int
	resizable     bool
	closeOnEscape bool
	logger        *zap.Logger

	// platform holds the GLFW state, nil until opened and after Close.
	platform *glfwWindow

	onUpdate      func()
	onResize      func(width, height int)
	onKey         func(key Key, action Action)
	onMouseButton func(button MouseButton, pressed bool, x, y float64)
	onCursor      func(x, y float64)
	onScroll      func(delta float32)
}

var _ Window = &window{}

// NewWindow opens a window configured by options.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the opened window
//   - error: error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &window{
		title:         "oxy",
		width:         1280,
		height:        720,
		minWidth:      320,
		minHeight:     200,
		resizable:     true,
		closeOnEscape: true,
		logger:        zap.NewNop(),
	}
	for _, opt := range options {
		opt(w)
	}
	if w.width <= 0 || w.height <= 0 {
		return nil, fmt.Errorf("window: invalid size %dx%d", w.width, w.height)
	}
	if err := openPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	w.logger.Debug("window opened",
		zap.String("title", w.title),
		zap.Int("width", w.width),
		zap.Int("height", w.height),
	)
	return w, nil
}

func (w *window) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *window) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *window) SetKeyCallback(callback func(key Key, action Action)) {
	w.onKey = callback
}

func (w *window) SetMouseButtonCallback(callback func(button MouseButton, pressed bool, x, y float64)) {
	w.onMouseButton = callback
}

func (w *window) SetCursorCallback(callback func(x, y float64)) {
	w.onCursor = callback
}

func (w *window) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *window) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *window) IsRunning() bool {
	return w.platform != nil && w.platform.running()
}

func (w *window) RequestClose() {
	if w.platform != nil {
		w.platform.requestClose()
	}
}

func (w *window) ProcessMessages() {
	for w.IsRunning() {
		w.platform.poll()
		if !w.IsRunning() {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *window) Close() error {
	if w.platform == nil {
		return fmt.Errorf("window: not open")
	}
	w.platform.destroy()
	w.platform = nil
	w.logger.Debug("window closed", zap.String("title", w.title))
	return nil
}

func (w *window) Size() (int, int) {
	return w.width, w.height
}

// resized records a framebuffer size change and notifies the resize callback. Minimized
// windows report a zero size, which is not forwarded.
func (w *window) resized(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *window) key(k Key, action Action) {
	if w.closeOnEscape && k == KeyEscape && action == ActionPress {
		w.RequestClose()
		return
	}
	if w.onKey != nil {
		w.onKey(k, action)
	}
}
