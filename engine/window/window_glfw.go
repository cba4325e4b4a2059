package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	handle *glfw.Window
	open   bool
}

// openPlatformWindow creates the GLFW window, installs the input callbacks and stores it on w.
// The calling goroutine is locked to its OS thread, as GLFW requires.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func openPlatformWindow(w *window) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initialize GLFW: %w", err)
	}

	// WebGPU drives the surface, so no OpenGL context is created.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfwBool(w.resizable))

	handle, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("create GLFW window: %w", err)
	}
	handle.SetSizeLimits(w.minWidth, w.minHeight, dontCare(w.maxWidth), dontCare(w.maxHeight))

	handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		w.key(Key(key), Action(action))
	})
	handle.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})
	handle.SetMouseButtonCallback(func(win *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if w.onMouseButton == nil {
			return
		}
		x, y := win.GetCursorPos()
		w.onMouseButton(MouseButton(button), action == glfw.Press, x, y)
	})
	handle.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if w.onCursor != nil {
			w.onCursor(x, y)
		}
	})
	// The framebuffer size is the pixel size of the surface, which differs from the window size
	// on high-DPI displays.
	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})

	w.platform = &glfwWindow{handle: handle, open: true}
	w.width, w.height = handle.GetFramebufferSize()
	return nil
}

func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.handle)
}

func (g *glfwWindow) running() bool {
	return g.open && !g.handle.ShouldClose()
}

func (g *glfwWindow) requestClose() {
	g.handle.SetShouldClose(true)
}

// poll dispatches pending events without blocking.
func (g *glfwWindow) poll() {
	glfw.PollEvents()
}

func (g *glfwWindow) destroy() {
	g.open = false
	g.handle.Destroy()
	glfw.Terminate()
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func dontCare(n int) int {
	if n <= 0 {
		return glfw.DontCare
	}
	return n
}
