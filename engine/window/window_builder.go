package window

import "go.uber.org/zap"

// WindowBuilderOption is a functional option for configuring a window.
// Use the With* functions to create options.
type WindowBuilderOption func(w *window)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *window) {
		w.title = title
	}
}

// WithSize sets the initial client area size. High-DPI displays may report a larger
// framebuffer.
//
// Parameters:
//   - width: initial width in screen coordinates
//   - height: initial height in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *window) {
		w.width = width
		w.height = height
	}
}

// WithSizeLimits bounds interactive resizing. A zero maximum leaves that dimension unbounded.
//
// Parameters:
//   - minWidth: minimum width
//   - minHeight: minimum height
//   - maxWidth: maximum width, 0 for none
//   - maxHeight: maximum height, 0 for none
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *window) {
		w.minWidth = minWidth
		w.minHeight = minHeight
		w.maxWidth = maxWidth
		w.maxHeight = maxHeight
	}
}

// WithResizable toggles interactive resizing.
func WithResizable(resizable bool) WindowBuilderOption {
	return func(w *window) {
		w.resizable = resizable
	}
}

// WithCloseOnEscape makes the Escape key close the window instead of reaching the key callback.
// Enabled by default.
func WithCloseOnEscape(enabled bool) WindowBuilderOption {
	return func(w *window) {
		w.closeOnEscape = enabled
	}
}

// WithLogger sets the window logger.
func WithLogger(logger *zap.Logger) WindowBuilderOption {
	return func(w *window) {
		if logger != nil {
			w.logger = logger
		}
	}
}
