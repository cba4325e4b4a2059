package window

import "fmt"

// Key is a keyboard key. Values match GLFW key codes, which use ASCII for printable keys.
type Key int

const (
	KeySpace Key = 32
	Key0     Key = 48
	Key1     Key = 49
	Key2     Key = 50
	Key3     Key = 51
	Key4     Key = 52
	Key5     Key = 53
	Key6     Key = 54
	Key7     Key = 55
	Key8     Key = 56
	Key9     Key = 57
	KeyA     Key = 65
	KeyB     Key = 66
	KeyC     Key = 67
	KeyD     Key = 68
	KeyE     Key = 69
	KeyF     Key = 70
	KeyG     Key = 71
	KeyL     Key = 76
	KeyM     Key = 77
	KeyP     Key = 80
	KeyQ     Key = 81
	KeyR     Key = 82
	KeyS     Key = 83
	KeyT     Key = 84
	KeyV     Key = 86
	KeyW     Key = 87
	KeyX     Key = 88

	KeyEscape     Key = 256
	KeyEnter      Key = 257
	KeyTab        Key = 258
	KeyBackspace  Key = 259
	KeyRight      Key = 262
	KeyLeft       Key = 263
	KeyDown       Key = 264
	KeyUp         Key = 265
	KeyF1         Key = 290
	KeyLeftShift  Key = 340
	KeyRightShift Key = 344
)

var keyNames = map[Key]string{
	KeySpace:      "Space",
	KeyEscape:     "Escape",
	KeyEnter:      "Enter",
	KeyTab:        "Tab",
	KeyBackspace:  "Backspace",
	KeyRight:      "Right",
	KeyLeft:       "Left",
	KeyDown:       "Down",
	KeyUp:         "Up",
	KeyF1:         "F1",
	KeyLeftShift:  "LeftShift",
	KeyRightShift: "RightShift",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if (k >= Key0 && k <= Key9) || (k >= KeyA && k <= 'Z') {
		return string(rune(k))
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// Action is what happened to a key.
type Action int

// Values match GLFW.
const (
	ActionRelease Action = 0
	ActionPress   Action = 1
	ActionRepeat  Action = 2
)

func (a Action) String() string {
	switch a {
	case ActionRelease:
		return "release"
	case ActionPress:
		return "press"
	case ActionRepeat:
		return "repeat"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// MouseButton is a mouse button. Values match GLFW.
type MouseButton int

const (
	MouseButtonLeft   MouseButton = 0
	MouseButtonRight  MouseButton = 1
	MouseButtonMiddle MouseButton = 2
)
