package views

import (
	"fyne.io/fyne/v2"
)

// Key codes shared by both front ends. They follow the low byte highgui
// reports for the special keys.
const (
	KeyEscape = 27
	KeySpace  = 32
	KeyLeft   = 81
	KeyUp     = 82
	KeyRight  = 83
	KeyDown   = 84
)

// fyneKeyCode translates the non-printable fyne keys. Printable keys arrive
// as runes and map to their code point.
func fyneKeyCode(name fyne.KeyName) (int, bool) {
	switch name {
	case fyne.KeyEscape:
		return KeyEscape, true
	case fyne.KeyLeft:
		return KeyLeft, true
	case fyne.KeyUp:
		return KeyUp, true
	case fyne.KeyRight:
		return KeyRight, true
	case fyne.KeyDown:
		return KeyDown, true
	default:
		return 0, false
	}
}

// highguiKeyCode masks a waitKey result to its low byte; -1 means no key.
func highguiKeyCode(raw int) (int, bool) {
	if raw < 0 {
		return 0, false
	}
	return raw & 0xFF, true
}
