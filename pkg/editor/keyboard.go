package editor

import "strings"

// Key names, as reported by the platform.
const (
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
	KeyEnter     = "Enter"
	KeyEscape    = "Escape"
)

// KeyEvent is a key press.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool

	// InEditable is set when focus is inside a text field, so editing keys
	// belong to the field.
	InEditable bool
}

// KeyDown handles the global shortcuts and reports whether the key was
// consumed: Delete and Backspace remove the selection, mod+Z undoes,
// mod+Shift+Z and mod+Y redo. mod is Cmd with Mac shortcuts and Ctrl
// otherwise.
func (e *Editor) KeyDown(ev KeyEvent) bool {
	if ev.Key == KeyDelete || ev.Key == KeyBackspace {
		if e.selected == "" || e.editing != "" || ev.InEditable {
			return false
		}
		return e.DeleteSelected() == nil
	}

	mod := ev.Ctrl
	if e.mac {
		mod = ev.Meta
	}
	if !mod {
		return false
	}
	switch strings.ToLower(ev.Key) {
	case "z":
		if ev.Shift {
			e.Redo()
		} else {
			e.Undo()
		}
		return true
	case "y":
		e.Redo()
		return true
	}
	return false
}
