package engine

import "strings"

// KeyEvent is a key press. Key follows KeyboardEvent.key ("z", "Delete",
// "Enter", "Escape").
type KeyEvent struct {
	Key string `json:"key"`
	Modifiers
}

// KeyDown runs the shortcut bound to ev and reports whether it did anything.
// While a text node has focus only Escape is handled; it ends editing.
func (e *Engine) KeyDown(ev KeyEvent) bool {
	e.sched.Flush()
	if e.editingID != "" {
		if ev.Key == "Escape" {
			e.EndTextEdit()
			return true
		}
		e.log.Debug("key ignored during text editing", "key", ev.Key)
		return false
	}

	cmd := ev.additive()
	switch key := strings.ToLower(ev.Key); {
	case cmd && key == "z" && ev.Shift, cmd && key == "y":
		return e.Redo()
	case cmd && key == "z":
		return e.Undo()
	case cmd && key == "c":
		return e.Copy()
	case cmd && key == "v":
		return e.Paste()
	case ev.Key == "Delete" || ev.Key == "Backspace":
		return e.DeleteSelection() > 0
	case ev.Key == "Enter":
		if e.tool == ToolPath && len(e.pathPoints) > 0 {
			e.finishPath(false)
			return true
		}
	case ev.Key == "Escape":
		switch {
		case len(e.pathPoints) > 0:
			e.CancelPath()
		case e.croppingID != "":
			e.ExitCrop()
		case !e.selection.Empty():
			e.ClearSelection()
		default:
			return false
		}
		return true
	}
	return false
}
