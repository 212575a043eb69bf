package editor

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/novvoo/go-pdfannotate/pkg/annotation"
	"github.com/novvoo/go-pdfannotate/pkg/geometry"
)

type textSession struct {
	id        string
	buf       []rune
	composing bool
}

// BeginTextEdit opens the in-place editor of a text annotation. It returns
// the view box the editing surface must cover.
func (e *Editor) BeginTextEdit(id string) (geometry.ViewRect, error) {
	a, ok := e.store.Get(id)
	if !ok {
		return geometry.ViewRect{}, fmt.Errorf("edit %s: %w", id, annotation.ErrNotFound)
	}
	if a.Type != annotation.Text {
		return geometry.ViewRect{}, fmt.Errorf("edit %s: not a text annotation", id)
	}
	box, ok := e.ViewBox(id)
	if !ok {
		return geometry.ViewRect{}, fmt.Errorf("edit %s: page %d out of range", id, a.PageIndex)
	}
	if e.text != nil && e.text.id != id {
		e.CommitText()
	}
	if e.text == nil {
		e.text = &textSession{id: id, buf: []rune(a.Text)}
	}
	e.selected, e.editing = id, id
	return box, nil
}

// EditText returns the uncommitted text of the open editor.
func (e *Editor) EditText() (string, bool) {
	if e.text == nil {
		return "", false
	}
	return string(e.text.buf), true
}

// Composing reports whether an input method composition is in progress.
func (e *Editor) Composing() bool {
	return e.text != nil && e.text.composing
}

// TextInput inserts typed text at the end of the edit.
func (e *Editor) TextInput(s string) {
	if e.text == nil || e.text.composing {
		return
	}
	e.text.buf = append(e.text.buf, []rune(s)...)
}

// CompositionStart marks the beginning of an input method composition.
// Until CompositionEnd, Enter belongs to the input method.
func (e *Editor) CompositionStart() {
	if e.text != nil {
		e.text.composing = true
	}
}

// CompositionEnd inserts the composed text.
func (e *Editor) CompositionEnd(s string) {
	if e.text == nil {
		return
	}
	e.text.composing = false
	e.text.buf = append(e.text.buf, []rune(s)...)
}

// TextKey handles a key pressed in the open editor and reports whether it
// was consumed. Enter commits, Shift+Enter starts a new line and Escape
// discards the edit.
func (e *Editor) TextKey(ev KeyEvent) bool {
	if e.text == nil {
		return false
	}
	if e.text.composing {
		return false
	}
	switch ev.Key {
	case KeyEnter:
		if ev.Shift {
			e.text.buf = append(e.text.buf, '\n')
		} else {
			e.CommitText()
		}
		return true
	case KeyEscape:
		e.CancelText()
		return true
	case KeyBackspace:
		if n := len(e.text.buf); n > 0 {
			e.text.buf = e.text.buf[:n-1]
		}
		return true
	}
	return false
}

// Blur commits the edit, as when the editing surface loses focus.
func (e *Editor) Blur() {
	e.CommitText()
}

// CommitText closes the editor and stores the text as one undoable step
// if it changed.
func (e *Editor) CommitText() error {
	s := e.text
	if s == nil {
		return nil
	}
	e.text = nil
	e.editing = ""
	a, ok := e.store.Get(s.id)
	if !ok {
		return nil
	}
	text := norm.NFC.String(strings.ReplaceAll(string(s.buf), "\r\n", "\n"))
	if text == a.Text {
		return nil
	}
	return e.Mutate(func() error {
		return e.store.Update(s.id, annotation.Patch{Text: &text})
	})
}

// CancelText closes the editor and keeps the last committed text.
func (e *Editor) CancelText() {
	if e.text == nil {
		return
	}
	e.text = nil
	e.editing = ""
}
