package editor

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/novvoo/go-pdfannotate/pkg/annotation"
	"github.com/novvoo/go-pdfannotate/pkg/geometry"
)

func textAnnotation(t *testing.T, e *Editor) string {
	t.Helper()
	id := place(t, e, annotation.Text, geometry.Rect{X: 0, Y: 100, W: 200, H: 40})
	e.history.Reset()
	return id
}

func textOf(t *testing.T, e *Editor, id string) string {
	t.Helper()
	a, _ := e.Annotation(id)
	return a.Text
}

func TestTextEditCommit(t *testing.T) {
	e := loaded(t, 1)
	id := textAnnotation(t, e)

	box, err := e.BeginTextEdit(id)
	if err != nil {
		t.Fatal(err)
	}
	want := geometry.ViewRect{Left: 0, Top: 160, Width: 200, Height: 40}
	if d := cmp.Diff(want, box, approx); d != "" {
		t.Errorf("editor box (-want +got):\n%s", d)
	}

	e.TextInput("Hello")
	e.TextKey(KeyEvent{Key: KeyEnter, Shift: true})
	e.TextInput("worl")
	e.TextKey(KeyEvent{Key: KeyBackspace})
	e.TextInput("ld")
	if got, _ := e.EditText(); got != "Hello\nworld" {
		t.Errorf("buffer %q", got)
	}
	if textOf(t, e, id) != "" {
		t.Error("text stored before commit")
	}

	if !e.TextKey(KeyEvent{Key: KeyEnter}) {
		t.Fatal("Enter not handled")
	}
	if got := textOf(t, e, id); got != "Hello\nworld" {
		t.Errorf("committed %q", got)
	}
	if _, ok := e.Editing(); ok {
		t.Error("still editing after commit")
	}
	if sel, _ := e.Selected(); sel != id {
		t.Error("commit dropped the selection")
	}

	e.Undo()
	if textOf(t, e, id) != "" {
		t.Error("undo did not restore the empty text")
	}
	if e.CanUndo() {
		t.Error("commit was recorded more than once")
	}
}

func TestTextEditCancel(t *testing.T) {
	e := loaded(t, 1)
	id := textAnnotation(t, e)
	e.Update(id, annotation.Patch{Text: annotation.Ptr("keep")})
	e.history.Reset()

	e.BeginTextEdit(id)
	e.TextInput(" me not")
	e.TextKey(KeyEvent{Key: KeyEscape})
	if got := textOf(t, e, id); got != "keep" {
		t.Errorf("text after Escape %q, want %q", got, "keep")
	}
	if e.CanUndo() {
		t.Error("cancelled edit was recorded")
	}

	// unchanged text is not recorded either
	e.BeginTextEdit(id)
	e.Blur()
	if e.CanUndo() {
		t.Error("commit without change was recorded")
	}
}

func TestTextEditComposition(t *testing.T) {
	e := loaded(t, 1)
	id := textAnnotation(t, e)

	e.BeginTextEdit(id)
	e.CompositionStart()
	if e.TextKey(KeyEvent{Key: KeyEnter}) {
		t.Error("Enter during composition was consumed")
	}
	e.TextInput("nihon")
	if _, ok := e.Editing(); !ok {
		t.Fatal("Enter during composition ended the edit")
	}
	e.CompositionEnd("日本")
	if e.Composing() || !e.TextKey(KeyEvent{Key: KeyEnter}) {
		t.Fatal("Enter after composition not handled")
	}
	if got := textOf(t, e, id); got != "日本" {
		t.Errorf("committed %q", got)
	}
}

func TestTextEditNormalizes(t *testing.T) {
	e := loaded(t, 1)
	id := textAnnotation(t, e)
	e.BeginTextEdit(id)
	e.TextInput("cafe\u0301\r\nbar")
	e.Blur()
	if got := textOf(t, e, id); got != "caf\u00e9\nbar" {
		t.Errorf("committed %q", got)
	}
}

func TestTextEditEndsOnBackgroundClick(t *testing.T) {
	e := loaded(t, 1)
	id := textAnnotation(t, e)
	e.BeginTextEdit(id)
	e.TextInput("typed")
	e.PointerDown(PointerEvent{ID: 1, X: 100, Y: 10})
	e.PointerUp(PointerEvent{ID: 1, X: 100, Y: 10})
	if got := textOf(t, e, id); got != "typed" {
		t.Errorf("text %q after clicking away", got)
	}
	if _, ok := e.Editing(); ok {
		t.Error("still editing")
	}
}

func TestBeginTextEditErrors(t *testing.T) {
	e := loaded(t, 1)
	hl := place(t, e, annotation.Highlight, geometry.Rect{X: 0, Y: 0, W: 10, H: 10})
	if _, err := e.BeginTextEdit(hl); err == nil {
		t.Error("editing a highlight succeeded")
	}
	if _, err := e.BeginTextEdit("missing"); err == nil {
		t.Error("editing a missing annotation succeeded")
	}
	stray := e.store.Create(3, annotation.Text, geometry.Rect{W: 200, H: 40}, annotation.Patch{})
	if _, err := e.BeginTextEdit(stray); err == nil {
		t.Error("editing text on a missing page succeeded")
	}
	if _, ok := e.EditText(); ok {
		t.Error("failed BeginTextEdit opened an editor")
	}
}
