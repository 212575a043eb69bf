package editor

import (
	"fmt"
	"slices"

	"github.com/novvoo/go-pdfannotate/pkg/annotation"
	"github.com/novvoo/go-pdfannotate/pkg/geometry"
)

// Placement of the quick-add actions, in points from the page's top-left
// corner.
var (
	quickHighlight = geometry.Rect{X: 40, Y: 160, W: 240, H: 24}
	quickImage     = geometry.Rect{X: 40, Y: 300, W: 200, H: 150}
)

// Tool returns the active tool.
func (e *Editor) Tool() Tool {
	return e.tool
}

// SetTool switches the active tool. A placement in progress is finished.
func (e *Editor) SetTool(t Tool) error {
	switch t {
	case ToolSelect, ToolHighlight, ToolText:
	default:
		return fmt.Errorf("unknown tool %q", t)
	}
	if e.placing != nil {
		e.endPlacement()
	}
	e.tool = t
	return nil
}

// Selected returns the id of the selected annotation.
func (e *Editor) Selected() (string, bool) {
	return e.selected, e.selected != ""
}

// Editing returns the id of the text annotation being edited in place.
func (e *Editor) Editing() (string, bool) {
	return e.editing, e.editing != ""
}

// Select selects an annotation.
func (e *Editor) Select(id string) error {
	if _, ok := e.store.Get(id); !ok {
		return fmt.Errorf("select %s: %w", id, annotation.ErrNotFound)
	}
	if e.text != nil && e.text.id != id {
		e.CommitText()
	}
	e.selected = id
	return nil
}

// ClearSelection deselects, ending any text edit.
func (e *Editor) ClearSelection() {
	if e.text != nil {
		e.CommitText()
	}
	e.selected, e.editing = "", ""
}

// Annotation returns a copy of one annotation.
func (e *Editor) Annotation(id string) (annotation.Annotation, bool) {
	return e.store.Get(id)
}

// Annotations returns copies of all annotations in z-order.
func (e *Editor) Annotations() []annotation.Annotation {
	return e.store.All()
}

// PageAnnotations returns the annotations of the current page in paint
// order.
func (e *Editor) PageAnnotations() []annotation.Annotation {
	if e.src == nil {
		return nil
	}
	return e.store.PaintOrder(e.pageIndex)
}

// AddHighlight places a highlight near the top of the current page and
// selects it.
func (e *Editor) AddHighlight() (string, error) {
	return e.quickAdd(annotation.Highlight, quickHighlight, annotation.Patch{})
}

// AddImage places an image near the top of the current page and selects
// it. data must be an encoded image in a supported format.
func (e *Editor) AddImage(data []byte) (string, error) {
	if _, _, _, err := annotation.CheckImage(data); err != nil {
		return "", err
	}
	return e.quickAdd(annotation.Image, quickImage, annotation.Patch{ImageData: data})
}

func (e *Editor) quickAdd(t annotation.Type, fromTop geometry.Rect, defaults annotation.Patch) (string, error) {
	if e.text != nil {
		e.CommitText()
	}
	var id string
	err := e.Mutate(func() error {
		page := e.pages[e.pageIndex]
		r := geometry.Rect{X: fromTop.X, Y: page.Height - fromTop.Y, W: fromTop.W, H: fromTop.H}
		id = e.store.Create(e.pageIndex, t, r, defaults)
		return nil
	})
	if err != nil {
		return "", err
	}
	e.selected, e.editing = id, ""
	return id, nil
}

// UpdateSelected applies an inspector change to the selected annotation.
func (e *Editor) UpdateSelected(p annotation.Patch) error {
	if e.selected == "" {
		return ErrNoSelection
	}
	return e.Update(e.selected, p)
}

// Update applies a change to one annotation.
func (e *Editor) Update(id string, p annotation.Patch) error {
	if p.ImageData != nil {
		if _, _, _, err := annotation.CheckImage(p.ImageData); err != nil {
			return err
		}
	}
	if p.PageIndex != nil && (*p.PageIndex < 0 || *p.PageIndex >= len(e.pages)) {
		return fmt.Errorf("page %d out of range [0,%d)", *p.PageIndex, len(e.pages))
	}
	return e.Mutate(func() error {
		return e.store.Update(id, p)
	})
}

// DeleteSelected removes the selected annotation.
func (e *Editor) DeleteSelected() error {
	if e.selected == "" {
		return ErrNoSelection
	}
	return e.Delete(e.selected)
}

// Delete removes an annotation and clears it from the selection.
func (e *Editor) Delete(id string) error {
	if e.text != nil && e.text.id == id {
		e.CancelText()
	}
	if err := e.Mutate(func() error { return e.store.Delete(id) }); err != nil {
		return err
	}
	if e.selected == id {
		e.selected = ""
	}
	if e.editing == id {
		e.editing = ""
	}
	return nil
}

// Duplicate copies an annotation and selects the copy.
func (e *Editor) Duplicate(id string) (string, error) {
	var nid string
	err := e.Mutate(func() error {
		var err error
		nid, err = e.store.Duplicate(id)
		return err
	})
	if err != nil {
		return "", err
	}
	e.selected = nid
	return nid, nil
}

// BringToFront moves an annotation to the top of the z-order.
func (e *Editor) BringToFront(id string) error {
	return e.Mutate(func() error { return e.store.ReorderZ(id, annotation.Front) })
}

// SendToBack moves an annotation to the bottom of the z-order.
func (e *Editor) SendToBack(id string) error {
	return e.Mutate(func() error { return e.store.ReorderZ(id, annotation.Back) })
}

// ViewBox returns the view-space box of an annotation at the current zoom.
func (e *Editor) ViewBox(id string) (geometry.ViewRect, bool) {
	a, ok := e.store.Get(id)
	if !ok || a.PageIndex < 0 || a.PageIndex >= len(e.pages) {
		return geometry.ViewRect{}, false
	}
	return geometry.RectToView(a.Rect(), e.pages[a.PageIndex], e.zoom), true
}

// HitTest returns the topmost annotation of the current page under the
// view point.
func (e *Editor) HitTest(x, y float64) (string, bool) {
	if e.src == nil {
		return "", false
	}
	page := e.pages[e.pageIndex]
	list := e.store.PaintOrder(e.pageIndex)
	for _, a := range slices.Backward(list) {
		if geometry.RectToView(a.Rect(), page, e.zoom).Contains(x, y) {
			return a.ID, true
		}
	}
	return "", false
}
