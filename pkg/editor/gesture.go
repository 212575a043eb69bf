package editor

import (
	"github.com/novvoo/go-pdfannotate/pkg/annotation"
	"github.com/novvoo/go-pdfannotate/pkg/geometry"
	"github.com/novvoo/go-pdfannotate/pkg/history"
)

// EdgeThreshold is the distance, in view pixels, from a box edge within
// which a press starts a resize instead of a move.
const EdgeThreshold = 10

// HitKind is what a press on an annotation grabs.
type HitKind string

// Hit kinds. The resize kinds name the edges that follow the pointer.
const (
	HitNone     HitKind = ""
	HitMove     HitKind = "move"
	HitResizeN  HitKind = "n"
	HitResizeS  HitKind = "s"
	HitResizeE  HitKind = "e"
	HitResizeW  HitKind = "w"
	HitResizeNE HitKind = "ne"
	HitResizeNW HitKind = "nw"
	HitResizeSE HitKind = "se"
	HitResizeSW HitKind = "sw"
)

func (k HitKind) resize() bool {
	return k != HitNone && k != HitMove
}

func (k HitKind) has(edge byte) bool {
	for i := 0; i < len(k); i++ {
		if k[i] == edge {
			return true
		}
	}
	return false
}

// PointerEvent is a pointer press, move or release in view space of the
// current page.
type PointerEvent struct {
	ID     int     // pointer id; a gesture only follows the pointer that started it
	X, Y   float64 // view pixels
	Target string  // annotation under the pointer, empty for the page background
	Handle HitKind // explicit handle under the pointer, if any
}

type placement struct {
	pointer int
	id      string
	anchor  geometry.Point // PDF space
}

type gesture struct {
	pointer  int
	id       string
	kind     HitKind
	start    geometry.Point // view space
	startBox geometry.ViewRect
	startA   annotation.Annotation
	before   history.Snapshot
}

// Placing reports whether a drag-to-create is in progress.
func (e *Editor) Placing() bool {
	return e.placing != nil
}

// Dragging reports whether a move or resize is in progress.
func (e *Editor) Dragging() bool {
	return e.gesture != nil
}

// Classify returns what a press at the view point grabs on box when no
// explicit handle was hit. Corners win over edges.
func Classify(box geometry.ViewRect, x, y float64) HitKind {
	vx, vy := x-box.Left, y-box.Top
	nearL := vx <= EdgeThreshold
	nearR := vx >= box.Width-EdgeThreshold
	nearT := vy <= EdgeThreshold
	nearB := vy >= box.Height-EdgeThreshold
	switch {
	case nearR && nearB:
		return HitResizeSE
	case nearR && nearT:
		return HitResizeNE
	case nearL && nearT:
		return HitResizeNW
	case nearL && nearB:
		return HitResizeSW
	case nearR:
		return HitResizeE
	case nearL:
		return HitResizeW
	case nearT:
		return HitResizeN
	case nearB:
		return HitResizeS
	}
	return HitMove
}

// PointerDown handles a press. On the background it starts a placement
// when a drawing tool is active and clears the selection otherwise. On an
// annotation it selects it and may start a move or resize.
func (e *Editor) PointerDown(ev PointerEvent) {
	if e.src == nil || e.placing != nil || e.gesture != nil {
		return
	}
	if ev.Target == "" {
		if e.text != nil {
			e.CommitText()
		}
		switch e.tool {
		case ToolHighlight, ToolText:
			e.startPlacement(ev)
		default:
			e.selected, e.editing = "", ""
		}
		return
	}

	a, ok := e.store.Get(ev.Target)
	if !ok || a.PageIndex != e.pageIndex {
		return
	}
	if e.text != nil && e.text.id != a.ID {
		e.CommitText()
	}
	e.selected = a.ID

	page := e.pages[e.pageIndex]
	box := geometry.RectToView(a.Rect(), page, e.zoom)
	kind := ev.Handle
	explicit := kind != HitNone
	if !explicit {
		kind = Classify(box, ev.X, ev.Y)
	}
	if !kind.resize() {
		// typing and selecting text happen inside the box
		if e.editing == a.ID {
			return
		}
		if a.Type == annotation.Text && !explicit {
			return
		}
	}
	e.gesture = &gesture{
		pointer:  ev.ID,
		id:       a.ID,
		kind:     kind,
		start:    geometry.Point{X: ev.X, Y: ev.Y},
		startBox: box,
		startA:   a,
		before:   e.Snapshot(),
	}
}

// PointerMove follows the pointer during a placement or gesture.
func (e *Editor) PointerMove(ev PointerEvent) {
	switch {
	case e.placing != nil && ev.ID == e.placing.pointer:
		e.updatePlacement(ev)
	case e.gesture != nil && ev.ID == e.gesture.pointer:
		e.updateGesture(ev)
	}
}

// PointerUp ends a placement or gesture at the release point.
func (e *Editor) PointerUp(ev PointerEvent) {
	switch {
	case e.placing != nil && ev.ID == e.placing.pointer:
		e.updatePlacement(ev)
		e.endPlacement()
	case e.gesture != nil && ev.ID == e.gesture.pointer:
		e.updateGesture(ev)
		e.endGesture()
	}
}

func (e *Editor) startPlacement(ev PointerEvent) {
	t := annotation.Highlight
	if e.tool == ToolText {
		t = annotation.Text
	}
	page := e.pages[e.pageIndex]
	anchor := geometry.ViewPointToPDF(ev.X, ev.Y, page, e.zoom)
	var id string
	err := e.Mutate(func() error {
		id = e.store.Create(e.pageIndex, t, geometry.Rect{X: anchor.X, Y: anchor.Y}, annotation.Patch{})
		return nil
	})
	if err != nil {
		return
	}
	e.placing = &placement{pointer: ev.ID, id: id, anchor: anchor}
	e.selected, e.editing = id, ""
}

func (e *Editor) updatePlacement(ev PointerEvent) {
	page := e.pages[e.pageIndex]
	p := geometry.ViewPointToPDF(ev.X, ev.Y, page, e.zoom)
	a := e.placing.anchor
	r := geometry.Rect{
		X: min(a.X, p.X),
		Y: min(a.Y, p.Y),
		W: max(a.X, p.X) - min(a.X, p.X),
		H: max(a.Y, p.Y) - min(a.Y, p.Y),
	}
	e.store.Update(e.placing.id, annotation.RectPatch(r))
}

// endPlacement grows the new annotation to its minimum size, selects it
// and returns to the select tool. New text opens for editing.
func (e *Editor) endPlacement() {
	id := e.placing.id
	e.placing = nil
	a, ok := e.store.Get(id)
	if !ok {
		return
	}
	annotation.ClampMin(&a)
	e.store.Update(id, annotation.RectPatch(a.Rect()))
	e.selected = id
	e.tool = ToolSelect
	if a.Type == annotation.Text {
		e.BeginTextEdit(id)
	}
}

func (e *Editor) updateGesture(ev PointerEvent) {
	g := e.gesture
	page := e.pages[g.startA.PageIndex]
	dx, dy := ev.X-g.start.X, ev.Y-g.start.Y

	if !g.kind.resize() {
		d := geometry.ViewDeltaToPDFDelta(dx, dy, page, e.zoom)
		x := clamp(g.startA.X+d.X, 0, page.Width-g.startA.Width)
		y := clamp(g.startA.Y+d.Y, 0, page.Height-g.startA.Height)
		e.store.Update(g.id, annotation.Patch{X: &x, Y: &y})
		return
	}

	minW, minH := annotation.MinSize(g.startA.Type)
	minView := geometry.PDFSizeToView(minW, minH, page, e.zoom)
	view := geometry.ViewSize(page, e.zoom)

	b := g.startBox
	left, top := b.Left, b.Top
	right, bottom := b.Left+b.Width, b.Top+b.Height
	// the minimum box must fit inside the page on the axes being resized
	if g.kind.has('e') || g.kind.has('w') {
		left = min(left, max(0, view.Width-minView.Width))
		right = min(right, view.Width)
	}
	if g.kind.has('n') || g.kind.has('s') {
		top = min(top, max(0, view.Height-minView.Height))
		bottom = min(bottom, view.Height)
	}
	if g.kind.has('e') {
		right = clamp(right+dx, left+minView.Width, view.Width)
	}
	if g.kind.has('w') {
		left = clamp(left+dx, 0, right-minView.Width)
	}
	if g.kind.has('s') {
		bottom = clamp(bottom+dy, top+minView.Height, view.Height)
	}
	if g.kind.has('n') {
		top = clamp(top+dy, 0, bottom-minView.Height)
	}
	r := geometry.ViewRectToPDF(geometry.ViewRect{Left: left, Top: top, Width: right - left, Height: bottom - top}, page, e.zoom)
	e.store.Update(g.id, annotation.RectPatch(r))
}

// releasePointer ends a placement or gesture in progress as if the pointer
// had been released where it last moved.
func (e *Editor) releasePointer() {
	if e.placing != nil {
		e.endPlacement()
	}
	if e.gesture != nil {
		e.endGesture()
	}
}

// endGesture records the gesture as one undoable step if it changed the
// annotation.
func (e *Editor) endGesture() {
	g := e.gesture
	e.gesture = nil
	a, ok := e.store.Get(g.id)
	if !ok {
		return
	}
	annotation.ClampMin(&a)
	e.store.Update(g.id, annotation.RectPatch(a.Rect()))
	if a.Rect() != g.startA.Rect() {
		e.history.Commit(g.before)
	}
}

// clamp limits v to [lo, hi]. When the range is empty lo wins.
func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
