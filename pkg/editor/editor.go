// Package editor is the interaction core of the annotation editor. An
// Editor owns one document session: its pages, annotations, undo history,
// zoom, tool and selection, and turns pointer and keyboard input into
// annotation changes.
//
// Every change that should be undoable goes through Editor.Mutate, which
// records the previous state before running the change.
package editor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"

	"github.com/novvoo/go-pdfannotate/pkg/annotation"
	"github.com/novvoo/go-pdfannotate/pkg/geometry"
	"github.com/novvoo/go-pdfannotate/pkg/history"
	"github.com/novvoo/go-pdfannotate/pkg/pages"
	"github.com/novvoo/go-pdfannotate/pkg/pdf"
)

// Zoom limits.
const (
	MinZoom     = 0.25
	MaxZoom     = 4.0
	DefaultZoom = 1.0
)

var (
	// ErrNoDocument is returned by operations that need a loaded document.
	ErrNoDocument = errors.New("no document loaded")
	// ErrNoSelection is returned by operations on the selected annotation
	// when nothing is selected.
	ErrNoSelection = errors.New("no annotation selected")
)

// Tool is the active pointer tool.
type Tool string

// Tools.
const (
	ToolSelect    Tool = "select"
	ToolHighlight Tool = "highlight"
	ToolText      Tool = "text"
)

// Editor is a single editing session. It is not safe for concurrent use;
// all calls are expected to come from one event loop.
type Editor struct {
	src       pdf.Source
	pages     []geometry.Page
	store     *annotation.Store
	history   history.History
	pageIndex int
	zoom      float64
	tool      Tool
	selected  string
	editing   string

	placing *placement
	gesture *gesture
	text    *textSession

	mac    bool
	thumbs *pdf.ThumbnailCache
	logger *slog.Logger
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger for session events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithMacShortcuts makes Cmd instead of Ctrl the shortcut modifier.
func WithMacShortcuts(mac bool) Option {
	return func(e *Editor) { e.mac = mac }
}

// WithHistoryLimit bounds the number of undo steps.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) { e.history.Limit = n }
}

// WithThumbnailCache shares a thumbnail cache with the page manager.
func WithThumbnailCache(c *pdf.ThumbnailCache) Option {
	return func(e *Editor) { e.thumbs = c }
}

// New returns an editor without a document.
func New(opts ...Option) *Editor {
	e := &Editor{
		store: annotation.NewStore(),
		zoom:  DefaultZoom,
		tool:  ToolSelect,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.thumbs == nil {
		e.thumbs = pdf.NewThumbnailCache(0)
	}
	return e
}

// Load replaces the session with a new document. On error the current
// session is left untouched.
func (e *Editor) Load(src pdf.Source) error {
	n := src.NumPages()
	if n < 1 {
		return fmt.Errorf("load: %w: document has no pages", pdf.ErrInvalidPDF)
	}
	pages := make([]geometry.Page, n)
	for i := range pages {
		info, err := src.PageSize(i + 1)
		if err != nil {
			return fmt.Errorf("load page %d: %w", i+1, err)
		}
		if !(info.Width > 0) || !(info.Height > 0) {
			return fmt.Errorf("load page %d: %w: empty page", i+1, pdf.ErrInvalidPDF)
		}
		pages[i] = info.Page(i)
	}

	e.src = src
	e.pages = pages
	e.store = annotation.NewStore()
	e.history.Reset()
	e.pageIndex = 0
	e.zoom = DefaultZoom
	e.tool = ToolSelect
	e.selected, e.editing = "", ""
	e.placing, e.gesture, e.text = nil, nil, nil
	e.thumbs.Invalidate()

	e.logger.Info("document loaded", "pages", n)
	return nil
}

// Document returns the loaded document, or nil.
func (e *Editor) Document() pdf.Source {
	return e.src
}

// Loaded reports whether a document is open.
func (e *Editor) Loaded() bool {
	return e.src != nil
}

// Mutate runs fn as one undoable step. The state before fn is committed to
// the history only if fn succeeds; on error the state is rolled back. A
// placement or gesture in progress is ended and recorded first.
func (e *Editor) Mutate(fn func() error) error {
	if e.src == nil {
		return ErrNoDocument
	}
	e.releasePointer()
	before := e.Snapshot()
	if err := fn(); err != nil {
		e.restore(before)
		return err
	}
	e.history.Commit(before)
	return nil
}

// Snapshot returns a deep copy of the undoable state.
func (e *Editor) Snapshot() history.Snapshot {
	return history.Snapshot{
		Pages:       slices.Clone(e.pages),
		Annotations: e.store.All(),
		PageIndex:   e.pageIndex,
	}
}

func (e *Editor) restore(s history.Snapshot) {
	e.pages = slices.Clone(s.Pages)
	e.store.Replace(s.Annotations)
	e.pageIndex = max(0, min(s.PageIndex, len(e.pages)-1))
	if _, ok := e.store.Get(e.selected); !ok {
		e.selected = ""
	}
	if _, ok := e.store.Get(e.editing); !ok {
		e.editing = ""
		e.text = nil
	}
}

// Undo restores the state before the last change. It reports false when
// there is nothing to undo.
func (e *Editor) Undo() bool {
	e.abortInteraction()
	s, ok := e.history.Undo(e.Snapshot())
	if !ok {
		return false
	}
	e.restore(s)
	return true
}

// Redo reapplies the last undone change.
func (e *Editor) Redo() bool {
	e.abortInteraction()
	s, ok := e.history.Redo(e.Snapshot())
	if !ok {
		return false
	}
	e.restore(s)
	return true
}

// CanUndo reports whether Undo would do something.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo would do something.
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// abortInteraction drops any gesture or text edit in progress without
// recording it.
func (e *Editor) abortInteraction() {
	if e.gesture != nil {
		e.store.Replace(e.gesture.before.Annotations)
		e.gesture = nil
	}
	e.placing = nil
	if e.text != nil {
		e.CancelText()
	}
}

// Pages returns a copy of the live page sequence.
func (e *Editor) Pages() []geometry.Page {
	return slices.Clone(e.pages)
}

// PageIndex returns the position of the current page.
func (e *Editor) PageIndex() int {
	return e.pageIndex
}

// CurrentPage returns the current page.
func (e *Editor) CurrentPage() (geometry.Page, bool) {
	if e.src == nil {
		return geometry.Page{}, false
	}
	return e.pages[e.pageIndex], true
}

// SetPage makes page i current.
func (e *Editor) SetPage(i int) error {
	if e.src == nil {
		return ErrNoDocument
	}
	if i < 0 || i >= len(e.pages) {
		return fmt.Errorf("page %d out of range [0,%d)", i, len(e.pages))
	}
	if i != e.pageIndex {
		e.finishInteraction()
		e.pageIndex = i
	}
	return nil
}

// NextPage moves to the next page, if any.
func (e *Editor) NextPage() bool {
	return e.SetPage(e.pageIndex+1) == nil
}

// PrevPage moves to the previous page, if any.
func (e *Editor) PrevPage() bool {
	return e.SetPage(e.pageIndex-1) == nil
}

// finishInteraction ends gestures and commits a pending text edit, as
// happens when the view changes under the pointer.
func (e *Editor) finishInteraction() {
	e.releasePointer()
	if e.text != nil {
		e.CommitText()
	}
}

// Zoom returns the view zoom.
func (e *Editor) Zoom() float64 {
	return e.zoom
}

// SetZoom sets the view zoom, clamped to [MinZoom, MaxZoom], and returns
// the value in effect.
func (e *Editor) SetZoom(z float64) float64 {
	if math.IsNaN(z) {
		return e.zoom
	}
	z = max(MinZoom, min(MaxZoom, z))
	if z != e.zoom {
		e.finishInteraction()
		e.zoom = z
	}
	return e.zoom
}

// RotateLeft turns the current page a quarter turn counter-clockwise.
func (e *Editor) RotateLeft() error {
	return e.rotate(90)
}

// RotateRight turns the current page a quarter turn clockwise.
func (e *Editor) RotateRight() error {
	return e.rotate(-90)
}

func (e *Editor) rotate(delta int) error {
	e.finishInteraction()
	return e.Mutate(func() error {
		e.pages[e.pageIndex] = e.pages[e.pageIndex].Rotated(delta)
		return nil
	})
}

// EditPages opens a staged page edit of the live sequence. Apply it with
// ApplyPageEdit.
func (e *Editor) EditPages() (*pages.Manager, error) {
	if e.src == nil {
		return nil, ErrNoDocument
	}
	return pages.Open(e.pages, pages.WithThumbnails(e.src, e.thumbs)), nil
}

// ApplyPageEdit commits a staged page edit as one undoable step.
func (e *Editor) ApplyPageEdit(m *pages.Manager) error {
	e.finishInteraction()
	err := e.Mutate(func() error {
		order, kept, err := m.Apply(e.store.All())
		if err != nil {
			return err
		}
		e.pages = order
		e.store.Replace(kept)
		e.pageIndex = max(0, min(e.pageIndex, len(e.pages)-1))
		return nil
	})
	if err != nil {
		return err
	}
	if _, ok := e.store.Get(e.selected); !ok {
		e.selected = ""
	}
	e.logger.Debug("pages applied", "pages", len(e.pages), "annotations", e.store.Len())
	return nil
}
