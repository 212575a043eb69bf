// Package history implements snapshot based undo and redo.
package history

import (
	"slices"

	"github.com/novvoo/go-pdfannotate/pkg/annotation"
	"github.com/novvoo/go-pdfannotate/pkg/geometry"
)

// Snapshot is the undoable part of an editing session.
type Snapshot struct {
	Pages       []geometry.Page
	Annotations []annotation.Annotation
	PageIndex   int
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Pages:     slices.Clone(s.Pages),
		PageIndex: s.PageIndex,
	}
	if s.Annotations != nil {
		out.Annotations = make([]annotation.Annotation, len(s.Annotations))
		for i, a := range s.Annotations {
			out.Annotations[i] = a.Clone()
		}
	}
	return out
}

// History keeps a linear undo history. A new commit discards everything
// that could have been redone.
type History struct {
	past   []Snapshot
	future []Snapshot

	// Limit bounds the number of undo steps; 0 means unbounded.
	Limit int
}

// Commit records the state before a mutation.
func (h *History) Commit(s Snapshot) {
	h.past = append(h.past, s.Clone())
	if h.Limit > 0 && len(h.past) > h.Limit {
		h.past = slices.Delete(h.past, 0, len(h.past)-h.Limit)
	}
	h.future = nil
}

// Undo returns the state to restore. current is the state being replaced;
// it becomes available to Redo. If there is nothing to undo, Undo returns
// false and leaves the history untouched.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.past) == 0 {
		return Snapshot{}, false
	}
	s := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current.Clone())
	return s, true
}

// Redo is the mirror image of Undo.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.future) == 0 {
		return Snapshot{}, false
	}
	s := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current.Clone())
	return s, true
}

// CanUndo reports whether Undo would do something.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether Redo would do something.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Reset forgets all history, e.g. when a new document is loaded.
func (h *History) Reset() {
	h.past = nil
	h.future = nil
}
