package annotation

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/novvoo/go-pdfannotate/pkg/geometry"
)

// ErrNotFound is returned for an unknown annotation id.
var ErrNotFound = errors.New("annotation not found")

// DuplicateOffset is the displacement, in points, of a duplicated
// annotation relative to its original.
const DuplicateOffset = 10

// Direction selects the end of the z-order for ReorderZ.
type Direction int

const (
	// Front moves an annotation on top of all others.
	Front Direction = iota
	// Back moves an annotation below all others.
	Back
)

// Store is the ordered collection of annotations. The order is the z-order:
// later annotations paint on top.
//
// Store does not record history. Callers that want a mutation to be
// undoable take a snapshot first.
type Store struct {
	items []Annotation
	newID func() string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{newID: randomID}
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("annotation: reading random id: %v", err))
	}
	return hex.EncodeToString(b[:])
}

// Create appends a new annotation and returns its id. The rectangle may
// have zero size; drag-to-create starts from a point.
func (s *Store) Create(pageIndex int, t Type, r geometry.Rect, defaults Patch) string {
	a := Annotation{
		ID:        s.newID(),
		PageIndex: pageIndex,
		Type:      t,
	}
	switch t {
	case Text:
		a.FontSize = DefaultFontSize
		a.Color = DefaultTextColor
	case Highlight:
		a.Color = DefaultHighlightColor
	}
	defaults.Apply(&a)
	a.SetRect(r)
	s.items = append(s.items, a)
	return a.ID
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.items, func(a Annotation) bool { return a.ID == id })
}

// Get returns a copy of the annotation with the given id.
func (s *Store) Get(id string) (Annotation, bool) {
	i := s.index(id)
	if i < 0 {
		return Annotation{}, false
	}
	return s.items[i].Clone(), true
}

// Len returns the number of annotations.
func (s *Store) Len() int {
	return len(s.items)
}

// All returns copies of all annotations in z-order.
func (s *Store) All() []Annotation {
	out := make([]Annotation, len(s.items))
	for i, a := range s.items {
		out[i] = a.Clone()
	}
	return out
}

// Replace swaps in a new set of annotations, e.g. from an undo snapshot.
func (s *Store) Replace(items []Annotation) {
	s.items = make([]Annotation, len(items))
	for i, a := range items {
		s.items[i] = a.Clone()
	}
}

// Update merges p into the annotation with the given id.
func (s *Store) Update(id string, p Patch) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	p.Apply(&s.items[i])
	return nil
}

// Delete removes the annotation with the given id.
func (s *Store) Delete(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// Duplicate clones an annotation, offsets the copy by DuplicateOffset
// points and places it directly above the original.
func (s *Store) Duplicate(id string) (string, error) {
	i := s.index(id)
	if i < 0 {
		return "", fmt.Errorf("duplicate %s: %w", id, ErrNotFound)
	}
	c := s.items[i].Clone()
	c.ID = s.newID()
	c.X += DuplicateOffset
	c.Y += DuplicateOffset
	s.items = slices.Insert(s.items, i+1, c)
	return c.ID, nil
}

// ReorderZ moves the annotation to the top or bottom of the z-order.
func (s *Store) ReorderZ(id string, dir Direction) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("reorder %s: %w", id, ErrNotFound)
	}
	a := s.items[i]
	s.items = slices.Delete(s.items, i, i+1)
	if dir == Front {
		s.items = append(s.items, a)
	} else {
		s.items = slices.Insert(s.items, 0, a)
	}
	return nil
}

// FilterByPage returns copies of the annotations on one page in z-order.
func (s *Store) FilterByPage(pageIndex int) []Annotation {
	var out []Annotation
	for _, a := range s.items {
		if a.PageIndex == pageIndex {
			out = append(out, a.Clone())
		}
	}
	return out
}

// PaintOrder returns the annotations of one page in the order they are
// painted. Highlights use a multiply blend and always go underneath text
// and images; within each group z-order is kept.
func (s *Store) PaintOrder(pageIndex int) []Annotation {
	return PaintOrder(s.FilterByPage(pageIndex))
}

// PaintOrder sorts list for painting, see Store.PaintOrder.
func PaintOrder(list []Annotation) []Annotation {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b Annotation) int {
		return paintRank(a.Type) - paintRank(b.Type)
	})
	return out
}

func paintRank(t Type) int {
	if t == Highlight {
		return 0
	}
	return 1
}

// Remap moves every annotation to the page index returned by f, dropping
// the annotation when f reports false.
func (s *Store) Remap(f func(pageIndex int) (int, bool)) {
	s.items = Remap(s.items, f)
}

// Remap applies f to the page indices of list, see Store.Remap.
func Remap(list []Annotation, f func(pageIndex int) (int, bool)) []Annotation {
	out := make([]Annotation, 0, len(list))
	for _, a := range list {
		ni, ok := f(a.PageIndex)
		if !ok {
			continue
		}
		a.PageIndex = ni
		out = append(out, a)
	}
	return out
}
