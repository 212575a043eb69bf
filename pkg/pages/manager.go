// Package pages stages page reordering, deletion and rotation so that the
// changes can be previewed and then applied or cancelled as a whole.
package pages

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/novvoo/go-pdfannotate/pkg/annotation"
	"github.com/novvoo/go-pdfannotate/pkg/geometry"
	"github.com/novvoo/go-pdfannotate/pkg/pdf"
)

var (
	// ErrNoPages is returned by Apply when every page was deleted.
	ErrNoPages = errors.New("document must keep at least one page")
	// ErrClosed is returned once the edit was applied or cancelled.
	ErrClosed = errors.New("page edit is closed")
	// ErrNoThumbnails is returned by Thumbnail when no source was attached.
	ErrNoThumbnails = errors.New("no thumbnail source")
)

// Manager is a staged edit of the page sequence.
type Manager struct {
	live   []geometry.Page
	order  []geometry.Page
	log    []string
	closed bool

	src   pdf.Source
	cache *pdf.ThumbnailCache
}

// Option configures a Manager.
type Option func(*Manager)

// WithThumbnails lets the manager render page previews of src through
// cache. A nil cache gets a private one.
func WithThumbnails(src pdf.Source, cache *pdf.ThumbnailCache) Option {
	return func(m *Manager) {
		if cache == nil {
			cache = pdf.NewThumbnailCache(0)
		}
		m.src, m.cache = src, cache
	}
}

// Open starts an edit of the live page sequence. live is copied.
func Open(live []geometry.Page, opts ...Option) *Manager {
	m := &Manager{
		live:  slices.Clone(live),
		order: slices.Clone(live),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Order returns the working page sequence.
func (m *Manager) Order() []geometry.Page {
	return slices.Clone(m.order)
}

// Len returns the number of pages in the working sequence.
func (m *Manager) Len() int {
	return len(m.order)
}

// Log returns a description of every staged operation, newest first.
func (m *Manager) Log() []string {
	out := slices.Clone(m.log)
	slices.Reverse(out)
	return out
}

func (m *Manager) check(indices ...int) error {
	if m.closed {
		return ErrClosed
	}
	for _, i := range indices {
		if i < 0 || i >= len(m.order) {
			return fmt.Errorf("page %d out of range [0,%d)", i, len(m.order))
		}
	}
	return nil
}

// Move moves the page at position from to position to.
func (m *Manager) Move(from, to int) error {
	if err := m.check(from, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	p := m.order[from]
	m.order = slices.Delete(m.order, from, from+1)
	m.order = slices.Insert(m.order, to, p)
	m.log = append(m.log, fmt.Sprintf("Move %d → %d", from+1, to+1))
	return nil
}

// RemoveAt deletes the page at position i.
func (m *Manager) RemoveAt(i int) error {
	if err := m.check(i); err != nil {
		return err
	}
	p := m.order[i]
	m.order = slices.Delete(m.order, i, i+1)
	m.log = append(m.log, fmt.Sprintf("Delete %d (orig #%d)", i+1, p.Index+1))
	return nil
}

// Rotate turns the page at position i by delta degrees.
func (m *Manager) Rotate(i, delta int) error {
	if err := m.check(i); err != nil {
		return err
	}
	if delta%90 != 0 {
		return fmt.Errorf("rotation %d is not a multiple of 90", delta)
	}
	m.order[i] = m.order[i].Rotated(delta)
	m.log = append(m.log, fmt.Sprintf("Rotate %d → %d°", i+1, m.order[i].Rotation))
	return nil
}

// Changed reports whether the working sequence differs from the live one
// in length, page order or rotation.
func (m *Manager) Changed() bool {
	return !slices.EqualFunc(m.order, m.live, func(a, b geometry.Page) bool {
		return a.Index == b.Index && a.Rotation == b.Rotation
	})
}

// Reset discards every staged operation.
func (m *Manager) Reset() {
	if m.closed {
		return
	}
	m.order = slices.Clone(m.live)
	m.log = nil
}

// Cancel closes the edit without changing anything.
func (m *Manager) Cancel() {
	m.closed = true
	m.order = nil
	m.log = nil
}

// Apply closes the edit and returns the new page sequence together with
// the annotations that survive it. Annotation page indices refer to the
// live sequence on input and to the new sequence on output; annotations
// whose page was deleted are dropped.
func (m *Manager) Apply(annotations []annotation.Annotation) ([]geometry.Page, []annotation.Annotation, error) {
	if m.closed {
		return nil, nil, ErrClosed
	}
	if len(m.order) == 0 {
		return nil, nil, ErrNoPages
	}

	position := make(map[int]int, len(m.order))
	for i, p := range m.order {
		position[p.Index] = i
	}
	kept := annotation.Remap(annotations, func(pageIndex int) (int, bool) {
		if pageIndex < 0 || pageIndex >= len(m.live) {
			return 0, false
		}
		ni, ok := position[m.live[pageIndex].Index]
		return ni, ok
	})

	pages := m.order
	m.closed = true
	m.order = nil
	return pages, kept, nil
}

// Thumbnail renders a preview of the page at position i, honouring its
// staged rotation.
func (m *Manager) Thumbnail(ctx context.Context, i, maxSize int) (*image.RGBA, error) {
	if err := m.check(i); err != nil {
		return nil, err
	}
	if m.src == nil {
		return nil, ErrNoThumbnails
	}
	p := m.order[i]
	return m.cache.Get(ctx, m.src, p.Index+1, p.Rotation, maxSize)
}
