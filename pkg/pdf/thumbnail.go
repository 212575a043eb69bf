package pdf

import (
	"container/list"
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/novvoo/go-pdfannotate/pkg/geometry"
)

// DefaultThumbnailEntries is the capacity of a ThumbnailCache created with
// a non-positive size.
const DefaultThumbnailEntries = 64

type thumbKey struct {
	page     int
	rotation int
	size     int
}

type thumbEntry struct {
	key thumbKey
	img *image.RGBA
}

// ThumbnailCache keeps the most recently used page thumbnails of one
// document. Asking for a thumbnail of a different document flushes it.
type ThumbnailCache struct {
	mu          sync.Mutex
	max         int
	fingerprint string
	ll          *list.List
	entries     map[thumbKey]*list.Element
}

// NewThumbnailCache returns a cache holding at most maxEntries thumbnails.
func NewThumbnailCache(maxEntries int) *ThumbnailCache {
	if maxEntries <= 0 {
		maxEntries = DefaultThumbnailEntries
	}
	return &ThumbnailCache{
		max:     maxEntries,
		ll:      list.New(),
		entries: make(map[thumbKey]*list.Element),
	}
}

// Get returns the thumbnail of page n (1-based) with the given rotation,
// scaled so that its longer side is maxSize pixels. The returned image is
// shared and must not be modified.
func (c *ThumbnailCache) Get(ctx context.Context, src Source, n, rotation, maxSize int) (*image.RGBA, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %d", maxSize)
	}
	rotation = geometry.NormalizeRotation(rotation)
	key := thumbKey{page: n, rotation: rotation, size: maxSize}

	c.mu.Lock()
	if fp := src.Fingerprint(); fp != c.fingerprint {
		c.flush()
		c.fingerprint = fp
	}
	if el, ok := c.entries[key]; ok {
		c.ll.MoveToFront(el)
		img := el.Value.(*thumbEntry).img
		c.mu.Unlock()
		return img, nil
	}
	c.mu.Unlock()

	info, err := src.PageSize(n)
	if err != nil {
		return nil, err
	}
	scale := float64(maxSize) / math.Max(info.Width, info.Height)
	img, err := src.RenderPage(ctx, n, Viewport{Scale: scale, Rotation: rotation})
	if err != nil {
		return nil, fmt.Errorf("thumbnail of page %d: %w", n, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if src.Fingerprint() != c.fingerprint {
		// flushed for another document while rendering
		return img, nil
	}
	if el, ok := c.entries[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*thumbEntry).img, nil
	}
	c.entries[key] = c.ll.PushFront(&thumbEntry{key: key, img: img})
	for c.ll.Len() > c.max {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.entries, oldest.Value.(*thumbEntry).key)
	}
	return img, nil
}

// Invalidate drops every cached thumbnail.
func (c *ThumbnailCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flush()
	c.fingerprint = ""
}

// Len returns the number of cached thumbnails.
func (c *ThumbnailCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *ThumbnailCache) flush() {
	c.ll.Init()
	clear(c.entries)
}
