// Package pdf loads, rasterizes and writes PDF files for the annotation
// editor.
package pdf

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/crypto/blake2b"

	"github.com/novvoo/go-pdfannotate/pkg/geometry"
)

// ErrInvalidPDF is returned when the input cannot be parsed as a PDF.
var ErrInvalidPDF = errors.New("invalid PDF")

// Default page size used when a page has no MediaBox (US Letter).
const (
	defaultPageWidth  = 612
	defaultPageHeight = 792
)

// PageInfo is the intrinsic geometry of a page.
type PageInfo struct {
	Width  float64 // unrotated, in points
	Height float64
	Rotate int // /Rotate of the page, clockwise
}

// Page converts the info into the editor's page model.
func (p PageInfo) Page(index int) geometry.Page {
	return geometry.Page{
		Index:    index,
		Width:    p.Width,
		Height:   p.Height,
		Rotation: geometry.FromPDFRotate(p.Rotate),
	}
}

// Source is the narrow view of a loaded document used by the editor and
// the export compositor. Page numbers are 1-based.
type Source interface {
	NumPages() int
	PageSize(n int) (PageInfo, error)
	RenderPage(ctx context.Context, n int, vp Viewport) (*image.RGBA, error)
	Fingerprint() string
}

// Document is a PDF file parsed with pdfcpu.
type Document struct {
	data        []byte
	pages       []PageInfo
	fingerprint string
	rasterizer  Rasterizer

	mu      sync.Mutex
	tmpPath string
}

// Option configures a Document.
type Option func(*Document)

// WithRasterizer selects how pages are turned into pixels.
func WithRasterizer(r Rasterizer) Option {
	return func(d *Document) { d.rasterizer = r }
}

// Open reads and parses a PDF file.
func Open(filename string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewDocument(data, opts...)
}

// NewDocument parses PDF data. The page sizes are read once; rendering
// happens on demand.
func NewDocument(data []byte, opts ...Option) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidPDF)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if ctx.PageCount < 1 {
		return nil, fmt.Errorf("%w: document has no pages", ErrInvalidPDF)
	}

	pages := make([]PageInfo, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		_, _, attrs, err := ctx.PageDict(i, false)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrInvalidPDF, i, err)
		}
		info := PageInfo{Width: defaultPageWidth, Height: defaultPageHeight}
		if attrs != nil {
			if attrs.MediaBox != nil {
				info.Width = attrs.MediaBox.Width()
				info.Height = attrs.MediaBox.Height()
			}
			info.Rotate = geometry.NormalizeRotation(attrs.Rotate)
		}
		pages[i-1] = info
	}

	sum := blake2b.Sum256(data)
	doc := &Document{
		data:        data,
		pages:       pages,
		fingerprint: hex.EncodeToString(sum[:]),
	}
	for _, opt := range opts {
		opt(doc)
	}
	if doc.rasterizer == nil {
		doc.rasterizer = DefaultRasterizer()
	}
	return doc, nil
}

// NumPages returns the number of pages.
func (d *Document) NumPages() int {
	return len(d.pages)
}

// PageSize returns the geometry of page n (1-based).
func (d *Document) PageSize(n int) (PageInfo, error) {
	if n < 1 || n > len(d.pages) {
		return PageInfo{}, fmt.Errorf("page %d out of range", n)
	}
	return d.pages[n-1], nil
}

// Pages returns the editor page model for every page.
func (d *Document) Pages() []geometry.Page {
	out := make([]geometry.Page, len(d.pages))
	for i, p := range d.pages {
		out[i] = p.Page(i)
	}
	return out
}

// RenderPage rasterizes page n (1-based).
func (d *Document) RenderPage(ctx context.Context, n int, vp Viewport) (*image.RGBA, error) {
	info, err := d.PageSize(n)
	if err != nil {
		return nil, err
	}
	if !(vp.Scale > 0) {
		return nil, fmt.Errorf("invalid render scale %v", vp.Scale)
	}
	return d.rasterizer.Rasterize(ctx, d, n, info, vp)
}

// Fingerprint identifies the file contents.
func (d *Document) Fingerprint() string {
	return d.fingerprint
}

// Data returns the raw file bytes.
func (d *Document) Data() []byte {
	return d.data
}

// file returns a path holding the document bytes, for external tools.
func (d *Document) file() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tmpPath != "" {
		return d.tmpPath, nil
	}
	f, err := os.CreateTemp("", "pdfannotate-*.pdf")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(d.data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	d.tmpPath = f.Name()
	return d.tmpPath, nil
}

// Close releases temporary files.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tmpPath == "" {
		return nil
	}
	err := os.Remove(d.tmpPath)
	d.tmpPath = ""
	return err
}
