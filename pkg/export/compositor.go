package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/novvoo/go-pdfannotate/pkg/annotation"
	"github.com/novvoo/go-pdfannotate/pkg/geometry"
	"github.com/novvoo/go-pdfannotate/pkg/history"
	"github.com/novvoo/go-pdfannotate/pkg/pdf"
)

// ErrNothingExported is returned when no page could be exported.
var ErrNothingExported = errors.New("no page could be exported")

// PageError is the failure of one page.
type PageError struct {
	Page  int // 1-based position in the exported sequence
	Index int // original page index in the source file
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d (orig #%d): %v", e.Page, e.Index+1, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// Report summarizes an export.
type Report struct {
	Pages  int          // pages written
	Failed []*PageError // pages left out
}

// Err joins the page failures, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failed))
	for i, e := range r.Failed {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Compositor renders pages, paints annotations on them and writes the
// result as a raster PDF.
type Compositor struct {
	opts      Options
	newCanvas func(*image.RGBA) Canvas
}

// NewCompositor validates opts and fills in defaults.
func NewCompositor(opts Options) (*Compositor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	c := &Compositor{opts: opts}
	c.newCanvas = func(img *image.RGBA) Canvas {
		return NewRasterCanvas(img, opts.Font)
	}
	return c, nil
}

// SetCanvas replaces the painting backend.
func (c *Compositor) SetCanvas(f func(*image.RGBA) Canvas) {
	c.newCanvas = f
}

// Options returns the settings in effect.
func (c *Compositor) Options() Options {
	return c.opts
}

// Export writes snap to w. Pages are processed in the order of the snapshot
// and ctx is checked between pages. A page that fails is left out and
// listed in the report; the export only fails as a whole when no page
// succeeds, when writing fails, or when ctx is done.
func (c *Compositor) Export(ctx context.Context, src pdf.Source, snap history.Snapshot, w io.Writer) (*Report, error) {
	log := c.opts.Logger
	report := &Report{}

	byPage := make([][]annotation.Annotation, len(snap.Pages))
	for _, a := range snap.Annotations {
		if a.PageIndex >= 0 && a.PageIndex < len(byPage) {
			byPage[a.PageIndex] = append(byPage[a.PageIndex], a)
		}
	}

	out := pdf.NewImageWriter()
	for i, page := range snap.Pages {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		enc, width, height, err := c.page(ctx, src, page, annotation.PaintOrder(byPage[i]))
		if err == nil {
			err = out.AddImagePage(width, height, enc)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			pe := &PageError{Page: i + 1, Index: page.Index, Err: err}
			report.Failed = append(report.Failed, pe)
			log.Warn("page skipped", "page", i+1, "err", err)
			continue
		}
		report.Pages++
		log.Debug("page exported", "page", i+1, "width", width, "height", height, "annotations", len(byPage[i]))
	}

	if report.Pages == 0 {
		if len(report.Failed) == 0 {
			return report, ErrNothingExported
		}
		return report, fmt.Errorf("%w: %w", ErrNothingExported, report.Err())
	}
	if _, err := out.WriteTo(w); err != nil {
		return report, fmt.Errorf("write pdf: %w", err)
	}
	log.Info("export finished", "pages", report.Pages, "failed", len(report.Failed),
		"scale", c.opts.Scale, "format", c.opts.Format)
	return report, nil
}

// page renders one page with its annotations and returns the encoded
// raster together with the output page size in points.
func (c *Compositor) page(ctx context.Context, src pdf.Source, page geometry.Page, list []annotation.Annotation) (pdf.EncodedImage, float64, float64, error) {
	scale := c.opts.Scale
	img, err := src.RenderPage(ctx, page.Index+1, pdf.Viewport{Scale: scale, Rotation: page.Rotation})
	if err != nil {
		return pdf.EncodedImage{}, 0, 0, fmt.Errorf("render: %w", err)
	}

	canvas := c.newCanvas(img)
	for _, a := range list {
		if err := Paint(canvas, a, page, scale); err != nil {
			return pdf.EncodedImage{}, 0, 0, err
		}
	}
	img = canvas.Image()

	var buf bytes.Buffer
	switch c.opts.Format {
	case PNG:
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: int(math.Round(c.opts.Quality * 100))})
	}
	if err != nil {
		return pdf.EncodedImage{}, 0, 0, fmt.Errorf("encode %s: %w", c.opts.Format, err)
	}

	b := img.Bounds()
	return pdf.EncodedImage{Format: c.opts.Format, Data: buf.Bytes()},
		float64(b.Dx()) / scale, float64(b.Dy()) / scale, nil
}

// Paint draws one annotation on a page raster rendered at scale. The page
// rotation is already part of the raster; the annotation's own rotation is
// applied about its box centre.
func Paint(c Canvas, a annotation.Annotation, page geometry.Page, scale float64) error {
	box := geometry.RectToView(a.Rect(), page, scale)
	switch a.Type {
	case annotation.Highlight:
		c.FillRect(box, a.Color, BlendMultiply)
	case annotation.Text:
		size := a.FontSize
		if size <= 0 {
			size = annotation.DefaultFontSize
		}
		if err := c.DrawText(box, a.Text, size*scale, a.Color, a.Rotation); err != nil {
			return fmt.Errorf("text annotation %s: %w", a.ID, err)
		}
	case annotation.Image:
		img, err := annotation.DecodeImage(a.ImageData)
		if err != nil {
			return fmt.Errorf("image annotation %s: %w", a.ID, err)
		}
		c.DrawImage(box, img, a.Rotation)
	default:
		return fmt.Errorf("annotation %s: unknown type %q", a.ID, a.Type)
	}
	return nil
}
