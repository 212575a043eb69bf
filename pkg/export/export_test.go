package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/novvoo/go-pdfannotate/pkg/annotation"
	"github.com/novvoo/go-pdfannotate/pkg/editor"
	"github.com/novvoo/go-pdfannotate/pkg/geometry"
	"github.com/novvoo/go-pdfannotate/pkg/history"
	"github.com/novvoo/go-pdfannotate/pkg/pdf"
)

var approx = cmpopts.EquateApprox(0, 1e-6)

// sourcePDF builds a real PDF with blank pages of the given sizes and opens
// it without an external renderer.
func sourcePDF(t *testing.T, sizes ...geometry.Size) *pdf.Document {
	t.Helper()
	w := pdf.NewImageWriter()
	for _, s := range sizes {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, int(s.Width), int(s.Height)))); err != nil {
			t.Fatal(err)
		}
		if err := w.AddImagePage(s.Width, s.Height, pdf.EncodedImage{Format: pdf.PNG, Data: buf.Bytes()}); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	doc, err := pdf.NewDocument(buf.Bytes(), pdf.WithRasterizer(pdf.BlankRasterizer{}))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { doc.Close() })
	return doc
}

func pageSizes(t *testing.T, data []byte) []pdf.PageInfo {
	t.Helper()
	doc, err := pdf.NewDocument(data, pdf.WithRasterizer(pdf.BlankRasterizer{}))
	if err != nil {
		t.Fatalf("exported file does not parse: %v", err)
	}
	defer doc.Close()
	var out []pdf.PageInfo
	for n := 1; n <= doc.NumPages(); n++ {
		info, _ := doc.PageSize(n)
		out = append(out, info)
	}
	return out
}

type fill struct {
	box  geometry.ViewRect
	mode BlendMode
}

// recordingCanvas remembers fills and forwards everything to a raster
// canvas.
type recordingCanvas struct {
	*RasterCanvas
	fills *[]fill
}

func (c recordingCanvas) FillRect(r geometry.ViewRect, col color.Color, mode BlendMode) {
	*c.fills = append(*c.fills, fill{r, mode})
	c.RasterCanvas.FillRect(r, col, mode)
}

func TestEndToEndRotatedExport(t *testing.T) {
	src := sourcePDF(t, geometry.Size{Width: 200, Height: 300}, geometry.Size{Width: 200, Height: 300})
	e := editor.New()
	if err := e.Load(src); err != nil {
		t.Fatal(err)
	}
	id, err := e.AddHighlight()
	if err != nil {
		t.Fatal(err)
	}
	if err := e.UpdateSelected(annotation.RectPatch(geometry.Rect{X: 40, Y: 40, W: 50, H: 20})); err != nil {
		t.Fatal(err)
	}
	if err := e.RotateLeft(); err != nil {
		t.Fatal(err)
	}

	page, _ := e.CurrentPage()
	box, _ := e.ViewBox(id)
	want := geometry.ViewRect{Left: page.Height - (40 + 20), Top: page.Width - (40 + 50), Width: 20, Height: 50}
	if d := cmp.Diff(want, box, approx); d != "" {
		t.Errorf("view box after rotation (-want +got):\n%s", d)
	}

	c, err := NewCompositor(Options{Scale: 2, Format: PNG})
	if err != nil {
		t.Fatal(err)
	}
	var fills []fill
	c.SetCanvas(func(img *image.RGBA) Canvas {
		return recordingCanvas{NewRasterCanvas(img, nil), &fills}
	})

	var out bytes.Buffer
	report, err := c.Export(context.Background(), src, e.Snapshot(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if report.Pages != 2 || len(report.Failed) != 0 {
		t.Errorf("report %+v", report)
	}

	wantSizes := []pdf.PageInfo{{Width: 300, Height: 200}, {Width: 200, Height: 300}}
	if d := cmp.Diff(wantSizes, pageSizes(t, out.Bytes()), approx); d != "" {
		t.Errorf("output page sizes (-want +got):\n%s", d)
	}

	wantFills := []fill{{geometry.ViewRect{Left: 480, Top: 220, Width: 40, Height: 100}, BlendMultiply}}
	if d := cmp.Diff(wantFills, fills, approx, cmp.AllowUnexported(fill{})); d != "" {
		t.Errorf("highlight fills (-want +got):\n%s", d)
	}
}

type flakySource struct {
	pages    []pdf.PageInfo
	fail     map[int]bool // page numbers that fail to render
	calls    []int
	onRender func(n int)
}

func (s *flakySource) NumPages() int { return len(s.pages) }

func (s *flakySource) PageSize(n int) (pdf.PageInfo, error) { return s.pages[n-1], nil }

func (s *flakySource) RenderPage(ctx context.Context, n int, vp pdf.Viewport) (*image.RGBA, error) {
	s.calls = append(s.calls, n)
	if s.onRender != nil {
		s.onRender(n)
	}
	if s.fail[n] {
		return nil, fmt.Errorf("corrupt content stream")
	}
	return pdf.BlankRasterizer{}.Rasterize(ctx, nil, n, s.pages[n-1], vp)
}

func (s *flakySource) Fingerprint() string { return "flaky" }

func flaky(n int, fail ...int) *flakySource {
	s := &flakySource{fail: make(map[int]bool)}
	for i := 0; i < n; i++ {
		s.pages = append(s.pages, pdf.PageInfo{Width: 100, Height: 100})
	}
	for _, f := range fail {
		s.fail[f] = true
	}
	return s
}

func snapshotOf(src pdf.Source) history.Snapshot {
	var s history.Snapshot
	for i := 0; i < src.NumPages(); i++ {
		info, _ := src.PageSize(i + 1)
		s.Pages = append(s.Pages, info.Page(i))
	}
	return s
}

func TestFailedPageIsReported(t *testing.T) {
	src := flaky(3, 2)
	c, _ := NewCompositor(Options{Scale: 1})

	var out bytes.Buffer
	report, err := c.Export(context.Background(), src, snapshotOf(src), &out)
	if err != nil {
		t.Fatal(err)
	}
	if report.Pages != 2 || len(report.Failed) != 1 {
		t.Fatalf("report %+v", report)
	}
	var pe *PageError
	if !errors.As(report.Err(), &pe) || pe.Page != 2 || pe.Index != 1 {
		t.Errorf("page error %v", report.Err())
	}
	if got := len(pageSizes(t, out.Bytes())); got != 2 {
		t.Errorf("output has %d pages, want 2", got)
	}
}

func TestBadImageFailsOnlyItsPage(t *testing.T) {
	src := flaky(2)
	snap := snapshotOf(src)
	snap.Annotations = []annotation.Annotation{
		{ID: "broken", PageIndex: 0, Type: annotation.Image, X: 10, Y: 10, Width: 20, Height: 20, ImageData: []byte("junk")},
	}
	c, _ := NewCompositor(Options{Scale: 1, Format: PNG})
	report, err := c.Export(context.Background(), src, snap, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if report.Pages != 1 || len(report.Failed) != 1 || report.Failed[0].Page != 1 {
		t.Errorf("report %+v", report)
	}
	if !errors.Is(report.Err(), annotation.ErrBadImage) {
		t.Errorf("page error %v, want ErrBadImage", report.Err())
	}
}

func TestNothingExported(t *testing.T) {
	src := flaky(2, 1, 2)
	c, _ := NewCompositor(Options{})
	var out bytes.Buffer
	_, err := c.Export(context.Background(), src, snapshotOf(src), &out)
	if !errors.Is(err, ErrNothingExported) {
		t.Errorf("error %v, want ErrNothingExported", err)
	}
	if out.Len() != 0 {
		t.Error("a failed export wrote output")
	}
}

func TestExportCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := flaky(5)
	src.onRender = func(n int) {
		if n == 2 {
			cancel()
		}
	}
	c, _ := NewCompositor(Options{Scale: 1})
	var out bytes.Buffer
	_, err := c.Export(ctx, src, snapshotOf(src), &out)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error %v, want context.Canceled", err)
	}
	if d := cmp.Diff([]int{1, 2}, src.calls); d != "" {
		t.Errorf("rendered pages after cancel (-want +got):\n%s", d)
	}
	if out.Len() != 0 {
		t.Error("a cancelled export wrote output")
	}
}

func TestExportFollowsPageSequence(t *testing.T) {
	src := flaky(3)
	snap := snapshotOf(src)
	snap.Pages = []geometry.Page{snap.Pages[2], snap.Pages[0]}
	c, _ := NewCompositor(Options{Scale: 1})
	if _, err := c.Export(context.Background(), src, snap, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]int{3, 1}, src.calls); d != "" {
		t.Errorf("rendered pages (-want +got):\n%s", d)
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"defaults", Options{}, true},
		{"scale 3 png", Options{Scale: 3, Format: PNG}, true},
		{"low quality", Options{Quality: 0.1}, true},
		{"negative scale", Options{Scale: -1}, false},
		{"huge scale", Options{Scale: 100}, false},
		{"quality too low", Options{Quality: 0.05}, false},
		{"quality too high", Options{Quality: 1.5}, false},
		{"unknown format", Options{Format: "gif"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v", err)
			}
			if err != nil && !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("error %v does not wrap ErrInvalidOptions", err)
			}
		})
	}

	c, err := NewCompositor(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if o := c.Options(); o.Scale != DefaultScale || o.Format != JPEG || o.Quality != 1 || o.Logger == nil {
		t.Errorf("defaults %+v", o)
	}

	for in, want := range map[string]Format{"jpg": JPEG, "JPEG": JPEG, "png": PNG} {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("tiff"); err == nil {
		t.Error("ParseFormat(tiff) succeeded")
	}
}
