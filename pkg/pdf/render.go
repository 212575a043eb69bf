package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/novvoo/go-pdfannotate/pkg/geometry"
)

// Viewport selects the resolution and orientation of a rendered page.
// Rotation uses the editor's convention, see geometry.Page.
type Viewport struct {
	Scale    float64 // pixels per point
	Rotation int
}

// Size returns the pixel dimensions of the page rendered through vp.
func (vp Viewport) Size(info PageInfo) (width, height int) {
	page := geometry.Page{Width: info.Width, Height: info.Height, Rotation: vp.Rotation}
	s := geometry.ViewSize(page, vp.Scale)
	return int(math.Ceil(s.Width - 1e-9)), int(math.Ceil(s.Height - 1e-9))
}

// Rasterizer turns one page of a document into pixels. The result must be
// laid out exactly as geometry.PDFToView places the page for the viewport,
// so that annotations line up with the content.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc *Document, n int, info PageInfo, vp Viewport) (*image.RGBA, error)
}

// DefaultRasterizer returns a poppler based rasterizer when pdftoppm is
// installed and a blank one otherwise.
func DefaultRasterizer() Rasterizer {
	if path, err := exec.LookPath("pdftoppm"); err == nil {
		return &PopplerRasterizer{Command: path}
	}
	return BlankRasterizer{}
}

// BlankRasterizer renders every page as a white sheet of the right size.
type BlankRasterizer struct{}

// Rasterize implements Rasterizer.
func (BlankRasterizer) Rasterize(ctx context.Context, _ *Document, _ int, info PageInfo, vp Viewport) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h := vp.Size(info)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img, nil
}

// PopplerRasterizer renders pages with poppler's pdftoppm.
type PopplerRasterizer struct {
	Command string // path of pdftoppm; looked up in PATH when empty
}

// ErrRasterizer is returned when the external renderer fails.
var ErrRasterizer = errors.New("rasterizer failed")

// Rasterize implements Rasterizer. pdftoppm honours the page's /Rotate, so
// the result is turned from that orientation into the requested one.
func (r *PopplerRasterizer) Rasterize(ctx context.Context, doc *Document, n int, info PageInfo, vp Viewport) (*image.RGBA, error) {
	path, err := doc.file()
	if err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp("", "pdfannotate-render-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	command := r.Command
	if command == "" {
		command = "pdftoppm"
	}
	root := filepath.Join(dir, "page")
	page := strconv.Itoa(n)
	cmd := exec.CommandContext(ctx, command,
		"-f", page, "-l", page,
		"-r", strconv.FormatFloat(72*vp.Scale, 'f', -1, 64),
		"-png", "-singlefile",
		path, root)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: page %d: %v: %s", ErrRasterizer, n, err, out)
	}

	f, err := os.Open(root + ".png")
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrRasterizer, n, err)
	}
	defer f.Close()
	src, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrRasterizer, n, err)
	}

	from := geometry.Page{Width: info.Width, Height: info.Height, Rotation: geometry.FromPDFRotate(info.Rotate)}
	to := from
	to.Rotation = vp.Rotation
	return Reorient(src, from, to, vp.Scale), nil
}

// Reorient redraws a page raster laid out for page from as the raster for
// page to. Both pages must describe the same sheet; only the rotation may
// differ.
func Reorient(src image.Image, from, to geometry.Page, scale float64) *image.RGBA {
	s := geometry.ViewSize(to, scale)
	dst := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(s.Width-1e-9)), int(math.Ceil(s.Height-1e-9))))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	m := geometry.ViewToPDF(from, scale).Mul(geometry.PDFToView(to, scale))
	b := src.Bounds()
	// shift so that the source origin is at its bounds' corner
	m = geometry.Matrix{1, 0, 0, 1, -float64(b.Min.X), -float64(b.Min.Y)}.Mul(m)
	draw.NearestNeighbor.Transform(dst, toAff3(m), src, b, draw.Src, nil)
	return dst
}

// toAff3 converts a geometry matrix into the row-major form used by
// x/image/draw.
func toAff3(m geometry.Matrix) f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}
