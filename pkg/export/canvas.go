package export

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/novvoo/go-pdfannotate/pkg/geometry"
)

// BlendMode selects how a fill combines with the pixels below it.
type BlendMode int

const (
	// BlendNormal paints the colour over the destination.
	BlendNormal BlendMode = iota
	// BlendMultiply multiplies the destination by the colour, so dark
	// content stays readable under a highlight.
	BlendMultiply
)

// Canvas is the painting backend of the compositor. All boxes are in
// pixels of the page raster; rotations are in degrees, clockwise, about
// the box centre.
type Canvas interface {
	FillRect(r geometry.ViewRect, c color.Color, mode BlendMode)
	DrawText(box geometry.ViewRect, text string, size float64, c color.Color, rotation float64) error
	DrawImage(box geometry.ViewRect, img image.Image, rotation float64)
	Image() *image.RGBA
}

// RasterCanvas paints into an RGBA image.
type RasterCanvas struct {
	img  *image.RGBA
	font *truetype.Font
}

// NewRasterCanvas paints onto img, drawing text with f (the built-in font
// when nil).
func NewRasterCanvas(img *image.RGBA, f *truetype.Font) *RasterCanvas {
	if f == nil {
		f = DefaultFont()
	}
	return &RasterCanvas{img: img, font: f}
}

// Image returns the painted raster.
func (c *RasterCanvas) Image() *image.RGBA {
	return c.img
}

func pixelRect(r geometry.ViewRect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.Left)), int(math.Round(r.Top)),
		int(math.Round(r.Left+r.Width)), int(math.Round(r.Top+r.Height)),
	)
}

// FillRect fills r with col.
func (c *RasterCanvas) FillRect(r geometry.ViewRect, col color.Color, mode BlendMode) {
	rect := pixelRect(r).Intersect(c.img.Bounds())
	if rect.Empty() {
		return
	}
	if mode != BlendMultiply {
		draw.Draw(c.img, rect, image.NewUniform(col), image.Point{}, draw.Over)
		return
	}

	// d' = d·(1-a) + d·s·a, in 8-bit fixed point
	n := color.NRGBAModel.Convert(col).(color.NRGBA)
	a := uint32(n.A)
	var k [3]uint32
	for i, s := range [3]uint8{n.R, n.G, n.B} {
		k[i] = 255*255 - a*255 + a*uint32(s)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		i := c.img.PixOffset(rect.Min.X, y)
		for x := rect.Min.X; x < rect.Max.X; x, i = x+1, i+4 {
			for ch := 0; ch < 3; ch++ {
				d := uint32(c.img.Pix[i+ch])
				c.img.Pix[i+ch] = uint8((d*k[ch] + 255*255/2) / (255 * 255))
			}
		}
	}
}

// DrawText draws text centred in box, one line per newline, with the font
// size given in pixels. Text is not clipped to the box.
func (c *RasterCanvas) DrawText(box geometry.ViewRect, text string, size float64, col color.Color, rotation float64) error {
	if text == "" || !(size > 0) {
		return nil
	}
	face := truetype.NewFace(c.font, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	defer face.Close()

	lines := strings.Split(text, "\n")
	metrics := face.Metrics()
	lineHeight := metrics.Height
	textW := fixed.Int26_6(0)
	widths := make([]fixed.Int26_6, len(lines))
	for i, line := range lines {
		widths[i] = font.MeasureString(face, line)
		textW = max(textW, widths[i])
	}
	textH := lineHeight * fixed.Int26_6(len(lines))

	// the layer is at least as large as the box and centred on it
	w := max(int(math.Ceil(box.Width)), textW.Ceil())
	h := max(int(math.Ceil(box.Height)), textH.Ceil())
	if w <= 0 || h <= 0 {
		return nil
	}
	layer := image.NewRGBA(image.Rect(0, 0, w, h))

	fc := freetype.NewContext()
	fc.SetDPI(72)
	fc.SetFont(c.font)
	fc.SetFontSize(size)
	fc.SetHinting(font.HintingNone)
	fc.SetClip(layer.Bounds())
	fc.SetDst(layer)
	fc.SetSrc(image.NewUniform(col))

	top := (fixed.I(h) - textH) / 2
	for i, line := range lines {
		pt := fixed.Point26_6{
			X: (fixed.I(w) - widths[i]) / 2,
			Y: top + metrics.Ascent + lineHeight*fixed.Int26_6(i),
		}
		if _, err := fc.DrawString(line, pt); err != nil {
			return err
		}
	}

	center := box.Center()
	if math.Mod(rotation, 360) == 0 {
		origin := image.Pt(int(math.Round(center.X-float64(w)/2)), int(math.Round(center.Y-float64(h)/2)))
		draw.Draw(c.img, layer.Bounds().Add(origin), layer, image.Point{}, draw.Over)
		return nil
	}
	m := placement(layer.Bounds(), center, 1, 1, rotation)
	draw.BiLinear.Transform(c.img, m, layer, layer.Bounds(), draw.Over, nil)
	return nil
}

// DrawImage stretches img over box.
func (c *RasterCanvas) DrawImage(box geometry.ViewRect, img image.Image, rotation float64) {
	b := img.Bounds()
	if b.Empty() || !(box.Width > 0) || !(box.Height > 0) {
		return
	}
	if math.Mod(rotation, 360) == 0 {
		draw.BiLinear.Scale(c.img, pixelRect(box), img, b, draw.Over, nil)
		return
	}
	sx := box.Width / float64(b.Dx())
	sy := box.Height / float64(b.Dy())
	draw.BiLinear.Transform(c.img, placement(b, box.Center(), sx, sy, rotation), img, b, draw.Over, nil)
}

// placement maps the source rectangle src, scaled by sx, sy and rotated
// clockwise by deg degrees, so that its centre lands on center.
func placement(src image.Rectangle, center geometry.Point, sx, sy, deg float64) f64.Aff3 {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	cu := float64(src.Min.X) + float64(src.Dx())/2
	cv := float64(src.Min.Y) + float64(src.Dy())/2
	a00, a01 := cos*sx, -sin*sy
	a10, a11 := sin*sx, cos*sy
	return f64.Aff3{
		a00, a01, center.X - a00*cu - a01*cv,
		a10, a11, center.Y - a10*cu - a11*cv,
	}
}
