package export

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/novvoo/go-pdfannotate/pkg/geometry"
)

func whitePage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// inkBounds returns the bounding box of the non-white pixels.
func inkBounds(img *image.RGBA) image.Rectangle {
	var r image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) != (color.RGBA{255, 255, 255, 255}) {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}

func TestMultiplyKeepsDarkContent(t *testing.T) {
	img := whitePage(20, 20)
	img.SetRGBA(5, 5, color.RGBA{0, 0, 0, 255})
	c := NewRasterCanvas(img, nil)

	c.FillRect(geometry.ViewRect{Left: 2, Top: 2, Width: 10, Height: 10}, color.NRGBA{255, 235, 59, 128}, BlendMultiply)

	if got := img.RGBAAt(5, 5); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("dark pixel under highlight = %v, want black", got)
	}
	got := img.RGBAAt(8, 8)
	if got.R != 255 || got.G < 244 || got.G > 246 || got.B < 155 || got.B > 158 || got.A != 255 {
		t.Errorf("white pixel under highlight = %v, want about (255,245,157)", got)
	}
	if got := img.RGBAAt(15, 15); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pixel outside highlight = %v", got)
	}
}

func TestNormalFill(t *testing.T) {
	img := whitePage(10, 10)
	c := NewRasterCanvas(img, nil)
	c.FillRect(geometry.ViewRect{Left: -5, Top: -5, Width: 10, Height: 10}, color.RGBA{255, 0, 0, 255}, BlendNormal)
	if got := img.RGBAAt(0, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("filled pixel %v", got)
	}
	if got := img.RGBAAt(5, 5); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pixel outside fill %v", got)
	}
}

func TestDrawImage(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	// left half red, right half blue
	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	draw.Draw(src, image.Rect(0, 0, 10, 10), image.NewUniform(red), image.Point{}, draw.Src)
	draw.Draw(src, image.Rect(10, 0, 20, 10), image.NewUniform(blue), image.Point{}, draw.Src)

	box := geometry.ViewRect{Left: 10, Top: 20, Width: 80, Height: 40}
	tests := []struct {
		rotation    float64
		left, right color.RGBA
	}{
		{0, red, blue},
		{180, blue, red},
	}
	for _, tt := range tests {
		img := whitePage(100, 100)
		NewRasterCanvas(img, nil).DrawImage(box, src, tt.rotation)
		if got := img.RGBAAt(20, 40); got != tt.left {
			t.Errorf("rotation %v: left %v, want %v", tt.rotation, got, tt.left)
		}
		if got := img.RGBAAt(80, 40); got != tt.right {
			t.Errorf("rotation %v: right %v, want %v", tt.rotation, got, tt.right)
		}
		if got := img.RGBAAt(5, 5); got != (color.RGBA{255, 255, 255, 255}) {
			t.Errorf("rotation %v: pixel outside the box %v", tt.rotation, got)
		}
	}

	img := whitePage(100, 100)
	NewRasterCanvas(img, nil).DrawImage(box, src, 90)
	// turned on its side the 80x40 box covers 40x80 around the same centre
	if ink := inkBounds(img); ink.Dx() > ink.Dy() {
		t.Errorf("rotated image covers %v, want taller than wide", ink)
	}
}

func TestDrawText(t *testing.T) {
	box := geometry.ViewRect{Left: 100, Top: 100, Width: 200, Height: 60}
	black := color.NRGBA{0x11, 0x11, 0x11, 0xff}

	img := whitePage(400, 400)
	c := NewRasterCanvas(img, nil)
	if err := c.DrawText(box, "HHHHHHHH", 24, black, 0); err != nil {
		t.Fatal(err)
	}
	ink := inkBounds(img)
	if ink.Empty() {
		t.Fatal("no text drawn")
	}
	if ink.Dx() <= ink.Dy() {
		t.Errorf("text covers %v, want wider than tall", ink)
	}
	center := box.Center()
	mid := image.Pt((ink.Min.X+ink.Max.X)/2, (ink.Min.Y+ink.Max.Y)/2)
	if abs(mid.X-int(center.X)) > 3 || abs(mid.Y-int(center.Y)) > 6 {
		t.Errorf("text centred at %v, want about %v", mid, center)
	}

	img = whitePage(400, 400)
	if err := NewRasterCanvas(img, nil).DrawText(box, "HHHHHHHH", 24, black, 90); err != nil {
		t.Fatal(err)
	}
	if ink := inkBounds(img); ink.Dx() >= ink.Dy() {
		t.Errorf("rotated text covers %v, want taller than wide", ink)
	}

	img = whitePage(400, 400)
	if err := NewRasterCanvas(img, nil).DrawText(box, "H\nH\nH", 24, black, 0); err != nil {
		t.Fatal(err)
	}
	if ink := inkBounds(img); ink.Dy() < 2*24 {
		t.Errorf("three lines cover %v", ink)
	}

	img = whitePage(10, 10)
	if err := NewRasterCanvas(img, nil).DrawText(box, "", 24, black, 0); err != nil {
		t.Fatal(err)
	}
	if !inkBounds(img).Empty() {
		t.Error("empty text drew something")
	}
}

func TestFonts(t *testing.T) {
	if DefaultFont() == nil || DefaultFont() != DefaultFont() {
		t.Error("built-in font is not parsed once")
	}
	if SystemFont() == nil {
		t.Error("no fallback font")
	}
	if _, err := LoadFont(filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
		t.Error("loading a missing font succeeded")
	}
	bad := filepath.Join(t.TempDir(), "bad.ttf")
	if err := os.WriteFile(bad, []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFont(bad); err == nil {
		t.Error("loading a corrupt font succeeded")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
