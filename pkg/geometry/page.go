// Package geometry maps rectangles and points between PDF space and view
// space.
//
// PDF space has its origin at the bottom-left corner of the unrotated page,
// y grows upwards and units are points. View space has its origin at the
// top-left corner of the displayed (rotated and zoomed) page, y grows
// downwards and units are pixels.
package geometry

import (
	"fmt"
	"math"
)

// Page describes the geometry of one page of the loaded document.
//
// Rotation turns the displayed page counter-clockwise: at 90 the top edge
// of the page faces left. The /Rotate entry of a PDF file turns clockwise;
// use FromPDFRotate to convert.
type Page struct {
	Index    int     `json:"index" yaml:"index"` // original ordinal in the source file, never changes
	Width    float64 `json:"width" yaml:"width"` // unrotated, in points
	Height   float64 `json:"height" yaml:"height"`
	Rotation int     `json:"rotation" yaml:"rotation"` // 0, 90, 180 or 270
}

// Point is a position or a displacement.
type Point struct {
	X, Y float64
}

// Rect is a rectangle in PDF space. X, Y is the bottom-left corner.
type Rect struct {
	X, Y, W, H float64
}

// ViewRect is a rectangle in view space. Left, Top is the top-left corner.
type ViewRect struct {
	Left, Top, Width, Height float64
}

// Size is a width/height pair.
type Size struct {
	Width, Height float64
}

// Center returns the centre of the view rectangle.
func (v ViewRect) Center() Point {
	return Point{X: v.Left + v.Width/2, Y: v.Top + v.Height/2}
}

// Contains reports whether the view point lies inside v, edges included.
func (v ViewRect) Contains(x, y float64) bool {
	return x >= v.Left && x <= v.Left+v.Width && y >= v.Top && y <= v.Top+v.Height
}

// NormalizeRotation maps any angle to the range [0, 360).
func NormalizeRotation(r int) int {
	return ((r % 360) + 360) % 360
}

// FromPDFRotate converts a clockwise /Rotate value into a Page rotation.
func FromPDFRotate(rotate int) int {
	return NormalizeRotation(-rotate)
}

// Rotated returns a copy of p rotated by delta degrees.
func (p Page) Rotated(delta int) Page {
	p.Rotation = NormalizeRotation(p.Rotation + delta)
	return p
}

// ViewSize returns the size of the displayed page. Width and height swap
// when the page is turned on its side.
func ViewSize(page Page, zoom float64) Size {
	checkZoom(zoom)
	switch rotation(page) {
	case 90, 270:
		return Size{Width: page.Height * zoom, Height: page.Width * zoom}
	default:
		return Size{Width: page.Width * zoom, Height: page.Height * zoom}
	}
}

func rotation(page Page) int {
	r := NormalizeRotation(page.Rotation)
	if r%90 != 0 {
		panic(fmt.Sprintf("geometry: page rotation %d is not a multiple of 90", page.Rotation))
	}
	return r
}

func checkZoom(zoom float64) {
	if !(zoom > 0) || math.IsInf(zoom, 1) {
		panic(fmt.Sprintf("geometry: invalid zoom %v", zoom))
	}
}
