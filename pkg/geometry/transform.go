package geometry

import "math"

// Matrix is an affine map {a b c d e f}:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
type Matrix [6]float64

// Identity is the identity map.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Apply maps the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ApplyVector maps a displacement, ignoring the translation part.
func (m Matrix) ApplyVector(dx, dy float64) (float64, float64) {
	return m[0]*dx + m[2]*dy, m[1]*dx + m[3]*dy
}

// Mul returns the map that applies m first and then o.
func (m Matrix) Mul(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

// Inv returns the inverse map. It panics if m is singular.
func (m Matrix) Inv() Matrix {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-12 {
		panic("geometry: singular matrix")
	}
	return Matrix{
		m[3] / det,
		-m[1] / det,
		-m[2] / det,
		m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}
}

// PDFToView returns the map from PDF space to view space for the page at
// the given zoom. All conversions in this package derive from it.
func PDFToView(page Page, zoom float64) Matrix {
	checkZoom(zoom)
	z := zoom
	w, h := page.Width, page.Height
	switch rotation(page) {
	case 90:
		return Matrix{0, -z, -z, 0, h * z, w * z}
	case 180:
		return Matrix{-z, 0, 0, z, w * z, 0}
	case 270:
		return Matrix{0, z, z, 0, 0, 0}
	default:
		return Matrix{z, 0, 0, -z, 0, h * z}
	}
}

// ViewToPDF returns the inverse of PDFToView.
func ViewToPDF(page Page, zoom float64) Matrix {
	return PDFToView(page, zoom).Inv()
}

// RectToView converts a PDF rectangle into the view rectangle covering it.
func RectToView(r Rect, page Page, zoom float64) ViewRect {
	m := PDFToView(page, zoom)
	x0, y0 := m.Apply(r.X, r.Y)
	x1, y1 := m.Apply(r.X+r.W, r.Y+r.H)
	return ViewRect{
		Left:   math.Min(x0, x1),
		Top:    math.Min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}

// ViewRectToPDF is the inverse of RectToView.
func ViewRectToPDF(v ViewRect, page Page, zoom float64) Rect {
	m := ViewToPDF(page, zoom)
	x0, y0 := m.Apply(v.Left, v.Top)
	x1, y1 := m.Apply(v.Left+v.Width, v.Top+v.Height)
	return Rect{
		X: math.Min(x0, x1),
		Y: math.Min(y0, y1),
		W: math.Abs(x1 - x0),
		H: math.Abs(y1 - y0),
	}
}

// ViewPointToPDF converts a click position into PDF space.
func ViewPointToPDF(vx, vy float64, page Page, zoom float64) Point {
	x, y := ViewToPDF(page, zoom).Apply(vx, vy)
	return Point{X: x, Y: y}
}

// ViewDeltaToPDFDelta converts a pointer displacement into a PDF
// displacement. At 90° a horizontal drag moves along the PDF y axis.
func ViewDeltaToPDFDelta(dx, dy float64, page Page, zoom float64) Point {
	x, y := ViewToPDF(page, zoom).ApplyVector(dx, dy)
	return Point{X: x, Y: y}
}

// PDFSizeToView returns the view-space extent of a w×h PDF box.
func PDFSizeToView(w, h float64, page Page, zoom float64) Size {
	v := RectToView(Rect{W: w, H: h}, page, zoom)
	return Size{Width: v.Width, Height: v.Height}
}
