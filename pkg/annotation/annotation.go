// Package annotation holds the annotation records of the open document.
package annotation

import (
	"image/color"
	"slices"

	"github.com/novvoo/go-pdfannotate/pkg/geometry"
)

// Type is the kind of an annotation.
type Type string

// Annotation types.
const (
	Text      Type = "text"
	Highlight Type = "highlight"
	Image     Type = "image"
)

// Valid reports whether t is a known annotation type.
func (t Type) Valid() bool {
	return t == Text || t == Highlight || t == Image
}

// DefaultFontSize is the font size of newly placed text, in points.
const DefaultFontSize = 18

// Annotation is a user-added highlight, text box or image.
//
// X, Y, Width and Height are in PDF points in the unrotated page frame.
// PageIndex is a position in the current page sequence, not the original
// page number. Rotation is the annotation's own visual rotation around its
// centre and is independent of the page rotation.
type Annotation struct {
	ID        string
	PageIndex int
	Type      Type
	X, Y      float64
	Width     float64
	Height    float64
	Rotation  float64

	Text      string
	FontSize  float64
	Color     color.NRGBA
	ImageData []byte // encoded PNG/JPEG/... bytes
}

// Rect returns the bounding box in PDF space.
func (a *Annotation) Rect() geometry.Rect {
	return geometry.Rect{X: a.X, Y: a.Y, W: a.Width, H: a.Height}
}

// SetRect moves and resizes the annotation.
func (a *Annotation) SetRect(r geometry.Rect) {
	a.X, a.Y, a.Width, a.Height = r.X, r.Y, r.W, r.H
}

// Clone returns a deep copy.
func (a Annotation) Clone() Annotation {
	a.ImageData = slices.Clone(a.ImageData)
	return a
}

// MinSize returns the smallest width and height, in points, an annotation
// of type t may have after an interactive resize.
func MinSize(t Type) (w, h float64) {
	if t == Text {
		return 200, 40
	}
	return 8, 8
}

// ClampMin grows a to its minimum size. The bottom-left corner stays put.
func ClampMin(a *Annotation) {
	w, h := MinSize(a.Type)
	if a.Width < w {
		a.Width = w
	}
	if a.Height < h {
		a.Height = h
	}
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	PageIndex *int
	X, Y      *float64
	Width     *float64
	Height    *float64
	Rotation  *float64
	Text      *string
	FontSize  *float64
	Color     *color.NRGBA
	ImageData []byte
}

// RectPatch returns a patch that sets the bounding box.
func RectPatch(r geometry.Rect) Patch {
	return Patch{X: &r.X, Y: &r.Y, Width: &r.W, Height: &r.H}
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// Apply merges p into a. Geometry is not validated.
func (p Patch) Apply(a *Annotation) {
	if p.PageIndex != nil {
		a.PageIndex = *p.PageIndex
	}
	if p.X != nil {
		a.X = *p.X
	}
	if p.Y != nil {
		a.Y = *p.Y
	}
	if p.Width != nil {
		a.Width = *p.Width
	}
	if p.Height != nil {
		a.Height = *p.Height
	}
	if p.Rotation != nil {
		a.Rotation = *p.Rotation
	}
	if p.Text != nil {
		a.Text = *p.Text
	}
	if p.FontSize != nil {
		a.FontSize = *p.FontSize
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	if p.ImageData != nil {
		a.ImageData = slices.Clone(p.ImageData)
	}
}
