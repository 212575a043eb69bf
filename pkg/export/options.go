// Package export flattens an annotated document into a new PDF in which
// every page is a raster image with the annotations painted on top.
package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/golang/freetype/truetype"

	"github.com/novvoo/go-pdfannotate/pkg/pdf"
)

// Format is the encoding of the page rasters.
type Format = pdf.ImageFormat

// Supported formats.
const (
	JPEG = pdf.JPEG
	PNG  = pdf.PNG
)

// Defaults.
const (
	DefaultScale   = 2
	DefaultFormat  = JPEG
	DefaultQuality = 1.0
	MaxScale       = 8
)

// ErrInvalidOptions is returned for out-of-range export settings.
var ErrInvalidOptions = errors.New("invalid export options")

// Options controls the raster export.
type Options struct {
	Scale   float64 // pixels per point; the UI offers 1, 2 and 3
	Format  Format
	Quality float64 // JPEG quality in [0.1, 1]; ignored for PNG

	Logger *slog.Logger
	Font   *truetype.Font // text annotations; Go Regular when nil
}

// ParseFormat maps a user supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "jpeg", "jpg":
		return JPEG, nil
	case "png":
		return PNG, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", ErrInvalidOptions, s)
}

// withDefaults fills zero fields.
func (o Options) withDefaults() Options {
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.Quality == 0 {
		o.Quality = DefaultQuality
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Validate checks the settings after defaults were applied.
func (o Options) Validate() error {
	o = o.withDefaults()
	if !(o.Scale > 0) || o.Scale > MaxScale {
		return fmt.Errorf("%w: scale %v not in (0,%d]", ErrInvalidOptions, o.Scale, MaxScale)
	}
	if o.Format != JPEG && o.Format != PNG {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidOptions, o.Format)
	}
	if !(o.Quality >= 0.1 && o.Quality <= 1) {
		return fmt.Errorf("%w: quality %v not in [0.1,1]", ErrInvalidOptions, o.Quality)
	}
	return nil
}
