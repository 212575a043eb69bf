// pdfrender - renders PDF pages to PNG, JPEG or TIFF
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/novvoo/go-pdfannotate/pkg/geometry"
	"github.com/novvoo/go-pdfannotate/pkg/pdf"
)

func main() {
	// Define flags
	firstPage := flag.Int("f", 1, "first page to convert")
	lastPage := flag.Int("l", 0, "last page to convert")
	resolution := flag.Float64("r", 150, "resolution in DPI")
	rotate := flag.Int("rotate", 0, "extra clockwise rotation, a multiple of 90")
	jpegOut := flag.Bool("jpeg", false, "generate JPEG output")
	tiffOut := flag.Bool("tiff", false, "generate TIFF output")
	quiet := flag.Bool("q", false, "don't print any messages")
	help := flag.Bool("h", false, "print usage information")
	flag.BoolVar(help, "help", false, "print usage information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pdfrender [options] <PDF-file> [<output-root>]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *help || flag.NArg() < 1 {
		flag.Usage()
		return
	}
	if *rotate%90 != 0 || !(*resolution > 0) {
		fmt.Fprintf(os.Stderr, "Error: invalid rotation or resolution\n")
		os.Exit(1)
	}

	pdfFile := flag.Arg(0)
	outputRoot := flag.Arg(1)
	if outputRoot == "" {
		outputRoot = strings.TrimSuffix(filepath.Base(pdfFile), ".pdf")
	}

	// Open PDF
	doc, err := pdf.Open(pdfFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening PDF: %v\n", err)
		os.Exit(1)
	}
	defer doc.Close()

	// Determine output format
	ext := ".png"
	if *jpegOut {
		ext = ".jpg"
	} else if *tiffOut {
		ext = ".tif"
	}

	// Determine page range
	first := *firstPage
	last := *lastPage
	if first < 1 {
		first = 1
	}
	if last == 0 || last > doc.NumPages() {
		last = doc.NumPages()
	}

	ctx := context.Background()
	for pageNum := first; pageNum <= last; pageNum++ {
		img, err := renderPage(ctx, doc, pageNum, *resolution, *rotate)
		if err != nil {
			if !*quiet {
				fmt.Fprintf(os.Stderr, "Error rendering page %d: %v\n", pageNum, err)
			}
			continue
		}

		// Generate output filename
		var outputFile string
		if last == first {
			outputFile = outputRoot + ext
		} else {
			outputFile = fmt.Sprintf("%s-%d%s", outputRoot, pageNum, ext)
		}

		if err := writeImage(outputFile, img); err != nil {
			if !*quiet {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputFile, err)
			}
			continue
		}

		if !*quiet {
			b := img.Bounds()
			fmt.Printf("Wrote %s (%dx%d)\n", outputFile, b.Dx(), b.Dy())
		}
	}
}

// renderPage renders a page at dpi with the page's own rotation plus an
// extra clockwise turn.
func renderPage(ctx context.Context, src pdf.Source, n int, dpi float64, rotate int) (*image.RGBA, error) {
	info, err := src.PageSize(n)
	if err != nil {
		return nil, err
	}
	rotation := geometry.NormalizeRotation(info.Page(n-1).Rotation - rotate)
	return src.RenderPage(ctx, n, pdf.Viewport{Scale: dpi / 72, Rotation: rotation})
}

func writeImage(name string, img image.Image) error {
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	switch filepath.Ext(name) {
	case ".jpg":
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 90})
	case ".tif":
		err = tiff.Encode(out, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(out, img)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
