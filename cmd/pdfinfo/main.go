package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/novvoo/go-pdfannotate/pkg/geometry"
	"github.com/novvoo/go-pdfannotate/pkg/pdf"
)

var (
	firstPage int
	lastPage  int
	zoom      float64
	printHelp bool
)

func init() {
	flag.IntVar(&firstPage, "f", 1, "first page to examine")
	flag.IntVar(&lastPage, "l", 0, "last page to examine")
	flag.Float64Var(&zoom, "zoom", 1, "zoom used for the view sizes")
	flag.BoolVar(&printHelp, "h", false, "print usage information")
	flag.BoolVar(&printHelp, "help", false, "print usage information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pdfinfo [options] <PDF-file>\n\n")
		fmt.Fprintf(os.Stderr, "Prints the page geometry seen by the annotation editor.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	if printHelp {
		flag.Usage()
		os.Exit(0)
	}
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	if !(zoom > 0) {
		fmt.Fprintf(os.Stderr, "Error: zoom must be positive\n")
		os.Exit(1)
	}

	doc, err := pdf.Open(flag.Arg(0), pdf.WithRasterizer(pdf.BlankRasterizer{}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer doc.Close()

	if err := printInfo(os.Stdout, doc, firstPage, lastPage, zoom); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printInfo(w io.Writer, doc *pdf.Document, first, last int, zoom float64) error {
	n := doc.NumPages()
	fmt.Fprintf(w, "Pages:          %d\n", n)
	fmt.Fprintf(w, "File size:      %d bytes\n", len(doc.Data()))
	fmt.Fprintf(w, "Fingerprint:    %s\n", doc.Fingerprint())

	if last == 0 || last > n {
		last = n
	}
	first = max(first, 1)
	for i := first; i <= last; i++ {
		info, err := doc.PageSize(i)
		if err != nil {
			return err
		}
		page := info.Page(i - 1)
		view := geometry.ViewSize(page, zoom)
		fmt.Fprintf(w, "Page %4d size: %g x %g pts\n", i, info.Width, info.Height)
		fmt.Fprintf(w, "Page %4d rot:  %d (view %d ccw)\n", i, info.Rotate, page.Rotation)
		fmt.Fprintf(w, "Page %4d view: %g x %g px at zoom %g\n", i, view.Width, view.Height, zoom)
	}
	return nil
}
