package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strconv"

	"golang.org/x/image/draw"
)

// ImageFormat is the encoding of a page raster.
type ImageFormat string

// Supported raster encodings.
const (
	JPEG ImageFormat = "jpeg"
	PNG  ImageFormat = "png"
)

// EncodedImage is an encoded page raster.
type EncodedImage struct {
	Format ImageFormat
	Data   []byte
}

type imagePage struct {
	width, height float64 // points
	pixelsW       int
	pixelsH       int
	filter        string
	stream        []byte
}

// ImageWriter builds a PDF in which every page is a single full-page image.
type ImageWriter struct {
	pages []imagePage
}

// NewImageWriter returns an empty writer.
func NewImageWriter() *ImageWriter {
	return &ImageWriter{}
}

// NumPages returns the number of pages added so far.
func (w *ImageWriter) NumPages() int {
	return len(w.pages)
}

// AddImagePage appends a page of width×height points showing img
// stretched over the whole page.
func (w *ImageWriter) AddImagePage(width, height float64, img EncodedImage) error {
	if !(width > 0) || !(height > 0) {
		return fmt.Errorf("invalid page size %gx%g", width, height)
	}
	p := imagePage{width: width, height: height}
	switch img.Format {
	case JPEG:
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			return fmt.Errorf("embed jpeg: %w", err)
		}
		if cfg.ColorModel != color.YCbCrModel && cfg.ColorModel != color.RGBAModel {
			return fmt.Errorf("embed jpeg: unsupported colour model")
		}
		p.pixelsW, p.pixelsH = cfg.Width, cfg.Height
		p.filter = "DCTDecode"
		p.stream = img.Data
	case PNG:
		src, err := png.Decode(bytes.NewReader(img.Data))
		if err != nil {
			return fmt.Errorf("embed png: %w", err)
		}
		b := src.Bounds()
		p.pixelsW, p.pixelsH = b.Dx(), b.Dy()
		p.filter = "FlateDecode"
		p.stream, err = flateRGB(src)
		if err != nil {
			return fmt.Errorf("embed png: %w", err)
		}
	default:
		return fmt.Errorf("unsupported image format %q", img.Format)
	}
	w.pages = append(w.pages, p)
	return nil
}

// flateRGB flattens img onto white and compresses the RGB samples.
func flateRGB(img image.Image) ([]byte, error) {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Over)

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	row := make([]byte, 3*b.Dx())
	for y := 0; y < b.Dy(); y++ {
		pix := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < b.Dx(); x++ {
			copy(row[3*x:3*x+3], pix[4*x:4*x+3])
		}
		if _, err := zw.Write(row); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo serializes the document.
//
// Object layout: 1 catalog, 2 page tree, then three objects per page
// (page, content stream, image).
func (w *ImageWriter) WriteTo(out io.Writer) (int64, error) {
	if len(w.pages) == 0 {
		return 0, fmt.Errorf("no pages to write")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.WriteString("%\xe2\xe3\xcf\xd3\n") // binary marker

	numObjects := 2 + 3*len(w.pages)
	offsets := make([]int, numObjects+1)
	begin := func(num int) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", num)
	}
	end := func() {
		buf.WriteString("endobj\n")
	}

	begin(1)
	buf.WriteString("<< /Type /Catalog /Pages 2 0 R >>\n")
	end()

	begin(2)
	buf.WriteString("<< /Type /Pages /Kids [")
	for i := range w.pages {
		if i > 0 {
			buf.WriteString(" ")
		}
		fmt.Fprintf(&buf, "%d 0 R", 3+3*i)
	}
	fmt.Fprintf(&buf, "] /Count %d >>\n", len(w.pages))
	end()

	for i, p := range w.pages {
		pageNum, contentNum, imageNum := 3+3*i, 4+3*i, 5+3*i

		begin(pageNum)
		fmt.Fprintf(&buf, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] ", num(p.width), num(p.height))
		fmt.Fprintf(&buf, "/Resources << /XObject << /Im0 %d 0 R >> >> ", imageNum)
		fmt.Fprintf(&buf, "/Contents %d 0 R >>\n", contentNum)
		end()

		content := fmt.Sprintf("q %s 0 0 %s 0 0 cm /Im0 Do Q", num(p.width), num(p.height))
		begin(contentNum)
		fmt.Fprintf(&buf, "<< /Length %d >>\n", len(content))
		buf.WriteString("stream\n")
		buf.WriteString(content)
		buf.WriteString("\nendstream\n")
		end()

		begin(imageNum)
		fmt.Fprintf(&buf, "<< /Type /XObject /Subtype /Image /Width %d /Height %d ", p.pixelsW, p.pixelsH)
		fmt.Fprintf(&buf, "/ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /%s /Length %d >>\n", p.filter, len(p.stream))
		buf.WriteString("stream\n")
		buf.Write(p.stream)
		buf.WriteString("\nendstream\n")
		end()
	}

	xrefOffset := buf.Len()
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 %d\n", numObjects+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}

	buf.WriteString("trailer\n")
	fmt.Fprintf(&buf, "<< /Size %d /Root 1 0 R >>\n", numObjects+1)
	buf.WriteString("startxref\n")
	fmt.Fprintf(&buf, "%d\n", xrefOffset)
	buf.WriteString("%%EOF\n")

	return buf.WriteTo(out)
}

// num formats a PDF real without exponent notation.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
