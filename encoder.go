package labelworker

import (
	"bytes"
	"image/png"

	"codeberg.org/go-pdf/fpdf"
)

const (
	// 4x6 inches at 72 points per inch, the page is always exactly this size
	pdfPageWidthPt  = 288.0
	pdfPageHeightPt = 432.0
)

// Encoder serializes a finished canvas as lossless PNG or as a
// single-page PDF with the raster placed full bleed on a 4x6in page.
type Encoder struct{}

func (Encoder) Encode(canvas *RasterCanvas, opts ProcessingOptions) ([]byte, error) {
	switch opts.OutputFormat {
	case OutputPNG:
		return encodePNG(canvas)
	case OutputPDF:
		return encodePDF(canvas)
	}
	return nil, NewLabelError(EncodingError, "unknown output format %d", int(opts.OutputFormat))
}

func encodePNG(canvas *RasterCanvas) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if canvas.Mode == ModeRGB {
		err = png.Encode(&buf, canvas.nrgbaImage())
	} else {
		err = png.Encode(&buf, canvas.grayImage())
	}
	if err != nil {
		return nil, NewLabelError(EncodingError, "png encoding failed: %v", err)
	}
	return buf.Bytes(), nil
}

func encodePDF(canvas *RasterCanvas) ([]byte, error) {
	// embed the raster losslessly, the PDF wraps the same PNG bytes
	pngBytes, err := encodePNG(canvas)
	if err != nil {
		return nil, err
	}

	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPageFormat("P", fpdf.SizeType{Wd: pdfPageWidthPt, Ht: pdfPageHeightPt})

	imgOpts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("label", imgOpts, bytes.NewReader(pngBytes))
	doc.ImageOptions("label", 0, 0, pdfPageWidthPt, pdfPageHeightPt, false, imgOpts, 0, "")

	if err := doc.Error(); err != nil {
		return nil, NewLabelError(EncodingError, "pdf assembly failed: %v", err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, NewLabelError(EncodingError, "pdf serialization failed: %v", err)
	}
	return buf.Bytes(), nil
}
