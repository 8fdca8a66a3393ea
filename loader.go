package labelworker

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/tiff"
)

// Loader turns a SourceDocument into the initial RasterCanvas. PDFs go
// through the configured PageRasterizer, raster formats are decoded in
// process. Byte and pixel ceilings are enforced before any full decode.
type Loader struct {
	Rasterizer PageRasterizer
}

func NewLoader(rasterizerKind string, saveFiles bool) *Loader {
	return &Loader{Rasterizer: NewPageRasterizer(rasterizerKind, saveFiles)}
}

func (l *Loader) Load(ctx context.Context, doc SourceDocument, opts ProcessingOptions) (*RasterCanvas, error) {
	if int64(len(doc.Bytes)) > opts.MaxDocumentBytes {
		return nil, NewLabelError(OversizeInput, "document of %d bytes exceeds the %d byte limit",
			len(doc.Bytes), opts.MaxDocumentBytes)
	}
	if len(doc.Bytes) == 0 {
		return nil, NewLabelError(CorruptDocument, "document is empty")
	}

	var canvas *RasterCanvas
	var err error

	switch doc.MediaType {
	case MediaTypePDF:
		if l.Rasterizer == nil {
			return nil, NewLabelError(UnsupportedFormat, "pdf input needs a configured rasterizer")
		}
		canvas, err = l.Rasterizer.RasterizeFirstPage(ctx, doc.Bytes, opts.DPI)
		if err != nil {
			return nil, err
		}
		canvas.DPI = opts.DPI
	case MediaTypePNG, MediaTypeJPEG, MediaTypeTIFF:
		canvas, err = l.decodeRaster(doc, opts)
		if err != nil {
			return nil, err
		}
	default:
		return nil, NewLabelError(UnsupportedFormat,
			"media type %s is not supported, supported types are pdf, png, jpeg and tiff", doc.MediaType)
	}

	if canvas.Width*canvas.Height > opts.MaxCanvasPixels {
		return nil, NewLabelError(OversizeInput, "canvas of %dx%d px exceeds the %d pixel limit",
			canvas.Width, canvas.Height, opts.MaxCanvasPixels)
	}
	if err := canvas.Validate(); err != nil {
		return nil, NewLabelError(CorruptDocument, "decoded canvas is inconsistent")
	}

	log.Debug().Str("component", "LOADER").
		Str("mediaType", doc.MediaType.String()).
		Int("width", canvas.Width).
		Int("height", canvas.Height).
		Float64("dpi", canvas.DPI).
		Msg("document loaded")

	return canvas, nil
}

// decodeRaster checks the header dimensions against the pixel ceiling
// before committing to a full decode.
func (l *Loader) decodeRaster(doc SourceDocument, opts ProcessingOptions) (*RasterCanvas, error) {
	var cfg image.Config
	var err error

	switch doc.MediaType {
	case MediaTypePNG:
		cfg, err = png.DecodeConfig(bytes.NewReader(doc.Bytes))
	case MediaTypeJPEG:
		cfg, err = jpeg.DecodeConfig(bytes.NewReader(doc.Bytes))
	case MediaTypeTIFF:
		cfg, err = tiff.DecodeConfig(bytes.NewReader(doc.Bytes))
	}
	if err != nil {
		return nil, NewLabelError(CorruptDocument, "%s header could not be parsed", doc.MediaType)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, NewLabelError(CorruptDocument, "%s header reports empty dimensions", doc.MediaType)
	}
	if cfg.Width*cfg.Height > opts.MaxCanvasPixels {
		return nil, NewLabelError(OversizeInput, "image of %dx%d px exceeds the %d pixel limit",
			cfg.Width, cfg.Height, opts.MaxCanvasPixels)
	}

	var img image.Image
	switch doc.MediaType {
	case MediaTypePNG:
		img, err = png.Decode(bytes.NewReader(doc.Bytes))
	case MediaTypeJPEG:
		img, err = jpeg.Decode(bytes.NewReader(doc.Bytes))
	case MediaTypeTIFF:
		img, err = tiff.Decode(bytes.NewReader(doc.Bytes))
	}
	if err != nil {
		return nil, NewLabelError(CorruptDocument, "%s document could not be decoded", doc.MediaType)
	}

	dpi := opts.DPI
	if recorded, ok := metadataDPI(doc); ok && plausibleDPI(recorded) {
		dpi = recorded
	}

	return canvasFromImage(img, dpi), nil
}

// canvasFromImage converts any decoded image into canvas form. Grayscale
// sources stay single channel, everything else becomes rgb.
func canvasFromImage(img image.Image, dpi float64) *RasterCanvas {
	if gray, ok := img.(*image.Gray); ok {
		return canvasFromGray(gray, dpi, ModeGrayscale)
	}
	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	return canvasFromNRGBA(nrgba, dpi)
}
