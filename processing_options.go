package labelworker

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultDPI is the render and output resolution used when a source
	// carries no plausible density metadata and no override is given.
	DefaultDPI = 300.0

	// DefaultCropMarginInches keeps a hairline of quiet zone around the
	// detected label content so barcodes are not clipped flush.
	DefaultCropMarginInches = 0.02

	// DefaultMinBlackFraction is the share of the pre-threshold dark mass
	// that must survive global binarization before the adaptive fallback
	// kicks in.
	DefaultMinBlackFraction = 0.25

	DefaultMaxDocumentBytes = int64(10 << 20)
	DefaultMaxCanvasPixels  = 64000000
	DefaultTimeoutSeconds   = 3.0
	maxSupportedDPI         = 2400.0
)

// ProcessingOptions carries every tunable of a single normalization run.
// The zero value is not usable, start from DefaultProcessingOptions.
type ProcessingOptions struct {
	OutputFormat     OutputFormat `json:"output_format"`
	DPI              float64      `json:"dpi"`
	AutoRotate       bool         `json:"auto_rotate"`
	OptimizeBW       bool         `json:"optimize_bw"`
	CropMarginInches float64      `json:"crop_margin_in"`
	MinBlackFraction float64      `json:"min_black_fraction"`
	MaxDocumentBytes int64        `json:"max_document_bytes"`
	MaxCanvasPixels  int          `json:"max_canvas_pixels"`
	TimeoutSeconds   float64      `json:"timeout_seconds"`
	Workers          int          `json:"workers"`
	Rasterizer       string       `json:"rasterizer"`
}

func DefaultProcessingOptions() ProcessingOptions {

	processingOptions := ProcessingOptions{
		OutputFormat:     OutputPDF,
		DPI:              DefaultDPI,
		AutoRotate:       true,
		OptimizeBW:       true,
		CropMarginInches: DefaultCropMarginInches,
		MinBlackFraction: DefaultMinBlackFraction,
		MaxDocumentBytes: DefaultMaxDocumentBytes,
		MaxCanvasPixels:  DefaultMaxCanvasPixels,
		TimeoutSeconds:   DefaultTimeoutSeconds,
		Workers:          0, // 0 lets the batch orchestrator pick
		Rasterizer:       RasterizerPoppler,
	}
	return processingOptions

}

// UnmarshalJSON overlays client fields onto the defaults, so a request
// that omits auto_rotate or optimize_bw keeps them enabled instead of
// inheriting the JSON zero value.
func (o *ProcessingOptions) UnmarshalJSON(b []byte) error {
	type plain ProcessingOptions
	tmp := plain(DefaultProcessingOptions())
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = ProcessingOptions(tmp)
	return nil
}

func (o ProcessingOptions) validate() error {
	if o.DPI <= 0 || o.DPI > maxSupportedDPI {
		return errors.Errorf("dpi must be in (0, %v], got %v", maxSupportedDPI, o.DPI)
	}
	if o.CropMarginInches < 0 {
		return errors.New("crop margin must not be negative")
	}
	if o.MinBlackFraction < 0 {
		return errors.New("min black fraction must not be negative")
	}
	if o.MaxDocumentBytes <= 0 {
		return errors.New("max document bytes must be positive")
	}
	if o.MaxCanvasPixels <= 0 {
		return errors.New("max canvas pixels must be positive")
	}
	if o.TimeoutSeconds < 0 {
		return errors.New("timeout must not be negative")
	}
	if o.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	if f := o.OutputFormat; f != OutputPDF && f != OutputPNG {
		return errors.Errorf("unknown output format %d", int(f))
	}
	return nil
}

func (o ProcessingOptions) itemTimeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return time.Duration(DefaultTimeoutSeconds * float64(time.Second))
	}
	return time.Duration(o.TimeoutSeconds * float64(time.Second))
}
