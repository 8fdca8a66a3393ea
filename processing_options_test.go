package labelworker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchbaselabs/go.assert"
)

func TestDefaultProcessingOptions(t *testing.T) {

	opts := DefaultProcessingOptions()
	assert.Equals(t, opts.OutputFormat, OutputPDF)
	assert.Equals(t, opts.DPI, 300.0)
	assert.True(t, opts.AutoRotate)
	assert.True(t, opts.OptimizeBW)
	assert.Equals(t, opts.CropMarginInches, 0.02)
	assert.Equals(t, opts.MinBlackFraction, 0.25)
	assert.Equals(t, opts.MaxDocumentBytes, int64(10<<20))
	assert.Equals(t, opts.MaxCanvasPixels, 64000000)
	assert.Equals(t, opts.TimeoutSeconds, 3.0)
	assert.Equals(t, opts.Workers, 0)
	assert.Equals(t, opts.Rasterizer, RasterizerPoppler)
	assert.True(t, opts.validate() == nil)

}

func TestProcessingOptionsOverlayDefaults(t *testing.T) {

	var opts ProcessingOptions
	err := json.Unmarshal([]byte(`{}`), &opts)
	assert.True(t, err == nil)
	assert.Equals(t, opts, DefaultProcessingOptions())

	// a partial document only flips what it names
	err = json.Unmarshal([]byte(`{"auto_rotate": false, "dpi": 203}`), &opts)
	assert.True(t, err == nil)
	assert.True(t, !opts.AutoRotate)
	assert.Equals(t, opts.DPI, 203.0)
	assert.True(t, opts.OptimizeBW)
	assert.Equals(t, opts.OutputFormat, OutputPDF)

	err = json.Unmarshal([]byte(`{"output_format": "png"}`), &opts)
	assert.True(t, err == nil)
	assert.Equals(t, opts.OutputFormat, OutputPNG)

}

func TestProcessingOptionsValidate(t *testing.T) {

	bad := []ProcessingOptions{}

	opts := DefaultProcessingOptions()
	opts.DPI = 0
	bad = append(bad, opts)

	opts = DefaultProcessingOptions()
	opts.DPI = 4800
	bad = append(bad, opts)

	opts = DefaultProcessingOptions()
	opts.CropMarginInches = -0.01
	bad = append(bad, opts)

	opts = DefaultProcessingOptions()
	opts.MinBlackFraction = -1
	bad = append(bad, opts)

	opts = DefaultProcessingOptions()
	opts.MaxDocumentBytes = 0
	bad = append(bad, opts)

	opts = DefaultProcessingOptions()
	opts.MaxCanvasPixels = 0
	bad = append(bad, opts)

	opts = DefaultProcessingOptions()
	opts.TimeoutSeconds = -1
	bad = append(bad, opts)

	opts = DefaultProcessingOptions()
	opts.Workers = -1
	bad = append(bad, opts)

	opts = DefaultProcessingOptions()
	opts.OutputFormat = OutputFormat(9)
	bad = append(bad, opts)

	for i, opts := range bad {
		if err := opts.validate(); err == nil {
			t.Errorf("options %d should not validate", i)
		}
	}

}

func TestItemTimeout(t *testing.T) {

	opts := DefaultProcessingOptions()
	assert.Equals(t, opts.itemTimeout(), 3*time.Second)

	opts.TimeoutSeconds = 0.5
	assert.Equals(t, opts.itemTimeout(), 500*time.Millisecond)

	// zero falls back rather than producing an instant deadline
	opts.TimeoutSeconds = 0
	assert.Equals(t, opts.itemTimeout(), 3*time.Second)

}
