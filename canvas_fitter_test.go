package labelworker

import (
	"bytes"
	"testing"

	"github.com/couchbaselabs/go.assert"
)

func TestTargetPixelSize(t *testing.T) {

	w, h := targetPixelSize(300)
	assert.Equals(t, w, 1200)
	assert.Equals(t, h, 1800)

	w, h = targetPixelSize(203)
	assert.Equals(t, w, 812)
	assert.Equals(t, h, 1218)

}

func TestFitterCentersSquareContent(t *testing.T) {

	src := testCanvas(2400, 2400, 300, ModeGrayscale, 0x00)
	out, advisories, err := CanvasFitter{}.Transform(src, DefaultProcessingOptions())
	assert.True(t, err == nil)
	assert.True(t, len(advisories) == 0)
	assert.Equals(t, out.Width, 1200)
	assert.Equals(t, out.Height, 1800)
	assert.Equals(t, out.DPI, 300.0)

	// square content scales to 1200x1200 and floats at y offset 300
	assert.Equals(t, out.grayAt(600, 299), uint8(0xFF))
	assert.Equals(t, out.grayAt(600, 300), uint8(0x00))
	assert.Equals(t, out.grayAt(600, 1499), uint8(0x00))
	assert.Equals(t, out.grayAt(600, 1500), uint8(0xFF))

}

func TestFitterUpscalesNarrowContent(t *testing.T) {

	src := testCanvas(300, 600, 300, ModeGrayscale, 0x00)
	out, _, err := CanvasFitter{}.Transform(src, DefaultProcessingOptions())
	assert.True(t, err == nil)
	assert.Equals(t, out.Width, 1200)
	assert.Equals(t, out.Height, 1800)

	// scale 3 gives a 900x1800 block centered at x offset 150
	assert.Equals(t, out.grayAt(149, 900), uint8(0xFF))
	assert.Equals(t, out.grayAt(150, 900), uint8(0x00))
	assert.Equals(t, out.grayAt(1049, 900), uint8(0x00))
	assert.Equals(t, out.grayAt(1050, 900), uint8(0xFF))

}

func TestFitterExactFitPreservesBytes(t *testing.T) {

	src := testCanvas(1200, 1800, 300, ModeGrayscale, 0x00)
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 7)
	}

	out, _, err := CanvasFitter{}.Transform(src, DefaultProcessingOptions())
	assert.True(t, err == nil)
	assert.True(t, bytes.Equal(out.Pix, src.Pix))

}

func TestFitterBitonalExactFitKeepsMode(t *testing.T) {

	src := testCanvas(1200, 1800, 300, ModeBitonal, 0x00)
	out, _, err := CanvasFitter{}.Transform(src, DefaultProcessingOptions())
	assert.True(t, err == nil)
	assert.Equals(t, out.Mode, ModeBitonal)

}

func TestFitterBitonalResampleGoesGrayscale(t *testing.T) {

	src := testCanvas(600, 600, 300, ModeBitonal, 0x00)
	out, _, err := CanvasFitter{}.Transform(src, DefaultProcessingOptions())
	assert.True(t, err == nil)
	assert.Equals(t, out.Mode, ModeGrayscale)

}

func TestFitterRgbHalveThenCopy(t *testing.T) {

	src := testCanvas(400, 600, 300, ModeRGB, 0x00)
	opts := DefaultProcessingOptions()
	opts.DPI = 50

	out, _, err := CanvasFitter{}.Transform(src, opts)
	assert.True(t, err == nil)
	assert.Equals(t, out.Width, 200)
	assert.Equals(t, out.Height, 300)
	assert.Equals(t, out.DPI, 50.0)
	assert.Equals(t, out.Mode, ModeRGB)
	assert.Equals(t, out.grayAt(100, 150), uint8(0x00))

}

func TestHalveCanvasAverages(t *testing.T) {

	src := testCanvas(4, 2, 300, ModeGrayscale, 0x00)
	src.Pix = []uint8{
		0, 100, 255, 255,
		0, 100, 255, 255,
	}

	out := halveCanvas(src)
	assert.Equals(t, out.Width, 2)
	assert.Equals(t, out.Height, 1)
	assert.Equals(t, out.Pix[0], uint8(50))
	assert.Equals(t, out.Pix[1], uint8(255))

}

func TestHalveCanvasOddEdge(t *testing.T) {

	src := testCanvas(3, 3, 300, ModeGrayscale, 0x80)
	out := halveCanvas(src)
	assert.Equals(t, out.Width, 2)
	assert.Equals(t, out.Height, 2)
	// the trailing column reuses its nearest neighbor
	assert.Equals(t, out.Pix[1], uint8(0x80))

}

func TestHalveCanvasBitonalGoesGrayscale(t *testing.T) {

	src := testCanvas(4, 4, 300, ModeBitonal, 0xFF)
	out := halveCanvas(src)
	assert.Equals(t, out.Mode, ModeGrayscale)

}
