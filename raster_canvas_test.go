package labelworker

import (
	"testing"

	"github.com/couchbaselabs/go.assert"
)

func TestNewRasterCanvas(t *testing.T) {

	canvas, err := NewRasterCanvas(10, 20, 300, ModeRGB)
	assert.True(t, err == nil)
	assert.Equals(t, len(canvas.Pix), 10*20*3)
	assert.True(t, canvas.Validate() == nil)

	_, err = NewRasterCanvas(0, 20, 300, ModeGrayscale)
	assert.True(t, err != nil)

	_, err = NewRasterCanvas(10, 20, 0, ModeGrayscale)
	assert.True(t, err != nil)

}

func TestCanvasValidateBufferMismatch(t *testing.T) {

	canvas := testCanvas(4, 4, 300, ModeGrayscale, 0xFF)
	canvas.Pix = canvas.Pix[:8]
	assert.True(t, canvas.Validate() != nil)

}

func TestCanvasClone(t *testing.T) {

	canvas := testCanvas(3, 3, 203, ModeGrayscale, 0x80)
	clone := canvas.Clone()
	clone.Pix[0] = 0x00
	assert.Equals(t, canvas.Pix[0], uint8(0x80))
	assert.Equals(t, clone.DPI, 203.0)
	assert.Equals(t, clone.Mode, ModeGrayscale)

}

func TestGrayAt(t *testing.T) {

	canvas := testCanvas(2, 1, 300, ModeRGB, 0x00)
	canvas.Pix[0] = 0xFF // pure red
	assert.Equals(t, canvas.grayAt(0, 0), uint8(76))

	gray := testCanvas(2, 2, 300, ModeGrayscale, 0x42)
	assert.Equals(t, gray.grayAt(1, 1), uint8(0x42))

}

func TestBoundingBoxValidateWithin(t *testing.T) {

	box := BoundingBox{Left: 1, Top: 2, Right: 5, Bottom: 9}
	assert.Equals(t, box.Dx(), 4)
	assert.Equals(t, box.Dy(), 7)
	assert.True(t, box.validateWithin(10, 10) == nil)
	assert.True(t, box.validateWithin(4, 10) != nil)

	empty := BoundingBox{Left: 3, Top: 3, Right: 3, Bottom: 4}
	assert.True(t, empty.validateWithin(10, 10) != nil)

	negative := BoundingBox{Left: -1, Top: 0, Right: 2, Bottom: 2}
	assert.True(t, negative.validateWithin(10, 10) != nil)

}

func TestBoundingBoxExpand(t *testing.T) {

	box := BoundingBox{Left: 4, Top: 4, Right: 6, Bottom: 6}
	grown := box.expand(2, 10, 10)
	assert.Equals(t, grown, BoundingBox{Left: 2, Top: 2, Right: 8, Bottom: 8})

	clamped := box.expand(100, 10, 12)
	assert.Equals(t, clamped, BoundingBox{Left: 0, Top: 0, Right: 10, Bottom: 12})

}

func TestCropTo(t *testing.T) {

	canvas := testCanvas(8, 8, 300, ModeGrayscale, 0xFF)
	paintRect(canvas, BoundingBox{Left: 2, Top: 3, Right: 5, Bottom: 7}, 0x11)

	cropped := canvas.cropTo(BoundingBox{Left: 2, Top: 3, Right: 5, Bottom: 7})
	assert.Equals(t, cropped.Width, 3)
	assert.Equals(t, cropped.Height, 4)
	assert.Equals(t, cropped.DPI, canvas.DPI)
	for _, v := range cropped.Pix {
		assert.Equals(t, v, uint8(0x11))
	}

}
