package labelworker

import (
	"testing"

	"github.com/couchbaselabs/go.assert"
)

func TestOrientationRotatesLandscape(t *testing.T) {

	src := testCanvas(40, 20, 203, ModeGrayscale, 0xFF)
	src.Pix[0] = 0x00 // marker in the top left corner

	out, advisories, err := OrientationNormalizer{}.Transform(src, DefaultProcessingOptions())
	assert.True(t, err == nil)
	assert.True(t, len(advisories) == 0)
	assert.Equals(t, out.Width, 20)
	assert.Equals(t, out.Height, 40)
	assert.Equals(t, out.DPI, 203.0)
	// a quarter turn clockwise puts the top left corner top right
	assert.Equals(t, out.grayAt(19, 0), uint8(0x00))
	assert.Equals(t, out.grayAt(0, 0), uint8(0xFF))

}

func TestOrientationKeepsPortrait(t *testing.T) {

	src := testCanvas(20, 40, 300, ModeGrayscale, 0xFF)
	out, _, err := OrientationNormalizer{}.Transform(src, DefaultProcessingOptions())
	assert.True(t, err == nil)
	assert.Equals(t, out.Width, 20)
	assert.Equals(t, out.Height, 40)

}

func TestOrientationNearSquareDeadBand(t *testing.T) {

	// 23/20 sits exactly on the rotate threshold and stays put
	src := testCanvas(23, 20, 300, ModeGrayscale, 0xFF)
	out, _, err := OrientationNormalizer{}.Transform(src, DefaultProcessingOptions())
	assert.True(t, err == nil)
	assert.Equals(t, out.Width, 23)
	assert.Equals(t, out.Height, 20)

}

func TestOrientationAutoRotateOff(t *testing.T) {

	src := testCanvas(40, 20, 300, ModeGrayscale, 0xFF)
	opts := DefaultProcessingOptions()
	opts.AutoRotate = false

	out, _, err := OrientationNormalizer{}.Transform(src, opts)
	assert.True(t, err == nil)
	assert.Equals(t, out.Width, 40)
	assert.Equals(t, out.Height, 20)

}

func TestOrientationReturnsIndependentCanvas(t *testing.T) {

	src := testCanvas(20, 40, 300, ModeGrayscale, 0xFF)
	out, _, err := OrientationNormalizer{}.Transform(src, DefaultProcessingOptions())
	assert.True(t, err == nil)

	out.Pix[0] = 0x00
	assert.Equals(t, src.grayAt(0, 0), uint8(0xFF))

}

func TestRotatePreservesChannels(t *testing.T) {

	src := testCanvas(3, 2, 300, ModeRGB, 0xFF)
	i := (1*src.Width + 0) * 3 // pixel (0, 1)
	src.Pix[i], src.Pix[i+1], src.Pix[i+2] = 10, 20, 30

	out := rotate90CW(src)
	assert.Equals(t, out.Width, 2)
	assert.Equals(t, out.Height, 3)
	assert.Equals(t, out.Pix[0], uint8(10))
	assert.Equals(t, out.Pix[1], uint8(20))
	assert.Equals(t, out.Pix[2], uint8(30))

}
