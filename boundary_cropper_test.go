package labelworker

import (
	"testing"

	"github.com/couchbaselabs/go.assert"
)

func TestCropperFindsContent(t *testing.T) {

	src := testCanvas(100, 100, 100, ModeGrayscale, 0xFF)
	paintRect(src, BoundingBox{Left: 30, Top: 40, Right: 60, Bottom: 80}, 0x00)

	// 0.02in at 100dpi is a 2px margin
	out, advisories, err := BoundaryCropper{}.Transform(src, DefaultProcessingOptions())
	assert.True(t, err == nil)
	assert.True(t, len(advisories) == 0)
	assert.Equals(t, out.Width, 34)
	assert.Equals(t, out.Height, 44)
	assert.Equals(t, out.grayAt(0, 0), uint8(0xFF))
	assert.Equals(t, out.grayAt(2, 2), uint8(0x00))
	assert.Equals(t, out.DPI, 100.0)

}

func TestCropperClampsMarginAtEdge(t *testing.T) {

	src := testCanvas(50, 50, 300, ModeGrayscale, 0xFF)
	paintRect(src, BoundingBox{Left: 0, Top: 0, Right: 10, Bottom: 10}, 0x00)

	// 0.02in at 300dpi asks for 6px, the page edge allows none on two sides
	out, _, err := BoundaryCropper{}.Transform(src, DefaultProcessingOptions())
	assert.True(t, err == nil)
	assert.Equals(t, out.Width, 16)
	assert.Equals(t, out.Height, 16)
	assert.Equals(t, out.grayAt(0, 0), uint8(0x00))

}

func TestCropperBlankPage(t *testing.T) {

	src := testCanvas(60, 60, 300, ModeGrayscale, 0xFF)
	_, _, err := BoundaryCropper{}.Transform(src, DefaultProcessingOptions())
	assert.Equals(t, errorKindOf(t, err), NoLabelBoundaryFound)

}

func TestCropperBackgroundFloor(t *testing.T) {

	// 250 is still background
	src := testCanvas(30, 30, 300, ModeGrayscale, 250)
	_, _, err := BoundaryCropper{}.Transform(src, DefaultProcessingOptions())
	assert.Equals(t, errorKindOf(t, err), NoLabelBoundaryFound)

	// 249 is content, even a single pixel of it
	src = testCanvas(30, 30, 300, ModeGrayscale, 0xFF)
	src.Pix[12*30+12] = 249
	out, _, err := BoundaryCropper{}.Transform(src, DefaultProcessingOptions())
	assert.True(t, err == nil)
	assert.Equals(t, out.Width, 13)
	assert.Equals(t, out.Height, 13)

}

func TestCropperRgbUsesLuma(t *testing.T) {

	rgb := testCanvas(40, 40, 300, ModeRGB, 0xFF)

	// a saturated red block reads as luma 76, well below the floor
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			i := (y*rgb.Width + x) * 3
			rgb.Pix[i], rgb.Pix[i+1], rgb.Pix[i+2] = 0xFF, 0x00, 0x00
		}
	}

	out, _, err := BoundaryCropper{}.Transform(rgb, DefaultProcessingOptions())
	assert.True(t, err == nil)
	assert.Equals(t, out.Width, 22)
	assert.Equals(t, out.Height, 22)
	assert.Equals(t, out.Mode, ModeRGB)
	assert.Equals(t, out.grayAt(6, 6), uint8(76))

}

func TestCropperZeroMargin(t *testing.T) {

	src := testCanvas(50, 50, 300, ModeGrayscale, 0xFF)
	paintRect(src, BoundingBox{Left: 20, Top: 20, Right: 30, Bottom: 30}, 0x40)

	opts := DefaultProcessingOptions()
	opts.CropMarginInches = 0

	out, _, err := BoundaryCropper{}.Transform(src, opts)
	assert.True(t, err == nil)
	assert.Equals(t, out.Width, 10)
	assert.Equals(t, out.Height, 10)
	assert.Equals(t, out.grayAt(0, 0), uint8(0x40))

}
