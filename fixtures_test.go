package labelworker

import (
	"encoding/binary"
	"hash/crc32"
	"math"
	"testing"
)

// errorKindOf unwraps the taxonomy kind or fails the test.
func errorKindOf(t *testing.T, err error) ErrorKind {
	kind, ok := ErrorKindOf(err)
	if !ok {
		t.Fatalf("error carries no kind: %v", err)
	}
	return kind
}

// testCanvas builds a canvas filled with one intensity, the starting
// point of most stage tests.
func testCanvas(width, height int, dpi float64, mode ColorMode, fill uint8) *RasterCanvas {
	canvas, err := NewRasterCanvas(width, height, dpi, mode)
	if err != nil {
		panic(err)
	}
	canvas.Fill(fill)
	return canvas
}

// paintRect sets every channel of every pixel inside the box.
func paintRect(canvas *RasterCanvas, box BoundingBox, value uint8) {
	ch := canvas.Mode.Channels()
	for y := box.Top; y < box.Bottom; y++ {
		for x := box.Left; x < box.Right; x++ {
			for k := 0; k < ch; k++ {
				canvas.Pix[(y*canvas.Width+x)*ch+k] = value
			}
		}
	}
}

// pngFixture encodes a white grayscale page with a black content block.
// An empty box gives a blank page.
func pngFixture(width, height int, content BoundingBox) []byte {
	canvas := testCanvas(width, height, DefaultDPI, ModeGrayscale, 0xFF)
	paintRect(canvas, content, 0x00)
	pngBytes, err := encodePNG(canvas)
	if err != nil {
		panic(err)
	}
	return pngBytes
}

// pngWithDensity splices a pHYs chunk with the given density behind the
// IHDR chunk, the Go encoder never writes one on its own.
func pngWithDensity(pngBytes []byte, dpi float64) []byte {
	ppm := uint32(math.Round(dpi / metrePerInch))
	chunk := make([]byte, 21)
	binary.BigEndian.PutUint32(chunk[0:], 9)
	copy(chunk[4:], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:], ppm)
	binary.BigEndian.PutUint32(chunk[12:], ppm)
	chunk[16] = 1 // pixels per metre
	binary.BigEndian.PutUint32(chunk[17:], crc32.ChecksumIEEE(chunk[4:17]))

	// 8 signature bytes plus the 25 byte IHDR chunk
	out := make([]byte, 0, len(pngBytes)+len(chunk))
	out = append(out, pngBytes[:33]...)
	out = append(out, chunk...)
	out = append(out, pngBytes[33:]...)
	return out
}
