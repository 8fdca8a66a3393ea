package labelworker

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/couchbaselabs/go.assert"
)

// jfifSegment builds a minimal jpeg header carrying a JFIF APP0 density.
func jfifSegment(units uint8, density uint16) []byte {
	seg := []byte{
		0xFF, 0xD8, // SOI
		0xFF, 0xE0, // APP0
		0x00, 0x10, // segment length 16
		'J', 'F', 'I', 'F', 0x00,
		0x01, 0x02, // version
	}
	seg = append(seg, units,
		byte(density>>8), byte(density&0xFF),
		byte(density>>8), byte(density&0xFF),
		0x00, 0x00)
	return seg
}

// tiffHeader builds a headers-only little-endian tiff with XResolution
// and ResolutionUnit in IFD0.
func tiffHeader(num, den uint32, unit uint16) []byte {
	b := make([]byte, 46)
	b[0], b[1] = 'I', 'I'
	binary.LittleEndian.PutUint16(b[2:], 42)
	binary.LittleEndian.PutUint32(b[4:], 8) // IFD0 offset

	binary.LittleEndian.PutUint16(b[8:], 2) // entry count

	// XResolution, RATIONAL, value at offset 38
	binary.LittleEndian.PutUint16(b[10:], 282)
	binary.LittleEndian.PutUint16(b[12:], 5)
	binary.LittleEndian.PutUint32(b[14:], 1)
	binary.LittleEndian.PutUint32(b[18:], 38)

	// ResolutionUnit, SHORT, inline
	binary.LittleEndian.PutUint16(b[22:], 296)
	binary.LittleEndian.PutUint16(b[24:], 3)
	binary.LittleEndian.PutUint32(b[26:], 1)
	binary.LittleEndian.PutUint16(b[30:], unit)

	binary.LittleEndian.PutUint32(b[34:], 0) // no next IFD

	binary.LittleEndian.PutUint32(b[38:], num)
	binary.LittleEndian.PutUint32(b[42:], den)
	return b
}

func TestPngDPI(t *testing.T) {

	plain := pngFixture(12, 12, BoundingBox{Left: 2, Top: 2, Right: 10, Bottom: 10})
	_, ok := pngDPI(plain)
	assert.True(t, !ok)

	dense := pngWithDensity(plain, 203)
	dpi, ok := pngDPI(dense)
	assert.True(t, ok)
	assert.True(t, math.Abs(dpi-203) < 0.05)

}

func TestJpegDPI(t *testing.T) {

	dpi, ok := jpegDPI(jfifSegment(1, 300))
	assert.True(t, ok)
	assert.Equals(t, dpi, 300.0)

	// dots per centimetre
	dpi, ok = jpegDPI(jfifSegment(2, 118))
	assert.True(t, ok)
	assert.True(t, math.Abs(dpi-299.72) < 0.001)

	// unit 0 is an aspect ratio, not a density
	_, ok = jpegDPI(jfifSegment(0, 300))
	assert.True(t, !ok)

	_, ok = jpegDPI([]byte("not a jpeg"))
	assert.True(t, !ok)

}

func TestTiffDPI(t *testing.T) {

	dpi, ok := tiffDPI(tiffHeader(300, 1, 2))
	assert.True(t, ok)
	assert.Equals(t, dpi, 300.0)

	// resolution per centimetre
	dpi, ok = tiffDPI(tiffHeader(118, 1, 3))
	assert.True(t, ok)
	assert.True(t, math.Abs(dpi-299.72) < 0.001)

	// zero denominator must not divide
	_, ok = tiffDPI(tiffHeader(300, 0, 2))
	assert.True(t, !ok)

	_, ok = tiffDPI([]byte("not a tiff"))
	assert.True(t, !ok)

}

func TestMetadataDPIDispatch(t *testing.T) {

	dense := pngWithDensity(pngFixture(12, 12, BoundingBox{Left: 2, Top: 2, Right: 10, Bottom: 10}), 300)
	dpi, ok := metadataDPI(SourceDocument{Bytes: dense, MediaType: MediaTypePNG})
	assert.True(t, ok)
	assert.True(t, math.Abs(dpi-300) < 0.05)

	_, ok = metadataDPI(SourceDocument{Bytes: []byte("%PDF-1.4"), MediaType: MediaTypePDF})
	assert.True(t, !ok)

}

func TestPlausibleDPI(t *testing.T) {

	assert.True(t, plausibleDPI(300))
	assert.True(t, plausibleDPI(50))
	assert.True(t, plausibleDPI(1200))
	assert.True(t, !plausibleDPI(49.9))
	assert.True(t, !plausibleDPI(2400))
	assert.True(t, !plausibleDPI(0))

}
