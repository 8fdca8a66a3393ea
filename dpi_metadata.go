package labelworker

import (
	"encoding/binary"
)

// Raster sources may carry a physical density. None of the decoders in use
// surface it, so the relevant header fields are read directly: the PNG pHYs
// chunk, the JPEG JFIF APP0 density and the TIFF resolution tags. A density
// is honored only inside the plausibility window; anything absent, zero or
// absurd falls back to the configured DPI.
const (
	minPlausibleDPI = 50.0
	maxPlausibleDPI = 1200.0
)

func plausibleDPI(dpi float64) bool {
	return dpi >= minPlausibleDPI && dpi <= maxPlausibleDPI
}

func metadataDPI(doc SourceDocument) (float64, bool) {
	switch doc.MediaType {
	case MediaTypePNG:
		return pngDPI(doc.Bytes)
	case MediaTypeJPEG:
		return jpegDPI(doc.Bytes)
	case MediaTypeTIFF:
		return tiffDPI(doc.Bytes)
	}
	return 0, false
}

const metrePerInch = 0.0254

// pngDPI walks the chunk list for a pHYs chunk with metre units.
func pngDPI(b []byte) (float64, bool) {
	if len(b) < 8 {
		return 0, false
	}
	i := 8 // signature
	for i+8 <= len(b) {
		length := int(binary.BigEndian.Uint32(b[i:]))
		chunkType := string(b[i+4 : i+8])
		dataStart := i + 8
		if length < 0 || dataStart+length+4 > len(b) {
			return 0, false
		}
		if chunkType == "pHYs" && length == 9 {
			ppuX := binary.BigEndian.Uint32(b[dataStart:])
			unit := b[dataStart+8]
			if unit == 1 && ppuX > 0 {
				return float64(ppuX) * metrePerInch, true
			}
			return 0, false
		}
		if chunkType == "IDAT" || chunkType == "IEND" {
			return 0, false
		}
		i = dataStart + length + 4
	}
	return 0, false
}

// jpegDPI scans marker segments up to SOS for a JFIF APP0 density.
func jpegDPI(b []byte) (float64, bool) {
	if len(b) < 4 || b[0] != 0xFF || b[1] != 0xD8 {
		return 0, false
	}
	i := 2
	for i+4 <= len(b) {
		if b[i] != 0xFF {
			return 0, false
		}
		marker := b[i+1]
		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		if marker == 0xDA {
			// start of scan, no headers beyond this point
			return 0, false
		}
		segLen := int(binary.BigEndian.Uint16(b[i+2:]))
		if segLen < 2 || i+2+segLen > len(b) {
			return 0, false
		}
		if marker == 0xE0 && segLen >= 14 {
			data := b[i+4 : i+2+segLen]
			if string(data[:5]) == "JFIF\x00" {
				units := data[7]
				xDensity := float64(binary.BigEndian.Uint16(data[8:]))
				switch units {
				case 1:
					return xDensity, xDensity > 0
				case 2:
					return xDensity * 2.54, xDensity > 0
				}
				return 0, false
			}
		}
		i += 2 + segLen
	}
	return 0, false
}

// tiffDPI reads XResolution (282) and ResolutionUnit (296) from IFD0.
func tiffDPI(b []byte) (float64, bool) {
	if len(b) < 8 {
		return 0, false
	}
	var order binary.ByteOrder
	switch {
	case b[0] == 'I' && b[1] == 'I':
		order = binary.LittleEndian
	case b[0] == 'M' && b[1] == 'M':
		order = binary.BigEndian
	default:
		return 0, false
	}
	if order.Uint16(b[2:]) != 42 {
		return 0, false
	}
	ifd := int(order.Uint32(b[4:]))
	if ifd < 8 || ifd+2 > len(b) {
		return 0, false
	}
	entries := int(order.Uint16(b[ifd:]))
	if ifd+2+entries*12 > len(b) {
		return 0, false
	}

	var resolution float64
	haveResolution := false
	unit := uint16(2) // inch unless told otherwise

	for e := 0; e < entries; e++ {
		off := ifd + 2 + e*12
		tag := order.Uint16(b[off:])
		fieldType := order.Uint16(b[off+2:])
		switch {
		case tag == 282 && fieldType == 5:
			valOff := int(order.Uint32(b[off+8:]))
			if valOff+8 > len(b) {
				return 0, false
			}
			num := order.Uint32(b[valOff:])
			den := order.Uint32(b[valOff+4:])
			if den == 0 {
				return 0, false
			}
			resolution = float64(num) / float64(den)
			haveResolution = true
		case tag == 296 && fieldType == 3:
			unit = order.Uint16(b[off+8:])
		}
	}

	if !haveResolution || resolution <= 0 {
		return 0, false
	}
	switch unit {
	case 2:
		return resolution, true
	case 3:
		return resolution * 2.54, true
	}
	return 0, false
}
