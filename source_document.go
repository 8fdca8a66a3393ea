package labelworker

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

type MediaType int

const (
	MediaTypePDF = MediaType(iota)
	MediaTypePNG
	MediaTypeJPEG
	MediaTypeTIFF
	MediaTypeUnknown
)

// SourceDocument is the pipeline input: raw bytes plus their media type.
type SourceDocument struct {
	Bytes     []byte
	MediaType MediaType
	Filename  string
}

func (m MediaType) String() string {
	switch m {
	case MediaTypePDF:
		return "PDF"
	case MediaTypePNG:
		return "PNG"
	case MediaTypeJPEG:
		return "JPEG"
	case MediaTypeTIFF:
		return "TIFF"
	case MediaTypeUnknown:
		return "UNKNOWN"
	}
	return ""
}

func (m MediaType) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToLower(m.String()))
}

func (m *MediaType) UnmarshalJSON(b []byte) (err error) {

	var typeStr string

	if err := json.Unmarshal(b, &typeStr); err == nil {
		*m = ParseMediaType(typeStr)
		return nil
	}

	// not a string .. maybe it's an int

	var typeInt int
	if err := json.Unmarshal(b, &typeInt); err == nil {
		*m = MediaType(typeInt)
		return nil
	} else {
		return err
	}

}

// ParseMediaType maps a content type or short name onto a MediaType.
func ParseMediaType(s string) MediaType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf", "application/pdf":
		return MediaTypePDF
	case "png", "image/png":
		return MediaTypePNG
	case "jpg", "jpeg", "image/jpeg", "image/jpg":
		return MediaTypeJPEG
	case "tif", "tiff", "image/tiff":
		return MediaTypeTIFF
	}
	return MediaTypeUnknown
}

func mediaTypeForFilename(name string) MediaType {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return ParseMediaType(ext)
}

// detectMediaType inspects leading magic bytes of an uploaded document
func detectMediaType(buffer []byte) MediaType {
	if len(buffer) > 3 &&
		buffer[0] == 0x25 && buffer[1] == 0x50 &&
		buffer[2] == 0x44 && buffer[3] == 0x46 {
		return MediaTypePDF
	}
	if len(buffer) > 3 &&
		buffer[0] == 0x89 && buffer[1] == 0x50 &&
		buffer[2] == 0x4E && buffer[3] == 0x47 {
		return MediaTypePNG
	}
	if len(buffer) > 2 &&
		buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF {
		return MediaTypeJPEG
	}
	if len(buffer) > 3 &&
		((buffer[0] == 0x49 && buffer[1] == 0x49 && buffer[2] == 0x2A && buffer[3] == 0x0) ||
			(buffer[0] == 0x4D && buffer[1] == 0x4D && buffer[2] == 0x0 && buffer[3] == 0x2A)) {
		return MediaTypeTIFF
	}
	return MediaTypeUnknown
}

// NewSourceDocument resolves the media type of raw document bytes. The
// declared content type or filename extension is checked against the
// leading magic bytes; on conflict the sniffed type wins. Bytes nobody
// can identify are rejected as an unsupported format.
func NewSourceDocument(docBytes []byte, contentType string, filename string) (SourceDocument, error) {
	declared := ParseMediaType(contentType)
	if declared == MediaTypeUnknown && filename != "" {
		declared = mediaTypeForFilename(filename)
	}

	sniffed := detectMediaType(docBytes)
	if sniffed == MediaTypeUnknown && declared == MediaTypeUnknown {
		return SourceDocument{}, NewLabelError(UnsupportedFormat,
			"document type could not be determined, supported types are pdf, png, jpeg and tiff")
	}

	resolved := declared
	if sniffed != MediaTypeUnknown {
		if declared != MediaTypeUnknown && declared != sniffed {
			log.Warn().Str("component", "LABEL_DETECTTYPE").
				Str("declared", declared.String()).
				Str("sniffed", sniffed.String()).
				Msg("declared media type does not match file signature, trusting the signature")
		}
		resolved = sniffed
	}

	return SourceDocument{Bytes: docBytes, MediaType: resolved, Filename: filename}, nil
}
