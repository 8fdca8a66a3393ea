package labelworker

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
)

type OutputFormat int

const (
	OutputPDF = OutputFormat(iota)
	OutputPNG
)

func (f OutputFormat) String() string {
	switch f {
	case OutputPDF:
		return "PDF"
	case OutputPNG:
		return "PNG"
	}
	return ""
}

func (f OutputFormat) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToLower(f.String()))
}

// ContentType returns the MIME type served for this output format.
func (f OutputFormat) ContentType() string {
	if f == OutputPNG {
		return "image/png"
	}
	return "application/pdf"
}

func (f *OutputFormat) UnmarshalJSON(b []byte) (err error) {

	var formatStr string

	if err := json.Unmarshal(b, &formatStr); err == nil {
		formatString := strings.ToUpper(formatStr)
		switch formatString {
		case "PDF":
			*f = OutputPDF
		case "PNG":
			*f = OutputPNG
		default:
			log.Warn().Str("formatString", formatString).Msg("Unexpected OutputFormat json")
			*f = OutputPDF
		}
		return nil
	}

	// not a string .. maybe it's an int

	var formatInt int
	if err := json.Unmarshal(b, &formatInt); err == nil {
		*f = OutputFormat(formatInt)
		return nil
	} else {
		return err
	}

}
