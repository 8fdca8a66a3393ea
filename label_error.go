package labelworker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

type ErrorKind int

const (
	UnsupportedFormat = ErrorKind(iota)
	CorruptDocument
	OversizeInput
	NoLabelBoundaryFound
	ProcessingTimeout
	EncodingError
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedFormat:
		return "UNSUPPORTED_FORMAT"
	case CorruptDocument:
		return "CORRUPT_DOCUMENT"
	case OversizeInput:
		return "OVERSIZE_INPUT"
	case NoLabelBoundaryFound:
		return "NO_LABEL_BOUNDARY_FOUND"
	case ProcessingTimeout:
		return "PROCESSING_TIMEOUT"
	case EncodingError:
		return "ENCODING_ERROR"
	}
	return ""
}

func (k ErrorKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *ErrorKind) UnmarshalJSON(b []byte) (err error) {

	var kindStr string

	if err := json.Unmarshal(b, &kindStr); err == nil {
		kindString := strings.ToUpper(kindStr)
		switch kindString {
		case "UNSUPPORTED_FORMAT":
			*k = UnsupportedFormat
		case "CORRUPT_DOCUMENT":
			*k = CorruptDocument
		case "OVERSIZE_INPUT":
			*k = OversizeInput
		case "NO_LABEL_BOUNDARY_FOUND":
			*k = NoLabelBoundaryFound
		case "PROCESSING_TIMEOUT":
			*k = ProcessingTimeout
		case "ENCODING_ERROR":
			*k = EncodingError
		default:
			log.Warn().Str("kindString", kindString).Msg("Unexpected ErrorKind json")
			*k = CorruptDocument
		}
		return nil
	}

	// not a string .. maybe it's an int

	var kindInt int
	if err := json.Unmarshal(b, &kindInt); err == nil {
		*k = ErrorKind(kindInt)
		return nil
	} else {
		return err
	}

}

// LabelError is the only error shape that crosses the result boundary.
// It carries a kind from the fixed taxonomy and a short message, never
// stack traces or internal diagnostics.
type LabelError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewLabelError(kind ErrorKind, format string, args ...interface{}) *LabelError {
	return &LabelError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// asLabelError normalizes any error escaping the pipeline into a LabelError.
// Context expiry maps to ProcessingTimeout; everything else that was not
// already typed is reported as a corrupt document with a generic message.
func asLabelError(err error) *LabelError {
	var labelErr *LabelError
	if errors.As(err, &labelErr) {
		return labelErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewLabelError(ProcessingTimeout, "processing deadline exceeded")
	}
	if errors.Is(err, context.Canceled) {
		return NewLabelError(ProcessingTimeout, "processing canceled")
	}
	return NewLabelError(CorruptDocument, "document could not be processed")
}

// ErrorKindOf reports the taxonomy kind of err, if it carries one.
func ErrorKindOf(err error) (ErrorKind, bool) {
	var labelErr *LabelError
	if errors.As(err, &labelErr) {
		return labelErr.Kind, true
	}
	return 0, false
}
