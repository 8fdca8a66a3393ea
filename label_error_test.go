package labelworker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/couchbaselabs/go.assert"
	"github.com/pkg/errors"
)

func TestErrorKindJson(t *testing.T) {

	js, err := json.Marshal(UnsupportedFormat)
	assert.True(t, err == nil)
	assert.Equals(t, string(js), `"UNSUPPORTED_FORMAT"`)

	var kind ErrorKind
	err = json.Unmarshal([]byte(`"oversize_input"`), &kind)
	assert.True(t, err == nil)
	assert.Equals(t, kind, OversizeInput)

	// older clients send the kind as an int
	err = json.Unmarshal([]byte(`4`), &kind)
	assert.True(t, err == nil)
	assert.Equals(t, kind, ProcessingTimeout)

}

func TestLabelErrorJson(t *testing.T) {

	labelError := NewLabelError(NoLabelBoundaryFound, "page appears blank")
	js, err := json.Marshal(labelError)
	assert.True(t, err == nil)
	assert.Equals(t, string(js), `{"kind":"NO_LABEL_BOUNDARY_FOUND","message":"page appears blank"}`)

	roundTrip := LabelError{}
	err = json.Unmarshal(js, &roundTrip)
	assert.True(t, err == nil)
	assert.Equals(t, roundTrip.Kind, NoLabelBoundaryFound)
	assert.Equals(t, roundTrip.Message, "page appears blank")

}

func TestAsLabelError(t *testing.T) {

	typed := NewLabelError(OversizeInput, "too big")
	assert.Equals(t, asLabelError(typed), typed)

	wrapped := errors.Wrap(typed, "fetch failed")
	assert.Equals(t, asLabelError(wrapped).Kind, OversizeInput)
	assert.Equals(t, asLabelError(wrapped).Message, "too big")

	assert.Equals(t, asLabelError(context.DeadlineExceeded).Kind, ProcessingTimeout)
	assert.Equals(t, asLabelError(context.Canceled).Kind, ProcessingTimeout)
	assert.Equals(t, asLabelError(fmt.Errorf("boom")).Kind, CorruptDocument)

}

func TestErrorKindOf(t *testing.T) {

	kind, ok := ErrorKindOf(NewLabelError(EncodingError, "png encode failed"))
	assert.True(t, ok)
	assert.Equals(t, kind, EncodingError)

	_, ok = ErrorKindOf(fmt.Errorf("not typed"))
	assert.True(t, !ok)

}

func TestLabelErrorMessage(t *testing.T) {

	labelError := NewLabelError(OversizeInput, "document of %d bytes exceeds the %d byte limit", 2048, 1024)
	assert.Equals(t, labelError.Error(), "OVERSIZE_INPUT: document of 2048 bytes exceeds the 1024 byte limit")

}
