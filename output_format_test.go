package labelworker

import (
	"encoding/json"
	"testing"

	"github.com/couchbaselabs/go.assert"
)

func TestOutputFormatJson(t *testing.T) {

	js, err := json.Marshal(OutputPNG)
	assert.True(t, err == nil)
	assert.Equals(t, string(js), `"png"`)

	var format OutputFormat
	err = json.Unmarshal([]byte(`"pdf"`), &format)
	assert.True(t, err == nil)
	assert.Equals(t, format, OutputPDF)

	err = json.Unmarshal([]byte(`"PNG"`), &format)
	assert.True(t, err == nil)
	assert.Equals(t, format, OutputPNG)

	// older clients send the format as an int
	err = json.Unmarshal([]byte(`1`), &format)
	assert.True(t, err == nil)
	assert.Equals(t, format, OutputPNG)

}

func TestOutputFormatContentType(t *testing.T) {

	assert.Equals(t, OutputPDF.ContentType(), "application/pdf")
	assert.Equals(t, OutputPNG.ContentType(), "image/png")

}
