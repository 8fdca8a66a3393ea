package labelworker

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchbaselabs/go.assert"
)

func postPreviewRequest(body []byte) *httptest.ResponseRecorder {
	previewHandler := NewLabelHTTPPreviewHandler(inplaceHandlerForTests())
	req := httptest.NewRequest("POST", "/label-preview", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	previewHandler.ServeHTTP(rec, req)
	return rec
}

func TestPreviewHandlerReturnsPng(t *testing.T) {

	// the request asks for pdf, the preview route still answers with png
	labelRequest := LabelRequest{
		DocBase64: base64.StdEncoding.EncodeToString(
			pngFixture(400, 600, BoundingBox{Left: 50, Top: 50, Right: 350, Bottom: 550})),
		Options: DefaultProcessingOptions(),
	}
	body, err := json.Marshal(labelRequest)
	assert.True(t, err == nil)

	rec := postPreviewRequest(body)
	assert.Equals(t, rec.Code, http.StatusOK)
	assert.Equals(t, rec.Header().Get("Content-Type"), "image/png")

	decoded, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	assert.True(t, err == nil)
	assert.Equals(t, decoded.Bounds().Dx(), 1200)
	assert.Equals(t, decoded.Bounds().Dy(), 1800)

}

func TestPreviewHandlerUnsupportedDocument(t *testing.T) {

	labelRequest := LabelRequest{
		DocBase64: base64.StdEncoding.EncodeToString([]byte("not a label")),
		Options:   DefaultProcessingOptions(),
	}
	body, err := json.Marshal(labelRequest)
	assert.True(t, err == nil)

	rec := postPreviewRequest(body)
	assert.Equals(t, rec.Code, http.StatusUnsupportedMediaType)

	var labelResult LabelResult
	err = json.Unmarshal(rec.Body.Bytes(), &labelResult)
	assert.True(t, err == nil)
	assert.Equals(t, labelResult.Error.Kind, UnsupportedFormat)

}

func TestPreviewHandlerBadJson(t *testing.T) {

	rec := postPreviewRequest([]byte("{not json"))
	assert.Equals(t, rec.Code, http.StatusBadRequest)

}
