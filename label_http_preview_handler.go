package labelworker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LabelHTTPPreviewHandler renders the label as it would print, skipping
// binarization, and answers with the png itself. Previews always run in
// process, nobody wants to queue behind a batch for a visual check.
type LabelHTTPPreviewHandler struct {
	handler *LabelHTTPHandler
}

func NewLabelHTTPPreviewHandler(h *LabelHTTPHandler) *LabelHTTPPreviewHandler {
	return &LabelHTTPPreviewHandler{
		handler: h,
	}
}

func (s *LabelHTTPPreviewHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Info().Str("component", "LABEL_HTTP").Msg("request to label preview")
	defer req.Body.Close()

	if !rejectWhenUnavailable(w, "LABEL_HTTP") {
		return
	}

	labelRequest := LabelRequest{Options: s.handler.Defaults}
	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(&labelRequest); err != nil {
		log.Warn().Str("component", "LABEL_HTTP").Err(err).
			Msg("did the client send a valid json?")
		http.Error(w, "Unable to unmarshal json", 400)
		return
	}
	if err := labelRequest.Options.validate(); err != nil {
		http.Error(w, fmt.Sprintf("Invalid processing options: %v", err), 400)
		return
	}

	requestID := uuid.NewString()
	labelRequest.RequestID = requestID

	doc, err := labelRequest.sourceDocument()
	if err != nil {
		labelResult := errorLabelResult(requestID, err)
		writeLabelResult(w, labelResult, httpStatusForError(labelResult.Error), "LABEL_HTTP")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), labelRequest.Options.itemTimeout())
	defer cancel()

	labelResult := s.handler.Pipeline.Preview(ctx, &doc, labelRequest.Options, requestID)
	if labelResult.Error != nil {
		writeLabelResult(w, labelResult, httpStatusForError(labelResult.Error), "LABEL_HTTP")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(labelResult.Output); err != nil {
		log.Error().Err(err).Str("component", "LABEL_HTTP").Msg("http write() failed")
	}
}
