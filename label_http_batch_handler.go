package labelworker

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BatchResponse carries the per-slot results, index-aligned with the
// items of the request.
type BatchResponse struct {
	Results []LabelResult `json:"results"`
}

// LabelHTTPBatchHandler formats many documents in one call over the
// in-process worker pool. A document that fails only poisons its own
// slot, the rest of the batch still comes back.
type LabelHTTPBatchHandler struct {
	handler      *LabelHTTPHandler
	orchestrator *BatchOrchestrator
}

func NewLabelHTTPBatchHandler(h *LabelHTTPHandler, workers int) *LabelHTTPBatchHandler {
	return &LabelHTTPBatchHandler{
		handler:      h,
		orchestrator: NewBatchOrchestrator(h.Pipeline, workers),
	}
}

// decodeBatchRequest peels the items out as raw json first, so every
// item can be seeded with the right option defaults before decoding.
// Items without their own options inherit the batch-level ones.
func (s *LabelHTTPBatchHandler) decodeBatchRequest(req *http.Request) ([]LabelRequest, error) {
	var raw struct {
		Items   []json.RawMessage  `json:"items"`
		Options *ProcessingOptions `json:"options"`
	}
	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unable to unmarshal json: %v", err)
	}
	if len(raw.Items) == 0 {
		return nil, fmt.Errorf("batch carries no items")
	}

	batchDefaults := s.handler.Defaults
	if raw.Options != nil {
		batchDefaults = *raw.Options
	}

	items := make([]LabelRequest, len(raw.Items))
	for i, rawItem := range raw.Items {
		item := LabelRequest{Options: batchDefaults}
		if err := json.Unmarshal(rawItem, &item); err != nil {
			return nil, fmt.Errorf("unable to unmarshal item %d: %v", i, err)
		}
		if err := item.Options.validate(); err != nil {
			return nil, fmt.Errorf("invalid processing options on item %d: %v", i, err)
		}
		items[i] = item
	}
	return items, nil
}

func (s *LabelHTTPBatchHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Info().Str("component", "LABEL_HTTP").Msg("request to label batch")
	defer req.Body.Close()

	if !rejectWhenUnavailable(w, "LABEL_HTTP") {
		return
	}

	items, err := s.decodeBatchRequest(req)
	if err != nil {
		log.Warn().Str("component", "LABEL_HTTP").Err(err).Msg("rejecting batch request")
		http.Error(w, err.Error(), 400)
		return
	}

	// resolve every document up front, slots that cannot even produce a
	// document get their error result here and are never scheduled
	results := make([]LabelResult, len(items))
	var runnable []BatchItem
	var runnableIdx []int
	for i := range items {
		requestID := uuid.NewString()
		items[i].RequestID = requestID
		doc, err := items[i].sourceDocument()
		if err != nil {
			results[i] = errorLabelResult(requestID, err)
			continue
		}
		runnable = append(runnable, BatchItem{Doc: &doc, Options: items[i].Options, RequestID: requestID})
		runnableIdx = append(runnableIdx, i)
	}

	batchResults := s.orchestrator.ProcessBatch(req.Context(), runnable)
	for j := range batchResults {
		results[runnableIdx[j]] = batchResults[j]
	}

	js, err := json.Marshal(BatchResponse{Results: results})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(js); err != nil {
		log.Error().Err(err).Str("component", "LABEL_HTTP").Msg("http write() failed")
	}
}
