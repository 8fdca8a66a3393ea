package labelworker

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// LabelHTTPStatusHandler lets clients of deferred requests claim their
// result by request id.
type LabelHTTPStatusHandler struct {
}

func NewLabelHTTPStatusHandler() *LabelHTTPStatusHandler {
	return &LabelHTTPStatusHandler{}
}

func (s *LabelHTTPStatusHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {

	log.Info().Str("component", "LABEL_STATUS").Msg("serveHttp called")

	labelRequest := LabelRequest{}
	decoder := json.NewDecoder(req.Body)
	err := decoder.Decode(&labelRequest)
	if err != nil {
		log.Error().Err(err).Str("component", "LABEL_STATUS").Msg("unable to unmarshal json")
		http.Error(w, "unable to unmarshal json", 400)
		return
	}

	labelResult, err := CheckLabelStatusByID(labelRequest.RequestID)
	if err != nil {
		msg := "unable to perform status check. %v"
		errMsg := fmt.Sprintf(msg, err)
		log.Error().Err(err).Str("component", "LABEL_STATUS").Msg("unable to perform status check")
		http.Error(w, errMsg, 404)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	js, err := json.Marshal(labelResult)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, err = w.Write(js)
	if err != nil {
		log.Error().Err(err).Str("component", "LABEL_STATUS").Msg("http write() failed")
	}

	_ = req.Body.Close()
}
