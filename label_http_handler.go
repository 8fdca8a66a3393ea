package labelworker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

// LabelHTTPHandler is for initial handling of a label request
type LabelHTTPHandler struct {
	RabbitConfig RabbitConfig
	Pipeline     *Pipeline
	Defaults     ProcessingOptions
	Inplace      bool
}

func NewLabelHTTPHandler(r RabbitConfig, pipeline *Pipeline, defaults ProcessingOptions, inplace bool) *LabelHTTPHandler {
	return &LabelHTTPHandler{
		RabbitConfig: r,
		Pipeline:     pipeline,
		Defaults:     defaults,
		Inplace:      inplace,
	}
}

var (
	// AppStop and ServiceCanAccept are global. Used to set the flag for logging and stopping the application
	AppStop            bool
	ServiceCanAccept   bool
	ServiceCanAcceptMu deadlock.Mutex
)

// ServiceState reads both service flags under the lock.
func ServiceState() (canAccept bool, stopping bool) {
	ServiceCanAcceptMu.Lock()
	defer ServiceCanAcceptMu.Unlock()
	return ServiceCanAccept, AppStop
}

// SetServiceStopping marks the daemon as draining, new requests get 503
// while already queued ones still finish.
func SetServiceStopping() {
	ServiceCanAcceptMu.Lock()
	AppStop = true
	ServiceCanAccept = false
	ServiceCanAcceptMu.Unlock()
}

// SetServiceAccepting opens the intake unconditionally, for daemons
// that run without a resource manager.
func SetServiceAccepting() {
	ServiceCanAcceptMu.Lock()
	ServiceCanAccept = true
	ServiceCanAcceptMu.Unlock()
}

// httpStatusForError maps the error taxonomy onto http statuses.
func httpStatusForError(labelError *LabelError) int {
	switch labelError.Kind {
	case UnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case OversizeInput:
		return http.StatusRequestEntityTooLarge
	case CorruptDocument, NoLabelBoundaryFound:
		return http.StatusUnprocessableEntity
	case ProcessingTimeout:
		return http.StatusGatewayTimeout
	case EncodingError:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// rejectWhenUnavailable writes 503 while the service is saturated or
// draining, the return tells the caller whether to go on.
func rejectWhenUnavailable(w http.ResponseWriter, component string) bool {
	serviceCanAcceptLocal, appStopLocal := ServiceState()
	if !serviceCanAcceptLocal && !appStopLocal {
		err := "no resources available to process the request"
		log.Warn().Str("component", component).Err(fmt.Errorf(err)).
			Msg("conditions for accepting new requests are not met")
		http.Error(w, err, 503)
		return false
	}

	if !serviceCanAcceptLocal && appStopLocal {
		err := "service is going down"
		log.Warn().Str("component", component).Err(fmt.Errorf(err)).
			Msg("conditions for accepting new requests are not met")
		http.Error(w, err, 503)
		return false
	}
	return true
}

func writeLabelResult(w http.ResponseWriter, labelResult LabelResult, httpStatus int, component string) {
	js, err := json.Marshal(labelResult)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_, err = w.Write(js)
	if err != nil {
		log.Error().Err(err).Str("component", component).Msg("http write() failed")
	}
}

func (s *LabelHTTPHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Info().Str("component", "LABEL_HTTP").Msg("serveHttp called")
	defer req.Body.Close()

	if !rejectWhenUnavailable(w, "LABEL_HTTP") {
		return
	}

	labelRequest := LabelRequest{Options: s.Defaults}
	decoder := json.NewDecoder(req.Body)
	err := decoder.Decode(&labelRequest)
	if err != nil {
		log.Warn().Str("component", "LABEL_HTTP").Err(err).
			Msg("did the client send a valid json?")
		http.Error(w, "Unable to unmarshal json", 400)
		return
	}
	if err := labelRequest.Options.validate(); err != nil {
		log.Warn().Str("component", "LABEL_HTTP").Err(err).
			Msg("rejecting invalid processing options")
		http.Error(w, fmt.Sprintf("Invalid processing options: %v", err), 400)
		return
	}

	labelResult, httpStatus, err := s.HandleLabelRequest(&labelRequest)
	if err != nil {
		errMsg := fmt.Sprintf("Unable to process label request.  Error: %v", err)
		log.Error().Err(err).Str("component", "LABEL_HTTP").Msg("Unable to process label request")
		http.Error(w, errMsg, httpStatus)
		return
	}

	writeLabelResult(w, labelResult, httpStatus, "LABEL_HTTP")
}

// HandleLabelRequest routes one request either straight through the
// in-process pipeline or over rabbit to a worker. The int return is the
// http status matching the outcome.
func (s *LabelHTTPHandler) HandleLabelRequest(labelRequest *LabelRequest) (LabelResult, int, error) {

	requestID := uuid.NewString()
	labelRequest.RequestID = requestID
	// set the context for zerolog, RequestID will be printed on each logging event
	logger := zerolog.New(os.Stdout).With().
		Str("RequestID", requestID).Timestamp().Logger()

	switch {
	case s.Inplace || labelRequest.InplaceProcess:
		// inplace processing: short circuit rabbitmq, and just run the pipeline directly
		doc, err := labelRequest.sourceDocument()
		if err != nil {
			logger.Warn().Err(err).Str("component", "LABEL_HTTP").Msg("could not resolve source document")
			labelResult := errorLabelResult(requestID, err)
			return labelResult, httpStatusForError(labelResult.Error), nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), labelRequest.Options.itemTimeout())
		defer cancel()

		labelResult := s.Pipeline.Format(ctx, &doc, labelRequest.Options, requestID)
		httpStatus := http.StatusOK
		if labelResult.Error != nil {
			httpStatus = httpStatusForError(labelResult.Error)
		}
		return labelResult, httpStatus, nil
	default:
		// add a new job to rabbitMQ and wait for a worker to respond w/ result
		labelClient, err := NewLabelRpcClient(s.RabbitConfig)
		if err != nil {
			logger.Error().Err(err).Str("component", "LABEL_HTTP").Msg("could not create rpc client")
			return LabelResult{}, http.StatusInternalServerError, err
		}

		labelResult, err := labelClient.FormatLabel(labelRequest, requestID)
		if err != nil {
			if _, ok := ErrorKindOf(err); ok {
				labelResult := errorLabelResult(requestID, err)
				return labelResult, httpStatusForError(labelResult.Error), nil
			}
			logger.Error().Err(err).Str("component", "LABEL_HTTP").Msg("rpc request failed")
			return LabelResult{}, http.StatusInternalServerError, err
		}

		httpStatus := http.StatusOK
		if labelResult.Error != nil {
			httpStatus = httpStatusForError(labelResult.Error)
		}
		return labelResult, httpStatus, nil
	}

}
