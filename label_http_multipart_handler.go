package labelworker

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// LabelHTTPMultipartHandler takes the document as a raw mime part next
// to the json request, the route for clients that do not want to
// base64 their files.
type LabelHTTPMultipartHandler struct {
	handler *LabelHTTPHandler
}

func NewLabelHTTPMultipartHandler(h *LabelHTTPHandler) *LabelHTTPMultipartHandler {
	return &LabelHTTPMultipartHandler{
		handler: h,
	}
}

func (s *LabelHTTPMultipartHandler) extractParts(req *http.Request) (LabelRequest, error) {

	log.Info().Str("component", "LABEL_HTTP").Msg("request to label-file-upload")
	labelReq := LabelRequest{Options: s.handler.Defaults}

	switch req.Method {
	case "POST":
		h := req.Header.Get("Content-Type")
		_, attrs, _ := mime.ParseMediaType(h)
		log.Info().Str("component", "LABEL_HTTP").
			Str("content_type", h).
			Msg("content type")

		if !strings.HasPrefix(h, "multipart/related") {
			return labelReq, fmt.Errorf("expected multipart related")
		}

		reader := multipart.NewReader(req.Body, attrs["boundary"])

		for {

			part, err := reader.NextPart()

			if err == io.EOF {
				break
			}
			if err != nil {
				return labelReq, fmt.Errorf("failed to read mime part: %v", err)
			}
			contentTypeOuter := part.Header.Get("Content-Type")
			contentType, attrs, _ := mime.ParseMediaType(contentTypeOuter)

			log.Debug().Str("component", "LABEL_HTTP").Interface("attrs", attrs).
				Str("content_type", contentType).
				Msg("got mime part")

			switch contentType {
			case "application/json":
				decoder := json.NewDecoder(part)
				err := decoder.Decode(&labelReq)
				if err != nil {
					return labelReq, fmt.Errorf("unable to unmarshal json: %s", err)
				}
				part.Close()
			default:
				if !strings.HasPrefix(contentType, "image") && contentType != "application/pdf" {
					return labelReq, fmt.Errorf("expected content-type: image/* or application/pdf")
				}

				partContents, err := io.ReadAll(part)
				if err != nil {
					return labelReq, fmt.Errorf("failed to read mime part: %v", err)
				}

				labelReq.DocBytes = partContents
				labelReq.ContentType = contentType
				if fileName := part.FileName(); fileName != "" {
					labelReq.Filename = fileName
				}
				return labelReq, nil

			}

		}

		return labelReq, fmt.Errorf("request carried no document part")

	default:
		return labelReq, fmt.Errorf("this endpoint only accepts POST requests")
	}

}

func (s *LabelHTTPMultipartHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Warn().Err(err).Caller().Str("component", "LABEL_HTTP").Msg(req.RequestURI + " request Body could not be closed")
		}
	}(req.Body)

	if !rejectWhenUnavailable(w, "LABEL_HTTP") {
		return
	}

	labelRequest, err := s.extractParts(req)
	if err != nil {
		log.Error().Err(err).Str("component", "LABEL_HTTP").Msg("Error extracting multipart/related parts")
		errStr := fmt.Sprintf("Error extracting multipart/related parts: %v", err)
		http.Error(w, errStr, 400)
		return
	}
	if err := labelRequest.Options.validate(); err != nil {
		http.Error(w, fmt.Sprintf("Invalid processing options: %v", err), 400)
		return
	}

	labelResult, httpStatus, err := s.handler.HandleLabelRequest(&labelRequest)
	if err != nil {
		msg := "Unable to process label request."
		log.Error().Err(err).Str("component", "LABEL_HTTP").Msg(msg)
		http.Error(w, msg, httpStatus)
		return
	}

	writeLabelResult(w, labelResult, httpStatus, "LABEL_HTTP")

}
