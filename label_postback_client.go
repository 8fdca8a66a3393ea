package labelworker

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

var postTimeout = time.Duration(5 * time.Second)

// LabelPostClient pushes a finished result to the reply_to address of a
// deferred request.
type LabelPostClient struct {
}

func NewLabelPostClient() *LabelPostClient {
	return &LabelPostClient{}
}

func (c *LabelPostClient) postLabelResult(labelResult LabelResult, replyToAddress string) error {
	log.Info().Str("component", "LABEL_HTTP").
		Str("RequestID", labelResult.RequestID).
		Str("replyTo", replyToAddress).
		Msg("posting label result back")

	jsonReply, err := json.Marshal(labelResult)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", replyToAddress, bytes.NewBuffer(jsonReply))
	if err != nil {
		return err
	}
	req.Close = true
	req.Header.Set("User-Agent", "printshop-labelworker/1.0")
	req.Header.Set("X-Custom-Header", "automated reply")
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: postTimeout}
	resp, err := client.Do(req)
	if err != nil {
		log.Warn().Str("component", "LABEL_HTTP").
			Str("replyTo", replyToAddress).
			Msg("label result was not delivered, address did not respond")
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn().Str("component", "LABEL_HTTP").
			Str("replyTo", replyToAddress).
			Msg("label result delivery response could not be read")
		return err
	}
	log.Debug().Str("component", "LABEL_HTTP").
		Str("body", string(body)).
		Msg("response from label result delivery")
	return nil
}
