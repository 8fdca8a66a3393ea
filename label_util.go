package labelworker

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
)

func saveBytesToFileName(bytes []byte, tmpFileName string) error {
	return os.WriteFile(tmpFileName, bytes, 0600)
}

// url2bytes fetches a document over http with a hard byte ceiling, so an
// oversized remote file is rejected without buffering it whole.
func url2bytes(uri string, maxBytes int64) ([]byte, error) {

	var client = &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(uri)
	if err != nil {
		return nil, NewLabelError(CorruptDocument, "document url could not be fetched")
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewLabelError(CorruptDocument, "document url answered with status %d", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, NewLabelError(CorruptDocument, "document url body could not be read")
	}
	if int64(len(bodyBytes)) > maxBytes {
		return nil, NewLabelError(OversizeInput, "document at url exceeds the %d byte limit", maxBytes)
	}

	return bodyBytes, nil

}

// createTempFileName generating a file name within of a temp directory. If function argument ist empty string
// file name will be generated in ksuid format.
func createTempFileName(fileName string) (string, error) {
	tempDir := os.TempDir()

	if fileName == "" {
		ksuidRaw := ksuid.New()
		fileName = ksuidRaw.String()
	}

	return filepath.Join(tempDir, fileName), nil
}

func removeTempFile(name string, saveFiles bool) {
	if saveFiles {
		log.Debug().Str("component", "LABEL_UTIL").Msg(name + " kept for inspection")
		return
	}
	if err := os.Remove(name); err != nil {
		log.Warn().Err(err).Str("component", "LABEL_UTIL").Msg(name + " could not be removed")
	}
}

// checkURLForReplyTo Checks if provided string is a valid URL
func checkURLForReplyTo(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		errorText := "provided " + u.String() + " URI must be an absolute URL"
		err = fmt.Errorf(errorText)
	}
	return u.String(), err
}

// timeTrack used to measure time of selected operations
func timeTrack(start time.Time, operation string, message string, requestID string) {
	elapsed := time.Since(start)
	if requestID == "" {
		log.Info().Str("component", "label_worker").Dur(operation, elapsed).
			Timestamp().Msg(message)
		return
	}
	log.Info().Str("component", "label_worker").Dur(operation, elapsed).
		Str("RequestID", requestID).Timestamp().Msg(message)
}

// StripPasswordFromUrl strips passwords from URL
func StripPasswordFromUrl(urlToLog *url.URL) string {

	pass, passSet := urlToLog.User.Password()

	if passSet {
		return strings.Replace(urlToLog.String(), pass+"@", "***@", 1)
	}
	return urlToLog.String()
}
