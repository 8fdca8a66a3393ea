package labelworker

// Advisory records a non-fatal degradation a stage wants surfaced next to
// an otherwise successful result.
type Advisory struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

const (
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusError      = "error"
)

// LabelResult is the outcome of one normalization job. Status moves from
// "processing" to "done" or "error"; failed jobs carry a typed Error and
// no output.
type LabelResult struct {
	RequestID    string       `json:"request_id"`
	Status       string       `json:"status"`
	Output       []byte       `json:"output,omitempty"`
	OutputFormat OutputFormat `json:"output_format"`
	Width        int          `json:"width_px,omitempty"`
	Height       int          `json:"height_px,omitempty"`
	DPI          float64      `json:"dpi,omitempty"`
	Advisories   []Advisory   `json:"advisories,omitempty"`
	Error        *LabelError  `json:"error,omitempty"`
}

func newLabelResult(requestID string) LabelResult {
	return LabelResult{RequestID: requestID, Status: StatusProcessing}
}

func errorLabelResult(requestID string, err error) LabelResult {
	return LabelResult{
		RequestID: requestID,
		Status:    StatusError,
		Error:     asLabelError(err),
	}
}
