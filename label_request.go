package labelworker

import (
	"encoding/base64"
)

// LabelRequest is the wire form of a normalization job. Exactly one of
// DocURL, DocBase64 or DocBytes supplies the document.
type LabelRequest struct {
	DocURL         string            `json:"doc_url,omitempty"`
	DocBase64      string            `json:"doc_base64,omitempty"`
	DocBytes       []byte            `json:"doc_bytes,omitempty"`
	Filename       string            `json:"filename,omitempty"`
	ContentType    string            `json:"content_type,omitempty"`
	Options        ProcessingOptions `json:"options"`
	InplaceProcess bool              `json:"inplace_process,omitempty"`
	Deferred       bool              `json:"deferred,omitempty"`
	ReplyTo        string            `json:"reply_to,omitempty"`
	RequestID      string            `json:"request_id,omitempty"`
}

func (r *LabelRequest) hasBase64() bool {
	return r.DocBase64 != ""
}

func (r *LabelRequest) decodeBase64() error {
	decoded, err := base64.StdEncoding.DecodeString(r.DocBase64)
	if err != nil {
		return NewLabelError(CorruptDocument, "document payload is not valid base64")
	}
	r.DocBytes = decoded
	r.DocBase64 = ""
	return nil
}

func (r *LabelRequest) downloadDocURL() error {
	docBytes, err := url2bytes(r.DocURL, r.Options.MaxDocumentBytes)
	if err != nil {
		return err
	}
	r.DocBytes = docBytes
	return nil
}

// resolveBytes makes sure DocBytes is populated from whichever source the
// request carries, enforcing the byte ceiling before any decode work.
func (r *LabelRequest) resolveBytes() error {
	if r.DocBytes == nil {
		if r.hasBase64() {
			if err := r.decodeBase64(); err != nil {
				return err
			}
		} else if r.DocURL != "" {
			if err := r.downloadDocURL(); err != nil {
				return err
			}
		} else {
			return NewLabelError(UnsupportedFormat, "request carries no document, set doc_url, doc_base64 or doc_bytes")
		}
	}
	if int64(len(r.DocBytes)) > r.Options.MaxDocumentBytes {
		return NewLabelError(OversizeInput, "document of %d bytes exceeds the %d byte limit",
			len(r.DocBytes), r.Options.MaxDocumentBytes)
	}
	return nil
}

// sourceDocument resolves the payload into a typed SourceDocument.
func (r *LabelRequest) sourceDocument() (SourceDocument, error) {
	if err := r.resolveBytes(); err != nil {
		return SourceDocument{}, err
	}
	return NewSourceDocument(r.DocBytes, r.ContentType, r.Filename)
}
