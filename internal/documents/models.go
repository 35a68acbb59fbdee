// Package documents tracks uploaded audit reports and their lifecycle:
// unprocessed -> processing -> judged (or error). The registry is the single
// writer of content, verdict and the processing flag.
package documents

import (
	"time"

	"docaudit/internal/verdict"
)

// Document is one tracked upload. Source holds the raw uploaded bytes for
// the session; Content is the normalized text, populated at most once (the
// extractor never runs twice for the same document). Processing gates
// re-entry: at most one judgment request is in flight per document.
type Document struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	SizeBytes  int             `json:"size_bytes"`
	Source     []byte          `json:"-"`
	Content    string          `json:"-"`
	Processing bool            `json:"processing"`
	Verdict    *verdict.Result `json:"verdict,omitempty"`
	UploadedAt time.Time       `json:"uploaded_at"`
}

// HasContent reports whether extraction already ran for this document.
func (d Document) HasContent() bool { return d.Content != "" }
