package documents

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"docaudit/internal/verdict"
	dErrors "docaudit/pkg/domain-errors"
)

// Registry is the in-memory document collection. All mutation goes through
// it; the orchestrator never holds references into the backing store, so
// concurrent completions of different documents cannot interleave badly.
type Registry struct {
	mu   sync.RWMutex
	docs []*Document
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Upsert inserts a new document. When a document with the same name already
// exists and overwrite is false it returns a conflict error so the caller
// can ask the operator to confirm; with overwrite the old entity is removed
// and a fresh one inserted (new id, cleared content, verdict and processing
// state).
func (r *Registry) Upsert(name string, source []byte, overwrite bool) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.docs {
		if r.docs[i].Name == name {
			if !overwrite {
				return Document{}, dErrors.Newf(dErrors.CodeConflict, "文件 %s 已存在", name)
			}
			r.docs = append(r.docs[:i], r.docs[i+1:]...)
			break
		}
	}

	doc := &Document{
		ID:         uuid.NewString(),
		Name:       name,
		SizeBytes:  len(source),
		Source:     source,
		UploadedAt: time.Now(),
	}
	r.docs = append(r.docs, doc)
	return *doc, nil
}

// Remove deletes by id; unknown ids are a no-op. A document removed while
// its judgment is mid-flight simply makes the eventual Complete a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.docs {
		if r.docs[i].ID == id {
			r.docs = append(r.docs[:i], r.docs[i+1:]...)
			return
		}
	}
}

// MarkProcessing flags the listed documents as in flight. Only documents
// without a verdict are affected; already-processing ids stay processing, so
// the call is idempotent.
func (r *Registry) MarkProcessing(ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		for _, doc := range r.docs {
			if doc.ID == id && doc.Verdict == nil {
				doc.Processing = true
			}
		}
	}
}

// Complete is the single write path back from the orchestrator: it records
// the verdict, memoizes content on first write, and clears the processing
// flag. Completing an id that was removed mid-flight is a safe no-op.
func (r *Registry) Complete(id, content string, result *verdict.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.ID != id {
			continue
		}
		if doc.Content == "" && content != "" {
			doc.Content = content
		}
		doc.Verdict = result
		doc.Processing = false
		return
	}
}

// Unprocessed returns a snapshot of documents still lacking a verdict.
// ERROR verdicts count as processed: failed documents are not re-offered,
// the operator removes and re-uploads to retry.
func (r *Registry) Unprocessed() []Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, 0)
	for _, doc := range r.docs {
		if doc.Verdict == nil {
			out = append(out, *doc)
		}
	}
	return out
}

// Get returns a snapshot of one document.
func (r *Registry) Get(id string) (Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.docs {
		if doc.ID == id {
			return *doc, true
		}
	}
	return Document{}, false
}

// List returns a snapshot of all documents in upload order.
func (r *Registry) List() []Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, len(r.docs))
	for i, doc := range r.docs {
		out[i] = *doc
	}
	return out
}
