// Package uistate tracks presentation state that outlives a single render:
// which documents are auto-expanded in the findings view. It is an explicit
// key-indexed registry rather than implicit view state so the pipeline can
// flag documents without knowing anything about rendering.
package uistate

import (
	"sort"
	"sync"
)

// Store is a mutex-guarded set of expanded document ids.
type Store struct {
	mu       sync.RWMutex
	expanded map[string]bool
}

func NewStore() *Store {
	return &Store{expanded: make(map[string]bool)}
}

// DocumentFlagged marks a document for auto-expansion. Called by the batch
// pipeline when a verdict lands with a non-empty issue list; purely a
// notification, never control flow.
func (s *Store) DocumentFlagged(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded[docID] = true
}

// Toggle flips the expansion state for one document.
func (s *Store) Toggle(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expanded[docID] {
		delete(s.expanded, docID)
	} else {
		s.expanded[docID] = true
	}
}

// Forget drops state for a removed document.
func (s *Store) Forget(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expanded, docID)
}

// IsExpanded reports the current state for one document.
func (s *Store) IsExpanded(docID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expanded[docID]
}

// Expanded returns all expanded ids, sorted for stable rendering.
func (s *Store) Expanded() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.expanded))
	for id := range s.expanded {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
