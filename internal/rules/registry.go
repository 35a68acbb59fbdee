package rules

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Registry is the in-memory ordered rule collection. Insertion order is
// observable downstream: ActiveTexts feeds the judgment prompt in exactly
// this order.
type Registry struct {
	mu    sync.RWMutex
	rules []Rule
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a new enabled rule. Blank or whitespace-only text is a no-op,
// matching the forgiving UI contract.
func (r *Registry) Add(text string, category Category) {
	if strings.TrimSpace(text) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, Rule{
		ID:       uuid.NewString(),
		Text:     text,
		Category: category,
		Enabled:  true,
	})
}

// Remove deletes the rule with the given id; unknown ids are a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rules {
		if r.rules[i].ID == id {
			r.rules = append(r.rules[:i], r.rules[i+1:]...)
			return
		}
	}
}

// Toggle flips the enabled flag for the given id; unknown ids are a no-op.
func (r *Registry) Toggle(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rules {
		if r.rules[i].ID == id {
			r.rules[i].Enabled = !r.rules[i].Enabled
			return
		}
	}
}

// ImportBatch appends pre-validated rows, assigning fresh ids. Validation
// (header checks, row filtering, category mapping) happens at the import
// boundary before this is called.
func (r *Registry) ImportBatch(rows []ImportRow) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		r.rules = append(r.rules, Rule{
			ID:       uuid.NewString(),
			Text:     row.Text,
			Category: row.Category,
			Enabled:  true,
		})
	}
	return len(rows)
}

// ActiveTexts returns the texts of all enabled rules in insertion order.
func (r *Registry) ActiveTexts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	texts := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		if rule.Enabled {
			texts = append(texts, rule.Text)
		}
	}
	return texts
}

// List returns a snapshot of all rules in insertion order.
func (r *Registry) List() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Rule{}, r.rules...)
}
