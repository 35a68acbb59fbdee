// Package history keeps an append-only record of batch activity so an
// operator can see what was judged, when, and with what outcome. With
// Postgres configured the record survives the in-memory registries.
package history

import "time"

// Event is one recorded pipeline action. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	DocumentID   string    `json:"document_id"`
	DocumentName string    `json:"document_name"`
	Action       Action    `json:"action"`
	Status       string    `json:"status"`
	Detail       string    `json:"detail,omitempty"`
}

// Action classifies a history event.
type Action string

const (
	ActionUploaded Action = "uploaded"
	ActionRemoved  Action = "removed"
	ActionJudged   Action = "judged"
)
