// Package judge talks to the external judgment service: an OpenAI-compatible
// chat endpoint that evaluates document content against the active rule
// list and returns a structured verdict.
package judge

import (
	"context"

	"docaudit/internal/verdict"
)

//go:generate mockgen -source=judge.go -destination=mocks/judge-mocks.go -package=mocks Judge

// Judge evaluates content against an ordered rule list. Rule order is
// preserved into the prompt, so it is part of the audit trail.
type Judge interface {
	Judge(ctx context.Context, content string, rules []string) (*verdict.Result, error)
}
