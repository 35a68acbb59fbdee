// Package verdict defines the structured audit outcome for one document.
// Results are immutable after creation; a later batch run may replace the
// whole value on a document but never mutates an existing one.
package verdict

import "time"

// Status is the overall outcome of one document audit.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusWarning Status = "WARNING"
	StatusError   Status = "ERROR"
)

// Coerce normalizes an upstream status value to one of the four enum values.
// The judgment service is an external oracle; anything unrecognized gets the
// most conservative non-PASS treatment.
func Coerce(raw string) Status {
	switch Status(raw) {
	case StatusPass, StatusFail, StatusWarning, StatusError:
		return Status(raw)
	default:
		return StatusWarning
	}
}

// Label returns the zh display label used by the UI and exports.
func (s Status) Label() string {
	switch s {
	case StatusPass:
		return "通过"
	case StatusFail:
		return "不通过"
	case StatusWarning:
		return "警告"
	case StatusError:
		return "错误"
	}
	return string(s)
}

// Severity grades a single issue.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Label returns the zh display label for a severity grade.
func (s Severity) Label() string {
	switch s {
	case SeverityHigh:
		return "高"
	case SeverityMedium:
		return "中"
	case SeverityLow:
		return "低"
	}
	return string(s)
}

// CoerceSeverity normalizes an upstream severity value, defaulting to
// medium for anything unrecognized.
func CoerceSeverity(raw string) Severity {
	switch Severity(raw) {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(raw)
	default:
		return SeverityMedium
	}
}

// Issue is one finding inside a result. Location is optional and free-form
// (page, paragraph, clause).
type Issue struct {
	Category    string   `json:"category"`
	Rule        string   `json:"rule"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Location    string   `json:"location,omitempty"`
}

// Result is the verdict for one document.
type Result struct {
	Status      Status    `json:"status"`
	Summary     string    `json:"summary"`
	Issues      []Issue   `json:"issues"`
	ProcessedAt time.Time `json:"processed_at"`
}

// SpecialRulesCategory is the catch-all issue category, also used for
// synthesized failure issues.
const SpecialRulesCategory = "special_rules"

// ErrorResult synthesizes the verdict recorded when extraction or judgment
// fails for a document. Exactly one issue, catch-all category, high severity,
// so the failure stays visible in every view and export.
func ErrorResult(summary, description string) *Result {
	return &Result{
		Status:  StatusError,
		Summary: summary,
		Issues: []Issue{{
			Category:    SpecialRulesCategory,
			Rule:        "系统处理",
			Description: description,
			Severity:    SeverityHigh,
		}},
		ProcessedAt: time.Now(),
	}
}
