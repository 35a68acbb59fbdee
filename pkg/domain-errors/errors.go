// Package domainerrors defines the coded error taxonomy shared across
// modules. Handlers translate codes to HTTP statuses; workers use them to
// decide whether a failure becomes an ERROR verdict or a rejected request.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure independent of transport.
type Code string

const (
	// CodeExtractionFailed marks an unreadable or malformed uploaded document.
	CodeExtractionFailed Code = "extraction_failed"
	// CodeJudgmentFailed marks a judgment service failure: network error,
	// non-2xx response, malformed verdict payload, or missing credentials.
	CodeJudgmentFailed Code = "judgment_failed"
	// CodeJudgmentTimeout marks a judgment call that exceeded its deadline.
	// Kept distinct from CodeJudgmentFailed so the synthesized verdict can
	// say so.
	CodeJudgmentTimeout Code = "judgment_timeout"
	// CodeValidationFailed marks a malformed rule-import file. Imports are
	// all-or-nothing: nothing is applied when this is returned.
	CodeValidationFailed Code = "validation_failed"

	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeBadRequest Code = "bad_request"
	CodeInternal   Code = "internal_error"
)

// Error carries a code plus a human-readable description and an optional
// wrapped cause.
type Error struct {
	Code        Code
	Description string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a description.
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Newf builds a coded error with a formatted description.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Description: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and description to an underlying cause.
func Wrap(code Code, description string, cause error) *Error {
	return &Error{Code: code, Description: description, cause: cause}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps an error code to the HTTP status handlers should emit.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidationFailed, CodeExtractionFailed:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeJudgmentFailed, CodeJudgmentTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
