// Package httputil centralizes JSON response envelopes so every handler
// emits the same shapes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "docaudit/pkg/domain-errors"
)

// WriteJSON encodes v with the given status. Encoding failures are ignored;
// by then the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors omit the description so storage or upstream details never
// leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	body := map[string]string{"error": string(code)}
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) && de.Description != "" {
		body["error_description"] = de.Description
	}
	WriteJSON(w, status, body)
}
