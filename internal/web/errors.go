package web

// errors.go provides unified error response handling for the API.
//
// Every error is logged server-side with its full technical detail and
// returned to the client as a sanitized JSON message with a status code
// derived from known sentinel errors.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/invenlab/activos/internal/importer"
	"github.com/invenlab/activos/internal/logging"
	"github.com/invenlab/activos/internal/store"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError logs err and answers with a status derived from known
// sentinels: 404 for missing rows, 400 for unusable input, 429 when the
// import limiter rejects, 500 otherwise.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, importer.ErrEmptyCSV):
		status = http.StatusBadRequest
	case errors.Is(err, importer.ErrTooManyImports):
		status = http.StatusTooManyRequests
	}
	writeError(w, r, status, err.Error())
}

// writeError writes a JSON error response.
// Logs the full message server-side but sends a sanitized one to the client.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", message,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: sanitizeErrorMessage(message)})
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// internalMarkers are substrings that indicate a message leaks
// infrastructure detail and must not reach the client verbatim.
var internalMarkers = []string{
	"SQLSTATE",
	"pq:",
	"pgx",
	"connection refused",
	"dial tcp",
	"context deadline exceeded",
}

// sanitizeErrorMessage replaces messages carrying infrastructure detail
// with a generic one. Validation and domain messages pass through.
func sanitizeErrorMessage(message string) string {
	lower := strings.ToLower(message)
	for _, marker := range internalMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return "error interno del servidor"
		}
	}
	return message
}
