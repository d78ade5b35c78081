package server

import (
	"encoding/json"
	"net/http"

	"github.com/wizbi/wizbi/internal/api"
)

// responseWriter captures the status code written by a handler so the
// logging middleware can report it.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// writeJSONResponse writes v as the JSON response body with the given status.
func writeJSONResponse(w http.ResponseWriter, statusCode int, v any) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // headers already sent
}

// writeErrorResponse writes a standardized error response.
func writeErrorResponse(w http.ResponseWriter, statusCode int, message, details string) {
	writeErrorResponseWithCode(w, statusCode, "", message, details)
}

// writeErrorResponseWithCode writes a standardized error response with an
// optional machine-readable error code.
func writeErrorResponseWithCode(w http.ResponseWriter, statusCode int, errorCode, message, details string) {
	writeJSONResponse(w, statusCode, api.ErrorResponse{
		Error:   message,
		Code:    errorCode,
		Details: details,
	})
}
