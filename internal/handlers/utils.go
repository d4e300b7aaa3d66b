package handlers

import (
	"encoding/json"
	"net/http"

	"media-ingest/internal/middleware"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are logged; the status line is already sent by then.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatus writes v as JSON with the given status code.
func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, v)
}

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}
