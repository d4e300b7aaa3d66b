package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"media-ingest/internal/logging"
)

var logger = logging.Component("middleware")

// Recovery turns a panicking handler into a JSON 500 carrying the request
// id, so one bad upload never takes the process down.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			requestID := GetRequestID(r.Context())
			logger.Error("Panic recovered (request %s): %v\n%s", requestID, rec, debug.Stack())

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			if err := json.NewEncoder(w).Encode(map[string]string{
				"error":     "internal server error",
				"requestId": requestID,
			}); err != nil {
				logger.Debug("failed to write panic response: %v", err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
