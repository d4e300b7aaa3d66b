package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"media-ingest/internal/logging"
)

var accessLog = logging.Component("http")

// LoggingConfig controls which requests reach the access log.
type LoggingConfig struct {
	// SkipPaths are never logged; a path matches itself and anything below it.
	SkipPaths       []string
	LogHealthChecks bool
}

// DefaultLoggingConfig skips /metrics and health probes.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{SkipPaths: []string{"/metrics"}}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// Logger returns access-log middleware writing one line per request:
//
//	client-ip method path status bytes-out bytes-in millis request-id user-agent
//
// Server errors are logged at warn level, everything else at info.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			line := formatAccessLine(r, wrapped, time.Since(start))
			if wrapped.statusCode >= http.StatusInternalServerError {
				accessLog.Warn("%s", line)
				return
			}
			accessLog.Info("%s", line)
		})
	}
}

func formatAccessLine(r *http.Request, rw *responseWriter, duration time.Duration) string {
	return fmt.Sprintf("%s %s %s %d %d %d %d %s %s",
		sanitizeLogField(getClientIP(r)),
		sanitizeLogField(r.Method),
		sanitizeLogField(r.URL.Path),
		rw.statusCode,
		rw.bytesWritten,
		r.ContentLength,
		duration.Milliseconds(),
		orDash(GetRequestID(r.Context())),
		orDash(quoteField(sanitizeLogField(r.Header.Get("User-Agent")))),
	)
}

// sanitizeLogField keeps a client-supplied value on one log line: CR and LF
// become spaces and other control characters except tab are dropped.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, p := range config.SkipPaths {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return !config.LogHealthChecks && healthCheckPaths[path]
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection's remote address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// quoteField wraps values containing spaces or quotes in double quotes,
// doubling embedded quotes.
func quoteField(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
