package handlers

import (
	"errors"
	"net/http"

	"media-ingest/internal/failure"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	Actual    int64  `json:"actual,omitempty"`
	Limit     int64  `json:"limit,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind failure.Kind) int {
	switch kind {
	case failure.KindEmptyUpload, failure.KindExtensionMismatch, failure.KindWrongCategory:
		return http.StatusBadRequest
	case failure.KindUnsupportedType:
		return http.StatusUnsupportedMediaType
	case failure.KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case failure.KindDecodeError:
		return http.StatusUnprocessableEntity
	case failure.KindUnreachable, failure.KindWrongContentType, failure.KindNetworkError:
		return http.StatusBadGateway
	case failure.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure renders err as an ErrorResponse. Errors that are not
// *failure.Error are reported as io_error without their text.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var fe *failure.Error
	if !errors.As(err, &fe) {
		logger.Error("untyped error reached the HTTP layer: %v", err)
		fe = failure.New(failure.KindIOError, "internal error")
	}

	resp := ErrorResponse{
		Error:     string(fe.Kind),
		Detail:    fe.Detail,
		Actual:    fe.Actual,
		Limit:     fe.Limit,
		RequestID: requestID(r),
	}

	status := statusFor(fe.Kind)
	if status >= http.StatusInternalServerError {
		logger.Warn("%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	writeJSONStatus(w, status, resp)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeJSONStatus(w, http.StatusBadRequest, ErrorResponse{
		Error:     "bad_request",
		Detail:    detail,
		RequestID: requestID(r),
	})
}
