package failure

import (
	"errors"
	"fmt"
)

// Kind identifies a class of ingest failure. Kinds are stable strings so
// callers can switch on them or hand them to clients unchanged.
type Kind string

const (
	// KindEmptyUpload is returned for zero-length uploads.
	KindEmptyUpload Kind = "empty_upload"
	// KindUnsupportedType is returned when the declared content type is unknown or not allowed.
	KindUnsupportedType Kind = "unsupported_type"
	// KindExtensionMismatch is returned when the filename extension does not fit the category.
	KindExtensionMismatch Kind = "extension_mismatch"
	// KindFileTooLarge is returned when an upload exceeds its category size ceiling.
	KindFileTooLarge Kind = "file_too_large"
	// KindWrongCategory is returned when a transcoder receives input of another category.
	KindWrongCategory Kind = "wrong_category"
	// KindDecodeError is returned when source bytes cannot be decoded.
	KindDecodeError Kind = "decode_error"
	// KindEncodeError is returned when encoding fails, including external encoder failures.
	KindEncodeError Kind = "encode_error"
	// KindIOError is returned for filesystem failures.
	KindIOError Kind = "io_error"
	// KindUnreachable is returned when a remote URL answers with a non-2xx status.
	KindUnreachable Kind = "unreachable"
	// KindWrongContentType is returned when a remote URL does not serve media.
	KindWrongContentType Kind = "wrong_content_type"
	// KindTimeout is returned when a remote probe or an external process runs out of time.
	KindTimeout Kind = "timeout"
	// KindNetworkError is returned for transport-level failures while probing a URL.
	KindNetworkError Kind = "network_error"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrEmptyUpload       = &Error{Kind: KindEmptyUpload}
	ErrUnsupportedType   = &Error{Kind: KindUnsupportedType}
	ErrExtensionMismatch = &Error{Kind: KindExtensionMismatch}
	ErrFileTooLarge      = &Error{Kind: KindFileTooLarge}
	ErrWrongCategory     = &Error{Kind: KindWrongCategory}
	ErrDecode            = &Error{Kind: KindDecodeError}
	ErrEncode            = &Error{Kind: KindEncodeError}
	ErrIO                = &Error{Kind: KindIOError}
	ErrUnreachable       = &Error{Kind: KindUnreachable}
	ErrWrongContentType  = &Error{Kind: KindWrongContentType}
	ErrTimeout           = &Error{Kind: KindTimeout}
	ErrNetwork           = &Error{Kind: KindNetworkError}
)

// Error is the only error type returned across the pipeline boundary.
type Error struct {
	Kind   Kind
	Detail string

	// Actual and Limit are set for KindFileTooLarge.
	Actual int64
	Limit  int64

	Err error
}

// New creates a failure of the given kind with a formatted detail message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap creates a failure of the given kind around an underlying cause.
// The cause's message is appended to the detail.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	detail := fmt.Sprintf(format, args...)
	if err != nil {
		if detail == "" {
			detail = err.Error()
		} else {
			detail = detail + ": " + err.Error()
		}
	}
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// TooLarge creates a KindFileTooLarge failure.
func TooLarge(actual, limit int64) *Error {
	return &Error{
		Kind:   KindFileTooLarge,
		Detail: fmt.Sprintf("file is %d bytes, limit is %d bytes", actual, limit),
		Actual: actual,
		Limit:  limit,
	}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel (or any *Error) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Detail == ""
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// As returns err as a *Error, converting foreign errors into fallback.
// Pipeline boundaries use it so that nothing but *Error reaches a caller.
func As(err error, fallback Kind) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return Wrap(fallback, err, "")
}

// IsValidation reports whether kind is detected before any transcoding work starts.
func IsValidation(kind Kind) bool {
	switch kind {
	case KindEmptyUpload, KindUnsupportedType, KindExtensionMismatch, KindFileTooLarge,
		KindUnreachable, KindWrongContentType, KindTimeout, KindNetworkError:
		return true
	}
	return false
}
