package encoder

import (
	"context"
	"time"
)

// Operation names used for logging and metric labels.
const (
	OperationRemux     = "remux"
	OperationThumbnail = "thumbnail"
)

// Command is a single external encoder invocation.
type Command struct {
	// Operation labels the invocation ("remux", "thumbnail").
	Operation string
	// Args are passed to the executable verbatim.
	Args []string
	// Output is the file the invocation writes. It is removed when the
	// process fails, times out or is cancelled. May be empty.
	Output string
}

// Invocation describes a finished process.
type Invocation struct {
	Executable string
	Args       []string
	Stdout     string
	Stderr     string
	ExitCode   int
	Duration   time.Duration
}

// Succeeded reports whether the process exited with code 0.
func (i Invocation) Succeeded() bool {
	return i.ExitCode == 0
}

// Gateway runs the external encoder.
//
// A non-zero exit code is not an error: it is reported through
// Invocation.ExitCode with stderr captured. Invoke returns an error only when
// the process could not be run to completion (start failure, timeout,
// cancellation), and that error is always a *failure.Error.
type Gateway interface {
	Invoke(ctx context.Context, cmd Command) (Invocation, error)
}

// Observer records encoder metrics. ObserveFinish is called exactly once for
// every ObserveStart.
type Observer interface {
	ObserveStart(operation string)
	// status is "success", "error", "timeout" or "cancelled".
	ObserveFinish(operation, status string, durationSeconds float64)
}

type nopObserver struct{}

func (nopObserver) ObserveStart(string)                  {}
func (nopObserver) ObserveFinish(string, string, float64) {}
