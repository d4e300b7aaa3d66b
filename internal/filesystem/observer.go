package filesystem

// Observer records retry metrics for filesystem operations. The metrics
// package provides the Prometheus implementation; keeping the interface here
// avoids an import cycle between filesystem and metrics.
type Observer interface {
	// retryOp is the retried operation: "stat" or "copy".
	// volume is the resolved mount label (e.g., "uploads", "work").
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	// reason is "locked" for sharing violations and "stale" for NFS ESTALE.
	ObserveTransientError(retryOp, volume, reason string)
}

// defaultObserver is the package-level observer set at startup.
// If nil, metric recording is silently skipped (safe for tests).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
// Call this once at startup after creating the observer implementation.
func SetObserver(o Observer) {
	defaultObserver = o
}

// nopObserver discards all observations.
type nopObserver struct{}

func (nopObserver) ObserveRetryAttempt(string, string) {}
func (nopObserver) ObserveRetrySuccess(string, string) {}
func (nopObserver) ObserveRetryFailure(string, string) {}
func (nopObserver) ObserveRetryDuration(string, string, float64) {}
func (nopObserver) ObserveTransientError(string, string, string) {}

// observerFor returns the override if set, then the package default, then a no-op.
func observerFor(override Observer) Observer {
	if override != nil {
		return override
	}
	if defaultObserver != nil {
		return defaultObserver
	}
	return nopObserver{}
}
