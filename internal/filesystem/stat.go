package filesystem

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"
)

// statFn is replaced in tests to simulate stale handles.
var statFn = os.Stat

// RetryConfig configures StatWithRetry's exponential backoff.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver for this operation.
	VolumeResolver *VolumeResolver
	// Observer overrides the package-level observer for this operation.
	Observer Observer
}

// DefaultRetryConfig returns 3 retries starting at 50ms, capped at 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func isNFSStaleError(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// StatWithRetry stats path, retrying only NFS stale file handle errors. Other
// errors, including not-exist, are returned on the first attempt. If ctx ends
// while backing off, the last stat error is returned.
func StatWithRetry(ctx context.Context, path string, config RetryConfig) (os.FileInfo, error) {
	run := newRetryRun("stat", path, config.VolumeResolver, config.Observer)
	backoff := config.InitialBackoff
	attempts := config.MaxRetries + 1

	for attempt := 1; ; attempt++ {
		info, err := statFn(path)
		if err == nil {
			if attempt > 1 {
				logger.Info("Stat of %s succeeded on attempt %d", path, attempt)
			}
			run.done(attempt, nil, false)
			return info, nil
		}
		if !isNFSStaleError(err) {
			run.done(attempt, err, false)
			return nil, err
		}

		run.transient("stale")
		if attempt >= attempts {
			logger.Warn("Stat of %s still stale after %d attempts: %v", path, attempts, err)
			run.done(attempt, err, true)
			return nil, err
		}

		run.retrying()
		logger.Debug("Stale file handle for %s, retrying in %v (attempt %d/%d)", path, backoff, attempt, attempts)
		if sleep(ctx, backoff) != nil {
			run.done(attempt, err, false)
			return nil, err
		}
		backoff = min(backoff*2, config.MaxBackoff)
	}
}
