package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"media-ingest/internal/failure"

	"github.com/google/uuid"
)

// ErrLocked is returned by a single copy attempt when the source is held by
// another process.
var ErrLocked = errors.New("file is locked by another process")

// RetryPolicy configures CopyWithRetry. Attempts are spaced by a fixed delay.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	// VolumeResolver overrides the package-level resolver for metric labels.
	VolumeResolver *VolumeResolver
	// Observer overrides the package-level observer.
	Observer Observer
}

// DefaultRetryPolicy returns 3 attempts spaced 1s apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       time.Second,
	}
}

// transientReason classifies errors worth retrying: "locked" for sharing
// violations, "stale" for NFS stale handles. ok is false otherwise.
func transientReason(err error) (reason string, ok bool) {
	switch {
	case errors.Is(err, ErrLocked) || isLockError(err):
		return "locked", true
	case isNFSStaleError(err):
		return "stale", true
	}
	return "", false
}

// CopyWithRetry copies src to dst. If either file cannot be opened because
// another process holds it, the copy is retried after policy.Delay, up to
// policy.MaxAttempts attempts in total.
//
// The destination is written to a uniquely named temporary file in dst's
// directory and renamed into place only after the copy completes, so a failed
// copy never leaves a partial dst behind. Any error is a *failure.Error of
// kind KindIOError.
func CopyWithRetry(ctx context.Context, src, dst string, policy RetryPolicy) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	run := newRetryRun("copy", src, policy.VolumeResolver, policy.Observer)

	for attempt := 1; ; attempt++ {
		err := copyOnce(src, dst)
		if err == nil {
			if attempt > 1 {
				logger.Info("Copy of %s succeeded on attempt %d", src, attempt)
			}
			run.done(attempt, nil, false)
			return nil
		}

		reason, transient := transientReason(err)
		if !transient {
			run.done(attempt, err, false)
			return failure.Wrap(failure.KindIOError, err, "copy %s to %s", src, dst)
		}
		run.transient(reason)

		if attempt >= policy.MaxAttempts {
			logger.Warn("Copy of %s failed after %d attempts: %v", src, policy.MaxAttempts, err)
			run.done(attempt, err, true)
			return &failure.Error{
				Kind:   failure.KindIOError,
				Detail: fmt.Sprintf("unable to copy %s after %d attempts: %v", src, policy.MaxAttempts, err),
				Err:    err,
			}
		}

		run.retrying()
		logger.Debug("Copy of %s blocked (%s), retrying in %v (attempt %d/%d)",
			src, reason, policy.Delay, attempt, policy.MaxAttempts)
		if cerr := sleep(ctx, policy.Delay); cerr != nil {
			run.done(attempt, cerr, false)
			return failure.Wrap(failure.KindIOError, cerr, "copy %s cancelled", src)
		}
	}
}

// copyOnce performs a single attempt: open and lock src, stream it into a
// temporary sibling of dst, then rename into place.
func copyOnce(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	unlock, err := lockShared(in)
	if err != nil {
		return err
	}
	defer unlock()

	tmp := PartialPath(dst)
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

// PartialPath returns a unique hidden sibling of path for in-progress writes,
// e.g. "/out/.clip.1b4e....partial.mp4". It keeps path's extension last so
// tools that infer formats from names still recognize it.
func PartialPath(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+base[:len(base)-len(ext)]+"."+uuid.NewString()+".partial"+ext)
}
