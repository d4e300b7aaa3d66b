package filesystem

import (
	"context"
	"time"

	"media-ingest/internal/logging"
)

var logger = logging.Component("filesystem")

// retryRun reports one retried operation to the observer.
type retryRun struct {
	op     string
	volume string
	obs    Observer
	start  time.Time
}

func newRetryRun(op, path string, vr *VolumeResolver, o Observer) *retryRun {
	return &retryRun{
		op:     op,
		volume: resolveVolume(vr, path),
		obs:    observerFor(o),
		start:  time.Now(),
	}
}

func (r *retryRun) transient(reason string) {
	r.obs.ObserveTransientError(r.op, r.volume, reason)
}

func (r *retryRun) retrying() {
	r.obs.ObserveRetryAttempt(r.op, r.volume)
}

// done closes the run. attempt is 1-based; exhausted marks a run that gave
// up on a transient error.
func (r *retryRun) done(attempt int, err error, exhausted bool) {
	switch {
	case err == nil && attempt > 1:
		r.obs.ObserveRetrySuccess(r.op, r.volume)
	case exhausted:
		r.obs.ObserveRetryFailure(r.op, r.volume)
	}
	r.obs.ObserveRetryDuration(r.op, r.volume, time.Since(r.start).Seconds())
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
