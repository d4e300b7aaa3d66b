package workers

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/semaphore"

	"media-ingest/internal/failure"
	"media-ingest/internal/logging"
	"media-ingest/internal/metrics"
)

var logger = logging.Component("workers")

// Pool bounds how many jobs run at once. Jobs run on the submitting
// goroutine once a slot is free, so Submit returns the job's own error.
type Pool struct {
	name      string
	size      int
	sem       *semaphore.Weighted
	panicKind failure.Kind
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPanicKind sets the failure kind reported when a job panics.
// The default is KindIOError.
func WithPanicKind(kind failure.Kind) PoolOption {
	return func(p *Pool) { p.panicKind = kind }
}

// NewPool creates a pool running at most size jobs at once. The name labels
// the pool's active and waiting gauges.
func NewPool(name string, size int, opts ...PoolOption) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		name:      name,
		size:      size,
		sem:       semaphore.NewWeighted(int64(size)),
		panicKind: failure.KindIOError,
	}
	for _, opt := range opts {
		opt(p)
	}
	logger.Debug("Pool %s created with %d workers", name, size)
	return p
}

// Name returns the pool's metrics label.
func (p *Pool) Name() string { return p.name }

// Size returns the maximum number of concurrent jobs.
func (p *Pool) Size() int { return p.size }

// Submit waits for a free slot, then runs fn and returns its error.
//
// If ctx ends while waiting, fn never runs and Submit fails with KindTimeout
// for an expired deadline or KindIOError for a cancellation. A panic in fn is
// recovered and returned as a failure of the pool's panic kind.
func (p *Pool) Submit(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	waiting := metrics.WorkerPoolWaiting.WithLabelValues(p.name)
	waiting.Inc()
	acquireErr := p.sem.Acquire(ctx, 1)
	waiting.Dec()

	if acquireErr != nil {
		if errors.Is(acquireErr, context.DeadlineExceeded) {
			return failure.Wrap(failure.KindTimeout, acquireErr, "waiting for %s worker", p.name)
		}
		return failure.Wrap(failure.KindIOError, acquireErr, "cancelled waiting for %s worker", p.name)
	}

	active := metrics.WorkerPoolActive.WithLabelValues(p.name)
	active.Inc()
	defer func() {
		active.Dec()
		p.sem.Release(1)
	}()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in %s worker: %v\n%s", p.name, r, debug.Stack())
			err = failure.Wrap(p.panicKind, fmt.Errorf("panic: %v", r), "%s job crashed", p.name)
		}
	}()

	return fn(ctx)
}
