package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"media-ingest/internal/failure"
	"media-ingest/internal/metrics"
)

func TestPool_ReturnsJobError(t *testing.T) {
	p := NewPool("test-error", 1)
	want := failure.New(failure.KindDecodeError, "bad pixels")

	err := p.Submit(context.Background(), func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("Submit() = %v, want %v", err, want)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const size = 2
	p := NewPool("test-bound", size)

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Submit(context.Background(), func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	if peak > size {
		t.Errorf("peak concurrency = %d, want <= %d", peak, size)
	}
	if got := testutil.ToFloat64(metrics.WorkerPoolActive.WithLabelValues("test-bound")); got != 0 {
		t.Errorf("active gauge = %v after all jobs finished, want 0", got)
	}
}

func TestPool_ContextEndsWhileWaiting(t *testing.T) {
	p := NewPool("test-wait", 1)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = p.Submit(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	ran := false
	err := p.Submit(ctx, func(context.Context) error { ran = true; return nil })
	if failure.KindOf(err) != failure.KindTimeout {
		t.Errorf("kind = %q, want %q", failure.KindOf(err), failure.KindTimeout)
	}
	if ran {
		t.Error("job ran without a slot")
	}

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	err = p.Submit(cancelled, func(context.Context) error { return nil })
	if failure.KindOf(err) != failure.KindIOError {
		t.Errorf("kind = %q, want %q", failure.KindOf(err), failure.KindIOError)
	}

	if got := testutil.ToFloat64(metrics.WorkerPoolWaiting.WithLabelValues("test-wait")); got != 0 {
		t.Errorf("waiting gauge = %v, want 0", got)
	}
}

func TestPool_RecoversPanic(t *testing.T) {
	p := NewPool("test-panic", 1, WithPanicKind(failure.KindEncodeError))

	err := p.Submit(context.Background(), func(context.Context) error { panic("codec exploded") })
	if failure.KindOf(err) != failure.KindEncodeError {
		t.Fatalf("kind = %q, want %q (err=%v)", failure.KindOf(err), failure.KindEncodeError, err)
	}

	// The slot is released after a panic.
	if err := p.Submit(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Errorf("Submit after panic = %v", err)
	}
}

func TestNewPool_MinimumSize(t *testing.T) {
	if got := NewPool("test-min", 0).Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}
}
