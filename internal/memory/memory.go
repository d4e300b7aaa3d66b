package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"media-ingest/internal/failure"
	"media-ingest/internal/metrics"
)

// Config holds the monitor's thresholds.
type Config struct {
	// LimitBytes is the reference limit. 0 uses the Go memory limit, if any.
	LimitBytes int64
	// Resume is the usage ratio below which a paused monitor resumes.
	Resume float64
	// Pause is the usage ratio at which admission pauses.
	Pause float64
	// CheckInterval is the sampling period.
	CheckInterval time.Duration
}

// DefaultConfig pauses at 85% of the limit and resumes below 70%.
func DefaultConfig() Config {
	return Config{
		Resume:        0.70,
		Pause:         0.85,
		CheckInterval: 2 * time.Second,
	}
}

// Monitor samples heap usage and holds back new image decodes while the
// heap is close to the limit. A full-size bitmap is allocated per decode,
// so admitting more under pressure drives the process into the limit.
type Monitor struct {
	cfg   Config
	limit int64

	mu      sync.RWMutex
	current uint64
	paused  bool
	resumed chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
	sample   func() uint64
}

// NewMonitor creates a monitor. Without any limit it never pauses.
func NewMonitor(cfg Config) *Monitor {
	limit := cfg.LimitBytes
	if limit == 0 {
		if goLimit := debug.SetMemoryLimit(-1); goLimit > 0 && goLimit < 1<<62 {
			limit = goLimit
		}
	}
	if limit == 0 {
		logger.Info("No memory limit configured, image backpressure disabled")
	} else {
		logger.Info("Image backpressure at %.0f%% of %s", cfg.Pause*100, FormatBytes(limit))
	}

	return &Monitor{
		cfg:     cfg,
		limit:   limit,
		resumed: make(chan struct{}),
		stop:    make(chan struct{}),
		sample: func() uint64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return stats.Alloc
		},
	}
}

// Start begins sampling in the background.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.cfg.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.check()
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends sampling and releases every waiter.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) check() {
	alloc := m.sample()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc

	switch {
	case !m.paused && usage >= m.cfg.Pause:
		logger.Warn("Memory at %.1f%% of limit, pausing image admission", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPauseEvents.Inc()
		go runtime.GC()
	case m.paused && usage < m.cfg.Resume:
		logger.Info("Memory at %.1f%% of limit, resuming image admission", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resumed)
		m.resumed = make(chan struct{})
	}
}

// Wait returns immediately unless admission is paused, in which case it
// blocks until usage recovers, the monitor stops, or ctx ends.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return nil
	}
	resumed := m.resumed
	m.mu.RUnlock()

	select {
	case <-resumed:
		return nil
	case <-m.stop:
		return nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return failure.Wrap(failure.KindTimeout, ctx.Err(), "waiting for memory pressure to ease")
		}
		return failure.Wrap(failure.KindIOError, ctx.Err(), "cancelled while waiting for memory")
	}
}

// Paused reports whether admission is paused.
func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled usage ratio, or 0 without a limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}

// Limit returns the reference limit in bytes.
func (m *Monitor) Limit() int64 { return m.limit }
