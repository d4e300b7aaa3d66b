package metrics

import (
	"sync"
	"time"

	"media-ingest/internal/logging"
)

var logger = logging.Component("metrics")

// StatsProvider reports point-in-time state that has no natural event to
// hang a metric update on.
type StatsProvider interface {
	GetStats() Stats
}

// Stats is a snapshot of the ingest working area.
type Stats struct {
	WorkDirFiles     int
	WorkDirBytes     int64
	EncoderProcesses int
}

// Collector samples a StatsProvider on an interval and publishes the work
// directory gauges.
type Collector struct {
	provider StatsProvider
	interval time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	last     Stats
}

// NewCollector creates a collector. Nothing runs until Start.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start collects once immediately, then every interval.
func (c *Collector) Start() {
	go c.loop()
}

// Stop ends collection and waits for an in-progress sample to finish. It is
// safe to call more than once, and before Start.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	select {
	case <-c.done:
	case <-time.After(c.interval + time.Second):
		// Start was never called.
	}
}

func (c *Collector) loop() {
	defer close(c.done)
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}

	stats := c.provider.GetStats()
	WorkDirFiles.Set(float64(stats.WorkDirFiles))
	WorkDirBytes.Set(float64(stats.WorkDirBytes))

	if stats != c.last {
		logger.Debug("work_files=%d work_bytes=%d encoders=%d",
			stats.WorkDirFiles, stats.WorkDirBytes, stats.EncoderProcesses)
		c.last = stats
	}
}
