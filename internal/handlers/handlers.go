package handlers

import (
	"time"

	"media-ingest/internal/logging"
	"media-ingest/internal/pipeline"
)

var logger = logging.Component("handlers")

// Check is a named dependency probe reported by the health endpoints.
// A failing critical check makes the service not ready.
type Check struct {
	Name     string
	Critical bool
	Probe    func() error
}

// Handlers serves the ingestion API on top of a pipeline.
type Handlers struct {
	pipeline *pipeline.Pipeline
	checks   []Check
	started  time.Time

	// MultipartMemory is the part of a multipart body kept in memory; the
	// rest spills to temporary files.
	MultipartMemory int64
}

// New creates the handlers.
func New(p *pipeline.Pipeline, checks ...Check) *Handlers {
	return &Handlers{
		pipeline:        p,
		checks:          checks,
		started:         time.Now(),
		MultipartMemory: 8 << 20,
	}
}
