package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-ingest/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string            `json:"status"`
	Ready   bool              `json:"ready"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks"`

	WorkDirFiles     int   `json:"workDirFiles"`
	WorkDirBytes     int64 `json:"workDirBytes"`
	EncoderProcesses int   `json:"encoderProcesses"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports dependency checks and working-area statistics. It
// answers 503 only when a critical check fails.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	checks, ready, healthy := h.runChecks()
	stats := h.pipeline.GetStats()

	response := HealthResponse{
		Status:           statusHealthy,
		Ready:            ready,
		Version:          startup.Version,
		Uptime:           time.Since(h.started).Round(time.Second).String(),
		Checks:           checks,
		WorkDirFiles:     stats.WorkDirFiles,
		WorkDirBytes:     stats.WorkDirBytes,
		EncoderProcesses: stats.EncoderProcesses,
		GoVersion:        runtime.Version(),
		NumCPU:           runtime.NumCPU(),
		NumGoroutine:     runtime.NumGoroutine(),
	}
	if !healthy {
		response.Status = statusDegraded
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only when every critical check passes
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if _, ready, _ := h.runChecks(); !ready {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handlers) runChecks() (results map[string]string, ready, healthy bool) {
	results = make(map[string]string, len(h.checks))
	ready, healthy = true, true
	for _, c := range h.checks {
		if err := c.Probe(); err != nil {
			results[c.Name] = err.Error()
			healthy = false
			if c.Critical {
				ready = false
			}
			continue
		}
		results[c.Name] = "ok"
	}
	return results, ready, healthy
}
