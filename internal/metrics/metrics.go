package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_ingest_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Ingest pipeline metrics
var (
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_uploads_total",
			Help: "Total number of uploads processed, by category and outcome",
		},
		[]string{"category", "outcome"}, // outcome: "success" or a failure kind
	)

	IngestStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"category", "stage"}, // stage: "validate", "transcode", "thumbnail"
	)

	IngestInputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_input_bytes",
			Help:    "Size of accepted uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 9), // 16KB .. 1GB
		},
		[]string{"category"},
	)

	ImageOutputBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_ingest_image_output_bytes",
			Help:    "Size of encoded canonical WebP images in bytes",
			Buckets: prometheus.ExponentialBuckets(4*1024, 2, 10),
		},
	)

	URLProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_url_probes_total",
			Help: "Total number of remote URL validations, by outcome",
		},
		[]string{"outcome"},
	)
)

// External encoder metrics
var (
	EncoderInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_encoder_invocations_total",
			Help: "Total number of external encoder invocations",
		},
		[]string{"operation", "status"}, // status: "success", "error", "timeout", "cancelled"
	)

	EncoderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_encoder_duration_seconds",
			Help:    "External encoder wall-clock duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"operation"},
	)

	EncoderProcessesRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_ingest_encoder_processes_running",
			Help: "Number of external encoder processes currently running",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_ingest_filesystem_retry_duration_seconds",
			Help:    "Total duration of filesystem operations including retries",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation", "volume"},
	)

	FilesystemTransientErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_ingest_filesystem_transient_errors_total",
			Help: "Total number of transient filesystem errors (locked files, stale NFS handles)",
		},
		[]string{"operation", "volume", "reason"}, // reason: "locked", "stale"
	)
)

// Worker pool metrics
var (
	WorkerPoolActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_ingest_worker_pool_active",
			Help: "Number of jobs currently running in a worker pool",
		},
		[]string{"pool"},
	)

	WorkerPoolWaiting = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_ingest_worker_pool_waiting",
			Help: "Number of jobs waiting for a worker pool slot",
		},
		[]string{"pool"},
	)
)

// Working directory metrics
var (
	WorkDirFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_ingest_work_dir_files",
			Help: "Number of files in the working directory",
		},
	)

	WorkDirBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_ingest_work_dir_bytes",
			Help: "Total size of the working directory in bytes",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_ingest_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the Go memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_ingest_memory_paused",
			Help: "Whether image admission is paused for memory pressure (1 = paused)",
		},
	)

	MemoryPauseEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_ingest_memory_pause_events_total",
			Help: "Total number of times image admission was paused for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_ingest_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
