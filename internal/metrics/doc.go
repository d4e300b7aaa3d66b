// Package metrics provides Prometheus instrumentation for the media-ingest service.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "media_ingest_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Ingest Metrics
//
//   - IngestTotal: Counter of processed uploads by category and outcome
//     (an outcome is "success" or a failure kind such as "file_too_large")
//   - IngestStageDuration: Histogram of validate/transcode/thumbnail stages
//   - IngestInputBytes: Histogram of accepted upload sizes
//   - ImageOutputBytes: Histogram of encoded WebP sizes
//   - URLProbesTotal: Counter of remote URL validations by outcome
//
// ## Encoder Metrics
//
//   - EncoderInvocationsTotal: Counter by operation (remux/thumbnail) and status
//   - EncoderDuration: Histogram of process wall-clock time
//   - EncoderProcessesRunning: Gauge of live encoder processes
//
// ## Filesystem Metrics
//
// Retries of locked or stale files, labelled by operation and volume:
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures
//   - FilesystemRetryDuration
//   - FilesystemTransientErrors (with a "locked" or "stale" reason)
//
// ## Worker Pool and Working Directory
//
//   - WorkerPoolActive, WorkerPoolWaiting: per pool
//   - WorkDirFiles, WorkDirBytes: refreshed by the [Collector]
//
// # Observers
//
// The filesystem and encoder packages cannot import this package, so they
// accept small observer interfaces. [NewFilesystemObserver] and
// [NewEncoderObserver] bridge them to the metrics above.
//
// # Collector
//
//	collector := metrics.NewCollector(pipeline, 30*time.Second)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Upload failure rate by kind:
//
//	sum(rate(media_ingest_uploads_total{outcome!="success"}[5m])) by (outcome)
//
// P95 video transcode time:
//
//	histogram_quantile(0.95, sum(rate(media_ingest_stage_duration_seconds_bucket{stage="transcode",category="video"}[5m])) by (le))
//
// Uploads that hit a locked file:
//
//	rate(media_ingest_filesystem_transient_errors_total{reason="locked"}[1h])
package metrics
