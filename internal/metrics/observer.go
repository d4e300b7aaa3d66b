package metrics

import (
	"media-ingest/internal/encoder"
	"media-ingest/internal/filesystem"
)

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem retry
// metrics into the counters and histograms declared in metrics.go.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveRetryAttempt(retryOp, volume string) {
	FilesystemRetryAttempts.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(retryOp, volume string) {
	FilesystemRetrySuccess.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(retryOp, volume string) {
	FilesystemRetryFailures.WithLabelValues(retryOp, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryDuration(retryOp, volume string, durationSeconds float64) {
	FilesystemRetryDuration.WithLabelValues(retryOp, volume).Observe(durationSeconds)
}

func (o *filesystemObserver) ObserveTransientError(retryOp, volume, reason string) {
	FilesystemTransientErrors.WithLabelValues(retryOp, volume, reason).Inc()
}

// encoderObserver implements encoder.Observer.
type encoderObserver struct{}

// NewEncoderObserver creates an observer that records external encoder
// invocations, durations and the running-process gauge.
func NewEncoderObserver() encoder.Observer {
	return &encoderObserver{}
}

func (o *encoderObserver) ObserveStart(string) {
	EncoderProcessesRunning.Inc()
}

func (o *encoderObserver) ObserveFinish(operation, status string, durationSeconds float64) {
	EncoderProcessesRunning.Dec()
	EncoderInvocationsTotal.WithLabelValues(operation, status).Inc()
	if status == "success" || status == "error" {
		EncoderDuration.WithLabelValues(operation).Observe(durationSeconds)
	}
}
