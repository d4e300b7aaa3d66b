package metrics

import (
	"media-ingest/internal/encoder"
	"media-ingest/internal/failure"
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	categories := []string{"image", "video"}

	// --- Ingest outcomes (per category × outcome) ---
	outcomes := []string{"success"}
	for _, k := range []failure.Kind{
		failure.KindEmptyUpload, failure.KindUnsupportedType, failure.KindExtensionMismatch,
		failure.KindFileTooLarge, failure.KindWrongCategory, failure.KindDecodeError,
		failure.KindEncodeError, failure.KindIOError, failure.KindTimeout,
	} {
		outcomes = append(outcomes, string(k))
	}

	for _, c := range categories {
		for _, o := range outcomes {
			IngestTotal.WithLabelValues(c, o)
		}
		for _, stage := range []string{"validate", "transcode", "thumbnail"} {
			IngestStageDuration.WithLabelValues(c, stage)
		}
		IngestInputBytes.WithLabelValues(c)
	}

	// --- URL probes ---
	for _, o := range []string{"success", string(failure.KindUnreachable), string(failure.KindWrongContentType),
		string(failure.KindTimeout), string(failure.KindNetworkError)} {
		URLProbesTotal.WithLabelValues(o)
	}

	// --- External encoder (per operation × status) ---
	for _, op := range []string{encoder.OperationRemux, encoder.OperationThumbnail} {
		for _, status := range []string{"success", "error", "timeout", "cancelled"} {
			EncoderInvocationsTotal.WithLabelValues(op, status)
		}
		EncoderDuration.WithLabelValues(op)
	}

	// --- Filesystem retry metrics (per retry-operation × volume) ---
	volumes := []string{"uploads", "work", "unknown"}
	for _, op := range []string{"stat", "copy"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
			for _, reason := range []string{"locked", "stale"} {
				FilesystemTransientErrors.WithLabelValues(op, vol, reason)
			}
		}
	}

	// --- Worker pools ---
	for _, pool := range []string{"image", "video"} {
		WorkerPoolActive.WithLabelValues(pool)
		WorkerPoolWaiting.WithLabelValues(pool)
	}
}
