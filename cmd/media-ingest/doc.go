// Package main is the entry point of the media-ingest service.
//
// media-ingest accepts image and video uploads over HTTP and normalizes them:
// images become 640x426 WebP, videos become H.264/AAC MP4 with a JPEG
// thumbnail taken one second in. It can also check that a remote URL serves
// media before a client downloads it.
//
// # Application Lifecycle
//
//  1. Memory Configuration: GOMEMLIMIT from the environment or MEMORY_LIMIT
//  2. Configuration Loading: .env file, environment variables, directory checks
//  3. Component Initialization:
//     - libvips for WebP encoding
//     - FFmpeg gateway with per-invocation timeout
//     - Memory monitor that holds back image decodes under pressure
//     - Ingestion pipeline with separate image and video worker pools
//     - Metrics collector and work directory sweeper
//  4. HTTP Server Setup: routes, request IDs, panic recovery, access log
//  5. Graceful Shutdown: on SIGINT/SIGTERM
//
// # HTTP Server
//
// The main server (PORT, default 8080) serves:
//
//   - POST /api/upload/image and /api/upload/video (multipart field "file")
//   - POST /api/validate-url
//   - /health, /healthz, /livez, /readyz, /version
//
// When METRICS_ENABLED is true a second server on METRICS_PORT (default 9090)
// exposes /metrics for Prometheus.
//
// # Storage Layout
//
// Everything lives under UPLOADS_DIR:
//
//	work/        spooled uploads, removed after each ingest and swept by age
//	videos/      canonical MP4 files
//	thumbnails/  JPEG thumbnails
//
// # Environment Variables
//
//   - UPLOADS_DIR: storage root (default: /uploads)
//   - PORT, METRICS_PORT, METRICS_ENABLED
//   - FFMPEG_PATH: encoder executable (default: ffmpeg)
//   - ENCODER_TIMEOUT: wall-clock limit per encoder run (default: 10m)
//   - URL_PROBE_TIMEOUT: remote URL check limit (default: 10s)
//   - COPY_MAX_ATTEMPTS, COPY_RETRY_DELAY: locked-file copy retries
//   - THUMBNAIL_OFFSET: thumbnail frame position (default: 1s)
//   - WORK_DIR_MAX_AGE: sweeper age threshold, 0 disables (default: 1h)
//   - INGEST_WORKERS: overrides both worker pool sizes
//   - LOG_LEVEL, LOG_REQUESTS, LOG_HEALTH_CHECKS
//   - GOMEMLIMIT, MEMORY_LIMIT, MEMORY_RATIO
//
// # Graceful Shutdown
//
//  1. Stop accepting HTTP requests and let in-flight uploads finish (30s)
//  2. Stop the work directory sweeper and metrics collector
//  3. Kill any encoder processes still running
//  4. Stop the memory monitor and shut down libvips
//  5. Shut down the metrics server
//
// # Build Requirements
//
// CGO is required for libvips. FFmpeg must be on PATH or at FFMPEG_PATH.
//
//	go build -o media-ingest ./cmd/media-ingest
package main
