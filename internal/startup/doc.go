// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// A .env file in the working directory is merged in first when present;
// variables already set in the environment win.
//
//   - UPLOADS_DIR: uploads root; work/, videos/ and thumbnails/ are created under it (default: /uploads)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: serve /metrics (default: true)
//   - FFMPEG_PATH: encoder executable (default: ffmpeg)
//   - ENCODER_TIMEOUT: wall-clock cap per encoder process (default: 10m)
//   - URL_PROBE_TIMEOUT: HEAD timeout for remote URL validation (default: 10s)
//   - COPY_MAX_ATTEMPTS, COPY_RETRY_DELAY: resilient copy policy (default: 3, 1s)
//   - THUMBNAIL_OFFSET: frame offset for video thumbnails (default: 1s)
//   - WORK_DIR_MAX_AGE: age after which abandoned work files are swept (default: 1h)
//   - INGEST_WORKERS: pin worker pool sizes (default: derived from GOMAXPROCS)
//   - LOG_LEVEL / DEBUG: logging level (default: info)
//   - LOG_REQUESTS: HTTP access logging (default: true)
//   - LOG_HEALTH_CHECKS: include health probes in access logs (default: false)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: see package memory
//
// Invalid values log a warning and fall back to the default. An unwritable
// uploads root is a fatal configuration error.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//
//	go build -ldflags "-X media-ingest/internal/startup.Version=1.2.0 \
//	  -X media-ingest/internal/startup.Commit=$(git rev-parse --short HEAD)"
//
// # Lifecycle Logging
//
//   - [LogMemoryConfig]: memory limit configuration
//   - [LogVipsInit]: libvips availability
//   - [LogEncoderInit]: ffmpeg availability and version
//   - [LogPipelineInit]: worker pool sizes
//   - [LogHTTPRoutes]: registered HTTP routes (debug level)
//   - [LogServerStarted]: server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownStep], [LogShutdownComplete]: graceful shutdown
package startup
