package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"media-ingest/internal/logging"
)

// Config holds all application configuration
type Config struct {
	UploadsDir      string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	FFmpegPath      string
	EncoderTimeout  time.Duration
	URLProbeTimeout time.Duration
	CopyMaxAttempts int
	CopyRetryDelay  time.Duration
	ThumbnailOffset time.Duration
	WorkDirMaxAge   time.Duration
	Workers         int // 0 derives pool sizes from GOMAXPROCS
	LogRequests     bool
	LogHealthChecks bool

	// Derived paths
	WorkDir       string
	VideosDir     string
	ThumbnailsDir string
}

// LoadConfig loads configuration from the environment, after merging a .env
// file from the working directory if one exists. Invalid values log a warning
// and fall back to their defaults. The uploads root must be writable.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file loaded: %v", err)
	} else {
		logging.Info("Loaded environment from .env")
	}

	section("CONFIGURATION")

	cfg := &Config{
		UploadsDir:      getEnv("UPLOADS_DIR", "/uploads"),
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		FFmpegPath:      getEnv("FFMPEG_PATH", "ffmpeg"),
		EncoderTimeout:  getEnvDuration("ENCODER_TIMEOUT", 10*time.Minute),
		URLProbeTimeout: getEnvDuration("URL_PROBE_TIMEOUT", 10*time.Second),
		CopyMaxAttempts: getEnvInt("COPY_MAX_ATTEMPTS", 3),
		CopyRetryDelay:  getEnvDuration("COPY_RETRY_DELAY", time.Second),
		ThumbnailOffset: getEnvDuration("THUMBNAIL_OFFSET", time.Second),
		WorkDirMaxAge:   getEnvDuration("WORK_DIR_MAX_AGE", time.Hour),
		Workers:         getEnvInt("INGEST_WORKERS", 0),
		LogRequests:     getEnvBool("LOG_REQUESTS", true),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", false),
	}

	logging.Info("  UPLOADS_DIR:         %s", cfg.UploadsDir)
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  FFMPEG_PATH:         %s", cfg.FFmpegPath)
	logging.Info("  ENCODER_TIMEOUT:     %v", cfg.EncoderTimeout)
	logging.Info("  URL_PROBE_TIMEOUT:   %v", cfg.URLProbeTimeout)
	logging.Info("  COPY_MAX_ATTEMPTS:   %d", cfg.CopyMaxAttempts)
	logging.Info("  COPY_RETRY_DELAY:    %v", cfg.CopyRetryDelay)
	logging.Info("  THUMBNAIL_OFFSET:    %v", cfg.ThumbnailOffset)
	logging.Info("  WORK_DIR_MAX_AGE:    %v", cfg.WorkDirMaxAge)
	if cfg.Workers > 0 {
		logging.Info("  INGEST_WORKERS:      %d", cfg.Workers)
	} else {
		logging.Info("  INGEST_WORKERS:      auto")
	}
	logging.Info("  LOG_REQUESTS:        %v", cfg.LogRequests)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	section("DIRECTORY SETUP")

	uploadsDir, err := filepath.Abs(cfg.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve uploads directory path: %w", err)
	}
	cfg.UploadsDir = uploadsDir
	cfg.WorkDir = filepath.Join(uploadsDir, "work")
	cfg.VideosDir = filepath.Join(uploadsDir, "videos")
	cfg.ThumbnailsDir = filepath.Join(uploadsDir, "thumbnails")
	logging.Info("  Uploads directory (absolute): %s", uploadsDir)

	for _, d := range []struct{ path, name string }{
		{cfg.UploadsDir, "uploads"},
		{cfg.WorkDir, "work"},
		{cfg.VideosDir, "videos"},
		{cfg.ThumbnailsDir, "thumbnails"},
	} {
		if err := ensureDirectory(d.path, d.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", d.name, err)
		}
	}

	logging.Debug("  Testing uploads directory write access...")
	if err := testWriteAccess(cfg.WorkDir); err != nil {
		return nil, fmt.Errorf("work directory is not writable: %w", err)
	}
	logging.Info("  [OK] Uploads directory is writable")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid integer for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
