package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	t.Chdir(t.TempDir()) // no .env
	t.Setenv("UPLOADS_DIR", root)
	for _, key := range []string{"PORT", "METRICS_PORT", "METRICS_ENABLED", "FFMPEG_PATH", "ENCODER_TIMEOUT",
		"URL_PROBE_TIMEOUT", "COPY_MAX_ATTEMPTS", "COPY_RETRY_DELAY", "THUMBNAIL_OFFSET", "WORK_DIR_MAX_AGE",
		"INGEST_WORKERS", "LOG_REQUESTS", "LOG_HEALTH_CHECKS"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "8080" || cfg.MetricsPort != "9090" || !cfg.MetricsEnabled {
		t.Errorf("ports = %s/%s, metrics %v", cfg.Port, cfg.MetricsPort, cfg.MetricsEnabled)
	}
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q", cfg.FFmpegPath)
	}
	if cfg.EncoderTimeout != 10*time.Minute || cfg.URLProbeTimeout != 10*time.Second {
		t.Errorf("timeouts = %v, %v", cfg.EncoderTimeout, cfg.URLProbeTimeout)
	}
	if cfg.CopyMaxAttempts != 3 || cfg.CopyRetryDelay != time.Second {
		t.Errorf("copy policy = %d x %v", cfg.CopyMaxAttempts, cfg.CopyRetryDelay)
	}
	if cfg.ThumbnailOffset != time.Second || cfg.Workers != 0 {
		t.Errorf("offset = %v, workers = %d", cfg.ThumbnailOffset, cfg.Workers)
	}

	for _, dir := range []string{cfg.UploadsDir, cfg.WorkDir, cfg.VideosDir, cfg.ThumbnailsDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
	if cfg.WorkDir != filepath.Join(root, "work") {
		t.Errorf("WorkDir = %q", cfg.WorkDir)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("UPLOADS_DIR", t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("ENCODER_TIMEOUT", "90s")
	t.Setenv("COPY_MAX_ATTEMPTS", "5")
	t.Setenv("COPY_RETRY_DELAY", "250ms")
	t.Setenv("THUMBNAIL_OFFSET", "3s")
	t.Setenv("INGEST_WORKERS", "4")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "9000" || cfg.EncoderTimeout != 90*time.Second || cfg.CopyMaxAttempts != 5 ||
		cfg.CopyRetryDelay != 250*time.Millisecond || cfg.ThumbnailOffset != 3*time.Second ||
		cfg.Workers != 4 || cfg.MetricsEnabled {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	uploads := filepath.Join(dir, "from-dotenv")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("UPLOADS_DIR="+uploads+"\nFFMPEG_PATH=/opt/ffmpeg/bin/ffmpeg\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables that are already set.
	t.Setenv("UPLOADS_DIR", "")
	os.Unsetenv("UPLOADS_DIR")
	t.Setenv("FFMPEG_PATH", "")
	os.Unsetenv("FFMPEG_PATH")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.UploadsDir != uploads {
		t.Errorf("UploadsDir = %q, want %q", cfg.UploadsDir, uploads)
	}
	if cfg.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %q", cfg.FFmpegPath)
	}
}

func TestLoadConfig_UploadsDirIsAFile(t *testing.T) {
	t.Chdir(t.TempDir())
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("UPLOADS_DIR", file)

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should fail when UPLOADS_DIR is a file")
	}
}

func TestEnvHelpers(t *testing.T) {
	tests := []struct {
		name  string
		value string
		check func(t *testing.T)
	}{
		{"bool valid", "false", func(t *testing.T) {
			if getEnvBool("TEST_KEY", true) {
				t.Error("want false")
			}
		}},
		{"bool invalid", "nope", func(t *testing.T) {
			if !getEnvBool("TEST_KEY", true) {
				t.Error("want default true")
			}
		}},
		{"duration valid", "2m", func(t *testing.T) {
			if got := getEnvDuration("TEST_KEY", time.Second); got != 2*time.Minute {
				t.Errorf("got %v", got)
			}
		}},
		{"duration invalid", "soon", func(t *testing.T) {
			if got := getEnvDuration("TEST_KEY", time.Second); got != time.Second {
				t.Errorf("got %v", got)
			}
		}},
		{"duration negative", "-5s", func(t *testing.T) {
			if got := getEnvDuration("TEST_KEY", time.Second); got != time.Second {
				t.Errorf("got %v", got)
			}
		}},
		{"int valid", "7", func(t *testing.T) {
			if got := getEnvInt("TEST_KEY", 3); got != 7 {
				t.Errorf("got %d", got)
			}
		}},
		{"int invalid", "seven", func(t *testing.T) {
			if got := getEnvInt("TEST_KEY", 3); got != 3 {
				t.Errorf("got %d", got)
			}
		}},
		{"string empty uses default", "", func(t *testing.T) {
			if got := getEnv("TEST_KEY", "fallback"); got != "fallback" {
				t.Errorf("got %q", got)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_KEY", tt.value)
			tt.check(t)
		})
	}
}
