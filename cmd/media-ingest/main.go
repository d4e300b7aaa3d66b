package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"media-ingest/internal/encoder"
	"media-ingest/internal/filesystem"
	"media-ingest/internal/handlers"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/memory"
	"media-ingest/internal/metrics"
	"media-ingest/internal/middleware"
	"media-ingest/internal/pipeline"
	"media-ingest/internal/startup"
	"media-ingest/internal/workers"
)

const (
	metricsInterval  = time.Minute
	sweepInterval    = 10 * time.Minute
	shutdownTimeout  = 30 * time.Second
	serverReadLimit  = 5 * time.Minute
	serverIdleLimit  = 60 * time.Second
	metricsReadLimit = 10 * time.Second
)

func main() {
	startTime := time.Now()

	// GOMEMLIMIT before anything allocates heavily.
	startup.LogMemoryConfig(memory.ConfigureFromEnv())

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	startup.LogVipsInit(media.InitVips())

	ffmpeg := encoder.NewFFmpeg(config.FFmpegPath, config.EncoderTimeout)
	ffmpeg.SetObserver(metrics.NewEncoderObserver())
	startup.LogEncoderInit(ffmpeg.Path(), config.EncoderTimeout)

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"uploads": config.UploadsDir,
		"work":    config.WorkDir,
	}))

	metrics.SetAppInfo(startup.Version, startup.Commit, runtime.Version())
	metrics.InitializeMetrics()

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	imageWorkers, videoWorkers := workers.ForCPU(8), workers.ForIO(16)
	if config.Workers > 0 {
		imageWorkers, videoWorkers = config.Workers, config.Workers
	}
	startup.LogPipelineInit(imageWorkers, videoWorkers)

	p := pipeline.New(pipeline.Config{
		Dirs: pipeline.Dirs{
			Root:       config.UploadsDir,
			Work:       config.WorkDir,
			Videos:     config.VideosDir,
			Thumbnails: config.ThumbnailsDir,
		},
		ThumbnailOffset: config.ThumbnailOffset,
		Copy: filesystem.RetryPolicy{
			MaxAttempts: config.CopyMaxAttempts,
			Delay:       config.CopyRetryDelay,
		},
		ProbeTimeout: config.URLProbeTimeout,
		ImageWorkers: imageWorkers,
		VideoWorkers: videoWorkers,
		Memory:       monitor,
	}, ffmpeg, media.VipsWebPEncoder{})

	collector := metrics.NewCollector(p, metricsInterval)
	collector.Start()

	stopSweeper := startWorkDirSweeper(p, config.WorkDirMaxAge)

	h := handlers.New(p,
		handlers.Check{Name: "ffmpeg", Critical: true, Probe: ffmpeg.Available},
		handlers.Check{Name: "vips", Probe: vipsCheck},
	)

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogRequests, config.LogHealthChecks)

	srv := &http.Server{
		Addr:        ":" + config.Port,
		Handler:     buildHandler(router, config),
		ReadTimeout: serverReadLimit,
		// Video remuxing can outlast any fixed write deadline.
		WriteTimeout: 0,
		IdleTimeout:  serverIdleLimit,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = startMetricsServer(h, config.MetricsPort)
	}

	go handleShutdown(srv, metricsSrv, func() {
		startup.LogShutdownStep("Stopping work directory sweeper")
		stopSweeper()

		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()

		startup.LogShutdownStep("Killing running encoder processes")
		ffmpeg.Cleanup()
		startup.LogShutdownStepComplete("Encoder cleanup complete")

		startup.LogShutdownStep("Stopping memory monitor")
		monitor.Stop()

		startup.LogShutdownStep("Shutting down libvips")
		media.ShutdownVips()
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/upload/image", h.UploadImage).Methods("POST")
	api.HandleFunc("/upload/video", h.UploadVideo).Methods("POST")
	api.HandleFunc("/validate-url", h.ValidateURL).Methods("POST")

	return r
}

// buildHandler wraps the router so every request gets an ID, panics become
// JSON 500s carrying that ID, and the access log sees the final status.
func buildHandler(router http.Handler, config *startup.Config) http.Handler {
	var handler = router
	if config.LogRequests {
		loggingConfig := middleware.DefaultLoggingConfig()
		loggingConfig.LogHealthChecks = config.LogHealthChecks
		handler = middleware.Logger(loggingConfig)(handler)
	}
	handler = middleware.Recovery(handler)
	return middleware.RequestID(handler)
}

func startMetricsServer(h *handlers.Handlers, port string) *http.Server {
	mx := http.NewServeMux()
	mx.Handle("/metrics", h.MetricsHandler())
	mx.HandleFunc("/health", h.LivenessCheck)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mx,
		ReadTimeout:  metricsReadLimit,
		WriteTimeout: metricsReadLimit,
		IdleTimeout:  30 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

// startWorkDirSweeper removes spooled files older than maxAge on a ticker.
// A zero maxAge disables the sweeper.
func startWorkDirSweeper(p *pipeline.Pipeline, maxAge time.Duration) (stop func()) {
	if maxAge <= 0 {
		logging.Info("Work directory sweeper disabled")
		return func() {}
	}

	done := make(chan struct{})
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				freed, err := p.ClearWorkDir(maxAge)
				if err != nil {
					logging.Warn("Work directory sweep failed: %v", err)
					continue
				}
				if freed > 0 {
					logging.Info("Work directory sweep freed %s", memory.FormatBytes(freed))
				}
			}
		}
	}()
	return func() { close(done) }
}

func vipsCheck() error {
	if !media.IsVipsAvailable() {
		return errors.New("libvips not initialized")
	}
	return nil
}

func handleShutdown(srv, metricsSrv *http.Server, stopComponents func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop accepting uploads first so in-flight ones can finish.
	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	stopComponents()

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	startup.LogShutdownComplete()
}
