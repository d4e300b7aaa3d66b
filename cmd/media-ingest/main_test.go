package main

import (
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"media-ingest/internal/encoder/encodertest"
	"media-ingest/internal/handlers"
	"media-ingest/internal/middleware"
	"media-ingest/internal/pipeline"
	"media-ingest/internal/startup"
)

type nopEncoder struct{}

func (nopEncoder) EncodeWebP(image.Image, int) ([]byte, error) { return []byte("webp"), nil }

func newTestPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	dirs := pipeline.NewDirs(t.TempDir())
	if err := dirs.Ensure(); err != nil {
		t.Fatal(err)
	}
	return pipeline.New(pipeline.Config{Dirs: dirs, ImageWorkers: 1, VideoWorkers: 1},
		&encodertest.Gateway{}, nopEncoder{})
}

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	return setupRouter(handlers.New(newTestPipeline(t)))
}

func TestSetupRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	routes, err := startup.GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}
	registered := make(map[string]bool)
	for _, r := range routes {
		registered[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"GET /healthz",
		"GET /livez",
		"HEAD /livez",
		"GET /readyz",
		"GET /version",
		"POST /api/upload/image",
		"POST /api/upload/video",
		"POST /api/validate-url",
	} {
		if !registered[want] {
			t.Errorf("route %q not registered", want)
		}
	}
}

func TestSetupRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/upload/image", http.NoBody))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/upload/image = %d, want 405", rec.Code)
	}
}

func TestBuildHandler(t *testing.T) {
	router := newTestRouter(t)
	router.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	tests := []struct {
		name       string
		path       string
		logging    bool
		wantStatus int
	}{
		{"liveness with access log", "/livez", true, http.StatusOK},
		{"liveness without access log", "/livez", false, http.StatusOK},
		{"panic becomes 500", "/boom", true, http.StatusInternalServerError},
		{"unknown route", "/nope", false, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := buildHandler(router, &startup.Config{LogRequests: tt.logging})
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("response is missing a request ID")
			}
		})
	}
}

func TestStartWorkDirSweeper_Disabled(t *testing.T) {
	stop := startWorkDirSweeper(newTestPipeline(t), 0)
	stop()
}

func TestStartWorkDirSweeper_StopIsPrompt(t *testing.T) {
	stop := startWorkDirSweeper(newTestPipeline(t), time.Hour)

	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not return")
	}
}

func TestVipsCheck(t *testing.T) {
	// Only the error contract is checked; libvips may or may not be loaded.
	if err := vipsCheck(); err != nil && err.Error() == "" {
		t.Error("vipsCheck error should describe the problem")
	}
}
