package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mkrou/kflow/internal/httpapi"
)

type nopLogger struct{}

func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

type fakeStatus struct {
	running   bool
	paused    int64
	unpaused  int64
	committed int64
}

func (f fakeStatus) Running() bool          { return f.running }
func (f fakeStatus) PausedHistory() int64   { return f.paused }
func (f fakeStatus) UnpausedHistory() int64 { return f.unpaused }
func (f fakeStatus) PostCommitCount() int64 { return f.committed }

func init() { gin.SetMode(gin.TestMode) }

func TestHealthz_200(t *testing.T) {
	h := httpapi.NewHandler(fakeStatus{}, nopLogger{})
	r := httpapi.NewRouter(h, "")

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
}

func TestStatus_ReportsRunnerFields(t *testing.T) {
	src := fakeStatus{running: true, paused: 3, unpaused: 2, committed: 41}
	h := httpapi.NewHandler(src, nopLogger{})
	r := httpapi.NewRouter(h, "")

	req := httptest.NewRequest(http.MethodGet, "/status", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["running"] != true {
		t.Fatalf("running: got %v", body["running"])
	}
	if body["post_commit_count"].(float64) != 41 {
		t.Fatalf("post_commit_count: got %v", body["post_commit_count"])
	}
}

func TestMetrics_200(t *testing.T) {
	h := httpapi.NewHandler(fakeStatus{}, nopLogger{})
	r := httpapi.NewRouter(h, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Fatal("metrics body is empty")
	}
}

func TestNoRoute_404(t *testing.T) {
	h := httpapi.NewHandler(fakeStatus{}, nopLogger{})
	r := httpapi.NewRouter(h, "")

	req := httptest.NewRequest(http.MethodGet, "/no-such-route", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", w.Code)
	}
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	h := httpapi.NewHandler(fakeStatus{}, nopLogger{})
	r := httpapi.NewRouter(h, "")

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header to be set")
	}
}

func TestHealthz_200_WithOtelServiceName(t *testing.T) {
	h := httpapi.NewHandler(fakeStatus{}, nopLogger{})
	r := httpapi.NewRouter(h, "streamrunner-test")

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
}
