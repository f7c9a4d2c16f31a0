// Package httpapi is the runner daemon's status surface: health,
// liveness/pause state, and Prometheus metrics, mirroring the
// teacher's gin-based transport layer but without the order-domain
// endpoints it served.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mkrou/kflow/pkg/httpx"
	"github.com/mkrou/kflow/runner"
)

// StatusSource is the subset of *runner.Runner the status endpoint
// reports on, kept as an interface so handlers are testable without a
// live runner.
type StatusSource interface {
	Running() bool
	PausedHistory() int64
	UnpausedHistory() int64
	PostCommitCount() int64
}

// Handler serves the runner's status endpoints.
type Handler struct {
	runner StatusSource
	log    runner.Logger
}

// NewHandler builds a Handler over src.
func NewHandler(src StatusSource, log runner.Logger) *Handler {
	return &Handler{runner: src, log: log}
}

// NewRouter assembles the gin engine: panic recovery, optional OTEL
// span instrumentation, request id, request logging, then the
// status/metrics endpoints. otelServiceName is empty when tracing is
// disabled, in which case otelgin is skipped entirely.
func NewRouter(h *Handler, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestIDMiddleware())
	r.Use(httpx.RequestLogger(h.log))

	r.GET("/healthz", h.healthz)
	r.GET("/status", h.status)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (h *Handler) healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// status reports the runner's lifecycle and pause/commit counters.
func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":           h.runner.Running(),
		"paused_history":    h.runner.PausedHistory(),
		"unpaused_history":  h.runner.UnpausedHistory(),
		"post_commit_count": h.runner.PostCommitCount(),
		"server_time":       time.Now().UTC(),
	})
}
