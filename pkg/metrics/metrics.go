package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTP request instruments, kept separate from runner.metrics so a
// host process can run several Runners behind one HTTP server without
// the two colliding on registration. internal/httpapi does not record
// into them; they only carry what a caller observes on them directly.
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Number of HTTP requests served by the runner's status surface.",
		},
		[]string{"path", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Latency of HTTP requests served by the runner's status surface.",
		},
		[]string{"path", "method"},
	)
)

var registerOnce sync.Once

// MustRegister registers the HTTP metrics against the default
// registry. Only the first call registers; later calls are no-ops.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal, HTTPRequestDuration)
	})
}
