package metrics_test

import (
	"testing"

	"github.com/mkrou/kflow/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegister_IsIdempotent(t *testing.T) {
	t.Helper()
	metrics.MustRegister()
	metrics.MustRegister()
}

func TestHTTPRequestsTotal_Inc(t *testing.T) {
	metrics.MustRegister()

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("/status", "GET", "200"))
	metrics.HTTPRequestsTotal.WithLabelValues("/status", "GET", "200").Inc()

	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("/status", "GET", "200")); got != before+1 {
		t.Fatalf("HTTPRequestsTotal: got=%v want=%v", got, before+1)
	}
}

func TestHTTPRequestDuration_Observe(t *testing.T) {
	metrics.MustRegister()

	// A histogram has no single current value to diff; just exercise
	// Observe and make sure it doesn't panic on an unseen label set.
	metrics.HTTPRequestDuration.WithLabelValues("/healthz", "GET").Observe(0.01)
}
