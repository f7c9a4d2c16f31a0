package runner

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the Prometheus instruments the Runner updates as it
// drives the loop. Mirrors pkg/metrics' CounterVec/Gauge style from
// the teacher repo, scoped to a label set of the runner's group id.
type metrics struct {
	pollsTotal       *prometheus.CounterVec
	recordsPolled    *prometheus.CounterVec
	unitsCommitted   *prometheus.CounterVec
	pauseEventsTotal *prometheus.CounterVec
	fatalEventsTotal *prometheus.CounterVec
	pauseActive      *prometheus.GaugeVec
}

func newMetrics() *metrics {
	return &metrics{
		pollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runner_polls_total",
			Help: "Number of broker poll calls issued by the runner.",
		}, []string{"group_id"}),
		recordsPolled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runner_records_polled_total",
			Help: "Number of records returned by broker polls.",
		}, []string{"group_id"}),
		unitsCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runner_units_committed_total",
			Help: "Number of process units successfully committed.",
		}, []string{"group_id"}),
		pauseEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runner_pause_events_total",
			Help: "Number of times the runner entered a pause.",
		}, []string{"group_id"}),
		fatalEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runner_fatal_events_total",
			Help: "Number of fatal errors the runner encountered.",
		}, []string{"group_id"}),
		pauseActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "runner_paused",
			Help: "1 while the runner is paused, 0 otherwise.",
		}, []string{"group_id"}),
	}
}

// Register adds every instrument to reg. Safe to call once per
// process per distinct registry; callers embedding multiple runners
// under one registry should share a *metrics instance instead of
// registering twice.
func (m *metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.pollsTotal, m.recordsPolled, m.unitsCommitted,
		m.pauseEventsTotal, m.fatalEventsTotal, m.pauseActive,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
