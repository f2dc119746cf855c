package operator

import "github.com/prometheus/client_golang/prometheus"

// ReconcileMetrics are the Prometheus series the operator process exposes on
// its metrics endpoint: a sync-duration histogram, an active-crawls gauge,
// an exec-seconds-debited counter and a reconcile-errors counter, registered
// directly against a prometheus.Registerer the caller owns.
type ReconcileMetrics struct {
	SyncDuration       *prometheus.HistogramVec
	ActiveCrawls       prometheus.Gauge
	ExecSecondsDebited prometheus.Counter
	ReconcileErrors    *prometheus.CounterVec
}

// NewReconcileMetrics registers and returns the operator's metric set. A nil
// registerer is accepted for tests that don't care about exposition.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	m := &ReconcileMetrics{
		SyncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crawl_control_plane",
			Subsystem: "operator",
			Name:      "sync_duration_seconds",
			Help:      "Time to compute and respond to one meta-controller sync call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"target"}),
		ActiveCrawls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crawl_control_plane",
			Subsystem: "operator",
			Name:      "active_crawls",
			Help:      "Number of CrawlJobs currently admitted and not yet finalized.",
		}),
		ExecSecondsDebited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crawl_control_plane",
			Subsystem: "operator",
			Name:      "exec_seconds_debited_total",
			Help:      "Total crawl execution-seconds debited against organization quota pools.",
		}),
		ReconcileErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crawl_control_plane",
			Subsystem: "operator",
			Name:      "reconcile_errors_total",
			Help:      "Sync calls that returned an error, by target.",
		}, []string{"target"}),
	}
	if reg != nil {
		reg.MustRegister(m.SyncDuration, m.ActiveCrawls, m.ExecSecondsDebited, m.ReconcileErrors)
	}
	return m
}
