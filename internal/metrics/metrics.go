package metrics

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"cvetl/internal/etl"
)

// Metrics holds the per-run collectors. The process is a short-lived
// job, so values are pushed to a Pushgateway instead of scraped.
type Metrics struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	pages       *prometheus.CounterVec
	records     *prometheus.CounterVec
	rows        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvetl",
			Name:      "runs_total",
			Help:      "Pipeline runs by final status.",
		}, []string{"pipeline", "status"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvetl",
			Name:      "pages_total",
			Help:      "API pages fetched.",
		}, []string{"pipeline"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvetl",
			Name:      "records_received_total",
			Help:      "Records received from the API.",
		}, []string{"pipeline"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvetl",
			Name:      "rows_upserted_total",
			Help:      "Rows written to the target, per table.",
		}, []string{"pipeline", "table"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cvetl",
			Name:      "run_duration_seconds",
			Help:      "How long a pipeline run takes.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"pipeline"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cvetl",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}, []string{"pipeline"}),
	}
	reg.MustRegister(m.runs, m.pages, m.records, m.rows, m.duration, m.lastSuccess)
	return m
}

// Observe records a finished run.
func (m *Metrics) Observe(r *etl.SyncResult) {
	if r == nil {
		return
	}
	m.runs.WithLabelValues(r.Entity, r.Status).Inc()
	m.pages.WithLabelValues(r.Entity).Add(float64(r.Pages))
	m.records.WithLabelValues(r.Entity).Add(float64(r.RecordsReceived))
	for table, n := range r.Tables {
		m.rows.WithLabelValues(r.Entity, table).Add(float64(n))
	}
	m.duration.WithLabelValues(r.Entity).Observe(r.Duration.Seconds())
	if r.Status == etl.StatusCompleted {
		m.lastSuccess.WithLabelValues(r.Entity).Set(float64(r.StartedAt.Add(r.Duration).Unix()))
	}
}

// Push sends every collected value to the Pushgateway at url.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return errors.Wrap(err, "push metrics")
	}
	return nil
}
