// Package metrics holds the Prometheus collectors exposed on GET /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scrape server.
// All helpers are no-ops on a nil *Metrics.
type Metrics struct {
	Registry       *prometheus.Registry
	JobsTotal      *prometheus.CounterVec
	JobDuration    prometheus.Histogram
	PagesTotal     *prometheus.CounterVec
	RecordsTotal   prometheus.Counter
	SkippedTotal   *prometheus.CounterVec
	CacheTotal     *prometheus.CounterVec
	LogSubscribers prometheus.Gauge
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	jobs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_jobs_total",
			Help: "Scrape jobs by final status.",
		},
		[]string{"status"},
	)
	jobDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scrape_job_duration_seconds",
			Help:    "Wall time of a whole scrape job.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_pages_fetched_total",
			Help: "Listing pages fetched, by winning engine.",
		},
		[]string{"engine"},
	)
	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scrape_records_total",
			Help: "Complete, deduplicated venue records collected.",
		},
	)
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_records_skipped_total",
			Help: "Extracted records dropped, by reason.",
		},
		[]string{"reason"},
	)
	cacheTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_page_cache_total",
			Help: "Page cache lookups by result.",
		},
		[]string{"result"},
	)
	subscribers := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrape_log_stream_subscribers",
			Help: "Open GET /log-stream connections.",
		},
	)

	registry.MustRegister(jobs, jobDuration, pages, records, skipped, cacheTotal, subscribers)

	return &Metrics{
		Registry:       registry,
		JobsTotal:      jobs,
		JobDuration:    jobDuration,
		PagesTotal:     pages,
		RecordsTotal:   records,
		SkippedTotal:   skipped,
		CacheTotal:     cacheTotal,
		LogSubscribers: subscribers,
	}
}

// ObserveJob records a finished job.
func (m *Metrics) ObserveJob(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(status).Inc()
	m.JobDuration.Observe(d.Seconds())
}

// IncPage counts a fetched page.
func (m *Metrics) IncPage(engine string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(engine).Inc()
}

// AddRecords counts kept records.
func (m *Metrics) AddRecords(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsTotal.Add(float64(n))
}

// IncSkipped counts a dropped record ("incomplete" or "duplicate").
func (m *Metrics) IncSkipped(reason string) {
	if m == nil {
		return
	}
	m.SkippedTotal.WithLabelValues(reason).Inc()
}

// IncCache counts a cache lookup ("hit" or "miss").
func (m *Metrics) IncCache(result string) {
	if m == nil {
		return
	}
	m.CacheTotal.WithLabelValues(result).Inc()
}

// SubscriberDelta moves the open log stream gauge.
func (m *Metrics) SubscriberDelta(delta float64) {
	if m == nil {
		return
	}
	m.LogSubscribers.Add(delta)
}
