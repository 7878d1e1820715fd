package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.ObserveJob("completed", 3*time.Second)
	m.ObserveJob("failed", time.Second)
	m.ObserveJob("completed", time.Second)
	m.IncPage("http")
	m.IncPage("http")
	m.IncPage("colly")
	m.AddRecords(4)
	m.AddRecords(0)
	m.IncSkipped("duplicate")
	m.IncCache("hit")
	m.SubscriberDelta(1)
	m.SubscriberDelta(1)
	m.SubscriberDelta(-1)

	if got := testutil.ToFloat64(m.JobsTotal.WithLabelValues("completed")); got != 2 {
		t.Errorf("completed jobs: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.PagesTotal.WithLabelValues("http")); got != 2 {
		t.Errorf("http pages: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RecordsTotal); got != 4 {
		t.Errorf("records: got %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.LogSubscribers); got != 1 {
		t.Errorf("subscribers: got %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.JobDuration); got != 1 {
		t.Errorf("histogram series: got %d, want 1", got)
	}
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveJob("completed", time.Second)
	m.IncPage("http")
	m.AddRecords(1)
	m.IncSkipped("incomplete")
	m.IncCache("miss")
	m.SubscriberDelta(1)
}
