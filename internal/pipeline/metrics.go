package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const metricsNamespace = "briefing_relay"

// Metrics holds the per-run counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	records  *prometheus.CounterVec
	failures *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when reg is
// non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "source_records_total",
			Help:      "Raw records returned by each source.",
		}, []string{"source"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "source_failures_total",
			Help:      "Source fetches that failed and contributed nothing.",
		}, []string{"source"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "items_dropped_total",
			Help:      "Candidates dropped by the pipeline, by reason.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "source_fetch_seconds",
			Help:      "Wall time spent fetching each source.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"source"}),
	}
	if reg != nil {
		reg.MustRegister(m.records, m.failures, m.dropped, m.duration)
	}
	return m
}

func (m *Metrics) sourceCollected(source string, n int, d time.Duration) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(source).Add(float64(n))
	m.duration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) sourceFailed(source string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(source).Inc()
}

func (m *Metrics) itemsDropped(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.dropped.WithLabelValues(reason).Add(float64(n))
}

// PushMetrics sends everything in g to a Prometheus pushgateway.
func PushMetrics(ctx context.Context, gatewayURL, job string, g prometheus.Gatherer) error {
	if err := push.New(gatewayURL, job).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
