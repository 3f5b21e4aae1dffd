package telemetry

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/erp/commerce-sync/internal/domain/integration"
)

// durationBuckets covers a handful of sequential remote calls per invocation
var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

func outcomeLabel(o integration.Outcome) string {
	if o.Succeeded() {
		return "success"
	}
	if o.StatusCode >= http.StatusBadRequest && o.StatusCode < http.StatusInternalServerError {
		return "rejected"
	}
	return "failed"
}

// ---------------------------------------------------------------------------
// OpenTelemetry
// ---------------------------------------------------------------------------

// SyncMetrics exports invocation outcomes through OpenTelemetry.
type SyncMetrics struct {
	invocations *Counter
	duration    *Histogram
}

var _ integration.OutcomeRecorder = (*SyncMetrics)(nil)

// NewSyncMetrics creates the sync instruments on meter.
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	invocations, err := NewCounter(meter, "sync_invocations_total", "Total number of sync invocations", "{invocation}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "sync_invocation_duration_seconds",
		Description: "Duration of sync invocations",
		Unit:        "s",
		Boundaries:  durationBuckets,
	})
	if err != nil {
		return nil, err
	}
	return &SyncMetrics{invocations: invocations, duration: duration}, nil
}

// RecordOutcome implements integration.OutcomeRecorder
func (m *SyncMetrics) RecordOutcome(ctx context.Context, o integration.Outcome) error {
	attrs := []attribute.KeyValue{
		AttrEntity.String(o.Entity.String()),
		AttrOutcome.String(outcomeLabel(o)),
		AttrStatusCode.Int(o.StatusCode),
	}
	m.invocations.Inc(ctx, attrs...)
	m.duration.RecordDuration(ctx, o.Duration, attrs[:2]...)
	return nil
}

// ---------------------------------------------------------------------------
// Prometheus
// ---------------------------------------------------------------------------

// PrometheusMetrics exposes invocation outcomes for scraping.
type PrometheusMetrics struct {
	registry    *prometheus.Registry
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var _ integration.OutcomeRecorder = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the sync collectors on a dedicated registry
// together with the Go runtime and process collectors.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Total number of sync invocations by entity and status code.",
		}, []string{"entity", "outcome", "status_code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Duration of sync invocations.",
			Buckets:   durationBuckets,
		}, []string{"entity", "outcome"}),
	}
	m.registry.MustRegister(
		m.invocations,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordOutcome implements integration.OutcomeRecorder
func (m *PrometheusMetrics) RecordOutcome(_ context.Context, o integration.Outcome) error {
	label := outcomeLabel(o)
	m.invocations.WithLabelValues(o.Entity.String(), label, strconv.Itoa(o.StatusCode)).Inc()
	m.duration.WithLabelValues(o.Entity.String(), label).Observe(o.Duration.Seconds())
	return nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}
