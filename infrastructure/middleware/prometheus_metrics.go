// Package middleware provides observability adapters shared across the
// oracle client stack.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-moat/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector using Prometheus.
// It exposes oracle request latency, call counts, and token consumption
// per provider and model.
type PrometheusMetrics struct {
	requestLatency *prometheus.HistogramVec
	requestCounter *prometheus.CounterVec
	tokensCounter  *prometheus.CounterVec
}

// NewPrometheusMetrics registers the oracle metrics in the default
// Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWith(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsWith registers the oracle metrics with reg. Tests
// pass a private registry to avoid duplicate-registration panics.
func NewPrometheusMetricsWith(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		requestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oracle_request_duration_seconds",
				Help:    "Latency of oracle requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "provider", "model"},
		),
		requestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oracle_requests_total",
				Help: "Total oracle requests by outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		tokensCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oracle_tokens_total",
				Help: "Total tokens exchanged with the oracle.",
			},
			[]string{"provider", "model", "token_type"},
		),
	}
}

// RecordLatency records the latency of a named operation.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.requestLatency.WithLabelValues(
		operation,
		labelOr(labels, "provider"),
		labelOr(labels, "model"),
	).Observe(duration.Seconds())
}

// RecordCounter increments a counter metric.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "oracle_tokens_total":
		pm.tokensCounter.WithLabelValues(
			labelOr(labels, "provider"),
			labelOr(labels, "model"),
			labelOr(labels, "token_type"),
		).Add(value)
	default:
		pm.requestCounter.WithLabelValues(
			labelOr(labels, "provider"),
			labelOr(labels, "model"),
			labelOr(labels, "status"),
		).Add(value)
	}
}

// RecordHistogram records a value in the request latency histogram under
// the metric name as the operation label.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	pm.requestLatency.WithLabelValues(
		metric,
		labelOr(labels, "provider"),
		labelOr(labels, "model"),
	).Observe(value)
}

func labelOr(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return "unknown"
}

// Compile-time verification that PrometheusMetrics implements
// MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
