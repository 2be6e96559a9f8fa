// Package metrics exposes Prometheus collectors for footage reconciles,
// preview rendering and organize batches.
//
// All recording methods are safe on a nil *Metrics so components can run
// without instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the reel collectors and the registry they are bound to.
type Metrics struct {
	registry *prometheus.Registry

	reconcileTotal    *prometheus.CounterVec
	reconcileDuration *prometheus.HistogramVec
	previewTotal      *prometheus.CounterVec
	organizeItems     *prometheus.CounterVec
	organizeDuration  prometheus.Histogram
	footageDeleted    prometheus.Counter

	collectors []prometheus.Collector
}

// New creates a registry and registers every reel collector on it.
func New() (*Metrics, error) {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the collectors on registry.
func NewWithRegistry(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reel_reconcile_total",
			Help: "Footage content reconciles by outcome",
		},
		[]string{"outcome"}, // unchanged, updated, or an error kind
	)
	m.reconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reel_reconcile_duration_seconds",
			Help:    "Time spent hashing, probing and rendering a footage item",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16),
		},
		[]string{"outcome"},
	)
	m.previewTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reel_preview_total",
			Help: "Preview artifacts by container and result",
		},
		[]string{"container", "result"}, // result: generated, reused, skipped, failed
	)
	m.organizeItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reel_organize_items_total",
			Help: "Organize batch items by result",
		},
		[]string{"result"},
	)
	m.organizeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reel_organize_duration_seconds",
		Help:    "Wall time of organize batches",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})
	m.footageDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reel_footage_deleted_total",
		Help: "Footage records deleted",
	})

	m.collectors = []prometheus.Collector{
		m.reconcileTotal,
		m.reconcileDuration,
		m.previewTotal,
		m.organizeItems,
		m.organizeDuration,
		m.footageDeleted,
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// RecordReconcile records the outcome and duration of one reconcile.
func (m *Metrics) RecordReconcile(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reconcileTotal.WithLabelValues(outcome).Inc()
	m.reconcileDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RecordPreview records one preview attempt.
func (m *Metrics) RecordPreview(container, result string) {
	if m == nil {
		return
	}
	if container == "" {
		container = "none"
	}
	m.previewTotal.WithLabelValues(container, result).Inc()
}

// RecordOrganizeItem records the result of one organize item.
func (m *Metrics) RecordOrganizeItem(result string) {
	if m == nil {
		return
	}
	m.organizeItems.WithLabelValues(result).Inc()
}

// ObserveOrganize records the duration of an organize batch.
func (m *Metrics) ObserveOrganize(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.organizeDuration.Observe(elapsed.Seconds())
}

// RecordFootageDeleted counts a deleted footage record.
func (m *Metrics) RecordFootageDeleted() {
	if m == nil {
		return
	}
	m.footageDeleted.Inc()
}
