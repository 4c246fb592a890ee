// Package metrics exposes engine throughput counters over Prometheus.
// The core stays metrics-free; binaries observe around ProcessOrder.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine-facing instruments on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ordersProcessed prometheus.Counter
	ordersRejected  prometheus.Counter
	tradesExecuted  prometheus.Counter
	quantityTraded  prometheus.Counter
	bookDepth       *prometheus.GaugeVec
	matchingLatency prometheus.Histogram
}

// New creates a registry with the order-flow instruments plus the
// standard Go runtime collectors.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ordersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_processed_total",
			Help:      "Total number of order events processed",
		}),
		ordersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Total number of incoming orders rejected",
		}),
		tradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Total number of fills produced by matching",
		}),
		quantityTraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quantity_traded_total",
			Help:      "Total quantity exchanged across all fills",
		}),
		bookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orderbook_depth",
			Help:      "Resident orders per instrument and side",
		}, []string{"instrument", "side"}),
		matchingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "matching_latency_seconds",
			Help:      "ProcessOrder wall time",
			Buckets:   prometheus.ExponentialBuckets(100e-9, 4, 12),
		}),
	}

	registry.MustRegister(
		m.ordersProcessed,
		m.ordersRejected,
		m.tradesExecuted,
		m.quantityTraded,
		m.bookDepth,
		m.matchingLatency,
		collectors.NewGoCollector(),
	)
	return m
}

// RecordOrder accounts one ProcessOrder call: the aggressor outcome,
// its fill count and quantity, and the call latency.
func (m *Metrics) RecordOrder(rejected bool, fills int, quantity int64, elapsed time.Duration) {
	m.ordersProcessed.Inc()
	if rejected {
		m.ordersRejected.Inc()
	}
	m.tradesExecuted.Add(float64(fills))
	m.quantityTraded.Add(float64(quantity))
	m.matchingLatency.Observe(elapsed.Seconds())
}

// SetBookDepth publishes the resident order count for one side of one
// instrument's book.
func (m *Metrics) SetBookDepth(instrument, side string, orders int) {
	m.bookDepth.WithLabelValues(instrument, side).Set(float64(orders))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
