// Package metrics defines the Prometheus collectors for the depth aggregator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles all collectors. A nil *Metrics is valid and turns every
// recording method into a no-op, so callers never need to branch.
type Metrics struct {
	entriesReceived *prometheus.CounterVec
	passesRun       prometheus.Counter
	transportErrors *prometheus.CounterVec
	bufferSize      prometheus.Gauge
	passDuration    prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		entriesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depthview",
			Name:      "entries_received_total",
			Help:      "Normalized entries received from venue streams and snapshots.",
		}, []string{"venue"}),
		passesRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "depthview",
			Name:      "aggregation_passes_total",
			Help:      "Aggregation passes executed.",
		}),
		transportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "depthview",
			Name:      "transport_errors_total",
			Help:      "Venue transport failures (snapshot or stream level).",
		}, []string{"venue"}),
		bufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "depthview",
			Name:      "entry_buffer_size",
			Help:      "Entries currently held in the window store.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "depthview",
			Name:      "aggregation_pass_seconds",
			Help:      "Duration of a full aggregation plus zone-detection pass.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	reg.MustRegister(
		m.entriesReceived,
		m.passesRun,
		m.transportErrors,
		m.bufferSize,
		m.passDuration,
	)

	return m
}

// EntriesReceived records a batch of n entries from a venue.
func (m *Metrics) EntriesReceived(venue string, n int) {
	if m == nil {
		return
	}
	m.entriesReceived.WithLabelValues(venue).Add(float64(n))
}

// PassRun records one completed aggregation pass and its duration in seconds.
func (m *Metrics) PassRun(seconds float64) {
	if m == nil {
		return
	}
	m.passesRun.Inc()
	m.passDuration.Observe(seconds)
}

// TransportError records a venue transport failure.
func (m *Metrics) TransportError(venue string) {
	if m == nil {
		return
	}
	m.transportErrors.WithLabelValues(venue).Inc()
}

// BufferSize records the current window-store size.
func (m *Metrics) BufferSize(n int) {
	if m == nil {
		return
	}
	m.bufferSize.Set(float64(n))
}
