package feedsync

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	fetches      *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	mutations    *prometheus.CounterVec
	fetchSeconds *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg when it is
// non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "novaterm",
			Subsystem: "feed",
			Name:      "fetches_total",
			Help:      "Feed page fetches by kind and outcome.",
		}, []string{"kind", "result"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "novaterm",
			Subsystem: "feed",
			Name:      "ticks_skipped_total",
			Help:      "Live refresh ticks that did not fetch.",
		}, []string{"reason"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "novaterm",
			Subsystem: "feed",
			Name:      "mutations_total",
			Help:      "Dispatched mutations by name and outcome.",
		}, []string{"mutation", "result"}),
		fetchSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "novaterm",
			Subsystem: "feed",
			Name:      "fetch_seconds",
			Help:      "Feed page fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.fetches, m.skipped, m.mutations, m.fetchSeconds)
	}
	return m
}

func (m *Metrics) fetch(kind, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(kind, result).Inc()
	m.fetchSeconds.WithLabelValues(kind).Observe(took.Seconds())
}

func (m *Metrics) skip(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) mutation(name string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.mutations.WithLabelValues(name, result).Inc()
}
