package inotify

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "notifywatch"

// Metrics are the Prometheus collectors a Watcher reports to. A nil
// *Metrics records nothing.
type Metrics struct {
	Events        *prometheus.CounterVec
	DecodeErrors  *prometheus.CounterVec
	WatchesActive prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg unless reg
// is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Events delivered, by alias.",
		}, []string{"alias"}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "decode_errors_total",
			Help:      "Records that could not be turned into events, by kind.",
		}, []string{"kind"}),
		WatchesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "watches_active",
			Help:      "Watches currently added to the notification channel.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Events, m.DecodeErrors, m.WatchesActive)
	}
	return m
}

func (m *Metrics) event(alias string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(alias).Inc()
}

func (m *Metrics) decodeError(kind string) {
	if m == nil {
		return
	}
	m.DecodeErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) setActive(n int) {
	if m == nil {
		return
	}
	m.WatchesActive.Set(float64(n))
}
