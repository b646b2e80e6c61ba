package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notifyhub"

// Metrics holds the collectors for one service instance. Each instance owns
// its registry so isolated instances (tests) never collide.
type Metrics struct {
	registry *prometheus.Registry

	DispatchOutcomes  *prometheus.CounterVec
	ConnectedChannels prometheus.Gauge
	ChannelEvents     *prometheus.CounterVec
	CallbackResults   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		DispatchOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "outcomes_total",
				Help:      "Per-target outcomes of bulk dispatches",
			},
			[]string{"outcome"},
		),
		ConnectedChannels: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "channels",
				Name:      "connected",
				Help:      "Number of identities with a live push channel",
			},
		),
		ChannelEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "channels",
				Name:      "events_total",
				Help:      "Events written to push channels by type",
			},
			[]string{"type"},
		),
		CallbackResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tracking",
				Name:      "callback_results_total",
				Help:      "Results of tracking callback calls",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.DispatchOutcomes,
		m.ConnectedChannels,
		m.ChannelEvents,
		m.CallbackResults,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the instance registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncDispatch(outcome string) {
	if m == nil {
		return
	}
	m.DispatchOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetConnected(n int) {
	if m == nil {
		return
	}
	m.ConnectedChannels.Set(float64(n))
}

func (m *Metrics) IncChannelEvent(eventType string) {
	if m == nil {
		return
	}
	m.ChannelEvents.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncCallback(result string) {
	if m == nil {
		return
	}
	m.CallbackResults.WithLabelValues(result).Inc()
}
