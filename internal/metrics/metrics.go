package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "giftbuilder"

// Metrics holds the builder's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	actions        *prometheus.CounterVec
	sessionsActive prometheus.Gauge
	checkouts      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Builder actions dispatched, by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Builder sessions currently held in the store.",
			},
		),
		checkouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkouts_total",
				Help:      "Checkout attempts, by result.",
			},
			[]string{"result"},
		),
	}
	m.Registry.MustRegister(m.actions, m.sessionsActive, m.checkouts)
	return m
}

// ObserveAction records one dispatch. outcome is "applied" or "ignored".
func (m *Metrics) ObserveAction(kind, outcome string) {
	m.actions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	m.sessionsActive.Set(float64(n))
}

// ObserveCheckout records a checkout with result "submitted", "blocked" or "failed".
func (m *Metrics) ObserveCheckout(result string) {
	m.checkouts.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
