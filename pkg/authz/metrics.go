package authz

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for authorization decisions.
type Metrics struct {
	DecisionsTotal       *prometheus.CounterVec
	TokenRejectionsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the authorization metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bazaar_authz_decisions_total",
				Help: "Authorization decisions by outcome",
			},
			[]string{"outcome"},
		),
		TokenRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bazaar_authz_token_rejections_total",
				Help: "Bearer token rejections by internal reason",
			},
			[]string{"reason"},
		),
	}

	if registry != nil {
		registry.MustRegister(m.DecisionsTotal, m.TokenRejectionsTotal)
	}
	return m
}

func (m *Metrics) countDecision(outcome string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) countTokenRejection(reason string) {
	if m == nil {
		return
	}
	m.TokenRejectionsTotal.WithLabelValues(reason).Inc()
}
