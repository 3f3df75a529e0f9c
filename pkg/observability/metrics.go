package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors recorded from editor hooks.
type Metrics struct {
	registry       *prometheus.Registry
	mutations      *prometheus.CounterVec
	remoteRequests *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_graph_mutations_total",
				Help: "Total number of committed graph mutations",
			},
			[]string{"op"},
		),
		remoteRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_remote_requests_total",
				Help: "Total number of calls to the remote scenario service",
			},
			[]string{"op", "outcome"},
		),
		remoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lattice_remote_request_duration_seconds",
				Help:    "Duration of calls to the remote scenario service",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	m.registry.MustRegister(m.mutations, m.remoteRequests, m.remoteDuration)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns editor hooks that record into m.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			m.mutations.WithLabelValues(e.Op).Inc()
		},
		OnRemoteCall: func(ctx context.Context, e *domain.RemoteEvent) {
			m.remoteRequests.WithLabelValues(e.Op, Outcome(e.Err)).Inc()
			m.remoteDuration.WithLabelValues(e.Op).Observe(e.Duration.Seconds())
		},
	}
}
