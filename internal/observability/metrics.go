package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_login_attempts_total",
			Help: "Total number of login attempts by result",
		},
		[]string{"result"},
	)

	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_validations_total",
			Help: "Total number of token validations by outcome",
		},
		[]string{"outcome"},
	)

	// Route guard metrics
	GuardDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_guard_decisions_total",
			Help: "Total number of navigation guard decisions",
		},
		[]string{"decision"},
	)

	// Identity collaborator metrics
	IdentityRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "identity_request_duration_seconds",
			Help:    "Identity service request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "status"},
	)

	// Local state store metrics
	StateOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_store_operations_total",
			Help: "Total number of local state store operations",
		},
		[]string{"operation", "result"},
	)
)
