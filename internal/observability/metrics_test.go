package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionMetrics(t *testing.T) {
	t.Run("metrics_are_registered", func(t *testing.T) {
		assert.NotNil(t, LoginAttemptsTotal)
		assert.NotNil(t, ValidationsTotal)
		assert.NotNil(t, GuardDecisionsTotal)
		assert.NotNil(t, IdentityRequestDuration)
		assert.NotNil(t, StateOperationsTotal)
	})

	t.Run("counters_accept_expected_labels", func(t *testing.T) {
		LoginAttemptsTotal.WithLabelValues("ok").Inc()
		LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		LoginAttemptsTotal.WithLabelValues("throttled").Inc()
		ValidationsTotal.WithLabelValues("confirmed").Inc()
		ValidationsTotal.WithLabelValues("invalid").Inc()
		ValidationsTotal.WithLabelValues("indeterminate").Inc()
		GuardDecisionsTotal.WithLabelValues("allow").Inc()
		GuardDecisionsTotal.WithLabelValues("redirect").Inc()
		StateOperationsTotal.WithLabelValues("save", "ok").Inc()
	})

	t.Run("histogram_records_observations", func(t *testing.T) {
		IdentityRequestDuration.WithLabelValues("login", "200").Observe(0.05)
		IdentityRequestDuration.WithLabelValues("validate", "401").Observe(0.01)
		IdentityRequestDuration.WithLabelValues("validate", "error").Observe(1.2)
	})
}
