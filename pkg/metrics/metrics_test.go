package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	base := testutil.ToFloat64(deliveries.WithLabelValues(ResultFailure))
	ObserveDelivery(ResultFailure)
	assert.Equal(t, base+1, testutil.ToFloat64(deliveries.WithLabelValues(ResultFailure)))

	base = testutil.ToFloat64(webhooks.WithLabelValues("payment", OutcomeDuplicate))
	ObserveWebhook("payment", OutcomeDuplicate)
	ObserveWebhook("payment", OutcomeDuplicate)
	assert.Equal(t, base+2, testutil.ToFloat64(webhooks.WithLabelValues("payment", OutcomeDuplicate)))

	base = testutil.ToFloat64(transitions.WithLabelValues("QUESTION_ONE"))
	ObserveTransition("QUESTION_ONE")
	assert.Equal(t, base+1, testutil.ToFloat64(transitions.WithLabelValues("QUESTION_ONE")))

	base = testutil.ToFloat64(chargeTransitions.WithLabelValues("COMPLETED", "WEBHOOK"))
	ObserveChargeTransition("COMPLETED", "WEBHOOK")
	assert.Equal(t, base+1, testutil.ToFloat64(chargeTransitions.WithLabelValues("COMPLETED", "WEBHOOK")))

	base = testutil.ToFloat64(retries.WithLabelValues("admin", ResultSuccess))
	ObserveRetry("admin", ResultSuccess)
	assert.Equal(t, base+1, testutil.ToFloat64(retries.WithLabelValues("admin", ResultSuccess)))
}

func TestStuckGauge(t *testing.T) {
	SetStuckProcessing(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(stuckProcessing))
	SetStuckProcessing(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(stuckProcessing))
}
