// Package metrics holds the Prometheus collectors for the request pipeline.
//
// Labels are limited to small enums (result, source, outcome, step) so
// cardinality stays bounded. All collectors are registered with the default
// registry and served by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docucheck_deliveries_total",
			Help: "Document deliveries to the review channel by result.",
		},
		[]string{"result"},
	)

	webhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docucheck_webhooks_total",
			Help: "Inbound webhook deliveries by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docucheck_interaction_transitions_total",
			Help: "Applied interaction step transitions by target step.",
		},
		[]string{"step"},
	)

	chargeTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docucheck_charge_transitions_total",
			Help: "Applied charge status transitions by new status and source.",
		},
		[]string{"status", "source"},
	)

	retries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docucheck_retries_total",
			Help: "Delivery re-drives by trigger and result.",
		},
		[]string{"trigger", "result"},
	)

	stuckProcessing = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docucheck_requests_stuck_processing",
			Help: "Requests sitting in PROCESSING beyond the staleness threshold.",
		},
	)
)

func init() {
	prometheus.MustRegister(deliveries, webhooks, transitions, chargeTransitions, retries, stuckProcessing)
}

// Delivery result labels
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Webhook outcome labels
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// ObserveDelivery counts one document send attempt
func ObserveDelivery(result string) {
	deliveries.WithLabelValues(result).Inc()
}

// ObserveWebhook counts one inbound webhook delivery
func ObserveWebhook(source, outcome string) {
	webhooks.WithLabelValues(source, outcome).Inc()
}

// ObserveTransition counts one applied interaction step
func ObserveTransition(step string) {
	transitions.WithLabelValues(step).Inc()
}

// ObserveChargeTransition counts one applied charge status change
func ObserveChargeTransition(status, source string) {
	chargeTransitions.WithLabelValues(status, source).Inc()
}

// ObserveRetry counts one re-drive attempt
func ObserveRetry(trigger, result string) {
	retries.WithLabelValues(trigger, result).Inc()
}

// SetStuckProcessing publishes the latest stuck request count
func SetStuckProcessing(n int64) {
	stuckProcessing.Set(float64(n))
}
