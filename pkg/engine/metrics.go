package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK             = "ok"
	OutcomeBadRequest     = "bad_request"
	OutcomeRateLimited    = "rate_limited"
	OutcomeQuotaExhausted = "quota_exhausted"
	OutcomeInvalidOutput  = "invalid_output"
	OutcomeUpstreamError  = "upstream_error"
	OutcomeNotConfigured  = "not_configured"
)

var (
	// GenerateTotal counts generation attempts by outcome
	GenerateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blockgen_generate_total",
			Help: "Total number of diagram generation attempts",
		},
		[]string{"outcome"},
	)

	// GenerateDuration tracks end-to-end generation latency
	GenerateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blockgen_generate_duration_seconds",
			Help:    "Time spent generating a diagram, including the model call",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	// UpstreamStatusTotal counts HTTP statuses returned by the model provider
	UpstreamStatusTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blockgen_upstream_status_total",
			Help: "Model provider HTTP statuses",
		},
		[]string{"status"},
	)

	// UpstreamRemaining tracks the last remaining-capacity reading from the provider
	UpstreamRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blockgen_upstream_ratelimit_remaining",
			Help: "Remaining provider capacity reported in rate limit headers",
		},
		[]string{"provider_id", "kind"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(GenerateTotal)
	prometheus.MustRegister(GenerateDuration)
	prometheus.MustRegister(UpstreamStatusTotal)
	prometheus.MustRegister(UpstreamRemaining)
}
