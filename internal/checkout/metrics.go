package checkout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// How an order's settlement was observed.
const (
	confirmedImmediate = "immediate"
	confirmedPush      = "push"
	confirmedPoll      = "poll"
	confirmedDelay     = "delay"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_submissions_total",
			Help: "Checkout submissions by outcome",
		},
		[]string{"outcome"},
	)

	settleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_checkout_settle_seconds",
			Help:    "Time from order placement until settlement was observed",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"source"},
	)
)
