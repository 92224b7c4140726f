package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mutation results.
const (
	resultOK       = "ok"
	resultRejected = "rejected"
	resultFailed   = "failed"
	resultStale    = "stale"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart reconciler operations by operation and result",
		},
		[]string{"op", "result"},
	)

	staleConfirmations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cart_stale_confirmations_total",
			Help: "Remote confirmations discarded because a newer request for the same product was issued",
		},
	)

	activeViews = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_cart_views_active",
			Help: "Number of live per-session cart views",
		},
	)
)
