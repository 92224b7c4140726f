package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_catalog_cache_lookups_total",
		Help: "Catalog cache lookups by key kind and result",
	},
	[]string{"kind", "result"},
)
