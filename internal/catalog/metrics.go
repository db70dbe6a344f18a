package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Total number of catalog cache hits",
	}, []string{"segment"})

	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Total number of catalog cache misses",
	}, []string{"segment"})

	cacheInvalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_invalidations_total",
		Help: "Total number of catalog cache invalidations",
	}, []string{"segment"})

	catalogLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_load_duration_seconds",
		Help:    "Latency of catalog loads that miss the cache",
		Buckets: prometheus.DefBuckets,
	}, []string{"segment"})
)
