package bucket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Hits tracks bucket hits by backend (memory, redis, leveldb).
	Hits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_bucket_hits_total",
			Help: "Total number of bucket lookup hits",
		},
		[]string{"backend"},
	)

	// Misses tracks bucket lookup misses.
	Misses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_bucket_misses_total",
			Help: "Total number of bucket lookup misses",
		},
	)

	// Errors tracks storage operation errors.
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_bucket_errors_total",
			Help: "Total number of bucket operation errors",
		},
		[]string{"operation"}, // "get", "put", "delete", "drop"
	)

	// Dropped tracks bucket deletions by reason.
	Dropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_buckets_dropped_total",
			Help: "Total number of buckets dropped",
		},
		[]string{"reason"}, // "activation", "clear_cache", "force_refresh"
	)
)
