// Package metrics provides the centralized Prometheus metrics registry for
// the gateway. All metrics are defined in their respective packages (router,
// bucket, lifecycle) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the gateway.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/router):
//   - gateway_requests_total{strategy, outcome} (Counter): Requests by caching strategy and outcome
//   - gateway_request_duration_seconds{strategy} (Histogram): Request duration by strategy
//   - gateway_background_refreshes_total{result} (Counter): Background cache refreshes by result
//
// Bucket Metrics (pkg/bucket):
//   - gateway_bucket_hits_total{backend} (Counter): Bucket lookups served from cache
//   - gateway_bucket_misses_total (Counter): Bucket lookups that missed
//   - gateway_bucket_errors_total{operation} (Counter): Storage operation errors
//   - gateway_buckets_dropped_total{reason} (Counter): Buckets deleted (activation, clear_cache, force_refresh)
//
// Lifecycle Metrics (pkg/lifecycle):
//   - gateway_precache_assets_total{result} (Counter): Pre-cache fetches during install
//   - gateway_activations_total (Counter): Completed activations
//   - gateway_syncs_total{kind} (Counter): Sync events broadcast by tag kind
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(gateway_bucket_hits_total[5m])) /
//   (sum(rate(gateway_bucket_hits_total[5m])) + sum(rate(gateway_bucket_misses_total[5m])))
//
//   # Offline Fallback Rate
//   rate(gateway_requests_total{outcome="offline"}[5m])
//
//   # P95 Latency per Strategy
//   histogram_quantile(0.95, rate(gateway_request_duration_seconds_bucket[5m]))
//
//   # Failed Background Refreshes
//   rate(gateway_background_refreshes_total{result="error"}[5m])
