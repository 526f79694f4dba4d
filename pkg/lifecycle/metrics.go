package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	precacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_precache_assets_total",
			Help: "Shell assets pre-cached at install by result",
		},
		[]string{"result"}, // "ok", "error"
	)

	activationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_activations_total",
			Help: "Total number of worker activations",
		},
	)

	syncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_syncs_total",
			Help: "Background sync notifications broadcast by kind",
		},
		[]string{"kind"}, // "sync", "periodic"
	)
)
