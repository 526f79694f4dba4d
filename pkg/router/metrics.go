package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Total handled requests by strategy and outcome",
	}, []string{"strategy", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Request handling duration by strategy",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"strategy"})

	refreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_background_refreshes_total",
		Help: "Background cache refreshes by result",
	}, []string{"result"}) // "ok", "skipped", "error"
)
