// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the gateway's Prometheus collectors. Route labels are the
// registered Gin pattern (e.g. /_offline/queue/dead/:id). Requests no route
// matched are pages and assets served by the interception layer; they all
// share the "(worker)" label and bpguard_worker_requests_total breaks them
// down by strategy and source.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpguard_gateway_requests_total",
			Help: "Gateway requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	// no status label: keeps the histogram small
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bpguard_gateway_request_duration_seconds",
			Help: "Gateway request latency by method and route.",
			// Local JSON answers are fast; proxied pages and offline-queued
			// writes can wait up to the request timeout.
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15},
		},
		[]string{"method", "route"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bpguard_gateway_requests_inflight",
			Help: "Gateway requests currently being served.",
		},
	)

	// Bodies range from tiny status documents to pre-cached images.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bpguard_gateway_response_size_bytes",
			Help:    "Gateway response sizes by method and route.",
			Buckets: prometheus.ExponentialBuckets(128, 4, 9), // 128B..8MiB
		},
		[]string{"method", "route"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpguard_gateway_rate_limited_total",
			Help: "Requests rejected by the gateway rate limiter, by class (read|write).",
		},
		[]string{"class"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize, rateLimited)
}

// Metrics instruments every request. Mount /metrics with promhttp next to it.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		// -1 when nothing was written (304 from the queue or the worker)
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, route).Observe(float64(size))
		}
	}
}
