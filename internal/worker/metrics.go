package worker

import "github.com/prometheus/client_golang/prometheus"

// Label values for workerRequests.
const (
	strategyNavigate    = "navigate"
	strategyAsset       = "asset"
	strategyPassthrough = "passthrough"

	sourceNetwork  = "network"
	sourceCache    = "cache"
	sourceFallback = "fallback"
	sourceOffline  = "offline"
	sourceNone     = "none"
)

// workerRequests counts intercepted requests by strategy and by where the
// response came from.
var workerRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bpguard_worker_requests_total",
		Help: "Requests seen by the interception layer, by strategy and response source.",
	},
	[]string{"strategy", "source"},
)

func init() {
	prometheus.MustRegister(workerRequests)
}

func observe(strategy, source string) {
	workerRequests.WithLabelValues(strategy, source).Inc()
}

func sourceOf(err error) string {
	if err != nil {
		return sourceNone
	}
	return sourceNetwork
}
