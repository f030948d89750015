package dispatch

import "github.com/prometheus/client_golang/prometheus"

// Outcome label values.
const (
	outcomeOK              = "ok"
	outcomeServerError     = "server_error"
	outcomeCached          = "cached"
	outcomeQueued          = "queued"
	outcomeNoData          = "no_data"
	outcomeOffline         = "offline"
	outcomeUnauthenticated = "unauthenticated"
	outcomeCanceled        = "canceled"
	outcomeError           = "error"
)

// dispatchTotal counts Dispatch calls by method and outcome.
var dispatchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bpguard_dispatch_total",
		Help: "Requests dispatched to the backend, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

func init() {
	prometheus.MustRegister(dispatchTotal)
}
