package syncer

import "github.com/prometheus/client_golang/prometheus"

var (
	// syncPasses counts trigger attempts by result: "completed" or the skip
	// reason.
	syncPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpguard_sync_passes_total",
			Help: "Sync triggers by result (completed or skip reason).",
		},
		[]string{"result"},
	)

	// syncItems counts replayed queue items by outcome.
	syncItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bpguard_sync_items_total",
			Help: "Replayed queue items by outcome.",
		},
		[]string{"outcome"},
	)

	// syncDuration observes the wall time of completed passes.
	syncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bpguard_sync_duration_seconds",
			Help:    "Duration of completed sync passes in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// queueDepth gauges the pending and dead-lettered item counts.
	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bpguard_queue_depth",
			Help: "Number of items in the offline queue, by list.",
		},
		[]string{"list"},
	)
)

func init() {
	prometheus.MustRegister(syncPasses, syncItems, syncDuration, queueDepth)
}
