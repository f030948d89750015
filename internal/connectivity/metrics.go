package connectivity

import "github.com/prometheus/client_golang/prometheus"

// onlineGauge is 1 while the backend is believed reachable.
var onlineGauge = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "bpguard_online",
	Help: "1 when the backend is reachable, 0 otherwise.",
})

func init() {
	prometheus.MustRegister(onlineGauge)
}

func setOnlineGauge(online bool) {
	if online {
		onlineGauge.Set(1)
		return
	}
	onlineGauge.Set(0)
}
