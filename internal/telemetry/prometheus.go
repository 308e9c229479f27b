package telemetry

import "github.com/prometheus/client_golang/prometheus"

const teamchatNamespace string = "teamchat"

var (
	promCallsInProgress prometheus.Gauge
	SignalingOpCounter  *prometheus.CounterVec
)

func init() {
	promCallsInProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: teamchatNamespace,
		Subsystem: "call",
		Name:      "in_progress",
	})

	SignalingOpCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: teamchatNamespace,
			Subsystem: "signaling",
			Name:      "operation",
		},
		[]string{"type", "status", "error_type"},
	)

	prometheus.MustRegister(promCallsInProgress)
	prometheus.MustRegister(SignalingOpCounter)
}

func CallStarted() {
	promCallsInProgress.Inc()
}

func CallEnded() {
	promCallsInProgress.Dec()
}
