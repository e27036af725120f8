package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesSent counts frames pushed onto the bridge connection
	FramesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "egs",
			Name:      "frames_sent_total",
			Help:      "Total number of frames written to the edge bridge",
		},
		[]string{"device"},
	)

	// AcksReceived counts frames acknowledged by the bridge
	AcksReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "egs",
			Name:      "acks_received_total",
			Help:      "Total number of frames acknowledged by the edge bridge",
		},
		[]string{"device"},
	)

	// AckTimeouts counts frames that missed the acknowledgement deadline
	AckTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "egs",
			Name:      "ack_timeouts_total",
			Help:      "Total number of frames that timed out waiting for an ACK",
		},
		[]string{"device"},
	)

	// FrameRetries counts retransmission attempts
	FrameRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "egs",
			Name:      "frame_retries_total",
			Help:      "Total number of frame retransmissions",
		},
	)

	// QueueDepth tracks the number of frames waiting in the gateway queue
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "egs",
			Name:      "gateway_queue_depth",
			Help:      "Number of frames currently queued for the edge bridge",
		},
	)

	// BridgeReconnects counts connection re-establishments
	BridgeReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "egs",
			Name:      "bridge_reconnects_total",
			Help:      "Total number of reconnections to the edge bridge",
		},
	)

	// AssertionCycles counts completed zone re-assertion passes
	AssertionCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "egs",
			Name:      "assertion_cycles_total",
			Help:      "Total number of zone re-assertion passes",
		},
		[]string{"result"},
	)

	// WeatherPolls counts datalogger poll attempts
	WeatherPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "egs",
			Name:      "weather_polls_total",
			Help:      "Total number of datalogger poll attempts",
		},
		[]string{"result"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		// Register metrics, ignoring errors if already registered
		// This prevents panics when metrics are already in the registry
		prometheus.DefaultRegisterer.Register(FramesSent)
		prometheus.DefaultRegisterer.Register(AcksReceived)
		prometheus.DefaultRegisterer.Register(AckTimeouts)
		prometheus.DefaultRegisterer.Register(FrameRetries)
		prometheus.DefaultRegisterer.Register(QueueDepth)
		prometheus.DefaultRegisterer.Register(BridgeReconnects)
		prometheus.DefaultRegisterer.Register(AssertionCycles)
		prometheus.DefaultRegisterer.Register(WeatherPolls)
	})
}
