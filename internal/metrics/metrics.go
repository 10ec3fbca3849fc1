package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the device channel and the device simulator

var (
	// Channel (client side) metrics
	ChannelConnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_channel_connects_total",
		Help: "Channel connection attempts by result",
	}, []string{"result"}) // result: ok|error

	ChannelMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_channel_messages_total",
		Help: "Inbound channel messages by result",
	}, []string{"result"}) // result: applied|ignored

	ChannelCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_channel_commands_total",
		Help: "Outbound commands by kind and result",
	}, []string{"kind", "result"}) // kind: led|blink, result: ok|not_connected|error

	// Simulator metrics
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "device_sim_connected_clients",
		Help: "WebSocket clients currently connected to this simulator instance",
	})

	TelemetryBroadcasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_sim_telemetry_broadcasts_total",
		Help: "Telemetry broadcasts by result",
	}, []string{"result"}) // result: ok|error

	CommandsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_sim_commands_received_total",
		Help: "Commands received from clients by result",
	}, []string{"result"}) // result: applied|invalid|rate_limited|error

	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method, path, and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, path, and status",
	}, []string{"method", "path", "status"})
)
