package domain

import "time"

// Outcome is the per-frame delivery report produced by the gateway
// pipeline. TimeMS measures enqueue to resolution, so it includes
// queue wait, rate limiting and every retry.
type Outcome struct {
	OK      bool   `json:"ok"`
	Retries int    `json:"retries"`
	TimeMS  int64  `json:"t_ms"`
	Error   string `json:"error,omitempty"`
}

// DeviceHealth aggregates delivery counters for one field device.
type DeviceHealth struct {
	TotalCommands      int        `json:"total_commands"`
	SuccessfulCommands int        `json:"successful_commands"`
	SuccessRate        float64    `json:"success_rate"`
	LastAckTime        *time.Time `json:"last_ack_time"`
	LastCommand        string     `json:"last_command"`
}

// HealthSnapshot is the gateway view returned by the health endpoint.
type HealthSnapshot struct {
	GatewayConnected bool                    `json:"gateway_connected"`
	ConnectionStatus string                  `json:"connection_status"`
	QueueDepth       int                     `json:"queue_depth"`
	LastHeartbeat    *time.Time              `json:"last_heartbeat"`
	DeviceStatus     map[string]DeviceHealth `json:"device_status"`
}
