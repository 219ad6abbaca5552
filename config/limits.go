package config

import "time"

// WebSocket connection limits
const (
	// Timeouts
	WriteTimeout = 10 * time.Second
	PongTimeout  = 60 * time.Second
	PingInterval = 25 * time.Second // must be shorter than PongTimeout

	MaxMessageSize = 1 << 16 // 64KB

	// Channel buffers
	ClientSendBufferSize = 256
)
