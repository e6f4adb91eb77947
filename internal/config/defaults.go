package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultWSURL                = "wss://realtime.spooled.cloud/ws"
	DefaultHeartbeatInterval    = 30 * time.Second
	DefaultReconnectBaseDelay   = 3 * time.Second
	DefaultReconnectMultiplier  = 1.5
	DefaultMaxReconnectAttempts = 10
	DefaultLogLevel             = "info"
)

// DefaultChannels are the well-known dashboard channels tailed when no
// channel list is configured.
var DefaultChannels = []string{"dashboard", "jobs", "queues", "workers", "workflows"}

// ApplyDefaults fills unset fields with default values.
func (c *TailConfig) ApplyDefaults() {
	if c.Realtime.URL == "" {
		c.Realtime.URL = DefaultWSURL
	}
	if c.Realtime.HeartbeatInterval == 0 {
		c.Realtime.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Realtime.ReconnectBaseDelay == 0 {
		c.Realtime.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Realtime.ReconnectMultiplier == 0 {
		c.Realtime.ReconnectMultiplier = DefaultReconnectMultiplier
	}
	if c.Realtime.MaxReconnectAttempts == 0 {
		c.Realtime.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if len(c.Channels) == 0 {
		c.Channels = append([]string(nil), DefaultChannels...)
	}
}
