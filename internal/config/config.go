package config

import "time"

// TailConfig is the root configuration for the channel tail tool.
type TailConfig struct {
	Realtime RealtimeConfig `yaml:"realtime"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Channels to subscribe to on startup.
	Channels []string `yaml:"channels"`
}

// RealtimeConfig holds realtime client settings.
type RealtimeConfig struct {
	URL                  string        `yaml:"url"`
	AccessToken          string        `yaml:"access_token"` // Empty means unauthenticated
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMultiplier  float64       `yaml:"reconnect_multiplier"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}
