package realtime

import (
	"encoding/json"
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected = errors.New("not connected")
)

// State is the connection state of the client.
type State string

const (
	StateClosed     State = "closed"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
)

// Event is an inbound frame from the server.
type Event struct {
	Channel string          `json:"channel"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
}

// EventHandler receives inbound events.
type EventHandler func(Event)

// UnsubscribeFunc removes the registration that returned it. Calling it
// more than once has no additional effect.
type UnsubscribeFunc func()

// ControlFrame is an outgoing control frame sent to the server.
type ControlFrame struct {
	Type    string `json:"type"` // "subscribe", "unsubscribe", "ping"
	Channel string `json:"channel,omitempty"`
}

// Control frame types.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FramePing        = "ping"
)

// Config configures the realtime client.
type Config struct {
	URL                  string        // WebSocket endpoint (e.g., wss://realtime.spooled.cloud/ws)
	HeartbeatInterval    time.Duration // Interval between ping frames while open
	ReconnectBaseDelay   time.Duration // Delay before the first reconnect attempt
	ReconnectMultiplier  float64       // Growth factor between consecutive attempts
	MaxReconnectAttempts int           // Consecutive failures before giving up

	// Dialer opens transport connections. Nil uses the WebSocket dialer.
	Dialer Dialer

	// Clock schedules heartbeat and reconnect timers. Nil uses system timers.
	Clock Clock
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:                  "wss://realtime.spooled.cloud/ws",
		HeartbeatInterval:    30 * time.Second,
		ReconnectBaseDelay:   3 * time.Second,
		ReconnectMultiplier:  1.5,
		MaxReconnectAttempts: 10,
	}
}
