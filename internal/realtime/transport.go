package realtime

import "time"

// Callbacks receive transport lifecycle events. A transport delivers its
// events from a single goroutine, so callbacks are never invoked
// concurrently with each other.
type Callbacks struct {
	// OnOpen fires once when the connection is established.
	OnOpen func()

	// OnMessage fires for every inbound text frame.
	OnMessage func(data []byte)

	// OnError fires on transport failures. It is informational; the
	// terminal event is always OnClose.
	OnError func(err error)

	// OnClose fires once when the connection ends for any reason other
	// than an explicit Close call.
	OnClose func()
}

// Transport is one live socket connection.
type Transport interface {
	// Send writes one text frame.
	Send(data []byte) error

	// Close tears down the connection. No callbacks are delivered after
	// Close returns.
	Close() error
}

// Dialer opens transport connections. Dial must return the Transport
// before delivering any callbacks.
type Dialer interface {
	Dial(url string, cb Callbacks) Transport
}

// Timer is a cancelable pending callback.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed callbacks. It exists so tests can drive the
// heartbeat and reconnect timers deterministically.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SystemClock returns a Clock backed by the runtime timers.
func SystemClock() Clock {
	return systemClock{}
}
