package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// fakeClock drives Timer callbacks deterministically from test code.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	when    time.Duration
	fn      func()
	fired   bool
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{}
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, when: c.now + d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward, firing due timers in order. Callbacks
// run without the clock lock held so they may schedule new timers, which
// also fire if they fall within the window.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d

	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.when > target {
				continue
			}
			if next == nil || t.when < next.when {
				next = t
			}
		}
		if next == nil {
			break
		}

		c.now = next.when
		next.fired = true
		fn := next.fn
		c.mu.Unlock()
		fn()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// fakeDialer records every Dial and hands out fakeTransports the test
// drives by firing callbacks explicitly.
type fakeDialer struct {
	mu         sync.Mutex
	transports []*fakeTransport
}

func (d *fakeDialer) Dial(url string, cb Callbacks) Transport {
	t := &fakeTransport{url: url, cb: cb}
	d.mu.Lock()
	d.transports = append(d.transports, t)
	d.mu.Unlock()
	return t
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transports)
}

func (d *fakeDialer) last(t *testing.T) *fakeTransport {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.transports) == 0 {
		t.Fatal("no transport dialed")
	}
	return d.transports[len(d.transports)-1]
}

// fakeTransport records sent frames; tests fire transport events through
// the helper methods below.
type fakeTransport struct {
	url string
	cb  Callbacks

	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func (f *fakeTransport) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrNotConnected
	}
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// open simulates a completed handshake.
func (f *fakeTransport) open() {
	f.cb.OnOpen()
}

// message simulates one inbound text frame.
func (f *fakeTransport) message(raw string) {
	f.cb.OnMessage([]byte(raw))
}

// fail simulates a transport failure (error then close).
func (f *fakeTransport) fail(err error) {
	f.cb.OnError(err)
	f.cb.OnClose()
}

// errorOnly simulates a transport error that is not followed by a close,
// such as a failed write on a connection that stays up.
func (f *fakeTransport) errorOnly(err error) {
	f.cb.OnError(err)
}

// dropped simulates the server closing the connection.
func (f *fakeTransport) dropped() {
	f.cb.OnClose()
}

// frames decodes every sent frame, optionally filtered by type.
func (f *fakeTransport) frames(t *testing.T, frameType string) []ControlFrame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []ControlFrame
	for _, data := range f.sent {
		var frame ControlFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("sent frame is not valid JSON: %q", data)
		}
		if frameType == "" || frame.Type == frameType {
			out = append(out, frame)
		}
	}
	return out
}

// captureClock hands out timers that are already past the point of
// cancellation: Stop always reports false, and the callback is held for
// the test to run by hand. This models the window where time.AfterFunc
// has fired the callback goroutine but it has not yet acquired the
// client mutex.
type captureClock struct {
	mu  sync.Mutex
	fns []func()
}

type firedTimer struct{}

func (firedTimer) Stop() bool { return false }

func (c *captureClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	c.fns = append(c.fns, fn)
	c.mu.Unlock()
	return firedTimer{}
}

// lastFn returns the most recently scheduled callback.
func (c *captureClock) lastFn(t *testing.T) func() {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.fns) == 0 {
		t.Fatal("no timer scheduled")
	}
	return c.fns[len(c.fns)-1]
}

// newTestClient builds a client wired to a fake dialer and clock.
func newTestClient(cfg Config) (Client, *fakeDialer, *fakeClock) {
	dialer := &fakeDialer{}
	clock := newFakeClock()

	if cfg.URL == "" {
		cfg.URL = "wss://realtime.test/ws"
	}
	cfg.Dialer = dialer
	cfg.Clock = clock

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(cfg, logger), dialer, clock
}
