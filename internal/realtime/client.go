package realtime

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client is the realtime event client. One instance multiplexes many
// logical channels over a single socket connection. Subscriptions and
// listeners survive Disconnect/Connect cycles; they belong to the client,
// not to any one connection.
type Client interface {
	// Connect opens the transport. No-op while connecting or open.
	Connect()

	// Disconnect closes the transport and suppresses reconnection until
	// the next Connect. Effective synchronously.
	Disconnect()

	// SetAccessToken stores the credential embedded in the connection
	// URL. Changing it while open forces a reconnect so the server sees
	// the new token. Empty string clears the token.
	SetAccessToken(token string)

	// State returns the current connection state.
	State() State

	// IsConnected reports whether the connection is open.
	IsConnected() bool

	// Subscribe registers h for events on channel. The first subscriber
	// of a channel triggers a subscribe frame; later subscribers piggyback
	// on it. The returned func removes exactly this registration and
	// sends an unsubscribe frame when the last one goes away.
	Subscribe(channel string, h EventHandler) UnsubscribeFunc

	// OnEvent registers h for every valid inbound event on any channel.
	OnEvent(h EventHandler) UnsubscribeFunc

	// OnConnect registers fn to run after each transition to open.
	OnConnect(fn func()) UnsubscribeFunc

	// OnDisconnect registers fn to run after each transition to closed.
	OnDisconnect(fn func()) UnsubscribeFunc
}

// channelEntry holds the subscribers of one channel. The entry exists
// only while it has at least one listener.
type channelEntry struct {
	listeners listenerList[EventHandler]
}

// client implements the Client interface.
type client struct {
	cfg    Config
	dialer Dialer
	clock  Clock
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	transport Transport
	token     string

	// gen identifies the current connection. Callbacks from a superseded
	// transport carry a stale gen and are discarded.
	gen uint64

	manualClose bool
	attempts    int // consecutive reconnect attempts since last successful open

	heartbeatTimer Timer
	reconnectTimer Timer

	channels    map[string]*channelEntry
	globals     listenerList[EventHandler]
	connects    listenerList[func()]
	disconnects listenerList[func()]
}

// NewClient creates a realtime client. Zero config fields fall back to
// DefaultConfig values.
func NewClient(cfg Config, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.ReconnectBaseDelay == 0 {
		cfg.ReconnectBaseDelay = def.ReconnectBaseDelay
	}
	if cfg.ReconnectMultiplier == 0 {
		cfg.ReconnectMultiplier = def.ReconnectMultiplier
	}
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = def.MaxReconnectAttempts
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = NewWebSocketDialer()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}

	return &client{
		cfg:      cfg,
		dialer:   dialer,
		clock:    clock,
		logger:   logger,
		state:    StateClosed,
		channels: make(map[string]*channelEntry),
	}
}

// Connect opens the transport. Explicit calls re-arm reconnection after
// the attempt budget was exhausted.
func (c *client) Connect() {
	c.connect(true)
}

func (c *client) connect(explicit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateClosed {
		return
	}

	if explicit {
		c.attempts = 0
		c.manualClose = false
		if c.reconnectTimer != nil {
			c.reconnectTimer.Stop()
			c.reconnectTimer = nil
		}
	} else if c.manualClose {
		// A reconnect timer that fired before Disconnect could cancel it
		// lands here; the manual close wins.
		return
	}

	c.state = StateConnecting
	c.gen++
	gen := c.gen

	connURL := c.buildURLLocked()
	c.logger.Debug("connecting", "url", c.cfg.URL)

	// The Dialer contract guarantees no callbacks before Dial returns,
	// so holding the mutex across Dial is safe and ensures c.transport
	// is set before any handler can observe the connection.
	c.transport = c.dialer.Dial(connURL, Callbacks{
		OnOpen:    func() { c.handleOpen(gen) },
		OnMessage: func(data []byte) { c.handleMessage(gen, data) },
		OnError:   func(err error) { c.handleError(gen, err) },
		OnClose:   func() { c.handleClose(gen) },
	})
}

// Disconnect closes the transport and cancels the heartbeat and any
// pending reconnect. Disconnect listeners run before it returns.
func (c *client) Disconnect() {
	c.mu.Lock()

	c.manualClose = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.stopHeartbeatLocked()

	t := c.transport
	c.transport = nil

	wasLive := c.state != StateClosed
	c.state = StateClosed
	if wasLive {
		// Orphan the old connection so its close callback is ignored.
		c.gen++
	}

	var fns []func()
	if wasLive {
		fns = c.disconnects.snapshot()
	}
	c.mu.Unlock()

	if t != nil {
		t.Close()
	}
	for _, fn := range fns {
		fn()
	}
}

// SetAccessToken stores the token. While open, forces a reconnect so the
// new credential reaches the server.
func (c *client) SetAccessToken(token string) {
	c.mu.Lock()
	c.token = token
	reconnect := c.state == StateOpen
	c.mu.Unlock()

	if reconnect {
		c.logger.Info("access token changed, reconnecting")
		c.Disconnect()
		c.Connect()
	}
}

// State returns the current connection state.
func (c *client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the connection is open.
func (c *client) IsConnected() bool {
	return c.State() == StateOpen
}

// Subscribe registers a channel listener.
func (c *client) Subscribe(channel string, h EventHandler) UnsubscribeFunc {
	c.mu.Lock()
	entry := c.channels[channel]
	if entry == nil {
		entry = &channelEntry{}
		c.channels[channel] = entry
	}
	first := entry.listeners.size() == 0
	id := entry.listeners.add(h)

	if first && c.state == StateOpen {
		if err := c.sendControlLocked(ControlFrame{Type: FrameSubscribe, Channel: channel}); err != nil {
			c.logger.Warn("subscribe frame failed", "channel", channel, "error", err)
		}
	}
	c.mu.Unlock()

	return func() { c.removeChannelListener(channel, id) }
}

// removeChannelListener drops one registration and issues an unsubscribe
// frame when the channel's last listener goes away.
func (c *client) removeChannelListener(channel string, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.channels[channel]
	if entry == nil {
		return
	}
	if !entry.listeners.remove(id) {
		return
	}
	if entry.listeners.size() > 0 {
		return
	}

	delete(c.channels, channel)
	if c.state == StateOpen {
		if err := c.sendControlLocked(ControlFrame{Type: FrameUnsubscribe, Channel: channel}); err != nil {
			c.logger.Warn("unsubscribe frame failed", "channel", channel, "error", err)
		}
	}
}

// OnEvent registers a global event listener.
func (c *client) OnEvent(h EventHandler) UnsubscribeFunc {
	c.mu.Lock()
	id := c.globals.add(h)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		c.globals.remove(id)
		c.mu.Unlock()
	}
}

// OnConnect registers a connect listener.
func (c *client) OnConnect(fn func()) UnsubscribeFunc {
	c.mu.Lock()
	id := c.connects.add(fn)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		c.connects.remove(id)
		c.mu.Unlock()
	}
}

// OnDisconnect registers a disconnect listener.
func (c *client) OnDisconnect(fn func()) UnsubscribeFunc {
	c.mu.Lock()
	id := c.disconnects.add(fn)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		c.disconnects.remove(id)
		c.mu.Unlock()
	}
}

// handleOpen runs on transport open: resets the attempt counter,
// re-issues every live subscription, starts the heartbeat, then fires
// connect listeners.
func (c *client) handleOpen(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	c.state = StateOpen
	c.attempts = 0

	for _, channel := range c.channelNamesLocked() {
		if err := c.sendControlLocked(ControlFrame{Type: FrameSubscribe, Channel: channel}); err != nil {
			c.logger.Warn("subscribe frame failed", "channel", channel, "error", err)
		}
	}

	c.scheduleHeartbeatLocked(gen)
	c.logger.Info("connected", "channels", len(c.channels))

	fns := c.connects.snapshot()
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// handleError runs on transport errors. Recovery happens via the close
// path; this only records the failure.
func (c *client) handleError(gen uint64, err error) {
	c.mu.Lock()
	stale := gen != c.gen
	c.mu.Unlock()

	if stale {
		return
	}
	c.logger.Warn("transport error", "error", err)
}

// handleClose runs on transport close: stops the heartbeat, schedules a
// reconnect unless the close was manual, then fires disconnect listeners.
func (c *client) handleClose(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	c.state = StateClosed
	c.transport = nil
	c.stopHeartbeatLocked()

	if !c.manualClose {
		c.scheduleReconnectLocked()
	}

	fns := c.disconnects.snapshot()
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// scheduleReconnectLocked arms the backoff timer for the next attempt, or
// gives up once the attempt budget is spent.
func (c *client) scheduleReconnectLocked() {
	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.logger.Warn("reconnect attempts exhausted", "attempts", c.attempts)
		return
	}

	delay := time.Duration(float64(c.cfg.ReconnectBaseDelay) * math.Pow(c.cfg.ReconnectMultiplier, float64(c.attempts)))
	c.attempts++

	c.logger.Info("scheduling reconnect", "attempt", c.attempts, "delay", delay)
	c.reconnectTimer = c.clock.AfterFunc(delay, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		c.mu.Unlock()
		c.connect(false)
	})
}

// scheduleHeartbeatLocked arms the next ping. The timer re-arms itself
// while the connection stays open.
func (c *client) scheduleHeartbeatLocked(gen uint64) {
	c.heartbeatTimer = c.clock.AfterFunc(c.cfg.HeartbeatInterval, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if gen != c.gen || c.state != StateOpen {
			return
		}
		if err := c.sendControlLocked(ControlFrame{Type: FramePing}); err != nil {
			c.logger.Warn("heartbeat failed", "error", err)
		}
		c.scheduleHeartbeatLocked(gen)
	})
}

func (c *client) stopHeartbeatLocked() {
	if c.heartbeatTimer != nil {
		c.heartbeatTimer.Stop()
		c.heartbeatTimer = nil
	}
}

// sendControlLocked marshals and sends one control frame. Returns
// ErrNotConnected while the connection is not open.
func (c *client) sendControlLocked(f ControlFrame) error {
	if c.state != StateOpen || c.transport == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return c.transport.Send(data)
}

// channelNamesLocked returns the subscribed channel names in a stable
// order for re-subscription.
func (c *client) channelNamesLocked() []string {
	names := make([]string, 0, len(c.channels))
	for name := range c.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildURLLocked appends the token query parameter when a token is set.
func (c *client) buildURLLocked() string {
	if c.token == "" {
		return c.cfg.URL
	}

	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		c.logger.Warn("invalid endpoint URL", "url", c.cfg.URL, "error", err)
		return c.cfg.URL
	}

	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()
	return u.String()
}
