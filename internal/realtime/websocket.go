package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// websocketDialer opens gorilla/websocket connections.
type websocketDialer struct {
	handshakeTimeout time.Duration
	writeTimeout     time.Duration
}

// NewWebSocketDialer returns the production Dialer.
func NewWebSocketDialer() Dialer {
	return &websocketDialer{
		handshakeTimeout: 10 * time.Second,
		writeTimeout:     5 * time.Second,
	}
}

// Dial starts the handshake in the background and returns immediately.
// Handshake failures surface as OnError followed by OnClose, the same as
// a connection that drops later.
func (d *websocketDialer) Dial(url string, cb Callbacks) Transport {
	t := &websocketTransport{
		cb:           cb,
		writeTimeout: d.writeTimeout,
	}
	go t.run(url, d.handshakeTimeout)
	return t
}

// websocketTransport implements Transport over a single gorilla connection.
type websocketTransport struct {
	cb           Callbacks
	writeTimeout time.Duration

	// Write serialization
	writeMu sync.Mutex

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// run dials, then reads until the connection ends.
func (t *websocketTransport) run(url string, handshakeTimeout time.Duration) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		if !t.isClosed() {
			t.cb.OnError(err)
			t.cb.OnClose()
		}
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		return
	}
	t.conn = conn
	t.mu.Unlock()

	t.cb.OnOpen()
	t.readLoop(conn)
}

// readLoop delivers inbound frames until the connection ends.
func (t *websocketTransport) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			if t.isClosed() {
				// Explicit Close already ran; swallow the read error.
				return
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.cb.OnError(err)
			}
			t.cb.OnClose()
			return
		}
		if t.isClosed() {
			return
		}
		t.cb.OnMessage(data)
	}
}

// Send writes one text frame.
func (t *websocketTransport) Send(data []byte) error {
	t.mu.Lock()
	conn := t.conn
	closed := t.closed
	t.mu.Unlock()

	if closed || conn == nil {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close tears down the connection and suppresses further callbacks.
func (t *websocketTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}

	return nil
}

func (t *websocketTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
