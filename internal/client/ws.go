package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// WSClient is the push-channel handle to the provisioning backend. It dials
// once per Connect call and surfaces a disconnect as a message; it never
// reconnects on its own. Raw event payloads are fanned out to handlers
// registered via Subscribe, so the client satisfies provision.Channel.
type WSClient struct {
	url string

	mu       sync.Mutex
	writeMu  sync.Mutex // serialises conn writes (pings)
	conn     *websocket.Conn
	pingCtx  context.CancelFunc
	handlers map[int]func([]byte)
	nextID   int
}

// NewWSClient creates a client for the given WebSocket URL.
func NewWSClient(url string) *WSClient {
	return &WSClient{
		url:      url,
		handlers: make(map[int]func([]byte)),
	}
}

// --- Bubble Tea messages ---

// ConnectedMsg is sent when the WebSocket connects.
type ConnectedMsg struct{}

// DisconnectedMsg is sent when the connection drops or a dial fails.
type DisconnectedMsg struct{ Err error }

// EventMsg signals that one event payload arrived and has been dispatched
// to subscribers. Raw is kept for diagnostics.
type EventMsg struct{ Raw json.RawMessage }

// Subscribe registers a handler for every raw event payload read from the
// connection. The returned cancel func is idempotent.
func (c *WSClient) Subscribe(handler func(payload []byte)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = handler
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.handlers, id)
			c.mu.Unlock()
		})
	}
}

// Connect returns a Bubble Tea command that dials the backend once.
func (c *WSClient) Connect(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
		conn, _, err := dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			return DisconnectedMsg{Err: fmt.Errorf("dial %s: %w", c.url, err)}
		}

		// Cancel any previous ping goroutine.
		c.mu.Lock()
		if c.pingCtx != nil {
			c.pingCtx()
		}
		pingCtx, pingCancel := context.WithCancel(ctx)
		c.conn = conn
		c.pingCtx = pingCancel
		c.mu.Unlock()

		go c.pingLoop(pingCtx, conn)

		return ConnectedMsg{}
	}
}

// ReadLoop returns a Bubble Tea command that reads the next event payload,
// dispatches it to subscribers, and reports it. It should be re-issued
// after every EventMsg and started after ConnectedMsg.
func (c *WSClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return DisconnectedMsg{Err: fmt.Errorf("not connected")}
		}

		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close()
			return DisconnectedMsg{Err: err}
		}

		c.dispatch(data)
		return EventMsg{Raw: data}
	}
}

// dispatch fans one payload out to all subscribers. Handlers are invoked
// without the client lock held so they may call back into Subscribe.
func (c *WSClient) dispatch(data []byte) {
	c.mu.Lock()
	handlers := make([]func([]byte), 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
}

// pingLoop keeps the connection alive while it is current.
func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close tears the connection down.
func (c *WSClient) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	if c.pingCtx != nil {
		c.pingCtx()
		c.pingCtx = nil
	}
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
