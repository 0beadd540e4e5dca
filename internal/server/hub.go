// Package server implements the simulated provisioning backend used by
// `pulse serve`: a websocket hub that pushes lifecycle events to every
// connected watcher, plus a small read-only REST surface.
package server

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newWSClient(conn *websocket.Conn) *wsClient {
	c := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *wsClient) close() {
	close(c.send)
}

// Hub fans event payloads out to all connected clients. It keeps the
// history of the current pipeline run so a watcher that connects mid-run
// sees the stages emitted so far.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]bool
	history [][]byte
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*wsClient]bool),
	}
}

// AddClient registers a connection and replays the current run's history
// to it.
func (h *Hub) AddClient(conn *websocket.Conn) *wsClient {
	c := newWSClient(conn)

	h.mu.Lock()
	h.clients[c] = true
	replay := make([][]byte, len(h.history))
	copy(replay, h.history)
	h.mu.Unlock()

	for _, msg := range replay {
		select {
		case c.send <- msg:
		default:
			// Client too slow for the replay, drop the rest.
			return c
		}
	}
	return c
}

func (h *Hub) RemoveClient(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// Broadcast appends the payload to the run history and sends it to every
// client. Clients that cannot keep up are disconnected.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	h.history = append(h.history, payload)
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		select {
		case c.send <- payload:
		default:
			log.Printf("ws client too slow, disconnecting")
			h.RemoveClient(c)
		}
	}
}

// ResetHistory clears the run history. Called when the simulated pipeline
// starts over.
func (h *Hub) ResetHistory() {
	h.mu.Lock()
	h.history = nil
	h.mu.Unlock()
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
