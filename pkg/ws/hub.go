// Package ws pushes server-side events to browser clients over
// websockets. Clients associate with a UI session after connecting;
// messages for a session without a connected client are queued and
// flushed on association.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/avollmer/agentcore-showcase/pkg/observability"
)

// maxQueuedPerSession caps the per-session backlog. When the cap is
// reached the oldest messages are dropped first.
const maxQueuedPerSession = 1000

// Conn is the write side of one websocket connection.
type Conn interface {
	Write(ctx context.Context, data []byte) error
	Close() error
}

// client is one connected websocket, optionally bound to a UI session.
type client struct {
	conn      Conn
	sessionID string
}

// Hub tracks connected clients and routes messages to them.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	queues  map[string][][]byte
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: map[*client]struct{}{},
		queues:  map[string][][]byte{},
	}
}

// register adds a connection without a session binding.
func (h *Hub) register(conn Conn) *client {
	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	observability.WebSocketConnections.Set(float64(n))
	return c
}

// associate binds a client to a UI session and flushes any backlog
// queued for it.
func (h *Hub) associate(ctx context.Context, c *client, sessionID string) {
	h.mu.Lock()
	c.sessionID = sessionID
	backlog := h.queues[sessionID]
	delete(h.queues, sessionID)
	h.mu.Unlock()

	h.updateQueueGauge()
	for _, msg := range backlog {
		if err := c.conn.Write(ctx, msg); err != nil {
			h.logger.Warn("flushing websocket backlog", slog.String("error", err.Error()))
			return
		}
	}
}

// unregister removes a connection.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	observability.WebSocketConnections.Set(float64(n))
	_ = c.conn.Close()
}

// SendToSession delivers a message to every client bound to the
// session, queueing it when none is connected.
func (h *Hub) SendToSession(sessionID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshaling websocket message", slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	var targets []*client
	for c := range h.clients {
		if c.sessionID == sessionID {
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		queue := append(h.queues[sessionID], data)
		if len(queue) > maxQueuedPerSession {
			queue = queue[len(queue)-maxQueuedPerSession:]
		}
		h.queues[sessionID] = queue
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		h.updateQueueGauge()
		return
	}
	for _, c := range targets {
		if err := c.conn.Write(context.Background(), data); err != nil {
			h.logger.Warn("writing websocket message",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Broadcast delivers a message to every connected client. Nothing is
// queued.
func (h *Hub) Broadcast(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshaling websocket message", slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := c.conn.Write(context.Background(), data); err != nil {
			h.logger.Warn("broadcasting websocket message", slog.String("error", err.Error()))
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// QueuedCount returns the total number of queued messages across all
// sessions.
func (h *Hub) QueuedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := 0
	for _, q := range h.queues {
		total += len(q)
	}
	return total
}

func (h *Hub) updateQueueGauge() {
	observability.WebSocketQueuedMessages.Set(float64(h.QueuedCount()))
}
