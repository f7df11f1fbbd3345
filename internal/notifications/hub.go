package notifications

import (
	"context"
	"errors"
	"sync"

	"orma/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max live connections per event
	maxConnsPerEvent = 500
	// Max total connections
	maxTotalConns = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrEventFull  = errors.New("event connection limit reached")
)

// Hub maps event hash -> connected live feed clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*Client]struct{})}
}

// Register attaches conn to eventHash. It fails when connection limits are hit.
func (h *Hub) Register(eventHash string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}

	m, ok := h.conns[eventHash]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[eventHash] = m
	}
	if len(m) >= maxConnsPerEvent {
		return nil, ErrEventFull
	}

	client := newClient(h, conn, eventHash)
	m[client] = struct{}{}
	h.totalConns++
	observability.LiveConnections.Inc()
	return client, nil
}

// UnregisterClient detaches client and closes its send buffer. Safe to call twice.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.EventHash]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	close(client.Send)
	h.totalConns--
	observability.LiveConnections.Dec()
	if len(m) == 0 {
		delete(h.conns, client.EventHash)
	}
}

// Broadcast sends message to every client watching eventHash.
func (h *Hub) Broadcast(eventHash string, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.conns[eventHash] {
		c.TrySend(data)
	}
}

// Count returns the number of clients watching eventHash.
func (h *Hub) Count(eventHash string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[eventHash])
}

// StartWiring forwards every event channel message from n to the matching clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartEventSubscriber(ctx, h.Broadcast)
}

// Shutdown closes every client's Send channel and forgets them. Each
// WritePump then writes a going-away close frame and closes its connection,
// so the hub never writes to a connection itself.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.conns {
		for client := range clients {
			client.closeCode = websocket.CloseGoingAway
			client.closeText = "Server shutting down"
			close(client.Send)
			observability.LiveConnections.Dec()
		}
	}
	h.conns = make(map[string]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
