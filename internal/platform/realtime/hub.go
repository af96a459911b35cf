package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/worktrack/internal/platform/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// client is one websocket connection. Only its write pump writes to conn.
type client struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans events out to every connection of a user.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*client]struct{}
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[uuid.UUID]map[*client]struct{}),
		logger:  logger.With(slog.String("component", "realtime_hub")),
	}
}

// PushToUser queues payload, encoded as JSON, on each of the user's
// connections. A user with no open connection is not an error.
func (h *Hub) PushToUser(ctx context.Context, userID uuid.UUID, payload any) error {
	msg, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	log := logger.FromContextOrDefault(ctx, h.logger)

	var slow []*client
	h.mu.RLock()
	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- msg:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.WarnContext(ctx, "dropping slow websocket connection", slog.String("user_id", userID.String()))
		h.unregister(c)
	}

	log.DebugContext(ctx, "push delivered",
		slog.String("user_id", userID.String()),
		slog.Int("connections", delivered))
	return nil
}

// ConnectionCount returns the number of open connections for userID.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.clients {
		for c := range set {
			c.close()
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("websocket connected",
		slog.String("user_id", c.userID.String()),
		slog.Int("connections", len(set)))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.clients, c.userID)
			}
		}
	}
	h.mu.Unlock()
	c.close()
}

// writePump drains c.send onto the connection and keeps it alive with
// pings. It owns closing conn.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// readPump discards client frames and returns once the connection fails
// or misses its pong deadline.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
