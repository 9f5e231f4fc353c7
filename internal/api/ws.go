package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/fundpilot/internal/contracts"
	"github.com/wonny/fundpilot/pkg/logger"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// client serializes writes: gorilla conns allow one writer at a time,
// and both the ping loop and the broadcast path write
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Hub pushes each completed batch to every connected websocket client.
// Implements contracts.Reporter, so it plugs into the run pipeline next
// to the report store.
// ⭐ SSOT: 의사결정 스트림 브로드캐스트는 여기서만
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Decisions are read-only data; any origin may subscribe
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  log.Component("ws"),
		clients: make(map[*client]struct{}),
	}
}

// Handle upgrades the request and keeps the connection registered
// until the client goes away. Clients only listen; inbound frames are
// drained for control handling and dropped.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{conn: conn}
	h.register(c)
	h.logger.WithField("remote", conn.RemoteAddr().String()).Debug("Websocket client connected")

	done := make(chan struct{})
	go h.pingLoop(c, done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(done)
	h.unregister(c)
	h.logger.WithField("remote", conn.RemoteAddr().String()).Debug("Websocket client disconnected")
}

// Report broadcasts the batch to all clients. A slow or dead client is
// dropped, never waited on.
func (h *Hub) Report(_ context.Context, batch *contracts.BatchResult) error {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.writeJSON(batch); err != nil {
			h.logger.WithError(err).Debug("Dropping websocket client")
			h.unregister(c)
		}
	}

	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if present {
		_ = c.conn.Close()
	}
}

// pingLoop keeps the connection alive until the read side drops it
func (h *Hub) pingLoop(c *client, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
