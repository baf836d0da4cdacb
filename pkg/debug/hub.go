package debug

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/go-drift/viewkit/pkg/errors"
)

const (
	clientBuffer = 256
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans JSON messages out to websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*client
	logger  *slog.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// NewHub creates a hub.
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// HandleWebSocket upgrades the request and streams broadcasts to it until
// the client goes away or the hub shuts down.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.ctx.Err() != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("remote", r.RemoteAddr), slog.Any("error", err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[conn] = c
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", slog.Int("clients", total))

	// Clients only listen; CloseRead handles control frames and reports
	// the close through ctx.
	ctx := conn.CloseRead(h.ctx)
	defer h.unregister(conn)
	defer errors.RecoverWith("debug.events", func(any) {
		conn.Close(websocket.StatusInternalError, "internal error")
	})
	h.writeLoop(ctx, c)
}

func (h *Hub) writeLoop(ctx context.Context, c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				h.logger.Debug("websocket write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	total := len(h.clients)
	h.mu.Unlock()
	if ok {
		conn.Close(websocket.StatusNormalClosure, "")
		h.logger.Debug("websocket client disconnected", slog.Int("clients", total))
	}
}

// Broadcast sends v as JSON to every client. Clients whose buffer is full
// miss the message.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Warn("broadcast marshal failed", slog.Any("error", err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("websocket client too slow, dropping message")
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every client.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.cancel()
		h.mu.Lock()
		conns := make([]*websocket.Conn, 0, len(h.clients))
		for conn := range h.clients {
			conns = append(conns, conn)
		}
		h.mu.Unlock()
		for _, conn := range conns {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
	})
}
