package live

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-go/pageload/pkg/middleware"
)

// ErrHubClosed is returned by Invalidate after Close.
var ErrHubClosed = errors.New("live: hub closed")

// HubConfig configures a Hub.
type HubConfig struct {
	// WriteTimeout bounds each write to a listener.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PingInterval is the time between heartbeat pings.
	// Default: 30 seconds.
	PingInterval time.Duration

	// SendBuffer is the number of messages queued per listener. A listener
	// whose queue is full is disconnected.
	// Default: 16.
	SendBuffer int

	// CheckOrigin validates the upgrade request's origin. Nil applies
	// the same-origin check of websocket.Upgrader.
	CheckOrigin func(r *http.Request) bool

	// Logger receives connection logs. Default: slog.Default().
	Logger *slog.Logger
}

func (c *HubConfig) withDefaults() HubConfig {
	var out HubConfig
	if c != nil {
		out = *c
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = 10 * time.Second
	}
	if out.PingInterval == 0 {
		out.PingInterval = 30 * time.Second
	}
	if out.SendBuffer == 0 {
		out.SendBuffer = 16
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return out
}

// Hub broadcasts invalidations to connected listeners.
type Hub struct {
	config   HubConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
	wg      sync.WaitGroup
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// NewHub creates a Hub. A nil config uses the defaults.
func NewHub(config *HubConfig) *Hub {
	cfg := config.withDefaults()
	return &Hub{
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
		logger:  cfg.Logger.With("component", "live"),
		clients: make(map[string]*client),
	}
}

// ServeHTTP upgrades the request and serves the listener until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "live updates unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c.id] = c
	h.wg.Add(1)
	h.mu.Unlock()

	middleware.RecordLiveConnect()
	h.logger.Debug("listener connected", "id", c.id)

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop discards incoming messages and detects disconnects.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)

	readTimeout := 2 * h.config.PingInterval
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				h.logger.Warn("read error", "id", c.id, "error", err)
			}
			return
		}
	}
}

// writeLoop sends queued messages and heartbeats until the client closes.
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		h.wg.Done()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Warn("write error", "id", c.id, "error", err)
				c.close()
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(h.config.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.close()
				return
			}

		case <-c.done:
			deadline := time.Now().Add(h.config.WriteTimeout)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	c.close()
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()
	if ok {
		middleware.RecordLiveDisconnect()
		h.logger.Debug("listener disconnected", "id", c.id)
	}
}

// Invalidate broadcasts keys to every listener and returns how many
// listeners it was queued for.
func (h *Hub) Invalidate(keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	msg, err := json.Marshal(Message{Type: TypeInvalidate, Keys: keys})
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0, ErrHubClosed
	}
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	middleware.RecordInvalidation()
	sent := 0
	for _, c := range clients {
		select {
		case <-c.done:
			continue
		default:
		}
		select {
		case c.send <- msg:
			sent++
		case <-c.done:
		default:
			h.logger.Warn("listener too slow, disconnecting", "id", c.id)
			c.close()
		}
	}
	return sent, nil
}

// Len returns the number of connected listeners.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// disconnectAll closes every listener connection but keeps the hub open.
func (h *Hub) disconnectAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}

// Close disconnects every listener and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	h.disconnectAll()
	h.wg.Wait()
}
