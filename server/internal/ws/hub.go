package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/simleague/standings/server/internal/api"
	"github.com/simleague/standings/server/internal/store"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// listTimeout bounds the store read behind every broadcast.
	listTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origins are not checked here; the server's CORS setting covers the
	// HTTP endpoints and the stream is read-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Lister reads the standings table. *store.Store implements it.
type Lister interface {
	List(ctx context.Context, limit int) ([]store.Standing, error)
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string               `json:"event"`
	Data  api.SnapshotResponse `json:"data"`
}

// Hub manages WebSocket client connections and pushes the standings table to
// all of them every interval and whenever Notify is called.
type Hub struct {
	store    Lister
	interval time.Duration
	changed  chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that reads from st and broadcasts every interval.
func New(st Lister, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		interval: interval,
		changed:  make(chan struct{}, 1),
		clients:  make(map[*client]struct{}),
	}
}

// Run starts the broadcast loop. Run blocks until ctx is cancelled, then
// closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast(ctx)
		case <-h.changed:
			h.broadcast(ctx)
		}
	}
}

// Notify asks the Run loop to broadcast as soon as possible. Calls made while
// a broadcast is already pending are coalesced. Notify never blocks.
func (h *Hub) Notify() {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// The current table is sent immediately on connect. Blocks until the
// connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	if !h.register(c) {
		// Hub is shutting down.
		conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
		conn.Close()
		return
	}
	defer h.unregister(c)

	if data, err := h.buildMessage(r.Context()); err == nil {
		h.enqueue(c, data)
	}

	go c.writePump()
	c.readPump()
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

// register adds c unless closeAll has already run.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// enqueue queues data for c if it is still registered. Sends happen under the
// read lock so unregister cannot close c.send concurrently.
func (h *Hub) enqueue(c *client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(ctx context.Context) {
	if h.Count() == 0 {
		return
	}
	data, err := h.buildMessage(ctx)
	if err != nil {
		slog.Warn("ws: build standings message", "err", err)
		return
	}

	// Sends are non-blocking and made under the read lock; a channel is only
	// closed under the write lock.
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	// Slow clients are dropped rather than allowed to block the loop.
	for _, c := range slow {
		h.unregister(c)
	}
}

func (h *Hub) buildMessage(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	rows, err := h.store.List(ctx, store.NoLimit)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{
		Event: "standings",
		Data:  api.BuildSnapshot(rows, time.Now()),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and sends periodic pings. Runs
// in its own goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles control frames and detects disconnects. Blocks until the
// connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
