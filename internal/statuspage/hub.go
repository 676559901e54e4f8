package statuspage

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bissquit/statusboard/internal/domain"
	"github.com/bissquit/statusboard/internal/pkg/ctxlog"
	"github.com/bissquit/statusboard/internal/pkg/metrics"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 16
)

// SnapshotSource produces the current snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Hub fans snapshots out to connected WebSocket clients. A client gets the
// current snapshot on connect and a fresh one after every registry change.
// Clients whose send buffer is full are dropped.
type Hub struct {
	source   SnapshotSource
	upgrader websocket.Upgrader

	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	refresh    chan struct{}
	done       chan struct{}
	latest     []byte
}

// NewHub creates a hub. Cross-origin upgrades are accepted only from
// allowedOrigins ("*" allows any).
func NewHub(source SnapshotSource, allowedOrigins []string) *Hub {
	h := &Hub{
		source:     source,
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		refresh:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(allowedOrigins),
	}
	return h
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			metrics.StreamClients.Set(float64(len(h.clients)))
			if h.latest == nil {
				h.latest = h.build(ctx)
			}
			if h.latest != nil {
				h.deliver(c, h.latest)
			}

		case c := <-h.unregister:
			h.drop(c)

		case <-h.refresh:
			if len(h.clients) == 0 {
				h.latest = nil
				continue
			}
			if msg := h.build(ctx); msg != nil {
				h.latest = msg
				for c := range h.clients {
					h.deliver(c, msg)
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Notify schedules a broadcast. Bursts of notifications coalesce into one.
func (h *Hub) Notify() {
	select {
	case h.refresh <- struct{}{}:
	default:
	}
}

// ComponentsChanged implements catalog.Observer.
func (h *Hub) ComponentsChanged(context.Context) {
	h.Notify()
}

// IncidentChanged implements incidents.Observer.
func (h *Hub) IncidentChanged(context.Context, domain.IncidentChange) {
	h.Notify()
}

// ServeWS handles GET /status/stream.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ctxlog.FromContext(r.Context()).Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) build(ctx context.Context) []byte {
	snapshot, err := h.source.Snapshot(ctx)
	if err != nil {
		slog.Error("failed to build status snapshot", "error", err)
		return nil
	}
	msg, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("failed to encode status snapshot", "error", err)
		return nil
	}
	return msg
}

func (h *Hub) deliver(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		slog.Warn("dropping slow status stream client")
		h.drop(c)
	}
}

func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.StreamClients.Set(float64(len(h.clients)))
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump discards client messages; it exists to process control frames
// and notice disconnects.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("status stream read error", "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
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
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] || set[origin] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	}
}
