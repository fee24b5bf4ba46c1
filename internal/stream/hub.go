package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/betmesh/stakegate/internal/model"
	"github.com/betmesh/stakegate/internal/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 5 * time.Second
	clientBuffer = 64
	pingPeriod   = 15 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Demo service, no origin policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is one frame pushed to dashboard clients.
type Event struct {
	Type    string           `json:"type"` // bet_update, batch_settled, batch_closed, batch_cancelled
	BatchID string           `json:"batch_id,omitempty"`
	Record  *model.BetRecord `json:"record,omitempty"`
	At      time.Time        `json:"at"`
}

// Hub fans bet lifecycle events out to connected websocket clients so
// dashboards can re-render without polling. Slow clients are dropped
// rather than allowed to block the engine.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// PublishBet implements service.Publisher.
func (h *Hub) PublishBet(rec model.BetRecord) {
	h.broadcast(Event{Type: "bet_update", BatchID: rec.BatchID, Record: &rec, At: time.Now().UTC()})
}

// PublishBatchEvent implements service.Publisher.
func (h *Hub) PublishBatchEvent(event, batchID string) {
	h.broadcast(Event{Type: event, BatchID: batchID, At: time.Now().UTC()})
}

func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			// Client cannot keep up; closing its channel ends the writer.
			go h.drop(c)
		}
	}
}

// ServeHTTP upgrades the request and keeps the connection until the
// client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan Event, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.drop(c)
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readLoop discards inbound frames; the stream is one-way. It exists to
// notice the close handshake.
func (h *Hub) readLoop(c *client) {
	defer h.drop(c)
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}
