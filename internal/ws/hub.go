// Package ws pushes queue and history changes to connected clients over
// WebSocket. A client gets the full state on connect and typed incremental
// events afterwards, so the UI never has to poll.
package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"flyerstudio/internal/domain"
	"flyerstudio/internal/infra"
)

// Event is the wire shape of an incremental update.
type Event struct {
	Type   string              `json:"type"`
	Job    *domain.Job         `json:"job,omitempty"`
	JobID  string              `json:"job_id,omitempty"`
	Item   *domain.HistoryItem `json:"item,omitempty"`
	ItemID string              `json:"item_id,omitempty"`
}

// Snapshot is the full state pushed on connect.
type Snapshot struct {
	Type  string               `json:"type"`
	Jobs  []domain.Job         `json:"jobs"`
	Items []domain.HistoryItem `json:"items"`
}

// SnapshotFunc produces the current full state.
type SnapshotFunc func() ([]domain.Job, []domain.HistoryItem)

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub tracks connected clients and fans events out to them.
type Hub struct {
	upgrader websocket.Upgrader
	snapshot SnapshotFunc
	logger   infra.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates a hub. snapshot is called once per new connection.
func NewHub(snapshot SnapshotFunc, logger infra.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		snapshot: snapshot,
		logger:   logger,
		clients:  make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("ws: upgrade failed")
		return
	}
	c := &client{conn: conn}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info().Int("clients", total).Msg("ws: client connected")

	jobs, items := h.snapshot()
	if err := c.send(Snapshot{Type: "snapshot", Jobs: jobs, Items: items}); err != nil {
		h.drop(c)
		return
	}

	// Reads are discarded; the loop exists to notice disconnects.
	go func() {
		defer h.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.conn.Close()
	h.logger.Info().Int("clients", total).Msg("ws: client disconnected")
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(ev); err != nil {
			h.drop(c)
		}
	}
}

// JobUpdated pushes a job create or state change.
func (h *Hub) JobUpdated(job domain.Job) {
	h.broadcast(Event{Type: "job", Job: &job})
}

// JobRemoved pushes a job deletion.
func (h *Hub) JobRemoved(id string) {
	h.broadcast(Event{Type: "job_removed", JobID: id})
}

// HistoryUpdated pushes a history item create or change.
func (h *Hub) HistoryUpdated(item domain.HistoryItem) {
	h.broadcast(Event{Type: "history", Item: &item})
}

// HistoryRemoved pushes a history item deletion.
func (h *Hub) HistoryRemoved(id string) {
	h.broadcast(Event{Type: "history_removed", ItemID: id})
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
