// Package live fans object position updates out to connected canvas
// clients. Updates here are best effort: losing one costs a moment of
// visual lag, never persisted state.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

type entry struct {
	fields    map[string]any
	updatedAt time.Time
}

type wsClient struct {
	conn *websocket.Conn
	id   string
}

// event is the wire format pushed to canvas clients.
type event struct {
	Type     string         `json:"type"`
	CanvasID string         `json:"canvasId"`
	ObjectID string         `json:"objectId"`
	Fields   map[string]any `json:"fields"`
}

// Hub keeps the ephemeral position table and the set of connected
// websocket clients.
type Hub struct {
	mu        sync.RWMutex
	positions map[string]map[string]*entry // canvas -> object -> entry

	clients sync.Map
	nextID  atomic.Int64

	now func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		positions: make(map[string]map[string]*entry),
		now:       time.Now,
	}
}

// Set replaces the live fields for an object and broadcasts the change.
func (h *Hub) Set(canvasID, objectID string, fields map[string]any) {
	h.mu.Lock()
	canvasMap, ok := h.positions[canvasID]
	if !ok {
		canvasMap = make(map[string]*entry)
		h.positions[canvasID] = canvasMap
	}
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	canvasMap[objectID] = &entry{fields: copied, updatedAt: h.now()}
	h.mu.Unlock()

	h.broadcast(canvasID, objectID, copied)
}

// Update merges fields into the object's live state. Unknown objects are
// created rather than rejected: a late joiner's first delta still lands.
func (h *Hub) Update(canvasID, objectID string, fields map[string]any) {
	h.mu.Lock()
	canvasMap, ok := h.positions[canvasID]
	if !ok {
		canvasMap = make(map[string]*entry)
		h.positions[canvasID] = canvasMap
	}
	e, ok := canvasMap[objectID]
	if !ok {
		e = &entry{fields: make(map[string]any)}
		canvasMap[objectID] = e
	}
	for k, v := range fields {
		e.fields[k] = v
	}
	e.updatedAt = h.now()
	snapshot := make(map[string]any, len(e.fields))
	for k, v := range e.fields {
		snapshot[k] = v
	}
	h.mu.Unlock()

	h.broadcast(canvasID, objectID, snapshot)
}

// Snapshot returns a copy of the live fields for every object on the canvas.
func (h *Hub) Snapshot(canvasID string) map[string]map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]map[string]any)
	for id, e := range h.positions[canvasID] {
		fields := make(map[string]any, len(e.fields))
		for k, v := range e.fields {
			fields[k] = v
		}
		out[id] = fields
	}
	return out
}

// Prune drops entries not touched within maxAge and returns how many were
// removed. Run periodically; stale entries are abandoned drag sessions.
func (h *Hub) Prune(maxAge time.Duration) int {
	cutoff := h.now().Add(-maxAge)

	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for canvasID, canvasMap := range h.positions {
		for objectID, e := range canvasMap {
			if e.updatedAt.Before(cutoff) {
				delete(canvasMap, objectID)
				removed++
			}
		}
		if len(canvasMap) == 0 {
			delete(h.positions, canvasID)
		}
	}
	return removed
}

// Stats reports table and connection sizes for periodic logging.
func (h *Hub) Stats() (canvases, objects, clients int) {
	h.mu.RLock()
	canvases = len(h.positions)
	for _, canvasMap := range h.positions {
		objects += len(canvasMap)
	}
	h.mu.RUnlock()

	h.clients.Range(func(_, _ any) bool {
		clients++
		return true
	})
	return canvases, objects, clients
}

// HandleWS upgrades the request and keeps the connection registered until
// the client goes away. The server only pushes; inbound frames are drained
// and ignored.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[live] websocket accept error: %v", err)
		return
	}

	clientID := fmt.Sprintf("live-%d", h.nextID.Add(1))
	client := &wsClient{conn: conn, id: clientID}
	h.clients.Store(clientID, client)
	log.Printf("[live] client connected: %s", clientID)

	defer func() {
		h.clients.Delete(clientID)
		conn.CloseNow()
		log.Printf("[live] client disconnected: %s", clientID)
	}()

	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}

func (h *Hub) broadcast(canvasID, objectID string, fields map[string]any) {
	data, err := json.Marshal(event{
		Type:     "position",
		CanvasID: canvasID,
		ObjectID: objectID,
		Fields:   fields,
	})
	if err != nil {
		return
	}
	h.clients.Range(func(_, value any) bool {
		c := value.(*wsClient)
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		_ = c.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		return true
	})
}
