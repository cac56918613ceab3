package realtime

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var errClientGone = errors.New("client not registered")

// Hub fans market snapshots out to connected websocket clients. Writers can
// be concurrent (tick loop, tick handler, feed consumer, handshake snapshot);
// gorilla/websocket allows at most one in-flight writer per connection, so
// every write goes through the client's write lock.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*sync.Mutex)}
}

func (h *Hub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()
}

func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// WriteJSON sends one message to one registered client under its write lock.
func (h *Hub) WriteJSON(conn *websocket.Conn, v any) error {
	h.mu.RLock()
	wmu := h.clients[conn]
	h.mu.RUnlock()
	if wmu == nil {
		return errClientGone
	}
	wmu.Lock()
	defer wmu.Unlock()
	return conn.WriteJSON(v)
}

func (h *Hub) BroadcastJSON(v any) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := h.WriteJSON(conn, v); err != nil {
			h.RemoveClient(conn)
		}
	}
}
