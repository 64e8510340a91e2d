package bus

import (
	"log/slog"
	"sync"
)

// Hub is the in-process Multiplexer used by single-instance deployments
// and tests.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Conn]struct{})}
}

func (h *Hub) Subscribe(room string, c Conn) func() {
	h.mu.Lock()
	conns, ok := h.rooms[room]
	if !ok {
		conns = make(map[Conn]struct{})
		h.rooms[room] = conns
	}
	conns[c] = struct{}{}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if conns, ok := h.rooms[room]; ok {
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

func (h *Hub) Publish(room string, ev Envelope) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	// Best-effort: a dead connection only loses its own events.
	for _, c := range conns {
		if err := c.Send(ev); err != nil {
			slog.Warn("event delivery failed", "room", room, "type", ev.Type, "error", err)
		}
	}
}
