package signaling

import (
	"log/slog"
	"sync"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/protocol"
)

// Registry holds one connection handle per connected client, keyed by the
// server-assigned connection id. It is the leaf dependency for everything
// else on the server; delivery to a vanished connection is a silent drop.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// Send queues a message for the given connection. It reports whether the
// connection was known; an unknown target is not an error, the caller simply
// has stale addressing.
func (r *Registry) Send(id string, msg *protocol.Message) bool {
	c, ok := r.Get(id)
	if !ok {
		slog.Debug("dropping message for unknown connection", "target", id, "type", msg.Type)
		return false
	}
	c.Queue(msg)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
