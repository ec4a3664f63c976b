package engage

import (
	"sort"
	"sync"
)

// HandSet tracks which connections currently have a hand raised, maintained
// purely from relayed toggle events. The server keeps no copy, so a late
// joiner does not see hands raised before it arrived.
type HandSet struct {
	mu     sync.Mutex
	raised map[string]bool
}

func NewHandSet() *HandSet {
	return &HandSet{raised: make(map[string]bool)}
}

// Set records a toggle event for the given connection.
func (h *HandSet) Set(connectionID string, raised bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if raised {
		h.raised[connectionID] = true
	} else {
		delete(h.raised, connectionID)
	}
}

// IsRaised reports the state for one connection.
func (h *HandSet) IsRaised(connectionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.raised[connectionID]
}

// Raised returns the raised connections in stable order.
func (h *HandSet) Raised() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.raised))
	for id := range h.raised {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Drop removes a departed connection regardless of state.
func (h *HandSet) Drop(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.raised, connectionID)
}
