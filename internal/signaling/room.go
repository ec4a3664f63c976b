package signaling

import (
	"sync"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/protocol"
)

// Room bounds a set of participants exchanging media directly with each
// other. A non-empty room has exactly one host, who approves join requests.
// Each room has its own lock so independent rooms never serialize against
// each other.
type Room struct {
	ID string

	mu           sync.RWMutex
	participants map[string]*protocol.Participant
	hostID       string
}

func NewRoom(id string) *Room {
	return &Room{
		ID:           id,
		participants: make(map[string]*protocol.Participant),
	}
}

// TryAdmitHost claims the room for the given connection if it is vacant:
// no participants and no host pointer. A room whose host was admitted but has
// not finalized its join yet is not vacant, so concurrent requesters cannot
// race each other into two hosts.
func (r *Room) TryAdmitHost(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.participants) == 0 && r.hostID == "" {
		r.hostID = connectionID
		return true
	}
	return false
}

// ReleaseHost clears the host pointer if it references the given connection,
// promoting the lowest-ordered remaining participant when one exists. It
// reports the promoted host and whether anything changed.
func (r *Room) ReleaseHost(connectionID string) (promoted string, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hostID != connectionID {
		return "", false
	}
	next := ""
	for id := range r.participants {
		if next == "" || id < next {
			next = id
		}
	}
	r.hostID = next
	return next, true
}

// SetHost points the room's host at the given connection.
func (r *Room) SetHost(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hostID = connectionID
}

// Host returns the current host connection id, or "" if the room has none.
func (r *Room) Host() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostID
}

func (r *Room) AddParticipant(p *protocol.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[p.ConnectionID] = p
}

// RemoveParticipant takes a connection out of the room. If the departing
// connection was the host and others remain, the participant with the
// lowest-ordered connection id is promoted so that the same remaining set
// always yields the same host. It returns the removed participant, the
// promoted host's connection id ("" if no promotion happened) and whether
// the room is now empty.
func (r *Room) RemoveParticipant(connectionID string) (removed *protocol.Participant, promoted string, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connectionID]
	if !ok {
		return nil, "", len(r.participants) == 0
	}
	delete(r.participants, connectionID)

	if len(r.participants) == 0 {
		r.hostID = ""
		return p, "", true
	}

	if r.hostID == connectionID {
		next := ""
		for id := range r.participants {
			if next == "" || id < next {
				next = id
			}
		}
		r.hostID = next
		promoted = next
	}
	return p, promoted, false
}

func (r *Room) HasParticipant(connectionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.participants[connectionID]
	return ok
}

// Participants returns a snapshot of the current members.
func (r *Room) Participants() []protocol.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, *p)
	}
	return out
}

func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants) == 0
}
