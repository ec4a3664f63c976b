package signaling

import (
	"sync"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/protocol"
)

// Admission is the outcome of a join request.
type Admission int

const (
	// AdmittedAsHost means the room was vacant and the requester now hosts it.
	AdmittedAsHost Admission = iota
	// PendingApproval means the current host has been asked to decide.
	PendingApproval
	// Rejected means admission was refused; Decision.Reason says why.
	Rejected
)

// Decision carries the admission outcome back to the caller.
type Decision struct {
	Admission Admission
	HostID    string
	Reason    string
}

// PendingJoin records one requester waiting for a host's verdict. At most one
// exists per connection; a new request from the same connection replaces it.
type PendingJoin struct {
	ConnectionID string
	RoomID       string
	UserID       string
	DisplayName  string
	ClaimsHost   bool
}

// LeaveUpdate describes the fallout of one connection leaving one room.
type LeaveUpdate struct {
	RoomID     string
	Removed    *protocol.Participant
	NewHost    string
	Remaining  []protocol.Participant
	RoomClosed bool
}

// Directory owns the room map, the admission workflow and the pending-request
// table. Rooms are created lazily on the first join attempt and destroyed
// when their last participant leaves. Admission failures are reported to the
// requester only; nothing here is fatal to the server.
type Directory struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	pending map[string]*PendingJoin
}

func NewDirectory() *Directory {
	return &Directory{
		rooms:   make(map[string]*Room),
		pending: make(map[string]*PendingJoin),
	}
}

// RequestJoin runs the admission policy for a connection asking to enter a
// room. A vacant room admits the requester as host immediately. A hosted room
// records a pending request for the host to resolve. A room that has members
// but no host is in a degraded state; the requester is turned away rather
// than crashing or guessing a host.
func (d *Directory) RequestJoin(connectionID string, req protocol.JoinRequest) Decision {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[req.RoomID]
	if !ok {
		room = NewRoom(req.RoomID)
		d.rooms[req.RoomID] = room
	}

	if room.TryAdmitHost(connectionID) {
		return Decision{Admission: AdmittedAsHost}
	}

	host := room.Host()
	if host == "" {
		return Decision{Admission: Rejected, Reason: "Room host is no longer available."}
	}

	d.pending[connectionID] = &PendingJoin{
		ConnectionID: connectionID,
		RoomID:       req.RoomID,
		UserID:       req.UserID,
		DisplayName:  req.DisplayName,
		ClaimsHost:   req.ClaimsHost,
	}
	return Decision{Admission: PendingApproval, HostID: host}
}

// ResolveJoin consumes the pending request for requesterID, if the resolver
// is the current host of the request's room. Resolving a request that no
// longer exists, or from anyone but the host, is a no-op.
func (d *Directory) ResolveJoin(hostID, requesterID string) (*PendingJoin, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[requesterID]
	if !ok {
		return nil, false
	}
	room, ok := d.rooms[p.RoomID]
	if !ok || room.Host() != hostID {
		return nil, false
	}
	delete(d.pending, requesterID)
	return p, true
}

// FinalizeJoin adds the participant to the room and returns the members that
// were already present, so the new arrival can open a peer link to each.
func (d *Directory) FinalizeJoin(roomID string, p protocol.Participant) []protocol.Participant {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		d.rooms[roomID] = room
	}

	others := room.Participants()
	room.AddParticipant(&p)
	return others
}

// Leave removes the connection from every room it was in, dropping any
// pending request it held. Emptied rooms are destroyed; if the connection
// hosted a room with remaining members, the update names the promoted host.
func (d *Directory) Leave(connectionID string) []LeaveUpdate {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.pending, connectionID)

	var updates []LeaveUpdate
	for id, room := range d.rooms {
		removed, promoted, empty := room.RemoveParticipant(connectionID)
		if removed == nil {
			// The connection may still hold the host pointer of a room it
			// never finished joining.
			if next, changed := room.ReleaseHost(connectionID); changed {
				if room.IsEmpty() {
					delete(d.rooms, id)
				} else if next != "" {
					updates = append(updates, LeaveUpdate{
						RoomID:    id,
						NewHost:   next,
						Remaining: room.Participants(),
					})
				}
			}
			continue
		}
		if empty {
			delete(d.rooms, id)
		}
		updates = append(updates, LeaveUpdate{
			RoomID:     id,
			Removed:    removed,
			NewHost:    promoted,
			Remaining:  room.Participants(),
			RoomClosed: empty,
		})
	}
	return updates
}

// Room returns the room with the given id, if it exists.
func (d *Directory) Room(roomID string) (*Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[roomID]
	return room, ok
}

// RoomCount reports how many rooms currently exist.
func (d *Directory) RoomCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
