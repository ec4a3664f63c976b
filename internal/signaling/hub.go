package signaling

import (
	"log/slog"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/protocol"
)

// Hub ties the registry, the room directory and the relay together. Client
// lifecycle flows through the Register/Unregister channels and is handled by
// the single Run goroutine; inbound messages are dispatched straight from
// each connection's read pump, since relays are stateless and the directory
// serializes room mutations itself.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	registry  *Registry
	directory *Directory
	relay     *Relay
}

func NewHub() *Hub {
	registry := NewRegistry()
	directory := NewDirectory()
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		registry:   registry,
		directory:  directory,
		relay:      NewRelay(registry, directory),
	}
}

// Directory exposes the room directory, mainly for tests and diagnostics.
func (h *Hub) Directory() *Directory { return h.directory }

// Registry exposes the connection registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Run processes client lifecycle events. It must run in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registry.Add(client)
			client.Queue(protocol.MustMessage(protocol.TypeWelcome, protocol.Welcome{
				ConnectionID: client.ID,
			}))
			slog.Info("client connected", "connection", client.ID, "total", h.registry.Len())

		case client := <-h.Unregister:
			h.handleDisconnect(client)
		}
	}
}

// Dispatch routes one inbound message. Unknown types are logged and dropped;
// a malformed payload only ever affects the connection that sent it.
func (h *Hub) Dispatch(c *Client, msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeRequestJoin:
		h.handleRequestJoin(c, msg)
	case protocol.TypeResolveJoin:
		h.handleResolveJoin(c, msg)
	case protocol.TypeJoinRoom:
		h.handleJoinRoom(c, msg)

	case protocol.TypeOffer, protocol.TypeAnswer, protocol.TypeICECandidate:
		h.relay.Direct(msg)

	case protocol.TypeChatMessage:
		// Chat echoes to every connection in the room, the sender's own
		// other devices included.
		h.broadcastToRoom(c, msg, msg.Type, "")
	case protocol.TypeSendReaction:
		h.broadcastToRoom(c, msg, protocol.TypePeerReaction, c.ID)
	case protocol.TypeToggleHand:
		h.broadcastToRoom(c, msg, protocol.TypePeerHandToggled, c.ID)
	case protocol.TypeToggleMedia:
		h.broadcastToRoom(c, msg, protocol.TypePeerToggledMedia, c.ID)

	default:
		slog.Warn("unknown message type", "connection", c.ID, "type", msg.Type)
	}
}

// broadcastToRoom re-addresses a room-scoped payload under outType and fans
// it out. Only the roomId field of the payload is interpreted.
func (h *Hub) broadcastToRoom(c *Client, msg *protocol.Message, outType, excludeID string) {
	var scope struct {
		RoomID string `json:"roomId"`
	}
	if err := msg.Decode(&scope); err != nil || scope.RoomID == "" {
		slog.Debug("room broadcast without room id", "connection", c.ID, "type", msg.Type)
		return
	}
	h.relay.Broadcast(scope.RoomID, &protocol.Message{Type: outType, Payload: msg.Payload}, excludeID)
}

func (h *Hub) handleRequestJoin(c *Client, msg *protocol.Message) {
	var req protocol.JoinRequest
	if err := msg.Decode(&req); err != nil {
		slog.Debug("malformed join request", "connection", c.ID, "err", err)
		return
	}

	decision := h.directory.RequestJoin(c.ID, req)
	switch decision.Admission {
	case AdmittedAsHost:
		slog.Info("room claimed", "room", req.RoomID, "connection", c.ID)
		c.Queue(protocol.MustMessage(protocol.TypeJoinApproved, protocol.JoinApproved{
			RoomID:      req.RoomID,
			UserID:      req.UserID,
			DisplayName: req.DisplayName,
			IsHost:      true,
		}))

	case PendingApproval:
		h.registry.Send(decision.HostID, protocol.MustMessage(protocol.TypeJoinRequestReceived, protocol.JoinRequestReceived{
			ConnectionID: c.ID,
			UserID:       req.UserID,
			DisplayName:  req.DisplayName,
			ClaimsHost:   req.ClaimsHost,
		}))
		c.Queue(protocol.MustMessage(protocol.TypeWaitingForApproval, nil))

	case Rejected:
		c.Queue(protocol.MustMessage(protocol.TypeJoinRejected, protocol.JoinRejected{
			Reason: decision.Reason,
		}))
	}
}

func (h *Hub) handleResolveJoin(c *Client, msg *protocol.Message) {
	var res protocol.ResolveJoin
	if err := msg.Decode(&res); err != nil {
		slog.Debug("malformed resolve request", "connection", c.ID, "err", err)
		return
	}

	pending, ok := h.directory.ResolveJoin(c.ID, res.ConnectionID)
	if !ok {
		// Already resolved, requester gone, or resolver is not the host.
		return
	}

	if res.Approved {
		h.registry.Send(pending.ConnectionID, protocol.MustMessage(protocol.TypeJoinApproved, protocol.JoinApproved{
			RoomID:      pending.RoomID,
			UserID:      pending.UserID,
			DisplayName: pending.DisplayName,
			IsHost:      false,
		}))
	} else {
		h.registry.Send(pending.ConnectionID, protocol.MustMessage(protocol.TypeJoinRejected, protocol.JoinRejected{
			Reason: "The host declined your request to join.",
		}))
	}
}

func (h *Hub) handleJoinRoom(c *Client, msg *protocol.Message) {
	var join protocol.JoinRoom
	if err := msg.Decode(&join); err != nil {
		slog.Debug("malformed join-room", "connection", c.ID, "err", err)
		return
	}

	participant := protocol.Participant{
		ConnectionID: c.ID,
		UserID:       join.UserID,
		DisplayName:  join.DisplayName,
	}
	others := h.directory.FinalizeJoin(join.RoomID, participant)

	// Announce the arrival before handing the newcomer the member list, so
	// both sides learn about each other in the same order every time.
	arrival := protocol.MustMessage(protocol.TypeUserConnected, protocol.UserConnected{
		UserID:       join.UserID,
		ConnectionID: c.ID,
		DisplayName:  join.DisplayName,
	})
	for _, p := range others {
		h.registry.Send(p.ConnectionID, arrival)
	}

	c.Queue(protocol.MustMessage(protocol.TypeRoomParticipants, protocol.RoomParticipants{
		Participants: others,
	}))
	slog.Info("participant joined", "room", join.RoomID, "connection", c.ID, "user", join.UserID)
}

func (h *Hub) handleDisconnect(c *Client) {
	updates := h.directory.Leave(c.ID)
	for _, u := range updates {
		if u.Removed != nil {
			departure := protocol.MustMessage(protocol.TypeUserDisconnected, protocol.UserDisconnected{
				UserID:       u.Removed.UserID,
				ConnectionID: u.Removed.ConnectionID,
			})
			for _, p := range u.Remaining {
				h.registry.Send(p.ConnectionID, departure)
			}
		}
		if u.NewHost != "" {
			h.registry.Send(u.NewHost, protocol.MustMessage(protocol.TypeYouAreHost, nil))
		}
		if u.RoomClosed {
			slog.Info("room closed", "room", u.RoomID)
		}
	}

	h.registry.Remove(c.ID)
	c.closeSend()
	slog.Info("client disconnected", "connection", c.ID, "total", h.registry.Len())
}
