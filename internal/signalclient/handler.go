package signalclient

import (
	"log/slog"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/protocol"
)

// Handler routes incoming server messages onto typed channels. Each channel
// corresponds to one message type; a payload that fails to decode affects
// only that message.
type Handler struct {
	client *Client

	Welcome          chan protocol.Welcome
	Approved         chan protocol.JoinApproved
	Waiting          chan struct{}
	Rejected         chan string
	JoinRequests     chan protocol.JoinRequestReceived
	YouAreHost       chan struct{}
	Participants     chan []protocol.Participant
	UserConnected    chan protocol.UserConnected
	UserDisconnected chan protocol.UserDisconnected
	Offers           chan protocol.Signal
	Answers          chan protocol.Signal
	Candidates       chan protocol.Signal
	Chat             chan protocol.ChatMessage
	Reactions        chan protocol.Reaction
	Hands            chan protocol.HandToggle
	MediaToggles     chan protocol.MediaToggle

	// Disconnected closes when the server connection drops.
	Disconnected chan struct{}
}

// NewHandler creates a handler for the given client's message stream.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:           client,
		Welcome:          make(chan protocol.Welcome, 1),
		Approved:         make(chan protocol.JoinApproved, 1),
		Waiting:          make(chan struct{}, 1),
		Rejected:         make(chan string, 1),
		JoinRequests:     make(chan protocol.JoinRequestReceived, 8),
		YouAreHost:       make(chan struct{}, 1),
		Participants:     make(chan []protocol.Participant, 1),
		UserConnected:    make(chan protocol.UserConnected, 8),
		UserDisconnected: make(chan protocol.UserDisconnected, 8),
		Offers:           make(chan protocol.Signal, 32),
		Answers:          make(chan protocol.Signal, 32),
		Candidates:       make(chan protocol.Signal, 64),
		Chat:             make(chan protocol.ChatMessage, 32),
		Reactions:        make(chan protocol.Reaction, 32),
		Hands:            make(chan protocol.HandToggle, 32),
		MediaToggles:     make(chan protocol.MediaToggle, 32),
		Disconnected:     make(chan struct{}),
	}
}

// Start consumes the client's message stream until it closes. Run it in its
// own goroutine.
func (h *Handler) Start() {
	defer close(h.Disconnected)

	for msg := range h.client.Incoming() {
		h.route(msg)
	}
}

func (h *Handler) route(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypeWelcome:
		var p protocol.Welcome
		if h.decode(msg, &p) {
			h.Welcome <- p
		}
	case protocol.TypeJoinApproved:
		var p protocol.JoinApproved
		if h.decode(msg, &p) {
			h.Approved <- p
		}
	case protocol.TypeWaitingForApproval:
		h.Waiting <- struct{}{}
	case protocol.TypeJoinRejected:
		var p protocol.JoinRejected
		if h.decode(msg, &p) {
			h.Rejected <- p.Reason
		}
	case protocol.TypeJoinRequestReceived:
		var p protocol.JoinRequestReceived
		if h.decode(msg, &p) {
			h.JoinRequests <- p
		}
	case protocol.TypeYouAreHost:
		h.YouAreHost <- struct{}{}
	case protocol.TypeRoomParticipants:
		var p protocol.RoomParticipants
		if h.decode(msg, &p) {
			h.Participants <- p.Participants
		}
	case protocol.TypeUserConnected:
		var p protocol.UserConnected
		if h.decode(msg, &p) {
			h.UserConnected <- p
		}
	case protocol.TypeUserDisconnected:
		var p protocol.UserDisconnected
		if h.decode(msg, &p) {
			h.UserDisconnected <- p
		}
	case protocol.TypeOffer:
		var p protocol.Signal
		if h.decode(msg, &p) {
			h.Offers <- p
		}
	case protocol.TypeAnswer:
		var p protocol.Signal
		if h.decode(msg, &p) {
			h.Answers <- p
		}
	case protocol.TypeICECandidate:
		var p protocol.Signal
		if h.decode(msg, &p) {
			h.Candidates <- p
		}
	case protocol.TypeChatMessage:
		var p protocol.ChatMessage
		if h.decode(msg, &p) {
			h.Chat <- p
		}
	case protocol.TypePeerReaction:
		var p protocol.Reaction
		if h.decode(msg, &p) {
			h.Reactions <- p
		}
	case protocol.TypePeerHandToggled:
		var p protocol.HandToggle
		if h.decode(msg, &p) {
			h.Hands <- p
		}
	case protocol.TypePeerToggledMedia:
		var p protocol.MediaToggle
		if h.decode(msg, &p) {
			h.MediaToggles <- p
		}
	default:
		slog.Debug("unhandled server message", "type", msg.Type)
	}
}

func (h *Handler) decode(msg *protocol.Message, v any) bool {
	if err := msg.Decode(v); err != nil {
		slog.Debug("malformed server payload", "type", msg.Type, "err", err)
		return false
	}
	return true
}
