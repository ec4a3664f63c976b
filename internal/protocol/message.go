package protocol

import "encoding/json"

// Message is the envelope for every websocket message exchanged between a
// meeting client and the coordination server. The payload shape depends on
// Type; the server never inspects payloads beyond what addressing requires.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants, client to server.
const (
	TypeRequestJoin   = "request-join"
	TypeResolveJoin   = "resolve-join-request"
	TypeJoinRoom      = "join-room"
	TypeOffer         = "offer"
	TypeAnswer        = "answer"
	TypeICECandidate  = "ice-candidate"
	TypeChatMessage   = "chat-message"
	TypeSendReaction  = "send-reaction"
	TypeToggleHand    = "toggle-hand"
	TypeToggleMedia   = "toggle-media"
)

// Message type constants, server to client.
const (
	TypeWelcome             = "welcome"
	TypeJoinApproved        = "join-approved"
	TypeWaitingForApproval  = "waiting-for-approval"
	TypeJoinRejected        = "join-rejected"
	TypeJoinRequestReceived = "join-request-received"
	TypeYouAreHost          = "you-are-host"
	TypeUserConnected       = "user-connected"
	TypeRoomParticipants    = "room-participants"
	TypeUserDisconnected    = "user-disconnected"
	TypePeerReaction        = "peer-reaction"
	TypePeerHandToggled     = "peer-hand-toggled"
	TypePeerToggledMedia    = "peer-toggled-media"
)

// Welcome tells a freshly connected client its server-assigned connection id.
// Connection ids are not stable across reconnects.
type Welcome struct {
	ConnectionID string `json:"connectionId"`
}

// JoinRequest asks for admission into a room. ClaimsHost is set when the
// client believes it created the room (used only to claim host priority on
// reconnect; the server still requires approval for non-empty rooms).
type JoinRequest struct {
	RoomID      string `json:"roomId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	ClaimsHost  bool   `json:"claimsHost,omitempty"`
}

// JoinApproved is the admission result delivered to the requester.
type JoinApproved struct {
	RoomID      string `json:"roomId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	IsHost      bool   `json:"isHost"`
}

// JoinRejected carries the reason admission was refused.
type JoinRejected struct {
	Reason string `json:"reason"`
}

// JoinRequestReceived notifies the room host about a pending requester.
type JoinRequestReceived struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	DisplayName  string `json:"displayName"`
	ClaimsHost   bool   `json:"claimsHost,omitempty"`
}

// ResolveJoin is the host's verdict on a pending join request.
type ResolveJoin struct {
	ConnectionID string `json:"connectionId"`
	Approved     bool   `json:"approved"`
}

// JoinRoom finalizes membership after approval (or immediate host admission).
type JoinRoom struct {
	RoomID      string `json:"roomId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// Participant describes one room member.
type Participant struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	DisplayName  string `json:"displayName"`
}

// RoomParticipants is sent to a new member: everyone already in the room,
// excluding the recipient.
type RoomParticipants struct {
	Participants []Participant `json:"participants"`
}

// UserConnected announces a new member to the rest of the room.
type UserConnected struct {
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
}

// UserDisconnected announces a departure to the rest of the room.
type UserDisconnected struct {
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId"`
}

// Signal carries an SDP offer/answer or an ICE candidate between two peers.
// The server forwards it verbatim to Target; Data is opaque to it.
type Signal struct {
	Target string          `json:"target"`
	Caller string          `json:"caller"`
	Data   json.RawMessage `json:"payload"`
}

// ChatMessage is relayed to every connection in the room, sender included.
// The server does not persist it.
type ChatMessage struct {
	RoomID          string `json:"roomId"`
	ID              string `json:"id"`
	SenderName      string `json:"senderName"`
	Body            string `json:"body"`
	TimestampMillis int64  `json:"timestampMillis"`
}

// Reaction is a short-lived emoji signal. Receivers discard it after a fixed
// display window; it is never stored.
type Reaction struct {
	RoomID             string `json:"roomId"`
	SourceConnectionID string `json:"sourceConnectionId"`
	Emoji              string `json:"emoji"`
}

// HandToggle flips the sender's raised-hand state for the room.
type HandToggle struct {
	RoomID             string `json:"roomId"`
	SourceConnectionID string `json:"sourceConnectionId"`
	IsRaised           bool   `json:"isRaised"`
}

// MediaToggle announces that the sender enabled or disabled a local media
// kind ("video", "audio" or "screen").
type MediaToggle struct {
	RoomID             string `json:"roomId"`
	SourceConnectionID string `json:"sourceConnectionId"`
	Kind               string `json:"kind"`
	Enabled            bool   `json:"enabled"`
}

// NewMessage builds an envelope with the given payload marshaled as JSON.
func NewMessage(msgType string, payload any) (*Message, error) {
	if payload == nil {
		return &Message{Type: msgType}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Payload: raw}, nil
}

// MustMessage is NewMessage for payloads that cannot fail to marshal.
func MustMessage(msgType string, payload any) *Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Decode unmarshals the payload into v.
func (m *Message) Decode(v any) error {
	return json.Unmarshal(m.Payload, v)
}
