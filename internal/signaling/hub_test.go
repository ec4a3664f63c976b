package signaling

import (
	"encoding/json"
	"testing"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/protocol"
)

// lastOfType returns the most recent queued message of the given type.
func lastOfType(t *testing.T, msgs []*protocol.Message, msgType string) *protocol.Message {
	t.Helper()
	var found *protocol.Message
	for _, m := range msgs {
		if m.Type == msgType {
			found = m
		}
	}
	return found
}

func dispatchJoinRequest(hub *Hub, c *Client, roomID, userID, name string) {
	hub.Dispatch(c, protocol.MustMessage(protocol.TypeRequestJoin, protocol.JoinRequest{
		RoomID:      roomID,
		UserID:      userID,
		DisplayName: name,
	}))
}

func dispatchJoinRoom(hub *Hub, c *Client, roomID, userID, name string) {
	hub.Dispatch(c, protocol.MustMessage(protocol.TypeJoinRoom, protocol.JoinRoom{
		RoomID:      roomID,
		UserID:      userID,
		DisplayName: name,
	}))
}

func TestJoinFlowHostThenGuest(t *testing.T) {
	hub := NewHub()
	host := newTestHubClient(hub, "conn-a")
	guest := newTestHubClient(hub, "conn-b")

	// First requester claims the vacant room.
	dispatchJoinRequest(hub, host, "room-1", "user-a", "Alice")
	hostMsgs := drain(host)
	approved := lastOfType(t, hostMsgs, protocol.TypeJoinApproved)
	if approved == nil {
		t.Fatal("Expected join-approved for the first requester")
	}
	var ap protocol.JoinApproved
	if err := approved.Decode(&ap); err != nil || !ap.IsHost {
		t.Errorf("Expected isHost=true in the approval, got %+v (err %v)", ap, err)
	}
	dispatchJoinRoom(hub, host, "room-1", "user-a", "Alice")
	roster := lastOfType(t, drain(host), protocol.TypeRoomParticipants)
	if roster == nil {
		t.Fatal("Expected room-participants for the host")
	}
	var rp protocol.RoomParticipants
	roster.Decode(&rp)
	if len(rp.Participants) != 0 {
		t.Errorf("Expected empty roster for the first member, got %d", len(rp.Participants))
	}

	// Second requester waits for the host.
	dispatchJoinRequest(hub, guest, "room-1", "user-b", "Bob")
	if lastOfType(t, drain(guest), protocol.TypeWaitingForApproval) == nil {
		t.Fatal("Expected waiting-for-approval for the second requester")
	}
	req := lastOfType(t, drain(host), protocol.TypeJoinRequestReceived)
	if req == nil {
		t.Fatal("Expected the host to receive the join request")
	}
	var jr protocol.JoinRequestReceived
	req.Decode(&jr)
	if jr.ConnectionID != "conn-b" || jr.DisplayName != "Bob" {
		t.Errorf("Expected Bob's request, got %+v", jr)
	}

	// The host approves; the guest joins and both sides learn about each other.
	hub.Dispatch(host, protocol.MustMessage(protocol.TypeResolveJoin, protocol.ResolveJoin{
		ConnectionID: "conn-b",
		Approved:     true,
	}))
	approval := lastOfType(t, drain(guest), protocol.TypeJoinApproved)
	if approval == nil {
		t.Fatal("Expected join-approved for the guest")
	}
	approval.Decode(&ap)
	if ap.IsHost {
		t.Error("Expected isHost=false for an approved guest")
	}

	dispatchJoinRoom(hub, guest, "room-1", "user-b", "Bob")
	arrival := lastOfType(t, drain(host), protocol.TypeUserConnected)
	if arrival == nil {
		t.Fatal("Expected user-connected at the host")
	}
	var uc protocol.UserConnected
	arrival.Decode(&uc)
	if uc.ConnectionID != "conn-b" {
		t.Errorf("Expected conn-b in user-connected, got %s", uc.ConnectionID)
	}
	roster = lastOfType(t, drain(guest), protocol.TypeRoomParticipants)
	if roster == nil {
		t.Fatal("Expected room-participants for the guest")
	}
	roster.Decode(&rp)
	if len(rp.Participants) != 1 || rp.Participants[0].ConnectionID != "conn-a" {
		t.Errorf("Expected only conn-a in the guest's roster, got %+v", rp.Participants)
	}
}

func TestJoinFlowRejection(t *testing.T) {
	hub := NewHub()
	host := newTestHubClient(hub, "conn-a")
	guest := newTestHubClient(hub, "conn-b")

	dispatchJoinRequest(hub, host, "room-1", "user-a", "Alice")
	dispatchJoinRoom(hub, host, "room-1", "user-a", "Alice")
	drain(host)

	dispatchJoinRequest(hub, guest, "room-1", "user-b", "Bob")
	drain(guest)
	drain(host)

	hub.Dispatch(host, protocol.MustMessage(protocol.TypeResolveJoin, protocol.ResolveJoin{
		ConnectionID: "conn-b",
		Approved:     false,
	}))
	rejected := lastOfType(t, drain(guest), protocol.TypeJoinRejected)
	if rejected == nil {
		t.Fatal("Expected join-rejected for the declined guest")
	}
	var rej protocol.JoinRejected
	rejected.Decode(&rej)
	if rej.Reason == "" {
		t.Error("Expected a human-readable rejection reason")
	}

	// A guest that never joined can not be resolved twice.
	hub.Dispatch(host, protocol.MustMessage(protocol.TypeResolveJoin, protocol.ResolveJoin{
		ConnectionID: "conn-b",
		Approved:     true,
	}))
	if extra := lastOfType(t, drain(guest), protocol.TypeJoinApproved); extra != nil {
		t.Error("Expected re-resolution of a consumed request to deliver nothing")
	}
}

func TestResolveByNonHostIgnored(t *testing.T) {
	hub := NewHub()
	host := newTestHubClient(hub, "conn-a")
	guest := newTestHubClient(hub, "conn-b")
	impostor := newTestHubClient(hub, "conn-c")

	dispatchJoinRequest(hub, host, "room-1", "user-a", "Alice")
	dispatchJoinRoom(hub, host, "room-1", "user-a", "Alice")
	dispatchJoinRequest(hub, guest, "room-1", "user-b", "Bob")
	drain(host)
	drain(guest)

	hub.Dispatch(impostor, protocol.MustMessage(protocol.TypeResolveJoin, protocol.ResolveJoin{
		ConnectionID: "conn-b",
		Approved:     true,
	}))
	if got := drain(guest); len(got) != 0 {
		t.Errorf("Expected a non-host verdict to be ignored, guest got %d messages", len(got))
	}

	// The real host can still resolve afterwards.
	hub.Dispatch(host, protocol.MustMessage(protocol.TypeResolveJoin, protocol.ResolveJoin{
		ConnectionID: "conn-b",
		Approved:     true,
	}))
	if lastOfType(t, drain(guest), protocol.TypeJoinApproved) == nil {
		t.Error("Expected the host's verdict to still apply")
	}
}

func TestChatEchoesToSender(t *testing.T) {
	hub := NewHub()
	a := newTestHubClient(hub, "conn-a")
	b := newTestHubClient(hub, "conn-b")
	setupTwoMemberRoom(hub, a, b)

	chat := protocol.ChatMessage{
		RoomID:     "room-1",
		ID:         "msg-1",
		SenderName: "Alice",
		Body:       "hello there",
	}
	hub.Dispatch(a, protocol.MustMessage(protocol.TypeChatMessage, chat))

	for _, c := range []*Client{a, b} {
		got := lastOfType(t, drain(c), protocol.TypeChatMessage)
		if got == nil {
			t.Fatalf("Expected chat delivered to %s", c.ID)
		}
		var echoed protocol.ChatMessage
		got.Decode(&echoed)
		if echoed != chat {
			t.Errorf("Expected verbatim chat for %s, got %+v", c.ID, echoed)
		}
	}
}

func TestReactionExcludesSender(t *testing.T) {
	hub := NewHub()
	a := newTestHubClient(hub, "conn-a")
	b := newTestHubClient(hub, "conn-b")
	setupTwoMemberRoom(hub, a, b)

	hub.Dispatch(a, protocol.MustMessage(protocol.TypeSendReaction, protocol.Reaction{
		RoomID:             "room-1",
		SourceConnectionID: "conn-a",
		Emoji:              "👏",
	}))

	if got := lastOfType(t, drain(a), protocol.TypePeerReaction); got != nil {
		t.Error("Expected the sender to be excluded from the reaction fan-out")
	}
	got := lastOfType(t, drain(b), protocol.TypePeerReaction)
	if got == nil {
		t.Fatal("Expected peer-reaction at conn-b")
	}
	var r protocol.Reaction
	got.Decode(&r)
	if r.Emoji != "👏" || r.SourceConnectionID != "conn-a" {
		t.Errorf("Expected Alice's reaction, got %+v", r)
	}
}

func TestHandToggleExcludesSender(t *testing.T) {
	hub := NewHub()
	a := newTestHubClient(hub, "conn-a")
	b := newTestHubClient(hub, "conn-b")
	setupTwoMemberRoom(hub, a, b)

	hub.Dispatch(b, protocol.MustMessage(protocol.TypeToggleHand, protocol.HandToggle{
		RoomID:             "room-1",
		SourceConnectionID: "conn-b",
		IsRaised:           true,
	}))

	if got := lastOfType(t, drain(b), protocol.TypePeerHandToggled); got != nil {
		t.Error("Expected the sender to be excluded from the hand fan-out")
	}
	got := lastOfType(t, drain(a), protocol.TypePeerHandToggled)
	if got == nil {
		t.Fatal("Expected peer-hand-toggled at conn-a")
	}
	var h protocol.HandToggle
	got.Decode(&h)
	if !h.IsRaised || h.SourceConnectionID != "conn-b" {
		t.Errorf("Expected Bob's raised hand, got %+v", h)
	}
}

func TestMediaToggleExcludesSender(t *testing.T) {
	hub := NewHub()
	a := newTestHubClient(hub, "conn-a")
	b := newTestHubClient(hub, "conn-b")
	setupTwoMemberRoom(hub, a, b)

	hub.Dispatch(a, protocol.MustMessage(protocol.TypeToggleMedia, protocol.MediaToggle{
		RoomID:             "room-1",
		SourceConnectionID: "conn-a",
		Kind:               "screen",
		Enabled:            true,
	}))

	if got := lastOfType(t, drain(a), protocol.TypePeerToggledMedia); got != nil {
		t.Error("Expected the sender to be excluded from the media-toggle fan-out")
	}
	got := lastOfType(t, drain(b), protocol.TypePeerToggledMedia)
	if got == nil {
		t.Fatal("Expected peer-toggled-media at conn-b")
	}
	var m protocol.MediaToggle
	got.Decode(&m)
	if m.Kind != "screen" || !m.Enabled {
		t.Errorf("Expected screen on, got %+v", m)
	}
}

func TestSignalRelayThroughDispatch(t *testing.T) {
	hub := NewHub()
	a := newTestHubClient(hub, "conn-a")
	b := newTestHubClient(hub, "conn-b")

	offer := protocol.MustMessage(protocol.TypeOffer, protocol.Signal{
		Target: "conn-b",
		Caller: "conn-a",
		Data:   json.RawMessage(`{"type":"offer","sdp":"v=0"}`),
	})
	hub.Dispatch(a, offer)

	got := lastOfType(t, drain(b), protocol.TypeOffer)
	if got == nil {
		t.Fatal("Expected the offer at conn-b")
	}
	var sig protocol.Signal
	got.Decode(&sig)
	if sig.Caller != "conn-a" {
		t.Errorf("Expected caller conn-a, got %s", sig.Caller)
	}

	// Candidates to an unknown target disappear quietly.
	hub.Dispatch(a, protocol.MustMessage(protocol.TypeICECandidate, protocol.Signal{
		Target: "conn-gone",
		Caller: "conn-a",
		Data:   json.RawMessage(`{"candidate":"candidate:1"}`),
	}))
}

func TestDisconnectNotifiesAndPromotes(t *testing.T) {
	hub := NewHub()
	a := newTestHubClient(hub, "conn-a")
	b := newTestHubClient(hub, "conn-b")
	c := newTestHubClient(hub, "conn-c")

	dispatchJoinRequest(hub, a, "room-1", "user-a", "Alice")
	dispatchJoinRoom(hub, a, "room-1", "user-a", "Alice")
	for _, g := range []*Client{c, b} {
		dispatchJoinRequest(hub, g, "room-1", "user-"+g.ID, g.ID)
		hub.Dispatch(a, protocol.MustMessage(protocol.TypeResolveJoin, protocol.ResolveJoin{
			ConnectionID: g.ID,
			Approved:     true,
		}))
		dispatchJoinRoom(hub, g, "room-1", "user-"+g.ID, g.ID)
	}
	drain(a)
	drain(b)
	drain(c)

	hub.handleDisconnect(a)

	for _, remaining := range []*Client{b, c} {
		msgs := drain(remaining)
		gone := lastOfType(t, msgs, protocol.TypeUserDisconnected)
		if gone == nil {
			t.Fatalf("Expected user-disconnected at %s", remaining.ID)
		}
		var ud protocol.UserDisconnected
		gone.Decode(&ud)
		if ud.ConnectionID != "conn-a" {
			t.Errorf("Expected conn-a in the departure notice, got %s", ud.ConnectionID)
		}

		promoted := lastOfType(t, msgs, protocol.TypeYouAreHost)
		if remaining.ID == "conn-b" && promoted == nil {
			t.Error("Expected conn-b to be promoted to host")
		}
		if remaining.ID == "conn-c" && promoted != nil {
			t.Error("Expected conn-c not to be promoted")
		}
	}

	if _, ok := hub.registry.Get("conn-a"); ok {
		t.Error("Expected conn-a removed from the registry")
	}

	room, ok := hub.directory.Room("room-1")
	if !ok {
		t.Fatal("Expected room-1 to survive with two members")
	}
	if room.Host() != "conn-b" {
		t.Errorf("Expected conn-b to host room-1, got %s", room.Host())
	}
}

func TestQueueAfterDisconnectIsDropped(t *testing.T) {
	hub := NewHub()
	a := newTestHubClient(hub, "conn-a")
	b := newTestHubClient(hub, "conn-b")
	setupTwoMemberRoom(hub, a, b)
	drain(a)
	drain(b)

	// A relay running on another connection's read pump may still hold the
	// handle it fetched from the registry when the hub processes the
	// target's disconnect. The late delivery must not take the server down.
	target, ok := hub.registry.Get("conn-b")
	if !ok {
		t.Fatal("Expected conn-b in the registry")
	}
	hub.handleDisconnect(b)

	target.Queue(protocol.MustMessage(protocol.TypeChatMessage, protocol.ChatMessage{
		RoomID: "room-1",
		Body:   "late delivery",
	}))

	// The disconnect itself is idempotent too.
	hub.handleDisconnect(b)
}

// setupTwoMemberRoom walks both clients through the full admission flow and
// discards the traffic it produced.
func setupTwoMemberRoom(hub *Hub, host, guest *Client) {
	dispatchJoinRequest(hub, host, "room-1", "user-"+host.ID, host.ID)
	dispatchJoinRoom(hub, host, "room-1", "user-"+host.ID, host.ID)
	dispatchJoinRequest(hub, guest, "room-1", "user-"+guest.ID, guest.ID)
	hub.Dispatch(host, protocol.MustMessage(protocol.TypeResolveJoin, protocol.ResolveJoin{
		ConnectionID: guest.ID,
		Approved:     true,
	}))
	dispatchJoinRoom(hub, guest, "room-1", "user-"+guest.ID, guest.ID)
	drain(host)
	drain(guest)
}
