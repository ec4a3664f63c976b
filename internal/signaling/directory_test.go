package signaling

import (
	"testing"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/protocol"
)

func joinReq(roomID, userID, name string) protocol.JoinRequest {
	return protocol.JoinRequest{RoomID: roomID, UserID: userID, DisplayName: name}
}

func TestRequestJoinVacantRoom(t *testing.T) {
	d := NewDirectory()

	decision := d.RequestJoin("conn-a", joinReq("room-1", "user-a", "Alice"))
	if decision.Admission != AdmittedAsHost {
		t.Errorf("Expected first requester to be admitted as host, got %v", decision.Admission)
	}
	if d.RoomCount() != 1 {
		t.Errorf("Expected lazy room creation, got %d rooms", d.RoomCount())
	}

	room, ok := d.Room("room-1")
	if !ok {
		t.Fatal("Expected room-1 to exist")
	}
	if room.Host() != "conn-a" {
		t.Errorf("Expected conn-a to host room-1, got %s", room.Host())
	}
}

func TestRequestJoinHostedRoom(t *testing.T) {
	d := NewDirectory()
	d.RequestJoin("conn-a", joinReq("room-1", "user-a", "Alice"))

	decision := d.RequestJoin("conn-b", joinReq("room-1", "user-b", "Bob"))
	if decision.Admission != PendingApproval {
		t.Errorf("Expected second requester to wait for approval, got %v", decision.Admission)
	}
	if decision.HostID != "conn-a" {
		t.Errorf("Expected request routed to conn-a, got %s", decision.HostID)
	}
}

func TestRequestJoinRacingClaims(t *testing.T) {
	d := NewDirectory()

	// conn-a claimed the room but has not sent join-room yet. conn-b must
	// not be admitted as a second host in that window.
	d.RequestJoin("conn-a", joinReq("room-1", "user-a", "Alice"))
	decision := d.RequestJoin("conn-b", joinReq("room-1", "user-b", "Bob"))

	if decision.Admission != PendingApproval {
		t.Errorf("Expected pending approval during the claim window, got %v", decision.Admission)
	}
}

func TestResolveJoin(t *testing.T) {
	d := NewDirectory()
	d.RequestJoin("conn-a", joinReq("room-1", "user-a", "Alice"))
	d.RequestJoin("conn-b", joinReq("room-1", "user-b", "Bob"))

	// Only the host may resolve.
	if _, ok := d.ResolveJoin("conn-x", "conn-b"); ok {
		t.Error("Expected resolution by a non-host to be refused")
	}

	pending, ok := d.ResolveJoin("conn-a", "conn-b")
	if !ok {
		t.Fatal("Expected host resolution to succeed")
	}
	if pending.UserID != "user-b" || pending.RoomID != "room-1" {
		t.Errorf("Expected pending record for user-b in room-1, got %+v", pending)
	}

	// The request is consumed; resolving again is a no-op.
	if _, ok := d.ResolveJoin("conn-a", "conn-b"); ok {
		t.Error("Expected second resolution of the same request to be a no-op")
	}
}

func TestResolveJoinUnknownRequester(t *testing.T) {
	d := NewDirectory()
	d.RequestJoin("conn-a", joinReq("room-1", "user-a", "Alice"))

	if _, ok := d.ResolveJoin("conn-a", "conn-ghost"); ok {
		t.Error("Expected resolution of an unknown requester to be a no-op")
	}
}

func TestFinalizeJoinReturnsPriorMembers(t *testing.T) {
	d := NewDirectory()
	d.RequestJoin("conn-a", joinReq("room-1", "user-a", "Alice"))

	others := d.FinalizeJoin("room-1", protocol.Participant{ConnectionID: "conn-a", UserID: "user-a"})
	if len(others) != 0 {
		t.Errorf("Expected no prior members for the host, got %d", len(others))
	}

	others = d.FinalizeJoin("room-1", protocol.Participant{ConnectionID: "conn-b", UserID: "user-b"})
	if len(others) != 1 || others[0].ConnectionID != "conn-a" {
		t.Errorf("Expected conn-a as the only prior member, got %+v", others)
	}
}

func TestLeaveDropsPendingRequest(t *testing.T) {
	d := NewDirectory()
	d.RequestJoin("conn-a", joinReq("room-1", "user-a", "Alice"))
	d.RequestJoin("conn-b", joinReq("room-1", "user-b", "Bob"))

	d.Leave("conn-b")

	if _, ok := d.ResolveJoin("conn-a", "conn-b"); ok {
		t.Error("Expected pending request to be gone after the requester left")
	}
}

func TestLeaveDestroysEmptiedRoom(t *testing.T) {
	d := NewDirectory()
	d.RequestJoin("conn-a", joinReq("room-1", "user-a", "Alice"))
	d.FinalizeJoin("room-1", protocol.Participant{ConnectionID: "conn-a", UserID: "user-a"})

	updates := d.Leave("conn-a")
	if len(updates) != 1 {
		t.Fatalf("Expected one leave update, got %d", len(updates))
	}
	if !updates[0].RoomClosed {
		t.Error("Expected the emptied room to close")
	}
	if d.RoomCount() != 0 {
		t.Errorf("Expected no rooms left, got %d", d.RoomCount())
	}
}

func TestLeavePromotesNewHost(t *testing.T) {
	d := NewDirectory()
	d.RequestJoin("conn-a", joinReq("room-1", "user-a", "Alice"))
	d.FinalizeJoin("room-1", protocol.Participant{ConnectionID: "conn-a", UserID: "user-a"})
	d.FinalizeJoin("room-1", protocol.Participant{ConnectionID: "conn-c", UserID: "user-c"})
	d.FinalizeJoin("room-1", protocol.Participant{ConnectionID: "conn-b", UserID: "user-b"})

	updates := d.Leave("conn-a")
	if len(updates) != 1 {
		t.Fatalf("Expected one leave update, got %d", len(updates))
	}
	u := updates[0]
	if u.NewHost != "conn-b" {
		t.Errorf("Expected conn-b promoted, got %s", u.NewHost)
	}
	if u.Removed == nil || u.Removed.ConnectionID != "conn-a" {
		t.Errorf("Expected conn-a in the removal notice, got %+v", u.Removed)
	}
	if len(u.Remaining) != 2 {
		t.Errorf("Expected 2 remaining members, got %d", len(u.Remaining))
	}
	if u.RoomClosed {
		t.Error("Expected room to stay open")
	}
}

func TestLeaveReleasesPhantomHost(t *testing.T) {
	d := NewDirectory()

	// conn-a claimed the room and disconnected without ever joining it.
	d.RequestJoin("conn-a", joinReq("room-1", "user-a", "Alice"))
	d.Leave("conn-a")

	if d.RoomCount() != 0 {
		t.Errorf("Expected the abandoned room to be destroyed, got %d rooms", d.RoomCount())
	}

	// The room id is reusable afterwards.
	decision := d.RequestJoin("conn-b", joinReq("room-1", "user-b", "Bob"))
	if decision.Admission != AdmittedAsHost {
		t.Errorf("Expected fresh claim on the reused room id, got %v", decision.Admission)
	}
}

func TestLeaveHostWithPendingRequesters(t *testing.T) {
	d := NewDirectory()
	d.RequestJoin("conn-a", joinReq("room-1", "user-a", "Alice"))
	d.FinalizeJoin("room-1", protocol.Participant{ConnectionID: "conn-a", UserID: "user-a"})
	d.RequestJoin("conn-b", joinReq("room-1", "user-b", "Bob"))

	updates := d.Leave("conn-a")
	if len(updates) != 1 || !updates[0].RoomClosed {
		t.Fatal("Expected the room to close when its only member left")
	}

	// conn-b's request now points at a closed room and cannot be resolved.
	if _, ok := d.ResolveJoin("conn-a", "conn-b"); ok {
		t.Error("Expected resolution against a closed room to fail")
	}
}
