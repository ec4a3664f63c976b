package signaling

import (
	"log/slog"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/protocol"
)

// Relay forwards payloads without interpreting their content beyond the
// addressing it needs: a target connection id for directed signals, a room id
// for broadcasts. There is no delivery guarantee and no retry; a vanished
// target is the later user-disconnected event's problem, not the sender's.
type Relay struct {
	registry  *Registry
	directory *Directory
}

func NewRelay(registry *Registry, directory *Directory) *Relay {
	return &Relay{registry: registry, directory: directory}
}

// Direct forwards the message verbatim to the connection named in the
// payload's target field. Malformed addressing and unknown targets are
// silently dropped.
func (r *Relay) Direct(msg *protocol.Message) {
	var sig protocol.Signal
	if err := msg.Decode(&sig); err != nil || sig.Target == "" {
		slog.Debug("unaddressable directed relay", "type", msg.Type, "err", err)
		return
	}
	r.registry.Send(sig.Target, msg)
}

// Broadcast forwards the message to every current participant of the room.
// When excludeID is non-empty that connection is skipped, which is how
// reaction, hand and media-toggle signals avoid echoing to their sender;
// chat passes excludeID=="" so the sender's other connections hear it too.
func (r *Relay) Broadcast(roomID string, msg *protocol.Message, excludeID string) {
	room, ok := r.directory.Room(roomID)
	if !ok {
		slog.Debug("broadcast to unknown room", "room", roomID, "type", msg.Type)
		return
	}
	for _, p := range room.Participants() {
		if p.ConnectionID == excludeID {
			continue
		}
		r.registry.Send(p.ConnectionID, msg)
	}
}
