package peer

import (
	"github.com/pion/webrtc/v4"
)

// State is the SDP negotiation state of one peer link. ICE candidate
// accumulation is orthogonal: candidates buffer until a remote description
// exists, regardless of which side offered.
type State int

const (
	StateIdle State = iota
	StateOfferSent
	StateOfferReceived
	StateStable
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOfferSent:
		return "offer-sent"
	case StateOfferReceived:
		return "offer-received"
	case StateStable:
		return "stable"
	default:
		return "unknown"
	}
}

// Link is the negotiation and media relationship with one remote
// participant. All mutation happens under the owning engine's lock.
type Link struct {
	remoteID string
	pc       *webrtc.PeerConnection
	state    State

	// videoSender is the RTP sender carrying outgoing video, kept so track
	// replacement still works after the track was swapped or nilled out.
	videoSender *webrtc.RTPSender

	// polite marks which side yields when both peers offer at once: the
	// polite one abandons its own offer and answers the remote one, so the
	// pair always converges on a single description.
	polite bool

	// pendingCandidates buffers remote ICE candidates that arrived before
	// the remote description was set.
	pendingCandidates []webrtc.ICECandidateInit
	hasRemoteDesc     bool
}

// State returns the link's negotiation state.
func (l *Link) State() State {
	return l.state
}

// RemoteID returns the remote participant's connection id.
func (l *Link) RemoteID() string {
	return l.remoteID
}

// setRemoteDescription applies the description and drains any buffered
// candidates now that they have somewhere to land.
func (l *Link) setRemoteDescription(desc webrtc.SessionDescription) error {
	if err := l.pc.SetRemoteDescription(desc); err != nil {
		return err
	}
	l.hasRemoteDesc = true
	for _, c := range l.pendingCandidates {
		if err := l.pc.AddICECandidate(c); err != nil {
			return err
		}
	}
	l.pendingCandidates = nil
	return nil
}

// addCandidate applies or buffers one remote ICE candidate.
func (l *Link) addCandidate(candidate webrtc.ICECandidateInit) error {
	if !l.hasRemoteDesc {
		l.pendingCandidates = append(l.pendingCandidates, candidate)
		return nil
	}
	return l.pc.AddICECandidate(candidate)
}

func (l *Link) close() {
	l.pc.Close()
}
