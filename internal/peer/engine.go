package peer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/media"
)

// Signaler delivers negotiation payloads to a specific remote participant.
// The meeting session implements it on top of the relay connection.
type Signaler interface {
	SendOffer(target string, sdp webrtc.SessionDescription) error
	SendAnswer(target string, sdp webrtc.SessionDescription) error
	SendCandidate(target string, candidate webrtc.ICECandidateInit) error
}

// RemoteTrackHandler receives media tracks arriving from a remote
// participant.
type RemoteTrackHandler func(remoteID string, track *webrtc.TrackRemote)

// Engine drives one negotiation state machine per remote participant in the
// current room. All links share the local media session read-only; track
// replacement and link creation are serialized against each other so a link
// created mid-replacement always carries the currently active track.
type Engine struct {
	mu         sync.Mutex
	localID    string
	signaler   Signaler
	session    *media.Session
	iceServers []webrtc.ICEServer
	links      map[string]*Link
	onTrack    RemoteTrackHandler
	closed     bool
}

func NewEngine(localID string, signaler Signaler, session *media.Session, iceServers []webrtc.ICEServer) *Engine {
	return &Engine{
		localID:    localID,
		signaler:   signaler,
		session:    session,
		iceServers: iceServers,
		links:      make(map[string]*Link),
	}
}

// OnRemoteTrack registers the handler for inbound media. Set it before the
// first link exists.
func (e *Engine) OnRemoteTrack(h RemoteTrackHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTrack = h
}

// newLink builds the peer connection for remoteID and attaches the currently
// active local tracks. Caller holds e.mu.
func (e *Engine) newLink(remoteID string) (*Link, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: e.iceServers})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	link := &Link{
		remoteID: remoteID,
		pc:       pc,
		polite:   e.localID < remoteID,
	}

	for _, track := range e.session.Tracks() {
		sender, err := pc.AddTrack(track)
		if err != nil {
			pc.Close()
			return nil, fmt.Errorf("attach local track: %w", err)
		}
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			link.videoSender = sender
		}
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		if err := e.signaler.SendCandidate(remoteID, c.ToJSON()); err != nil {
			slog.Debug("send candidate failed", "remote", remoteID, "err", err)
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		e.mu.Lock()
		handler := e.onTrack
		e.mu.Unlock()
		if handler != nil {
			handler(remoteID, track)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Debug("peer connection state", "remote", remoteID, "state", state.String())
	})

	e.links[remoteID] = link
	return link, nil
}

// Connect opens a link toward a participant we just learned about and sends
// the initial offer. It is a no-op when a link already exists, so racing a
// user-connected notification against an inbound offer is harmless.
func (e *Engine) Connect(remoteID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	if _, ok := e.links[remoteID]; ok {
		return nil
	}

	link, err := e.newLink(remoteID)
	if err != nil {
		return err
	}

	offer, err := link.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := link.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local offer: %w", err)
	}
	link.state = StateOfferSent

	return e.signaler.SendOffer(remoteID, *link.pc.LocalDescription())
}

// HandleOffer applies a remote offer and answers it. A link is created on
// first contact. When both sides offered at once, the impolite side ignores
// the incoming offer and lets its own stand; the polite side abandons its
// own offer, rebuilding the link so the remote offer lands on a clean
// connection.
func (e *Engine) HandleOffer(caller string, raw json.RawMessage) error {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(raw, &offer); err != nil {
		return fmt.Errorf("decode offer: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}

	link, ok := e.links[caller]
	if !ok {
		var err error
		if link, err = e.newLink(caller); err != nil {
			return err
		}
		link.state = StateOfferReceived
	}

	if link.state == StateOfferSent {
		if !link.polite {
			slog.Debug("ignoring colliding offer", "remote", caller)
			return nil
		}
		// Discard our own offer by replacing the whole link; the remote
		// offer is then applied to a connection with no pending local
		// description.
		link.close()
		delete(e.links, caller)
		rebuilt, err := e.newLink(caller)
		if err != nil {
			return fmt.Errorf("rebuild link after colliding offers: %w", err)
		}
		rebuilt.state = StateOfferReceived
		link = rebuilt
	}

	if err := link.setRemoteDescription(offer); err != nil {
		return fmt.Errorf("apply remote offer: %w", err)
	}

	answer, err := link.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := link.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local answer: %w", err)
	}
	link.state = StateStable

	return e.signaler.SendAnswer(caller, *link.pc.LocalDescription())
}

// HandleAnswer completes a negotiation we initiated. Answers for unknown
// links or links not waiting on one are stale and dropped.
func (e *Engine) HandleAnswer(caller string, raw json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(raw, &answer); err != nil {
		return fmt.Errorf("decode answer: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	link, ok := e.links[caller]
	if !ok || link.state != StateOfferSent {
		slog.Debug("dropping stale answer", "remote", caller)
		return nil
	}

	if err := link.setRemoteDescription(answer); err != nil {
		return fmt.Errorf("apply remote answer: %w", err)
	}
	link.state = StateStable
	return nil
}

// HandleCandidate applies or buffers a remote ICE candidate. Candidates for
// unknown links are dropped.
func (e *Engine) HandleCandidate(caller string, raw json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return fmt.Errorf("decode candidate: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	link, ok := e.links[caller]
	if !ok {
		slog.Debug("dropping candidate for unknown link", "remote", caller)
		return nil
	}
	return link.addCandidate(candidate)
}

// Disconnect tears down the link to a departed participant.
func (e *Engine) Disconnect(remoteID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if link, ok := e.links[remoteID]; ok {
		link.close()
		delete(e.links, remoteID)
	}
}

// LinkState reports the negotiation state of the link to remoteID.
func (e *Engine) LinkState(remoteID string) (State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	link, ok := e.links[remoteID]
	if !ok {
		return StateIdle, false
	}
	return link.state, true
}

// LinkCount reports how many peer links exist.
func (e *Engine) LinkCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.links)
}

// StartScreenShare swaps the outgoing video on every link to a screen
// capture, without an offer/answer round trip. When the capture ends on its
// own the engine falls back to the camera.
func (e *Engine) StartScreenShare() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}

	screen, err := e.session.StartShare()
	if err != nil {
		return err
	}
	screen.OnEnded(func() {
		if err := e.StopScreenShare(); err != nil {
			slog.Warn("camera fallback after screen share ended", "err", err)
		}
	})

	e.replaceVideoLocked(screen)
	return nil
}

// StopScreenShare reverts every link to a fresh camera track. If the camera
// cannot be reacquired, outgoing video is disabled and the error returned;
// the session and the links stay up.
func (e *Engine) StopScreenShare() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cam, err := e.session.StopShare()
	if err != nil {
		e.replaceVideoLocked(nil)
		return err
	}
	if cam != nil {
		e.replaceVideoLocked(cam)
	}
	return nil
}

// replaceVideoLocked swaps the video sender's track on every existing link.
// A nil track stops outgoing video. Links without a video sender are left
// alone; they attached while video was unavailable and renegotiating them is
// a separate concern. Caller holds e.mu.
func (e *Engine) replaceVideoLocked(track media.Track) {
	for remoteID, link := range e.links {
		if link.videoSender == nil {
			continue
		}
		var err error
		if track == nil {
			err = link.videoSender.ReplaceTrack(nil)
		} else {
			err = link.videoSender.ReplaceTrack(track)
		}
		if err != nil {
			slog.Warn("replace video track failed", "remote", remoteID, "err", err)
		}
	}
}

// Close releases the local media first, so capture hardware is freed even
// if a negotiation is in flight, then closes every link.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true

	e.session.Close()
	for id, link := range e.links {
		link.close()
		delete(e.links, id)
	}
}
