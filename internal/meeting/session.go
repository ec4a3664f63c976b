package meeting

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/config"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/engage"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/media"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/peer"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/protocol"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/roomstore"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/signalclient"
)

// Options configures a meeting session.
type Options struct {
	Config      *config.Config
	RoomID      string
	DisplayName string
	Provider    media.Provider
	Store       *roomstore.Store
	ReactionTTL time.Duration
}

// Hooks are optional callbacks the presentation layer plugs in. Any of them
// may be nil. They are invoked from the session's event loop goroutine.
type Hooks struct {
	OnChat        func(protocol.ChatMessage)
	OnPeerJoined  func(protocol.Participant)
	OnPeerLeft    func(protocol.UserDisconnected)
	OnJoinRequest func(protocol.JoinRequestReceived)
	OnReaction    func(engage.Reaction)
	OnHand        func(connectionID string, raised bool)
	OnMediaToggle func(protocol.MediaToggle)
	OnHostChange  func(isHost bool)
	OnRemoteTrack func(remoteID string, track *webrtc.TrackRemote)
}

// Session is one client's presence in one room: the signaling connection,
// the per-peer negotiation engines, the local media, and the ephemeral
// chat/reaction/hand state.
type Session struct {
	opts    Options
	hooks   Hooks
	client  *signalclient.Client
	handler *signalclient.Handler
	media   *media.Session
	engine  *peer.Engine

	reactions *engage.Board
	hands     *engage.HandSet

	userID string
	connID string

	mu           sync.Mutex
	isHost       bool
	participants map[string]protocol.Participant
	chat         []protocol.ChatMessage

	closeOnce sync.Once
}

// signaler adapts the relay connection to the negotiation engine.
type signaler struct {
	client *signalclient.Client
	connID string
}

func (s signaler) send(msgType, target string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg, err := protocol.NewMessage(msgType, protocol.Signal{
		Target: target,
		Caller: s.connID,
		Data:   data,
	})
	if err != nil {
		return err
	}
	s.client.Send(msg)
	return nil
}

func (s signaler) SendOffer(target string, sdp webrtc.SessionDescription) error {
	return s.send(protocol.TypeOffer, target, sdp)
}

func (s signaler) SendAnswer(target string, sdp webrtc.SessionDescription) error {
	return s.send(protocol.TypeAnswer, target, sdp)
}

func (s signaler) SendCandidate(target string, candidate webrtc.ICECandidateInit) error {
	return s.send(protocol.TypeICECandidate, target, candidate)
}

// Dial connects to the coordination server, waits for the connection id
// assignment, and acquires local media. It does not join a room yet.
func Dial(ctx context.Context, opts Options, hooks Hooks) (*Session, error) {
	client := signalclient.NewClient(opts.Config.WebSocketURL)
	if err := client.Connect(); err != nil {
		return nil, NewError("connect to server", err)
	}

	handler := signalclient.NewHandler(client)
	go handler.Start()

	var connID string
	select {
	case w := <-handler.Welcome:
		connID = w.ConnectionID
	case <-handler.Disconnected:
		return nil, NewError("connect to server", ErrServerClosed)
	case <-ctx.Done():
		client.Close()
		return nil, ctx.Err()
	}

	mediaSession := media.Open(opts.Provider)

	s := &Session{
		opts:         opts,
		hooks:        hooks,
		client:       client,
		handler:      handler,
		media:        mediaSession,
		reactions:    engage.NewBoard(opts.ReactionTTL),
		hands:        engage.NewHandSet(),
		userID:       uuid.NewString(),
		connID:       connID,
		participants: make(map[string]protocol.Participant),
	}
	s.engine = peer.NewEngine(connID, signaler{client: client, connID: connID}, mediaSession, opts.Config.ICEServers())
	if hooks.OnRemoteTrack != nil {
		s.engine.OnRemoteTrack(hooks.OnRemoteTrack)
	}
	return s, nil
}

// ConnectionID returns the server-assigned connection id.
func (s *Session) ConnectionID() string { return s.connID }

// UserID returns the client-generated id that survives reconnects.
func (s *Session) UserID() string { return s.userID }

// DisplayName returns the name shown to other participants.
func (s *Session) DisplayName() string { return s.opts.DisplayName }

// MediaWarning surfaces the degradation notice from media acquisition.
func (s *Session) MediaWarning() string { return s.media.Warning() }

// IsHost reports whether this session currently hosts the room.
func (s *Session) IsHost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isHost
}

// Reactions exposes the reaction display board.
func (s *Session) Reactions() *engage.Board { return s.reactions }

// Hands exposes the raised-hand set.
func (s *Session) Hands() *engage.HandSet { return s.hands }

// Participants returns a snapshot of the known remote participants.
func (s *Session) Participants() []protocol.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	return out
}

// ChatLog returns the messages seen this session, oldest first.
func (s *Session) ChatLog() []protocol.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.ChatMessage, len(s.chat))
	copy(out, s.chat)
	return out
}

// Join runs the admission round trip: request, wait for the host's verdict
// (immediate for a vacant room), then finalize membership. Ctx bounds the
// wait; the reference behavior imposes no timeout of its own.
func (s *Session) Join(ctx context.Context) error {
	claims := false
	if s.opts.Store != nil {
		claims = s.opts.Store.Claims(s.opts.RoomID)
	}

	s.client.Send(protocol.MustMessage(protocol.TypeRequestJoin, protocol.JoinRequest{
		RoomID:      s.opts.RoomID,
		UserID:      s.userID,
		DisplayName: s.opts.DisplayName,
		ClaimsHost:  claims,
	}))

	for {
		select {
		case approved := <-s.handler.Approved:
			s.mu.Lock()
			s.isHost = approved.IsHost
			s.mu.Unlock()

			if approved.IsHost && s.opts.Store != nil {
				if err := s.opts.Store.Add(s.opts.RoomID); err != nil {
					slog.Warn("could not record room ownership", "err", err)
				}
			}

			s.client.Send(protocol.MustMessage(protocol.TypeJoinRoom, protocol.JoinRoom{
				RoomID:      s.opts.RoomID,
				UserID:      s.userID,
				DisplayName: s.opts.DisplayName,
			}))
			return nil

		case <-s.handler.Waiting:
			slog.Info("waiting for host approval", "room", s.opts.RoomID)

		case reason := <-s.handler.Rejected:
			return WrapError("join room", ErrJoinRejected, reason)

		case <-s.handler.Disconnected:
			return NewError("join room", ErrServerClosed)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run processes server events until the connection drops or ctx is
// cancelled. Call it after Join, typically in its own goroutine.
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case participants := <-s.handler.Participants:
			// The newcomer initiates negotiation with everyone already
			// present. Existing members offer too when they hear
			// user-connected; the polite/impolite tie-break collapses any
			// collision into a single converged description.
			for _, p := range participants {
				s.addParticipant(p)
				if err := s.engine.Connect(p.ConnectionID); err != nil {
					slog.Error("negotiation start failed", "remote", p.ConnectionID, "err", err)
				}
			}

		case arrival := <-s.handler.UserConnected:
			p := protocol.Participant{
				ConnectionID: arrival.ConnectionID,
				UserID:       arrival.UserID,
				DisplayName:  arrival.DisplayName,
			}
			s.addParticipant(p)
			if err := s.engine.Connect(arrival.ConnectionID); err != nil {
				slog.Error("negotiation start failed", "remote", arrival.ConnectionID, "err", err)
			}
			if s.hooks.OnPeerJoined != nil {
				s.hooks.OnPeerJoined(p)
			}

		case departure := <-s.handler.UserDisconnected:
			s.engine.Disconnect(departure.ConnectionID)
			s.hands.Drop(departure.ConnectionID)
			s.mu.Lock()
			delete(s.participants, departure.ConnectionID)
			s.mu.Unlock()
			if s.hooks.OnPeerLeft != nil {
				s.hooks.OnPeerLeft(departure)
			}

		case sig := <-s.handler.Offers:
			if err := s.engine.HandleOffer(sig.Caller, sig.Data); err != nil {
				slog.Error("offer handling failed", "remote", sig.Caller, "err", err)
			}

		case sig := <-s.handler.Answers:
			if err := s.engine.HandleAnswer(sig.Caller, sig.Data); err != nil {
				slog.Error("answer handling failed", "remote", sig.Caller, "err", err)
			}

		case sig := <-s.handler.Candidates:
			if err := s.engine.HandleCandidate(sig.Caller, sig.Data); err != nil {
				slog.Debug("candidate handling failed", "remote", sig.Caller, "err", err)
			}

		case msg := <-s.handler.Chat:
			s.mu.Lock()
			s.chat = append(s.chat, msg)
			s.mu.Unlock()
			if s.hooks.OnChat != nil {
				s.hooks.OnChat(msg)
			}

		case req := <-s.handler.JoinRequests:
			if s.hooks.OnJoinRequest != nil {
				s.hooks.OnJoinRequest(req)
			}

		case <-s.handler.YouAreHost:
			s.mu.Lock()
			s.isHost = true
			s.mu.Unlock()
			if s.hooks.OnHostChange != nil {
				s.hooks.OnHostChange(true)
			}

		case reaction := <-s.handler.Reactions:
			r := s.reactions.Add(reaction.SourceConnectionID, reaction.Emoji)
			if s.hooks.OnReaction != nil {
				s.hooks.OnReaction(r)
			}

		case hand := <-s.handler.Hands:
			s.hands.Set(hand.SourceConnectionID, hand.IsRaised)
			if s.hooks.OnHand != nil {
				s.hooks.OnHand(hand.SourceConnectionID, hand.IsRaised)
			}

		case toggle := <-s.handler.MediaToggles:
			if s.hooks.OnMediaToggle != nil {
				s.hooks.OnMediaToggle(toggle)
			}

		case <-s.handler.Disconnected:
			return ErrServerClosed

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) addParticipant(p protocol.Participant) {
	s.mu.Lock()
	s.participants[p.ConnectionID] = p
	s.mu.Unlock()
}

// SendChat relays a chat message to the room. The server echoes it back to
// every connection including this one, which is when it lands in ChatLog.
func (s *Session) SendChat(body string) {
	if body == "" {
		return
	}
	s.client.Send(protocol.MustMessage(protocol.TypeChatMessage, protocol.ChatMessage{
		RoomID:          s.opts.RoomID,
		ID:              uuid.NewString(),
		SenderName:      s.opts.DisplayName,
		Body:            body,
		TimestampMillis: time.Now().UnixMilli(),
	}))
}

// SendReaction broadcasts a reaction and displays it locally right away;
// the server excludes this connection from the fan-out.
func (s *Session) SendReaction(emoji string) engage.Reaction {
	s.client.Send(protocol.MustMessage(protocol.TypeSendReaction, protocol.Reaction{
		RoomID:             s.opts.RoomID,
		SourceConnectionID: s.connID,
		Emoji:              emoji,
	}))
	return s.reactions.Add(s.connID, emoji)
}

// ToggleHand flips this client's raised-hand state and announces it. The
// local boolean is authoritative for this connection.
func (s *Session) ToggleHand() bool {
	raised := !s.hands.IsRaised(s.connID)
	s.hands.Set(s.connID, raised)
	s.client.Send(protocol.MustMessage(protocol.TypeToggleHand, protocol.HandToggle{
		RoomID:             s.opts.RoomID,
		SourceConnectionID: s.connID,
		IsRaised:           raised,
	}))
	return raised
}

// ResolveJoinRequest sends the host's verdict on a pending requester.
func (s *Session) ResolveJoinRequest(requesterConnectionID string, approved bool) {
	s.client.Send(protocol.MustMessage(protocol.TypeResolveJoin, protocol.ResolveJoin{
		ConnectionID: requesterConnectionID,
		Approved:     approved,
	}))
}

// StartScreenShare swaps outgoing video to a screen capture on every link
// and announces the change.
func (s *Session) StartScreenShare() error {
	if err := s.engine.StartScreenShare(); err != nil {
		return NewError("start screen share", err)
	}
	s.sendMediaToggle("screen", true)
	return nil
}

// StopScreenShare reverts to the camera. A camera reacquisition failure is
// returned for surfacing but leaves the session running with video off.
func (s *Session) StopScreenShare() error {
	err := s.engine.StopScreenShare()
	s.sendMediaToggle("screen", false)
	if err != nil {
		return NewError("stop screen share", err)
	}
	return nil
}

// SetAudioEnabled pauses or resumes the microphone and announces it.
func (s *Session) SetAudioEnabled(enabled bool) {
	s.media.SetAudioEnabled(enabled)
	s.sendMediaToggle("audio", enabled)
}

// SetVideoEnabled pauses or resumes the camera and announces it.
func (s *Session) SetVideoEnabled(enabled bool) {
	s.media.SetVideoEnabled(enabled)
	s.sendMediaToggle("video", enabled)
}

func (s *Session) sendMediaToggle(kind string, enabled bool) {
	s.client.Send(protocol.MustMessage(protocol.TypeToggleMedia, protocol.MediaToggle{
		RoomID:             s.opts.RoomID,
		SourceConnectionID: s.connID,
		Kind:               kind,
		Enabled:            enabled,
	}))
}

// Close tears the session down: media tracks are released first so capture
// hardware is freed even mid-negotiation, then peer links, then the
// signaling connection.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.engine.Close()
		s.reactions.Close()
		s.client.Close()
	})
}
