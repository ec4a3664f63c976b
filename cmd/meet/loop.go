package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/engage"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/meeting"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/protocol"
	"github.com/Fathimaksalam/WebRTC-ChatApp/internal/ui"
)

// roomLoop is the interactive shell shown while inside a room. It owns the
// pending join-request list and renders session events as they land.
type roomLoop struct {
	mu      sync.Mutex
	pending []protocol.JoinRequestReceived
}

func newRoomLoop() *roomLoop {
	return &roomLoop{}
}

func (l *roomLoop) hooks() meeting.Hooks {
	return meeting.Hooks{
		OnChat: func(msg protocol.ChatMessage) {
			ts := time.UnixMilli(msg.TimestampMillis).Format("15:04")
			fmt.Printf("%s [%s] %s: %s\n", ui.IconChat, ts, ui.BoldStyle.Render(msg.SenderName), msg.Body)
		},
		OnPeerJoined: func(p protocol.Participant) {
			ui.PrintInfof("%s joined", p.DisplayName)
		},
		OnPeerLeft: func(d protocol.UserDisconnected) {
			ui.PrintInfof("%s left", shortID(d.ConnectionID))
		},
		OnJoinRequest: func(req protocol.JoinRequestReceived) {
			l.mu.Lock()
			l.pending = append(l.pending, req)
			l.mu.Unlock()
			ui.PrintInfof("%s %s wants to join (/approve %s or /deny %s)",
				ui.IconWaiting, req.DisplayName, shortID(req.ConnectionID), shortID(req.ConnectionID))
		},
		OnReaction: func(r engage.Reaction) {
			fmt.Printf("%s  from %s\n", r.Emoji, shortID(r.SourceConnectionID))
		},
		OnHand: func(connectionID string, raised bool) {
			if raised {
				ui.PrintInfof("%s %s raised their hand", ui.IconHand, shortID(connectionID))
			} else {
				ui.PrintInfof("%s lowered their hand", shortID(connectionID))
			}
		},
		OnMediaToggle: func(t protocol.MediaToggle) {
			state := "off"
			if t.Enabled {
				state = "on"
			}
			ui.PrintInfof("%s turned %s %s", shortID(t.SourceConnectionID), t.Kind, state)
		},
		OnHostChange: func(isHost bool) {
			if isHost {
				ui.PrintSuccessf("%s You are now the host", ui.IconHost)
			}
		},
		OnRemoteTrack: func(remoteID string, track *webrtc.TrackRemote) {
			ui.PrintInfof("Receiving %s from %s", track.Kind(), shortID(remoteID))
		},
	}
}

// run blocks until the session ends or the user quits. Session events arrive
// on a background goroutine; stdin commands run here.
func (l *roomLoop) run(ctx context.Context, session *meeting.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- session.Run(ctx)
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	printHelp()

	for {
		select {
		case err := <-runErr:
			if errors.Is(err, meeting.ErrServerClosed) {
				ui.PrintWarning("Server connection lost")
				return err
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := l.handleLine(session, line); done {
				return nil
			}
		}
	}
}

// handleLine runs one stdin command. It returns true when the user quits.
func (l *roomLoop) handleLine(session *meeting.Session, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		session.SendChat(line)
		return false
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "quit", "q", "leave":
		return true

	case "help", "h":
		printHelp()

	case "react":
		if arg == "" {
			arg = "👍"
		}
		session.SendReaction(arg)

	case "hand":
		if session.ToggleHand() {
			ui.PrintInfof("%s Hand raised", ui.IconHand)
		} else {
			ui.PrintInfo("Hand lowered")
		}

	case "share":
		if err := session.StartScreenShare(); err != nil {
			ui.PrintError(err.Error())
		} else {
			ui.PrintInfof("%s Screen sharing started", ui.IconScreen)
		}

	case "stop":
		if err := session.StopScreenShare(); err != nil {
			ui.PrintWarning(err.Error())
		} else {
			ui.PrintInfo("Screen sharing stopped")
		}

	case "mute":
		session.SetAudioEnabled(false)
		ui.PrintInfo("Microphone muted")

	case "unmute":
		session.SetAudioEnabled(true)
		ui.PrintInfo("Microphone on")

	case "video":
		switch arg {
		case "on":
			session.SetVideoEnabled(true)
			ui.PrintInfo("Camera on")
		case "off":
			session.SetVideoEnabled(false)
			ui.PrintInfo("Camera off")
		default:
			ui.PrintError("usage: /video on|off")
		}

	case "approve":
		l.resolve(session, arg, true)

	case "deny":
		l.resolve(session, arg, false)

	case "participants", "who":
		l.renderParticipants(session)

	default:
		ui.PrintErrorf("Unknown command /%s (try /help)", cmd)
	}
	return false
}

// resolve matches a pending join request by connection-id prefix and sends
// the host's verdict.
func (l *roomLoop) resolve(session *meeting.Session, prefix string, approved bool) {
	if !session.IsHost() {
		ui.PrintError("Only the host can resolve join requests")
		return
	}
	if prefix == "" {
		ui.PrintError("usage: /approve <connection-id> or /deny <connection-id>")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, req := range l.pending {
		if strings.HasPrefix(req.ConnectionID, prefix) {
			session.ResolveJoinRequest(req.ConnectionID, approved)
			l.pending = append(l.pending[:i], l.pending[i+1:]...)
			if approved {
				ui.PrintSuccessf("Admitted %s", req.DisplayName)
			} else {
				ui.PrintInfof("Declined %s", req.DisplayName)
			}
			return
		}
	}
	ui.PrintErrorf("No pending request matching %q", prefix)
}

func (l *roomLoop) renderParticipants(session *meeting.Session) {
	// The host flag is only known for this client; the server does not
	// announce who hosts to the rest of the room.
	rows := []ui.ParticipantRow{{
		ConnectionID: session.ConnectionID(),
		DisplayName:  session.DisplayName() + " (you)",
		IsHost:       session.IsHost(),
		HandRaised:   session.Hands().IsRaised(session.ConnectionID()),
	}}
	for _, p := range session.Participants() {
		rows = append(rows, ui.ParticipantRow{
			ConnectionID: p.ConnectionID,
			DisplayName:  p.DisplayName,
			HandRaised:   session.Hands().IsRaised(p.ConnectionID),
		})
	}
	ui.RenderParticipants(rows)
}

func printHelp() {
	fmt.Println(ui.MutedStyle.Render(`Type a message and press enter to chat. Commands:
  /react [emoji]   send a reaction
  /hand            raise or lower your hand
  /share, /stop    start or stop screen sharing
  /mute, /unmute   toggle microphone
  /video on|off    toggle camera
  /approve <id>    admit a waiting participant (host)
  /deny <id>       decline a waiting participant (host)
  /participants    show who is in the room
  /quit            leave the room`))
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
