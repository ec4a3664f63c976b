package media

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrAlreadySharing = errors.New("screen share already active")
)

// Session holds the local media state shared by every peer link: one active
// video track, one active audio track. Links read the active tracks; only
// the local toggle and screen-share operations mutate them.
type Session struct {
	mu       sync.Mutex
	provider Provider
	video    Track
	audio    Track
	warning  string
	sharing  bool
	closed   bool
}

// Open acquires local media with graceful degradation: camera+microphone,
// then microphone only, then an empty session with a surfaced warning. It
// never fails outright; the session just carries fewer tracks.
func Open(provider Provider) *Session {
	s := &Session{provider: provider}

	video, audio, err := provider.UserMedia(true, true)
	if err == nil {
		s.video, s.audio = video, audio
		return s
	}
	slog.Warn("camera+microphone unavailable, trying audio only", "err", err)

	_, audio, err = provider.UserMedia(false, true)
	if err == nil {
		s.audio = audio
		return s
	}
	slog.Warn("audio unavailable, joining with empty stream", "err", err)

	s.warning = "Could not access camera/microphone. You are in viewer mode."
	return s
}

// Warning returns the degradation notice to surface, if any.
func (s *Session) Warning() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warning
}

// Video returns the active outgoing video track, which may be nil.
func (s *Session) Video() Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.video
}

// Audio returns the active outgoing audio track, which may be nil.
func (s *Session) Audio() Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio
}

// Tracks returns the currently active tracks.
func (s *Session) Tracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Track
	if s.video != nil {
		out = append(out, s.video)
	}
	if s.audio != nil {
		out = append(out, s.audio)
	}
	return out
}

// Sharing reports whether the active video source is a screen capture.
func (s *Session) Sharing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sharing
}

// StartShare swaps the active video source to a screen capture and returns
// the new track. The replaced camera track is released; screen-share stop
// reacquires a fresh one. The audio track is untouched.
func (s *Session) StartShare() (Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sharing {
		return nil, ErrAlreadySharing
	}

	screen, err := s.provider.DisplayMedia()
	if err != nil {
		return nil, fmt.Errorf("acquire screen capture: %w", err)
	}

	old := s.video
	s.video = screen
	s.sharing = true
	if old != nil {
		old.Close()
	}
	return screen, nil
}

// StopShare releases the screen track and reacquires a camera track. If the
// camera cannot be reacquired the session continues with video disabled and
// the error is returned for surfacing; nothing else about the session fails.
func (s *Session) StopShare() (Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sharing {
		return nil, nil
	}

	old := s.video
	s.sharing = false
	if old != nil {
		old.Close()
	}

	cam, _, err := s.provider.UserMedia(true, false)
	if err != nil {
		s.video = nil
		return nil, fmt.Errorf("reacquire camera: %w", err)
	}
	s.video = cam
	return cam, nil
}

// SetAudioEnabled pauses or resumes the outgoing audio source.
func (s *Session) SetAudioEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sw, ok := s.audio.(Switchable); ok {
		sw.SetEnabled(enabled)
	}
}

// SetVideoEnabled pauses or resumes the outgoing video source.
func (s *Session) SetVideoEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sw, ok := s.video.(Switchable); ok {
		sw.SetEnabled(enabled)
	}
}

// Close releases every held track. It runs synchronously so capture hardware
// is freed before the caller tears down peer links.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.video != nil {
		s.video.Close()
		s.video = nil
	}
	if s.audio != nil {
		s.audio.Close()
		s.audio = nil
	}
}
