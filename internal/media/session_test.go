package media

import (
	"strings"
	"testing"

	"github.com/pion/webrtc/v4"
)

// flakyProvider fails configurable parts of acquisition.
type flakyProvider struct {
	failVideo  bool
	failAudio  bool
	failScreen bool
}

func (p *flakyProvider) UserMedia(video, audio bool) (Track, Track, error) {
	if (video && p.failVideo) || (audio && p.failAudio) {
		return nil, nil, ErrCaptureUnavailable
	}
	var videoTrack, audioTrack Track
	if video {
		t, err := newSampleTrack(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "camera-test", "stream-test")
		if err != nil {
			return nil, nil, err
		}
		videoTrack = t
	}
	if audio {
		t, err := newSampleTrack(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "mic-test", "stream-test")
		if err != nil {
			return nil, nil, err
		}
		audioTrack = t
	}
	return videoTrack, audioTrack, nil
}

func (p *flakyProvider) DisplayMedia() (Track, error) {
	if p.failScreen {
		return nil, ErrCaptureUnavailable
	}
	return newSampleTrack(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "screen-test", "stream-test")
}

func TestOpenFullMedia(t *testing.T) {
	s := Open(&flakyProvider{})
	defer s.Close()

	if s.Video() == nil {
		t.Error("Expected a video track")
	}
	if s.Audio() == nil {
		t.Error("Expected an audio track")
	}
	if s.Warning() != "" {
		t.Errorf("Expected no warning, got %q", s.Warning())
	}
	if len(s.Tracks()) != 2 {
		t.Errorf("Expected 2 tracks, got %d", len(s.Tracks()))
	}
}

func TestOpenFallsBackToAudioOnly(t *testing.T) {
	s := Open(&flakyProvider{failVideo: true})
	defer s.Close()

	if s.Video() != nil {
		t.Error("Expected no video track")
	}
	if s.Audio() == nil {
		t.Error("Expected an audio track")
	}
	if s.Warning() != "" {
		t.Errorf("Expected no warning for audio-only mode, got %q", s.Warning())
	}
}

func TestOpenViewerMode(t *testing.T) {
	s := Open(&flakyProvider{failVideo: true, failAudio: true})
	defer s.Close()

	if len(s.Tracks()) != 0 {
		t.Errorf("Expected an empty session, got %d tracks", len(s.Tracks()))
	}
	if !strings.Contains(s.Warning(), "viewer mode") {
		t.Errorf("Expected a viewer-mode warning, got %q", s.Warning())
	}
}

func TestStartStopShare(t *testing.T) {
	s := Open(&flakyProvider{})
	defer s.Close()

	camera := s.Video().(*sampleTrack)

	screen, err := s.StartShare()
	if err != nil {
		t.Fatalf("StartShare failed: %v", err)
	}
	if !s.Sharing() {
		t.Error("Expected Sharing to be true")
	}
	if s.Video() != screen {
		t.Error("Expected the screen track to be the active video")
	}
	if !camera.closed {
		t.Error("Expected the replaced camera track to be released")
	}
	if s.Audio() == nil {
		t.Error("Expected the audio track to survive the swap")
	}

	if _, err := s.StartShare(); err != ErrAlreadySharing {
		t.Errorf("Expected ErrAlreadySharing on a second start, got %v", err)
	}

	cam, err := s.StopShare()
	if err != nil {
		t.Fatalf("StopShare failed: %v", err)
	}
	if s.Sharing() {
		t.Error("Expected Sharing to be false")
	}
	if cam == nil || s.Video() != cam {
		t.Error("Expected a fresh camera track after stopping")
	}
	if cam == Track(camera) {
		t.Error("Expected a reacquired camera, not the released one")
	}
	if screen.(*sampleTrack).closed != true {
		t.Error("Expected the screen track to be released")
	}

	// Stopping when not sharing is a no-op.
	if extra, err := s.StopShare(); extra != nil || err != nil {
		t.Errorf("Expected idempotent stop, got track %v err %v", extra, err)
	}
}

func TestStopShareCameraReacquireFailure(t *testing.T) {
	p := &flakyProvider{}
	s := Open(p)
	defer s.Close()

	if _, err := s.StartShare(); err != nil {
		t.Fatalf("StartShare failed: %v", err)
	}

	// The camera disappears while sharing.
	p.failVideo = true
	if _, err := s.StopShare(); err == nil {
		t.Fatal("Expected an error when the camera cannot be reacquired")
	}
	if s.Video() != nil {
		t.Error("Expected video to be disabled after the failure")
	}
	if s.Audio() == nil {
		t.Error("Expected the audio track to survive")
	}
	if s.Sharing() {
		t.Error("Expected sharing to be over despite the failure")
	}
}

func TestStartShareFailureKeepsCamera(t *testing.T) {
	p := &flakyProvider{failScreen: true}
	s := Open(p)
	defer s.Close()

	camera := s.Video()
	if _, err := s.StartShare(); err == nil {
		t.Fatal("Expected screen acquisition to fail")
	}
	if s.Sharing() {
		t.Error("Expected sharing to stay off")
	}
	if s.Video() != camera {
		t.Error("Expected the camera track to stay active")
	}
}

func TestSessionClose(t *testing.T) {
	s := Open(&flakyProvider{})
	video := s.Video().(*sampleTrack)
	audio := s.Audio().(*sampleTrack)

	s.Close()
	if !video.closed || !audio.closed {
		t.Error("Expected both tracks released on close")
	}
	if s.Video() != nil || s.Audio() != nil {
		t.Error("Expected no tracks after close")
	}

	// Close is idempotent.
	s.Close()
}

func TestTrackOnEnded(t *testing.T) {
	track, err := newSampleTrack(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "camera-test", "stream-test")
	if err != nil {
		t.Fatalf("newSampleTrack failed: %v", err)
	}

	fired := 0
	track.OnEnded(func() { fired++ })

	// Close does not count as the source ending on its own.
	track.Close()
	if fired != 0 {
		t.Errorf("Expected no OnEnded on Close, got %d", fired)
	}

	track2, _ := newSampleTrack(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "camera-test-2", "stream-test")
	track2.OnEnded(func() { fired++ })
	track2.end()
	if fired != 1 {
		t.Errorf("Expected OnEnded once after end, got %d", fired)
	}
}

func TestSetEnabled(t *testing.T) {
	s := Open(&flakyProvider{})
	defer s.Close()

	// Toggling must not detach the tracks, only pause their output.
	s.SetAudioEnabled(false)
	s.SetVideoEnabled(false)
	if len(s.Tracks()) != 2 {
		t.Errorf("Expected both tracks still attached, got %d", len(s.Tracks()))
	}
	if s.Audio().(*sampleTrack).enabled {
		t.Error("Expected audio disabled")
	}
	s.SetAudioEnabled(true)
	if !s.Audio().(*sampleTrack).enabled {
		t.Error("Expected audio re-enabled")
	}

	// Viewer-mode sessions accept toggles without panicking.
	empty := Open(&flakyProvider{failVideo: true, failAudio: true})
	defer empty.Close()
	empty.SetAudioEnabled(false)
	empty.SetVideoEnabled(true)
}
