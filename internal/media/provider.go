package media

import (
	"errors"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

// ErrCaptureUnavailable reports that a capture source could not be acquired.
var ErrCaptureUnavailable = errors.New("capture source unavailable")

// Provider acquires local capture sources. The negotiation core only deals in
// Tracks; what produces them (real devices, synthetic sources, files) is the
// provider's business.
type Provider interface {
	// UserMedia acquires camera and/or microphone tracks. Either returned
	// track is nil when not requested; an error means the requested
	// combination could not be satisfied at all.
	UserMedia(video, audio bool) (Track, Track, error)

	// DisplayMedia acquires a screen-capture video track.
	DisplayMedia() (Track, error)
}

// SyntheticProvider produces generated tracks. It is the default source for
// the headless client, where no real capture hardware is assumed.
type SyntheticProvider struct {
	StreamID string
	noVideo  bool
	noAudio  bool
}

func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{StreamID: uuid.NewString()}
}

// DisableVideo makes camera requests fail, as if no camera were attached.
func (p *SyntheticProvider) DisableVideo() { p.noVideo = true }

// DisableAudio makes microphone requests fail.
func (p *SyntheticProvider) DisableAudio() { p.noAudio = true }

func (p *SyntheticProvider) UserMedia(video, audio bool) (Track, Track, error) {
	if (video && p.noVideo) || (audio && p.noAudio) {
		return nil, nil, ErrCaptureUnavailable
	}
	var videoTrack, audioTrack Track
	if video {
		t, err := newSampleTrack(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "camera-"+uuid.NewString(), p.StreamID)
		if err != nil {
			return nil, nil, err
		}
		videoTrack = t
	}
	if audio {
		t, err := newSampleTrack(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "mic-"+uuid.NewString(), p.StreamID)
		if err != nil {
			if videoTrack != nil {
				videoTrack.Close()
			}
			return nil, nil, err
		}
		audioTrack = t
	}
	return videoTrack, audioTrack, nil
}

func (p *SyntheticProvider) DisplayMedia() (Track, error) {
	return newSampleTrack(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "screen-"+uuid.NewString(), p.StreamID)
}
