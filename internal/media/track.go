package media

import (
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	pmedia "github.com/pion/webrtc/v4/pkg/media"
)

// Track is a local media track that can be attached to peer links and whose
// underlying source can be released. OnEnded registers a callback fired when
// the source stops on its own (the screen-share-ended case); Close never
// fires it.
type Track interface {
	webrtc.TrackLocal
	Close() error
	OnEnded(func())
}

// Switchable is implemented by tracks whose output can be paused without
// detaching them from peer links, mirroring a muted microphone or a covered
// camera.
type Switchable interface {
	SetEnabled(enabled bool)
}

// sampleTrack is a synthetic track feeding keepalive samples into a pion
// static-sample track. It stands in for a capture device; real capture
// hardware lives behind a Provider outside this package.
type sampleTrack struct {
	*webrtc.TrackLocalStaticSample

	mu      sync.Mutex
	closed  bool
	enabled bool
	onEnded []func()
	stop    chan struct{}
}

func newSampleTrack(capability webrtc.RTPCodecCapability, id, streamID string) (*sampleTrack, error) {
	inner, err := webrtc.NewTrackLocalStaticSample(capability, id, streamID)
	if err != nil {
		return nil, err
	}
	t := &sampleTrack{
		TrackLocalStaticSample: inner,
		enabled:                true,
		stop:                   make(chan struct{}),
	}
	go t.pump()
	return t, nil
}

// pump writes small placeholder samples so the track stays alive once bound.
func (t *sampleTrack) pump() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	payload := make([]byte, 16)
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			enabled := t.enabled
			t.mu.Unlock()
			if !enabled {
				continue
			}
			// Write errors just mean the track is not bound anywhere yet.
			_ = t.WriteSample(pmedia.Sample{Data: payload, Duration: 100 * time.Millisecond})
		}
	}
}

func (t *sampleTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

func (t *sampleTrack) OnEnded(f func()) {
	t.mu.Lock()
	t.onEnded = append(t.onEnded, f)
	t.mu.Unlock()
}

// end simulates the source terminating on its own.
func (t *sampleTrack) end() {
	t.mu.Lock()
	handlers := t.onEnded
	t.mu.Unlock()
	t.Close()
	for _, f := range handlers {
		f()
	}
}

func (t *sampleTrack) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.stop)
	return nil
}
