package client

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v3"
)

//go:generate mockgen -destination=mocks/client.go -package=mocks . AudioPublisher,Fetcher

// AudioPublisher turns the local user's outgoing audio on or off.
type AudioPublisher interface {
	SetAudioEnabled(enabled bool) error
}

// PionAudioPublisher gates an audio track of a pion peer connection. The
// track stays negotiated; disabling swaps it out of the sender so no media
// leaves the client.
type PionAudioPublisher struct {
	mu      sync.Mutex
	sender  *webrtc.RTPSender
	track   webrtc.TrackLocal
	enabled bool
}

// NewPionAudioPublisher adds track to pc and starts with audio disabled.
func NewPionAudioPublisher(pc *webrtc.PeerConnection, track webrtc.TrackLocal) (*PionAudioPublisher, error) {
	if track.Kind() != webrtc.RTPCodecTypeAudio {
		return nil, errors.New("track is not an audio track")
	}

	sender, err := pc.AddTrack(track)
	if err != nil {
		return nil, err
	}
	if err := sender.ReplaceTrack(nil); err != nil {
		return nil, err
	}

	return &PionAudioPublisher{
		sender: sender,
		track:  track,
	}, nil
}

func (p *PionAudioPublisher) SetAudioEnabled(enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.enabled == enabled {
		return nil
	}

	var next webrtc.TrackLocal
	if enabled {
		next = p.track
	}
	if err := p.sender.ReplaceTrack(next); err != nil {
		return err
	}

	p.enabled = enabled
	return nil
}

func (p *PionAudioPublisher) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}
