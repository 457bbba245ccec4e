package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Microphone is a local opus track that carries audio only while enabled.
type Microphone struct {
	track  *webrtc.TrackLocalStaticSample
	open   Opener
	logger zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMicrophone(streamID string, open Opener) (*Microphone, error) {
	if open == nil {
		open = Silence()
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: opusClockRate, Channels: 2},
		"microphone",
		streamID,
	)
	if err != nil {
		return nil, fmt.Errorf("new microphone track: %w", err)
	}
	return &Microphone{
		track:  track,
		open:   open,
		logger: log.With().Str("module", "media.mic").Str("stream", streamID).Logger(),
	}, nil
}

// Track is the track to publish or add to a peer connection.
func (m *Microphone) Track() *webrtc.TrackLocalStaticSample { return m.track }

func (m *Microphone) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Enable opens the source and starts feeding the track. Enabling an enabled
// microphone is a no-op.
func (m *Microphone) Enable(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := m.open()
	if err != nil {
		if !errors.Is(err, ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		return err
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.pump(pumpCtx, src, m.done)
	m.logger.Debug().Msg("microphone on")
	return nil
}

// Disable stops feeding the track and waits for the feeder to exit.
func (m *Microphone) Disable() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.logger.Debug().Msg("microphone off")
}

func (m *Microphone) pump(ctx context.Context, src SampleSource, done chan struct{}) {
	defer close(done)
	defer src.Close()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		sample, err := src.NextSample()
		if err != nil {
			m.logger.Warn().Err(err).Msg("audio source ended")
			m.ended(done)
			return
		}
		if err := m.track.WriteSample(sample); err != nil {
			m.logger.Debug().Err(err).Msg("write sample")
		}
		timer.Reset(sampleWait(sample))
	}
}

// ended turns the microphone off after its source ran out, unless Disable
// already did.
func (m *Microphone) ended(done chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != done {
		return
	}
	m.cancel()
	m.cancel, m.done = nil, nil
}

func sampleWait(s media.Sample) time.Duration {
	if s.Duration <= 0 {
		return frameDuration
	}
	return s.Duration
}
