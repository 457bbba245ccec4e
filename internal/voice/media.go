package voice

import (
	"context"
	"fmt"
)

// mediaBinder moves audio once a session is connected.
type mediaBinder struct {
	sink AudioSink
}

// bind enables the microphone and attaches remote audio playback.
func (b mediaBinder) bind(ctx context.Context, c *Controller, s *session) error {
	s.mediaMu.Lock()
	defer s.mediaMu.Unlock()

	local, p, ok := c.connectedMedia(s)
	if !ok {
		return ErrNotConnected
	}
	if err := local.SetMicrophoneEnabled(ctx, true); err != nil {
		return fmt.Errorf("enable microphone: %w", err)
	}
	s.micEnabled = true
	p.setMuted(false)
	s.logger.Debug().Msg("microphone enabled")

	s.bindRemote(b.sink)
	return nil
}

func (b mediaBinder) setMuted(ctx context.Context, c *Controller, s *session, muted bool) error {
	s.mediaMu.Lock()
	defer s.mediaMu.Unlock()

	local, p, ok := c.connectedMedia(s)
	if !ok {
		return ErrNotConnected
	}
	if s.micEnabled == !muted {
		p.setMuted(muted)
		return nil
	}
	if err := local.SetMicrophoneEnabled(ctx, !muted); err != nil {
		return fmt.Errorf("set microphone enabled=%t: %w", !muted, err)
	}
	s.micEnabled = !muted
	p.setMuted(muted)
	s.logger.Info().Bool("muted", muted).Msg("microphone toggled")
	return nil
}

// release turns the microphone off before the room goes away.
func (b mediaBinder) release(s *session, room Room) {
	s.mediaMu.Lock()
	defer s.mediaMu.Unlock()
	if !s.micEnabled || room == nil {
		return
	}
	if err := room.LocalParticipant().SetMicrophoneEnabled(context.Background(), false); err != nil {
		s.logger.Debug().Err(err).Msg("disable microphone during teardown")
	}
	s.micEnabled = false
}

// discardSink drains remote audio without playing it.
type discardSink struct{}

func (discardSink) Play(ctx context.Context, track RemoteAudioTrack) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := track.ReadRTP(); err != nil {
			return err
		}
	}
}
