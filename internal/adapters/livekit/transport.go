// Package livekit joins LiveKit rooms with the server SDK.
package livekit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/miali88/flowonai/internal/media"
	"github.com/miali88/flowonai/internal/voice"
)

var ErrDisconnected = errors.New("room already disconnected")

// Transport implements voice.RoomTransport for a LiveKit server.
type Transport struct {
	// Audio feeds the microphone; silence when nil.
	Audio media.Opener
}

func New(audio media.Opener) *Transport {
	return &Transport{Audio: audio}
}

type joined struct {
	room *lksdk.Room
	err  error
}

// Connect joins with the room token. The SDK returns once the join
// completed, so RoomConnected follows a successful return.
func (t *Transport) Connect(ctx context.Context, cred voice.Credential, events voice.RoomEvents) (voice.Room, error) {
	r := &room{
		events: events,
		logger: log.With().Str("module", "livekit").Str("url", cred.ServerURL).Logger(),
	}
	cb := &lksdk.RoomCallback{
		OnDisconnected: func() { go r.teardown("server disconnected") },
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackSubscribed: func(track *webrtc.TrackRemote, _ *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				if track.Kind() != webrtc.RTPCodecTypeAudio {
					return
				}
				logger := r.log()
				logger.Info().Str("participant", rp.Identity()).Str("track", track.ID()).Msg("remote audio subscribed")
				events.RemoteAudioAdded(remoteTrack{track: track, participant: rp.Identity()})
			},
		},
	}

	done := make(chan joined, 1)
	go func() {
		lkRoom, err := lksdk.ConnectToRoomWithToken(cred.ServerURL, cred.RoomToken, cb, lksdk.WithAutoSubscribe(true))
		done <- joined{room: lkRoom, err: err}
	}()

	var res joined
	select {
	case res = <-done:
	case <-ctx.Done():
		// The join cannot be aborted; leave as soon as it lands.
		go func() {
			if late := <-done; late.room != nil {
				late.room.Disconnect()
			}
		}()
		return nil, context.Cause(ctx)
	}
	if res.err != nil {
		return nil, fmt.Errorf("join livekit room: %w", res.err)
	}

	lp := res.room.LocalParticipant
	mic, err := media.NewMicrophone(lp.Identity(), t.Audio)
	if err != nil {
		res.room.Disconnect()
		return nil, err
	}
	local := &participant{
		identity: lp.Identity(),
		mic:      mic,
		pub:      sdkPublisher{lp: lp},
	}
	if err := r.attach(res.room, local); err != nil {
		return nil, fmt.Errorf("join livekit room: %w", err)
	}
	logger := r.log()
	logger.Info().Msg("joined")

	events.RoomConnected()
	return r, nil
}

// sdkRoom is the part of *lksdk.Room a room leaves.
type sdkRoom interface {
	Disconnect()
}

// room is shared with SDK callbacks that may fire while the join is still
// in flight; mu guards everything the join fills in.
type room struct {
	events voice.RoomEvents

	mu     sync.Mutex
	lk     sdkRoom
	local  *participant
	logger zerolog.Logger
	closed bool

	once sync.Once
}

func (r *room) log() zerolog.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logger
}

// attach hands the joined SDK room to r. A room that was torn down during
// the join is left at once.
func (r *room) attach(lk sdkRoom, local *participant) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		local.release()
		lk.Disconnect()
		return ErrDisconnected
	}
	r.lk = lk
	r.local = local
	r.logger = r.logger.With().Str("identity", local.identity).Logger()
	r.mu.Unlock()
	return nil
}

func (r *room) LocalParticipant() voice.LocalParticipant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.local
}

func (r *room) Disconnect() error {
	if !r.teardown("client initiated") {
		return ErrDisconnected
	}
	return nil
}

func (r *room) teardown(reason string) bool {
	first := false
	r.once.Do(func() {
		first = true
		r.mu.Lock()
		r.closed = true
		lk, local, logger := r.lk, r.local, r.logger
		r.mu.Unlock()

		logger.Info().Str("reason", reason).Msg("leaving room")
		if local != nil {
			local.release()
		}
		if lk != nil {
			lk.Disconnect()
		}
	})
	if first {
		r.events.RoomDisconnected(reason)
	}
	return first
}

// publisher publishes and withdraws the microphone track.
type publisher interface {
	publish(track webrtc.TrackLocal) (sid string, err error)
	unpublish(sid string) error
}

type sdkPublisher struct {
	lp *lksdk.LocalParticipant
}

func (p sdkPublisher) publish(track webrtc.TrackLocal) (string, error) {
	pub, err := p.lp.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name:   "microphone",
		Source: livekit.TrackSource_MICROPHONE,
	})
	if err != nil {
		return "", err
	}
	return pub.SID(), nil
}

func (p sdkPublisher) unpublish(sid string) error {
	return p.lp.UnpublishTrack(sid)
}

// participant publishes the microphone when enabled and unpublishes it when
// disabled.
type participant struct {
	identity string
	mic      *media.Microphone
	pub      publisher

	mu       sync.Mutex
	trackSID string
}

func (p *participant) Identity() string { return p.identity }

func (p *participant) SetMicrophoneEnabled(ctx context.Context, enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !enabled {
		return p.disable()
	}
	if p.trackSID != "" {
		return nil
	}
	if err := p.mic.Enable(ctx); err != nil {
		return err
	}
	sid, err := p.pub.publish(p.mic.Track())
	if err != nil {
		p.mic.Disable()
		return fmt.Errorf("publish microphone: %w", err)
	}
	p.trackSID = sid
	return nil
}

func (p *participant) disable() error {
	p.mic.Disable()
	if p.trackSID == "" {
		return nil
	}
	sid := p.trackSID
	p.trackSID = ""
	if err := p.pub.unpublish(sid); err != nil {
		return fmt.Errorf("unpublish microphone: %w", err)
	}
	return nil
}

func (p *participant) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.disable(); err != nil {
		log.Debug().Err(err).Str("module", "livekit").Msg("release microphone")
	}
}

func (p *participant) MicrophoneEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trackSID != ""
}

type remoteTrack struct {
	track       *webrtc.TrackRemote
	participant string
}

func (t remoteTrack) ID() string          { return t.track.ID() }
func (t remoteTrack) Participant() string { return t.participant }

func (t remoteTrack) ReadRTP() (*rtp.Packet, error) {
	pkt, _, err := t.track.ReadRTP()
	return pkt, err
}
