package sfu

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/miali88/flowonai/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrNoRelay = errors.New("no relay for speaker")

type RelayManager struct {
	mu     sync.RWMutex
	relays map[core.SessionID]*Relay
}

func NewRelayManager() *RelayManager {
	return &RelayManager{
		relays: make(map[core.SessionID]*Relay),
	}
}

// StartRelay creates the relay of a remote track published by sid and starts its loop.
func (m *RelayManager) StartRelay(ctx context.Context, sid core.SessionID, track *webrtc.TrackRemote) {
	m.startRelay(ctx, sid, remoteSource{track: track}, track.Codec().RTPCodecCapability)
}

func (m *RelayManager) startRelay(ctx context.Context, sid core.SessionID, src Source, codec webrtc.RTPCodecCapability) *Relay {
	logger := log.With().
		Str("module", "relay").
		Str("sid", string(sid)).
		Logger()

	relayCtx, cancel := context.WithCancel(ctx)
	relay := NewRelay(src, codec, cancel)

	m.mu.Lock()
	if old, ok := m.relays[sid]; ok {
		logger.Info().Msg("replacing existing relay for sid")
		old.markAllDelete()
		old.cancel()
	}
	m.relays[sid] = relay
	m.mu.Unlock()

	logger.Info().Str("mime", codec.MimeType).Msg("starting relay loop")
	go relay.loop(relayCtx, &logger)
	return relay
}

func (m *RelayManager) relay(sid core.SessionID) (*Relay, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.relays[sid]
	return r, ok
}

// Subscribe adds a copy of srcSID's audio to the peer connection of dstSID.
// The caller renegotiates dst afterwards.
func (m *RelayManager) Subscribe(srcSID, dstSID core.SessionID, mc core.MediaConnection) error {
	relay, ok := m.relay(srcSID)
	if !ok {
		return ErrNoRelay
	}
	if ot, ok := relay.outTrack(dstSID); ok && ot.GetState() != TrackStateDelete {
		return nil
	}

	track, err := webrtc.NewTrackLocalStaticRTP(relay.Codec, "audio-"+string(srcSID), string(srcSID))
	if err != nil {
		return fmt.Errorf("new local track: %w", err)
	}
	sender, err := mc.AddLocalTrack(track)
	if err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	// RTCP must be read for interceptors to work.
	go func() {
		for {
			if _, _, err := sender.ReadRTCP(); err != nil {
				return
			}
		}
	}()

	m.AddSubscriber(srcSID, dstSID, NewOutTrack(track, sender))
	log.Info().Str("module", "relay").Str("src_sid", string(srcSID)).Str("dst_sid", string(dstSID)).Msg("subscribed")
	return nil
}

// AddSubscriber attaches ot to the relay of srcSID for dstSID.
func (m *RelayManager) AddSubscriber(srcSID, dstSID core.SessionID, ot *OutTrack) bool {
	relay, ok := m.relay(srcSID)
	if !ok {
		return false
	}
	relay.AddOutTrack(dstSID, ot)
	return true
}

// Unsubscribe stops forwarding srcSID to dstSID and removes the track from
// dst's peer connection when it is still open.
func (m *RelayManager) Unsubscribe(srcSID, dstSID core.SessionID, mc core.MediaConnection) {
	relay, ok := m.relay(srcSID)
	if !ok {
		return
	}
	ot, ok := relay.outTrack(dstSID)
	if !ok {
		return
	}
	ot.MarkDelete()
	if mc == nil || mc.IsClosed() || ot.Sender == nil {
		return
	}
	if err := mc.RemoveTrack(ot.Sender); err != nil {
		log.Debug().Err(err).Str("module", "relay").Str("dst_sid", string(dstSID)).Msg("remove track")
	}
}

// MarkSubscriberDelete marks subscriber's OutTrack as TrackStateDelete.
func (m *RelayManager) MarkSubscriberDelete(srcSID, dstSID core.SessionID) {
	relay, ok := m.relay(srcSID)
	if !ok {
		return
	}
	if ot, ok := relay.outTrack(dstSID); ok {
		ot.MarkDelete()
	}
}

// SetMuted pauses or resumes forwarding of srcSID to all subscribers.
func (m *RelayManager) SetMuted(srcSID core.SessionID, muted bool) bool {
	relay, ok := m.relay(srcSID)
	if !ok {
		return false
	}
	relay.setMuted(muted)
	return true
}

// StopRelay stops a relay and removes it from the manager.
func (m *RelayManager) StopRelay(srcSID core.SessionID) {
	m.mu.Lock()
	relay, ok := m.relays[srcSID]
	if ok {
		delete(m.relays, srcSID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	relay.markAllDelete()
	relay.cancel()
}

// HasRelay reports whether a relay exists for sid.
func (m *RelayManager) HasRelay(sid core.SessionID) bool {
	_, ok := m.relay(sid)
	return ok
}

// Subscribers lists the live subscribers of srcSID.
func (m *RelayManager) Subscribers(srcSID core.SessionID) []core.SessionID {
	relay, ok := m.relay(srcSID)
	if !ok {
		return nil
	}
	relay.mu.RLock()
	defer relay.mu.RUnlock()
	out := make([]core.SessionID, 0, len(relay.outTracks))
	for sid, ot := range relay.outTracks {
		if ot.GetState() != TrackStateDelete {
			out = append(out, sid)
		}
	}
	return out
}
