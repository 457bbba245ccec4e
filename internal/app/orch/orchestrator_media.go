package orch

import (
	"context"

	"github.com/miali88/flowonai/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) BindMediaHandlers(mc core.MediaConnection, sid core.SessionID) {
	mc.OnTrack(func(trackCtx context.Context, track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		o.OnTrack(trackCtx, sid, track)
	})
	mc.OnClosed(func() { o.OnMediaDisconnect(sid) })
}

func (o *Orchestrator) OnMediaDisconnect(sid core.SessionID) {
	o.cleanupMedia(sid)
}

func (o *Orchestrator) cleanupMedia(sid core.SessionID) {
	if o.Relays != nil {
		for _, snap := range o.Registry.RoomMates(sid) {
			o.Relays.Unsubscribe(sid, snap.SID, snap.Session.Media())
			o.Relays.MarkSubscriberDelete(snap.SID, sid)
		}
		o.Relays.StopRelay(sid)
	}

	if sess, ok := o.Registry.GetSession(sid); ok {
		if mc := sess.Media(); mc != nil {
			sess.UpdateMedia(nil)
			mc.Close()
		}
	}
}

// OnTrack is called when a member starts publishing audio.
func (o *Orchestrator) OnTrack(ctx context.Context, sid core.SessionID, track *webrtc.TrackRemote) {
	if o.Relays == nil || track.Kind() != webrtc.RTPCodecTypeAudio {
		return
	}
	if sess, ok := o.Registry.GetSession(sid); !ok || sess.Media() == nil {
		return
	}
	o.Relays.StartRelay(ctx, sid, track)

	_, sess, ok := o.Registry.RoomOf(sid)
	if !ok {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("OnTrack: no room for sid")
		return
	}
	if sess.Muted() {
		o.Relays.SetMuted(sid, true)
	}

	// Subscribe all existing members in the room to this speaker.
	for _, snap := range o.Registry.RoomMates(sid) {
		mc := snap.Session.Media()
		if mc == nil {
			continue
		}
		if err := o.Relays.Subscribe(sid, snap.SID, mc); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("src_sid", string(sid)).Str("dst_sid", string(snap.SID)).Msg("subscribe")
		}
	}
}

// OnMediaReady is called once the media connection of sid is negotiated.
// It subscribes sid to every speaker already in its room.
func (o *Orchestrator) OnMediaReady(sid core.SessionID) {
	if o.Relays == nil {
		return
	}
	_, sess, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	mc := sess.Media()
	if mc == nil {
		return
	}

	for _, snap := range o.Registry.RoomMates(sid) {
		if !o.Relays.HasRelay(snap.SID) {
			continue
		}
		if err := o.Relays.Subscribe(snap.SID, sid, mc); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("src_sid", string(snap.SID)).Str("dst_sid", string(sid)).Msg("subscribe")
		}
	}
}

// SetMuted records the mute state of sid and pauses its relay.
func (o *Orchestrator) SetMuted(sid core.SessionID, muted bool) bool {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return false
	}
	sess.SetMuted(muted)
	if o.Relays != nil {
		o.Relays.SetMuted(sid, muted)
	}
	return true
}
