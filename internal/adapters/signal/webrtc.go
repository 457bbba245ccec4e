package signal

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/miali88/flowonai/internal/adapters/rtc"
	"github.com/miali88/flowonai/internal/adapters/signal/wire"
	"github.com/miali88/flowonai/internal/core"
)

func (ctl *SignalWSController) handleOffer(ctx context.Context, sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p wire.SDP
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad offer payload")
		ctl.sendJSON(conn, wire.NewError("bad_payload"))
		return
	}
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: p.SDP}

	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		return
	}

	// Renegotiation on the existing connection.
	if mc := sess.Media(); mc != nil {
		answer, err := mc.ApplyOfferAndCreateAnswer(offer)
		if err != nil {
			log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("webrtc apply re-offer")
			ctl.sendJSON(conn, wire.NewError("negotiation_failed"))
			return
		}
		ctl.sendJSON(conn, wire.SDP{Type: wire.TypeAnswer, SDP: answer.SDP})
		return
	}

	wc, err := rtc.NewWebRTCConnection(rtc.DefaultWebRTCConfig(ctl.opts.ICEServers...), string(sid))
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc new pc")
		ctl.sendJSON(conn, wire.NewError("media_unavailable"))
		return
	}

	wc.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		ctl.sendJSON(conn, wire.CandidateFrom(ci))
	})
	wc.OnNegotiationNeeded(func() {
		go ctl.renegotiate(sid, conn, wc)
	})
	ctl.Orch.BindMediaHandlers(wc, sid)

	if err = wc.Start(ctx); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc start")
		wc.Close()
		return
	}

	answer, err := wc.ApplyOfferAndCreateAnswer(offer)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc apply offer")
		ctl.sendJSON(conn, wire.NewError("negotiation_failed"))
		wc.Close()
		return
	}

	sess.UpdateMedia(wc)
	// The answer is queued before any server offer caused by subscriptions.
	ctl.sendJSON(conn, wire.SDP{Type: wire.TypeAnswer, SDP: answer.SDP})
	ctl.Orch.OnMediaReady(sid)
}

// renegotiate offers the subscriber its updated set of tracks.
func (ctl *SignalWSController) renegotiate(sid core.SessionID, conn *WsSignalConn, mc core.MediaConnection) {
	offer, err := mc.CreateAndSetOffer()
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("renegotiation offer")
		return
	}
	if offer == nil {
		return
	}
	log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("sending re-offer")
	ctl.sendJSON(conn, wire.SDP{Type: wire.TypeOffer, SDP: offer.SDP})
}

func (ctl *SignalWSController) handleAnswer(sid core.SessionID, data []byte) {
	var p wire.SDP
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad answer payload")
		return
	}
	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok || sess.Media() == nil {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("answer: no media connection")
		return
	}
	if err := sess.Media().ApplyAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: p.SDP}); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("apply answer")
	}
}

func (ctl *SignalWSController) handleCandidate(sid core.SessionID, data []byte) {
	var p wire.Candidate
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}

	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("candidate: no session")
		return
	}
	mc := sess.Media()
	if mc == nil {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("candidate: no media connection")
		return
	}
	if err := mc.AddICECandidate(p.Init()); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("add ice candidate")
	}
}
