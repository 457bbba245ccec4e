package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/miali88/flowonai/internal/adapters/signal/wire"
	"github.com/miali88/flowonai/internal/core"
)

// handleLeave releases the room; the socket stays open until the client closes it.
func (ctl *SignalWSController) handleLeave(sid core.SessionID, conn *WsSignalConn) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	roomName, sess, ok := ctl.Orch.Registry.RoomOf(sid)

	ctl.Orch.KickBySID(sid)
	ctl.sendJSON(conn, wire.Simple(wire.TypeLeft))

	if ok {
		ctl.BroadcastRoom(roomName, wire.MemberEvent{Type: wire.TypeMemberLeft, User: memberOf(sess)})
	}
}

func (ctl *SignalWSController) handleMute(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p wire.Mute
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad mute payload")
		ctl.sendJSON(conn, wire.NewError("bad_payload"))
		return
	}
	if !ctl.Orch.SetMuted(sid, p.Muted) {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Bool("muted", p.Muted).Msg("mute")
	if sess, ok := ctl.Orch.Registry.GetSession(sid); ok {
		ctl.BroadcastFrom(sid, wire.MemberEvent{Type: wire.TypeMemberUpdated, User: memberOf(sess)})
	}
}
