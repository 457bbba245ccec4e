package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/miali88/flowonai/internal/adapters/signal/wire"
	"github.com/miali88/flowonai/internal/core"
)

// handleRename changes the display name; the identity from the token stays.
func (ctl *SignalWSController) handleRename(sid core.SessionID, conn *WsSignalConn, data []byte) {
	var p wire.Rename
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad rename payload")
		ctl.sendJSON(conn, wire.NewError("bad_payload"))
		return
	}
	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		return
	}
	if err := sess.Meta().User.SetUsername(p.Name); err != nil {
		ctl.sendJSON(conn, wire.NewError("invalid_name"))
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.Name).Msg("rename")
	ctl.handleWhoAmI(sid, conn)
	ctl.BroadcastFrom(sid, wire.MemberEvent{Type: wire.TypeMemberUpdated, User: memberOf(sess)})
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID, conn *WsSignalConn) {
	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		return
	}
	u := sess.Meta().User
	resp := wire.WhoAmI{
		Type:     wire.TypeWhoAmI,
		SID:      string(sid),
		Identity: string(u.ID),
		Username: u.Username,
	}
	if roomName, _, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		resp.Room = string(roomName)
	}
	ctl.sendJSON(conn, resp)
}
