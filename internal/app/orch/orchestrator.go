// Package orch wires signaling sessions, rooms and media relays together.
package orch

import (
	"github.com/miali88/flowonai/internal/app"
	"github.com/miali88/flowonai/internal/app/sfu"
	"github.com/miali88/flowonai/internal/core"
	"github.com/miali88/flowonai/internal/domain"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Relays   *sfu.RelayManager
}

// Publish sends data to everyone in the room of sid except sid itself.
func (o *Orchestrator) Publish(sid core.SessionID, data core.Frame) {
	roomName, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	room, ok := o.Rooms.Get(roomName)
	if !ok {
		return
	}
	o.applyPolicy(room, room.Broadcast(sid, data))
}

// PublishRoom sends data to every member of name.
func (o *Orchestrator) PublishRoom(name domain.RoomName, data core.Frame) {
	room, ok := o.Rooms.Get(name)
	if !ok {
		return
	}
	o.applyPolicy(room, room.Broadcast("", data))
}

func (o *Orchestrator) applyPolicy(room core.RoomService, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, sid := range res.Dropped {
		slow, ok := room.Member(sid)
		if !ok {
			continue
		}
		action := o.Policy.OnBackPressure(room, slow)
		log.Warn().
			Str("module", "orch").
			Str("sid", string(sid)).
			Str("room", string(room.Room().Name)).
			Stringer("action", action).
			Msg("signal backpressure")
		if action == app.KickMember {
			o.KickBySID(sid)
			o.Registry.Cancel(sid)
		}
	}
}
