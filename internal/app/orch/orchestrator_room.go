package orch

import (
	"github.com/miali88/flowonai/internal/core"
	"github.com/miali88/flowonai/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join puts sid into roomName, leaving any room it was in before.
func (o *Orchestrator) Join(sid core.SessionID, roomName domain.RoomName) (core.RoomService, bool) {
	if from, _, ok := o.Registry.RoomOf(sid); ok {
		o.KickBySID(sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(from)).Msg("left previous room")
	}
	session, ok := o.Registry.GetSession(sid)
	if !ok {
		return nil, false
	}
	room := o.Rooms.GetOrCreate(roomName)
	room.AddMember(sid, session)
	o.Registry.UpdateRoom(sid, roomName)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomName)).Msg("added to room")
	return room, true
}

// KickBySID releases the media and membership of sid. The signaling
// connection stays up.
func (o *Orchestrator) KickBySID(sid core.SessionID) {
	o.cleanupMedia(sid)
	o.cleanupMembership(sid)
}

func (o *Orchestrator) cleanupMembership(sid core.SessionID) {
	roomName, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	if room, ok := o.Rooms.Get(roomName); ok {
		room.RemoveMember(sid)
	}
	o.Registry.RemoveRoom(sid)
	o.Rooms.StopIfEmpty(roomName)
}

// EvictRoom kicks every member of name, closes their signaling and drops the room.
func (o *Orchestrator) EvictRoom(name domain.RoomName) bool {
	members := o.Registry.MembersOfRoom(name)
	for _, snap := range members {
		o.KickBySID(snap.SID)
		o.Registry.Cancel(snap.SID)
	}
	stopped := o.Rooms.StopRoom(name)
	log.Info().Str("module", "orch").Str("room", string(name)).Int("members", len(members)).Msg("room evicted")
	return stopped || len(members) > 0
}
