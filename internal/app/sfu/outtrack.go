package sfu

import (
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

type TrackState int32

const (
	TrackStateOk TrackState = iota
	TrackStateMuted
	TrackStateDelete
)

func (s TrackState) String() string {
	switch s {
	case TrackStateMuted:
		return "muted"
	case TrackStateDelete:
		return "delete"
	default:
		return "ok"
	}
}

// RTPWriter is the subscriber side of an OutTrack.
type RTPWriter interface {
	WriteRTP(p *rtp.Packet) error
}

// OutTrack is a single outgoing copy of a speaker's audio for one subscriber.
type OutTrack struct {
	Track  RTPWriter
	Sender *webrtc.RTPSender
	state  atomic.Int32 // zero is TrackStateOk
}

func NewOutTrack(track RTPWriter, sender *webrtc.RTPSender) *OutTrack {
	return &OutTrack{Track: track, Sender: sender}
}

func (ot *OutTrack) GetState() TrackState {
	return TrackState(ot.state.Load())
}

func (ot *OutTrack) MarkOk() {
	ot.state.CompareAndSwap(int32(TrackStateMuted), int32(TrackStateOk))
}

func (ot *OutTrack) MarkMuted() {
	ot.state.CompareAndSwap(int32(TrackStateOk), int32(TrackStateMuted))
}

// MarkDelete is final; later MarkOk/MarkMuted calls are ignored.
func (ot *OutTrack) MarkDelete() {
	ot.state.Store(int32(TrackStateDelete))
}
