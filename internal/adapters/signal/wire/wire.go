// Package wire defines the JSON messages exchanged over the signaling websocket.
package wire

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

// Client to server.
const (
	TypeOffer     = "offer"
	TypeAnswer    = "answer"
	TypeCandidate = "candidate"
	TypePing      = "ping"
	TypeLeave     = "leave"
	TypeMute      = "mute"
	TypeRename    = "rename"
	TypeWhoAmI    = "whoami"
)

// Server to client. Offer, answer and candidate flow both ways.
const (
	TypeWelcome       = "welcome"
	TypePong          = "pong"
	TypeMemberJoined  = "member_joined"
	TypeMemberLeft    = "member_left"
	TypeMemberUpdated = "member_updated"
	TypeLeft          = "left"
	TypeError         = "error"
)

type Envelope struct {
	Type string `json:"type"`
}

type SDP struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type Candidate struct {
	Type          string  `json:"type"`
	Candidate     string  `json:"candidate"`
	SDPMid        string  `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

func CandidateFrom(ci webrtc.ICECandidateInit) Candidate {
	c := Candidate{Type: TypeCandidate, Candidate: ci.Candidate, SDPMLineIndex: ci.SDPMLineIndex}
	if ci.SDPMid != nil {
		c.SDPMid = *ci.SDPMid
	}
	return c
}

func (c Candidate) Init() webrtc.ICECandidateInit {
	ci := webrtc.ICECandidateInit{Candidate: c.Candidate, SDPMLineIndex: c.SDPMLineIndex}
	if c.SDPMid != "" {
		mid := c.SDPMid
		ci.SDPMid = &mid
	}
	return ci
}

type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Muted    bool   `json:"muted"`
}

type Welcome struct {
	Type     string   `json:"type"`
	SID      string   `json:"sid"`
	Identity string   `json:"identity"`
	Room     string   `json:"room"`
	Members  []Member `json:"members"`
}

type MemberEvent struct {
	Type string `json:"type"`
	User Member `json:"user"`
}

type Mute struct {
	Type  string `json:"type"`
	Muted bool   `json:"muted"`
}

type Rename struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type WhoAmI struct {
	Type     string `json:"type"`
	SID      string `json:"sid"`
	Identity string `json:"identity"`
	Username string `json:"username"`
	Room     string `json:"room,omitempty"`
}

type Error struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewError(msg string) Error { return Error{Type: TypeError, Error: msg} }

// Simple builds a message that carries only its type.
func Simple(t string) Envelope { return Envelope{Type: t} }

// TypeOf reads the type of a raw message.
func TypeOf(data []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", err
	}
	return env.Type, nil
}
