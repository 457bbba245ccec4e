package voice

import (
	"context"

	"github.com/pion/rtp"
)

//go:generate mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks

// CredentialSource issues one-time room credentials.
type CredentialSource interface {
	FetchCredential(ctx context.Context, agentID, userID string) (Credential, error)
}

// TokenProvider supplies the application bearer token for backend calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// RoomTransport opens real-time audio rooms.
// Implementations deliver room events to the given RoomEvents from any goroutine,
// possibly before Connect returns.
type RoomTransport interface {
	Connect(ctx context.Context, cred Credential, events RoomEvents) (Room, error)
}

// RoomEvents receives room-level notifications.
type RoomEvents interface {
	RoomConnected()
	RoomDisconnected(reason string)
	RemoteAudioAdded(track RemoteAudioTrack)
}

// Room is a live room connection.
type Room interface {
	LocalParticipant() LocalParticipant
	// Disconnect leaves the room. A second call may return an error.
	Disconnect() error
}

// LocalParticipant is this client's media endpoint inside a room.
type LocalParticipant interface {
	Identity() string
	SetMicrophoneEnabled(ctx context.Context, enabled bool) error
	MicrophoneEnabled() bool
}

// RemoteAudioTrack is an audio track published by another participant.
type RemoteAudioTrack interface {
	ID() string
	Participant() string
	ReadRTP() (*rtp.Packet, error)
}

// AudioSink plays remote audio. Play returns when the track ends or ctx is done.
type AudioSink interface {
	Play(ctx context.Context, track RemoteAudioTrack) error
}

// Observer receives session notifications.
type Observer interface {
	OnConnected(p *Participant)
	OnDisconnected()
	OnError(err error)
}

// ObserverFuncs adapts plain functions to Observer; nil fields are skipped.
type ObserverFuncs struct {
	Connected    func(p *Participant)
	Disconnected func()
	Error        func(err error)
}

func (f ObserverFuncs) OnConnected(p *Participant) {
	if f.Connected != nil {
		f.Connected(p)
	}
}

func (f ObserverFuncs) OnDisconnected() {
	if f.Disconnected != nil {
		f.Disconnected()
	}
}

func (f ObserverFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}
