package voice

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// session is one Start attempt and everything it acquired.
type session struct {
	id      string
	agentID string
	userID  string

	ctx    context.Context
	cancel context.CancelCauseFunc
	logger zerolog.Logger

	// room, participant and tornDown are guarded by Controller.mu.
	room        Room
	participant *Participant
	tornDown    bool

	connectedOnce sync.Once
	connected     chan struct{}

	disconnectOnce   sync.Once
	disconnected     chan struct{}
	disconnectReason atomic.Value

	// detached is set once teardown begins; late room events are dropped.
	detached atomic.Bool

	mediaMu    sync.Mutex
	micEnabled bool

	remoteMu     sync.Mutex
	remoteClosed bool
	pending      []RemoteAudioTrack
	sink         AudioSink
	playback     sync.WaitGroup

	teardownOnce sync.Once
	done         chan struct{}
	// exited is closed once the Start call that owns the session holds no
	// room of its own any more.
	exitOnce sync.Once
	exited   chan struct{}
}

func newSession(parent context.Context, id, agentID, userID string, logger zerolog.Logger) *session {
	ctx, cancel := context.WithCancelCause(parent)
	return &session{
		id:           id,
		agentID:      agentID,
		userID:       userID,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
		connected:    make(chan struct{}),
		disconnected: make(chan struct{}),
		done:         make(chan struct{}),
		exited:       make(chan struct{}),
	}
}

func (s *session) exit() { s.exitOnce.Do(func() { close(s.exited) }) }

func (s *session) events() RoomEvents { return sessionEvents{s: s} }

func (s *session) reason() string {
	if r, ok := s.disconnectReason.Load().(string); ok {
		return r
	}
	return ""
}

// bindRemote starts playback of every announced remote track and of all
// tracks announced from now on.
func (s *session) bindRemote(sink AudioSink) {
	s.remoteMu.Lock()
	defer s.remoteMu.Unlock()
	if s.remoteClosed || sink == nil {
		return
	}
	s.sink = sink
	for _, t := range s.pending {
		s.play(t)
	}
	s.pending = nil
}

// play must be called with remoteMu held.
func (s *session) play(track RemoteAudioTrack) {
	s.playback.Add(1)
	sink := s.sink
	go func() {
		defer s.playback.Done()
		if err := sink.Play(s.ctx, track); err != nil {
			s.logger.Debug().Err(err).Str("track_id", track.ID()).Msg("playback ended")
		}
	}()
}

func (s *session) closeRemote() {
	s.remoteMu.Lock()
	s.remoteClosed = true
	s.pending = nil
	s.remoteMu.Unlock()
}

func (s *session) waitPlayback(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.playback.Wait()
		close(done)
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// sessionEvents keeps the RoomEvents methods off the session itself.
type sessionEvents struct{ s *session }

func (e sessionEvents) RoomConnected() {
	if e.s.detached.Load() {
		return
	}
	e.s.connectedOnce.Do(func() { close(e.s.connected) })
}

func (e sessionEvents) RoomDisconnected(reason string) {
	if e.s.detached.Load() {
		return
	}
	e.s.disconnectOnce.Do(func() {
		e.s.disconnectReason.Store(reason)
		close(e.s.disconnected)
	})
}

func (e sessionEvents) RemoteAudioAdded(track RemoteAudioTrack) {
	s := e.s
	if s.detached.Load() {
		return
	}
	s.remoteMu.Lock()
	defer s.remoteMu.Unlock()
	if s.remoteClosed {
		return
	}
	if s.sink == nil {
		s.pending = append(s.pending, track)
		return
	}
	s.play(track)
}
