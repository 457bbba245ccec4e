// Package voice owns the real-time voice session lifecycle: room credential,
// room connection, local microphone and exactly-once teardown.
package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var errRemoteDisconnect = errors.New("room disconnected")

// Config tunes controller timing and playback.
type Config struct {
	// ConnectTimeout bounds the wait for the room's connected event. Zero waits
	// until Start's context ends.
	ConnectTimeout time.Duration
	// TeardownTimeout bounds the wait for playback goroutines during teardown.
	TeardownTimeout time.Duration
	// Sink plays remote audio; nil drains it.
	Sink AudioSink
}

// Controller runs one voice session at a time and is the only owner of its room.
type Controller struct {
	creds     CredentialSource
	transport RoomTransport
	observer  Observer
	binder    mediaBinder
	cfg       Config

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	state   State
	current *session
	last    *session
	closed  bool
}

func NewController(creds CredentialSource, transport RoomTransport, observer Observer, cfg Config) *Controller {
	if cfg.TeardownTimeout <= 0 {
		cfg.TeardownTimeout = 2 * time.Second
	}
	if cfg.Sink == nil {
		cfg.Sink = discardSink{}
	}
	if observer == nil {
		observer = ObserverFuncs{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		creds:      creds,
		transport:  transport,
		observer:   observer,
		binder:     mediaBinder{sink: cfg.Sink},
		cfg:        cfg,
		baseCtx:    ctx,
		baseCancel: cancel,
		state:      StateIdle,
	}
}

// Start opens a session for the agent/user pair and blocks until the room is
// connected with a live microphone, or the attempt failed. Failures leave the
// controller Idle and are also reported through Observer.OnError. A Start
// interrupted by Stop or Close returns ErrStopped.
func (c *Controller) Start(ctx context.Context, agentID, userID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		log.Warn().Str("module", "voice").Str("state", string(state)).Msg("start rejected, session active")
		return &Error{Kind: KindAlreadyActive, Err: fmt.Errorf("controller is %s", state)}
	}

	id := uuid.NewString()
	logger := log.With().
		Str("module", "voice").
		Str("session_id", id).
		Str("agent_id", agentID).
		Str("user_id", userID).
		Logger()
	s := newSession(c.baseCtx, id, agentID, userID, logger)
	prev := c.last
	c.current = s
	c.last = s
	c.state = StateConnecting
	c.mu.Unlock()

	logger.Info().Msg("session connecting")
	return c.run(ctx, s, prev)
}

func (c *Controller) run(ctx context.Context, s *session, prev *session) error {
	defer s.exit()

	// hctx ends with the caller's context or with the session.
	hctx, hcancel := context.WithCancelCause(ctx)
	defer hcancel(nil)
	stopAfter := context.AfterFunc(s.ctx, func() { hcancel(context.Cause(s.ctx)) })
	defer stopAfter()

	// A stopped attempt may still be releasing a late room.
	if prev != nil {
		select {
		case <-prev.exited:
		case <-hctx.Done():
			return c.abort(s, KindRoomConnect, context.Cause(hctx))
		}
	}

	cred, err := c.creds.FetchCredential(hctx, s.agentID, s.userID)
	if err != nil {
		return c.abort(s, KindCredentialFetch, err)
	}
	if err := interrupted(hctx, s); err != nil {
		return c.abort(s, KindCredentialFetch, err)
	}

	room, err := c.transport.Connect(hctx, cred, s.events())
	if err != nil {
		return c.abort(s, KindRoomConnect, err)
	}
	if !c.attachRoom(s, room) {
		s.logger.Info().Msg("room opened after stop, disconnecting")
		if err := room.Disconnect(); err != nil {
			s.logger.Debug().Err(err).Msg("late room disconnect")
		}
		return ErrStopped
	}

	var timeout <-chan time.Time
	if c.cfg.ConnectTimeout > 0 {
		timer := time.NewTimer(c.cfg.ConnectTimeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-s.connected:
	case <-s.disconnected:
		return c.abort(s, KindRoomConnect, fmt.Errorf("%w before connecting: %s", errRemoteDisconnect, s.reason()))
	case <-hctx.Done():
		return c.abort(s, KindRoomConnect, context.Cause(hctx))
	case <-timeout:
		return c.abort(s, KindRoomConnect, errors.New("timed out waiting for room to connect"))
	}

	p, ok := c.promote(s)
	if !ok {
		c.teardownThen(s, ErrStopped, s.exit)
		return ErrStopped
	}
	s.logger.Info().Str("identity", p.Identity()).Msg("session connected")
	c.observer.OnConnected(p)
	go c.watch(s)

	if err := c.binder.bind(hctx, c, s); err != nil {
		if hctx.Err() != nil {
			return c.abort(s, KindRoomConnect, context.Cause(hctx))
		}
		return c.abort(s, KindMediaPermission, err)
	}
	return nil
}

// abort tears s down and reports the failure unless the session was stopped.
// It runs on the Start goroutine, which gives up s before any observer
// callback so a callback may start the next session.
func (c *Controller) abort(s *session, kind ErrorKind, err error) error {
	if cause := context.Cause(s.ctx); cause != nil {
		if errors.Is(cause, ErrStopped) {
			c.teardownThen(s, ErrStopped, s.exit)
			return ErrStopped
		}
		kind, err = KindRoomConnect, cause
	}
	e := newError(kind, err)
	s.logger.Error().Err(e).Msg("session failed")
	c.teardownThen(s, e, s.exit)
	c.observer.OnError(e)
	return e
}

// interrupted returns the reason the attempt must not go on, nil while it may.
// The session is checked directly since hctx learns of it asynchronously.
func interrupted(hctx context.Context, s *session) error {
	if cause := context.Cause(s.ctx); cause != nil {
		return cause
	}
	if hctx.Err() != nil {
		return context.Cause(hctx)
	}
	return nil
}

func (c *Controller) attachRoom(s *session, room Room) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.tornDown || c.current != s {
		return false
	}
	s.room = room
	return true
}

func (c *Controller) promote(s *session) (*Participant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.tornDown || c.current != s || c.state != StateConnecting {
		return nil, false
	}
	c.state = StateConnected
	s.participant = newParticipant(s.room.LocalParticipant())
	return s.participant, true
}

// connectedMedia returns the media endpoints of s while it is the connected session.
func (c *Controller) connectedMedia(s *session) (LocalParticipant, *Participant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.tornDown || c.current != s || c.state != StateConnected {
		return nil, nil, false
	}
	return s.room.LocalParticipant(), s.participant, true
}

// watch turns a remote disconnect of a connected session into teardown.
func (c *Controller) watch(s *session) {
	select {
	case <-s.disconnected:
		reason := s.reason()
		s.logger.Info().Str("reason", reason).Msg("room disconnected remotely")
		c.teardown(s, fmt.Errorf("%w: %s", errRemoteDisconnect, reason))
	case <-s.done:
	}
}

// Stop ends the current session, if any. It returns once teardown completed
// and is a no-op when Idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s == nil {
		return
	}
	c.teardown(s, ErrStopped)
}

// SetMuted toggles the local microphone of the connected session.
// A failed unmute is a media failure and ends the session.
func (c *Controller) SetMuted(ctx context.Context, muted bool) error {
	c.mu.Lock()
	s := c.current
	state := c.state
	c.mu.Unlock()
	if s == nil || state != StateConnected {
		return ErrNotConnected
	}
	if err := c.binder.setMuted(ctx, c, s, muted); err != nil {
		if errors.Is(err, ErrNotConnected) {
			return err
		}
		return c.abort(s, KindMediaPermission, err)
	}
	return nil
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{State: c.state}
	s := c.current
	if s == nil {
		return st
	}
	st.SessionID = s.id
	st.AgentID = s.agentID
	st.UserID = s.userID
	if p := s.participant; p != nil {
		st.Identity = p.Identity()
		st.MicrophoneEnabled = p.MicrophoneEnabled()
		st.Muted = p.Muted()
	}
	return st
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close releases the controller: any session is torn down synchronously and
// further Start calls fail with ErrClosed. Safe to call more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	s := c.current
	c.mu.Unlock()

	if s != nil {
		c.teardown(s, ErrStopped)
	}
	c.baseCancel()
	return nil
}
