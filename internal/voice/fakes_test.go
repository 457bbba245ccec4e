package voice_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pion/rtp"

	"github.com/miali88/flowonai/internal/voice"
)

type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(e string) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (l *callLog) index(e string) int {
	for i, got := range l.snapshot() {
		if got == e {
			return i
		}
	}
	return -1
}

type fakeTransport struct {
	log           *callLog
	autoConnect   bool
	connectErr    error
	enableErr     error
	onEnable      func(ctx context.Context) error
	disconnectErr error
	gate          chan struct{}
	entered       chan struct{}
	tracks        []*fakeTrack

	mu           sync.Mutex
	creds        []voice.Credential
	rooms        []*fakeRoom
	live         int
	maxLive      int
	connectCalls int
}

func newFakeTransport(log *callLog) *fakeTransport {
	return &fakeTransport{log: log, autoConnect: true}
}

func (t *fakeTransport) Connect(ctx context.Context, cred voice.Credential, events voice.RoomEvents) (voice.Room, error) {
	t.mu.Lock()
	t.connectCalls++
	t.creds = append(t.creds, cred)
	gate := t.gate
	t.mu.Unlock()
	t.log.add("transport:connect")

	if t.entered != nil {
		t.entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if t.connectErr != nil {
		return nil, t.connectErr
	}

	r := &fakeRoom{
		t:      t,
		events: events,
		local:  &fakeParticipant{log: t.log, identity: "user-identity", enableErr: t.enableErr, onEnable: t.onEnable},
		tracks: t.tracks,
	}
	t.mu.Lock()
	t.rooms = append(t.rooms, r)
	t.live++
	if t.live > t.maxLive {
		t.maxLive = t.live
	}
	t.mu.Unlock()

	for _, tr := range t.tracks {
		events.RemoteAudioAdded(tr)
	}
	if t.autoConnect {
		go events.RoomConnected()
	}
	return r, nil
}

func (t *fakeTransport) lastRoom() *fakeRoom {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.rooms) == 0 {
		return nil
	}
	return t.rooms[len(t.rooms)-1]
}

func (t *fakeTransport) stats() (connectCalls, live, maxLive int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connectCalls, t.live, t.maxLive
}

type fakeRoom struct {
	t           *fakeTransport
	events      voice.RoomEvents
	local       *fakeParticipant
	tracks      []*fakeTrack
	disconnects atomic.Int32
}

func (r *fakeRoom) LocalParticipant() voice.LocalParticipant { return r.local }

func (r *fakeRoom) Disconnect() error {
	n := r.disconnects.Add(1)
	r.t.log.add("room:disconnect")
	if n > 1 {
		return errors.New("room already disconnected")
	}
	r.t.mu.Lock()
	r.t.live--
	r.t.mu.Unlock()
	for _, tr := range r.tracks {
		tr.end()
	}
	// Real transports report their own disconnect too.
	r.events.RoomDisconnected("client initiated")
	return r.t.disconnectErr
}

func (r *fakeRoom) connect() { r.events.RoomConnected() }

func (r *fakeRoom) remoteDisconnect(reason string) {
	for _, tr := range r.tracks {
		tr.end()
	}
	r.events.RoomDisconnected(reason)
}

type fakeParticipant struct {
	log       *callLog
	identity  string
	enableErr error
	onEnable  func(ctx context.Context) error

	mu      sync.Mutex
	enabled bool
}

func (p *fakeParticipant) Identity() string { return p.identity }

func (p *fakeParticipant) SetMicrophoneEnabled(ctx context.Context, enabled bool) error {
	p.log.add(fmt.Sprintf("mic:%t", enabled))
	if enabled && p.onEnable != nil {
		if err := p.onEnable(ctx); err != nil {
			return err
		}
	}
	if enabled && p.enableErr != nil {
		return p.enableErr
	}
	p.mu.Lock()
	p.enabled = enabled
	p.mu.Unlock()
	return nil
}

func (p *fakeParticipant) MicrophoneEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

type fakeTrack struct {
	id   string
	once sync.Once
	done chan struct{}
}

func newFakeTrack(id string) *fakeTrack {
	return &fakeTrack{id: id, done: make(chan struct{})}
}

func (t *fakeTrack) ID() string          { return t.id }
func (t *fakeTrack) Participant() string { return "agent" }

func (t *fakeTrack) ReadRTP() (*rtp.Packet, error) {
	<-t.done
	return nil, io.EOF
}

func (t *fakeTrack) end() { t.once.Do(func() { close(t.done) }) }

type fakeSink struct {
	mu     sync.Mutex
	played []string
}

func (s *fakeSink) Play(ctx context.Context, track voice.RemoteAudioTrack) error {
	s.mu.Lock()
	s.played = append(s.played, track.ID())
	s.mu.Unlock()
	for {
		if _, err := track.ReadRTP(); err != nil {
			return err
		}
	}
}

func (s *fakeSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.played...)
}

// recorder is an Observer that counts notifications.
type recorder struct {
	log *callLog

	mu           sync.Mutex
	connected    int
	disconnected int
	errs         []error
	participant  *voice.Participant

	disconnectedCh chan struct{}
}

func newRecorder(log *callLog) *recorder {
	return &recorder{log: log, disconnectedCh: make(chan struct{}, 16)}
}

func (r *recorder) OnConnected(p *voice.Participant) {
	r.log.add("observer:connected")
	r.mu.Lock()
	r.connected++
	r.participant = p
	r.mu.Unlock()
}

func (r *recorder) OnDisconnected() {
	r.log.add("observer:disconnected")
	r.mu.Lock()
	r.disconnected++
	r.mu.Unlock()
	r.disconnectedCh <- struct{}{}
}

func (r *recorder) OnError(err error) {
	r.log.add("observer:error")
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recorder) counts() (connected, disconnected, errs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected, r.disconnected, len(r.errs)
}

func (r *recorder) lastErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// staticCreds answers every fetch with the same credential.
type staticCreds struct {
	cred voice.Credential
	err  error
}

func (s staticCreds) FetchCredential(context.Context, string, string) (voice.Credential, error) {
	return s.cred, s.err
}

// failFirstCreds fails the first fetch and answers the rest with cred.
type failFirstCreds struct {
	cred  voice.Credential
	calls atomic.Int32
}

func (f *failFirstCreds) FetchCredential(context.Context, string, string) (voice.Credential, error) {
	if f.calls.Add(1) == 1 {
		return voice.Credential{}, errors.New("token service unavailable")
	}
	return f.cred, nil
}
