package voice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/miali88/flowonai/internal/voice"
	"github.com/miali88/flowonai/internal/voice/mocks"
)

var testCred = voice.Credential{RoomToken: "tok", ServerURL: "wss://x"}

func startConnected(t *testing.T, c *voice.Controller) {
	t.Helper()
	require.NoError(t, c.Start(context.Background(), "agent-1", "user-9"))
	require.Equal(t, voice.StateConnected, c.State())
}

func TestStartConnectsAndEnablesMicrophone(t *testing.T) {
	ctrl := gomock.NewController(t)
	creds := mocks.NewMockCredentialSource(ctrl)
	obs := mocks.NewMockObserver(ctrl)

	creds.EXPECT().
		FetchCredential(gomock.Any(), "agent-1", "user-9").
		Return(voice.Credential{RoomToken: "tok", ServerURL: "wss://x"}, nil).
		Times(1)
	var participant *voice.Participant
	obs.EXPECT().OnConnected(gomock.Any()).Times(1).Do(func(p *voice.Participant) { participant = p })

	log := &callLog{}
	tr := newFakeTransport(log)
	c := voice.NewController(creds, tr, obs, voice.Config{})

	startConnected(t, c)

	require.Len(t, tr.creds, 1)
	assert.Equal(t, "tok", tr.creds[0].RoomToken)
	assert.Equal(t, "wss://x", tr.creds[0].ServerURL)

	require.NotNil(t, participant)
	assert.True(t, participant.MicrophoneEnabled())
	assert.False(t, participant.Muted())
	assert.True(t, tr.lastRoom().local.MicrophoneEnabled())

	st := c.Status()
	assert.Equal(t, voice.StateConnected, st.State)
	assert.Equal(t, "agent-1", st.AgentID)
	assert.Equal(t, "user-9", st.UserID)
	assert.Equal(t, "user-identity", st.Identity)
	assert.True(t, st.MicrophoneEnabled)
	assert.NotEmpty(t, st.SessionID)

	// Stop ends the session: one disconnect, one notification.
	obs.EXPECT().OnDisconnected().Times(1)
	c.Stop()

	assert.Equal(t, voice.StateIdle, c.State())
	assert.Equal(t, int32(1), tr.lastRoom().disconnects.Load())
	assert.False(t, participant.Attached())
	assert.False(t, participant.MicrophoneEnabled())
	_, live, _ := tr.stats()
	assert.Zero(t, live)
	assert.Equal(t, voice.Status{State: voice.StateIdle}, c.Status())
}

func TestRemoteDisconnectTearsDown(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	startConnected(t, c)
	room := tr.lastRoom()
	room.remoteDisconnect("server shutdown")

	waitSignal(t, rec.disconnectedCh, "OnDisconnected")
	assert.Equal(t, voice.StateIdle, c.State())
	assert.Equal(t, int32(1), room.disconnects.Load())

	// Give a second notification a chance to show up.
	time.Sleep(20 * time.Millisecond)
	connected, disconnected, errs := rec.counts()
	assert.Equal(t, 1, connected)
	assert.Equal(t, 1, disconnected)
	assert.Zero(t, errs)

	// Stop after the fact is a no-op.
	c.Stop()
	_, disconnected, _ = rec.counts()
	assert.Equal(t, 1, disconnected)
}

func TestStartWhileActiveIsRejected(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	startConnected(t, c)
	before := c.Status()

	err := c.Start(context.Background(), "agent-2", "user-2")
	require.ErrorIs(t, err, voice.ErrAlreadyActive)
	var verr *voice.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, voice.KindAlreadyActive, verr.Kind)

	assert.Equal(t, before, c.Status())
	calls, live, _ := tr.stats()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, live)
	_, disconnected, errs := rec.counts()
	assert.Zero(t, disconnected)
	assert.Zero(t, errs)
}

func TestStartWhileConnectingIsRejected(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	tr.autoConnect = false
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	result := make(chan error, 1)
	go func() { result <- c.Start(context.Background(), "agent-1", "user-9") }()
	require.Eventually(t, func() bool { return tr.lastRoom() != nil }, time.Second, time.Millisecond)

	err := c.Start(context.Background(), "agent-1", "user-9")
	require.ErrorIs(t, err, voice.ErrAlreadyActive)
	assert.Equal(t, voice.StateConnecting, c.State())

	tr.lastRoom().connect()
	require.NoError(t, <-result)
	assert.Equal(t, voice.StateConnected, c.State())
}

func TestStopIsIdempotentAndRacesRemoteDisconnect(t *testing.T) {
	for i := 0; i < 20; i++ {
		log := &callLog{}
		tr := newFakeTransport(log)
		rec := newRecorder(log)
		c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})
		startConnected(t, c)
		room := tr.lastRoom()

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Stop()
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			room.remoteDisconnect("remote hangup")
		}()
		wg.Wait()

		waitSignal(t, rec.disconnectedCh, "OnDisconnected")
		c.Stop()
		time.Sleep(5 * time.Millisecond)

		_, disconnected, errs := rec.counts()
		require.Equal(t, 1, disconnected, "iteration %d", i)
		require.Zero(t, errs)
		require.Equal(t, voice.StateIdle, c.State())
		require.Equal(t, int32(1), room.disconnects.Load())
	}
}

func TestMicrophoneEnabledOnlyAfterConnected(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	tr.autoConnect = false
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	result := make(chan error, 1)
	go func() { result <- c.Start(context.Background(), "agent-1", "user-9") }()
	require.Eventually(t, func() bool { return tr.lastRoom() != nil }, time.Second, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, -1, log.index("mic:true"), "microphone enabled before connected event")
	assert.Equal(t, voice.StateConnecting, c.State())

	tr.lastRoom().connect()
	require.NoError(t, <-result)

	connectedAt := log.index("observer:connected")
	micAt := log.index("mic:true")
	require.NotEqual(t, -1, connectedAt)
	require.NotEqual(t, -1, micAt)
	assert.Less(t, connectedAt, micAt)
}

func TestStopDuringCredentialFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	creds := mocks.NewMockCredentialSource(ctrl)

	entered := make(chan struct{})
	release := make(chan struct{})
	creds.EXPECT().
		FetchCredential(gomock.Any(), "agent-1", "user-9").
		DoAndReturn(func(context.Context, string, string) (voice.Credential, error) {
			close(entered)
			<-release
			return testCred, nil
		})

	log := &callLog{}
	tr := newFakeTransport(log)
	rec := newRecorder(log)
	c := voice.NewController(creds, tr, rec, voice.Config{})

	result := make(chan error, 1)
	go func() { result <- c.Start(context.Background(), "agent-1", "user-9") }()
	waitSignal(t, entered, "credential fetch")
	assert.Equal(t, voice.StateConnecting, c.State())

	c.Stop()
	assert.Equal(t, voice.StateIdle, c.State())

	close(release)
	require.ErrorIs(t, <-result, voice.ErrStopped)

	connected, disconnected, errs := rec.counts()
	assert.Zero(t, connected)
	assert.Equal(t, 1, disconnected)
	assert.Zero(t, errs)
	_, live, _ := tr.stats()
	assert.Zero(t, live)
	assert.Equal(t, voice.StateIdle, c.State())
}

func TestStopDuringRoomConnectDisconnectsLateRoom(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	tr.gate = make(chan struct{})
	tr.entered = make(chan struct{}, 1)
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	result := make(chan error, 1)
	go func() { result <- c.Start(context.Background(), "agent-1", "user-9") }()
	waitSignal(t, tr.entered, "room connect")

	c.Stop()
	close(tr.gate)
	require.ErrorIs(t, <-result, voice.ErrStopped)

	room := tr.lastRoom()
	require.NotNil(t, room)
	assert.Equal(t, int32(1), room.disconnects.Load())
	assert.Equal(t, -1, log.index("mic:true"))
	assert.Equal(t, -1, log.index("observer:connected"))
	_, live, maxLive := tr.stats()
	assert.Zero(t, live)
	assert.Equal(t, 1, maxLive)

	_, disconnected, errs := rec.counts()
	assert.Equal(t, 1, disconnected)
	assert.Zero(t, errs)
	assert.Equal(t, voice.StateIdle, c.State())
}

func TestCredentialFetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	creds := mocks.NewMockCredentialSource(ctrl)
	obs := mocks.NewMockObserver(ctrl)

	fetchErr := &voice.Error{Kind: voice.KindCredentialFetch, Status: 500, Err: errors.New("boom")}
	creds.EXPECT().FetchCredential(gomock.Any(), "agent-1", "user-9").Return(voice.Credential{}, fetchErr)

	var got error
	gomock.InOrder(
		obs.EXPECT().OnDisconnected().Times(1),
		obs.EXPECT().OnError(gomock.Any()).Times(1).Do(func(err error) { got = err }),
	)

	log := &callLog{}
	tr := newFakeTransport(log)
	c := voice.NewController(creds, tr, obs, voice.Config{})

	err := c.Start(context.Background(), "agent-1", "user-9")
	require.ErrorIs(t, err, voice.ErrCredentialFetch)
	require.ErrorIs(t, got, voice.ErrCredentialFetch)

	var verr *voice.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 500, verr.Status)
	assert.Equal(t, voice.StateIdle, c.State())

	calls, _, _ := tr.stats()
	assert.Zero(t, calls)
}

func TestRoomConnectFailure(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	tr.connectErr = errors.New("dial refused")
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	err := c.Start(context.Background(), "agent-1", "user-9")
	require.ErrorIs(t, err, voice.ErrRoomConnect)
	assert.ErrorContains(t, err, "dial refused")
	assert.Equal(t, voice.StateIdle, c.State())

	_, disconnected, errs := rec.counts()
	assert.Equal(t, 1, disconnected)
	assert.Equal(t, 1, errs)
	assert.ErrorIs(t, rec.lastErr(), voice.ErrRoomConnect)
}

func TestDisconnectBeforeConnectedEvent(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	tr.autoConnect = false
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	result := make(chan error, 1)
	go func() { result <- c.Start(context.Background(), "agent-1", "user-9") }()
	require.Eventually(t, func() bool { return tr.lastRoom() != nil }, time.Second, time.Millisecond)
	room := tr.lastRoom()
	room.remoteDisconnect("join rejected")

	err := <-result
	require.ErrorIs(t, err, voice.ErrRoomConnect)
	assert.ErrorContains(t, err, "join rejected")
	assert.Equal(t, int32(1), room.disconnects.Load())
	assert.Equal(t, voice.StateIdle, c.State())
	connected, _, errs := rec.counts()
	assert.Zero(t, connected)
	assert.Equal(t, 1, errs)
}

func TestConnectTimeout(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	tr.autoConnect = false
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{ConnectTimeout: 20 * time.Millisecond})

	err := c.Start(context.Background(), "agent-1", "user-9")
	require.ErrorIs(t, err, voice.ErrRoomConnect)
	assert.Equal(t, voice.StateIdle, c.State())
	_, live, _ := tr.stats()
	assert.Zero(t, live)
}

func TestStartContextCanceledWhileWaiting(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	tr.autoConnect = false
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- c.Start(ctx, "agent-1", "user-9") }()
	require.Eventually(t, func() bool { return tr.lastRoom() != nil }, time.Second, time.Millisecond)
	cancel()

	err := <-result
	require.ErrorIs(t, err, voice.ErrRoomConnect)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, voice.StateIdle, c.State())
}

func TestMicrophonePermissionFailure(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	tr.enableErr = errors.New("permission denied")
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	err := c.Start(context.Background(), "agent-1", "user-9")
	require.ErrorIs(t, err, voice.ErrMediaPermission)
	assert.ErrorContains(t, err, "permission denied")
	assert.Equal(t, voice.StateIdle, c.State())
	assert.Equal(t, int32(1), tr.lastRoom().disconnects.Load())

	connected, disconnected, errs := rec.counts()
	assert.Equal(t, 1, connected)
	assert.Equal(t, 1, disconnected)
	assert.Equal(t, 1, errs)
	assert.Less(t, log.index("observer:disconnected"), log.index("observer:error"))
}

func TestStartCanceledDuringMicrophoneEnable(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr.onEnable = func(enableCtx context.Context) error {
		cancel()
		<-enableCtx.Done()
		return enableCtx.Err()
	}
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	err := c.Start(ctx, "agent-1", "user-9")
	require.ErrorIs(t, err, voice.ErrRoomConnect)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, voice.ErrMediaPermission)
	assert.Equal(t, voice.StateIdle, c.State())
	assert.Equal(t, int32(1), tr.lastRoom().disconnects.Load())
	assert.ErrorIs(t, rec.lastErr(), voice.ErrRoomConnect)
}

func TestSetMuted(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	require.ErrorIs(t, c.SetMuted(context.Background(), true), voice.ErrNotConnected)

	startConnected(t, c)
	local := tr.lastRoom().local

	require.NoError(t, c.SetMuted(context.Background(), true))
	assert.False(t, local.MicrophoneEnabled())
	st := c.Status()
	assert.True(t, st.Muted)
	assert.False(t, st.MicrophoneEnabled)

	// Muting twice does not touch the participant again.
	before := len(log.snapshot())
	require.NoError(t, c.SetMuted(context.Background(), true))
	assert.Len(t, log.snapshot(), before)

	require.NoError(t, c.SetMuted(context.Background(), false))
	assert.True(t, local.MicrophoneEnabled())
	assert.False(t, c.Status().Muted)

	c.Stop()
	require.ErrorIs(t, c.SetMuted(context.Background(), false), voice.ErrNotConnected)
}

func TestFailedUnmuteEndsSession(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	startConnected(t, c)
	require.NoError(t, c.SetMuted(context.Background(), true))

	tr.lastRoom().local.enableErr = errors.New("device gone")
	err := c.SetMuted(context.Background(), false)
	require.ErrorIs(t, err, voice.ErrMediaPermission)
	assert.Equal(t, voice.StateIdle, c.State())
	_, disconnected, errs := rec.counts()
	assert.Equal(t, 1, disconnected)
	assert.Equal(t, 1, errs)
}

func TestRemoteAudioIsPlayed(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	early := newFakeTrack("early")
	tr.tracks = []*fakeTrack{early}
	sink := &fakeSink{}
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{Sink: sink})

	startConnected(t, c)
	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, time.Millisecond)

	late := newFakeTrack("late")
	room := tr.lastRoom()
	room.tracks = append(room.tracks, late)
	room.events.RemoteAudioAdded(late)
	require.Eventually(t, func() bool { return len(sink.snapshot()) == 2 }, time.Second, time.Millisecond)
	assert.ElementsMatch(t, []string{"early", "late"}, sink.snapshot())

	c.Stop()
	assert.Equal(t, voice.StateIdle, c.State())

	// Tracks announced after teardown are ignored.
	room.events.RemoteAudioAdded(newFakeTrack("after"))
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, sink.snapshot(), 2)
}

func TestDisconnectErrorIsSwallowed(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	tr.disconnectErr = errors.New("socket already closed")
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	startConnected(t, c)
	c.Stop()

	assert.Equal(t, voice.StateIdle, c.State())
	_, disconnected, errs := rec.counts()
	assert.Equal(t, 1, disconnected)
	assert.Zero(t, errs)
}

func TestCloseReleasesSession(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	startConnected(t, c)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.Equal(t, voice.StateIdle, c.State())
	assert.Equal(t, int32(1), tr.lastRoom().disconnects.Load())
	_, disconnected, _ := rec.counts()
	assert.Equal(t, 1, disconnected)

	require.ErrorIs(t, c.Start(context.Background(), "agent-1", "user-9"), voice.ErrClosed)
}

func TestNeverMoreThanOneLiveRoom(t *testing.T) {
	log := &callLog{}
	tr := newFakeTransport(log)
	rec := newRecorder(log)
	c := voice.NewController(staticCreds{cred: testCred}, tr, rec, voice.Config{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = c.Start(context.Background(), "agent-1", "user-9")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				c.Stop()
			}
		}()
	}
	wg.Wait()
	c.Stop()

	calls, live, maxLive := tr.stats()
	assert.Positive(t, calls)
	assert.Zero(t, live)
	assert.Equal(t, 1, maxLive)
	assert.Equal(t, voice.StateIdle, c.State())
}

func TestObserverFuncs(t *testing.T) {
	var connected, disconnected int
	var gotErr error
	obs := voice.ObserverFuncs{
		Connected:    func(*voice.Participant) { connected++ },
		Disconnected: func() { disconnected++ },
	}

	log := &callLog{}
	tr := newFakeTransport(log)
	c := voice.NewController(staticCreds{err: errors.New("nope")}, tr, obs, voice.Config{})
	gotErr = c.Start(context.Background(), "a", "u")
	require.ErrorIs(t, gotErr, voice.ErrCredentialFetch)
	assert.Zero(t, connected)
	assert.Equal(t, 1, disconnected)
}

// retryOnce runs Start again from inside an observer callback the first time
// it is called and reports the result on the returned channel.
func retryOnce(c **voice.Controller) (func(), <-chan error) {
	result := make(chan error, 1)
	var once sync.Once
	return func() {
		once.Do(func() { result <- (*c).Start(context.Background(), "agent-1", "user-9") })
	}, result
}

func TestRetryFromObserverAfterFailure(t *testing.T) {
	tests := []struct {
		name string
		obs  func(retry func()) voice.Observer
	}{
		{
			name: "from OnError",
			obs: func(retry func()) voice.Observer {
				return voice.ObserverFuncs{Error: func(error) { retry() }}
			},
		},
		{
			name: "from OnDisconnected",
			obs: func(retry func()) voice.Observer {
				return voice.ObserverFuncs{Disconnected: retry}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &callLog{}
			tr := newFakeTransport(log)
			var c *voice.Controller
			retry, retried := retryOnce(&c)
			c = voice.NewController(&failFirstCreds{cred: testCred}, tr, tt.obs(retry), voice.Config{})

			first := make(chan error, 1)
			go func() { first <- c.Start(context.Background(), "agent-1", "user-9") }()

			select {
			case err := <-first:
				require.ErrorIs(t, err, voice.ErrCredentialFetch)
			case <-time.After(2 * time.Second):
				t.Fatal("Start deadlocked when retried from the observer")
			}
			select {
			case err := <-retried:
				require.NoError(t, err)
			case <-time.After(time.Second):
				t.Fatal("retry never ran")
			}

			assert.Equal(t, voice.StateConnected, c.State())
			calls, live, _ := tr.stats()
			assert.Equal(t, 1, calls)
			assert.Equal(t, 1, live)
			c.Stop()
			assert.Equal(t, voice.StateIdle, c.State())
		})
	}
}
