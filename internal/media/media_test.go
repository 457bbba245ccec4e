package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceTrack struct {
	id, participant string
	packets         []*rtp.Packet
}

func (t *sliceTrack) ID() string          { return t.id }
func (t *sliceTrack) Participant() string { return t.participant }

func (t *sliceTrack) ReadRTP() (*rtp.Packet, error) {
	if len(t.packets) == 0 {
		return nil, io.EOF
	}
	p := t.packets[0]
	t.packets = t.packets[1:]
	return p, nil
}

func opusPackets(payloads ...string) []*rtp.Packet {
	out := make([]*rtp.Packet, 0, len(payloads))
	for i, p := range payloads {
		out = append(out, &rtp.Packet{
			Header:  rtp.Header{Version: 2, PayloadType: 111, SequenceNumber: uint16(i), Timestamp: uint32(960 * (i + 1))},
			Payload: []byte(p),
		})
	}
	return out
}

func TestRecorderThenOggFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec := OggRecorder{Dir: filepath.Join(dir, "rec")}
	track := &sliceTrack{id: "TR_1", participant: "agent/1", packets: opusPackets("one", "two", "three")}

	require.NoError(t, rec.Play(context.Background(), track))
	path := rec.Path(track)
	assert.Equal(t, "agent_1-TR_1.ogg", filepath.Base(path))

	src, err := OggFile(path)()
	require.NoError(t, err)
	defer src.Close()

	var got []string
	for range 4 {
		s, err := src.NextSample()
		require.NoError(t, err)
		got = append(got, string(s.Data))
	}
	assert.Equal(t, []string{"one", "two", "three", "one"}, got, "source loops at end of file")
}

func TestRecorderStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := OggRecorder{Dir: t.TempDir()}
	err := rec.Play(ctx, &sliceTrack{id: "a", participant: "b", packets: opusPackets("x")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOggFileMissing(t *testing.T) {
	_, err := OggFile(filepath.Join(t.TempDir(), "nope.ogg"))()
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestOggFileNotOgg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.ogg")
	require.NoError(t, os.WriteFile(path, []byte("definitely not ogg"), 0o600))
	_, err := OggFile(path)()
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestMicrophoneEnableDisable(t *testing.T) {
	mic, err := NewMicrophone("user-9", Silence())
	require.NoError(t, err)
	assert.Equal(t, "microphone", mic.Track().ID())
	assert.False(t, mic.Enabled())

	require.NoError(t, mic.Enable(context.Background()))
	assert.True(t, mic.Enabled())
	require.NoError(t, mic.Enable(context.Background()), "second enable is a no-op")

	mic.Disable()
	assert.False(t, mic.Enabled())
	mic.Disable()
}

func TestMicrophoneSourceUnavailable(t *testing.T) {
	mic, err := NewMicrophone("user-9", func() (SampleSource, error) {
		return nil, errors.New("device busy")
	})
	require.NoError(t, err)

	err = mic.Enable(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.False(t, mic.Enabled())
}

func TestMicrophoneCancelledContext(t *testing.T) {
	mic, err := NewMicrophone("user-9", nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, mic.Enable(ctx), context.Canceled)
	assert.False(t, mic.Enabled())
}

// shortSource yields n silent frames and then io.EOF.
type shortSource struct {
	n      int
	closed atomic.Bool
}

func (s *shortSource) NextSample() (media.Sample, error) {
	if s.n == 0 {
		return media.Sample{}, io.EOF
	}
	s.n--
	return media.Sample{Data: silenceFrame, Duration: time.Millisecond}, nil
}

func (s *shortSource) Close() error {
	s.closed.Store(true)
	return nil
}

func TestMicrophoneOffWhenSourceEnds(t *testing.T) {
	src := &shortSource{n: 3}
	mic, err := NewMicrophone("user-9", func() (SampleSource, error) { return src, nil })
	require.NoError(t, err)

	require.NoError(t, mic.Enable(context.Background()))
	require.Eventually(t, func() bool { return !mic.Enabled() }, time.Second, time.Millisecond)
	first := src
	require.Eventually(t, first.closed.Load, time.Second, time.Millisecond)
	mic.Disable()

	// Enabling again opens a fresh source.
	src = &shortSource{n: 1000}
	require.NoError(t, mic.Enable(context.Background()))
	assert.True(t, mic.Enabled())
	mic.Disable()
	assert.False(t, mic.Enabled())
}
