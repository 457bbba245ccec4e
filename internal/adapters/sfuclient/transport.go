// Package sfuclient joins rooms of the built-in SFU over its signaling
// websocket and a pion peer connection.
package sfuclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/miali88/flowonai/internal/adapters/rtc"
	"github.com/miali88/flowonai/internal/adapters/signal/wire"
	"github.com/miali88/flowonai/internal/media"
	"github.com/miali88/flowonai/internal/voice"
)

var (
	ErrRejected     = errors.New("signaling rejected the room token")
	ErrDisconnected = errors.New("room already disconnected")
)

type Config struct {
	ICEServers []string
	// Audio feeds the microphone; silence when nil.
	Audio media.Opener
	// HandshakeTimeout bounds the websocket dial and the welcome message.
	HandshakeTimeout time.Duration
}

// Transport implements voice.RoomTransport against the built-in SFU.
type Transport struct {
	cfg    Config
	dialer *websocket.Dialer
}

func New(cfg Config) *Transport {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &Transport{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
	}
}

func (t *Transport) Connect(ctx context.Context, cred voice.Credential, events voice.RoomEvents) (voice.Room, error) {
	u, err := url.Parse(cred.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("signal url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", cred.RoomToken)
	u.RawQuery = q.Encode()

	ws, resp, err := t.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial signal: %w", err)
	}
	// Unblocks the handshake reads when ctx ends first.
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	welcome, err := t.awaitWelcome(ws)
	if err != nil {
		_ = ws.Close()
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		return nil, err
	}

	r, err := t.open(ws, welcome, events)
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	if !stop() {
		r.teardown("connect cancelled")
		return nil, context.Cause(ctx)
	}
	return r, nil
}

func (t *Transport) awaitWelcome(ws *websocket.Conn) (wire.Welcome, error) {
	if err := ws.SetReadDeadline(time.Now().Add(t.cfg.HandshakeTimeout)); err != nil {
		return wire.Welcome{}, err
	}
	defer ws.SetReadDeadline(time.Time{})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return wire.Welcome{}, fmt.Errorf("await welcome: %w", err)
		}
		typ, err := wire.TypeOf(data)
		if err != nil {
			return wire.Welcome{}, fmt.Errorf("await welcome: %w", err)
		}
		switch typ {
		case wire.TypeWelcome:
			var w wire.Welcome
			if err := json.Unmarshal(data, &w); err != nil {
				return wire.Welcome{}, fmt.Errorf("decode welcome: %w", err)
			}
			return w, nil
		case wire.TypeError:
			var e wire.Error
			_ = json.Unmarshal(data, &e)
			return wire.Welcome{}, fmt.Errorf("%w: %s", ErrRejected, e.Error)
		}
	}
}

func (t *Transport) open(ws *websocket.Conn, w wire.Welcome, events voice.RoomEvents) (*room, error) {
	mic, err := media.NewMicrophone(w.Identity, t.cfg.Audio)
	if err != nil {
		return nil, err
	}
	pc, err := rtc.NewWebRTCConnection(rtc.DefaultWebRTCConfig(t.cfg.ICEServers...), w.SID)
	if err != nil {
		return nil, fmt.Errorf("peer connection: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &room{
		ws:     ws,
		pc:     pc,
		mic:    mic,
		events: events,
		cancel: cancel,
		done:   make(chan struct{}),
		logger: log.With().Str("module", "sfuclient").Str("sid", w.SID).Str("room", w.Room).Logger(),
	}
	r.local = &participant{identity: w.Identity, mic: mic}

	pc.OnStateChange(r.onPeerState)
	pc.OnTrack(func(_ context.Context, track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		r.events.RemoteAudioAdded(remoteTrack{track: track})
	})
	if err := pc.Start(ctx); err != nil {
		cancel()
		pc.Close()
		return nil, err
	}

	sender, err := pc.AddLocalTrack(mic.Track())
	if err != nil {
		cancel()
		pc.Close()
		return nil, fmt.Errorf("add microphone track: %w", err)
	}
	go drainRTCP(sender)

	offer, err := pc.CreateAndSetOffer()
	if err == nil && offer == nil {
		err = errors.New("signaling not stable")
	}
	if err != nil {
		cancel()
		pc.Close()
		return nil, fmt.Errorf("create offer: %w", err)
	}
	if err := r.send(wire.SDP{Type: wire.TypeOffer, SDP: offer.SDP}); err != nil {
		cancel()
		pc.Close()
		return nil, fmt.Errorf("send offer: %w", err)
	}

	r.logger.Info().Str("identity", w.Identity).Int("members", len(w.Members)).Msg("joined")
	go r.readLoop(ctx)
	return r, nil
}

func drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}

type room struct {
	ws     *websocket.Conn
	pc     *rtc.WebRTCConnection
	mic    *media.Microphone
	local  *participant
	events voice.RoomEvents
	logger zerolog.Logger

	writeMu sync.Mutex

	cancel        context.CancelFunc
	done          chan struct{}
	connectedOnce sync.Once
	goneOnce      sync.Once
}

func (r *room) LocalParticipant() voice.LocalParticipant { return r.local }

// Disconnect leaves the room; later calls return ErrDisconnected.
func (r *room) Disconnect() error {
	if !r.teardown("client initiated") {
		return ErrDisconnected
	}
	return nil
}

// teardown releases everything once and reports the disconnect.
func (r *room) teardown(reason string) bool {
	first := false
	r.goneOnce.Do(func() {
		first = true
		r.logger.Info().Str("reason", reason).Msg("leaving room")
		_ = r.send(wire.Simple(wire.TypeLeave))
		r.cancel()
		r.mic.Disable()
		r.pc.Close()
		r.writeMu.Lock()
		_ = r.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		r.writeMu.Unlock()
		_ = r.ws.Close()
	})
	if first {
		r.events.RoomDisconnected(reason)
	}
	return first
}

func (r *room) onPeerState(s webrtc.PeerConnectionState) {
	switch s {
	case webrtc.PeerConnectionStateConnected:
		r.connectedOnce.Do(r.events.RoomConnected)
	case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
		go r.teardown("peer connection " + s.String())
	}
}

func (r *room) send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_ = r.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return r.ws.WriteMessage(websocket.TextMessage, b)
}

func (r *room) readLoop(ctx context.Context) {
	defer close(r.done)
	for {
		_, data, err := r.ws.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				r.logger.Warn().Err(err).Msg("signal lost")
				go r.teardown("signal lost")
			}
			return
		}
		r.handle(data)
	}
}

func (r *room) handle(data []byte) {
	typ, err := wire.TypeOf(data)
	if err != nil {
		r.logger.Warn().Err(err).Msg("bad signal message")
		return
	}
	switch typ {
	case wire.TypeAnswer:
		var p wire.SDP
		if err := json.Unmarshal(data, &p); err != nil {
			return
		}
		if err := r.pc.ApplyAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: p.SDP}); err != nil {
			r.logger.Error().Err(err).Msg("apply answer")
		}
	case wire.TypeOffer:
		var p wire.SDP
		if err := json.Unmarshal(data, &p); err != nil {
			return
		}
		answer, err := r.pc.ApplyOfferAndCreateAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: p.SDP})
		if err != nil {
			r.logger.Error().Err(err).Msg("apply server offer")
			return
		}
		if err := r.send(wire.SDP{Type: wire.TypeAnswer, SDP: answer.SDP}); err != nil {
			r.logger.Warn().Err(err).Msg("send answer")
		}
	case wire.TypeCandidate:
		var p wire.Candidate
		if err := json.Unmarshal(data, &p); err != nil {
			return
		}
		if err := r.pc.AddICECandidate(p.Init()); err != nil {
			r.logger.Debug().Err(err).Msg("add remote candidate")
		}
	case wire.TypeLeft:
		go r.teardown("removed from room")
	case wire.TypeError:
		var e wire.Error
		_ = json.Unmarshal(data, &e)
		r.logger.Warn().Str("error", e.Error).Msg("signal error")
	default:
		r.logger.Debug().Str("type", typ).Msg("signal event")
	}
}

type participant struct {
	identity string
	mic      *media.Microphone
}

func (p *participant) Identity() string { return p.identity }

func (p *participant) SetMicrophoneEnabled(ctx context.Context, enabled bool) error {
	if !enabled {
		p.mic.Disable()
		return nil
	}
	return p.mic.Enable(ctx)
}

func (p *participant) MicrophoneEnabled() bool { return p.mic.Enabled() }

// remoteTrack exposes a relayed track; the SFU names streams after the
// publishing session.
type remoteTrack struct {
	track *webrtc.TrackRemote
}

func (t remoteTrack) ID() string          { return t.track.ID() }
func (t remoteTrack) Participant() string { return t.track.StreamID() }

func (t remoteTrack) ReadRTP() (*rtp.Packet, error) {
	pkt, _, err := t.track.ReadRTP()
	return pkt, err
}
