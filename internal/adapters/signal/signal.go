// Package signal serves the built-in SFU signaling websocket.
package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/miali88/flowonai/internal/adapters/signal/wire"
	"github.com/miali88/flowonai/internal/app/orch"
	"github.com/miali88/flowonai/internal/auth"
	"github.com/miali88/flowonai/internal/core"
	"github.com/miali88/flowonai/internal/credential"
	"github.com/miali88/flowonai/internal/domain"
)

// RoomTokenVerifier checks the room token presented on connect.
type RoomTokenVerifier interface {
	Verify(raw string) (credential.Grant, error)
}

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
	ICEServers []string
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	Verifier RoomTokenVerifier
	Limiter  *RoomRateLimiter
	opts     Options
}

func NewSignalWSController(o *orch.Orchestrator, verifier RoomTokenVerifier, limiter *RoomRateLimiter, opts Options) *SignalWSController {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 32768
	}
	return &SignalWSController{Orch: o, Verifier: verifier, Limiter: limiter, opts: opts}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal authenticates the room token, upgrades the request and joins
// the granted room.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.Query("access_token")
	if token == "" {
		token, _ = auth.BearerToken(c.GetHeader("Authorization"))
	}
	grant, err := ctl.Verifier.Verify(token)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("room token rejected")
		c.AbortWithStatusJSON(http.StatusUnauthorized, wire.NewError("invalid room token"))
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(grant.Identity) {
		log.Warn().Str("module", "signal").Str("identity", string(grant.Identity)).Msg("join rate limited")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, wire.NewError("too many joins"))
		return
	}
	user, err := domain.NewUser(string(grant.Identity), grant.Name)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, wire.NewError(err.Error()))
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	sid := core.SessionID(uuid.NewString())
	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	sess := core.NewMemberSession(domain.NewMember(user, c.GetString("client_token"))).UpdateSignal(conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.BindSignal(sid, sess, cancel)

	log.Info().
		Str("module", "signal").
		Str("sid", string(sid)).
		Str("identity", string(user.ID)).
		Str("room", string(grant.Room)).
		Msg("new WS connection")

	room, ok := ctl.Orch.Join(sid, grant.Room)
	if !ok {
		cancel()
		ctl.Orch.Registry.Unbind(sid)
		conn.Close()
		return
	}
	ctl.sendJSON(conn, wire.Welcome{
		Type:     wire.TypeWelcome,
		SID:      string(sid),
		Identity: string(user.ID),
		Room:     string(grant.Room),
		Members:  members(room.MembersSnapshot()),
	})
	ctl.BroadcastFrom(sid, wire.MemberEvent{Type: wire.TypeMemberJoined, User: memberOf(sess)})

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}

// disconnect releases everything sid held once its websocket is gone.
func (ctl *SignalWSController) disconnect(sid core.SessionID) {
	roomName, sess, inRoom := ctl.Orch.Registry.RoomOf(sid)
	ctl.Orch.KickBySID(sid)
	ctl.Orch.Registry.Unbind(sid)
	if inRoom {
		ctl.BroadcastRoom(roomName, wire.MemberEvent{Type: wire.TypeMemberLeft, User: memberOf(sess)})
	}
}

func (ctl *SignalWSController) BroadcastFrom(sid core.SessionID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	ctl.Orch.Publish(sid, b)
}

func (ctl *SignalWSController) BroadcastRoom(name domain.RoomName, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	ctl.Orch.PublishRoom(name, b)
}

func memberOf(sess core.MemberSession) wire.Member {
	u := sess.Meta().User
	return wire.Member{ID: string(u.ID), Username: u.Username, Muted: sess.Muted()}
}

func members(in []core.MemberDTO) []wire.Member {
	out := make([]wire.Member, 0, len(in))
	for _, m := range in {
		out = append(out, wire.Member{ID: string(m.ID), Username: m.Username, Muted: m.Muted})
	}
	return out
}
