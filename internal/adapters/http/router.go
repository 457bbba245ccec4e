package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/miali88/flowonai/internal/adapters/signal"
	"github.com/miali88/flowonai/internal/app/orch"
	"github.com/miali88/flowonai/internal/auth"
	"github.com/miali88/flowonai/internal/config"
	"github.com/miali88/flowonai/internal/credential"
)

const clientTokenKey = "ct"

// Deps are the collaborators the routes need.
type Deps struct {
	Orch     *orch.Orchestrator
	Issuer   *credential.Issuer
	Verifier auth.TokenVerifier
	Limiter  *signal.RoomRateLimiter
}

// ClientTokenMiddleware gives every browser a stable id kept in the session cookie.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(clientTokenKey).(string)
		if token == "" {
			token = uuid.NewString()
			session.Set(clientTokenKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save client session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("FlowonSessions", store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &handlers{cfg: cfg, issuer: deps.Issuer, orch: deps.Orch}
	ctl := signal.NewSignalWSController(deps.Orch, deps.Issuer, deps.Limiter, signal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		SendBuffer: cfg.Signal.SendBuffer,
		ICEServers: cfg.Voice.ICEServers,
	})

	api := r.Group("/api")
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctl.HandleSignal(ctx, c)
	})

	authed := api.Group("", auth.Middleware(deps.Verifier))
	authed.GET("/v1/livekit/token", h.roomToken)
	authed.GET("/rooms", h.listRooms)
	authed.DELETE("/rooms/:name", h.evictRoom)

	return r
}
