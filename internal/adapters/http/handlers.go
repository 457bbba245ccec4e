package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/miali88/flowonai/internal/app/orch"
	"github.com/miali88/flowonai/internal/auth"
	"github.com/miali88/flowonai/internal/config"
	"github.com/miali88/flowonai/internal/credential"
	"github.com/miali88/flowonai/internal/domain"
	"github.com/miali88/flowonai/internal/voice"
)

type handlers struct {
	cfg    *config.Config
	issuer *credential.Issuer
	orch   *orch.Orchestrator
}

type tokenQuery struct {
	AgentID string `form:"agent_id" binding:"required"`
	UserID  string `form:"user_id" binding:"required"`
}

// roomToken mints a room credential for the agent room of the caller's user.
func (h *handlers) roomToken(c *gin.Context) {
	var q tokenQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agent_id and user_id are required"})
		return
	}

	token, grant, err := h.issuer.Issue(q.AgentID, q.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAgentID) || errors.Is(err, domain.ErrUserIDEmpty) || errors.Is(err, domain.ErrUserIDTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("issue room token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	log.Info().
		Str("module", "adapters.http").
		Str("principal", auth.Principal(c)).
		Str("agent_id", q.AgentID).
		Str("user_id", q.UserID).
		Str("room", string(grant.Room)).
		Msg("room token issued")

	c.JSON(http.StatusOK, voice.TokenResponse{
		AccessToken: token,
		URL:         h.cfg.RoomURL(),
		ExpiresAt:   grant.ExpiresAt,
	})
}

func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Rooms.List()})
}

func (h *handlers) evictRoom(c *gin.Context) {
	name := domain.RoomName(c.Param("name"))
	if !h.orch.EvictRoom(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	log.Info().Str("module", "adapters.http").Str("principal", auth.Principal(c)).Str("room", string(name)).Msg("room evicted")
	c.Status(http.StatusNoContent)
}
