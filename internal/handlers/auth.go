package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"sitevis/internal/database"
	"sitevis/internal/identity"
	"sitevis/internal/middleware"
	"sitevis/internal/models"
)

// EditStatsSource reports how many edits a user has run.
type EditStatsSource interface {
	StatsForUser(ctx context.Context, userID string) (database.EditStats, error)
}

// RateLimitResetter drops the rate-limit state of a user.
type RateLimitResetter interface {
	Forget(userID string)
}

type AuthHandler struct {
	provider identity.Provider
	stats    EditStatsSource
	limits   RateLimitResetter
	log      zerolog.Logger
}

// NewAuthHandler wires the session endpoints. stats and limits may be nil.
func NewAuthHandler(provider identity.Provider, stats EditStatsSource, limits RateLimitResetter, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{provider: provider, stats: stats, limits: limits, log: log}
}

// Me godoc
// @Summary     Current user
// @Description Returns the signed-in user, or a null user for anonymous callers
// @Tags        auth
// @Produce     json
// @Param       Authorization header string false "Bearer token"
// @Success     200 {object} models.MeResponse
// @Router      /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, models.MeResponse{})
		return
	}

	resp := models.MeResponse{User: &models.UserResponse{
		ID:          id.UserID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		AvatarURL:   id.AvatarURL,
		Provider:    id.Provider,
	}}
	if h.stats != nil {
		stats, err := h.stats.StatsForUser(c.Request.Context(), id.UserID)
		if err != nil {
			h.log.Warn().Err(err).Str("user_id", id.UserID).Msg("failed to load edit stats")
		} else {
			resp.Stats = &models.EditStatsResponse{Total: stats.Total, Succeeded: stats.Succeeded, Failed: stats.Failed}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// SignOut godoc
// @Summary     Sign out
// @Description Invalidates the caller's session with the identity provider
// @Tags        auth
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.SignOutResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}
	if err := h.provider.SignOut(c.Request.Context(), c.GetString(middleware.TokenKey), id); err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "failed to sign out", Message: err.Error()})
		return
	}
	if h.limits != nil {
		h.limits.Forget(id.UserID)
	}
	c.JSON(http.StatusOK, models.SignOutResponse{Status: "signed_out"})
}
