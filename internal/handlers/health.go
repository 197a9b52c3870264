package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"sitevis/internal/models"
	"sitevis/internal/sessions"
)

// HealthHandler godoc
// @Summary     Health check
// @Description Returns the health status of the API and the number of live projects
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func HealthHandler(registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{Status: "ok", Sessions: registry.Len()})
	}
}
