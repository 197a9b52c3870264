package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"sitevis/internal/editor"
	"sitevis/internal/history"
	"sitevis/internal/middleware"
	"sitevis/internal/models"
	"sitevis/internal/sessions"
)

const apiPrefix = "/api/v1"

func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return "", false
	}
	return userID, true
}

// loadSession resolves :project_id for the signed-in user and writes the
// error response itself when it cannot.
func loadSession(c *gin.Context, registry *sessions.Registry) (*editor.Session, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return nil, false
	}
	s, err := registry.Get(projectID, userID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

func respondError(c *gin.Context, err error) {
	var e *editor.Error
	switch {
	case errors.As(err, &e):
		c.JSON(statusFor(e.Kind), models.ErrorResponse{Error: string(e.Kind), Message: e.Message})
	case errors.Is(err, sessions.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: string(editor.KindNotFound), Message: "Project not found."})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error", Message: err.Error()})
	}
}

func statusFor(kind editor.Kind) int {
	switch kind {
	case editor.KindInputRejected:
		return http.StatusBadRequest
	case editor.KindReferenceDecodeFailed:
		return http.StatusUnprocessableEntity
	case editor.KindEditServiceFailed:
		return http.StatusBadGateway
	case editor.KindPrematureEdit, editor.KindBusy:
		return http.StatusConflict
	case editor.KindNotFound:
		return http.StatusNotFound
	case editor.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func projectResponse(v editor.View) models.ProjectResponse {
	p := v.Project
	return models.ProjectResponse{
		ID:             v.ID.String(),
		Name:           p.Name,
		Status:         statusResponse(v.Status),
		CurrentVersion: p.CurrentVersion,
		HistoryLength:  len(p.History),
		HasEdits:       p.HasEdits(),
		CanUndo:        p.CanUndo(),
		CanRedo:        p.CanRedo(),
		OriginalCount:  len(p.OriginalImages),
		InitialOptions: append([]string{}, p.InitialOptions...),
		SavedVersions:  versionSummaries(v),
		ImageURL:       projectURL(v.ID) + "/image",
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.LastActive,
	}
}

func projectSummary(v editor.View) models.ProjectSummary {
	return models.ProjectSummary{
		ID:             v.ID.String(),
		Name:           v.Project.Name,
		Status:         statusResponse(v.Status),
		CurrentVersion: v.Project.CurrentVersion,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.LastActive,
	}
}

func versionSummaries(v editor.View) []models.VersionSummary {
	out := make([]models.VersionSummary, len(v.Project.SavedVersions))
	for i, sv := range v.Project.SavedVersions {
		out[i] = models.VersionSummary{
			Index:    i,
			Name:     sv.Name,
			ImageURL: fmt.Sprintf("%s/versions/%d/image", projectURL(v.ID), i),
		}
	}
	return out
}

func statusResponse(s editor.Status) models.StatusResponse {
	return models.StatusResponse{State: string(s.State), Message: s.Message, Error: s.Error}
}

func projectURL(id uuid.UUID) string {
	return apiPrefix + "/projects/" + id.String()
}

func writeImage(c *gin.Context, ref history.ImageRef) {
	raw, err := ref.Bytes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to decode image", Message: err.Error()})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, ref.MediaType, raw)
}
