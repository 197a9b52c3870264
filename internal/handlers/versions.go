package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"sitevis/internal/editor"
	"sitevis/internal/models"
	"sitevis/internal/sessions"
)

type VersionsHandler struct {
	registry *sessions.Registry
	exports  SnapshotExporter
}

// NewVersionsHandler wires the saved-version gallery. exports may be nil,
// in which case exporting answers 503.
func NewVersionsHandler(registry *sessions.Registry, exports SnapshotExporter) *VersionsHandler {
	return &VersionsHandler{registry: registry, exports: exports}
}

// ListVersions godoc
// @Summary     List saved versions
// @Tags        versions
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.VersionListResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/versions [get]
func (h *VersionsHandler) ListVersions(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.VersionListResponse{Versions: versionSummaries(session.View())})
}

// SaveVersion godoc
// @Summary     Save the current image
// @Description Adds the image at the history cursor to the gallery. The name defaults to "Version N".
// @Tags        versions
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string                    true  "Project ID (UUID)"
// @Param       request    body models.SaveVersionRequest false "Version name"
// @Success     201 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects/{project_id}/versions [post]
func (h *VersionsHandler) SaveVersion(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}

	// An empty body means the default name.
	var req models.SaveVersionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   string(editor.KindInputRejected),
				Message: "invalid request body: " + err.Error(),
			})
			return
		}
	}

	view, err := session.SaveSnapshot(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, projectResponse(view))
}

// GetVersionImage godoc
// @Summary     Get a saved version's image
// @Tags        versions
// @Produce     image/png,image/jpeg,image/webp
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       index      path int    true "Zero-based version index"
// @Success     200 {file} binary
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/versions/{index}/image [get]
func (h *VersionsHandler) GetVersionImage(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	version, err := session.SavedVersion(versionIndex(c))
	if err != nil {
		respondError(c, err)
		return
	}
	writeImage(c, version.Image)
}

// RestoreVersion godoc
// @Summary     Restore a saved version
// @Description Appends the saved image at the history cursor, dropping any redo branch
// @Tags        versions
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       index      path int    true "Zero-based version index"
// @Success     200 {object} models.ProjectResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects/{project_id}/versions/{index}/restore [post]
func (h *VersionsHandler) RestoreVersion(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	view, err := session.RestoreSaved(versionIndex(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectResponse(view))
}

// ExportVersion godoc
// @Summary     Export a saved version
// @Description Uploads the saved image to storage and returns a public share URL
// @Tags        versions
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       index      path int    true "Zero-based version index"
// @Success     201 {object} models.ExportResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /projects/{project_id}/versions/{index}/export [post]
func (h *VersionsHandler) ExportVersion(c *gin.Context) {
	if h.exports == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "storage not available"})
		return
	}
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	i := versionIndex(c)
	version, err := session.SavedVersion(i)
	if err != nil {
		respondError(c, err)
		return
	}

	export, err := h.exports.ExportSnapshot(session.OwnerID(), session.ID(), version.Name, version.Image)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "failed to export version", Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, models.ExportResponse{Index: i, Name: version.Name, Path: export.Path, URL: export.URL})
}

// versionIndex returns -1 for a malformed index so lookups report not found.
func versionIndex(c *gin.Context) int {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return -1
	}
	return i
}

