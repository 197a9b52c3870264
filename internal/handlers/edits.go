package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"sitevis/internal/editor"
	"sitevis/internal/imagefile"
	"sitevis/internal/models"
	"sitevis/internal/sessions"
)

// EditsHandler exposes the edit intents and the undo/redo cursor. Edit
// requests block until the image model answers.
type EditsHandler struct {
	registry       *sessions.Registry
	maxUploadBytes int64
}

func NewEditsHandler(registry *sessions.Registry, maxUploadBytes int64) *EditsHandler {
	return &EditsHandler{registry: registry, maxUploadBytes: maxUploadBytes}
}

// ApplyPreset godoc
// @Summary     Apply a preset
// @Description Runs a one-click preset on the current image and appends the result
// @Tags        edits
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       preset_id  path string true "Preset ID (see GET /presets)"
// @Success     200 {object} models.ProjectResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /projects/{project_id}/presets/{preset_id} [post]
func (h *EditsHandler) ApplyPreset(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	if err := session.ApplyPreset(c.Request.Context(), c.Param("preset_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectResponse(session.View()))
}

// ApplyPrompt godoc
// @Summary     Edit with an instruction
// @Description Edits the current image with a free-text instruction, a reference image, or both
// @Tags        edits
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       project_id path     string true  "Project ID (UUID)"
// @Param       prompt     formData string false "Instruction"
// @Param       reference  formData file   false "Reference image"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     422 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /projects/{project_id}/edits [post]
func (h *EditsHandler) ApplyPrompt(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	var reference *imagefile.Upload
	fh, err := c.FormFile("reference")
	switch {
	case err == nil:
		u, err := imagefile.FromFileHeader(fh, h.maxUploadBytes)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error:   string(editor.KindReferenceDecodeFailed),
				Message: editor.MsgReferenceFailed,
			})
			return
		}
		reference = &u
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: string(editor.KindInputRejected), Message: err.Error()})
		return
	}

	if err := session.ApplyPrompt(c.Request.Context(), c.PostForm("prompt"), reference); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectResponse(session.View()))
}

// Upscale godoc
// @Summary     Upscale the current image
// @Tags        edits
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.ProjectResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /projects/{project_id}/upscale [post]
func (h *EditsHandler) Upscale(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	if err := session.Upscale(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectResponse(session.View()))
}

// Regenerate godoc
// @Summary     Regenerate the base visualization
// @Description Re-runs the first generation from the original photo; the result is appended like any edit
// @Tags        edits
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.ProjectResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /projects/{project_id}/regenerate [post]
func (h *EditsHandler) Regenerate(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	if err := session.Regenerate(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectResponse(session.View()))
}

// Undo godoc
// @Summary     Step back in history
// @Tags        history
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.ProjectResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects/{project_id}/undo [post]
func (h *EditsHandler) Undo(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	view, err := session.Undo()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectResponse(view))
}

// Redo godoc
// @Summary     Step forward in history
// @Tags        history
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.ProjectResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects/{project_id}/redo [post]
func (h *EditsHandler) Redo(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	view, err := session.Redo()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectResponse(view))
}
