package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"sitevis/internal/editor"
	"sitevis/internal/history"
	"sitevis/internal/imagefile"
	"sitevis/internal/models"
	"sitevis/internal/sessions"
	"sitevis/internal/supabase"
)

// SnapshotExporter publishes saved versions outside the service.
type SnapshotExporter interface {
	ExportSnapshot(ownerID string, projectID uuid.UUID, name string, image history.ImageRef) (supabase.Export, error)
	DeleteProjectFiles(ownerID string, projectID uuid.UUID) error
}

type ProjectsHandler struct {
	registry       *sessions.Registry
	deps           editor.Deps
	exports        SnapshotExporter
	maxUploadBytes int64
	maxImages      int
	log            zerolog.Logger
}

// NewProjectsHandler wires project creation. exports may be nil.
func NewProjectsHandler(registry *sessions.Registry, deps editor.Deps, exports SnapshotExporter, maxUploadBytes int64, maxImages int, log zerolog.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		registry:       registry,
		deps:           deps,
		exports:        exports,
		maxUploadBytes: maxUploadBytes,
		maxImages:      maxImages,
		log:            log,
	}
}

// CreateProject godoc
// @Summary     Create a project
// @Description Starts a new visualization project from a construction-site photo. The base
// @Description visualization is generated in the background; poll the project or listen
// @Description on its event stream until status.state leaves "pending".
// @Tags        projects
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       name    formData string true  "Project name"
// @Param       images  formData file   true  "Construction-site photo"
// @Param       options formData []string false "Initial options (see GET /options)" collectionFormat(multi)
// @Success     202 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /projects [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes*int64(h.maxImages)+1<<20)
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   string(editor.KindInputRejected),
			Message: "invalid multipart form: " + err.Error(),
		})
		return
	}

	files := form.File["images"]
	if len(files) > h.maxImages {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   string(editor.KindInputRejected),
			Message: "at most " + strconv.Itoa(h.maxImages) + " photo(s) per project",
		})
		return
	}
	uploads := make([]imagefile.Upload, 0, len(files))
	for _, fh := range files {
		u, err := imagefile.FromFileHeader(fh, h.maxUploadBytes)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: string(editor.KindInputRejected), Message: err.Error()})
			return
		}
		uploads = append(uploads, u)
	}

	var name string
	if v := form.Value["name"]; len(v) > 0 {
		name = v[0]
	}
	session, err := editor.NewSession(userID, name, uploads, form.Value["options"], h.deps)
	if err != nil {
		respondError(c, err)
		return
	}
	// The session is pending before anyone else can reach it.
	if _, err := session.StartInitialGeneration(); err != nil {
		respondError(c, err)
		return
	}
	h.registry.Add(session)
	h.log.Info().Str("project_id", session.ID().String()).Str("user_id", userID).Msg("project created")

	c.JSON(http.StatusAccepted, projectResponse(session.View()))
}

// ListProjects godoc
// @Summary     List projects
// @Description Returns the caller's live projects, newest first
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ProjectListResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /projects [get]
func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	list := h.registry.List(userID)
	summaries := make([]models.ProjectSummary, len(list))
	for i, s := range list {
		summaries[i] = projectSummary(s.View())
	}
	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: summaries})
}

// GetProject godoc
// @Summary     Get a project
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.ProjectResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id} [get]
func (h *ProjectsHandler) GetProject(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, projectResponse(session.View()))
}

// DeleteProject godoc
// @Summary     Close a project
// @Description Discards the project and its history. Exported snapshots are removed from storage.
// @Tags        projects
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     204
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id} [delete]
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	if err := h.registry.Delete(session.ID(), session.OwnerID()); err != nil {
		respondError(c, err)
		return
	}
	if h.exports != nil {
		if err := h.exports.DeleteProjectFiles(session.OwnerID(), session.ID()); err != nil {
			h.log.Warn().Err(err).Str("project_id", session.ID().String()).Msg("failed to delete exported files")
		}
	}
	c.Status(http.StatusNoContent)
}

// GetImage godoc
// @Summary     Get the displayed image
// @Description Returns the image at the history cursor, or the original photo before the
// @Description first edit. With original=true the original photo is returned for comparison.
// @Tags        images
// @Produce     image/png,image/jpeg,image/webp
// @Security    Bearer
// @Param       project_id path  string true  "Project ID (UUID)"
// @Param       original   query bool   false "Return the original photo"
// @Success     200 {file} binary
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/image [get]
func (h *ProjectsHandler) GetImage(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	p := session.View().Project
	if original, _ := strconv.ParseBool(c.Query("original")); original {
		writeImage(c, p.OriginalImages[0])
		return
	}
	writeImage(c, p.DisplayedImage())
}

// GetOriginal godoc
// @Summary     Get an original photo
// @Tags        images
// @Produce     image/png,image/jpeg,image/webp
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       index      path int    true "Zero-based photo index"
// @Success     200 {file} binary
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/originals/{index} [get]
func (h *ProjectsHandler) GetOriginal(c *gin.Context) {
	session, ok := loadSession(c, h.registry)
	if !ok {
		return
	}
	originals := session.View().Project.OriginalImages
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 || i >= len(originals) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: string(editor.KindNotFound), Message: "Photo not found."})
		return
	}
	writeImage(c, originals[i])
}
