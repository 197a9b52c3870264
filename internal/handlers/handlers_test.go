package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sitevis/internal/editor"
	"sitevis/internal/handlers"
	"sitevis/internal/history"
	"sitevis/internal/imagefile"
	"sitevis/internal/middleware"
	"sitevis/internal/models"
	"sitevis/internal/sessions"
	"sitevis/internal/supabase"
)

const testUser = "user-1"

var pngPixel, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

type stubService struct {
	mu   sync.Mutex
	n    int
	fail error
	gate chan struct{}
}

func (s *stubService) Edit(_ context.Context, _ []history.ImageRef, _ string, _ *history.ImageRef) (history.ImageRef, error) {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return history.ImageRef{}, s.fail
	}
	s.n++
	return history.NewImageRef([]byte(fmt.Sprintf("img%d", s.n)), "image/png"), nil
}

type stubExporter struct {
	exported []string
	deleted  []uuid.UUID
}

func (e *stubExporter) ExportSnapshot(ownerID string, projectID uuid.UUID, name string, _ history.ImageRef) (supabase.Export, error) {
	path := fmt.Sprintf("users/%s/projects/%s/%s.png", ownerID, projectID, name)
	e.exported = append(e.exported, path)
	return supabase.Export{Path: path, URL: "https://cdn.example.com/" + path}, nil
}

func (e *stubExporter) DeleteProjectFiles(_ string, projectID uuid.UUID) error {
	e.deleted = append(e.deleted, projectID)
	return nil
}

type testServer struct {
	router   *gin.Engine
	registry *sessions.Registry
	deps     editor.Deps
}

// testAuth trusts the X-Test-User header.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.GetHeader("X-Test-User")
		if user == "" {
			user = testUser
		}
		c.Set(middleware.UserIDKey, user)
		c.Next()
	}
}

func newTestServer(t *testing.T, service editor.EditService, exports handlers.SnapshotExporter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := sessions.NewRegistry()
	deps := editor.Deps{Service: service, Logger: zerolog.Nop()}
	projects := handlers.NewProjectsHandler(registry, deps, exports, 1<<20, 1, zerolog.Nop())
	edits := handlers.NewEditsHandler(registry, 1<<20)
	versions := handlers.NewVersionsHandler(registry, exports)

	router := gin.New()
	router.GET("/health", handlers.HealthHandler(registry))
	router.GET("/api/v1/presets", handlers.ListPresets)
	router.GET("/api/v1/options", handlers.ListOptions)
	router.GET("/api/v1/names/suggestion", handlers.SuggestProjectName)

	api := router.Group("/api/v1", testAuth())
	api.POST("/projects", projects.CreateProject)
	api.GET("/projects", projects.ListProjects)
	api.GET("/projects/:project_id", projects.GetProject)
	api.DELETE("/projects/:project_id", projects.DeleteProject)
	api.GET("/projects/:project_id/image", projects.GetImage)
	api.GET("/projects/:project_id/originals/:index", projects.GetOriginal)
	api.POST("/projects/:project_id/presets/:preset_id", edits.ApplyPreset)
	api.POST("/projects/:project_id/edits", edits.ApplyPrompt)
	api.POST("/projects/:project_id/upscale", edits.Upscale)
	api.POST("/projects/:project_id/regenerate", edits.Regenerate)
	api.POST("/projects/:project_id/undo", edits.Undo)
	api.POST("/projects/:project_id/redo", edits.Redo)
	api.GET("/projects/:project_id/versions", versions.ListVersions)
	api.POST("/projects/:project_id/versions", versions.SaveVersion)
	api.GET("/projects/:project_id/versions/:index/image", versions.GetVersionImage)
	api.POST("/projects/:project_id/versions/:index/restore", versions.RestoreVersion)
	api.POST("/projects/:project_id/versions/:index/export", versions.ExportVersion)

	return &testServer{router: router, registry: registry, deps: deps}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) request(method, path string, body []byte) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(req)
}

// addSession registers a session directly. When generate is set the initial
// generation is run to completion first.
func (s *testServer) addSession(t *testing.T, generate bool) *editor.Session {
	t.Helper()
	session, err := editor.NewSession(testUser, "Dream House",
		[]imagefile.Upload{{Filename: "site.png", DeclaredType: "image/png", Data: pngPixel}}, nil, s.deps)
	require.NoError(t, err)
	s.registry.Add(session)
	if generate {
		done, err := session.StartInitialGeneration()
		require.NoError(t, err)
		require.NoError(t, <-done)
	}
	return session
}

func projectPath(s *editor.Session, suffix string) string {
	return "/api/v1/projects/" + s.ID().String() + suffix
}

func decodeProject(t *testing.T, w *httptest.ResponseRecorder) models.ProjectResponse {
	t.Helper()
	var resp models.ProjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)
	s.addSession(t, false)

	w := s.request("GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Sessions)
}

func TestCreateProject(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)

	body, contentType := multipartBody(t, map[string]string{"name": "Dream House", "options": "place_on_lot"}, "images", "site.png", pngPixel)
	req, _ := http.NewRequest("POST", "/api/v1/projects", body)
	req.Header.Set("Content-Type", contentType)
	w := s.do(req)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	created := decodeProject(t, w)
	assert.Equal(t, "Dream House", created.Name)
	assert.Equal(t, []string{"place_on_lot"}, created.InitialOptions)
	assert.Equal(t, 1, created.OriginalCount)

	assert.Eventually(t, func() bool {
		w := s.request("GET", "/api/v1/projects/"+created.ID, nil)
		var p models.ProjectResponse
		if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
			return false
		}
		return p.Status.State == string(editor.StateIdle) && p.HistoryLength == 1
	}, time.Second, 5*time.Millisecond)

	w = s.request("GET", "/api/v1/projects/"+created.ID+"/image", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "img1", w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = s.request("GET", "/api/v1/projects/"+created.ID+"/image?original=true", nil)
	assert.Equal(t, pngPixel, w.Body.Bytes())
}

func TestCreateProject_RejectsInput(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)

	tests := []struct {
		name   string
		fields map[string]string
		file   []byte
	}{
		{name: "missing name", fields: map[string]string{}, file: pngPixel},
		{name: "not an image", fields: map[string]string{"name": "House"}, file: []byte("plain text")},
		{name: "no photo", fields: map[string]string{"name": "House"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileField := ""
			if tt.file != nil {
				fileField = "images"
			}
			body, contentType := multipartBody(t, tt.fields, fileField, "site.png", tt.file)
			req, _ := http.NewRequest("POST", "/api/v1/projects", body)
			req.Header.Set("Content-Type", contentType)
			w := s.do(req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, string(editor.KindInputRejected), decodeError(t, w).Error)
		})
	}
	assert.Equal(t, 0, s.registry.Len())
}

func TestProjectLookup(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)
	session := s.addSession(t, false)

	w := s.request("GET", "/api/v1/projects/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.request("GET", "/api/v1/projects/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req, _ := http.NewRequest("GET", projectPath(session, ""), nil)
	req.Header.Set("X-Test-User", "someone-else")
	w = s.do(req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req, _ = http.NewRequest("GET", "/api/v1/projects", nil)
	req.Header.Set("X-Test-User", "someone-else")
	w = s.do(req)
	var list models.ProjectListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Projects)

	w = s.request("GET", "/api/v1/projects", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Projects, 1)
	assert.Equal(t, session.ID().String(), list.Projects[0].ID)
}

func TestEditFlow(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)
	session := s.addSession(t, true)

	w := s.request("POST", projectPath(session, "/presets/facade_white_render"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decodeProject(t, w)
	assert.Equal(t, 2, p.CurrentVersion)
	assert.True(t, p.CanUndo)

	w = s.request("POST", projectPath(session, "/upscale"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decodeProject(t, w).CurrentVersion)

	w = s.request("POST", projectPath(session, "/undo"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	p = decodeProject(t, w)
	assert.Equal(t, 2, p.CurrentVersion)
	assert.True(t, p.CanRedo)

	w = s.request("POST", projectPath(session, "/redo"), nil)
	assert.Equal(t, 3, decodeProject(t, w).CurrentVersion)

	w = s.request("POST", projectPath(session, "/undo"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Regenerating from the middle drops the redo branch.
	w = s.request("POST", projectPath(session, "/regenerate"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	p = decodeProject(t, w)
	assert.Equal(t, 3, p.CurrentVersion)
	assert.Equal(t, 3, p.HistoryLength)
	assert.False(t, p.CanRedo)

	w = s.request("GET", projectPath(session, "/image"), nil)
	assert.Equal(t, "img4", w.Body.String())
}

func TestEdits_Premature(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)
	session := s.addSession(t, false)

	for _, path := range []string{"/presets/facade_white_render", "/upscale"} {
		w := s.request("POST", projectPath(session, path), nil)
		assert.Equal(t, http.StatusConflict, w.Code, path)
		assert.Equal(t, string(editor.KindPrematureEdit), decodeError(t, w).Error)
	}
}

func TestApplyPreset_Unknown(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)
	session := s.addSession(t, true)

	w := s.request("POST", projectPath(session, "/presets/disco_lights"), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, editor.MsgUnknownPreset, decodeError(t, w).Message)
}

func TestApplyPrompt(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)
	session := s.addSession(t, true)

	t.Run("empty", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"prompt": "   "}, "", "", nil)
		req, _ := http.NewRequest("POST", projectPath(session, "/edits"), body)
		req.Header.Set("Content-Type", contentType)
		w := s.do(req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, editor.MsgEmptyEdit, decodeError(t, w).Message)
	})

	t.Run("unreadable reference", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"prompt": "use this roof"}, "reference", "roof.txt", []byte("not an image"))
		req, _ := http.NewRequest("POST", projectPath(session, "/edits"), body)
		req.Header.Set("Content-Type", contentType)
		w := s.do(req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, string(editor.KindReferenceDecodeFailed), decodeError(t, w).Error)
	})

	t.Run("prompt with reference", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"prompt": "use this roof"}, "reference", "roof.png", pngPixel)
		req, _ := http.NewRequest("POST", projectPath(session, "/edits"), body)
		req.Header.Set("Content-Type", contentType)
		w := s.do(req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 2, decodeProject(t, w).CurrentVersion)
	})
}

func TestEdit_ServiceFailure(t *testing.T) {
	service := &stubService{}
	s := newTestServer(t, service, nil)
	session := s.addSession(t, true)
	service.fail = errors.New("model overloaded")

	w := s.request("POST", projectPath(session, "/presets/facade_white_render"), nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, editor.MsgEditFailed, decodeError(t, w).Message)

	w = s.request("GET", projectPath(session, ""), nil)
	p := decodeProject(t, w)
	assert.Equal(t, string(editor.StateFailed), p.Status.State)
	assert.Equal(t, 1, p.HistoryLength)
}

func TestBusyWhilePending(t *testing.T) {
	service := &stubService{gate: make(chan struct{})}
	s := newTestServer(t, service, nil)
	session := s.addSession(t, false)

	done, err := session.StartInitialGeneration()
	require.NoError(t, err)

	w := s.request("POST", projectPath(session, "/undo"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(editor.KindBusy), decodeError(t, w).Error)

	w = s.request("POST", projectPath(session, "/regenerate"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(service.gate)
	require.NoError(t, <-done)
}

func TestVersions(t *testing.T) {
	exports := &stubExporter{}
	s := newTestServer(t, &stubService{}, exports)
	session := s.addSession(t, true)

	w := s.request("POST", projectPath(session, "/versions"), []byte(`{"name":"Evening"}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decodeProject(t, w)
	require.Len(t, p.SavedVersions, 1)
	assert.Equal(t, "Evening", p.SavedVersions[0].Name)

	w = s.request("POST", projectPath(session, "/versions"), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Version 2", decodeProject(t, w).SavedVersions[1].Name)

	w = s.request("GET", projectPath(session, "/versions"), nil)
	var list models.VersionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Versions, 2)

	w = s.request("GET", projectPath(session, "/versions/0/image"), nil)
	assert.Equal(t, "img1", w.Body.String())

	w = s.request("POST", projectPath(session, "/versions/0/restore"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeProject(t, w).HistoryLength)

	w = s.request("POST", projectPath(session, "/versions/7/restore"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.request("GET", projectPath(session, "/versions/x/image"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.request("POST", projectPath(session, "/versions/0/export"), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var export models.ExportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &export))
	assert.Equal(t, "Evening", export.Name)
	assert.Contains(t, export.URL, export.Path)
	assert.Len(t, exports.exported, 1)

	w = s.request("DELETE", projectPath(session, ""), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []uuid.UUID{session.ID()}, exports.deleted)
	assert.Equal(t, 0, s.registry.Len())
}

func TestSaveVersion_BeforeFirstEdit(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)
	session := s.addSession(t, false)

	w := s.request("POST", projectPath(session, "/versions"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, editor.MsgNothingToSave, decodeError(t, w).Message)
}

func TestExportVersion_StorageDisabled(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)
	session := s.addSession(t, true)
	_, err := session.SaveSnapshot("")
	require.NoError(t, err)

	w := s.request("POST", projectPath(session, "/versions/0/export"), nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCatalog(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)

	w := s.request("GET", "/api/v1/presets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var presets models.PresetListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &presets))
	require.NotEmpty(t, presets.Categories)
	assert.Equal(t, "facade", presets.Categories[0].Category)
	seen := map[string]bool{}
	for _, c := range presets.Categories {
		assert.False(t, seen[c.Category], "category %s repeated", c.Category)
		seen[c.Category] = true
		for _, p := range c.Presets {
			assert.Equal(t, c.Category, p.Category)
		}
	}

	w = s.request("GET", "/api/v1/options", nil)
	var options models.OptionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &options))
	assert.Len(t, options.Options, 6)

	w = s.request("GET", "/api/v1/names/suggestion", nil)
	var name models.NameSuggestionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &name))
	assert.NotEmpty(t, name.Name)
}

func createProjectRequest(t *testing.T, name string, options []string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("name", name))
	for _, o := range options {
		require.NoError(t, mw.WriteField("options", o))
	}
	part, err := mw.CreateFormFile("images", "site.png")
	require.NoError(t, err)
	_, err = part.Write(pngPixel)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest("POST", "/api/v1/projects", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateProject_EnvironmentOptions(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)

	w := s.do(createProjectRequest(t, "Dream House", []string{"place_on_lot", "extract_project"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, editor.MsgEnvironment, decodeError(t, w).Message)
	assert.Equal(t, 0, s.registry.Len())

	w = s.do(createProjectRequest(t, "Dream House", []string{"add_garage"}))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, []string{"place_on_lot", "add_garage"}, decodeProject(t, w).InitialOptions)
}

func TestCreateProject_PendingOnceListed(t *testing.T) {
	service := &stubService{gate: make(chan struct{})}
	s := newTestServer(t, service, nil)

	w := s.do(createProjectRequest(t, "Dream House", nil))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	created := decodeProject(t, w)
	assert.Equal(t, string(editor.StatePending), created.Status.State)

	w = s.request("GET", "/api/v1/projects", nil)
	var list models.ProjectListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Projects, 1)
	assert.Equal(t, string(editor.StatePending), list.Projects[0].Status.State)

	w = s.request("POST", "/api/v1/projects/"+created.ID+"/regenerate", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(editor.KindBusy), decodeError(t, w).Error)

	close(service.gate)
	assert.Eventually(t, func() bool {
		w := s.request("GET", "/api/v1/projects/"+created.ID, nil)
		var p models.ProjectResponse
		return json.Unmarshal(w.Body.Bytes(), &p) == nil && p.HistoryLength == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSaveVersion_Body(t *testing.T) {
	s := newTestServer(t, &stubService{}, nil)
	session := s.addSession(t, true)

	w := s.request("POST", projectPath(session, "/versions"), []byte(`{"name":5}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(editor.KindInputRejected), decodeError(t, w).Error)

	w = s.request("POST", projectPath(session, "/versions"), []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, session.View().Project.SavedVersions)

	w = s.request("POST", projectPath(session, "/versions"), []byte(`{}`))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Version 1", decodeProject(t, w).SavedVersions[0].Name)
}
