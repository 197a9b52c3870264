package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"sitevis/internal/config"
	"sitevis/internal/editor"
	"sitevis/internal/handlers"
	"sitevis/internal/identity"
	"sitevis/internal/middleware"
	"sitevis/internal/sessions"
)

type routerDeps struct {
	cfg        *config.Config
	log        zerolog.Logger
	provider   identity.Provider
	registry   *sessions.Registry
	editor     editor.Deps
	exports    handlers.SnapshotExporter
	subscriber handlers.Subscriber
	stats      handlers.EditStatsSource
	limiter    *middleware.RateLimiter
}

func newRouter(d routerDeps) *gin.Engine {
	projectsHandler := handlers.NewProjectsHandler(d.registry, d.editor, d.exports, d.cfg.MaxUploadBytes, d.cfg.MaxProjectImages, d.log)
	editsHandler := handlers.NewEditsHandler(d.registry, d.cfg.MaxUploadBytes)
	versionsHandler := handlers.NewVersionsHandler(d.registry, d.exports)
	eventsHandler := handlers.NewEventsHandler(d.registry, d.subscriber)
	authHandler := handlers.NewAuthHandler(d.provider, d.stats, d.limiter, d.log)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler(d.registry))

	api := router.Group("/api/v1")

	// Catalog (no auth)
	api.GET("/presets", handlers.ListPresets)
	api.GET("/options", handlers.ListOptions)
	api.GET("/names/suggestion", handlers.SuggestProjectName)

	api.GET("/me", middleware.OptionalAuth(d.provider), authHandler.Me)

	authed := api.Group("", middleware.RequireAuth(d.provider))
	authed.POST("/auth/signout", authHandler.SignOut)

	// Projects
	authed.GET("/projects", projectsHandler.ListProjects)
	authed.GET("/projects/:project_id", projectsHandler.GetProject)
	authed.DELETE("/projects/:project_id", projectsHandler.DeleteProject)
	authed.GET("/projects/:project_id/image", projectsHandler.GetImage)
	authed.GET("/projects/:project_id/originals/:index", projectsHandler.GetOriginal)
	authed.GET("/projects/:project_id/events", eventsHandler.StreamEvents)

	// History
	authed.POST("/projects/:project_id/undo", editsHandler.Undo)
	authed.POST("/projects/:project_id/redo", editsHandler.Redo)

	// Saved versions
	authed.GET("/projects/:project_id/versions", versionsHandler.ListVersions)
	authed.POST("/projects/:project_id/versions", versionsHandler.SaveVersion)
	authed.GET("/projects/:project_id/versions/:index/image", versionsHandler.GetVersionImage)
	authed.POST("/projects/:project_id/versions/:index/restore", versionsHandler.RestoreVersion)
	authed.POST("/projects/:project_id/versions/:index/export", versionsHandler.ExportVersion)

	// Everything that calls the image model is rate limited per user.
	limited := authed.Group("", d.limiter.Middleware())
	limited.POST("/projects", projectsHandler.CreateProject)
	limited.POST("/projects/:project_id/regenerate", editsHandler.Regenerate)
	limited.POST("/projects/:project_id/presets/:preset_id", editsHandler.ApplyPreset)
	limited.POST("/projects/:project_id/edits", editsHandler.ApplyPrompt)
	limited.POST("/projects/:project_id/upscale", editsHandler.Upscale)

	return router
}
