// @title           Site Visualizer API
// @version         1.0.0
// @description     Turns construction-site photos into finished-building visualizations and keeps a
// @description     per-project edit history with undo, redo and saved versions.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	supabasego "github.com/supabase-community/supabase-go"
	"sitevis/internal/config"
	"sitevis/internal/database"
	"sitevis/internal/editor"
	"sitevis/internal/events"
	"sitevis/internal/gemini"
	"sitevis/internal/handlers"
	"sitevis/internal/identity"
	"sitevis/internal/logging"
	"sitevis/internal/middleware"
	"sitevis/internal/sessions"
	"sitevis/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New(os.Getenv("ENVIRONMENT"), "")
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logging.New(cfg.Environment, cfg.LogLevel)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	editClient, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EditTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gemini client")
	}

	var supabaseClient *supabase.Client
	if cfg.SupabaseEnabled() {
		supabaseClient, err = supabase.NewClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize supabase client")
		}
	} else {
		log.Warn().Msg("SUPABASE_URL or SUPABASE_PUBLISHABLE_KEY not set, exports and the REST audit ledger are disabled")
	}

	provider, err := newIdentityProvider(ctx, cfg, supabaseClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize identity provider")
	}

	deps := editor.Deps{Service: editClient, Logger: log}

	var stats handlers.EditStatsSource
	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to database, audit log falls back to supabase")
		} else {
			defer db.Close()
			if err := database.NewMigrator(db, log).Run(); err != nil {
				log.Warn().Err(err).Msg("migration failed")
			}
			store := database.NewEditEventStore(db)
			deps.Recorder = store
			stats = store
		}
	}
	if deps.Recorder == nil && supabaseClient != nil {
		deps.Recorder = supabase.NewEditLedger(supabaseClient.Supabase)
	}

	var subscriber handlers.Subscriber
	if cfg.RedisURL != "" {
		rdb, err := events.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, status events are disabled")
		} else {
			defer rdb.Close()
			publisher := events.NewRedisPublisher(rdb)
			deps.Publisher = publisher
			subscriber = publisher
		}
	}

	var exports handlers.SnapshotExporter
	if supabaseClient != nil {
		storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize storage client, exports are disabled")
		} else {
			exports = storageClient
		}
	}

	registry := sessions.NewRegistry()
	sweeper, err := sessions.NewSweeper(registry, cfg.SessionSweepSchedule, cfg.SessionIdleTTL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule session sweeper")
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	sweeper.OnSweep(func() { limiter.Prune() })
	sweeper.Start()
	defer sweeper.Stop()

	router := newRouter(routerDeps{
		cfg:        cfg,
		log:        log,
		provider:   provider,
		registry:   registry,
		editor:     deps,
		exports:    exports,
		subscriber: subscriber,
		stats:      stats,
		limiter:    limiter,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("model", cfg.GeminiModel).Str("auth", cfg.AuthProvider).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	// Edits in flight finish within the edit timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.EditTimeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down server")
	}
	log.Info().Msg("server stopped")
}

func newIdentityProvider(ctx context.Context, cfg *config.Config, client *supabase.Client) (identity.Provider, error) {
	if cfg.AuthProvider == config.AuthFirebase {
		return identity.NewFirebaseVerifier(ctx, cfg.FirebaseCredentialsPath)
	}
	var raw *supabasego.Client
	if client != nil {
		raw = client.Supabase
	}
	return identity.NewSupabaseVerifier(cfg.SupabaseJWTSecret, raw)
}

