package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthSupabase = "supabase"
	AuthFirebase = "firebase"
)

type Config struct {
	// Gemini
	GeminiAPIKey string
	GeminiModel  string
	EditTimeout  time.Duration

	// Auth
	AuthProvider            string
	FirebaseCredentialsPath string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database (audit log)
	DatabaseURL string

	// Redis (status events)
	RedisURL string

	// Sessions
	SessionIdleTTL       time.Duration
	SessionSweepSchedule string

	// Limits
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxUploadBytes     int64
	MaxProjectImages   int

	// Server
	Port           string
	Environment    string
	LogLevel       string
	AllowedOrigins []string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash-image-preview"),
		EditTimeout:  time.Duration(getEnvAsInt("EDIT_TIMEOUT_SECONDS", 120)) * time.Second,

		AuthProvider:            strings.ToLower(getEnv("AUTH_PROVIDER", AuthSupabase)),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "visualizations"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		SessionIdleTTL:       time.Duration(getEnvAsInt("SESSION_IDLE_TTL_MINUTES", 120)) * time.Minute,
		SessionSweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 5m"),

		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 3),
		MaxUploadBytes:     int64(getEnvAsInt("MAX_UPLOAD_MB", 20)) << 20,
		MaxProjectImages:   getEnvAsInt("MAX_PROJECT_IMAGES", 1),

		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", ""),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	switch c.AuthProvider {
	case AuthSupabase:
		if c.SupabaseJWTSecret == "" {
			return fmt.Errorf("SUPABASE_JWT_SECRET is required")
		}
	case AuthFirebase:
		if c.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
		}
	default:
		return fmt.Errorf("AUTH_PROVIDER must be %q or %q, got %q", AuthSupabase, AuthFirebase, c.AuthProvider)
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.MaxProjectImages <= 0 {
		return fmt.Errorf("MAX_PROJECT_IMAGES must be positive")
	}
	return nil
}

// SupabaseEnabled reports whether the Supabase REST and storage APIs can be
// reached.
func (c *Config) SupabaseEnabled() bool {
	return c.SupabaseURL != "" && c.SupabasePublishableKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
