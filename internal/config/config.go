// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pkordes/office-listings/backend/internal/storage"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// JWTSecret is the HS256 key access tokens are signed with. Required.
	JWTSecret []byte

	// MaxBodyBytes caps request bodies. Defaults to 6 MiB, enough for one
	// image upload plus multipart overhead.
	MaxBodyBytes int64

	// MigrateOnStart applies pending migrations before serving. Defaults to false.
	MigrateOnStart bool

	// AdminWebhookURL, when set, receives a POST for every listing that
	// enters review, in addition to the in-app notification.
	AdminWebhookURL string

	// WebhookTimeout bounds each webhook call. Defaults to 5s.
	WebhookTimeout time.Duration

	// Storage selects the image backend (STORAGE_DRIVER=local|s3).
	Storage storage.Config
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is loaded first if present; variables
// already set in the environment win.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		AdminWebhookURL: os.Getenv("ADMIN_WEBHOOK_URL"),
		Storage: storage.Config{
			Driver: getEnv("STORAGE_DRIVER", "local"),
			Dir:    getEnv("STORAGE_DIR", "./uploads"),
			S3: storage.S3Config{
				Bucket:          os.Getenv("S3_BUCKET"),
				Region:          getEnv("S3_REGION", "us-east-1"),
				Endpoint:        os.Getenv("S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
				Prefix:          os.Getenv("S3_PREFIX"),
			},
		},
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = []byte(secret)
	} else {
		missing = append(missing, "JWT_SECRET")
	}

	var err error
	if cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "6291456"), 10, 64); err != nil || cfg.MaxBodyBytes <= 0 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}
	if cfg.MigrateOnStart, err = strconv.ParseBool(getEnv("MIGRATE_ON_START", "false")); err != nil {
		invalid = append(invalid, "MIGRATE_ON_START")
	}
	if cfg.WebhookTimeout, err = time.ParseDuration(getEnv("WEBHOOK_TIMEOUT", "5s")); err != nil {
		invalid = append(invalid, "WEBHOOK_TIMEOUT")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
