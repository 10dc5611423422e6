// Package main is the entry point for the office listings API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/office-listings/backend/api"
	"github.com/pkordes/office-listings/backend/internal/config"
	"github.com/pkordes/office-listings/backend/internal/handler"
	"github.com/pkordes/office-listings/backend/internal/middleware"
	"github.com/pkordes/office-listings/backend/internal/notify"
	"github.com/pkordes/office-listings/backend/internal/repo"
	"github.com/pkordes/office-listings/backend/internal/service"
	"github.com/pkordes/office-listings/backend/internal/storage"
	"github.com/pkordes/office-listings/backend/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		db := stdlib.OpenDBFromPool(pool)
		applied, err := migrations.Up(ctx, db)
		_ = db.Close()
		if err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "count", applied)
	}

	// --- Storage ----------------------------------------------------------
	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to configure image storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}

	// --- Services ---------------------------------------------------------
	store := repo.NewStore(pool)

	notifier := notify.Fanout{notify.NewDatabase(store.Users, store.Notifications)}
	if cfg.AdminWebhookURL != "" {
		notifier = append(notifier, notify.NewWebhook(cfg.AdminWebhookURL, cfg.WebhookTimeout))
	}

	listings := service.NewListingService(store.Repos, store, notifier, logger)
	images := service.NewImageService(store.Listings, store.Images, files, logger)
	moderation := service.NewModerationService(store.Listings, store.Users, logger)
	tags := service.NewTagService(store.Tags)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit → authentication.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	// CORS runs before authentication so preflight requests never need a token.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewAuthenticator(cfg.JWTSecret))

	srv := handler.NewServer(listings, images, moderation, tags, logger, api.OpenAPI)
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// Reads get extra time for image uploads.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	// Let admin notifications still in flight finish before the pool closes.
	listings.Wait()
	slog.Info("server stopped")
}
