// slugpad server entry point: wires config, storage, services, and routes.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/slugpad/slugpad/internal/auth"
	"github.com/slugpad/slugpad/internal/config"
	"github.com/slugpad/slugpad/internal/db"
	"github.com/slugpad/slugpad/internal/notes"
	"github.com/slugpad/slugpad/internal/obs"
	"github.com/slugpad/slugpad/internal/ratelimit"
	"github.com/slugpad/slugpad/internal/web"
)

const (
	shutdownTimeout        = 10 * time.Second
	sessionCleanupInterval = time.Hour
)

func main() {
	addr := config.ParseFlags()

	cfg, err := config.LoadConfig(addr)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := setupLogger(cfg.LogLevel)
	log.Info("starting slugpad", slog.String("addr", cfg.ListenAddr), slog.String("db", cfg.DatabasePath))

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o700); err != nil {
		log.Error("create data directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	database, err := db.Open(cfg.DatabasePath, cfg.DatabaseKey)
	if err != nil {
		log.Error("open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Error("load templates", slog.String("error", err.Error()))
		os.Exit(1)
	}

	userService := auth.NewUserService(database, auth.Argon2Hasher{})
	sessionService := auth.NewSessionService(database, cfg.SessionDuration)
	notesService := notes.NewService(database)
	authMiddleware := auth.NewMiddleware(sessionService, userService)

	limiter := ratelimit.NewRateLimiter(cfg.RateLimitConfig)
	defer limiter.Stop()
	rateLimit := ratelimit.Middleware(limiter, func(r *http.Request) string {
		return auth.GetUserID(r.Context())
	})

	mux := http.NewServeMux()
	handler := web.NewWebHandler(renderer, notesService, userService, sessionService, log)
	handler.RegisterRoutes(mux, authMiddleware, rateLimit)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           obs.RequestLogMiddleware(log)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Expired sessions accumulate otherwise; sweep them in the background.
	go func() {
		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sessionService.Cleanup(context.Background()); err != nil {
					log.Warn("session cleanup", slog.String("error", err.Error()))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", slog.String("error", err.Error()))
		}
	}
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)
	return log
}
