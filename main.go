package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/quill/internal/config"
	"github.com/msomdec/quill/internal/handler"
	"github.com/msomdec/quill/internal/repository/sqlite"
	"github.com/msomdec/quill/internal/service"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	tokens, err := service.NewTokenService(cfg.JWTSecret)
	if err != nil {
		slog.Error("failed to create token service", "error", err)
		os.Exit(1)
	}
	hasher, err := service.NewPasswordHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		slog.Error("failed to create password hasher", "error", err)
		os.Exit(1)
	}

	authService := service.NewAuthService(db.Users(), tokens, hasher, cfg.TokenTTL)
	articleService := service.NewArticleService(db.Articles(), db.Users())
	imageService := service.NewImageService(db.Images(), db.FileStore(), db.Articles())

	// Seed an Admin account (idempotent).
	if cfg.SeedAdmin.Email != "" {
		created, err := authService.EnsureAdmin(context.Background(), cfg.SeedAdmin.Name, cfg.SeedAdmin.Email, cfg.SeedAdmin.Password)
		if err != nil {
			slog.Error("failed to seed admin", "error", err)
			os.Exit(1)
		}
		if created {
			slog.Info("admin account seeded", "email", cfg.SeedAdmin.Email)
		}
	}

	carrier, err := handler.NewTokenCarrier(cfg.TokenCarrier, cfg.CookieSecure)
	if err != nil {
		slog.Error("failed to create token carrier", "error", err)
		os.Exit(1)
	}
	metrics := handler.NewMetrics()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Deps{
		Auth:     authService,
		Articles: articleService,
		Images:   imageService,
		Carrier:  carrier,
		DB:       db,
		Metrics:  metrics,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Wrap(mux, cfg.AllowedOrigins, metrics),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "carrier", cfg.TokenCarrier)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
