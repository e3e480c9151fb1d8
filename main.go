package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sebav/tienda/internal/config"
	"github.com/sebav/tienda/internal/domain"
	"github.com/sebav/tienda/internal/handler"
	"github.com/sebav/tienda/internal/repository/localstore"
	"github.com/sebav/tienda/internal/repository/sqlite"
	"github.com/sebav/tienda/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		slog.Error("open storage backend", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("storage ready", "backend", cfg.StorageBackend)

	accountService := service.NewAccountService(db.Users(), db.Sessions())
	catalogService := service.NewCatalogService(db.Products(), db.Settings())
	cartService := service.NewCartService()
	paymentService := service.NewPaymentService(cartService)

	// Seed the demo catalog (idempotent).
	if err := catalogService.SeedDefaults(context.Background()); err != nil {
		slog.Error("failed to seed catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog seeded")

	// A configured catalog target becomes the stored override, so it takes
	// effect without anyone logging in first.
	if cfg.CatalogURL != "" {
		if err := catalogService.SetCatalogURL(context.Background(), cfg.CatalogURL); err != nil {
			slog.Error("failed to set catalog override", "error", err)
			os.Exit(1)
		}
		slog.Info("catalog override set", "url", cfg.CatalogURL)
	}

	guard := handler.NewGuard(accountService, cfg.JWTSecret, cfg.CookieSecure, cfg.StrictSessions)
	loginLimiter := service.NewTokenBucket(0.5, 5)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, guard, accountService, catalogService, cartService, paymentService, db.Settings(), loginLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(handler.Metrics(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
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

func openDatabase(cfg *config.Config) (domain.Database, error) {
	if cfg.StorageBackend == config.BackendFile {
		return localstore.New(cfg.StatePath), nil
	}
	return sqlite.New(cfg.DatabasePath)
}
