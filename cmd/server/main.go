// Command server runs the filedepot HTTP API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filedepot/internal/app"
	"filedepot/internal/config"
	"filedepot/internal/database"
	"filedepot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", slog.Any("error", err))
		os.Exit(1)
	}

	setupLogger(cfg)

	db, err := database.NewMariaDB(cfg.Database)
	if err != nil {
		slog.Error("connecting to mariadb", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(db, "migrations"); err != nil {
		slog.Error("running migrations", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	store, err := storage.NewDiskStore(cfg.Storage.FolderPath)
	if err != nil {
		slog.Error("preparing content store", slog.Any("error", err))
		os.Exit(1)
	}

	application, err := app.New(cfg, db, redisClient, store)
	if err != nil {
		slog.Error("building application", slog.Any("error", err))
		os.Exit(1)
	}

	// Run the server in the background so the main goroutine can wait for
	// a shutdown signal.
	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	slog.Info("server stopped")
}

// setupLogger configures slog: human-readable text in development, JSON in
// production for log aggregation.
func setupLogger(cfg *config.Config) {
	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}
