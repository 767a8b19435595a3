// Command worker runs the thumbnail generator. It shares configuration and
// backing stores with the server and can be scaled independently.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"filedepot/internal/config"
	"filedepot/internal/database"
	"filedepot/internal/files"
	"filedepot/internal/queue"
	"filedepot/internal/storage"
	"filedepot/internal/worker"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	t := worker.NewThumbnailer(
		queue.NewRedisQueue(redisClient),
		files.NewFileRepository(db),
		store,
		slog.Default(),
	)

	if err := t.Run(ctx); err != nil {
		slog.Error("worker error", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("worker stopped")
}

// setupLogger configures slog the same way the server does.
func setupLogger(cfg *config.Config) {
	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}
