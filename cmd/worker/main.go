package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/dioscarr/Topapi/internal/activity"
	"github.com/dioscarr/Topapi/internal/config"
	"github.com/dioscarr/Topapi/internal/database"
	"github.com/dioscarr/Topapi/internal/queue"
	"github.com/dioscarr/Topapi/internal/queue/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if cfg.Redis.Addr == "" || cfg.Database.URL == "" {
		slog.Error("worker needs REDIS_ADDR and DATABASE_URL")
		os.Exit(1)
	}

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()

	// Register workers
	activityWorker := workers.NewActivityWorker(activity.NewRepository(db))
	registry.Register(queue.TypeActivityRecord, asynq.HandlerFunc(activityWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", cfg.Worker.Concurrency)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
