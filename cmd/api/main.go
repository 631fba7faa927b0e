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

	"github.com/redis/go-redis/v9"

	"github.com/dioscarr/Topapi/internal/activity"
	"github.com/dioscarr/Topapi/internal/api"
	"github.com/dioscarr/Topapi/internal/api/handlers"
	"github.com/dioscarr/Topapi/internal/api/middleware"
	"github.com/dioscarr/Topapi/internal/auth"
	"github.com/dioscarr/Topapi/internal/category"
	"github.com/dioscarr/Topapi/internal/config"
	"github.com/dioscarr/Topapi/internal/database"
	"github.com/dioscarr/Topapi/internal/department"
	"github.com/dioscarr/Topapi/internal/inventory"
	"github.com/dioscarr/Topapi/internal/profile"
	"github.com/dioscarr/Topapi/internal/queue"
	"github.com/dioscarr/Topapi/internal/ratelimit"
	"github.com/dioscarr/Topapi/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, os.DirFS(cfg.Database.MigrationsPath)); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	profiles := profile.NewRepository(db)
	sb := supabase.NewClient(cfg.Auth.SupabaseURL, cfg.Auth.AnonKey, cfg.Auth.ServiceKey)

	var oracle auth.IdentityOracle = sb
	if cfg.Auth.VerifyMode == config.VerifyJWT {
		oracle = auth.NewJWTOracle(cfg.Auth.JWTSecret)
	}

	deps := api.Deps{
		Config:      cfg,
		Verifier:    auth.NewVerifier(oracle, profiles),
		Accounts:    sb,
		Profiles:    profiles,
		Inventory:   inventory.NewRepository(db),
		Categories:  category.NewRepository(db),
		Departments: department.NewRepository(db),
		Activity:    activity.NewRepository(db),
		Metrics:     middleware.NewMetrics(),
		Checks: []handlers.Check{
			{Name: "database", Ping: db.Ping},
			{Name: "auth", Ping: sb.Ping},
		},
	}

	// Redis is optional: without it rate limits are per instance and inventory
	// changes are not written to the activity log.
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, using in-memory rate limiting", "error", err)
		} else {
			deps.Limiter = ratelimit.NewRedis(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window, "topapi:ratelimit:")
			tasks := queue.NewClient(cfg.Redis)
			defer tasks.Close()
			deps.Tasks = tasks
			deps.Checks = append(deps.Checks, handlers.Check{Name: "redis", Ping: func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}})
		}
	}
	if deps.Limiter == nil {
		mem := ratelimit.NewMemory(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		go mem.Run(ctx, time.Minute)
		deps.Limiter = mem
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(deps).Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "env", cfg.Server.Env, "verify_mode", cfg.Auth.VerifyMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
