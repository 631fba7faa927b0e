package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
	// TrustProxy honours X-Forwarded-For / X-Real-IP; enable only behind a proxy that overwrites them.
	TrustProxy bool
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	VerifyRemote = "remote"
	VerifyJWT    = "jwt"
)

type AuthConfig struct {
	SupabaseURL string
	AnonKey     string
	ServiceKey  string
	JWTSecret   string
	// VerifyMode selects the identity oracle: "remote" asks the auth service, "jwt" checks signatures locally.
	VerifyMode string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type WorkerConfig struct {
	Concurrency int
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 3000)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	requests, err := getEnvInt("RATE_LIMIT_REQUESTS", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %w", err)
	}

	window, err := getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}

	trustProxy, err := getEnvBool("TRUST_PROXY", false)
	if err != nil {
		return nil, fmt.Errorf("invalid TRUST_PROXY: %w", err)
	}

	concurrency, err := getEnvInt("WORKER_CONCURRENCY", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			Env:            getEnv("APP_ENV", "production"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
			TrustProxy:     trustProxy,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			AnonKey:     getEnv("SUPABASE_ANON_KEY", ""),
			ServiceKey:  getEnv("SUPABASE_SERVICE_KEY", ""),
			JWTSecret:   getEnv("SUPABASE_JWT_SECRET", ""),
			VerifyMode:  strings.ToLower(getEnv("AUTH_VERIFY_MODE", VerifyRemote)),
		},
		RateLimit: RateLimitConfig{
			Requests: requests,
			Window:   window,
		},
		Worker: WorkerConfig{
			Concurrency: concurrency,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Development reports whether error responses may include causes.
func (c *Config) Development() bool {
	return strings.EqualFold(c.Server.Env, "development")
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.Auth.AnonKey == "" {
		missing = append(missing, "SUPABASE_ANON_KEY")
	}
	if c.Auth.ServiceKey == "" {
		missing = append(missing, "SUPABASE_SERVICE_KEY")
	}
	if c.Auth.VerifyMode == VerifyJWT && c.Auth.JWTSecret == "" {
		missing = append(missing, "SUPABASE_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.Auth.VerifyMode != VerifyRemote && c.Auth.VerifyMode != VerifyJWT {
		return fmt.Errorf("AUTH_VERIFY_MODE must be %q or %q, got %q", VerifyRemote, VerifyJWT, c.Auth.VerifyMode)
	}
	if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit must allow at least one request per positive window")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

// getEnvDuration accepts Go durations ("15m") or a plain number of milliseconds.
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
