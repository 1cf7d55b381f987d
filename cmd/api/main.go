// Package main is the entrypoint for the tasktrack API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/cache"
	"github.com/tasktrack/tasktrack/internal/config"
	"github.com/tasktrack/tasktrack/internal/handler"
	"github.com/tasktrack/tasktrack/internal/metrics"
	"github.com/tasktrack/tasktrack/internal/middleware"
	"github.com/tasktrack/tasktrack/internal/policy"
	"github.com/tasktrack/tasktrack/internal/repository"
	"github.com/tasktrack/tasktrack/internal/repository/memory"
	"github.com/tasktrack/tasktrack/internal/server"
	"github.com/tasktrack/tasktrack/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var shutdowns []namedShutdown

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	shutdowns = append(shutdowns, namedShutdown{"database", closeStore})

	cacheStore, err := openCache(ctx, cfg, logger)
	if err != nil {
		_ = closeStore(ctx)
		return err
	}
	shutdowns = append(shutdowns, namedShutdown{"cache", func(context.Context) error { return cacheStore.Close() }})

	recorder := metrics.NewInMemory()
	layer := cache.NewLayer(cacheStore, cfg.CacheTTL, recorder)
	pol := policy.New(cfg.Visibility())
	hasher := auth.NewHasher(auth.DefaultParams)

	sessions, err := service.NewSessionService(store, layer, hasher)
	if err != nil {
		return fmt.Errorf("init sessions: %w", err)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Logger:   logger,
		Projects: service.NewProjectService(store, layer, pol, recorder),
		Tasks:    service.NewTaskService(store, store, layer, pol, recorder),
		Sessions: sessions,
		Users:    service.NewUserService(store, hasher),
		Resolver: auth.NewResolver(store, layer, hasher, recorder),
		Database: store,
		Cache:    cacheStore,
		Metrics:  recorder,
		Security: middleware.SecurityConfig{
			IsDevelopment:      cfg.IsDevelopment(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
		CORS:            corsConfig(cfg),
		MinAuthDuration: cfg.AuthMinDuration,
	})

	srv := server.New(router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	for _, s := range shutdowns {
		srv.OnShutdown(s.name, s.fn)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"storage", cfg.StorageBackend,
		"cache", cfg.CacheBackend,
		"visibility", string(pol.Visibility()),
	)

	return srv.Run(ctx)
}

type namedShutdown struct {
	name string
	fn   server.ShutdownFunc
}

// openStore connects the configured repository backend.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Store, server.ShutdownFunc, error) {
	if cfg.StorageBackend == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), func(context.Context) error { return nil }, nil
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.WithPoolSize(cfg.DBMaxConns, cfg.DBMinConns))
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return nil, nil, fmt.Errorf("connect database: %s", sanitizeError(err, cfg.DatabaseURL))
	}
	logger.Info("connected to database")
	return repo, func(context.Context) error { repo.Close(); return nil }, nil
}

// openCache connects the configured cache backend.
func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Store, error) {
	switch cfg.CacheBackend {
	case config.CacheNone:
		logger.Info("caching disabled")
		return cache.NewNoop(), nil
	case config.CacheMemory:
		logger.Info("using in-process cache", "size", cfg.CacheMemorySize)
		return cache.NewMemory(cfg.CacheMemorySize, cfg.CacheTTL), nil
	}

	store, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return nil, fmt.Errorf("connect redis: %s", sanitizeError(err, cfg.RedisURL))
	}
	logger.Info("connected to Redis")
	return store, nil
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	c.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	return c
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL drops the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError removes secrets from an error message before it is logged.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
