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

	authhttp "github.com/fjod/food_delivery/auth-service/internal/http"
	"github.com/fjod/food_delivery/auth-service/internal/repository"
	"github.com/fjod/food_delivery/auth-service/internal/service"
	"github.com/fjod/food_delivery/pkg/config"
	"github.com/fjod/food_delivery/pkg/logger"
	"github.com/fjod/food_delivery/pkg/session"
	"github.com/fjod/food_delivery/pkg/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	config.Common
	config.Postgres
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`
}

func main() {
	var cfg Config
	if err := config.Parse(&cfg); err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "auth-service",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})
	log.Info("auth-service starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "auth-service", cfg.OTELEndpoint)
	if err != nil {
		log.Error("failed to set up tracing", slog.Any("err", err))
		os.Exit(1)
	}

	repo, err := repository.NewRepository(ctx, cfg.DSN())
	if err != nil {
		log.Error("failed to connect to database", slog.Any("err", err))
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Error("failed to run migrations", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("database migrations completed")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", slog.Any("err", err))
		os.Exit(1)
	}

	authService := service.NewAuthService(repo, session.NewRedisStore(redisClient, cfg.SessionTTL), log)
	handler := authhttp.NewAuthHandler(authService, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(authhttp.NewRouter(handler, cfg.RequestTimeout), "auth-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("auth service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down auth service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.Any("err", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", slog.Any("err", err))
	}
	log.Info("auth service stopped")
}
