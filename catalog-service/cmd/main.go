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

	"github.com/fjod/food_delivery/catalog-service/internal/events"
	cataloghttp "github.com/fjod/food_delivery/catalog-service/internal/http"
	"github.com/fjod/food_delivery/catalog-service/internal/repository"
	"github.com/fjod/food_delivery/catalog-service/internal/service"
	"github.com/fjod/food_delivery/pkg/config"
	"github.com/fjod/food_delivery/pkg/logger"
	"github.com/fjod/food_delivery/pkg/session"
	"github.com/fjod/food_delivery/pkg/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	config.Common
	config.Kafka
	DBPath         string `env:"DB_PATH" envDefault:"./internal/repository/catalog.db"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./internal/repository/migrations"`
	PublishEvents  bool   `env:"PUBLISH_EVENTS" envDefault:"true"`
}

func main() {
	var cfg Config
	if err := config.Parse(&cfg); err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "catalog-service",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})
	log.Info("catalog-service starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "catalog-service", cfg.OTELEndpoint)
	if err != nil {
		log.Error("failed to set up tracing", slog.Any("err", err))
		os.Exit(1)
	}

	repo, err := repository.NewRepository(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", slog.Any("err", err))
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Error("failed to run migrations", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("migrations completed successfully")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.PublishEvents && len(cfg.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Brokers...)
		log.Info("publishing catalog events", slog.Any("brokers", cfg.Brokers), slog.String("topic", events.Topic))
	}
	defer publisher.Close()

	catalogService := service.NewCatalogService(repo, publisher, log)
	handler := cataloghttp.NewCatalogHandler(catalogService, cfg.RequestTimeout)
	sessions := session.NewRedisStore(redisClient, session.DefaultTTL)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(cataloghttp.NewRouter(handler, sessions, cfg.RequestTimeout), "catalog-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("catalog service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down catalog service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.Any("err", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", slog.Any("err", err))
	}
	log.Info("catalog service stopped")
}
