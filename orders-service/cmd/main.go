package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/food_delivery/orders-service/internal/consumer"
	ordershttp "github.com/fjod/food_delivery/orders-service/internal/http"
	"github.com/fjod/food_delivery/orders-service/internal/repository"
	"github.com/fjod/food_delivery/orders-service/internal/service"
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
	config.Kafka
}

func main() {
	var cfg Config
	if err := config.Parse(&cfg); err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "orders-service",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})
	log.Info("orders-service starting...")
	var wg sync.WaitGroup

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "orders-service", cfg.OTELEndpoint)
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

	kafkaConsumer := consumer.NewConsumer(repo, log, cfg.Brokers...)
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		kafkaConsumer.Run(consumerCtx)
	}()

	ordersService := service.NewOrdersService(repo, log)
	handler := ordershttp.NewOrdersHandler(ordersService, cfg.RequestTimeout)
	sessions := session.NewRedisStore(redisClient, session.DefaultTTL)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(ordershttp.NewRouter(handler, sessions, cfg.RequestTimeout), "orders-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("orders service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down orders service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.Any("err", err))
	}
	consumerCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Info("consumer stopped cleanly")
	case <-shutdownCtx.Done():
		log.Warn("consumer didn't stop in time")
	}

	kafkaConsumer.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", slog.Any("err", err))
	}
	log.Info("orders service stopped")
}
