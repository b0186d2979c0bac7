package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kmarsack/storeyard-backend/internal/alerts"
	"github.com/kmarsack/storeyard-backend/internal/stock"
	"github.com/kmarsack/storeyard-backend/internal/worker"
	"github.com/kmarsack/storeyard-backend/pkg/config"
	"github.com/kmarsack/storeyard-backend/pkg/db"
	"github.com/kmarsack/storeyard-backend/pkg/logger"
	"github.com/kmarsack/storeyard-backend/pkg/metrics"
	"github.com/kmarsack/storeyard-backend/pkg/migrate"
	"github.com/kmarsack/storeyard-backend/pkg/pubsub"
	"github.com/kmarsack/storeyard-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "restock-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "restock-worker"

	logg = logger.New(logger.Options{
		ServiceName: "restock-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	metricsCollector := metrics.NewWorkerJobMetrics(prometheus.DefaultRegisterer)

	restockJob, err := alerts.NewRestockScanJob(alerts.RestockScanJobParams{
		Logger:    logg,
		StockRepo: stock.NewRepository(dbClient.DB()),
		Publisher: alerts.NewPublisher(pubsubClient.RestockPublisher()),
		Metrics:   metricsCollector,
		BatchSize: cfg.Worker.RestockBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create restock scan job", err)
		os.Exit(1)
	}

	lock, err := worker.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := worker.NewService(worker.ServiceParams{
		Logger:   logg,
		Registry: worker.NewRegistry(restockJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Worker.RestockPollInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting restock worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "restock worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "restock worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("restock-worker:%s", env)
}
