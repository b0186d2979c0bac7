package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/kmarsack/storeyard-backend/api"
	"github.com/kmarsack/storeyard-backend/api/controllers"
	"github.com/kmarsack/storeyard-backend/api/routes"
	"github.com/kmarsack/storeyard-backend/internal/payments"
	"github.com/kmarsack/storeyard-backend/internal/rentals"
	"github.com/kmarsack/storeyard-backend/internal/stock"
	"github.com/kmarsack/storeyard-backend/pkg/config"
	"github.com/kmarsack/storeyard-backend/pkg/db"
	"github.com/kmarsack/storeyard-backend/pkg/logger"
	"github.com/kmarsack/storeyard-backend/pkg/migrate"
	"github.com/kmarsack/storeyard-backend/pkg/pubsub"
	"github.com/kmarsack/storeyard-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	// Pub/Sub is optional for the API: readiness reports it, nothing else
	// publishes from this process.
	var pubsubClient *pubsub.Client
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err = pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
	}

	stockService, err := stock.NewService(stock.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.NewRepository(dbClient.DB()), stockService, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	rentalsService, err := rentals.NewService(rentals.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create rentals service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port != "" {
		cfg.App.Port = port
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": ":" + cfg.App.Port,
	})
	logg.Info(ctx, "starting api server")

	var pubsubPinger controllers.Pinger
	if pubsubClient != nil {
		pubsubPinger = pubsubClient
	}
	router := routes.NewRouter(cfg, logg, dbClient, redisClient, pubsubPinger, stockService, paymentsService, rentalsService)
	server := api.NewServer(cfg, logg, router)

	if err := server.Run(ctx); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}
