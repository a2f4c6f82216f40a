package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/fitlinehq/fitline-backend/internal/notifications"
	"github.com/fitlinehq/fitline-backend/pkg/config"
	"github.com/fitlinehq/fitline-backend/pkg/db"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
	"github.com/fitlinehq/fitline-backend/pkg/migrate"
	"github.com/fitlinehq/fitline-backend/pkg/outbox/idempotency"
	"github.com/fitlinehq/fitline-backend/pkg/pubsub"
	"github.com/fitlinehq/fitline-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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
			logg.Error(context.Background(), "error closing redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	idemManager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build idempotency manager", err)
		os.Exit(1)
	}

	notificationRepo := notifications.NewRepository(dbClient.DB())
	consumer, err := notifications.NewConsumer(notificationRepo, idemManager, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build notification consumer", err)
		os.Exit(1)
	}
	notificationRunner, err := notifications.NewRunner(pubsubClient.NotificationSubscription(), consumer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build notification runner", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config: cfg,
		Logger: logg,
		DB:     dbClient,
		Redis:  redisClient,
		PubSub: pubsubClient,
		Runner: notificationRunner,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "worker",
	})
	logg.Info(ctx, "starting notification worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
