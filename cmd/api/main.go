package main

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fitlinehq/fitline-backend/api/routes"
	"github.com/fitlinehq/fitline-backend/internal/address"
	"github.com/fitlinehq/fitline-backend/internal/cart"
	"github.com/fitlinehq/fitline-backend/internal/measurements"
	"github.com/fitlinehq/fitline-backend/internal/notifications"
	"github.com/fitlinehq/fitline-backend/internal/orders"
	"github.com/fitlinehq/fitline-backend/internal/products"
	"github.com/fitlinehq/fitline-backend/internal/returns"
	"github.com/fitlinehq/fitline-backend/pkg/config"
	"github.com/fitlinehq/fitline-backend/pkg/db"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
	"github.com/fitlinehq/fitline-backend/pkg/metrics"
	"github.com/fitlinehq/fitline-backend/pkg/migrate"
	"github.com/fitlinehq/fitline-backend/pkg/orderid"
	"github.com/fitlinehq/fitline-backend/pkg/outbox"
	"github.com/fitlinehq/fitline-backend/pkg/redis"
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

	gormDB := dbClient.DB()
	productRepo := products.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	returnRepo := returns.NewRepository(gormDB)
	addressRepo := address.NewRepository(gormDB)
	measurementRepo := measurements.NewRepository(gormDB)
	notificationRepo := notifications.NewRepository(gormDB)

	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	numbers, err := orderid.New(workerID())
	if err != nil {
		logg.Error(context.Background(), "failed to init order number generator", err)
		os.Exit(1)
	}

	measurementService, err := measurements.NewService(measurements.ServiceParams{
		Repo:   measurementRepo,
		Cache:  redisClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create measurement service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(products.ServiceParams{
		ProductRepo: productRepo,
		SizeHinter:  measurementService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		CartRepo:    cartRepo,
		ProductRepo: productRepo,
		MaxLineQty:  cfg.Checkout.MaxLineQty,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	addressService, err := address.NewService(address.ServiceParams{
		AddressRepo: addressRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		DB:               gormDB,
		OrderRepo:        orderRepo,
		CartRepo:         cartRepo,
		ProductRepo:      productRepo,
		Shipping:         addressService,
		Outbox:           outboxService,
		Numbers:          numbers,
		Metrics:          metrics.NewLifecycleMetrics(prometheus.DefaultRegisterer),
		Logger:           logg,
		DeliveryFeeCents: cfg.Checkout.DeliveryFeeCents,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	returnService, err := returns.NewService(returns.ServiceParams{
		DB:        gormDB,
		Repo:      returnRepo,
		OrderRepo: orderRepo,
		Outbox:    outboxService,
		Logger:    logg,
		Config:    cfg.Returns,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create return service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Products:      productService,
			Cart:          cartService,
			Orders:        orderService,
			Returns:       returnService,
			Measurements:  measurementService,
			Notifications: notificationService,
			Addresses:     addressService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// workerID seeds the order number generator. Each replica should set
// WORKER_ID so concurrent instances never mint overlapping suffixes.
func workerID() uint8 {
	raw := os.Getenv("WORKER_ID")
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0
	}
	return uint8(id)
}
