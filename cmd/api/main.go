package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smartkartops/smartkart-backend/api/routes"
	"github.com/smartkartops/smartkart-backend/internal/discounts"
	"github.com/smartkartops/smartkart-backend/internal/payments"
	"github.com/smartkartops/smartkart-backend/internal/reconcile"
	"github.com/smartkartops/smartkart-backend/internal/records"
	"github.com/smartkartops/smartkart-backend/internal/rewards"
	"github.com/smartkartops/smartkart-backend/pkg/config"
	"github.com/smartkartops/smartkart-backend/pkg/db"
	"github.com/smartkartops/smartkart-backend/pkg/logger"
	"github.com/smartkartops/smartkart-backend/pkg/metrics"
	"github.com/smartkartops/smartkart-backend/pkg/migrate"
	"github.com/smartkartops/smartkart-backend/pkg/redis"
	"github.com/smartkartops/smartkart-backend/pkg/square"
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

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	squareClient, err := square.NewClient(context.Background(), cfg.Gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}

	recordsRepo := records.NewRepository(dbClient.DB())
	recordsSvc, err := records.NewService(recordsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create records service", err)
		os.Exit(1)
	}

	reconcileSvc, err := reconcile.NewService(recordsRepo, logg, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	discountsSvc, err := discounts.NewService(discounts.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create discounts service", err)
		os.Exit(1)
	}

	rewardsSvc, err := rewards.NewService(rewards.NewRepository(dbClient.DB()), cfg.Rewards, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	gateway, err := payments.NewSquareGateway(squareClient, engineMetrics, cfg.Gateway.IntentAmountMinor)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway", err)
		os.Exit(1)
	}

	paymentsSvc, err := payments.NewService(payments.Deps{
		Gateway:     gateway,
		Locks:       redisClient,
		View:        reconcileSvc,
		RecordsSvc:  recordsSvc,
		RecordsRepo: recordsRepo,
		Auths:       payments.NewRepository(dbClient.DB()),
		Rewards:     rewardsSvc,
		Tx:          dbClient,
		Config:      cfg.Cancellation,
		Logger:      logg,
		Metrics:     engineMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Registry:  registry,
			Records:   recordsSvc,
			Reconcile: reconcileSvc,
			Payments:  paymentsSvc,
			Discounts: discountsSvc,
			Rewards:   rewardsSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
