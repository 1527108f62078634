package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Musty2002/sm-data-app-sub000/internal/ledger"
	purchasesvc "github.com/Musty2002/sm-data-app-sub000/internal/purchase"
	"github.com/Musty2002/sm-data-app-sub000/internal/reconcile"
	"github.com/Musty2002/sm-data-app-sub000/internal/vendors"
	"github.com/Musty2002/sm-data-app-sub000/internal/wallet"
	"github.com/Musty2002/sm-data-app-sub000/pkg/config"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
	"github.com/Musty2002/sm-data-app-sub000/pkg/metrics"
	"github.com/Musty2002/sm-data-app-sub000/pkg/migrate"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox"
	"github.com/Musty2002/sm-data-app-sub000/pkg/redis"
)

const lockKeyFormat = "smd:reconciler:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconciler"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "reconciler"

	logg = logger.New(logger.Options{
		ServiceName: "reconciler",
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

	walletService := wallet.NewService(wallet.NewRepository(dbClient.DB()), logg)

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	vendorRegistry := vendors.NewRegistry(cfg.Vendors)

	purchaseService, err := purchasesvc.NewService(purchasesvc.Options{
		Tx:          dbClient,
		Wallets:     walletService,
		Ledger:      ledgerService,
		Vendors:     vendorRegistry,
		Events:      outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Logger:      logg,
		CallTimeout: cfg.Vendors.CallTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	pendingJob, err := reconcile.NewPendingPurchasesJob(reconcile.PendingPurchasesJobParams{
		Logger:       logg,
		Ledger:       ledgerService,
		Vendors:      vendorRegistry,
		Settler:      purchaseService,
		PendingAfter: cfg.Reconciler.PendingAfter,
		BatchSize:    cfg.Reconciler.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pending purchases job", err)
		os.Exit(1)
	}

	retentionJob, err := reconcile.NewOutboxRetentionJob(reconcile.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	lock, err := reconcile.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Reconciler.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler lock", err)
		os.Exit(1)
	}

	service, err := reconcile.NewService(reconcile.ServiceParams{
		Logger:   logg,
		Registry: reconcile.NewRegistry(pendingJob, retentionJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Reconciler.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting reconciler")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconciler stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reconciler shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
