package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Musty2002/sm-data-app-sub000/api/routes"
	"github.com/Musty2002/sm-data-app-sub000/internal/ledger"
	purchasesvc "github.com/Musty2002/sm-data-app-sub000/internal/purchase"
	"github.com/Musty2002/sm-data-app-sub000/internal/referrals"
	"github.com/Musty2002/sm-data-app-sub000/internal/rewards"
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

	walletService := wallet.NewService(wallet.NewRepository(dbClient.DB()), logg)

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	purchaseService, err := purchasesvc.NewService(purchasesvc.Options{
		Tx:            dbClient,
		Wallets:       walletService,
		Ledger:        ledgerService,
		Vendors:       vendors.NewRegistry(cfg.Vendors),
		Events:        outboxService,
		VendorMetrics: metrics.NewVendorMetrics(prometheus.DefaultRegisterer),
		Logger:        logg,
		CallTimeout:   cfg.Vendors.CallTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	rewardsService, err := rewards.NewService(dbClient, rewards.NewRepository(dbClient.DB()), walletService, cfg.Rewards, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create rewards service", err)
		os.Exit(1)
	}

	referralsService, err := referrals.NewService(dbClient, referrals.NewRepository(dbClient.DB()), walletService, cfg.Referrals, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create referrals service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			purchaseService,
			ledgerService,
			walletService,
			rewardsService,
			referralsService,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}
