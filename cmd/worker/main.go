package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Musty2002/sm-data-app-sub000/internal/referrals"
	"github.com/Musty2002/sm-data-app-sub000/internal/rewards"
	"github.com/Musty2002/sm-data-app-sub000/internal/wallet"
	"github.com/Musty2002/sm-data-app-sub000/internal/worker"
	"github.com/Musty2002/sm-data-app-sub000/pkg/config"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db"
	"github.com/Musty2002/sm-data-app-sub000/pkg/instance"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
	"github.com/Musty2002/sm-data-app-sub000/pkg/migrate"
	"github.com/Musty2002/sm-data-app-sub000/pkg/outbox/idempotency"
	"github.com/Musty2002/sm-data-app-sub000/pkg/pubsub"
	"github.com/Musty2002/sm-data-app-sub000/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	walletService := wallet.NewService(wallet.NewRepository(dbClient.DB()), logg)

	rewardsService, err := rewards.NewService(dbClient, rewards.NewRepository(dbClient.DB()), walletService, cfg.Rewards, logg)
	requireResource(ctx, logg, "rewards service", err)

	rewardsConsumer, err := rewards.NewConsumer(rewardsService, manager, logg)
	requireResource(ctx, logg, "rewards consumer", err)

	rewardsWorker, err := worker.NewService("rewards", pubsubClient.RewardsSubscription(), rewardsConsumer, logg)
	requireResource(ctx, logg, "rewards worker", err)

	referralsService, err := referrals.NewService(dbClient, referrals.NewRepository(dbClient.DB()), walletService, cfg.Referrals, logg)
	requireResource(ctx, logg, "referrals service", err)

	referralsConsumer, err := referrals.NewConsumer(referralsService, manager, logg)
	requireResource(ctx, logg, "referrals consumer", err)

	referralsWorker, err := worker.NewService("referrals", pubsubClient.ReferralsSubscription(), referralsConsumer, logg)
	requireResource(ctx, logg, "referrals worker", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(runCtx, "worker ready")

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error { return rewardsWorker.Run(groupCtx) })
	group.Go(func() error { return referralsWorker.Run(groupCtx) })

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "worker failed", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
