package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xkartlabs/xkart-backend/api"
	"github.com/xkartlabs/xkart-backend/api/routes"
	"github.com/xkartlabs/xkart-backend/internal/cron"
	"github.com/xkartlabs/xkart-backend/internal/engine"
	"github.com/xkartlabs/xkart-backend/internal/journal"
	"github.com/xkartlabs/xkart-backend/internal/snapshots"
	"github.com/xkartlabs/xkart-backend/pkg/config"
	"github.com/xkartlabs/xkart-backend/pkg/db"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
	"github.com/xkartlabs/xkart-backend/pkg/metrics"
	"github.com/xkartlabs/xkart-backend/pkg/migrate"
	"github.com/xkartlabs/xkart-backend/pkg/outbox"
	"github.com/xkartlabs/xkart-backend/pkg/redis"
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
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
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

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)
	eng := engine.New(engine.PolicyFromConfig(cfg.Engine), engine.WithObserver(engineMetrics))

	snapshotService, err := snapshots.NewService(snapshots.ServiceParams{
		Config:   cfg.Snapshots,
		Logger:   logg,
		Engine:   eng,
		Repo:     snapshots.NewRepo(dbClient.DB()),
		Recorder: engineMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot service", err)
		os.Exit(1)
	}
	if err := snapshotService.RestoreLatest(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to restore engine snapshot", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	pump, err := journal.NewPump(journal.PumpParams{
		Config: cfg.Journal,
		Logger: logg,
		Source: eng,
		DB:     dbClient,
		Outbox: outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create journal pump", err)
		os.Exit(1)
	}

	cronService, err := buildInProcessCron(cfg, logg, eng, snapshotService)
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		if err := pump.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "journal pump stopped unexpectedly", err)
		}
	}()
	go func() {
		if err := cronService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "scheduler stopped unexpectedly", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := api.NewServer(addr, routes.NewRouter(cfg, logg, dbClient, redisClient, eng))
	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			logg.Error(logCtx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil {
		logg.Error(logCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	// Shutdown order: drain buffered events, then take a final snapshot so
	// a restart resumes from the state clients last saw.
	flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := pump.Flush(flushCtx); err != nil {
		logg.Error(flushCtx, "final journal flush failed", err)
	}
	if err := snapshotService.Capture(flushCtx); err != nil {
		logg.Error(flushCtx, "final snapshot capture failed", err)
	}
	logg.Info(logCtx, "api server shut down gracefully")
}

// buildInProcessCron wires the schedules the api binary runs itself:
// closing due campaigns and persisting engine snapshots. Retention jobs
// stay in the cron worker.
func buildInProcessCron(cfg *config.Config, logg *logger.Logger, eng *engine.Engine, snaps *snapshots.Service) (*cron.Service, error) {
	sweepJob, err := cron.NewCampaignSweepJob(cron.CampaignSweepJobParams{
		Logger:  logg,
		Sweeper: eng,
	})
	if err != nil {
		return nil, err
	}
	snapshotJob, err := cron.NewEngineSnapshotJob(cron.EngineSnapshotJobParams{
		Logger:   logg,
		Capturer: snaps,
	})
	if err != nil {
		return nil, err
	}

	interval := cfg.Engine.CampaignSweep
	if cfg.Snapshots.Interval > 0 && cfg.Snapshots.Interval < interval {
		interval = cfg.Snapshots.Interval
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob, snapshotJob),
		Lock:     noopLock{},
		Interval: interval,
	})
}

// noopLock satisfies the scheduler's lock interface for in-process jobs
// that are safe to run on every instance.
type noopLock struct{}

func (noopLock) Acquire(context.Context) (bool, error) { return true, nil }
func (noopLock) Release(context.Context) error         { return nil }
