package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vinco/vinco-backend/internal/cron"
	"github.com/vinco/vinco-backend/internal/ledger"
	"github.com/vinco/vinco-backend/internal/organizations"
	"github.com/vinco/vinco-backend/pkg/config"
	"github.com/vinco/vinco-backend/pkg/db"
	"github.com/vinco/vinco-backend/pkg/instance"
	"github.com/vinco/vinco-backend/pkg/logger"
	"github.com/vinco/vinco-backend/pkg/metrics"
	"github.com/vinco/vinco-backend/pkg/migrate"
	"github.com/vinco/vinco-backend/pkg/redis"
)

const lockKeyFormat = "vinco:reconcile:lock:%s"

func main() {
	fix := flag.Bool("fix", false, "overwrite drifted tank balances with the history total")
	watch := flag.Bool("watch", false, "keep running and reconcile on VINCO_RECONCILE_INTERVAL")
	flag.Parse()

	os.Exit(run(*fix, *watch))
}

// run returns the process exit code once every deferred cleanup has run.
func run(fix, watch bool) int {
	logg := logger.New(logger.Options{ServiceName: "reconcile"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		return 1
	}

	logg = logger.New(logger.Options{
		ServiceName: "reconcile",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		return 1
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		return 1
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		return 1
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), dbClient, metrics.NewLedgerMetrics(prometheus.DefaultRegisterer), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		return 1
	}
	job, err := cron.NewTankReconcileJob(cron.TankReconcileJobParams{
		Logger:        logg,
		Organizations: organizations.NewRepository(dbClient.DB()),
		Ledger:        ledgerSvc,
		Metrics:       jobMetrics,
		Fix:           fix,
		Concurrency:   cfg.Reconcile.Concurrency,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		return 1
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Reconcile.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile lock", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "fix": fix, "instance": instance.GetID()})

	if watch {
		service, err := cron.NewService(cron.ServiceParams{
			Logger:   logg,
			Registry: cron.NewRegistry(job),
			Lock:     lock,
			Metrics:  jobMetrics,
			Interval: cfg.Reconcile.Interval,
		})
		if err != nil {
			logg.Error(ctx, "failed to create scheduler", err)
			return 1
		}
		logg.Info(ctx, "starting reconcile worker")
		if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "reconcile worker stopped unexpectedly", err)
			return 1
		}
		logg.Info(ctx, "reconcile worker shutting down gracefully")
		return 0
	}

	return runOnce(ctx, logg, lock, job)
}

func runOnce(ctx context.Context, logg *logger.Logger, lock cron.Lock, job *cron.TankReconcileJob) int {
	locked, err := lock.Acquire(ctx)
	if err != nil {
		logg.Error(ctx, "failed to acquire reconcile lock", err)
		return 1
	}
	if !locked {
		logg.Error(ctx, "reconcile already running", cron.ErrLocked)
		return 1
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			logg.Error(ctx, "failed to release reconcile lock", err)
		}
	}()

	summary, runErr := job.Reconcile(ctx)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		logg.Error(ctx, "failed to write report", err)
	}
	if runErr != nil {
		logg.Error(ctx, "reconcile finished with errors", runErr)
		return 1
	}
	if summary.Drifts() > 0 {
		return 2
	}
	return 0
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
