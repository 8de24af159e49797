package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/openpantry/vouchers-backend/api/routes"
	"github.com/openpantry/vouchers-backend/internal/accounts"
	"github.com/openpantry/vouchers-backend/internal/catalog"
	"github.com/openpantry/vouchers-backend/internal/failures"
	"github.com/openpantry/vouchers-backend/internal/orders"
	"github.com/openpantry/vouchers-backend/internal/submission"
	"github.com/openpantry/vouchers-backend/pkg/config"
	"github.com/openpantry/vouchers-backend/pkg/db"
	"github.com/openpantry/vouchers-backend/pkg/logger"
	"github.com/openpantry/vouchers-backend/pkg/migrate"
	"github.com/openpantry/vouchers-backend/pkg/outbox"
	"github.com/openpantry/vouchers-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	guard, err := submission.NewGuard(submission.GuardParams{
		Store:  redisClient,
		Logger: logg,
		TTL:    cfg.Submission.DedupTTL,
		Bucket: cfg.Submission.DedupBucket,
	})
	exitOnError(logg, "failed to create idempotency guard", err)

	lock, err := submission.NewLock(submission.LockParams{
		Store:  redisClient,
		Logger: logg,
		TTL:    cfg.Submission.LockTTL,
	})
	exitOnError(logg, "failed to create submission lock", err)

	throttle, err := submission.NewThrottle(submission.ThrottleParams{
		Store:      redisClient,
		Logger:     logg,
		MaxBackoff: cfg.Submission.ThrottleMaxBackoff,
		IdleExpiry: cfg.Submission.ThrottleIdleExpiry,
	})
	exitOnError(logg, "failed to create throttle", err)

	accountsRepo, err := accounts.NewRepo(dbClient.DB())
	exitOnError(logg, "failed to create accounts repo", err)
	catalogRepo, err := catalog.NewRepo(dbClient.DB())
	exitOnError(logg, "failed to create catalog repo", err)
	ordersRepo, err := orders.NewRepo(dbClient.DB())
	exitOnError(logg, "failed to create orders repo", err)
	failuresRepo, err := failures.NewRepo(dbClient.DB())
	exitOnError(logg, "failed to create failures repo", err)

	recorder, err := failures.NewRecorder(failures.RecorderParams{Repo: failuresRepo, Logger: logg})
	exitOnError(logg, "failed to create failure recorder", err)

	audit, err := outbox.NewService(outbox.ServiceParams{Repo: outbox.NewRepository(dbClient.DB())})
	exitOnError(logg, "failed to create outbox service", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Throttle: throttle,
		Guard:    guard,
		Lock:     lock,
		Accounts: accountsRepo,
		Catalog:  catalogRepo,
		Orders:   ordersRepo,
		Recorder: recorder,
		Tx:       dbClient,
		Audit:    audit,
		Logger:   logg,
	})
	exitOnError(logg, "failed to create orders service", err)

	accountsService, err := accounts.NewService(accounts.ServiceParams{
		Repo:   accountsRepo,
		Tx:     dbClient,
		Audit:  audit,
		Logger: logg,
	})
	exitOnError(logg, "failed to create accounts service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			OrdersService:   ordersService,
			AccountsService: accountsService,
			FailureRecorder: recorder,
		}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "error shutting down api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func exitOnError(logg *logger.Logger, msg string, err error) {
	if err != nil {
		logg.Error(context.Background(), msg, err)
		os.Exit(1)
	}
}
