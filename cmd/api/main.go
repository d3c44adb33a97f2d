package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tillworks/tillpoint-backend/api/routes"
	"github.com/tillworks/tillpoint-backend/internal/catalog"
	"github.com/tillworks/tillpoint-backend/internal/cron"
	"github.com/tillworks/tillpoint-backend/internal/orderedit"
	"github.com/tillworks/tillpoint-backend/internal/snapshot"
	"github.com/tillworks/tillpoint-backend/internal/submission"
	"github.com/tillworks/tillpoint-backend/pkg/config"
	"github.com/tillworks/tillpoint-backend/pkg/db"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
	"github.com/tillworks/tillpoint-backend/pkg/metrics"
	"github.com/tillworks/tillpoint-backend/pkg/migrate"
	"github.com/tillworks/tillpoint-backend/pkg/redis"
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

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	snapshotRepo := snapshot.NewRepository(dbClient.DB())
	flusher := snapshot.NewFlusher(snapshotRepo, cfg.Snapshot.Namespace, 0, logg)

	store, err := snapshot.Bootstrap(context.Background(), snapshotRepo, cfg.Snapshot.Namespace, flusher.Enqueue, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to restore tab snapshot", err)
		os.Exit(1)
	}

	catalogClient, err := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey,
		catalog.WithTimeout(cfg.Catalog.RequestTimeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog client", err)
		os.Exit(1)
	}
	catalogService, err := catalog.NewService(catalogClient, redisClient, cfg.Catalog.ProductCacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	orderClient, err := submission.NewClient(cfg.Orders.BaseURL, cfg.Orders.APIKey,
		submission.WithTimeout(cfg.Orders.RequestTimeout))
	if err != nil {
		logg.Error(context.Background(), "failed to create order client", err)
		os.Exit(1)
	}
	submissionService, err := submission.NewService(store, redisClient, orderClient, checkoutMetrics, logg, cfg.Submission.InFlightTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create submission service", err)
		os.Exit(1)
	}

	editService, err := orderedit.NewService(orderClient, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create order edit service", err)
		os.Exit(1)
	}

	refreshJob, err := cron.NewCatalogRefreshJob(cron.CatalogRefreshJobParams{
		Logger:  logg,
		Catalog: catalogService,
		Store:   store,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog refresh job", err)
		os.Exit(1)
	}
	refreshLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("catalog-refresh"), cfg.Worker.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create refresh lock", err)
		os.Exit(1)
	}
	registry := cron.NewRegistry()
	registry.Register(refreshJob)
	refreshService, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     refreshLock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Worker.RefreshInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create refresh service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, store, catalogService, submissionService, editService),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Price refresh runs in-process: open tabs live in this process's
	// memory, so only this instance can fold new prices into them.
	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		if err := refreshService.Run(stopCtx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "catalog refresh loop stopped unexpectedly", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			flusher.Close()
			os.Exit(1)
		}
	case <-stopCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error shutting down api server", err)
		}
	}

	stop()
	<-refreshDone

	// In-flight requests and the refresh loop have finished; drain
	// pending snapshot writes.
	flusher.Close()
	logg.Info(ctx, "api server shut down gracefully")
}
