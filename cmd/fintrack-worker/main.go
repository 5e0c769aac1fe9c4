package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/session"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(nil, log.ComponentWorker, nil))
	logger := cli.SetupLogger(cfg, log.ComponentWorker, nil)
	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup,
		log.FieldBackend, cfg.DataBackend, "sweep_interval", cfg.SweepInterval)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to open storage backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Close()

	cacheLogger := logger.WithComponent(log.ComponentCache)
	caches := cache.NewManager(func(removed int) {
		cacheLogger.Debug("Removed expired cache entries", log.FieldCount, removed)
	})
	if result.Cache != nil && cfg.CacheTTL > 0 {
		caches.Register(result.Cache)
		caches.StartCleanup(cfg.CacheTTL)
		defer caches.Stop()
	}

	users := session.NewManager(result.Store, session.WithLogger(logger))
	sweeper := worker.NewExpirySweeper(result.Store, users, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sweeper.Run(gctx, cfg.SweepInterval)
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		g.Go(func() error {
			return client.ConsumeChanges(gctx, sweeper.HandleChange)
		})
	} else {
		logger.Info("Change events disabled - no AMQP_URL provided")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err)
	}
	if ctx.Err() != nil {
		cli.WaitForShutdown(ctx, done)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
