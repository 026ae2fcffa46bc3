package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"cashcast/internal/amqp"
	"cashcast/internal/cache"
	"cashcast/internal/cli"
	apphttp "cashcast/internal/http"
	"cashcast/internal/log"
	"cashcast/internal/rates"
	"cashcast/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	store, closeStore, err := cli.OpenStore(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to open data backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	engine, err := cli.BuildEngine(logger, cfg, store)
	if err != nil {
		logger.Error("Failed to build forecasting engine", log.FieldError, err)
		os.Exit(1)
	}

	// Refresh requests go to the worker queue when AMQP is configured and
	// run inline otherwise.
	svcOpts := []services.PredictionServiceOption{services.WithServiceLogger(logger)}
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		svcOpts = append(svcOpts, services.WithPublisher(amqpClient))
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - prediction refreshes run inline")
	}
	predictions := services.NewPredictionService(engine, store, svcOpts...)

	cacheManager := cache.NewManager(logger)
	opts := apphttp.Options{
		Engine:             engine,
		Predictions:        predictions,
		Store:              store,
		JWTSecret:          cfg.JWTSecret,
		DefaultUserID:      cfg.DefaultUserID,
		PredictionCacheTTL: cfg.PredictionCacheTTL,
		Logger:             logger,
	}
	if cfg.RatesURL != "" {
		ratesClient := rates.NewClient(cfg.RatesURL, cfg.RatesCacheTTL, rates.WithLogger(logger))
		cacheManager.Register(ratesClient.Cache())
		opts.Rates = ratesClient
	}
	cacheManager.StartCleanup(10 * time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, opts)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		stats := srv.SecurityStats()
		logger.Info("Security counters",
			"rate_limit_hits", stats.RateLimitHits,
			"auth_failures", stats.AuthFailures,
			"suspicious_requests", stats.SuspiciousRequests)

		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", log.FieldError, err)
			}
		}
		if err := closeStore(); err != nil {
			logger.Error("Data backend close error", log.FieldError, err)
		}
	})

	logger.Info("Starting cashcast server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"auth_enabled", cfg.AuthEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
