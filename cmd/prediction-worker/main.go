package main

import (
	"context"
	"os"
	"time"

	"cashcast/internal/amqp"
	"cashcast/internal/cli"
	"cashcast/internal/log"
	"cashcast/internal/services"
	"cashcast/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting prediction-worker")

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
	predictions := services.NewPredictionService(engine, store, services.WithServiceLogger(logger))

	// Initialize AMQP client for consuming refresh requests (optional)
	var (
		amqpClient *amqp.Client
		consumer   worker.RefreshConsumer
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		consumer = amqpClient
	} else {
		logger.Info("AMQP disabled - only scheduled sweeps will run")
	}

	w := worker.NewPredictionWorker(predictions, consumer, worker.Config{
		Schedule:   cfg.RefreshSchedule,
		RunOnStart: cfg.RefreshOnStart,
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := w.Stop(ctx); err != nil {
			logger.Error("Worker stop error", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", log.FieldError, err)
			}
		}
		if err := closeStore(); err != nil {
			logger.Error("Data backend close error", log.FieldError, err)
		}
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("Failed to start prediction worker", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Prediction worker stopped", "sweeps", w.Sweeps())
}
