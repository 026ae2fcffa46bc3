// Package cli provides common initialization utilities.
// This package consolidates the bootstrap shared by cmd/cashcast,
// cmd/prediction-worker and cmd/cashcast-cli.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cashcast/internal/backend"
	"cashcast/internal/config"
	"cashcast/internal/forecast"
	"cashcast/internal/log"
	"cashcast/internal/ports"
)

// SetupLogger creates the process logger at the given level and installs it
// as the slog default.
func SetupLogger(level, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads configuration from the environment and validates it.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg, err := LoadConfig()
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore creates the configured backend. The returned cleanup closes it.
func OpenStore(ctx context.Context, logger *log.Logger, cfg *config.Config) (ports.Store, func() error, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", backendCfg.Type, err)
	}
	return res.Store, res.Cleanup, nil
}

// BuildEngine creates the forecasting engine over reader with the tuning file
// named by the configuration. Extra options are applied last.
func BuildEngine(logger *log.Logger, cfg *config.Config, reader ports.Reader, opts ...forecast.Option) (*forecast.Engine, error) {
	tuning, err := config.LoadTuning(cfg.EngineTuningFile)
	if err != nil {
		return nil, err
	}
	if cfg.EngineTuningFile != "" {
		logger.Info("Loaded engine tuning", "path", cfg.EngineTuningFile)
	}
	opts = append([]forecast.Option{forecast.WithTuning(tuning), forecast.WithLogger(logger)}, opts...)
	return forecast.New(reader, opts...), nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals, and a channel
// that is closed once cleanup has returned or the timeout has passed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
