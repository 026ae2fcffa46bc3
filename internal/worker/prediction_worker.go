// Package worker runs the background prediction refresh: a cron-scheduled
// sweep over every user plus a consumer for on-demand refresh requests.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"cashcast/internal/amqp"
	"cashcast/internal/core"
	"cashcast/internal/log"
	"cashcast/internal/services"
)

// Refresher is the part of services.PredictionService the worker drives.
type Refresher interface {
	Refresh(ctx context.Context, userID int64, month core.Period) (services.RefreshReport, error)
	RefreshAll(ctx context.Context, month core.Period) ([]services.RefreshReport, error)
}

// RefreshConsumer delivers queued refresh requests.
type RefreshConsumer interface {
	ConsumeRefresh(ctx context.Context, handler amqp.RefreshHandler) error
}

// Config holds worker settings
type Config struct {
	// Schedule is a standard five-field cron expression; empty disables the sweep.
	Schedule string
	// RunOnStart triggers one sweep immediately after Start.
	RunOnStart bool
}

// PredictionWorker keeps cached predictions current.
type PredictionWorker struct {
	refresher Refresher
	consumer  RefreshConsumer
	config    Config
	logger    *log.Logger

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	cancel  context.CancelFunc
	doneCh  chan struct{}
	sweeps  int
	startWG sync.WaitGroup
}

// NewPredictionWorker creates a worker. consumer may be nil when no queue is
// configured.
func NewPredictionWorker(refresher Refresher, consumer RefreshConsumer, config Config, logger *log.Logger) *PredictionWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &PredictionWorker{
		refresher: refresher,
		consumer:  consumer,
		config:    config,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRefreshMessage processes a single refresh request from the queue.
func (w *PredictionWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.PredictionRefreshMessage) error {
	month, err := msg.Period()
	if err != nil {
		return fmt.Errorf("parse month: %w", err)
	}

	w.logger.InfoContext(ctx, "Processing refresh message",
		log.FieldUserID, msg.UserID,
		log.FieldMonth, msg.Month,
		"requested_at", msg.RequestedAt)

	if _, err := w.refresher.Refresh(ctx, msg.UserID, month); err != nil {
		return fmt.Errorf("refresh user %d: %w", msg.UserID, err)
	}
	return nil
}

// Sweep refreshes every user once.
func (w *PredictionWorker) Sweep(ctx context.Context) {
	start := time.Now()
	reports, err := w.refresher.RefreshAll(ctx, core.Period{})

	stored := 0
	for _, r := range reports {
		stored += r.Stored
	}

	w.mu.Lock()
	w.sweeps++
	w.mu.Unlock()

	if err != nil {
		w.logger.ErrorContext(ctx, "Scheduled sweep finished with errors",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err.Error(),
			log.FieldCount, len(reports))
		return
	}
	w.logger.InfoContext(ctx, "Scheduled sweep completed",
		log.FieldOperation, log.OpRefresh,
		log.FieldCount, len(reports),
		"stored", stored,
		log.FieldDuration, time.Since(start).Milliseconds())
}

// Sweeps returns how many sweeps have run.
func (w *PredictionWorker) Sweeps() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sweeps
}

// Start schedules the sweep and starts consuming. Returns an error if already
// running or the schedule does not parse.
func (w *PredictionWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("prediction worker is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)

	c := cron.New(cron.WithLocation(time.UTC))
	if w.config.Schedule != "" {
		if _, err := c.AddFunc(w.config.Schedule, func() { w.Sweep(runCtx) }); err != nil {
			cancel()
			return fmt.Errorf("invalid refresh schedule %q: %w", w.config.Schedule, err)
		}
	}

	w.running = true
	w.cron = c
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	c.Start()
	go w.consume(runCtx)

	if w.config.RunOnStart {
		w.startWG.Add(1)
		go func() {
			defer w.startWG.Done()
			w.Sweep(runCtx)
		}()
	}

	w.logger.InfoContext(ctx, "Prediction worker started",
		"schedule", w.config.Schedule,
		"queue_enabled", w.consumer != nil)
	return nil
}

func (w *PredictionWorker) consume(ctx context.Context) {
	defer close(w.doneCh)
	if w.consumer == nil {
		<-ctx.Done()
		return
	}
	err := w.consumer.ConsumeRefresh(ctx, w.HandleRefreshMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		w.logger.ErrorContext(ctx, "Refresh consumer stopped", log.FieldError, err.Error())
	}
}

// Stop stops the schedule and the consumer, waiting for running jobs and the
// start-up sweep until ctx expires.
func (w *PredictionWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	c, cancel, done := w.cron, w.cancel, w.doneCh
	w.mu.Unlock()

	cronDone := c.Stop()
	cancel()

	startDone := make(chan struct{})
	go func() {
		w.startWG.Wait()
		close(startDone)
	}()

	for _, ch := range []<-chan struct{}{cronDone.Done(), done, startDone} {
		select {
		case <-ch:
		case <-ctx.Done():
			w.logger.WarnContext(ctx, "Prediction worker stop timed out")
			return ctx.Err()
		}
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Prediction worker stopped gracefully")
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *PredictionWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
