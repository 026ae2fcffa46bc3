package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cashcast/internal/core"
	"cashcast/internal/forecast"
	"cashcast/internal/log"
	"cashcast/internal/ports"
)

// PredictionStore is the part of the store the service writes to.
type PredictionStore interface {
	ports.PredictionCache
	ports.UserLister
}

// RefreshPublisher queues a refresh for a background worker.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, userID int64, month core.Period) error
}

// RefreshReport summarizes one background run for a user.
type RefreshReport struct {
	UserID int64       `json:"userId"`
	Month  core.Period `json:"month"`
	Stored int         `json:"stored"`
}

// PredictionService runs the engine's predictor and keeps the prediction
// cache current.
type PredictionService struct {
	engine    *forecast.Engine
	store     PredictionStore
	publisher RefreshPublisher
	logger    *log.Logger
	events    *log.StructuredLogger
	now       func() time.Time
}

type PredictionServiceOption func(*PredictionService)

// WithPublisher routes RequestRefresh through a queue instead of running
// inline.
func WithPublisher(p RefreshPublisher) PredictionServiceOption {
	return func(s *PredictionService) { s.publisher = p }
}

func WithServiceLogger(l *log.Logger) PredictionServiceOption {
	return func(s *PredictionService) { s.setLogger(l) }
}

func WithServiceClock(now func() time.Time) PredictionServiceOption {
	return func(s *PredictionService) { s.now = now }
}

func NewPredictionService(engine *forecast.Engine, store PredictionStore, opts ...PredictionServiceOption) *PredictionService {
	s := &PredictionService{
		engine: engine,
		store:  store,
		now:    time.Now,
	}
	s.setLogger(log.New(log.DefaultConfig()))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PredictionService) setLogger(l *log.Logger) {
	s.logger = l.WithComponent(log.ComponentPrediction)
	s.events = log.NewStructuredLogger(s.logger)
}

// Predict computes a fresh prediction and stores it. A nil prediction means
// the category lacks history; nothing is stored then.
func (s *PredictionService) Predict(ctx context.Context, userID, categoryID int64, month core.Period) (*core.Prediction, error) {
	p, err := s.engine.Predict(ctx, userID, categoryID, month)
	if err != nil {
		return nil, fmt.Errorf("predict category %d: %w", categoryID, err)
	}
	if p == nil {
		return nil, nil
	}
	if err := s.store.UpsertPrediction(ctx, userID, *p); err != nil {
		return nil, fmt.Errorf("store prediction: %w", err)
	}
	s.events.LogPredictionStored(ctx, userID, p.CategoryID, p.Month.String(), p.PredictedAmount, p.Confidence)
	return p, nil
}

// Cached serves a cache row younger than maxAge and recomputes otherwise.
// The boolean reports whether the answer came from the cache.
func (s *PredictionService) Cached(ctx context.Context, userID, categoryID int64, month core.Period, maxAge time.Duration) (*core.Prediction, bool, error) {
	row, err := s.store.GetPrediction(ctx, userID, categoryID, month)
	switch {
	case err == nil:
		if s.now().Sub(row.UpdatedAt) <= maxAge {
			p := row.Prediction
			return &p, true, nil
		}
	case !errors.Is(err, ports.ErrNotFound):
		return nil, false, fmt.Errorf("read cached prediction: %w", err)
	}

	p, err := s.Predict(ctx, userID, categoryID, month)
	return p, false, err
}

// Refresh predicts every variable category of the user for month and stores
// the results. A zero month means the month after the current one.
func (s *PredictionService) Refresh(ctx context.Context, userID int64, month core.Period) (RefreshReport, error) {
	if month.IsZero() {
		month = s.engine.CurrentPeriod().AddMonths(1)
	}
	report := RefreshReport{UserID: userID, Month: month}

	preds, err := s.engine.PredictVariable(ctx, userID, month)
	if err != nil {
		return report, fmt.Errorf("predict variable categories: %w", err)
	}
	for _, p := range preds {
		if err := s.store.UpsertPrediction(ctx, userID, p); err != nil {
			return report, fmt.Errorf("store prediction for category %d: %w", p.CategoryID, err)
		}
		report.Stored++
	}

	s.logger.InfoContext(ctx, "Prediction refresh completed",
		log.FieldOperation, log.OpRefresh,
		log.FieldUserID, userID,
		log.FieldMonth, month.String(),
		log.FieldCount, report.Stored)
	return report, nil
}

// RefreshAll runs Refresh for every known user. A failing user does not stop
// the sweep; all failures are returned joined.
func (s *PredictionService) RefreshAll(ctx context.Context, month core.Period) ([]RefreshReport, error) {
	users, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var (
		reports []RefreshReport
		errs    []error
	)
	for _, id := range users {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		r, err := s.Refresh(ctx, id, month)
		if err != nil {
			s.events.LogError(ctx, "Prediction refresh failed", err, log.OpRefresh, log.NewFields().WithUser(id))
			errs = append(errs, fmt.Errorf("user %d: %w", id, err))
			continue
		}
		reports = append(reports, r)
	}
	return reports, errors.Join(errs...)
}

// RequestRefresh queues a refresh when a publisher is configured and runs it
// inline otherwise. It reports whether the work was queued.
func (s *PredictionService) RequestRefresh(ctx context.Context, userID int64, month core.Period) (bool, error) {
	if s.publisher != nil {
		if err := s.publisher.PublishRefresh(ctx, userID, month); err != nil {
			return false, fmt.Errorf("queue refresh: %w", err)
		}
		return true, nil
	}
	_, err := s.Refresh(ctx, userID, month)
	return false, err
}
