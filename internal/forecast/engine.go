// Package forecast is the forecasting and scenario-simulation engine.
//
// It turns transaction history read through ports.Reader into expense
// predictions, cash-flow projections, scenario outcomes, affordability scores
// and inflation projections. Every computation is synchronous and stateless;
// the only suspension points are collaborator reads. Insufficient data is never
// an error: predictions come back nil, verdicts false, seasonality neutral.
package forecast

import (
	"context"
	"fmt"
	"time"

	"cashcast/internal/core"
	"cashcast/internal/log"
	"cashcast/internal/ports"
)

// HistoryScorer computes the history sub-score of an affordability check.
type HistoryScorer func(ctx context.Context, userID int64, in core.AffordabilityInput) (int, error)

// FullHistoryScore always grants full credit.
func FullHistoryScore(context.Context, int64, core.AffordabilityInput) (int, error) {
	return maxHistoryScore, nil
}

type predictFunc func(ctx context.Context, userID, categoryID int64, target core.Period) (*core.Prediction, error)

type Engine struct {
	reader  ports.Reader
	tuning  Tuning
	now     func() time.Time
	logger  *log.Logger
	history HistoryScorer
	predict predictFunc
}

type Option func(*Engine)

// WithTuning replaces the default heuristic constants.
func WithTuning(t Tuning) Option {
	return func(e *Engine) { e.tuning = t }
}

// WithClock sets the reference clock. Tests pin it to a fixed instant.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l.WithComponent(log.ComponentForecast) }
}

// WithHistoryScorer overrides the affordability history sub-score.
func WithHistoryScorer(h HistoryScorer) Option {
	return func(e *Engine) { e.history = h }
}

func New(reader ports.Reader, opts ...Option) *Engine {
	e := &Engine{
		reader:  reader,
		tuning:  DefaultTuning(),
		now:     time.Now,
		logger:  log.New(log.DefaultConfig()).WithComponent(log.ComponentForecast),
		history: FullHistoryScore,
	}
	e.predict = e.Predict
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tuning returns the constants the engine runs with.
func (e *Engine) Tuning() Tuning {
	return e.tuning
}

func (e *Engine) today() time.Time {
	return e.now().UTC()
}

func (e *Engine) todayDate() core.Date {
	t := e.today()
	return core.NewDate(t.Year(), int(t.Month()), t.Day())
}

func (e *Engine) currentPeriod() core.Period {
	return core.PeriodOf(e.today())
}

// CurrentPeriod returns the month the engine clock is in.
func (e *Engine) CurrentPeriod() core.Period {
	return e.currentPeriod()
}

// currentBalance sums the balances of all active accounts.
func (e *Engine) currentBalance(ctx context.Context, userID int64) (float64, error) {
	accounts, err := e.reader.ListActiveAccounts(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}
	total := 0.0
	for _, a := range accounts {
		total += a.Balance.Units()
	}
	return total, nil
}
