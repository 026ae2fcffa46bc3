package forecast

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"cashcast/internal/core"
	"cashcast/internal/log"
)

// historyEnd is the exclusive end of the closed-month window used to predict
// target: the current month, or target itself when it lies in the past.
func (e *Engine) historyEnd(target core.Period) core.Period {
	cur := e.currentPeriod()
	if target.Before(cur) {
		return target
	}
	return cur
}

// Predict forecasts the category's expense for the target month. It returns
// nil without error when the trailing window has fewer than
// Tuning.MinHistoryMonths non-empty months.
func (e *Engine) Predict(ctx context.Context, userID, categoryID int64, target core.Period) (*core.Prediction, error) {
	end := e.historyEnd(target)
	txs, err := e.expenseHistory(ctx, userID, categoryID, core.Period{}, end)
	if err != nil {
		return nil, err
	}

	p := e.predictFromHistory(txs, categoryID, target, end)
	if p == nil {
		e.logger.DebugContext(ctx, "Insufficient history for prediction",
			log.FieldUserID, userID, log.FieldCategoryID, categoryID, log.FieldMonth, target.String())
		return nil, nil
	}
	return p, nil
}

// predictFromHistory is the pure part of Predict. txs holds the category's
// expense history before end.
func (e *Engine) predictFromHistory(txs []core.Transaction, categoryID int64, target, end core.Period) *core.Prediction {
	t := e.tuning
	window := MonthlySeries(txs, categoryID, end.AddMonths(-t.LongWindow), t.LongWindow)
	if nonEmptyMonths(window) < t.MinHistoryMonths {
		return nil
	}

	values := amounts(window)
	avgShort := mean(lastN(values, t.ShortWindow))
	avgLong := mean(values)

	sameMonth := avgLong
	if prev := target.AddMonths(-12); prev.Before(end) {
		if v := MonthlySeries(txs, categoryID, prev, 1)[0].TotalAmount; v != 0 {
			sameMonth = v
		}
	}

	base := t.ShortWeight*avgShort + t.LongWeight*avgLong + t.SameMonthWeight*sameMonth
	seasonality := SeasonalFactor(txs, categoryID, target.MonthIndex())
	predicted := max(0, base*seasonality)

	sd := stddev(values)
	margin := sd * t.MarginSigmas

	confidence := 0.0
	if avgLong > 0 {
		confidence = clamp(100-(sd/avgLong*100), 0, 100)
	}

	trend := core.TrendDown
	if avgShort > avgLong {
		trend = core.TrendUp
	}

	p := core.Prediction{
		CategoryID:      categoryID,
		Month:           target,
		PredictedAmount: predicted,
		Confidence:      confidence,
		LowerBound:      max(0, predicted-margin),
		UpperBound:      predicted + margin,
		Algorithm:       Algorithm,
		Factors: core.PredictionFactors{
			Seasonality:       seasonality,
			Trend:             trend,
			HistoricalAverage: avgLong,
		},
	}.Rounded()
	return &p
}

// PredictAll predicts every expense category for the target month
// concurrently, skipping categories with insufficient history. Results are
// ordered by category id.
func (e *Engine) PredictAll(ctx context.Context, userID int64, target core.Period) ([]core.Prediction, error) {
	categories, err := e.expenseCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return e.predictMany(ctx, userID, ids, target)
}

// PredictVariable predicts only the categories classified as variable.
func (e *Engine) PredictVariable(ctx context.Context, userID int64, target core.Period) ([]core.Prediction, error) {
	ids, err := e.VariableCategoryIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.predictMany(ctx, userID, ids, target)
}

func (e *Engine) predictMany(ctx context.Context, userID int64, categoryIDs []int64, target core.Period) ([]core.Prediction, error) {
	var (
		mu  sync.Mutex
		out []core.Prediction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.tuning.Concurrency)
	for _, id := range categoryIDs {
		id := id
		g.Go(func() error {
			p, err := e.Predict(gctx, userID, id, target)
			if err != nil || p == nil {
				return err
			}
			mu.Lock()
			out = append(out, *p)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}
