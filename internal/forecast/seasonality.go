package forecast

import (
	"context"
	"sort"

	"cashcast/internal/core"
)

// SeasonalFactor compares the average total of one calendar month (0-11)
// against the average of all month totals in txs. It returns 1.0 whenever the
// data cannot support a factor: no history, a non-positive global mean, or no
// observation for the requested calendar month.
func SeasonalFactor(txs []core.Transaction, categoryID int64, monthIndex int) float64 {
	totals := make(map[core.Period]float64)
	for _, t := range txs {
		if countsAsExpense(t, categoryID) {
			totals[t.Date.Period()] += t.Amount.Units()
		}
	}
	if len(totals) == 0 {
		return 1.0
	}

	periods := make([]core.Period, 0, len(totals))
	for p := range totals {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	var all, target []float64
	for _, p := range periods {
		all = append(all, totals[p])
		if p.MonthIndex() == monthIndex {
			target = append(target, totals[p])
		}
	}
	global := mean(all)
	if global <= 0 || len(target) == 0 {
		return 1.0
	}
	factor := mean(target) / global
	if factor <= 0 {
		return 1.0
	}
	return factor
}

// Seasonality reads the category's closed-month history and returns its
// factor for the given calendar month.
func (e *Engine) Seasonality(ctx context.Context, userID, categoryID int64, monthIndex int) (core.SeasonalFactor, error) {
	txs, err := e.expenseHistory(ctx, userID, categoryID, core.Period{}, e.currentPeriod())
	if err != nil {
		return core.SeasonalFactor{}, err
	}
	return core.SeasonalFactor{
		CategoryID: categoryID,
		MonthIndex: monthIndex,
		Factor:     SeasonalFactor(txs, categoryID, monthIndex),
	}, nil
}
