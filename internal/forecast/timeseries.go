package forecast

import (
	"context"
	"fmt"
	"time"

	"cashcast/internal/core"
	"cashcast/internal/ports"
)

// Aggregate returns monthsBack zero-filled monthly expense totals for a
// category, ending with the month before ref's month.
func (e *Engine) Aggregate(ctx context.Context, userID, categoryID int64, monthsBack int, ref time.Time) ([]core.MonthlyAggregate, error) {
	if monthsBack < 1 {
		return nil, core.ErrInvalidMonths
	}
	end := core.PeriodOf(ref)
	start := end.AddMonths(-monthsBack)
	txs, err := e.expenseHistory(ctx, userID, categoryID, start, end)
	if err != nil {
		return nil, err
	}
	return MonthlySeries(txs, categoryID, start, monthsBack), nil
}

// expenseHistory reads the category's expense transactions in [from, to).
// A zero from reads all history.
func (e *Engine) expenseHistory(ctx context.Context, userID, categoryID int64, from, to core.Period) ([]core.Transaction, error) {
	q := ports.TransactionQuery{
		CategoryID: categoryID,
		Type:       core.Expense,
		To:         to.Start(),
	}
	if !from.IsZero() {
		q.From = from.Start()
	}
	txs, err := e.reader.ListTransactions(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("list transactions for category %d: %w", categoryID, err)
	}
	return txs, nil
}

// MonthlySeries folds transactions into one total per month for months
// consecutive months starting at start. Months without transactions are
// explicit zeros; only completed expenses of categoryID count.
func MonthlySeries(txs []core.Transaction, categoryID int64, start core.Period, months int) []core.MonthlyAggregate {
	series := make([]core.MonthlyAggregate, months)
	for i := range series {
		series[i] = core.MonthlyAggregate{CategoryID: categoryID, Period: start.AddMonths(i)}
	}
	for _, t := range txs {
		if !countsAsExpense(t, categoryID) {
			continue
		}
		i := start.MonthsUntil(t.Date.Period())
		if i < 0 || i >= months {
			continue
		}
		series[i].TotalAmount += t.Amount.Units()
	}
	return series
}

func countsAsExpense(t core.Transaction, categoryID int64) bool {
	return t.Counts() && t.Type == core.Expense && (categoryID == 0 || t.CategoryID == categoryID)
}

func amounts(series []core.MonthlyAggregate) []float64 {
	out := make([]float64, len(series))
	for i, m := range series {
		out[i] = m.TotalAmount
	}
	return out
}

func nonEmptyMonths(series []core.MonthlyAggregate) int {
	n := 0
	for _, m := range series {
		if m.TotalAmount != 0 {
			n++
		}
	}
	return n
}
