package forecast

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"cashcast/internal/core"
	"cashcast/internal/log"
)

// CoefficientOfVariation returns stddev/mean of values. ok is false when the
// mean is zero or there are no values.
func CoefficientOfVariation(values []float64) (cv float64, ok bool) {
	m := mean(values)
	if len(values) == 0 || m == 0 {
		return 0, false
	}
	return stddev(values) / m, true
}

// IsVariable reports whether a history of at least three months disperses
// beyond VariabilityThreshold.
func IsVariable(history []float64) bool {
	if len(history) < 3 {
		return false
	}
	cv, ok := CoefficientOfVariation(history)
	return ok && cv > VariabilityThreshold
}

// Classify builds the verdict for a zero-filled monthly series. Fewer than
// minMonths non-empty months yields a non-variable verdict.
func Classify(categoryID int64, series []core.MonthlyAggregate, minMonths int) core.VariabilityVerdict {
	values := amounts(series)
	cv, _ := CoefficientOfVariation(values)
	filled := nonEmptyMonths(series)
	return core.VariabilityVerdict{
		CategoryID:             categoryID,
		CoefficientOfVariation: core.Round2(cv),
		IsVariable:             filled >= minMonths && IsVariable(values),
		NonEmptyMonths:         filled,
	}
}

// DetectVariableCategories classifies every expense category of the user over
// the trailing variability window. The category list is capped at
// Tuning.MaxCategories.
func (e *Engine) DetectVariableCategories(ctx context.Context, userID int64) ([]core.VariabilityVerdict, error) {
	categories, err := e.expenseCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	verdicts := make([]core.VariabilityVerdict, len(categories))
	ref := e.today()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.tuning.Concurrency)
	for i, c := range categories {
		i, c := i, c
		g.Go(func() error {
			series, err := e.Aggregate(gctx, userID, c.ID, e.tuning.VariabilityWindow, ref)
			if err != nil {
				return err
			}
			verdicts[i] = Classify(c.ID, series, e.tuning.MinHistoryMonths)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.DebugContext(ctx, "Classified expense categories",
		log.FieldUserID, userID, log.FieldCount, len(verdicts), log.FieldOperation, log.OpClassify)
	return verdicts, nil
}

// VariableCategoryIDs returns the ids of categories classified as variable.
func (e *Engine) VariableCategoryIDs(ctx context.Context, userID int64) ([]int64, error) {
	verdicts, err := e.DetectVariableCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, v := range verdicts {
		if v.IsVariable {
			ids = append(ids, v.CategoryID)
		}
	}
	return ids, nil
}

func (e *Engine) expenseCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	categories, err := e.reader.ListCategories(ctx, userID, core.Expense)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if limit := e.tuning.MaxCategories; len(categories) > limit {
		e.logger.WarnContext(ctx, "Category cap reached, ignoring the rest",
			log.FieldUserID, userID, log.FieldCount, len(categories), "limit", limit)
		categories = categories[:limit]
	}
	return categories, nil
}
