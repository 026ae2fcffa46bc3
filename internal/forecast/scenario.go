package forecast

import (
	"context"
	"fmt"
	"math"

	"cashcast/internal/core"
	"cashcast/internal/log"
	"cashcast/internal/ports"
)

// baseline is the monthly surplus of the trailing closed months.
type baseline struct {
	balance float64
	surplus float64
	current core.Period
}

// SimulateScenario applies a what-if event onto a baseline cumulative
// projection of Tuning.ScenarioHorizon months and judges its viability.
func (e *Engine) SimulateScenario(ctx context.Context, userID int64, in core.ScenarioInput) (*core.ScenarioResult, error) {
	b, err := e.baseline(ctx, userID)
	if err != nil {
		return nil, err
	}
	offset := max(0, b.current.MonthsUntil(in.StartDate.Period()))
	ev := in.Event()

	series := e.scenarioSeries(b, offset, ev)
	lowest := minimum(series)

	result := &core.ScenarioResult{
		Type:             in.Type,
		IsViable:         lowest >= 0,
		CurrentBalance:   core.Round2(b.balance),
		MonthlySurplus:   core.Round2(b.surplus),
		ProjectedBalance: make([]float64, len(series)),
		LowestBalance:    core.Round2(lowest),
		ImpactedGoals:    []core.ImpactedGoal{},
		Recommendations:  []core.Recommendation{},
	}
	for i, v := range series {
		result.ProjectedBalance[i] = core.Round2(v)
	}

	if !result.IsViable {
		result.Recommendations = e.scenarioRecommendations(b, offset, in, lowest)
	}
	if lowest < 0 {
		goals, err := e.reader.ListActiveGoals(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list goals: %w", err)
		}
		for _, g := range goals {
			result.ImpactedGoals = append(result.ImpactedGoals, core.ImpactedGoal{
				GoalID: g.ID,
				Name:   g.Name,
				Reason: "projected balance turns negative",
			})
		}
	}

	e.logger.DebugContext(ctx, "Scenario simulated",
		log.FieldUserID, userID, log.FieldScenario, string(in.Type), "viable", result.IsViable,
		log.FieldOperation, log.OpSimulate)
	return result, nil
}

// baseline reads the current balance and the average monthly surplus over the
// trailing Tuning.BaselineMonths closed months of all completed transactions.
func (e *Engine) baseline(ctx context.Context, userID int64) (baseline, error) {
	balance, err := e.currentBalance(ctx, userID)
	if err != nil {
		return baseline{}, err
	}
	cur := e.currentPeriod()
	n := e.tuning.BaselineMonths
	txs, err := e.reader.ListTransactions(ctx, userID, ports.TransactionQuery{
		From: cur.AddMonths(-n).Start(),
		To:   cur.Start(),
	})
	if err != nil {
		return baseline{}, fmt.Errorf("list transactions: %w", err)
	}

	var income, expense float64
	for _, t := range txs {
		if !t.Counts() {
			continue
		}
		switch t.Type {
		case core.Income:
			income += t.Amount.Units()
		case core.Expense:
			expense += t.Amount.Units()
		}
	}
	return baseline{
		balance: balance,
		surplus: (income - expense) / float64(n),
		current: cur,
	}, nil
}

// scenarioSeries builds the per-month deductions of the event, prefix-sums
// them and subtracts the result from the baseline cumulative series.
// Month i of the series is i months after the current one.
func (e *Engine) scenarioSeries(b baseline, offset int, ev core.Event) []float64 {
	horizon := e.tuning.ScenarioHorizon
	deltas := make([]float64, horizon)

	switch ev := ev.(type) {
	case core.OneTimeCharge:
		if offset < horizon {
			deltas[offset] = ev.Amount
		}
	case core.InstallmentPlan:
		for k := 0; k < ev.Installments && offset+k < horizon; k++ {
			deltas[offset+k] = ev.Installment()
		}
	case core.RecurringDrain:
		for i := offset; i < horizon; i++ {
			if !ev.Until.IsZero() && ev.Until.Before(b.current.AddMonths(i)) {
				break
			}
			deltas[i] = ev.Monthly
		}
	}

	series := make([]float64, horizon)
	deducted := 0.0
	for i := range series {
		deducted += deltas[i]
		series[i] = b.balance + b.surplus*float64(i+1) - deducted
	}
	return series
}

func (e *Engine) scenarioRecommendations(b baseline, offset int, in core.ScenarioInput, lowest float64) []core.Recommendation {
	var recs []core.Recommendation

	if in.Type.Splittable() && in.Installments < e.tuning.MaxInstallments {
		n := e.viableInstallments(b, offset, in)
		recs = append(recs, core.Recommendation{
			Type:                  core.RecommendInstallment,
			Message:               fmt.Sprintf("Split the payment into %d monthly installments of %.2f", n, in.Amount/float64(n)),
			SuggestedInstallments: n,
		})
	}

	recs = append(recs, core.Recommendation{
		Type:    core.RecommendDelay,
		Message: "Postpone this expense until your balance can absorb it",
	})

	if math.Abs(lowest) < e.tuning.CutThreshold {
		cut := core.Round2(math.Abs(lowest) / float64(e.tuning.ScenarioHorizon))
		recs = append(recs, core.Recommendation{
			Type:       core.RecommendCut,
			Message:    fmt.Sprintf("Reduce spending by %.2f a month to stay above zero", cut),
			MonthlyCut: cut,
		})
	}
	return recs
}

// viableInstallments returns the smallest installment count above the
// requested one that keeps the series non-negative, or Tuning.MaxInstallments
// when none does.
func (e *Engine) viableInstallments(b baseline, offset int, in core.ScenarioInput) int {
	maxN := e.tuning.MaxInstallments
	for n := max(in.Installments, 1) + 1; n <= maxN; n++ {
		plan := core.InstallmentPlan{Amount: in.Amount, Installments: n}
		if minimum(e.scenarioSeries(b, offset, plan)) >= 0 {
			return n
		}
	}
	return maxN
}

func minimum(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		m = min(m, v)
	}
	return m
}
