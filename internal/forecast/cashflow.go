package forecast

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"cashcast/internal/core"
	"cashcast/internal/log"
	"cashcast/internal/ports"
)

type variableExpense struct {
	realistic, optimistic, pessimistic float64
}

// ProjectCashFlow projects months future months, starting with the month
// after the current one. Fixed flows come from active recurring schedules,
// variable expense from predictions of variable categories; variable income
// is not modeled. months above Tuning.MaxProjectionMonths is capped.
func (e *Engine) ProjectCashFlow(ctx context.Context, userID int64, months int, scenario core.Scenario) (*core.CashFlowResult, error) {
	if months < 1 {
		return nil, core.ErrInvalidMonths
	}
	if months > e.tuning.MaxProjectionMonths {
		e.logger.WarnContext(ctx, "Projection length capped",
			log.FieldUserID, userID, log.FieldMonths, months, "limit", e.tuning.MaxProjectionMonths)
		months = e.tuning.MaxProjectionMonths
	}
	if scenario == "" {
		scenario = core.Realistic
	}
	if _, err := core.ParseScenario(string(scenario)); err != nil {
		return nil, err
	}

	initial, err := e.currentBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	schedules, err := e.reader.ListActiveRecurring(ctx, userID, ports.RecurringQuery{})
	if err != nil {
		return nil, fmt.Errorf("list recurring schedules: %w", err)
	}
	variableIDs, err := e.VariableCategoryIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	start := e.currentPeriod().AddMonths(1)
	variable, err := e.variableExpenses(ctx, userID, variableIDs, start, months)
	if err != nil {
		return nil, err
	}

	result := &core.CashFlowResult{Scenario: scenario, Months: make([]core.MonthlyProjection, months)}
	result.Warnings = e.unmodeledSchedules(ctx, userID, schedules)

	accumulated, optimistic, pessimistic := initial, initial, initial
	for i := 0; i < months; i++ {
		month := start.AddMonths(i)
		fixedIncome, fixedExpense := e.fixedFlows(schedules, month)

		varExpense := variable[i].realistic
		switch scenario {
		case core.Optimistic:
			varExpense = variable[i].optimistic
		case core.Pessimistic:
			varExpense = variable[i].pessimistic
		}

		income := fixedIncome
		expense := fixedExpense + varExpense
		period := income - expense
		accumulated += period
		optimistic += income - (fixedExpense + variable[i].optimistic)
		pessimistic += income - (fixedExpense + variable[i].pessimistic)

		result.Months[i] = core.MonthlyProjection{
			Month:    month,
			Income:   core.FlowBreakdown{Fixed: core.Round2(fixedIncome), Variable: 0, Total: core.Round2(income)},
			Expenses: core.FlowBreakdown{Fixed: core.Round2(fixedExpense), Variable: core.Round2(varExpense), Total: core.Round2(expense)},
			Balance:  core.BalanceLine{Period: core.Round2(period), Accumulated: core.Round2(accumulated)},
			ScenarioBounds: core.ScenarioBounds{
				Optimistic:  core.Round2(optimistic),
				Pessimistic: core.Round2(pessimistic),
			},
		}
	}
	result.Summary = core.Summarize(core.Round2(initial), result.Months)

	e.logger.DebugContext(ctx, "Cash flow projected",
		log.FieldUserID, userID, log.FieldMonths, months, log.FieldScenario, string(scenario),
		log.FieldOperation, log.OpProject)
	return result, nil
}

// fixedFlows sums the recurring schedules charged in month.
func (e *Engine) fixedFlows(schedules []core.RecurringSchedule, month core.Period) (income, expense float64) {
	for _, s := range schedules {
		if !s.Active {
			continue
		}
		counter, err := CounterFor(e.tuning, s.Frequency)
		if err != nil {
			continue
		}
		amount := s.Amount.Units() * counter.Occurrences(s, month)
		switch s.Type {
		case core.Income:
			income += amount
		case core.Expense:
			expense += amount
		}
	}
	return income, expense
}

// unmodeledSchedules reports active schedules whose frequency contributes
// nothing to the projection.
func (e *Engine) unmodeledSchedules(ctx context.Context, userID int64, schedules []core.RecurringSchedule) []string {
	var warnings []string
	for _, s := range schedules {
		counter, err := CounterFor(e.tuning, s.Frequency)
		if err == nil && counter.Modeled() {
			continue
		}
		e.logger.WarnContext(ctx, "Recurring schedule not modeled in projection",
			log.FieldUserID, userID, log.FieldScheduleID, s.ID, log.FieldFrequency, string(s.Frequency))
		warnings = append(warnings, fmt.Sprintf("schedule %d (%s) is not included in the projection", s.ID, s.Frequency))
	}
	return warnings
}

// variableExpenses predicts every variable category for every projected month.
// Categories without enough history contribute nothing.
func (e *Engine) variableExpenses(ctx context.Context, userID int64, categoryIDs []int64, start core.Period, months int) ([]variableExpense, error) {
	predictions := make([][]*core.Prediction, len(categoryIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.tuning.Concurrency)
	for c, id := range categoryIDs {
		c, id := c, id
		predictions[c] = make([]*core.Prediction, months)
		for i := 0; i < months; i++ {
			i := i
			g.Go(func() error {
				p, err := e.predict(gctx, userID, id, start.AddMonths(i))
				predictions[c][i] = p
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]variableExpense, months)
	for _, byMonth := range predictions {
		for i, p := range byMonth {
			if p == nil {
				continue
			}
			spread := p.UpperBound - p.PredictedAmount
			out[i].realistic += p.PredictedAmount
			out[i].optimistic += p.PredictedAmount - spread
			out[i].pessimistic += p.PredictedAmount + spread
		}
	}
	return out, nil
}
