package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"cashcast/internal/core"
	"cashcast/internal/log"
)

const daysPerYear = 365.25

// RealGainRate is the inflation-adjusted growth of income, in percent.
func RealGainRate(inflationRate, salaryAdjustment float64) float64 {
	return ((1+salaryAdjustment/100)/(1+inflationRate/100) - 1) * 100
}

// MonthlyInflation converts an annual rate in percent to a monthly fraction.
func MonthlyInflation(inflationRate float64) float64 {
	return math.Pow(1+inflationRate/100, 1.0/12) - 1
}

// PurchasingPower deflates reference month by month over months.
func PurchasingPower(reference, monthlyInflation float64, months int) []core.PurchasingPowerPoint {
	points := make([]core.PurchasingPowerPoint, months)
	value := reference
	for m := 1; m <= months; m++ {
		value /= 1 + monthlyInflation
		points[m-1] = core.PurchasingPowerPoint{Month: m, Value: value}
	}
	return points
}

// SimulateInflation projects the effect of the given inflation and salary
// adjustment rates on purchasing power, goal targets and monthly budgets.
func (e *Engine) SimulateInflation(ctx context.Context, userID int64, in core.InflationInput) (*core.InflationImpact, error) {
	goals, err := e.reader.ListActiveGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	budgets, err := e.reader.ListBudgets(ctx, userID, core.BudgetMonthly)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	realGain := RealGainRate(in.InflationRate, in.SalaryAdjustment)
	monthly := MonthlyInflation(in.InflationRate)

	reference := e.tuning.ReferenceValue
	points := PurchasingPower(reference, monthly, in.PeriodMonths)
	final := reference
	if len(points) > 0 {
		final = points[len(points)-1].Value
	}
	for i := range points {
		points[i].Value = core.Round2(points[i].Value)
	}

	impact := &core.InflationImpact{
		RealGainRate:               core.Round2(realGain),
		MonthlyInflation:           monthly,
		PurchasingPowerLost:        core.Round2(reference - final),
		PurchasingPowerProjections: points,
		AffectedGoals:              e.goalInflation(goals, in.InflationRate),
		BudgetImpacts:              budgetInflation(budgets, monthly, in.PeriodMonths),
	}
	impact.Recommendations = e.inflationRecommendations(realGain, impact.AffectedGoals)

	e.logger.DebugContext(ctx, "Inflation simulated",
		log.FieldUserID, userID, log.FieldMonths, in.PeriodMonths, log.FieldOperation, log.OpInflation)
	return impact, nil
}

// goalInflation compounds goal targets to their deadline. Goals without a
// target date or with a deadline already passed are skipped.
func (e *Engine) goalInflation(goals []core.Goal, inflationRate float64) []core.GoalInflation {
	y, m, d := e.today().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	out := []core.GoalInflation{}
	for _, g := range goals {
		if g.TargetDate.IsEmpty() {
			continue
		}
		years := g.TargetDate.Sub(today).Hours() / 24 / daysPerYear
		if years <= 0 {
			continue
		}
		original := g.TargetAmount.Units()
		adjusted := original * math.Pow(1+inflationRate/100, years)
		out = append(out, core.GoalInflation{
			GoalID:         g.ID,
			Name:           g.Name,
			OriginalTarget: core.Round2(original),
			AdjustedTarget: core.Round2(adjusted),
			Increase:       core.Round2(adjusted - original),
			Years:          core.Round2(years),
		})
	}
	return out
}

func budgetInflation(budgets []core.Budget, monthly float64, months int) []core.BudgetInflation {
	growth := math.Pow(1+monthly, float64(months))
	out := []core.BudgetInflation{}
	for _, b := range budgets {
		if b.Period != core.BudgetMonthly {
			continue
		}
		current := b.Amount.Units()
		projected := current * growth
		out = append(out, core.BudgetInflation{
			BudgetID:        b.ID,
			CategoryID:      b.CategoryID,
			CurrentAmount:   core.Round2(current),
			ProjectedAmount: core.Round2(projected),
			Increase:        core.Round2(projected - current),
		})
	}
	return out
}

func (e *Engine) inflationRecommendations(realGain float64, goals []core.GoalInflation) []core.InflationRecommendation {
	var recs []core.InflationRecommendation
	switch {
	case realGain < 0:
		recs = append(recs, core.InflationRecommendation{
			Level:   core.LevelWarning,
			Message: fmt.Sprintf("Your income loses %.2f%% of purchasing power per year; negotiate a raise or cut expenses.", math.Abs(realGain)),
		})
	case realGain < 1:
		recs = append(recs, core.InflationRecommendation{
			Level:   core.LevelCaution,
			Message: "Your salary barely keeps up with inflation; review your budget regularly.",
		})
	default:
		recs = append(recs, core.InflationRecommendation{
			Level:   core.LevelPositive,
			Message: fmt.Sprintf("Your income grows %.2f%% above inflation; consider saving the difference.", realGain),
		})
	}
	for _, g := range goals {
		if g.Increase > e.tuning.GoalIncreaseAlert {
			recs = append(recs, core.InflationRecommendation{
				Level:   core.LevelWarning,
				Message: fmt.Sprintf("Goal %q will need %.2f more by its deadline because of inflation.", g.Name, g.Increase),
			})
		}
	}
	return recs
}
