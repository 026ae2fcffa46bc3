package forecast

import (
	"context"
	"fmt"

	"cashcast/internal/core"
	"cashcast/internal/log"
)

// Sub-score maxima.
const (
	maxBalanceScore = 25
	maxBudgetScore  = 20
	maxReserveScore = 20
	maxGoalScore    = 15
	maxHistoryScore = 10
	maxTimingScore  = 10
)

// CheckAffordability scores whether the user can make the purchase now.
// Installment purchases are judged on their first installment, except for the
// goal sub-score which simulates the whole plan.
func (e *Engine) CheckAffordability(ctx context.Context, userID int64, in core.AffordabilityInput) (*core.AffordabilityResult, error) {
	balance, err := e.currentBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	upfront := in.UpfrontAmount()

	budget, err := e.budgetScore(ctx, userID, in.CategoryID, upfront)
	if err != nil {
		return nil, err
	}
	goal, err := e.goalScore(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	history, err := e.history(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("history score: %w", err)
	}

	breakdown := core.ScoreBreakdown{
		Balance: balanceScore(balance, upfront),
		Budget:  budget,
		Reserve: e.reserveScore(balance - upfront),
		Goal:    goal,
		History: max(0, min(maxHistoryScore, history)),
		Timing:  e.timingScore(balance),
	}
	score := breakdown.Total()
	status := core.StatusForScore(score)

	e.logger.DebugContext(ctx, "Affordability checked",
		log.FieldUserID, userID, log.FieldCategoryID, in.CategoryID, "score", score,
		log.FieldOperation, log.OpAfford)

	return &core.AffordabilityResult{
		Score:           score,
		Status:          status,
		Color:           status.Color(),
		CurrentBalance:  core.Round2(balance),
		Breakdown:       breakdown,
		Recommendations: e.affordabilityRecommendations(breakdown, status, in),
	}, nil
}

func balanceScore(balance, amount float64) int {
	switch {
	case balance >= amount:
		return maxBalanceScore
	case balance >= 0.8*amount:
		return 18
	case balance >= 0.5*amount:
		return 10
	default:
		return 0
	}
}

// budgetScore grants full credit when the category has no monthly budget.
func (e *Engine) budgetScore(ctx context.Context, userID, categoryID int64, amount float64) (int, error) {
	budget, err := e.reader.FindBudget(ctx, userID, categoryID, core.BudgetMonthly, e.todayDate())
	if err != nil {
		return 0, fmt.Errorf("find budget: %w", err)
	}
	if budget == nil {
		return maxBudgetScore, nil
	}

	cur := e.currentPeriod()
	txs, err := e.expenseHistory(ctx, userID, categoryID, cur, cur.AddMonths(1))
	if err != nil {
		return 0, err
	}
	spent := 0.0
	for _, t := range txs {
		if countsAsExpense(t, categoryID) {
			spent += t.Amount.Units()
		}
	}

	remaining := budget.Amount.Units() - spent
	switch {
	case remaining >= amount:
		return maxBudgetScore, nil
	case remaining >= 0.5*amount:
		return 10, nil
	case remaining > 0:
		return 5, nil
	default:
		return 0, nil
	}
}

func (e *Engine) reserveScore(postPurchase float64) int {
	switch {
	case postPurchase >= e.tuning.ReserveHigh:
		return maxReserveScore
	case postPurchase >= e.tuning.ReserveLow:
		return 10
	default:
		return 0
	}
}

// goalScore simulates the purchase as a BIG_PURCHASE starting today.
func (e *Engine) goalScore(ctx context.Context, userID int64, in core.AffordabilityInput) (int, error) {
	sim, err := e.SimulateScenario(ctx, userID, core.ScenarioInput{
		Type:         core.BigPurchase,
		Amount:       in.Amount,
		Installments: in.Installments,
		StartDate:    e.todayDate(),
	})
	if err != nil {
		return 0, err
	}
	switch {
	case sim.IsViable && len(sim.ImpactedGoals) == 0:
		return maxGoalScore, nil
	case sim.IsViable:
		return 8, nil
	default:
		return 0, nil
	}
}

func (e *Engine) timingScore(balance float64) int {
	if e.today().Day() > e.tuning.LateMonthDay && balance < e.tuning.LowBalance {
		return 0
	}
	return maxTimingScore
}

func (e *Engine) affordabilityRecommendations(b core.ScoreBreakdown, status core.AffordabilityStatus, in core.AffordabilityInput) []string {
	recs := []string{}
	if b.Balance < maxBalanceScore {
		recs = append(recs, "Your current balance does not fully cover this purchase.")
	}
	if b.Budget < maxBudgetScore {
		recs = append(recs, "This purchase goes beyond what is left of the category budget this month.")
	}
	if b.Reserve < maxReserveScore {
		recs = append(recs, fmt.Sprintf("Keep at least %.2f in reserve after the purchase for unexpected expenses.", e.tuning.ReserveHigh))
	}
	if b.Goal < maxGoalScore {
		recs = append(recs, "This purchase puts your savings goals at risk.")
	}
	if b.Timing < maxTimingScore {
		recs = append(recs, "The month is almost over and your balance is low; consider waiting for your next income.")
	}
	if status != core.CanAfford && in.Installments <= 1 {
		recs = append(recs, "Consider paying in installments to spread the cost.")
	}
	if len(recs) == 0 {
		recs = append(recs, "This purchase fits your current finances.")
	}
	return recs
}
