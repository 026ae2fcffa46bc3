package forecast

import (
	"context"
	"testing"

	"cashcast/internal/core"
	"cashcast/internal/storage/memory"
)

// scenarioStore has a balance of 1000 and, over July through September 2026,
// income of 3000 and expense of 1000 per month: a surplus of 2000.
func scenarioStore() *memory.Store {
	store := memory.New()
	account(store, 1000)
	for _, m := range []int{7, 8, 9} {
		income(store, core.NewDate(2026, m, 1), 3000)
		expense(store, 1, core.NewDate(2026, m, 12), 600)
		expense(store, 2, core.NewDate(2026, m, 20), 400)
	}
	// Ignored: pending, and outside the trailing window.
	store.AddTransaction(core.Transaction{UserID: testUser, CategoryID: 1, Amount: core.FromUnits(9999), Date: core.NewDate(2026, 9, 2), Type: core.Expense, Status: core.StatusPending})
	expense(store, 1, core.NewDate(2026, 5, 2), 9999)
	store.AddGoal(core.Goal{UserID: testUser, Name: "Holiday", TargetAmount: core.FromUnits(3000), Status: core.GoalActive})
	store.AddGoal(core.Goal{UserID: testUser, Name: "Car", TargetAmount: core.FromUnits(15000), Status: core.GoalActive})
	return store
}

func simulate(t *testing.T, in core.ScenarioInput) *core.ScenarioResult {
	t.Helper()
	e := newTestEngine(t, scenarioStore())
	res, err := e.SimulateScenario(context.Background(), testUser, in)
	if err != nil {
		t.Fatalf("SimulateScenario() error = %v", err)
	}
	return res
}

func TestSimulateSmallPurchaseIsViable(t *testing.T) {
	res := simulate(t, core.ScenarioInput{Type: core.BigPurchase, Amount: 500, StartDate: core.NewDate(2026, 10, 18)})

	if !res.IsViable || res.LowestBalance <= 0 {
		t.Errorf("IsViable = %v, LowestBalance = %v", res.IsViable, res.LowestBalance)
	}
	if len(res.Recommendations) != 0 {
		t.Errorf("Recommendations = %+v, want none", res.Recommendations)
	}
	if res.MonthlySurplus != 2000 || res.CurrentBalance != 1000 {
		t.Errorf("baseline = %v / %v, want surplus 2000 balance 1000", res.MonthlySurplus, res.CurrentBalance)
	}
	if len(res.ProjectedBalance) != 12 {
		t.Fatalf("len(ProjectedBalance) = %d, want 12", len(res.ProjectedBalance))
	}
	if res.ProjectedBalance[0] != 2500 || res.ProjectedBalance[11] != 24500 {
		t.Errorf("ProjectedBalance = %v", res.ProjectedBalance)
	}
	if len(res.ImpactedGoals) != 0 {
		t.Errorf("ImpactedGoals = %+v, want none", res.ImpactedGoals)
	}
}

func TestSimulateLargePurchaseIsNotViable(t *testing.T) {
	res := simulate(t, core.ScenarioInput{Type: core.BigPurchase, Amount: 50000, StartDate: core.NewDate(2026, 10, 18)})

	if res.IsViable {
		t.Fatal("IsViable = true, want false")
	}
	if res.LowestBalance != -47000 {
		t.Errorf("LowestBalance = %v, want -47000", res.LowestBalance)
	}
	if !res.HasRecommendation(core.RecommendDelay) || !res.HasRecommendation(core.RecommendInstallment) {
		t.Errorf("Recommendations = %+v, want DELAY and INSTALLMENT", res.Recommendations)
	}
	if res.HasRecommendation(core.RecommendCut) {
		t.Errorf("CUT should not be suggested for a shortfall of %v", res.LowestBalance)
	}
	if res.Recommendations[0].SuggestedInstallments != 12 {
		t.Errorf("SuggestedInstallments = %d, want 12 when no plan fits", res.Recommendations[0].SuggestedInstallments)
	}
	if len(res.ImpactedGoals) != 2 {
		t.Errorf("ImpactedGoals = %+v, want every active goal", res.ImpactedGoals)
	}
}

func TestSimulateSmallShortfallSuggestsCut(t *testing.T) {
	res := simulate(t, core.ScenarioInput{Type: core.EmergencyExpense, Amount: 3500, StartDate: core.NewDate(2026, 10, 1)})

	if res.IsViable || res.LowestBalance != -500 {
		t.Fatalf("IsViable = %v, LowestBalance = %v, want false, -500", res.IsViable, res.LowestBalance)
	}
	want := []core.RecommendationType{core.RecommendInstallment, core.RecommendDelay, core.RecommendCut}
	if len(res.Recommendations) != len(want) {
		t.Fatalf("Recommendations = %+v", res.Recommendations)
	}
	for i, typ := range want {
		if res.Recommendations[i].Type != typ {
			t.Errorf("Recommendations[%d] = %v, want %v", i, res.Recommendations[i].Type, typ)
		}
	}
	if n := res.Recommendations[0].SuggestedInstallments; n != 2 {
		t.Errorf("SuggestedInstallments = %d, want 2", n)
	}
	if cut := res.Recommendations[2].MonthlyCut; cut != 41.67 {
		t.Errorf("MonthlyCut = %v, want 41.67", cut)
	}
}

func TestSimulateInstallmentsCapAtAmount(t *testing.T) {
	res := simulate(t, core.ScenarioInput{Type: core.DebtPayment, Amount: 6000, Installments: 3, StartDate: core.NewDate(2026, 10, 1)})

	want := []float64{1000, 1000, 1000, 3000, 5000}
	for i, w := range want {
		if res.ProjectedBalance[i] != w {
			t.Errorf("ProjectedBalance[%d] = %v, want %v", i, res.ProjectedBalance[i], w)
		}
	}
	if !res.IsViable {
		t.Error("IsViable = false, want true")
	}
}

func TestSimulateRecurringEffects(t *testing.T) {
	tests := []struct {
		name       string
		in         core.ScenarioInput
		wantViable bool
		wantLowest float64
	}{
		{
			name:       "open-ended income loss",
			in:         core.ScenarioInput{Type: core.IncomeLoss, Amount: 2500, StartDate: core.NewDate(2026, 10, 1)},
			wantViable: false,
			wantLowest: -5000,
		},
		{
			name:       "income loss ending in November",
			in:         core.ScenarioInput{Type: core.IncomeLoss, Amount: 2500, StartDate: core.NewDate(2026, 10, 1), EndDate: core.NewDate(2026, 11, 30)},
			wantViable: true,
			wantLowest: 0,
		},
		{
			name:       "new recurring cost",
			in:         core.ScenarioInput{Type: core.NewRecurring, Amount: 200, StartDate: core.NewDate(2026, 10, 1)},
			wantViable: true,
			wantLowest: 2800,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := simulate(t, tt.in)
			if res.IsViable != tt.wantViable || res.LowestBalance != tt.wantLowest {
				t.Errorf("IsViable = %v, LowestBalance = %v, want %v, %v", res.IsViable, res.LowestBalance, tt.wantViable, tt.wantLowest)
			}
			if res.HasRecommendation(core.RecommendInstallment) {
				t.Errorf("recurring scenarios cannot be split: %+v", res.Recommendations)
			}
		})
	}
}

func TestSimulateStartOffset(t *testing.T) {
	res := simulate(t, core.ScenarioInput{Type: core.BigPurchase, Amount: 3500, StartDate: core.NewDate(2026, 12, 1)})

	want := []float64{3000, 5000, 3500}
	for i, w := range want {
		if res.ProjectedBalance[i] != w {
			t.Errorf("ProjectedBalance[%d] = %v, want %v", i, res.ProjectedBalance[i], w)
		}
	}
	if !res.IsViable {
		t.Error("IsViable = false, want true once the purchase is deferred")
	}
}
