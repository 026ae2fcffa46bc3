package forecast

import (
	"context"
	"testing"

	"cashcast/internal/core"
	"cashcast/internal/storage/memory"
)

func TestRealGainRate(t *testing.T) {
	if got := RealGainRate(5, 0); !approx(got, -4.76, 0.1) {
		t.Errorf("RealGainRate(5, 0) = %v, want about -4.76", got)
	}
	if got := RealGainRate(3, 5); got <= 0 {
		t.Errorf("RealGainRate(3, 5) = %v, want positive", got)
	}
}

func TestPurchasingPower(t *testing.T) {
	monthly := MonthlyInflation(12)
	points := PurchasingPower(1000, monthly, 12)
	if len(points) != 12 || points[0].Month != 1 || points[11].Month != 12 {
		t.Fatalf("points = %+v", points)
	}
	if !approx(points[11].Value, 1000/1.12, 1e-6) {
		t.Errorf("final value = %v, want %v", points[11].Value, 1000/1.12)
	}
	for i := 1; i < len(points); i++ {
		if points[i].Value >= points[i-1].Value {
			t.Fatalf("purchasing power must decrease: %+v", points)
		}
	}
}

func TestSimulateInflation(t *testing.T) {
	store := memory.New()
	store.AddGoal(core.Goal{UserID: testUser, Name: "House", TargetAmount: core.FromUnits(50000), TargetDate: core.NewDate(2027, 10, 18), Status: core.GoalActive})
	store.AddGoal(core.Goal{UserID: testUser, Name: "Rainy day", TargetAmount: core.FromUnits(5000), Status: core.GoalActive})
	store.AddGoal(core.Goal{UserID: testUser, Name: "Overdue", TargetAmount: core.FromUnits(800), TargetDate: core.NewDate(2026, 1, 1), Status: core.GoalActive})
	store.AddBudget(core.Budget{UserID: testUser, CategoryID: 2, Amount: core.FromUnits(100), Period: core.BudgetMonthly, StartDate: core.NewDate(2026, 1, 1)})
	store.AddBudget(core.Budget{UserID: testUser, CategoryID: 3, Amount: core.FromUnits(1200), Period: core.BudgetYearly, StartDate: core.NewDate(2026, 1, 1)})

	e := newTestEngine(t, store)
	impact, err := e.SimulateInflation(context.Background(), testUser, core.InflationInput{InflationRate: 5, SalaryAdjustment: 0, PeriodMonths: 12})
	if err != nil {
		t.Fatalf("SimulateInflation() error = %v", err)
	}

	if !approx(impact.RealGainRate, -4.76, 0.1) {
		t.Errorf("RealGainRate = %v, want about -4.76", impact.RealGainRate)
	}
	if impact.PurchasingPowerLost <= 0 {
		t.Errorf("PurchasingPowerLost = %v, want positive", impact.PurchasingPowerLost)
	}
	if len(impact.PurchasingPowerProjections) != 12 {
		t.Errorf("len(PurchasingPowerProjections) = %d, want 12", len(impact.PurchasingPowerProjections))
	}

	if len(impact.AffectedGoals) != 1 {
		t.Fatalf("AffectedGoals = %+v, want only the dated future goal", impact.AffectedGoals)
	}
	if g := impact.AffectedGoals[0]; g.Name != "House" || !approx(g.AdjustedTarget, 52500, 5) {
		t.Errorf("AffectedGoals[0] = %+v, want House adjusted to about 52500", g)
	}

	if len(impact.BudgetImpacts) != 1 || !approx(impact.BudgetImpacts[0].ProjectedAmount, 105, 0.01) {
		t.Errorf("BudgetImpacts = %+v, want the monthly budget grown to 105", impact.BudgetImpacts)
	}

	if len(impact.Recommendations) != 2 {
		t.Fatalf("Recommendations = %+v, want real-income warning plus goal warning", impact.Recommendations)
	}
	for i, r := range impact.Recommendations {
		if r.Level != core.LevelWarning {
			t.Errorf("Recommendations[%d].Level = %s, want WARNING", i, r.Level)
		}
	}
}

func TestSimulateInflationPositiveOutcome(t *testing.T) {
	e := newTestEngine(t, memory.New())
	impact, err := e.SimulateInflation(context.Background(), testUser, core.InflationInput{InflationRate: 3, SalaryAdjustment: 5, PeriodMonths: 24})
	if err != nil {
		t.Fatalf("SimulateInflation() error = %v", err)
	}
	if impact.RealGainRate <= 0 {
		t.Errorf("RealGainRate = %v, want positive", impact.RealGainRate)
	}
	if impact.Recommendations[0].Level != core.LevelPositive {
		t.Errorf("first recommendation = %+v, want POSITIVE", impact.Recommendations[0])
	}
}

func TestSimulateInflationCautionBand(t *testing.T) {
	e := newTestEngine(t, memory.New())
	impact, err := e.SimulateInflation(context.Background(), testUser, core.InflationInput{InflationRate: 2, SalaryAdjustment: 2.5, PeriodMonths: 12})
	if err != nil {
		t.Fatalf("SimulateInflation() error = %v", err)
	}
	if impact.Recommendations[0].Level != core.LevelCaution {
		t.Errorf("first recommendation = %+v, want CAUTION for real gain %v", impact.Recommendations[0], impact.RealGainRate)
	}
}
