package forecast

import (
	"context"
	"testing"

	"cashcast/internal/core"
	"cashcast/internal/storage/memory"
)

func seasonalTxs(start core.Period, amounts ...float64) []core.Transaction {
	var txs []core.Transaction
	for i, a := range amounts {
		p := start.AddMonths(i)
		txs = append(txs, core.Transaction{
			CategoryID: 1,
			Amount:     core.FromUnits(a),
			Date:       core.NewDate(p.Year, int(p.Month), 15),
			Type:       core.Expense,
			Status:     core.StatusCompleted,
		})
	}
	return txs
}

func TestSeasonalFactorUniform(t *testing.T) {
	amounts := make([]float64, 24)
	for i := range amounts {
		amounts[i] = 120
	}
	txs := seasonalTxs(period("2024-10"), amounts...)
	for m := 0; m < 12; m++ {
		if got := SeasonalFactor(txs, 1, m); got != 1.0 {
			t.Errorf("SeasonalFactor(month %d) = %v, want 1.0", m, got)
		}
	}
}

func TestSeasonalFactor(t *testing.T) {
	// Twelve months at 100 with December at 300.
	amounts := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 300}
	txs := seasonalTxs(period("2025-01"), amounts...)

	tests := []struct {
		name       string
		txs        []core.Transaction
		monthIndex int
		want       float64
	}{
		{"peak month", txs, 11, 300.0 / (1400.0 / 12)},
		{"regular month", txs, 0, 100.0 / (1400.0 / 12)},
		{"no history", nil, 5, 1.0},
		{"no observation for month", seasonalTxs(period("2025-01"), 100, 200), 7, 1.0},
		{"zero global mean", seasonalTxs(period("2025-01"), 0, 0), 0, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SeasonalFactor(tt.txs, 1, tt.monthIndex)
			if !approx(got, tt.want, 1e-9) {
				t.Errorf("SeasonalFactor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeasonalityUsesClosedMonthsOnly(t *testing.T) {
	store := memory.New()
	monthly(store, 1, period("2026-08"), 100, 100)
	expense(store, 1, core.NewDate(2026, 10, 2), 5000) // current month, still open

	e := newTestEngine(t, store)
	f, err := e.Seasonality(context.Background(), testUser, 1, 9)
	if err != nil {
		t.Fatalf("Seasonality() error = %v", err)
	}
	if f.Factor != 1.0 {
		t.Errorf("Factor = %v, want 1.0 (October has no closed observation)", f.Factor)
	}
}
