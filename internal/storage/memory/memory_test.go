package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cashcast/internal/core"
	"cashcast/internal/ports"
)

func TestNewFromFile(t *testing.T) {
	t.Run("missing file yields empty store", func(t *testing.T) {
		s, err := NewFromFile(filepath.Join(t.TempDir(), "absent.json"))
		if err != nil {
			t.Fatalf("NewFromFile() error = %v", err)
		}
		ids, _ := s.ListUserIDs(context.Background())
		if len(ids) != 0 {
			t.Errorf("ListUserIDs() = %v, want empty", ids)
		}
	})

	t.Run("seed is loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.json")
		seed := `{
			"categories": [{"id": 4, "userId": 1, "name": "Food", "type": "EXPENSE"}],
			"accounts": [{"userId": 1, "name": "Main", "balance": 1234.56}],
			"transactions": [
				{"userId": 1, "categoryId": 4, "amount": 12.5, "date": "2026-09-02", "type": "EXPENSE"},
				{"userId": 1, "categoryId": 4, "amount": 99, "date": "2026-09-03", "type": "EXPENSE", "status": "CANCELLED"}
			],
			"goals": [{"userId": 1, "name": "Car", "targetAmount": 5000, "targetDate": null}]
		}`
		if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
			t.Fatal(err)
		}
		s, err := NewFromFile(path)
		if err != nil {
			t.Fatalf("NewFromFile() error = %v", err)
		}
		ctx := context.Background()

		accounts, _ := s.ListActiveAccounts(ctx, 1)
		if len(accounts) != 1 || accounts[0].Balance.Cents != 123456 {
			t.Errorf("accounts = %+v", accounts)
		}
		txs, _ := s.ListTransactions(ctx, 1, ports.TransactionQuery{CategoryID: 4})
		if len(txs) != 2 {
			t.Fatalf("transactions = %d, want 2", len(txs))
		}
		if txs[0].Status != core.StatusCompleted || txs[1].Status != core.StatusCancelled {
			t.Errorf("statuses = %s, %s", txs[0].Status, txs[1].Status)
		}
		goals, _ := s.ListActiveGoals(ctx, 1)
		if len(goals) != 1 || !goals[0].TargetDate.IsEmpty() {
			t.Errorf("goals = %+v", goals)
		}
	})

	t.Run("malformed seed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.json")
		os.WriteFile(path, []byte("{"), 0o644)
		if _, err := NewFromFile(path); err == nil {
			t.Error("NewFromFile() expected error for malformed JSON")
		}
	})
}

func TestStore_ListTransactionsRange(t *testing.T) {
	s := New()
	for _, d := range []core.Date{core.NewDate(2026, 9, 1), core.NewDate(2026, 7, 31), core.NewDate(2026, 8, 15)} {
		s.AddTransaction(core.Transaction{UserID: 1, CategoryID: 2, Amount: core.Money{Cents: 100}, Date: d, Type: core.Expense, Status: core.StatusCompleted})
	}
	got, err := s.ListTransactions(context.Background(), 1, ports.TransactionQuery{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(got) != 1 || got[0].Date.String() != "2026-08-15" {
		t.Errorf("ListTransactions() = %+v, want only the August row", got)
	}
}

func TestStore_PredictionCache(t *testing.T) {
	s := New()
	stamp := time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return stamp })
	ctx := context.Background()
	month := core.Period{Year: 2026, Month: time.November}

	if _, err := s.GetPrediction(ctx, 1, 2, month); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("GetPrediction() error = %v, want ErrNotFound", err)
	}
	s.UpsertPrediction(ctx, 1, core.Prediction{CategoryID: 2, Month: month, PredictedAmount: 10})
	s.UpsertPrediction(ctx, 1, core.Prediction{CategoryID: 2, Month: month, PredictedAmount: 20})

	got, err := s.GetPrediction(ctx, 1, 2, month)
	if err != nil {
		t.Fatalf("GetPrediction() error = %v", err)
	}
	if got.PredictedAmount != 20 || !got.UpdatedAt.Equal(stamp) {
		t.Errorf("GetPrediction() = %+v", got)
	}
}

func TestStore_FailWith(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailWith(boom)
	if _, err := s.ListCategories(context.Background(), 1, core.Expense); !errors.Is(err, boom) {
		t.Errorf("ListCategories() error = %v, want boom", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Ping() error = %v, want boom", err)
	}
	s.FailWith(nil)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() after reset error = %v", err)
	}
}

func TestStore_FindBudgetInForce(t *testing.T) {
	s := New()
	s.AddBudget(core.Budget{UserID: 1, CategoryID: 7, Amount: core.FromUnits(100), Period: core.BudgetMonthly,
		StartDate: core.NewDate(2025, 1, 1), EndDate: core.NewDate(2025, 12, 31)})
	s.AddBudget(core.Budget{UserID: 1, CategoryID: 7, Amount: core.FromUnits(2000), Period: core.BudgetMonthly,
		StartDate: core.NewDate(2026, 1, 1)})
	s.AddBudget(core.Budget{UserID: 1, CategoryID: 7, Amount: core.FromUnits(50), Period: core.BudgetMonthly,
		StartDate: core.NewDate(2027, 1, 1)})
	s.AddBudget(core.Budget{UserID: 1, CategoryID: 7, Amount: core.FromUnits(9999), Period: core.BudgetYearly,
		StartDate: core.NewDate(2026, 1, 1)})

	tests := []struct {
		name      string
		on        core.Date
		wantCents int64 // 0 means no budget
	}{
		{"current open-ended budget", core.NewDate(2026, 10, 18), 200000},
		{"expired budget still in force", core.NewDate(2025, 6, 1), 10000},
		{"end date is inclusive", core.NewDate(2025, 12, 31), 10000},
		{"before any budget", core.NewDate(2024, 6, 1), 0},
		{"latest start wins", core.NewDate(2027, 3, 1), 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := s.FindBudget(context.Background(), 1, 7, core.BudgetMonthly, tt.on)
			if err != nil {
				t.Fatalf("FindBudget() error = %v", err)
			}
			if tt.wantCents == 0 {
				if b != nil {
					t.Errorf("FindBudget() = %+v, want nil", b)
				}
				return
			}
			if b == nil || b.Amount.Cents != tt.wantCents {
				t.Errorf("FindBudget() = %+v, want %d cents", b, tt.wantCents)
			}
		})
	}
}
