package forecast

import (
	"testing"
	"time"

	"cashcast/internal/core"
	"cashcast/internal/log"
	"cashcast/internal/storage/memory"
)

const testUser int64 = 1

// fixedNow is the reference instant of every engine test: October 2026, so the
// closed window runs through September 2026.
var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, store *memory.Store, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(log.Discard()),
	}
	return New(store, append(base, opts...)...)
}

func expense(store *memory.Store, categoryID int64, date core.Date, amount float64) {
	store.AddTransaction(core.Transaction{
		UserID:     testUser,
		CategoryID: categoryID,
		Amount:     core.FromUnits(amount),
		Date:       date,
		Type:       core.Expense,
		Status:     core.StatusCompleted,
	})
}

func income(store *memory.Store, date core.Date, amount float64) {
	store.AddTransaction(core.Transaction{
		UserID:     testUser,
		CategoryID: 100,
		Amount:     core.FromUnits(amount),
		Date:       date,
		Type:       core.Income,
		Status:     core.StatusCompleted,
	})
}

// monthly records one expense per month on the 10th, starting at start.
func monthly(store *memory.Store, categoryID int64, start core.Period, amounts ...float64) {
	for i, a := range amounts {
		p := start.AddMonths(i)
		if a == 0 {
			continue
		}
		expense(store, categoryID, core.NewDate(p.Year, int(p.Month), 10), a)
	}
}

func account(store *memory.Store, balance float64) {
	store.AddAccount(core.Account{UserID: testUser, Name: "checking", Balance: core.FromUnits(balance), Active: true})
}

func period(s string) core.Period {
	p, err := core.ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

func approx(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
