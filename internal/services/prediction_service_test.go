package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cashcast/internal/core"
	"cashcast/internal/forecast"
	"cashcast/internal/log"
	"cashcast/internal/ports"
	"cashcast/internal/storage/memory"
)

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

var november = core.Period{Year: 2026, Month: time.November}

func seededStore() *memory.Store {
	store := memory.New()
	store.SetClock(func() time.Time { return fixedNow })
	store.AddCategory(core.Category{ID: 2, UserID: 1, Name: "Fuel", Type: core.Expense})
	store.AddCategory(core.Category{ID: 5, UserID: 1, Name: "Dining", Type: core.Expense})
	store.AddCategory(core.Category{ID: 9, UserID: 3, Name: "Rent", Type: core.Expense})

	start := core.Period{Year: 2026, Month: time.April}
	fuel := []float64{60, 60, 60, 60, 60, 60}
	dining := []float64{100, 400, 100, 400, 100, 400}
	for i := range fuel {
		p := start.AddMonths(i)
		d := core.NewDate(p.Year, int(p.Month), 10)
		store.AddTransaction(core.Transaction{UserID: 1, CategoryID: 2, Amount: core.FromUnits(fuel[i]), Date: d, Type: core.Expense, Status: core.StatusCompleted})
		store.AddTransaction(core.Transaction{UserID: 1, CategoryID: 5, Amount: core.FromUnits(dining[i]), Date: d, Type: core.Expense, Status: core.StatusCompleted})
	}
	return store
}

func newTestService(store *memory.Store, opts ...PredictionServiceOption) *PredictionService {
	engine := forecast.New(store,
		forecast.WithClock(func() time.Time { return fixedNow }),
		forecast.WithLogger(log.Discard()))
	base := []PredictionServiceOption{
		WithServiceLogger(log.Discard()),
		WithServiceClock(func() time.Time { return fixedNow }),
	}
	return NewPredictionService(engine, store, append(base, opts...)...)
}

func TestPredictionService_Predict(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)
	ctx := context.Background()

	p, err := svc.Predict(ctx, 1, 2, november)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if p == nil || p.PredictedAmount != 60 {
		t.Fatalf("Predict() = %+v, want 60", p)
	}
	row, err := store.GetPrediction(ctx, 1, 2, november)
	if err != nil {
		t.Fatalf("GetPrediction() error = %v", err)
	}
	if row.PredictedAmount != 60 || !row.UpdatedAt.Equal(fixedNow) {
		t.Errorf("cached row = %+v", row)
	}

	t.Run("insufficient history stores nothing", func(t *testing.T) {
		p, err := svc.Predict(ctx, 3, 9, november)
		if err != nil || p != nil {
			t.Fatalf("Predict() = %+v, %v; want nil, nil", p, err)
		}
		if _, err := store.GetPrediction(ctx, 3, 9, november); !errors.Is(err, ports.ErrNotFound) {
			t.Errorf("GetPrediction() error = %v, want ErrNotFound", err)
		}
	})
}

func TestPredictionService_Cached(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh row is served", func(t *testing.T) {
		store := seededStore()
		store.UpsertPrediction(ctx, 1, core.Prediction{CategoryID: 2, Month: november, PredictedAmount: 999})
		svc := newTestService(store)

		p, fromCache, err := svc.Cached(ctx, 1, 2, november, time.Hour)
		if err != nil {
			t.Fatalf("Cached() error = %v", err)
		}
		if !fromCache || p.PredictedAmount != 999 {
			t.Errorf("Cached() = %+v, fromCache %v; want cached 999", p, fromCache)
		}
	})

	t.Run("stale row is recomputed", func(t *testing.T) {
		store := seededStore()
		store.SetClock(func() time.Time { return fixedNow.Add(-48 * time.Hour) })
		store.UpsertPrediction(ctx, 1, core.Prediction{CategoryID: 2, Month: november, PredictedAmount: 999})
		store.SetClock(func() time.Time { return fixedNow })
		svc := newTestService(store)

		p, fromCache, err := svc.Cached(ctx, 1, 2, november, 24*time.Hour)
		if err != nil {
			t.Fatalf("Cached() error = %v", err)
		}
		if fromCache || p.PredictedAmount != 60 {
			t.Errorf("Cached() = %+v, fromCache %v; want recomputed 60", p, fromCache)
		}
	})

	t.Run("missing row is computed", func(t *testing.T) {
		svc := newTestService(seededStore())
		p, fromCache, err := svc.Cached(ctx, 1, 5, november, time.Hour)
		if err != nil || fromCache || p == nil {
			t.Errorf("Cached() = %+v, %v, %v", p, fromCache, err)
		}
	})

	t.Run("store failure propagates", func(t *testing.T) {
		store := seededStore()
		store.FailWith(errors.New("db down"))
		svc := newTestService(store)
		if _, _, err := svc.Cached(ctx, 1, 2, november, time.Hour); err == nil {
			t.Error("Cached() expected error")
		}
	})
}

func TestPredictionService_Refresh(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)
	ctx := context.Background()

	report, err := svc.Refresh(ctx, 1, core.Period{})
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if report.Month != november || report.Stored != 1 {
		t.Errorf("Refresh() = %+v, want one variable category for 2026-11", report)
	}
	if _, err := store.GetPrediction(ctx, 1, 5, november); err != nil {
		t.Errorf("variable category not cached: %v", err)
	}
	if _, err := store.GetPrediction(ctx, 1, 2, november); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("stable category should not be cached, err = %v", err)
	}
}

func TestPredictionService_RefreshAll(t *testing.T) {
	svc := newTestService(seededStore())

	reports, err := svc.RefreshAll(context.Background(), november)
	if err != nil {
		t.Fatalf("RefreshAll() error = %v", err)
	}
	if len(reports) != 2 || reports[0].UserID != 1 || reports[1].UserID != 3 {
		t.Errorf("RefreshAll() = %+v", reports)
	}
	if reports[1].Stored != 0 {
		t.Errorf("user without history stored %d predictions", reports[1].Stored)
	}
}

type recordingPublisher struct {
	calls []int64
	err   error
}

func (r *recordingPublisher) PublishRefresh(_ context.Context, userID int64, _ core.Period) error {
	r.calls = append(r.calls, userID)
	return r.err
}

func TestPredictionService_RequestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("queued when publisher present", func(t *testing.T) {
		pub := &recordingPublisher{}
		store := seededStore()
		svc := newTestService(store, WithPublisher(pub))

		queued, err := svc.RequestRefresh(ctx, 1, november)
		if err != nil || !queued {
			t.Fatalf("RequestRefresh() = %v, %v", queued, err)
		}
		if len(pub.calls) != 1 || pub.calls[0] != 1 {
			t.Errorf("publisher calls = %v", pub.calls)
		}
		if _, err := store.GetPrediction(ctx, 1, 5, november); !errors.Is(err, ports.ErrNotFound) {
			t.Error("queued refresh must not compute inline")
		}
	})

	t.Run("publish failure surfaces", func(t *testing.T) {
		svc := newTestService(seededStore(), WithPublisher(&recordingPublisher{err: errors.New("broker down")}))
		if _, err := svc.RequestRefresh(ctx, 1, november); err == nil {
			t.Error("RequestRefresh() expected error")
		}
	})

	t.Run("inline without publisher", func(t *testing.T) {
		store := seededStore()
		svc := newTestService(store)
		queued, err := svc.RequestRefresh(ctx, 1, november)
		if err != nil || queued {
			t.Fatalf("RequestRefresh() = %v, %v", queued, err)
		}
		if _, err := store.GetPrediction(ctx, 1, 5, november); err != nil {
			t.Errorf("inline refresh did not cache: %v", err)
		}
	})
}
