package forecast

import (
	"context"
	"errors"
	"testing"

	"cashcast/internal/core"
	"cashcast/internal/storage/memory"
)

func TestIsVariable(t *testing.T) {
	tests := []struct {
		name    string
		history []float64
		want    bool
	}{
		{"constant spend", []float64{100, 100, 100, 100}, false},
		{"one spike", []float64{100, 100, 100, 1000}, true},
		{"too short", []float64{10, 1000}, false},
		{"zero mean", []float64{0, 0, 0}, false},
		{"mild dispersion", []float64{90, 110, 100, 100}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsVariable(tt.history); got != tt.want {
				t.Errorf("IsVariable(%v) = %v, want %v", tt.history, got, tt.want)
			}
		})
	}
}

func TestCoefficientOfVariationConstant(t *testing.T) {
	cv, ok := CoefficientOfVariation([]float64{250, 250, 250, 250, 250, 250})
	if !ok || cv != 0 {
		t.Errorf("CoefficientOfVariation() = %v, %v, want 0, true", cv, ok)
	}
	if _, ok := CoefficientOfVariation(nil); ok {
		t.Error("CoefficientOfVariation(nil) should not be ok")
	}
}

func TestClassifyRequiresNonEmptyMonths(t *testing.T) {
	series := MonthlySeries([]core.Transaction{
		{CategoryID: 3, Amount: core.FromUnits(10), Date: core.NewDate(2026, 4, 1), Type: core.Expense, Status: core.StatusCompleted},
		{CategoryID: 3, Amount: core.FromUnits(900), Date: core.NewDate(2026, 9, 1), Type: core.Expense, Status: core.StatusCompleted},
	}, 3, period("2026-04"), 6)

	v := Classify(3, series, 3)
	if v.IsVariable {
		t.Errorf("Classify() with 2 non-empty months should not be variable: %+v", v)
	}
	if v.NonEmptyMonths != 2 {
		t.Errorf("NonEmptyMonths = %d, want 2", v.NonEmptyMonths)
	}
	if v.CoefficientOfVariation <= VariabilityThreshold {
		t.Errorf("CoefficientOfVariation = %v, expected dispersion to be reported anyway", v.CoefficientOfVariation)
	}
}

func TestDetectVariableCategories(t *testing.T) {
	store := memory.New()
	store.AddCategory(core.Category{ID: 1, UserID: testUser, Name: "Rent", Type: core.Expense})
	store.AddCategory(core.Category{ID: 2, UserID: testUser, Name: "Dining", Type: core.Expense})
	store.AddCategory(core.Category{ID: 3, UserID: testUser, Name: "New", Type: core.Expense})
	store.AddCategory(core.Category{ID: 9, UserID: testUser, Name: "Salary", Type: core.Income})

	monthly(store, 1, period("2026-04"), 800, 800, 800, 800, 800, 800)
	monthly(store, 2, period("2026-04"), 100, 100, 100, 1000, 100, 100)
	monthly(store, 3, period("2026-08"), 50, 500)

	e := newTestEngine(t, store)
	verdicts, err := e.DetectVariableCategories(context.Background(), testUser)
	if err != nil {
		t.Fatalf("DetectVariableCategories() error = %v", err)
	}
	if len(verdicts) != 3 {
		t.Fatalf("len(verdicts) = %d, want 3 expense categories", len(verdicts))
	}
	want := map[int64]bool{1: false, 2: true, 3: false}
	for _, v := range verdicts {
		if v.IsVariable != want[v.CategoryID] {
			t.Errorf("category %d IsVariable = %v, want %v", v.CategoryID, v.IsVariable, want[v.CategoryID])
		}
	}

	ids, err := e.VariableCategoryIDs(context.Background(), testUser)
	if err != nil {
		t.Fatalf("VariableCategoryIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("VariableCategoryIDs() = %v, want [2]", ids)
	}
}

func TestDetectVariableCategoriesPropagatesStorageErrors(t *testing.T) {
	store := memory.New()
	boom := errors.New("storage unavailable")
	store.FailWith(boom)

	e := newTestEngine(t, store)
	if _, err := e.DetectVariableCategories(context.Background(), testUser); !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
}

func TestCategoryCap(t *testing.T) {
	store := memory.New()
	for i := int64(1); i <= 5; i++ {
		store.AddCategory(core.Category{ID: i, UserID: testUser, Name: "c", Type: core.Expense})
	}
	tuning := DefaultTuning()
	tuning.MaxCategories = 2
	e := newTestEngine(t, store, WithTuning(tuning))

	verdicts, err := e.DetectVariableCategories(context.Background(), testUser)
	if err != nil {
		t.Fatalf("DetectVariableCategories() error = %v", err)
	}
	if len(verdicts) != 2 {
		t.Errorf("len(verdicts) = %d, want 2", len(verdicts))
	}
}
