package forecast

import (
	"strings"
	"testing"
)

func TestDefaultTuningIsValid(t *testing.T) {
	if err := DefaultTuning().Validate(); err != nil {
		t.Fatalf("DefaultTuning().Validate() error = %v", err)
	}
}

func TestTuningValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Tuning)
		wantErr string
	}{
		{"weights", func(t *Tuning) { t.ShortWeight = 0.9 }, "weights must sum to 1"},
		{"windows", func(t *Tuning) { t.ShortWindow = 8 }, "short_window must not exceed long_window"},
		{"concurrency", func(t *Tuning) { t.Concurrency = 0 }, "concurrency must be at least 1"},
		{"late day", func(t *Tuning) { t.LateMonthDay = 40 }, "late_month_day"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tuning := DefaultTuning()
			tt.mutate(&tuning)
			err := tuning.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
