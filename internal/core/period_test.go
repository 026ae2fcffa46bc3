package core

import (
	"testing"
	"time"
)

func TestPeriodAddMonths(t *testing.T) {
	tests := []struct {
		name string
		p    Period
		n    int
		want string
	}{
		{"same", Period{2026, time.March}, 0, "2026-03"},
		{"forward within year", Period{2026, time.March}, 2, "2026-05"},
		{"forward across year", Period{2026, time.November}, 3, "2027-02"},
		{"backward across year", Period{2026, time.February}, -3, "2025-11"},
		{"back twelve", Period{2026, time.January}, -12, "2025-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.AddMonths(tt.n).String(); got != tt.want {
				t.Errorf("AddMonths(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2026-10")
	if err != nil {
		t.Fatalf("ParsePeriod() error = %v", err)
	}
	if p.Year != 2026 || p.Month != time.October {
		t.Errorf("ParsePeriod() = %+v", p)
	}
	if p.MonthIndex() != 9 {
		t.Errorf("MonthIndex() = %d, want 9", p.MonthIndex())
	}
	for _, bad := range []string{"", "2026-13", "10-2026", "2026/10"} {
		if _, err := ParsePeriod(bad); err == nil {
			t.Errorf("ParsePeriod(%q) expected error", bad)
		}
	}
}

func TestPeriodRange(t *testing.T) {
	p := Period{2026, time.December}
	if !p.Start().Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start() = %v", p.Start())
	}
	if !p.End().Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("End() = %v", p.End())
	}
	if got := p.MonthsUntil(Period{2027, time.March}); got != 3 {
		t.Errorf("MonthsUntil() = %d, want 3", got)
	}
	if !p.Before(Period{2027, time.January}) || p.Before(p) {
		t.Errorf("Before() inconsistent")
	}
}
