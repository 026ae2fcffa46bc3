package forecast

// This file holds one strategy per schedule frequency deciding how many times
// a recurring schedule hits a projected month.

import (
	"fmt"

	"cashcast/internal/core"
)

// OccurrenceCounter is the strategy interface for counting how many times a
// recurring schedule is charged in a target month.
type OccurrenceCounter interface {
	// Occurrences returns the multiplier applied to the schedule amount.
	Occurrences(schedule core.RecurringSchedule, target core.Period) float64
	// Modeled reports whether the frequency is represented in projections.
	Modeled() bool
}

// WeeklyCounter approximates a month as a fixed number of weeks.
type WeeklyCounter struct {
	WeeksPerMonth float64
}

func (c WeeklyCounter) Occurrences(core.RecurringSchedule, core.Period) float64 {
	return c.WeeksPerMonth
}

func (WeeklyCounter) Modeled() bool { return true }

// MonthlyCounter charges once per month.
type MonthlyCounter struct{}

func (MonthlyCounter) Occurrences(core.RecurringSchedule, core.Period) float64 { return 1 }

func (MonthlyCounter) Modeled() bool { return true }

// YearlyCounter charges only in the calendar month the schedule started in.
type YearlyCounter struct{}

func (YearlyCounter) Occurrences(s core.RecurringSchedule, target core.Period) float64 {
	if s.StartDate.Time.Month() == target.Month {
		return 1
	}
	return 0
}

func (YearlyCounter) Modeled() bool { return true }

// DailyCounter contributes nothing. Daily schedules are not represented in
// the fixed income and expense pass; projections report them as a warning.
type DailyCounter struct{}

func (DailyCounter) Occurrences(core.RecurringSchedule, core.Period) float64 { return 0 }

func (DailyCounter) Modeled() bool { return false }

// occurrenceCounters returns the strategy registry for the given tuning.
func occurrenceCounters(t Tuning) map[core.Frequency]OccurrenceCounter {
	return map[core.Frequency]OccurrenceCounter{
		core.Daily:   DailyCounter{},
		core.Weekly:  WeeklyCounter{WeeksPerMonth: t.WeeksPerMonth},
		core.Monthly: MonthlyCounter{},
		core.Yearly:  YearlyCounter{},
	}
}

// CounterFor returns the counter for a frequency.
func CounterFor(t Tuning, f core.Frequency) (OccurrenceCounter, error) {
	c, ok := occurrenceCounters(t)[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return c, nil
}
