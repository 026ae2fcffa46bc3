package forecast

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// VariabilityThreshold is the coefficient of variation above which a category
// is treated as variable. It is not tunable.
const VariabilityThreshold = 0.3

// Algorithm tags every prediction produced by this package.
const Algorithm = "weighted_ma_seasonal_v1"

// Tuning holds the heuristic constants of the engine. DefaultTuning carries the
// documented values; a TOML file may override any of them.
type Tuning struct {
	// Prediction
	ShortWindow         int     `toml:"short_window"`
	LongWindow          int     `toml:"long_window"`
	MinHistoryMonths    int     `toml:"min_history_months"`
	ShortWeight         float64 `toml:"short_weight"`
	LongWeight          float64 `toml:"long_weight"`
	SameMonthWeight     float64 `toml:"same_month_weight"`
	MarginSigmas        float64 `toml:"margin_sigmas"`
	VariabilityWindow   int     `toml:"variability_window"`
	MaxCategories       int     `toml:"max_categories"`
	Concurrency         int     `toml:"concurrency"`
	MaxProjectionMonths int     `toml:"max_projection_months"`

	// Cash flow
	WeeksPerMonth float64 `toml:"weeks_per_month"`

	// Scenario
	ScenarioHorizon int     `toml:"scenario_horizon"`
	BaselineMonths  int     `toml:"baseline_months"`
	CutThreshold    float64 `toml:"cut_threshold"`
	MaxInstallments int     `toml:"max_installments"`

	// Affordability
	ReserveHigh  float64 `toml:"reserve_high"`
	ReserveLow   float64 `toml:"reserve_low"`
	LateMonthDay int     `toml:"late_month_day"`
	LowBalance   float64 `toml:"low_balance"`

	// Inflation
	ReferenceValue    float64 `toml:"reference_value"`
	GoalIncreaseAlert float64 `toml:"goal_increase_alert"`
}

// DefaultTuning returns the documented heuristic constants.
func DefaultTuning() Tuning {
	return Tuning{
		ShortWindow:         3,
		LongWindow:          6,
		MinHistoryMonths:    3,
		ShortWeight:         0.5,
		LongWeight:          0.3,
		SameMonthWeight:     0.2,
		MarginSigmas:        1.0,
		VariabilityWindow:   6,
		MaxCategories:       50,
		Concurrency:         4,
		MaxProjectionMonths: 24,

		WeeksPerMonth: 4,

		ScenarioHorizon: 12,
		BaselineMonths:  3,
		CutThreshold:    1000,
		MaxInstallments: 12,

		ReserveHigh:  1000,
		ReserveLow:   500,
		LateMonthDay: 20,
		LowBalance:   500,

		ReferenceValue:    1000,
		GoalIncreaseAlert: 1000,
	}
}

// Validate checks that the tuning is usable.
func (t Tuning) Validate() error {
	var errs []string
	positive := map[string]int{
		"short_window":          t.ShortWindow,
		"long_window":           t.LongWindow,
		"min_history_months":    t.MinHistoryMonths,
		"variability_window":    t.VariabilityWindow,
		"max_categories":        t.MaxCategories,
		"concurrency":           t.Concurrency,
		"max_projection_months": t.MaxProjectionMonths,
		"scenario_horizon":      t.ScenarioHorizon,
		"baseline_months":       t.BaselineMonths,
		"max_installments":      t.MaxInstallments,
	}
	for _, name := range sortedKeys(positive) {
		if positive[name] < 1 {
			errs = append(errs, fmt.Sprintf("%s must be at least 1, got %d", name, positive[name]))
		}
	}
	if t.ShortWindow > t.LongWindow {
		errs = append(errs, "short_window must not exceed long_window")
	}
	if t.MinHistoryMonths > t.LongWindow {
		errs = append(errs, "min_history_months must not exceed long_window")
	}
	if sum := t.ShortWeight + t.LongWeight + t.SameMonthWeight; sum < 0.999 || sum > 1.001 {
		errs = append(errs, fmt.Sprintf("prediction weights must sum to 1, got %.3f", sum))
	}
	if t.MarginSigmas < 0 || t.WeeksPerMonth < 0 || t.ReferenceValue <= 0 {
		errs = append(errs, "margin_sigmas, weeks_per_month must be non-negative and reference_value positive")
	}
	if t.LateMonthDay < 1 || t.LateMonthDay > 31 {
		errs = append(errs, fmt.Sprintf("late_month_day must be a day of month, got %d", t.LateMonthDay))
	}
	if len(errs) > 0 {
		return errors.New("invalid engine tuning:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
