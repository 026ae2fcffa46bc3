package core

import "math"

const (
	LevelPositive RecommendationLevel = "POSITIVE"
	LevelCaution  RecommendationLevel = "CAUTION"
	LevelWarning  RecommendationLevel = "WARNING"
)

// MaxInflationMonths bounds the projection period accepted at the boundary.
const MaxInflationMonths = 600

type (
	RecommendationLevel string

	InflationInput struct {
		InflationRate    float64 `json:"inflationRate"`
		SalaryAdjustment float64 `json:"salaryAdjustment"`
		PeriodMonths     int     `json:"periodMonths"`
	}

	PurchasingPowerPoint struct {
		Month int     `json:"month"`
		Value float64 `json:"value"`
	}

	GoalInflation struct {
		GoalID         int64   `json:"goalId"`
		Name           string  `json:"name"`
		OriginalTarget float64 `json:"originalTarget"`
		AdjustedTarget float64 `json:"adjustedTarget"`
		Increase       float64 `json:"increase"`
		Years          float64 `json:"years"`
	}

	BudgetInflation struct {
		BudgetID        int64   `json:"budgetId"`
		CategoryID      int64   `json:"categoryId"`
		CurrentAmount   float64 `json:"currentAmount"`
		ProjectedAmount float64 `json:"projectedAmount"`
		Increase        float64 `json:"increase"`
	}

	InflationRecommendation struct {
		Level   RecommendationLevel `json:"level"`
		Message string              `json:"message"`
	}

	InflationImpact struct {
		RealGainRate               float64                   `json:"realGainRate"`
		MonthlyInflation           float64                   `json:"monthlyInflation"`
		PurchasingPowerLost        float64                   `json:"purchasingPowerLost"`
		PurchasingPowerProjections []PurchasingPowerPoint    `json:"purchasingPowerProjections"`
		AffectedGoals              []GoalInflation           `json:"affectedGoals"`
		BudgetImpacts              []BudgetInflation         `json:"budgetImpacts"`
		Recommendations            []InflationRecommendation `json:"recommendations"`
	}
)

func (in InflationInput) Validate() error {
	for _, r := range []float64{in.InflationRate, in.SalaryAdjustment} {
		if math.IsNaN(r) || math.IsInf(r, 0) || r <= -100 || r > 1000 {
			return ErrInvalidRate
		}
	}
	if in.PeriodMonths < 1 || in.PeriodMonths > MaxInflationMonths {
		return ErrInvalidMonths
	}
	return nil
}
