package core

import (
	"strings"
)

const (
	TrendUp   Trend = "UP"
	TrendDown Trend = "DOWN"
)

const (
	Realistic   Scenario = "REALISTIC"
	Optimistic  Scenario = "OPTIMISTIC"
	Pessimistic Scenario = "PESSIMISTIC"
)

type (
	Trend    string
	Scenario string

	VariabilityVerdict struct {
		CategoryID             int64   `json:"categoryId"`
		CoefficientOfVariation float64 `json:"coefficientOfVariation"`
		IsVariable             bool    `json:"isVariable"`
		NonEmptyMonths         int     `json:"nonEmptyMonths"`
	}

	SeasonalFactor struct {
		CategoryID int64   `json:"categoryId"`
		MonthIndex int     `json:"monthIndex"`
		Factor     float64 `json:"factor"`
	}

	PredictionFactors struct {
		Seasonality       float64 `json:"seasonality"`
		Trend             Trend   `json:"trend"`
		HistoricalAverage float64 `json:"historicalAverage"`
	}

	// Prediction is a point forecast for one category and month.
	// Confidence is an inverse-dispersion score in [0,100], not a statistical
	// confidence level.
	Prediction struct {
		CategoryID      int64             `json:"categoryId"`
		Month           Period            `json:"month"`
		PredictedAmount float64           `json:"predictedAmount"`
		Confidence      float64           `json:"confidence"`
		LowerBound      float64           `json:"lowerBound"`
		UpperBound      float64           `json:"upperBound"`
		Algorithm       string            `json:"algorithm"`
		Factors         PredictionFactors `json:"factors"`
	}

	FlowBreakdown struct {
		Fixed    float64 `json:"fixed"`
		Variable float64 `json:"variable"`
		Total    float64 `json:"total"`
	}

	BalanceLine struct {
		Period      float64 `json:"period"`
		Accumulated float64 `json:"accumulated"`
	}

	ScenarioBounds struct {
		Optimistic  float64 `json:"optimistic"`
		Pessimistic float64 `json:"pessimistic"`
	}

	MonthlyProjection struct {
		Month          Period         `json:"month"`
		Income         FlowBreakdown  `json:"income"`
		Expenses       FlowBreakdown  `json:"expenses"`
		Balance        BalanceLine    `json:"balance"`
		ScenarioBounds ScenarioBounds `json:"scenarioBounds"`
	}

	CashFlowResult struct {
		Scenario Scenario            `json:"scenario"`
		Months   []MonthlyProjection `json:"months"`
		Summary  CashFlowSummary     `json:"summary"`
		// Warnings lists modeling gaps hit while projecting, such as DAILY
		// schedules that are not counted.
		Warnings []string `json:"warnings,omitempty"`
	}
)

// ParseScenario parses a cash-flow scenario name; empty means REALISTIC.
func ParseScenario(s string) (Scenario, error) {
	switch Scenario(strings.ToUpper(strings.TrimSpace(s))) {
	case "", Realistic:
		return Realistic, nil
	case Optimistic:
		return Optimistic, nil
	case Pessimistic:
		return Pessimistic, nil
	}
	return "", ErrInvalidScenarioType
}

// Rounded returns a copy with every amount rounded to cents.
func (p Prediction) Rounded() Prediction {
	p.PredictedAmount = Round2(p.PredictedAmount)
	p.LowerBound = Round2(p.LowerBound)
	p.UpperBound = Round2(p.UpperBound)
	p.Confidence = Round2(p.Confidence)
	p.Factors.Seasonality = Round2(p.Factors.Seasonality)
	p.Factors.HistoricalAverage = Round2(p.Factors.HistoricalAverage)
	return p
}
