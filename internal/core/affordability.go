package core

import "math"

const (
	CanAfford      AffordabilityStatus = "CAN_AFFORD"
	Caution        AffordabilityStatus = "CAUTION"
	NotRecommended AffordabilityStatus = "NOT_RECOMMENDED"
)

type (
	AffordabilityStatus string

	AffordabilityInput struct {
		Amount       float64 `json:"amount"`
		CategoryID   int64   `json:"categoryId"`
		Installments int     `json:"installments,omitempty"`
	}

	// ScoreBreakdown holds the six sub-scores. Maxima: balance 25, budget 20,
	// reserve 20, goal 15, history 10, timing 10.
	ScoreBreakdown struct {
		Balance int `json:"balance"`
		Budget  int `json:"budget"`
		Reserve int `json:"reserve"`
		Goal    int `json:"goal"`
		History int `json:"history"`
		Timing  int `json:"timing"`
	}

	AffordabilityResult struct {
		Score           int                 `json:"score"`
		Status          AffordabilityStatus `json:"status"`
		Color           string              `json:"color"`
		CurrentBalance  float64             `json:"currentBalance"`
		Breakdown       ScoreBreakdown      `json:"breakdown"`
		Recommendations []string            `json:"recommendations"`
	}
)

// StatusForScore maps a 0-100 score to its status.
func StatusForScore(score int) AffordabilityStatus {
	switch {
	case score >= 70:
		return CanAfford
	case score >= 40:
		return Caution
	default:
		return NotRecommended
	}
}

// Color returns the fixed badge color of the status.
func (s AffordabilityStatus) Color() string {
	switch s {
	case CanAfford:
		return "#22c55e"
	case Caution:
		return "#f59e0b"
	default:
		return "#ef4444"
	}
}

// Total sums the sub-scores clamped to [0,100].
func (b ScoreBreakdown) Total() int {
	sum := b.Balance + b.Budget + b.Reserve + b.Goal + b.History + b.Timing
	return max(0, min(100, sum))
}

func (in AffordabilityInput) Validate() error {
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount <= 0 {
		return ErrInvalidAmount
	}
	if in.Installments < 0 || in.Installments > MaxInputInstallments {
		return ErrInvalidInstallments
	}
	return nil
}

// UpfrontAmount is what leaves the accounts this month.
func (in AffordabilityInput) UpfrontAmount() float64 {
	if in.Installments > 1 {
		return in.Amount / float64(in.Installments)
	}
	return in.Amount
}
