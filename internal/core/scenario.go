package core

import (
	"errors"
	"math"
)

const (
	BigPurchase      ScenarioType = "BIG_PURCHASE"
	IncomeLoss       ScenarioType = "INCOME_LOSS"
	EmergencyExpense ScenarioType = "EMERGENCY_EXPENSE"
	NewRecurring     ScenarioType = "NEW_RECURRING"
	DebtPayment      ScenarioType = "DEBT_PAYMENT"
)

const (
	RecommendInstallment RecommendationType = "INSTALLMENT"
	RecommendDelay       RecommendationType = "DELAY"
	RecommendCut         RecommendationType = "CUT"
)

// MaxInputInstallments bounds installment plans accepted at the boundary.
const MaxInputInstallments = 360

type (
	ScenarioType       string
	RecommendationType string

	// ScenarioInput is the boundary form of a what-if event. Event converts it
	// into the variant the simulator works with.
	ScenarioInput struct {
		Type         ScenarioType `json:"type"`
		Amount       float64      `json:"amount"`
		Installments int          `json:"installments,omitempty"`
		StartDate    Date         `json:"startDate"`
		EndDate      Date         `json:"endDate,omitempty"`
	}

	Recommendation struct {
		Type                  RecommendationType `json:"type"`
		Message               string             `json:"message"`
		SuggestedInstallments int                `json:"suggestedInstallments,omitempty"`
		MonthlyCut            float64            `json:"monthlyCut,omitempty"`
	}

	ImpactedGoal struct {
		GoalID int64  `json:"goalId"`
		Name   string `json:"name"`
		Reason string `json:"reason"`
	}

	ScenarioResult struct {
		Type             ScenarioType     `json:"type"`
		IsViable         bool             `json:"isViable"`
		CurrentBalance   float64          `json:"currentBalance"`
		MonthlySurplus   float64          `json:"monthlySurplus"`
		ProjectedBalance []float64        `json:"projectedBalance"`
		LowestBalance    float64          `json:"lowestBalance"`
		ImpactedGoals    []ImpactedGoal   `json:"impactedGoals"`
		Recommendations  []Recommendation `json:"recommendations"`
	}
)

// Event is one of OneTimeCharge, InstallmentPlan or RecurringDrain.
type Event interface {
	event()
}

// OneTimeCharge deducts Amount once; the cumulative series never recovers.
type OneTimeCharge struct {
	Amount float64
}

// InstallmentPlan spreads Amount evenly over Installments months.
type InstallmentPlan struct {
	Amount       float64
	Installments int
}

// Installment returns the value of a single installment.
func (p InstallmentPlan) Installment() float64 {
	return p.Amount / float64(p.Installments)
}

// RecurringDrain deducts Monthly every month until Until (inclusive) or the
// end of the horizon when Until is zero.
type RecurringDrain struct {
	Monthly float64
	Until   Period
}

func (OneTimeCharge) event()   {}
func (InstallmentPlan) event() {}
func (RecurringDrain) event()  {}

func (t ScenarioType) Validate() error {
	switch t {
	case BigPurchase, IncomeLoss, EmergencyExpense, NewRecurring, DebtPayment:
		return nil
	}
	return ErrInvalidScenarioType
}

// Splittable reports whether the event can be paid in installments.
func (t ScenarioType) Splittable() bool {
	return t == BigPurchase || t == EmergencyExpense || t == DebtPayment
}

func (in ScenarioInput) Validate() error {
	if err := in.Type.Validate(); err != nil {
		return err
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount <= 0 {
		return ErrInvalidAmount
	}
	if in.Installments < 0 || in.Installments > MaxInputInstallments {
		return ErrInvalidInstallments
	}
	if in.Installments > 1 && !in.Type.Splittable() {
		return ErrInvalidInstallments
	}
	if err := in.StartDate.Validate(); err != nil {
		return err
	}
	if !in.EndDate.IsEmpty() && in.EndDate.Before(in.StartDate.Time) {
		return errors.New("end date must not be before start date")
	}
	return nil
}

// Event returns the variant for the input. The input is assumed valid.
func (in ScenarioInput) Event() Event {
	if !in.Type.Splittable() {
		var until Period
		if !in.EndDate.IsEmpty() {
			until = in.EndDate.Period()
		}
		return RecurringDrain{Monthly: in.Amount, Until: until}
	}
	if in.Installments > 1 {
		return InstallmentPlan{Amount: in.Amount, Installments: in.Installments}
	}
	return OneTimeCharge{Amount: in.Amount}
}

// HasRecommendation reports whether r contains a recommendation of type t.
func (r ScenarioResult) HasRecommendation(t RecommendationType) bool {
	for _, rec := range r.Recommendations {
		if rec.Type == t {
			return true
		}
	}
	return false
}
