package core

// MonthlyAggregate is the total completed expense of one category in one month.
type MonthlyAggregate struct {
	CategoryID  int64   `json:"categoryId"`
	Period      Period  `json:"period"`
	TotalAmount float64 `json:"totalAmount"`
}

// CashFlowSummary condenses a projection into the numbers a dashboard shows first.
type CashFlowSummary struct {
	InitialBalance float64 `json:"initialBalance"`
	FinalBalance   float64 `json:"finalBalance"`
	LowestBalance  float64 `json:"lowestBalance"`
	LowestMonth    Period  `json:"lowestMonth"`
	NegativeMonths int     `json:"negativeMonths"`
}

// Summarize computes the summary of an ordered projection.
func Summarize(initial float64, months []MonthlyProjection) CashFlowSummary {
	s := CashFlowSummary{InitialBalance: initial, FinalBalance: initial, LowestBalance: initial}
	for i, m := range months {
		acc := m.Balance.Accumulated
		if i == 0 || acc < s.LowestBalance {
			s.LowestBalance = acc
			s.LowestMonth = m.Month
		}
		if acc < 0 {
			s.NegativeMonths++
		}
		s.FinalBalance = acc
	}
	return s
}
