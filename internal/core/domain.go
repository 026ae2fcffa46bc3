package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusPending   TransactionStatus = "PENDING"
	StatusCancelled TransactionStatus = "CANCELLED"
)

const (
	BudgetMonthly BudgetPeriod = "MONTHLY"
	BudgetYearly  BudgetPeriod = "YEARLY"
)

const (
	GoalActive    GoalStatus = "ACTIVE"
	GoalCompleted GoalStatus = "COMPLETED"
	GoalCancelled GoalStatus = "CANCELLED"
)

type (
	Frequency         string
	TransactionType   string
	TransactionStatus string
	BudgetPeriod      string
	GoalStatus        string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Amount     Money
		Date       Date
		Type       TransactionType
		Status     TransactionStatus
	}

	Category struct {
		ID     int64
		UserID int64
		Name   string
		Type   TransactionType
	}

	Account struct {
		ID      int64
		UserID  int64
		Name    string
		Balance Money // may be negative for overdrawn accounts
		Active  bool
	}

	Budget struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Amount     Money
		Period     BudgetPeriod
		StartDate  Date
		EndDate    Date // zero when open-ended
	}

	Goal struct {
		ID            int64
		UserID        int64
		Name          string
		TargetAmount  Money
		CurrentAmount Money
		TargetDate    Date // zero when the goal has no deadline
		Status        GoalStatus
	}

	RecurringSchedule struct {
		ID          int64
		UserID      int64
		CategoryID  int64
		Description string
		Amount      Money
		Type        TransactionType
		Frequency   Frequency
		StartDate   Date
		Active      bool
	}
)

var (
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrInvalidMonths       = errors.New("invalid number of months")
	ErrInvalidScenarioType = errors.New("invalid scenario type")
	ErrInvalidInstallments = errors.New("invalid installments")
	ErrInvalidRate         = errors.New("invalid rate")
	ErrInvalidFrequency    = errors.New("invalid frequency")
	ErrEmptyName           = errors.New("empty name")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Period returns the calendar month the date falls in.
func (d Date) Period() Period {
	return PeriodOf(d.Time)
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	}
	return ErrInvalidFrequency
}

// Counts reports whether the transaction contributes to history.
// Only completed rows count; pending and cancelled ones are ignored.
func (t Transaction) Counts() bool {
	return t.Status == StatusCompleted
}

func (rs RecurringSchedule) Validate() error {
	if err := rs.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if err := rs.Frequency.Validate(); err != nil {
		return err
	}
	if rs.Type != Income && rs.Type != Expense {
		return errors.New("invalid schedule type")
	}
	if len(rs.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return rs.Amount.Validate()
}

// Covers reports whether the budget is in force on d. Both ends are inclusive.
func (b Budget) Covers(d Date) bool {
	if d.Before(b.StartDate.Time) {
		return false
	}
	return b.EndDate.IsEmpty() || !d.After(b.EndDate.Time)
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if !g.TargetDate.IsEmpty() {
		if err := g.TargetDate.Validate(); err != nil {
			return errors.New("invalid target date: " + err.Error())
		}
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts YYYY-MM-DD or RFC 3339 strings; null leaves the date empty.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ErrInvalidDate
	}
	y, m, day := t.Date()
	*d = NewDate(y, int(m), day)
	return nil
}
