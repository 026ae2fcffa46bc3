// Package memory is an in-process implementation of ports.Store used for
// local runs, demos and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"cashcast/internal/core"
	"cashcast/internal/ports"
)

type predictionKey struct {
	userID     int64
	categoryID int64
	month      core.Period
}

type Store struct {
	mu           sync.RWMutex
	transactions []core.Transaction
	categories   []core.Category
	accounts     []core.Account
	budgets      []core.Budget
	goals        []core.Goal
	recurring    []core.RecurringSchedule
	predictions  map[predictionKey]ports.CachedPrediction
	failure      error
	now          func() time.Time
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		predictions: make(map[predictionKey]ports.CachedPrediction),
		now:         time.Now,
	}
}

// Seed is the JSON layout accepted by NewFromFile.
type Seed struct {
	Transactions []seedTransaction `json:"transactions"`
	Categories   []seedCategory    `json:"categories"`
	Accounts     []seedAccount     `json:"accounts"`
	Budgets      []seedBudget      `json:"budgets"`
	Goals        []seedGoal        `json:"goals"`
	Recurring    []seedRecurring   `json:"recurring"`
}

type seedTransaction struct {
	UserID     int64                  `json:"userId"`
	CategoryID int64                  `json:"categoryId"`
	Amount     float64                `json:"amount"`
	Date       core.Date              `json:"date"`
	Type       core.TransactionType   `json:"type"`
	Status     core.TransactionStatus `json:"status"`
}

type seedCategory struct {
	ID     int64                `json:"id"`
	UserID int64                `json:"userId"`
	Name   string               `json:"name"`
	Type   core.TransactionType `json:"type"`
}

type seedAccount struct {
	UserID  int64   `json:"userId"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

type seedBudget struct {
	UserID     int64             `json:"userId"`
	CategoryID int64             `json:"categoryId"`
	Amount     float64           `json:"amount"`
	Period     core.BudgetPeriod `json:"period"`
	StartDate  core.Date         `json:"startDate"`
	EndDate    core.Date         `json:"endDate"`
}

type seedGoal struct {
	UserID        int64     `json:"userId"`
	Name          string    `json:"name"`
	TargetAmount  float64   `json:"targetAmount"`
	CurrentAmount float64   `json:"currentAmount"`
	TargetDate    core.Date `json:"targetDate"`
}

type seedRecurring struct {
	UserID      int64                `json:"userId"`
	CategoryID  int64                `json:"categoryId"`
	Description string               `json:"description"`
	Amount      float64              `json:"amount"`
	Type        core.TransactionType `json:"type"`
	Frequency   core.Frequency       `json:"frequency"`
	StartDate   core.Date            `json:"startDate"`
}

// NewFromFile loads a JSON seed. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for _, t := range seed.Transactions {
		status := t.Status
		if status == "" {
			status = core.StatusCompleted
		}
		s.AddTransaction(core.Transaction{
			UserID: t.UserID, CategoryID: t.CategoryID, Amount: core.FromUnits(t.Amount),
			Date: t.Date, Type: t.Type, Status: status,
		})
	}
	for _, c := range seed.Categories {
		s.AddCategory(core.Category{ID: c.ID, UserID: c.UserID, Name: c.Name, Type: c.Type})
	}
	for _, a := range seed.Accounts {
		s.AddAccount(core.Account{UserID: a.UserID, Name: a.Name, Balance: core.FromUnits(a.Balance), Active: true})
	}
	for _, b := range seed.Budgets {
		s.AddBudget(core.Budget{
			UserID: b.UserID, CategoryID: b.CategoryID, Amount: core.FromUnits(b.Amount),
			Period: b.Period, StartDate: b.StartDate, EndDate: b.EndDate,
		})
	}
	for _, g := range seed.Goals {
		s.AddGoal(core.Goal{
			UserID: g.UserID, Name: g.Name, TargetAmount: core.FromUnits(g.TargetAmount),
			CurrentAmount: core.FromUnits(g.CurrentAmount), TargetDate: g.TargetDate, Status: core.GoalActive,
		})
	}
	for _, r := range seed.Recurring {
		s.AddRecurring(core.RecurringSchedule{
			UserID: r.UserID, CategoryID: r.CategoryID, Description: r.Description,
			Amount: core.FromUnits(r.Amount), Type: r.Type, Frequency: r.Frequency,
			StartDate: r.StartDate, Active: true,
		})
	}
	return s, nil
}

// FailWith makes every subsequent call return err; nil restores normal behavior.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// SetClock overrides the clock used to stamp cache rows.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) AddTransaction(t core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = int64(len(s.transactions) + 1)
	s.transactions = append(s.transactions, t)
}

func (s *Store) AddCategory(c core.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = int64(len(s.categories) + 1)
	}
	s.categories = append(s.categories, c)
}

func (s *Store) AddAccount(a core.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = int64(len(s.accounts) + 1)
	s.accounts = append(s.accounts, a)
}

func (s *Store) AddBudget(b core.Budget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = int64(len(s.budgets) + 1)
	s.budgets = append(s.budgets, b)
}

func (s *Store) AddGoal(g core.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = int64(len(s.goals) + 1)
	s.goals = append(s.goals, g)
}

func (s *Store) AddRecurring(r core.RecurringSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = int64(len(s.recurring) + 1)
	s.recurring = append(s.recurring, r)
}

func (s *Store) ListTransactions(_ context.Context, userID int64, q ports.TransactionQuery) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		if q.CategoryID != 0 && t.CategoryID != q.CategoryID {
			continue
		}
		if q.Type != "" && t.Type != q.Type {
			continue
		}
		if !q.From.IsZero() && t.Date.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !t.Date.Before(q.To) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *Store) ListCategories(_ context.Context, userID int64, typ core.TransactionType) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID && (typ == "" || c.Type == typ) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) ListActiveAccounts(_ context.Context, userID int64) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID && a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) FindBudget(_ context.Context, userID, categoryID int64, period core.BudgetPeriod, on core.Date) (*core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	var found *core.Budget
	for i := range s.budgets {
		b := s.budgets[i]
		if b.UserID != userID || b.CategoryID != categoryID || b.Period != period || !b.Covers(on) {
			continue
		}
		if found == nil || b.StartDate.After(found.StartDate.Time) ||
			(b.StartDate.Equal(found.StartDate.Time) && b.ID > found.ID) {
			found = &b
		}
	}
	return found, nil
}

func (s *Store) ListBudgets(_ context.Context, userID int64, period core.BudgetPeriod) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID && (period == "" || b.Period == period) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) ListActiveGoals(_ context.Context, userID int64) ([]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	var out []core.Goal
	for _, g := range s.goals {
		if g.UserID == userID && g.Status == core.GoalActive {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) ListActiveRecurring(_ context.Context, userID int64, q ports.RecurringQuery) ([]core.RecurringSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	var out []core.RecurringSchedule
	for _, r := range s.recurring {
		if r.UserID == userID && r.Active && (q.Type == "" || r.Type == q.Type) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListUserIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	seen := map[int64]struct{}{}
	var out []int64
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, c := range s.categories {
		add(c.UserID)
	}
	for _, t := range s.transactions {
		add(t.UserID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *Store) UpsertPrediction(_ context.Context, userID int64, p core.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	key := predictionKey{userID: userID, categoryID: p.CategoryID, month: p.Month}
	s.predictions[key] = ports.CachedPrediction{Prediction: p, UpdatedAt: s.now().UTC()}
	return nil
}

func (s *Store) GetPrediction(_ context.Context, userID, categoryID int64, month core.Period) (*ports.CachedPrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	row, ok := s.predictions[predictionKey{userID: userID, categoryID: categoryID, month: month}]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &row, nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failure
}

func (s *Store) Close() error { return nil }

// Snapshot copies every record held by the store.
func (s *Store) Snapshot() ports.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ports.Dataset{
		Transactions: append([]core.Transaction(nil), s.transactions...),
		Categories:   append([]core.Category(nil), s.categories...),
		Accounts:     append([]core.Account(nil), s.accounts...),
		Budgets:      append([]core.Budget(nil), s.budgets...),
		Goals:        append([]core.Goal(nil), s.goals...),
		Recurring:    append([]core.RecurringSchedule(nil), s.recurring...),
	}
}
