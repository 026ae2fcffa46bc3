// Package ports declares the read interfaces the forecasting engine consumes
// from its collaborators, plus the prediction cache it owns.
package ports

import (
	"context"
	"errors"
	"time"

	"cashcast/internal/core"
)

// ErrNotFound is returned by lookups that have no row to return.
var ErrNotFound = errors.New("not found")

type (
	// TransactionQuery filters a transaction listing. Zero values mean "any".
	// From is inclusive and To exclusive.
	TransactionQuery struct {
		CategoryID int64
		Type       core.TransactionType
		From       time.Time
		To         time.Time
	}

	// RecurringQuery filters active recurring schedules.
	RecurringQuery struct {
		Type core.TransactionType
	}

	// CachedPrediction is a prediction cache row.
	CachedPrediction struct {
		core.Prediction
		UpdatedAt time.Time
	}
)

// Ports for outbound adapters.
type (
	TransactionReader interface {
		// ListTransactions returns the user's transactions matching q, in any
		// status; callers filter on core.Transaction.Counts.
		ListTransactions(ctx context.Context, userID int64, q TransactionQuery) ([]core.Transaction, error)
	}

	CategoryReader interface {
		ListCategories(ctx context.Context, userID int64, typ core.TransactionType) ([]core.Category, error)
	}

	AccountReader interface {
		ListActiveAccounts(ctx context.Context, userID int64) ([]core.Account, error)
	}

	BudgetReader interface {
		// FindBudget returns the budget in force on the given date, preferring the
		// latest start; nil, nil when none covers it.
		FindBudget(ctx context.Context, userID, categoryID int64, period core.BudgetPeriod, on core.Date) (*core.Budget, error)
		ListBudgets(ctx context.Context, userID int64, period core.BudgetPeriod) ([]core.Budget, error)
	}

	GoalReader interface {
		ListActiveGoals(ctx context.Context, userID int64) ([]core.Goal, error)
	}

	RecurringReader interface {
		ListActiveRecurring(ctx context.Context, userID int64, q RecurringQuery) ([]core.RecurringSchedule, error)
	}

	UserLister interface {
		ListUserIDs(ctx context.Context) ([]int64, error)
	}

	// PredictionCache stores point estimates keyed by (user, category, month).
	// Upserts are idempotent and last-write-wins.
	PredictionCache interface {
		UpsertPrediction(ctx context.Context, userID int64, p core.Prediction) error
		// GetPrediction returns ErrNotFound when no row exists.
		GetPrediction(ctx context.Context, userID, categoryID int64, month core.Period) (*CachedPrediction, error)
	}

	// Reader bundles every read the engine performs.
	Reader interface {
		TransactionReader
		CategoryReader
		AccountReader
		BudgetReader
		GoalReader
		RecurringReader
	}

	// Store is what a backend provides.
	Store interface {
		Reader
		UserLister
		PredictionCache
		Ping(ctx context.Context) error
		Close() error
	}
)

// Dataset is a full copy of the collaborator records of one or more users,
// used to move data between backends.
type Dataset struct {
	Transactions []core.Transaction
	Categories   []core.Category
	Accounts     []core.Account
	Budgets      []core.Budget
	Goals        []core.Goal
	Recurring    []core.RecurringSchedule
}
