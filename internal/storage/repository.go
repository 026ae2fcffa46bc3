package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cashcast/internal/core"
	"cashcast/internal/log"
	"cashcast/internal/ports"
)

const dateLayout = "2006-01-02"

// Repository implements ports.Store on top of database/sql for both
// supported dialects.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	logger  *log.Logger
	now     func() time.Time
}

var _ ports.Store = (*Repository)(nil)

// NewSQLiteRepository opens (creating if needed) the database file and
// applies migrations.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(SQLite, dbPath)
}

// NewPostgresRepository connects to dsn and applies migrations.
func NewPostgresRepository(dsn string) (*Repository, error) {
	return open(Postgres, dsn)
}

func open(d Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if d == SQLite {
		// A single writer keeps concurrent upserts from hitting SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	return &Repository{
		db:      db,
		dialect: d,
		logger:  log.New(log.DefaultConfig()).WithComponent(log.ComponentStorage),
		now:     time.Now,
	}, nil
}

// SetLogger replaces the repository logger.
func (r *Repository) SetLogger(l *log.Logger) {
	r.logger = l.WithComponent(log.ComponentStorage)
}

func (r *Repository) Dialect() Dialect {
	return r.dialect
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.dialect.Rebind(q), args...)
}

func (r *Repository) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.dialect.Rebind(q), args...)
}

// ListTransactions implements ports.TransactionReader
func (r *Repository) ListTransactions(ctx context.Context, userID int64, q ports.TransactionQuery) ([]core.Transaction, error) {
	stmt := `SELECT id, user_id, category_id, amount_cents, date, type, status
		FROM transactions WHERE user_id = ?`
	args := []any{userID}
	if q.CategoryID != 0 {
		stmt += ` AND category_id = ?`
		args = append(args, q.CategoryID)
	}
	if q.Type != "" {
		stmt += ` AND type = ?`
		args = append(args, string(q.Type))
	}
	if !q.From.IsZero() {
		stmt += ` AND date >= ?`
		args = append(args, q.From.Format(dateLayout))
	}
	if !q.To.IsZero() {
		stmt += ` AND date < ?`
		args = append(args, q.To.Format(dateLayout))
	}
	stmt += ` ORDER BY date, id`

	rows, err := r.query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t    core.Transaction
			date dateValue
			typ  string
			st   string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Amount.Cents, &date, &typ, &st); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date = date.Date
		t.Type = core.TransactionType(typ)
		t.Status = core.TransactionStatus(st)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListCategories implements ports.CategoryReader
func (r *Repository) ListCategories(ctx context.Context, userID int64, typ core.TransactionType) ([]core.Category, error) {
	stmt := `SELECT id, user_id, name, type FROM categories WHERE user_id = ?`
	args := []any{userID}
	if typ != "" {
		stmt += ` AND type = ?`
		args = append(args, string(typ))
	}
	stmt += ` ORDER BY id`

	rows, err := r.query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c core.Category
			t string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &t); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(t)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListActiveAccounts implements ports.AccountReader
func (r *Repository) ListActiveAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.query(ctx,
		`SELECT id, user_id, name, balance_cents FROM accounts WHERE user_id = ? AND active = TRUE ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a := core.Account{Active: true}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Balance.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const budgetColumns = `id, user_id, category_id, amount_cents, period, start_date, end_date`

func scanBudget(sc interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b          core.Budget
		period     string
		start, end dateValue
	)
	if err := sc.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount.Cents, &period, &start, &end); err != nil {
		return core.Budget{}, err
	}
	b.Period = core.BudgetPeriod(period)
	b.StartDate = start.Date
	b.EndDate = end.Date
	return b, nil
}

// FindBudget implements ports.BudgetReader
func (r *Repository) FindBudget(ctx context.Context, userID, categoryID int64, period core.BudgetPeriod, on core.Date) (*core.Budget, error) {
	day := on.Format(dateLayout)
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(
		`SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = ? AND category_id = ? AND period = ?
		AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		ORDER BY start_date DESC, id DESC LIMIT 1`), userID, categoryID, string(period), day, day)

	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find budget: %w", err)
	}
	return &b, nil
}

// ListBudgets implements ports.BudgetReader
func (r *Repository) ListBudgets(ctx context.Context, userID int64, period core.BudgetPeriod) ([]core.Budget, error) {
	stmt := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ?`
	args := []any{userID}
	if period != "" {
		stmt += ` AND period = ?`
		args = append(args, string(period))
	}
	rows, err := r.query(ctx, stmt+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListActiveGoals implements ports.GoalReader
func (r *Repository) ListActiveGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.query(ctx,
		`SELECT id, user_id, name, target_cents, current_cents, target_date
		FROM goals WHERE user_id = ? AND status = ? ORDER BY id`, userID, string(core.GoalActive))
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			g      = core.Goal{Status: core.GoalActive}
			target dateValue
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &target); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.TargetDate = target.Date
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListActiveRecurring implements ports.RecurringReader
func (r *Repository) ListActiveRecurring(ctx context.Context, userID int64, q ports.RecurringQuery) ([]core.RecurringSchedule, error) {
	stmt := `SELECT id, user_id, category_id, description, amount_cents, type, frequency, start_date
		FROM recurring_schedules WHERE user_id = ? AND active = TRUE`
	args := []any{userID}
	if q.Type != "" {
		stmt += ` AND type = ?`
		args = append(args, string(q.Type))
	}
	rows, err := r.query(ctx, stmt+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query recurring schedules: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringSchedule
	for rows.Next() {
		var (
			s         = core.RecurringSchedule{Active: true}
			typ, freq string
			start     dateValue
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.CategoryID, &s.Description, &s.Amount.Cents, &typ, &freq, &start); err != nil {
			return nil, fmt.Errorf("scan recurring schedule: %w", err)
		}
		s.Type = core.TransactionType(typ)
		s.Frequency = core.Frequency(freq)
		s.StartDate = start.Date
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListUserIDs implements ports.UserLister
func (r *Repository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.query(ctx,
		`SELECT user_id FROM categories UNION SELECT user_id FROM transactions ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UpsertPrediction implements ports.PredictionCache. Concurrent writers for
// the same key resolve last-write-wins.
func (r *Repository) UpsertPrediction(ctx context.Context, userID int64, p core.Prediction) error {
	factors, err := json.Marshal(p.Factors)
	if err != nil {
		return fmt.Errorf("encode factors: %w", err)
	}
	_, err = r.exec(ctx, `INSERT INTO category_predictions
		(user_id, category_id, month, predicted, confidence, lower_bound, upper_bound, algorithm, factors, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, category_id, month) DO UPDATE SET
			predicted = excluded.predicted,
			confidence = excluded.confidence,
			lower_bound = excluded.lower_bound,
			upper_bound = excluded.upper_bound,
			algorithm = excluded.algorithm,
			factors = excluded.factors,
			updated_at = excluded.updated_at`,
		userID, p.CategoryID, p.Month.String(), p.PredictedAmount, p.Confidence,
		p.LowerBound, p.UpperBound, p.Algorithm, string(factors), r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert prediction: %w", err)
	}

	r.logger.DebugContext(ctx, "Prediction upserted",
		log.FieldUserID, userID, log.FieldCategoryID, p.CategoryID, log.FieldMonth, p.Month.String())
	return nil
}

// GetPrediction implements ports.PredictionCache
func (r *Repository) GetPrediction(ctx context.Context, userID, categoryID int64, month core.Period) (*ports.CachedPrediction, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(
		`SELECT predicted, confidence, lower_bound, upper_bound, algorithm, factors, updated_at
		FROM category_predictions WHERE user_id = ? AND category_id = ? AND month = ?`),
		userID, categoryID, month.String())

	cp := ports.CachedPrediction{Prediction: core.Prediction{CategoryID: categoryID, Month: month}}
	var (
		factors []byte
		updated timeValue
	)
	err := row.Scan(&cp.PredictedAmount, &cp.Confidence, &cp.LowerBound, &cp.UpperBound, &cp.Algorithm, &factors, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	if err := json.Unmarshal(factors, &cp.Factors); err != nil {
		return nil, fmt.Errorf("decode factors: %w", err)
	}
	cp.UpdatedAt = updated.Time
	return &cp, nil
}
