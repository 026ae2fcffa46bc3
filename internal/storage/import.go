package storage

import (
	"context"
	"fmt"

	"cashcast/internal/core"
	"cashcast/internal/log"
	"cashcast/internal/ports"
)

// Import writes every record of ds in a single transaction. Record ids are
// assigned by the database; category ids are preserved so transactions keep
// pointing at them.
func (r *Repository) Import(ctx context.Context, ds ports.Dataset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	ins := func(q string, args ...any) error {
		_, err := tx.ExecContext(ctx, r.dialect.Rebind(q), args...)
		return err
	}

	for _, c := range ds.Categories {
		if err := ins(`INSERT INTO categories (id, user_id, name, type) VALUES (?, ?, ?, ?)`,
			c.ID, c.UserID, c.Name, string(c.Type)); err != nil {
			return fmt.Errorf("insert category %d: %w", c.ID, err)
		}
	}
	for _, a := range ds.Accounts {
		if err := ins(`INSERT INTO accounts (user_id, name, balance_cents, active) VALUES (?, ?, ?, ?)`,
			a.UserID, a.Name, a.Balance.Cents, a.Active); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
	}
	for _, t := range ds.Transactions {
		if err := ins(`INSERT INTO transactions (user_id, category_id, amount_cents, date, type, status) VALUES (?, ?, ?, ?, ?, ?)`,
			t.UserID, t.CategoryID, t.Amount.Cents, t.Date.Format(dateLayout), string(t.Type), string(t.Status)); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	for _, b := range ds.Budgets {
		if err := ins(`INSERT INTO budgets (user_id, category_id, amount_cents, period, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?)`,
			b.UserID, b.CategoryID, b.Amount.Cents, string(b.Period), b.StartDate.Format(dateLayout), nullableDate(b.EndDate)); err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
	}
	for _, g := range ds.Goals {
		status := g.Status
		if status == "" {
			status = core.GoalActive
		}
		if err := ins(`INSERT INTO goals (user_id, name, target_cents, current_cents, target_date, status) VALUES (?, ?, ?, ?, ?, ?)`,
			g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, nullableDate(g.TargetDate), string(status)); err != nil {
			return fmt.Errorf("insert goal: %w", err)
		}
	}
	for _, s := range ds.Recurring {
		if err := ins(`INSERT INTO recurring_schedules (user_id, category_id, description, amount_cents, type, frequency, start_date, active) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.UserID, s.CategoryID, s.Description, s.Amount.Cents, string(s.Type), string(s.Frequency), s.StartDate.Format(dateLayout), s.Active); err != nil {
			return fmt.Errorf("insert recurring schedule: %w", err)
		}
	}

	if r.dialect == Postgres {
		// Explicit ids leave the serial behind.
		if _, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('categories', 'id'), COALESCE(MAX(id), 1)) FROM categories`); err != nil {
			return fmt.Errorf("reset category sequence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	r.logger.InfoContext(ctx, "Dataset imported",
		log.FieldOperation, "import",
		"transactions", len(ds.Transactions),
		"categories", len(ds.Categories))
	return nil
}

