package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"soletax/internal/core"
)

// ErrStaleTemplate is returned when a template's guarded advance matches no
// row: another run already generated for this due date and moved the
// template forward.
var ErrStaleTemplate = errors.New("template already advanced by a concurrent run")

const recurringColumns = `id, name, description, amount_cents, gst_cents, biz_percent,
	schedule, day_of_month, start_date, end_date, is_active, last_generated_date,
	next_due_date, provider_id, category_id`

func scanRecurring(scan func(...any) error) (*core.RecurringExpense, error) {
	var re core.RecurringExpense
	var startStr, dueStr string
	var endStr, lastStr sql.NullString
	err := scan(&re.ID, &re.Name, &re.Description, &re.Amount.Cents, &re.GST.Cents,
		&re.BizPercent, &re.Schedule, &re.DayOfMonth, &startStr, &endStr,
		&re.IsActive, &lastStr, &dueStr, &re.ProviderID, &re.CategoryID)
	if err != nil {
		return nil, err
	}
	if re.StartDate, err = parseStoredDate(startStr); err != nil {
		return nil, err
	}
	if re.NextDueDate, err = parseStoredDate(dueStr); err != nil {
		return nil, err
	}
	if re.EndDate, err = parseNullDate(endStr); err != nil {
		return nil, err
	}
	if re.LastGeneratedDate, err = parseNullDate(lastStr); err != nil {
		return nil, err
	}
	return &re, nil
}

func (r *Repository) CreateRecurringExpense(ctx context.Context, re core.RecurringExpense) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_expenses
		 (name, description, amount_cents, gst_cents, biz_percent, schedule, day_of_month,
		  start_date, end_date, is_active, last_generated_date, next_due_date, provider_id, category_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		re.Name, re.Description, re.Amount.Cents, re.GST.Cents, re.BizPercent,
		re.Schedule, re.DayOfMonth, fmtDate(re.StartDate), fmtNullDate(re.EndDate),
		re.IsActive, fmtNullDate(re.LastGeneratedDate), fmtDate(re.NextDueDate),
		re.ProviderID, re.CategoryID)
	if err != nil {
		return 0, fmt.Errorf("create recurring expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring expense insert id: %w", err)
	}

	slog.InfoContext(ctx, "Recurring expense template saved",
		"id", id,
		"name", re.Name,
		"schedule", re.Schedule,
		"next_due_date", fmtDate(re.NextDueDate))

	return id, nil
}

// GetRecurringExpense returns a template by id, or core.ErrNotFound.
func (r *Repository) GetRecurringExpense(ctx context.Context, id int64) (*core.RecurringExpense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses WHERE id = ?`, id)
	re, err := scanRecurring(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recurring expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get recurring expense: %w", err)
	}
	return re, nil
}

func (r *Repository) ListRecurringExpenses(ctx context.Context) ([]core.RecurringExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_expenses ORDER BY next_due_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringExpense
	for rows.Next() {
		re, err := scanRecurring(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		out = append(out, *re)
	}
	return out, rows.Err()
}

// ListDueRecurringExpenses returns active templates with a due date at or
// before the reference date, oldest due first.
func (r *Repository) ListDueRecurringExpenses(ctx context.Context, asOf time.Time) ([]core.RecurringExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+`
		 FROM recurring_expenses
		 WHERE is_active = 1 AND next_due_date <= ?
		 ORDER BY next_due_date, id`,
		fmtDate(asOf))
	if err != nil {
		return nil, fmt.Errorf("list due recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringExpense
	for rows.Next() {
		re, err := scanRecurring(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan due recurring expense: %w", err)
		}
		out = append(out, *re)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateRecurringExpense(ctx context.Context, re core.RecurringExpense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_expenses
		 SET name = ?, description = ?, amount_cents = ?, gst_cents = ?, biz_percent = ?,
		     schedule = ?, day_of_month = ?, start_date = ?, end_date = ?, is_active = ?,
		     next_due_date = ?, provider_id = ?, category_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		re.Name, re.Description, re.Amount.Cents, re.GST.Cents, re.BizPercent,
		re.Schedule, re.DayOfMonth, fmtDate(re.StartDate), fmtNullDate(re.EndDate),
		re.IsActive, fmtDate(re.NextDueDate), re.ProviderID, re.CategoryID, re.ID)
	if err != nil {
		return fmt.Errorf("update recurring expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update recurring expense rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recurring expense %d: %w", re.ID, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteRecurringExpense(ctx context.Context, id int64) error {
	// Generated entries keep their template reference for audit; clear it
	// before removing the template.
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete recurring expense: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE expenses SET recurring_expense_id = NULL WHERE recurring_expense_id = ?`, id); err != nil {
		return fmt.Errorf("unlink generated expenses: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM recurring_expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recurring expense rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recurring expense %d: %w", id, core.ErrNotFound)
	}
	return tx.Commit()
}

// GenerateFromTemplate atomically creates a generated expense entry and
// advances its template. The UPDATE is guarded on the template's current
// next_due_date: if a concurrent run already advanced it, zero rows match,
// the transaction rolls back, and ErrStaleTemplate is returned. Entry
// creation and template advance therefore commit together or not at all.
func (r *Repository) GenerateFromTemplate(ctx context.Context, tmpl core.RecurringExpense, entry core.Expense, nextDue time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin generate: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE recurring_expenses
		 SET last_generated_date = ?, next_due_date = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND next_due_date = ?`,
		fmtDate(entry.Date), fmtDate(nextDue), tmpl.ID, fmtDate(tmpl.NextDueDate))
	if err != nil {
		return 0, fmt.Errorf("advance template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("advance template rows: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("template %d due %s: %w", tmpl.ID, fmtDate(tmpl.NextDueDate), ErrStaleTemplate)
	}

	ins, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (date, description, amount_cents, gst_cents, biz_percent, provider_id, category_id, recurring_expense_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fmtDate(entry.Date), entry.Description, entry.Amount.Cents, entry.GST.Cents,
		entry.BizPercent, entry.ProviderID, entry.CategoryID, tmpl.ID)
	if err != nil {
		return 0, fmt.Errorf("insert generated expense: %w", err)
	}
	expenseID, err := ins.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("generated expense insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit generate: %w", err)
	}

	slog.InfoContext(ctx, "Generated expense from template",
		"template_id", tmpl.ID,
		"expense_id", expenseID,
		"date", fmtDate(entry.Date),
		"next_due_date", fmtDate(nextDue))

	return expenseID, nil
}
