package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"soletax/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// Repository is the SQLite-backed ledger store.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func fmtDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseStoredDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return t, nil
}

func fmtNullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmtDate(*t), Valid: true}
}

func parseNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseStoredDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetProvider returns a provider by id, or core.ErrNotFound.
func (r *Repository) GetProvider(ctx context.Context, id int64) (*core.Provider, error) {
	var p core.Provider
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, is_international FROM providers WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.IsInternational)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("provider %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get provider: %w", err)
	}
	return &p, nil
}

func (r *Repository) CreateProvider(ctx context.Context, p core.Provider) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO providers (name, is_international) VALUES (?, ?)`,
		p.Name, p.IsInternational)
	if err != nil {
		return 0, fmt.Errorf("create provider: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("provider insert id: %w", err)
	}
	return id, nil
}

func (r *Repository) ListProviders(ctx context.Context) ([]core.Provider, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_international FROM providers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var out []core.Provider
	for rows.Next() {
		var p core.Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.IsInternational); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetCategory returns a category by id, or core.ErrNotFound.
func (r *Repository) GetCategory(ctx context.Context, id int64) (*core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, bas_label FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.BasLabel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, bas_label FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.BasLabel); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, description, amount_cents, gst_cents, biz_percent, provider_id, category_id, recurring_expense_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fmtDate(e.Date), e.Description, e.Amount.Cents, e.GST.Cents, e.BizPercent,
		e.ProviderID, e.CategoryID, e.RecurringExpenseID)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"date", fmtDate(e.Date))

	return id, nil
}

func (r *Repository) ListExpenses(ctx context.Context, period core.DateRange) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, amount_cents, gst_cents, biz_percent, provider_id, category_id, recurring_expense_id
		 FROM expenses
		 WHERE date BETWEEN ? AND ?
		 ORDER BY date, id`,
		fmtDate(period.Start), fmtDate(period.End))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var e core.Expense
		var dateStr string
		var recurringID sql.NullInt64
		if err := rows.Scan(&e.ID, &dateStr, &e.Description, &e.Amount.Cents, &e.GST.Cents,
			&e.BizPercent, &e.ProviderID, &e.CategoryID, &recurringID); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = parseStoredDate(dateStr); err != nil {
			return nil, err
		}
		if recurringID.Valid {
			e.RecurringExpenseID = &recurringID.Int64
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) CreateIncome(ctx context.Context, inc core.Income) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (date, description, total_cents, gst_cents, is_paid)
		 VALUES (?, ?, ?, ?, ?)`,
		fmtDate(inc.Date), inc.Description, inc.Total.Cents, inc.GST.Cents, inc.IsPaid)
	if err != nil {
		return 0, fmt.Errorf("create income: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("income insert id: %w", err)
	}

	slog.InfoContext(ctx, "Income saved",
		"id", id,
		"description", inc.Description,
		"total_cents", inc.Total.Cents,
		"is_paid", inc.IsPaid)

	return id, nil
}

func (r *Repository) ListIncomes(ctx context.Context, period core.DateRange) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, total_cents, gst_cents, is_paid
		 FROM incomes
		 WHERE date BETWEEN ? AND ?
		 ORDER BY date, id`,
		fmtDate(period.Start), fmtDate(period.End))
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		var inc core.Income
		var dateStr string
		if err := rows.Scan(&inc.ID, &dateStr, &inc.Description, &inc.Total.Cents,
			&inc.GST.Cents, &inc.IsPaid); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if inc.Date, err = parseStoredDate(dateStr); err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}
