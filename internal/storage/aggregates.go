package storage

import (
	"context"
	"fmt"

	"soletax/internal/core"
)

// IncomeAggregate is the summed view of income rows over a period.
type IncomeAggregate struct {
	TotalCents int64
	GSTCents   int64
	Count      int64
}

// FyIncomeAggregate additionally splits the total by paid flag.
type FyIncomeAggregate struct {
	TotalCents int64
	PaidCents  int64
	GSTCents   int64
	Count      int64
}

// ExpenseAggregate is the summed view of domestic-provider expense rows,
// with GST apportioned by business percentage.
type ExpenseAggregate struct {
	ClaimableGSTCents int64
	Count             int64
}

// ExpenseTotals sums expense amounts across all providers.
type ExpenseTotals struct {
	TotalCents int64
	Count      int64
}

// SumIncome aggregates income rows dated within the period. With paidOnly
// set, unpaid rows are excluded (cash basis); otherwise all rows count
// (accrual basis).
func (r *Repository) SumIncome(ctx context.Context, period core.DateRange, paidOnly bool) (IncomeAggregate, error) {
	query := `SELECT COALESCE(SUM(total_cents), 0), COALESCE(SUM(gst_cents), 0), COUNT(*)
	          FROM incomes WHERE date BETWEEN ? AND ?`
	if paidOnly {
		query += ` AND is_paid = 1`
	}

	var agg IncomeAggregate
	err := r.db.QueryRowContext(ctx, query, fmtDate(period.Start), fmtDate(period.End)).
		Scan(&agg.TotalCents, &agg.GSTCents, &agg.Count)
	if err != nil {
		return IncomeAggregate{}, fmt.Errorf("sum income: %w", err)
	}
	return agg, nil
}

// SumIncomeWithPaidSplit aggregates income rows for a full financial year,
// returning both the unconditional total and the paid-only portion in one
// pass.
func (r *Repository) SumIncomeWithPaidSplit(ctx context.Context, period core.DateRange) (FyIncomeAggregate, error) {
	var agg FyIncomeAggregate
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_cents), 0),
		        COALESCE(SUM(CASE WHEN is_paid = 1 THEN total_cents ELSE 0 END), 0),
		        COALESCE(SUM(gst_cents), 0),
		        COUNT(*)
		 FROM incomes WHERE date BETWEEN ? AND ?`,
		fmtDate(period.Start), fmtDate(period.End)).
		Scan(&agg.TotalCents, &agg.PaidCents, &agg.GSTCents, &agg.Count)
	if err != nil {
		return FyIncomeAggregate{}, fmt.Errorf("sum income with paid split: %w", err)
	}
	return agg, nil
}

// SumClaimableExpenseGST aggregates the business-use portion of GST over
// domestic-provider expenses in the period. SQLite integer division matches
// core.ApplyPercent exactly for the non-negative operands stored here, so
// the persisted aggregate reproduces the in-process computation bit for bit.
func (r *Repository) SumClaimableExpenseGST(ctx context.Context, period core.DateRange) (ExpenseAggregate, error) {
	var agg ExpenseAggregate
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(e.gst_cents * e.biz_percent / 100), 0), COUNT(*)
		 FROM expenses e
		 JOIN providers p ON p.id = e.provider_id
		 WHERE e.date BETWEEN ? AND ? AND p.is_international = 0`,
		fmtDate(period.Start), fmtDate(period.End)).
		Scan(&agg.ClaimableGSTCents, &agg.Count)
	if err != nil {
		return ExpenseAggregate{}, fmt.Errorf("sum claimable expense gst: %w", err)
	}
	return agg, nil
}

// SumExpenseTotals aggregates expense amounts across all providers in the
// period.
func (r *Repository) SumExpenseTotals(ctx context.Context, period core.DateRange) (ExpenseTotals, error) {
	var agg ExpenseTotals
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0), COUNT(*)
		 FROM expenses WHERE date BETWEEN ? AND ?`,
		fmtDate(period.Start), fmtDate(period.End)).
		Scan(&agg.TotalCents, &agg.Count)
	if err != nil {
		return ExpenseTotals{}, fmt.Errorf("sum expense totals: %w", err)
	}
	return agg, nil
}

// ExpensesByCategory groups expenses in the period by category, ordered by
// total descending. Claimable GST counts domestic providers only; totals and
// counts include every provider.
func (r *Repository) ExpensesByCategory(ctx context.Context, period core.DateRange) ([]core.CategorySummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.bas_label,
		        COALESCE(SUM(e.amount_cents), 0),
		        COALESCE(SUM(CASE WHEN p.is_international = 0 THEN e.gst_cents * e.biz_percent / 100 ELSE 0 END), 0),
		        COUNT(*)
		 FROM expenses e
		 JOIN categories c ON c.id = e.category_id
		 JOIN providers p ON p.id = e.provider_id
		 WHERE e.date BETWEEN ? AND ?
		 GROUP BY c.id, c.name, c.bas_label
		 ORDER BY SUM(e.amount_cents) DESC`,
		fmtDate(period.Start), fmtDate(period.End))
	if err != nil {
		return nil, fmt.Errorf("expenses by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategorySummary
	for rows.Next() {
		var cs core.CategorySummary
		if err := rows.Scan(&cs.CategoryID, &cs.Name, &cs.BasLabel,
			&cs.TotalCents, &cs.GSTCents, &cs.Count); err != nil {
			return nil, fmt.Errorf("scan category summary: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}
