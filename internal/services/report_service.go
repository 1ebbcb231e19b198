// Package services provides business logic and orchestration between the
// pure core and the ledger store.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"soletax/internal/cache"
	"soletax/internal/core"
	"soletax/internal/storage"
)

// LedgerReader is the read side of the ledger store needed for period
// reports.
type LedgerReader interface {
	SumIncome(ctx context.Context, period core.DateRange, paidOnly bool) (storage.IncomeAggregate, error)
	SumIncomeWithPaidSplit(ctx context.Context, period core.DateRange) (storage.FyIncomeAggregate, error)
	SumClaimableExpenseGST(ctx context.Context, period core.DateRange) (storage.ExpenseAggregate, error)
	SumExpenseTotals(ctx context.Context, period core.DateRange) (storage.ExpenseTotals, error)
	ExpensesByCategory(ctx context.Context, period core.DateRange) ([]core.CategorySummary, error)
}

// ReportService computes BAS quarter and financial-year summaries.
type ReportService struct {
	ledger   LedgerReader
	basCache *cache.LRUCache[core.BasSummary]
	fyCache  *cache.LRUCache[core.FySummary]
}

func NewReportService(ledger LedgerReader, cacheSize int, cacheTTL time.Duration) *ReportService {
	return &ReportService{
		ledger:   ledger,
		basCache: cache.NewLRUCache[core.BasSummary](cacheSize, cacheTTL),
		fyCache:  cache.NewLRUCache[core.FySummary](cacheSize, cacheTTL),
	}
}

// Invalidate drops all cached summaries. Called after any ledger write.
func (s *ReportService) Invalidate() {
	s.basCache.Clear()
	s.fyCache.Clear()
}

// BasSummary computes the BAS report for a quarter. Quarter and basis are
// normalized case-insensitively; an empty basis defaults to accrual.
// Income sums follow the basis filter (cash counts paid rows only); expense
// claimable GST is never filtered by basis and counts domestic providers
// only. now is the caller's reference time for the year-bound check.
func (s *ReportService) BasSummary(ctx context.Context, quarter string, financialYear int, basis string, now time.Time) (*core.BasSummary, error) {
	q, err := core.ParseQuarter(quarter)
	if err != nil {
		return nil, err
	}
	b, err := core.ParseBasis(basis)
	if err != nil {
		return nil, err
	}
	if err := validFinancialYear(financialYear, now); err != nil {
		return nil, err
	}
	period, err := core.QuarterRange(q, financialYear)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("bas:%s:%d:%s", q, financialYear, b)
	if cached, ok := s.basCache.Get(key); ok {
		slog.DebugContext(ctx, "BAS summary cache hit", "quarter", q, "financial_year", financialYear, "basis", b)
		return &cached, nil
	}

	// Income and expense aggregates touch disjoint rows; run them in
	// parallel and combine after both complete.
	var incomeAgg storage.IncomeAggregate
	var expenseAgg storage.ExpenseAggregate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomeAgg, err = s.ledger.SumIncome(gctx, period, b == core.Cash)
		return err
	})
	g.Go(func() error {
		var err error
		expenseAgg, err = s.ledger.SumClaimableExpenseGST(gctx, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bas summary aggregates: %w", err)
	}

	summary := core.BasSummary{
		Quarter:             q,
		FinancialYear:       financialYear,
		Basis:               b,
		PeriodStart:         period.Start,
		PeriodEnd:           period.End,
		G1TotalSalesCents:   incomeAgg.TotalCents,
		Label1aGSTCollected: incomeAgg.GSTCents,
		Label1bGSTPaid:      expenseAgg.ClaimableGSTCents,
		NetGSTPayableCents:  incomeAgg.GSTCents - expenseAgg.ClaimableGSTCents,
		IncomeCount:         incomeAgg.Count,
		ExpenseCount:        expenseAgg.Count,
	}

	s.basCache.Set(key, summary)
	return &summary, nil
}

// FySummary computes the full financial-year report. The financial year must
// lie between 2000 and two years past the current calendar year; now is the
// caller's reference time, threaded in to keep the check deterministic.
func (s *ReportService) FySummary(ctx context.Context, financialYear int, now time.Time) (*core.FySummary, error) {
	if err := validFinancialYear(financialYear, now); err != nil {
		return nil, err
	}
	period := core.FYRange(financialYear)

	key := fmt.Sprintf("fy:%d", financialYear)
	if cached, ok := s.fyCache.Get(key); ok {
		slog.DebugContext(ctx, "FY summary cache hit", "financial_year", financialYear)
		return &cached, nil
	}

	var incomeAgg storage.FyIncomeAggregate
	var expenseTotals storage.ExpenseTotals
	var claimable storage.ExpenseAggregate
	var byCategory []core.CategorySummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomeAgg, err = s.ledger.SumIncomeWithPaidSplit(gctx, period)
		return err
	})
	g.Go(func() error {
		var err error
		expenseTotals, err = s.ledger.SumExpenseTotals(gctx, period)
		return err
	})
	g.Go(func() error {
		var err error
		claimable, err = s.ledger.SumClaimableExpenseGST(gctx, period)
		return err
	})
	g.Go(func() error {
		var err error
		byCategory, err = s.ledger.ExpensesByCategory(gctx, period)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fy summary aggregates: %w", err)
	}

	summary := core.FySummary{
		FinancialYear: financialYear,
		FYLabel:       core.FYLabel(financialYear),
		PeriodStart:   period.Start,
		PeriodEnd:     period.End,
		Income: core.FyIncomeSummary{
			TotalIncomeCents:  incomeAgg.TotalCents,
			PaidIncomeCents:   incomeAgg.PaidCents,
			UnpaidIncomeCents: incomeAgg.TotalCents - incomeAgg.PaidCents,
			GSTCollectedCents: incomeAgg.GSTCents,
			Count:             incomeAgg.Count,
		},
		Expenses: core.FyExpenseSummary{
			TotalExpensesCents: expenseTotals.TotalCents,
			GSTPaidCents:       claimable.ClaimableGSTCents,
			Count:              expenseTotals.Count,
			ByCategory:         byCategory,
		},
		NetProfitCents:     incomeAgg.TotalCents - expenseTotals.TotalCents,
		NetGSTPayableCents: incomeAgg.GSTCents - claimable.ClaimableGSTCents,
	}

	s.fyCache.Set(key, summary)
	return &summary, nil
}

// validFinancialYear bounds a caller-supplied financial year to a sane
// window: 2000 through two years past the reference time's calendar year.
func validFinancialYear(fy int, now time.Time) error {
	maxYear := now.Year() + 2
	if fy < 2000 || fy > maxYear {
		return fmt.Errorf("%w: %d (must be between 2000 and %d)", core.ErrInvalidFinancialYear, fy, maxYear)
	}
	return nil
}

// QuarterRange pairs a quarter with its resolved date range for listings.
type QuarterRange struct {
	Quarter core.Quarter   `json:"quarter"`
	Range   core.DateRange `json:"range"`
}

// QuarterRanges returns the four BAS quarter date ranges of a financial
// year, in calendar order.
func (s *ReportService) QuarterRanges(financialYear int) ([]QuarterRange, error) {
	quarters := []core.Quarter{core.Q1, core.Q2, core.Q3, core.Q4}
	out := make([]QuarterRange, 0, len(quarters))
	for _, q := range quarters {
		r, err := core.QuarterRange(q, financialYear)
		if err != nil {
			return nil, err
		}
		out = append(out, QuarterRange{Quarter: q, Range: r})
	}
	return out, nil
}
