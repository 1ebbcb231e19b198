package services

import (
	"context"
	"time"

	"soletax/internal/core"
)

// LedgerStore is the slice of the store the ledger service needs for
// manual entry creation and listing.
type LedgerStore interface {
	GetProvider(ctx context.Context, id int64) (*core.Provider, error)
	GetCategory(ctx context.Context, id int64) (*core.Category, error)
	CreateProvider(ctx context.Context, p core.Provider) (int64, error)
	ListProviders(ctx context.Context) ([]core.Provider, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateExpense(ctx context.Context, e core.Expense) (int64, error)
	ListExpenses(ctx context.Context, period core.DateRange) ([]core.Expense, error)
	CreateIncome(ctx context.Context, in core.Income) (int64, error)
	ListIncomes(ctx context.Context, period core.DateRange) ([]core.Income, error)
}

// LedgerService handles manual income and expense entries plus the
// provider and category reference data.
type LedgerService struct {
	store LedgerStore
}

func NewLedgerService(store LedgerStore) *LedgerService {
	return &LedgerService{store: store}
}

// ExpenseInput carries caller-supplied fields for a manual expense.
// GSTCents nil means auto-calculate from the GST-inclusive amount.
type ExpenseInput struct {
	Date        time.Time
	Description string
	AmountCents int64
	GSTCents    *int64
	BizPercent  int64
	ProviderID  int64
	CategoryID  int64
}

// IncomeInput carries caller-supplied fields for an income entry.
type IncomeInput struct {
	Date        time.Time
	Description string
	TotalCents  int64
	GSTCents    *int64
	IsPaid      bool
}

func (s *LedgerService) CreateExpense(ctx context.Context, in ExpenseInput) (*core.Expense, error) {
	provider, err := s.store.GetProvider(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	e := core.Expense{
		Date:        in.Date,
		Description: in.Description,
		Amount:      core.Money{Cents: in.AmountCents},
		GST:         core.Money{Cents: resolveGST(provider.IsInternational, in.AmountCents, in.GSTCents)},
		BizPercent:  in.BizPercent,
		ProviderID:  in.ProviderID,
		CategoryID:  in.CategoryID,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	id, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return &e, nil
}

func (s *LedgerService) CreateIncome(ctx context.Context, in IncomeInput) (*core.Income, error) {
	gst := core.GSTFromInclusiveTotal(in.TotalCents)
	if in.GSTCents != nil {
		gst = *in.GSTCents
	}

	entry := core.Income{
		Date:        in.Date,
		Description: in.Description,
		Total:       core.Money{Cents: in.TotalCents},
		GST:         core.Money{Cents: gst},
		IsPaid:      in.IsPaid,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	id, err := s.store.CreateIncome(ctx, entry)
	if err != nil {
		return nil, err
	}
	entry.ID = id
	return &entry, nil
}

func (s *LedgerService) CreateProvider(ctx context.Context, name string, international bool) (*core.Provider, error) {
	if name == "" {
		return nil, core.ErrEmptyName
	}
	p := core.Provider{Name: name, IsInternational: international}
	id, err := s.store.CreateProvider(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

func (s *LedgerService) ListProviders(ctx context.Context) ([]core.Provider, error) {
	return s.store.ListProviders(ctx)
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *LedgerService) ListExpenses(ctx context.Context, period core.DateRange) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, period)
}

func (s *LedgerService) ListIncomes(ctx context.Context, period core.DateRange) ([]core.Income, error) {
	return s.store.ListIncomes(ctx, period)
}
