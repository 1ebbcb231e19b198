package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"soletax/internal/core"
)

type fakeLedgerStore struct {
	providers  map[int64]core.Provider
	categories map[int64]core.Category
	expenses   []core.Expense
	incomes    []core.Income
	nextID     int64
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{
		providers: map[int64]core.Provider{
			1: {ID: 1, Name: "Telstra"},
			2: {ID: 2, Name: "GitHub", IsInternational: true},
		},
		categories: map[int64]core.Category{
			1: {ID: 1, Name: "Software", BasLabel: "1B"},
		},
		nextID: 10,
	}
}

func (f *fakeLedgerStore) GetProvider(_ context.Context, id int64) (*core.Provider, error) {
	p, ok := f.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %d: %w", id, core.ErrNotFound)
	}
	return &p, nil
}

func (f *fakeLedgerStore) GetCategory(_ context.Context, id int64) (*core.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return &c, nil
}

func (f *fakeLedgerStore) CreateProvider(_ context.Context, p core.Provider) (int64, error) {
	p.ID = f.nextID
	f.nextID++
	f.providers[p.ID] = p
	return p.ID, nil
}

func (f *fakeLedgerStore) ListProviders(_ context.Context) ([]core.Provider, error) {
	out := make([]core.Provider, 0, len(f.providers))
	for _, p := range f.providers {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeLedgerStore) ListCategories(_ context.Context) ([]core.Category, error) {
	out := make([]core.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeLedgerStore) CreateExpense(_ context.Context, e core.Expense) (int64, error) {
	e.ID = f.nextID
	f.nextID++
	f.expenses = append(f.expenses, e)
	return e.ID, nil
}

func (f *fakeLedgerStore) ListExpenses(_ context.Context, period core.DateRange) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range f.expenses {
		if period.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerStore) CreateIncome(_ context.Context, in core.Income) (int64, error) {
	in.ID = f.nextID
	f.nextID++
	f.incomes = append(f.incomes, in)
	return in.ID, nil
}

func (f *fakeLedgerStore) ListIncomes(_ context.Context, period core.DateRange) ([]core.Income, error) {
	var out []core.Income
	for _, in := range f.incomes {
		if period.Contains(in.Date) {
			out = append(out, in)
		}
	}
	return out, nil
}

func TestCreateExpenseAutoGST(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerStore())

	e, err := svc.CreateExpense(context.Background(), ExpenseInput{
		Date:        date(2025, time.August, 1),
		Description: "Editor licence",
		AmountCents: 11000,
		BizPercent:  100,
		ProviderID:  1,
		CategoryID:  1,
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if e.GST.Cents != 1000 {
		t.Errorf("GST = %d, want 1000 (one eleventh of 11000)", e.GST.Cents)
	}
	if e.ID == 0 {
		t.Error("expense ID not assigned")
	}
}

func TestCreateExpenseInternationalZeroGST(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerStore())

	supplied := int64(1000)
	e, err := svc.CreateExpense(context.Background(), ExpenseInput{
		Date:        date(2025, time.August, 1),
		Description: "Cloud hosting",
		AmountCents: 11000,
		GSTCents:    &supplied,
		BizPercent:  100,
		ProviderID:  2,
		CategoryID:  1,
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if e.GST.Cents != 0 {
		t.Errorf("GST = %d, want 0 for international provider", e.GST.Cents)
	}
}

func TestCreateExpenseRejectsUnknownRefs(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerStore())

	in := ExpenseInput{
		Date:        date(2025, time.August, 1),
		Description: "Editor licence",
		AmountCents: 11000,
		BizPercent:  100,
		ProviderID:  99,
		CategoryID:  1,
	}
	if _, err := svc.CreateExpense(context.Background(), in); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown provider: error = %v, want ErrNotFound", err)
	}

	in.ProviderID = 1
	in.CategoryID = 99
	if _, err := svc.CreateExpense(context.Background(), in); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown category: error = %v, want ErrNotFound", err)
	}
}

func TestCreateIncome(t *testing.T) {
	store := newFakeLedgerStore()
	svc := NewLedgerService(store)

	in, err := svc.CreateIncome(context.Background(), IncomeInput{
		Date:        date(2025, time.July, 3),
		Description: "Invoice 42",
		TotalCents:  165000,
		IsPaid:      true,
	})
	if err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}
	if in.GST.Cents != 15000 {
		t.Errorf("GST = %d, want 15000 (auto-calculated)", in.GST.Cents)
	}

	supplied := int64(14999)
	in, err = svc.CreateIncome(context.Background(), IncomeInput{
		Date:        date(2025, time.July, 4),
		Description: "Invoice 43",
		TotalCents:  165000,
		GSTCents:    &supplied,
	})
	if err != nil {
		t.Fatalf("CreateIncome() with explicit GST error = %v", err)
	}
	if in.GST.Cents != 14999 {
		t.Errorf("GST = %d, want the supplied 14999", in.GST.Cents)
	}

	if len(store.incomes) != 2 {
		t.Errorf("store has %d incomes, want 2", len(store.incomes))
	}
}

func TestCreateIncomeRejectsGSTAboveTotal(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerStore())

	supplied := int64(200000)
	_, err := svc.CreateIncome(context.Background(), IncomeInput{
		Date:        date(2025, time.July, 3),
		Description: "Invoice 44",
		TotalCents:  165000,
		GSTCents:    &supplied,
	})
	if !errors.Is(err, core.ErrGSTExceedsAmount) {
		t.Errorf("error = %v, want ErrGSTExceedsAmount", err)
	}
}

func TestCreateProviderEmptyName(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerStore())

	if _, err := svc.CreateProvider(context.Background(), "", false); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("error = %v, want ErrEmptyName", err)
	}
	p, err := svc.CreateProvider(context.Background(), "AWS", true)
	if err != nil {
		t.Fatalf("CreateProvider() error = %v", err)
	}
	if !p.IsInternational || p.ID == 0 {
		t.Errorf("provider = %+v, want international with assigned ID", p)
	}
}
