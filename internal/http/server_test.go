package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"soletax/internal/core"
	"soletax/internal/services"
	"soletax/internal/storage"
)

// fakeStore backs every service interface with in-memory state.
type fakeStore struct {
	providers  map[int64]core.Provider
	categories map[int64]core.Category
	templates  map[int64]core.RecurringExpense
	expenses   []core.Expense
	incomes    []core.Income
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		providers: map[int64]core.Provider{
			1: {ID: 1, Name: "Telstra"},
			2: {ID: 2, Name: "GitHub", IsInternational: true},
		},
		categories: map[int64]core.Category{
			1: {ID: 1, Name: "Software", BasLabel: "1B"},
		},
		templates: map[int64]core.RecurringExpense{},
		nextID:    100,
	}
}

func (f *fakeStore) GetProvider(_ context.Context, id int64) (*core.Provider, error) {
	p, ok := f.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %d: %w", id, core.ErrNotFound)
	}
	return &p, nil
}

func (f *fakeStore) GetCategory(_ context.Context, id int64) (*core.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return &c, nil
}

func (f *fakeStore) CreateProvider(_ context.Context, p core.Provider) (int64, error) {
	p.ID = f.nextID
	f.nextID++
	f.providers[p.ID] = p
	return p.ID, nil
}

func (f *fakeStore) ListProviders(_ context.Context) ([]core.Provider, error) {
	out := make([]core.Provider, 0, len(f.providers))
	for _, p := range f.providers {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) ListCategories(_ context.Context) ([]core.Category, error) {
	out := make([]core.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) CreateExpense(_ context.Context, e core.Expense) (int64, error) {
	e.ID = f.nextID
	f.nextID++
	f.expenses = append(f.expenses, e)
	return e.ID, nil
}

func (f *fakeStore) ListExpenses(_ context.Context, period core.DateRange) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range f.expenses {
		if period.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateIncome(_ context.Context, in core.Income) (int64, error) {
	in.ID = f.nextID
	f.nextID++
	f.incomes = append(f.incomes, in)
	return in.ID, nil
}

func (f *fakeStore) ListIncomes(_ context.Context, period core.DateRange) ([]core.Income, error) {
	var out []core.Income
	for _, in := range f.incomes {
		if period.Contains(in.Date) {
			out = append(out, in)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateRecurringExpense(_ context.Context, re core.RecurringExpense) (int64, error) {
	re.ID = f.nextID
	f.nextID++
	f.templates[re.ID] = re
	return re.ID, nil
}

func (f *fakeStore) GetRecurringExpense(_ context.Context, id int64) (*core.RecurringExpense, error) {
	re, ok := f.templates[id]
	if !ok {
		return nil, fmt.Errorf("recurring expense %d: %w", id, core.ErrNotFound)
	}
	return &re, nil
}

func (f *fakeStore) ListRecurringExpenses(_ context.Context) ([]core.RecurringExpense, error) {
	out := make([]core.RecurringExpense, 0, len(f.templates))
	for _, re := range f.templates {
		out = append(out, re)
	}
	return out, nil
}

func (f *fakeStore) UpdateRecurringExpense(_ context.Context, re core.RecurringExpense) error {
	if _, ok := f.templates[re.ID]; !ok {
		return fmt.Errorf("recurring expense %d: %w", re.ID, core.ErrNotFound)
	}
	f.templates[re.ID] = re
	return nil
}

func (f *fakeStore) DeleteRecurringExpense(_ context.Context, id int64) error {
	if _, ok := f.templates[id]; !ok {
		return fmt.Errorf("recurring expense %d: %w", id, core.ErrNotFound)
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeStore) ListDueRecurringExpenses(_ context.Context, asOf time.Time) ([]core.RecurringExpense, error) {
	var out []core.RecurringExpense
	for _, re := range f.templates {
		if re.IsActive && !re.NextDueDate.After(asOf) {
			out = append(out, re)
		}
	}
	return out, nil
}

func (f *fakeStore) GenerateFromTemplate(_ context.Context, tmpl core.RecurringExpense, entry core.Expense, nextDue time.Time) (int64, error) {
	stored, ok := f.templates[tmpl.ID]
	if !ok {
		return 0, fmt.Errorf("recurring expense %d: %w", tmpl.ID, core.ErrNotFound)
	}
	if !stored.NextDueDate.Equal(tmpl.NextDueDate) {
		return 0, storage.ErrStaleTemplate
	}
	id := f.nextID
	f.nextID++
	entry.ID = id
	entry.RecurringExpenseID = &tmpl.ID
	f.expenses = append(f.expenses, entry)
	generated := entry.Date
	stored.LastGeneratedDate = &generated
	stored.NextDueDate = nextDue
	f.templates[tmpl.ID] = stored
	return id, nil
}

func (f *fakeStore) SumIncome(_ context.Context, period core.DateRange, paidOnly bool) (storage.IncomeAggregate, error) {
	var agg storage.IncomeAggregate
	for _, in := range f.incomes {
		if !period.Contains(in.Date) || (paidOnly && !in.IsPaid) {
			continue
		}
		agg.TotalCents += in.Total.Cents
		agg.GSTCents += in.GST.Cents
		agg.Count++
	}
	return agg, nil
}

func (f *fakeStore) SumIncomeWithPaidSplit(_ context.Context, period core.DateRange) (storage.FyIncomeAggregate, error) {
	var agg storage.FyIncomeAggregate
	for _, in := range f.incomes {
		if !period.Contains(in.Date) {
			continue
		}
		agg.TotalCents += in.Total.Cents
		agg.GSTCents += in.GST.Cents
		agg.Count++
		if in.IsPaid {
			agg.PaidCents += in.Total.Cents
		}
	}
	return agg, nil
}

func (f *fakeStore) SumClaimableExpenseGST(_ context.Context, period core.DateRange) (storage.ExpenseAggregate, error) {
	var agg storage.ExpenseAggregate
	for _, e := range f.expenses {
		if !period.Contains(e.Date) {
			continue
		}
		p := f.providers[e.ProviderID]
		if p.IsInternational {
			continue
		}
		agg.ClaimableGSTCents += e.GST.Cents * e.BizPercent / 100
		agg.Count++
	}
	return agg, nil
}

func (f *fakeStore) SumExpenseTotals(_ context.Context, period core.DateRange) (storage.ExpenseTotals, error) {
	var agg storage.ExpenseTotals
	for _, e := range f.expenses {
		if period.Contains(e.Date) {
			agg.TotalCents += e.Amount.Cents
			agg.Count++
		}
	}
	return agg, nil
}

func (f *fakeStore) ExpensesByCategory(_ context.Context, _ core.DateRange) ([]core.CategorySummary, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*Server, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	reports := services.NewReportService(store, 10, time.Minute)
	ledger := services.NewLedgerService(store)
	recurring := services.NewRecurringService(store, nil)
	srv := NewServer(":0", reports, ledger, recurring)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, store
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s returned %d, want 200", path, rec.Code)
		}
	}
}

func TestCreateExpenseEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"date":        "2025-08-05",
		"description": "Editor licence",
		"amountCents": 11000,
		"bizPercent":  100,
		"providerId":  1,
		"categoryId":  1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body = %s", rec.Code, rec.Body.String())
	}

	var resp expenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.GSTCents != 1000 {
		t.Errorf("gstCents = %d, want 1000 auto-calculated", resp.GSTCents)
	}
	if len(store.expenses) != 1 {
		t.Errorf("store has %d expenses, want 1", len(store.expenses))
	}
}

func TestCreateExpenseEndpointErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"date":        "2025-08-05",
		"description": "Editor licence",
		"amountCents": 11000,
		"bizPercent":  100,
		"providerId":  999,
		"categoryId":  1,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown provider: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"date": "not-a-date",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"date":        "2025-08-05",
		"description": "Editor licence",
		"amountCents": 11000,
		"bizPercent":  150,
		"providerId":  1,
		"categoryId":  1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad percent: status = %d, want 400", rec.Code)
	}
}

func TestCreateWithEmptyDescription(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"date":        "2025-08-05",
		"description": "",
		"amountCents": 11000,
		"bizPercent":  100,
		"providerId":  1,
		"categoryId":  1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expense: status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.Error, "description") {
		t.Errorf("error = %q, want mention of description", resp.Error)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/incomes", map[string]any{
		"date":        "2025-08-05",
		"description": "   ",
		"totalCents":  110000,
		"isPaid":      true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("income: status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
}

func TestCreateExpenseDollarAmount(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"date":        "2025-08-05",
		"description": "Editor licence",
		"amount":      "110.00",
		"bizPercent":  100,
		"providerId":  1,
		"categoryId":  1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body = %s", rec.Code, rec.Body.String())
	}
	var resp expenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AmountCents != 11000 {
		t.Errorf("amountCents = %d, want 11000 from \"110.00\"", resp.AmountCents)
	}
	if resp.GSTCents != 1000 {
		t.Errorf("gstCents = %d, want 1000 auto-calculated", resp.GSTCents)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"date":        "2025-08-05",
		"description": "Editor licence",
		"amount":      "-5.00",
		"bizPercent":  100,
		"providerId":  1,
		"categoryId":  1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative amount: status = %d, want 400", rec.Code)
	}
}

func TestBasReportEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	store.incomes = append(store.incomes, core.Income{
		Date:  time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC),
		Total: core.Money{Cents: 110000}, GST: core.Money{Cents: 10000}, IsPaid: true,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/reports/bas?quarter=Q1&year=2026", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["g1TotalSalesCents"] != float64(110000) {
		t.Errorf("g1TotalSalesCents = %v, want 110000", resp["g1TotalSalesCents"])
	}
	if resp["basis"] != "accrual" {
		t.Errorf("basis = %v, want accrual default", resp["basis"])
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/reports/bas?quarter=Q9&year=2026", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad quarter: status = %d, want 400", rec.Code)
	}
}

func TestRecurringEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/recurring", map[string]any{
		"name":        "Phone plan",
		"amountCents": 5500,
		"bizPercent":  80,
		"schedule":    "monthly",
		"dayOfMonth":  15,
		"startDate":   "2025-07-01",
		"providerId":  1,
		"categoryId":  1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201; body = %s", rec.Code, rec.Body.String())
	}
	var created recurringResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.NextDueDate != "2025-07-15" {
		t.Errorf("nextDueDate = %q, want 2025-07-15", created.NextDueDate)
	}

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/recurring/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get: status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/recurring/generate?asOf=2025-07-20", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: status = %d, want 200; body = %s", rec.Code, rec.Body.String())
	}
	var result services.GenerationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Generated != 1 {
		t.Errorf("generated = %d, want 1", result.Generated)
	}

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/recurring/%d", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/recurring/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: status = %d, want 404", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodDelete, "/api/reports/bas", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != "GET" {
		t.Errorf("Allow = %q, want GET", got)
	}
}
