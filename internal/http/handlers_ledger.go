package http

import (
	"net/http"
	"strings"
	"time"

	"soletax/internal/core"
	"soletax/internal/services"
)

type expenseRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	// Amount is a decimal dollar alternative to AmountCents, e.g. "110.00".
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amountCents"`
	GSTCents    *int64 `json:"gstCents"`
	BizPercent  int64  `json:"bizPercent"`
	ProviderID  int64  `json:"providerId"`
	CategoryID  int64  `json:"categoryId"`
}

type expenseResponse struct {
	ID                 int64  `json:"id"`
	Date               string `json:"date"`
	Description        string `json:"description"`
	AmountCents        int64  `json:"amountCents"`
	GSTCents           int64  `json:"gstCents"`
	BizPercent         int64  `json:"bizPercent"`
	ProviderID         int64  `json:"providerId"`
	CategoryID         int64  `json:"categoryId"`
	RecurringExpenseID *int64 `json:"recurringExpenseId,omitempty"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:                 e.ID,
		Date:               fmtDate(e.Date),
		Description:        e.Description,
		AmountCents:        e.Amount.Cents,
		GSTCents:           e.GST.Cents,
		BizPercent:         e.BizPercent,
		ProviderID:         e.ProviderID,
		CategoryID:         e.CategoryID,
		RecurringExpenseID: e.RecurringExpenseID,
	}
}

type incomeRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	// Total is a decimal dollar alternative to TotalCents.
	Total       string `json:"total"`
	TotalCents  int64  `json:"totalCents"`
	GSTCents    *int64 `json:"gstCents"`
	IsPaid      bool   `json:"isPaid"`
}

type incomeResponse struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	TotalCents  int64  `json:"totalCents"`
	GSTCents    int64  `json:"gstCents"`
	IsPaid      bool   `json:"isPaid"`
}

func toIncomeResponse(in core.Income) incomeResponse {
	return incomeResponse{
		ID:          in.ID,
		Date:        fmtDate(in.Date),
		Description: in.Description,
		TotalCents:  in.Total.Cents,
		GSTCents:    in.GST.Cents,
		IsPaid:      in.IsPaid,
	}
}

type providerRequest struct {
	Name            string `json:"name"`
	IsInternational bool   `json:"isInternational"`
}

type providerResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	IsInternational bool   `json:"isInternational"`
}

type categoryResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	BasLabel string `json:"basLabel"`
}

// periodParam resolves the listing period from query parameters. Explicit
// from/to dates win; a quarter narrows the year; otherwise the whole
// financial year is used.
func periodParam(r *http.Request, now time.Time) (core.DateRange, error) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if from != "" && to != "" {
		start, err := parseDate(from)
		if err != nil {
			return core.DateRange{}, err
		}
		end, err := parseDate(to)
		if err != nil {
			return core.DateRange{}, err
		}
		return core.DateRange{Start: start, End: end}, nil
	}

	year, err := yearParam(r, now)
	if err != nil {
		return core.DateRange{}, err
	}
	if quarter := strings.TrimSpace(r.URL.Query().Get("quarter")); quarter != "" {
		q, err := core.ParseQuarter(quarter)
		if err != nil {
			return core.DateRange{}, err
		}
		return core.QuarterRange(q, year)
	}
	return core.FYRange(year), nil
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		period, err := periodParam(r, time.Now())
		if err != nil {
			badRequest(w, r, "invalid period: "+err.Error())
			return
		}
		expenses, err := s.ledger.ListExpenses(r.Context(), period)
		if err != nil {
			respondError(w, r, err)
			return
		}
		out := make([]expenseResponse, 0, len(expenses))
		for _, e := range expenses {
			out = append(out, toExpenseResponse(e))
		}
		respondJSON(w, r, http.StatusOK, out)

	case http.MethodPost:
		var req expenseRequest
		if !decodeBody(w, r, &req) {
			return
		}
		date, err := parseDate(req.Date)
		if err != nil {
			badRequest(w, r, "invalid date, expected YYYY-MM-DD")
			return
		}
		amount, err := amountField(req.AmountCents, req.Amount)
		if err != nil {
			badRequest(w, r, "invalid amount: "+err.Error())
			return
		}
		e, err := s.ledger.CreateExpense(r.Context(), services.ExpenseInput{
			Date:        date,
			Description: req.Description,
			AmountCents: amount,
			GSTCents:    req.GSTCents,
			BizPercent:  req.BizPercent,
			ProviderID:  req.ProviderID,
			CategoryID:  req.CategoryID,
		})
		if err != nil {
			respondError(w, r, err)
			return
		}
		s.reports.Invalidate()
		respondJSON(w, r, http.StatusCreated, toExpenseResponse(*e))

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleIncomes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		period, err := periodParam(r, time.Now())
		if err != nil {
			badRequest(w, r, "invalid period: "+err.Error())
			return
		}
		incomes, err := s.ledger.ListIncomes(r.Context(), period)
		if err != nil {
			respondError(w, r, err)
			return
		}
		out := make([]incomeResponse, 0, len(incomes))
		for _, in := range incomes {
			out = append(out, toIncomeResponse(in))
		}
		respondJSON(w, r, http.StatusOK, out)

	case http.MethodPost:
		var req incomeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		date, err := parseDate(req.Date)
		if err != nil {
			badRequest(w, r, "invalid date, expected YYYY-MM-DD")
			return
		}
		total, err := amountField(req.TotalCents, req.Total)
		if err != nil {
			badRequest(w, r, "invalid total: "+err.Error())
			return
		}
		in, err := s.ledger.CreateIncome(r.Context(), services.IncomeInput{
			Date:        date,
			Description: req.Description,
			TotalCents:  total,
			GSTCents:    req.GSTCents,
			IsPaid:      req.IsPaid,
		})
		if err != nil {
			respondError(w, r, err)
			return
		}
		s.reports.Invalidate()
		respondJSON(w, r, http.StatusCreated, toIncomeResponse(*in))

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		providers, err := s.ledger.ListProviders(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		out := make([]providerResponse, 0, len(providers))
		for _, p := range providers {
			out = append(out, providerResponse{ID: p.ID, Name: p.Name, IsInternational: p.IsInternational})
		}
		respondJSON(w, r, http.StatusOK, out)

	case http.MethodPost:
		var req providerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		p, err := s.ledger.CreateProvider(r.Context(), strings.TrimSpace(req.Name), req.IsInternational)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusCreated, providerResponse{ID: p.ID, Name: p.Name, IsInternational: p.IsInternational})

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	categories, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name, BasLabel: c.BasLabel})
	}
	respondJSON(w, r, http.StatusOK, out)
}
