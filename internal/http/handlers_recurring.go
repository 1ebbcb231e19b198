package http

import (
	"net/http"
	"strconv"
	"time"

	"soletax/internal/core"
	"soletax/internal/services"
)

type recurringRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Amount is a decimal dollar alternative to AmountCents.
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amountCents"`
	GSTCents    *int64 `json:"gstCents"`
	BizPercent  int64  `json:"bizPercent"`
	Schedule    string `json:"schedule"`
	DayOfMonth  int    `json:"dayOfMonth"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	ProviderID  int64  `json:"providerId"`
	CategoryID  int64  `json:"categoryId"`
}

type recurringPatchRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	AmountCents  *int64  `json:"amountCents"`
	GSTCents     *int64  `json:"gstCents"`
	BizPercent   *int64  `json:"bizPercent"`
	Schedule     *string `json:"schedule"`
	DayOfMonth   *int    `json:"dayOfMonth"`
	StartDate    *string `json:"startDate"`
	EndDate      *string `json:"endDate"`
	ClearEndDate bool    `json:"clearEndDate"`
	IsActive     *bool   `json:"isActive"`
	ProviderID   *int64  `json:"providerId"`
	CategoryID   *int64  `json:"categoryId"`
}

type recurringResponse struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	AmountCents       int64   `json:"amountCents"`
	GSTCents          int64   `json:"gstCents"`
	BizPercent        int64   `json:"bizPercent"`
	Schedule          string  `json:"schedule"`
	DayOfMonth        int     `json:"dayOfMonth"`
	StartDate         string  `json:"startDate"`
	EndDate           *string `json:"endDate,omitempty"`
	IsActive          bool    `json:"isActive"`
	LastGeneratedDate *string `json:"lastGeneratedDate,omitempty"`
	NextDueDate       string  `json:"nextDueDate"`
	ProviderID        int64   `json:"providerId"`
	CategoryID        int64   `json:"categoryId"`
}

func toRecurringResponse(re core.RecurringExpense) recurringResponse {
	return recurringResponse{
		ID:                re.ID,
		Name:              re.Name,
		Description:       re.Description,
		AmountCents:       re.Amount.Cents,
		GSTCents:          re.GST.Cents,
		BizPercent:        re.BizPercent,
		Schedule:          string(re.Schedule),
		DayOfMonth:        re.DayOfMonth,
		StartDate:         fmtDate(re.StartDate),
		EndDate:           fmtNullDate(re.EndDate),
		IsActive:          re.IsActive,
		LastGeneratedDate: fmtNullDate(re.LastGeneratedDate),
		NextDueDate:       fmtDate(re.NextDueDate),
		ProviderID:        re.ProviderID,
		CategoryID:        re.CategoryID,
	}
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		templates, err := s.recurring.List(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		out := make([]recurringResponse, 0, len(templates))
		for _, re := range templates {
			out = append(out, toRecurringResponse(re))
		}
		respondJSON(w, r, http.StatusOK, out)

	case http.MethodPost:
		var req recurringRequest
		if !decodeBody(w, r, &req) {
			return
		}
		start, err := parseDate(req.StartDate)
		if err != nil {
			badRequest(w, r, "invalid startDate, expected YYYY-MM-DD")
			return
		}
		amount, err := amountField(req.AmountCents, req.Amount)
		if err != nil {
			badRequest(w, r, "invalid amount: "+err.Error())
			return
		}
		in := services.TemplateInput{
			Name:        req.Name,
			Description: req.Description,
			AmountCents: amount,
			GSTCents:    req.GSTCents,
			BizPercent:  req.BizPercent,
			Schedule:    req.Schedule,
			DayOfMonth:  req.DayOfMonth,
			StartDate:   start,
			ProviderID:  req.ProviderID,
			CategoryID:  req.CategoryID,
		}
		if req.EndDate != "" {
			end, err := parseDate(req.EndDate)
			if err != nil {
				badRequest(w, r, "invalid endDate, expected YYYY-MM-DD")
				return
			}
			in.EndDate = &end
		}
		re, err := s.recurring.Create(r.Context(), in)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusCreated, toRecurringResponse(*re))

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleRecurringByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		badRequest(w, r, "invalid id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		re, err := s.recurring.Get(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, toRecurringResponse(*re))

	case http.MethodPut, http.MethodPatch:
		var req recurringPatchRequest
		if !decodeBody(w, r, &req) {
			return
		}
		patch := services.TemplatePatch{
			Name:         req.Name,
			Description:  req.Description,
			AmountCents:  req.AmountCents,
			GSTCents:     req.GSTCents,
			BizPercent:   req.BizPercent,
			Schedule:     req.Schedule,
			DayOfMonth:   req.DayOfMonth,
			ClearEndDate: req.ClearEndDate,
			IsActive:     req.IsActive,
			ProviderID:   req.ProviderID,
			CategoryID:   req.CategoryID,
		}
		if req.StartDate != nil {
			start, err := parseDate(*req.StartDate)
			if err != nil {
				badRequest(w, r, "invalid startDate, expected YYYY-MM-DD")
				return
			}
			patch.StartDate = &start
		}
		if req.EndDate != nil {
			end, err := parseDate(*req.EndDate)
			if err != nil {
				badRequest(w, r, "invalid endDate, expected YYYY-MM-DD")
				return
			}
			patch.EndDate = &end
		}
		re, err := s.recurring.Update(r.Context(), id, patch)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, toRecurringResponse(*re))

	case http.MethodDelete:
		if err := s.recurring.Delete(r.Context(), id); err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, PUT, PATCH, DELETE")
	}
}

// handleGenerate triggers an immediate generation pass for all due
// templates, the same pass the background worker runs on its interval.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	asOf := time.Now()
	if v := r.URL.Query().Get("asOf"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			badRequest(w, r, "invalid asOf, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	result, err := s.recurring.GenerateDue(r.Context(), asOf)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if result.Generated > 0 {
		s.reports.Invalidate()
	}
	respondJSON(w, r, http.StatusOK, result)
}
