package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"soletax/internal/core"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err, "url", r.URL.Path)
	}
}

// respondError maps domain errors to HTTP statuses: not-found to 404,
// validation failures to 400, everything else to 500 with a generic body.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondJSON(w, r, http.StatusNotFound, errorResponse{Error: err.Error()})
	case isValidationError(err):
		respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		respondJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidQuarter,
		core.ErrInvalidBasis,
		core.ErrInvalidFinancialYear,
		core.ErrInvalidSchedule,
		core.ErrInvalidDayOfMonth,
		core.ErrPercentOutOfRange,
		core.ErrGSTExceedsAmount,
		core.ErrEndBeforeStart,
		core.ErrEmptyName,
		core.ErrEmptyDescription,
		core.ErrZeroDate,
		core.ErrMissingProvider,
		core.ErrMissingCategory,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		badRequest(w, r, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// amountField resolves a money field that clients may send either as integer
// cents or as a decimal dollar string such as "110.00". The dollar form wins
// when both are present.
func amountField(cents int64, dollars string) (int64, error) {
	if strings.TrimSpace(dollars) == "" {
		return cents, nil
	}
	return core.ParseDecimalToCents(dollars)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

func fmtDate(t time.Time) string {
	return t.Format(dateLayout)
}

func fmtNullDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtDate(*t)
	return &s
}

// yearParam reads the financial year from the query string, defaulting to
// the financial year the reference time falls in.
func yearParam(r *http.Request, now time.Time) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("year"))
	if v == "" {
		return core.FinancialYearOf(now), nil
	}
	return strconv.Atoi(v)
}
