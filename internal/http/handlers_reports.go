package http

import (
	"net/http"
	"time"
)

func (s *Server) handleBasReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	now := time.Now()
	year, err := yearParam(r, now)
	if err != nil {
		badRequest(w, r, "invalid year")
		return
	}
	quarter := r.URL.Query().Get("quarter")
	basis := r.URL.Query().Get("basis")

	summary, err := s.reports.BasSummary(r.Context(), quarter, year, basis, now)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, summary)
}

func (s *Server) handleFyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	now := time.Now()
	year, err := yearParam(r, now)
	if err != nil {
		badRequest(w, r, "invalid year")
		return
	}

	summary, err := s.reports.FySummary(r.Context(), year, now)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, summary)
}

func (s *Server) handleQuarterRanges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	year, err := yearParam(r, time.Now())
	if err != nil {
		badRequest(w, r, "invalid year")
		return
	}

	ranges, err := s.reports.QuarterRanges(year)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, ranges)
}
