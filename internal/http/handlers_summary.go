package http

import (
	"net/http"
	"strings"

	"billing/internal/core"
	applog "billing/internal/log"
)

type summaryPayload struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}

	cacheKey := "overview:" + string(period)
	if sum, ok := s.overviewCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, summaryPayload{Income: sum.Income.Float(), Expense: sum.Expense.Float()})
		return
	}

	sum, err := s.summaries.Overview(r.Context(), period)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Summary failed",
			applog.FieldError, err, applog.FieldPeriod, string(period))
		writeError(w, err)
		return
	}

	s.overviewCache.Set(cacheKey, sum)
	writeJSON(w, http.StatusOK, summaryPayload{Income: sum.Income.Float(), Expense: sum.Expense.Float()})
}

type categorySharePayload struct {
	Category string  `json:"category"`
	Icon     string  `json:"category_icon"`
	Total    float64 `json:"total"`
	Percent  int     `json:"percent"`
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	t := core.TxType(strings.TrimSpace(r.URL.Query().Get("type")))
	if !t.Valid() {
		writeError(w, core.ErrInvalidType)
		return
	}
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}

	cacheKey := "breakdown:" + string(t) + ":" + string(period)
	shares, ok := s.breakdownCache.Get(cacheKey)
	if !ok {
		shares, err = s.summaries.CategoryBreakdown(r.Context(), t, period)
		if err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Category breakdown failed",
				applog.FieldError, err, applog.FieldPeriod, string(period))
			writeError(w, err)
			return
		}
		s.breakdownCache.Set(cacheKey, shares)
	}

	out := make([]categorySharePayload, 0, len(shares))
	for _, sh := range shares {
		out = append(out, categorySharePayload{
			Category: sh.Category,
			Icon:     sh.Icon,
			Total:    sh.Total.Float(),
			Percent:  sh.Percent,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type categoryPayload struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// handleListCategories serves the fixed taxonomy for the given type.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	t := core.TxType(strings.TrimSpace(r.URL.Query().Get("type")))
	if !t.Valid() {
		writeError(w, core.ErrInvalidType)
		return
	}

	cats := core.CategoriesFor(t)
	out := make([]categoryPayload, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryPayload{Name: c.Name, Icon: c.Icon, Color: c.Color})
	}
	writeJSON(w, http.StatusOK, out)
}
