package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"billing/internal/core"
	applog "billing/internal/log"
)

type transactionPayload struct {
	ID           int64   `json:"id"`
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	Category     string  `json:"category"`
	CategoryIcon string  `json:"category_icon"`
	AccountID    int64   `json:"account_id"`
	AccountName  string  `json:"account_name,omitempty"`
	Date         string  `json:"date"`
	Description  string  `json:"description"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

func toTransactionPayload(t core.Transaction) transactionPayload {
	p := transactionPayload{
		ID:           t.ID,
		Type:         string(t.Type),
		Amount:       t.Amount.Float(),
		Category:     t.Category,
		CategoryIcon: t.CategoryIcon,
		AccountID:    t.AccountID,
		AccountName:  t.AccountName,
		Date:         t.Date.ISO(),
		Description:  t.Description,
	}
	if !t.CreatedAt.IsZero() {
		p.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	}
	return p
}

// handleListTransactions lists transactions; ?limit= caps the result,
// ?period= or ?start=&end= filter by logical date.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rng, err := parseRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if rng == nil && period != "" {
		resolved, err := s.summaries.RangeFor(period)
		if err != nil {
			writeError(w, err)
			return
		}
		rng = &resolved
	}

	var txs []core.Transaction
	switch {
	case rng != nil:
		txs, err = s.ledger.ListInRange(ctx, *rng)
	default:
		limit := 0
		if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
			if n, convErr := strconv.Atoi(v); convErr == nil && n > 0 {
				limit = n
			}
		}
		if limit > 0 {
			txs, err = s.ledger.Recent(ctx, limit)
		} else {
			txs, err = s.ledger.List(ctx)
		}
	}
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "List transactions failed", applog.FieldError, err)
		writeError(w, err)
		return
	}

	out := make([]transactionPayload, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionPayload(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	t, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionPayload(t))
}

type createTransactionRequest struct {
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	Category     string  `json:"category"`
	CategoryIcon string  `json:"category_icon"`
	AccountID    int64   `json:"account_id"`
	Date         string  `json:"date"`
	Description  string  `json:"description"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	cents, err := core.FloatToCents(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	t := core.Transaction{
		Type:         core.TxType(req.Type),
		Amount:       core.Money{Cents: cents},
		Category:     req.Category,
		CategoryIcon: req.CategoryIcon,
		AccountID:    req.AccountID,
		Date:         date,
		Description:  req.Description,
	}

	id, err := s.ledger.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type updateTransactionRequest struct {
	Type         *string  `json:"type"`
	Amount       *float64 `json:"amount"`
	Category     *string  `json:"category"`
	CategoryIcon *string  `json:"category_icon"`
	AccountID    *int64   `json:"account_id"`
	Date         *string  `json:"date"`
	Description  *string  `json:"description"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	var u core.TransactionUpdate
	if req.Type != nil {
		t := core.TxType(*req.Type)
		u.Type = &t
	}
	if req.Amount != nil {
		cents, convErr := core.FloatToCents(*req.Amount)
		if convErr != nil {
			writeError(w, convErr)
			return
		}
		u.Amount = &core.Money{Cents: cents}
	}
	if req.Date != nil {
		date, convErr := core.ParseDate(*req.Date)
		if convErr != nil {
			writeError(w, convErr)
			return
		}
		u.Date = &date
	}
	u.Category = req.Category
	u.CategoryIcon = req.CategoryIcon
	u.AccountID = req.AccountID
	u.Description = req.Description

	if err := s.ledger.UpdateTransaction(r.Context(), id, u); err != nil {
		writeError(w, err)
		return
	}

	s.invalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	s.invalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}
