package http

import (
	"encoding/json"
	"net/http"
	"time"

	"billing/internal/core"
	applog "billing/internal/log"
)

type accountPayload struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Balance   float64 `json:"balance"`
	Icon      string  `json:"icon"`
	Color     string  `json:"color"`
	CreatedAt string  `json:"created_at,omitempty"`
}

func toAccountPayload(a core.Account) accountPayload {
	p := accountPayload{
		ID:      a.ID,
		Name:    a.Name,
		Balance: a.Balance.Float(),
		Icon:    a.Icon,
		Color:   a.Color,
	}
	if !a.CreatedAt.IsZero() {
		p.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	return p
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.List(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "List accounts failed", applog.FieldError, err)
		writeError(w, err)
		return
	}

	out := make([]accountPayload, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountPayload(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	a, err := s.accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountPayload(a))
}

type createAccountRequest struct {
	Name    string   `json:"name"`
	Balance *float64 `json:"balance"`
	Icon    string   `json:"icon"`
	Color   string   `json:"color"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	a := core.Account{Name: req.Name, Icon: req.Icon, Color: req.Color}
	if req.Balance != nil {
		a.Balance = core.Money{Cents: core.SignedFloatToCents(*req.Balance)}
	}

	id, err := s.accounts.Create(r.Context(), a)
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type updateAccountRequest struct {
	Name    *string  `json:"name"`
	Balance *float64 `json:"balance"`
	Icon    *string  `json:"icon"`
	Color   *string  `json:"color"`
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	u := core.AccountUpdate{Name: req.Name, Icon: req.Icon, Color: req.Color}
	if req.Balance != nil {
		u.Balance = &core.Money{Cents: core.SignedFloatToCents(*req.Balance)}
	}

	if err := s.accounts.Update(r.Context(), id, u); err != nil {
		writeError(w, err)
		return
	}

	s.invalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.accounts.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	s.invalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTotalBalance(w http.ResponseWriter, r *http.Request) {
	total, err := s.accounts.TotalBalance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"total": total.Float()})
}
