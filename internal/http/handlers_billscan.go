package http

import (
	"encoding/json"
	"net/http"

	"billing/internal/billscan"
	"billing/internal/core"
	applog "billing/internal/log"
)

type analyzeBillRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
	Type  string `json:"type"`
}

// prefillPayload carries the transaction fields suggested by the
// bill-analysis collaborator, snapped to the local taxonomy.
type prefillPayload struct {
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	Category     string  `json:"category"`
	CategoryIcon string  `json:"category_icon"`
	Date         string  `json:"date"`
	Description  string  `json:"description"`
}

func (s *Server) handleAnalyzeBill(w http.ResponseWriter, r *http.Request) {
	if s.scanner == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "bill analysis not configured"})
		return
	}

	var req analyzeBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	txType := core.TxType(req.Type)
	if req.Type == "" {
		txType = core.Expense
	}
	if !txType.Valid() {
		writeError(w, core.ErrInvalidType)
		return
	}

	data, err := s.scanner.Analyze(r.Context(), billscan.AnalyzeRequest{Text: req.Text, Image: req.Image})
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Bill analysis failed", applog.FieldError, err)
		writeError(w, err)
		return
	}

	cents, err := core.FloatToCents(data.Amount)
	if err != nil {
		writeError(w, billscan.ErrMalformedResponse)
		return
	}
	date := data.Date
	if _, err := core.ParseDate(date); err != nil {
		date = ""
	}
	cat := core.CategoryByName(data.Category, txType)

	writeJSON(w, http.StatusOK, prefillPayload{
		Type:         string(txType),
		Amount:       core.Money{Cents: cents}.Float(),
		Category:     cat.Name,
		CategoryIcon: cat.Icon,
		Date:         date,
		Description:  data.Note,
	})
}

type setTokenRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleSetToken(w http.ResponseWriter, r *http.Request) {
	var req setTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "token required"})
		return
	}
	if err := s.tokens.SetToken(req.Token); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveToken(w http.ResponseWriter, r *http.Request) {
	if err := s.tokens.RemoveToken(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": s.tokens.IsAuthenticated()})
}
