// Package http exposes the ledger over a JSON API: accounts,
// transactions, period summaries, and the bill-analysis passthrough.
package http

import (
	"net/http"
	"time"

	"billing/internal/auth"
	"billing/internal/billscan"
	"billing/internal/cache"
	"billing/internal/core"
	applog "billing/internal/log"
	"billing/internal/services"
)

type Server struct {
	http.Server

	accounts  *services.AccountService
	ledger    *services.LedgerService
	summaries *services.SummaryService
	scanner   *billscan.Client
	tokens    *auth.TokenStore

	// summary responses are cheap to recompute but hit on every screen;
	// purged on any mutation.
	overviewCache  *cache.LRUCache[core.Summary]
	breakdownCache *cache.LRUCache[[]core.CategoryShare]
}

type Options struct {
	Addr     string
	CacheTTL time.Duration
	Logger   *applog.Logger
}

func NewServer(opts Options, accounts *services.AccountService, ledger *services.LedgerService,
	summaries *services.SummaryService, scanner *billscan.Client, tokens *auth.TokenStore) *Server {

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	s := &Server{
		accounts:       accounts,
		ledger:         ledger,
		summaries:      summaries,
		scanner:        scanner,
		tokens:         tokens,
		overviewCache:  cache.NewLRUCache[core.Summary](16, ttl),
		breakdownCache: cache.NewLRUCache[[]core.CategoryShare](32, ttl),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/total", s.handleTotalBalance)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PATCH /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/summary/categories", s.handleCategoryBreakdown)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)

	mux.HandleFunc("POST /api/analyze-bill", s.handleAnalyzeBill)
	mux.HandleFunc("POST /api/auth/token", s.handleSetToken)
	mux.HandleFunc("DELETE /api/auth/token", s.handleRemoveToken)
	mux.HandleFunc("GET /api/auth/status", s.handleAuthStatus)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var handler http.Handler = mux
	if opts.Logger != nil {
		handler = requestLogging(opts.Logger)(handler)
		handler = applog.RequestIDMiddleware(func(*http.Request) string { return generateRequestID() })(handler)
		handler = applog.Middleware(opts.Logger)(handler)
	}

	s.Server = http.Server{
		Addr:    opts.Addr,
		Handler: handler,
	}
	return s
}

// invalidateSummaries drops cached aggregates after any mutation.
func (s *Server) invalidateSummaries() {
	s.overviewCache.Purge()
	s.breakdownCache.Purge()
}

// requestLogging wraps the handler with start/end logging.
func requestLogging(logger *applog.Logger) func(http.Handler) http.Handler {
	httpLogger := applog.NewHTTPLogger(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ip := clientIP(r)
			httpLogger.LogStart(r.Context(), r, ip)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			httpLogger.LogEnd(r.Context(), r, rec.status, time.Since(start).Milliseconds(), ip)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
