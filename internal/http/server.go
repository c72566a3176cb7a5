// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/ledger"
	applog "budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"

	"github.com/shopspring/decimal"
)

// LedgerService is what the handlers need from the ledger session.
type LedgerService interface {
	Load(ctx context.Context) error
	Save(ctx context.Context) error
	Snapshot() *ledger.Ledger
	Loaded() bool
	Pending() []ledger.Table
	AddAccount(ctx context.Context, name string, balance decimal.Decimal) (core.Account, error)
	AddCategory(ctx context.Context, name string, limit decimal.Decimal) (core.BudgetCategory, error)
	ReplaceCategory(ctx context.Context, name string, limit decimal.Decimal) (core.BudgetCategory, error)
	RecordTransaction(ctx context.Context, in ledger.TransactionInput) (core.Transaction, error)
	Summary(year, month int) core.Summary
}

type Server struct {
	http.Server
	svc      LedgerService
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc LedgerService, logger *applog.Logger) *Server {
	httpLogger := logger.WithComponent(applog.ComponentHTTP)
	detector := security.NewDetector()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:      svc,
		logger:   httpLogger,
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector: detector,
		tracer:   trace.NewMiddleware(httpLogger, detector.ExtractClientIP),
		now:      time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/ledger", s.handleLedger)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories", s.handleReplaceCategory)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/recent", s.handleRecentTransactions)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("POST /api/save", s.handleSave)

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimit)(h)
	h = s.flagSuspicious(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = applog.Middleware(httpLogger, trace.RequestID)(h)
	h = s.tracer.Middleware(h)
	s.Handler = h

	return s
}

// flagSuspicious logs requests that look like scans. They are still
// served; the mux answers them with 404 or 405.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.IsSuspicious(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{
		Error: "rate limit exceeded, retry in a minute",
		Kind:  "rate_limited",
	})
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
