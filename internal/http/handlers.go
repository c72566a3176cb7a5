package http

import (
	"net/http"

	"budget/internal/ledger"
	applog "budget/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady is 503 until the first load has run. Tables with unsaved
// changes are reported but do not make the service unready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Loaded() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "loading"})
		return
	}
	body := map[string]any{"status": "ready"}
	if pending := tableNames(s.svc.Pending()); len(pending) > 0 {
		body["status"] = "degraded"
		body["pending_tables"] = pending
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newLedgerDTO(s.svc.Snapshot(), s.svc.Pending()))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err, nil)
		return
	}
	balance, err := parseStartingAmount("balance", req.Balance)
	if err != nil {
		writeError(w, r, applog.OpCreate, err, nil)
		return
	}

	acc, err := s.svc.AddAccount(r.Context(), sanitizeInput(req.Name), balance)
	if err != nil {
		writeError(w, r, applog.OpCreate, err, s.svc.Pending())
		return
	}
	writeJSON(w, http.StatusCreated, newAccountDTO(acc))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	s.handleCategory(w, r, false)
}

func (s *Server) handleReplaceCategory(w http.ResponseWriter, r *http.Request) {
	s.handleCategory(w, r, true)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request, replace bool) {
	op := applog.OpCreate
	if replace {
		op = applog.OpReplace
	}

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, op, err, nil)
		return
	}
	limit, err := parseStartingAmount("monthly_limit", req.MonthlyLimit)
	if err != nil {
		writeError(w, r, op, err, nil)
		return
	}

	name := sanitizeInput(req.Name)
	add := s.svc.AddCategory
	status := http.StatusCreated
	if replace {
		add = s.svc.ReplaceCategory
		status = http.StatusOK
	}
	cat, err := add(r.Context(), name, limit)
	if err != nil {
		writeError(w, r, op, err, s.svc.Pending())
		return
	}
	writeJSON(w, status, newCategoryDTO(cat))
}

// handleCreateTransaction answers 201 when the transaction is applied and
// stored. When it is applied but a table write fails the answer is 502
// with the pending tables; POST /api/save retries the write.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpApply, err, nil)
		return
	}
	in, err := req.toTransactionInput(s.now())
	if err != nil {
		writeError(w, r, applog.OpApply, err, nil)
		return
	}

	tx, err := s.svc.RecordTransaction(r.Context(), in)
	if err != nil {
		writeError(w, r, applog.OpApply, err, s.svc.Pending())
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionDTO(tx))
}

// handleRecentTransactions lists the newest transactions, ten by default.
func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseRecentLimit(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err, nil)
		return
	}
	recent := ledger.Recent(s.svc.Snapshot().Transactions, limit)
	out := make([]transactionDTO, 0, len(recent))
	for _, tx := range recent {
		out = append(out, newTransactionDTO(tx))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseSummaryQuery(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryDTO(s.svc.Summary(year, month)))
}

// handleReload re-reads every table. On a partial failure the tables that
// loaded are already in place and the error names the ones that did not.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Load(r.Context()); err != nil {
		writeError(w, r, applog.OpReload, err, s.svc.Pending())
		return
	}
	writeJSON(w, http.StatusOK, newLedgerDTO(s.svc.Snapshot(), s.svc.Pending()))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Save(r.Context()); err != nil {
		writeError(w, r, applog.OpSave, err, s.svc.Pending())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "saved"})
}
