package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"finansmart/internal/core"
	"finansmart/internal/ledger"
)

type createTransactionRequest struct {
	Description string               `json:"description"`
	Amount      core.Money           `json:"amount"`
	Type        core.TransactionType `json:"type"`
	Category    string               `json:"category"`
	Date        core.Date            `json:"date"`
}

// parseFilterSpec reads the filter query parameters. An absent filter
// parameter means the full partition.
func parseFilterSpec(r *http.Request) (core.FilterSpec, bool, error) {
	q := r.URL.Query()
	kind := strings.TrimSpace(q.Get("filter"))
	if kind == "" {
		return core.FilterSpec{}, false, nil
	}

	spec := core.FilterSpec{Kind: core.FilterKind(kind)}
	switch spec.Kind {
	case core.FilterCurrentMonth, core.FilterCurrentYear, core.FilterLast30Days:
		return spec, true, nil
	case core.FilterCustom:
		if v := strings.TrimSpace(q.Get("start")); v != "" {
			d, err := core.ParseDate(v)
			if err != nil {
				return core.FilterSpec{}, false, fmt.Errorf("invalid start date %q", v)
			}
			spec.Start = d
		}
		if v := strings.TrimSpace(q.Get("end")); v != "" {
			d, err := core.ParseDate(v)
			if err != nil {
				return core.FilterSpec{}, false, fmt.Errorf("invalid end date %q", v)
			}
			spec.End = d
		}
		return spec, true, nil
	default:
		return core.FilterSpec{}, false, fmt.Errorf("unknown filter %q", kind)
	}
}

// filteredTransactions loads the session's partition narrowed by the
// request's filter parameters.
func (s *Server) filteredTransactions(r *http.Request) ([]core.Transaction, error) {
	owner := currentSession(r).EffectiveOwner
	txs := s.ledger.List(owner)

	spec, apply, err := parseFilterSpec(r)
	if err != nil {
		return nil, err
	}
	if !apply {
		return txs, nil
	}
	return core.Filter(txs, spec, time.Now()), nil
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": ledger.Categories})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.filteredTransactions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	owner := currentSession(r).EffectiveOwner
	tx, err := s.ledger.Append(r.Context(), owner, core.Transaction{
		Description: req.Description,
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    req.Category,
		Date:        req.Date,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.adviceCache.Delete(owner)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner := currentSession(r).EffectiveOwner
	s.ledger.Remove(r.Context(), owner, r.PathValue("id"))
	s.adviceCache.Delete(owner)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetTransactions(w http.ResponseWriter, r *http.Request) {
	owner := currentSession(r).EffectiveOwner
	s.ledger.Reset(r.Context(), owner)
	s.adviceCache.Delete(owner)
	writeJSON(w, http.StatusOK, map[string]any{"transactions": s.ledger.List(owner)})
}
