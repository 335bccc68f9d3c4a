package http

import (
	"errors"
	"net/http"

	"finansmart/internal/advisor"
)

type adviceResponse struct {
	Advice string `json:"advice"`
	Cached bool   `json:"cached"`
}

// handleAdvice asks the advisory service for an analysis of the
// session's full partition. The response is cached per owner until the
// ledger changes, so repeated clicks do not burn remote calls.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	owner := currentSession(r).EffectiveOwner

	if advice, ok := s.adviceCache.Get(owner); ok {
		writeJSON(w, http.StatusOK, adviceResponse{Advice: advice, Cached: true})
		return
	}

	advice, err := s.advisor.Advise(s.ledger.List(owner))
	if err != nil {
		if errors.Is(err, advisor.ErrBusy) {
			writeError(w, http.StatusConflict, "an advice request is already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if advice != advisor.Fallback {
		s.adviceCache.Set(owner, advice)
	}
	writeJSON(w, http.StatusOK, adviceResponse{Advice: advice})
}

// handleAdviceStatus lets clients poll whether an advisory request is
// running, since only one runs at a time.
func (s *Server) handleAdviceStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"inFlight": s.advisor.InFlight()})
}
