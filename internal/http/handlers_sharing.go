package http

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
)

type grantShareRequest struct {
	GuestEmail string `json:"guestEmail"`
}

func (s *Server) handleListGuests(w http.ResponseWriter, r *http.Request) {
	guests := s.sharing.GuestsOf(currentSession(r).Identity.Email)
	if guests == nil {
		guests = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"guests": guests})
}

func (s *Server) handleGrantShare(w http.ResponseWriter, r *http.Request) {
	var req grantShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	guest := strings.TrimSpace(req.GuestEmail)
	if guest == "" {
		writeError(w, http.StatusBadRequest, "guestEmail is required")
		return
	}

	owner := currentSession(r).Identity.Email
	if err := s.sharing.Grant(r.Context(), owner, guest); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"guests": s.sharing.GuestsOf(owner)})
}

func (s *Server) handleRevokeShare(w http.ResponseWriter, r *http.Request) {
	owner := currentSession(r).Identity.Email
	guest := r.PathValue("guest")

	// Only the inviting owner may revoke its own guests.
	if !slices.Contains(s.sharing.GuestsOf(owner), guest) {
		writeError(w, http.StatusNotFound, "no such guest")
		return
	}

	s.sharing.Revoke(r.Context(), guest)
	w.WriteHeader(http.StatusNoContent)
}
