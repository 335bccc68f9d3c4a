package http

import (
	"context"
	"net/http"
	"strings"

	"finansmart/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

// withSession authenticates the request by Bearer token. Every
// authenticated request counts as an activity signal for the idle
// guard. A token whose session the guard tore down gets a 401 carrying
// the user-visible expiry notice.
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}

		sess, ok := s.sessions.Resolve(token)
		if !ok {
			if s.sessions.ConsumeExpiryNotice(token) {
				writeJSON(w, http.StatusUnauthorized, errorResponse{
					Error:          "session expired after inactivity, please log in again",
					SessionExpired: true,
				})
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// currentSession returns the session attached by withSession.
func currentSession(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionKey).(*session.Session)
	return sess
}
