package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/access"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository"
)

const sessionCookie = "session"

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// loadSession returns the live session carried by the request, if any. A
// token unknown to the cache is only accepted when the session store still
// holds it, which is how sessions survive a restart.
func (s *Server) loadSession(r *http.Request) *access.Session {
	token := tokenFrom(r)
	if token == "" {
		return nil
	}
	parsed, err := s.issuer.Parse(token)
	if err != nil {
		s.logger.Debug("Rejected session token", zap.Error(err))
		return nil
	}
	if sess, ok := s.sessions.Get(parsed.ID); ok {
		if sess.Expired(time.Now()) {
			return nil
		}
		return sess
	}
	if s.store == nil || s.sessions.Revoked(parsed.ID) {
		return nil
	}

	stored, err := s.store.Load(r.Context(), parsed.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrObjectNotFound) {
			s.logger.Error("Failed to load session", zap.String("session_id", parsed.ID), zap.Error(err))
		}
		return nil
	}
	if stored.Username != parsed.Username || stored.Expired(time.Now()) {
		return nil
	}
	if !s.sessions.Set(stored) {
		return nil
	}
	metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	return stored
}

func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.loadSession(r)
		if sess == nil {
			respondError(w, http.StatusUnauthorized, "Session expirée, veuillez vous reconnecter")
			return
		}
		if e := auditEntryFrom(r.Context()); e != nil {
			e.SessionID = sess.ID
			e.Username = sess.Username
			e.Store = sess.Store
		}
		next.ServeHTTP(w, r.WithContext(access.WithSession(r.Context(), sess)))
	})
}

// require gates a handler on permissions; the session must already be in
// the request context.
func (s *Server) require(perms ...access.Permission) func(http.HandlerFunc) http.Handler {
	return func(h http.HandlerFunc) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFrom(r)
			if !sess.Grants(perms) {
				metrics.AccessDecisionsTotal.WithLabelValues(access.Denied.String()).Inc()
				respondError(w, http.StatusForbidden, "Accès refusé")
				return
			}
			metrics.AccessDecisionsTotal.WithLabelValues(access.Granted.String()).Inc()
			h(w, r)
		})
	}
}
