package server

import (
	"net/http"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/access"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

type sessionResponse struct {
	Session    *access.Session `json:"session"`
	Navigation []access.View   `json:"navigation"`
}

// loginResponse carries no token: the browser holds it in an HttpOnly
// cookie only.
type loginResponse struct {
	Role string `json:"role"`
	sessionResponse
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !s.decode(w, r, &req) {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return
	}
	if e := auditEntryFrom(r.Context()); e != nil {
		e.Username = req.Username
	}

	resp, err := s.upstream.Login(r.Context(), req)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.writeError(w, r, "login", err)
		return
	}

	username := resp.Username
	if username == "" {
		username = req.Username
	}
	sess := s.issuer.NewSession(username, resp.Store.String(), access.PermissionsFrom(resp.Role.PermissionNames()), resp.AccessToken)
	token, err := s.issuer.Issue(sess)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		s.writeError(w, r, "login", err)
		return
	}
	if s.store != nil {
		if err := s.store.Save(r.Context(), sess); err != nil {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			s.writeError(w, r, "login", err)
			return
		}
	}
	s.sessions.Set(sess)
	metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	if e := auditEntryFrom(r.Context()); e != nil {
		e.SessionID = sess.ID
		e.Store = sess.Store
	}
	auditEntity(r.Context(), "login", "session", sess.ID)
	s.logger.Info("User logged in", zap.String("username", sess.Username), zap.String("store", sess.Store))

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, loginResponse{
		Role: resp.Role.Name,
		sessionResponse: sessionResponse{
			Session:    sess,
			Navigation: access.Navigation(sess),
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.sessions.Revoke(sess)
	metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	if s.store != nil {
		if err := s.store.Revoke(r.Context(), sess.ID); err != nil {
			s.logger.Error("Failed to persist logout", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}
	auditEntity(r.Context(), "logout", "session", sess.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Déconnecté"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	respondJSON(w, http.StatusOK, sessionResponse{Session: sess, Navigation: access.Navigation(sess)})
}
