package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/access"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/metrics"
)

// handleStatic serves the compiled dashboard. Views are gated by the route
// table; anything else is a file of the bundle or falls back to index.html.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	p := path.Clean("/" + r.URL.Path)

	decision := access.Resolve(p, s.loadSession(r))
	metrics.AccessDecisionsTotal.WithLabelValues(decision.String()).Inc()

	switch decision {
	case access.RedirectLogin:
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	case access.Denied:
		http.Error(w, "Accès refusé", http.StatusForbidden)
		return
	case access.Unmatched:
		if file, ok := s.staticFile(p); ok {
			http.ServeFile(w, r, file)
			return
		}
	}
	s.serveIndex(w, r)
}

func (s *Server) staticFile(p string) (string, bool) {
	if p == "/" {
		return "", false
	}
	file := filepath.Join(s.staticDir, filepath.FromSlash(p))
	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		return "", false
	}
	return file, true
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.Error(w, "Dashboard bundle not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, index)
}
