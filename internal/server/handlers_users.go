package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/report"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !s.decode(w, r, &req) {
		return
	}
	auditEntity(r.Context(), "user.create", "user", req.Username)

	out, err := s.upstream.CreateUserRole(r.Context(), req)
	if err != nil {
		s.writeError(w, r, "create_user", err)
		return
	}
	respondJSON(w, http.StatusCreated, out)
}

// handleListUsers pages the user list locally; the upstream returns it whole.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, okPage := queryInt(r, "page", 0)
	perPage, okPer := queryInt(r, "per_page", 0)
	if !okPage || !okPer || perPage > maxPageSize {
		respondError(w, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	users, err := s.upstream.Users(r.Context())
	if err != nil {
		s.writeError(w, r, "list_users", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	setTotal(w, len(users))
	if perPage > 0 {
		users = report.Paginate(users, page, perPage)
	}
	respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req models.UpdateUserRequest
	if !s.decode(w, r, &req) {
		return
	}
	auditEntity(r.Context(), "user.update", "user", id)

	if err := s.upstream.UpdateUserRole(r.Context(), id, req); err != nil {
		s.writeError(w, r, "update_user", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Utilisateur mis à jour"})
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	limit, okLimit := queryInt(r, "limit", defaultPageSize)
	offset, okOffset := queryInt(r, "offset", 0)
	if !okLimit || !okOffset || limit == 0 || limit > maxPageSize {
		respondError(w, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	page, err := s.upstream.Clients(r.Context(), limit, offset, r.URL.Query().Get("search"))
	if err != nil {
		s.writeError(w, r, "list_clients", err)
		return
	}
	setTotal(w, page.Total)
	respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var fields map[string]interface{}
	if !s.decode(w, r, &fields) {
		return
	}
	if len(fields) == 0 {
		respondError(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	auditEntity(r.Context(), "client.update", "client", id)

	out, err := s.upstream.UpdateClient(r.Context(), id, fields)
	s.respondUpstream(w, r, "update_client", out, err)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	auditEntity(r.Context(), "client.delete", "client", id)

	if err := s.upstream.DeleteClient(r.Context(), id); err != nil {
		s.writeError(w, r, "delete_client", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Client supprimé"})
}

func setTotal(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}
