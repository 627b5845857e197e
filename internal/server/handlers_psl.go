package server

import (
	"net/http"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

type pslDriversRequest struct {
	OrderNumbers []string `json:"order_numbers" validate:"required,min=1,dive,required"`
}

func (s *Server) handlePsl(w http.ResponseWriter, r *http.Request) {
	page, okPage := queryInt(r, "page", 0)
	limit, okLimit := queryInt(r, "limit", defaultPageSize)
	if !okPage || !okLimit || limit == 0 || limit > maxPageSize {
		respondError(w, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}
	q := r.URL.Query()

	out, err := s.upstream.Psl(r.Context(), models.PslQuery{
		Page:        page,
		Limit:       limit,
		StartDate:   q.Get("start_date"),
		EndDate:     q.Get("end_date"),
		OrderNumber: q.Get("order_number"),
		Store:       q.Get("store"),
	})
	if err != nil {
		s.writeError(w, r, "psl", err)
		return
	}
	setTotal(w, out.Total)
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handlePslDrivers(w http.ResponseWriter, r *http.Request) {
	var req pslDriversRequest
	if !s.decode(w, r, &req) {
		return
	}
	out, err := s.upstream.PslDrivers(r.Context(), req.OrderNumbers)
	s.respondUpstream(w, r, "psl_drivers", orEmptyList(out), err)
}
