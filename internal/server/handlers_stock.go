package server

import (
	"mime"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/csvimport"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

const maxUpload = 5 << 20

type bulkReturnsRequest struct {
	Items []models.ReturnItem `json:"items" validate:"required,min=1,dive"`
}

func (s *Server) handleMissingItems(w http.ResponseWriter, r *http.Request) {
	out, err := s.upstream.MissingItems(r.Context(), sessionFrom(r).Store)
	s.respondUpstream(w, r, "missing_items", orEmptyList(out), err)
}

func (s *Server) handleMarkInStock(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	auditEntity(r.Context(), "missing_item.in_stock", "missing_item", id)
	out, err := s.upstream.MarkInStock(r.Context(), id)
	s.respondUpstream(w, r, "mark_in_stock", orEmpty(out), err)
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	limit, okLimit := queryInt(r, "limit", defaultPageSize)
	offset, okOffset := queryInt(r, "offset", 0)
	if !okLimit || !okOffset || limit == 0 || limit > maxPageSize {
		respondError(w, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	page, err := s.upstream.Localisations(r.Context(), sessionFrom(r).Store, limit, offset, r.URL.Query().Get("search"))
	if err != nil {
		s.writeError(w, r, "list_locations", err)
		return
	}
	setTotal(w, page.Total)
	respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleArchiveSection(w http.ResponseWriter, r *http.Request) {
	var req models.ArchiveSectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	auditEntity(r.Context(), "location.archive_section", "section", req.Level+"-"+req.Row+"-"+req.Side)

	out, err := s.upstream.ArchiveSection(r.Context(), sessionFrom(r).Store, req)
	s.respondUpstream(w, r, "archive_section", orEmpty(out), err)
}

func (s *Server) handleArchiveLocation(w http.ResponseWriter, r *http.Request) {
	var req models.ArchiveLocationRequest
	if !s.decode(w, r, &req) {
		return
	}
	auditEntity(r.Context(), "location.archive", "location", req.FullLocation)

	out, err := s.upstream.ArchiveLocalisation(r.Context(), req)
	s.respondUpstream(w, r, "archive_location", orEmpty(out), err)
}

func (s *Server) handlePickForm(w http.ResponseWriter, r *http.Request) {
	var req models.PickFormRequest
	if !s.decode(w, r, &req) {
		return
	}
	auditEntity(r.Context(), "pick_form.submit", "item", req.ItemName)

	out, err := s.upstream.PickForm(r.Context(), sessionFrom(r).Store, req)
	s.respondUpstream(w, r, "pick_form", orEmpty(out), err)
}

// handleBulkReturns accepts either a JSON item list or a CSV file, sent
// raw as text/csv or as the "file" field of a multipart form.
func (s *Server) handleBulkReturns(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	var items []models.ReturnItem
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		file, _, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Missing CSV file")
			return
		}
		defer file.Close()
		if items, err = csvimport.ParseBulkReturns(file); err != nil {
			s.writeError(w, r, "bulk_returns", err)
			return
		}
	case "text/csv":
		var err error
		if items, err = csvimport.ParseBulkReturns(r.Body); err != nil {
			s.writeError(w, r, "bulk_returns", err)
			return
		}
	default:
		var req bulkReturnsRequest
		if !s.decode(w, r, &req) {
			return
		}
		items = req.Items
	}
	auditEntity(r.Context(), "returns.bulk", "returns", "")

	out, err := s.upstream.BulkReturns(r.Context(), sessionFrom(r).Store, items)
	if err != nil {
		s.writeError(w, r, "bulk_returns", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(items),
		"result": orEmpty(out),
	})
}
