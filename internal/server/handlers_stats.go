package server

import (
	"encoding/json"
	"net/http"

	"golang.org/x/sync/errgroup"
)

func (s *Server) handleDeliveryStats(w http.ResponseWriter, r *http.Request) {
	out, err := s.upstream.DeliveryStatsByStore(r.Context(), sessionFrom(r).Store)
	s.respondUpstream(w, r, "delivery_stats", orEmpty(out), err)
}

func (s *Server) handleDeliveryStatsRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	if start == "" || end == "" {
		respondError(w, http.StatusBadRequest, "Missing start or end date")
		return
	}
	out, err := s.upstream.DeliveryCountsByDateRange(r.Context(), sessionFrom(r).Store, start, end)
	s.respondUpstream(w, r, "delivery_stats_range", orEmpty(out), err)
}

// handlePickerStats loads location and pick counts concurrently.
func (s *Server) handlePickerStats(w http.ResponseWriter, r *http.Request) {
	store := sessionFrom(r).Store
	var locations, picked json.RawMessage

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		locations, err = s.upstream.LocationCountsByUser(ctx, store)
		return err
	})
	g.Go(func() error {
		var err error
		picked, err = s.upstream.PickedCountsByUser(ctx, store)
		return err
	})
	if err := g.Wait(); err != nil {
		s.writeError(w, r, "picker_stats", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]json.RawMessage{
		"locations": orEmptyList(locations),
		"picked":    orEmptyList(picked),
	})
}

func (s *Server) handleCommis(w http.ResponseWriter, r *http.Request) {
	out, err := s.upstream.CommisData(r.Context())
	s.respondUpstream(w, r, "commis", orEmptyList(out), err)
}

func orEmptyList(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage("[]")
	}
	return raw
}
