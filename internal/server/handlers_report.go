package server

import (
	"net/http"
	"strings"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/export"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/report"
)

const (
	defaultReportLimit = 50
	exportPageSize     = 1000
)

type routesReport struct {
	Routes  []report.RouteGroup `json:"routes"`
	Summary report.Summary      `json:"summary"`
}

type clientStatsResponse struct {
	Clients      []report.ClientReport `json:"clients"`
	TotalClients int                   `json:"totalClients"`
}

// handleReportRoutes serves the route report, filtered by the search box.
func (s *Server) handleReportRoutes(w http.ResponseWriter, r *http.Request) {
	page, okPage := queryInt(r, "page", 0)
	limit, okLimit := queryInt(r, "limit", defaultReportLimit)
	if !okPage || !okLimit || limit == 0 || limit > maxPageSize {
		respondError(w, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}
	search := r.URL.Query().Get("search")

	routes, err := s.upstream.DriversOrders(r.Context(), sessionFrom(r).Store, page, limit, search)
	if err != nil {
		s.writeError(w, r, "report_routes", err)
		return
	}
	groups := report.Filter(report.GroupByRoute(routes), search, s.logger)
	respondJSON(w, http.StatusOK, routesReport{Routes: groups, Summary: report.Summarize(groups)})
}

func (s *Server) handleReportStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.upstream.OrderStatistics(r.Context(), sessionFrom(r).Store)
	s.respondUpstream(w, r, "report_statistics", stats, err)
}

// handleRouteInfo answers the arrival countdown of each requested route,
// in request order.
func (s *Server) handleRouteInfo(w http.ResponseWriter, r *http.Request) {
	var routes []string
	for _, v := range r.URL.Query()["routes"] {
		for _, route := range strings.Split(v, ",") {
			if route = strings.TrimSpace(route); route != "" {
				routes = append(routes, route)
			}
		}
	}
	if len(routes) == 0 {
		respondError(w, http.StatusBadRequest, "Missing routes")
		return
	}

	info, err := s.upstream.RouteInfo(r.Context(), routes)
	if err != nil {
		s.writeError(w, r, "route_info", err)
		return
	}
	now := time.Now()
	countdowns := make([]report.Countdown, 0, len(routes))
	for _, route := range routes {
		countdowns = append(countdowns, report.RouteETA(route, info[route], now))
	}
	respondJSON(w, http.StatusOK, countdowns)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin, destination := q.Get("origin"), q.Get("destination")
	if origin == "" || destination == "" {
		respondError(w, http.StatusBadRequest, "Missing origin or destination")
		return
	}
	out, err := s.upstream.Route(r.Context(), origin, destination, q.Get("departureTime"))
	s.respondUpstream(w, r, "route", orEmpty(out), err)
}

func (s *Server) handleSearchOrders(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "Missing search query")
		return
	}
	out, err := s.upstream.SearchDriverOrder(r.Context(), sessionFrom(r).Store, query)
	s.respondUpstream(w, r, "search_orders", orEmptyList(out), err)
}

func (s *Server) clientReports(r *http.Request, pageIndex, perPage int) (clientStatsResponse, error) {
	q := r.URL.Query()
	rng, err := report.ParseDateRange(q.Get("start"), q.Get("end"))
	if err != nil {
		return clientStatsResponse{}, errBadDateRange
	}
	search := q.Get("search")
	page, err := s.upstream.ClientOrdersInfo(r.Context(), sessionFrom(r).Store, search, pageIndex, perPage)
	if err != nil {
		return clientStatsResponse{}, err
	}
	return clientStatsResponse{
		Clients:      report.ClientReports(page.Clients, search, rng),
		TotalClients: page.TotalClients,
	}, nil
}

func (s *Server) handleClientStats(w http.ResponseWriter, r *http.Request) {
	pageIndex, okPage := queryInt(r, "page", 0)
	perPage, okPer := queryInt(r, "per_page", defaultPageSize)
	if !okPage || !okPer || perPage == 0 || perPage > maxPageSize {
		respondError(w, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	resp, err := s.clientReports(r, pageIndex, perPage)
	s.respondUpstream(w, r, "client_stats", resp, err)
}

func (s *Server) handleClientStatsExport(w http.ResponseWriter, r *http.Request) {
	resp, err := s.clientReports(r, 0, exportPageSize)
	if err != nil {
		s.writeError(w, r, "client_stats_export", err)
		return
	}
	data, err := export.ClientReportXLSX(resp.Clients)
	if err != nil {
		s.writeError(w, r, "client_stats_export", err)
		return
	}

	filename := "statistiques-clients-" + time.Now().Format(time.DateOnly) + ".xlsx"
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
