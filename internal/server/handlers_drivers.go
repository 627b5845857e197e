package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/delivery"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

type labeledOrder struct {
	models.Order
	DeliveryTime string `json:"delivery_time"`
}

type driverPage struct {
	Driver              *models.Driver `json:"driver"`
	Orders              []labeledOrder `json:"orders"`
	AverageDeliveryTime string         `json:"average_delivery_time"`
	Average7Days        string         `json:"average_7_days"`
	Average30Days       string         `json:"average_30_days"`
}

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := s.upstream.Drivers(r.Context(), sessionFrom(r).Store)
	if drivers == nil {
		drivers = []models.Driver{}
	}
	s.respondUpstream(w, r, "list_drivers", drivers, err)
}

// handleDriverPage fetches the driver and its orders concurrently.
func (s *Server) handleDriverPage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var (
		driver *models.Driver
		orders models.DriverOrders
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		driver, err = s.upstream.Driver(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = s.upstream.OrdersByDriver(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		s.writeError(w, r, "driver_page", err)
		return
	}
	if driver == nil {
		respondError(w, http.StatusNotFound, "Chauffeur introuvable")
		return
	}

	now := time.Now()
	page := driverPage{
		Driver:              driver,
		Orders:              make([]labeledOrder, 0, len(orders.Orders)),
		AverageDeliveryTime: delivery.AverageOfDelivered(orders.Orders),
		Average7Days:        delivery.AverageForPeriod(orders.Orders, 7, now),
		Average30Days:       delivery.AverageForPeriod(orders.Orders, 30, now),
	}
	for _, o := range orders.Orders {
		page.Orders = append(page.Orders, labeledOrder{
			Order:        o,
			DeliveryTime: delivery.DeliveryLabel(o.CreatedAt, o.DeliveredAt),
		})
	}
	respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleActivateDriver(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	auditEntity(r.Context(), "driver.activate", "driver", id)
	out, err := s.upstream.ActivateDriver(r.Context(), id)
	s.respondUpstream(w, r, "activate_driver", orEmpty(out), err)
}

func (s *Server) handleDeactivateDriver(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	auditEntity(r.Context(), "driver.deactivate", "driver", id)
	out, err := s.upstream.DeactivateDriver(r.Context(), id)
	s.respondUpstream(w, r, "deactivate_driver", orEmpty(out), err)
}

func (s *Server) handleDriverStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.upstream.DriverStats(r.Context(), sessionFrom(r).Store)
	if stats == nil {
		stats = []models.DriverStat{}
	}
	s.respondUpstream(w, r, "driver_stats", stats, err)
}

func (s *Server) handleOrdersPerDay(w http.ResponseWriter, r *http.Request) {
	out, err := s.upstream.OrdersPerDay(r.Context(), sessionFrom(r).Store, r.URL.Query().Get("search"))
	s.respondUpstream(w, r, "orders_per_day", orEmpty(out), err)
}

// orEmpty turns an absent upstream body into an empty JSON object.
func orEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage("{}")
	}
	return raw
}
