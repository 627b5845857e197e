// Package report builds the grouped views of the dispatch report screens:
// orders by route, free-text search over them, and per-client band reports.
package report

import (
	"sort"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/delivery"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

// ETABuffer is added to the announced arrival before a route counts as late.
const ETABuffer = 3 * time.Minute

type RouteGroup struct {
	Route      string         `json:"route"`
	DriverName string         `json:"driver_name,omitempty"`
	Orders     []models.Order `json:"orders"`
	Latest     time.Time      `json:"latest_created_at"`
}

// GroupByRoute turns the route-keyed upstream report into a slice ordered by
// the most recent order of each route.
func GroupByRoute(routes map[string]models.RouteOrders) []RouteGroup {
	groups := make([]RouteGroup, 0, len(routes))
	for route, ro := range routes {
		groups = append(groups, RouteGroup{
			Route:      route,
			DriverName: ro.DriverName,
			Orders:     ro.Orders,
			Latest:     latestCreated(ro.Orders),
		})
	}
	sortGroups(groups)
	return groups
}

// GroupOrders groups a flat order list by its route field.
func GroupOrders(orders []models.Order) []RouteGroup {
	index := make(map[string]int)
	var groups []RouteGroup
	for _, o := range orders {
		key := o.Route.String()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, RouteGroup{Route: key, DriverName: o.DriverName})
		}
		groups[i].Orders = append(groups[i].Orders, o)
	}
	for i := range groups {
		groups[i].Latest = latestCreated(groups[i].Orders)
	}
	sortGroups(groups)
	return groups
}

func sortGroups(groups []RouteGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		if !groups[i].Latest.Equal(groups[j].Latest) {
			return groups[i].Latest.After(groups[j].Latest)
		}
		return groups[i].Route < groups[j].Route
	})
}

func latestCreated(orders []models.Order) time.Time {
	var latest time.Time
	for _, o := range orders {
		if t, ok := delivery.ParseTimestamp(o.CreatedAt); ok && t.After(latest) {
			latest = t
		}
	}
	return latest
}

type Summary struct {
	TotalOrders         int    `json:"total_orders"`
	DeliveredOrders     int    `json:"delivered_orders"`
	AverageDeliveryTime string `json:"average_delivery_time"`
}

// Summarize counts the orders of the displayed groups and averages the
// delivered ones.
func Summarize(groups []RouteGroup) Summary {
	var (
		s     Summary
		pairs []delivery.Pair
	)
	for _, g := range groups {
		s.TotalOrders += len(g.Orders)
		for _, o := range g.Orders {
			if _, ok := delivery.Elapsed(o.CreatedAt, o.DeliveredAt); ok {
				s.DeliveredOrders++
				pairs = append(pairs, delivery.PairOf(o))
			}
		}
	}
	s.AverageDeliveryTime = delivery.AverageDeliveryTime(pairs)
	return s
}

type Countdown struct {
	Route    string `json:"route"`
	Arrival  string `json:"arrival"`
	TimeLeft int64  `json:"time_left_ms"`
	Label    string `json:"label"`
}

// RouteETA computes the countdown of one route from its announced arrival.
func RouteETA(route string, info models.RouteInfo, now time.Time) Countdown {
	eta := Countdown{Route: route, Arrival: info.Arrival, Label: delivery.Nearby}
	arrival, ok := delivery.ParseTimestamp(info.Arrival)
	if !ok {
		return eta
	}
	left := arrival.Add(ETABuffer).Sub(now)
	if left < 0 {
		left = 0
	}
	eta.TimeLeft = left.Milliseconds()
	eta.Label = delivery.FormatCountdown(left)
	return eta
}
