package report

import (
	"sort"
	"strings"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/delivery"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

// DateRange bounds delivered_at by whole days, both ends included.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange reads two YYYY-MM-DD dates. An incomplete range is nil.
func ParseDateRange(start, end string) (*DateRange, error) {
	if start == "" || end == "" {
		return nil, nil
	}
	s, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return nil, err
	}
	e, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return nil, err
	}
	return &DateRange{Start: s, End: e.Add(24*time.Hour - time.Nanosecond)}, nil
}

func (r *DateRange) Contains(deliveredAt string) bool {
	if r == nil {
		return true
	}
	if delivery.IsUndelivered(deliveredAt) {
		return false
	}
	t, ok := delivery.ParseTimestamp(deliveredAt)
	if !ok {
		return false
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

type ClientReport struct {
	ClientName          string          `json:"client_name"`
	Customer            string          `json:"customer"`
	Bands               delivery.Banded `json:"orders_by_time"`
	Total               int             `json:"total_orders"`
	AverageDeliveryTime string          `json:"avg_delivery_time"`
}

// ClientReports rebands the client rows of get_client_orders_info, keeping
// only clients matching search (name, case-insensitive, or customer number)
// and only orders delivered inside rng.
func ClientReports(clients []models.ClientOrdersInfo, search string, rng *DateRange) []ClientReport {
	needle := strings.ToLower(strings.TrimSpace(search))
	reports := make([]ClientReport, 0, len(clients))
	for _, c := range clients {
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.ClientName), needle) &&
			!strings.Contains(c.Customer, strings.TrimSpace(search)) {
			continue
		}

		var orders []models.Order
		for _, o := range c.AllOrders() {
			if rng.Contains(o.DeliveredAt) {
				orders = append(orders, o)
			}
		}
		sort.SliceStable(orders, func(i, j int) bool {
			return orders[i].CreatedAt > orders[j].CreatedAt
		})

		banded := delivery.Bucketize(orders)
		avg := c.AvgDeliveryTime
		if avg == "" || rng != nil {
			avg = delivery.CappedAverage(banded)
		}
		reports = append(reports, ClientReport{
			ClientName:          c.ClientName,
			Customer:            c.Customer,
			Bands:               banded,
			Total:               banded.Total(),
			AverageDeliveryTime: avg,
		})
	}
	return reports
}

// Paginate returns page pageIndex (0-based) of perPage items.
func Paginate[T any](items []T, pageIndex, perPage int) []T {
	if perPage <= 0 || pageIndex < 0 {
		return items
	}
	start := pageIndex * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
