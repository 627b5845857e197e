package dispatch

import (
	"context"
	"encoding/json"
	"net/http"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

type storeBody struct {
	Store string `json:"store"`
}

type driverBody struct {
	DriverID string `json:"driver_id"`
}

func (c *Client) Drivers(ctx context.Context, store string) ([]models.Driver, error) {
	var out struct {
		Drivers []models.Driver `json:"drivers"`
	}
	_, err := c.do(ctx, call{op: "get_drivers", method: http.MethodPost, path: "/driver/get_drivers", body: storeBody{store}, out: &out})
	if out.Drivers == nil {
		out.Drivers = []models.Driver{}
	}
	return out.Drivers, err
}

// Driver returns nil without error when the API knows no such driver.
func (c *Client) Driver(ctx context.Context, id string) (*models.Driver, error) {
	var out struct {
		Drivers json.RawMessage `json:"drivers"`
	}
	if _, err := c.do(ctx, call{op: "get_driver", method: http.MethodPost, path: "/driver/get_driver", body: driverBody{id}, out: &out}); err != nil {
		return nil, err
	}

	// the API answers either one object or a one-element list
	var list []models.Driver
	if err := json.Unmarshal(out.Drivers, &list); err == nil {
		if len(list) == 0 {
			return nil, nil
		}
		return &list[0], nil
	}
	var one models.Driver
	if err := json.Unmarshal(out.Drivers, &one); err != nil {
		return nil, nil
	}
	return &one, nil
}

func (c *Client) OrdersByDriver(ctx context.Context, id string) (models.DriverOrders, error) {
	var out models.DriverOrders
	_, err := c.do(ctx, call{op: "get_all_orders_by_id", method: http.MethodPost, path: "/misc_dispatch/get_all_orders_by_id", body: driverBody{id}, out: &out})
	if out.Orders == nil {
		out.Orders = []models.Order{}
	}
	return out, err
}

func (c *Client) ActivateDriver(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "activate_driver", method: http.MethodPost, path: "/driver/activate", body: driverBody{id}, out: &out})
	return out, err
}

func (c *Client) DeactivateDriver(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "deactivate_driver", method: http.MethodPost, path: "/driver/deactivate", body: driverBody{id}, out: &out})
	return out, err
}

// DriverStats returns the delivery counters per driver, renamed for the
// statistics screen.
func (c *Client) DriverStats(ctx context.Context, store string) ([]models.DriverStat, error) {
	var raw []models.DriverOrderCounts
	if _, err := c.do(ctx, call{op: "driver_order_counts", method: http.MethodPost, path: "/misc_dispatch/v2/driver_order_counts", body: storeBody{store}, out: &raw}); err != nil {
		return nil, err
	}
	stats := make([]models.DriverStat, 0, len(raw))
	for _, r := range raw {
		stats = append(stats, models.DriverStat{
			DriverName:      r.DriverName,
			TotalDeliveries: r.TotalDeliveries,
			Last30Days:      r.Last30Days,
			Last60Days:      r.Last60Days,
		})
	}
	return stats, nil
}

func (c *Client) OrdersPerDay(ctx context.Context, store, search string) (json.RawMessage, error) {
	body := struct {
		Store  string   `json:"store"`
		Search []string `json:"search"`
	}{Store: store, Search: []string{}}
	if search != "" {
		body.Search = []string{search}
	}
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "get_orders_per_day", method: http.MethodPost, path: "/driver/get_orders_per_day", body: body, out: &out})
	return out, err
}
