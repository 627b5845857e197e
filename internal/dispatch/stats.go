package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
)

type storeIDBody struct {
	StoreID   string `json:"storeId"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

func (c *Client) DeliveryStatsByStore(ctx context.Context, store string) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "delivery_stats_by_store", method: http.MethodPost, path: "/misc_dispatch/v2/delivery_stats_by_store", body: storeIDBody{StoreID: store}, out: &out})
	return out, err
}

// DeliveryCountsByDateRange takes YYYY-MM-DD dates.
func (c *Client) DeliveryCountsByDateRange(ctx context.Context, store, start, end string) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{
		op:     "delivery_counts_by_date_range",
		method: http.MethodPost,
		path:   "/misc_dispatch/v2/delivery_counts_by_date_range",
		body:   storeIDBody{StoreID: store, StartDate: start, EndDate: end},
		out:    &out,
	})
	return out, err
}

func (c *Client) LocationCountsByUser(ctx context.Context, store string) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "count_by_user", method: http.MethodPost, path: "/misc_dispatch/v2/count_by_user", body: storeBody{store}, out: &out})
	return out, err
}

func (c *Client) PickedCountsByUser(ctx context.Context, store string) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "picked_count", method: http.MethodPost, path: "/misc_dispatch/v2/picked_count", body: storeBody{store}, out: &out})
	return out, err
}

func (c *Client) CommisData(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "commis_data", method: http.MethodGet, path: "/v2/commis-data", out: &out})
	return out, err
}
