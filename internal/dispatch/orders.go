package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

// DriversOrders fetches one page of the route-keyed report, newest first.
// pageIndex is 0-based like every paged dashboard endpoint.
func (c *Client) DriversOrders(ctx context.Context, store string, pageIndex, limit int, search string) (map[string]models.RouteOrders, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(pageIndex*limit))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("order", "created_at.desc")

	body := struct {
		Store  string   `json:"store"`
		Search []string `json:"search"`
	}{Store: store, Search: []string{}}
	body.Search = append(body.Search, strings.FieldsFunc(search, func(r rune) bool {
		return r == ' ' || r == ','
	})...)

	out := map[string]models.RouteOrders{}
	_, err := c.do(ctx, call{op: "get_all_drivers_orders", method: http.MethodPost, path: "/misc_dispatch/v2/get_all_drivers_orders", query: q, body: body, out: &out})
	if out == nil {
		out = map[string]models.RouteOrders{}
	}
	return out, err
}

func (c *Client) OrderStatistics(ctx context.Context, store string) (models.OrderStatistics, error) {
	var out models.OrderStatistics
	_, err := c.do(ctx, call{op: "get_orders_count", method: http.MethodPost, path: "/misc_dispatch/v2/get_orders_count", body: storeBody{store}, out: &out})
	return out, err
}

func (c *Client) SearchDriverOrder(ctx context.Context, store, query string) (json.RawMessage, error) {
	body := struct {
		SearchQuery string `json:"search_query"`
		Store       string `json:"store"`
	}{query, store}
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "search_driver_order", method: http.MethodPost, path: "/misc_dispatch/v2/search_driver_order", body: body, out: &out})
	return out, err
}

// ClientOrdersInfo fetches the per-client band report. The API wants the
// store as a number.
func (c *Client) ClientOrdersInfo(ctx context.Context, store, search string, pageIndex, perPage int) (models.ClientOrdersPage, error) {
	body := map[string]interface{}{
		"store":         store,
		"search":        search,
		"pageIndex":     pageIndex,
		"ordersPerPage": perPage,
	}
	if n, err := strconv.Atoi(store); err == nil {
		body["store"] = n
	}
	var out models.ClientOrdersPage
	_, err := c.do(ctx, call{op: "get_client_orders_info", method: http.MethodPost, path: "/misc_dispatch/v2/get_client_orders_info", body: body, out: &out})
	return out, err
}

func (c *Client) RouteInfo(ctx context.Context, routes []string) (map[string]models.RouteInfo, error) {
	q := url.Values{}
	for _, r := range routes {
		q.Add("routes", r)
	}
	out := map[string]models.RouteInfo{}
	_, err := c.do(ctx, call{op: "get_route_info", method: http.MethodGet, path: "/misc_dispatch/get_route_info", query: q, out: &out})
	return out, err
}

func (c *Client) Route(ctx context.Context, origin, destination, departureTime string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	if departureTime != "" {
		q.Set("departureTime", departureTime)
	}
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "get_route", method: http.MethodGet, path: "/misc_dispatch/get_route", query: q, out: &out})
	return out, err
}
