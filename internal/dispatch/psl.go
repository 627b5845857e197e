package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

func (c *Client) Psl(ctx context.Context, pq models.PslQuery) (models.Page[json.RawMessage], error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(pq.Limit))
	q.Set("page", strconv.Itoa(pq.Page+1))
	for k, v := range map[string]string{
		"start_date":   pq.StartDate,
		"end_date":     pq.EndDate,
		"order_number": pq.OrderNumber,
		"store":        pq.Store,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}

	var out struct {
		Data []json.RawMessage `json:"data"`
	}
	h, err := c.do(ctx, call{op: "psl", method: http.MethodGet, path: "/v2/psl", query: q, out: &out})
	if err != nil {
		return models.Page[json.RawMessage]{}, err
	}
	if out.Data == nil {
		out.Data = []json.RawMessage{}
	}
	return models.Page[json.RawMessage]{Items: out.Data, Total: totalCount(h)}, nil
}

func (c *Client) PslDrivers(ctx context.Context, orderNumbers []string) (json.RawMessage, error) {
	body := struct {
		OrderNumbers []string `json:"order_numbers"`
	}{orderNumbers}
	var out struct {
		Data json.RawMessage `json:"data"`
	}
	_, err := c.do(ctx, call{op: "psl_drivers", method: http.MethodPost, path: "/v2/psl/drivers", body: body, out: &out})
	if len(out.Data) == 0 {
		out.Data = json.RawMessage("[]")
	}
	return out.Data, err
}
