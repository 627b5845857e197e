package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

func (c *Client) MissingItems(ctx context.Context, store string) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "get_all_missing_items", method: http.MethodPost, path: "/v2/get_all_missing_items_v2", body: storeBody{store}, out: &out})
	return out, err
}

func (c *Client) MarkInStock(ctx context.Context, id string) (json.RawMessage, error) {
	body := struct {
		ID string `json:"id"`
	}{id}
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "in_stock", method: http.MethodPost, path: "/v2/in_stock_v2", body: body, out: &out})
	return out, err
}

func (c *Client) Localisations(ctx context.Context, store string, limit, offset int, search string) (models.Page[models.Localisation], error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("search_term", search)

	var out struct {
		Localisations []models.Localisation `json:"localisations"`
	}
	h, err := c.do(ctx, call{
		op:     "get_all_localisation",
		method: http.MethodPost,
		path:   "/misc_dispatch/v2/get_all_localisation",
		query:  q,
		body:   storeIDBody{StoreID: store},
		out:    &out,
	})
	if err != nil {
		return models.Page[models.Localisation]{}, err
	}
	if out.Localisations == nil {
		out.Localisations = []models.Localisation{}
	}
	return models.Page[models.Localisation]{Items: out.Localisations, Total: totalCount(h)}, nil
}

func (c *Client) ArchiveSection(ctx context.Context, store string, req models.ArchiveSectionRequest) (json.RawMessage, error) {
	body := struct {
		Store string `json:"store"`
		models.ArchiveSectionRequest
	}{store, req}
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "locations_bulk_delete", method: http.MethodPost, path: "/v2/locations_bulk_delete", body: body, out: &out})
	return out, err
}

func (c *Client) ArchiveLocalisation(ctx context.Context, req models.ArchiveLocationRequest) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "archive_localisation", method: http.MethodPut, path: "/v2/archive_localisation", body: req, out: &out})
	return out, err
}

func (c *Client) PickForm(ctx context.Context, store string, req models.PickFormRequest) (json.RawMessage, error) {
	body := struct {
		models.PickFormRequest
		StoreID string `json:"store_id"`
	}{req, store}
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "picker_form", method: http.MethodPost, path: "/v2/picker_form", body: body, out: &out})
	return out, err
}

// BulkReturns stamps every item with the store before sending.
func (c *Client) BulkReturns(ctx context.Context, store string, items []models.ReturnItem) (json.RawMessage, error) {
	stamped := make([]models.ReturnItem, 0, len(items))
	for _, it := range items {
		it.Store = store
		stamped = append(stamped, it)
	}
	body := struct {
		Items []models.ReturnItem `json:"items"`
	}{stamped}
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "bulk_returns", method: http.MethodPost, path: "/v2/bulk-returns/", body: body, out: &out})
	return out, err
}
