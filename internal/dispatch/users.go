package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	_, err := c.do(ctx, call{op: "login", method: http.MethodPost, path: "/v2/login_user", body: req, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateUserRole(ctx context.Context, req models.CreateUserRequest) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "create_user_role", method: http.MethodPost, path: "/v2/create_user_role", body: req, out: &out})
	return out, err
}

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var out []models.User
	_, err := c.do(ctx, call{op: "get_all_users", method: http.MethodGet, path: "/v2/get_all_users", out: &out})
	return out, err
}

func (c *Client) UpdateUserRole(ctx context.Context, id string, req models.UpdateUserRequest) error {
	_, err := c.do(ctx, call{op: "update_user_role", method: http.MethodPut, path: pathID("/v2/update_user_role/", id), body: req})
	return err
}

// Clients lists the customer records of the coordinates screen.
func (c *Client) Clients(ctx context.Context, limit, offset int, search string) (models.Page[models.Client], error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("search", search)

	var out []models.Client
	h, err := c.do(ctx, call{op: "get_clients", method: http.MethodGet, path: "/v2/get_pos_arc_d_head", query: q, out: &out})
	if err != nil {
		return models.Page[models.Client]{}, err
	}
	if out == nil {
		out = []models.Client{}
	}
	return models.Page[models.Client]{Items: out, Total: totalCount(h)}, nil
}

func (c *Client) UpdateClient(ctx context.Context, id string, fields map[string]interface{}) (json.RawMessage, error) {
	var out json.RawMessage
	_, err := c.do(ctx, call{op: "update_client", method: http.MethodPut, path: pathID("/v2/update_client/", id), body: fields, out: &out})
	return out, err
}

func (c *Client) DeleteClient(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{op: "delete_client", method: http.MethodDelete, path: pathID("/v2/delete_client/", id)})
	return err
}
