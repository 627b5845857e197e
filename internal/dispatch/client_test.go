package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/access"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, "secret-key", 2*time.Second, zap.NewNop())
}

func sessionCtx() context.Context {
	return access.WithSession(context.Background(), &access.Session{ID: "s", UpstreamToken: "tok"})
}

func TestClient_Headers(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"drivers": []}`))
	})

	_, err := c.Drivers(sessionCtx(), "3")
	require.NoError(t, err)

	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "secret-key", got.Get("X-Dispatch-key"))
	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
}

func TestClient_NoSessionNoBearer(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"access_token": "abc", "role": {"permissions": [{"name": "dispatch"}]}, "store": 7}`))
	})

	resp, err := c.Login(context.Background(), models.LoginRequest{Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Empty(t, got.Get("Authorization"))
	assert.Equal(t, "abc", resp.AccessToken)
	assert.Equal(t, "7", resp.Store.String())
	assert.Equal(t, []string{"dispatch"}, resp.Role.PermissionNames())
}

func TestClient_APIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		detail string
	}{
		{name: "string detail", status: 400, body: `{"detail": "Utilisateur existe déjà"}`, detail: "Utilisateur existe déjà"},
		{name: "structured detail", status: 422, body: `{"detail": {"message": "Invalid items", "errors": ["row 1", "row 2"]}}`, detail: "Invalid items: row 1, row 2"},
		{name: "validation list", status: 422, body: `{"detail": [{"loc": ["body"], "msg": "field required"}]}`, detail: "field required"},
		{name: "plain body", status: 500, body: "boom", detail: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.CreateUserRole(sessionCtx(), models.CreateUserRequest{})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.detail, apiErr.Detail)
		})
	}
}

func TestClient_TransportErrors(t *testing.T) {
	t.Run("server down", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c := New(srv.URL, "", time.Second, zap.NewNop())

		_, err := c.Users(sessionCtx())
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("garbled body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		})
		_, err := c.Users(sessionCtx())
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("canceled request", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})
		ctx, cancel := context.WithCancel(sessionCtx())
		cancel()
		_, err := c.Users(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClient_ClientsTotal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/get_pos_arc_d_head", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "100", r.URL.Query().Get("offset"))
		assert.Equal(t, "roy", r.URL.Query().Get("search"))
		w.Header().Set("X-Total-Count", "321")
		_, _ = w.Write([]byte(`[{"id": 12, "name": "Garage Roy"}]`))
	})

	page, err := c.Clients(sessionCtx(), 50, 100, "roy")
	require.NoError(t, err)
	assert.Equal(t, 321, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "12", page.Items[0].ID.String())

	out, err := json.Marshal(page.Items[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 12, "name": "Garage Roy"}`, string(out))
}

func TestClient_DriversOrders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "200", r.URL.Query().Get("offset"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))

		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"store": "3", "search": ["A12", "Martin"]}`, string(raw))

		_, _ = w.Write([]byte(`{"7": {"orders": [{"order_number": "A12", "route": 7}]}}`))
	})

	routes, err := c.DriversOrders(sessionCtx(), "3", 2, 100, "A12, Martin")
	require.NoError(t, err)
	require.Contains(t, routes, "7")
	assert.Equal(t, "7", routes["7"].Orders[0].Route.String())
}

func TestClient_DriverStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"driver_name": "Luc", "total_deliveries": 40, "last_30_days": 12, "last_60_days": 20}]`))
	})

	stats, err := c.DriverStats(sessionCtx(), "3")
	require.NoError(t, err)
	assert.Equal(t, []models.DriverStat{{DriverName: "Luc", TotalDeliveries: 40, Last30Days: 12, Last60Days: 20}}, stats)
}

func TestClient_Driver(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *models.Driver
	}{
		{name: "list", body: `{"drivers": [{"id": 4, "username": "luc"}]}`, want: &models.Driver{ID: 4, Username: "luc"}},
		{name: "object", body: `{"drivers": {"id": 4, "username": "luc"}}`, want: &models.Driver{ID: 4, Username: "luc"}},
		{name: "empty", body: `{"drivers": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			got, err := c.Driver(sessionCtx(), "4")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_BulkReturnsStampsStore(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"items": [{"item": "X1", "units": 2, "store": "9"}]}`, string(raw))
		_, _ = w.Write([]byte(`{"ok": true}`))
	})

	out, err := c.BulkReturns(sessionCtx(), "9", []models.ReturnItem{{Item: "X1", Units: 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok": true}`, string(out))
}

func TestClient_RouteInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"5", "6"}, r.URL.Query()["routes"])
		_, _ = w.Write([]byte(`{"5": {"arrival": "2024-03-01T11:00:00Z"}}`))
	})

	info, err := c.RouteInfo(sessionCtx(), []string{"5", "6"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T11:00:00Z", info["5"].Arrival)
}
