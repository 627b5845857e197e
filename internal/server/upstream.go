package server

import (
	"context"
	"encoding/json"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

// Upstream is the part of the dispatch API the dashboard serves.
type Upstream interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	CreateUserRole(ctx context.Context, req models.CreateUserRequest) (json.RawMessage, error)
	Users(ctx context.Context) ([]models.User, error)
	UpdateUserRole(ctx context.Context, id string, req models.UpdateUserRequest) error
	Clients(ctx context.Context, limit, offset int, search string) (models.Page[models.Client], error)
	UpdateClient(ctx context.Context, id string, fields map[string]interface{}) (json.RawMessage, error)
	DeleteClient(ctx context.Context, id string) error

	Drivers(ctx context.Context, store string) ([]models.Driver, error)
	Driver(ctx context.Context, id string) (*models.Driver, error)
	OrdersByDriver(ctx context.Context, id string) (models.DriverOrders, error)
	ActivateDriver(ctx context.Context, id string) (json.RawMessage, error)
	DeactivateDriver(ctx context.Context, id string) (json.RawMessage, error)
	DriverStats(ctx context.Context, store string) ([]models.DriverStat, error)
	OrdersPerDay(ctx context.Context, store, search string) (json.RawMessage, error)

	DeliveryStatsByStore(ctx context.Context, store string) (json.RawMessage, error)
	DeliveryCountsByDateRange(ctx context.Context, store, start, end string) (json.RawMessage, error)
	LocationCountsByUser(ctx context.Context, store string) (json.RawMessage, error)
	PickedCountsByUser(ctx context.Context, store string) (json.RawMessage, error)
	CommisData(ctx context.Context) (json.RawMessage, error)

	MissingItems(ctx context.Context, store string) (json.RawMessage, error)
	MarkInStock(ctx context.Context, id string) (json.RawMessage, error)
	Localisations(ctx context.Context, store string, limit, offset int, search string) (models.Page[models.Localisation], error)
	ArchiveSection(ctx context.Context, store string, req models.ArchiveSectionRequest) (json.RawMessage, error)
	ArchiveLocalisation(ctx context.Context, req models.ArchiveLocationRequest) (json.RawMessage, error)
	PickForm(ctx context.Context, store string, req models.PickFormRequest) (json.RawMessage, error)
	BulkReturns(ctx context.Context, store string, items []models.ReturnItem) (json.RawMessage, error)

	Psl(ctx context.Context, pq models.PslQuery) (models.Page[json.RawMessage], error)
	PslDrivers(ctx context.Context, orderNumbers []string) (json.RawMessage, error)

	DriversOrders(ctx context.Context, store string, pageIndex, limit int, search string) (map[string]models.RouteOrders, error)
	OrderStatistics(ctx context.Context, store string) (models.OrderStatistics, error)
	SearchDriverOrder(ctx context.Context, store, query string) (json.RawMessage, error)
	ClientOrdersInfo(ctx context.Context, store, search string, pageIndex, perPage int) (models.ClientOrdersPage, error)
	RouteInfo(ctx context.Context, routes []string) (map[string]models.RouteInfo, error)
	Route(ctx context.Context, origin, destination, departureTime string) (json.RawMessage, error)
}
