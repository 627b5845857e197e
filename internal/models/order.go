package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString accepts a JSON string, number or null. The dispatch API is not
// consistent about how it types route and store identifiers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

func (f FlexString) Int() (int, error) {
	return strconv.Atoi(string(f))
}

type RouteGeo struct {
	Arrival   string  `json:"arrival"`
	Departure string  `json:"departure"`
	Length    float64 `json:"length"`
	Duration  float64 `json:"duration"`
}

// Order is a delivery order as returned by the dispatch API. Timestamps are
// kept verbatim: delivered_at may hold the undelivered sentinel.
type Order struct {
	OrderNumber        string          `json:"order_number"`
	TrackingNumber     string          `json:"tracking_number,omitempty"`
	ClientName         string          `json:"client_name"`
	Customer           string          `json:"customer"`
	PhoneNumber        string          `json:"phone_number,omitempty"`
	Address            string          `json:"address,omitempty"`
	ShipAddr1          string          `json:"ship_addr1,omitempty"`
	ShipAddr2          string          `json:"ship_addr2,omitempty"`
	ShipAddr3          string          `json:"ship_addr3,omitempty"`
	CreatedAt          string          `json:"created_at"`
	DeliveredAt        string          `json:"delivered_at"`
	DispatchedAt       string          `json:"dispatched_at,omitempty"`
	ArrivedAt          string          `json:"arrived_at,omitempty"`
	UpdatedAt          string          `json:"updated_at,omitempty"`
	CancelAt           string          `json:"cancel_at,omitempty"`
	IsDelivered        bool            `json:"is_delivered"`
	Dispatch           bool            `json:"dispatch,omitempty"`
	Pickers            bool            `json:"pickers,omitempty"`
	Active             bool            `json:"active,omitempty"`
	RouteStarted       bool            `json:"route_started,omitempty"`
	DriverName         string          `json:"driver_name"`
	ReceivedBy         string          `json:"received_by,omitempty"`
	Route              FlexString      `json:"route"`
	OrderIndex         int             `json:"order_index,omitempty"`
	Latitude           float64         `json:"latitude,omitempty"`
	Longitude          float64         `json:"longitude,omitempty"`
	Geo                *RouteGeo       `json:"geo,omitempty"`
	Price              string          `json:"price,omitempty"`
	DeliveryTime       string          `json:"delivery_time,omitempty"`
	MergedOrderNumbers json.RawMessage `json:"merged_order_numbers,omitempty"`
	Items              []Item          `json:"order_info,omitempty"`
}

// Item is an order line / inventory record.
type Item struct {
	ID          int64      `json:"id"`
	Store       FlexString `json:"store"`
	OrderNumber string     `json:"order_number"`
	Item        string     `json:"item"`
	Description string     `json:"description"`
	Units       int        `json:"units"`
	State       string     `json:"state,omitempty"`
	Loc         string     `json:"loc"`
	UPC         string     `json:"upc,omitempty"`
	IsMissing   bool       `json:"is_missing"`
	IsReserved  bool       `json:"is_reserved"`
	IsArchived  bool       `json:"is_archived"`
	PickedBy    string     `json:"picked_by,omitempty"`
	ReservedBy  string     `json:"reserved_by,omitempty"`
	UpdatedBy   string     `json:"updated_by,omitempty"`
	CreatedAt   string     `json:"created_at,omitempty"`
	UpdatedAt   string     `json:"updated_at,omitempty"`
}

// RouteOrders is one entry of the route-keyed report returned by
// get_all_drivers_orders.
type RouteOrders struct {
	DriverName string  `json:"driver_name,omitempty"`
	Orders     []Order `json:"orders"`
}

// ClientOrdersInfo is one client of get_client_orders_info, with orders
// already split by delivery-time band on the server.
type ClientOrdersInfo struct {
	ClientName      string                     `json:"client_name"`
	Customer        string                     `json:"customer"`
	OrdersByTime    map[string]OrdersByTimeRow `json:"orders_by_time"`
	AvgDeliveryTime string                     `json:"avg_delivery_time,omitempty"`
}

type OrdersByTimeRow struct {
	Orders []Order `json:"orders"`
}

// AllOrders flattens the server-side bands.
func (c ClientOrdersInfo) AllOrders() []Order {
	var out []Order
	for _, row := range c.OrdersByTime {
		out = append(out, row.Orders...)
	}
	return out
}

type ClientOrdersPage struct {
	Clients      []ClientOrdersInfo `json:"clients"`
	TotalClients int                `json:"totalClients"`
}

// OrderStatistics is the store-wide counter block of the report screen.
type OrderStatistics struct {
	TotalOrders          int    `json:"total_orders"`
	DeliveredOrdersCount int    `json:"delivered_orders_count"`
	AverageDeliveryTime  string `json:"average_delivery_time"`
}
