package models

type Driver struct {
	ID       int64      `json:"id"`
	Username string     `json:"username"`
	Store    FlexString `json:"store"`
	Active   bool       `json:"active"`
}

// DriverOrderCounts is the raw row of driver_order_counts.
type DriverOrderCounts struct {
	DriverName      string `json:"driver_name"`
	TotalDeliveries int    `json:"total_deliveries"`
	Last30Days      int    `json:"last_30_days"`
	Last60Days      int    `json:"last_60_days"`
}

// DriverStat is the shape served to the driver statistics screen.
type DriverStat struct {
	DriverName      string `json:"driverName"`
	TotalDeliveries int    `json:"totalDeliveries"`
	Last30Days      int    `json:"last30Days"`
	Last60Days      int    `json:"last60Days"`
}

type DriverOrders struct {
	Orders                   []Order `json:"orders"`
	AverageDeliveryTimeHours float64 `json:"average_delivery_time_hours"`
}
