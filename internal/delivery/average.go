package delivery

import (
	"fmt"
	"math"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

const (
	millisPerMinute = 60_000
	millisPerHour   = 3_600_000
)

// Pair is one (created_at, delivered_at) couple.
type Pair struct {
	CreatedAt   string
	DeliveredAt string
}

func PairOf(o models.Order) Pair {
	return Pair{CreatedAt: o.CreatedAt, DeliveredAt: o.DeliveredAt}
}

// AverageMillis returns the mean elapsed time in milliseconds over the valid
// pairs and how many pairs were counted.
func AverageMillis(pairs []Pair) (float64, int) {
	var (
		total int64
		count int
	)
	for _, p := range pairs {
		d, ok := Elapsed(p.CreatedAt, p.DeliveredAt)
		if !ok {
			continue
		}
		total += d.Milliseconds()
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(total) / float64(count), count
}

// AverageDeliveryTime formats the mean delivery time as "Hh Mm", or NoData.
func AverageDeliveryTime(pairs []Pair) string {
	avg, count := AverageMillis(pairs)
	if count == 0 {
		return NoData
	}
	return formatMillis(avg)
}

func AverageOfOrders(orders []models.Order) string {
	pairs := make([]Pair, 0, len(orders))
	for _, o := range orders {
		pairs = append(pairs, PairOf(o))
	}
	return AverageDeliveryTime(pairs)
}

// AverageOfDelivered only counts orders flagged as delivered.
func AverageOfDelivered(orders []models.Order) string {
	pairs := make([]Pair, 0, len(orders))
	for _, o := range orders {
		if o.IsDelivered {
			pairs = append(pairs, PairOf(o))
		}
	}
	return AverageDeliveryTime(pairs)
}

// AverageForPeriod averages delivered orders created within the last days
// days before now.
func AverageForPeriod(orders []models.Order, days int, now time.Time) string {
	start := now.Add(-time.Duration(days) * 24 * time.Hour)
	pairs := make([]Pair, 0, len(orders))
	for _, o := range orders {
		if !o.IsDelivered {
			continue
		}
		created, ok := ParseTimestamp(o.CreatedAt)
		if !ok || created.Before(start) || created.After(now) {
			continue
		}
		pairs = append(pairs, PairOf(o))
	}
	return AverageDeliveryTime(pairs)
}

// formatMillis floors hours and whole minutes. math.Mod keeps the sign of the
// dividend, so a negative average prints negative parts.
func formatMillis(ms float64) string {
	hours := math.Floor(ms / millisPerHour)
	minutes := math.Floor(math.Mod(ms, millisPerHour) / millisPerMinute)
	return fmt.Sprintf("%dh %dm", int64(hours), int64(minutes))
}

// FormatElapsed renders a single duration the same way as the averages.
func FormatElapsed(d time.Duration) string {
	return formatMillis(float64(d.Milliseconds()))
}
