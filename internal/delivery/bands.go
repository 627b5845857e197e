package delivery

import (
	"encoding/json"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

type Band int

const (
	Band1To20 Band = iota
	Band21To40
	Band41To60
	Band61To90
	Band91Plus
)

// BandCount is the number of reporting bands.
const BandCount = 5

var bandLabels = [BandCount]string{"1-20min", "21-40min", "41-60min", "60-90min", "90+min"}

// upper bounds in whole minutes, inclusive
var bandUpper = [BandCount - 1]int64{20, 40, 60, 90}

func (b Band) String() string {
	if b < 0 || int(b) >= BandCount {
		return "unknown"
	}
	return bandLabels[b]
}

func Bands() []Band {
	return []Band{Band1To20, Band21To40, Band41To60, Band61To90, Band91Plus}
}

// BandFor places a non-negative number of whole minutes. A delivery under one
// minute lands in the first band so the bands cover every non-negative value.
func BandFor(minutes int64) (Band, bool) {
	if minutes < 0 {
		return 0, false
	}
	for i, upper := range bandUpper {
		if minutes <= upper {
			return Band(i), true
		}
	}
	return Band91Plus, true
}

// OrderMinutes is the delivery time of an order in whole minutes.
func OrderMinutes(o models.Order) (int64, bool) {
	d, ok := Elapsed(o.CreatedAt, o.DeliveredAt)
	if !ok {
		return 0, false
	}
	ms := d.Milliseconds()
	if ms < 0 {
		// floor, so that -30s is -1 and never reaches a band
		return (ms - millisPerMinute + 1) / millisPerMinute, true
	}
	return ms / millisPerMinute, true
}

type BandBucket struct {
	Label  string         `json:"label"`
	Orders []models.Order `json:"orders"`
	Count  int            `json:"count"`
}

// Banded is an order collection split into the five bands. Orders without a
// computable non-negative duration are kept aside in Unbanded.
type Banded struct {
	Buckets  [BandCount]BandBucket
	Unbanded []models.Order
}

func Bucketize(orders []models.Order) Banded {
	var b Banded
	for i := range b.Buckets {
		b.Buckets[i] = BandBucket{Label: bandLabels[i], Orders: []models.Order{}}
	}
	for _, o := range orders {
		minutes, ok := OrderMinutes(o)
		if !ok {
			b.Unbanded = append(b.Unbanded, o)
			continue
		}
		band, ok := BandFor(minutes)
		if !ok {
			b.Unbanded = append(b.Unbanded, o)
			continue
		}
		bucket := &b.Buckets[band]
		bucket.Orders = append(bucket.Orders, o)
		bucket.Count++
	}
	return b
}

func (b Banded) Bucket(band Band) BandBucket {
	return b.Buckets[band]
}

// Orders returns every banded order, first band first.
func (b Banded) Orders() []models.Order {
	var all []models.Order
	for _, bucket := range b.Buckets {
		all = append(all, bucket.Orders...)
	}
	return all
}

func (b Banded) Total() int {
	total := 0
	for _, bucket := range b.Buckets {
		total += bucket.Count
	}
	return total
}

// MarshalJSON keeps the orders_by_time shape the screens already consume.
func (b Banded) MarshalJSON() ([]byte, error) {
	out := make(map[string]BandBucket, BandCount)
	for _, bucket := range b.Buckets {
		out[bucket.Label] = bucket
	}
	return json.Marshal(out)
}
