package delivery

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

func order(created, delivered string, isDelivered bool) models.Order {
	return models.Order{CreatedAt: created, DeliveredAt: delivered, IsDelivered: isDelivered}
}

func TestAverageDeliveryTime(t *testing.T) {
	tests := []struct {
		name  string
		pairs []Pair
		want  string
	}{
		{
			name:  "single half hour delivery",
			pairs: []Pair{{CreatedAt: "2024-01-01T00:00:00", DeliveredAt: "2024-01-01T00:30:00"}},
			want:  "0h 30m",
		},
		{
			name:  "empty list",
			pairs: nil,
			want:  NoData,
		},
		{
			name:  "sentinel only",
			pairs: []Pair{{CreatedAt: "2024-01-01T00:00:00", DeliveredAt: UndeliveredSentinel}},
			want:  NoData,
		},
		{
			name: "sentinel is ignored in the mean",
			pairs: []Pair{
				{CreatedAt: "2024-01-01T00:00:00", DeliveredAt: "2024-01-01T01:00:00"},
				{CreatedAt: "2024-01-01T00:00:00", DeliveredAt: UndeliveredSentinel},
				{CreatedAt: "2024-01-01T00:00:00", DeliveredAt: "2024-01-01T02:00:00"},
			},
			want: "1h 30m",
		},
		{
			name: "unparseable timestamps are skipped",
			pairs: []Pair{
				{CreatedAt: "garbage", DeliveredAt: "2024-01-01T01:00:00"},
				{CreatedAt: "2024-01-01T00:00:00", DeliveredAt: ""},
				{CreatedAt: "2024-01-01T00:00:00", DeliveredAt: "2024-01-01T00:45:30"},
			},
			want: "0h 45m",
		},
		{
			name: "zoned timestamps",
			pairs: []Pair{
				{CreatedAt: "2024-01-01T10:00:00+02:00", DeliveredAt: "2024-01-01T08:20:00Z"},
			},
			want: "0h 20m",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AverageDeliveryTime(tc.pairs))
		})
	}
}

func TestAverageDeliveryTime_OrderIndependent(t *testing.T) {
	orders := []models.Order{
		order("2024-01-01T00:00:00", "2024-01-01T00:13:00", true),
		order("2024-01-01T00:00:00", "2024-01-01T01:47:00", true),
		order("2024-01-02T08:00:00", "2024-01-02T08:59:59", true),
		order("2024-01-03T08:00:00", "2024-01-03T11:02:00", true),
	}
	want := AverageOfOrders(orders)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.Order(nil), orders...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, AverageOfOrders(shuffled))
	}
}

func TestIsUndelivered(t *testing.T) {
	assert.True(t, IsUndelivered(UndeliveredSentinel))
	assert.True(t, IsUndelivered("1000-01-01T12:00:00Z"))
	assert.True(t, IsUndelivered("1000-01-01T12:00:00.000000"))
	assert.False(t, IsUndelivered("2024-01-01T12:00:00"))
	assert.False(t, IsUndelivered(""))

	_, ok := Elapsed("2024-01-01T00:00:00", UndeliveredSentinel)
	assert.False(t, ok)
}

func TestAverageOfDelivered(t *testing.T) {
	orders := []models.Order{
		order("2024-01-01T00:00:00", "2024-01-01T00:10:00", true),
		order("2024-01-01T00:00:00", "2024-01-01T05:00:00", false),
	}
	assert.Equal(t, "0h 10m", AverageOfDelivered(orders))
}

func TestAverageForPeriod(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	orders := []models.Order{
		order("2024-03-30T10:00:00", "2024-03-30T10:20:00", true),
		order("2024-03-29T10:00:00", "2024-03-29T10:40:00", true),
		// outside the 7 day window
		order("2024-03-01T10:00:00", "2024-03-01T15:00:00", true),
		// not delivered
		order("2024-03-30T11:00:00", "2024-03-30T13:00:00", false),
		// in the future
		order("2024-04-01T10:00:00", "2024-04-01T12:00:00", true),
	}

	assert.Equal(t, "0h 30m", AverageForPeriod(orders, 7, now))
	assert.Equal(t, "2h 0m", AverageForPeriod(orders, 31, now))
	assert.Equal(t, NoData, AverageForPeriod(orders, 0, now))
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		minutes int64
		want    Band
	}{
		{0, Band1To20},
		{1, Band1To20},
		{20, Band1To20},
		{21, Band21To40},
		{40, Band21To40},
		{41, Band41To60},
		{60, Band41To60},
		{61, Band61To90},
		{90, Band61To90},
		{91, Band91Plus},
		{600, Band91Plus},
	}
	for _, tc := range tests {
		got, ok := BandFor(tc.minutes)
		require.True(t, ok)
		assert.Equal(t, tc.want, got, "minutes=%d", tc.minutes)
	}

	_, ok := BandFor(-1)
	assert.False(t, ok)
}

func TestBucketize_ExclusiveAndExhaustive(t *testing.T) {
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	var orders []models.Order
	for m := 0; m <= 200; m += 3 {
		delivered := base.Add(time.Duration(m)*time.Minute + 17*time.Second)
		orders = append(orders, order(base.Format("2006-01-02T15:04:05"), delivered.Format("2006-01-02T15:04:05"), true))
	}
	orders = append(orders,
		order("2024-01-01T08:00:00", UndeliveredSentinel, false),
		order("2024-01-01T08:00:00", "2024-01-01T07:59:30", true),
	)

	banded := Bucketize(orders)

	assert.Equal(t, len(orders)-2, banded.Total())
	assert.Len(t, banded.Unbanded, 2)

	seen := make(map[string]int)
	for _, bucket := range banded.Buckets {
		assert.Equal(t, len(bucket.Orders), bucket.Count)
		for _, o := range bucket.Orders {
			seen[o.DeliveredAt]++
		}
	}
	for key, n := range seen {
		assert.Equal(t, 1, n, "order %s appears in several bands", key)
	}
}

func TestBucketize_Labels(t *testing.T) {
	banded := Bucketize([]models.Order{
		order("2024-01-01T08:00:00", "2024-01-01T08:15:00", true),
		order("2024-01-01T08:00:00", "2024-01-01T09:05:00", true),
		order("2024-01-01T08:00:00", "2024-01-01T10:00:00", true),
	})

	assert.Equal(t, "1-20min", banded.Bucket(Band1To20).Label)
	assert.Equal(t, 1, banded.Bucket(Band1To20).Count)
	assert.Equal(t, 1, banded.Bucket(Band61To90).Count)
	assert.Equal(t, 1, banded.Bucket(Band91Plus).Count)
	assert.Equal(t, 0, banded.Bucket(Band21To40).Count)
	assert.NotNil(t, banded.Bucket(Band21To40).Orders)
}

func TestDeliveryLabel(t *testing.T) {
	assert.Equal(t, "1 heure 5 minutes", DeliveryLabel("2024-01-01T08:00:00", "2024-01-01T09:05:00"))
	assert.Equal(t, "2 heures", DeliveryLabel("2024-01-01T08:00:00", "2024-01-01T10:00:30"))
	assert.Equal(t, "42 minutes", DeliveryLabel("2024-01-01T08:00:00", "2024-01-01T08:42:00"))
	assert.Equal(t, InProgress, DeliveryLabel("2024-01-01T08:00:00", UndeliveredSentinel))
	assert.Equal(t, InProgress, DeliveryLabel("2024-01-01T08:00:00", "2024-01-01T08:00:10"))
	assert.Equal(t, NotAvail, DeliveryLabel("", "2024-01-01T08:00:10"))
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "1h 2m 3s", FormatCountdown(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, Nearby, FormatCountdown(0))
	assert.Equal(t, Nearby, FormatCountdown(-time.Minute))
}

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1h 20m", 80, true},
		{"0h 5m", 5, true},
		{"2h", 120, true},
		{"1 hour 5 minutes", 65, true},
		{"2 hours", 120, true},
		{"45 minutes", 45, true},
		{"", 0, false},
		{"N/A", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParseMinutes(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestCappedAverage(t *testing.T) {
	banded := Bucketize([]models.Order{
		order("2024-01-01T08:00:00", "2024-01-01T08:20:00", true),
		order("2024-01-01T08:00:00", "2024-01-01T08:40:00", true),
		// above the ceiling, left out
		order("2024-01-01T08:00:00", "2024-01-01T11:00:00", true),
	})
	assert.Equal(t, "30 minutes", CappedAverage(banded))

	withText := Bucketize([]models.Order{
		{CreatedAt: "2024-01-01T08:00:00", DeliveredAt: "2024-01-01T09:10:00", DeliveryTime: "1 hour 10 minutes"},
	})
	assert.Equal(t, "1 hour 10 minutes", CappedAverage(withText))

	assert.Equal(t, NoData, CappedAverage(Bucketize(nil)))
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "12 minutes", FormatMinutes(12.4))
	assert.Equal(t, "1 hour 1 minute", FormatMinutes(61))
	assert.Equal(t, "2 hours 0 minutes", FormatMinutes(119.6))
}
