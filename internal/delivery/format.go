package delivery

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

const (
	InProgress = "En cours"
	NotAvail   = "N/A"
	Nearby     = "À Proximité"
)

// MaxCountedMinutes is the ceiling above which a delivery is left out of the
// per-client average.
const MaxCountedMinutes = 90

// DeliveryLabel renders the delivery time of a single order for tables,
// e.g. "1 heure 5 minutes".
func DeliveryLabel(createdAt, deliveredAt string) string {
	if IsUndelivered(deliveredAt) {
		if _, ok := ParseTimestamp(createdAt); ok {
			return InProgress
		}
		return NotAvail
	}
	d, ok := Elapsed(createdAt, deliveredAt)
	if !ok {
		return NotAvail
	}
	ms := d.Milliseconds()
	hours := ms / millisPerHour
	minutes := (ms % millisPerHour) / millisPerMinute

	var parts []string
	if hours > 0 {
		unit := "heures"
		if hours == 1 {
			unit = "heure"
		}
		parts = append(parts, fmt.Sprintf("%d %s", hours, unit))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutes", minutes))
	}
	if len(parts) == 0 {
		return InProgress
	}
	return strings.Join(parts, " ")
}

// FormatCountdown renders the time left before a route reaches its next stop.
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return Nearby
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%dh %dm %ds", total/3600, (total%3600)/60, total%60)
}

var (
	hoursWordsRe = regexp.MustCompile(`(\d+)\s*hours?\s*(\d+)?`)
	firstNumRe   = regexp.MustCompile(`(\d+)`)
)

// ParseMinutes reads the textual delivery times found in reports:
// "1h 20m", "2 hours 5 minutes", "45 minutes".
func ParseMinutes(s string) (int, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, "hour") {
		m := hoursWordsRe.FindStringSubmatch(s)
		if m == nil {
			return 0, false
		}
		hours, _ := strconv.Atoi(m[1])
		mins := 0
		if m[2] != "" {
			mins, _ = strconv.Atoi(m[2])
		}
		return hours*60 + mins, true
	}
	if hPart, mPart, found := strings.Cut(s, "h"); found {
		hours, err := strconv.Atoi(strings.TrimSpace(hPart))
		if err != nil {
			return 0, false
		}
		mins := 0
		if mPart = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(mPart), "m")); mPart != "" {
			if mins, err = strconv.Atoi(mPart); err != nil {
				return 0, false
			}
		}
		return hours*60 + mins, true
	}
	m := firstNumRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	mins, _ := strconv.Atoi(m[1])
	return mins, true
}

func orderMinutesForAverage(o models.Order) (int, bool) {
	if o.DeliveryTime != "" {
		return ParseMinutes(o.DeliveryTime)
	}
	m, ok := OrderMinutes(o)
	return int(m), ok
}

// CappedAverage averages the banded orders of one client, skipping deliveries
// longer than MaxCountedMinutes.
func CappedAverage(b Banded) string {
	total, count := 0, 0
	for _, o := range b.Orders() {
		m, ok := orderMinutesForAverage(o)
		if !ok || m > MaxCountedMinutes {
			continue
		}
		total += m
		count++
	}
	if count == 0 {
		return NoData
	}
	return FormatMinutes(float64(total) / float64(count))
}

// FormatMinutes renders an average in minutes, e.g. "1 hour 5 minutes".
func FormatMinutes(avg float64) string {
	rounded := int(math.Round(avg))
	if rounded < 60 {
		return fmt.Sprintf("%d minutes", rounded)
	}
	hours, mins := rounded/60, rounded%60
	return fmt.Sprintf("%d %s %d %s", hours, plural(hours, "hour"), mins, plural(mins, "minute"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
