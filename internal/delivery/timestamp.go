// Package delivery holds the delivery-time arithmetic shared by every
// dashboard screen: elapsed durations, averages, period filters and the
// fixed reporting bands.
package delivery

import (
	"strings"
	"time"
)

// UndeliveredSentinel is stored by the dispatch API in delivered_at for
// orders that have not been delivered yet.
const UndeliveredSentinel = "1000-01-01T12:00:00"

// NoData is returned instead of an average when nothing could be measured.
const NoData = "aucune donnée"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp shapes the API emits. Values without a
// zone are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsUndelivered reports whether s is the undelivered sentinel, whatever
// zone suffix or fraction the API attached to it.
func IsUndelivered(s string) bool {
	s = strings.TrimSpace(s)
	if s == UndeliveredSentinel {
		return true
	}
	t, ok := ParseTimestamp(s)
	if !ok {
		return false
	}
	return t.Year() == 1000 && t.Month() == time.January && t.Day() == 1 &&
		t.Hour() == 12 && t.Minute() == 0 && t.Second() == 0
}

// Elapsed returns delivered-created when both parse and delivered is not the
// sentinel. Negative results (delivered before created) are returned as-is.
func Elapsed(createdAt, deliveredAt string) (time.Duration, bool) {
	if IsUndelivered(deliveredAt) {
		return 0, false
	}
	created, ok := ParseTimestamp(createdAt)
	if !ok {
		return 0, false
	}
	delivered, ok := ParseTimestamp(deliveredAt)
	if !ok {
		return 0, false
	}
	return delivered.Sub(created), true
}
