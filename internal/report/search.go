package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

var termSeparator = regexp.MustCompile(`[ ,]+`)

// Query is a parsed free-text search.
type Query struct {
	Raw   string
	Lower string
	Terms []string
}

func ParseQuery(q string) Query {
	q = strings.TrimSpace(q)
	return Query{Raw: q, Lower: strings.ToLower(q), Terms: ParseTerms(q)}
}

// ParseTerms splits a query on spaces and commas.
func ParseTerms(q string) []string {
	var terms []string
	for _, term := range termSeparator.Split(strings.ToLower(q), -1) {
		if term = strings.TrimSpace(term); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

func (q Query) Active() bool {
	return q.Lower != ""
}

// ErrMalformedMerged is returned when merged_order_numbers cannot be decoded.
var ErrMalformedMerged = errors.New("malformed merged_order_numbers")

// MergedOrderNumbers decodes merged_order_numbers. The API stores it as a
// JSON-encoded string; a plain JSON array is accepted too.
func MergedOrderNumbers(raw json.RawMessage) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	payload := trimmed
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMerged, err)
		}
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		payload = s
	}

	var numbers []string
	if err := json.Unmarshal([]byte(payload), &numbers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMerged, err)
	}
	return numbers, nil
}

// Matcher applies a Query to orders. Decoding problems are logged, never
// returned.
type Matcher struct {
	logger *zap.Logger
}

func NewMatcher(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger}
}

// Matches is true when the whole query appears in the client name or the
// order number, or when any term appears in a merged order number.
func (m *Matcher) Matches(o models.Order, q Query) bool {
	if strings.Contains(strings.ToLower(o.ClientName), q.Lower) ||
		strings.Contains(strings.ToLower(o.OrderNumber), q.Lower) {
		return true
	}

	merged, err := MergedOrderNumbers(o.MergedOrderNumbers)
	if err != nil {
		m.logger.Warn("Skipping merged orders in search",
			zap.String("order_number", o.OrderNumber), zap.Error(err))
		return false
	}
	for _, number := range merged {
		number = strings.ToLower(number)
		for _, term := range q.Terms {
			if strings.Contains(number, term) {
				return true
			}
		}
	}
	return false
}

// Filter keeps every group untouched when the query is empty. Otherwise only
// matching orders are kept and groups left without orders are dropped.
func (m *Matcher) Filter(groups []RouteGroup, q Query) []RouteGroup {
	if !q.Active() {
		return groups
	}
	out := make([]RouteGroup, 0, len(groups))
	for _, g := range groups {
		var matched []models.Order
		for _, o := range g.Orders {
			if m.Matches(o, q) {
				matched = append(matched, o)
			}
		}
		if len(matched) == 0 {
			continue
		}
		g.Orders = matched
		out = append(out, g)
	}
	return out
}

// Filter is a shorthand for NewMatcher(logger).Filter(groups, ParseQuery(q)).
func Filter(groups []RouteGroup, q string, logger *zap.Logger) []RouteGroup {
	return NewMatcher(logger).Filter(groups, ParseQuery(q))
}
