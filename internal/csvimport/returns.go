// Package csvimport reads the bulk returns spreadsheet uploaded from the pick
// form screen.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/dispatch"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

const MissingColumns = `CSV file must contain "item" and "units" columns`

// ParseBulkReturns reads a header row followed by one return per line. Extra
// columns are ignored and blank lines skipped. Every error wraps
// dispatch.ErrMalformedData.
func ParseBulkReturns(r io.Reader) ([]models.ReturnItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s", dispatch.ErrMalformedData, MissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: error parsing CSV file: %v", dispatch.ErrMalformedData, err)
	}

	itemCol, unitsCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))) {
		case "item":
			itemCol = i
		case "units":
			unitsCol = i
		}
	}
	if itemCol < 0 || unitsCol < 0 {
		return nil, fmt.Errorf("%w: %s", dispatch.ErrMalformedData, MissingColumns)
	}

	var items []models.ReturnItem
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: error parsing CSV file: %v", dispatch.ErrMalformedData, err)
		}
		line, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}
		if itemCol >= len(record) || unitsCol >= len(record) {
			return nil, fmt.Errorf("%w: line %d: missing columns", dispatch.ErrMalformedData, line)
		}

		item := strings.TrimSpace(record[itemCol])
		if item == "" {
			return nil, fmt.Errorf("%w: line %d: empty item", dispatch.ErrMalformedData, line)
		}
		units, err := strconv.Atoi(strings.TrimSpace(record[unitsCol]))
		if err != nil || units <= 0 {
			return nil, fmt.Errorf("%w: line %d: units must be a positive integer", dispatch.ErrMalformedData, line)
		}
		items = append(items, models.ReturnItem{Item: item, Units: units})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no returns in file", dispatch.ErrMalformedData)
	}
	return items, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
