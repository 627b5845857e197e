package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/dispatch"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
)

func TestParseBulkReturns(t *testing.T) {
	input := "description,item,units\nBolts,B-100,4\n\n,,\nNuts, N-200 ,12\n"

	items, err := ParseBulkReturns(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []models.ReturnItem{
		{Item: "B-100", Units: 4},
		{Item: "N-200", Units: 12},
	}, items)
}

func TestParseBulkReturns_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{name: "empty file", input: "", message: MissingColumns},
		{name: "missing units", input: "item,qty\nA,1\n", message: MissingColumns},
		{name: "bad units", input: "item,units\nA,two\n", message: "line 2: units must be a positive integer"},
		{name: "zero units", input: "item,units\nA,0\n", message: "units must be a positive integer"},
		{name: "no rows", input: "item,units\n", message: "no returns in file"},
		{name: "short row", input: "units,desc,item\n3\n", message: "missing columns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBulkReturns(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, dispatch.ErrMalformedData)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParseBulkReturns_HeaderWithBOM(t *testing.T) {
	items, err := ParseBulkReturns(strings.NewReader("\uFEFFItem,Units\nA,1\n"))
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
