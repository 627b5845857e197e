package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/delivery"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/models"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/report"
)

func TestClientReportXLSX(t *testing.T) {
	orders := []models.Order{
		{OrderNumber: "A1", CreatedAt: "2024-01-01T10:00:00", DeliveredAt: "2024-01-01T10:15:00"},
		{OrderNumber: "A2", CreatedAt: "2024-01-01T10:00:00", DeliveredAt: "2024-01-01T11:45:00"},
	}
	reports := []report.ClientReport{
		{
			ClientName:          "Épicerie: Nord/Sud",
			Customer:            "1001",
			Bands:               delivery.Bucketize(orders),
			Total:               2,
			AverageDeliveryTime: "15 minutes",
		},
		{ClientName: "Épicerie: Nord/Sud", Customer: "1002", Bands: delivery.Bucketize(nil)},
	}

	data, err := ClientReportXLSX(reports)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SummarySheet, "Épicerie  Nord Sud", "Épicerie  Nord Sud (2)"}, f.GetSheetList())

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"Épicerie: Nord/Sud", "1001", "2", "15 minutes", "1", "0", "0", "0", "1"}, summary[1])

	rows, err := f.GetRows("Épicerie  Nord Sud")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "15 minutes", rows[1][1])
	assert.Equal(t, []string{"A1", "1-20min"}, rows[3][:2])
	assert.Equal(t, []string{"A2", "90+min"}, rows[4][:2])
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	long := report.ClientReport{ClientName: "A very long client name that overflows"}

	first := sheetName(long, used)
	assert.Len(t, []rune(first), maxSheetName)

	second := sheetName(long, used)
	assert.Len(t, []rune(second), maxSheetName)
	assert.Contains(t, second, "(2)")

	assert.Equal(t, "Client", sheetName(report.ClientReport{}, used))
	assert.Equal(t, "42", sheetName(report.ClientReport{Customer: "42"}, used))
}
