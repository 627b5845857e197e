// Package export renders reports as spreadsheets.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/delivery"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/report"
)

const (
	SummarySheet  = "Résumé"
	maxSheetName  = 31
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	orderRowStart = 4
)

var orderHeader = []interface{}{"Commande", "Tranche", "Créée", "Livrée", "Durée"}

var sheetNameReplacer = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// ClientReportXLSX writes a summary sheet followed by one sheet per client
// with its average and one row per banded order.
func ClientReportXLSX(reports []report.ClientReport) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummary(f, reports); err != nil {
		return nil, err
	}

	used := map[string]bool{strings.ToLower(SummarySheet): true}
	for _, r := range reports {
		name := sheetName(r, used)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeClient(f, name, r); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, reports []report.ClientReport) error {
	header := []interface{}{"Client", "Numéro client", "Commandes", "Temps moyen"}
	for _, b := range delivery.Bands() {
		header = append(header, b.String())
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}

	for i, r := range reports {
		row := []interface{}{r.ClientName, r.Customer, r.Total, r.AverageDeliveryTime}
		for _, b := range delivery.Bands() {
			row = append(row, r.Bands.Bucket(b).Count)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeClient(f *excelize.File, sheet string, r report.ClientReport) error {
	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Client", r.ClientName, r.Customer}); err != nil {
		return fmt.Errorf("write client header: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A2", &[]interface{}{"Temps moyen", r.AverageDeliveryTime, r.Total}); err != nil {
		return fmt.Errorf("write client average: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A3", &orderHeader); err != nil {
		return fmt.Errorf("write order header: %w", err)
	}

	row := orderRowStart
	for _, b := range delivery.Bands() {
		for _, o := range r.Bands.Bucket(b).Orders {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []interface{}{
				o.OrderNumber,
				b.String(),
				o.CreatedAt,
				o.DeliveredAt,
				delivery.DeliveryLabel(o.CreatedAt, o.DeliveredAt),
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return fmt.Errorf("write order row %d: %w", row, err)
			}
			row++
		}
	}
	return nil
}

// sheetName derives a unique, Excel-safe sheet name for a client.
func sheetName(r report.ClientReport, used map[string]bool) string {
	base := strings.TrimSpace(sheetNameReplacer.Replace(r.ClientName))
	if base == "" {
		base = strings.TrimSpace(sheetNameReplacer.Replace(r.Customer))
	}
	if base == "" {
		base = "Client"
	}
	base = truncate(strings.Trim(base, "'"), maxSheetName)

	name := base
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncate(base, maxSheetName-len([]rune(suffix))) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
