package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"invoice-dashboard/internal/shared/telemetry"
)

const exportSheet = "Invoices"

var exportHeaders = []string{"Invoice ID", "Invoice Date", "Vendor", "Total", "Status", "Document ID"}

// ExportInvoices renders every invoice matching the listing filters as an
// XLSX workbook. Paging fields of q are ignored.
func (s *Service) ExportInvoices(ctx context.Context, q ListQuery) ([]byte, error) {
	start := time.Now()
	q, err := q.normalized()
	if err != nil {
		return nil, err
	}
	rq := q.repoQuery()
	rq.Limit, rq.Offset = 0, 0

	rows, err := s.Repo.ListInvoices(ctx, rq)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, listing := range rows {
		row := toInvoiceRow(listing)
		invoiceID := ""
		if row.InvoiceID != nil {
			invoiceID = *row.InvoiceID
		}
		date := ""
		if row.InvoiceDate != nil {
			date = row.InvoiceDate.UTC().Format("2006-01-02")
		}
		values := []any{invoiceID, date, row.VendorName, row.InvoiceTotal, row.Status, row.DocumentID}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 18)
	_ = f.SetColWidth(exportSheet, "B", "B", 14)
	_ = f.SetColWidth(exportSheet, "C", "C", 32)
	_ = f.SetColWidth(exportSheet, "F", "F", 38)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	telemetry.Info("export.xlsx.ok", map[string]any{
		"rows":       len(rows),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return buf.Bytes(), nil
}
