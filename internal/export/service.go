package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/invoiceworks/invoice-pipeline/internal/entity"
)

// InvoiceLister is the read side of the archive the exporter consumes.
type InvoiceLister interface {
	ListInvoices(ctx context.Context) ([]entity.StoredInvoice, error)
}

// Service produces XLSX workbooks from archived invoice records.
type Service struct {
	archive InvoiceLister
	logger  *slog.Logger
}

func NewService(archive InvoiceLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{archive: archive, logger: logger}
}

// ExportInvoicesXLSX returns an XLSX workbook (as bytes) with one row per
// archived invoice.
func (s *Service) ExportInvoicesXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.archive.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Invoice ID",
		"Vendor",
		"Invoice Date",
		"Amount",
		"Tax",
		"Currency",
		"Invoice Number",
		"Extraction Method",
		"Confidence",
		"Object Key",
		"Processed At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.InvoiceID)
		write(2, deref(r.Vendor))
		write(3, deref(r.Date))
		if r.Amount != nil {
			write(4, *r.Amount)
		}
		if r.TaxAmount != nil {
			write(5, *r.TaxAmount)
		}
		write(6, r.Currency)
		write(7, deref(r.InvoiceNumber))
		write(8, string(r.ExtractionMethod))
		write(9, string(r.Confidence))
		write(10, r.ObjectKey)
		write(11, r.ProcessedAt)
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.xlsx.ok", "rows", len(recs), "bytes", buf.Len(), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
