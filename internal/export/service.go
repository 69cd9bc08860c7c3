package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/entity"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/repository"
)

// Service is a tiny façade over the document store that produces XLSX bytes
// for exports of processed receipts.
type Service struct {
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

// ExportProcessedXLSX returns an XLSX workbook (as bytes) with one row per
// processed document. Low-confidence and error-method rows are included; the
// Confidence and Method columns let the reader filter them.
func (s *Service) ExportProcessedXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	docs, err := s.docs.ListByStatus(ctx, constants.DocStatusProcessed)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Receipts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Date",
		"Merchant",
		"Total",
		"Tax",
		"Category",
		"Payment Method",
		"Confidence",
		"Method",
		"Source File",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range docs {
		if d.Result == nil {
			continue
		}
		res := d.Result

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, formatDate(res.Date))
		write(2, stringOrEmpty(res.MerchantName))
		write(3, numberOrEmpty(res.TotalAmount))
		write(4, numberOrEmpty(res.TaxAmount))
		write(5, stringOrEmpty(res.SuggestedCategory))
		write(6, stringOrEmpty(res.PaymentMethod))
		write(7, fmt.Sprintf("%.2f", res.OverallConfidence))
		write(8, string(res.Method))
		write(9, truncate(d.SourcePath, 140))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "B", 28) // merchant
	_ = f.SetColWidth(sheet, "C", "D", 12) // amounts
	_ = f.SetColWidth(sheet, "E", "F", 18) // category, payment
	_ = f.SetColWidth(sheet, "G", "H", 12) // confidence, method
	_ = f.SetColWidth(sheet, "I", "I", 60) // path

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func formatDate(f entity.Field[time.Time]) string {
	if !f.Set() {
		return ""
	}
	return f.Value.Format("2006-01-02")
}

func stringOrEmpty(f entity.Field[string]) string {
	if !f.Set() {
		return ""
	}
	return *f.Value
}

func numberOrEmpty(f entity.Field[float64]) any {
	if !f.Set() {
		return ""
	}
	return *f.Value
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
