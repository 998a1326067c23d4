package report

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "summary"
	readingsSheet = "readings"
	alertsSheet   = "alerts"
)

func formatHours(h float64) string {
	if math.IsInf(h, 1) {
		return "unlimited"
	}
	return fmt.Sprintf("%.1f", h)
}

// PDF renders a compact PDF report.
func PDF(r Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Renewable Energy Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", r.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Storage: %.2f MWh (%.1f%%, %s)", r.StorageLevel, r.StoragePercent, r.StorageStatus))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Remaining hours: %s", formatHours(r.RemainingHours)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	headers := []string{"Source", "Count", "Mean", "Median", "Mode", "Range", "Midrange"}
	for _, h := range headers {
		pdf.CellFormat(26, 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, s := range r.Sources {
		pdf.CellFormat(26, 6, s.Source.Label(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(26, 6, fmt.Sprintf("%d", s.Summary.Count), "1", 0, "R", false, 0, "")
		pdf.CellFormat(26, 6, s.Summary.Mean.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(26, 6, s.Summary.Median.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(26, 6, s.Summary.Mode.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(26, 6, s.Summary.Range.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(26, 6, s.Summary.Midrange.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Alerts (%d)", len(r.Alerts)))
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 9)
	for _, alert := range r.Alerts {
		pdf.MultiCell(0, 5, fmt.Sprintf("%s [%s] %s", alert.Timestamp.Format(time.RFC3339), alert.Kind, alert.Message), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// XLSX renders the report as a workbook with summary, readings and alerts sheets.
func XLSX(r Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(readingsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(alertsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Renewable Energy Report")
	_ = f.SetCellValue(summarySheet, "A2", "Generated")
	_ = f.SetCellValue(summarySheet, "B2", r.GeneratedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A3", "Storage (MWh)")
	_ = f.SetCellValue(summarySheet, "B3", r.StorageLevel)
	_ = f.SetCellValue(summarySheet, "A4", "Storage (%)")
	_ = f.SetCellValue(summarySheet, "B4", r.StoragePercent)
	_ = f.SetCellValue(summarySheet, "A5", "Status")
	_ = f.SetCellValue(summarySheet, "B5", string(r.StorageStatus))
	_ = f.SetCellValue(summarySheet, "A6", "Remaining hours")
	_ = f.SetCellValue(summarySheet, "B6", formatHours(r.RemainingHours))

	header := []any{"Source", "Enabled", "Count", "Mean", "Median", "Mode", "Range", "Midrange", "Min", "Max"}
	if err := f.SetSheetRow(summarySheet, "A8", &header); err != nil {
		return nil, err
	}
	for i, s := range r.Sources {
		row := []any{
			s.Source.Label(), s.Enabled, s.Summary.Count,
			s.Summary.Mean.String(), s.Summary.Median.String(), s.Summary.Mode.String(),
			s.Summary.Range.String(), s.Summary.Midrange.String(), s.Summary.Min.String(), s.Summary.Max.String(),
		}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+9), &row); err != nil {
			return nil, err
		}
	}

	_ = f.SetCellValue(readingsSheet, "A1", "Timestamp")
	_ = f.SetCellValue(readingsSheet, "B1", "Source")
	_ = f.SetCellValue(readingsSheet, "C1", "Output (MW)")
	_ = f.SetCellValue(readingsSheet, "D1", "Location")
	_ = f.SetCellValue(readingsSheet, "E1", "Status")
	for i, reading := range r.Readings {
		row := i + 2
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("A%d", row), reading.Timestamp.Format(time.RFC3339))
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("B%d", row), string(reading.Source))
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("C%d", row), reading.Output)
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("D%d", row), reading.Location)
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("E%d", row), string(reading.Status))
	}

	_ = f.SetCellValue(alertsSheet, "A1", "Timestamp")
	_ = f.SetCellValue(alertsSheet, "B1", "Kind")
	_ = f.SetCellValue(alertsSheet, "C1", "Source")
	_ = f.SetCellValue(alertsSheet, "D1", "Message")
	for i, alert := range r.Alerts {
		row := i + 2
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("A%d", row), alert.Timestamp.Format(time.RFC3339))
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("B%d", row), string(alert.Kind))
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("C%d", row), alert.Source.Label())
		_ = f.SetCellValue(alertsSheet, fmt.Sprintf("D%d", row), alert.Message)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
