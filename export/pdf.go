/*
pdf.go - PDF report rendering

PURPOSE:
  Renders the computed report as a landscape A4 table plus the overall
  summary block.

SEE ALSO:
  - export.go: Adapter contract and shared column layout
*/
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/warp/attendance-engine/report"
)

type PDF struct{}

func NewPDF() *PDF { return &PDF{} }

func (p *PDF) ContentType() string {
	return "application/pdf"
}

func (p *PDF) FileName(window report.Period) string {
	return fmt.Sprintf("attendance_%s_%s.pdf", window.Start, window.End)
}

// Column widths in mm; landscape A4 usable width is ~277.
var pdfWidths = []float64{35, 24, 22, 22, 24, 17, 16, 15, 16, 15, 17, 20, 17}

func (p *PDF) Write(w io.Writer, doc Report) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Attendance Report %s to %s", doc.Window.Start, doc.Window.End))
	pdf.Ln(12)

	// Table header
	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for i, col := range columns {
		pdf.CellFormat(pdfWidths[i], 7, col, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	// Data rows
	pdf.SetFont("Arial", "", 8)
	pdf.SetTextColor(0, 0, 0)
	for _, r := range doc.Rows {
		for i, v := range rowCells(r) {
			pdf.CellFormat(pdfWidths[i], 6, fmt.Sprintf("%v", v), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	// Overall summary
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	summaryLines := []struct {
		label string
		value string
	}{
		{"Total employees", fmt.Sprintf("%d", doc.Summary.TotalUsers)},
		{"Total working days", fmt.Sprintf("%d", doc.Summary.Overall.TotalWorkingDays)},
		{"Total present days", fmt.Sprintf("%d", doc.Summary.Overall.TotalPresentDays)},
		{"Total absent days", fmt.Sprintf("%d", doc.Summary.Overall.TotalAbsentDays)},
		{"Average attendance", doc.Summary.Overall.AverageAttendance + "%"},
	}
	for _, line := range summaryLines {
		pdf.Cell(60, 6, line.label)
		pdf.Cell(60, 6, line.value)
		pdf.Ln(6)
	}

	// Footer
	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(0, 8, "Generated "+time.Now().Format("02 January 2006 15:04:05"))

	return pdf.Output(w)
}
