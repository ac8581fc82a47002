/*
excel.go - xlsx report rendering

PURPOSE:
  Renders the computed report as a styled workbook: one sheet with the
  per-employee table followed by the group summary block.

SEE ALSO:
  - export.go: Adapter contract and shared column layout
*/
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/attendance-engine/report"
)

type Excel struct{}

func NewExcel() *Excel { return &Excel{} }

func (e *Excel) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *Excel) FileName(window report.Period) string {
	return fmt.Sprintf("attendance_%s_%s.xlsx", window.Start, window.End)
}

func (e *Excel) Write(w io.Writer, doc Report) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Attendance"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// Title
	title := fmt.Sprintf("ATTENDANCE REPORT %s to %s", doc.Window.Start, doc.Window.End)
	f.SetCellValue(sheet, "A1", title)
	endCol, _ := excelize.ColumnNumberToName(len(columns))
	f.MergeCell(sheet, "A1", endCol+"1")
	f.SetCellStyle(sheet, "A1", endCol+"1", headerStyle)
	f.SetRowHeight(sheet, 1, 25)

	// Table header
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(sheet, cell, col)
	}
	f.SetCellStyle(sheet, "A3", endCol+"3", headerStyle)

	// Data rows
	row := 4
	for _, r := range doc.Rows {
		for i, v := range rowCells(r) {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	// Summary block
	row += 2
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Group")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), "Users")
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row), "Working")
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), "Present")
	f.SetCellValue(sheet, fmt.Sprintf("E%d", row), "Absent")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", row), "Avg %")
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), headerStyle)
	row++

	writeGroup := func(label string, g report.GroupSummary) {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), label)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), g.UserCount)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), g.TotalWorkingDays)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), g.TotalPresentDays)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), g.TotalAbsentDays)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), g.AverageAttendance)
		row++
	}

	writeGroup("Overall", doc.Summary.Overall)
	for _, g := range doc.Summary.Locations {
		writeGroup("Location: "+g.Name, g)
	}
	for _, g := range doc.Summary.Areas {
		writeGroup("Area: "+g.Name, g)
	}
	for _, g := range doc.Summary.RFFPoints {
		writeGroup("RFF: "+g.Name, g)
	}

	f.SetColWidth(sheet, "A", "A", 25)
	f.SetColWidth(sheet, "B", endCol, 14)

	return f.Write(w)
}
