/*
export.go - Report export adapter contract

PURPOSE:
  Defines the shape shared by the downloadable report renderers. The
  engine computes rows and summaries once; adapters only format.

SEE ALSO:
  - excel.go: xlsx rendering (excelize)
  - pdf.go: pdf rendering (gofpdf)
*/
package export

import (
	"io"

	"github.com/warp/attendance-engine/report"
)

// Report is the fully-computed document an adapter renders.
type Report struct {
	Window  report.Period
	Rows    []report.EmployeeReport
	Summary report.Summary
}

// Exporter renders a computed report into a downloadable document.
type Exporter interface {
	ContentType() string
	FileName(window report.Period) string
	Write(w io.Writer, doc Report) error
}

// columns is the shared table layout both adapters render.
var columns = []string{
	"Name", "Location", "Area", "RFF Point", "Designation",
	"Working Days", "Present", "Absent", "Holidays",
	"Late Days", "Late (min)", "Overtime (min)", "Present %",
}

// rowCells flattens one employee row into the shared column order.
func rowCells(r report.EmployeeReport) []any {
	return []any{
		r.Employee.Name,
		r.Employee.LocationName,
		r.Employee.AreaName,
		r.Employee.RFFPointName,
		r.Employee.DesignationName,
		r.WorkingDays,
		r.PresentDays,
		r.AbsentDays,
		r.HolidayCount,
		r.LateDays,
		r.LateMinutes,
		r.OvertimeMinutes,
		r.PresentPercent,
	}
}
