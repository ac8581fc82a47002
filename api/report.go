/*
report.go - The attendance report endpoint

PURPOSE:
  Implements GET /api/report: parses and validates the query, scopes the
  employee set, runs the engine pipeline, and serializes the result as
  JSON or hands it to an export adapter.

PIPELINE:
  1. Parse dates and filters (400 on bad input)
  2. ListEmployees with the scope filter; empty scope short-circuits
  3. AssignmentsInWindow -> ResolveCoverage
  4. AttendanceInWindow
  5. HolidayResolver.ResolveAll (concurrent, per-employee isolation)
  6. Aggregate -> FilterByStatus -> Summarize
  7. Serialize per ?format= (json | excel | pdf)

SEE ALSO:
  - report/aggregate.go: The engine
  - export/: Excel and PDF adapters
*/
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/warp/attendance-engine/export"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/store/sqlite"
)

// errBadQuery marks query parameter faults that have no engine sentinel.
var errBadQuery = errors.New("bad query parameter")

// reportQuery is the parsed and validated query string.
type reportQuery struct {
	Window  report.Period
	Filter  sqlite.EmployeeFilter
	Status  report.StatusFilter
	Format  string
	Filters ReportFiltersDTO // echo block
}

// GetReport computes and returns the attendance report.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r)
	if err != nil {
		status := http.StatusInternalServerError
		if report.IsClientError(err) || errors.Is(err, errBadQuery) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Invalid report query", err)
		return
	}

	ctx := r.Context()

	employees, err := h.Store.ListEmployees(ctx, q.Filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	// Empty scope: a well-formed empty report, not an error.
	if len(employees) == 0 {
		h.respondReport(w, q, nil, report.Summarize(nil))
		return
	}

	ids := make([]report.EmployeeID, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}

	assignments, err := h.Store.AssignmentsInWindow(ctx, ids, q.Window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load assignments", err)
		return
	}
	coverage := report.ResolveCoverage(assignments, q.Window)

	rows, err := h.Store.AttendanceInWindow(ctx, ids, q.Window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load attendance", err)
		return
	}

	resolver := &report.HolidayResolver{Source: h.Store}
	holidays := resolver.ResolveAll(ctx, employees, q.Window)

	results := report.Aggregate(report.AggregateInput{
		Window:    q.Window,
		Employees: employees,
		Rows:      rows,
		Coverage:  coverage,
		Holidays:  holidays,
	})

	results = report.FilterByStatus(results, q.Status)
	summary := report.Summarize(results)

	h.respondReport(w, q, results, summary)
}

// respondReport serializes the computed report per the requested format.
func (h *Handler) respondReport(w http.ResponseWriter, q reportQuery, rows []report.EmployeeReport, summary report.Summary) {
	if q.Format == "" || q.Format == "json" {
		writeJSON(w, http.StatusOK, ReportResponse{
			Success: true,
			Msg:     "Report generated",
			Count:   len(rows),
			Data:    toReportRowDTOs(rows),
			Summary: toSummaryDTO(summary),
			Filters: q.Filters,
		})
		return
	}

	exporter, ok := h.Exporters[q.Format]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown format", nil)
		return
	}

	doc := export.Report{
		Window:  q.Window,
		Rows:    rows,
		Summary: summary,
	}

	// Render fully before touching the response: a failing adapter must
	// produce a clean error, never a 200 with a partial document.
	var buf bytes.Buffer
	if err := exporter.Write(&buf, doc); err != nil {
		// Export failures never leak adapter internals.
		writeError(w, http.StatusInternalServerError, "Failed to generate export", nil)
		return
	}
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+exporter.FileName(q.Window)+`"`)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// =============================================================================
// QUERY PARSING
// =============================================================================

func parseReportQuery(r *http.Request) (reportQuery, error) {
	qs := r.URL.Query()

	start, err := report.ParseDate(qs.Get("start_date"))
	if err != nil {
		return reportQuery{}, err
	}
	end, err := report.ParseDate(qs.Get("end_date"))
	if err != nil {
		return reportQuery{}, err
	}
	window := report.Period{Start: start, End: end}
	if err := window.Validate(); err != nil {
		return reportQuery{}, err
	}

	status, err := report.ParseStatusFilter(qs.Get("status"))
	if err != nil {
		return reportQuery{}, err
	}

	format := qs.Get("format")
	switch format {
	case "", "json", "excel", "pdf":
	default:
		return reportQuery{}, fmt.Errorf("%w: format must be json, excel or pdf", errBadQuery)
	}

	filter := sqlite.EmployeeFilter{
		UserID:        qs.Get("user_id"),
		LocationID:    qs.Get("location_id"),
		AreaID:        qs.Get("area_id"),
		RFFPointID:    qs.Get("rff_point_id"),
		DesignationID: qs.Get("designation_id"),
	}
	if v := qs.Get("hasFingerprint"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return reportQuery{}, fmt.Errorf("%w: hasFingerprint must be true or false", errBadQuery)
		}
		filter.HasFingerprint = &b
	}

	return reportQuery{
		Window: window,
		Filter: filter,
		Status: status,
		Format: format,
		Filters: ReportFiltersDTO{
			StartDate:      start.String(),
			EndDate:        end.String(),
			UserID:         filter.UserID,
			LocationID:     filter.LocationID,
			AreaID:         filter.AreaID,
			RFFPointID:     filter.RFFPointID,
			DesignationID:  filter.DesignationID,
			Status:         string(status),
			HasFingerprint: qs.Get("hasFingerprint"),
			Format:         format,
		},
	}, nil
}

// employeeFilterFromQuery parses the filter subset used by the employee
// list endpoint.
func employeeFilterFromQuery(r *http.Request) (sqlite.EmployeeFilter, error) {
	qs := r.URL.Query()
	filter := sqlite.EmployeeFilter{
		UserID:        qs.Get("user_id"),
		LocationID:    qs.Get("location_id"),
		AreaID:        qs.Get("area_id"),
		RFFPointID:    qs.Get("rff_point_id"),
		DesignationID: qs.Get("designation_id"),
	}
	if v := qs.Get("hasFingerprint"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return sqlite.EmployeeFilter{}, errors.New("hasFingerprint must be true or false")
		}
		filter.HasFingerprint = &b
	}
	return filter, nil
}
