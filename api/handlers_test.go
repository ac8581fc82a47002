package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/export"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (http.Handler, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(store)
	return api.NewRouter(handler), store
}

func doRequest(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// seedReportFixture loads one location, two employees, a weekday policy,
// open-ended assignments, and punches for the first week of March 2026.
func seedReportFixture(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.SaveOrgUnit(ctx, sqlite.OrgUnit{ID: "loc-1", Kind: sqlite.UnitLocation, Name: "HQ"}))

	require.NoError(t, store.SaveEmployee(ctx, sqlite.EmployeeRecord{
		ID: "emp-1", Name: "Ada", Active: true, LocationID: "loc-1",
		BiometricTemplate: []byte{0x01},
	}))
	require.NoError(t, store.SaveEmployee(ctx, sqlite.EmployeeRecord{
		ID: "emp-2", Name: "Brin", Active: true, LocationID: "loc-1",
	}))

	require.NoError(t, store.SavePolicy(ctx, sqlite.PolicyRecord{
		ID: "std", Name: "Standard",
		WorkingDays:     []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		OffDays:         []string{"saturday", "sunday"},
		WorkStart:       "09:00",
		WorkEnd:         "17:00",
		GraceMinutes:    10,
		OvertimeMinutes: 30,
	}))

	jan1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, emp := range []string{"emp-1", "emp-2"} {
		require.NoError(t, store.SaveAssignment(ctx, sqlite.AssignmentRecord{
			ID: "a-" + emp, EmployeeID: emp, PolicyID: "std",
			StartDate: jan1,
			CreatedAt: jan1.Add(time.Duration(i) * time.Hour),
		}))
	}

	// Ada: present Monday on time, Tuesday 25 minutes late. Brin: absent.
	punches := []sqlite.AttendanceRecord{
		{ID: "r1", EmployeeID: "emp-1",
			Day:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			ClockIn: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		{ID: "r2", EmployeeID: "emp-1",
			Day:     time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
			ClockIn: time.Date(2026, 3, 3, 9, 25, 0, 0, time.UTC)},
	}
	for _, p := range punches {
		require.NoError(t, store.SaveAttendance(ctx, p))
	}
}

const reportWeek = "start_date=2026-03-02&end_date=2026-03-08"

// =============================================================================
// REPORT ENDPOINT
// =============================================================================

func TestGetReport_MissingDates(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/report", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReport_EndBeforeStart(t *testing.T) {
	// GIVEN: end_date before start_date
	// WHEN: Requesting the report
	// THEN: 400, the engine never runs

	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet,
		"/api/report?start_date=2026-03-10&end_date=2026-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReport_UnknownStatus(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet,
		"/api/report?"+reportWeek+"&status=tardy", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReport_EmptyScope(t *testing.T) {
	// GIVEN: No employees at all
	// WHEN: Requesting the report
	// THEN: A well-formed empty envelope, not an error

	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/report?"+reportWeek, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.Count)
	assert.Empty(t, resp.Data)
	assert.Equal(t, 0, resp.Summary.TotalUsers)
}

func TestGetReport_HappyPath(t *testing.T) {
	// GIVEN: Two covered employees, one present twice (once late)
	// WHEN: Requesting the March work week report
	// THEN: The envelope carries per-employee stats and group summaries

	router, store := newTestServer(t)
	seedReportFixture(t, store)

	rec := doRequest(t, router, http.MethodGet, "/api/report?"+reportWeek, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	require.Equal(t, 2, resp.Count)
	require.Len(t, resp.Data, 2)

	ada := resp.Data[0]
	assert.Equal(t, "Ada", ada.Name)
	assert.Equal(t, "HQ", ada.Location)
	assert.True(t, ada.HasFingerprint)
	assert.Equal(t, 5, ada.WorkingDays)
	assert.Equal(t, 2, ada.PresentDays)
	assert.Equal(t, 3, ada.AbsentDays)
	assert.Equal(t, 1, ada.LateDays)
	assert.Equal(t, int64(25), ada.LateMinutes)
	assert.Equal(t, "40.00", ada.PresentPercent)
	assert.Equal(t, []string{"std"}, ada.PolicyIDs)
	assert.Len(t, ada.Punches, 2)

	brin := resp.Data[1]
	assert.Equal(t, "Brin", brin.Name)
	assert.Equal(t, 0, brin.PresentDays)
	assert.Equal(t, "0.00", brin.PresentPercent)

	assert.Equal(t, 2, resp.Summary.TotalUsers)
	require.Len(t, resp.Summary.Locations, 1)
	assert.Equal(t, "HQ", resp.Summary.Locations[0].Name)
	assert.Equal(t, "20.00", resp.Summary.Locations[0].AverageAttendance)

	assert.Equal(t, "2026-03-02", resp.Filters.StartDate)
	assert.Equal(t, "2026-03-08", resp.Filters.EndDate)
}

func TestGetReport_StatusFilter(t *testing.T) {
	router, store := newTestServer(t)
	seedReportFixture(t, store)

	rec := doRequest(t, router, http.MethodGet,
		"/api/report?"+reportWeek+"&status=present", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Ada", resp.Data[0].Name)
	assert.Equal(t, 1, resp.Summary.TotalUsers, "summary reflects the filtered set")
}

func TestGetReport_HolidayAdjusted(t *testing.T) {
	// GIVEN: Wednesday is a global holiday
	// WHEN: Requesting the report
	// THEN: Denominators shrink to four working days

	router, store := newTestServer(t)
	seedReportFixture(t, store)
	require.NoError(t, store.SaveHoliday(context.Background(), report.Holiday{
		ID: "h-1", Scope: report.ScopeGlobal,
		Date: report.NewDate(2026, time.March, 4), Name: "Founders Day", Active: true,
	}, nil))

	rec := doRequest(t, router, http.MethodGet, "/api/report?"+reportWeek, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 4, resp.Data[0].WorkingDays)
	assert.Equal(t, 1, resp.Data[0].HolidayCount)
	assert.Equal(t, []string{"2026-03-04"}, resp.Data[0].Holidays)
	assert.Equal(t, "50.00", resp.Data[0].PresentPercent)
}

func TestGetReport_ExcelFormat(t *testing.T) {
	router, store := newTestServer(t)
	seedReportFixture(t, store)

	rec := doRequest(t, router, http.MethodGet,
		"/api/report?"+reportWeek+"&format=excel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rec.Body.Len())
}

// brokenExporter emits partial output before failing, imitating an
// adapter that dies mid-render.
type brokenExporter struct{}

func (brokenExporter) ContentType() string { return "application/pdf" }

func (brokenExporter) FileName(_ report.Period) string { return "broken.pdf" }

func (brokenExporter) Write(w io.Writer, _ export.Report) error {
	w.Write([]byte("%PDF-partial"))
	return errors.New("render failed")
}

func TestGetReport_ExportFailure_NoPartialBody(t *testing.T) {
	// GIVEN: An export adapter that fails after writing some bytes
	// WHEN: Requesting that format
	// THEN: A 500 JSON error with none of the partial document in the body

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(store)
	handler.Exporters["pdf"] = brokenExporter{}
	router := api.NewRouter(handler)
	seedReportFixture(t, store)

	rec := doRequest(t, router, http.MethodGet,
		"/api/report?"+reportWeek+"&format=pdf", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "%PDF-partial")
	assert.Empty(t, rec.Header().Get("Content-Disposition"))

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to generate export", resp.Error)
}

func TestGetReport_UnknownFormat(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet,
		"/api/report?"+reportWeek+"&format=csv", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// COLLABORATOR ENDPOINTS
// =============================================================================

func TestCreateEmployee_ValidationAndFetch(t *testing.T) {
	router, _ := newTestServer(t)

	// Missing name fails validation
	rec := doRequest(t, router, http.MethodPost, "/api/employees",
		map[string]any{"id": "emp-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/employees",
		map[string]any{"id": "emp-1", "name": "Ada", "location_id": "loc-1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/employees/emp-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var emp api.EmployeeDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &emp))
	assert.Equal(t, "Ada", emp.Name)
	assert.True(t, emp.Active, "active defaults to true")
	assert.False(t, emp.HasFingerprint)
}

func TestCreatePolicy_RejectsMalformed(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/policies", map[string]any{
		"id": "bad", "name": "Bad",
		"working_days": []string{"moonday"},
		"work_start":   "09:00", "work_end": "17:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAssignment_UnknownPolicy(t *testing.T) {
	router, store := newTestServer(t)
	require.NoError(t, store.SaveEmployee(context.Background(), sqlite.EmployeeRecord{
		ID: "emp-1", Name: "Ada", Active: true,
	}))

	rec := doRequest(t, router, http.MethodPost, "/api/assignments", map[string]any{
		"employee_id": "emp-1", "policy_id": "ghost", "start_date": "2026-01-01",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPunchFlow(t *testing.T) {
	// GIVEN: An employee
	// WHEN: Punching in, then out, on the same day
	// THEN: Both succeed; punch-out without punch-in is rejected

	router, store := newTestServer(t)
	require.NoError(t, store.SaveEmployee(context.Background(), sqlite.EmployeeRecord{
		ID: "emp-1", Name: "Ada", Active: true,
	}))

	rec := doRequest(t, router, http.MethodPost, "/api/attendance/punch-out", map[string]any{
		"employee_id": "emp-1", "timestamp": "2026-03-02T17:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "punch-out before punch-in")

	rec = doRequest(t, router, http.MethodPost, "/api/attendance/punch-in", map[string]any{
		"employee_id": "emp-1", "timestamp": "2026-03-02T09:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/attendance/punch-out", map[string]any{
		"employee_id": "emp-1", "timestamp": "2026-03-02T17:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	row, err := store.GetAttendance(context.Background(), "emp-1",
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, row)
	require.NotNil(t, row.ClockOut)
}

func TestSeedDefaultHolidays(t *testing.T) {
	router, store := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/holidays/defaults?year=2026", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	holidays, err := store.ListHolidays(context.Background())
	require.NoError(t, err)
	assert.Len(t, holidays, 8)

	names := make(map[string]bool)
	for _, h := range holidays {
		names[h.Name] = true
		assert.Equal(t, report.ScopeGlobal, h.Scope)
		assert.True(t, h.Recurring)
	}
	assert.True(t, names["Independence Day"])
}
