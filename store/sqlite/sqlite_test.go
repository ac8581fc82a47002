package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedEmployee(t *testing.T, store *sqlite.Store, id, name, locationID string, template []byte) {
	t.Helper()
	err := store.SaveEmployee(context.Background(), sqlite.EmployeeRecord{
		ID:                id,
		Name:              name,
		Active:            true,
		LocationID:        locationID,
		BiometricTemplate: template,
	})
	require.NoError(t, err)
}

func seedPolicy(t *testing.T, store *sqlite.Store, id string) {
	t.Helper()
	err := store.SavePolicy(context.Background(), sqlite.PolicyRecord{
		ID:              id,
		Name:            "Standard",
		WorkingDays:     []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		OffDays:         []string{"saturday", "sunday"},
		WorkStart:       "09:00",
		WorkEnd:         "17:00",
		GraceMinutes:    10,
		OvertimeMinutes: 30,
	})
	require.NoError(t, err)
}

func march(day int) time.Time {
	return time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
}

func marchPeriod(from, to int) report.Period {
	return report.Period{
		Start: report.NewDate(2026, time.March, from),
		End:   report.NewDate(2026, time.March, to),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestStore_ListEmployees_FilterAndJoin(t *testing.T) {
	// GIVEN: Two employees in different locations, one enrolled
	// WHEN: Listing with filters
	// THEN: Filters narrow the set; org unit names are joined in

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveOrgUnit(ctx, sqlite.OrgUnit{ID: "loc-1", Kind: sqlite.UnitLocation, Name: "HQ"}))
	seedEmployee(t, store, "emp-1", "Ada", "loc-1", []byte{0x01})
	seedEmployee(t, store, "emp-2", "Brin", "", nil)

	all, err := store.ListEmployees(ctx, sqlite.EmployeeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	byLocation, err := store.ListEmployees(ctx, sqlite.EmployeeFilter{LocationID: "loc-1"})
	require.NoError(t, err)
	require.Len(t, byLocation, 1)
	assert.Equal(t, report.EmployeeID("emp-1"), byLocation[0].ID)
	assert.Equal(t, "HQ", byLocation[0].LocationName)
	assert.True(t, byLocation[0].BiometricEnrolled)

	enrolled := true
	withFingerprint, err := store.ListEmployees(ctx, sqlite.EmployeeFilter{HasFingerprint: &enrolled})
	require.NoError(t, err)
	require.Len(t, withFingerprint, 1)
	assert.Equal(t, report.EmployeeID("emp-1"), withFingerprint[0].ID)

	notEnrolled := false
	withoutFingerprint, err := store.ListEmployees(ctx, sqlite.EmployeeFilter{HasFingerprint: &notEnrolled})
	require.NoError(t, err)
	require.Len(t, withoutFingerprint, 1)
	assert.Equal(t, report.EmployeeID("emp-2"), withoutFingerprint[0].ID)
}

func TestStore_GetEmployee_Missing(t *testing.T) {
	store := newTestStore(t)
	emp, err := store.GetEmployee(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, emp)
}

// =============================================================================
// POLICIES
// =============================================================================

func TestStore_Policy_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedPolicy(t, store, "std")

	p, err := store.GetPolicy(context.Background(), "std")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []string{"monday", "tuesday", "wednesday", "thursday", "friday"}, p.WorkingDays)
	assert.Equal(t, "09:00", p.WorkStart)
	assert.Equal(t, 10, p.GraceMinutes)

	snap, err := p.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, report.PolicyID("std"), snap.PolicyID)
	assert.True(t, snap.WorkingDays[time.Monday])
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func TestStore_AssignmentsInWindow(t *testing.T) {
	// GIVEN: One in-window and one pre-window assignment
	// WHEN: Loading assignments for a March window
	// THEN: Only the overlapping one comes back, carrying its snapshot

	store := newTestStore(t)
	ctx := context.Background()

	seedEmployee(t, store, "emp-1", "Ada", "", nil)
	seedPolicy(t, store, "std")

	jan31 := march(1).AddDate(0, -1, 0)
	require.NoError(t, store.SaveAssignment(ctx, sqlite.AssignmentRecord{
		ID: "a-old", EmployeeID: "emp-1", PolicyID: "std",
		StartDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   &jan31,
	}))
	require.NoError(t, store.SaveAssignment(ctx, sqlite.AssignmentRecord{
		ID: "a-current", EmployeeID: "emp-1", PolicyID: "std",
		StartDate: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	}))

	assignments, err := store.AssignmentsInWindow(ctx,
		[]report.EmployeeID{"emp-1"}, marchPeriod(1, 31))
	require.NoError(t, err)

	require.Len(t, assignments, 1)
	a := assignments[0]
	assert.Equal(t, "a-current", a.ID)
	assert.Equal(t, report.EmployeeID("emp-1"), a.EmployeeID)
	assert.Nil(t, a.EndDate)
	assert.Equal(t, report.PolicyID("std"), a.Policy.PolicyID)
}

func TestStore_AssignmentsInWindow_SkipsMissingPolicy(t *testing.T) {
	// GIVEN: An assignment referencing a policy that was never stored
	// WHEN: Loading assignments
	// THEN: The malformed assignment is dropped, not an error

	store := newTestStore(t)
	ctx := context.Background()

	seedEmployee(t, store, "emp-1", "Ada", "", nil)
	require.NoError(t, store.SaveAssignment(ctx, sqlite.AssignmentRecord{
		ID: "a-ghost", EmployeeID: "emp-1", PolicyID: "ghost",
		StartDate: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	}))

	assignments, err := store.AssignmentsInWindow(ctx,
		[]report.EmployeeID{"emp-1"}, marchPeriod(1, 31))
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestStore_SaveAttendance_UpsertsSameDay(t *testing.T) {
	// GIVEN: A punch-in, then a second save for the same (employee, day)
	// WHEN: Reading the day back
	// THEN: Exactly one row survives, with the later values

	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1", "Ada", "", nil)

	in := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveAttendance(ctx, sqlite.AttendanceRecord{
		ID: "r1", EmployeeID: "emp-1", Day: in, ClockIn: in,
	}))

	out := time.Date(2026, 3, 2, 17, 30, 0, 0, time.UTC)
	require.NoError(t, store.SaveAttendance(ctx, sqlite.AttendanceRecord{
		ID: "r2", EmployeeID: "emp-1", Day: in, ClockIn: in, ClockOut: &out,
	}))

	rows, err := store.AttendanceInWindow(ctx, []report.EmployeeID{"emp-1"}, marchPeriod(1, 31))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ClockOut)
	assert.True(t, rows[0].ClockOut.Equal(out))
}

func TestStore_AttendanceInWindow_Bounds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1", "Ada", "", nil)

	for _, day := range []int{1, 15, 31} {
		in := time.Date(2026, 3, day, 9, 0, 0, 0, time.UTC)
		require.NoError(t, store.SaveAttendance(ctx, sqlite.AttendanceRecord{
			ID: "r-" + in.Format("02"), EmployeeID: "emp-1", Day: in, ClockIn: in,
		}))
	}

	rows, err := store.AttendanceInWindow(ctx, []report.EmployeeID{"emp-1"}, marchPeriod(10, 20))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 15, rows[0].ClockIn.Day())
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestStore_Holidays_ScopedQueries(t *testing.T) {
	// GIVEN: A global, a location, and an individual holiday
	// WHEN: Querying each scope
	// THEN: Each query returns only its scope

	store := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, store, "emp-1", "Ada", "loc-1", nil)
	window := marchPeriod(1, 31)

	require.NoError(t, store.SaveHoliday(ctx, report.Holiday{
		ID: "h-global", Scope: report.ScopeGlobal,
		Date: report.NewDate(2026, time.March, 17), Name: "Founders Day", Active: true,
	}, nil))
	require.NoError(t, store.SaveHoliday(ctx, report.Holiday{
		ID: "h-loc", Scope: report.ScopeLocation, LocationID: "loc-1",
		Date: report.NewDate(2026, time.March, 3), Name: "Site Day", Active: true,
	}, nil))
	require.NoError(t, store.SaveHoliday(ctx, report.Holiday{
		ID: "h-ind", Scope: report.ScopeIndividual,
		Date: report.NewDate(2026, time.March, 25), Name: "Personal Day", Active: true,
	}, []string{"emp-1"}))

	global, err := store.GlobalHolidays(ctx, window)
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, "h-global", global[0].ID)

	byLocation, err := store.LocationHolidays(ctx, "loc-1", window)
	require.NoError(t, err)
	require.Len(t, byLocation, 1)
	assert.Equal(t, "h-loc", byLocation[0].ID)

	individual, err := store.EmployeeHolidays(ctx, "emp-1", window)
	require.NoError(t, err)
	require.Len(t, individual, 1)
	assert.Equal(t, "h-ind", individual[0].ID)

	other, err := store.EmployeeHolidays(ctx, "emp-2", window)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_Holidays_RecurringProjectsToWindowYear(t *testing.T) {
	// GIVEN: A recurring holiday stored against 2020
	// WHEN: Querying a 2026 window
	// THEN: The date is projected onto 2026

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHoliday(ctx, report.Holiday{
		ID: "h-rec", Scope: report.ScopeGlobal,
		Date: report.NewDate(2020, time.March, 17), Name: "Founders Day",
		Recurring: true, Active: true,
	}, nil))

	global, err := store.GlobalHolidays(ctx, marchPeriod(1, 31))
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, "2026-03-17", global[0].Date.String())
}

func TestStore_Holidays_RecurringLeapDay(t *testing.T) {
	// GIVEN: A recurring Feb 29 holiday stored against a leap year
	// WHEN: Querying a non-leap and then a leap February
	// THEN: No observance in the non-leap year; Feb 29 in the leap year,
	//       never a normalized Mar 1

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHoliday(ctx, report.Holiday{
		ID: "h-leap", Scope: report.ScopeGlobal,
		Date: report.NewDate(2024, time.February, 29), Name: "Leap Day",
		Recurring: true, Active: true,
	}, nil))

	nonLeap := report.Period{
		Start: report.NewDate(2026, time.February, 1),
		End:   report.NewDate(2026, time.March, 31),
	}
	none, err := store.GlobalHolidays(ctx, nonLeap)
	require.NoError(t, err)
	assert.Empty(t, none)

	leap := report.Period{
		Start: report.NewDate(2028, time.February, 1),
		End:   report.NewDate(2028, time.March, 31),
	}
	observed, err := store.GlobalHolidays(ctx, leap)
	require.NoError(t, err)
	require.Len(t, observed, 1)
	assert.Equal(t, "2028-02-29", observed[0].Date.String())
}

func TestStore_Holidays_InactiveExcluded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHoliday(ctx, report.Holiday{
		ID: "h-off", Scope: report.ScopeGlobal,
		Date: report.NewDate(2026, time.March, 17), Name: "Cancelled", Active: false,
	}, nil))

	global, err := store.GlobalHolidays(ctx, marchPeriod(1, 31))
	require.NoError(t, err)
	assert.Empty(t, global)

	all, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "admin view still shows inactive holidays")
}

func TestStore_DeleteHoliday(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHoliday(ctx, report.Holiday{
		ID: "h-1", Scope: report.ScopeGlobal,
		Date: report.NewDate(2026, time.March, 17), Name: "Founders Day", Active: true,
	}, nil))
	require.NoError(t, store.DeleteHoliday(ctx, "h-1"))

	all, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
