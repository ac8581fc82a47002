/*
aggregate.go - The central three-pass attendance aggregation

PURPOSE:
  Consumes raw attendance rows, the policy coverage index, and per-employee
  holiday sets, and produces one frozen statistics record per employee.

ALGORITHM:
  Pass 1 (rows): For each attendance row, resolve the effective policy for
  the clock-in day. No policy -> the row is skipped silently and
  contributes to no tally. On a working day, the first row per (employee,
  day) counts one present day. Lateness and overtime accumulate against
  the policy's start/end times with strict-after threshold tests; the
  penalty/credit is always the full offset, never reduced by the
  grace/threshold.

  Pass 2 (denominator): Every covered date that is a working day counts
  toward the employee's working-day denominator, regardless of whether any
  attendance exists. Coverage alone drives the denominator.

  Pass 3 (holidays): The denominator is recomputed - replaced, not
  decremented - by walking the window and excluding the employee's holiday
  dates. A present day already recorded on a holiday is NOT retroactively
  removed, so AbsentDays can go negative. Both PresentDays and
  PresentOnHolidays are exported so either reading of that behavior is
  assertable.

ACCUMULATORS:
  One accumulator value is created per employee, threaded through the
  three passes, then frozen into an EmployeeReport. Nothing mutates a
  report after freezing.

SEE ALSO:
  - groupstats.go: Rolls the frozen rows up into group summaries
  - filter.go: Post-hoc present/absent filtering
*/
package report

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT TYPES
// =============================================================================

// Employee is the denormalized projection the report works with. The
// biometric flag is derived upstream from template presence; the template
// itself never appears in report data.
type Employee struct {
	ID     EmployeeID
	Name   string
	Active bool

	LocationID      string
	LocationName    string
	AreaID          string
	AreaName        string
	RFFPointID      string
	RFFPointName    string
	DesignationID   string
	DesignationName string

	BiometricEnrolled bool
}

// AttendanceRow is one raw punch row: at most one per (employee, calendar
// day), overwritten in place upstream on repeated punches.
type AttendanceRow struct {
	EmployeeID EmployeeID
	ClockIn    time.Time
	ClockOut   *time.Time
	Manual     bool

	ClockInLocation  string
	ClockOutLocation string
	ClockInRemark    string
	ClockOutRemark   string

	// PolicyID as captured at row creation. Informational only: the
	// report always re-resolves the effective policy from coverage.
	PolicyID PolicyID
}

// AggregateInput is the immutable snapshot one report computation reads.
type AggregateInput struct {
	Window    Period
	Employees []Employee
	Rows      []AttendanceRow
	Coverage  *Coverage
	Holidays  map[EmployeeID]HolidayResult
}

// =============================================================================
// OUTPUT TYPES
// =============================================================================

// Punch is the per-row detail carried for downstream reporting. Not used
// in numeric statistics.
type Punch struct {
	Day      Date
	ClockIn  time.Time
	ClockOut *time.Time
	Manual   bool

	InLocation  string
	OutLocation string
	InRemark    string
	OutRemark   string
}

// EmployeeReport is the frozen per-employee result record.
type EmployeeReport struct {
	Employee Employee

	WorkingDays int // holiday-adjusted denominator
	PresentDays int
	AbsentDays  int // WorkingDays - PresentDays; may be negative

	// PresentOnHolidays counts present days that fell on holiday dates.
	// Exported alongside PresentDays so the holiday-numerator question
	// can be asserted either way by consumers.
	PresentOnHolidays int

	HolidayCount int
	Holidays     []Date
	HolidayErr   error // set when this employee's holiday lookup failed

	LateDays        int
	LateMinutes     int64
	OvertimeMinutes int64

	PresentPercent string // 2-decimal percentage, "0.00" when no working days
	PolicyIDs      []PolicyID
	Punches        []Punch
}

// =============================================================================
// ACCUMULATOR - Mutable only inside Aggregate
// =============================================================================

type accumulator struct {
	emp Employee

	counted    map[Date]bool // present dates, first row per day only
	lateByDate map[Date]time.Duration
	late       time.Duration
	overtime   time.Duration

	policyIDs  []PolicyID
	policySeen map[PolicyID]bool
	punches    []Punch

	workingDaysBeforeHolidays int
	workingDays               int
	presentOnHolidays         int
	holidays                  []Date
	holidayErr                error
}

func newAccumulator(emp Employee) *accumulator {
	return &accumulator{
		emp:        emp,
		counted:    make(map[Date]bool),
		lateByDate: make(map[Date]time.Duration),
		policySeen: make(map[PolicyID]bool),
	}
}

func (a *accumulator) recordPolicy(id PolicyID) {
	if !a.policySeen[id] {
		a.policySeen[id] = true
		a.policyIDs = append(a.policyIDs, id)
	}
}

// freeze derives the final fields and produces the immutable report row.
func (a *accumulator) freeze() EmployeeReport {
	present := len(a.counted)

	lateDays := 0
	for d := range a.counted {
		if a.lateByDate[d] > 0 {
			lateDays++
		}
	}

	percent := "0.00"
	if a.workingDays > 0 {
		percent = decimal.NewFromInt(int64(present)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(a.workingDays))).
			StringFixed(2)
	}

	sort.Slice(a.punches, func(i, j int) bool { return a.punches[i].ClockIn.Before(a.punches[j].ClockIn) })

	return EmployeeReport{
		Employee:          a.emp,
		WorkingDays:       a.workingDays,
		PresentDays:       present,
		AbsentDays:        a.workingDays - present,
		PresentOnHolidays: a.presentOnHolidays,
		HolidayCount:      len(a.holidays),
		Holidays:          a.holidays,
		HolidayErr:        a.holidayErr,
		LateDays:          lateDays,
		LateMinutes:       roundMinutes(a.late),
		OvertimeMinutes:   roundMinutes(a.overtime),
		PresentPercent:    percent,
		PolicyIDs:         a.policyIDs,
		Punches:           a.punches,
	}
}

func roundMinutes(d time.Duration) int64 {
	return int64(math.Round(d.Minutes()))
}

// =============================================================================
// AGGREGATE - The engine entry point
// =============================================================================

// Aggregate runs the three passes and returns one report row per input
// employee, sorted by name. Employees with coverage but no attendance
// still produce a row with zero present days.
func Aggregate(in AggregateInput) []EmployeeReport {
	accs := make(map[EmployeeID]*accumulator, len(in.Employees))
	for _, emp := range in.Employees {
		accs[emp.ID] = newAccumulator(emp)
	}

	// Pass 1: raw rows.
	for _, row := range in.Rows {
		acc, ok := accs[row.EmployeeID]
		if !ok {
			continue // row outside the scoped employee set
		}

		day := DateOf(row.ClockIn)
		policy, ok := in.Coverage.Lookup(row.EmployeeID, day)
		if !ok {
			continue // no effective policy: the row contributes nothing
		}

		if IsWorkingDay(day, policy.WorkingDays) && !acc.counted[day] {
			acc.counted[day] = true
			acc.recordPolicy(policy.PolicyID)
		}

		clockIn := ClockTimeOf(row.ClockIn)
		if clockIn.After(policy.LateAfter()) {
			// Full offset from work start; grace is a threshold only.
			offset := clockIn.Sub(policy.WorkStart)
			acc.late += offset
			acc.lateByDate[day] += offset
		}

		if row.ClockOut != nil {
			clockOut := ClockTimeOf(*row.ClockOut)
			if clockOut.After(policy.OvertimeAfter()) {
				acc.overtime += clockOut.Sub(policy.WorkEnd)
			}
		}

		acc.punches = append(acc.punches, Punch{
			Day:         day,
			ClockIn:     row.ClockIn,
			ClockOut:    row.ClockOut,
			Manual:      row.Manual,
			InLocation:  row.ClockInLocation,
			OutLocation: row.ClockOutLocation,
			InRemark:    row.ClockInRemark,
			OutRemark:   row.ClockOutRemark,
		})
	}

	// Pass 2: coverage-driven denominator.
	for id, acc := range accs {
		for _, d := range in.Coverage.Dates(id) {
			if policy, ok := in.Coverage.Lookup(id, d); ok && IsWorkingDay(d, policy.WorkingDays) {
				acc.workingDaysBeforeHolidays++
			}
		}
		acc.workingDays = acc.workingDaysBeforeHolidays
	}

	// Pass 3: holiday adjustment. Replaces the pass-2 denominator.
	for id, acc := range accs {
		result, ok := in.Holidays[id]
		if !ok {
			continue // no holiday data: keep the pass-2 denominator
		}
		if result.Err != nil {
			acc.holidayErr = result.Err
			continue
		}

		holidaySet := make(map[Date]bool, len(result.Dates))
		for _, d := range result.Dates {
			holidaySet[d] = true
		}

		adjusted := 0
		for _, d := range in.Window.Days() {
			policy, covered := in.Coverage.Lookup(id, d)
			if covered && IsWorkingDay(d, policy.WorkingDays) && !holidaySet[d] {
				adjusted++
			}
		}
		acc.workingDays = adjusted
		acc.holidays = result.Dates

		for d := range acc.counted {
			if holidaySet[d] {
				acc.presentOnHolidays++
			}
		}
	}

	reports := make([]EmployeeReport, 0, len(in.Employees))
	for _, emp := range in.Employees {
		reports = append(reports, accs[emp.ID].freeze())
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Employee.Name != reports[j].Employee.Name {
			return reports[i].Employee.Name < reports[j].Employee.Name
		}
		return reports[i].Employee.ID < reports[j].Employee.ID
	})
	return reports
}
