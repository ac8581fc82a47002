/*
policy.go - Policy snapshots and per-(employee, date) coverage resolution

PURPOSE:
  An employee's attendance policy changes over time via dated assignments.
  The report must know, for every (employee, date) in the window, which
  policy was in effect. This file expands assignment intervals into a
  nested coverage index the aggregator reads.

KEY CONCEPTS:
  PolicySnapshot:
    The subset of a policy the aggregation needs: working weekdays, work
    start/end times, grace period, overtime threshold, and the policy id.
    Captured at resolution time so later policy edits don't shift a
    computed report.

  Assignment:
    (employee, policy, start_date, end_date-or-open, created_at). An open
    end clips to the report window. The engine ASSUMES non-overlapping
    intervals per employee but does not enforce it; see the ordering rule.

  Coverage:
    EmployeeID -> Date -> PolicySnapshot. Nested ownership, not composite
    string keys. ResolveCoverage owns and produces it; the aggregator only
    reads it. A missing entry means "no effective policy that day", which
    is never an error.

ORDERING RULE:
  Assignments are sorted by start date, then by creation time, before
  expansion. When two assignments cover the same date, the
  most-recently-created one wins. This is a stated contract, not an
  iteration accident.

SEE ALSO:
  - aggregate.go: Consumes Coverage in all three passes
  - time.go: Date, Period, WeekdaySet
*/
package report

import (
	"sort"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type PolicyID string

// =============================================================================
// POLICY SNAPSHOT - What the aggregation needs from a policy
// =============================================================================

type PolicySnapshot struct {
	PolicyID    PolicyID
	WorkingDays WeekdaySet
	WorkStart   ClockTime
	WorkEnd     ClockTime

	// GraceMinutes after WorkStart during which a clock-in is not late.
	// Threshold test only: the lateness penalty is the full offset from
	// WorkStart, not offset minus grace.
	GraceMinutes int

	// OvertimeMinutes after WorkEnd after which a clock-out starts
	// counting as overtime.
	OvertimeMinutes int
}

// LateAfter returns the time of day after which a clock-in is late.
func (p PolicySnapshot) LateAfter() ClockTime {
	return p.WorkStart.AddMinutes(p.GraceMinutes)
}

// OvertimeAfter returns the time of day after which a clock-out earns overtime.
func (p PolicySnapshot) OvertimeAfter() ClockTime {
	return p.WorkEnd.AddMinutes(p.OvertimeMinutes)
}

// =============================================================================
// ASSIGNMENT - Time-bounded employee-to-policy link
// =============================================================================

type Assignment struct {
	ID         string
	EmployeeID EmployeeID
	PolicyID   PolicyID
	Policy     PolicySnapshot

	StartDate Date
	EndDate   *Date // nil = open-ended; clips to the report window
	CreatedAt time.Time
}

// overlap returns the portion of the assignment interval inside the
// window, treating an open end as the window end.
func (a Assignment) overlap(window Period) (Period, bool) {
	start := a.StartDate
	if window.Start.After(start) {
		start = window.Start
	}

	end := window.End
	if a.EndDate != nil && a.EndDate.Before(end) {
		end = *a.EndDate
	}

	if end.Before(start) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

// =============================================================================
// COVERAGE - EmployeeID -> Date -> PolicySnapshot
// =============================================================================

type Coverage struct {
	byEmployee map[EmployeeID]map[Date]PolicySnapshot
}

// ResolveCoverage expands assignment intervals into the per-(employee,
// date) coverage index for the window. Assignments whose interval misses
// the window contribute nothing.
func ResolveCoverage(assignments []Assignment, window Period) *Coverage {
	// Sort so the most-recently-created assignment is expanded last and
	// wins any contested date.
	sorted := make([]Assignment, len(assignments))
	copy(sorted, assignments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].StartDate.Equal(sorted[j].StartDate) {
			return sorted[i].StartDate.Before(sorted[j].StartDate)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	cov := &Coverage{byEmployee: make(map[EmployeeID]map[Date]PolicySnapshot)}
	for _, a := range sorted {
		span, ok := a.overlap(window)
		if !ok {
			continue
		}

		days := cov.byEmployee[a.EmployeeID]
		if days == nil {
			days = make(map[Date]PolicySnapshot)
			cov.byEmployee[a.EmployeeID] = days
		}
		for _, d := range span.Days() {
			days[d] = a.Policy
		}
	}
	return cov
}

// Lookup returns the effective policy for an employee on a date. A false
// result means "no effective policy that day", not an error.
func (c *Coverage) Lookup(emp EmployeeID, d Date) (PolicySnapshot, bool) {
	snap, ok := c.byEmployee[emp][d]
	return snap, ok
}

// Dates returns the covered dates for an employee, ascending.
func (c *Coverage) Dates(emp EmployeeID) []Date {
	days := c.byEmployee[emp]
	dates := make([]Date, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sortDates(dates)
	return dates
}
