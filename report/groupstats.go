/*
groupstats.go - Group and overall roll-ups over per-employee rows

PURPOSE:
  Groups the per-employee result set by location, by area, and by
  collection point, and computes an overall rollup.

AVERAGING RULE:
  AverageAttendance is the arithmetic mean of each member's
  PresentPercent, NOT a ratio of group totals. Every employee's rate
  counts equally regardless of how many working days they individually
  had. This is deliberate.

RECOMPUTATION:
  When a status filter is applied, Summarize runs again from scratch over
  the filtered subset. There is no incremental update path.
*/
package report

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY TYPES
// =============================================================================

// GroupSummary is one group's rollup (a location, an area, a collection
// point, or the ungrouped overall).
type GroupSummary struct {
	ID   string
	Name string

	UserCount        int
	TotalWorkingDays int
	TotalPresentDays int
	TotalAbsentDays  int

	// AverageAttendance is the mean of member PresentPercent values,
	// 2-decimal string.
	AverageAttendance string
}

type Summary struct {
	TotalUsers int
	Locations  []GroupSummary
	Areas      []GroupSummary
	RFFPoints  []GroupSummary
	Overall    GroupSummary
}

// =============================================================================
// SUMMARIZE
// =============================================================================

// Summarize computes all roll-ups over the given rows. An empty input
// yields zeroed summaries, never an error.
func Summarize(rows []EmployeeReport) Summary {
	return Summary{
		TotalUsers: len(rows),
		Locations: groupBy(rows, func(r EmployeeReport) (string, string) {
			return r.Employee.LocationID, r.Employee.LocationName
		}),
		Areas: groupBy(rows, func(r EmployeeReport) (string, string) {
			return r.Employee.AreaID, r.Employee.AreaName
		}),
		RFFPoints: groupBy(rows, func(r EmployeeReport) (string, string) {
			return r.Employee.RFFPointID, r.Employee.RFFPointName
		}),
		Overall: summarizeGroup("", "", rows),
	}
}

func groupBy(rows []EmployeeReport, keyOf func(EmployeeReport) (id, name string)) []GroupSummary {
	grouped := make(map[string][]EmployeeReport)
	names := make(map[string]string)
	for _, r := range rows {
		id, name := keyOf(r)
		if id == "" {
			continue // unassigned employees belong to no group
		}
		grouped[id] = append(grouped[id], r)
		names[id] = name
	}

	summaries := make([]GroupSummary, 0, len(grouped))
	for id, members := range grouped {
		summaries = append(summaries, summarizeGroup(id, names[id], members))
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Name != summaries[j].Name {
			return summaries[i].Name < summaries[j].Name
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries
}

func summarizeGroup(id, name string, members []EmployeeReport) GroupSummary {
	g := GroupSummary{ID: id, Name: name, UserCount: len(members), AverageAttendance: "0.00"}

	percents := make([]decimal.Decimal, 0, len(members))
	for _, m := range members {
		g.TotalWorkingDays += m.WorkingDays
		g.TotalPresentDays += m.PresentDays
		g.TotalAbsentDays += m.AbsentDays

		p, err := decimal.NewFromString(m.PresentPercent)
		if err != nil {
			p = decimal.Zero
		}
		percents = append(percents, p)
	}

	if len(percents) > 0 {
		g.AverageAttendance = decimal.Avg(percents[0], percents[1:]...).StringFixed(2)
	}
	return g
}
