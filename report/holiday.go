/*
holiday.go - Scoped holiday resolution with per-employee fan-out

PURPOSE:
  Holidays apply at four independent scopes: organization-wide, one
  location, one area, or one individual employee. For each employee in a
  report, the resolver merges all four scopes into a de-duplicated,
  ascending list of dates inside the window.

CONCURRENCY:
  ResolveAll is the engine's single fan-out point: one goroutine per
  distinct employee, joined before aggregation proceeds. Results are keyed
  by employee id, so completion order is irrelevant. A failure in one
  employee's lookup yields an error for THAT employee only; the report
  proceeds without holiday adjustment for that row.

DE-DUPLICATION:
  Only the date matters. A global holiday and a location holiday on the
  same date collapse to one entry; scope precedence is not meaningful.

SEE ALSO:
  - aggregate.go: Uses the resolved date sets in the third pass
  - store/sqlite: HolidaySource implementation
*/
package report

import (
	"context"
	"sync"
)

// =============================================================================
// HOLIDAY MODEL
// =============================================================================

type HolidayScope string

const (
	ScopeGlobal     HolidayScope = "global"
	ScopeLocation   HolidayScope = "location"
	ScopeArea       HolidayScope = "area"
	ScopeIndividual HolidayScope = "individual"
)

type Holiday struct {
	ID         string
	Scope      HolidayScope
	LocationID string // set for ScopeLocation
	AreaID     string // set for ScopeArea
	Date       Date
	Name       string
	Recurring  bool
	Active     bool
}

// HolidaySource answers the four scope queries, each filtered to active
// records inside the window. Recurring holidays are expanded to in-window
// dates by the source.
type HolidaySource interface {
	GlobalHolidays(ctx context.Context, window Period) ([]Holiday, error)
	LocationHolidays(ctx context.Context, locationID string, window Period) ([]Holiday, error)
	AreaHolidays(ctx context.Context, areaID string, window Period) ([]Holiday, error)
	EmployeeHolidays(ctx context.Context, employeeID EmployeeID, window Period) ([]Holiday, error)
}

// =============================================================================
// RESOLVER
// =============================================================================

type HolidayResolver struct {
	Source HolidaySource
}

// HolidayResult is the outcome of one employee's resolution. Err set
// means the dates are unusable for that employee; other employees are
// unaffected.
type HolidayResult struct {
	Dates []Date
	Err   error
}

// Resolve merges the four scopes for one employee into a de-duplicated
// ascending date list.
func (r *HolidayResolver) Resolve(ctx context.Context, emp Employee, window Period) ([]Date, error) {
	if r.Source == nil {
		return nil, ErrNoHolidaySource
	}

	type scopedQuery struct {
		scope HolidayScope
		run   func() ([]Holiday, error)
	}

	queries := []scopedQuery{
		{ScopeGlobal, func() ([]Holiday, error) { return r.Source.GlobalHolidays(ctx, window) }},
		{ScopeIndividual, func() ([]Holiday, error) { return r.Source.EmployeeHolidays(ctx, emp.ID, window) }},
	}
	if emp.LocationID != "" {
		queries = append(queries, scopedQuery{ScopeLocation, func() ([]Holiday, error) {
			return r.Source.LocationHolidays(ctx, emp.LocationID, window)
		}})
	}
	if emp.AreaID != "" {
		queries = append(queries, scopedQuery{ScopeArea, func() ([]Holiday, error) {
			return r.Source.AreaHolidays(ctx, emp.AreaID, window)
		}})
	}

	seen := make(map[Date]bool)
	var dates []Date
	for _, q := range queries {
		holidays, err := q.run()
		if err != nil {
			return nil, &HolidayLookupError{EmployeeID: emp.ID, Scope: q.scope, Err: err}
		}
		for _, h := range holidays {
			if !h.Active || !window.Contains(h.Date) || seen[h.Date] {
				continue
			}
			seen[h.Date] = true
			dates = append(dates, h.Date)
		}
	}

	sortDates(dates)
	return dates, nil
}

// ResolveAll fans out Resolve across every employee and joins. Each
// employee gets an independent result-or-error; one failed lookup never
// aborts the whole report.
func (r *HolidayResolver) ResolveAll(ctx context.Context, employees []Employee, window Period) map[EmployeeID]HolidayResult {
	results := make([]HolidayResult, len(employees))

	var wg sync.WaitGroup
	for i, emp := range employees {
		wg.Add(1)
		go func(i int, emp Employee) {
			defer wg.Done()
			dates, err := r.Resolve(ctx, emp, window)
			results[i] = HolidayResult{Dates: dates, Err: err}
		}(i, emp)
	}
	wg.Wait()

	byEmployee := make(map[EmployeeID]HolidayResult, len(employees))
	for i, emp := range employees {
		byEmployee[emp.ID] = results[i]
	}
	return byEmployee
}
