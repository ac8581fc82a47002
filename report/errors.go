/*
errors.go - Centralized error types for the reporting engine

PURPOSE:
  All engine error types in one place. Callers (the API layer) use the
  sentinel errors with errors.Is to map failures to HTTP status codes.

ERROR CATEGORIES:
  1. Input errors - invalid report windows, unknown filter values
  2. Policy errors - malformed policy definitions
  3. Holiday errors - per-employee lookup failures (never fatal to a report)

SEE ALSO:
  - holiday.go: Produces HolidayLookupError per employee
  - api package: Maps these to HTTP responses
*/
package report

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDateRange is returned when a report window is missing,
	// unparseable, or inverted. The engine refuses to run over an
	// undefined window.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrUnknownWeekday is returned when a policy names a weekday that
	// does not exist.
	ErrUnknownWeekday = errors.New("unknown weekday name")

	// ErrUnknownStatusFilter is returned for a status value outside
	// {present, absent}.
	ErrUnknownStatusFilter = errors.New("unknown status filter")

	// ErrNoHolidaySource is returned when a resolver is used without a
	// configured source.
	ErrNoHolidaySource = errors.New("no holiday source configured")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// HolidayLookupError records which employee's holiday resolution failed
// and at which scope. It marks that employee's row only; the report as a
// whole proceeds.
type HolidayLookupError struct {
	EmployeeID EmployeeID
	Scope      HolidayScope
	Err        error
}

func (e *HolidayLookupError) Error() string {
	return fmt.Sprintf("holiday lookup failed for %s (scope %s): %v", e.EmployeeID, e.Scope, e.Err)
}

func (e *HolidayLookupError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrUnknownWeekday) ||
		errors.Is(err, ErrUnknownStatusFilter)
}
