/*
filter.go - Optional post-hoc present/absent filtering

The filter runs AFTER aggregation: it keeps or drops frozen rows and the
caller re-runs Summarize over the result. Per-row fields never change, so
filtering then summarizing equals summarizing a pre-filtered employee set.
*/
package report

import "fmt"

type StatusFilter string

const (
	StatusAny     StatusFilter = ""
	StatusPresent StatusFilter = "present"
	StatusAbsent  StatusFilter = "absent"
)

// ParseStatusFilter validates a status query value.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(s) {
	case StatusAny, StatusPresent, StatusAbsent:
		return StatusFilter(s), nil
	default:
		return StatusAny, fmt.Errorf("%w: %q", ErrUnknownStatusFilter, s)
	}
}

// FilterByStatus keeps rows matching the filter. StatusAny keeps all.
func FilterByStatus(rows []EmployeeReport, f StatusFilter) []EmployeeReport {
	if f == StatusAny {
		return rows
	}

	filtered := make([]EmployeeReport, 0, len(rows))
	for _, r := range rows {
		switch f {
		case StatusPresent:
			if r.PresentDays > 0 {
				filtered = append(filtered, r)
			}
		case StatusAbsent:
			if r.AbsentDays > 0 {
				filtered = append(filtered, r)
			}
		}
	}
	return filtered
}
