package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/report"
)

// =============================================================================
// FIXTURES
// =============================================================================

func reportRow(name, locationID, locationName, percent string, working, present int) report.EmployeeReport {
	return report.EmployeeReport{
		Employee: report.Employee{
			ID:           report.EmployeeID("emp-" + name),
			Name:         name,
			LocationID:   locationID,
			LocationName: locationName,
		},
		WorkingDays:    working,
		PresentDays:    present,
		AbsentDays:     working - present,
		PresentPercent: percent,
	}
}

// =============================================================================
// SUMMARIZE
// =============================================================================

func TestSummarize_AverageIsMeanOfPercentages(t *testing.T) {
	// GIVEN: Two members at 20.00% and 100.00%
	// WHEN: Summarizing
	// THEN: The group average is 60.00, the mean of the member rates,
	//       not the pooled present/working ratio

	rows := []report.EmployeeReport{
		reportRow("Ada", "loc-1", "HQ", "20.00", 5, 1),
		reportRow("Brin", "loc-1", "HQ", "100.00", 5, 5),
	}

	summary := report.Summarize(rows)

	require.Len(t, summary.Locations, 1)
	loc := summary.Locations[0]
	assert.Equal(t, "loc-1", loc.ID)
	assert.Equal(t, "HQ", loc.Name)
	assert.Equal(t, 2, loc.UserCount)
	assert.Equal(t, 10, loc.TotalWorkingDays)
	assert.Equal(t, 6, loc.TotalPresentDays)
	assert.Equal(t, 4, loc.TotalAbsentDays)
	assert.Equal(t, "60.00", loc.AverageAttendance)
}

func TestSummarize_OverallCoversEveryone(t *testing.T) {
	rows := []report.EmployeeReport{
		reportRow("Ada", "loc-1", "HQ", "50.00", 4, 2),
		reportRow("Brin", "loc-2", "Depot", "75.00", 4, 3),
	}

	summary := report.Summarize(rows)

	assert.Equal(t, 2, summary.TotalUsers)
	assert.Equal(t, 2, summary.Overall.UserCount)
	assert.Equal(t, 8, summary.Overall.TotalWorkingDays)
	assert.Equal(t, 5, summary.Overall.TotalPresentDays)
	assert.Equal(t, "62.50", summary.Overall.AverageAttendance)
	assert.Len(t, summary.Locations, 2)
}

func TestSummarize_UnassignedEmployeesSkipGrouping(t *testing.T) {
	// GIVEN: An employee with no location
	// WHEN: Summarizing
	// THEN: They count overall but appear in no location group

	rows := []report.EmployeeReport{
		reportRow("Ada", "", "", "50.00", 4, 2),
		reportRow("Brin", "loc-1", "HQ", "75.00", 4, 3),
	}

	summary := report.Summarize(rows)

	assert.Equal(t, 2, summary.TotalUsers)
	require.Len(t, summary.Locations, 1)
	assert.Equal(t, 1, summary.Locations[0].UserCount)
}

func TestSummarize_Empty(t *testing.T) {
	summary := report.Summarize(nil)

	assert.Equal(t, 0, summary.TotalUsers)
	assert.Empty(t, summary.Locations)
	assert.Equal(t, "0.00", summary.Overall.AverageAttendance)
}

func TestSummarize_GroupsSortedByName(t *testing.T) {
	rows := []report.EmployeeReport{
		reportRow("Ada", "loc-2", "Zulu", "50.00", 4, 2),
		reportRow("Brin", "loc-1", "Alpha", "75.00", 4, 3),
	}

	summary := report.Summarize(rows)

	require.Len(t, summary.Locations, 2)
	assert.Equal(t, "Alpha", summary.Locations[0].Name)
	assert.Equal(t, "Zulu", summary.Locations[1].Name)
}
