/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run
  the shared validator instance before touching the store.

SEE ALSO:
  - handlers.go: Collaborator endpoints using these types
  - report.go: The report endpoint and its envelope
*/
package api

import (
	"time"

	"github.com/warp/attendance-engine/report"
)

// =============================================================================
// REPORT ENVELOPE
// =============================================================================

// ReportResponse is the report endpoint's JSON envelope.
type ReportResponse struct {
	Success bool                   `json:"success"`
	Msg     string                 `json:"msg"`
	Count   int                    `json:"count"`
	Data    []EmployeeReportRowDTO `json:"data"`
	Summary GroupStatsSummaryDTO   `json:"summary"`
	Filters ReportFiltersDTO       `json:"filters"`
}

// ReportFiltersDTO echoes the caller's inputs back.
type ReportFiltersDTO struct {
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	UserID         string `json:"user_id,omitempty"`
	LocationID     string `json:"location_id,omitempty"`
	AreaID         string `json:"area_id,omitempty"`
	RFFPointID     string `json:"rff_point_id,omitempty"`
	DesignationID  string `json:"designation_id,omitempty"`
	Status         string `json:"status,omitempty"`
	HasFingerprint string `json:"hasFingerprint,omitempty"`
	Format         string `json:"format,omitempty"`
}

// EmployeeReportRowDTO is one employee's computed statistics row.
type EmployeeReportRowDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	LocationID     string `json:"location_id,omitempty"`
	Location       string `json:"location,omitempty"`
	AreaID         string `json:"area_id,omitempty"`
	Area           string `json:"area,omitempty"`
	RFFPointID     string `json:"rff_point_id,omitempty"`
	RFFPoint       string `json:"rff_point,omitempty"`
	DesignationID  string `json:"designation_id,omitempty"`
	Designation    string `json:"designation,omitempty"`
	HasFingerprint bool   `json:"has_fingerprint"`

	WorkingDays       int      `json:"working_days"`
	PresentDays       int      `json:"present_days"`
	AbsentDays        int      `json:"absent_days"`
	PresentOnHolidays int      `json:"present_on_holidays"`
	HolidayCount      int      `json:"holiday_count"`
	Holidays          []string `json:"holidays"`
	HolidayError      string   `json:"holiday_error,omitempty"`
	LateDays          int      `json:"late_days"`
	LateMinutes       int64    `json:"late_minutes"`
	OvertimeMinutes   int64    `json:"overtime_minutes"`
	PresentPercent    string   `json:"present_percent"`

	PolicyIDs []string   `json:"policy_ids"`
	Punches   []PunchDTO `json:"punches"`
}

// PunchDTO is one raw punch's detail.
type PunchDTO struct {
	Day         string  `json:"day"`
	ClockIn     string  `json:"clock_in"`
	ClockOut    *string `json:"clock_out,omitempty"`
	Manual      bool    `json:"manual"`
	InLocation  string  `json:"in_location,omitempty"`
	OutLocation string  `json:"out_location,omitempty"`
	InRemark    string  `json:"in_remark,omitempty"`
	OutRemark   string  `json:"out_remark,omitempty"`
}

// GroupSummaryDTO is one group's rollup.
type GroupSummaryDTO struct {
	ID                string `json:"id,omitempty"`
	Name              string `json:"name,omitempty"`
	UserCount         int    `json:"user_count"`
	TotalWorkingDays  int    `json:"total_working_days"`
	TotalPresentDays  int    `json:"total_present_days"`
	TotalAbsentDays   int    `json:"total_absent_days"`
	AverageAttendance string `json:"average_attendance"`
}

// GroupStatsSummaryDTO is the full summary block.
type GroupStatsSummaryDTO struct {
	TotalUsers int               `json:"total_users"`
	Locations  []GroupSummaryDTO `json:"locations"`
	Areas      []GroupSummaryDTO `json:"areas"`
	RFFs       []GroupSummaryDTO `json:"rffs"`
	Overall    GroupSummaryDTO   `json:"overall"`
}

// =============================================================================
// COLLABORATOR REQUEST/RESPONSE TYPES
// =============================================================================

// OrgUnitRequest creates or renames a reference unit.
type OrgUnitRequest struct {
	ID   string `json:"id"`
	Kind string `json:"kind" validate:"required,oneof=location area rff_point designation"`
	Name string `json:"name" validate:"required"`
}

// EmployeeDTO represents an employee in API responses. The biometric
// template itself is never serialized.
type EmployeeDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Active         bool   `json:"active"`
	LocationID     string `json:"location_id,omitempty"`
	AreaID         string `json:"area_id,omitempty"`
	RFFPointID     string `json:"rff_point_id,omitempty"`
	DesignationID  string `json:"designation_id,omitempty"`
	HasFingerprint bool   `json:"has_fingerprint"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name" validate:"required"`
	Active        *bool  `json:"active"`
	LocationID    string `json:"location_id"`
	AreaID        string `json:"area_id"`
	RFFPointID    string `json:"rff_point_id"`
	DesignationID string `json:"designation_id"`

	// BiometricTemplate is accepted on create only; its presence flips
	// the enrollment flag.
	BiometricTemplate []byte `json:"biometric_template,omitempty"`
}

// PolicyDTO represents an attendance policy.
type PolicyDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	WorkingDays     []string `json:"working_days"`
	OffDays         []string `json:"off_days"`
	WorkStart       string   `json:"work_start"`
	WorkEnd         string   `json:"work_end"`
	GraceMinutes    int      `json:"grace_minutes"`
	OvertimeMinutes int      `json:"overtime_minutes"`
}

// CreatePolicyRequest is the request to create a policy.
type CreatePolicyRequest struct {
	ID              string   `json:"id"`
	Name            string   `json:"name" validate:"required"`
	WorkingDays     []string `json:"working_days" validate:"required,min=1"`
	OffDays         []string `json:"off_days"`
	WorkStart       string   `json:"work_start" validate:"required"`
	WorkEnd         string   `json:"work_end" validate:"required"`
	GraceMinutes    int      `json:"grace_minutes" validate:"gte=0"`
	OvertimeMinutes int      `json:"overtime_minutes" validate:"gte=0"`
}

// CreateAssignmentRequest links an employee to a policy for an interval.
type CreateAssignmentRequest struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id" validate:"required"`
	PolicyID   string  `json:"policy_id" validate:"required"`
	StartDate  string  `json:"start_date" validate:"required"`
	EndDate    *string `json:"end_date,omitempty"`
}

// AssignmentDTO represents a policy assignment.
type AssignmentDTO struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	PolicyID   string  `json:"policy_id"`
	StartDate  string  `json:"start_date"`
	EndDate    *string `json:"end_date,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

// CreateHolidayRequest creates a scoped holiday.
type CreateHolidayRequest struct {
	ID         string   `json:"id"`
	Scope      string   `json:"scope" validate:"required,oneof=global location area individual"`
	LocationID string   `json:"location_id"`
	AreaID     string   `json:"area_id"`
	Date       string   `json:"date" validate:"required"`
	Name       string   `json:"name" validate:"required"`
	Recurring  bool     `json:"recurring"`
	Active     *bool    `json:"active"`
	Employees  []string `json:"employees,omitempty"` // individual scope only
}

// HolidayDTO represents a holiday.
type HolidayDTO struct {
	ID         string `json:"id"`
	Scope      string `json:"scope"`
	LocationID string `json:"location_id,omitempty"`
	AreaID     string `json:"area_id,omitempty"`
	Date       string `json:"date"`
	Name       string `json:"name"`
	Recurring  bool   `json:"recurring"`
	Active     bool   `json:"active"`
}

// PunchRequest records a clock-in or clock-out.
type PunchRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Timestamp  string `json:"timestamp" validate:"required"` // RFC3339
	Manual     bool   `json:"manual"`
	Location   string `json:"location"`
	Remark     string `json:"remark"`
	PolicyID   string `json:"policy_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toReportRowDTO(r report.EmployeeReport) EmployeeReportRowDTO {
	holidays := make([]string, len(r.Holidays))
	for i, d := range r.Holidays {
		holidays[i] = d.String()
	}

	punches := make([]PunchDTO, len(r.Punches))
	for i, p := range r.Punches {
		dto := PunchDTO{
			Day:         p.Day.String(),
			ClockIn:     p.ClockIn.Format(time.RFC3339),
			Manual:      p.Manual,
			InLocation:  p.InLocation,
			OutLocation: p.OutLocation,
			InRemark:    p.InRemark,
			OutRemark:   p.OutRemark,
		}
		if p.ClockOut != nil {
			out := p.ClockOut.Format(time.RFC3339)
			dto.ClockOut = &out
		}
		punches[i] = dto
	}

	policyIDs := make([]string, len(r.PolicyIDs))
	for i, id := range r.PolicyIDs {
		policyIDs[i] = string(id)
	}

	dto := EmployeeReportRowDTO{
		ID:                string(r.Employee.ID),
		Name:              r.Employee.Name,
		LocationID:        r.Employee.LocationID,
		Location:          r.Employee.LocationName,
		AreaID:            r.Employee.AreaID,
		Area:              r.Employee.AreaName,
		RFFPointID:        r.Employee.RFFPointID,
		RFFPoint:          r.Employee.RFFPointName,
		DesignationID:     r.Employee.DesignationID,
		Designation:       r.Employee.DesignationName,
		HasFingerprint:    r.Employee.BiometricEnrolled,
		WorkingDays:       r.WorkingDays,
		PresentDays:       r.PresentDays,
		AbsentDays:        r.AbsentDays,
		PresentOnHolidays: r.PresentOnHolidays,
		HolidayCount:      r.HolidayCount,
		Holidays:          holidays,
		LateDays:          r.LateDays,
		LateMinutes:       r.LateMinutes,
		OvertimeMinutes:   r.OvertimeMinutes,
		PresentPercent:    r.PresentPercent,
		PolicyIDs:         policyIDs,
		Punches:           punches,
	}
	if r.HolidayErr != nil {
		dto.HolidayError = r.HolidayErr.Error()
	}
	return dto
}

func toReportRowDTOs(rows []report.EmployeeReport) []EmployeeReportRowDTO {
	dtos := make([]EmployeeReportRowDTO, len(rows))
	for i, r := range rows {
		dtos[i] = toReportRowDTO(r)
	}
	return dtos
}

func toGroupSummaryDTO(g report.GroupSummary) GroupSummaryDTO {
	return GroupSummaryDTO{
		ID:                g.ID,
		Name:              g.Name,
		UserCount:         g.UserCount,
		TotalWorkingDays:  g.TotalWorkingDays,
		TotalPresentDays:  g.TotalPresentDays,
		TotalAbsentDays:   g.TotalAbsentDays,
		AverageAttendance: g.AverageAttendance,
	}
}

func toSummaryDTO(s report.Summary) GroupStatsSummaryDTO {
	groups := func(gs []report.GroupSummary) []GroupSummaryDTO {
		dtos := make([]GroupSummaryDTO, len(gs))
		for i, g := range gs {
			dtos[i] = toGroupSummaryDTO(g)
		}
		return dtos
	}
	return GroupStatsSummaryDTO{
		TotalUsers: s.TotalUsers,
		Locations:  groups(s.Locations),
		Areas:      groups(s.Areas),
		RFFs:       groups(s.RFFPoints),
		Overall:    toGroupSummaryDTO(s.Overall),
	}
}

func toHolidayDTO(h report.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:         h.ID,
		Scope:      string(h.Scope),
		LocationID: h.LocationID,
		AreaID:     h.AreaID,
		Date:       h.Date.String(),
		Name:       h.Name,
		Recurring:  h.Recurring,
		Active:     h.Active,
	}
}
