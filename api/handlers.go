/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the attendance engine and its collaborator records via REST.
  Handles HTTP request/response, JSON serialization, validation, and
  delegates to domain logic.

ENDPOINTS:
  Reference data:
    GET    /api/org-units?kind=location  List units of one kind
    POST   /api/org-units                Create/rename a unit

  Employees:
    GET    /api/employees                List (filterable)
    POST   /api/employees                Create employee
    GET    /api/employees/{id}           Get employee details
    GET    /api/employees/{id}/assignments  Assignment history

  Policies:
    GET    /api/policies                 List all policies
    POST   /api/policies                 Create policy
    GET    /api/policies/{id}            Get one policy

  Assignments:
    POST   /api/assignments              Assign a policy to an employee

  Holidays:
    GET    /api/holidays                 List all holidays
    POST   /api/holidays                 Create a scoped holiday
    POST   /api/holidays/defaults        Seed US federal holidays
    DELETE /api/holidays/{id}            Remove a holiday

  Attendance:
    POST   /api/attendance/punch-in      Record a clock-in
    POST   /api/attendance/punch-out     Record a clock-out

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, bad date ranges
  - 404: Resource not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - report.go: The report endpoint
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"

	"github.com/warp/attendance-engine/export"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Validate *validator.Validate

	// Exporters keyed by format query value. JSON is handled inline.
	Exporters map[string]export.Exporter
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Validate: validator.New(),
		Exporters: map[string]export.Exporter{
			"excel": export.NewExcel(),
			"pdf":   export.NewPDF(),
		},
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers already sent; nothing left to do.
		return
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// decodeAndValidate decodes the request body into v and runs struct
// validation. It writes the error response itself and reports success.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.Validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

// ListOrgUnits returns units of one kind (?kind=location|area|rff_point|designation).
func (h *Handler) ListOrgUnits(w http.ResponseWriter, r *http.Request) {
	kind := sqlite.OrgUnitKind(r.URL.Query().Get("kind"))
	if kind == "" {
		writeError(w, http.StatusBadRequest, "Missing kind parameter", nil)
		return
	}

	units, err := h.Store.ListOrgUnits(r.Context(), kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list org units", err)
		return
	}

	dtos := make([]OrgUnitRequest, len(units))
	for i, u := range units {
		dtos[i] = OrgUnitRequest{ID: u.ID, Kind: string(u.Kind), Name: u.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateOrgUnit creates or renames a reference unit.
func (h *Handler) CreateOrgUnit(w http.ResponseWriter, r *http.Request) {
	var req OrgUnitRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	unit := sqlite.OrgUnit{
		ID:   orNewID(req.ID),
		Kind: sqlite.OrgUnitKind(req.Kind),
		Name: req.Name,
	}
	if err := h.Store.SaveOrgUnit(r.Context(), unit); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save org unit", err)
		return
	}
	writeJSON(w, http.StatusCreated, OrgUnitRequest{ID: unit.ID, Kind: string(unit.Kind), Name: unit.Name})
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// ListEmployees returns employees matching the query filters.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	filter, err := employeeFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	employees, err := h.Store.ListEmployees(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = EmployeeDTO{
			ID:             string(e.ID),
			Name:           e.Name,
			Active:         e.Active,
			LocationID:     e.LocationID,
			AreaID:         e.AreaID,
			RFFPointID:     e.RFFPointID,
			DesignationID:  e.DesignationID,
			HasFingerprint: e.BiometricEnrolled,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, EmployeeDTO{
		ID:             emp.ID,
		Name:           emp.Name,
		Active:         emp.Active,
		LocationID:     emp.LocationID,
		AreaID:         emp.AreaID,
		RFFPointID:     emp.RFFPointID,
		DesignationID:  emp.DesignationID,
		HasFingerprint: len(emp.BiometricTemplate) > 0,
	})
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	rec := sqlite.EmployeeRecord{
		ID:                orNewID(req.ID),
		Name:              req.Name,
		Active:            active,
		LocationID:        req.LocationID,
		AreaID:            req.AreaID,
		RFFPointID:        req.RFFPointID,
		DesignationID:     req.DesignationID,
		BiometricTemplate: req.BiometricTemplate,
	}
	if err := h.Store.SaveEmployee(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, EmployeeDTO{
		ID:             rec.ID,
		Name:           rec.Name,
		Active:         rec.Active,
		LocationID:     rec.LocationID,
		AreaID:         rec.AreaID,
		RFFPointID:     rec.RFFPointID,
		DesignationID:  rec.DesignationID,
		HasFingerprint: len(rec.BiometricTemplate) > 0,
	})
}

// =============================================================================
// POLICIES
// =============================================================================

// ListPolicies returns all attendance policies.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	dtos := make([]PolicyDTO, len(records))
	for i, p := range records {
		dtos[i] = policyDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPolicy returns a single policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Store.GetPolicy(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get policy", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Policy not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, policyDTO(*p))
}

// CreatePolicy creates a new attendance policy.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	rec := sqlite.PolicyRecord{
		ID:              orNewID(req.ID),
		Name:            req.Name,
		WorkingDays:     req.WorkingDays,
		OffDays:         req.OffDays,
		WorkStart:       req.WorkStart,
		WorkEnd:         req.WorkEnd,
		GraceMinutes:    req.GraceMinutes,
		OvertimeMinutes: req.OvertimeMinutes,
	}

	// Reject records the engine could never interpret.
	if _, err := rec.Snapshot(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid policy definition", err)
		return
	}

	if err := h.Store.SavePolicy(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save policy", err)
		return
	}
	writeJSON(w, http.StatusCreated, policyDTO(rec))
}

func policyDTO(p sqlite.PolicyRecord) PolicyDTO {
	return PolicyDTO{
		ID:              p.ID,
		Name:            p.Name,
		WorkingDays:     p.WorkingDays,
		OffDays:         p.OffDays,
		WorkStart:       p.WorkStart,
		WorkEnd:         p.WorkEnd,
		GraceMinutes:    p.GraceMinutes,
		OvertimeMinutes: p.OvertimeMinutes,
	}
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// CreateAssignment links an employee to a policy for an interval.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	var end *time.Time
	if req.EndDate != nil {
		t, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date", err)
			return
		}
		if t.Before(start) {
			writeError(w, http.StatusBadRequest, "end_date precedes start_date", nil)
			return
		}
		end = &t
	}

	emp, err := h.Store.GetEmployee(r.Context(), req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	pol, err := h.Store.GetPolicy(r.Context(), req.PolicyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up policy", err)
		return
	}
	if pol == nil {
		writeError(w, http.StatusNotFound, "Policy not found", nil)
		return
	}

	rec := sqlite.AssignmentRecord{
		ID:         orNewID(req.ID),
		EmployeeID: req.EmployeeID,
		PolicyID:   req.PolicyID,
		StartDate:  start,
		EndDate:    end,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.Store.SaveAssignment(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, assignmentDTO(rec))
}

// ListAssignments returns one employee's assignment history.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	records, err := h.Store.ListAssignments(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assignments", err)
		return
	}

	dtos := make([]AssignmentDTO, len(records))
	for i, a := range records {
		dtos[i] = assignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func assignmentDTO(a sqlite.AssignmentRecord) AssignmentDTO {
	dto := AssignmentDTO{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		PolicyID:   a.PolicyID,
		StartDate:  a.StartDate.Format("2006-01-02"),
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	if a.EndDate != nil {
		d := a.EndDate.Format("2006-01-02")
		dto.EndDate = &d
	}
	return dto
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// ListHolidays returns all stored holidays (recurring ones unexpanded).
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday creates a scoped holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := report.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	scope := report.HolidayScope(req.Scope)
	switch scope {
	case report.ScopeLocation:
		if req.LocationID == "" {
			writeError(w, http.StatusBadRequest, "location scope requires location_id", nil)
			return
		}
	case report.ScopeArea:
		if req.AreaID == "" {
			writeError(w, http.StatusBadRequest, "area scope requires area_id", nil)
			return
		}
	case report.ScopeIndividual:
		if len(req.Employees) == 0 {
			writeError(w, http.StatusBadRequest, "individual scope requires employees", nil)
			return
		}
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	hol := report.Holiday{
		ID:         orNewID(req.ID),
		Scope:      scope,
		LocationID: req.LocationID,
		AreaID:     req.AreaID,
		Date:       date,
		Name:       req.Name,
		Recurring:  req.Recurring,
		Active:     active,
	}
	if err := h.Store.SaveHoliday(r.Context(), hol, req.Employees); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(hol))
}

// DeleteHoliday removes a holiday and its employee links.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SeedDefaultHolidays loads the US federal holiday set for the given
// year (?year=2026, default current year) as recurring global holidays.
func (h *Handler) SeedDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := time.Parse("2006", y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed.Year()
	}

	federal := []*cal.Holiday{
		us.NewYear,
		us.MlkDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	}

	created := make([]HolidayDTO, 0, len(federal))
	for _, fh := range federal {
		actual, _ := fh.Calc(year)
		if actual.IsZero() {
			continue
		}
		hol := report.Holiday{
			ID:        uuid.NewString(),
			Scope:     report.ScopeGlobal,
			Date:      report.DateOf(actual),
			Name:      fh.Name,
			Recurring: true,
			Active:    true,
		}
		if err := h.Store.SaveHoliday(r.Context(), hol, nil); err != nil {
			writeError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to save %s", fh.Name), err)
			return
		}
		created = append(created, toHolidayDTO(hol))
	}

	writeJSON(w, http.StatusCreated, created)
}

// =============================================================================
// ATTENDANCE PUNCHES
// =============================================================================

// PunchIn records a clock-in. A repeated punch-in overwrites the same
// calendar day's row.
func (h *Handler) PunchIn(w http.ResponseWriter, r *http.Request) {
	var req PunchRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid timestamp", err)
		return
	}

	emp, err := h.Store.GetEmployee(r.Context(), req.EmployeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	rec := sqlite.AttendanceRecord{
		ID:         uuid.NewString(),
		EmployeeID: req.EmployeeID,
		Day:        ts.UTC(),
		ClockIn:    ts.UTC(),
		Manual:     req.Manual,
		InLocation: req.Location,
		InRemark:   req.Remark,
		PolicyID:   req.PolicyID,
	}
	if err := h.Store.SaveAttendance(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save punch", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"status":      "recorded",
		"employee_id": req.EmployeeID,
		"day":         ts.UTC().Format("2006-01-02"),
	})
}

// PunchOut sets the clock-out on the same calendar day's row. Without a
// prior punch-in the punch is rejected.
func (h *Handler) PunchOut(w http.ResponseWriter, r *http.Request) {
	var req PunchRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid timestamp", err)
		return
	}

	existing, err := h.Store.GetAttendance(r.Context(), req.EmployeeID, ts.UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up punch", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusBadRequest, "No punch-in recorded for this day", nil)
		return
	}

	out := ts.UTC()
	existing.ClockOut = &out
	existing.OutLocation = req.Location
	existing.OutRemark = req.Remark
	if err := h.Store.SaveAttendance(r.Context(), *existing); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save punch", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "recorded",
		"employee_id": req.EmployeeID,
		"day":         out.Format("2006-01-02"),
	})
}

// =============================================================================
// ADMIN
// =============================================================================

// ResetDatabase wipes all data. Dev only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
