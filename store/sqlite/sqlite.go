/*
Package sqlite provides the SQLite-backed storage for the attendance engine.

PURPOSE:
  Persists employees, policies, policy assignments, attendance rows, and
  holidays, and exposes the read queries the report engine consumes. The
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  report.HolidaySource: The four scope queries for holiday resolution

KEY TABLES:
  org_units:           Locations, areas, collection points, designations
  employees:           Employee records (biometric template stays server-side)
  policies:            Attendance policy definitions
  policy_assignments:  Time-bounded employee-to-policy links
  attendance_records:  One row per (employee, day), upserted in place
  holidays:            Scoped holiday definitions
  holiday_employees:   Individual-scope applicability join

UPSERT-IN-PLACE:
  attendance_records carries UNIQUE(employee_id, day). Repeated punches
  overwrite the existing row; the engine never sees two rows for the same
  employee and day.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The report engine only reads; the
  collaborator endpoints write.

WAL MODE:
  SQLite is opened with WAL for better read concurrency.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - report/holiday.go: HolidaySource interface definition
  - api package: The handlers driving these queries
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/attendance-engine/report"
)

// Store implements all storage concerns using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Organizational reference units (locations, areas, rff points, designations)
	CREATE TABLE IF NOT EXISTS org_units (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_org_units_kind ON org_units(kind);

	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		location_id TEXT,
		area_id TEXT,
		rff_point_id TEXT,
		designation_id TEXT,
		biometric_template BLOB,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_location ON employees(location_id);
	CREATE INDEX IF NOT EXISTS idx_employees_area ON employees(area_id);

	-- Attendance policies
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		working_days TEXT NOT NULL,      -- JSON array of weekday names
		off_days TEXT NOT NULL,          -- JSON array of weekday names
		work_start TEXT NOT NULL,        -- HH:MM
		work_end TEXT NOT NULL,          -- HH:MM
		grace_minutes INTEGER NOT NULL DEFAULT 0,
		overtime_minutes INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Policy assignments (interval overlap is NOT enforced here; the
	-- resolver applies its stated ordering contract instead)
	CREATE TABLE IF NOT EXISTS policy_assignments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		policy_id TEXT NOT NULL,
		start_date TEXT NOT NULL,        -- YYYY-MM-DD
		end_date TEXT,                   -- NULL = open-ended
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_employee
		ON policy_assignments(employee_id, start_date);

	-- Attendance rows: one per (employee, day), overwritten in place
	CREATE TABLE IF NOT EXISTS attendance_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		day TEXT NOT NULL,               -- YYYY-MM-DD
		clock_in TEXT NOT NULL,
		clock_out TEXT,
		manual BOOLEAN NOT NULL DEFAULT FALSE,
		in_location TEXT,
		out_location TEXT,
		in_remark TEXT,
		out_remark TEXT,
		policy_id TEXT,                  -- informational snapshot at creation
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(employee_id, day)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_employee_day
		ON attendance_records(employee_id, day);
	CREATE INDEX IF NOT EXISTS idx_attendance_day
		ON attendance_records(day);

	-- Holidays
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		scope TEXT NOT NULL,             -- global | location | area | individual
		location_id TEXT,
		area_id TEXT,
		date TEXT NOT NULL,              -- YYYY-MM-DD
		name TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_scope_date ON holidays(scope, date);

	-- Individual-scope applicability join
	CREATE TABLE IF NOT EXISTS holiday_employees (
		holiday_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		PRIMARY KEY (holiday_id, employee_id)
	);

	CREATE INDEX IF NOT EXISTS idx_holiday_employees_employee
		ON holiday_employees(employee_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ORG UNITS
// =============================================================================

type OrgUnitKind string

const (
	UnitLocation    OrgUnitKind = "location"
	UnitArea        OrgUnitKind = "area"
	UnitRFFPoint    OrgUnitKind = "rff_point"
	UnitDesignation OrgUnitKind = "designation"
)

type OrgUnit struct {
	ID   string
	Kind OrgUnitKind
	Name string
}

// SaveOrgUnit inserts or renames a reference unit.
func (s *Store) SaveOrgUnit(ctx context.Context, u OrgUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO org_units (id, kind, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`
	_, err := s.db.ExecContext(ctx, query, u.ID, u.Kind, u.Name,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// ListOrgUnits returns all units of a kind, ordered by name.
func (s *Store) ListOrgUnits(ctx context.Context, kind OrgUnitKind) ([]OrgUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, kind, name FROM org_units WHERE kind = ? ORDER BY name", kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []OrgUnit
	for rows.Next() {
		var u OrgUnit
		if err := rows.Scan(&u.ID, &u.Kind, &u.Name); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeRecord is a stored employee. BiometricTemplate never leaves the
// store in report output; only its presence does.
type EmployeeRecord struct {
	ID                string
	Name              string
	Active            bool
	LocationID        string
	AreaID            string
	RFFPointID        string
	DesignationID     string
	BiometricTemplate []byte
	CreatedAt         time.Time
}

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, e EmployeeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees
		(id, name, active, location_id, area_id, rff_point_id, designation_id, biometric_template, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active,
			location_id = excluded.location_id,
			area_id = excluded.area_id,
			rff_point_id = excluded.rff_point_id,
			designation_id = excluded.designation_id,
			biometric_template = excluded.biometric_template
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Name, e.Active,
		nullString(e.LocationID), nullString(e.AreaID),
		nullString(e.RFFPointID), nullString(e.DesignationID),
		e.BiometricTemplate,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// EmployeeFilter scopes the employee set before the engine runs.
type EmployeeFilter struct {
	UserID        string
	LocationID    string
	AreaID        string
	RFFPointID    string
	DesignationID string

	// HasFingerprint filters by biometric enrollment when non-nil.
	HasFingerprint *bool
}

// ListEmployees returns the denormalized employee projection the report
// consumes, with org unit names joined in.
func (s *Store) ListEmployees(ctx context.Context, f EmployeeFilter) ([]report.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT e.id, e.name, e.active,
		       COALESCE(e.location_id, ''), COALESCE(loc.name, ''),
		       COALESCE(e.area_id, ''), COALESCE(area.name, ''),
		       COALESCE(e.rff_point_id, ''), COALESCE(rff.name, ''),
		       COALESCE(e.designation_id, ''), COALESCE(des.name, ''),
		       e.biometric_template IS NOT NULL
		FROM employees e
		LEFT JOIN org_units loc ON loc.id = e.location_id
		LEFT JOIN org_units area ON area.id = e.area_id
		LEFT JOIN org_units rff ON rff.id = e.rff_point_id
		LEFT JOIN org_units des ON des.id = e.designation_id
		WHERE 1=1
	`
	var args []any
	if f.UserID != "" {
		query += " AND e.id = ?"
		args = append(args, f.UserID)
	}
	if f.LocationID != "" {
		query += " AND e.location_id = ?"
		args = append(args, f.LocationID)
	}
	if f.AreaID != "" {
		query += " AND e.area_id = ?"
		args = append(args, f.AreaID)
	}
	if f.RFFPointID != "" {
		query += " AND e.rff_point_id = ?"
		args = append(args, f.RFFPointID)
	}
	if f.DesignationID != "" {
		query += " AND e.designation_id = ?"
		args = append(args, f.DesignationID)
	}
	if f.HasFingerprint != nil {
		if *f.HasFingerprint {
			query += " AND e.biometric_template IS NOT NULL"
		} else {
			query += " AND e.biometric_template IS NULL"
		}
	}
	query += " ORDER BY e.name, e.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []report.Employee
	for rows.Next() {
		var e report.Employee
		var id string
		if err := rows.Scan(
			&id, &e.Name, &e.Active,
			&e.LocationID, &e.LocationName,
			&e.AreaID, &e.AreaName,
			&e.RFFPointID, &e.RFFPointName,
			&e.DesignationID, &e.DesignationName,
			&e.BiometricEnrolled,
		); err != nil {
			return nil, err
		}
		e.ID = report.EmployeeID(id)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// GetEmployee retrieves an employee record by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*EmployeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e EmployeeRecord
	var locID, areaID, rffID, desID sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, active, location_id, area_id, rff_point_id, designation_id,
		        biometric_template, created_at
		 FROM employees WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &e.Active, &locID, &areaID, &rffID, &desID,
		&e.BiometricTemplate, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.LocationID = locID.String
	e.AreaID = areaID.String
	e.RFFPointID = rffID.String
	e.DesignationID = desID.String
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

// =============================================================================
// POLICIES
// =============================================================================

// PolicyRecord is a stored attendance policy.
type PolicyRecord struct {
	ID              string
	Name            string
	WorkingDays     []string
	OffDays         []string
	WorkStart       string // HH:MM
	WorkEnd         string // HH:MM
	GraceMinutes    int
	OvertimeMinutes int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Snapshot converts the record into the engine's policy snapshot.
func (p PolicyRecord) Snapshot() (report.PolicySnapshot, error) {
	days, err := report.ParseWeekdays(p.WorkingDays)
	if err != nil {
		return report.PolicySnapshot{}, err
	}
	start, err := report.ParseClockTime(p.WorkStart)
	if err != nil {
		return report.PolicySnapshot{}, err
	}
	end, err := report.ParseClockTime(p.WorkEnd)
	if err != nil {
		return report.PolicySnapshot{}, err
	}
	return report.PolicySnapshot{
		PolicyID:        report.PolicyID(p.ID),
		WorkingDays:     days,
		WorkStart:       start,
		WorkEnd:         end,
		GraceMinutes:    p.GraceMinutes,
		OvertimeMinutes: p.OvertimeMinutes,
	}, nil
}

// SavePolicy inserts or updates a policy.
func (s *Store) SavePolicy(ctx context.Context, p PolicyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	workingJSON, _ := json.Marshal(p.WorkingDays)
	offJSON, _ := json.Marshal(p.OffDays)

	query := `
		INSERT INTO policies
		(id, name, working_days, off_days, work_start, work_end, grace_minutes, overtime_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			working_days = excluded.working_days,
			off_days = excluded.off_days,
			work_start = excluded.work_start,
			work_end = excluded.work_end,
			grace_minutes = excluded.grace_minutes,
			overtime_minutes = excluded.overtime_minutes,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, string(workingJSON), string(offJSON),
		p.WorkStart, p.WorkEnd, p.GraceMinutes, p.OvertimeMinutes, now, now,
	)
	return err
}

// GetPolicy retrieves a policy by ID.
func (s *Store) GetPolicy(ctx context.Context, id string) (*PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getPolicyLocked(ctx, id)
}

func (s *Store) getPolicyLocked(ctx context.Context, id string) (*PolicyRecord, error) {
	rows, err := s.queryPolicies(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListPolicies returns all policies.
func (s *Store) ListPolicies(ctx context.Context) ([]PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPolicies(ctx, "ORDER BY name")
}

func (s *Store) queryPolicies(ctx context.Context, clause string, args ...any) ([]PolicyRecord, error) {
	query := `
		SELECT id, name, working_days, off_days, work_start, work_end,
		       grace_minutes, overtime_minutes, created_at, updated_at
		FROM policies ` + clause

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []PolicyRecord
	for rows.Next() {
		var p PolicyRecord
		var workingJSON, offJSON, createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &workingJSON, &offJSON,
			&p.WorkStart, &p.WorkEnd, &p.GraceMinutes, &p.OvertimeMinutes,
			&createdAt, &updatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(workingJSON), &p.WorkingDays)
		json.Unmarshal([]byte(offJSON), &p.OffDays)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// =============================================================================
// POLICY ASSIGNMENTS
// =============================================================================

// AssignmentRecord is a stored employee-to-policy link.
type AssignmentRecord struct {
	ID         string
	EmployeeID string
	PolicyID   string
	StartDate  time.Time
	EndDate    *time.Time
	CreatedAt  time.Time
}

// SaveAssignment inserts or updates an assignment.
func (s *Store) SaveAssignment(ctx context.Context, a AssignmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var endDate *string
	if a.EndDate != nil {
		d := a.EndDate.Format("2006-01-02")
		endDate = &d
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO policy_assignments (id, employee_id, policy_id, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.EmployeeID, a.PolicyID,
		a.StartDate.Format("2006-01-02"), endDate,
		createdAt.Format(time.RFC3339),
	)
	return err
}

// ListAssignments returns all assignments for one employee.
func (s *Store) ListAssignments(ctx context.Context, employeeID string) ([]AssignmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, employee_id, policy_id, start_date, end_date, created_at
		FROM policy_assignments
		WHERE employee_id = ?
		ORDER BY start_date, created_at
	`
	rows, err := s.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []AssignmentRecord
	for rows.Next() {
		var a AssignmentRecord
		var startDate, createdAt string
		var endDate sql.NullString
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.PolicyID, &startDate, &endDate, &createdAt); err != nil {
			return nil, err
		}
		a.StartDate, _ = time.Parse("2006-01-02", startDate)
		if endDate.Valid {
			t, _ := time.Parse("2006-01-02", endDate.String)
			a.EndDate = &t
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, a)
	}
	return records, rows.Err()
}

// AssignmentsInWindow returns, for the given employees, every assignment
// whose interval intersects the window, with policy snapshots attached.
// Assignments referencing a missing or malformed policy are skipped.
func (s *Store) AssignmentsInWindow(ctx context.Context, employeeIDs []report.EmployeeID, window report.Period) ([]report.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(employeeIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, employee_id, policy_id, start_date, end_date, created_at
		FROM policy_assignments
		WHERE employee_id IN (%s)
		  AND start_date <= ?
		  AND (end_date IS NULL OR end_date >= ?)
		ORDER BY start_date, created_at
	`, placeholders(len(employeeIDs)))

	args := make([]any, 0, len(employeeIDs)+2)
	for _, id := range employeeIDs {
		args = append(args, string(id))
	}
	args = append(args, window.End.String(), window.Start.String())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type rawAssignment struct {
		id, employeeID, policyID, startDate, createdAt string
		endDate                                        sql.NullString
	}
	var raw []rawAssignment
	for rows.Next() {
		var r rawAssignment
		if err := rows.Scan(&r.id, &r.employeeID, &r.policyID, &r.startDate, &r.endDate, &r.createdAt); err != nil {
			return nil, err
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	snapshots := make(map[string]*report.PolicySnapshot)
	var assignments []report.Assignment
	for _, r := range raw {
		snap, seen := snapshots[r.policyID]
		if !seen {
			record, err := s.getPolicyLocked(ctx, r.policyID)
			if err != nil {
				return nil, err
			}
			if record != nil {
				if built, err := record.Snapshot(); err == nil {
					snap = &built
				}
			}
			snapshots[r.policyID] = snap
		}
		if snap == nil {
			continue
		}

		a := report.Assignment{
			ID:         r.id,
			EmployeeID: report.EmployeeID(r.employeeID),
			PolicyID:   report.PolicyID(r.policyID),
			Policy:     *snap,
		}
		a.StartDate, _ = report.ParseDate(r.startDate)
		if r.endDate.Valid {
			if d, err := report.ParseDate(r.endDate.String); err == nil {
				a.EndDate = &d
			}
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, r.createdAt)
		assignments = append(assignments, a)
	}
	return assignments, nil
}

// =============================================================================
// ATTENDANCE RECORDS
// =============================================================================

// AttendanceRecord is one stored punch row.
type AttendanceRecord struct {
	ID          string
	EmployeeID  string
	Day         time.Time
	ClockIn     time.Time
	ClockOut    *time.Time
	Manual      bool
	InLocation  string
	OutLocation string
	InRemark    string
	OutRemark   string
	PolicyID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SaveAttendance upserts a punch row. Repeated punches for the same
// (employee, day) overwrite the existing row; exactly one survives.
func (s *Store) SaveAttendance(ctx context.Context, r AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var clockOut *string
	if r.ClockOut != nil {
		t := r.ClockOut.UTC().Format(time.RFC3339)
		clockOut = &t
	}

	query := `
		INSERT INTO attendance_records
		(id, employee_id, day, clock_in, clock_out, manual, in_location, out_location,
		 in_remark, out_remark, policy_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, day) DO UPDATE SET
			clock_in = excluded.clock_in,
			clock_out = excluded.clock_out,
			manual = excluded.manual,
			in_location = excluded.in_location,
			out_location = excluded.out_location,
			in_remark = excluded.in_remark,
			out_remark = excluded.out_remark,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.EmployeeID, r.Day.Format("2006-01-02"),
		r.ClockIn.UTC().Format(time.RFC3339), clockOut, r.Manual,
		r.InLocation, r.OutLocation, r.InRemark, r.OutRemark,
		nullString(r.PolicyID), now, now,
	)
	return err
}

// GetAttendance retrieves the row for (employee, day), if any.
func (s *Store) GetAttendance(ctx context.Context, employeeID string, day time.Time) (*AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := attendanceSelect + " WHERE employee_id = ? AND day = ?"
	rows, err := s.db.QueryContext(ctx, query, employeeID, day.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanAttendance(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// AttendanceInWindow returns the raw rows the aggregator consumes.
func (s *Store) AttendanceInWindow(ctx context.Context, employeeIDs []report.EmployeeID, window report.Period) ([]report.AttendanceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(employeeIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		attendanceSelect+" WHERE employee_id IN (%s) AND day >= ? AND day <= ? ORDER BY day, employee_id",
		placeholders(len(employeeIDs)))

	args := make([]any, 0, len(employeeIDs)+2)
	for _, id := range employeeIDs {
		args = append(args, string(id))
	}
	args = append(args, window.Start.String(), window.End.String())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanAttendance(rows)
	if err != nil {
		return nil, err
	}

	out := make([]report.AttendanceRow, 0, len(records))
	for _, r := range records {
		out = append(out, report.AttendanceRow{
			EmployeeID:       report.EmployeeID(r.EmployeeID),
			ClockIn:          r.ClockIn,
			ClockOut:         r.ClockOut,
			Manual:           r.Manual,
			ClockInLocation:  r.InLocation,
			ClockOutLocation: r.OutLocation,
			ClockInRemark:    r.InRemark,
			ClockOutRemark:   r.OutRemark,
			PolicyID:         report.PolicyID(r.PolicyID),
		})
	}
	return out, nil
}

const attendanceSelect = `
	SELECT id, employee_id, day, clock_in, clock_out, manual,
	       COALESCE(in_location, ''), COALESCE(out_location, ''),
	       COALESCE(in_remark, ''), COALESCE(out_remark, ''),
	       COALESCE(policy_id, ''), created_at, updated_at
	FROM attendance_records`

func scanAttendance(rows *sql.Rows) ([]AttendanceRecord, error) {
	var records []AttendanceRecord
	for rows.Next() {
		var r AttendanceRecord
		var day, clockIn, createdAt, updatedAt string
		var clockOut sql.NullString
		if err := rows.Scan(&r.ID, &r.EmployeeID, &day, &clockIn, &clockOut, &r.Manual,
			&r.InLocation, &r.OutLocation, &r.InRemark, &r.OutRemark,
			&r.PolicyID, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		r.Day, _ = time.Parse("2006-01-02", day)
		r.ClockIn, _ = time.Parse(time.RFC3339, clockIn)
		if clockOut.Valid {
			t, _ := time.Parse(time.RFC3339, clockOut.String)
			r.ClockOut = &t
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// =============================================================================
// HOLIDAYS (implements report.HolidaySource)
// =============================================================================

// SaveHoliday inserts or updates a holiday. For individual-scope
// holidays, employeeIDs lists who it applies to.
func (s *Store) SaveHoliday(ctx context.Context, h report.Holiday, employeeIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, scope, location_id, area_id, date, name, recurring, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			recurring = excluded.recurring,
			active = excluded.active
	`
	_, err := s.db.ExecContext(ctx, query,
		h.ID, h.Scope, nullString(h.LocationID), nullString(h.AreaID),
		h.Date.String(), h.Name, h.Recurring, h.Active,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	for _, empID := range employeeIDs {
		_, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO holiday_employees (holiday_id, employee_id) VALUES (?, ?)",
			h.ID, empID)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteHoliday removes a holiday and its applicability links.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM holiday_employees WHERE holiday_id = ?", id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	return err
}

// ListHolidays returns all holidays (admin view).
func (s *Store) ListHolidays(ctx context.Context) ([]report.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, holidaySelect+" ORDER BY date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHolidays(rows)
}

// GlobalHolidays returns active global holidays inside the window.
func (s *Store) GlobalHolidays(ctx context.Context, window report.Period) ([]report.Holiday, error) {
	return s.holidaysByScope(ctx, window,
		"scope = ?", string(report.ScopeGlobal))
}

// LocationHolidays returns active holidays for one location inside the window.
func (s *Store) LocationHolidays(ctx context.Context, locationID string, window report.Period) ([]report.Holiday, error) {
	return s.holidaysByScope(ctx, window,
		"scope = ? AND location_id = ?", string(report.ScopeLocation), locationID)
}

// AreaHolidays returns active holidays for one area inside the window.
func (s *Store) AreaHolidays(ctx context.Context, areaID string, window report.Period) ([]report.Holiday, error) {
	return s.holidaysByScope(ctx, window,
		"scope = ? AND area_id = ?", string(report.ScopeArea), areaID)
}

// EmployeeHolidays returns active individually-assigned holidays for one
// employee inside the window, via the applicability join.
func (s *Store) EmployeeHolidays(ctx context.Context, employeeID report.EmployeeID, window report.Period) ([]report.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT h.id, h.scope, COALESCE(h.location_id, ''), COALESCE(h.area_id, ''),
		       h.date, h.name, h.recurring, h.active
		FROM holidays h
		JOIN holiday_employees he ON he.holiday_id = h.id
		WHERE h.scope = ? AND he.employee_id = ? AND h.active = TRUE
		ORDER BY h.date
	`
	rows, err := s.db.QueryContext(ctx, query, string(report.ScopeIndividual), string(employeeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays, err := scanHolidays(rows)
	if err != nil {
		return nil, err
	}
	return expandRecurring(holidays, window), nil
}

func (s *Store) holidaysByScope(ctx context.Context, window report.Period, clause string, args ...any) ([]report.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := holidaySelect + " WHERE " + clause + " AND active = TRUE ORDER BY date"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays, err := scanHolidays(rows)
	if err != nil {
		return nil, err
	}
	return expandRecurring(holidays, window), nil
}

const holidaySelect = `
	SELECT id, scope, COALESCE(location_id, ''), COALESCE(area_id, ''),
	       date, name, recurring, active
	FROM holidays`

func scanHolidays(rows *sql.Rows) ([]report.Holiday, error) {
	var holidays []report.Holiday
	for rows.Next() {
		var h report.Holiday
		var scope, dateStr string
		if err := rows.Scan(&h.ID, &scope, &h.LocationID, &h.AreaID,
			&dateStr, &h.Name, &h.Recurring, &h.Active); err != nil {
			return nil, err
		}
		h.Scope = report.HolidayScope(scope)
		h.Date, _ = report.ParseDate(dateStr)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// expandRecurring projects recurring holidays onto every in-window year
// and drops dates outside the window. Non-recurring holidays pass through
// the window check unchanged.
func expandRecurring(holidays []report.Holiday, window report.Period) []report.Holiday {
	var out []report.Holiday
	for _, h := range holidays {
		if !h.Recurring {
			if window.Contains(h.Date) {
				out = append(out, h)
			}
			continue
		}
		for year := window.Start.Year(); year <= window.End.Year(); year++ {
			observed := h
			observed.Date = report.NewDate(year, h.Date.Time.Month(), h.Date.Time.Day())
			// time.Date normalizes Feb 29 to Mar 1 in non-leap years;
			// such a holiday has no observance that year.
			if observed.Date.Time.Month() != h.Date.Time.Month() ||
				observed.Date.Time.Day() != h.Date.Time.Day() {
				continue
			}
			if window.Contains(observed.Date) {
				out = append(out, observed)
			}
		}
	}
	return out
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"attendance_records", "policy_assignments", "holiday_employees",
		"holidays", "policies", "employees", "org_units",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
