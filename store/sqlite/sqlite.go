/*
Package sqlite provides the SQLite-backed implementation of leave.Store.

PURPOSE:
  Persists every engine table in SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employees           Directory rows (read by the engine, written by admin)
  leave_policies      Policy table keyed (leave_type, employment_type)
  holidays            Configured non-working days
  leave_balances      One row per (employee, leave_type, year), versioned
  leave_applications  Request rows; never hard-deleted
  comp_off_requests   Comp-off credit requests
  wfh_requests        Work-from-home requests
  leave_audit_log     Append-only transition log
  rollover_runs       Year-end rollover bookkeeping for the scheduler

OPTIMISTIC CONCURRENCY:
  leave_balances carries a version column. SaveBalance updates WHERE
  version = ?; zero rows affected means the row changed underneath and
  the call returns leave.ErrConflict. Version 0 inserts; a duplicate
  insert also surfaces as ErrConflict so the caller's retry re-reads.

DECIMALS AND DATES:
  Day quantities are stored as decimal TEXT (never REAL - balances must
  round-trip exactly). Dates are stored as ISO "2006-01-02" TEXT,
  timestamps as RFC3339.

WAL MODE:
  The database is opened with WAL for better read concurrency and crash
  recovery. Schema is auto-migrated on New(); production deployments
  would use versioned migrations instead.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/leave-engine/leave"
)

// Store implements leave.Store on SQLite.
type Store struct {
	db *sql.DB
}

var _ leave.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Reset clears all data (for demo scenarios and tests).
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{
		"leave_audit_log", "rollover_runs", "leave_applications",
		"comp_off_requests", "wfh_requests", "leave_balances",
		"holidays", "leave_policies", "employees",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		employment_type TEXT NOT NULL,
		role TEXT NOT NULL,
		join_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_policies (
		leave_type TEXT NOT NULL,
		employment_type TEXT NOT NULL,
		monthly_accrual TEXT NOT NULL,
		max_carry_forward INTEGER NOT NULL DEFAULT 0,
		advance_notice_days INTEGER NOT NULL DEFAULT 0,
		same_day_allowed INTEGER NOT NULL DEFAULT 0,
		max_consecutive_days INTEGER,
		requires_documents INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (leave_type, employment_type)
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		optional INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_holidays_date ON holidays(date);

	CREATE TABLE IF NOT EXISTS leave_balances (
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		year INTEGER NOT NULL,
		opening TEXT NOT NULL,
		accrued TEXT NOT NULL,
		used TEXT NOT NULL,
		carried_forward TEXT NOT NULL,
		lop_days TEXT NOT NULL,
		version INTEGER NOT NULL,
		PRIMARY KEY (employee_id, leave_type, year)
	);

	CREATE TABLE IF NOT EXISTS leave_applications (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_days TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL,
		is_emergency INTEGER NOT NULL DEFAULT 0,
		lop_days TEXT NOT NULL DEFAULT '0',
		applied_at TEXT NOT NULL,
		approved_by TEXT,
		approved_at TEXT,
		rejected_reason TEXT,
		cancelled_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_applications_employee
		ON leave_applications(employee_id, status);
	CREATE INDEX IF NOT EXISTS idx_applications_status
		ON leave_applications(status);

	CREATE TABLE IF NOT EXISTS comp_off_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		worked_date TEXT NOT NULL,
		comp_off_date TEXT,
		reason TEXT,
		status TEXT NOT NULL,
		applied_at TEXT NOT NULL,
		approved_by TEXT,
		approved_at TEXT,
		rejected_reason TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_compoff_employee ON comp_off_requests(employee_id);

	CREATE TABLE IF NOT EXISTS wfh_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_days TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL,
		applied_at TEXT NOT NULL,
		approved_by TEXT,
		approved_at TEXT,
		rejected_reason TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_wfh_employee ON wfh_requests(employee_id);

	-- Append-only: no UPDATE or DELETE statements exist for this table.
	CREATE TABLE IF NOT EXISTS leave_audit_log (
		id TEXT PRIMARY KEY,
		application_id TEXT NOT NULL,
		action TEXT NOT NULL,
		performed_by TEXT NOT NULL,
		old_status TEXT,
		new_status TEXT NOT NULL,
		comments TEXT,
		timestamp TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_application ON leave_audit_log(application_id);

	CREATE TABLE IF NOT EXISTS rollover_runs (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		from_year INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_rollover_unique
		ON rollover_runs(employee_id, leave_type, from_year)
		WHERE status = 'completed';
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func fmtDate(d leave.Date) string { return d.String() }

func parseDate(s string) (leave.Date, error) {
	if s == "" {
		return leave.Date{}, nil
	}
	return leave.ParseDate(s)
}

func fmtDatePtr(d *leave.Date) any {
	if d == nil {
		return nil
	}
	return fmtDate(*d)
}

func parseDatePtr(s sql.NullString) (*leave.Date, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := parseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee upserts a directory row. The engine reads the directory;
// this write path exists for the admin API and seeding.
func (s *Store) SaveEmployee(ctx context.Context, e leave.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, employment_type, role, join_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			employment_type = excluded.employment_type,
			role = excluded.role,
			join_date = excluded.join_date`,
		e.ID, e.Name, e.Email, string(e.EmploymentType), string(e.Role),
		fmtDate(e.JoinDate), fmtTime(e.CreatedAt))
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (leave.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, employment_type, role, join_date, created_at
		FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.Employee{}, &leave.NotFoundError{Kind: "employee", Key: id}
	}
	return e, err
}

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, employment_type, role, join_date, created_at
		FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(r scanner) (leave.Employee, error) {
	var e leave.Employee
	var email sql.NullString
	var et, role, joinDate, createdAt string
	if err := r.Scan(&e.ID, &e.Name, &email, &et, &role, &joinDate, &createdAt); err != nil {
		return leave.Employee{}, err
	}
	e.Email = email.String
	e.EmploymentType = leave.EmploymentType(et)
	e.Role = leave.Role(role)
	jd, err := parseDate(joinDate)
	if err != nil {
		return leave.Employee{}, fmt.Errorf("bad join_date for %s: %w", e.ID, err)
	}
	e.JoinDate = jd
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

// =============================================================================
// POLICIES
// =============================================================================

func (s *Store) GetPolicy(ctx context.Context, lt leave.LeaveType, et leave.EmploymentType) (leave.Policy, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT leave_type, employment_type, monthly_accrual, max_carry_forward,
		       advance_notice_days, same_day_allowed, max_consecutive_days, requires_documents
		FROM leave_policies WHERE leave_type = ? AND employment_type = ?`,
		string(lt), string(et))
	p, err := scanPolicy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.Policy{}, &leave.NotFoundError{Kind: "policy", Key: string(lt) + "/" + string(et)}
	}
	return p, err
}

func (s *Store) ListPolicies(ctx context.Context) ([]leave.Policy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT leave_type, employment_type, monthly_accrual, max_carry_forward,
		       advance_notice_days, same_day_allowed, max_consecutive_days, requires_documents
		FROM leave_policies ORDER BY leave_type, employment_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SavePolicy(ctx context.Context, p leave.Policy) error {
	var maxConsecutive any
	if p.MaxConsecutiveDays != nil {
		maxConsecutive = *p.MaxConsecutiveDays
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_policies (leave_type, employment_type, monthly_accrual,
			max_carry_forward, advance_notice_days, same_day_allowed,
			max_consecutive_days, requires_documents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(leave_type, employment_type) DO UPDATE SET
			monthly_accrual = excluded.monthly_accrual,
			max_carry_forward = excluded.max_carry_forward,
			advance_notice_days = excluded.advance_notice_days,
			same_day_allowed = excluded.same_day_allowed,
			max_consecutive_days = excluded.max_consecutive_days,
			requires_documents = excluded.requires_documents`,
		string(p.LeaveType), string(p.EmploymentType), p.MonthlyAccrual.String(),
		p.MaxCarryForward, p.AdvanceNoticeDays, boolInt(p.SameDayAllowed),
		maxConsecutive, boolInt(p.RequiresDocuments))
	return err
}

func scanPolicy(r scanner) (leave.Policy, error) {
	var p leave.Policy
	var lt, et, accrual string
	var sameDay, requiresDocs int
	var maxConsecutive sql.NullInt64
	if err := r.Scan(&lt, &et, &accrual, &p.MaxCarryForward, &p.AdvanceNoticeDays,
		&sameDay, &maxConsecutive, &requiresDocs); err != nil {
		return leave.Policy{}, err
	}
	p.LeaveType = leave.LeaveType(lt)
	p.EmploymentType = leave.EmploymentType(et)
	p.MonthlyAccrual = leave.MustParseDays(accrual)
	p.SameDayAllowed = sameDay != 0
	p.RequiresDocuments = requiresDocs != 0
	if maxConsecutive.Valid {
		v := int(maxConsecutive.Int64)
		p.MaxConsecutiveDays = &v
	}
	return p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) ListHolidays(ctx context.Context, year int) ([]leave.Holiday, error) {
	prefix := fmt.Sprintf("%04d-", year)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, optional FROM holidays
		WHERE date LIKE ? ORDER BY date`, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Holiday
	for rows.Next() {
		var h leave.Holiday
		var date string
		var optional int
		if err := rows.Scan(&h.ID, &date, &h.Name, &optional); err != nil {
			return nil, err
		}
		d, err := parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("bad holiday date %q: %w", date, err)
		}
		h.Date = d
		h.Optional = optional != 0
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) SaveHoliday(ctx context.Context, h leave.Holiday) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, optional) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date, name = excluded.name, optional = excluded.optional`,
		h.ID, fmtDate(h.Date), h.Name, boolInt(h.Optional))
	return err
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &leave.NotFoundError{Kind: "holiday", Key: id}
	}
	return nil
}

// =============================================================================
// BALANCES - conditional writes
// =============================================================================

func (s *Store) GetBalance(ctx context.Context, employeeID string, lt leave.LeaveType, year int) (leave.Balance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT employee_id, leave_type, year, opening, accrued, used,
		       carried_forward, lop_days, version
		FROM leave_balances WHERE employee_id = ? AND leave_type = ? AND year = ?`,
		employeeID, string(lt), year)
	b, err := scanBalance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.Balance{}, &leave.NotFoundError{Kind: "balance",
			Key: fmt.Sprintf("%s/%s/%d", employeeID, lt, year)}
	}
	return b, err
}

// SaveBalance writes the row conditioned on the version it was read with.
// Version 0 inserts; an insert losing a create race surfaces as
// ErrConflict so the caller re-reads and retries.
func (s *Store) SaveBalance(ctx context.Context, b leave.Balance) error {
	if b.Version == 0 {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO leave_balances (employee_id, leave_type, year, opening,
				accrued, used, carried_forward, lop_days, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
			b.EmployeeID, string(b.LeaveType), b.Year, b.Opening.String(),
			b.Accrued.String(), b.Used.String(), b.CarriedForward.String(),
			b.LOPDays.String())
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return leave.ErrConflict
			}
			return err
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_balances
		SET opening = ?, accrued = ?, used = ?, carried_forward = ?,
		    lop_days = ?, version = version + 1
		WHERE employee_id = ? AND leave_type = ? AND year = ? AND version = ?`,
		b.Opening.String(), b.Accrued.String(), b.Used.String(),
		b.CarriedForward.String(), b.LOPDays.String(),
		b.EmployeeID, string(b.LeaveType), b.Year, b.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrConflict
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, employeeID string, year int) ([]leave.Balance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, leave_type, year, opening, accrued, used,
		       carried_forward, lop_days, version
		FROM leave_balances WHERE employee_id = ? AND year = ? ORDER BY leave_type`,
		employeeID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBalance(r scanner) (leave.Balance, error) {
	var b leave.Balance
	var lt, opening, accrued, used, carried, lop string
	if err := r.Scan(&b.EmployeeID, &lt, &b.Year, &opening, &accrued, &used,
		&carried, &lop, &b.Version); err != nil {
		return leave.Balance{}, err
	}
	b.LeaveType = leave.LeaveType(lt)
	b.Opening = leave.MustParseDays(opening)
	b.Accrued = leave.MustParseDays(accrued)
	b.Used = leave.MustParseDays(used)
	b.CarriedForward = leave.MustParseDays(carried)
	b.LOPDays = leave.MustParseDays(lop)
	return b, nil
}

// =============================================================================
// APPLICATIONS
// =============================================================================

const applicationColumns = `id, employee_id, leave_type, start_date, end_date,
	total_days, reason, status, is_emergency, lop_days, applied_at,
	approved_by, approved_at, rejected_reason, cancelled_at`

func (s *Store) InsertApplication(ctx context.Context, a leave.Application) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_applications (`+applicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EmployeeID, string(a.LeaveType), fmtDate(a.StartDate), fmtDate(a.EndDate),
		a.TotalDays.String(), a.Reason, string(a.Status), boolInt(a.IsEmergency),
		a.LOPDays.String(), fmtTime(a.AppliedAt), nullStr(a.ApprovedBy),
		fmtTimePtr(a.ApprovedAt), nullStr(a.RejectedReason), fmtTimePtr(a.CancelledAt))
	return err
}

func (s *Store) GetApplication(ctx context.Context, id string) (leave.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM leave_applications WHERE id = ?`, id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.Application{}, &leave.NotFoundError{Kind: "application", Key: id}
	}
	return a, err
}

func (s *Store) UpdateApplication(ctx context.Context, a leave.Application) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_applications
		SET status = ?, lop_days = ?, approved_by = ?, approved_at = ?,
		    rejected_reason = ?, cancelled_at = ?
		WHERE id = ?`,
		string(a.Status), a.LOPDays.String(), nullStr(a.ApprovedBy),
		fmtTimePtr(a.ApprovedAt), nullStr(a.RejectedReason),
		fmtTimePtr(a.CancelledAt), a.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &leave.NotFoundError{Kind: "application", Key: a.ID}
	}
	return nil
}

func (s *Store) ListActiveApplications(ctx context.Context, employeeID string) ([]leave.Application, error) {
	return s.queryApplications(ctx, `
		SELECT `+applicationColumns+` FROM leave_applications
		WHERE employee_id = ? AND status IN ('pending', 'approved')
		ORDER BY applied_at DESC`, employeeID)
}

func (s *Store) ListApplications(ctx context.Context, employeeID string) ([]leave.Application, error) {
	return s.queryApplications(ctx, `
		SELECT `+applicationColumns+` FROM leave_applications
		WHERE employee_id = ? ORDER BY applied_at DESC`, employeeID)
}

func (s *Store) ListByStatus(ctx context.Context, status leave.Status) ([]leave.Application, error) {
	return s.queryApplications(ctx, `
		SELECT `+applicationColumns+` FROM leave_applications
		WHERE status = ? ORDER BY applied_at DESC`, string(status))
}

func (s *Store) queryApplications(ctx context.Context, query string, args ...any) ([]leave.Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanApplication(r scanner) (leave.Application, error) {
	var a leave.Application
	var lt, startDate, endDate, totalDays, status, appliedAt, lop string
	var reason, approvedBy, rejectedReason sql.NullString
	var approvedAt, cancelledAt sql.NullString
	var emergency int
	if err := r.Scan(&a.ID, &a.EmployeeID, &lt, &startDate, &endDate, &totalDays,
		&reason, &status, &emergency, &lop, &appliedAt,
		&approvedBy, &approvedAt, &rejectedReason, &cancelledAt); err != nil {
		return leave.Application{}, err
	}
	a.LeaveType = leave.LeaveType(lt)
	var err error
	if a.StartDate, err = parseDate(startDate); err != nil {
		return leave.Application{}, err
	}
	if a.EndDate, err = parseDate(endDate); err != nil {
		return leave.Application{}, err
	}
	a.TotalDays = leave.MustParseDays(totalDays)
	a.Reason = reason.String
	a.Status = leave.Status(status)
	a.IsEmergency = emergency != 0
	a.LOPDays = leave.MustParseDays(lop)
	a.AppliedAt = parseTime(appliedAt)
	a.ApprovedBy = approvedBy.String
	a.ApprovedAt = parseTimePtr(approvedAt)
	a.RejectedReason = rejectedReason.String
	a.CancelledAt = parseTimePtr(cancelledAt)
	return a, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// =============================================================================
// COMP-OFF
// =============================================================================

func (s *Store) InsertCompOff(ctx context.Context, c leave.CompOffRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comp_off_requests (id, employee_id, worked_date,
			comp_off_date, reason, status, applied_at, approved_by,
			approved_at, rejected_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.EmployeeID, fmtDate(c.WorkedDate), fmtDatePtr(c.CompOffDate),
		c.Reason, string(c.Status), fmtTime(c.AppliedAt), nullStr(c.ApprovedBy),
		fmtTimePtr(c.ApprovedAt), nullStr(c.RejectedReason))
	return err
}

func (s *Store) GetCompOff(ctx context.Context, id string) (leave.CompOffRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, worked_date, comp_off_date, reason, status,
		       applied_at, approved_by, approved_at, rejected_reason
		FROM comp_off_requests WHERE id = ?`, id)
	c, err := scanCompOff(row)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.CompOffRequest{}, &leave.NotFoundError{Kind: "comp-off request", Key: id}
	}
	return c, err
}

func (s *Store) UpdateCompOff(ctx context.Context, c leave.CompOffRequest) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE comp_off_requests
		SET status = ?, approved_by = ?, approved_at = ?, rejected_reason = ?
		WHERE id = ?`,
		string(c.Status), nullStr(c.ApprovedBy), fmtTimePtr(c.ApprovedAt),
		nullStr(c.RejectedReason), c.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &leave.NotFoundError{Kind: "comp-off request", Key: c.ID}
	}
	return nil
}

func (s *Store) ListCompOffs(ctx context.Context, employeeID string) ([]leave.CompOffRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, worked_date, comp_off_date, reason, status,
		       applied_at, approved_by, approved_at, rejected_reason
		FROM comp_off_requests WHERE employee_id = ? ORDER BY applied_at DESC`,
		employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.CompOffRequest
	for rows.Next() {
		c, err := scanCompOff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCompOff(r scanner) (leave.CompOffRequest, error) {
	var c leave.CompOffRequest
	var workedDate, status, appliedAt string
	var compOffDate, reason, approvedBy, rejectedReason sql.NullString
	var approvedAt sql.NullString
	if err := r.Scan(&c.ID, &c.EmployeeID, &workedDate, &compOffDate, &reason,
		&status, &appliedAt, &approvedBy, &approvedAt, &rejectedReason); err != nil {
		return leave.CompOffRequest{}, err
	}
	var err error
	if c.WorkedDate, err = parseDate(workedDate); err != nil {
		return leave.CompOffRequest{}, err
	}
	if c.CompOffDate, err = parseDatePtr(compOffDate); err != nil {
		return leave.CompOffRequest{}, err
	}
	c.Reason = reason.String
	c.Status = leave.Status(status)
	c.AppliedAt = parseTime(appliedAt)
	c.ApprovedBy = approvedBy.String
	c.ApprovedAt = parseTimePtr(approvedAt)
	c.RejectedReason = rejectedReason.String
	return c, nil
}

// =============================================================================
// WORK FROM HOME
// =============================================================================

func (s *Store) InsertWFH(ctx context.Context, w leave.WFHRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wfh_requests (id, employee_id, start_date, end_date,
			total_days, reason, status, applied_at, approved_by, approved_at,
			rejected_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.EmployeeID, fmtDate(w.StartDate), fmtDate(w.EndDate),
		w.TotalDays.String(), w.Reason, string(w.Status), fmtTime(w.AppliedAt),
		nullStr(w.ApprovedBy), fmtTimePtr(w.ApprovedAt), nullStr(w.RejectedReason))
	return err
}

func (s *Store) GetWFH(ctx context.Context, id string) (leave.WFHRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, start_date, end_date, total_days, reason,
		       status, applied_at, approved_by, approved_at, rejected_reason
		FROM wfh_requests WHERE id = ?`, id)
	w, err := scanWFH(row)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.WFHRequest{}, &leave.NotFoundError{Kind: "wfh request", Key: id}
	}
	return w, err
}

func (s *Store) UpdateWFH(ctx context.Context, w leave.WFHRequest) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE wfh_requests
		SET status = ?, approved_by = ?, approved_at = ?, rejected_reason = ?
		WHERE id = ?`,
		string(w.Status), nullStr(w.ApprovedBy), fmtTimePtr(w.ApprovedAt),
		nullStr(w.RejectedReason), w.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &leave.NotFoundError{Kind: "wfh request", Key: w.ID}
	}
	return nil
}

func (s *Store) ListWFH(ctx context.Context, employeeID string) ([]leave.WFHRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, start_date, end_date, total_days, reason,
		       status, applied_at, approved_by, approved_at, rejected_reason
		FROM wfh_requests WHERE employee_id = ? ORDER BY applied_at DESC`,
		employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.WFHRequest
	for rows.Next() {
		w, err := scanWFH(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanWFH(r scanner) (leave.WFHRequest, error) {
	var w leave.WFHRequest
	var startDate, endDate, totalDays, status, appliedAt string
	var reason, approvedBy, rejectedReason sql.NullString
	var approvedAt sql.NullString
	if err := r.Scan(&w.ID, &w.EmployeeID, &startDate, &endDate, &totalDays,
		&reason, &status, &appliedAt, &approvedBy, &approvedAt, &rejectedReason); err != nil {
		return leave.WFHRequest{}, err
	}
	var err error
	if w.StartDate, err = parseDate(startDate); err != nil {
		return leave.WFHRequest{}, err
	}
	if w.EndDate, err = parseDate(endDate); err != nil {
		return leave.WFHRequest{}, err
	}
	w.TotalDays = leave.MustParseDays(totalDays)
	w.Reason = reason.String
	w.Status = leave.Status(status)
	w.AppliedAt = parseTime(appliedAt)
	w.ApprovedBy = approvedBy.String
	w.ApprovedAt = parseTimePtr(approvedAt)
	w.RejectedReason = rejectedReason.String
	return w, nil
}

// =============================================================================
// AUDIT - append-only
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, entry leave.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_audit_log (id, application_id, action, performed_by,
			old_status, new_status, comments, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ApplicationID, entry.Action, entry.PerformedBy,
		string(entry.OldStatus), string(entry.NewStatus), entry.Comments,
		fmtTime(entry.Timestamp))
	return err
}

func (s *Store) ListAudit(ctx context.Context, applicationID string) ([]leave.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, action, performed_by, old_status,
		       new_status, comments, timestamp
		FROM leave_audit_log WHERE application_id = ? ORDER BY timestamp`,
		applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.AuditEntry
	for rows.Next() {
		var e leave.AuditEntry
		var oldStatus, newStatus, comments, ts string
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.Action, &e.PerformedBy,
			&oldStatus, &newStatus, &comments, &ts); err != nil {
			return nil, err
		}
		e.OldStatus = leave.Status(oldStatus)
		e.NewStatus = leave.Status(newStatus)
		e.Comments = comments
		e.Timestamp = parseTime(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// ROLLOVER RUNS - scheduler bookkeeping
// =============================================================================

// RolloverRun records one year-end rollover attempt for one
// (employee, leaveType, fromYear).
type RolloverRun struct {
	ID          string
	EmployeeID  string
	LeaveType   leave.LeaveType
	FromYear    int
	Status      string // "running", "completed", "failed"
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

func (s *Store) SaveRolloverRun(ctx context.Context, run RolloverRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rollover_runs (id, employee_id, leave_type, from_year,
			status, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			completed_at = excluded.completed_at`,
		run.ID, run.EmployeeID, string(run.LeaveType), run.FromYear,
		run.Status, nullStr(run.Error), fmtTime(run.StartedAt),
		fmtTimePtr(run.CompletedAt))
	return err
}

// IsRolloverComplete reports whether a completed run already exists for
// the key, so the scheduler can skip it.
func (s *Store) IsRolloverComplete(ctx context.Context, employeeID string, lt leave.LeaveType, fromYear int) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM rollover_runs
		WHERE employee_id = ? AND leave_type = ? AND from_year = ? AND status = 'completed'`,
		employeeID, string(lt), fromYear).Scan(&n)
	return n > 0, err
}

func (s *Store) ListRolloverRuns(ctx context.Context, fromYear int) ([]RolloverRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, leave_type, from_year, status, error,
		       started_at, completed_at
		FROM rollover_runs WHERE from_year = ? ORDER BY started_at DESC`,
		fromYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RolloverRun
	for rows.Next() {
		var run RolloverRun
		var lt, startedAt string
		var errStr, completedAt sql.NullString
		if err := rows.Scan(&run.ID, &run.EmployeeID, &lt, &run.FromYear,
			&run.Status, &errStr, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		run.LeaveType = leave.LeaveType(lt)
		run.Error = errStr.String
		run.StartedAt = parseTime(startedAt)
		run.CompletedAt = parseTimePtr(completedAt)
		out = append(out, run)
	}
	return out, rows.Err()
}
