/*
Package leave implements the leave accounting engine.

PURPOSE:
  This package contains the domain types and algorithms for leave
  management: accrual, balance tracking, eligibility evaluation, and
  the request lifecycle. Persistence and notification are collaborators
  behind interfaces (see store.go); everything in this package is
  deterministic given its inputs.

KEY CONCEPTS IN THIS FILE (types.go):
  - Days: A day quantity backed by decimal.Decimal (accrual is fractional)
  - Employee: The subject of every balance and application
  - LeaveType / EmploymentType: The two axes a policy is keyed by
  - AuditEntry: Immutable record of a status transition

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every day quantity, never float64
  2. Derivation: current balance is always recomputed, never stored alone
  3. Auditability: every transition appends exactly one audit entry

SEE ALSO:
  - calendar.go: working-day classification and counting
  - policy.go: per-(leaveType, employmentType) policy table
  - eligibility.go: submission validation findings
  - balance.go: accrual, usage, LOP, carry-forward arithmetic
  - application.go: request state machine
*/
package leave

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DAYS - Day quantity with decimal precision
// =============================================================================

// Days is a count of leave days. Accrual rates are fractional (e.g. 1.25
// days/month), so Days is decimal-backed to keep ledger arithmetic exact.
type Days struct {
	Value decimal.Decimal
}

func NewDays(value float64) Days    { return Days{Value: decimal.NewFromFloat(value)} }
func NewDaysFromInt(value int) Days { return Days{Value: decimal.NewFromInt(int64(value))} }

func ZeroDays() Days { return Days{Value: decimal.Zero} }

func (d Days) Add(o Days) Days        { return Days{Value: d.Value.Add(o.Value)} }
func (d Days) Sub(o Days) Days        { return Days{Value: d.Value.Sub(o.Value)} }
func (d Days) Neg() Days              { return Days{Value: d.Value.Neg()} }
func (d Days) IsZero() bool           { return d.Value.IsZero() }
func (d Days) IsNegative() bool       { return d.Value.IsNegative() }
func (d Days) IsPositive() bool       { return d.Value.IsPositive() }
func (d Days) GreaterThan(o Days) bool { return d.Value.GreaterThan(o.Value) }
func (d Days) LessThan(o Days) bool   { return d.Value.LessThan(o.Value) }
func (d Days) Equal(o Days) bool      { return d.Value.Equal(o.Value) }

func (d Days) Min(o Days) Days {
	if d.LessThan(o) {
		return d
	}
	return o
}

func (d Days) Max(o Days) Days {
	if d.GreaterThan(o) {
		return d
	}
	return o
}

// Round1 rounds to one decimal place, the precision balances are stored at.
func (d Days) Round1() Days { return Days{Value: d.Value.Round(1)} }

func (d Days) Float64() float64 { f, _ := d.Value.Float64(); return f }
func (d Days) String() string   { return d.Value.String() }

// ParseDays parses a decimal string.
func ParseDays(s string) (Days, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroDays(), fmt.Errorf("invalid day count %q: %w", s, err)
	}
	return Days{Value: v}, nil
}

// MustParseDays parses a decimal string, returning zero on failure.
// Only for trusted inputs such as stored rows and fixtures.
func MustParseDays(s string) Days {
	d, err := ParseDays(s)
	if err != nil {
		return ZeroDays()
	}
	return d
}

// =============================================================================
// EMPLOYEE
// =============================================================================

type EmploymentType string

const (
	FullTime EmploymentType = "full_time"
	Intern   EmploymentType = "intern"
	Trainee  EmploymentType = "trainee"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Employee is owned by the external user directory; the engine only reads it.
type Employee struct {
	ID             string
	Name           string
	Email          string
	EmploymentType EmploymentType
	Role           Role
	JoinDate       Date
	CreatedAt      time.Time
}

// CanDecide reports whether this employee may approve or reject requests.
func (e Employee) CanDecide() bool {
	return e.Role == RoleManager || e.Role == RoleAdmin
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

type LeaveType string

const (
	LeaveCasual   LeaveType = "casual"
	LeaveSick     LeaveType = "sick"
	LeaveVacation LeaveType = "vacation"
	LeaveAcademic LeaveType = "academic"
	LeaveCompOff  LeaveType = "comp_off"
)

// BalanceLeaveTypes are the leave types that carry a per-year balance row.
// Work-from-home requests share the application lifecycle but never touch
// a balance, so they are not listed here.
var BalanceLeaveTypes = []LeaveType{
	LeaveCasual, LeaveSick, LeaveVacation, LeaveAcademic, LeaveCompOff,
}

// =============================================================================
// AUDIT - Append-only transition log
// =============================================================================

// AuditEntry records one status transition. Entries are never updated or
// deleted; corrections happen through further transitions.
type AuditEntry struct {
	ID            string
	ApplicationID string
	Action        string
	PerformedBy   string
	OldStatus     Status
	NewStatus     Status
	Comments      string
	Timestamp     time.Time
}
