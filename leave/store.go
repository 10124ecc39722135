/*
store.go - Persistence and notification contracts

PURPOSE:
  Defines the interfaces between the engine and its collaborators. The
  engine never holds balances as ambient state: every mutation is an
  explicit read-compute-write against the store, scoped to one
  (employeeID, leaveType, year) row.

OPTIMISTIC CONCURRENCY:
  SaveBalance is conditional on the Version the row was read with. A lost
  race returns ErrConflict; the service retries the whole read-modify-
  write a bounded number of times (see service.go). Two concurrent
  approvals against the same balance can therefore never both apply a
  stale `used`.

APPEND-ONLY AUDIT:
  AuditLog has no update or delete. Every status transition appends
  exactly one entry.

IMPLEMENTATIONS:
  - leave/store: in-memory (tests, dev)
  - store/sqlite: SQLite (production)
*/
package leave

import "context"

// =============================================================================
// READ CONTRACTS
// =============================================================================

// EmployeeDirectory reads employee records. The directory is owned by an
// external collaborator; the engine never writes it.
type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}

// PolicyStore holds the administrator-configured policy table.
type PolicyStore interface {
	GetPolicy(ctx context.Context, lt LeaveType, et EmploymentType) (Policy, error)
	ListPolicies(ctx context.Context) ([]Policy, error)
	SavePolicy(ctx context.Context, p Policy) error
}

// HolidayStore holds the configured holiday calendar.
type HolidayStore interface {
	ListHolidays(ctx context.Context, year int) ([]Holiday, error)
	SaveHoliday(ctx context.Context, h Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
}

// =============================================================================
// BALANCE CONTRACT
// =============================================================================

// BalanceStore persists balance rows with optimistic concurrency.
type BalanceStore interface {
	// GetBalance returns the row for the key, or ErrNotFound.
	GetBalance(ctx context.Context, employeeID string, lt LeaveType, year int) (Balance, error)

	// SaveBalance writes the row conditioned on the Version it was read
	// with (Version 0 inserts). Returns ErrConflict when the row changed
	// underneath; the caller re-reads and retries.
	SaveBalance(ctx context.Context, b Balance) error

	// ListBalances returns all rows for an employee and year.
	ListBalances(ctx context.Context, employeeID string, year int) ([]Balance, error)
}

// =============================================================================
// APPLICATION CONTRACTS
// =============================================================================

// ApplicationStore persists leave applications. Applications are never
// hard-deleted; terminal rows stay for history.
type ApplicationStore interface {
	InsertApplication(ctx context.Context, a Application) error
	GetApplication(ctx context.Context, id string) (Application, error)
	UpdateApplication(ctx context.Context, a Application) error

	// ListActiveApplications returns the employee's pending and approved
	// applications (the overlap rule's input).
	ListActiveApplications(ctx context.Context, employeeID string) ([]Application, error)

	// ListApplications returns an employee's full history, newest first.
	ListApplications(ctx context.Context, employeeID string) ([]Application, error)

	// ListByStatus returns all applications in a status, for the
	// manager's pending queue.
	ListByStatus(ctx context.Context, status Status) ([]Application, error)
}

// CompOffStore persists comp-off credit requests.
type CompOffStore interface {
	InsertCompOff(ctx context.Context, c CompOffRequest) error
	GetCompOff(ctx context.Context, id string) (CompOffRequest, error)
	UpdateCompOff(ctx context.Context, c CompOffRequest) error
	ListCompOffs(ctx context.Context, employeeID string) ([]CompOffRequest, error)
}

// WFHStore persists work-from-home requests.
type WFHStore interface {
	InsertWFH(ctx context.Context, w WFHRequest) error
	GetWFH(ctx context.Context, id string) (WFHRequest, error)
	UpdateWFH(ctx context.Context, w WFHRequest) error
	ListWFH(ctx context.Context, employeeID string) ([]WFHRequest, error)
}

// AuditLog stores transition entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, applicationID string) ([]AuditEntry, error)
}

// Store aggregates every persistence contract the service needs.
type Store interface {
	EmployeeDirectory
	PolicyStore
	HolidayStore
	BalanceStore
	ApplicationStore
	CompOffStore
	WFHStore
	AuditLog
}

// =============================================================================
// NOTIFICATION
// =============================================================================

// LeaveEvent is the structured record emitted on submission and on every
// decision. The engine does not format or send messages; delivery belongs
// to the collaborator behind Notifier.
type LeaveEvent struct {
	ApplicationID  string
	EmployeeID     string
	LeaveType      LeaveType
	StartDate      Date
	EndDate        Date
	TotalDays      Days
	Reason         string
	Decision       Status
	RejectedReason string
}

type Notifier interface {
	Notify(ctx context.Context, event LeaveEvent) error
}

// NopNotifier discards events. Used when notification is disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, LeaveEvent) error { return nil }
