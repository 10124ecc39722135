/*
application.go - Leave application and its state machine

PURPOSE:
  A LeaveApplication moves through a fixed state machine:

      pending ──▶ approved ──▶ cancelled
         │
         ├──────▶ rejected
         └──────▶ cancelled

  rejected and cancelled are terminal. Every transition is guarded and
  appends exactly one AuditEntry; invalid transitions are rejected with
  a TransitionError, never silently ignored.

GUARDS:
  approve: actor is manager/admin; current status pending
  reject:  actor is manager/admin; current status pending; non-empty reason
  cancel:  actor is the applicant or an admin; current status pending or
           approved; start date strictly in the future at cancellation time

BALANCE EFFECTS:
  The state machine itself is persistence-free. The service layer commits
  usage on approve and reverts it on cancel-of-approved (see service.go),
  using the LOPDays the application recorded at approval time so the
  reversal is exact.
*/
package leave

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// =============================================================================
// LEAVE APPLICATION
// =============================================================================

type Application struct {
	ID         string
	EmployeeID string
	LeaveType  LeaveType
	StartDate  Date
	EndDate    Date

	// TotalDays is the working-day count of [StartDate, EndDate],
	// computed once at submission.
	TotalDays Days

	Reason      string
	Status      Status
	IsEmergency bool

	// LOPDays records the LOP portion CommitUsage applied at approval,
	// so a later cancellation reverses exactly that amount.
	LOPDays Days

	AppliedAt      time.Time
	ApprovedBy     string
	ApprovedAt     *time.Time
	RejectedReason string
	CancelledAt    *time.Time
}

// Year returns the balance year this application debits, derived from
// the start date.
func (a *Application) Year() int { return a.StartDate.Year() }

// Active reports whether the application still holds or will hold days
// (pending or approved). Used for overlap checks.
func (a *Application) Active() bool {
	return a.Status == StatusPending || a.Status == StatusApproved
}

// Overlaps reports whether [a.StartDate, a.EndDate] intersects
// [start, end].
func (a *Application) Overlaps(start, end Date) bool {
	return !a.EndDate.Before(start) && !a.StartDate.After(end)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Approve transitions pending -> approved. Only managers and admins may
// decide. Balance effects are the service's job.
func (a *Application) Approve(actor Employee, at time.Time) (AuditEntry, error) {
	if !actor.CanDecide() {
		return AuditEntry{}, &TransitionError{ApplicationID: a.ID, From: a.Status, To: StatusApproved,
			Reason: "actor " + actor.ID + " is not a manager or admin"}
	}
	if a.Status != StatusPending {
		return AuditEntry{}, &TransitionError{ApplicationID: a.ID, From: a.Status, To: StatusApproved,
			Reason: "only pending applications can be approved"}
	}

	old := a.Status
	a.Status = StatusApproved
	a.ApprovedBy = actor.ID
	a.ApprovedAt = &at

	return newAuditEntry(a.ID, "approved", actor.ID, old, a.Status, "approved by "+actor.Name, at), nil
}

// Reject transitions pending -> rejected. Requires a non-empty reason;
// never touches balance.
func (a *Application) Reject(actor Employee, reason string, at time.Time) (AuditEntry, error) {
	if !actor.CanDecide() {
		return AuditEntry{}, &TransitionError{ApplicationID: a.ID, From: a.Status, To: StatusRejected,
			Reason: "actor " + actor.ID + " is not a manager or admin"}
	}
	if a.Status != StatusPending {
		return AuditEntry{}, &TransitionError{ApplicationID: a.ID, From: a.Status, To: StatusRejected,
			Reason: "only pending applications can be rejected"}
	}
	if reason == "" {
		return AuditEntry{}, &TransitionError{ApplicationID: a.ID, From: a.Status, To: StatusRejected,
			Reason: "rejection requires a reason"}
	}

	old := a.Status
	a.Status = StatusRejected
	a.RejectedReason = reason

	return newAuditEntry(a.ID, "rejected", actor.ID, old, a.Status, reason, at), nil
}

// Cancel transitions pending|approved -> cancelled. Only the applicant or
// an admin may cancel, and only while the start date is strictly in the
// future. The returned entry's OldStatus tells the caller whether a
// RevertUsage is owed.
func (a *Application) Cancel(actor Employee, at time.Time) (AuditEntry, error) {
	if actor.ID != a.EmployeeID && actor.Role != RoleAdmin {
		return AuditEntry{}, &TransitionError{ApplicationID: a.ID, From: a.Status, To: StatusCancelled,
			Reason: "only the applicant or an admin can cancel"}
	}
	if a.Status != StatusPending && a.Status != StatusApproved {
		return AuditEntry{}, &TransitionError{ApplicationID: a.ID, From: a.Status, To: StatusCancelled,
			Reason: "only pending or approved applications can be cancelled"}
	}
	if !a.StartDate.After(DateOf(at)) {
		return AuditEntry{}, &TransitionError{ApplicationID: a.ID, From: a.Status, To: StatusCancelled,
			Reason: "start date is not in the future"}
	}

	old := a.Status
	a.Status = StatusCancelled
	a.CancelledAt = &at

	return newAuditEntry(a.ID, "cancelled", actor.ID, old, a.Status, "cancelled by "+actor.Name, at), nil
}

func newAuditEntry(appID, action, actor string, from, to Status, comments string, at time.Time) AuditEntry {
	return AuditEntry{
		ID:            uuid.NewString(),
		ApplicationID: appID,
		Action:        action,
		PerformedBy:   actor,
		OldStatus:     from,
		NewStatus:     to,
		Comments:      comments,
		Timestamp:     at,
	}
}
