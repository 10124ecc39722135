/*
compoff.go - Comp-off credits and work-from-home requests

PURPOSE:
  Two request kinds share the leave application lifecycle but not its
  balance arithmetic:

  CompOffRequest: earned by working a non-working day. On approval the
  engine credits one day to the employee's comp_off balance for the year
  of the worked date. The credit lands in the balance's Opening field:
  Accrued is recomputed from the monthly rate on every accrual run (the
  comp_off rate is zero), so earned credits must live outside it.

  WFHRequest: pure workflow. Submission, approval, and rejection follow
  the same guards as leave, and no balance is ever touched.

Both are guarded the same way LeaveApplication transitions are, and both
append audit entries.
*/
package leave

import (
	"time"
)

// =============================================================================
// COMP-OFF
// =============================================================================

// CompOffRequest asks for a one-day credit for work done on a
// non-working day.
type CompOffRequest struct {
	ID         string
	EmployeeID string

	// WorkedDate is the weekend day or holiday that was worked.
	WorkedDate Date

	// CompOffDate is the day the employee plans to take the credit,
	// when known at submission. Informational; consumption happens
	// through a regular comp_off leave application.
	CompOffDate *Date

	Reason         string
	Status         Status
	AppliedAt      time.Time
	ApprovedBy     string
	ApprovedAt     *time.Time
	RejectedReason string
}

// Validate checks the submission-time rule: the worked date must NOT be
// a working day, otherwise there is nothing to compensate.
func (c *CompOffRequest) Validate(holidays HolidaySet) []Finding {
	if c.WorkedDate.IsZero() {
		return []Finding{{
			Code:     FindingNonWorkingStart,
			Message:  "worked date is required",
			Blocking: true,
		}}
	}
	if IsWorkingDay(c.WorkedDate, holidays) {
		return []Finding{{
			Code:     FindingNonWorkingStart,
			Message:  "comp-off can only be earned for working a weekend or holiday",
			Blocking: true,
		}}
	}
	return nil
}

// Approve transitions pending -> approved. The service credits the
// comp_off balance afterwards.
func (c *CompOffRequest) Approve(actor Employee, at time.Time) (AuditEntry, error) {
	if !actor.CanDecide() {
		return AuditEntry{}, &TransitionError{ApplicationID: c.ID, From: c.Status, To: StatusApproved,
			Reason: "actor " + actor.ID + " is not a manager or admin"}
	}
	if c.Status != StatusPending {
		return AuditEntry{}, &TransitionError{ApplicationID: c.ID, From: c.Status, To: StatusApproved,
			Reason: "only pending comp-off requests can be approved"}
	}

	old := c.Status
	c.Status = StatusApproved
	c.ApprovedBy = actor.ID
	c.ApprovedAt = &at
	return newAuditEntry(c.ID, "compoff_approved", actor.ID, old, c.Status, "comp-off credit for "+c.WorkedDate.String(), at), nil
}

// Reject transitions pending -> rejected with a mandatory reason.
func (c *CompOffRequest) Reject(actor Employee, reason string, at time.Time) (AuditEntry, error) {
	if !actor.CanDecide() {
		return AuditEntry{}, &TransitionError{ApplicationID: c.ID, From: c.Status, To: StatusRejected,
			Reason: "actor " + actor.ID + " is not a manager or admin"}
	}
	if c.Status != StatusPending {
		return AuditEntry{}, &TransitionError{ApplicationID: c.ID, From: c.Status, To: StatusRejected,
			Reason: "only pending comp-off requests can be rejected"}
	}
	if reason == "" {
		return AuditEntry{}, &TransitionError{ApplicationID: c.ID, From: c.Status, To: StatusRejected,
			Reason: "rejection requires a reason"}
	}

	old := c.Status
	c.Status = StatusRejected
	c.RejectedReason = reason
	return newAuditEntry(c.ID, "compoff_rejected", actor.ID, old, c.Status, reason, at), nil
}

// =============================================================================
// WORK FROM HOME
// =============================================================================

// WFHRequest is a leave-shaped request with no balance effect.
type WFHRequest struct {
	ID         string
	EmployeeID string
	StartDate  Date
	EndDate    Date
	TotalDays  Days
	Reason     string
	Status     Status

	AppliedAt      time.Time
	ApprovedBy     string
	ApprovedAt     *time.Time
	RejectedReason string
}

func (w *WFHRequest) Approve(actor Employee, at time.Time) (AuditEntry, error) {
	if !actor.CanDecide() {
		return AuditEntry{}, &TransitionError{ApplicationID: w.ID, From: w.Status, To: StatusApproved,
			Reason: "actor " + actor.ID + " is not a manager or admin"}
	}
	if w.Status != StatusPending {
		return AuditEntry{}, &TransitionError{ApplicationID: w.ID, From: w.Status, To: StatusApproved,
			Reason: "only pending WFH requests can be approved"}
	}

	old := w.Status
	w.Status = StatusApproved
	w.ApprovedBy = actor.ID
	w.ApprovedAt = &at
	return newAuditEntry(w.ID, "wfh_approved", actor.ID, old, w.Status, "approved by "+actor.Name, at), nil
}

func (w *WFHRequest) Reject(actor Employee, reason string, at time.Time) (AuditEntry, error) {
	if !actor.CanDecide() {
		return AuditEntry{}, &TransitionError{ApplicationID: w.ID, From: w.Status, To: StatusRejected,
			Reason: "actor " + actor.ID + " is not a manager or admin"}
	}
	if w.Status != StatusPending {
		return AuditEntry{}, &TransitionError{ApplicationID: w.ID, From: w.Status, To: StatusRejected,
			Reason: "only pending WFH requests can be rejected"}
	}
	if reason == "" {
		return AuditEntry{}, &TransitionError{ApplicationID: w.ID, From: w.Status, To: StatusRejected,
			Reason: "rejection requires a reason"}
	}

	old := w.Status
	w.Status = StatusRejected
	w.RejectedReason = reason
	return newAuditEntry(w.ID, "wfh_rejected", actor.ID, old, w.Status, reason, at), nil
}
