/*
service.go - Orchestration of evaluation, transitions, and balance writes

PURPOSE:
  Service wires the pure pieces (calendar, evaluator, balance arithmetic,
  state machine) to the store and notifier. It owns the two disciplines
  the pure code cannot:

  1. Optimistic concurrency. Every balance mutation is a read-compute-
     write retried up to maxRetries on ErrConflict, so concurrent
     approvals against one (employee, leaveType, year) row can never
     both apply a stale `used`.

  2. Sequencing. State-machine guards run before balance effects; the
     application row and its audit entry are persisted only after the
     balance write succeeded.

NOTIFICATION:
  Submission and every decision emit a LeaveEvent. Delivery failures are
  logged and never fail the operation - the balance write is the source
  of truth, not the email.
*/
package leave

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

const defaultMaxRetries = 3

// Service exposes the engine's operations over a Store.
type Service struct {
	store    Store
	notifier Notifier

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time

	maxRetries int
}

func NewService(store Store, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		store:      store,
		notifier:   notifier,
		now:        time.Now,
		maxRetries: defaultMaxRetries,
	}
}

// WithClock overrides the service clock. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() Date { return DateOf(s.now().UTC()) }

// =============================================================================
// SUBMISSION
// =============================================================================

// SubmitInput is a candidate leave application.
type SubmitInput struct {
	EmployeeID   string
	LeaveType    LeaveType
	StartDate    Date
	EndDate      Date
	Reason       string
	IsEmergency  bool
	HasDocuments bool
}

// SubmitResult carries the outcome: the persisted application when
// eligible, and every finding either way.
type SubmitResult struct {
	Application *Application
	Findings    []Finding
}

// Submit evaluates a candidate application and persists it as pending
// when no blocking finding remains. LOP findings do not block; the
// excess is committed as LOP at approval time.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	emp, err := s.store.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}

	policy, err := s.store.GetPolicy(ctx, in.LeaveType, emp.EmploymentType)
	if err != nil {
		return nil, err
	}

	// The notice rule walks working days from today, so the span must
	// cover today's year as well when it precedes the leave itself.
	holidays, err := s.holidaysSpanning(ctx, s.today().Min(in.StartDate), in.EndDate)
	if err != nil {
		return nil, err
	}

	balance, err := s.loadOrInitBalance(ctx, emp, in.LeaveType, in.StartDate.Year())
	if err != nil {
		return nil, err
	}

	active, err := s.store.ListActiveApplications(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}

	evalIn := EvaluationInput{
		Policy:       policy,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Today:        s.today(),
		IsEmergency:  in.IsEmergency,
		HasDocuments: in.HasDocuments,
		Balance:      balance,
		Holidays:     holidays,
		Active:       active,
	}
	findings, err := Evaluate(evalIn)
	if err != nil {
		return nil, err
	}
	if !Eligible(findings) {
		return &SubmitResult{Findings: findings}, ErrNotEligible
	}

	now := s.now()
	app := Application{
		ID:          uuid.NewString(),
		EmployeeID:  in.EmployeeID,
		LeaveType:   in.LeaveType,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		TotalDays:   RequestedDays(evalIn),
		Reason:      in.Reason,
		Status:      StatusPending,
		IsEmergency: in.IsEmergency,
		AppliedAt:   now,
	}
	if app.TotalDays.IsNegative() {
		return nil, &InvariantViolation{Op: "Submit", Detail: "negative totalDays"}
	}

	if err := s.store.InsertApplication(ctx, app); err != nil {
		return nil, err
	}
	if err := s.store.AppendAudit(ctx, newAuditEntry(app.ID, "submitted", in.EmployeeID, "", StatusPending, in.Reason, now)); err != nil {
		return nil, err
	}

	s.notify(ctx, eventFor(&app, ""))
	return &SubmitResult{Application: &app, Findings: findings}, nil
}

// =============================================================================
// DECISIONS
// =============================================================================

// Approve transitions an application to approved and commits its usage
// against the balance row, recording the LOP portion on the application.
func (s *Service) Approve(ctx context.Context, applicationID, actorID string) (*Application, error) {
	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	actor, err := s.store.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}
	emp, err := s.store.GetEmployee(ctx, app.EmployeeID)
	if err != nil {
		return nil, err
	}

	entry, err := app.Approve(actor, s.now())
	if err != nil {
		return nil, err
	}

	// Balance first: if the commit cannot be persisted, the application
	// stays pending in the store.
	err = s.mutateBalance(ctx, emp, app.LeaveType, app.Year(), func(b *Balance) error {
		lop, err := b.CommitUsage(app.TotalDays)
		if err != nil {
			return err
		}
		app.LOPDays = lop
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, err
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		return nil, err
	}

	s.notify(ctx, eventFor(&app, ""))
	return &app, nil
}

// Reject transitions an application to rejected. No balance effect.
func (s *Service) Reject(ctx context.Context, applicationID, actorID, reason string) (*Application, error) {
	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	actor, err := s.store.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}

	entry, err := app.Reject(actor, reason, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, err
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		return nil, err
	}

	s.notify(ctx, eventFor(&app, reason))
	return &app, nil
}

// Cancel transitions an application to cancelled. A previously approved
// application gets its usage reverted with the exact LOP recorded at
// approval time.
func (s *Service) Cancel(ctx context.Context, applicationID, actorID string) (*Application, error) {
	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	actor, err := s.store.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}
	emp, err := s.store.GetEmployee(ctx, app.EmployeeID)
	if err != nil {
		return nil, err
	}

	entry, err := app.Cancel(actor, s.now())
	if err != nil {
		return nil, err
	}

	if entry.OldStatus == StatusApproved {
		err = s.mutateBalance(ctx, emp, app.LeaveType, app.Year(), func(b *Balance) error {
			return b.RevertUsage(app.TotalDays, app.LOPDays)
		})
		if err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateApplication(ctx, app); err != nil {
		return nil, err
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		return nil, err
	}

	s.notify(ctx, eventFor(&app, ""))
	return &app, nil
}

// =============================================================================
// BALANCES
// =============================================================================

// Balances returns the employee's balance rows for a year, one per
// balance-bearing leave type, initializing missing rows with accrual as
// of today.
func (s *Service) Balances(ctx context.Context, employeeID string, year int) ([]Balance, error) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	out := make([]Balance, 0, len(BalanceLeaveTypes))
	for _, lt := range BalanceLeaveTypes {
		b, err := s.loadOrInitBalance(ctx, emp, lt, year)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// RefreshAccrual recomputes the accrued field for one balance row as of
// asOf. Idempotent: a recompute, not an increment.
func (s *Service) RefreshAccrual(ctx context.Context, employeeID string, lt LeaveType, year int, asOf Date) (Balance, error) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return Balance{}, err
	}
	policy, err := s.store.GetPolicy(ctx, lt, emp.EmploymentType)
	if err != nil {
		return Balance{}, err
	}

	err = s.mutateBalance(ctx, emp, lt, year, func(b *Balance) error {
		b.Accrue(policy.MonthlyAccrual, emp.JoinDate, asOf)
		return nil
	})
	if err != nil {
		return Balance{}, err
	}
	return s.store.GetBalance(ctx, employeeID, lt, year)
}

// Rollover closes fromYear for one (employee, leaveType): it finalizes
// the old year's accrual, seeds the next year's carriedForward capped by
// policy, and accrues the new year as of asOf. Safe to re-run.
func (s *Service) Rollover(ctx context.Context, employeeID string, lt LeaveType, fromYear int, asOf Date) error {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	policy, err := s.store.GetPolicy(ctx, lt, emp.EmploymentType)
	if err != nil {
		return err
	}

	// Finalize the ending year's accrual through Dec 31.
	err = s.mutateBalance(ctx, emp, lt, fromYear, func(b *Balance) error {
		b.Accrue(policy.MonthlyAccrual, emp.JoinDate, EndOfYear(fromYear))
		return nil
	})
	if err != nil {
		return err
	}

	prev, err := s.loadOrInitBalance(ctx, emp, lt, fromYear)
	if err != nil {
		return err
	}

	return s.mutateBalance(ctx, emp, lt, fromYear+1, func(next *Balance) error {
		prev.CarryForward(next, policy.MaxCarryForward)
		next.Accrue(policy.MonthlyAccrual, emp.JoinDate, asOf)
		return nil
	})
}

// =============================================================================
// COMP-OFF
// =============================================================================

// SubmitCompOff records a comp-off credit request for a worked
// non-working day. compOffDate, when given, notes the day the employee
// intends to take the credit.
func (s *Service) SubmitCompOff(ctx context.Context, employeeID string, workedDate Date, compOffDate *Date, reason string) (*CompOffRequest, []Finding, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, nil, err
	}

	holidays, err := s.holidaysSpanning(ctx, workedDate, workedDate)
	if err != nil {
		return nil, nil, err
	}

	req := CompOffRequest{
		ID:          uuid.NewString(),
		EmployeeID:  employeeID,
		WorkedDate:  workedDate,
		CompOffDate: compOffDate,
		Reason:      reason,
		Status:      StatusPending,
		AppliedAt:   s.now(),
	}
	if findings := req.Validate(holidays); len(findings) > 0 {
		return nil, findings, ErrNotEligible
	}

	if err := s.store.InsertCompOff(ctx, req); err != nil {
		return nil, nil, err
	}
	if err := s.store.AppendAudit(ctx, newAuditEntry(req.ID, "compoff_submitted", employeeID, "", StatusPending, reason, s.now())); err != nil {
		return nil, nil, err
	}
	return &req, nil, nil
}

// DecideCompOff approves or rejects a comp-off request. Approval credits
// one day to the comp_off balance for the worked date's year.
func (s *Service) DecideCompOff(ctx context.Context, requestID, actorID string, approve bool, reason string) (*CompOffRequest, error) {
	req, err := s.store.GetCompOff(ctx, requestID)
	if err != nil {
		return nil, err
	}
	actor, err := s.store.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}
	emp, err := s.store.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	var entry AuditEntry
	if approve {
		entry, err = req.Approve(actor, s.now())
	} else {
		entry, err = req.Reject(actor, reason, s.now())
	}
	if err != nil {
		return nil, err
	}

	if approve {
		err = s.mutateBalance(ctx, emp, LeaveCompOff, req.WorkedDate.Year(), func(b *Balance) error {
			b.Opening = b.Opening.Add(NewDaysFromInt(1))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateCompOff(ctx, req); err != nil {
		return nil, err
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		return nil, err
	}
	return &req, nil
}

// =============================================================================
// WORK FROM HOME
// =============================================================================

// SubmitWFH records a work-from-home request. No balance is consulted or
// touched at any point in the WFH lifecycle.
func (s *Service) SubmitWFH(ctx context.Context, employeeID string, start, end Date, reason string) (*WFHRequest, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		return nil, &InvariantViolation{Op: "SubmitWFH", Detail: "start and end dates are required"}
	}

	holidays, err := s.holidaysSpanning(ctx, start, end)
	if err != nil {
		return nil, err
	}

	req := WFHRequest{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		StartDate:  start,
		EndDate:    end,
		TotalDays:  NewDaysFromInt(CountWorkingDays(start, end, holidays)),
		Reason:     reason,
		Status:     StatusPending,
		AppliedAt:  s.now(),
	}

	if err := s.store.InsertWFH(ctx, req); err != nil {
		return nil, err
	}
	if err := s.store.AppendAudit(ctx, newAuditEntry(req.ID, "wfh_submitted", employeeID, "", StatusPending, reason, s.now())); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecideWFH approves or rejects a work-from-home request.
func (s *Service) DecideWFH(ctx context.Context, requestID, actorID string, approve bool, reason string) (*WFHRequest, error) {
	req, err := s.store.GetWFH(ctx, requestID)
	if err != nil {
		return nil, err
	}
	actor, err := s.store.GetEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var entry AuditEntry
	if approve {
		entry, err = req.Approve(actor, s.now())
	} else {
		entry, err = req.Reject(actor, reason, s.now())
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateWFH(ctx, req); err != nil {
		return nil, err
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		return nil, err
	}
	return &req, nil
}

// =============================================================================
// BALANCE READ-MODIFY-WRITE
// =============================================================================

// mutateBalance runs fn against the current balance row and saves it,
// retrying the whole read-compute-write on ErrConflict.
func (s *Service) mutateBalance(ctx context.Context, emp Employee, lt LeaveType, year int, fn func(*Balance) error) error {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		b, err := s.loadOrInitBalance(ctx, emp, lt, year)
		if err != nil {
			return err
		}
		if err := fn(&b); err != nil {
			return err
		}
		err = s.store.SaveBalance(ctx, b)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("balance write for %s/%s/%d exhausted %d attempts: %w",
		emp.ID, lt, year, s.maxRetries, lastErr)
}

// loadOrInitBalance reads the balance row or builds a fresh one (accrued
// as of today) without persisting it. The first SaveBalance inserts it.
func (s *Service) loadOrInitBalance(ctx context.Context, emp Employee, lt LeaveType, year int) (Balance, error) {
	b, err := s.store.GetBalance(ctx, emp.ID, lt, year)
	if err == nil {
		return b, nil
	}
	if !IsNotFound(err) {
		return Balance{}, err
	}

	policy, err := s.store.GetPolicy(ctx, lt, emp.EmploymentType)
	if err != nil {
		return Balance{}, err
	}
	b = Balance{EmployeeID: emp.ID, LeaveType: lt, Year: year}
	b.Accrue(policy.MonthlyAccrual, emp.JoinDate, s.today())
	return b, nil
}

// holidaysSpanning builds the holiday set covering every year the range
// touches.
func (s *Service) holidaysSpanning(ctx context.Context, start, end Date) (HolidaySet, error) {
	var all []Holiday
	last := end.Year()
	if end.Before(start) {
		last = start.Year()
	}
	for year := start.Year(); year <= last; year++ {
		hs, err := s.store.ListHolidays(ctx, year)
		if err != nil {
			return HolidaySet{}, err
		}
		all = append(all, hs...)
	}
	return NewHolidaySet(all), nil
}

func (s *Service) notify(ctx context.Context, event LeaveEvent) {
	if err := s.notifier.Notify(ctx, event); err != nil {
		log.Printf("[Service] notification failed for %s: %v", event.ApplicationID, err)
	}
}

func eventFor(a *Application, rejectedReason string) LeaveEvent {
	return LeaveEvent{
		ApplicationID:  a.ID,
		EmployeeID:     a.EmployeeID,
		LeaveType:      a.LeaveType,
		StartDate:      a.StartDate,
		EndDate:        a.EndDate,
		TotalDays:      a.TotalDays,
		Reason:         a.Reason,
		Decision:       a.Status,
		RejectedReason: rejectedReason,
	}
}
