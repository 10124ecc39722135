/*
service_test.go - End-to-end engine tests over the in-memory store

CORE SEMANTICS UNDER TEST:
- Submit evaluates, persists pending, audits, notifies
- Approve commits usage (balance first), records LOP on the application
- Cancel of an approved application reverts exactly
- Balance writes retry on version conflicts, bounded
- Comp-off approval credits one day; WFH never touches balances
- Rollover finalizes accrual, carries capped, re-run safe
*/
package leave_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Fixed clock: Monday June 2, 2025.
var testNow = time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

type eventRecorder struct {
	events []leave.LeaveEvent
	fail   bool
}

func (r *eventRecorder) Notify(_ context.Context, e leave.LeaveEvent) error {
	if r.fail {
		return errors.New("smtp unreachable")
	}
	r.events = append(r.events, e)
	return nil
}

func newTestService(t *testing.T) (*leave.Service, *store.Memory, *eventRecorder) {
	t.Helper()
	mem := store.NewMemory()
	seed(t, mem)
	rec := &eventRecorder{}
	svc := leave.NewService(mem, rec).WithClock(func() time.Time { return testNow })
	return svc, mem, rec
}

func seed(t *testing.T, mem *store.Memory) {
	t.Helper()
	ctx := context.Background()

	mem.PutEmployee(leave.Employee{
		ID: "emp-1", Name: "Asha", Role: leave.RoleEmployee,
		EmploymentType: leave.FullTime,
		JoinDate:       leave.NewDate(2024, time.January, 15),
	})
	mem.PutEmployee(leave.Employee{
		ID: "mgr-1", Name: "Ravi", Role: leave.RoleManager,
		EmploymentType: leave.FullTime,
		JoinDate:       leave.NewDate(2020, time.March, 1),
	})
	mem.PutEmployee(leave.Employee{
		ID: "adm-1", Name: "Meera", Role: leave.RoleAdmin,
		EmploymentType: leave.FullTime,
		JoinDate:       leave.NewDate(2019, time.July, 1),
	})

	for _, p := range leave.DefaultPolicies() {
		require.NoError(t, mem.SavePolicy(ctx, p))
	}
}

func june(day int) leave.Date { return leave.NewDate(2025, time.June, day) }

// =============================================================================
// SUBMISSION TESTS
// =============================================================================

func TestService_Submit_PersistsPendingApplication(t *testing.T) {
	// GIVEN: A full-time employee with accrued casual leave
	// WHEN: Submitting a valid 2-day request a week out
	// THEN: Pending application with TotalDays computed, audited, notified

	svc, mem, rec := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1",
		LeaveType:  leave.LeaveCasual,
		StartDate:  june(9), // Monday
		EndDate:    june(10),
		Reason:     "family function",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Application)

	app := result.Application
	assert.Equal(t, leave.StatusPending, app.Status)
	assert.True(t, app.TotalDays.Equal(days("2")))

	stored, err := mem.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, stored.Status)

	audit, err := mem.ListAudit(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "submitted", audit[0].Action)

	require.Len(t, rec.events, 1)
	assert.Equal(t, app.ID, rec.events[0].ApplicationID)
}

func TestService_Submit_BlockedNothingPersisted(t *testing.T) {
	// GIVEN: Vacation requires 7 working days of notice
	// WHEN: Submitting for next Monday (5 working days out)
	// THEN: ErrNotEligible with the findings; no application, no event

	svc, mem, rec := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1",
		LeaveType:  leave.LeaveVacation,
		StartDate:  june(9),
		EndDate:    june(11),
	})
	require.ErrorIs(t, err, leave.ErrNotEligible)
	require.NotNil(t, result)
	assert.Nil(t, result.Application)
	assert.Contains(t, findingCodes(result.Findings), leave.FindingAdvanceNotice)

	apps, err := mem.ListApplications(ctx, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, apps)
	assert.Empty(t, rec.events)
}

func TestService_Submit_NoticeCountsCurrentYearHolidays(t *testing.T) {
	// GIVEN: Clock Mon Dec 22 2025 with a holiday-heavy shutdown week, and
	//        vacation requiring 7 working days of notice
	// WHEN: Requesting vacation starting Jan 2 2026 (two true working days out)
	// THEN: Blocked on notice; December holidays do not count as notice days

	mem := store.NewMemory()
	seed(t, mem)
	ctx := context.Background()
	decNow := time.Date(2025, time.December, 22, 9, 0, 0, 0, time.UTC)
	svc := leave.NewService(mem, &eventRecorder{}).
		WithClock(func() time.Time { return decNow })

	for _, day := range []int{23, 24, 25, 26, 29, 30} {
		require.NoError(t, mem.SaveHoliday(ctx, leave.Holiday{
			ID:   fmt.Sprintf("hol-dec-%d", day),
			Date: leave.NewDate(2025, time.December, day),
			Name: "year-end shutdown",
		}))
	}
	require.NoError(t, mem.SaveHoliday(ctx, leave.Holiday{
		ID: "hol-jan-1", Date: leave.NewDate(2026, time.January, 1), Name: "New Year",
	}))

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1",
		LeaveType:  leave.LeaveVacation,
		StartDate:  leave.NewDate(2026, time.January, 2),
		EndDate:    leave.NewDate(2026, time.January, 2),
	})
	require.ErrorIs(t, err, leave.ErrNotEligible)
	require.NotNil(t, result)
	assert.Contains(t, findingCodes(result.Findings), leave.FindingAdvanceNotice)
}

func TestService_Submit_WeekendSpanCountsWorkingDaysOnly(t *testing.T) {
	// GIVEN: A request spanning Fri Jun 6 through Mon Jun 9 (emergency to
	//        clear the casual notice requirement)
	// WHEN: Submitting
	// THEN: TotalDays is 2 - the weekend does not count

	svc, _, _ := newTestService(t)

	result, err := svc.Submit(context.Background(), leave.SubmitInput{
		EmployeeID:  "emp-1",
		LeaveType:   leave.LeaveCasual,
		StartDate:   june(6),
		EndDate:     june(9),
		IsEmergency: true,
	})
	require.NoError(t, err)
	assert.True(t, result.Application.TotalDays.Equal(days("2")))
}

// =============================================================================
// DECISION TESTS
// =============================================================================

func TestService_Approve_CommitsUsage(t *testing.T) {
	// GIVEN: emp-1 has 6 casual days accrued (Jan-Jun at 1/month)
	// WHEN: A manager approves a 2-day application
	// THEN: Used is 2, no LOP, balance row persisted with a version

	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1", LeaveType: leave.LeaveCasual,
		StartDate: june(9), EndDate: june(10),
	})
	require.NoError(t, err)

	app, err := svc.Approve(ctx, result.Application.ID, "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, app.Status)
	assert.True(t, app.LOPDays.IsZero())

	b, err := mem.GetBalance(ctx, "emp-1", leave.LeaveCasual, 2025)
	require.NoError(t, err)
	assert.True(t, b.Used.Equal(days("2")))
	assert.True(t, b.Accrued.Equal(days("6")))
	assert.Equal(t, int64(1), b.Version)
}

func TestService_Approve_OverflowRecordedAsLOP(t *testing.T) {
	// GIVEN: 6 casual days accrued, a 10-working-day request (LOP warning
	//        at submission, still eligible)
	// WHEN: Approving
	// THEN: Used 10, LOP 4 on balance AND on the application

	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1", LeaveType: leave.LeaveCasual,
		StartDate: june(9), EndDate: june(20),
	})
	require.NoError(t, err)
	assert.Contains(t, findingCodes(result.Findings), leave.FindingLossOfPay)

	app, err := svc.Approve(ctx, result.Application.ID, "mgr-1")
	require.NoError(t, err)
	assert.True(t, app.LOPDays.Equal(days("4")))

	b, err := mem.GetBalance(ctx, "emp-1", leave.LeaveCasual, 2025)
	require.NoError(t, err)
	assert.True(t, b.Used.Equal(days("10")))
	assert.True(t, b.LOPDays.Equal(days("4")))
	assert.True(t, b.Current().IsZero())
}

func TestService_Approve_EmployeeActorRejected(t *testing.T) {
	// GIVEN: A pending application
	// WHEN: The applicant tries to approve their own request
	// THEN: TransitionError; balance untouched

	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1", LeaveType: leave.LeaveCasual,
		StartDate: june(9), EndDate: june(10),
	})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, result.Application.ID, "emp-1")
	require.ErrorIs(t, err, leave.ErrInvalidTransition)

	_, err = mem.GetBalance(ctx, "emp-1", leave.LeaveCasual, 2025)
	assert.True(t, leave.IsNotFound(err), "no balance row should have been written")
}

func TestService_Reject_NoBalanceEffect(t *testing.T) {
	// GIVEN: A pending application
	// WHEN: A manager rejects it
	// THEN: Status rejected, reason stored, no balance row written

	svc, mem, rec := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1", LeaveType: leave.LeaveCasual,
		StartDate: june(9), EndDate: june(10),
	})
	require.NoError(t, err)

	app, err := svc.Reject(ctx, result.Application.ID, "mgr-1", "release week")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, app.Status)
	assert.Equal(t, "release week", app.RejectedReason)

	_, err = mem.GetBalance(ctx, "emp-1", leave.LeaveCasual, 2025)
	assert.True(t, leave.IsNotFound(err))

	// submitted + rejected
	require.Len(t, rec.events, 2)
	assert.Equal(t, leave.StatusRejected, rec.events[1].Decision)
}

func TestService_Cancel_ApprovedRevertsExactly(t *testing.T) {
	// GIVEN: An approved 10-day application with 4 LOP days
	// WHEN: The applicant cancels before the start date
	// THEN: Used and LOP return to zero

	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1", LeaveType: leave.LeaveCasual,
		StartDate: june(9), EndDate: june(20),
	})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, result.Application.ID, "mgr-1")
	require.NoError(t, err)

	app, err := svc.Cancel(ctx, result.Application.ID, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCancelled, app.Status)

	b, err := mem.GetBalance(ctx, "emp-1", leave.LeaveCasual, 2025)
	require.NoError(t, err)
	assert.True(t, b.Used.IsZero())
	assert.True(t, b.LOPDays.IsZero())
	assert.True(t, b.Current().Equal(days("6")))
}

func TestService_Cancel_PendingNoReversal(t *testing.T) {
	// GIVEN: A pending application (nothing committed)
	// WHEN: Cancelling
	// THEN: Cancelled without any balance write

	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1", LeaveType: leave.LeaveCasual,
		StartDate: june(9), EndDate: june(10),
	})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, result.Application.ID, "emp-1")
	require.NoError(t, err)

	_, err = mem.GetBalance(ctx, "emp-1", leave.LeaveCasual, 2025)
	assert.True(t, leave.IsNotFound(err))
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

// conflictStore injects version conflicts into the first n SaveBalance
// calls, simulating a concurrent writer.
type conflictStore struct {
	*store.Memory
	conflicts int
	calls     int
}

func (c *conflictStore) SaveBalance(ctx context.Context, b leave.Balance) error {
	c.calls++
	if c.calls <= c.conflicts {
		return leave.ErrConflict
	}
	return c.Memory.SaveBalance(ctx, b)
}

func TestService_Approve_RetriesOnConflict(t *testing.T) {
	// GIVEN: The first two balance writes lose their version race
	// WHEN: Approving
	// THEN: The third attempt succeeds; the committed usage is correct

	mem := store.NewMemory()
	seed(t, mem)
	cs := &conflictStore{Memory: mem, conflicts: 2}
	svc := leave.NewService(cs, nil).WithClock(func() time.Time { return testNow })
	ctx := context.Background()

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1", LeaveType: leave.LeaveCasual,
		StartDate: june(9), EndDate: june(10),
	})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, result.Application.ID, "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, 3, cs.calls)

	b, err := mem.GetBalance(ctx, "emp-1", leave.LeaveCasual, 2025)
	require.NoError(t, err)
	assert.True(t, b.Used.Equal(days("2")))
}

func TestService_Approve_ConflictExhaustionSurfaces(t *testing.T) {
	// GIVEN: Every balance write conflicts
	// WHEN: Approving
	// THEN: The error wraps ErrConflict after the retry budget; the
	//       application stays pending in the store

	mem := store.NewMemory()
	seed(t, mem)
	cs := &conflictStore{Memory: mem, conflicts: 100}
	svc := leave.NewService(cs, nil).WithClock(func() time.Time { return testNow })
	ctx := context.Background()

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1", LeaveType: leave.LeaveCasual,
		StartDate: june(9), EndDate: june(10),
	})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, result.Application.ID, "mgr-1")
	require.ErrorIs(t, err, leave.ErrConflict)
	assert.Equal(t, 3, cs.calls)

	stored, err := mem.GetApplication(ctx, result.Application.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, stored.Status)
}

// =============================================================================
// BALANCE VIEW TESTS
// =============================================================================

func TestService_Balances_InitializesAllTypes(t *testing.T) {
	// GIVEN: No persisted balance rows
	// WHEN: Reading balances for 2025
	// THEN: One row per balance-bearing type, accrued as of today

	svc, _, _ := newTestService(t)

	balances, err := svc.Balances(context.Background(), "emp-1", 2025)
	require.NoError(t, err)
	require.Len(t, balances, len(leave.BalanceLeaveTypes))

	byType := make(map[leave.LeaveType]leave.Balance)
	for _, b := range balances {
		byType[b.LeaveType] = b
	}
	// 6 accrual months at 1/month casual, 1.25/month vacation
	assert.True(t, byType[leave.LeaveCasual].Accrued.Equal(days("6")))
	assert.True(t, byType[leave.LeaveVacation].Accrued.Equal(days("7.5")))
	assert.True(t, byType[leave.LeaveCompOff].Accrued.IsZero())
}

func TestService_Balances_MissingPolicyIsAnError(t *testing.T) {
	// GIVEN: An employee whose employment type has no policy rows
	// WHEN: Reading balances for a year with nothing stored
	// THEN: Not-found surfaces instead of a zero-accrual row

	svc, mem, _ := newTestService(t)
	ctx := context.Background()
	mem.PutEmployee(leave.Employee{
		ID: "ctr-1", Name: "Dev", Role: leave.RoleEmployee,
		EmploymentType: leave.EmploymentType("contractor"),
		JoinDate:       leave.NewDate(2024, time.March, 1),
	})

	_, err := svc.Balances(ctx, "ctr-1", 2025)
	require.Error(t, err)
	assert.True(t, leave.IsNotFound(err))

	_, err = mem.GetBalance(ctx, "ctr-1", leave.LeaveCasual, 2025)
	assert.True(t, leave.IsNotFound(err))
}

func TestService_RefreshAccrual_Idempotent(t *testing.T) {
	// GIVEN: A balance refreshed to Sep 30
	// WHEN: Refreshing again with the same asOf
	// THEN: Same accrued figure, version advanced per write

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	asOf := leave.NewDate(2025, time.September, 30)

	first, err := svc.RefreshAccrual(ctx, "emp-1", leave.LeaveCasual, 2025, asOf)
	require.NoError(t, err)
	assert.True(t, first.Accrued.Equal(days("9")))

	second, err := svc.RefreshAccrual(ctx, "emp-1", leave.LeaveCasual, 2025, asOf)
	require.NoError(t, err)
	assert.True(t, second.Accrued.Equal(days("9")))
	assert.Equal(t, first.Version+1, second.Version)
}

// =============================================================================
// ROLLOVER TESTS
// =============================================================================

func TestService_Rollover_CarriesCapped(t *testing.T) {
	// GIVEN: 2025 vacation fully accrued (15) with 4 used, carry cap 5
	// WHEN: Rolling 2025 into 2026 as of Dec 31 2025
	// THEN: 2026 starts with carriedForward 5 and zero accrual

	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1", LeaveType: leave.LeaveVacation,
		StartDate: june(16), EndDate: june(19), // 7+ working days out
	})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, result.Application.ID, "mgr-1")
	require.NoError(t, err)

	require.NoError(t, svc.Rollover(ctx, "emp-1", leave.LeaveVacation, 2025, leave.EndOfYear(2025)))

	prev, err := mem.GetBalance(ctx, "emp-1", leave.LeaveVacation, 2025)
	require.NoError(t, err)
	assert.True(t, prev.Accrued.Equal(days("15")), "accrual finalized through Dec, got %s", prev.Accrued)
	assert.True(t, prev.Current().Equal(days("11")))

	next, err := mem.GetBalance(ctx, "emp-1", leave.LeaveVacation, 2026)
	require.NoError(t, err)
	assert.True(t, next.CarriedForward.Equal(days("5")))
	assert.True(t, next.Accrued.IsZero())
	assert.True(t, next.Used.IsZero())
}

func TestService_Rollover_Rerunnable(t *testing.T) {
	// GIVEN: A rollover already applied
	// WHEN: Running it again
	// THEN: carriedForward unchanged - assignment, not accumulation

	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Rollover(ctx, "emp-1", leave.LeaveVacation, 2025, leave.EndOfYear(2025)))
	require.NoError(t, svc.Rollover(ctx, "emp-1", leave.LeaveVacation, 2025, leave.EndOfYear(2025)))

	next, err := mem.GetBalance(ctx, "emp-1", leave.LeaveVacation, 2026)
	require.NoError(t, err)
	assert.True(t, next.CarriedForward.Equal(days("5")))
}

// =============================================================================
// COMP-OFF TESTS
// =============================================================================

func TestService_CompOff_ApprovalCreditsOneDay(t *testing.T) {
	// GIVEN: emp-1 worked Saturday June 7
	// WHEN: Claiming comp-off and a manager approving it
	// THEN: The comp_off balance gains one day for 2025

	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	intended := june(20)
	req, findings, err := svc.SubmitCompOff(ctx, "emp-1", june(7), &intended, "production incident")
	require.NoError(t, err)
	assert.Empty(t, findings)
	require.NotNil(t, req.CompOffDate)
	assert.True(t, req.CompOffDate.Equal(intended))

	_, err = svc.DecideCompOff(ctx, req.ID, "mgr-1", true, "")
	require.NoError(t, err)

	b, err := mem.GetBalance(ctx, "emp-1", leave.LeaveCompOff, 2025)
	require.NoError(t, err)
	assert.True(t, b.Opening.Equal(days("1")))
	assert.True(t, b.Current().Equal(days("1")))
}

func TestService_CompOff_WorkingDayRejected(t *testing.T) {
	// GIVEN: June 10 2025 is a Tuesday
	// WHEN: Claiming comp-off for it
	// THEN: ErrNotEligible; nothing persisted

	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	_, findings, err := svc.SubmitCompOff(ctx, "emp-1", june(10), nil, "")
	require.ErrorIs(t, err, leave.ErrNotEligible)
	require.NotEmpty(t, findings)
	assert.True(t, findings[0].Blocking)

	reqs, err := mem.ListCompOffs(ctx, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestService_CompOff_RejectionNoCredit(t *testing.T) {
	// GIVEN: A pending comp-off claim
	// WHEN: A manager rejects it
	// THEN: No balance row is written

	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	req, _, err := svc.SubmitCompOff(ctx, "emp-1", june(7), nil, "release weekend")
	require.NoError(t, err)

	_, err = svc.DecideCompOff(ctx, req.ID, "mgr-1", false, "not pre-approved")
	require.NoError(t, err)

	_, err = mem.GetBalance(ctx, "emp-1", leave.LeaveCompOff, 2025)
	assert.True(t, leave.IsNotFound(err))
}

// =============================================================================
// WFH TESTS
// =============================================================================

func TestService_WFH_NeverTouchesBalances(t *testing.T) {
	// GIVEN: A WFH request for Mon-Tue
	// WHEN: Submitting and approving it
	// THEN: TotalDays counts working days; no balance row exists after

	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.SubmitWFH(ctx, "emp-1", june(9), june(10), "plumber visit")
	require.NoError(t, err)
	assert.True(t, req.TotalDays.Equal(days("2")))

	decided, err := svc.DecideWFH(ctx, req.ID, "mgr-1", true, "")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, decided.Status)

	for _, lt := range leave.BalanceLeaveTypes {
		_, err := mem.GetBalance(ctx, "emp-1", lt, 2025)
		assert.True(t, leave.IsNotFound(err), "unexpected balance row for %s", lt)
	}
}

// =============================================================================
// NOTIFICATION TESTS
// =============================================================================

func TestService_NotifierFailureDoesNotFailOperation(t *testing.T) {
	// GIVEN: A notifier that always errors
	// WHEN: Submitting and approving
	// THEN: Both operations succeed regardless

	mem := store.NewMemory()
	seed(t, mem)
	rec := &eventRecorder{fail: true}
	svc := leave.NewService(mem, rec).WithClock(func() time.Time { return testNow })
	ctx := context.Background()

	result, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1", LeaveType: leave.LeaveCasual,
		StartDate: june(9), EndDate: june(10),
	})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, result.Application.ID, "mgr-1")
	require.NoError(t, err)
}
