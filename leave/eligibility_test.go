/*
eligibility_test.go - Submission rule tests

CORE SEMANTICS UNDER TEST:
- All rules run; findings come back in rule order
- Emergency bypasses advance notice ONLY
- LOP preview is informational, never blocking
- Overlap checks pending and approved applications, terminal ones ignored
*/
package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
)

func intPtr(v int) *int { return &v }

// vacation policy for full-time: 7 working days notice, 15-day cap
func vacationPolicy() leave.Policy {
	return leave.Policy{
		LeaveType:          leave.LeaveVacation,
		EmploymentType:     leave.FullTime,
		MonthlyAccrual:     days("1.25"),
		MaxCarryForward:    5,
		AdvanceNoticeDays:  7,
		MaxConsecutiveDays: intPtr(15),
	}
}

func evalInput(p leave.Policy) leave.EvaluationInput {
	return leave.EvaluationInput{
		Policy:    p,
		Today:     leave.NewDate(2025, time.January, 6), // Monday
		StartDate: leave.NewDate(2025, time.January, 20),
		EndDate:   leave.NewDate(2025, time.January, 22),
		Balance:   leave.Balance{Accrued: days("12")},
		Holidays:  leave.NewHolidaySet(nil),
	}
}

func findingCodes(findings []leave.Finding) []leave.FindingCode {
	codes := make([]leave.FindingCode, len(findings))
	for i, f := range findings {
		codes[i] = f.Code
	}
	return codes
}

// =============================================================================
// ADVANCE NOTICE TESTS
// =============================================================================

func TestEvaluate_AdvanceNoticeTooShort(t *testing.T) {
	// GIVEN: 7-day notice policy, today Mon Jan 6, start Fri Jan 10
	// THEN: Only 4 working days of notice - blocking finding

	in := evalInput(vacationPolicy())
	in.StartDate = leave.NewDate(2025, time.January, 10)
	in.EndDate = leave.NewDate(2025, time.January, 10)

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.Equal(t, []leave.FindingCode{leave.FindingAdvanceNotice}, findingCodes(findings))
	assert.False(t, leave.Eligible(findings))
}

func TestEvaluate_AdvanceNoticeExactlyMet(t *testing.T) {
	// GIVEN: 7-day notice policy, today Mon Jan 6, start Wed Jan 15
	// THEN: Exactly 7 working days of notice - eligible

	in := evalInput(vacationPolicy())
	in.StartDate = leave.NewDate(2025, time.January, 15)
	in.EndDate = leave.NewDate(2025, time.January, 15)

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestEvaluate_EmergencyBypassesNoticeOnly(t *testing.T) {
	// GIVEN: A short-notice emergency request starting on a Saturday
	// WHEN: Evaluating
	// THEN: Advance notice is waived but the weekend start still blocks

	in := evalInput(vacationPolicy())
	in.StartDate = leave.NewDate(2025, time.January, 11) // Saturday
	in.EndDate = leave.NewDate(2025, time.January, 13)
	in.IsEmergency = true

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.Equal(t, []leave.FindingCode{leave.FindingNonWorkingStart}, findingCodes(findings))
	assert.False(t, leave.Eligible(findings))
}

func TestEvaluate_SameDayPolicySkipsNotice(t *testing.T) {
	// GIVEN: Sick leave allows same-day application
	// WHEN: Applying for today
	// THEN: No advance-notice finding

	p := leave.Policy{
		LeaveType:      leave.LeaveSick,
		EmploymentType: leave.FullTime,
		MonthlyAccrual: days("1"),
		SameDayAllowed: true,
	}
	in := evalInput(p)
	in.StartDate = in.Today
	in.EndDate = in.Today

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

// =============================================================================
// START DATE TESTS
// =============================================================================

func TestEvaluate_HolidayStartBlocks(t *testing.T) {
	// GIVEN: The start date is a configured holiday
	// WHEN: Evaluating
	// THEN: Blocking non_working_start finding

	in := evalInput(vacationPolicy())
	in.Holidays = leave.NewHolidaySet([]leave.Holiday{
		{ID: "h1", Date: in.StartDate, Name: "republic day"},
	})

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.Contains(t, findingCodes(findings), leave.FindingNonWorkingStart)
}

func TestEvaluate_EndOnWeekendAllowed(t *testing.T) {
	// GIVEN: A range ending on a Saturday, starting mid-week
	// WHEN: Evaluating
	// THEN: Only the START date matters; no start-date finding

	in := evalInput(vacationPolicy())
	in.StartDate = leave.NewDate(2025, time.January, 23) // Thursday
	in.EndDate = leave.NewDate(2025, time.January, 25)   // Saturday

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.NotContains(t, findingCodes(findings), leave.FindingNonWorkingStart)
}

// =============================================================================
// LOP PREVIEW TESTS
// =============================================================================

func TestEvaluate_LOPPreviewDoesNotBlock(t *testing.T) {
	// GIVEN: 2 days current balance, a 5-working-day request
	// WHEN: Evaluating
	// THEN: A non-blocking loss_of_pay finding; still eligible

	in := evalInput(vacationPolicy())
	in.StartDate = leave.NewDate(2025, time.January, 20) // Mon
	in.EndDate = leave.NewDate(2025, time.January, 24)   // Fri
	in.Balance = leave.Balance{Accrued: days("2")}

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, leave.FindingLossOfPay, findings[0].Code)
	assert.False(t, findings[0].Blocking)
	assert.True(t, leave.Eligible(findings))
	assert.Contains(t, findings[0].Message, "3")
}

func TestEvaluate_ExactBalanceNoLOPFinding(t *testing.T) {
	// GIVEN: Current balance exactly equals the requested days
	// WHEN: Evaluating
	// THEN: No LOP finding

	in := evalInput(vacationPolicy())
	in.StartDate = leave.NewDate(2025, time.January, 20)
	in.EndDate = leave.NewDate(2025, time.January, 24)
	in.Balance = leave.Balance{Accrued: days("5")}

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

// =============================================================================
// DOCUMENT TESTS
// =============================================================================

func TestEvaluate_MissingDocumentsBlock(t *testing.T) {
	// GIVEN: Academic leave requires documents, none attached
	// WHEN: Evaluating (emergency or not)
	// THEN: Blocking documents_required finding

	p := vacationPolicy()
	p.LeaveType = leave.LeaveAcademic
	p.RequiresDocuments = true

	in := evalInput(p)
	in.IsEmergency = true // does not bypass documents

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.Contains(t, findingCodes(findings), leave.FindingDocuments)

	in.HasDocuments = true
	findings, err = leave.Evaluate(in)
	require.NoError(t, err)
	assert.NotContains(t, findingCodes(findings), leave.FindingDocuments)
}

// =============================================================================
// OVERLAP TESTS
// =============================================================================

func TestEvaluate_OverlapWithActiveApplication(t *testing.T) {
	// GIVEN: An approved application Jan 21-23
	// WHEN: Requesting Jan 20-22
	// THEN: Blocking overlap finding

	in := evalInput(vacationPolicy())
	in.Active = []leave.Application{{
		Status:    leave.StatusApproved,
		StartDate: leave.NewDate(2025, time.January, 21),
		EndDate:   leave.NewDate(2025, time.January, 23),
	}}

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.Contains(t, findingCodes(findings), leave.FindingOverlap)
}

func TestEvaluate_TerminalApplicationsIgnored(t *testing.T) {
	// GIVEN: A rejected and a cancelled application on the same dates
	// WHEN: Requesting those dates
	// THEN: No overlap finding

	in := evalInput(vacationPolicy())
	in.Active = []leave.Application{
		{Status: leave.StatusRejected, StartDate: in.StartDate, EndDate: in.EndDate},
		{Status: leave.StatusCancelled, StartDate: in.StartDate, EndDate: in.EndDate},
	}

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestEvaluate_AdjacentRangesDoNotOverlap(t *testing.T) {
	// GIVEN: An approved application ending the day before the new start
	// WHEN: Evaluating
	// THEN: No overlap finding

	in := evalInput(vacationPolicy())
	in.Active = []leave.Application{{
		Status:    leave.StatusApproved,
		StartDate: leave.NewDate(2025, time.January, 15),
		EndDate:   leave.NewDate(2025, time.January, 17),
	}}
	in.StartDate = leave.NewDate(2025, time.January, 20)
	in.EndDate = leave.NewDate(2025, time.January, 22)

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

// =============================================================================
// CONSECUTIVE DAYS TESTS
// =============================================================================

func TestEvaluate_MaxConsecutiveExceeded(t *testing.T) {
	// GIVEN: A 15-working-day cap, a 16-working-day request
	// WHEN: Evaluating
	// THEN: Blocking max_consecutive_days finding

	in := evalInput(vacationPolicy())
	in.StartDate = leave.NewDate(2025, time.February, 3) // Monday
	in.EndDate = leave.NewDate(2025, time.February, 24)  // 16 working days

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.Contains(t, findingCodes(findings), leave.FindingConsecutive)
}

// =============================================================================
// CONTRACT TESTS
// =============================================================================

func TestEvaluate_ZeroDatesAreContractViolations(t *testing.T) {
	// GIVEN: A zero start date
	// WHEN: Evaluating
	// THEN: InvariantViolation, not a finding

	in := evalInput(vacationPolicy())
	in.StartDate = leave.Date{}

	_, err := leave.Evaluate(in)
	require.Error(t, err)
	assert.True(t, leave.IsInvariantViolation(err))
}

func TestEvaluate_AllFindingsReported(t *testing.T) {
	// GIVEN: A request violating notice, documents, and balance at once
	// WHEN: Evaluating
	// THEN: Every finding is reported in rule order

	p := vacationPolicy()
	p.RequiresDocuments = true

	in := evalInput(p)
	in.StartDate = leave.NewDate(2025, time.January, 8) // 2 working days notice
	in.EndDate = leave.NewDate(2025, time.January, 10)
	in.Balance = leave.Balance{Accrued: days("1")}

	findings, err := leave.Evaluate(in)
	require.NoError(t, err)
	assert.Equal(t, []leave.FindingCode{
		leave.FindingAdvanceNotice,
		leave.FindingLossOfPay,
		leave.FindingDocuments,
	}, findingCodes(findings))
}
