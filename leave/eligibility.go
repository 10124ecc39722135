/*
eligibility.go - Submission validation

PURPOSE:
  The evaluator turns a candidate application into an ordered list of
  findings. Every rule runs - there is no short-circuiting - so the
  caller sees every problem at once. An empty list, or a list with only
  non-blocking findings, means the application is submittable.

RULES (fixed order, each yields zero or one finding):
  1. advance notice    blocking   skipped when sameDayAllowed or emergency
  2. weekend/holiday   blocking   about the START date only; the emergency
     start                        flag does NOT bypass it
  3. LOP preview       non-blocking  informational; computed with the same
                                     formula CommitUsage applies at approval
  4. documents         blocking   when the policy mandates them
  5. overlap           blocking   against the employee's pending/approved
                                  applications
  6. consecutive days  blocking   when the policy caps request length

EMERGENCY SEMANTICS:
  isEmergency bypasses rule 1 only. Weekend starts, missing documents,
  and overlaps block an emergency request all the same.

The evaluator is read-only and side-effect-free; it fails only on a
malformed input (a zero required date), which is a contract violation,
not a finding. An inverted date range is not an error - it simply counts
zero days.
*/
package leave

import (
	"fmt"
)

// =============================================================================
// FINDINGS
// =============================================================================

type FindingCode string

const (
	FindingAdvanceNotice   FindingCode = "advance_notice"
	FindingNonWorkingStart FindingCode = "non_working_start"
	FindingLossOfPay       FindingCode = "loss_of_pay"
	FindingDocuments       FindingCode = "documents_required"
	FindingOverlap         FindingCode = "overlap"
	FindingConsecutive     FindingCode = "max_consecutive_days"
)

// Finding is one validation result. Blocking findings stop submission;
// non-blocking findings are surfaced as warnings.
type Finding struct {
	Code     FindingCode
	Message  string
	Blocking bool
}

// Eligible reports whether no blocking finding is present.
func Eligible(findings []Finding) bool {
	for _, f := range findings {
		if f.Blocking {
			return false
		}
	}
	return true
}

// =============================================================================
// EVALUATION
// =============================================================================

// EvaluationInput bundles everything rule evaluation needs. Balance and
// Active are snapshots read by the caller; the evaluator performs no I/O.
type EvaluationInput struct {
	Policy       Policy
	StartDate    Date
	EndDate      Date
	Today        Date
	IsEmergency  bool
	HasDocuments bool
	Balance      Balance
	Holidays     HolidaySet

	// Active is the employee's pending and approved applications,
	// consulted by the overlap rule.
	Active []Application
}

// Evaluate runs every rule and returns the findings in rule order.
// It errors only on a zero required date.
func Evaluate(in EvaluationInput) ([]Finding, error) {
	if in.StartDate.IsZero() || in.EndDate.IsZero() || in.Today.IsZero() {
		return nil, &InvariantViolation{Op: "Evaluate", Detail: "start, end, and today dates are required"}
	}

	var findings []Finding
	appendIf := func(f *Finding) {
		if f != nil {
			findings = append(findings, *f)
		}
	}

	appendIf(checkAdvanceNotice(in))
	appendIf(checkWorkingStart(in))
	appendIf(checkBalance(in))
	appendIf(checkDocuments(in))
	appendIf(checkOverlap(in))
	appendIf(checkConsecutive(in))
	return findings, nil
}

// RequestedDays is the working-day count the application would consume.
// Exposed so submission records the same number the rules evaluated.
func RequestedDays(in EvaluationInput) Days {
	return NewDaysFromInt(CountWorkingDays(in.StartDate, in.EndDate, in.Holidays))
}

// =============================================================================
// RULES
// =============================================================================

func checkAdvanceNotice(in EvaluationInput) *Finding {
	p := in.Policy
	if p.AdvanceNoticeDays <= 0 || p.SameDayAllowed || in.IsEmergency {
		return nil
	}
	notice := WorkingDaysUntil(in.Today, in.StartDate, in.Holidays)
	if notice >= p.AdvanceNoticeDays {
		return nil
	}
	return &Finding{
		Code:     FindingAdvanceNotice,
		Message:  fmt.Sprintf("%s leave requires at least %d working days advance notice", p.LeaveType, p.AdvanceNoticeDays),
		Blocking: true,
	}
}

func checkWorkingStart(in EvaluationInput) *Finding {
	if IsWorkingDay(in.StartDate, in.Holidays) {
		return nil
	}
	return &Finding{
		Code:     FindingNonWorkingStart,
		Message:  "cannot start leave on a weekend or public holiday",
		Blocking: true,
	}
}

func checkBalance(in EvaluationInput) *Finding {
	requested := RequestedDays(in)
	current := in.Balance.Current()
	if !requested.GreaterThan(current) {
		return nil
	}
	lop := requested.Sub(current)
	return &Finding{
		Code:     FindingLossOfPay,
		Message:  fmt.Sprintf("will result in %s Loss of Pay days", lop),
		Blocking: false,
	}
}

func checkDocuments(in EvaluationInput) *Finding {
	if !in.Policy.RequiresDocuments || in.HasDocuments {
		return nil
	}
	return &Finding{
		Code:     FindingDocuments,
		Message:  fmt.Sprintf("%s leave requires supporting documents", in.Policy.LeaveType),
		Blocking: true,
	}
}

func checkOverlap(in EvaluationInput) *Finding {
	for i := range in.Active {
		a := &in.Active[i]
		if !a.Active() {
			continue
		}
		if a.Overlaps(in.StartDate, in.EndDate) {
			return &Finding{
				Code:     FindingOverlap,
				Message:  fmt.Sprintf("overlaps an existing %s application (%s to %s)", a.Status, a.StartDate, a.EndDate),
				Blocking: true,
			}
		}
	}
	return nil
}

func checkConsecutive(in EvaluationInput) *Finding {
	cap := in.Policy.MaxConsecutiveDays
	if cap == nil {
		return nil
	}
	requested := CountWorkingDays(in.StartDate, in.EndDate, in.Holidays)
	if requested <= *cap {
		return nil
	}
	return &Finding{
		Code:     FindingConsecutive,
		Message:  fmt.Sprintf("%s leave is limited to %d consecutive working days per request", in.Policy.LeaveType, *cap),
		Blocking: true,
	}
}
