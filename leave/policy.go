/*
policy.go - Per-(leaveType, employmentType) policy table

PURPOSE:
  A Policy is the administrator-configured ruleset for one leave type and
  one employment type: how fast it accrues, how much rolls over, and what
  an application must satisfy. Policies are resolved once per evaluation
  through a single lookup, never branched on ad hoc.

IMMUTABILITY:
  A Policy value is immutable during a single evaluation. Administrators
  replace rows in the policy store; in-flight evaluations keep the value
  they resolved.

SEE ALSO:
  - eligibility.go: binds each policy field to a validation rule
  - balance.go: uses MonthlyAccrual and MaxCarryForward
*/
package leave

// PolicyKey identifies a policy row.
type PolicyKey struct {
	LeaveType      LeaveType
	EmploymentType EmploymentType
}

// Policy is the complete ruleset for one (leaveType, employmentType) pair.
type Policy struct {
	LeaveType      LeaveType
	EmploymentType EmploymentType

	// MonthlyAccrual is the accrual rate in days per employment month.
	MonthlyAccrual Days

	// MaxCarryForward caps the balance rolled into the next year.
	MaxCarryForward int

	// AdvanceNoticeDays is the minimum number of working days between
	// submission and the start date. Zero disables the check.
	AdvanceNoticeDays int

	// SameDayAllowed waives the advance-notice requirement entirely.
	SameDayAllowed bool

	// MaxConsecutiveDays caps a single request's working-day span.
	// nil means uncapped.
	MaxConsecutiveDays *int

	// RequiresDocuments mandates supporting documents at submission.
	RequiresDocuments bool
}

func (p Policy) Key() PolicyKey {
	return PolicyKey{LeaveType: p.LeaveType, EmploymentType: p.EmploymentType}
}

// =============================================================================
// POLICY TABLE
// =============================================================================

// PolicyTable resolves policies by key. It is a plain map wrapper so a
// snapshot loaded from the store can be consulted without further I/O.
type PolicyTable struct {
	policies map[PolicyKey]Policy
}

func NewPolicyTable(policies []Policy) PolicyTable {
	t := PolicyTable{policies: make(map[PolicyKey]Policy, len(policies))}
	for _, p := range policies {
		t.policies[p.Key()] = p
	}
	return t
}

// Lookup returns the policy for the key, if configured.
func (t PolicyTable) Lookup(lt LeaveType, et EmploymentType) (Policy, bool) {
	p, ok := t.policies[PolicyKey{LeaveType: lt, EmploymentType: et}]
	return p, ok
}

func (t PolicyTable) All() []Policy {
	out := make([]Policy, 0, len(t.policies))
	for _, p := range t.policies {
		out = append(out, p)
	}
	return out
}

// =============================================================================
// DEFAULT POLICIES
// =============================================================================

// DefaultPolicies returns the stock policy set administrators start from:
// casual leave with short notice, same-day sick leave, vacation with a week
// of notice, academic leave gated on documents, and comp-off credits.
// Interns and trainees accrue at reduced rates.
func DefaultPolicies() []Policy {
	intPtr := func(n int) *int { return &n }

	var out []Policy
	for _, et := range []EmploymentType{FullTime, Intern, Trainee} {
		scale := 1.0
		switch et {
		case Intern:
			scale = 0.5
		case Trainee:
			scale = 0.5
		}

		out = append(out,
			Policy{
				LeaveType:         LeaveCasual,
				EmploymentType:    et,
				MonthlyAccrual:    NewDays(1.0 * scale),
				MaxCarryForward:   0,
				AdvanceNoticeDays: 2,
			},
			Policy{
				LeaveType:       LeaveSick,
				EmploymentType:  et,
				MonthlyAccrual:  NewDays(1.0 * scale),
				MaxCarryForward: 0,
				SameDayAllowed:  true,
			},
			Policy{
				LeaveType:          LeaveVacation,
				EmploymentType:     et,
				MonthlyAccrual:     NewDays(1.25 * scale),
				MaxCarryForward:    5,
				AdvanceNoticeDays:  7,
				MaxConsecutiveDays: intPtr(15),
			},
			Policy{
				LeaveType:         LeaveAcademic,
				EmploymentType:    et,
				MonthlyAccrual:    NewDays(0.5 * scale),
				MaxCarryForward:   0,
				AdvanceNoticeDays: 7,
				RequiresDocuments: true,
			},
			Policy{
				// Comp-off balances are credited by approved comp-off
				// requests, not by monthly accrual.
				LeaveType:         LeaveCompOff,
				EmploymentType:    et,
				MonthlyAccrual:    ZeroDays(),
				MaxCarryForward:   0,
				AdvanceNoticeDays: 1,
			},
		)
	}
	return out
}
