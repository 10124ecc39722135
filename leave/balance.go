/*
balance.go - Accrual, usage, LOP, and carry-forward arithmetic

PURPOSE:
  A Balance is the per-(employee, leaveType, year) ledger row. This file
  owns all arithmetic that mutates one: Accrue (recompute, idempotent),
  CommitUsage (approval), RevertUsage (cancellation of an approval), and
  CarryForward (year rollover).

DERIVED BALANCE:
  Current() is never stored; it is always recomputed as

    max(0, opening + accrued + carriedForward - used)

  `used` tracks literal days consumed, even beyond nominal availability.
  The shortfall is Loss of Pay and is tracked in LOPDays - the balance
  itself floors at zero and never goes negative.

CONCURRENCY:
  Balance carries a Version token. Stores persist conditionally on an
  unchanged version and return ErrConflict otherwise; the service layer
  retries the whole read-modify-write (see service.go).

LOP ACCOUNTING:
  CommitUsage returns the LOP delta it applied so the application can
  record it. RevertUsage takes that recorded delta back, which keeps
  reversal exact even if policy or balance changed in between.
*/
package leave

import "github.com/shopspring/decimal"

// Balance is the ledger row for one (employee, leaveType, year).
// Created at the start of the tuple's life; never deleted, only
// superseded by the next year's row.
type Balance struct {
	EmployeeID     string
	LeaveType      LeaveType
	Year           int
	Opening        Days
	Accrued        Days
	Used           Days
	CarriedForward Days
	LOPDays        Days

	// Version is the optimistic concurrency token, bumped by the store
	// on every successful write.
	Version int64
}

// Available returns the nominal availability for the year:
// opening + accrued + carriedForward. Usage is not subtracted.
func (b Balance) Available() Days {
	return b.Opening.Add(b.Accrued).Add(b.CarriedForward)
}

// Current returns the spendable balance, floored at zero. Any usage
// beyond Available is LOP, not negative balance.
func (b Balance) Current() Days {
	current := b.Available().Sub(b.Used)
	if current.IsNegative() {
		return ZeroDays()
	}
	return current
}

// =============================================================================
// ACCRUAL
// =============================================================================

// MonthsWorked returns the whole accrual months between the anchor
// (the later of joinDate and Jan 1 of year) and the cutoff (the earlier
// of asOf and Dec 31 of year). A partial month counts as a full accrual
// month once the cutoff's day-of-month reaches the anchor's day-of-month,
// mirroring join-date anchoring.
func MonthsWorked(joinDate Date, year int, asOf Date) int {
	anchor := joinDate.Max(StartOfYear(year))
	cutoff := asOf.Min(EndOfYear(year))
	if cutoff.Before(anchor) {
		return 0
	}

	months := (cutoff.Year()-anchor.Year())*12 + int(cutoff.Month()) - int(anchor.Month())
	if cutoff.Day() >= anchor.Day() {
		months++
	}
	if months < 0 {
		return 0
	}
	return months
}

// Accrue recomputes the accrued field as monthlyAccrual x monthsWorked,
// rounded to one decimal. It is a recompute, not an increment: re-running
// with the same asOf yields the same result.
func (b *Balance) Accrue(monthlyAccrual Days, joinDate Date, asOf Date) {
	months := MonthsWorked(joinDate, b.Year, asOf)
	b.Accrued = Days{Value: monthlyAccrual.Value.Mul(decimal.NewFromInt(int64(months))).Round(1)}
}

// =============================================================================
// USAGE
// =============================================================================

// CommitUsage consumes requested days at approval time. Usage beyond
// Available becomes LOP; the balance floors at zero. Returns the LOP
// delta applied by this commit so the application can record it for an
// exact later reversal.
func (b *Balance) CommitUsage(requested Days) (Days, error) {
	if requested.IsNegative() {
		return ZeroDays(), &InvariantViolation{Op: "CommitUsage", Detail: "requested days negative: " + requested.String()}
	}

	available := b.Available()
	overflowBefore := b.Used.Sub(available).Max(ZeroDays())

	b.Used = b.Used.Add(requested)

	overflowAfter := b.Used.Sub(available).Max(ZeroDays())
	lopDelta := overflowAfter.Sub(overflowBefore)
	b.LOPDays = b.LOPDays.Add(lopDelta)
	return lopDelta, nil
}

// RevertUsage reverses exactly the deltas a previous CommitUsage applied:
// the requested days and the LOP portion recorded at approval time. A
// negative result means a double reversal and fails loudly.
func (b *Balance) RevertUsage(requested, lopPortion Days) error {
	if requested.IsNegative() || lopPortion.IsNegative() {
		return &InvariantViolation{Op: "RevertUsage", Detail: "negative reversal amounts"}
	}

	newUsed := b.Used.Sub(requested)
	newLOP := b.LOPDays.Sub(lopPortion)
	if newUsed.IsNegative() {
		return &InvariantViolation{Op: "RevertUsage", Detail: "used would go negative: " + newUsed.String()}
	}
	if newLOP.IsNegative() {
		return &InvariantViolation{Op: "RevertUsage", Detail: "lopDays would go negative: " + newLOP.String()}
	}

	b.Used = newUsed
	b.LOPDays = newLOP
	return nil
}

// =============================================================================
// CARRY-FORWARD
// =============================================================================

// CarryForward seeds the next year's carriedForward from this balance's
// remaining days, capped by policy. The next year's accrued and used are
// untouched; they start at zero and accrue independently. Idempotent by
// construction: it assigns rather than adds.
func (b Balance) CarryForward(next *Balance, cap int) {
	carry := b.Current().Min(NewDaysFromInt(cap))
	if carry.IsNegative() {
		carry = ZeroDays()
	}
	next.CarriedForward = carry
}
