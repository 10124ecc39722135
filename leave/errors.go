/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error types in one place. Validation findings are NOT errors - the
  evaluator returns them as data (see eligibility.go). Errors here cover
  the remaining taxonomy:

    ErrNotFound           Referenced row missing - fatal to the operation
    ErrConflict           Optimistic write lost the race - retried, then surfaced
    ErrInvalidTransition  State machine guard rejected a transition
    InvariantViolation    Programming-contract break - fails loudly, never clamps

USAGE:
  Callers branch with errors.Is / errors.As:

    if errors.Is(err, leave.ErrConflict) { retry() }

  InvariantViolation deliberately has no recovery path. A negative `used`
  after a revert means a double-reversal bug; clamping would mask it.
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced employee, policy, balance,
	// or application row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an optimistic balance write lost the
	// race. Mutating operations retry a bounded number of times before
	// surfacing it.
	ErrConflict = errors.New("concurrent modification detected")

	// ErrInvalidTransition is returned when a state-machine guard rejects
	// a transition (wrong current status, missing reason, past start date,
	// insufficient actor role).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotEligible is returned by Submit when blocking findings remain.
	// The findings themselves travel alongside, as data.
	ErrNotEligible = errors.New("application is not eligible")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InvariantViolation marks a broken engine contract: negative totalDays,
// used or LOP going negative after a revert, a nil required date. These are
// bugs in the caller or the engine, never user input problems.
type InvariantViolation struct {
	Op     string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Detail)
}

// TransitionError carries the rejected transition's context.
type TransitionError struct {
	ApplicationID string
	From          Status
	To            Status
	Reason        string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition application %s from %s to %s: %s",
		e.ApplicationID, e.From, e.To, e.Reason)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// NotFoundError identifies which row was missing.
type NotFoundError struct {
	Kind string // "employee", "policy", "balance", "application"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the operation might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound returns true if the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvariantViolation returns true for engine-contract breaks.
func IsInvariantViolation(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}
