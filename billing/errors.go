/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error kinds in one place. Callers branch with errors.Is; the
  structured types carry enough context to report a per-entry failure
  without aborting the whole batch.

ERROR CATEGORIES:
  1. Pricing errors   - no applicable rate, bad time ranges
  2. Ledger errors    - dangling correction references, empty periods
  3. Boundary errors  - locked periods, missing records (storage layer)

PROPAGATION:
  Everything is a returned, typed error. Nothing in this engine retries:
  every operation is pure, so retrying belongs to the I/O boundary.
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRateNotFound is returned when no rate rule qualifies for a
	// role/date. Pricing must abort for that entry; a silent zero-rate
	// substitute is forbidden.
	ErrRateNotFound = errors.New("no applicable rate rule")

	// ErrDanglingReference is returned when a cancellation or amendment
	// references an entry that does not exist.
	ErrDanglingReference = errors.New("correction references unknown entry")

	// ErrEmptyPeriod is returned when reconciliation produces no line
	// items. An empty statement is never issued.
	ErrEmptyPeriod = errors.New("no billable entries for period")

	// ErrInvalidTimeRange is returned for malformed clock times and for
	// start == end, which has no duration under wraparound semantics.
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrUnknownCorrectionKind is returned for a correction whose kind is
	// not one of the closed variants.
	ErrUnknownCorrectionKind = errors.New("unknown correction kind")

	// ErrPeriodLocked is returned by the CRUD boundary when a base entry
	// for a locked (trainer, month, year) key would be mutated.
	ErrPeriodLocked = errors.New("billing period is locked by an existing statement")

	// ErrNotFound is returned by stores for missing records.
	ErrNotFound = errors.New("record not found")

	// ErrStatementExists is returned by stores when an active statement
	// already exists for a (trainer, month, year) key.
	ErrStatementExists = errors.New("active statement already exists for period")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RateNotFoundError reports which role/date had no applicable rate rule.
type RateNotFoundError struct {
	Role Role
	Date Date
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("no applicable rate rule for role %q on %s", e.Role, e.Date)
}

func (e *RateNotFoundError) Unwrap() error { return ErrRateNotFound }

// DanglingReferenceError reports a cancellation/amendment whose referenced
// original entry does not exist.
type DanglingReferenceError struct {
	CorrectionID string
	Kind         CorrectionKind
	Ref          string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("%s %s references unknown entry %q", e.Kind, e.CorrectionID, e.Ref)
}

func (e *DanglingReferenceError) Unwrap() error { return ErrDanglingReference }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid input rather
// than an engine or storage fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTimeRange) ||
		errors.Is(err, ErrUnknownCorrectionKind) ||
		errors.Is(err, ErrDanglingReference) ||
		errors.Is(err, ErrPeriodLocked) ||
		errors.Is(err, ErrStatementExists)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
