/*
Package billing provides the club billing reconciliation engine.

PURPOSE:
  This package contains the types and algorithms that turn a trainer's raw
  logged sessions plus later corrections into a priced, signed ledger for a
  given month. Pricing, rate resolution, reconciliation, and the statement
  lock predicate all live here. Everything is a pure transform over
  immutable input snapshots supplied by the caller.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A monetary amount backed by decimal.Decimal
  - TimeEntry: One logged training session
  - RateRule: A time-versioned wage entry (role, hourly wage, setup bonus)
  - Correction: A later adjustment (addendum / cancellation / amendment)
  - LineItem: One priced row of a reconciled ledger
  - MonthlyStatement: The issued statement that locks a billing period

DESIGN PRINCIPLES:
  1. Immutability: Ledger entries are never modified, only reversed
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Closed variants: Correction kinds are compiler-checked tags, not
     optional fields on a loose record
  4. Auditability: Corrections are additive; originals stay in the ledger

SEE ALSO:
  - duration.go: Wall-clock arithmetic with midnight wraparound
  - rates.go:    Rate resolution from the versioned rate table
  - reconcile.go: Merging base entries and corrections into a ledger
  - lock.go:     Statement lock gate predicate
*/
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Monetary amount (club currency, two decimals at aggregation only)
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money       { return Money{Value: decimal.NewFromFloat(value)} }
func NewMoneyFromInt(value int) Money    { return Money{Value: decimal.NewFromInt(int64(value))} }
func ZeroMoney() Money                   { return Money{Value: decimal.Zero} }

func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{Value: d}, nil
}

// MustParseMoney is for literals in tests and fixtures.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(o Money) Money               { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money               { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money                      { return Money{Value: m.Value.Neg()} }
func (m Money) MulDecimal(d decimal.Decimal) Money { return Money{Value: m.Value.Mul(d)} }
func (m Money) Round(places int32) Money        { return Money{Value: m.Value.Round(places)} }
func (m Money) Equal(o Money) bool              { return m.Value.Equal(o.Value) }
func (m Money) IsZero() bool                    { return m.Value.IsZero() }
func (m Money) IsNegative() bool                { return m.Value.IsNegative() }
func (m Money) String() string                  { return m.Value.String() }

// =============================================================================
// ROLE - Session function (matching is always case-insensitive)
// =============================================================================

type Role string

const (
	RoleTrainer   Role = "trainer"
	RoleAssistant Role = "assistant"
)

// =============================================================================
// TIME ENTRY - One logged training session
// =============================================================================

// TimeEntry is one logged training shift. Base entries become immutable to
// the CRUD layer once a statement locks their (trainer, month) pair; the
// lock predicate is in lock.go, enforcement belongs to the caller.
type TimeEntry struct {
	ID      string
	Trainer string
	Date    Date
	Start   ClockTime
	End     ClockTime
	Sport   string
	Field   string
	Role    Role
	Setup   bool
}

// =============================================================================
// RATE RULE - Time-versioned wage table entry
// =============================================================================

// RateRule prices sessions for a role from EffectiveFrom onward. Multiple
// rules may exist per role; the rule with the latest EffectiveFrom not
// after the session date applies (see rates.go).
type RateRule struct {
	Role          Role
	HourlyWage    Money
	SetupBonus    Money
	EffectiveFrom Date
}

// =============================================================================
// CORRECTION - Closed tagged variant for billing-period adjustments
// =============================================================================

type CorrectionKind string

const (
	// CorrectionAddendum is a brand-new entry added to the ledger. No Ref.
	CorrectionAddendum CorrectionKind = "addendum"

	// CorrectionCancellation reverses a previously priced entry. Requires Ref.
	CorrectionCancellation CorrectionKind = "cancellation"

	// CorrectionAmendment reverses the original and adds a replacement
	// priced from the correction's own fields. Requires Ref.
	CorrectionAmendment CorrectionKind = "amendment"
)

// Correction adjusts a billing period after the fact. Month/Year assign the
// correction to a period, which may differ from the session date (a January
// session corrected in February still lands on the February statement).
type Correction struct {
	ID      string
	Kind    CorrectionKind
	Trainer string
	Date    Date
	Start   ClockTime
	End     ClockTime
	Sport   string
	Field   string
	Role    Role
	Setup   bool
	Ref     string // original TimeEntry ID; required for cancellation/amendment
	Comment string
	Month   int
	Year    int
}

// Validate enforces the per-kind reference invariant.
func (c Correction) Validate() error {
	switch c.Kind {
	case CorrectionAddendum:
		if c.Ref != "" {
			return fmt.Errorf("addendum %s must not reference an original entry", c.ID)
		}
	case CorrectionCancellation, CorrectionAmendment:
		if c.Ref == "" {
			return fmt.Errorf("%s %s requires a reference to an original entry", c.Kind, c.ID)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCorrectionKind, c.Kind)
	}
	return nil
}

// entry views the correction's own fields as a TimeEntry for pricing.
func (c Correction) entry() TimeEntry {
	return TimeEntry{
		ID:      c.ID,
		Trainer: c.Trainer,
		Date:    c.Date,
		Start:   c.Start,
		End:     c.End,
		Sport:   c.Sport,
		Field:   c.Field,
		Role:    c.Role,
		Setup:   c.Setup,
	}
}

// =============================================================================
// LINE ITEM - One priced row of a reconciled ledger
// =============================================================================

type LineItemKind string

const (
	LineBase      LineItemKind = "base"
	LineAddendum  LineItemKind = "addendum"
	LineReversal  LineItemKind = "reversal"
	LineAmendment LineItemKind = "amendment"
)

type LineItem struct {
	Kind     LineItemKind
	SourceID string // TimeEntry or Correction ID this row was priced from
	RefID    string // for reversal/amendment: the original TimeEntry ID
	Trainer  string
	Date     Date
	Sport    string
	Field    string
	Start    ClockTime
	End      ClockTime
	Role     Role
	Setup    bool
	Hours    decimal.Decimal
	Amount   Money
	Note     string
}

// =============================================================================
// MONTHLY STATEMENT - Issued statement for a (trainer, month, year) key
// =============================================================================

type StatementStatus string

const (
	StatementDraft    StatementStatus = "draft"
	StatementIssued   StatementStatus = "issued"
	StatementApproved StatementStatus = "approved"
	StatementPaid     StatementStatus = "paid"
	StatementVoided   StatementStatus = "voided"
)

// Active reports whether the statement locks its billing period.
func (s StatementStatus) Active() bool {
	switch s {
	case StatementDraft, StatementIssued, StatementApproved, StatementPaid:
		return true
	}
	return false
}

// Valid reports whether s is a known status value.
func (s StatementStatus) Valid() bool {
	return s.Active() || s == StatementVoided
}

// MonthlyStatement records the issued result of a reconciliation run.
// SetupMode is persisted so later re-reconciliations (exports, audits)
// price setup compensation exactly as the issued statement did.
type MonthlyStatement struct {
	ID          string
	Trainer     string
	Month       int
	Year        int
	Status      StatementStatus
	Total       Money
	SetupMode   SetupMode
	DocumentRef string
	CreatedAt   Date
}

// =============================================================================
// STANDARD SCHEDULE + HOLIDAYS - Conflict signals, never authoritative
// =============================================================================

// ScheduleRule is the expected weekly slot for a sport. Used only by the
// conflict detector as a deviation signal; pricing never reads it.
// Validity window is half-open: [ValidFrom, ValidTo).
type ScheduleRule struct {
	Sport     string
	Weekday   int // 0 = Sunday ... 6 = Saturday
	Start     ClockTime
	End       ClockTime
	ValidFrom Date
	ValidTo   *Date // nil = open-ended
}

// Covers reports whether the rule's validity window contains the date.
func (r ScheduleRule) Covers(d Date) bool {
	if d.Before(r.ValidFrom) {
		return false
	}
	if r.ValidTo != nil && !d.Before(*r.ValidTo) {
		return false
	}
	return true
}

// HolidaySet is a set of non-training days, keyed by ISO date.
type HolidaySet map[string]struct{}

func NewHolidaySet(dates ...Date) HolidaySet {
	s := make(HolidaySet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

func (s HolidaySet) Add(d Date)           { s[d.String()] = struct{}{} }
func (s HolidaySet) Contains(d Date) bool { _, ok := s[d.String()]; return ok }
