/*
reconcile.go - Merging base entries and corrections into a priced ledger

PURPOSE:
  ReconcileMonth is the engine's main operation: it folds a month's base
  sessions and the period's corrections into a final signed list of priced
  line items plus a total. The fold is pure - no hidden state, no
  randomness - so re-running on identical inputs yields byte-identical
  line items and total.

CRITICAL INVARIANT - ADDITIVE, NEVER DESTRUCTIVE:
  Corrections never delete anything. A cancellation contributes a
  reversal line item with the negated amount of the original; the
  original's own base line item stays in the ledger. An amendment
  contributes a reversal plus a freshly priced replacement. The ledger is
  a complete audit trail.

PER-ENTRY FAILURES:
  A missing rate rule or a dangling correction reference aborts only that
  row: the failure is recorded on Issues and the batch continues. The
  caller decides whether issues abort the whole statement.

EMPTY PERIODS:
  Zero line items is a failure (ErrEmptyPeriod), not a zero-total
  statement.

SEE ALSO:
  - wage.go: per-entry pricing
  - lock.go: the statement lock that freezes reconciled periods
*/
package billing

import (
	"fmt"
	"sort"
)

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// ReconcileInput is an immutable snapshot of everything a reconciliation
// run needs. Entries may include sessions outside the requested month;
// only in-period entries produce base line items, but out-of-period
// entries remain visible as reversal targets (a February correction can
// reverse a January session).
type ReconcileInput struct {
	Trainer     string
	Month       int
	Year        int
	Entries     []TimeEntry
	Corrections []Correction
	Rates       []RateRule
	SetupMode   SetupMode
}

// Ledger is the reconciled result for one (trainer, month, year) key.
type Ledger struct {
	Trainer   string
	Month     int
	Year      int
	LineItems []LineItem
	Total     Money
	Issues    []Issue
}

// Issue records a per-row failure that did not abort the batch.
type Issue struct {
	SourceID string
	Err      error
}

func (i Issue) Error() string { return fmt.Sprintf("%s: %v", i.SourceID, i.Err) }

// =============================================================================
// RECONCILIATION
// =============================================================================

// ReconcileMonth merges base entries and corrections into a priced ledger.
func ReconcileMonth(in ReconcileInput) (*Ledger, error) {
	ledger := &Ledger{Trainer: in.Trainer, Month: in.Month, Year: in.Year}
	period := MonthPeriod(in.Month, in.Year)

	// Reversal targets: every known entry, in or out of period.
	byID := make(map[string]TimeEntry, len(in.Entries))
	for _, e := range in.Entries {
		byID[e.ID] = e
	}

	// 1. Base entries, deterministically ordered.
	base := make([]TimeEntry, 0, len(in.Entries))
	for _, e := range in.Entries {
		if e.Trainer == in.Trainer && period.Contains(e.Date) {
			base = append(base, e)
		}
	}
	sort.Slice(base, func(i, j int) bool {
		if !base[i].Date.Equal(base[j].Date) {
			return base[i].Date.Before(base[j].Date)
		}
		if base[i].Start != base[j].Start {
			return base[i].Start < base[j].Start
		}
		return base[i].ID < base[j].ID
	})

	for _, e := range base {
		p, err := PriceEntry(e, in.Rates, in.SetupMode)
		if err != nil {
			ledger.Issues = append(ledger.Issues, Issue{SourceID: e.ID, Err: err})
			continue
		}
		ledger.LineItems = append(ledger.LineItems, lineItemFrom(e, LineBase, "", p, ""))
	}

	// 2. Corrections assigned to this period, deterministically ordered.
	corrections := make([]Correction, 0, len(in.Corrections))
	for _, c := range in.Corrections {
		if c.Trainer == in.Trainer && c.Month == in.Month && c.Year == in.Year {
			corrections = append(corrections, c)
		}
	}
	sort.Slice(corrections, func(i, j int) bool {
		if !corrections[i].Date.Equal(corrections[j].Date) {
			return corrections[i].Date.Before(corrections[j].Date)
		}
		return corrections[i].ID < corrections[j].ID
	})

	for _, c := range corrections {
		if err := c.Validate(); err != nil {
			ledger.Issues = append(ledger.Issues, Issue{SourceID: c.ID, Err: err})
			continue
		}

		switch c.Kind {
		case CorrectionAddendum:
			p, err := PriceEntry(c.entry(), in.Rates, in.SetupMode)
			if err != nil {
				ledger.Issues = append(ledger.Issues, Issue{SourceID: c.ID, Err: err})
				continue
			}
			ledger.LineItems = append(ledger.LineItems, lineItemFrom(c.entry(), LineAddendum, "", p, c.Comment))

		case CorrectionCancellation:
			items, err := reverseOriginal(c, byID, in)
			if err != nil {
				ledger.Issues = append(ledger.Issues, Issue{SourceID: c.ID, Err: err})
				continue
			}
			ledger.LineItems = append(ledger.LineItems, items...)

		case CorrectionAmendment:
			items, err := reverseOriginal(c, byID, in)
			if err != nil {
				ledger.Issues = append(ledger.Issues, Issue{SourceID: c.ID, Err: err})
				continue
			}
			p, err := PriceEntry(c.entry(), in.Rates, in.SetupMode)
			if err != nil {
				ledger.Issues = append(ledger.Issues, Issue{SourceID: c.ID, Err: err})
				continue
			}
			replacement := lineItemFrom(c.entry(), LineAmendment, c.Ref, p, c.Comment)
			ledger.LineItems = append(ledger.LineItems, items...)
			ledger.LineItems = append(ledger.LineItems, replacement)
		}
	}

	if len(ledger.LineItems) == 0 {
		return nil, fmt.Errorf("%w: trainer %q %04d-%02d", ErrEmptyPeriod, in.Trainer, in.Year, in.Month)
	}

	// 3. Total. The only place two-decimal rounding happens.
	total := ZeroMoney()
	for _, li := range ledger.LineItems {
		total = total.Add(li.Amount)
	}
	ledger.Total = total.Round(2)

	return ledger, nil
}

// reverseOriginal prices the correction's referenced entry and emits a
// reversal line item with the negated amount. The original's base line
// item is untouched.
func reverseOriginal(c Correction, byID map[string]TimeEntry, in ReconcileInput) ([]LineItem, error) {
	orig, ok := byID[c.Ref]
	if !ok {
		return nil, &DanglingReferenceError{CorrectionID: c.ID, Kind: c.Kind, Ref: c.Ref}
	}
	p, err := PriceEntry(orig, in.Rates, in.SetupMode)
	if err != nil {
		return nil, err
	}
	rev := lineItemFrom(orig, LineReversal, orig.ID, p, c.Comment)
	rev.SourceID = c.ID
	rev.Hours = p.Hours.Neg()
	rev.Amount = p.Amount.Neg()
	return []LineItem{rev}, nil
}

func lineItemFrom(e TimeEntry, kind LineItemKind, ref string, p Priced, note string) LineItem {
	return LineItem{
		Kind:     kind,
		SourceID: e.ID,
		RefID:    ref,
		Trainer:  e.Trainer,
		Date:     e.Date,
		Sport:    e.Sport,
		Field:    e.Field,
		Start:    e.Start,
		End:      e.End,
		Role:     e.Role,
		Setup:    e.Setup,
		Hours:    p.Hours,
		Amount:   p.Amount,
		Note:     note,
	}
}
