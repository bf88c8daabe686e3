package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// FIXTURES
// =============================================================================

func marchRates() []billing.RateRule {
	return []billing.RateRule{
		rule(billing.RoleTrainer, "20.00", "10.00", "2025-01-01"),
		rule(billing.RoleAssistant, "12.00", "5.00", "2025-01-01"),
	}
}

func marchEntry(id, day, start, end string) billing.TimeEntry {
	return billing.TimeEntry{
		ID:      id,
		Trainer: "anna",
		Date:    billing.MustParseDate("2025-03-" + day),
		Start:   billing.MustParseClockTime(start),
		End:     billing.MustParseClockTime(end),
		Sport:   "judo",
		Field:   "hall-1",
		Role:    billing.RoleTrainer,
	}
}

func marchInput(entries []billing.TimeEntry, corrections []billing.Correction) billing.ReconcileInput {
	return billing.ReconcileInput{
		Trainer:     "anna",
		Month:       3,
		Year:        2025,
		Entries:     entries,
		Corrections: corrections,
		Rates:       marchRates(),
	}
}

// =============================================================================
// BASE LEDGER
// =============================================================================

func TestReconcileMonth_BaseEntriesOnly(t *testing.T) {
	// GIVEN: two plain March sessions, 1.5h each at 20.00/h
	in := marchInput([]billing.TimeEntry{
		marchEntry("e1", "10", "18:00", "19:30"),
		marchEntry("e2", "17", "18:00", "19:30"),
	}, nil)

	// WHEN
	ledger, err := billing.ReconcileMonth(in)

	// THEN
	require.NoError(t, err)
	require.Len(t, ledger.LineItems, 2)
	assert.Equal(t, billing.LineBase, ledger.LineItems[0].Kind)
	assert.Equal(t, "60", ledger.Total.String())
	assert.Empty(t, ledger.Issues)
}

func TestReconcileMonth_FiltersOtherTrainersAndMonths(t *testing.T) {
	other := marchEntry("e3", "12", "10:00", "11:00")
	other.Trainer = "ben"
	april := marchEntry("e4", "12", "10:00", "11:00")
	april.Date = billing.MustParseDate("2025-04-12")

	in := marchInput([]billing.TimeEntry{
		marchEntry("e1", "10", "18:00", "19:30"),
		other,
		april,
	}, nil)

	ledger, err := billing.ReconcileMonth(in)
	require.NoError(t, err)
	require.Len(t, ledger.LineItems, 1)
	assert.Equal(t, "e1", ledger.LineItems[0].SourceID)
}

func TestReconcileMonth_Idempotent(t *testing.T) {
	// GIVEN: an input with entries deliberately out of order
	in := marchInput([]billing.TimeEntry{
		marchEntry("e2", "17", "18:00", "19:30"),
		marchEntry("e1", "10", "18:00", "19:30"),
		marchEntry("e3", "10", "08:00", "09:00"),
	}, []billing.Correction{{
		ID:      "c1",
		Kind:    billing.CorrectionCancellation,
		Trainer: "anna",
		Ref:     "e2",
		Month:   3,
		Year:    2025,
	}})

	// WHEN: reconciling twice
	first, err := billing.ReconcileMonth(in)
	require.NoError(t, err)
	second, err := billing.ReconcileMonth(in)
	require.NoError(t, err)

	// THEN: identical line items, identical total
	assert.Equal(t, first, second)

	// AND: order is date, then start, then ID - not input order
	assert.Equal(t, "e3", first.LineItems[0].SourceID)
	assert.Equal(t, "e1", first.LineItems[1].SourceID)
	assert.Equal(t, "e2", first.LineItems[2].SourceID)
}

// =============================================================================
// CORRECTIONS - Always additive, never destructive
// =============================================================================

func TestReconcileMonth_CancellationKeepsOriginal(t *testing.T) {
	// GIVEN: one session and a cancellation referencing it
	in := marchInput(
		[]billing.TimeEntry{marchEntry("e1", "10", "18:00", "19:30")},
		[]billing.Correction{{
			ID:      "c1",
			Kind:    billing.CorrectionCancellation,
			Trainer: "anna",
			Ref:     "e1",
			Comment: "session did not take place",
			Month:   3,
			Year:    2025,
		}},
	)

	// WHEN
	ledger, err := billing.ReconcileMonth(in)

	// THEN: the base line item survives alongside the reversal
	require.NoError(t, err)
	require.Len(t, ledger.LineItems, 2)

	base, rev := ledger.LineItems[0], ledger.LineItems[1]
	assert.Equal(t, billing.LineBase, base.Kind)
	assert.Equal(t, billing.LineReversal, rev.Kind)
	assert.Equal(t, "c1", rev.SourceID)
	assert.Equal(t, "e1", rev.RefID)
	assert.Equal(t, "30", base.Amount.String())
	assert.Equal(t, "-30", rev.Amount.String())
	assert.Equal(t, "0", ledger.Total.String(), "pair must net to zero")
}

func TestReconcileMonth_AmendmentReversesAndReplaces(t *testing.T) {
	// GIVEN: a 1h session amended to 1.5h
	in := marchInput(
		[]billing.TimeEntry{marchEntry("e1", "10", "18:00", "19:00")},
		[]billing.Correction{{
			ID:      "c1",
			Kind:    billing.CorrectionAmendment,
			Trainer: "anna",
			Date:    billing.MustParseDate("2025-03-10"),
			Start:   billing.MustParseClockTime("18:00"),
			End:     billing.MustParseClockTime("19:30"),
			Sport:   "judo",
			Field:   "hall-1",
			Role:    billing.RoleTrainer,
			Ref:     "e1",
			Comment: "ran long",
			Month:   3,
			Year:    2025,
		}},
	)

	// WHEN
	ledger, err := billing.ReconcileMonth(in)

	// THEN: base +20, reversal -20, replacement +30 = net 30
	require.NoError(t, err)
	require.Len(t, ledger.LineItems, 3)
	assert.Equal(t, billing.LineBase, ledger.LineItems[0].Kind)
	assert.Equal(t, billing.LineReversal, ledger.LineItems[1].Kind)
	assert.Equal(t, billing.LineAmendment, ledger.LineItems[2].Kind)
	assert.Equal(t, "-20", ledger.LineItems[1].Amount.String())
	assert.Equal(t, "30", ledger.LineItems[2].Amount.String())
	assert.Equal(t, "e1", ledger.LineItems[2].RefID)
	assert.Equal(t, "30", ledger.Total.String())
}

func TestReconcileMonth_AddendumNeedsNoOriginal(t *testing.T) {
	in := marchInput(
		[]billing.TimeEntry{marchEntry("e1", "10", "18:00", "19:30")},
		[]billing.Correction{{
			ID:      "c1",
			Kind:    billing.CorrectionAddendum,
			Trainer: "anna",
			Date:    billing.MustParseDate("2025-03-24"),
			Start:   billing.MustParseClockTime("17:00"),
			End:     billing.MustParseClockTime("18:00"),
			Sport:   "judo",
			Field:   "hall-1",
			Role:    billing.RoleTrainer,
			Comment: "forgotten session",
			Month:   3,
			Year:    2025,
		}},
	)

	ledger, err := billing.ReconcileMonth(in)
	require.NoError(t, err)
	require.Len(t, ledger.LineItems, 2)
	assert.Equal(t, billing.LineAddendum, ledger.LineItems[1].Kind)
	assert.Equal(t, "50", ledger.Total.String())
}

func TestReconcileMonth_CrossMonthReference(t *testing.T) {
	// GIVEN: a January session reversed by a correction assigned to March
	january := marchEntry("e-jan", "10", "18:00", "19:30")
	january.Date = billing.MustParseDate("2025-01-10")

	in := marchInput(
		[]billing.TimeEntry{
			january,
			marchEntry("e1", "10", "18:00", "19:30"),
		},
		[]billing.Correction{{
			ID:      "c1",
			Kind:    billing.CorrectionCancellation,
			Trainer: "anna",
			Ref:     "e-jan",
			Month:   3,
			Year:    2025,
		}},
	)

	// WHEN
	ledger, err := billing.ReconcileMonth(in)

	// THEN: January produces no base line, but its reversal lands in March
	require.NoError(t, err)
	require.Len(t, ledger.LineItems, 2)
	assert.Equal(t, billing.LineReversal, ledger.LineItems[1].Kind)
	assert.Equal(t, "e-jan", ledger.LineItems[1].RefID)
	assert.Equal(t, "0", ledger.Total.String())
}

// =============================================================================
// PER-ROW FAILURES - Collected, never fatal to the batch
// =============================================================================

func TestReconcileMonth_DanglingReferenceBecomesIssue(t *testing.T) {
	in := marchInput(
		[]billing.TimeEntry{marchEntry("e1", "10", "18:00", "19:30")},
		[]billing.Correction{{
			ID:      "c1",
			Kind:    billing.CorrectionCancellation,
			Trainer: "anna",
			Ref:     "nope",
			Month:   3,
			Year:    2025,
		}},
	)

	ledger, err := billing.ReconcileMonth(in)
	require.NoError(t, err)
	require.Len(t, ledger.Issues, 1)
	assert.Equal(t, "c1", ledger.Issues[0].SourceID)
	assert.ErrorIs(t, ledger.Issues[0].Err, billing.ErrDanglingReference)

	// the healthy row still priced
	require.Len(t, ledger.LineItems, 1)
	assert.Equal(t, "30", ledger.Total.String())
}

func TestReconcileMonth_MissingRateBecomesIssue(t *testing.T) {
	// GIVEN: an assistant session but only a trainer rate on file
	assistant := marchEntry("e2", "11", "10:00", "11:00")
	assistant.Role = billing.RoleAssistant

	in := marchInput([]billing.TimeEntry{
		marchEntry("e1", "10", "18:00", "19:30"),
		assistant,
	}, nil)
	in.Rates = []billing.RateRule{rule(billing.RoleTrainer, "20.00", "10.00", "2025-01-01")}

	ledger, err := billing.ReconcileMonth(in)
	require.NoError(t, err)
	require.Len(t, ledger.Issues, 1)
	assert.Equal(t, "e2", ledger.Issues[0].SourceID)
	assert.ErrorIs(t, ledger.Issues[0].Err, billing.ErrRateNotFound)
	assert.Equal(t, "30", ledger.Total.String())
}

func TestReconcileMonth_InvalidCorrectionBecomesIssue(t *testing.T) {
	// GIVEN: an addendum that illegally carries a reference
	in := marchInput(
		[]billing.TimeEntry{marchEntry("e1", "10", "18:00", "19:30")},
		[]billing.Correction{{
			ID:      "c1",
			Kind:    billing.CorrectionAddendum,
			Trainer: "anna",
			Ref:     "e1",
			Month:   3,
			Year:    2025,
		}},
	)

	ledger, err := billing.ReconcileMonth(in)
	require.NoError(t, err)
	require.Len(t, ledger.Issues, 1)
	assert.Equal(t, "c1", ledger.Issues[0].SourceID)
}

// =============================================================================
// EMPTY PERIODS
// =============================================================================

func TestReconcileMonth_EmptyPeriod_Fails(t *testing.T) {
	in := marchInput(nil, nil)

	_, err := billing.ReconcileMonth(in)
	assert.ErrorIs(t, err, billing.ErrEmptyPeriod)
}

func TestReconcileMonth_AllRowsFailing_IsEmptyPeriod(t *testing.T) {
	// GIVEN: a single entry that cannot be priced
	in := marchInput([]billing.TimeEntry{marchEntry("e1", "10", "18:00", "19:30")}, nil)
	in.Rates = nil

	// WHEN / THEN: no line items at all is still an empty period
	_, err := billing.ReconcileMonth(in)
	assert.ErrorIs(t, err, billing.ErrEmptyPeriod)
}

// =============================================================================
// ROUNDING
// =============================================================================

func TestReconcileMonth_RoundsOnlyTheTotal(t *testing.T) {
	// GIVEN: a wage producing a repeating per-line amount: 40 min at 10.00/h
	in := marchInput([]billing.TimeEntry{
		marchEntry("e1", "10", "18:00", "18:40"),
		marchEntry("e2", "11", "18:00", "18:40"),
		marchEntry("e3", "12", "18:00", "18:40"),
	}, nil)
	in.Rates = []billing.RateRule{rule(billing.RoleTrainer, "10.00", "0.00", "2025-01-01")}

	// WHEN
	ledger, err := billing.ReconcileMonth(in)

	// THEN: 3 x 6.66... sums to exactly 20.00, which naive per-line
	// rounding (3 x 6.67 = 20.01) would miss
	require.NoError(t, err)
	assert.Equal(t, "20", ledger.Total.String())
}
