package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/billing/store"
)

func testEntry(id, trainer, date string) billing.TimeEntry {
	return billing.TimeEntry{
		ID:      id,
		Trainer: trainer,
		Date:    billing.MustParseDate(date),
		Start:   billing.MustParseClockTime("18:00"),
		End:     billing.MustParseClockTime("19:30"),
		Sport:   "judo",
		Field:   "hall-1",
		Role:    billing.RoleTrainer,
	}
}

func TestMemory_EntryLifecycle(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.CreateEntry(ctx, testEntry("e1", "anna", "2025-03-10")))

	got, err := m.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "anna", got.Trainer)

	changed := testEntry("e1", "anna", "2025-03-11")
	require.NoError(t, m.UpdateEntry(ctx, changed))
	got, err = m.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", got.Date.String())

	require.NoError(t, m.DeleteEntry(ctx, "e1"))
	_, err = m.GetEntry(ctx, "e1")
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestMemory_UpdateMissingEntry(t *testing.T) {
	m := store.NewMemory()
	err := m.UpdateEntry(context.Background(), testEntry("ghost", "anna", "2025-03-10"))
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestMemory_ListEntries_FilterAndOrder(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	// insertion order deliberately scrambled
	require.NoError(t, m.CreateEntry(ctx, testEntry("e2", "anna", "2025-03-17")))
	require.NoError(t, m.CreateEntry(ctx, testEntry("e1", "anna", "2025-03-10")))
	require.NoError(t, m.CreateEntry(ctx, testEntry("e3", "ben", "2025-03-10")))
	require.NoError(t, m.CreateEntry(ctx, testEntry("e4", "anna", "2025-04-01")))

	got, err := m.ListEntries(ctx, "anna", 3, 2025)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "e2", got[1].ID)

	// zero values mean no filter
	all, err := m.ListEntries(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMemory_CorrectionsValidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	// cancellation without a reference must be rejected at the door
	err := m.CreateCorrection(ctx, billing.Correction{
		ID:      "c1",
		Kind:    billing.CorrectionCancellation,
		Trainer: "anna",
		Month:   3,
		Year:    2025,
	})
	assert.Error(t, err)

	require.NoError(t, m.CreateCorrection(ctx, billing.Correction{
		ID:      "c2",
		Kind:    billing.CorrectionCancellation,
		Trainer: "anna",
		Ref:     "e1",
		Month:   3,
		Year:    2025,
	}))

	got, err := m.ListCorrections(ctx, "anna", 3, 2025)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c2", got[0].ID)
}

func TestMemory_HolidaysDeduped(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	d := billing.MustParseDate("2025-04-18")
	require.NoError(t, m.AddHoliday(ctx, d))
	require.NoError(t, m.AddHoliday(ctx, d))

	got, err := m.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// =============================================================================
// STATEMENT UNIQUENESS - one active statement per (trainer, month, year)
// =============================================================================

func TestMemory_OneActiveStatementPerKey(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	first := billing.MonthlyStatement{
		ID: "s1", Trainer: "anna", Month: 3, Year: 2025, Status: billing.StatementDraft,
	}
	require.NoError(t, m.CreateStatement(ctx, first))

	// GIVEN: an active statement for the key
	// WHEN: creating a second one
	dup := first
	dup.ID = "s2"
	err := m.CreateStatement(ctx, dup)

	// THEN: rejected
	assert.ErrorIs(t, err, billing.ErrStatementExists)

	// WHEN: the first is voided
	require.NoError(t, m.UpdateStatementStatus(ctx, "s1", billing.StatementVoided))

	// THEN: the key is free again
	assert.NoError(t, m.CreateStatement(ctx, dup))

	// other keys were never affected
	otherMonth := first
	otherMonth.ID = "s3"
	otherMonth.Month = 4
	assert.NoError(t, m.CreateStatement(ctx, otherMonth))
}

func TestMemory_ReactivatingVoidedStatement_RespectsActiveKey(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	// GIVEN: s1 voided, s2 now active for the same key
	s1 := billing.MonthlyStatement{
		ID: "s1", Trainer: "anna", Month: 3, Year: 2025, Status: billing.StatementDraft,
	}
	require.NoError(t, m.CreateStatement(ctx, s1))
	require.NoError(t, m.UpdateStatementStatus(ctx, "s1", billing.StatementVoided))

	s2 := s1
	s2.ID = "s2"
	require.NoError(t, m.CreateStatement(ctx, s2))

	// WHEN: reviving s1
	err := m.UpdateStatementStatus(ctx, "s1", billing.StatementDraft)

	// THEN: rejected - two active statements per key would break the lock
	assert.ErrorIs(t, err, billing.ErrStatementExists)

	// voiding s2 frees the key, revival succeeds
	require.NoError(t, m.UpdateStatementStatus(ctx, "s2", billing.StatementVoided))
	assert.NoError(t, m.UpdateStatementStatus(ctx, "s1", billing.StatementDraft))
}
