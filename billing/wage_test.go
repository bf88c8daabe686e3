package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/billing-engine/billing"
)

func session(start, end string, setup bool) billing.TimeEntry {
	return billing.TimeEntry{
		ID:      "e1",
		Trainer: "anna",
		Date:    billing.MustParseDate("2025-03-10"),
		Start:   billing.MustParseClockTime(start),
		End:     billing.MustParseClockTime(end),
		Sport:   "judo",
		Field:   "hall-1",
		Role:    billing.RoleTrainer,
		Setup:   setup,
	}
}

func TestPriceEntry_PlainSession(t *testing.T) {
	// GIVEN: 18:00-19:30 at 20.00/h, no setup
	rules := []billing.RateRule{rule(billing.RoleTrainer, "20.00", "10.00", "2025-01-01")}

	// WHEN
	p, err := billing.PriceEntry(session("18:00", "19:30", false), rules, billing.SetupFlatBonus)

	// THEN: 1.5h x 20.00 = 30.00
	require.NoError(t, err)
	assert.Equal(t, "1.5", p.Hours.String())
	assert.Equal(t, "30", p.Amount.String())
}

func TestPriceEntry_SetupFlatBonus(t *testing.T) {
	// GIVEN: same session with setup, flat-bonus mode
	rules := []billing.RateRule{rule(billing.RoleTrainer, "20.00", "10.00", "2025-01-01")}

	// WHEN
	p, err := billing.PriceEntry(session("18:00", "19:30", true), rules, billing.SetupFlatBonus)

	// THEN: hours unchanged, bonus added once
	require.NoError(t, err)
	assert.Equal(t, "1.5", p.Hours.String())
	assert.Equal(t, "40", p.Amount.String(), "30.00 + 10.00 flat setup bonus")
}

func TestPriceEntry_SetupExtraHalfHour_AcrossMidnight(t *testing.T) {
	// GIVEN: 23:00-00:30 with setup, extra-half-hour mode
	rules := []billing.RateRule{rule(billing.RoleTrainer, "20.00", "10.00", "2025-01-01")}

	// WHEN
	p, err := billing.PriceEntry(session("23:00", "00:30", true), rules, billing.SetupExtraHalfHour)

	// THEN: 1.5h wrapped + 0.5h setup = 2.0h x 20.00 = 40.00, no flat bonus
	require.NoError(t, err)
	assert.Equal(t, "2", p.Hours.String())
	assert.Equal(t, "40", p.Amount.String())
}

func TestPriceEntry_SetupModesAreExclusive(t *testing.T) {
	rules := []billing.RateRule{rule(billing.RoleTrainer, "20.00", "10.00", "2025-01-01")}
	entry := session("18:00", "19:30", true)

	flat, err := billing.PriceEntry(entry, rules, billing.SetupFlatBonus)
	require.NoError(t, err)
	extra, err := billing.PriceEntry(entry, rules, billing.SetupExtraHalfHour)
	require.NoError(t, err)

	// flat: 30 + 10 = 40; extra: 2.0h x 20 = 40. Equal here by coincidence
	// of the fixture, but hours must differ - the modes never stack.
	assert.Equal(t, "1.5", flat.Hours.String())
	assert.Equal(t, "2", extra.Hours.String())
	assert.True(t, flat.Amount.Equal(extra.Amount))
}

func TestPriceEntry_ZeroModeDefaultsToFlatBonus(t *testing.T) {
	rules := []billing.RateRule{rule(billing.RoleTrainer, "20.00", "10.00", "2025-01-01")}

	p, err := billing.PriceEntry(session("18:00", "19:30", true), rules, "")
	require.NoError(t, err)
	assert.Equal(t, "40", p.Amount.String())
}

func TestPriceEntry_SetupWithoutRate_Fails(t *testing.T) {
	_, err := billing.PriceEntry(session("18:00", "19:30", true), nil, billing.SetupFlatBonus)
	assert.ErrorIs(t, err, billing.ErrRateNotFound)
}

func TestPriceEntry_InvalidRange_Fails(t *testing.T) {
	rules := []billing.RateRule{rule(billing.RoleTrainer, "20.00", "10.00", "2025-01-01")}
	_, err := billing.PriceEntry(session("10:00", "10:00", false), rules, billing.SetupFlatBonus)
	assert.ErrorIs(t, err, billing.ErrInvalidTimeRange)
}
