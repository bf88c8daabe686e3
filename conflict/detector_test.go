package conflict_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/billing-engine/billing"
	"github.com/warp/billing-engine/conflict"
)

// 2025-03-10 is a Monday.
func entry(id, trainer, start, end, sport, field string, role billing.Role) billing.TimeEntry {
	return billing.TimeEntry{
		ID:      id,
		Trainer: trainer,
		Date:    billing.MustParseDate("2025-03-10"),
		Start:   billing.MustParseClockTime(start),
		End:     billing.MustParseClockTime(end),
		Sport:   sport,
		Field:   field,
		Role:    role,
	}
}

func TestFind_NoConflicts(t *testing.T) {
	a := entry("e1", "anna", "18:00", "19:30", "judo", "hall-1", billing.RoleTrainer)
	b := entry("e2", "ben", "19:30", "21:00", "judo", "hall-1", billing.RoleTrainer)

	got := conflict.Find(a, []billing.TimeEntry{a, b}, nil, nil)
	assert.Empty(t, got, "back-to-back slots do not overlap")
}

func TestFind_SelfIsExcluded(t *testing.T) {
	a := entry("e1", "anna", "18:00", "19:30", "judo", "hall-1", billing.RoleTrainer)

	got := conflict.Find(a, []billing.TimeEntry{a}, nil, nil)
	assert.Empty(t, got, "an entry never conflicts with itself")
}

func TestFind_ExactDuplicate(t *testing.T) {
	// GIVEN: the same session entered twice under different IDs
	a := entry("e1", "anna", "18:00", "19:30", "judo", "hall-1", billing.RoleTrainer)
	b := entry("e2", "anna", "18:00", "19:30", "judo", "hall-1", billing.RoleTrainer)

	got := conflict.Find(a, []billing.TimeEntry{a, b}, nil, nil)
	assert.Contains(t, got, conflict.WarnDuplicate)
}

func TestFind_DifferentSportSameField(t *testing.T) {
	a := entry("e1", "anna", "18:00", "19:30", "judo", "hall-1", billing.RoleTrainer)
	b := entry("e2", "ben", "19:00", "20:30", "karate", "hall-1", billing.RoleAssistant)

	got := conflict.Find(a, []billing.TimeEntry{a, b}, nil, nil)
	assert.Equal(t, []string{conflict.WarnFieldSport}, got,
		"assistant counterpart flags the sport clash but not two lead trainers")
}

func TestFind_TwoLeadTrainers_Symmetric(t *testing.T) {
	// GIVEN: two lead trainers, same sport, overlapping on one field
	a := entry("e1", "anna", "18:00", "19:30", "judo", "hall-1", billing.RoleTrainer)
	b := entry("e2", "ben", "19:00", "20:30", "judo", "hall-1", billing.RoleTrainer)
	all := []billing.TimeEntry{a, b}

	// THEN: the warning fires from either side
	assert.Contains(t, conflict.Find(a, all, nil, nil), conflict.WarnTwoTrainers)
	assert.Contains(t, conflict.Find(b, all, nil, nil), conflict.WarnTwoTrainers)
}

func TestFind_OverlapAcrossMidnight(t *testing.T) {
	// GIVEN: a wrapped session 23:00-00:30 and one starting 23:30
	a := entry("e1", "anna", "23:00", "00:30", "judo", "hall-1", billing.RoleTrainer)
	b := entry("e2", "ben", "23:30", "23:59", "karate", "hall-1", billing.RoleTrainer)

	got := conflict.Find(a, []billing.TimeEntry{a, b}, nil, nil)
	assert.Contains(t, got, conflict.WarnFieldSport)
	assert.Contains(t, got, conflict.WarnTwoTrainers)
}

func TestFind_OtherFieldNeverOverlapConflicts(t *testing.T) {
	a := entry("e1", "anna", "18:00", "19:30", "judo", "hall-1", billing.RoleTrainer)
	b := entry("e2", "ben", "18:00", "19:30", "karate", "hall-2", billing.RoleTrainer)

	got := conflict.Find(a, []billing.TimeEntry{a, b}, nil, nil)
	assert.Empty(t, got)
}

func TestFind_PerCounterpartEmission(t *testing.T) {
	// GIVEN: two separate counterparts each clashing on the same field
	a := entry("e1", "anna", "18:00", "20:00", "judo", "hall-1", billing.RoleTrainer)
	b := entry("e2", "ben", "18:00", "19:00", "karate", "hall-1", billing.RoleAssistant)
	c := entry("e3", "cleo", "19:00", "20:00", "soccer", "hall-1", billing.RoleAssistant)

	// THEN: one warning per offending counterpart
	got := conflict.Find(a, []billing.TimeEntry{a, b, c}, nil, nil)
	assert.Equal(t, []string{conflict.WarnFieldSport, conflict.WarnFieldSport}, got)
}

func TestFind_Holiday(t *testing.T) {
	a := entry("e1", "anna", "18:00", "19:30", "judo", "hall-1", billing.RoleTrainer)

	holidays := billing.HolidaySet{}
	holidays.Add(billing.MustParseDate("2025-03-10"))

	got := conflict.Find(a, []billing.TimeEntry{a}, holidays, nil)
	assert.Equal(t, []string{conflict.WarnHoliday}, got)
}

// =============================================================================
// STANDARD SCHEDULE DEVIATION
// =============================================================================

func mondayJudo(start, end string) billing.ScheduleRule {
	return billing.ScheduleRule{
		Sport:     "judo",
		Weekday:   1, // Monday
		Start:     billing.MustParseClockTime(start),
		End:       billing.MustParseClockTime(end),
		ValidFrom: billing.MustParseDate("2025-01-01"),
	}
}

func TestFind_ScheduleDeviation(t *testing.T) {
	// GIVEN: judo is scheduled Mondays 18:00-19:30, session runs 17:00-18:30
	a := entry("e1", "anna", "17:00", "18:30", "judo", "hall-1", billing.RoleTrainer)
	rules := []billing.ScheduleRule{mondayJudo("18:00", "19:30")}

	got := conflict.Find(a, []billing.TimeEntry{a}, nil, rules)
	assert.Equal(t, []string{conflict.WarnScheduleDrift}, got)
}

func TestFind_MatchingScheduleIsQuiet(t *testing.T) {
	a := entry("e1", "anna", "18:00", "19:30", "judo", "hall-1", billing.RoleTrainer)
	rules := []billing.ScheduleRule{mondayJudo("18:00", "19:30")}

	got := conflict.Find(a, []billing.TimeEntry{a}, nil, rules)
	assert.Empty(t, got)
}

func TestFind_NoCoveringRule_NothingToDeviateFrom(t *testing.T) {
	// GIVEN: only a karate rule exists
	a := entry("e1", "anna", "17:00", "18:30", "judo", "hall-1", billing.RoleTrainer)
	karate := mondayJudo("18:00", "19:30")
	karate.Sport = "karate"

	got := conflict.Find(a, []billing.TimeEntry{a}, nil, []billing.ScheduleRule{karate})
	assert.Empty(t, got)
}

func TestFind_ExpiredRuleDoesNotCover(t *testing.T) {
	// GIVEN: the judo rule's validity ended before the session date
	a := entry("e1", "anna", "17:00", "18:30", "judo", "hall-1", billing.RoleTrainer)
	old := mondayJudo("18:00", "19:30")
	until := billing.MustParseDate("2025-02-01")
	old.ValidTo = &until

	got := conflict.Find(a, []billing.TimeEntry{a}, nil, []billing.ScheduleRule{old})
	assert.Empty(t, got)
}

func TestFind_OneOfSeveralRulesMatches(t *testing.T) {
	// GIVEN: two judo slots on Mondays; the session matches the second
	a := entry("e1", "anna", "19:30", "21:00", "judo", "hall-1", billing.RoleTrainer)
	rules := []billing.ScheduleRule{
		mondayJudo("18:00", "19:30"),
		mondayJudo("19:30", "21:00"),
	}

	got := conflict.Find(a, []billing.TimeEntry{a}, nil, rules)
	assert.Empty(t, got, "matching any covering rule is enough")
}
