/*
Package conflict flags suspicious or inconsistent session entries before
they are billed.

PURPOSE:
  Given one entry and the full entry set for comparison, plus the holiday
  calendar and the standard weekly schedule, Find produces an ordered list
  of human-readable warnings. An empty list means no conflict. Warnings
  are advisory UI signals; nothing here blocks billing.

RULES (applied independently - all that match are reported):
  1. Exact duplicate: identical trainer, date, start, end, sport, field
  2. Field overlap: same date and field, overlapping intervals
       - differing sports        -> different sport on same field
       - two lead trainers       -> two lead trainers simultaneously
         (an assistant never triggers this rule)
  3. Holiday: the session date is a non-training day
  4. Standard-schedule deviation: a schedule rule covers this sport and
     weekday but the session's times do not match any covering rule

INTERVALS:
  Half-open [start, end), with end wrapped past midnight exactly as in
  billing.Duration. Two intervals overlap iff s1 < e2 and e1 > s2.
  The two-lead-trainers rule is symmetric by construction: the overlap
  test and role check read the same for either entry.
*/
package conflict

import "github.com/warp/billing-engine/billing"

// Warning texts. Stable strings: the UI and tests key on them.
const (
	WarnDuplicate     = "duplicate entry"
	WarnFieldSport    = "different sport on same field"
	WarnTwoTrainers   = "two lead trainers simultaneously"
	WarnHoliday       = "falls on a holiday/break"
	WarnScheduleDrift = "deviates from standard schedule"
)

// Find reports all conflicts for entry against the comparison set. The
// entry itself is excluded from comparison by ID. One warning is emitted
// per offending counterpart entry; callers may dedupe for display.
func Find(entry billing.TimeEntry, all []billing.TimeEntry, holidays billing.HolidaySet, schedules []billing.ScheduleRule) []string {
	var warnings []string

	s1, e1 := billing.SpanMinutes(entry.Start, entry.End)

	for _, other := range all {
		if other.ID == entry.ID {
			continue
		}
		if !other.Date.Equal(entry.Date) {
			continue
		}

		if isExactDuplicate(entry, other) {
			warnings = append(warnings, WarnDuplicate)
		}

		if other.Field != entry.Field {
			continue
		}
		s2, e2 := billing.SpanMinutes(other.Start, other.End)
		if s1 < e2 && e1 > s2 {
			if other.Sport != entry.Sport {
				warnings = append(warnings, WarnFieldSport)
			}
			if isLeadTrainer(entry.Role) && isLeadTrainer(other.Role) {
				warnings = append(warnings, WarnTwoTrainers)
			}
		}
	}

	if holidays.Contains(entry.Date) {
		warnings = append(warnings, WarnHoliday)
	}

	if deviatesFromSchedule(entry, schedules) {
		warnings = append(warnings, WarnScheduleDrift)
	}

	return warnings
}

func isExactDuplicate(a, b billing.TimeEntry) bool {
	return a.Trainer == b.Trainer &&
		a.Date.Equal(b.Date) &&
		a.Start == b.Start &&
		a.End == b.End &&
		a.Sport == b.Sport &&
		a.Field == b.Field
}

func isLeadTrainer(r billing.Role) bool {
	return r == billing.RoleTrainer
}

// deviatesFromSchedule returns true when at least one schedule rule covers
// this sport/weekday/date but none matches the session's times exactly.
// No covering rule at all means nothing to deviate from.
func deviatesFromSchedule(entry billing.TimeEntry, schedules []billing.ScheduleRule) bool {
	weekday := int(entry.Date.Weekday())

	covered := false
	for _, rule := range schedules {
		if rule.Sport != entry.Sport || rule.Weekday != weekday || !rule.Covers(entry.Date) {
			continue
		}
		covered = true
		if rule.Start == entry.Start && rule.End == entry.End {
			return false
		}
	}
	return covered
}
