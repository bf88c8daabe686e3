/*
rates.go - Rate resolution from the time-versioned rate table

PURPOSE:
  Selects the wage rule that applies to a role on a given date. Rules are
  versioned by EffectiveFrom; the latest rule not after the session date
  wins, so historical sessions keep pricing against the rates that were
  in force when they happened.

INVARIANT:
  For any (role, date) there is at most one selected rule. Ties on
  EffectiveFrom resolve to the later-listed rule, which is equivalent to
  "latest effective-from" because the dates are equal.

NO ZERO-RATE FALLBACK:
  The predecessor system silently priced at zero when no rule matched.
  Here a missing rule is a *RateNotFoundError the caller must handle.
*/
package billing

import "strings"

// ResolveRate returns the rate rule applying to role on date: exact role
// match (case-insensitive), EffectiveFrom <= date, latest EffectiveFrom
// among survivors.
func ResolveRate(role Role, date Date, rules []RateRule) (RateRule, error) {
	best := -1
	for i, r := range rules {
		if !strings.EqualFold(string(r.Role), string(role)) {
			continue
		}
		if r.EffectiveFrom.After(date) {
			continue
		}
		if best < 0 || !r.EffectiveFrom.Before(rules[best].EffectiveFrom) {
			best = i
		}
	}
	if best < 0 {
		return RateRule{}, &RateNotFoundError{Role: role, Date: date}
	}
	return rules[best], nil
}
