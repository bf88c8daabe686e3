/*
duration.go - Billable duration from a wall-clock pair

PURPOSE:
  The single place where "HH:MM" pairs become billable hours. The
  historical code base computed durations ad hoc in several spots with
  inconsistent midnight handling; the engine has exactly one wraparound
  rule and everything (pricing, reconciliation, conflict intervals)
  uses it.

THE RULE:
  minutes = (end - start) mod 1440
  End at or before start means the session crosses midnight: add 24h.
  The result is never negative. start == end is rejected - a zero-length
  session is meaningless under wraparound semantics (it would read as a
  full day).
*/
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// Duration returns the billable duration in fractional hours for a
// start/end wall-clock pair, applying the midnight wraparound rule.
func Duration(start, end ClockTime) (decimal.Decimal, error) {
	if start == end {
		return decimal.Zero, fmt.Errorf("%w: start equals end (%s)", ErrInvalidTimeRange, start)
	}
	minutes := int(end) - int(start)
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return decimal.NewFromInt(int64(minutes)).Div(minutesPerHour), nil
}

// SpanMinutes returns the [start, end) interval of an entry in minutes
// since midnight of its date, with end pushed past midnight when the
// session wraps. Used for overlap tests; same wraparound rule as Duration.
func SpanMinutes(start, end ClockTime) (int, int) {
	s, e := int(start), int(end)
	if e <= s {
		e += MinutesPerDay
	}
	return s, e
}
