package billing

import "time"

// =============================================================================
// PERIOD - Calendar month boundary for reconciliation
// =============================================================================

// Period is an inclusive [Start, End] date range.
type Period struct {
	Start Date
	End   Date
}

// MonthPeriod returns the calendar-month period for (month, year).
func MonthPeriod(month, year int) Period {
	start := NewDate(year, time.Month(month), 1)
	end := Date{Time: time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
	return Period{Start: start, End: end}
}

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
