package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CLOCK TIME - Wall-clock "HH:MM" as minutes since midnight (no date)
// =============================================================================

// ClockTime is a wall-clock time of day in minutes since midnight.
// The zero value is 00:00. All "HH:MM" parsing in the engine goes through
// ParseClockTime so midnight handling stays in one place.
type ClockTime int

const MinutesPerDay = 24 * 60

// ParseClockTime parses "HH:MM" (24h). Hours take one or two digits,
// minutes exactly two; anything else is reported as an invalid time
// range error.
func ParseClockTime(s string) (ClockTime, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !allDigits(hh) || !allDigits(mm) {
		return 0, fmt.Errorf("%w: malformed clock time %q", ErrInvalidTimeRange, s)
	}
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: clock time %q out of range", ErrInvalidTimeRange, s)
	}
	return ClockTime(h*60 + m), nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MustParseClockTime is for literals in tests and seed data.
func MustParseClockTime(s string) ClockTime {
	t, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t ClockTime) Hour() int   { return int(t) / 60 }
func (t ClockTime) Minute() int { return int(t) % 60 }

func (t ClockTime) Before(o ClockTime) bool { return t < o }
func (t ClockTime) After(o ClockTime) bool  { return t > o }

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// =============================================================================
// DATE - Civil date, day granularity, UTC
// =============================================================================

type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("malformed date %q: %w", s, err)
	}
	return Date{Time: t.UTC()}, nil
}

// MustParseDate is for literals in tests and seed data.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(o Date) bool { return d.normalize().Before(o.normalize()) }
func (d Date) After(o Date) bool  { return d.normalize().After(o.normalize()) }
func (d Date) Equal(o Date) bool  { return d.normalize().Equal(o.normalize()) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}
