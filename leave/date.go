package leave

import (
	"time"
)

// =============================================================================
// DATE - Calendar day (the engine never deals in finer granularity)
// =============================================================================

// Date is a calendar day, normalized to UTC midnight. All balance and
// eligibility arithmetic is day-granular.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now().UTC()) }

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return DateOf(d.t.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.t.AddDate(0, n, 0)) }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string { return d.t.Format("2006-01-02") }

func (d Date) Min(o Date) Date {
	if d.Before(o) {
		return d
	}
	return o
}

func (d Date) Max(o Date) Date {
	if d.After(o) {
		return d
	}
	return o
}

// Year boundaries
func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date   { return NewDate(year, time.December, 31) }

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holiday is a configured non-working day. Optional holidays are offered but
// not observed by default; they do not remove a day from the working set.
type Holiday struct {
	ID       string
	Date     Date
	Name     string
	Optional bool
}

// HolidaySet answers membership for working-day classification.
// Only non-optional holidays block a day.
type HolidaySet struct {
	days map[Date]struct{}
}

func NewHolidaySet(holidays []Holiday) HolidaySet {
	set := HolidaySet{days: make(map[Date]struct{}, len(holidays))}
	for _, h := range holidays {
		if h.Optional {
			continue
		}
		set.days[h.Date] = struct{}{}
	}
	return set
}

func (s HolidaySet) Contains(d Date) bool {
	_, ok := s.days[d]
	return ok
}

func (s HolidaySet) Len() int { return len(s.days) }
