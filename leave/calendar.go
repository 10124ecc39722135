/*
calendar.go - Working-day classification and counting

PURPOSE:
  The calendar answers one question in three shapes: is a day a working
  day, how many working days fall in a range, and how many working days
  of notice separate two dates. Everything else in the engine (total-days
  computation, advance-notice checks, LOP previews) is built on these.

SEMANTICS:
  - A working day is neither a weekend day nor a configured holiday.
  - CountWorkingDays is inclusive on both ends; an inverted range is not
    an error, it counts zero.
  - WorkingDaysUntil is exclusive of `from` and inclusive of `to`, which
    matches the advance-notice reading "N working days from today until
    the start date". It is consistent with CountWorkingDays:
    WorkingDaysUntil(a, b) == CountWorkingDays(a+1, b) for a < b.

All functions are pure; there are no failure modes.
*/
package leave

// IsWorkingDay reports whether d is neither a weekend nor a holiday.
func IsWorkingDay(d Date, holidays HolidaySet) bool {
	if d.IsWeekend() {
		return false
	}
	return !holidays.Contains(d)
}

// CountWorkingDays returns the inclusive count of working days in
// [start, end]. An inverted range yields 0.
func CountWorkingDays(start, end Date, holidays HolidaySet) int {
	if start.After(end) {
		return 0
	}
	count := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if IsWorkingDay(d, holidays) {
			count++
		}
	}
	return count
}

// WorkingDaysUntil counts working days strictly after `from` up to and
// including `to`. Used for advance-notice checks. from >= to yields 0.
func WorkingDaysUntil(from, to Date, holidays HolidaySet) int {
	if from.AfterOrEqual(to) {
		return 0
	}
	return CountWorkingDays(from.AddDays(1), to, holidays)
}
