package domain

import "time"

// UTCDay normalizes an instant to 00:00:00 UTC of its calendar date.
// All appointment dates and time-off boundaries are stored this way.
func UTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole-day difference to minus from, both
// normalized to their UTC day. Negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	return int(UTCDay(to).Sub(UTCDay(from)) / (24 * time.Hour))
}

// SameUTCDay reports whether two instants fall on the same UTC calendar
// date.
func SameUTCDay(a, b time.Time) bool {
	return UTCDay(a).Equal(UTCDay(b))
}
