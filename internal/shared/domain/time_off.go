package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTimeOff = errors.New("time off end must not precede start")

// TimeOffInterval is a holiday or other absence. Boundaries are UTC days
// and both endpoints are inclusive.
type TimeOffInterval struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason,omitempty"`
}

// NewTimeOffInterval creates an interval with day-normalized boundaries.
func NewTimeOffInterval(start, end time.Time, reason string) (TimeOffInterval, error) {
	s, e := UTCDay(start), UTCDay(end)
	if e.Before(s) {
		return TimeOffInterval{}, fmt.Errorf("%w: %s..%s",
			ErrInvalidTimeOff, s.Format("2006-01-02"), e.Format("2006-01-02"))
	}
	return TimeOffInterval{Start: s, End: e, Reason: reason}, nil
}

// Covers reports whether the UTC day of date falls inside the interval.
func (i TimeOffInterval) Covers(date time.Time) bool {
	d := UTCDay(date)
	return !d.Before(UTCDay(i.Start)) && !d.After(UTCDay(i.End))
}

// CoveringTimeOff returns the first interval covering date, if any.
func CoveringTimeOff(intervals []TimeOffInterval, date time.Time) (TimeOffInterval, bool) {
	for _, i := range intervals {
		if i.Covers(date) {
			return i, true
		}
	}
	return TimeOffInterval{}, false
}
