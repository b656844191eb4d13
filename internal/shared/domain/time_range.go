package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidTimeRange = errors.New("time range end must be after start")

// TimeRange is a half-open [start, end) window within a single day.
type TimeRange struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// NewTimeRange creates a range, rejecting empty or inverted windows.
func NewTimeRange(start, end ClockTime) (TimeRange, error) {
	if !end.After(start) {
		return TimeRange{}, fmt.Errorf("%w: %s..%s", ErrInvalidTimeRange, start, end)
	}
	return TimeRange{Start: start, End: end}, nil
}

// MustTimeRange builds a range from HH:MM literals, panicking on bad
// input. For tests and seed data only.
func MustTimeRange(start, end string) TimeRange {
	r, err := NewTimeRange(MustClockTime(start), MustClockTime(end))
	if err != nil {
		panic(err)
	}
	return r
}

// Validate rejects ranges whose end does not come after their start,
// which can occur on values deserialized from storage.
func (r TimeRange) Validate() error {
	if !r.End.After(r.Start) {
		return fmt.Errorf("%w: %s..%s", ErrInvalidTimeRange, r.Start, r.End)
	}
	return nil
}

// Contains reports whether t falls inside the half-open window.
func (r TimeRange) Contains(t ClockTime) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// ContainsRange reports whether other fits entirely inside r. A range
// ending exactly at r's end still fits.
func (r TimeRange) ContainsRange(other TimeRange) bool {
	return !other.Start.Before(r.Start) && !r.End.Before(other.End)
}

// Overlaps is half-open: ranges sharing only an endpoint do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Minutes returns the window length.
func (r TimeRange) Minutes() int {
	return r.Start.MinutesUntil(r.End)
}

func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}
