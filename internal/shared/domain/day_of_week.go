package domain

import (
	"errors"
	"fmt"
	"time"
)

// DayOfWeek names a weekday. The working week runs Monday to Sunday
// (en-GB convention).
type DayOfWeek string

const (
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
	Saturday  DayOfWeek = "Saturday"
	Sunday    DayOfWeek = "Sunday"
)

var ErrUnknownDayOfWeek = errors.New("unknown day of week")

// AllDaysOfWeek returns the seven days, Monday first.
func AllDaysOfWeek() []DayOfWeek {
	return []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// IsValid reports whether d is one of the seven day names.
func (d DayOfWeek) IsValid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

func (d DayOfWeek) String() string { return string(d) }

// ParseDayOfWeek validates a raw day name.
func ParseDayOfWeek(raw string) (DayOfWeek, error) {
	d := DayOfWeek(raw)
	if !d.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDayOfWeek, raw)
	}
	return d, nil
}

// ParseDaysOfWeek validates a list of raw day names. An empty list means
// every day.
func ParseDaysOfWeek(raw []string) ([]DayOfWeek, error) {
	if len(raw) == 0 {
		return AllDaysOfWeek(), nil
	}
	days := make([]DayOfWeek, 0, len(raw))
	for _, r := range raw {
		d, err := ParseDayOfWeek(r)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

// DayOfWeekStrings converts a day list to its string form for storage.
func DayOfWeekStrings(days []DayOfWeek) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = string(d)
	}
	return out
}

// DayOfWeekOf returns the weekday of t evaluated in UTC.
func DayOfWeekOf(t time.Time) DayOfWeek {
	return DayOfWeek(t.UTC().Weekday().String())
}
