package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var clockTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

var (
	ErrInvalidClockTime = errors.New("clock time must be HH:MM in 24-hour form")
	ErrPastMidnight     = errors.New("time arithmetic may not cross midnight")
)

// ClockTime is a minute-resolution time of day. The zero value is 00:00.
type ClockTime struct {
	minutes int
}

// ParseClockTime parses an HH:MM string in 24-hour form.
func ParseClockTime(s string) (ClockTime, error) {
	if !clockTimePattern.MatchString(s) {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return ClockTime{minutes: h*60 + m}, nil
}

// MustClockTime parses s and panics on malformed input. For tests and
// seed data only.
func MustClockTime(s string) ClockTime {
	t, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.minutes/60, t.minutes%60)
}

// Add returns the time advanced by the given minutes, carrying hours.
// Crossing midnight is an error; visits never span two days.
func (t ClockTime) Add(minutes int) (ClockTime, error) {
	total := t.minutes + minutes
	if total < 0 || total >= 24*60 {
		return ClockTime{}, fmt.Errorf("%w: %s %+dm", ErrPastMidnight, t, minutes)
	}
	return ClockTime{minutes: total}, nil
}

// MinutesUntil returns the signed minute count from t to other.
func (t ClockTime) MinutesUntil(other ClockTime) int {
	return other.minutes - t.minutes
}

func (t ClockTime) Before(other ClockTime) bool { return t.minutes < other.minutes }
func (t ClockTime) After(other ClockTime) bool  { return t.minutes > other.minutes }

// MarshalJSON renders the time as its HH:MM string.
func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses an HH:MM string, rejecting malformed values.
func (t *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
