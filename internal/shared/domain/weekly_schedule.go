package domain

import "fmt"

// WeeklySchedule maps each working day to its slots. Days off are simply
// absent or empty.
type WeeklySchedule map[DayOfWeek][]TimeRange

// SlotsFor returns the slots of the given day, nil when none.
func (s WeeklySchedule) SlotsFor(day DayOfWeek) []TimeRange {
	return s[day]
}

// IsEmpty reports whether no day carries a slot.
func (s WeeklySchedule) IsEmpty() bool {
	for _, slots := range s {
		if len(slots) > 0 {
			return false
		}
	}
	return true
}

// WorksOn reports whether the day has at least one slot.
func (s WeeklySchedule) WorksOn(day DayOfWeek) bool {
	return len(s[day]) > 0
}

// SlotContaining returns the first slot of day that fully contains r.
func (s WeeklySchedule) SlotContaining(day DayOfWeek, r TimeRange) (TimeRange, bool) {
	for _, slot := range s[day] {
		if slot.ContainsRange(r) {
			return slot, true
		}
	}
	return TimeRange{}, false
}

// ContainsTime reports whether some slot of day contains t.
func (s WeeklySchedule) ContainsTime(day DayOfWeek, t ClockTime) bool {
	for _, slot := range s[day] {
		if slot.Contains(t) {
			return true
		}
	}
	return false
}

// Validate rejects unknown day names and malformed slots. Used on values
// deserialized from storage or the wire.
func (s WeeklySchedule) Validate() error {
	for day, slots := range s {
		if !day.IsValid() {
			return fmt.Errorf("%w: %q", ErrUnknownDayOfWeek, string(day))
		}
		for _, slot := range slots {
			if err := slot.Validate(); err != nil {
				return fmt.Errorf("%s: %w", day, err)
			}
		}
	}
	return nil
}

// Clone returns a deep copy, so snapshots cannot alias live schedules.
func (s WeeklySchedule) Clone() WeeklySchedule {
	if s == nil {
		return nil
	}
	out := make(WeeklySchedule, len(s))
	for day, slots := range s {
		copied := make([]TimeRange, len(slots))
		copy(copied, slots)
		out[day] = copied
	}
	return out
}
