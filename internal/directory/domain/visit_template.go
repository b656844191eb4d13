package domain

import (
	"errors"
	"fmt"
	"time"

	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrInvalidDuration   = errors.New("visit duration must be between 15 and 240 minutes")
	ErrInvalidPriority   = errors.New("visit priority must be between 1 and 5")
	ErrInvalidInterval   = errors.New("recurrence interval must be between 1 and 52 weeks")
	ErrInvalidRecurrence = errors.New("unknown recurrence kind")
)

// Recurrence names how often a visit template repeats. The interval
// field is authoritative for expansion; the kind is kept for diagnostics
// and display.
type Recurrence string

const (
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
	RecurrenceCustom   Recurrence = "custom"
)

// IsValid reports whether r is a recognized recurrence kind.
func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly, RecurrenceCustom:
		return true
	}
	return false
}

func (r Recurrence) String() string { return string(r) }

// defaultInterval returns the canonical week interval for a kind. Custom
// keeps whatever the caller supplied.
func (r Recurrence) defaultInterval() int {
	switch r {
	case RecurrenceBiweekly:
		return 2
	case RecurrenceMonthly:
		return 4
	default:
		return 1
	}
}

// VisitTemplate describes one recurring visit a care receiver needs. It
// is owned by the CareReceiver aggregate; visit numbers form an exact
// 1..n sequence within the receiver.
type VisitTemplate struct {
	id                  uuid.UUID
	careReceiverID      uuid.UUID
	visitNumber         int
	preferredTime       sharedDomain.ClockTime
	durationMinutes     int
	requirements        []sharedDomain.Skill
	doubleHanded        bool
	priority            int
	daysOfWeek          []sharedDomain.DayOfWeek
	recurrence          Recurrence
	recurrenceInterval  int
	recurrenceStartDate *time.Time
}

// VisitTemplateSpec carries the caller-supplied template attributes.
type VisitTemplateSpec struct {
	PreferredTime       sharedDomain.ClockTime
	DurationMinutes     int
	Requirements        []sharedDomain.Skill
	DoubleHanded        bool
	Priority            int
	DaysOfWeek          []sharedDomain.DayOfWeek
	Recurrence          Recurrence
	RecurrenceInterval  int
	RecurrenceStartDate *time.Time
}

// NewVisitTemplate creates a template for the given receiver and visit
// number. Non-custom recurrence kinds force their canonical interval.
func NewVisitTemplate(careReceiverID uuid.UUID, visitNumber int, spec VisitTemplateSpec) (*VisitTemplate, error) {
	if spec.DurationMinutes < 15 || spec.DurationMinutes > 240 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, spec.DurationMinutes)
	}
	if _, err := spec.PreferredTime.Add(spec.DurationMinutes); err != nil {
		return nil, err
	}

	priority := spec.Priority
	if priority == 0 {
		priority = 3
	}
	if priority < 1 || priority > 5 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, priority)
	}

	recurrence := spec.Recurrence
	if recurrence == "" {
		recurrence = RecurrenceWeekly
	}
	if !recurrence.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecurrence, string(spec.Recurrence))
	}

	interval := spec.RecurrenceInterval
	if recurrence != RecurrenceCustom || interval == 0 {
		interval = recurrence.defaultInterval()
	}
	if interval < 1 || interval > 52 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInterval, interval)
	}

	days := spec.DaysOfWeek
	if len(days) == 0 {
		days = sharedDomain.AllDaysOfWeek()
	}

	var startDate *time.Time
	if spec.RecurrenceStartDate != nil {
		d := sharedDomain.UTCDay(*spec.RecurrenceStartDate)
		startDate = &d
	}

	return &VisitTemplate{
		id:                  uuid.New(),
		careReceiverID:      careReceiverID,
		visitNumber:         visitNumber,
		preferredTime:       spec.PreferredTime,
		durationMinutes:     spec.DurationMinutes,
		requirements:        spec.Requirements,
		doubleHanded:        spec.DoubleHanded,
		priority:            priority,
		daysOfWeek:          days,
		recurrence:          recurrence,
		recurrenceInterval:  interval,
		recurrenceStartDate: startDate,
	}, nil
}

// Getters
func (vt *VisitTemplate) ID() uuid.UUID                         { return vt.id }
func (vt *VisitTemplate) CareReceiverID() uuid.UUID             { return vt.careReceiverID }
func (vt *VisitTemplate) VisitNumber() int                      { return vt.visitNumber }
func (vt *VisitTemplate) PreferredTime() sharedDomain.ClockTime { return vt.preferredTime }
func (vt *VisitTemplate) DurationMinutes() int                  { return vt.durationMinutes }
func (vt *VisitTemplate) Requirements() []sharedDomain.Skill    { return vt.requirements }
func (vt *VisitTemplate) DoubleHanded() bool                    { return vt.doubleHanded }
func (vt *VisitTemplate) Priority() int                         { return vt.priority }
func (vt *VisitTemplate) DaysOfWeek() []sharedDomain.DayOfWeek  { return vt.daysOfWeek }
func (vt *VisitTemplate) Recurrence() Recurrence                { return vt.recurrence }
func (vt *VisitTemplate) RecurrenceInterval() int               { return vt.recurrenceInterval }
func (vt *VisitTemplate) RecurrenceStartDate() *time.Time       { return vt.recurrenceStartDate }

// EndTime returns the visit end, preferred time plus duration.
func (vt *VisitTemplate) EndTime() (sharedDomain.ClockTime, error) {
	return vt.preferredTime.Add(vt.durationMinutes)
}

// OccursOn reports whether the template expands to a visit on the given
// date. fallbackAnchor (normally the receiver's creation time) anchors
// the week count when no recurrence start date is set.
func (vt *VisitTemplate) OccursOn(date time.Time, fallbackAnchor time.Time) bool {
	day := sharedDomain.UTCDay(date)

	if !vt.occursOnWeekday(sharedDomain.DayOfWeekOf(day)) {
		return false
	}

	if vt.recurrenceStartDate != nil && day.Before(sharedDomain.UTCDay(*vt.recurrenceStartDate)) {
		return false
	}

	if vt.recurrenceInterval <= 1 {
		return true
	}

	anchor := fallbackAnchor
	if vt.recurrenceStartDate != nil {
		anchor = *vt.recurrenceStartDate
	}

	dayDiff := sharedDomain.DaysBetween(anchor, day)
	if dayDiff < 0 {
		return false
	}
	weeks := dayDiff / 7
	return weeks%vt.recurrenceInterval == 0
}

func (vt *VisitTemplate) occursOnWeekday(day sharedDomain.DayOfWeek) bool {
	for _, d := range vt.daysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// renumber shifts the visit number after a sibling removal. Only the
// owning CareReceiver calls this.
func (vt *VisitTemplate) renumber(visitNumber int) {
	vt.visitNumber = visitNumber
}

// RehydrateVisitTemplate recreates a template from persisted state.
func RehydrateVisitTemplate(
	id, careReceiverID uuid.UUID,
	visitNumber int,
	preferredTime sharedDomain.ClockTime,
	durationMinutes int,
	requirements []sharedDomain.Skill,
	doubleHanded bool,
	priority int,
	daysOfWeek []sharedDomain.DayOfWeek,
	recurrence Recurrence,
	recurrenceInterval int,
	recurrenceStartDate *time.Time,
) *VisitTemplate {
	return &VisitTemplate{
		id:                  id,
		careReceiverID:      careReceiverID,
		visitNumber:         visitNumber,
		preferredTime:       preferredTime,
		durationMinutes:     durationMinutes,
		requirements:        requirements,
		doubleHanded:        doubleHanded,
		priority:            priority,
		daysOfWeek:          daysOfWeek,
		recurrence:          recurrence,
		recurrenceInterval:  recurrenceInterval,
		recurrenceStartDate: recurrenceStartDate,
	}
}
