package domain

import (
	"errors"
	"time"

	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrInvalidDuration      = errors.New("appointment duration must be between 15 and 240 minutes")
	ErrInvalidVisitNumber   = errors.New("visit number must be at least 1")
	ErrInvalidPriority      = errors.New("priority must be between 1 and 5")
	ErrUnknownStatus        = errors.New("unknown appointment status")
	ErrSecondaryRequired    = errors.New("double-handed appointment needs a secondary care giver")
	ErrSecondaryIsPrimary   = errors.New("secondary care giver must differ from the primary")
	ErrVisitCrossesMidnight = errors.New("visit must not cross midnight")
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled         AppointmentStatus = "scheduled"
	StatusInProgress        AppointmentStatus = "in_progress"
	StatusCompleted         AppointmentStatus = "completed"
	StatusCancelled         AppointmentStatus = "cancelled"
	StatusMissed            AppointmentStatus = "missed"
	StatusNeedsReview       AppointmentStatus = "needs_review"
	StatusNeedsReassignment AppointmentStatus = "needs_reassignment"
)

// IsValid reports whether the status is a known one.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled,
		StatusMissed, StatusNeedsReview, StatusNeedsReassignment:
		return true
	}
	return false
}

// Occupies reports whether the appointment still claims the care
// giver's time: only scheduled and in-progress visits count against
// daily caps and overlap checks.
func (s AppointmentStatus) Occupies() bool {
	return s == StatusScheduled || s == StatusInProgress
}

func (s AppointmentStatus) String() string { return string(s) }

// ParseAppointmentStatus parses a wire status string.
func ParseAppointmentStatus(raw string) (AppointmentStatus, error) {
	s := AppointmentStatus(raw)
	if !s.IsValid() {
		return "", ErrUnknownStatus
	}
	return s, nil
}

// AvailabilitySnapshot records the availability in force when the
// appointment was created: the version id (nil when the care giver only
// had an inline pattern) and a copy of that weekday's slots. The copy
// keeps the audit trail intact after later schedule changes.
type AvailabilitySnapshot struct {
	VersionID *uuid.UUID               `json:"version_id,omitempty"`
	Slots     []sharedDomain.TimeRange `json:"slots,omitempty"`
}

// Appointment is a dated, assigned care visit. It is produced by the
// assignment engine or the manual flow and afterwards changes only
// through status transitions and validator marks.
type Appointment struct {
	sharedDomain.BaseAggregateRoot
	careReceiverID       uuid.UUID
	careGiverID          uuid.UUID
	secondaryCareGiverID *uuid.UUID
	date                 time.Time
	window               sharedDomain.TimeRange
	durationMinutes      int
	visitNumber          int
	requirements         []sharedDomain.Skill
	doubleHanded         bool
	priority             int
	status               AppointmentStatus
	cancellationReason   string
	invalidationReason   string
	invalidatedAt        *time.Time
	snapshot             AvailabilitySnapshot
}

// AppointmentSpec carries the fields needed to create an appointment.
type AppointmentSpec struct {
	CareReceiverID       uuid.UUID
	CareGiverID          uuid.UUID
	SecondaryCareGiverID *uuid.UUID
	Date                 time.Time
	Start                sharedDomain.ClockTime
	DurationMinutes      int
	VisitNumber          int
	Requirements         []sharedDomain.Skill
	DoubleHanded         bool
	Priority             int
	Snapshot             AvailabilitySnapshot
}

// NewAppointment creates a scheduled appointment. The date is
// normalized to 00:00 UTC of its calendar day; the end time is derived
// from the start and duration and must stay within the day.
func NewAppointment(spec AppointmentSpec) (*Appointment, error) {
	if spec.DurationMinutes < 15 || spec.DurationMinutes > 240 {
		return nil, ErrInvalidDuration
	}
	if spec.VisitNumber < 1 {
		return nil, ErrInvalidVisitNumber
	}

	priority := spec.Priority
	if priority == 0 {
		priority = 3
	}
	if priority < 1 || priority > 5 {
		return nil, ErrInvalidPriority
	}

	if spec.DoubleHanded {
		if spec.SecondaryCareGiverID == nil {
			return nil, ErrSecondaryRequired
		}
		if *spec.SecondaryCareGiverID == spec.CareGiverID {
			return nil, ErrSecondaryIsPrimary
		}
	}

	end, err := spec.Start.Add(spec.DurationMinutes)
	if err != nil {
		return nil, ErrVisitCrossesMidnight
	}
	window, err := sharedDomain.NewTimeRange(spec.Start, end)
	if err != nil {
		return nil, err
	}

	appt := &Appointment{
		BaseAggregateRoot:    sharedDomain.NewBaseAggregateRoot(),
		careReceiverID:       spec.CareReceiverID,
		careGiverID:          spec.CareGiverID,
		secondaryCareGiverID: spec.SecondaryCareGiverID,
		date:                 sharedDomain.UTCDay(spec.Date),
		window:               window,
		durationMinutes:      spec.DurationMinutes,
		visitNumber:          spec.VisitNumber,
		requirements:         spec.Requirements,
		doubleHanded:         spec.DoubleHanded,
		priority:             priority,
		status:               StatusScheduled,
		snapshot:             spec.Snapshot,
	}

	appt.AddDomainEvent(NewAppointmentScheduled(appt))

	return appt, nil
}

// Getters
func (a *Appointment) CareReceiverID() uuid.UUID          { return a.careReceiverID }
func (a *Appointment) CareGiverID() uuid.UUID             { return a.careGiverID }
func (a *Appointment) SecondaryCareGiverID() *uuid.UUID   { return a.secondaryCareGiverID }
func (a *Appointment) Date() time.Time                    { return a.date }
func (a *Appointment) Window() sharedDomain.TimeRange     { return a.window }
func (a *Appointment) StartTime() sharedDomain.ClockTime  { return a.window.Start }
func (a *Appointment) EndTime() sharedDomain.ClockTime    { return a.window.End }
func (a *Appointment) DurationMinutes() int               { return a.durationMinutes }
func (a *Appointment) VisitNumber() int                   { return a.visitNumber }
func (a *Appointment) Requirements() []sharedDomain.Skill { return a.requirements }
func (a *Appointment) DoubleHanded() bool                 { return a.doubleHanded }
func (a *Appointment) Priority() int                      { return a.priority }
func (a *Appointment) Status() AppointmentStatus          { return a.status }
func (a *Appointment) CancellationReason() string         { return a.cancellationReason }
func (a *Appointment) InvalidationReason() string         { return a.invalidationReason }
func (a *Appointment) InvalidatedAt() *time.Time          { return a.invalidatedAt }
func (a *Appointment) Snapshot() AvailabilitySnapshot     { return a.snapshot }

// Involves reports whether the care giver is assigned to this
// appointment in either role.
func (a *Appointment) Involves(careGiverID uuid.UUID) bool {
	if a.careGiverID == careGiverID {
		return true
	}
	return a.secondaryCareGiverID != nil && *a.secondaryCareGiverID == careGiverID
}

// Occupies reports whether the appointment claims its care givers'
// time on its date.
func (a *Appointment) Occupies() bool {
	return a.status.Occupies()
}

// Overlaps reports whether another appointment's window overlaps this
// one. Touching endpoints do not overlap.
func (a *Appointment) Overlaps(other *Appointment) bool {
	return a.window.Overlaps(other.window)
}

// ChangeStatus moves the appointment to a new lifecycle state. Setting
// the current status again is a no-op. Cancelling records the reason;
// returning to scheduled clears any validator marks.
func (a *Appointment) ChangeStatus(next AppointmentStatus, cancellationReason string) error {
	if !next.IsValid() {
		return ErrUnknownStatus
	}
	if next == a.status {
		return nil
	}

	previous := a.status
	a.status = next

	if next == StatusCancelled {
		a.cancellationReason = cancellationReason
	}
	if next == StatusScheduled {
		a.invalidationReason = ""
		a.invalidatedAt = nil
	}

	a.Touch()
	a.AddDomainEvent(NewAppointmentStatusChanged(a, previous, cancellationReason))

	return nil
}

// Invalidate marks the appointment as needing reassignment. Returns
// false when the appointment already carries the same mark, so repeated
// validator passes stay no-ops.
func (a *Appointment) Invalidate(reason string, at time.Time) bool {
	if a.status == StatusNeedsReassignment && a.invalidationReason == reason {
		return false
	}

	previous := a.status
	a.status = StatusNeedsReassignment
	a.invalidationReason = reason
	invalidatedAt := at.UTC()
	a.invalidatedAt = &invalidatedAt
	a.Touch()

	a.AddDomainEvent(NewAppointmentInvalidated(a, previous))

	return true
}

// Restore returns a needs-reassignment appointment to scheduled once
// its issues have cleared. Returns false for any other status.
func (a *Appointment) Restore() bool {
	if a.status != StatusNeedsReassignment {
		return false
	}

	a.status = StatusScheduled
	a.invalidationReason = ""
	a.invalidatedAt = nil
	a.Touch()

	a.AddDomainEvent(NewAppointmentRestored(a))

	return true
}

// RehydrateAppointment recreates an appointment from persisted state.
func RehydrateAppointment(
	id uuid.UUID,
	careReceiverID uuid.UUID,
	careGiverID uuid.UUID,
	secondaryCareGiverID *uuid.UUID,
	date time.Time,
	window sharedDomain.TimeRange,
	durationMinutes int,
	visitNumber int,
	requirements []sharedDomain.Skill,
	doubleHanded bool,
	priority int,
	status AppointmentStatus,
	cancellationReason string,
	invalidationReason string,
	invalidatedAt *time.Time,
	snapshot AvailabilitySnapshot,
	createdAt, updatedAt time.Time,
	version int,
) *Appointment {
	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)

	return &Appointment{
		BaseAggregateRoot:    sharedDomain.RehydrateBaseAggregateRoot(entity, version),
		careReceiverID:       careReceiverID,
		careGiverID:          careGiverID,
		secondaryCareGiverID: secondaryCareGiverID,
		date:                 date,
		window:               window,
		durationMinutes:      durationMinutes,
		visitNumber:          visitNumber,
		requirements:         requirements,
		doubleHanded:         doubleHanded,
		priority:             priority,
		status:               status,
		cancellationReason:   cancellationReason,
		invalidationReason:   invalidationReason,
		invalidatedAt:        invalidatedAt,
		snapshot:             snapshot,
	}
}
