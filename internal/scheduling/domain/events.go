package domain

import (
	"time"

	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	aggregateType    = "Appointment"
	runAggregateType = "ScheduleRun"
)

// AppointmentScheduled is emitted when an appointment is created.
type AppointmentScheduled struct {
	sharedDomain.BaseEvent
	CareReceiverID       uuid.UUID  `json:"care_receiver_id"`
	CareGiverID          uuid.UUID  `json:"care_giver_id"`
	SecondaryCareGiverID *uuid.UUID `json:"secondary_care_giver_id,omitempty"`
	Date                 time.Time  `json:"date"`
	StartTime            string     `json:"start_time"`
	EndTime              string     `json:"end_time"`
	VisitNumber          int        `json:"visit_number"`
	DoubleHanded         bool       `json:"double_handed"`
}

// NewAppointmentScheduled creates an AppointmentScheduled event.
func NewAppointmentScheduled(a *Appointment) *AppointmentScheduled {
	return &AppointmentScheduled{
		BaseEvent:            sharedDomain.NewBaseEvent(a.ID(), aggregateType, "rota.appointment.scheduled"),
		CareReceiverID:       a.CareReceiverID(),
		CareGiverID:          a.CareGiverID(),
		SecondaryCareGiverID: a.SecondaryCareGiverID(),
		Date:                 a.Date(),
		StartTime:            a.StartTime().String(),
		EndTime:              a.EndTime().String(),
		VisitNumber:          a.VisitNumber(),
		DoubleHanded:         a.DoubleHanded(),
	}
}

// AppointmentStatusChanged is emitted on every status transition.
type AppointmentStatusChanged struct {
	sharedDomain.BaseEvent
	CareReceiverID     uuid.UUID `json:"care_receiver_id"`
	CareGiverID        uuid.UUID `json:"care_giver_id"`
	Date               time.Time `json:"date"`
	OldStatus          string    `json:"old_status"`
	NewStatus          string    `json:"new_status"`
	CancellationReason string    `json:"cancellation_reason,omitempty"`
}

// NewAppointmentStatusChanged creates an AppointmentStatusChanged event.
func NewAppointmentStatusChanged(a *Appointment, previous AppointmentStatus, cancellationReason string) *AppointmentStatusChanged {
	return &AppointmentStatusChanged{
		BaseEvent:          sharedDomain.NewBaseEvent(a.ID(), aggregateType, "rota.appointment.status_changed"),
		CareReceiverID:     a.CareReceiverID(),
		CareGiverID:        a.CareGiverID(),
		Date:               a.Date(),
		OldStatus:          previous.String(),
		NewStatus:          a.Status().String(),
		CancellationReason: cancellationReason,
	}
}

// AppointmentInvalidated is emitted when the validator marks an
// appointment for reassignment.
type AppointmentInvalidated struct {
	sharedDomain.BaseEvent
	CareReceiverID uuid.UUID `json:"care_receiver_id"`
	CareGiverID    uuid.UUID `json:"care_giver_id"`
	Date           time.Time `json:"date"`
	OldStatus      string    `json:"old_status"`
	Reason         string    `json:"reason"`
	InvalidatedAt  time.Time `json:"invalidated_at"`
}

// NewAppointmentInvalidated creates an AppointmentInvalidated event.
func NewAppointmentInvalidated(a *Appointment, previous AppointmentStatus) *AppointmentInvalidated {
	invalidatedAt := time.Now().UTC()
	if a.InvalidatedAt() != nil {
		invalidatedAt = *a.InvalidatedAt()
	}
	return &AppointmentInvalidated{
		BaseEvent:      sharedDomain.NewBaseEvent(a.ID(), aggregateType, "rota.appointment.invalidated"),
		CareReceiverID: a.CareReceiverID(),
		CareGiverID:    a.CareGiverID(),
		Date:           a.Date(),
		OldStatus:      previous.String(),
		Reason:         a.InvalidationReason(),
		InvalidatedAt:  invalidatedAt,
	}
}

// AppointmentRestored is emitted when a flagged appointment's issues
// have cleared and it returns to scheduled.
type AppointmentRestored struct {
	sharedDomain.BaseEvent
	CareReceiverID uuid.UUID `json:"care_receiver_id"`
	CareGiverID    uuid.UUID `json:"care_giver_id"`
	Date           time.Time `json:"date"`
}

// NewAppointmentRestored creates an AppointmentRestored event.
func NewAppointmentRestored(a *Appointment) *AppointmentRestored {
	return &AppointmentRestored{
		BaseEvent:      sharedDomain.NewBaseEvent(a.ID(), aggregateType, "rota.appointment.restored"),
		CareReceiverID: a.CareReceiverID(),
		CareGiverID:    a.CareGiverID(),
		Date:           a.Date(),
	}
}

// AppointmentDeleted is emitted when an appointment is removed outright.
type AppointmentDeleted struct {
	sharedDomain.BaseEvent
	CareReceiverID uuid.UUID `json:"care_receiver_id"`
	CareGiverID    uuid.UUID `json:"care_giver_id"`
	Date           time.Time `json:"date"`
	VisitNumber    int       `json:"visit_number"`
}

// NewAppointmentDeleted creates an AppointmentDeleted event.
func NewAppointmentDeleted(a *Appointment) *AppointmentDeleted {
	return &AppointmentDeleted{
		BaseEvent:      sharedDomain.NewBaseEvent(a.ID(), aggregateType, "rota.appointment.deleted"),
		CareReceiverID: a.CareReceiverID(),
		CareGiverID:    a.CareGiverID(),
		Date:           a.Date(),
		VisitNumber:    a.VisitNumber(),
	}
}

// ScheduleRunCompleted summarizes a bulk generation run.
type ScheduleRunCompleted struct {
	sharedDomain.BaseEvent
	StartDate              time.Time `json:"start_date"`
	EndDate                time.Time `json:"end_date"`
	TotalScheduled         int       `json:"total_scheduled"`
	TotalFailed            int       `json:"total_failed"`
	CareReceiversProcessed int       `json:"care_receivers_processed"`
}

// NewScheduleRunCompleted creates a ScheduleRunCompleted event. A run
// has no persisted aggregate, so each event gets a fresh run id.
func NewScheduleRunCompleted(startDate, endDate time.Time, totalScheduled, totalFailed, processed int) *ScheduleRunCompleted {
	return &ScheduleRunCompleted{
		BaseEvent:              sharedDomain.NewBaseEvent(uuid.New(), runAggregateType, "rota.schedule.run_completed"),
		StartDate:              startDate,
		EndDate:                endDate,
		TotalScheduled:         totalScheduled,
		TotalFailed:            totalFailed,
		CareReceiversProcessed: processed,
	}
}
