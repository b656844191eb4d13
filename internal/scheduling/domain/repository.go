package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentFilter narrows appointment listings. Nil fields are
// ignored. Page is 1-based; Limit caps the page size.
type AppointmentFilter struct {
	From           *time.Time
	To             *time.Time
	CareGiverID    *uuid.UUID
	CareReceiverID *uuid.UUID
	Status         *AppointmentStatus
	Page           int
	Limit          int
}

// AppointmentRepository defines the interface for appointment
// persistence.
type AppointmentRepository interface {
	// Save persists an appointment (create or update).
	Save(ctx context.Context, appt *Appointment) error

	// FindByID finds an appointment by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindByCareGiverAndDate returns all appointments on the UTC day
	// that involve the care giver in either role, ordered by start
	// time.
	FindByCareGiverAndDate(ctx context.Context, careGiverID uuid.UUID, date time.Time) ([]*Appointment, error)

	// FindForVisit returns the appointment for a receiver's numbered
	// visit on the UTC day, or nil when none exists. Generation skips
	// visits that already have one.
	FindForVisit(ctx context.Context, careReceiverID uuid.UUID, date time.Time, visitNumber int) (*Appointment, error)

	// FindInWindow returns appointments dated within [from, to] whose
	// status is one of the given set, ordered by date then start time.
	FindInWindow(ctx context.Context, from, to time.Time, statuses []AppointmentStatus) ([]*Appointment, error)

	// Search returns one page of appointments matching the filter plus
	// the total match count, ordered by date then start time.
	Search(ctx context.Context, filter AppointmentFilter) ([]*Appointment, int, error)

	// CountByStatus returns the number of appointments per status
	// within [from, to].
	CountByStatus(ctx context.Context, from, to time.Time) (map[AppointmentStatus]int, error)

	// Delete removes an appointment.
	Delete(ctx context.Context, id uuid.UUID) error
}
