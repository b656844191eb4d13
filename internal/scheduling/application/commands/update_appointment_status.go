package commands

import (
	"context"
	"errors"

	"github.com/domicare/rota/internal/scheduling/domain"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// UpdateAppointmentStatusCommand contains the data needed to move an
// appointment through its lifecycle. CancellationReason is only read
// when the new status is cancelled.
type UpdateAppointmentStatusCommand struct {
	AppointmentID      uuid.UUID
	Status             string
	CancellationReason string
}

// UpdateAppointmentStatusResult contains the updated appointment.
type UpdateAppointmentStatusResult struct {
	Appointment *domain.Appointment
}

// UpdateAppointmentStatusHandler handles the UpdateAppointmentStatusCommand.
type UpdateAppointmentStatusHandler struct {
	appointments domain.AppointmentRepository
	outboxRepo   outbox.Repository
	uow          sharedApplication.UnitOfWork
}

// NewUpdateAppointmentStatusHandler creates a new UpdateAppointmentStatusHandler.
func NewUpdateAppointmentStatusHandler(
	appointments domain.AppointmentRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *UpdateAppointmentStatusHandler {
	return &UpdateAppointmentStatusHandler{
		appointments: appointments,
		outboxRepo:   outboxRepo,
		uow:          uow,
	}
}

// Handle executes the UpdateAppointmentStatusCommand.
func (h *UpdateAppointmentStatusHandler) Handle(ctx context.Context, cmd UpdateAppointmentStatusCommand) (*UpdateAppointmentStatusResult, error) {
	status, err := domain.ParseAppointmentStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	var result *UpdateAppointmentStatusResult

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		appt, err := h.appointments.FindByID(txCtx, cmd.AppointmentID)
		if err != nil {
			return err
		}
		if appt == nil {
			return ErrAppointmentNotFound
		}

		if err := appt.ChangeStatus(status, cmd.CancellationReason); err != nil {
			return err
		}

		if err := h.appointments.Save(txCtx, appt); err != nil {
			return err
		}

		events := appt.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx))

		msgs := make([]*outbox.Message, 0, len(events))
		for _, event := range events {
			msg, err := outbox.NewMessage(event)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}
		appt.ClearDomainEvents()

		result = &UpdateAppointmentStatusResult{Appointment: appt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
