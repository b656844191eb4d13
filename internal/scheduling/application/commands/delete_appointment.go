package commands

import (
	"context"

	"github.com/domicare/rota/internal/scheduling/domain"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// DeleteAppointmentCommand contains the data needed to remove an
// appointment outright. Cancelling is the usual path; deletion is for
// appointments created in error.
type DeleteAppointmentCommand struct {
	AppointmentID uuid.UUID
}

// DeleteAppointmentHandler handles the DeleteAppointmentCommand.
type DeleteAppointmentHandler struct {
	appointments domain.AppointmentRepository
	outboxRepo   outbox.Repository
	uow          sharedApplication.UnitOfWork
}

// NewDeleteAppointmentHandler creates a new DeleteAppointmentHandler.
func NewDeleteAppointmentHandler(
	appointments domain.AppointmentRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *DeleteAppointmentHandler {
	return &DeleteAppointmentHandler{
		appointments: appointments,
		outboxRepo:   outboxRepo,
		uow:          uow,
	}
}

// Handle executes the DeleteAppointmentCommand.
func (h *DeleteAppointmentHandler) Handle(ctx context.Context, cmd DeleteAppointmentCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		appt, err := h.appointments.FindByID(txCtx, cmd.AppointmentID)
		if err != nil {
			return err
		}
		if appt == nil {
			return ErrAppointmentNotFound
		}

		if err := h.appointments.Delete(txCtx, cmd.AppointmentID); err != nil {
			return err
		}

		event := domain.NewAppointmentDeleted(appt)
		sharedApplication.ApplyEventMetadata([]sharedDomain.DomainEvent{event}, sharedApplication.NewEventMetadata(ctx))

		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		return h.outboxRepo.Save(txCtx, msg)
	})
}
