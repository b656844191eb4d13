package commands

import (
	"context"

	"github.com/domicare/rota/internal/directory/domain"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// DeactivateCareGiverCommand contains the data needed to deactivate a
// care giver. Deactivation is a soft delete: the record and its
// availability history stay on file, but the care giver stops being
// considered for new appointments.
type DeactivateCareGiverCommand struct {
	CareGiverID uuid.UUID
}

// DeactivateCareGiverHandler handles the DeactivateCareGiverCommand.
type DeactivateCareGiverHandler struct {
	repo       domain.CareGiverRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewDeactivateCareGiverHandler creates a new DeactivateCareGiverHandler.
func NewDeactivateCareGiverHandler(repo domain.CareGiverRepository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *DeactivateCareGiverHandler {
	return &DeactivateCareGiverHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the DeactivateCareGiverCommand.
func (h *DeactivateCareGiverHandler) Handle(ctx context.Context, cmd DeactivateCareGiverCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		cg, err := h.repo.FindByID(txCtx, cmd.CareGiverID)
		if err != nil {
			return err
		}
		if cg == nil {
			return ErrCareGiverNotFound
		}

		cg.Deactivate()

		if err := h.repo.Save(txCtx, cg); err != nil {
			return err
		}

		events := cg.DomainEvents()
		if len(events) == 0 {
			return nil
		}
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx))

		msgs := make([]*outbox.Message, 0, len(events))
		for _, event := range events {
			msg, err := outbox.NewMessage(event)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		return h.outboxRepo.SaveBatch(txCtx, msgs)
	})
}
