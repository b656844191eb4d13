package commands

import (
	"context"

	"github.com/domicare/rota/internal/directory/domain"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// DeactivateCareReceiverCommand contains the data needed to deactivate
// a care receiver. The record stays on file for history; the receiver's
// templates stop expanding into new appointments.
type DeactivateCareReceiverCommand struct {
	CareReceiverID uuid.UUID
}

// DeactivateCareReceiverHandler handles the DeactivateCareReceiverCommand.
type DeactivateCareReceiverHandler struct {
	repo       domain.CareReceiverRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewDeactivateCareReceiverHandler creates a new DeactivateCareReceiverHandler.
func NewDeactivateCareReceiverHandler(repo domain.CareReceiverRepository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *DeactivateCareReceiverHandler {
	return &DeactivateCareReceiverHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the DeactivateCareReceiverCommand.
func (h *DeactivateCareReceiverHandler) Handle(ctx context.Context, cmd DeactivateCareReceiverCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		cr, err := h.repo.FindByID(txCtx, cmd.CareReceiverID)
		if err != nil {
			return err
		}
		if cr == nil {
			return ErrCareReceiverNotFound
		}

		cr.Deactivate()

		if err := h.repo.Save(txCtx, cr); err != nil {
			return err
		}

		events := cr.DomainEvents()
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
