package commands

import (
	"context"
	"time"

	"github.com/domicare/rota/internal/availability/domain"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// CreateVersionCommand contains the data needed to record a new
// availability version for a care giver.
type CreateVersionCommand struct {
	CareGiverID   uuid.UUID
	Schedule      sharedDomain.WeeklySchedule
	TimeOff       []sharedDomain.TimeOffInterval
	EffectiveFrom time.Time
}

// CreateVersionResult contains the result of recording a version.
type CreateVersionResult struct {
	VersionID     uuid.UUID
	VersionNumber int
}

// CreateVersionHandler handles the CreateVersionCommand.
type CreateVersionHandler struct {
	versionRepo domain.Repository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
}

// NewCreateVersionHandler creates a new CreateVersionHandler.
func NewCreateVersionHandler(versionRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CreateVersionHandler {
	return &CreateVersionHandler{
		versionRepo: versionRepo,
		outboxRepo:  outboxRepo,
		uow:         uow,
	}
}

// Handle executes the CreateVersionCommand. The care giver's open
// versions are locked for the duration of the transaction, so two
// concurrent writes for the same care giver serialize: the second waits
// on the row lock and then closes the version the first one created.
func (h *CreateVersionHandler) Handle(ctx context.Context, cmd CreateVersionCommand) (*CreateVersionResult, error) {
	var result *CreateVersionResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		effectiveFrom := cmd.EffectiveFrom
		if effectiveFrom.IsZero() {
			effectiveFrom = time.Now().UTC()
		}

		open, err := h.versionRepo.FindOpenForUpdate(txCtx, cmd.CareGiverID)
		if err != nil {
			return err
		}
		for _, prev := range open {
			if err := prev.Close(effectiveFrom); err != nil {
				return err
			}
			if err := h.versionRepo.Save(txCtx, prev); err != nil {
				return err
			}
		}

		maxNumber, err := h.versionRepo.MaxVersionNumber(txCtx, cmd.CareGiverID)
		if err != nil {
			return err
		}

		version, err := domain.NewAvailabilityVersion(
			cmd.CareGiverID,
			maxNumber+1,
			cmd.Schedule,
			cmd.TimeOff,
			effectiveFrom,
		)
		if err != nil {
			return err
		}

		if err := h.versionRepo.Save(txCtx, version); err != nil {
			return err
		}

		events := version.DomainEvents()
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

		result = &CreateVersionResult{
			VersionID:     version.ID(),
			VersionNumber: version.VersionNumber(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SeedInitialVersion records the first version for a newly registered
// care giver from their inline weekly pattern. Runs inside the caller's
// transaction when one is already in flight.
func (h *CreateVersionHandler) SeedInitialVersion(
	ctx context.Context,
	careGiverID uuid.UUID,
	schedule sharedDomain.WeeklySchedule,
	timeOff []sharedDomain.TimeOffInterval,
	effectiveFrom time.Time,
) error {
	_, err := h.Handle(ctx, CreateVersionCommand{
		CareGiverID:   careGiverID,
		Schedule:      schedule,
		TimeOff:       timeOff,
		EffectiveFrom: effectiveFrom,
	})
	return err
}
