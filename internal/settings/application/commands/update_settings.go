package commands

import (
	"context"
	"time"

	"github.com/domicare/rota/internal/settings/application/services"
	"github.com/domicare/rota/internal/settings/domain"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
)

// UpdateSettingsCommand carries the full settings document; the
// singleton is replaced wholesale.
type UpdateSettingsCommand struct {
	MaxDistanceKm            float64
	TravelTimeBufferMinutes  int
	MaxAppointmentsPerDay    int
	WorkingHoursStart        string
	WorkingHoursEnd          string
	PreferredCareGiverWeight float64
	DistanceWeight           float64
	AvailabilityWeight       float64
}

// UpdateSettingsResult contains the result of an update.
type UpdateSettingsResult struct {
	UpdatedAt time.Time
}

// UpdateSettingsHandler handles the UpdateSettingsCommand.
type UpdateSettingsHandler struct {
	repo       domain.Repository
	cache      *services.CachedSettings
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewUpdateSettingsHandler creates a new UpdateSettingsHandler.
func NewUpdateSettingsHandler(
	repo domain.Repository,
	cache *services.CachedSettings,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *UpdateSettingsHandler {
	return &UpdateSettingsHandler{
		repo:       repo,
		cache:      cache,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the UpdateSettingsCommand. The cache is dropped only
// after the transaction commits so readers never cache a value the
// rollback took away.
func (h *UpdateSettingsHandler) Handle(ctx context.Context, cmd UpdateSettingsCommand) (*UpdateSettingsResult, error) {
	start, err := sharedDomain.ParseClockTime(cmd.WorkingHoursStart)
	if err != nil {
		return nil, err
	}
	end, err := sharedDomain.ParseClockTime(cmd.WorkingHoursEnd)
	if err != nil {
		return nil, err
	}
	workingHours, err := sharedDomain.NewTimeRange(start, end)
	if err != nil {
		return nil, err
	}

	settings, err := domain.NewSystemSettings(domain.SystemSettingsSpec{
		MaxDistanceKm:            cmd.MaxDistanceKm,
		TravelTimeBufferMinutes:  cmd.TravelTimeBufferMinutes,
		MaxAppointmentsPerDay:    cmd.MaxAppointmentsPerDay,
		WorkingHours:             workingHours,
		PreferredCareGiverWeight: cmd.PreferredCareGiverWeight,
		DistanceWeight:           cmd.DistanceWeight,
		AvailabilityWeight:       cmd.AvailabilityWeight,
	})
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.repo.Save(txCtx, settings); err != nil {
			return err
		}

		event := domain.NewSettingsUpdated(settings)
		sharedApplication.ApplyEventMetadata([]sharedDomain.DomainEvent{event}, sharedApplication.NewEventMetadata(ctx))

		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		return h.outboxRepo.Save(txCtx, msg)
	})
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		h.cache.Invalidate()
	}

	return &UpdateSettingsResult{UpdatedAt: settings.UpdatedAt()}, nil
}
