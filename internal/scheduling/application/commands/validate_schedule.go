package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/domicare/rota/internal/scheduling/application/services"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	"github.com/domicare/rota/pkg/observability"
)

// ValidateScheduleCommand contains the date range to re-check.
type ValidateScheduleCommand struct {
	StartDate time.Time
	EndDate   time.Time
}

// ValidateScheduleHandler handles the ValidateScheduleCommand.
type ValidateScheduleHandler struct {
	validator  *services.ScheduleValidator
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	metrics    observability.Metrics
	logger     *slog.Logger
}

// NewValidateScheduleHandler creates a new ValidateScheduleHandler.
func NewValidateScheduleHandler(
	validator *services.ScheduleValidator,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	metrics observability.Metrics,
	logger *slog.Logger,
) *ValidateScheduleHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateScheduleHandler{
		validator:  validator,
		outboxRepo: outboxRepo,
		uow:        uow,
		metrics:    metrics,
		logger:     logger,
	}
}

// Handle executes the ValidateScheduleCommand. Flag and restore
// transitions are saved by the validator; this handler commits them
// together with their events.
func (h *ValidateScheduleHandler) Handle(ctx context.Context, cmd ValidateScheduleCommand) (*services.ValidationReport, error) {
	from := sharedDomain.UTCDay(cmd.StartDate)
	to := sharedDomain.UTCDay(cmd.EndDate)
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}

	var report *services.ValidationReport
	timer := observability.StartTimer("schedule.validate").WithMetrics(h.metrics)

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		var err error
		report, err = h.validator.Validate(txCtx, from, to)
		if err != nil {
			return err
		}

		metadata := sharedApplication.NewEventMetadata(ctx)
		var msgs []*outbox.Message
		for _, appt := range report.Changed {
			events := appt.DomainEvents()
			sharedApplication.ApplyEventMetadata(events, metadata)
			for _, event := range events {
				msg, err := outbox.NewMessage(event)
				if err != nil {
					return err
				}
				msgs = append(msgs, msg)
			}
			appt.ClearDomainEvents()
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}

		h.logger.Info("schedule validation completed",
			"start_date", from.Format("2006-01-02"),
			"end_date", to.Format("2006-01-02"),
			"checked", report.Checked,
			"flagged", len(report.Invalid),
			"restored", report.Restored,
			"duration_ms", timer.Elapsed().Milliseconds(),
		)

		return nil
	})
	timer.StopWithError(err)
	if err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricAppointmentsFlagged, int64(len(report.Invalid)))
	h.metrics.Counter(observability.MetricAppointmentsRestored, int64(report.Restored))

	return report, nil
}
