package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/scheduling/application/services"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	"github.com/domicare/rota/pkg/observability"
	"github.com/google/uuid"

	schedulingDomain "github.com/domicare/rota/internal/scheduling/domain"
)

var (
	ErrInvalidDateRange     = errors.New("end date is before start date")
	ErrCareReceiverNotFound = errors.New("care receiver not found")
)

// GenerateScheduleCommand contains the data needed to run a bulk
// scheduling pass. An empty CareReceiverIDs means every active care
// receiver, in repository order; otherwise receivers are processed in
// the order given.
type GenerateScheduleCommand struct {
	StartDate       time.Time
	EndDate         time.Time
	CareReceiverIDs []uuid.UUID
}

// GenerateScheduleResult contains the result of a scheduling run.
type GenerateScheduleResult struct {
	StartDate              time.Time
	EndDate                time.Time
	CareReceiversProcessed int
	TotalScheduled         int
	TotalFailed            int
	TotalSkipped           int
	Schedules              []*services.ReceiverSchedule
}

// GenerateScheduleHandler handles the GenerateScheduleCommand.
type GenerateScheduleHandler struct {
	careReceivers directoryDomain.CareReceiverRepository
	engine        *services.AssignmentEngine
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
	metrics       observability.Metrics
	logger        *slog.Logger
}

// NewGenerateScheduleHandler creates a new GenerateScheduleHandler.
func NewGenerateScheduleHandler(
	careReceivers directoryDomain.CareReceiverRepository,
	engine *services.AssignmentEngine,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	metrics observability.Metrics,
	logger *slog.Logger,
) *GenerateScheduleHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateScheduleHandler{
		careReceivers: careReceivers,
		engine:        engine,
		outboxRepo:    outboxRepo,
		uow:           uow,
		metrics:       metrics,
		logger:        logger,
	}
}

// Handle executes the GenerateScheduleCommand. Every appointment the
// run creates and the run summary event are committed in a single
// transaction, so a failed run leaves no partial schedule behind.
func (h *GenerateScheduleHandler) Handle(ctx context.Context, cmd GenerateScheduleCommand) (*GenerateScheduleResult, error) {
	from := sharedDomain.UTCDay(cmd.StartDate)
	to := sharedDomain.UTCDay(cmd.EndDate)
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}

	var result *GenerateScheduleResult
	timer := observability.StartTimer("schedule.generate").WithMetrics(h.metrics)

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		receivers, err := h.resolveReceivers(txCtx, cmd.CareReceiverIDs)
		if err != nil {
			return err
		}

		schedules, err := h.engine.Generate(txCtx, receivers, from, to)
		if err != nil {
			return err
		}

		result = &GenerateScheduleResult{
			StartDate:              from,
			EndDate:                to,
			CareReceiversProcessed: len(receivers),
			Schedules:              schedules,
		}

		metadata := sharedApplication.NewEventMetadata(ctx)
		var msgs []*outbox.Message

		for _, schedule := range schedules {
			result.TotalScheduled += len(schedule.Scheduled)
			result.TotalFailed += len(schedule.Failed)
			result.TotalSkipped += schedule.Skipped

			for _, appt := range schedule.Scheduled {
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
		}

		runEvent := schedulingDomain.NewScheduleRunCompleted(
			from, to, result.TotalScheduled, result.TotalFailed, len(receivers))
		sharedApplication.ApplyEventMetadata([]sharedDomain.DomainEvent{runEvent}, metadata)
		runMsg, err := outbox.NewMessage(runEvent)
		if err != nil {
			return err
		}
		msgs = append(msgs, runMsg)

		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}

		h.logger.Info("schedule generation completed",
			"start_date", from.Format("2006-01-02"),
			"end_date", to.Format("2006-01-02"),
			"care_receivers", len(receivers),
			"scheduled", result.TotalScheduled,
			"failed", result.TotalFailed,
			"skipped", result.TotalSkipped,
			"duration_ms", timer.Elapsed().Milliseconds(),
		)

		return nil
	})
	timer.StopWithError(err)
	if err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricAppointmentsScheduled, int64(result.TotalScheduled))
	h.metrics.Counter(observability.MetricAppointmentsFailed, int64(result.TotalFailed))

	return result, nil
}

// resolveReceivers loads the requested subset, or every active care
// receiver when no ids were given.
func (h *GenerateScheduleHandler) resolveReceivers(ctx context.Context, ids []uuid.UUID) ([]*directoryDomain.CareReceiver, error) {
	if len(ids) == 0 {
		return h.careReceivers.FindActive(ctx)
	}

	receivers := make([]*directoryDomain.CareReceiver, 0, len(ids))
	for _, id := range ids {
		receiver, err := h.careReceivers.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if receiver == nil {
			return nil, fmt.Errorf("%w: %s", ErrCareReceiverNotFound, id)
		}
		receivers = append(receivers, receiver)
	}
	return receivers, nil
}
