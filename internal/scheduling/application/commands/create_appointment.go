package commands

import (
	"context"
	"errors"
	"time"

	availabilityServices "github.com/domicare/rota/internal/availability/application/services"
	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/scheduling/application/services"
	"github.com/domicare/rota/internal/scheduling/domain"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

var (
	ErrCareGiverNotFound    = errors.New("care giver not found")
	ErrDuplicateAppointment = errors.New("an appointment for this visit already exists")
)

// FeasibilityError rejects a manual assignment with the oracle's
// reason. It maps to a validation failure at the API, not a server
// error.
type FeasibilityError struct {
	Reason string
}

func (e *FeasibilityError) Error() string { return e.Reason }

// CreateAppointmentCommand contains the data needed to book a visit by
// hand, outside a generation run.
type CreateAppointmentCommand struct {
	CareReceiverID       uuid.UUID
	CareGiverID          uuid.UUID
	SecondaryCareGiverID *uuid.UUID
	Date                 time.Time
	StartTime            string
	DurationMinutes      int
	VisitNumber          int
	Requirements         []string
	DoubleHanded         bool
	Priority             int
}

// CreateAppointmentResult contains the created appointment.
type CreateAppointmentResult struct {
	Appointment *domain.Appointment
}

// CreateAppointmentHandler handles the CreateAppointmentCommand.
type CreateAppointmentHandler struct {
	careReceivers directoryDomain.CareReceiverRepository
	careGivers    directoryDomain.CareGiverRepository
	appointments  domain.AppointmentRepository
	versions      *availabilityServices.VersionResolver
	oracle        *services.FeasibilityOracle
	outboxRepo    outbox.Repository
	uow           sharedApplication.UnitOfWork
}

// NewCreateAppointmentHandler creates a new CreateAppointmentHandler.
func NewCreateAppointmentHandler(
	careReceivers directoryDomain.CareReceiverRepository,
	careGivers directoryDomain.CareGiverRepository,
	appointments domain.AppointmentRepository,
	versions *availabilityServices.VersionResolver,
	oracle *services.FeasibilityOracle,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *CreateAppointmentHandler {
	return &CreateAppointmentHandler{
		careReceivers: careReceivers,
		careGivers:    careGivers,
		appointments:  appointments,
		versions:      versions,
		oracle:        oracle,
		outboxRepo:    outboxRepo,
		uow:           uow,
	}
}

// Handle executes the CreateAppointmentCommand. The assignment must
// pass the same feasibility checks the engine applies, for the
// secondary care giver too on double-handed visits.
func (h *CreateAppointmentHandler) Handle(ctx context.Context, cmd CreateAppointmentCommand) (*CreateAppointmentResult, error) {
	start, err := sharedDomain.ParseClockTime(cmd.StartTime)
	if err != nil {
		return nil, err
	}
	requirements, err := sharedDomain.ParseSkills(cmd.Requirements)
	if err != nil {
		return nil, err
	}
	end, err := start.Add(cmd.DurationMinutes)
	if err != nil {
		return nil, domain.ErrVisitCrossesMidnight
	}
	window, err := sharedDomain.NewTimeRange(start, end)
	if err != nil {
		return nil, err
	}

	day := sharedDomain.UTCDay(cmd.Date)

	var result *CreateAppointmentResult

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		receiver, err := h.careReceivers.FindByID(txCtx, cmd.CareReceiverID)
		if err != nil {
			return err
		}
		if receiver == nil {
			return ErrCareReceiverNotFound
		}

		existing, err := h.appointments.FindForVisit(txCtx, cmd.CareReceiverID, day, cmd.VisitNumber)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateAppointment
		}

		primary, err := h.requireCareGiver(txCtx, cmd.CareGiverID)
		if err != nil {
			return err
		}
		if err := h.checkFeasible(txCtx, primary, day, window, receiver, ""); err != nil {
			return err
		}

		if cmd.DoubleHanded && cmd.SecondaryCareGiverID != nil {
			secondary, err := h.requireCareGiver(txCtx, *cmd.SecondaryCareGiverID)
			if err != nil {
				return err
			}
			if err := h.checkFeasible(txCtx, secondary, day, window, receiver, "secondary care giver: "); err != nil {
				return err
			}
		}

		snapshot, err := services.SnapshotAvailability(txCtx, h.versions, primary, day)
		if err != nil {
			return err
		}

		appt, err := domain.NewAppointment(domain.AppointmentSpec{
			CareReceiverID:       cmd.CareReceiverID,
			CareGiverID:          cmd.CareGiverID,
			SecondaryCareGiverID: cmd.SecondaryCareGiverID,
			Date:                 day,
			Start:                start,
			DurationMinutes:      cmd.DurationMinutes,
			VisitNumber:          cmd.VisitNumber,
			Requirements:         requirements,
			DoubleHanded:         cmd.DoubleHanded,
			Priority:             cmd.Priority,
			Snapshot:             snapshot,
		})
		if err != nil {
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

		result = &CreateAppointmentResult{Appointment: appt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (h *CreateAppointmentHandler) requireCareGiver(ctx context.Context, id uuid.UUID) (*directoryDomain.CareGiver, error) {
	cg, err := h.careGivers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cg == nil {
		return nil, ErrCareGiverNotFound
	}
	return cg, nil
}

func (h *CreateAppointmentHandler) checkFeasible(
	ctx context.Context,
	cg *directoryDomain.CareGiver,
	day time.Time,
	window sharedDomain.TimeRange,
	receiver *directoryDomain.CareReceiver,
	reasonPrefix string,
) error {
	verdict, err := h.oracle.IsAvailableFor(ctx, cg, day, window, receiver.Location(), nil)
	if err != nil {
		return err
	}
	if !verdict.Available {
		return &FeasibilityError{Reason: reasonPrefix + verdict.Reason}
	}
	return nil
}
