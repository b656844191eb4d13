package commands

import (
	"context"
	"time"

	"github.com/domicare/rota/internal/directory/domain"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
)

// VisitTemplateInput carries the caller-supplied attributes of one
// recurring visit. Times arrive as "HH:MM" strings, skills and weekdays
// as their wire names.
type VisitTemplateInput struct {
	PreferredTime       string
	DurationMinutes     int
	Requirements        []string
	DoubleHanded        bool
	Priority            int
	DaysOfWeek          []string
	Recurrence          string
	RecurrenceInterval  int
	RecurrenceStartDate *time.Time
}

// visitTemplateSpec parses a wire-level input into a domain spec.
func visitTemplateSpec(in VisitTemplateInput) (domain.VisitTemplateSpec, error) {
	preferredTime, err := sharedDomain.ParseClockTime(in.PreferredTime)
	if err != nil {
		return domain.VisitTemplateSpec{}, err
	}
	requirements, err := sharedDomain.ParseSkills(in.Requirements)
	if err != nil {
		return domain.VisitTemplateSpec{}, err
	}
	days, err := sharedDomain.ParseDaysOfWeek(in.DaysOfWeek)
	if err != nil {
		return domain.VisitTemplateSpec{}, err
	}

	return domain.VisitTemplateSpec{
		PreferredTime:       preferredTime,
		DurationMinutes:     in.DurationMinutes,
		Requirements:        requirements,
		DoubleHanded:        in.DoubleHanded,
		Priority:            in.Priority,
		DaysOfWeek:          days,
		Recurrence:          domain.Recurrence(in.Recurrence),
		RecurrenceInterval:  in.RecurrenceInterval,
		RecurrenceStartDate: in.RecurrenceStartDate,
	}, nil
}

// CreateCareReceiverCommand contains the data needed to register a care
// receiver together with the visit templates the receiver starts with.
type CreateCareReceiverCommand struct {
	FirstName            string
	LastName             string
	Phone                string
	AddressLine          string
	City                 string
	Postcode             string
	Location             geo.Coordinates
	Gender               string
	GenderPreference     string
	PreferredCareGiverID *uuid.UUID
	VisitTemplates       []VisitTemplateInput
}

// CreateCareReceiverResult is returned after handling the command.
type CreateCareReceiverResult struct {
	CareReceiverID uuid.UUID
}

// CreateCareReceiverHandler handles the CreateCareReceiverCommand.
type CreateCareReceiverHandler struct {
	repo       domain.CareReceiverRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	geocoder   Geocoder
}

// NewCreateCareReceiverHandler creates a new CreateCareReceiverHandler.
func NewCreateCareReceiverHandler(
	repo domain.CareReceiverRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	geocoder Geocoder,
) *CreateCareReceiverHandler {
	return &CreateCareReceiverHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		geocoder:   geocoder,
	}
}

// Handle executes the CreateCareReceiverCommand.
func (h *CreateCareReceiverHandler) Handle(ctx context.Context, cmd CreateCareReceiverCommand) (*CreateCareReceiverResult, error) {
	gender, err := sharedDomain.ParseGender(cmd.Gender)
	if err != nil {
		return nil, err
	}
	preference, err := sharedDomain.ParseGenderPreference(cmd.GenderPreference)
	if err != nil {
		return nil, err
	}

	cr, err := domain.NewCareReceiver(cmd.FirstName, cmd.LastName, gender, preference)
	if err != nil {
		return nil, err
	}

	if cmd.Phone != "" {
		cr.SetPhone(cmd.Phone)
	}
	cr.SetAddress(cmd.AddressLine, cmd.City, cmd.Postcode)

	switch {
	case !cmd.Location.IsZero():
		cr.SetLocation(cmd.Location)
	case h.geocoder != nil:
		if address := JoinAddress(cmd.AddressLine, cmd.City, cmd.Postcode); address != "" {
			cr.SetLocation(h.geocoder.Resolve(ctx, address))
		}
	}

	if cmd.PreferredCareGiverID != nil {
		cr.SetPreferredCareGiver(cmd.PreferredCareGiverID)
	}

	for i, in := range cmd.VisitTemplates {
		spec, err := visitTemplateSpec(in)
		if err != nil {
			return nil, err
		}
		vt, err := domain.NewVisitTemplate(cr.ID(), i+1, spec)
		if err != nil {
			return nil, err
		}
		if err := cr.AddVisitTemplate(vt); err != nil {
			return nil, err
		}
	}

	var result *CreateCareReceiverResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.repo.Save(txCtx, cr); err != nil {
			return err
		}

		events := cr.DomainEvents()
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

		result = &CreateCareReceiverResult{CareReceiverID: cr.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
