package commands

import (
	"context"
	"errors"

	"github.com/domicare/rota/internal/directory/domain"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
)

var ErrCareGiverNotFound = errors.New("care giver not found")

// UpdateCareGiverCommand contains the data needed to update a care
// giver. Nil fields are left unchanged.
type UpdateCareGiverCommand struct {
	CareGiverID uuid.UUID

	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string

	AddressLine *string
	City        *string
	Postcode    *string
	Location    *geo.Coordinates

	Skills           []string
	CanDrive         *bool
	SingleHandedOnly *bool
	MaxReceivers     *int

	WeeklySchedule sharedDomain.WeeklySchedule
	Holidays       []sharedDomain.TimeOffInterval

	Active *bool
}

// UpdateCareGiverHandler handles the UpdateCareGiverCommand.
type UpdateCareGiverHandler struct {
	repo       domain.CareGiverRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	geocoder   Geocoder
}

// NewUpdateCareGiverHandler creates a new UpdateCareGiverHandler.
func NewUpdateCareGiverHandler(
	repo domain.CareGiverRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	geocoder Geocoder,
) *UpdateCareGiverHandler {
	return &UpdateCareGiverHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		geocoder:   geocoder,
	}
}

// Handle executes the UpdateCareGiverCommand. An address change without
// explicit coordinates re-geocodes the new address.
func (h *UpdateCareGiverHandler) Handle(ctx context.Context, cmd UpdateCareGiverCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		cg, err := h.repo.FindByID(txCtx, cmd.CareGiverID)
		if err != nil {
			return err
		}
		if cg == nil {
			return ErrCareGiverNotFound
		}

		if cmd.FirstName != nil || cmd.LastName != nil {
			firstName, lastName := cg.FirstName(), cg.LastName()
			if cmd.FirstName != nil {
				firstName = *cmd.FirstName
			}
			if cmd.LastName != nil {
				lastName = *cmd.LastName
			}
			if err := cg.SetName(firstName, lastName); err != nil {
				return err
			}
		}

		if cmd.Email != nil || cmd.Phone != nil {
			email, phone := cg.Email(), cg.Phone()
			if cmd.Email != nil {
				email = *cmd.Email
			}
			if cmd.Phone != nil {
				phone = *cmd.Phone
			}
			if err := cg.SetContact(email, phone); err != nil {
				return err
			}
		}

		addressChanged := cmd.AddressLine != nil || cmd.City != nil || cmd.Postcode != nil
		if addressChanged {
			line, city, postcode := cg.AddressLine(), cg.City(), cg.Postcode()
			if cmd.AddressLine != nil {
				line = *cmd.AddressLine
			}
			if cmd.City != nil {
				city = *cmd.City
			}
			if cmd.Postcode != nil {
				postcode = *cmd.Postcode
			}
			cg.SetAddress(line, city, postcode)
		}

		switch {
		case cmd.Location != nil:
			cg.SetLocation(*cmd.Location)
		case addressChanged && h.geocoder != nil:
			if address := JoinAddress(cg.AddressLine(), cg.City(), cg.Postcode()); address != "" {
				cg.SetLocation(h.geocoder.Resolve(ctx, address))
			}
		}

		if cmd.Skills != nil {
			skills, err := sharedDomain.ParseSkills(cmd.Skills)
			if err != nil {
				return err
			}
			cg.SetSkills(skills)
		}
		if cmd.CanDrive != nil {
			cg.SetCanDrive(*cmd.CanDrive)
		}
		if cmd.SingleHandedOnly != nil {
			cg.SetSingleHandedOnly(*cmd.SingleHandedOnly)
		}
		if cmd.MaxReceivers != nil {
			if err := cg.SetMaxReceivers(*cmd.MaxReceivers); err != nil {
				return err
			}
		}

		if cmd.WeeklySchedule != nil {
			if err := cg.SetWeeklySchedule(cmd.WeeklySchedule); err != nil {
				return err
			}
		}
		if cmd.Holidays != nil {
			cg.SetHolidays(cmd.Holidays)
		}

		if cmd.Active != nil {
			if *cmd.Active {
				cg.Activate()
			} else {
				cg.Deactivate()
			}
		}

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
