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

var ErrCareReceiverNotFound = errors.New("care receiver not found")

// UpdateCareReceiverCommand contains the data needed to update a care
// receiver. Nil fields are left unchanged. A non-nil VisitTemplates
// slice replaces the whole template list in the given order; appointments
// keep their link through the visit number, so position matters.
type UpdateCareReceiverCommand struct {
	CareReceiverID uuid.UUID

	FirstName *string
	LastName  *string
	Phone     *string

	AddressLine *string
	City        *string
	Postcode    *string
	Location    *geo.Coordinates

	GenderPreference        *string
	PreferredCareGiverID    *uuid.UUID
	ClearPreferredCareGiver bool

	VisitTemplates []VisitTemplateInput

	Active *bool
}

// UpdateCareReceiverHandler handles the UpdateCareReceiverCommand.
type UpdateCareReceiverHandler struct {
	repo       domain.CareReceiverRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	geocoder   Geocoder
}

// NewUpdateCareReceiverHandler creates a new UpdateCareReceiverHandler.
func NewUpdateCareReceiverHandler(
	repo domain.CareReceiverRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	geocoder Geocoder,
) *UpdateCareReceiverHandler {
	return &UpdateCareReceiverHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		geocoder:   geocoder,
	}
}

// Handle executes the UpdateCareReceiverCommand.
func (h *UpdateCareReceiverHandler) Handle(ctx context.Context, cmd UpdateCareReceiverCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		cr, err := h.repo.FindByID(txCtx, cmd.CareReceiverID)
		if err != nil {
			return err
		}
		if cr == nil {
			return ErrCareReceiverNotFound
		}

		if cmd.FirstName != nil || cmd.LastName != nil {
			firstName, lastName := cr.FirstName(), cr.LastName()
			if cmd.FirstName != nil {
				firstName = *cmd.FirstName
			}
			if cmd.LastName != nil {
				lastName = *cmd.LastName
			}
			if err := cr.SetName(firstName, lastName); err != nil {
				return err
			}
		}

		if cmd.Phone != nil {
			cr.SetPhone(*cmd.Phone)
		}

		addressChanged := cmd.AddressLine != nil || cmd.City != nil || cmd.Postcode != nil
		if addressChanged {
			line, city, postcode := cr.AddressLine(), cr.City(), cr.Postcode()
			if cmd.AddressLine != nil {
				line = *cmd.AddressLine
			}
			if cmd.City != nil {
				city = *cmd.City
			}
			if cmd.Postcode != nil {
				postcode = *cmd.Postcode
			}
			cr.SetAddress(line, city, postcode)
		}

		switch {
		case cmd.Location != nil:
			cr.SetLocation(*cmd.Location)
		case addressChanged && h.geocoder != nil:
			if address := JoinAddress(cr.AddressLine(), cr.City(), cr.Postcode()); address != "" {
				cr.SetLocation(h.geocoder.Resolve(ctx, address))
			}
		}

		if cmd.GenderPreference != nil {
			preference, err := sharedDomain.ParseGenderPreference(*cmd.GenderPreference)
			if err != nil {
				return err
			}
			if err := cr.SetGenderPreference(preference); err != nil {
				return err
			}
		}

		switch {
		case cmd.ClearPreferredCareGiver:
			cr.SetPreferredCareGiver(nil)
		case cmd.PreferredCareGiverID != nil:
			cr.SetPreferredCareGiver(cmd.PreferredCareGiverID)
		}

		if cmd.VisitTemplates != nil {
			if err := replaceVisitTemplates(cr, cmd.VisitTemplates); err != nil {
				return err
			}
		}

		if cmd.Active != nil {
			if *cmd.Active {
				cr.Activate()
			} else {
				cr.Deactivate()
			}
		}

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

// replaceVisitTemplates swaps the receiver's template list for the
// given inputs, numbered 1..n in input order.
func replaceVisitTemplates(cr *domain.CareReceiver, inputs []VisitTemplateInput) error {
	for len(cr.VisitTemplates()) > 0 {
		if err := cr.RemoveVisitTemplate(1); err != nil {
			return err
		}
	}
	for i, in := range inputs {
		spec, err := visitTemplateSpec(in)
		if err != nil {
			return err
		}
		vt, err := domain.NewVisitTemplate(cr.ID(), i+1, spec)
		if err != nil {
			return err
		}
		if err := cr.AddVisitTemplate(vt); err != nil {
			return err
		}
	}
	return nil
}
