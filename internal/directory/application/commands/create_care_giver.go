package commands

import (
	"context"
	"strings"
	"time"

	"github.com/domicare/rota/internal/directory/domain"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
)

// Geocoder resolves a postal address to coordinates. Implementations are
// best-effort and fall back to a pinned location rather than failing.
type Geocoder interface {
	Resolve(ctx context.Context, address string) geo.Coordinates
}

// AvailabilitySeeder records the first availability version for a newly
// registered care giver from their inline weekly pattern.
type AvailabilitySeeder interface {
	SeedInitialVersion(ctx context.Context, careGiverID uuid.UUID, schedule sharedDomain.WeeklySchedule, timeOff []sharedDomain.TimeOffInterval, effectiveFrom time.Time) error
}

// CreateCareGiverCommand contains the data needed to register a care
// giver.
type CreateCareGiverCommand struct {
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	AddressLine      string
	City             string
	Postcode         string
	Location         geo.Coordinates
	Gender           string
	Skills           []string
	CanDrive         bool
	SingleHandedOnly bool
	MaxReceivers     int
	WeeklySchedule   sharedDomain.WeeklySchedule
	Holidays         []sharedDomain.TimeOffInterval
}

// CreateCareGiverResult contains the result of registering a care giver.
type CreateCareGiverResult struct {
	CareGiverID uuid.UUID
}

// CreateCareGiverHandler handles the CreateCareGiverCommand.
type CreateCareGiverHandler struct {
	repo       domain.CareGiverRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	geocoder   Geocoder
	seeder     AvailabilitySeeder
}

// NewCreateCareGiverHandler creates a new CreateCareGiverHandler.
func NewCreateCareGiverHandler(
	repo domain.CareGiverRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	geocoder Geocoder,
	seeder AvailabilitySeeder,
) *CreateCareGiverHandler {
	return &CreateCareGiverHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		geocoder:   geocoder,
		seeder:     seeder,
	}
}

// Handle executes the CreateCareGiverCommand. The care giver, their
// seeded availability version, and the outbox messages are written in
// one transaction.
func (h *CreateCareGiverHandler) Handle(ctx context.Context, cmd CreateCareGiverCommand) (*CreateCareGiverResult, error) {
	skills, err := sharedDomain.ParseSkills(cmd.Skills)
	if err != nil {
		return nil, err
	}

	cg, err := domain.NewCareGiver(cmd.FirstName, cmd.LastName, cmd.Email, sharedDomain.Gender(cmd.Gender), skills)
	if err != nil {
		return nil, err
	}

	if cmd.Phone != "" {
		if err := cg.SetContact(cmd.Email, cmd.Phone); err != nil {
			return nil, err
		}
	}

	cg.SetAddress(cmd.AddressLine, cmd.City, cmd.Postcode)
	location := cmd.Location
	if location.IsZero() && h.geocoder != nil {
		if address := JoinAddress(cmd.AddressLine, cmd.City, cmd.Postcode); address != "" {
			location = h.geocoder.Resolve(ctx, address)
		}
	}
	cg.SetLocation(location)

	cg.SetCanDrive(cmd.CanDrive)
	cg.SetSingleHandedOnly(cmd.SingleHandedOnly)
	if cmd.MaxReceivers > 0 {
		if err := cg.SetMaxReceivers(cmd.MaxReceivers); err != nil {
			return nil, err
		}
	}
	if len(cmd.WeeklySchedule) > 0 {
		if err := cg.SetWeeklySchedule(cmd.WeeklySchedule); err != nil {
			return nil, err
		}
	}
	if len(cmd.Holidays) > 0 {
		cg.SetHolidays(cmd.Holidays)
	}

	var result *CreateCareGiverResult

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.repo.Save(txCtx, cg); err != nil {
			return err
		}

		// Seed version 1 from the inline pattern so reads never need the
		// inline fallback for rows created from here on.
		if h.seeder != nil && len(cg.WeeklySchedule()) > 0 {
			if err := h.seeder.SeedInitialVersion(txCtx, cg.ID(), cg.WeeklySchedule(), cg.Holidays(), time.Now().UTC()); err != nil {
				return err
			}
		}

		events := cg.DomainEvents()
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

		result = &CreateCareGiverResult{CareGiverID: cg.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// JoinAddress builds the free-text geocoding query from the address
// parts, skipping empty ones.
func JoinAddress(line, city, postcode string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{line, city, postcode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
