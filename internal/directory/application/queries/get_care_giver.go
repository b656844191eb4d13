package queries

import (
	"context"
	"errors"
	"time"

	"github.com/domicare/rota/internal/directory/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
)

var ErrCareGiverNotFound = errors.New("care giver not found")

// CareGiverDTO is the query-side representation of a care giver.
type CareGiverDTO struct {
	ID               uuid.UUID                      `json:"id"`
	FirstName        string                         `json:"first_name"`
	LastName         string                         `json:"last_name"`
	Email            string                         `json:"email"`
	Phone            string                         `json:"phone,omitempty"`
	AddressLine      string                         `json:"address_line,omitempty"`
	City             string                         `json:"city,omitempty"`
	Postcode         string                         `json:"postcode,omitempty"`
	Location         geo.Coordinates                `json:"location"`
	Gender           string                         `json:"gender"`
	Skills           []string                       `json:"skills"`
	CanDrive         bool                           `json:"can_drive"`
	SingleHandedOnly bool                           `json:"single_handed_only"`
	MaxReceivers     int                            `json:"max_receivers"`
	WeeklySchedule   sharedDomain.WeeklySchedule    `json:"weekly_schedule"`
	Holidays         []sharedDomain.TimeOffInterval `json:"holidays,omitempty"`
	IsActive         bool                           `json:"is_active"`
	CreatedAt        time.Time                      `json:"created_at"`
	UpdatedAt        time.Time                      `json:"updated_at"`
}

// NewCareGiverDTO maps a domain care giver to its DTO.
func NewCareGiverDTO(cg *domain.CareGiver) CareGiverDTO {
	return CareGiverDTO{
		ID:               cg.ID(),
		FirstName:        cg.FirstName(),
		LastName:         cg.LastName(),
		Email:            cg.Email(),
		Phone:            cg.Phone(),
		AddressLine:      cg.AddressLine(),
		City:             cg.City(),
		Postcode:         cg.Postcode(),
		Location:         cg.Location(),
		Gender:           cg.Gender().String(),
		Skills:           sharedDomain.SkillStrings(cg.Skills()),
		CanDrive:         cg.CanDrive(),
		SingleHandedOnly: cg.SingleHandedOnly(),
		MaxReceivers:     cg.MaxReceivers(),
		WeeklySchedule:   cg.WeeklySchedule(),
		Holidays:         cg.Holidays(),
		IsActive:         cg.IsActive(),
		CreatedAt:        cg.CreatedAt(),
		UpdatedAt:        cg.UpdatedAt(),
	}
}

// GetCareGiverQuery fetches a single care giver by ID.
type GetCareGiverQuery struct {
	CareGiverID uuid.UUID
}

// GetCareGiverHandler handles the GetCareGiverQuery.
type GetCareGiverHandler struct {
	repo domain.CareGiverRepository
}

// NewGetCareGiverHandler creates a new GetCareGiverHandler.
func NewGetCareGiverHandler(repo domain.CareGiverRepository) *GetCareGiverHandler {
	return &GetCareGiverHandler{repo: repo}
}

// Handle executes the GetCareGiverQuery.
func (h *GetCareGiverHandler) Handle(ctx context.Context, query GetCareGiverQuery) (*CareGiverDTO, error) {
	cg, err := h.repo.FindByID(ctx, query.CareGiverID)
	if err != nil {
		return nil, err
	}
	if cg == nil {
		return nil, ErrCareGiverNotFound
	}

	dto := NewCareGiverDTO(cg)
	return &dto, nil
}
