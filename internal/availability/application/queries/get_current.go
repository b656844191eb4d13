package queries

import (
	"context"
	"errors"
	"time"

	"github.com/domicare/rota/internal/availability/application/services"
	"github.com/domicare/rota/internal/availability/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
)

// VersionDTO is a data transfer object for availability versions.
type VersionDTO struct {
	ID            uuid.UUID                      `json:"id"`
	CareGiverID   uuid.UUID                      `json:"care_giver_id"`
	VersionNumber int                            `json:"version_number"`
	Schedule      sharedDomain.WeeklySchedule    `json:"schedule"`
	TimeOff       []sharedDomain.TimeOffInterval `json:"time_off"`
	EffectiveFrom time.Time                      `json:"effective_from"`
	EffectiveTo   *time.Time                     `json:"effective_to,omitempty"`
	IsActive      bool                           `json:"is_active"`
	IsInline      bool                           `json:"is_inline,omitempty"`
}

// NewVersionDTO maps a version to its DTO.
func NewVersionDTO(av *domain.AvailabilityVersion) VersionDTO {
	return VersionDTO{
		ID:            av.ID(),
		CareGiverID:   av.CareGiverID(),
		VersionNumber: av.VersionNumber(),
		Schedule:      av.Schedule(),
		TimeOff:       av.TimeOff(),
		EffectiveFrom: av.EffectiveFrom(),
		EffectiveTo:   av.EffectiveTo(),
		IsActive:      av.IsActive(),
		IsInline:      av.IsInline(),
	}
}

// GetCurrentVersionQuery contains the parameters for the point-in-time
// availability lookup. A zero At means "now".
type GetCurrentVersionQuery struct {
	CareGiverID uuid.UUID
	At          time.Time
}

// GetCurrentVersionHandler handles the GetCurrentVersionQuery.
type GetCurrentVersionHandler struct {
	versionRepo domain.Repository
	resolver    *services.VersionResolver
}

// NewGetCurrentVersionHandler creates a new GetCurrentVersionHandler.
func NewGetCurrentVersionHandler(versionRepo domain.Repository, resolver *services.VersionResolver) *GetCurrentVersionHandler {
	return &GetCurrentVersionHandler{
		versionRepo: versionRepo,
		resolver:    resolver,
	}
}

// Handle executes the GetCurrentVersionQuery. Lookups for "now" resolve
// through the active-version rule; explicit historical dates consult the
// full history so superseded versions stay visible. Either way a care
// giver without stored versions gets the inline pseudo-version.
func (h *GetCurrentVersionHandler) Handle(ctx context.Context, query GetCurrentVersionQuery) (*VersionDTO, error) {
	if query.At.IsZero() {
		version, err := h.resolver.Resolve(ctx, query.CareGiverID, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		dto := NewVersionDTO(version)
		return &dto, nil
	}

	version, err := h.versionRepo.At(ctx, query.CareGiverID, query.At)
	if errors.Is(err, domain.ErrVersionNotFound) {
		version, err = h.resolver.Resolve(ctx, query.CareGiverID, query.At)
	}
	if err != nil {
		return nil, err
	}

	dto := NewVersionDTO(version)
	return &dto, nil
}
