package services

import (
	"context"
	"errors"
	"time"

	"github.com/domicare/rota/internal/availability/domain"
	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/google/uuid"
)

// ErrCareGiverNotFound is returned when the care giver does not exist.
var ErrCareGiverNotFound = errors.New("care giver not found")

// VersionResolver resolves the availability in force for a care giver on
// a given day. Care givers registered before versioned availability have
// no stored versions; for those the resolver synthesizes a read-only
// pseudo-version from the inline weekly pattern and holiday list on the
// care giver record.
type VersionResolver struct {
	versionRepo   domain.Repository
	careGiverRepo directoryDomain.CareGiverRepository
}

// NewVersionResolver creates a new VersionResolver.
func NewVersionResolver(versionRepo domain.Repository, careGiverRepo directoryDomain.CareGiverRepository) *VersionResolver {
	return &VersionResolver{
		versionRepo:   versionRepo,
		careGiverRepo: careGiverRepo,
	}
}

// Resolve returns the version in force for the care giver on the given
// day, falling back to an inline pseudo-version when none is stored.
func (r *VersionResolver) Resolve(ctx context.Context, careGiverID uuid.UUID, at time.Time) (*domain.AvailabilityVersion, error) {
	version, err := r.versionRepo.CurrentFor(ctx, careGiverID, at)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, domain.ErrVersionNotFound) {
		return nil, err
	}

	return r.resolveInline(ctx, careGiverID)
}

// ResolveForCareGiver is Resolve for callers that already hold the care
// giver record, saving the directory round trip on the fallback path.
func (r *VersionResolver) ResolveForCareGiver(ctx context.Context, cg *directoryDomain.CareGiver, at time.Time) (*domain.AvailabilityVersion, error) {
	version, err := r.versionRepo.CurrentFor(ctx, cg.ID(), at)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, domain.ErrVersionNotFound) {
		return nil, err
	}

	return domain.NewInlineVersion(cg.ID(), cg.WeeklySchedule(), cg.Holidays()), nil
}

func (r *VersionResolver) resolveInline(ctx context.Context, careGiverID uuid.UUID) (*domain.AvailabilityVersion, error) {
	cg, err := r.careGiverRepo.FindByID(ctx, careGiverID)
	if err != nil {
		return nil, err
	}
	if cg == nil {
		return nil, ErrCareGiverNotFound
	}

	return domain.NewInlineVersion(cg.ID(), cg.WeeklySchedule(), cg.Holidays()), nil
}
