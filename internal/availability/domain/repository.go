package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for availability version persistence.
// The history is append-only: versions are inserted and closed, never
// deleted.
type Repository interface {
	// Save persists a version (insert or update of the closing fields).
	Save(ctx context.Context, av *AvailabilityVersion) error

	// FindByID finds a version by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*AvailabilityVersion, error)

	// FindOpenForUpdate returns the care giver's open versions, locked
	// for the duration of the surrounding transaction so concurrent
	// CreateVersion calls serialize per care giver.
	FindOpenForUpdate(ctx context.Context, careGiverID uuid.UUID) ([]*AvailabilityVersion, error)

	// MaxVersionNumber returns the highest version number stored for the
	// care giver, zero when none exist.
	MaxVersionNumber(ctx context.Context, careGiverID uuid.UUID) (int, error)

	// CurrentFor returns the active version in force on the given UTC
	// day, ties broken by greatest effective_from. ErrVersionNotFound
	// when none matches.
	CurrentFor(ctx context.Context, careGiverID uuid.UUID, at time.Time) (*AvailabilityVersion, error)

	// At returns the version in force on the given UTC day regardless of
	// the active flag; historical audit.
	At(ctx context.Context, careGiverID uuid.UUID, at time.Time) (*AvailabilityVersion, error)

	// History returns all versions for the care giver, newest
	// effective_from first.
	History(ctx context.Context, careGiverID uuid.UUID) ([]*AvailabilityVersion, error)
}
