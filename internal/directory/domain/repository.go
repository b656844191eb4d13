package domain

import (
	"context"

	"github.com/google/uuid"
)

// CareGiverRepository defines the interface for care giver persistence.
type CareGiverRepository interface {
	// Save persists a care giver (create or update).
	Save(ctx context.Context, cg *CareGiver) error

	// FindByID finds a care giver by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*CareGiver, error)

	// FindAll returns all care givers ordered by name, then id.
	FindAll(ctx context.Context) ([]*CareGiver, error)

	// FindActive returns active care givers ordered by name, then id.
	// Candidate selection iterates this order so tie-breaks are
	// reproducible.
	FindActive(ctx context.Context) ([]*CareGiver, error)

	// Delete removes a care giver.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CareReceiverRepository defines the interface for care receiver
// persistence. Visit templates are loaded and saved with their owner.
type CareReceiverRepository interface {
	// Save persists a care receiver and its visit templates.
	Save(ctx context.Context, cr *CareReceiver) error

	// FindByID finds a care receiver by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*CareReceiver, error)

	// FindAll returns all care receivers ordered by name, then id.
	FindAll(ctx context.Context) ([]*CareReceiver, error)

	// FindActive returns active care receivers ordered by name, then id.
	FindActive(ctx context.Context) ([]*CareReceiver, error)

	// Delete removes a care receiver and its templates.
	Delete(ctx context.Context, id uuid.UUID) error
}
