package domain

import "context"

// Repository defines the interface for settings persistence.
type Repository interface {
	// Load returns the stored settings, or nil when the singleton row
	// has never been written.
	Load(ctx context.Context) (*SystemSettings, error)

	// Save upserts the singleton row.
	Save(ctx context.Context, s *SystemSettings) error
}
