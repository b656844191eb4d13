package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/domicare/rota/internal/settings/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/database"
	sharedPersistence "github.com/domicare/rota/internal/shared/infrastructure/persistence"
)

// SQLiteSettingsRepository implements domain.Repository using SQLite.
type SQLiteSettingsRepository struct {
	db *sql.DB
}

// NewSQLiteSettingsRepository creates a new SQLite settings repository.
func NewSQLiteSettingsRepository(db *sql.DB) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{db: db}
}

// Load returns the stored settings, or nil when the row is absent.
func (r *SQLiteSettingsRepository) Load(ctx context.Context) (*domain.SystemSettings, error) {
	query := `
		SELECT max_distance_km, travel_time_buffer_minutes, max_appointments_per_day,
		       working_hours_start, working_hours_end,
		       preferred_caregiver_weight, distance_weight, availability_weight,
		       updated_at
		FROM system_settings
		WHERE id = 1
	`

	var (
		maxDistanceKm   float64
		travelBuffer    int
		dailyCap        int
		workingStart    string
		workingEnd      string
		preferredWeight float64
		distanceWeight  float64
		availabilityWgt float64
		updatedAtRaw    string
	)

	err := sharedPersistence.SQLiteDB(ctx, r.db).QueryRowContext(ctx, query).Scan(
		&maxDistanceKm,
		&travelBuffer,
		&dailyCap,
		&workingStart,
		&workingEnd,
		&preferredWeight,
		&distanceWeight,
		&availabilityWgt,
		&updatedAtRaw,
	)
	if err != nil {
		if database.IsNoRows(err) {
			// Not found is not an error
			return nil, nil
		}
		return nil, err
	}

	workingHours, err := parseWorkingHours(workingStart, workingEnd)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updatedAtRaw)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateSystemSettings(
		maxDistanceKm,
		travelBuffer,
		dailyCap,
		workingHours,
		preferredWeight,
		distanceWeight,
		availabilityWgt,
		updatedAt,
	), nil
}

// Save upserts the singleton row.
func (r *SQLiteSettingsRepository) Save(ctx context.Context, s *domain.SystemSettings) error {
	query := `
		INSERT INTO system_settings (
			id, max_distance_km, travel_time_buffer_minutes, max_appointments_per_day,
			working_hours_start, working_hours_end,
			preferred_caregiver_weight, distance_weight, availability_weight, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			max_distance_km = excluded.max_distance_km,
			travel_time_buffer_minutes = excluded.travel_time_buffer_minutes,
			max_appointments_per_day = excluded.max_appointments_per_day,
			working_hours_start = excluded.working_hours_start,
			working_hours_end = excluded.working_hours_end,
			preferred_caregiver_weight = excluded.preferred_caregiver_weight,
			distance_weight = excluded.distance_weight,
			availability_weight = excluded.availability_weight,
			updated_at = excluded.updated_at
	`

	_, err := sharedPersistence.SQLiteDB(ctx, r.db).ExecContext(ctx, query,
		s.MaxDistanceKm(),
		s.TravelTimeBufferMinutes(),
		s.MaxAppointmentsPerDay(),
		s.WorkingHours().Start.String(),
		s.WorkingHours().End.String(),
		s.PreferredCareGiverWeight(),
		s.DistanceWeight(),
		s.AvailabilityWeight(),
		s.UpdatedAt().UTC().Format(time.RFC3339Nano),
	)
	return err
}
