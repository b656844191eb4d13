package persistence

import (
	"context"
	"time"

	"github.com/domicare/rota/internal/settings/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/database"
	sharedPersistence "github.com/domicare/rota/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSettingsRepository implements domain.Repository using
// PostgreSQL. The table holds a single row with id 1.
type PostgresSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSettingsRepository creates a new PostgreSQL settings
// repository.
func NewPostgresSettingsRepository(pool *pgxpool.Pool) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{pool: pool}
}

// Load returns the stored settings, or nil when the row is absent.
func (r *PostgresSettingsRepository) Load(ctx context.Context) (*domain.SystemSettings, error) {
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
		updatedAt       time.Time
	)

	err := sharedPersistence.Executor(ctx, r.pool).QueryRow(ctx, query).Scan(
		&maxDistanceKm,
		&travelBuffer,
		&dailyCap,
		&workingStart,
		&workingEnd,
		&preferredWeight,
		&distanceWeight,
		&availabilityWgt,
		&updatedAt,
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
func (r *PostgresSettingsRepository) Save(ctx context.Context, s *domain.SystemSettings) error {
	query := `
		INSERT INTO system_settings (
			id, max_distance_km, travel_time_buffer_minutes, max_appointments_per_day,
			working_hours_start, working_hours_end,
			preferred_caregiver_weight, distance_weight, availability_weight, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			max_distance_km = EXCLUDED.max_distance_km,
			travel_time_buffer_minutes = EXCLUDED.travel_time_buffer_minutes,
			max_appointments_per_day = EXCLUDED.max_appointments_per_day,
			working_hours_start = EXCLUDED.working_hours_start,
			working_hours_end = EXCLUDED.working_hours_end,
			preferred_caregiver_weight = EXCLUDED.preferred_caregiver_weight,
			distance_weight = EXCLUDED.distance_weight,
			availability_weight = EXCLUDED.availability_weight,
			updated_at = EXCLUDED.updated_at
	`

	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, query,
		s.MaxDistanceKm(),
		s.TravelTimeBufferMinutes(),
		s.MaxAppointmentsPerDay(),
		s.WorkingHours().Start.String(),
		s.WorkingHours().End.String(),
		s.PreferredCareGiverWeight(),
		s.DistanceWeight(),
		s.AvailabilityWeight(),
		s.UpdatedAt(),
	)
	return err
}

func parseWorkingHours(start, end string) (sharedDomain.TimeRange, error) {
	startTime, err := sharedDomain.ParseClockTime(start)
	if err != nil {
		return sharedDomain.TimeRange{}, err
	}
	endTime, err := sharedDomain.ParseClockTime(end)
	if err != nil {
		return sharedDomain.TimeRange{}, err
	}
	return sharedDomain.NewTimeRange(startTime, endTime)
}
