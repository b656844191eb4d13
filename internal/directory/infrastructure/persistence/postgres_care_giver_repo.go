package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/domicare/rota/internal/directory/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/database"
	sharedPersistence "github.com/domicare/rota/internal/shared/infrastructure/persistence"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrCareGiverNotFound    = errors.New("care giver not found")
	ErrCareReceiverNotFound = errors.New("care receiver not found")
)

const selectCareGiverColumns = `
	SELECT id, first_name, last_name, email, phone, address_line, city, postcode,
	       longitude, latitude, gender, skills, can_drive, single_handed_only,
	       max_receivers, weekly_schedule, holidays, is_active, created_at,
	       updated_at, version
	FROM care_givers
`

// PostgresCareGiverRepository implements domain.CareGiverRepository
// using PostgreSQL.
type PostgresCareGiverRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCareGiverRepository creates a new PostgreSQL care giver
// repository.
func NewPostgresCareGiverRepository(pool *pgxpool.Pool) *PostgresCareGiverRepository {
	return &PostgresCareGiverRepository{pool: pool}
}

// careGiverRow represents a database row for care givers.
type careGiverRow struct {
	ID               uuid.UUID
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	AddressLine      string
	City             string
	Postcode         string
	Longitude        float64
	Latitude         float64
	Gender           string
	Skills           []string
	CanDrive         bool
	SingleHandedOnly bool
	MaxReceivers     int
	WeeklySchedule   []byte
	Holidays         []byte
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int
}

// Save persists a care giver to the database.
func (r *PostgresCareGiverRepository) Save(ctx context.Context, cg *domain.CareGiver) error {
	execer := sharedPersistence.Executor(ctx, r.pool)

	schedule, err := json.Marshal(cg.WeeklySchedule())
	if err != nil {
		return err
	}
	holidays, err := json.Marshal(cg.Holidays())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO care_givers (
			id, first_name, last_name, email, phone, address_line, city, postcode,
			longitude, latitude, gender, skills, can_drive, single_handed_only,
			max_receivers, weekly_schedule, holidays, is_active, created_at,
			updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			address_line = EXCLUDED.address_line,
			city = EXCLUDED.city,
			postcode = EXCLUDED.postcode,
			longitude = EXCLUDED.longitude,
			latitude = EXCLUDED.latitude,
			gender = EXCLUDED.gender,
			skills = EXCLUDED.skills,
			can_drive = EXCLUDED.can_drive,
			single_handed_only = EXCLUDED.single_handed_only,
			max_receivers = EXCLUDED.max_receivers,
			weekly_schedule = EXCLUDED.weekly_schedule,
			holidays = EXCLUDED.holidays,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at,
			version = care_givers.version + 1
	`

	_, err = execer.Exec(ctx, query,
		cg.ID(),
		cg.FirstName(),
		cg.LastName(),
		cg.Email(),
		cg.Phone(),
		cg.AddressLine(),
		cg.City(),
		cg.Postcode(),
		cg.Location().Longitude,
		cg.Location().Latitude,
		cg.Gender().String(),
		sharedDomain.SkillStrings(cg.Skills()),
		cg.CanDrive(),
		cg.SingleHandedOnly(),
		cg.MaxReceivers(),
		schedule,
		holidays,
		cg.IsActive(),
		cg.CreatedAt(),
		cg.UpdatedAt(),
		cg.Version(),
	)
	return err
}

// FindByID retrieves a care giver by ID. Returns nil when no care giver
// is found.
func (r *PostgresCareGiverRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CareGiver, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	row, err := scanCareGiverRow(execer.QueryRow(ctx, selectCareGiverColumns+` WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			// Not found is not an error
			return nil, nil
		}
		return nil, err
	}

	return rowToCareGiver(row)
}

// FindAll returns every care giver ordered by name, then id.
func (r *PostgresCareGiverRepository) FindAll(ctx context.Context) ([]*domain.CareGiver, error) {
	return r.findWhere(ctx, ``)
}

// FindActive returns active care givers ordered by name, then id. The
// stable order keeps candidate iteration reproducible.
func (r *PostgresCareGiverRepository) FindActive(ctx context.Context) ([]*domain.CareGiver, error) {
	return r.findWhere(ctx, `WHERE is_active`)
}

func (r *PostgresCareGiverRepository) findWhere(ctx context.Context, where string) ([]*domain.CareGiver, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	query := selectCareGiverColumns + where + ` ORDER BY first_name, last_name, id`
	rows, err := execer.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	careGivers := make([]*domain.CareGiver, 0)
	for rows.Next() {
		row, err := scanCareGiverRow(rows)
		if err != nil {
			return nil, err
		}
		cg, err := rowToCareGiver(row)
		if err != nil {
			return nil, err
		}
		careGivers = append(careGivers, cg)
	}
	return careGivers, rows.Err()
}

// Delete removes a care giver from the database.
func (r *PostgresCareGiverRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.Executor(ctx, r.pool)

	tag, err := execer.Exec(ctx, `DELETE FROM care_givers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCareGiverNotFound
	}
	return nil
}

func scanCareGiverRow(row pgx.Row) (careGiverRow, error) {
	var r careGiverRow
	err := row.Scan(
		&r.ID,
		&r.FirstName,
		&r.LastName,
		&r.Email,
		&r.Phone,
		&r.AddressLine,
		&r.City,
		&r.Postcode,
		&r.Longitude,
		&r.Latitude,
		&r.Gender,
		&r.Skills,
		&r.CanDrive,
		&r.SingleHandedOnly,
		&r.MaxReceivers,
		&r.WeeklySchedule,
		&r.Holidays,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.Version,
	)
	return r, err
}

func rowToCareGiver(row careGiverRow) (*domain.CareGiver, error) {
	skills, err := sharedDomain.ParseSkills(row.Skills)
	if err != nil {
		return nil, err
	}

	var schedule sharedDomain.WeeklySchedule
	if err := json.Unmarshal(row.WeeklySchedule, &schedule); err != nil {
		return nil, err
	}
	var holidays []sharedDomain.TimeOffInterval
	if err := json.Unmarshal(row.Holidays, &holidays); err != nil {
		return nil, err
	}

	return domain.RehydrateCareGiver(
		row.ID,
		row.FirstName,
		row.LastName,
		row.Email,
		row.Phone,
		row.AddressLine,
		row.City,
		row.Postcode,
		geo.Coordinates{Longitude: row.Longitude, Latitude: row.Latitude},
		sharedDomain.Gender(row.Gender),
		skills,
		row.CanDrive,
		row.SingleHandedOnly,
		row.MaxReceivers,
		schedule,
		holidays,
		row.IsActive,
		row.CreatedAt,
		row.UpdatedAt,
		row.Version,
	), nil
}
