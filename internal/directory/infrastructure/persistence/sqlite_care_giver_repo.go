package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/domicare/rota/internal/directory/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/database"
	sharedPersistence "github.com/domicare/rota/internal/shared/infrastructure/persistence"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
)

const selectCareGiverColumnsSQLite = `
	SELECT id, first_name, last_name, email, phone, address_line, city, postcode,
	       longitude, latitude, gender, skills, can_drive, single_handed_only,
	       max_receivers, weekly_schedule, holidays, is_active, created_at,
	       updated_at, version
	FROM care_givers
`

// SQLiteCareGiverRepository implements domain.CareGiverRepository using
// SQLite. String lists are stored as JSON text, timestamps as RFC 3339
// strings.
type SQLiteCareGiverRepository struct {
	db *sql.DB
}

// NewSQLiteCareGiverRepository creates a new SQLite care giver
// repository.
func NewSQLiteCareGiverRepository(db *sql.DB) *SQLiteCareGiverRepository {
	return &SQLiteCareGiverRepository{db: db}
}

// Save persists a care giver to the database.
func (r *SQLiteCareGiverRepository) Save(ctx context.Context, cg *domain.CareGiver) error {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	skills, err := json.Marshal(sharedDomain.SkillStrings(cg.Skills()))
	if err != nil {
		return err
	}
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
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			phone = excluded.phone,
			address_line = excluded.address_line,
			city = excluded.city,
			postcode = excluded.postcode,
			longitude = excluded.longitude,
			latitude = excluded.latitude,
			gender = excluded.gender,
			skills = excluded.skills,
			can_drive = excluded.can_drive,
			single_handed_only = excluded.single_handed_only,
			max_receivers = excluded.max_receivers,
			weekly_schedule = excluded.weekly_schedule,
			holidays = excluded.holidays,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at,
			version = care_givers.version + 1
	`

	_, err = execer.ExecContext(ctx, query,
		cg.ID().String(),
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
		string(skills),
		boolToInt(cg.CanDrive()),
		boolToInt(cg.SingleHandedOnly()),
		cg.MaxReceivers(),
		string(schedule),
		string(holidays),
		boolToInt(cg.IsActive()),
		cg.CreatedAt().UTC().Format(time.RFC3339),
		cg.UpdatedAt().UTC().Format(time.RFC3339),
		cg.Version(),
	)
	return err
}

// FindByID retrieves a care giver by ID. Returns nil when no care giver
// is found.
func (r *SQLiteCareGiverRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CareGiver, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	row := execer.QueryRowContext(ctx, selectCareGiverColumnsSQLite+` WHERE id = ?`, id.String())

	var gr sqliteCareGiverRow
	if err := scanSQLiteCareGiver(row.Scan, &gr); err != nil {
		if database.IsNoRows(err) {
			// Not found is not an error
			return nil, nil
		}
		return nil, err
	}

	return sqliteRowToCareGiver(gr)
}

// FindAll returns every care giver ordered by name, then id.
func (r *SQLiteCareGiverRepository) FindAll(ctx context.Context) ([]*domain.CareGiver, error) {
	return r.findWhere(ctx, ``)
}

// FindActive returns active care givers ordered by name, then id.
func (r *SQLiteCareGiverRepository) FindActive(ctx context.Context) ([]*domain.CareGiver, error) {
	return r.findWhere(ctx, `WHERE is_active = 1`)
}

func (r *SQLiteCareGiverRepository) findWhere(ctx context.Context, where string) ([]*domain.CareGiver, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	query := selectCareGiverColumnsSQLite + where + ` ORDER BY first_name, last_name, id`
	rows, err := execer.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	careGivers := make([]*domain.CareGiver, 0)
	for rows.Next() {
		var gr sqliteCareGiverRow
		if err := scanSQLiteCareGiver(rows.Scan, &gr); err != nil {
			return nil, err
		}
		cg, err := sqliteRowToCareGiver(gr)
		if err != nil {
			return nil, err
		}
		careGivers = append(careGivers, cg)
	}
	return careGivers, rows.Err()
}

// Delete removes a care giver from the database.
func (r *SQLiteCareGiverRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	result, err := execer.ExecContext(ctx, `DELETE FROM care_givers WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCareGiverNotFound
	}
	return nil
}

type sqliteCareGiverRow struct {
	id               string
	firstName        string
	lastName         string
	email            string
	phone            string
	addressLine      string
	city             string
	postcode         string
	longitude        float64
	latitude         float64
	gender           string
	skills           string
	canDrive         int
	singleHandedOnly int
	maxReceivers     int
	weeklySchedule   string
	holidays         string
	isActive         int
	createdAt        string
	updatedAt        string
	version          int
}

func scanSQLiteCareGiver(scan func(dest ...any) error, gr *sqliteCareGiverRow) error {
	return scan(
		&gr.id,
		&gr.firstName,
		&gr.lastName,
		&gr.email,
		&gr.phone,
		&gr.addressLine,
		&gr.city,
		&gr.postcode,
		&gr.longitude,
		&gr.latitude,
		&gr.gender,
		&gr.skills,
		&gr.canDrive,
		&gr.singleHandedOnly,
		&gr.maxReceivers,
		&gr.weeklySchedule,
		&gr.holidays,
		&gr.isActive,
		&gr.createdAt,
		&gr.updatedAt,
		&gr.version,
	)
}

func sqliteRowToCareGiver(gr sqliteCareGiverRow) (*domain.CareGiver, error) {
	id, err := uuid.Parse(gr.id)
	if err != nil {
		return nil, err
	}

	var rawSkills []string
	if err := json.Unmarshal([]byte(gr.skills), &rawSkills); err != nil {
		return nil, err
	}
	skills, err := sharedDomain.ParseSkills(rawSkills)
	if err != nil {
		return nil, err
	}

	var schedule sharedDomain.WeeklySchedule
	if err := json.Unmarshal([]byte(gr.weeklySchedule), &schedule); err != nil {
		return nil, err
	}
	var holidays []sharedDomain.TimeOffInterval
	if err := json.Unmarshal([]byte(gr.holidays), &holidays); err != nil {
		return nil, err
	}

	createdAt, err := time.Parse(time.RFC3339, gr.createdAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339, gr.updatedAt)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateCareGiver(
		id,
		gr.firstName,
		gr.lastName,
		gr.email,
		gr.phone,
		gr.addressLine,
		gr.city,
		gr.postcode,
		geo.Coordinates{Longitude: gr.longitude, Latitude: gr.latitude},
		sharedDomain.Gender(gr.gender),
		skills,
		gr.canDrive == 1,
		gr.singleHandedOnly == 1,
		gr.maxReceivers,
		schedule,
		holidays,
		gr.isActive == 1,
		createdAt,
		updatedAt,
		gr.version,
	), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
