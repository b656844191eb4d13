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

const selectCareReceiverColumnsSQLite = `
	SELECT id, first_name, last_name, phone, address_line, city, postcode,
	       longitude, latitude, gender, gender_preference, preferred_care_giver_id,
	       is_active, created_at, updated_at, version
	FROM care_receivers
`

const selectVisitTemplateColumnsSQLite = `
	SELECT id, care_receiver_id, visit_number, preferred_time, duration_minutes,
	       requirements, double_handed, priority, days_of_week, recurrence,
	       recurrence_interval, recurrence_start_date
	FROM visit_templates
`

// SQLiteCareReceiverRepository implements domain.CareReceiverRepository
// using SQLite.
type SQLiteCareReceiverRepository struct {
	db *sql.DB
}

// NewSQLiteCareReceiverRepository creates a new SQLite care receiver
// repository.
func NewSQLiteCareReceiverRepository(db *sql.DB) *SQLiteCareReceiverRepository {
	return &SQLiteCareReceiverRepository{db: db}
}

// Save persists a care receiver and its visit templates.
func (r *SQLiteCareReceiverRepository) Save(ctx context.Context, cr *domain.CareReceiver) error {
	if err := cr.ValidateVisitNumbers(); err != nil {
		return err
	}

	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	var preferredCareGiverID any
	if cr.PreferredCareGiverID() != nil {
		preferredCareGiverID = cr.PreferredCareGiverID().String()
	}

	query := `
		INSERT INTO care_receivers (
			id, first_name, last_name, phone, address_line, city, postcode,
			longitude, latitude, gender, gender_preference, preferred_care_giver_id,
			is_active, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone = excluded.phone,
			address_line = excluded.address_line,
			city = excluded.city,
			postcode = excluded.postcode,
			longitude = excluded.longitude,
			latitude = excluded.latitude,
			gender = excluded.gender,
			gender_preference = excluded.gender_preference,
			preferred_care_giver_id = excluded.preferred_care_giver_id,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at,
			version = care_receivers.version + 1
	`

	_, err := execer.ExecContext(ctx, query,
		cr.ID().String(),
		cr.FirstName(),
		cr.LastName(),
		cr.Phone(),
		cr.AddressLine(),
		cr.City(),
		cr.Postcode(),
		cr.Location().Longitude,
		cr.Location().Latitude,
		cr.Gender().String(),
		cr.GenderPreference().String(),
		preferredCareGiverID,
		boolToInt(cr.IsActive()),
		cr.CreatedAt().UTC().Format(time.RFC3339),
		cr.UpdatedAt().UTC().Format(time.RFC3339),
		cr.Version(),
	)
	if err != nil {
		return err
	}

	// Templates are rewritten with their owner so removals and renumbering
	// never leave stale rows behind.
	if _, err := execer.ExecContext(ctx, `DELETE FROM visit_templates WHERE care_receiver_id = ?`, cr.ID().String()); err != nil {
		return err
	}
	for _, vt := range cr.VisitTemplates() {
		requirements, err := json.Marshal(sharedDomain.SkillStrings(vt.Requirements()))
		if err != nil {
			return err
		}
		days, err := json.Marshal(sharedDomain.DayOfWeekStrings(vt.DaysOfWeek()))
		if err != nil {
			return err
		}

		_, err = execer.ExecContext(ctx, `
			INSERT INTO visit_templates (
				id, care_receiver_id, visit_number, preferred_time, duration_minutes,
				requirements, double_handed, priority, days_of_week, recurrence,
				recurrence_interval, recurrence_start_date
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			vt.ID().String(),
			vt.CareReceiverID().String(),
			vt.VisitNumber(),
			vt.PreferredTime().String(),
			vt.DurationMinutes(),
			string(requirements),
			boolToInt(vt.DoubleHanded()),
			vt.Priority(),
			string(days),
			vt.Recurrence().String(),
			vt.RecurrenceInterval(),
			sqliteNullTime(vt.RecurrenceStartDate()),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// FindByID retrieves a care receiver by ID. Returns nil when no care
// receiver is found.
func (r *SQLiteCareReceiverRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CareReceiver, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	row := execer.QueryRowContext(ctx, selectCareReceiverColumnsSQLite+` WHERE id = ?`, id.String())

	var rr sqliteCareReceiverRow
	if err := scanSQLiteCareReceiver(row.Scan, &rr); err != nil {
		if database.IsNoRows(err) {
			// Not found is not an error
			return nil, nil
		}
		return nil, err
	}

	return r.rowToCareReceiver(ctx, rr)
}

// FindAll returns every care receiver ordered by name, then id.
func (r *SQLiteCareReceiverRepository) FindAll(ctx context.Context) ([]*domain.CareReceiver, error) {
	return r.findWhere(ctx, ``)
}

// FindActive returns active care receivers ordered by name, then id.
func (r *SQLiteCareReceiverRepository) FindActive(ctx context.Context) ([]*domain.CareReceiver, error) {
	return r.findWhere(ctx, `WHERE is_active = 1`)
}

func (r *SQLiteCareReceiverRepository) findWhere(ctx context.Context, where string) ([]*domain.CareReceiver, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	query := selectCareReceiverColumnsSQLite + where + ` ORDER BY first_name, last_name, id`
	rows, err := execer.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collected := make([]sqliteCareReceiverRow, 0)
	for rows.Next() {
		var rr sqliteCareReceiverRow
		if err := scanSQLiteCareReceiver(rows.Scan, &rr); err != nil {
			return nil, err
		}
		collected = append(collected, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	careReceivers := make([]*domain.CareReceiver, 0, len(collected))
	for _, rr := range collected {
		cr, err := r.rowToCareReceiver(ctx, rr)
		if err != nil {
			return nil, err
		}
		careReceivers = append(careReceivers, cr)
	}
	return careReceivers, nil
}

// Delete removes a care receiver and its templates.
func (r *SQLiteCareReceiverRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	if _, err := execer.ExecContext(ctx, `DELETE FROM visit_templates WHERE care_receiver_id = ?`, id.String()); err != nil {
		return err
	}
	result, err := execer.ExecContext(ctx, `DELETE FROM care_receivers WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCareReceiverNotFound
	}
	return nil
}

type sqliteCareReceiverRow struct {
	id                   string
	firstName            string
	lastName             string
	phone                string
	addressLine          string
	city                 string
	postcode             string
	longitude            float64
	latitude             float64
	gender               string
	genderPreference     string
	preferredCareGiverID sql.NullString
	isActive             int
	createdAt            string
	updatedAt            string
	version              int
}

func scanSQLiteCareReceiver(scan func(dest ...any) error, rr *sqliteCareReceiverRow) error {
	return scan(
		&rr.id,
		&rr.firstName,
		&rr.lastName,
		&rr.phone,
		&rr.addressLine,
		&rr.city,
		&rr.postcode,
		&rr.longitude,
		&rr.latitude,
		&rr.gender,
		&rr.genderPreference,
		&rr.preferredCareGiverID,
		&rr.isActive,
		&rr.createdAt,
		&rr.updatedAt,
		&rr.version,
	)
}

func (r *SQLiteCareReceiverRepository) rowToCareReceiver(ctx context.Context, rr sqliteCareReceiverRow) (*domain.CareReceiver, error) {
	id, err := uuid.Parse(rr.id)
	if err != nil {
		return nil, err
	}

	var preferredCareGiverID *uuid.UUID
	if rr.preferredCareGiverID.Valid {
		parsed, err := uuid.Parse(rr.preferredCareGiverID.String)
		if err != nil {
			return nil, err
		}
		preferredCareGiverID = &parsed
	}

	templates, err := r.loadVisitTemplates(ctx, rr.id)
	if err != nil {
		return nil, err
	}

	createdAt, err := time.Parse(time.RFC3339, rr.createdAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339, rr.updatedAt)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateCareReceiver(
		id,
		rr.firstName,
		rr.lastName,
		rr.phone,
		rr.addressLine,
		rr.city,
		rr.postcode,
		geo.Coordinates{Longitude: rr.longitude, Latitude: rr.latitude},
		sharedDomain.Gender(rr.gender),
		sharedDomain.GenderPreference(rr.genderPreference),
		preferredCareGiverID,
		templates,
		rr.isActive == 1,
		createdAt,
		updatedAt,
		rr.version,
	), nil
}

func (r *SQLiteCareReceiverRepository) loadVisitTemplates(ctx context.Context, careReceiverID string) ([]*domain.VisitTemplate, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	rows, err := execer.QueryContext(ctx, selectVisitTemplateColumnsSQLite+` WHERE care_receiver_id = ? ORDER BY visit_number`, careReceiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]*domain.VisitTemplate, 0)
	for rows.Next() {
		var (
			id, ownerID, preferredTime, requirements, days, recurrence string
			visitNumber, durationMinutes, doubleHanded, priority       int
			recurrenceInterval                                         int
			recurrenceStartDate                                        sql.NullString
		)
		err := rows.Scan(
			&id,
			&ownerID,
			&visitNumber,
			&preferredTime,
			&durationMinutes,
			&requirements,
			&doubleHanded,
			&priority,
			&days,
			&recurrence,
			&recurrenceInterval,
			&recurrenceStartDate,
		)
		if err != nil {
			return nil, err
		}

		vt, err := sqliteRowToVisitTemplate(id, ownerID, visitNumber, preferredTime, durationMinutes,
			requirements, doubleHanded == 1, priority, days, recurrence, recurrenceInterval, recurrenceStartDate)
		if err != nil {
			return nil, err
		}
		templates = append(templates, vt)
	}
	return templates, rows.Err()
}

func sqliteRowToVisitTemplate(
	id, ownerID string,
	visitNumber int,
	preferredTime string,
	durationMinutes int,
	requirements string,
	doubleHanded bool,
	priority int,
	days, recurrence string,
	recurrenceInterval int,
	recurrenceStartDate sql.NullString,
) (*domain.VisitTemplate, error) {
	templateID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	careReceiverID, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, err
	}
	clock, err := sharedDomain.ParseClockTime(preferredTime)
	if err != nil {
		return nil, err
	}

	var rawRequirements []string
	if err := json.Unmarshal([]byte(requirements), &rawRequirements); err != nil {
		return nil, err
	}
	skills, err := sharedDomain.ParseSkills(rawRequirements)
	if err != nil {
		return nil, err
	}

	var rawDays []string
	if err := json.Unmarshal([]byte(days), &rawDays); err != nil {
		return nil, err
	}
	daysOfWeek, err := sharedDomain.ParseDaysOfWeek(rawDays)
	if err != nil {
		return nil, err
	}

	var startDate *time.Time
	if recurrenceStartDate.Valid {
		parsed, err := time.Parse(time.RFC3339, recurrenceStartDate.String)
		if err != nil {
			return nil, err
		}
		startDate = &parsed
	}

	return domain.RehydrateVisitTemplate(
		templateID,
		careReceiverID,
		visitNumber,
		clock,
		durationMinutes,
		skills,
		doubleHanded,
		priority,
		daysOfWeek,
		domain.Recurrence(recurrence),
		recurrenceInterval,
		startDate,
	), nil
}

func sqliteNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
