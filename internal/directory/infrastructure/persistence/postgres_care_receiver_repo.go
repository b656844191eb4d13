package persistence

import (
	"context"
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

const selectCareReceiverColumns = `
	SELECT id, first_name, last_name, phone, address_line, city, postcode,
	       longitude, latitude, gender, gender_preference, preferred_care_giver_id,
	       is_active, created_at, updated_at, version
	FROM care_receivers
`

const selectVisitTemplateColumns = `
	SELECT id, care_receiver_id, visit_number, preferred_time, duration_minutes,
	       requirements, double_handed, priority, days_of_week, recurrence,
	       recurrence_interval, recurrence_start_date
	FROM visit_templates
`

// PostgresCareReceiverRepository implements domain.CareReceiverRepository
// using PostgreSQL.
type PostgresCareReceiverRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCareReceiverRepository creates a new PostgreSQL care
// receiver repository.
func NewPostgresCareReceiverRepository(pool *pgxpool.Pool) *PostgresCareReceiverRepository {
	return &PostgresCareReceiverRepository{pool: pool}
}

// careReceiverRow represents a database row for care receivers.
type careReceiverRow struct {
	ID                   uuid.UUID
	FirstName            string
	LastName             string
	Phone                string
	AddressLine          string
	City                 string
	Postcode             string
	Longitude            float64
	Latitude             float64
	Gender               string
	GenderPreference     string
	PreferredCareGiverID *uuid.UUID
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Version              int
}

// visitTemplateRow represents a database row for visit templates.
type visitTemplateRow struct {
	ID                  uuid.UUID
	CareReceiverID      uuid.UUID
	VisitNumber         int
	PreferredTime       string
	DurationMinutes     int
	Requirements        []string
	DoubleHanded        bool
	Priority            int
	DaysOfWeek          []string
	Recurrence          string
	RecurrenceInterval  int
	RecurrenceStartDate *time.Time
}

// Save persists a care receiver and its visit templates.
func (r *PostgresCareReceiverRepository) Save(ctx context.Context, cr *domain.CareReceiver) error {
	if info, ok := sharedPersistence.TxInfoFromContext(ctx); ok {
		return r.saveWithTx(ctx, info.Tx, cr)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := r.saveWithTx(ctx, tx, cr); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresCareReceiverRepository) saveWithTx(ctx context.Context, tx pgx.Tx, cr *domain.CareReceiver) error {
	if err := cr.ValidateVisitNumbers(); err != nil {
		return err
	}

	query := `
		INSERT INTO care_receivers (
			id, first_name, last_name, phone, address_line, city, postcode,
			longitude, latitude, gender, gender_preference, preferred_care_giver_id,
			is_active, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			address_line = EXCLUDED.address_line,
			city = EXCLUDED.city,
			postcode = EXCLUDED.postcode,
			longitude = EXCLUDED.longitude,
			latitude = EXCLUDED.latitude,
			gender = EXCLUDED.gender,
			gender_preference = EXCLUDED.gender_preference,
			preferred_care_giver_id = EXCLUDED.preferred_care_giver_id,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at,
			version = care_receivers.version + 1
	`

	_, err := tx.Exec(ctx, query,
		cr.ID(),
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
		cr.PreferredCareGiverID(),
		cr.IsActive(),
		cr.CreatedAt(),
		cr.UpdatedAt(),
		cr.Version(),
	)
	if err != nil {
		return err
	}

	// Templates are rewritten with their owner so removals and renumbering
	// never leave stale rows behind.
	if _, err := tx.Exec(ctx, `DELETE FROM visit_templates WHERE care_receiver_id = $1`, cr.ID()); err != nil {
		return err
	}
	for _, vt := range cr.VisitTemplates() {
		_, err := tx.Exec(ctx, `
			INSERT INTO visit_templates (
				id, care_receiver_id, visit_number, preferred_time, duration_minutes,
				requirements, double_handed, priority, days_of_week, recurrence,
				recurrence_interval, recurrence_start_date
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			vt.ID(),
			vt.CareReceiverID(),
			vt.VisitNumber(),
			vt.PreferredTime().String(),
			vt.DurationMinutes(),
			sharedDomain.SkillStrings(vt.Requirements()),
			vt.DoubleHanded(),
			vt.Priority(),
			sharedDomain.DayOfWeekStrings(vt.DaysOfWeek()),
			vt.Recurrence().String(),
			vt.RecurrenceInterval(),
			vt.RecurrenceStartDate(),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// FindByID retrieves a care receiver by ID. Returns nil when no care
// receiver is found.
func (r *PostgresCareReceiverRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CareReceiver, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	row, err := scanCareReceiverRow(execer.QueryRow(ctx, selectCareReceiverColumns+` WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			// Not found is not an error
			return nil, nil
		}
		return nil, err
	}

	return r.rowToCareReceiver(ctx, row)
}

// FindAll returns every care receiver ordered by name, then id.
func (r *PostgresCareReceiverRepository) FindAll(ctx context.Context) ([]*domain.CareReceiver, error) {
	return r.findWhere(ctx, ``)
}

// FindActive returns active care receivers ordered by name, then id.
func (r *PostgresCareReceiverRepository) FindActive(ctx context.Context) ([]*domain.CareReceiver, error) {
	return r.findWhere(ctx, `WHERE is_active`)
}

func (r *PostgresCareReceiverRepository) findWhere(ctx context.Context, where string) ([]*domain.CareReceiver, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	query := selectCareReceiverColumns + where + ` ORDER BY first_name, last_name, id`
	rows, err := execer.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collected := make([]careReceiverRow, 0)
	for rows.Next() {
		row, err := scanCareReceiverRow(rows)
		if err != nil {
			return nil, err
		}
		collected = append(collected, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	careReceivers := make([]*domain.CareReceiver, 0, len(collected))
	for _, row := range collected {
		cr, err := r.rowToCareReceiver(ctx, row)
		if err != nil {
			return nil, err
		}
		careReceivers = append(careReceivers, cr)
	}
	return careReceivers, nil
}

// Delete removes a care receiver and its templates.
func (r *PostgresCareReceiverRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.Executor(ctx, r.pool)

	tag, err := execer.Exec(ctx, `DELETE FROM care_receivers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCareReceiverNotFound
	}
	return nil
}

func (r *PostgresCareReceiverRepository) loadVisitTemplates(ctx context.Context, careReceiverID uuid.UUID) ([]*domain.VisitTemplate, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	rows, err := execer.Query(ctx, selectVisitTemplateColumns+` WHERE care_receiver_id = $1 ORDER BY visit_number`, careReceiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]*domain.VisitTemplate, 0)
	for rows.Next() {
		var row visitTemplateRow
		err := rows.Scan(
			&row.ID,
			&row.CareReceiverID,
			&row.VisitNumber,
			&row.PreferredTime,
			&row.DurationMinutes,
			&row.Requirements,
			&row.DoubleHanded,
			&row.Priority,
			&row.DaysOfWeek,
			&row.Recurrence,
			&row.RecurrenceInterval,
			&row.RecurrenceStartDate,
		)
		if err != nil {
			return nil, err
		}
		vt, err := rowToVisitTemplate(row)
		if err != nil {
			return nil, err
		}
		templates = append(templates, vt)
	}
	return templates, rows.Err()
}

func (r *PostgresCareReceiverRepository) rowToCareReceiver(ctx context.Context, row careReceiverRow) (*domain.CareReceiver, error) {
	templates, err := r.loadVisitTemplates(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateCareReceiver(
		row.ID,
		row.FirstName,
		row.LastName,
		row.Phone,
		row.AddressLine,
		row.City,
		row.Postcode,
		geo.Coordinates{Longitude: row.Longitude, Latitude: row.Latitude},
		sharedDomain.Gender(row.Gender),
		sharedDomain.GenderPreference(row.GenderPreference),
		row.PreferredCareGiverID,
		templates,
		row.IsActive,
		row.CreatedAt,
		row.UpdatedAt,
		row.Version,
	), nil
}

func scanCareReceiverRow(row pgx.Row) (careReceiverRow, error) {
	var r careReceiverRow
	err := row.Scan(
		&r.ID,
		&r.FirstName,
		&r.LastName,
		&r.Phone,
		&r.AddressLine,
		&r.City,
		&r.Postcode,
		&r.Longitude,
		&r.Latitude,
		&r.Gender,
		&r.GenderPreference,
		&r.PreferredCareGiverID,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.Version,
	)
	return r, err
}

func rowToVisitTemplate(row visitTemplateRow) (*domain.VisitTemplate, error) {
	preferredTime, err := sharedDomain.ParseClockTime(row.PreferredTime)
	if err != nil {
		return nil, err
	}
	requirements, err := sharedDomain.ParseSkills(row.Requirements)
	if err != nil {
		return nil, err
	}
	days, err := sharedDomain.ParseDaysOfWeek(row.DaysOfWeek)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateVisitTemplate(
		row.ID,
		row.CareReceiverID,
		row.VisitNumber,
		preferredTime,
		row.DurationMinutes,
		requirements,
		row.DoubleHanded,
		row.Priority,
		days,
		domain.Recurrence(row.Recurrence),
		row.RecurrenceInterval,
		row.RecurrenceStartDate,
	), nil
}
