package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/domicare/rota/internal/availability/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/database"
	sharedPersistence "github.com/domicare/rota/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const selectVersionColumnsSQLite = `
	SELECT id, care_giver_id, version, schedule, effective_from, effective_to,
	       is_active, created_at, updated_at
	FROM availability_versions
`

// SQLiteVersionRepository implements domain.Repository using SQLite.
// Timestamps are stored as RFC 3339 strings, which compare
// chronologically. SQLite serializes writers, so the FOR UPDATE lock of
// the PostgreSQL repository has no equivalent here and none is needed.
type SQLiteVersionRepository struct {
	db *sql.DB
}

// NewSQLiteVersionRepository creates a new SQLite availability version
// repository.
func NewSQLiteVersionRepository(db *sql.DB) *SQLiteVersionRepository {
	return &SQLiteVersionRepository{db: db}
}

// Save persists a version and its time-off intervals.
func (r *SQLiteVersionRepository) Save(ctx context.Context, av *domain.AvailabilityVersion) error {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	schedule, err := json.Marshal(av.Schedule())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO availability_versions (
			id, care_giver_id, version, schedule, effective_from, effective_to,
			is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			effective_to = excluded.effective_to,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`

	_, err = execer.ExecContext(ctx, query,
		av.ID().String(),
		av.CareGiverID().String(),
		av.VersionNumber(),
		string(schedule),
		av.EffectiveFrom().UTC().Format(time.RFC3339),
		sqliteNullTime(av.EffectiveTo()),
		boolToInt(av.IsActive()),
		av.CreatedAt().UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	if _, err := execer.ExecContext(ctx,
		`DELETE FROM availability_time_off WHERE availability_version_id = ?`,
		av.ID().String(),
	); err != nil {
		return err
	}
	for _, interval := range av.TimeOff() {
		_, err := execer.ExecContext(ctx, `
			INSERT INTO availability_time_off (id, availability_version_id, start_date, end_date, reason)
			VALUES (?, ?, ?, ?, ?)
		`,
			uuid.New().String(),
			av.ID().String(),
			interval.Start.UTC().Format(time.RFC3339),
			interval.End.UTC().Format(time.RFC3339),
			interval.Reason,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// FindByID retrieves a version by its ID.
func (r *SQLiteVersionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.AvailabilityVersion, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)
	row := execer.QueryRowContext(ctx, selectVersionColumnsSQLite+` WHERE id = ?`, id.String())
	return r.scanVersion(ctx, row)
}

// FindOpenForUpdate returns the care giver's open versions. SQLite runs
// one writer at a time, which already serializes version transitions.
func (r *SQLiteVersionRepository) FindOpenForUpdate(ctx context.Context, careGiverID uuid.UUID) ([]*domain.AvailabilityVersion, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	query := selectVersionColumnsSQLite + `
		WHERE care_giver_id = ? AND effective_to IS NULL AND is_active = 1
		ORDER BY version
	`

	rows, err := execer.QueryContext(ctx, query, careGiverID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanVersions(ctx, rows)
}

// MaxVersionNumber returns the highest stored version number, zero when
// none exist.
func (r *SQLiteVersionRepository) MaxVersionNumber(ctx context.Context, careGiverID uuid.UUID) (int, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	var maxVersion int
	err := execer.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM availability_versions WHERE care_giver_id = ?`,
		careGiverID.String(),
	).Scan(&maxVersion)
	if err != nil {
		return 0, err
	}
	return maxVersion, nil
}

// CurrentFor returns the active version in force on the given day.
func (r *SQLiteVersionRepository) CurrentFor(ctx context.Context, careGiverID uuid.UUID, at time.Time) (*domain.AvailabilityVersion, error) {
	return r.findInForce(ctx, careGiverID, at, true)
}

// At returns the version in force on the given day regardless of the
// active flag.
func (r *SQLiteVersionRepository) At(ctx context.Context, careGiverID uuid.UUID, at time.Time) (*domain.AvailabilityVersion, error) {
	return r.findInForce(ctx, careGiverID, at, false)
}

func (r *SQLiteVersionRepository) findInForce(ctx context.Context, careGiverID uuid.UUID, at time.Time, activeOnly bool) (*domain.AvailabilityVersion, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)
	day := sharedDomain.UTCDay(at).Format(time.RFC3339)

	query := selectVersionColumnsSQLite + `
		WHERE care_giver_id = ?
		  AND effective_from <= ?
		  AND (effective_to IS NULL OR effective_to >= ?)
	`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY effective_from DESC, version DESC LIMIT 1`

	row := execer.QueryRowContext(ctx, query, careGiverID.String(), day, day)
	return r.scanVersion(ctx, row)
}

// History returns all versions newest effective_from first.
func (r *SQLiteVersionRepository) History(ctx context.Context, careGiverID uuid.UUID) ([]*domain.AvailabilityVersion, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	query := selectVersionColumnsSQLite + `
		WHERE care_giver_id = ?
		ORDER BY effective_from DESC, version DESC
	`

	rows, err := execer.QueryContext(ctx, query, careGiverID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanVersions(ctx, rows)
}

type sqliteVersionRow struct {
	id            string
	careGiverID   string
	version       int
	schedule      string
	effectiveFrom string
	effectiveTo   sql.NullString
	isActive      int
	createdAt     string
	updatedAt     string
}

func (r *SQLiteVersionRepository) scanVersion(ctx context.Context, row *sql.Row) (*domain.AvailabilityVersion, error) {
	var vr sqliteVersionRow
	err := row.Scan(
		&vr.id,
		&vr.careGiverID,
		&vr.version,
		&vr.schedule,
		&vr.effectiveFrom,
		&vr.effectiveTo,
		&vr.isActive,
		&vr.createdAt,
		&vr.updatedAt,
	)
	if database.IsNoRows(err) {
		return nil, domain.ErrVersionNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.rowToVersion(ctx, vr)
}

func (r *SQLiteVersionRepository) scanVersions(ctx context.Context, rows *sql.Rows) ([]*domain.AvailabilityVersion, error) {
	collected := make([]sqliteVersionRow, 0)
	for rows.Next() {
		var vr sqliteVersionRow
		err := rows.Scan(
			&vr.id,
			&vr.careGiverID,
			&vr.version,
			&vr.schedule,
			&vr.effectiveFrom,
			&vr.effectiveTo,
			&vr.isActive,
			&vr.createdAt,
			&vr.updatedAt,
		)
		if err != nil {
			return nil, err
		}
		collected = append(collected, vr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	versions := make([]*domain.AvailabilityVersion, 0, len(collected))
	for _, vr := range collected {
		version, err := r.rowToVersion(ctx, vr)
		if err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, nil
}

func (r *SQLiteVersionRepository) rowToVersion(ctx context.Context, vr sqliteVersionRow) (*domain.AvailabilityVersion, error) {
	id, err := uuid.Parse(vr.id)
	if err != nil {
		return nil, err
	}
	careGiverID, err := uuid.Parse(vr.careGiverID)
	if err != nil {
		return nil, err
	}

	var schedule sharedDomain.WeeklySchedule
	if vr.schedule != "" {
		if err := json.Unmarshal([]byte(vr.schedule), &schedule); err != nil {
			return nil, err
		}
	}

	timeOff, err := r.loadTimeOff(ctx, vr.id)
	if err != nil {
		return nil, err
	}

	effectiveFrom, err := time.Parse(time.RFC3339, vr.effectiveFrom)
	if err != nil {
		return nil, err
	}
	var effectiveTo *time.Time
	if vr.effectiveTo.Valid {
		parsed, err := time.Parse(time.RFC3339, vr.effectiveTo.String)
		if err != nil {
			return nil, err
		}
		effectiveTo = &parsed
	}
	createdAt, err := time.Parse(time.RFC3339, vr.createdAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339, vr.updatedAt)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateAvailabilityVersion(
		id,
		careGiverID,
		vr.version,
		schedule,
		timeOff,
		effectiveFrom,
		effectiveTo,
		vr.isActive == 1,
		createdAt,
		updatedAt,
	), nil
}

func (r *SQLiteVersionRepository) loadTimeOff(ctx context.Context, versionID string) ([]sharedDomain.TimeOffInterval, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	rows, err := execer.QueryContext(ctx, `
		SELECT start_date, end_date, reason
		FROM availability_time_off
		WHERE availability_version_id = ?
		ORDER BY start_date
	`, versionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	intervals := make([]sharedDomain.TimeOffInterval, 0)
	for rows.Next() {
		var start, end, reason string
		if err := rows.Scan(&start, &end, &reason); err != nil {
			return nil, err
		}
		startAt, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, err
		}
		endAt, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, sharedDomain.TimeOffInterval{Start: startAt, End: endAt, Reason: reason})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return intervals, nil
}

func sqliteNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
