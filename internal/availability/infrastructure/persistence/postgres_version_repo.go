package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/domicare/rota/internal/availability/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/database"
	sharedPersistence "github.com/domicare/rota/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectVersionColumns = `
	SELECT id, care_giver_id, version, schedule, effective_from, effective_to,
	       is_active, created_at, updated_at
	FROM availability_versions
`

// PostgresVersionRepository implements domain.Repository using PostgreSQL.
type PostgresVersionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresVersionRepository creates a new PostgreSQL availability
// version repository.
func NewPostgresVersionRepository(pool *pgxpool.Pool) *PostgresVersionRepository {
	return &PostgresVersionRepository{pool: pool}
}

// versionRow represents a database row for availability versions.
type versionRow struct {
	ID            uuid.UUID
	CareGiverID   uuid.UUID
	Version       int
	Schedule      []byte
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Save persists a version and its time-off intervals.
func (r *PostgresVersionRepository) Save(ctx context.Context, av *domain.AvailabilityVersion) error {
	if info, ok := sharedPersistence.TxInfoFromContext(ctx); ok {
		return r.saveWithTx(ctx, info.Tx, av)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := r.saveWithTx(ctx, tx, av); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresVersionRepository) saveWithTx(ctx context.Context, tx pgx.Tx, av *domain.AvailabilityVersion) error {
	schedule, err := json.Marshal(av.Schedule())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO availability_versions (
			id, care_giver_id, version, schedule, effective_from, effective_to,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			effective_to = EXCLUDED.effective_to,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
	`

	_, err = tx.Exec(ctx, query,
		av.ID(),
		av.CareGiverID(),
		av.VersionNumber(),
		schedule,
		av.EffectiveFrom(),
		av.EffectiveTo(),
		av.IsActive(),
		av.CreatedAt(),
		av.UpdatedAt(),
	)
	if err != nil {
		return err
	}

	// Time off is written once with the version; rewrite keeps the save
	// path idempotent.
	if _, err := tx.Exec(ctx, `DELETE FROM availability_time_off WHERE availability_version_id = $1`, av.ID()); err != nil {
		return err
	}
	for _, interval := range av.TimeOff() {
		_, err := tx.Exec(ctx, `
			INSERT INTO availability_time_off (id, availability_version_id, start_date, end_date, reason)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New(), av.ID(), interval.Start, interval.End, interval.Reason)
		if err != nil {
			return err
		}
	}

	return nil
}

// FindByID retrieves a version by its ID.
func (r *PostgresVersionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.AvailabilityVersion, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	var row versionRow
	err := execer.QueryRow(ctx, selectVersionColumns+` WHERE id = $1`, id).Scan(
		&row.ID,
		&row.CareGiverID,
		&row.Version,
		&row.Schedule,
		&row.EffectiveFrom,
		&row.EffectiveTo,
		&row.IsActive,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrVersionNotFound
		}
		return nil, err
	}

	return r.rowToVersion(ctx, row)
}

// FindOpenForUpdate locks and returns the care giver's open versions.
// Meaningful only inside a transaction; the lock serializes concurrent
// version writes per care giver.
func (r *PostgresVersionRepository) FindOpenForUpdate(ctx context.Context, careGiverID uuid.UUID) ([]*domain.AvailabilityVersion, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	query := selectVersionColumns + `
		WHERE care_giver_id = $1 AND effective_to IS NULL AND is_active
		ORDER BY version
		FOR UPDATE
	`

	rows, err := execer.Query(ctx, query, careGiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanVersions(ctx, rows)
}

// MaxVersionNumber returns the highest stored version number, zero when
// none exist.
func (r *PostgresVersionRepository) MaxVersionNumber(ctx context.Context, careGiverID uuid.UUID) (int, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	var maxVersion int
	err := execer.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM availability_versions WHERE care_giver_id = $1`,
		careGiverID,
	).Scan(&maxVersion)
	if err != nil {
		return 0, err
	}
	return maxVersion, nil
}

// CurrentFor returns the active version in force on the given day.
func (r *PostgresVersionRepository) CurrentFor(ctx context.Context, careGiverID uuid.UUID, at time.Time) (*domain.AvailabilityVersion, error) {
	return r.findInForce(ctx, careGiverID, at, true)
}

// At returns the version in force on the given day regardless of the
// active flag.
func (r *PostgresVersionRepository) At(ctx context.Context, careGiverID uuid.UUID, at time.Time) (*domain.AvailabilityVersion, error) {
	return r.findInForce(ctx, careGiverID, at, false)
}

func (r *PostgresVersionRepository) findInForce(ctx context.Context, careGiverID uuid.UUID, at time.Time, activeOnly bool) (*domain.AvailabilityVersion, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	day := sharedDomain.UTCDay(at)

	query := selectVersionColumns + `
		WHERE care_giver_id = $1
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to >= $2)
	`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY effective_from DESC, version DESC LIMIT 1`

	var row versionRow
	err := execer.QueryRow(ctx, query, careGiverID, day).Scan(
		&row.ID,
		&row.CareGiverID,
		&row.Version,
		&row.Schedule,
		&row.EffectiveFrom,
		&row.EffectiveTo,
		&row.IsActive,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrVersionNotFound
		}
		return nil, err
	}

	return r.rowToVersion(ctx, row)
}

// History returns all versions newest effective_from first.
func (r *PostgresVersionRepository) History(ctx context.Context, careGiverID uuid.UUID) ([]*domain.AvailabilityVersion, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	query := selectVersionColumns + `
		WHERE care_giver_id = $1
		ORDER BY effective_from DESC, version DESC
	`

	rows, err := execer.Query(ctx, query, careGiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanVersions(ctx, rows)
}

func (r *PostgresVersionRepository) scanVersions(ctx context.Context, rows pgx.Rows) ([]*domain.AvailabilityVersion, error) {
	collected := make([]versionRow, 0)
	for rows.Next() {
		var row versionRow
		err := rows.Scan(
			&row.ID,
			&row.CareGiverID,
			&row.Version,
			&row.Schedule,
			&row.EffectiveFrom,
			&row.EffectiveTo,
			&row.IsActive,
			&row.CreatedAt,
			&row.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		collected = append(collected, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	versions := make([]*domain.AvailabilityVersion, 0, len(collected))
	for _, row := range collected {
		version, err := r.rowToVersion(ctx, row)
		if err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, nil
}

func (r *PostgresVersionRepository) rowToVersion(ctx context.Context, row versionRow) (*domain.AvailabilityVersion, error) {
	var schedule sharedDomain.WeeklySchedule
	if len(row.Schedule) > 0 {
		if err := json.Unmarshal(row.Schedule, &schedule); err != nil {
			return nil, err
		}
	}

	timeOff, err := r.loadTimeOff(ctx, row.ID)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateAvailabilityVersion(
		row.ID,
		row.CareGiverID,
		row.Version,
		schedule,
		timeOff,
		row.EffectiveFrom,
		row.EffectiveTo,
		row.IsActive,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func (r *PostgresVersionRepository) loadTimeOff(ctx context.Context, versionID uuid.UUID) ([]sharedDomain.TimeOffInterval, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	rows, err := execer.Query(ctx, `
		SELECT start_date, end_date, reason
		FROM availability_time_off
		WHERE availability_version_id = $1
		ORDER BY start_date
	`, versionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	intervals := make([]sharedDomain.TimeOffInterval, 0)
	for rows.Next() {
		var interval sharedDomain.TimeOffInterval
		if err := rows.Scan(&interval.Start, &interval.End, &interval.Reason); err != nil {
			return nil, err
		}
		intervals = append(intervals, interval)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return intervals, nil
}
