package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/domicare/rota/internal/scheduling/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/database"
	sharedPersistence "github.com/domicare/rota/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const selectAppointmentColumnsSQLite = `
	SELECT id, care_receiver_id, care_giver_id, secondary_care_giver_id, date,
	       start_time, end_time, duration_minutes, visit_number, requirements,
	       double_handed, priority, status, cancellation_reason,
	       invalidation_reason, invalidated_at, availability_version_id,
	       availability_slots, created_at, updated_at, version
	FROM appointments
`

// SQLiteAppointmentRepository implements domain.AppointmentRepository
// using SQLite. String lists and slots are stored as JSON text,
// timestamps as RFC 3339 strings, which keeps date range comparisons
// lexicographic.
type SQLiteAppointmentRepository struct {
	db *sql.DB
}

// NewSQLiteAppointmentRepository creates a new SQLite appointment
// repository.
func NewSQLiteAppointmentRepository(db *sql.DB) *SQLiteAppointmentRepository {
	return &SQLiteAppointmentRepository{db: db}
}

// Save persists an appointment to the database.
func (r *SQLiteAppointmentRepository) Save(ctx context.Context, appt *domain.Appointment) error {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	requirements, err := json.Marshal(sharedDomain.SkillStrings(appt.Requirements()))
	if err != nil {
		return err
	}
	slots, err := json.Marshal(appt.Snapshot().Slots)
	if err != nil {
		return err
	}

	var secondary any
	if id := appt.SecondaryCareGiverID(); id != nil {
		secondary = id.String()
	}
	var versionID any
	if id := appt.Snapshot().VersionID; id != nil {
		versionID = id.String()
	}
	var invalidatedAt any
	if at := appt.InvalidatedAt(); at != nil {
		invalidatedAt = at.UTC().Format(time.RFC3339)
	}

	query := `
		INSERT INTO appointments (
			id, care_receiver_id, care_giver_id, secondary_care_giver_id, date,
			start_time, end_time, duration_minutes, visit_number, requirements,
			double_handed, priority, status, cancellation_reason,
			invalidation_reason, invalidated_at, availability_version_id,
			availability_slots, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			care_giver_id = excluded.care_giver_id,
			secondary_care_giver_id = excluded.secondary_care_giver_id,
			status = excluded.status,
			cancellation_reason = excluded.cancellation_reason,
			invalidation_reason = excluded.invalidation_reason,
			invalidated_at = excluded.invalidated_at,
			updated_at = excluded.updated_at,
			version = appointments.version + 1
	`

	_, err = execer.ExecContext(ctx, query,
		appt.ID().String(),
		appt.CareReceiverID().String(),
		appt.CareGiverID().String(),
		secondary,
		appt.Date().UTC().Format(time.RFC3339),
		appt.StartTime().String(),
		appt.EndTime().String(),
		appt.DurationMinutes(),
		appt.VisitNumber(),
		string(requirements),
		boolToInt(appt.DoubleHanded()),
		appt.Priority(),
		appt.Status().String(),
		appt.CancellationReason(),
		appt.InvalidationReason(),
		invalidatedAt,
		versionID,
		string(slots),
		appt.CreatedAt().UTC().Format(time.RFC3339),
		appt.UpdatedAt().UTC().Format(time.RFC3339),
		appt.Version(),
	)
	return err
}

// FindByID retrieves an appointment by ID. Returns nil when no
// appointment is found.
func (r *SQLiteAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	row := execer.QueryRowContext(ctx, selectAppointmentColumnsSQLite+` WHERE id = ?`, id.String())

	var ar sqliteAppointmentRow
	if err := scanSQLiteAppointment(row.Scan, &ar); err != nil {
		if database.IsNoRows(err) {
			// Not found is not an error
			return nil, nil
		}
		return nil, err
	}

	return sqliteRowToAppointment(ar)
}

// FindByCareGiverAndDate returns all appointments on the UTC day that
// involve the care giver in either role, ordered by start time.
func (r *SQLiteAppointmentRepository) FindByCareGiverAndDate(ctx context.Context, careGiverID uuid.UUID, date time.Time) ([]*domain.Appointment, error) {
	query := selectAppointmentColumnsSQLite + `
		WHERE (care_giver_id = ? OR secondary_care_giver_id = ?) AND date = ?
		ORDER BY start_time, id
	`
	id := careGiverID.String()
	return r.query(ctx, query, id, id, sqliteDay(date))
}

// FindForVisit returns the appointment for a receiver's numbered visit
// on the UTC day, or nil when none exists.
func (r *SQLiteAppointmentRepository) FindForVisit(ctx context.Context, careReceiverID uuid.UUID, date time.Time, visitNumber int) (*domain.Appointment, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	query := selectAppointmentColumnsSQLite + `
		WHERE care_receiver_id = ? AND date = ? AND visit_number = ?
		LIMIT 1
	`
	row := execer.QueryRowContext(ctx, query, careReceiverID.String(), sqliteDay(date), visitNumber)

	var ar sqliteAppointmentRow
	if err := scanSQLiteAppointment(row.Scan, &ar); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	return sqliteRowToAppointment(ar)
}

// FindInWindow returns appointments dated within [from, to] whose
// status is one of the given set, ordered by date then start time.
func (r *SQLiteAppointmentRepository) FindInWindow(ctx context.Context, from, to time.Time, statuses []domain.AppointmentStatus) ([]*domain.Appointment, error) {
	query := selectAppointmentColumnsSQLite + ` WHERE date >= ? AND date <= ?`
	args := []any{sqliteDay(from), sqliteDay(to)}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status.String())
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY date, start_time, id`

	return r.query(ctx, query, args...)
}

// Search returns one page of appointments matching the filter plus the
// total match count, ordered by date then start time.
func (r *SQLiteAppointmentRepository) Search(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, int, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	where, args := buildSQLiteAppointmentFilter(filter)

	var total int
	if err := execer.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := selectAppointmentColumnsSQLite + where + ` ORDER BY date, start_time, id LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	appointments, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

// CountByStatus returns the number of appointments per status within
// [from, to].
func (r *SQLiteAppointmentRepository) CountByStatus(ctx context.Context, from, to time.Time) (map[domain.AppointmentStatus]int, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	query := `
		SELECT status, COUNT(*)
		FROM appointments
		WHERE date >= ? AND date <= ?
		GROUP BY status
	`
	rows, err := execer.QueryContext(ctx, query, sqliteDay(from), sqliteDay(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.AppointmentStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.AppointmentStatus(status)] = count
	}
	return counts, rows.Err()
}

// Delete removes an appointment from the database.
func (r *SQLiteAppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	result, err := execer.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *SQLiteAppointmentRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Appointment, error) {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)

	rows, err := execer.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		var ar sqliteAppointmentRow
		if err := scanSQLiteAppointment(rows.Scan, &ar); err != nil {
			return nil, err
		}
		appt, err := sqliteRowToAppointment(ar)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}
	return appointments, rows.Err()
}

func buildSQLiteAppointmentFilter(filter domain.AppointmentFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.From != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, sqliteDay(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, sqliteDay(*filter.To))
	}
	if filter.CareGiverID != nil {
		conditions = append(conditions, "(care_giver_id = ? OR secondary_care_giver_id = ?)")
		args = append(args, filter.CareGiverID.String(), filter.CareGiverID.String())
	}
	if filter.CareReceiverID != nil {
		conditions = append(conditions, "care_receiver_id = ?")
		args = append(args, filter.CareReceiverID.String())
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status.String())
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// sqliteDay formats the UTC day for storage and comparison.
func sqliteDay(t time.Time) string {
	return sharedDomain.UTCDay(t).Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type sqliteAppointmentRow struct {
	id                    string
	careReceiverID        string
	careGiverID           string
	secondaryCareGiverID  sql.NullString
	date                  string
	startTime             string
	endTime               string
	durationMinutes       int
	visitNumber           int
	requirements          string
	doubleHanded          int
	priority              int
	status                string
	cancellationReason    string
	invalidationReason    string
	invalidatedAt         sql.NullString
	availabilityVersionID sql.NullString
	availabilitySlots     string
	createdAt             string
	updatedAt             string
	version               int
}

func scanSQLiteAppointment(scan func(dest ...any) error, ar *sqliteAppointmentRow) error {
	return scan(
		&ar.id,
		&ar.careReceiverID,
		&ar.careGiverID,
		&ar.secondaryCareGiverID,
		&ar.date,
		&ar.startTime,
		&ar.endTime,
		&ar.durationMinutes,
		&ar.visitNumber,
		&ar.requirements,
		&ar.doubleHanded,
		&ar.priority,
		&ar.status,
		&ar.cancellationReason,
		&ar.invalidationReason,
		&ar.invalidatedAt,
		&ar.availabilityVersionID,
		&ar.availabilitySlots,
		&ar.createdAt,
		&ar.updatedAt,
		&ar.version,
	)
}

func sqliteRowToAppointment(ar sqliteAppointmentRow) (*domain.Appointment, error) {
	id, err := uuid.Parse(ar.id)
	if err != nil {
		return nil, err
	}
	careReceiverID, err := uuid.Parse(ar.careReceiverID)
	if err != nil {
		return nil, err
	}
	careGiverID, err := uuid.Parse(ar.careGiverID)
	if err != nil {
		return nil, err
	}
	var secondaryID *uuid.UUID
	if ar.secondaryCareGiverID.Valid {
		parsed, err := uuid.Parse(ar.secondaryCareGiverID.String)
		if err != nil {
			return nil, err
		}
		secondaryID = &parsed
	}

	date, err := time.Parse(time.RFC3339, ar.date)
	if err != nil {
		return nil, err
	}
	var invalidatedAt *time.Time
	if ar.invalidatedAt.Valid {
		parsed, err := time.Parse(time.RFC3339, ar.invalidatedAt.String)
		if err != nil {
			return nil, err
		}
		invalidatedAt = &parsed
	}
	createdAt, err := time.Parse(time.RFC3339, ar.createdAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339, ar.updatedAt)
	if err != nil {
		return nil, err
	}

	var rawRequirements []string
	if err := json.Unmarshal([]byte(ar.requirements), &rawRequirements); err != nil {
		return nil, fmt.Errorf("requirements: %w", err)
	}
	requirements, err := sharedDomain.ParseSkills(rawRequirements)
	if err != nil {
		return nil, err
	}

	start, err := sharedDomain.ParseClockTime(ar.startTime)
	if err != nil {
		return nil, err
	}
	end, err := sharedDomain.ParseClockTime(ar.endTime)
	if err != nil {
		return nil, err
	}
	window, err := sharedDomain.NewTimeRange(start, end)
	if err != nil {
		return nil, err
	}

	snapshot := domain.AvailabilitySnapshot{}
	if ar.availabilityVersionID.Valid {
		parsed, err := uuid.Parse(ar.availabilityVersionID.String)
		if err != nil {
			return nil, err
		}
		snapshot.VersionID = &parsed
	}
	if ar.availabilitySlots != "" {
		if err := json.Unmarshal([]byte(ar.availabilitySlots), &snapshot.Slots); err != nil {
			return nil, fmt.Errorf("availability slots: %w", err)
		}
	}

	return domain.RehydrateAppointment(
		id,
		careReceiverID,
		careGiverID,
		secondaryID,
		date,
		window,
		ar.durationMinutes,
		ar.visitNumber,
		requirements,
		ar.doubleHanded == 1,
		ar.priority,
		domain.AppointmentStatus(ar.status),
		ar.cancellationReason,
		ar.invalidationReason,
		invalidatedAt,
		snapshot,
		createdAt,
		updatedAt,
		ar.version,
	), nil
}
