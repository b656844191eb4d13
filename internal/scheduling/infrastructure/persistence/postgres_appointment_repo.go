package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/domicare/rota/internal/scheduling/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/database"
	sharedPersistence "github.com/domicare/rota/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

const selectAppointmentColumns = `
	SELECT id, care_receiver_id, care_giver_id, secondary_care_giver_id, date,
	       start_time, end_time, duration_minutes, visit_number, requirements,
	       double_handed, priority, status, cancellation_reason,
	       invalidation_reason, invalidated_at, availability_version_id,
	       availability_slots, created_at, updated_at, version
	FROM appointments
`

// PostgresAppointmentRepository implements domain.AppointmentRepository
// using PostgreSQL.
type PostgresAppointmentRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAppointmentRepository creates a new PostgreSQL appointment
// repository.
func NewPostgresAppointmentRepository(pool *pgxpool.Pool) *PostgresAppointmentRepository {
	return &PostgresAppointmentRepository{pool: pool}
}

// appointmentRow represents a database row for appointments.
type appointmentRow struct {
	ID                    uuid.UUID
	CareReceiverID        uuid.UUID
	CareGiverID           uuid.UUID
	SecondaryCareGiverID  *uuid.UUID
	Date                  time.Time
	StartTime             string
	EndTime               string
	DurationMinutes       int
	VisitNumber           int
	Requirements          []string
	DoubleHanded          bool
	Priority              int
	Status                string
	CancellationReason    string
	InvalidationReason    string
	InvalidatedAt         *time.Time
	AvailabilityVersionID *uuid.UUID
	AvailabilitySlots     []byte
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Version               int
}

// Save persists an appointment to the database.
func (r *PostgresAppointmentRepository) Save(ctx context.Context, appt *domain.Appointment) error {
	execer := sharedPersistence.Executor(ctx, r.pool)

	slots, err := json.Marshal(appt.Snapshot().Slots)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO appointments (
			id, care_receiver_id, care_giver_id, secondary_care_giver_id, date,
			start_time, end_time, duration_minutes, visit_number, requirements,
			double_handed, priority, status, cancellation_reason,
			invalidation_reason, invalidated_at, availability_version_id,
			availability_slots, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO UPDATE SET
			care_giver_id = EXCLUDED.care_giver_id,
			secondary_care_giver_id = EXCLUDED.secondary_care_giver_id,
			status = EXCLUDED.status,
			cancellation_reason = EXCLUDED.cancellation_reason,
			invalidation_reason = EXCLUDED.invalidation_reason,
			invalidated_at = EXCLUDED.invalidated_at,
			updated_at = EXCLUDED.updated_at,
			version = appointments.version + 1
	`

	_, err = execer.Exec(ctx, query,
		appt.ID(),
		appt.CareReceiverID(),
		appt.CareGiverID(),
		appt.SecondaryCareGiverID(),
		appt.Date(),
		appt.StartTime().String(),
		appt.EndTime().String(),
		appt.DurationMinutes(),
		appt.VisitNumber(),
		pq.Array(sharedDomain.SkillStrings(appt.Requirements())),
		appt.DoubleHanded(),
		appt.Priority(),
		appt.Status().String(),
		appt.CancellationReason(),
		appt.InvalidationReason(),
		appt.InvalidatedAt(),
		appt.Snapshot().VersionID,
		slots,
		appt.CreatedAt(),
		appt.UpdatedAt(),
		appt.Version(),
	)
	return err
}

// FindByID retrieves an appointment by ID. Returns nil when no
// appointment is found.
func (r *PostgresAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	row, err := scanAppointmentRow(execer.QueryRow(ctx, selectAppointmentColumns+` WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			// Not found is not an error
			return nil, nil
		}
		return nil, err
	}

	return rowToAppointment(row)
}

// FindByCareGiverAndDate returns all appointments on the UTC day that
// involve the care giver in either role, ordered by start time.
func (r *PostgresAppointmentRepository) FindByCareGiverAndDate(ctx context.Context, careGiverID uuid.UUID, date time.Time) ([]*domain.Appointment, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	query := selectAppointmentColumns + `
		WHERE (care_giver_id = $1 OR secondary_care_giver_id = $1) AND date = $2
		ORDER BY start_time, id
	`
	rows, err := execer.Query(ctx, query, careGiverID, sharedDomain.UTCDay(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

// FindForVisit returns the appointment for a receiver's numbered visit
// on the UTC day, or nil when none exists.
func (r *PostgresAppointmentRepository) FindForVisit(ctx context.Context, careReceiverID uuid.UUID, date time.Time, visitNumber int) (*domain.Appointment, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	query := selectAppointmentColumns + `
		WHERE care_receiver_id = $1 AND date = $2 AND visit_number = $3
		LIMIT 1
	`
	row, err := scanAppointmentRow(execer.QueryRow(ctx, query, careReceiverID, sharedDomain.UTCDay(date), visitNumber))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	return rowToAppointment(row)
}

// FindInWindow returns appointments dated within [from, to] whose
// status is one of the given set, ordered by date then start time.
func (r *PostgresAppointmentRepository) FindInWindow(ctx context.Context, from, to time.Time, statuses []domain.AppointmentStatus) ([]*domain.Appointment, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	query := selectAppointmentColumns + ` WHERE date >= $1 AND date <= $2`
	args := []any{sharedDomain.UTCDay(from), sharedDomain.UTCDay(to)}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, status := range statuses {
			names[i] = status.String()
		}
		query += ` AND status = ANY($3)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY date, start_time, id`

	rows, err := execer.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

// Search returns one page of appointments matching the filter plus the
// total match count, ordered by date then start time.
func (r *PostgresAppointmentRepository) Search(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, int, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	where, args := buildAppointmentFilter(filter)

	var total int
	if err := execer.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`%s%s ORDER BY date, start_time, id LIMIT $%d OFFSET $%d`,
		selectAppointmentColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := execer.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	appointments, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

// CountByStatus returns the number of appointments per status within
// [from, to].
func (r *PostgresAppointmentRepository) CountByStatus(ctx context.Context, from, to time.Time) (map[domain.AppointmentStatus]int, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)

	query := `
		SELECT status, COUNT(*)
		FROM appointments
		WHERE date >= $1 AND date <= $2
		GROUP BY status
	`
	rows, err := execer.Query(ctx, query, sharedDomain.UTCDay(from), sharedDomain.UTCDay(to))
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
func (r *PostgresAppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.Executor(ctx, r.pool)

	tag, err := execer.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func buildAppointmentFilter(filter domain.AppointmentFilter) (string, []any) {
	var conditions []string
	var args []any

	next := func() int { return len(args) + 1 }

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", next()))
		args = append(args, sharedDomain.UTCDay(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", next()))
		args = append(args, sharedDomain.UTCDay(*filter.To))
	}
	if filter.CareGiverID != nil {
		conditions = append(conditions, fmt.Sprintf("(care_giver_id = $%d OR secondary_care_giver_id = $%d)", next(), next()))
		args = append(args, *filter.CareGiverID)
	}
	if filter.CareReceiverID != nil {
		conditions = append(conditions, fmt.Sprintf("care_receiver_id = $%d", next()))
		args = append(args, *filter.CareReceiverID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", next()))
		args = append(args, filter.Status.String())
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func collectAppointments(rows pgx.Rows) ([]*domain.Appointment, error) {
	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		row, err := scanAppointmentRow(rows)
		if err != nil {
			return nil, err
		}
		appt, err := rowToAppointment(row)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}
	return appointments, rows.Err()
}

func scanAppointmentRow(row pgx.Row) (appointmentRow, error) {
	var r appointmentRow
	err := row.Scan(
		&r.ID,
		&r.CareReceiverID,
		&r.CareGiverID,
		&r.SecondaryCareGiverID,
		&r.Date,
		&r.StartTime,
		&r.EndTime,
		&r.DurationMinutes,
		&r.VisitNumber,
		pq.Array(&r.Requirements),
		&r.DoubleHanded,
		&r.Priority,
		&r.Status,
		&r.CancellationReason,
		&r.InvalidationReason,
		&r.InvalidatedAt,
		&r.AvailabilityVersionID,
		&r.AvailabilitySlots,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.Version,
	)
	return r, err
}

func rowToAppointment(row appointmentRow) (*domain.Appointment, error) {
	requirements, err := sharedDomain.ParseSkills(row.Requirements)
	if err != nil {
		return nil, err
	}

	start, err := sharedDomain.ParseClockTime(row.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := sharedDomain.ParseClockTime(row.EndTime)
	if err != nil {
		return nil, err
	}
	window, err := sharedDomain.NewTimeRange(start, end)
	if err != nil {
		return nil, err
	}

	var slots []sharedDomain.TimeRange
	if len(row.AvailabilitySlots) > 0 {
		if err := json.Unmarshal(row.AvailabilitySlots, &slots); err != nil {
			return nil, err
		}
	}

	return domain.RehydrateAppointment(
		row.ID,
		row.CareReceiverID,
		row.CareGiverID,
		row.SecondaryCareGiverID,
		row.Date,
		window,
		row.DurationMinutes,
		row.VisitNumber,
		requirements,
		row.DoubleHanded,
		row.Priority,
		domain.AppointmentStatus(row.Status),
		row.CancellationReason,
		row.InvalidationReason,
		row.InvalidatedAt,
		domain.AvailabilitySnapshot{VersionID: row.AvailabilityVersionID, Slots: slots},
		row.CreatedAt,
		row.UpdatedAt,
		row.Version,
	), nil
}
