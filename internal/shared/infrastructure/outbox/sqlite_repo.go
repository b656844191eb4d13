package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	sharedPersistence "github.com/domicare/rota/internal/shared/infrastructure/persistence"
)

const insertMessageSQLite = `
	INSERT INTO outbox_messages (
		event_id, aggregate_type, aggregate_id, event_type, routing_key,
		payload, metadata, created_at, next_retry_at, dead_lettered_at, dead_letter_reason
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectMessageColumnsSQLite = `
	SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
	       payload, metadata, created_at, published_at, next_retry_at, retry_count,
	       last_error, dead_lettered_at, dead_letter_reason
	FROM outbox_messages
`

// SQLiteRepository implements Repository using SQLite. Timestamps are
// stored as RFC 3339 strings, which compare chronologically.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite outbox repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save stores a new outbox message, joining an ambient transaction if any.
func (r *SQLiteRepository) Save(ctx context.Context, msg *Message) error {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)
	result, err := execer.ExecContext(ctx, insertMessageSQLite, insertArgs(msg)...)
	if err != nil {
		return err
	}
	msg.ID, err = result.LastInsertId()
	return err
}

// SaveBatch stores multiple outbox messages atomically.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if info, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return insertAllSQLite(ctx, info.Tx, msgs)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertAllSQLite(ctx, tx, msgs); err != nil {
		return err
	}
	return tx.Commit()
}

func insertAllSQLite(ctx context.Context, tx *sql.Tx, msgs []*Message) error {
	for _, msg := range msgs {
		result, err := tx.ExecContext(ctx, insertMessageSQLite, insertArgs(msg)...)
		if err != nil {
			return err
		}
		if msg.ID, err = result.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

func insertArgs(msg *Message) []any {
	return []any{
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID.String(),
		msg.EventType,
		msg.RoutingKey,
		string(msg.Payload),
		nullJSON(msg.Metadata),
		msg.CreatedAt.UTC().Format(time.RFC3339),
		nullTime(msg.NextRetryAt),
		nullTime(msg.DeadLetteredAt),
		nullString(msg.DeadLetterReason),
	}
}

// GetUnpublished retrieves unpublished messages ordered by creation time.
func (r *SQLiteRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := selectMessageColumnsSQLite + `
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at
		LIMIT ?
	`

	execer := sharedPersistence.SQLiteDB(ctx, r.db)
	rows, err := execer.QueryContext(ctx, query, nowRFC3339(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessagesSQLite(rows)
}

// MarkPublished marks a message as successfully published.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)
	query := `UPDATE outbox_messages SET published_at = ?, dead_lettered_at = NULL WHERE id = ?`
	_, err := execer.ExecContext(ctx, query, nowRFC3339(), id)
	return err
}

// MarkFailed records a publish failure and the time of the next attempt.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)
	query := `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1,
			last_error = ?,
			next_retry_at = ?
		WHERE id = ?
	`
	_, err := execer.ExecContext(ctx, query, errMsg, nextRetryAt.UTC().Format(time.RFC3339), id)
	return err
}

// MarkDead marks a message as dead-lettered.
func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	execer := sharedPersistence.SQLiteDB(ctx, r.db)
	query := `
		UPDATE outbox_messages
		SET dead_lettered_at = ?,
			dead_letter_reason = ?
		WHERE id = ?
	`
	_, err := execer.ExecContext(ctx, query, nowRFC3339(), reason, id)
	return err
}

// GetFailed retrieves failed messages eligible for retry.
func (r *SQLiteRepository) GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error) {
	query := selectMessageColumnsSQLite + `
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND retry_count > 0
		  AND retry_count < ?
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at
		LIMIT ?
	`

	execer := sharedPersistence.SQLiteDB(ctx, r.db)
	rows, err := execer.QueryContext(ctx, query, maxRetries, nowRFC3339(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessagesSQLite(rows)
}

// DeleteOld removes published messages older than the retention period.
func (r *SQLiteRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339)
	execer := sharedPersistence.SQLiteDB(ctx, r.db)
	query := `DELETE FROM outbox_messages WHERE published_at IS NOT NULL AND published_at < ?`
	result, err := execer.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanMessagesSQLite(rows *sql.Rows) ([]*Message, error) {
	var messages []*Message

	for rows.Next() {
		var msg Message
		var eventID, aggregateID, payload, createdAt string
		var metadata, publishedAt, nextRetryAt, lastError, deadLetteredAt, deadReason sql.NullString
		err := rows.Scan(
			&msg.ID,
			&eventID,
			&msg.AggregateType,
			&aggregateID,
			&msg.EventType,
			&msg.RoutingKey,
			&payload,
			&metadata,
			&createdAt,
			&publishedAt,
			&nextRetryAt,
			&msg.RetryCount,
			&lastError,
			&deadLetteredAt,
			&deadReason,
		)
		if err != nil {
			return nil, err
		}

		msg.EventID, _ = uuid.Parse(eventID)
		msg.AggregateID, _ = uuid.Parse(aggregateID)
		msg.Payload = json.RawMessage(payload)
		if metadata.Valid {
			msg.Metadata = json.RawMessage(metadata.String)
		}
		msg.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		msg.PublishedAt = parseNullTime(publishedAt)
		msg.NextRetryAt = parseNullTime(nextRetryAt)
		msg.DeadLetteredAt = parseNullTime(deadLetteredAt)
		if lastError.Valid {
			msg.LastError = &lastError.String
		}
		if deadReason.Valid {
			msg.DeadLetterReason = &deadReason.String
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}
