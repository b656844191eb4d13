package outbox

import (
	"context"
	"time"
)

// Repository persists outbox messages and tracks their delivery state.
// Save/SaveBatch participate in an ambient transaction when one is carried
// by the context; the remaining methods are used by the relay worker.
type Repository interface {
	Save(ctx context.Context, msg *Message) error
	SaveBatch(ctx context.Context, msgs []*Message) error
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error
	GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error)
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}
