package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
)

// EventRepository persists the durable sync-event log. All operations are
// single-row and atomic unless run inside Store.WithTx.
type EventRepository interface {
	Insert(ctx context.Context, ev *entity.SyncEvent) error
	// InsertIdempotent stores ev under the given idempotency key. When the
	// key was already used with the same request hash, the event created by
	// the first submission is returned with alreadyExist=true; a differing
	// hash yields ErrIdempotencyKeyConflict.
	InsertIdempotent(ctx context.Context, ev *entity.SyncEvent, key, requestHash string) (entity.SyncEvent, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (entity.SyncEvent, error)
	// MarkProcessed flips Processed false->true. It is a no-op on an event
	// that is already processed.
	MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
	// RecordFailure increments RetryCount and stores the failure cause,
	// leaving the event pending.
	RecordFailure(ctx context.Context, id uuid.UUID, cause string) error
	// MarkFailed moves a pending event into the terminal failed state.
	MarkFailed(ctx context.Context, id uuid.UUID, cause string, at time.Time) error
	// PendingIDs returns ids of unprocessed, non-failed events in creation
	// order. limit <= 0 means no limit.
	PendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	// Stale returns pending events created before cutoff, oldest first.
	Stale(ctx context.Context, cutoff time.Time, limit int) ([]entity.SyncEvent, error)
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
