package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
	"github.com/janj3143/careertrojan-bridge/internal/domain/repository"
)

type EventRepository struct {
	db *DB
}

var _ repository.EventRepository = (*EventRepository)(nil)

func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Insert(ctx context.Context, ev *entity.SyncEvent) error {
	if ev.EventID == uuid.Nil {
		ev.EventID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	return r.db.Write(ctx).Create(ev).Error
}

func (r *EventRepository) InsertIdempotent(ctx context.Context, ev *entity.SyncEvent, key, requestHash string) (entity.SyncEvent, bool, error) {
	var (
		out          entity.SyncEvent
		alreadyExist bool
	)
	err := r.db.WithTx(ctx, func(txCtx context.Context) error {
		var existing entity.IdempotencyKey
		if err := r.db.Write(txCtx).First(&existing, "key = ?", key).Error; err == nil {
			if existing.RequestHash != requestHash {
				return repository.ErrIdempotencyKeyConflict
			}
			fetched, err := r.GetByID(txCtx, existing.EventID)
			if err != nil {
				return err
			}
			out = fetched
			alreadyExist = true
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := r.Insert(txCtx, ev); err != nil {
			return err
		}
		out = *ev

		keyRow := entity.IdempotencyKey{
			Key:         key,
			RequestHash: requestHash,
			EventID:     ev.EventID,
			CreatedAt:   time.Now().UTC(),
		}
		if err := r.db.Write(txCtx).Create(&keyRow).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				var existing entity.IdempotencyKey
				if err := r.db.Write(txCtx).First(&existing, "key = ?", key).Error; err != nil {
					return err
				}
				if existing.RequestHash != requestHash {
					return repository.ErrIdempotencyKeyConflict
				}
				fetched, err := r.GetByID(txCtx, existing.EventID)
				if err != nil {
					return err
				}
				out = fetched
				alreadyExist = true
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return entity.SyncEvent{}, false, err
	}
	return out, alreadyExist, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (entity.SyncEvent, error) {
	var ev entity.SyncEvent
	if err := r.db.Read(ctx).First(&ev, "event_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.SyncEvent{}, repository.ErrEventNotFound
		}
		return entity.SyncEvent{}, err
	}
	return ev, nil
}

func (r *EventRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.Write(ctx).
		Model(&entity.SyncEvent{}).
		Where("event_id = ? AND processed = ? AND failed_at IS NULL", id, false).
		Updates(map[string]any{"processed": true, "processed_at": at.UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either already processed (no-op) or unknown.
		_, err := r.GetByID(ctx, id)
		return err
	}
	return nil
}

func (r *EventRepository) RecordFailure(ctx context.Context, id uuid.UUID, cause string) error {
	res := r.db.Write(ctx).
		Model(&entity.SyncEvent{}).
		Where("event_id = ? AND processed = ?", id, false).
		Updates(map[string]any{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  cause,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	return nil
}

func (r *EventRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause string, at time.Time) error {
	return r.db.Write(ctx).
		Model(&entity.SyncEvent{}).
		Where("event_id = ? AND processed = ? AND failed_at IS NULL", id, false).
		Updates(map[string]any{"failed_at": at.UTC(), "last_error": cause}).Error
}

func (r *EventRepository) PendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	q := r.db.Read(ctx).
		Model(&entity.SyncEvent{}).
		Where("processed = ? AND failed_at IS NULL", false).
		Order("created_at")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ids []uuid.UUID
	if err := q.Pluck("event_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *EventRepository) Stale(ctx context.Context, cutoff time.Time, limit int) ([]entity.SyncEvent, error) {
	q := r.db.Read(ctx).
		Where("processed = ? AND failed_at IS NULL AND created_at < ?", false, cutoff.UTC()).
		Order("created_at")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var events []entity.SyncEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.Write(ctx).
		Where("processed = ? AND created_at < ?", true, cutoff.UTC()).
		Delete(&entity.SyncEvent{})
	return res.RowsAffected, res.Error
}
