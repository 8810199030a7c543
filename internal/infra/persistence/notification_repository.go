package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
	"github.com/janj3143/careertrojan-bridge/internal/domain/repository"
)

type NotificationRepository struct {
	db *DB
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *entity.PortalNotification) error {
	if n.NotificationID == uuid.Nil {
		n.NotificationID = uuid.New()
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	return r.db.Write(ctx).Create(n).Error
}

func (r *NotificationRepository) InsertIgnoreDuplicate(ctx context.Context, n *entity.PortalNotification) (bool, error) {
	if n.NotificationID == uuid.Nil {
		n.NotificationID = uuid.New()
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	res := r.db.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "notification_id"}},
			DoNothing: true,
		}).
		Create(n)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (entity.PortalNotification, error) {
	var n entity.PortalNotification
	if err := r.db.Read(ctx).First(&n, "notification_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.PortalNotification{}, repository.ErrNotificationNotFound
		}
		return entity.PortalNotification{}, err
	}
	return n, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.Write(ctx).
		Model(&entity.PortalNotification{}).
		Where("notification_id = ? AND read_at IS NULL", id).
		Update("read_at", at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Already read is a no-op; only an unknown id is an error.
		_, err := r.GetByID(ctx, id)
		return err
	}
	return nil
}

func (r *NotificationRepository) List(ctx context.Context, f repository.NotificationFilter) ([]entity.PortalNotification, error) {
	q := r.db.Read(ctx).
		Where("user_id = ? AND portal_target = ?", f.UserID, f.Portal)
	if f.UnreadOnly {
		q = q.Where("read_at IS NULL")
	}
	if !f.Before.IsZero() {
		q = q.Where(
			"sent_at < ? OR (sent_at = ? AND notification_id < ?)",
			f.Before.UTC(), f.Before.UTC(), f.BeforeID,
		)
	}
	q = q.Order("sent_at DESC").Order("notification_id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var notifications []entity.PortalNotification
	if err := q.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.Write(ctx).
		Where("read_at IS NOT NULL AND sent_at < ?", cutoff.UTC()).
		Delete(&entity.PortalNotification{})
	return res.RowsAffected, res.Error
}
