package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
	"github.com/janj3143/careertrojan-bridge/internal/domain/repository"
)

type StatusRepository struct {
	db *DB
}

var _ repository.StatusRepository = (*StatusRepository)(nil)

func NewStatusRepository(db *DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// GetByUserID returns a zero-valued healthy record for users the bridge has
// not synced yet, so diagnostic reads never fail on a fresh user.
func (r *StatusRepository) GetByUserID(ctx context.Context, userID string) (entity.IntegrationStatus, error) {
	var st entity.IntegrationStatus
	if err := r.db.Read(ctx).First(&st, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.IntegrationStatus{
				UserID:            userID,
				AdminPortalStatus: entity.PortalStatusActive,
				UserPortalStatus:  entity.PortalStatusActive,
			}, nil
		}
		return entity.IntegrationStatus{}, err
	}
	return st, nil
}

func (r *StatusRepository) TouchSync(ctx context.Context, userID string, portal entity.Portal, at time.Time) error {
	column := "last_user_sync"
	if portal == entity.PortalAdmin {
		column = "last_admin_sync"
	}

	row := entity.IntegrationStatus{
		UserID:            userID,
		AdminPortalStatus: entity.PortalStatusActive,
		UserPortalStatus:  entity.PortalStatusActive,
		UpdatedAt:         at.UTC(),
	}
	ts := at.UTC()
	if portal == entity.PortalAdmin {
		row.LastAdminSync = &ts
	} else {
		row.LastUserSync = &ts
	}

	return r.db.Write(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				column:       ts,
				"updated_at": ts,
			}),
		}).
		Create(&row).Error
}

func (r *StatusRepository) BumpSyncErrors(ctx context.Context, userID string, at time.Time) error {
	return r.bumpCounter(ctx, userID, "sync_errors", at)
}

func (r *StatusRepository) BumpFailedEvents(ctx context.Context, userID string, at time.Time) error {
	return r.bumpCounter(ctx, userID, "failed_events", at)
}

func (r *StatusRepository) bumpCounter(ctx context.Context, userID, column string, at time.Time) error {
	row := entity.IntegrationStatus{
		UserID:            userID,
		AdminPortalStatus: entity.PortalStatusActive,
		UserPortalStatus:  entity.PortalStatusActive,
		UpdatedAt:         at.UTC(),
	}
	if column == "sync_errors" {
		row.SyncErrors = 1
	} else {
		row.FailedEvents = 1
	}

	return r.db.Write(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				column:       gorm.Expr(column + " + 1"),
				"updated_at": at.UTC(),
			}),
		}).
		Create(&row).Error
}
