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

type ProfileRepository struct {
	db *DB
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)

func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *entity.UserPortalProfile) error {
	if p.LastSync.IsZero() {
		p.LastSync = time.Now().UTC()
	}

	assignments := map[string]any{"last_sync": p.LastSync.UTC()}
	if p.Email != "" {
		assignments["email"] = p.Email
	}
	if p.Phone != "" {
		assignments["phone"] = p.Phone
	}
	if len(p.Preferences) > 0 {
		assignments["preferences"] = p.Preferences
	}
	if p.ProcessingStatus != "" {
		assignments["processing_status"] = p.ProcessingStatus
	}
	if len(p.ActiveSessions) > 0 {
		assignments["active_sessions"] = p.ActiveSessions
	}

	return r.db.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(p).Error
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (entity.UserPortalProfile, error) {
	var p entity.UserPortalProfile
	if err := r.db.Read(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.UserPortalProfile{}, repository.ErrProfileNotFound
		}
		return entity.UserPortalProfile{}, err
	}
	return p, nil
}

func (r *ProfileRepository) SetProcessingStatus(ctx context.Context, userID, status string, at time.Time) error {
	return r.db.Write(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"processing_status": status,
				"last_sync":         at.UTC(),
			}),
		}).
		Create(&entity.UserPortalProfile{
			UserID:           userID,
			ProcessingStatus: status,
			LastSync:         at.UTC(),
		}).Error
}
