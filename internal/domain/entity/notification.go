package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	NotificationProcessingComplete = "processing_complete"
	NotificationProcessingUpdate   = "processing_update"
	NotificationProfileUpdated     = "profile_updated"
	NotificationNewInsights        = "new_insights"
	NotificationMarketUpdate       = "market_update"
	NotificationSyncEvent          = "sync_event"
)

// PortalNotification is a user-visible message derived from processing a
// SyncEvent. ReadAt is set at most once and never cleared; PortalTarget
// equals the originating event's target portal.
type PortalNotification struct {
	NotificationID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID           string    `gorm:"not null;index:idx_notifications_user_portal,priority:1"`
	NotificationType string    `gorm:"not null"`
	Title            string    `gorm:"not null"`
	Message          string    `gorm:"not null"`
	Payload          datatypes.JSON
	Priority         Priority  `gorm:"not null"`
	PortalTarget     Portal    `gorm:"not null;index:idx_notifications_user_portal,priority:2"`
	SentAt           time.Time `gorm:"not null;index"`
	ReadAt           *time.Time
}

func (PortalNotification) TableName() string {
	return "portal_notifications"
}
