package entity

import (
	"time"

	"gorm.io/datatypes"
)

// UserPortalProfile is the latest known snapshot of a user's
// cross-portal-visible state, upserted by the profile-update handler.
// One row per user.
type UserPortalProfile struct {
	UserID           string `gorm:"primaryKey"`
	Email            string
	Phone            string
	Preferences      datatypes.JSON
	ProcessingStatus string
	ActiveSessions   datatypes.JSON
	LastSync         time.Time `gorm:"not null"`
}

func (UserPortalProfile) TableName() string {
	return "user_portal_profiles"
}
