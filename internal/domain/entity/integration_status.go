package entity

import "time"

const (
	PortalStatusActive   = "active"
	PortalStatusDegraded = "degraded"
)

// IntegrationStatus is the per-user health record read by diagnostic
// collaborators. SyncErrors counts handler failures; FailedEvents counts
// events that exhausted their retry budget.
type IntegrationStatus struct {
	UserID            string `gorm:"primaryKey"`
	AdminPortalStatus string `gorm:"not null;default:active"`
	UserPortalStatus  string `gorm:"not null;default:active"`
	LastAdminSync     *time.Time
	LastUserSync      *time.Time
	SyncErrors        int       `gorm:"not null;default:0"`
	FailedEvents      int       `gorm:"not null;default:0"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (IntegrationStatus) TableName() string {
	return "integration_statuses"
}
