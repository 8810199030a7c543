package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Portal identifies one of the two independently deployed applications.
type Portal string

const (
	PortalAdmin Portal = "admin"
	PortalUser  Portal = "user"
)

func (p Portal) Valid() bool {
	return p == PortalAdmin || p == PortalUser
}

// Priority classes are recorded per event and surfaced to consumers; they
// do not reorder the dispatch queue.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

const (
	EventProfileUpdate      = "profile_update"
	EventProcessingStatus   = "processing_status"
	EventAIInsight          = "ai_insight"
	EventMarketIntelligence = "market_intelligence"
	EventNotification       = "notification"
)

// SystemUserID is the reserved user id for system/broadcast events.
const SystemUserID = "system"

// SyncEvent is a durable unit of cross-portal work. EventID is generated
// once at creation and stays stable across retries of the same logical
// event. Processed flips false->true exactly once; FailedAt marks the
// terminal state of an event that exhausted its retry budget.
type SyncEvent struct {
	EventID      uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID       string         `gorm:"not null;index"`
	EventType    string         `gorm:"not null"`
	Payload      datatypes.JSON `gorm:"not null"`
	Priority     Priority       `gorm:"not null"`
	SourcePortal Portal         `gorm:"not null"`
	TargetPortal Portal         `gorm:"not null"`
	CreatedAt    time.Time      `gorm:"not null;index"`
	Processed    bool           `gorm:"not null;default:false;index"`
	ProcessedAt  *time.Time
	RetryCount   int `gorm:"not null;default:0"`
	FailedAt     *time.Time
	LastError    string
}

func (SyncEvent) TableName() string {
	return "sync_events"
}
