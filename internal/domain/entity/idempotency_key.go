package entity

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey maps a producer-supplied key to the sync event it created,
// so replayed submissions return the original event instead of queueing a
// duplicate.
type IdempotencyKey struct {
	Key         string    `gorm:"primaryKey"`
	RequestHash string    `gorm:"not null"`
	EventID     uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}
