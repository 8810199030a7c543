package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
)

// NotificationFilter selects a page of notifications for one user and
// portal. Before/BeforeID carry the keyset cursor; zero values mean the
// first page.
type NotificationFilter struct {
	UserID     string
	Portal     entity.Portal
	UnreadOnly bool
	Limit      int
	Before     time.Time
	BeforeID   uuid.UUID
}

type NotificationRepository interface {
	Insert(ctx context.Context, n *entity.PortalNotification) error
	// InsertIgnoreDuplicate inserts n unless a row with the same id already
	// exists. Used by the relay ingest path, where redeliveries are normal.
	InsertIgnoreDuplicate(ctx context.Context, n *entity.PortalNotification) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (entity.PortalNotification, error)
	// MarkRead sets ReadAt if unset. Repeated calls are no-ops; only an
	// unknown id is an error.
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
	// List returns notifications newest-first.
	List(ctx context.Context, f NotificationFilter) ([]entity.PortalNotification, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
